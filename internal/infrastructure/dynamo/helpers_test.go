package dynamo

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/cashflow-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildUpdateExpr_SingleField(t *testing.T) {
	ue, err := buildUpdateExpr(map[string]interface{}{"first_name": "Ada"})
	require.NoError(t, err)
	assert.Equal(t, "SET #f0 = :v0", ue.Expr)
	assert.Equal(t, map[string]string{"#f0": "first_name"}, ue.Names)
	_, ok := ue.Values[":v0"]
	assert.True(t, ok)
}

func TestBuildUpdateExpr_MultipleFields_Deterministic(t *testing.T) {
	updates := map[string]interface{}{
		"phone":      "+15550100",
		"first_name": "Ada",
		"last_name":  "Lovelace",
	}
	ue1, err := buildUpdateExpr(updates)
	require.NoError(t, err)
	ue2, err := buildUpdateExpr(updates)
	require.NoError(t, err)

	assert.Equal(t, ue1.Expr, ue2.Expr)
	assert.Equal(t, "first_name", ue1.Names["#f0"])
	assert.Equal(t, "last_name", ue1.Names["#f1"])
	assert.Equal(t, "phone", ue1.Names["#f2"])
	assert.Equal(t, "SET #f0 = :v0, #f1 = :v1, #f2 = :v2", ue1.Expr)
}

func TestBuildUpdateExpr_ValuesMarshalledCorrectly(t *testing.T) {
	ue, err := buildUpdateExpr(map[string]interface{}{"is_verified": true})
	require.NoError(t, err)
	av, ok := ue.Values[":v0"]
	require.True(t, ok)
	boolVal, isBool := av.(*types.AttributeValueMemberBOOL)
	require.True(t, isBool)
	assert.True(t, boolVal.Value)
}

func TestBuildUpdateExpr_NilPointerBecomesNull(t *testing.T) {
	var token *string
	ue, err := buildUpdateExpr(map[string]interface{}{"reset_token": token})
	require.NoError(t, err)
	_, isNull := ue.Values[":v0"].(*types.AttributeValueMemberNULL)
	assert.True(t, isNull)
}

func TestBuildUpdateExpr_EmptyMap_ReturnsError(t *testing.T) {
	_, err := buildUpdateExpr(map[string]interface{}{})
	assert.ErrorContains(t, err, "no fields to update")
}

func TestIsConditionFailure(t *testing.T) {
	assert.True(t, isConditionFailure(&types.ConditionalCheckFailedException{}))
	assert.True(t, isConditionFailure(fmt.Errorf("put: %w", &types.TransactionCanceledException{
		CancellationReasons: []types.CancellationReason{
			{Code: aws.String("None")},
			{Code: aws.String("ConditionalCheckFailed")},
		},
	})))
	assert.False(t, isConditionFailure(&types.TransactionCanceledException{
		CancellationReasons: []types.CancellationReason{{Code: aws.String("ThrottlingError")}},
	}))
	assert.False(t, isConditionFailure(errors.New("boom")))
}

func TestFingerprintKey(t *testing.T) {
	k1 := fingerprintKey("u1", "iPhone", "Safari 17", "iOS 17")
	k2 := fingerprintKey("u1", "iPhone", "Safari 17", "iOS 17")
	k3 := fingerprintKey("u1", "iPhone", "Safari 18", "iOS 17")
	assert.Equal(t, k1, k2)
	assert.NotEqual(t, k1, k3)
	// Separators inside values must not collide with another split.
	assert.NotEqual(t, fingerprintKey("u1", "a#b", "c", "d"), fingerprintKey("u1", "a", "b#c", "d"))
}

func TestEncodeTime_OrdersLexically(t *testing.T) {
	whole := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	half := whole.Add(500 * time.Millisecond)

	a, err := marshal(whole)
	require.NoError(t, err)
	b, err := marshal(half)
	require.NoError(t, err)
	ws := a.(*types.AttributeValueMemberS).Value
	hs := b.(*types.AttributeValueMemberS).Value

	assert.Equal(t, "2026-05-01T12:00:00.000000000Z", ws)
	assert.Equal(t, "2026-05-01T12:00:00.500000000Z", hs)
	assert.Less(t, ws, hs)
	assert.Len(t, hs, len(ws))
}

func TestEncodeTime_NormalizesZone(t *testing.T) {
	local := time.Date(2026, 5, 1, 14, 0, 0, 0, time.FixedZone("CEST", 2*3600))
	av, err := marshal(local)
	require.NoError(t, err)
	assert.Equal(t, "2026-05-01T12:00:00.000000000Z", av.(*types.AttributeValueMemberS).Value)
}

func TestMarshalMap_RoundTripsFixedWidthTime(t *testing.T) {
	ts := time.Date(2026, 5, 1, 12, 0, 0, 500, time.UTC)
	in := domain.Activity{ActivityID: "a1", UserID: "u1", Action: domain.ActionLogin, Timestamp: ts}

	item, err := marshalMap(in)
	require.NoError(t, err)
	assert.Equal(t, "2026-05-01T12:00:00.000000500Z", item[fieldTimestamp].(*types.AttributeValueMemberS).Value)

	var out domain.Activity
	require.NoError(t, attributevalue.UnmarshalMap(item, &out))
	assert.True(t, ts.Equal(out.Timestamp))
}

func TestUserUpdates_OnlyNamedFields(t *testing.T) {
	token := "reset-me"
	u := &domain.User{UserID: "u1", FirstName: "Ada", Phone: "+15550100", ResetToken: &token}

	updates, err := userUpdates(u, []domain.UserField{domain.FieldResetToken, domain.FieldResetTokenExpiry})
	require.NoError(t, err)
	assert.Len(t, updates, 3)
	assert.Equal(t, &token, updates["reset_token"])
	assert.Contains(t, updates, "reset_token_expiry")
	assert.Contains(t, updates, fieldUpdatedAt)
	assert.NotContains(t, updates, "first_name")
	assert.NotContains(t, updates, "phone")
}

func TestUserUpdates_Rejects(t *testing.T) {
	u := &domain.User{UserID: "u1"}
	_, err := userUpdates(u, nil)
	assert.Error(t, err)
	_, err = userUpdates(u, []domain.UserField{"email"})
	assert.Error(t, err)
}

func TestCancelledAt(t *testing.T) {
	err := fmt.Errorf("write: %w", &types.TransactionCanceledException{
		CancellationReasons: []types.CancellationReason{
			{Code: aws.String("None")},
			{Code: aws.String("ConditionalCheckFailed")},
		},
	})
	assert.False(t, cancelledAt(err, 0))
	assert.True(t, cancelledAt(err, 1))
	assert.False(t, cancelledAt(err, 2))
	assert.False(t, cancelledAt(errors.New("boom"), 0))
	assert.False(t, cancelledAt(nil, 0))
}

func TestClaimKey(t *testing.T) {
	assert.Equal(t, claimKey("tag-name", "u1", "Rent"), claimKey("tag-name", "u1", "rent"))
	assert.NotEqual(t, claimKey("tag-name", "u1", "rent"), claimKey("tag-name", "u2", "rent"))
	assert.NotEqual(t,
		contactEmailKey("u1", domain.KindCustomer, "a@x.test"),
		contactEmailKey("u1", domain.KindVendor, "a@x.test"))
	// a separator inside a value cannot forge another key
	assert.NotEqual(t, claimKey("s", "u1", `a"|"b`), claimKey("s", "u1", "a", "b"))
}

func TestMarshalMap_Transaction(t *testing.T) {
	vendor := "v1"
	tx := domain.Transaction{
		TransactionID: "t1",
		UserID:        "u1",
		Type:          domain.TransactionPayment,
		Amount:        12.5,
		Date:          time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		PaymentMode:   domain.PaymentCreditCard,
		VendorID:      &vendor,
	}
	item, err := marshalMap(tx)
	require.NoError(t, err)
	assert.Equal(t, &types.AttributeValueMemberN{Value: "12.5"}, item["amount"])
	assert.Equal(t, &types.AttributeValueMemberS{Value: "2026-03-01T00:00:00.000000000Z"}, item[fieldDate])
	_, isNull := item["customer_id"].(*types.AttributeValueMemberNULL)
	assert.True(t, isNull)

	var back domain.Transaction
	require.NoError(t, attributevalue.UnmarshalMap(item, &back))
	assert.Equal(t, tx, back)
}
