package dynamo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/cashflow-api/internal/domain"
)

// UserRepo stores credentials in the users table. Email uniqueness is held by
// a claim item per address in the emails table, written in the same
// transaction as the user.
type UserRepo struct {
	client     *dynamodb.Client
	tableName  string
	emailTable string
}

func NewUserRepo(client *dynamodb.Client, tableName, emailTable string) *UserRepo {
	return &UserRepo{client: client, tableName: tableName, emailTable: emailTable}
}

// Create inserts a new user. Returns domain.ErrDuplicateEmail when the address
// is already claimed.
func (r *UserRepo) Create(ctx context.Context, u *domain.User) error {
	item, err := marshalMap(u)
	if err != nil {
		return fmt.Errorf("marshal user: %w", err)
	}
	_, err = r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{Put: r.emailClaim(u.Email, u.UserID)},
			{Put: &types.Put{
				TableName:           aws.String(r.tableName),
				Item:                item,
				ConditionExpression: aws.String("attribute_not_exists(user_id)"),
			}},
		},
	})
	if isConditionFailure(err) {
		return fmt.Errorf("create user %s: %w", u.Email, domain.ErrDuplicateEmail)
	}
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (r *UserRepo) Get(ctx context.Context, userID string) (*domain.User, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            strKey(fieldUserID, userID),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if out.Item == nil {
		return nil, fmt.Errorf("user %s: %w", userID, domain.ErrNotFound)
	}
	var u domain.User
	if err := attributevalue.UnmarshalMap(out.Item, &u); err != nil {
		return nil, fmt.Errorf("unmarshal user: %w", err)
	}
	return &u, nil
}

// GetByEmail resolves the address through its claim item.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.emailTable),
		Key:            strKey(fieldEmail, email),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("get email claim: %w", err)
	}
	if out.Item == nil {
		return nil, fmt.Errorf("user %s: %w", email, domain.ErrNotFound)
	}
	var claim struct {
		UserID string `dynamodbav:"user_id"`
	}
	if err := attributevalue.UnmarshalMap(out.Item, &claim); err != nil {
		return nil, fmt.Errorf("unmarshal email claim: %w", err)
	}
	return r.Get(ctx, claim.UserID)
}

// Update writes the named fields of u plus updated_at. Other attributes are
// left as stored, so concurrent flows touching different fields do not
// overwrite each other.
func (r *UserRepo) Update(ctx context.Context, u *domain.User, fields ...domain.UserField) error {
	u.UpdatedAt = time.Now().UTC()
	updates, err := userUpdates(u, fields)
	if err != nil {
		return err
	}
	ue, err := buildUpdateExpr(updates)
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey(fieldUserID, u.UserID),
		UpdateExpression:          aws.String(ue.Expr),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
		ConditionExpression:       aws.String("attribute_exists(user_id)"),
	})
	if isConditionFailure(err) {
		return fmt.Errorf("user %s: %w", u.UserID, domain.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	return nil
}

// ChangeEmail moves u from previous to u.Email: the new address is claimed,
// the old claim released and the email plus pending-change fields rewritten
// in one transaction.
func (r *UserRepo) ChangeEmail(ctx context.Context, u *domain.User, previous string) error {
	u.UpdatedAt = time.Now().UTC()
	updates, err := userUpdates(u, []domain.UserField{domain.FieldPendingEmail, domain.FieldEmailOTP, domain.FieldEmailOTPExpiry})
	if err != nil {
		return err
	}
	updates[fieldEmail] = u.Email
	ue, err := buildUpdateExpr(updates)
	if err != nil {
		return err
	}
	ue.Names["#e"] = fieldEmail
	ue.Values[":previous"] = &types.AttributeValueMemberS{Value: previous}
	_, err = r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{Put: r.emailClaim(u.Email, u.UserID)},
			{Delete: &types.Delete{
				TableName: aws.String(r.emailTable),
				Key:       strKey(fieldEmail, previous),
			}},
			{Update: &types.Update{
				TableName:                 aws.String(r.tableName),
				Key:                       strKey(fieldUserID, u.UserID),
				UpdateExpression:          aws.String(ue.Expr),
				ExpressionAttributeNames:  ue.Names,
				ExpressionAttributeValues: ue.Values,
				ConditionExpression:       aws.String("#e = :previous"),
			}},
		},
	})
	if isConditionFailure(err) {
		return fmt.Errorf("change email to %s: %w", u.Email, domain.ErrDuplicateEmail)
	}
	if err != nil {
		return fmt.Errorf("change email: %w", err)
	}
	return nil
}

func (r *UserRepo) emailClaim(email, userID string) *types.Put {
	return &types.Put{
		TableName: aws.String(r.emailTable),
		Item: map[string]types.AttributeValue{
			fieldEmail:  &types.AttributeValueMemberS{Value: email},
			fieldUserID: &types.AttributeValueMemberS{Value: userID},
		},
		ConditionExpression: aws.String("attribute_not_exists(email)"),
	}
}

// userUpdates maps fields to their values on u, always including updated_at.
func userUpdates(u *domain.User, fields []domain.UserField) (map[string]interface{}, error) {
	if len(fields) == 0 {
		return nil, errors.New("no user fields to update")
	}
	updates := make(map[string]interface{}, len(fields)+1)
	for _, f := range fields {
		v, ok := u.Value(f)
		if !ok {
			return nil, fmt.Errorf("unknown user field %q", f)
		}
		updates[string(f)] = v
	}
	updates[fieldUpdatedAt] = u.UpdatedAt
	return updates, nil
}
