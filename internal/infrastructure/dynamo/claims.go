package dynamo

import (
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// claimKey names a value that must be unique within scope for one user.
// Parts are quoted so values containing the separator cannot collide.
func claimKey(scope, userID string, parts ...string) string {
	out := []string{scope, userID}
	for _, p := range parts {
		out = append(out, strconv.Quote(strings.ToLower(p)))
	}
	return strings.Join(out, "|")
}

// putClaim fails the surrounding transaction when key is already claimed.
func putClaim(table, key, ownerID string) *types.Put {
	return &types.Put{
		TableName: aws.String(table),
		Item: map[string]types.AttributeValue{
			fieldClaim:   &types.AttributeValueMemberS{Value: key},
			fieldOwnerID: &types.AttributeValueMemberS{Value: ownerID},
		},
		ConditionExpression: aws.String("attribute_not_exists(claim)"),
	}
}

func deleteClaim(table, key string) *types.Delete {
	return &types.Delete{
		TableName: aws.String(table),
		Key:       strKey(fieldClaim, key),
	}
}
