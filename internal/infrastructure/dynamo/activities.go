package dynamo

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/cashflow-api/internal/domain"
)

// ActivityRepo provides typed DynamoDB operations for the activity log table.
type ActivityRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewActivityRepo(client *dynamodb.Client, tableName string) *ActivityRepo {
	return &ActivityRepo{client: client, tableName: tableName}
}

func (r *ActivityRepo) Create(ctx context.Context, a *domain.Activity) error {
	item, err := marshalMap(a)
	if err != nil {
		return fmt.Errorf("marshal activity: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("put activity: %w", err)
	}
	return nil
}

func (r *ActivityRepo) ListByUser(ctx context.Context, userID string, since *time.Time) ([]domain.Activity, error) {
	items, err := queryByUser(ctx, r.client, userQuery{
		Table:    r.tableName,
		Index:    indexUserTimestamp,
		SortAttr: fieldTimestamp,
		UserID:   userID,
		From:     since,
	})
	if err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	activities := []domain.Activity{}
	if err := attributevalue.UnmarshalListOfMaps(items, &activities); err != nil {
		return nil, fmt.Errorf("unmarshal activities: %w", err)
	}
	sort.SliceStable(activities, func(i, j int) bool {
		return activities[i].Timestamp.After(activities[j].Timestamp)
	})
	return activities, nil
}
