package dynamo

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/cashflow-api/internal/domain"
)

// TagRepo stores tags. Each name is claimed per user, ignoring case.
type TagRepo struct {
	client     *dynamodb.Client
	tableName  string
	claimTable string
}

func NewTagRepo(client *dynamodb.Client, tableName, claimTable string) *TagRepo {
	return &TagRepo{client: client, tableName: tableName, claimTable: claimTable}
}

func (r *TagRepo) Create(ctx context.Context, t *domain.Tag) error {
	item, err := marshalMap(t)
	if err != nil {
		return fmt.Errorf("marshal tag: %w", err)
	}
	_, err = r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{Put: putClaim(r.claimTable, tagNameKey(t.UserID, t.Name), t.TagID)},
			{Put: &types.Put{
				TableName:           aws.String(r.tableName),
				Item:                item,
				ConditionExpression: aws.String("attribute_not_exists(tag_id)"),
			}},
		},
	})
	if isConditionFailure(err) {
		return fmt.Errorf("create tag %s: %w", t.Name, domain.ErrDuplicateTag)
	}
	if err != nil {
		return fmt.Errorf("create tag: %w", err)
	}
	return nil
}

func (r *TagRepo) Get(ctx context.Context, userID, tagID string) (*domain.Tag, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            strKey(fieldTagID, tagID),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("get tag: %w", err)
	}
	if out.Item == nil {
		return nil, fmt.Errorf("tag %s: %w", tagID, domain.ErrNotFound)
	}
	var t domain.Tag
	if err := attributevalue.UnmarshalMap(out.Item, &t); err != nil {
		return nil, fmt.Errorf("unmarshal tag: %w", err)
	}
	if t.UserID != userID {
		return nil, fmt.Errorf("tag %s: %w", tagID, domain.ErrNotFound)
	}
	return &t, nil
}

func (r *TagRepo) ListByUser(ctx context.Context, userID string) ([]domain.Tag, error) {
	items, err := queryByUser(ctx, r.client, userQuery{
		Table:    r.tableName,
		Index:    indexUserCreatedAt,
		SortAttr: fieldCreatedAt,
		UserID:   userID,
	})
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	tags := []domain.Tag{}
	if err := attributevalue.UnmarshalListOfMaps(items, &tags); err != nil {
		return nil, fmt.Errorf("unmarshal tags: %w", err)
	}
	return tags, nil
}

// Update replaces the stored tag, moving the name claim when the name
// changes other than in case.
func (r *TagRepo) Update(ctx context.Context, t *domain.Tag, previousName string) error {
	item, err := marshalMap(t)
	if err != nil {
		return fmt.Errorf("marshal tag: %w", err)
	}
	items := []types.TransactWriteItem{{Put: &types.Put{
		TableName:           aws.String(r.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_exists(tag_id)"),
	}}}
	if !strings.EqualFold(t.Name, previousName) {
		items = append(items,
			types.TransactWriteItem{Put: putClaim(r.claimTable, tagNameKey(t.UserID, t.Name), t.TagID)},
			types.TransactWriteItem{Delete: deleteClaim(r.claimTable, tagNameKey(t.UserID, previousName))},
		)
	}
	_, err = r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{TransactItems: items})
	switch {
	case cancelledAt(err, 0):
		return fmt.Errorf("tag %s: %w", t.TagID, domain.ErrNotFound)
	case cancelledAt(err, 1):
		return fmt.Errorf("rename tag to %s: %w", t.Name, domain.ErrDuplicateTag)
	case err != nil:
		return fmt.Errorf("update tag: %w", err)
	}
	return nil
}

func (r *TagRepo) Delete(ctx context.Context, t *domain.Tag) error {
	_, err := r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{Delete: &types.Delete{
				TableName:           aws.String(r.tableName),
				Key:                 strKey(fieldTagID, t.TagID),
				ConditionExpression: aws.String("attribute_exists(tag_id)"),
			}},
			{Delete: deleteClaim(r.claimTable, tagNameKey(t.UserID, t.Name))},
		},
	})
	if cancelledAt(err, 0) {
		return fmt.Errorf("tag %s: %w", t.TagID, domain.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("delete tag: %w", err)
	}
	return nil
}

func tagNameKey(userID, name string) string {
	return claimKey("tag-name", userID, name)
}
