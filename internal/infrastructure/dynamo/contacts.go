package dynamo

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/cashflow-api/internal/domain"
)

// ContactRepo stores customers and vendors in one table. A non-empty email
// is claimed in the uniques table per {user, kind}.
type ContactRepo struct {
	client     *dynamodb.Client
	tableName  string
	claimTable string
}

func NewContactRepo(client *dynamodb.Client, tableName, claimTable string) *ContactRepo {
	return &ContactRepo{client: client, tableName: tableName, claimTable: claimTable}
}

func (r *ContactRepo) Create(ctx context.Context, c *domain.Contact) error {
	item, err := marshalMap(c)
	if err != nil {
		return fmt.Errorf("marshal contact: %w", err)
	}
	items := []types.TransactWriteItem{{Put: &types.Put{
		TableName:           aws.String(r.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(contact_id)"),
	}}}
	if c.Email != "" {
		items = append(items, types.TransactWriteItem{Put: putClaim(r.claimTable, contactEmailKey(c.UserID, c.Kind, c.Email), c.ContactID)})
	}
	_, err = r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{TransactItems: items})
	if cancelledAt(err, 1) {
		return fmt.Errorf("create %s %s: %w", c.Kind, c.Email, domain.ErrContactEmailTaken)
	}
	if err != nil {
		return fmt.Errorf("create contact: %w", err)
	}
	return nil
}

// Get returns the contact only when it belongs to userID.
func (r *ContactRepo) Get(ctx context.Context, userID, contactID string) (*domain.Contact, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            strKey(fieldContactID, contactID),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("get contact: %w", err)
	}
	if out.Item == nil {
		return nil, fmt.Errorf("contact %s: %w", contactID, domain.ErrNotFound)
	}
	var c domain.Contact
	if err := attributevalue.UnmarshalMap(out.Item, &c); err != nil {
		return nil, fmt.Errorf("unmarshal contact: %w", err)
	}
	if c.UserID != userID {
		return nil, fmt.Errorf("contact %s: %w", contactID, domain.ErrNotFound)
	}
	return &c, nil
}

// ListByUser returns the user's contacts of kind, newest first.
func (r *ContactRepo) ListByUser(ctx context.Context, userID string, kind domain.ContactKind) ([]domain.Contact, error) {
	items, err := queryByUser(ctx, r.client, userQuery{
		Table:    r.tableName,
		Index:    indexUserCreatedAt,
		SortAttr: fieldCreatedAt,
		UserID:   userID,
		Filter:   map[string]string{fieldKind: string(kind)},
	})
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	contacts := []domain.Contact{}
	if err := attributevalue.UnmarshalListOfMaps(items, &contacts); err != nil {
		return nil, fmt.Errorf("unmarshal contacts: %w", err)
	}
	sort.SliceStable(contacts, func(i, j int) bool {
		return contacts[i].CreatedAt.After(contacts[j].CreatedAt)
	})
	return contacts, nil
}

// Update replaces the stored contact. When the email changes the new address
// is claimed and the previous claim released in the same transaction.
func (r *ContactRepo) Update(ctx context.Context, c *domain.Contact, previousEmail string) error {
	item, err := marshalMap(c)
	if err != nil {
		return fmt.Errorf("marshal contact: %w", err)
	}
	items := []types.TransactWriteItem{{Put: &types.Put{
		TableName:           aws.String(r.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_exists(contact_id)"),
	}}}
	if !strings.EqualFold(c.Email, previousEmail) {
		if c.Email != "" {
			items = append(items, types.TransactWriteItem{Put: putClaim(r.claimTable, contactEmailKey(c.UserID, c.Kind, c.Email), c.ContactID)})
		}
		if previousEmail != "" {
			items = append(items, types.TransactWriteItem{Delete: deleteClaim(r.claimTable, contactEmailKey(c.UserID, c.Kind, previousEmail))})
		}
	}
	_, err = r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{TransactItems: items})
	switch {
	case cancelledAt(err, 0):
		return fmt.Errorf("contact %s: %w", c.ContactID, domain.ErrNotFound)
	case cancelledAt(err, 1):
		return fmt.Errorf("update %s %s: %w", c.Kind, c.Email, domain.ErrContactEmailTaken)
	case err != nil:
		return fmt.Errorf("update contact: %w", err)
	}
	return nil
}

func (r *ContactRepo) Delete(ctx context.Context, c *domain.Contact) error {
	items := []types.TransactWriteItem{{Delete: &types.Delete{
		TableName:           aws.String(r.tableName),
		Key:                 strKey(fieldContactID, c.ContactID),
		ConditionExpression: aws.String("attribute_exists(contact_id)"),
	}}}
	if c.Email != "" {
		items = append(items, types.TransactWriteItem{Delete: deleteClaim(r.claimTable, contactEmailKey(c.UserID, c.Kind, c.Email))})
	}
	_, err := r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{TransactItems: items})
	if cancelledAt(err, 0) {
		return fmt.Errorf("contact %s: %w", c.ContactID, domain.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("delete contact: %w", err)
	}
	return nil
}

func contactEmailKey(userID string, kind domain.ContactKind, email string) string {
	return claimKey("contact-email", userID, string(kind), email)
}
