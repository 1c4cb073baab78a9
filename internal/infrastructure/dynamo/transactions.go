package dynamo

import (
	"context"
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/cashflow-api/internal/domain"
)

// TransactionRepo stores payments and sales, indexed by user and date.
type TransactionRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewTransactionRepo(client *dynamodb.Client, tableName string) *TransactionRepo {
	return &TransactionRepo{client: client, tableName: tableName}
}

func (r *TransactionRepo) Create(ctx context.Context, t *domain.Transaction) error {
	return r.put(ctx, t, "attribute_not_exists(transaction_id)")
}

func (r *TransactionRepo) Get(ctx context.Context, userID, transactionID string) (*domain.Transaction, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            strKey(fieldTransactionID, transactionID),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("get transaction: %w", err)
	}
	if out.Item == nil {
		return nil, fmt.Errorf("transaction %s: %w", transactionID, domain.ErrNotFound)
	}
	var t domain.Transaction
	if err := attributevalue.UnmarshalMap(out.Item, &t); err != nil {
		return nil, fmt.Errorf("unmarshal transaction: %w", err)
	}
	if t.UserID != userID {
		return nil, fmt.Errorf("transaction %s: %w", transactionID, domain.ErrNotFound)
	}
	return &t, nil
}

// ListByUser returns the user's transactions matching f, newest first.
func (r *TransactionRepo) ListByUser(ctx context.Context, userID string, f domain.TransactionFilter) ([]domain.Transaction, error) {
	q := userQuery{
		Table:    r.tableName,
		Index:    indexUserDate,
		SortAttr: fieldDate,
		UserID:   userID,
		From:     f.From,
		To:       f.To,
		Limit:    f.Limit,
	}
	if f.Type != "" {
		q.Filter = map[string]string{fieldType: f.Type}
	}
	items, err := queryByUser(ctx, r.client, q)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	txs := []domain.Transaction{}
	if err := attributevalue.UnmarshalListOfMaps(items, &txs); err != nil {
		return nil, fmt.Errorf("unmarshal transactions: %w", err)
	}
	sort.SliceStable(txs, func(i, j int) bool {
		return txs[i].Date.After(txs[j].Date)
	})
	return txs, nil
}

func (r *TransactionRepo) Update(ctx context.Context, t *domain.Transaction) error {
	return r.put(ctx, t, "attribute_exists(transaction_id)")
}

func (r *TransactionRepo) Delete(ctx context.Context, t *domain.Transaction) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 strKey(fieldTransactionID, t.TransactionID),
		ConditionExpression: aws.String("attribute_exists(transaction_id)"),
	})
	if isConditionFailure(err) {
		return fmt.Errorf("transaction %s: %w", t.TransactionID, domain.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return nil
}

func (r *TransactionRepo) put(ctx context.Context, t *domain.Transaction, condition string) error {
	item, err := marshalMap(t)
	if err != nil {
		return fmt.Errorf("marshal transaction: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                item,
		ConditionExpression: aws.String(condition),
	})
	if isConditionFailure(err) {
		return fmt.Errorf("transaction %s: %w", t.TransactionID, domain.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("put transaction: %w", err)
	}
	return nil
}
