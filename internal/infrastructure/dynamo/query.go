package dynamo

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// userQuery selects a user's items through a user_id GSI whose sort key is a
// timestamp. From and To are inclusive. Filter matches attributes by string
// equality after the key condition. Paging stops once Limit items are read.
type userQuery struct {
	Table    string
	Index    string
	SortAttr string
	UserID   string
	From     *time.Time
	To       *time.Time
	Filter   map[string]string
	Limit    int
}

// queryByUser pages through q newest first.
func queryByUser(ctx context.Context, client *dynamodb.Client, q userQuery) ([]map[string]types.AttributeValue, error) {
	input, err := q.input()
	if err != nil {
		return nil, err
	}
	var items []map[string]types.AttributeValue
	p := dynamodb.NewQueryPaginator(client, input)
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		items = append(items, page.Items...)
		if q.Limit > 0 && len(items) >= q.Limit {
			return items[:q.Limit], nil
		}
	}
	return items, nil
}

func (q userQuery) input() (*dynamodb.QueryInput, error) {
	cond := "#u = :u"
	names := map[string]string{"#u": fieldUserID}
	values := map[string]types.AttributeValue{":u": &types.AttributeValueMemberS{Value: q.UserID}}
	bound := func(placeholder string, t time.Time) error {
		av, err := marshal(t.UTC())
		if err != nil {
			return err
		}
		values[placeholder] = av
		return nil
	}
	if q.From != nil || q.To != nil {
		names["#t"] = q.SortAttr
	}
	switch {
	case q.From != nil && q.To != nil:
		cond += " AND #t BETWEEN :from AND :to"
	case q.From != nil:
		cond += " AND #t >= :from"
	case q.To != nil:
		cond += " AND #t <= :to"
	}
	if q.From != nil {
		if err := bound(":from", *q.From); err != nil {
			return nil, err
		}
	}
	if q.To != nil {
		if err := bound(":to", *q.To); err != nil {
			return nil, err
		}
	}

	input := &dynamodb.QueryInput{
		TableName:                 aws.String(q.Table),
		IndexName:                 aws.String(q.Index),
		KeyConditionExpression:    aws.String(cond),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
		ScanIndexForward:          aws.Bool(false),
	}
	if len(q.Filter) > 0 {
		attrs := make([]string, 0, len(q.Filter))
		for a := range q.Filter {
			attrs = append(attrs, a)
		}
		sort.Strings(attrs)
		parts := make([]string, 0, len(attrs))
		for i, a := range attrs {
			n, v := fmt.Sprintf("#q%d", i), fmt.Sprintf(":q%d", i)
			names[n] = a
			values[v] = &types.AttributeValueMemberS{Value: q.Filter[a]}
			parts = append(parts, n+" = "+v)
		}
		input.FilterExpression = aws.String(strings.Join(parts, " AND "))
	}
	return input, nil
}
