package dynamo

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/cashflow-api/internal/domain"
	"github.com/cashflow-api/internal/pkg/id"
)

const upsertAttempts = 3

// SessionRepo stores login sessions. An item in the fingerprint table points
// at the single active session for each {user, device, browser, os}.
type SessionRepo struct {
	client           *dynamodb.Client
	tableName        string
	fingerprintTable string
}

func NewSessionRepo(client *dynamodb.Client, tableName, fingerprintTable string) *SessionRepo {
	return &SessionRepo{client: client, tableName: tableName, fingerprintTable: fingerprintTable}
}

// Upsert refreshes the active session matching fp or creates a new one.
func (r *SessionRepo) Upsert(ctx context.Context, userID string, fp domain.Fingerprint, now time.Time) (*domain.Session, error) {
	now = now.UTC()
	key := fingerprintKey(userID, fp.DeviceName, fp.Browser, fp.OperatingSystem)
	for attempt := 0; attempt < upsertAttempts; attempt++ {
		sessionID, err := r.claimedSession(ctx, key)
		if err != nil {
			return nil, err
		}
		if sessionID != "" {
			s, err := r.touch(ctx, sessionID, fp, now)
			if err == nil {
				return s, nil
			}
			if !isConditionFailure(err) {
				return nil, err
			}
			// Claim points at a terminated session; release it and retry.
			if err := r.releaseClaim(ctx, key, sessionID); err != nil {
				return nil, err
			}
			continue
		}

		s := &domain.Session{
			SessionID:       id.New(),
			UserID:          userID,
			DeviceName:      fp.DeviceName,
			Browser:         fp.Browser,
			OperatingSystem: fp.OperatingSystem,
			IPAddress:       fp.IPAddress,
			Location:        fp.Location,
			LoginTime:       now,
			LastActive:      now,
			Status:          domain.StatusActive,
		}
		err = r.create(ctx, key, s)
		if err == nil {
			return s, nil
		}
		if !isConditionFailure(err) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("upsert session: fingerprint contended after %d attempts", upsertAttempts)
}

func (r *SessionRepo) Get(ctx context.Context, sessionID string) (*domain.Session, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            strKey(fieldSessionID, sessionID),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if out.Item == nil {
		return nil, fmt.Errorf("session %s: %w", sessionID, domain.ErrNotFound)
	}
	var s domain.Session
	if err := attributevalue.UnmarshalMap(out.Item, &s); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	return &s, nil
}

// ListByUser returns the user's sessions newest first, optionally limited to
// those with loginTime at or after since.
func (r *SessionRepo) ListByUser(ctx context.Context, userID string, since *time.Time) ([]domain.Session, error) {
	items, err := queryByUser(ctx, r.client, userQuery{
		Table:    r.tableName,
		Index:    indexUserLoginTime,
		SortAttr: fieldLoginTime,
		UserID:   userID,
		From:     since,
	})
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	sessions := []domain.Session{}
	if err := attributevalue.UnmarshalListOfMaps(items, &sessions); err != nil {
		return nil, fmt.Errorf("unmarshal sessions: %w", err)
	}
	sort.SliceStable(sessions, func(i, j int) bool {
		return sessions[i].LoginTime.After(sessions[j].LoginTime)
	})
	return sessions, nil
}

// Deactivate marks s inactive and releases its fingerprint claim.
func (r *SessionRepo) Deactivate(ctx context.Context, s *domain.Session) error {
	ue, err := buildUpdateExpr(map[string]interface{}{fieldStatus: domain.StatusInactive})
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey(fieldSessionID, s.SessionID),
		UpdateExpression:          aws.String(ue.Expr),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	if err != nil {
		return fmt.Errorf("deactivate session: %w", err)
	}
	s.Status = domain.StatusInactive
	return r.releaseClaim(ctx, fingerprintKey(s.UserID, s.DeviceName, s.Browser, s.OperatingSystem), s.SessionID)
}

func (r *SessionRepo) claimedSession(ctx context.Context, key string) (string, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.fingerprintTable),
		Key:            strKey(fieldFingerprint, key),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return "", fmt.Errorf("get fingerprint claim: %w", err)
	}
	if out.Item == nil {
		return "", nil
	}
	v, ok := out.Item[fieldSessionID].(*types.AttributeValueMemberS)
	if !ok {
		return "", errors.New("fingerprint claim without session_id")
	}
	return v.Value, nil
}

func (r *SessionRepo) touch(ctx context.Context, sessionID string, fp domain.Fingerprint, now time.Time) (*domain.Session, error) {
	ue, err := buildUpdateExpr(map[string]interface{}{
		fieldLastActive: now,
		fieldIPAddress:  fp.IPAddress,
		fieldLocation:   fp.Location,
	})
	if err != nil {
		return nil, err
	}
	ue.Names["#st"] = fieldStatus
	ue.Values[":active"] = &types.AttributeValueMemberS{Value: domain.StatusActive}
	out, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey(fieldSessionID, sessionID),
		UpdateExpression:          aws.String(ue.Expr),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
		ConditionExpression:       aws.String("#st = :active"),
		ReturnValues:              types.ReturnValueAllNew,
	})
	if err != nil {
		return nil, err
	}
	var s domain.Session
	if err := attributevalue.UnmarshalMap(out.Attributes, &s); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	return &s, nil
}

func (r *SessionRepo) create(ctx context.Context, key string, s *domain.Session) error {
	item, err := marshalMap(s)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	_, err = r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{Put: &types.Put{
				TableName: aws.String(r.fingerprintTable),
				Item: map[string]types.AttributeValue{
					fieldFingerprint: &types.AttributeValueMemberS{Value: key},
					fieldSessionID:   &types.AttributeValueMemberS{Value: s.SessionID},
				},
				ConditionExpression: aws.String("attribute_not_exists(fingerprint)"),
			}},
			{Put: &types.Put{
				TableName: aws.String(r.tableName),
				Item:      item,
			}},
		},
	})
	return err
}

// releaseClaim deletes the claim only while it still points at sessionID.
func (r *SessionRepo) releaseClaim(ctx context.Context, key, sessionID string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:           aws.String(r.fingerprintTable),
		Key:                 strKey(fieldFingerprint, key),
		ConditionExpression: aws.String("session_id = :sid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":sid": &types.AttributeValueMemberS{Value: sessionID},
		},
	})
	if err != nil && !isConditionFailure(err) {
		return fmt.Errorf("release fingerprint claim: %w", err)
	}
	return nil
}

// fingerprintKey quotes each component so values containing the separator
// cannot collide.
func fingerprintKey(userID, device, browser, os string) string {
	return strings.Join([]string{
		userID,
		strconv.Quote(device),
		strconv.Quote(browser),
		strconv.Quote(os),
	}, "|")
}
