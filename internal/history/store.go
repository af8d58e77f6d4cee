// Package history keeps a DynamoDB journal of fulfillment attempts, one item per scan.
// It is an audit trail and a guard against SQS redelivery; debouncing never reads it.
package history

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"

	"github.com/imrishuroy/scan2list/internal/aws"
	"github.com/imrishuroy/scan2list/internal/scanner"
)

// ErrStatusMismatch indicates a conditional status transition failed.
var ErrStatusMismatch = errors.New("status mismatch/conditional failed")

// Store encapsulates journal operations against DynamoDB.
type Store struct {
	client    aws.DynamoDBAPI
	tableName string
	ttlWindow time.Duration
	nowFunc   func() time.Time
}

// NewStore returns a configured Store. Entries expire ttlWindow after creation.
func NewStore(client aws.DynamoDBAPI, tableName string, ttlWindow time.Duration) *Store {
	return &Store{
		client:    client,
		tableName: tableName,
		ttlWindow: ttlWindow,
		nowFunc:   time.Now,
	}
}

// Begin creates an IN_PROGRESS entry for scan. It returns false with a nil error when the
// scan id is already journaled, whatever its status, so a redelivered scan is never
// fulfilled twice.
func (s *Store) Begin(ctx context.Context, scan scanner.Scan) (bool, error) {
	now := s.nowFunc()
	rec := ScanRecord{
		ScanID:    scan.ID,
		Barcode:   scan.Barcode,
		Source:    scan.Source,
		Status:    StatusInProgress,
		ScannedAt: scan.At,
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: now.Add(s.ttlWindow).Unix(),
	}

	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return false, fmt.Errorf("marshal record: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dyn.PutItemInput{
		TableName:           &s.tableName,
		Item:                item,
		ConditionExpression: awsString("attribute_not_exists(scan_id)"),
	})
	if err != nil {
		if isConditionFailed(err) {
			return false, nil
		}
		return false, fmt.Errorf("put item: %w", err)
	}
	return true, nil
}

// Get retrieves a journal entry by scan id. If not found, returns (nil, nil).
func (s *Store) Get(ctx context.Context, scanID string) (*ScanRecord, error) {
	out, err := s.client.GetItem(ctx, &dyn.GetItemInput{
		TableName: &s.tableName,
		Key:       key(scanID),
	})
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	var rec ScanRecord
	if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal item: %w", err)
	}
	return &rec, nil
}

// MarkAdded moves an entry from IN_PROGRESS to ADDED and stores the resolved name.
func (s *Store) MarkAdded(ctx context.Context, scanID, productName string) error {
	err := s.transition(ctx, scanID, StatusInProgress, StatusAdded, "product_name", productName)
	if err != nil {
		return fmt.Errorf("mark added: %w", err)
	}
	return nil
}

// MarkFailed moves an entry from IN_PROGRESS to FAILED and stores the reason.
func (s *Store) MarkFailed(ctx context.Context, scanID, note string) error {
	err := s.transition(ctx, scanID, StatusInProgress, StatusFailed, "note", note)
	if err != nil {
		return fmt.Errorf("mark failed: %w", err)
	}
	return nil
}

// transition conditionally updates the status from expected to next and sets one extra
// attribute. Returns ErrStatusMismatch if the condition failed.
func (s *Store) transition(ctx context.Context, scanID, expected, next, attr, value string) error {
	now := s.nowFunc()
	input := &dyn.UpdateItemInput{
		TableName:        &s.tableName,
		Key:              key(scanID),
		UpdateExpression: awsString("SET #s = :new, #a = :v, updated_at = :ua"),
		ExpressionAttributeNames: map[string]string{
			"#s": "status",
			"#a": attr,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":new":      &types.AttributeValueMemberS{Value: next},
			":v":        &types.AttributeValueMemberS{Value: value},
			":ua":       &types.AttributeValueMemberS{Value: now.Format(time.RFC3339Nano)},
			":expected": &types.AttributeValueMemberS{Value: expected},
		},
		ConditionExpression: awsString("#s = :expected"),
		ReturnValues:        types.ReturnValueUpdatedNew,
	}
	if _, err := s.client.UpdateItem(ctx, input); err != nil {
		if isConditionFailed(err) {
			return ErrStatusMismatch
		}
		return fmt.Errorf("update item: %w", err)
	}
	return nil
}

func isConditionFailed(err error) bool {
	var apiErr smithy.APIError
	return errors.As(err, &apiErr) && apiErr.ErrorCode() == "ConditionalCheckFailedException"
}

func key(scanID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"scan_id": &types.AttributeValueMemberS{Value: scanID},
	}
}

func awsString(s string) *string { return &s }
