// Package dynamodb stores FocusLink aggregates in a single DynamoDB table.
//
// Key layout:
//
//	USER#<uid>       PROFILE            profile with embedded goals
//	USER#<uid>       CONN#<connID>      one copy of a connection per participant
//	USER#<uid>       GROUP#<groupID>    membership pointer
//	GROUP#<groupID>  META               group with members
//	THREAD#<id>      MSG#<sentAt>#<id>  message, ordered by send time
//	USER#<uid>       SOCKET#<id>        live WebSocket, with SOCKET#<id> META for lookup
//
// Active profiles are also written to GSI1 under PROFILES#ACTIVE so the
// matcher can list them without a scan.
package dynamodb

import (
	"context"
	"errors"
	"time"

	pkgerrors "focuslink/pkg/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	"go.uber.org/zap"
)

const (
	attrPK     = "PK"
	attrSK     = "SK"
	attrGSI1PK = "GSI1PK"
	attrGSI1SK = "GSI1SK"
	attrType   = "EntityType"

	maxBatchWrite = 25
	maxBatchGet   = 100
	maxBatchRetry = 5
)

// API is the subset of the DynamoDB client the repositories use.
// *dynamodb.Client satisfies it.
type API interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	Query(ctx context.Context, in *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	BatchGetItem(ctx context.Context, in *dynamodb.BatchGetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchGetItemOutput, error)
	BatchWriteItem(ctx context.Context, in *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
	TransactWriteItems(ctx context.Context, in *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
}

// Table holds what every repository needs to talk to the table
type Table struct {
	client    API
	name      string
	indexName string
	logger    *zap.Logger
}

// NewTable creates a table handle. indexName is the GSI holding the
// active profile listing.
func NewTable(client API, name, indexName string, logger *zap.Logger) *Table {
	if logger == nil {
		logger = zap.NewNop()
	}
	if indexName == "" {
		indexName = "GSI1"
	}
	return &Table{client: client, name: name, indexName: indexName, logger: logger}
}

func key(pk, sk string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		attrPK: &types.AttributeValueMemberS{Value: pk},
		attrSK: &types.AttributeValueMemberS{Value: sk},
	}
}

func jsonTags(o *attributevalue.EncoderOptions) { o.TagKey = "json" }

func jsonTagsDecode(o *attributevalue.DecoderOptions) { o.TagKey = "json" }

// marshalItem encodes an entity by its json field names and adds the key
// attributes on top.
func marshalItem(v interface{}, entityType string, keys map[string]string) (map[string]types.AttributeValue, error) {
	item, err := attributevalue.MarshalMapWithOptions(v, jsonTags)
	if err != nil {
		return nil, err
	}
	item[attrType] = &types.AttributeValueMemberS{Value: entityType}
	for k, val := range keys {
		item[k] = &types.AttributeValueMemberS{Value: val}
	}
	return item, nil
}

func unmarshalItem(item map[string]types.AttributeValue, out interface{}) error {
	return attributevalue.UnmarshalMapWithOptions(item, out, jsonTagsDecode)
}

// queryAll follows pagination until the query is exhausted
func (t *Table) queryAll(ctx context.Context, in *dynamodb.QueryInput) ([]map[string]types.AttributeValue, error) {
	var items []map[string]types.AttributeValue
	pager := dynamodb.NewQueryPaginator(t.client, in)
	for pager.HasMorePages() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		items = append(items, page.Items...)
	}
	return items, nil
}

// batchWrite sends requests in chunks, resending unprocessed items a few
// times before giving up.
func (t *Table) batchWrite(ctx context.Context, requests []types.WriteRequest) error {
	for start := 0; start < len(requests); start += maxBatchWrite {
		end := min(start+maxBatchWrite, len(requests))
		pending := map[string][]types.WriteRequest{t.name: requests[start:end]}

		for attempt := 0; len(pending) > 0; attempt++ {
			if attempt == maxBatchRetry {
				return errors.New("batch write left unprocessed items")
			}
			if attempt > 0 {
				if err := sleep(ctx, backoff(attempt)); err != nil {
					return err
				}
			}
			out, err := t.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{RequestItems: pending})
			if err != nil {
				return err
			}
			pending = out.UnprocessedItems
		}
	}
	return nil
}

// batchGet fetches items by key in chunks. Missing keys are skipped.
func (t *Table) batchGet(ctx context.Context, keys []map[string]types.AttributeValue) ([]map[string]types.AttributeValue, error) {
	var items []map[string]types.AttributeValue
	for start := 0; start < len(keys); start += maxBatchGet {
		end := min(start+maxBatchGet, len(keys))
		pending := map[string]types.KeysAndAttributes{t.name: {Keys: keys[start:end]}}

		for attempt := 0; len(pending) > 0; attempt++ {
			if attempt == maxBatchRetry {
				return nil, errors.New("batch get left unprocessed keys")
			}
			if attempt > 0 {
				if err := sleep(ctx, backoff(attempt)); err != nil {
					return nil, err
				}
			}
			out, err := t.client.BatchGetItem(ctx, &dynamodb.BatchGetItemInput{RequestItems: pending})
			if err != nil {
				return nil, err
			}
			items = append(items, out.Responses[t.name]...)
			pending = out.UnprocessedKeys
		}
	}
	return items, nil
}

func (t *Table) deleteKeys(ctx context.Context, keys []map[string]types.AttributeValue) error {
	requests := make([]types.WriteRequest, 0, len(keys))
	for _, k := range keys {
		requests = append(requests, types.WriteRequest{DeleteRequest: &types.DeleteRequest{Key: k}})
	}
	return t.batchWrite(ctx, requests)
}

func (t *Table) tableName() *string {
	return aws.String(t.name)
}

func backoff(attempt int) time.Duration {
	return time.Duration(1<<attempt) * 25 * time.Millisecond
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// translateError maps DynamoDB failures onto the application error types
func translateError(op string, err error) error {
	if err == nil {
		return nil
	}
	if pkgerrors.GetAppError(err) != nil {
		return err
	}

	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return pkgerrors.NewConflictError("the item was modified by another request").WithCause(err)
	}
	var tce *types.TransactionCanceledException
	if errors.As(err, &tce) {
		return pkgerrors.NewConflictError("the transaction was cancelled").WithCause(err)
	}

	var ae smithy.APIError
	if errors.As(err, &ae) {
		switch ae.ErrorCode() {
		case "ProvisionedThroughputExceededException", "RequestLimitExceeded", "ThrottlingException":
			return pkgerrors.NewRateLimitError("database throughput exceeded").WithCause(err)
		case "ServiceUnavailable", "InternalServerError":
			return pkgerrors.NewUnavailableError("dynamodb").WithCause(err)
		}
	}
	return pkgerrors.NewDatabaseError(op, err)
}
