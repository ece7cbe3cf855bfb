package dynamodb

import (
	"context"
	"errors"
	"fmt"

	"focuslink/domain/core/entities"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
)

const (
	msgPrefix = "MSG#"
	// fixed width so sort keys order the same way as times
	sortTimeLayout = "2006-01-02T15:04:05.000000000Z"
)

func threadPK(threadID string) string { return "THREAD#" + threadID }

func messageSK(m *entities.Message) string {
	return msgPrefix + m.SentAt.UTC().Format(sortTimeLayout) + "#" + m.ID
}

// MessageRepository implements ports.MessageRepository on DynamoDB. A
// thread is one partition, sorted by send time.
type MessageRepository struct {
	*Table
}

// NewMessageRepository creates a new MessageRepository
func NewMessageRepository(t *Table) *MessageRepository {
	return &MessageRepository{Table: t}
}

func (r *MessageRepository) Save(ctx context.Context, msg *entities.Message) error {
	item, err := marshalItem(msg, "MESSAGE", map[string]string{
		attrPK: threadPK(msg.ThreadID),
		attrSK: messageSK(msg),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	if _, err := r.client.PutItem(ctx, &dynamodb.PutItemInput{TableName: r.tableName(), Item: item}); err != nil {
		r.logger.Error("Failed to save message", zap.Error(err), zap.String("threadID", msg.ThreadID))
		return translateError("SaveMessage", err)
	}
	return nil
}

// ListByThread reads the newest limit messages backwards and returns them
// oldest first.
func (r *MessageRepository) ListByThread(ctx context.Context, threadID string, limit int) ([]*entities.Message, error) {
	in, err := r.threadQuery(threadID, nil)
	if err != nil {
		return nil, err
	}

	var items []map[string]types.AttributeValue
	if limit <= 0 {
		items, err = r.queryAll(ctx, in)
	} else {
		in.ScanIndexForward = aws.Bool(false)
		in.Limit = aws.Int32(int32(limit))
		items, err = r.queryNewest(ctx, in, limit)
	}
	if err != nil {
		return nil, translateError("ListMessages", err)
	}

	out := make([]*entities.Message, 0, len(items))
	for _, item := range items {
		var m entities.Message
		if err := unmarshalItem(item, &m); err != nil {
			return nil, fmt.Errorf("failed to unmarshal message: %w", err)
		}
		out = append(out, &m)
	}
	entities.SortMessages(out)
	return out, nil
}

// MarkRead flips the read flag on messages other users sent
func (r *MessageRepository) MarkRead(ctx context.Context, threadID, readerID string) (int, error) {
	filter := expression.Name("read").Equal(expression.Value(false)).
		And(expression.Name("senderId").NotEqual(expression.Value(readerID)))
	in, err := r.threadQuery(threadID, &filter)
	if err != nil {
		return 0, err
	}
	items, err := r.queryAll(ctx, in)
	if err != nil {
		return 0, translateError("ListUnread", err)
	}

	update, err := expression.NewBuilder().
		WithUpdate(expression.Set(expression.Name("read"), expression.Value(true))).
		WithCondition(expression.Name(attrPK).AttributeExists()).
		Build()
	if err != nil {
		return 0, fmt.Errorf("failed to build expression: %w", err)
	}

	changed := 0
	for _, item := range items {
		_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
			TableName:                 r.tableName(),
			Key:                       map[string]types.AttributeValue{attrPK: item[attrPK], attrSK: item[attrSK]},
			UpdateExpression:          update.Update(),
			ConditionExpression:       update.Condition(),
			ExpressionAttributeNames:  update.Names(),
			ExpressionAttributeValues: update.Values(),
		})
		if err != nil {
			if isConditionFailure(err) {
				continue
			}
			return changed, translateError("MarkRead", err)
		}
		changed++
	}
	return changed, nil
}

// DeleteByIDs removes the listed messages. Unknown ids are ignored.
func (r *MessageRepository) DeleteByIDs(ctx context.Context, threadID string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	operands := make([]expression.OperandBuilder, 0, len(ids))
	for _, id := range ids {
		operands = append(operands, expression.Value(id))
	}
	var filter expression.ConditionBuilder
	if len(operands) == 1 {
		filter = expression.Name("id").Equal(operands[0])
	} else {
		filter = expression.Name("id").In(operands[0], operands[1:]...)
	}

	in, err := r.threadQuery(threadID, &filter)
	if err != nil {
		return err
	}
	if err := r.deleteMatching(ctx, in); err != nil {
		return translateError("DeleteMessages", err)
	}
	return nil
}

func (r *MessageRepository) DeleteThread(ctx context.Context, threadID string) error {
	in, err := r.threadQuery(threadID, nil)
	if err != nil {
		return err
	}
	if err := r.deleteMatching(ctx, in); err != nil {
		return translateError("DeleteThread", err)
	}
	r.logger.Debug("Thread cleared", zap.String("threadID", threadID))
	return nil
}

func (r *MessageRepository) deleteMatching(ctx context.Context, in *dynamodb.QueryInput) error {
	items, err := r.queryAll(ctx, in)
	if err != nil {
		return err
	}
	keys := make([]map[string]types.AttributeValue, 0, len(items))
	for _, item := range items {
		keys = append(keys, map[string]types.AttributeValue{attrPK: item[attrPK], attrSK: item[attrSK]})
	}
	return r.deleteKeys(ctx, keys)
}

func (r *MessageRepository) threadQuery(threadID string, filter *expression.ConditionBuilder) (*dynamodb.QueryInput, error) {
	keyCond := expression.Key(attrPK).Equal(expression.Value(threadPK(threadID))).
		And(expression.Key(attrSK).BeginsWith(msgPrefix))
	b := expression.NewBuilder().WithKeyCondition(keyCond)
	if filter != nil {
		b = b.WithFilter(*filter)
	}
	expr, err := b.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build expression: %w", err)
	}
	return &dynamodb.QueryInput{
		TableName:                 r.tableName(),
		KeyConditionExpression:    expr.KeyCondition(),
		FilterExpression:          expr.Filter(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	}, nil
}

// queryNewest pages a backwards query until it has limit items
func (r *MessageRepository) queryNewest(ctx context.Context, in *dynamodb.QueryInput, limit int) ([]map[string]types.AttributeValue, error) {
	var items []map[string]types.AttributeValue
	pager := dynamodb.NewQueryPaginator(r.client, in)
	for pager.HasMorePages() && len(items) < limit {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		items = append(items, page.Items...)
	}
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func isConditionFailure(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	return errors.As(err, &ccf)
}
