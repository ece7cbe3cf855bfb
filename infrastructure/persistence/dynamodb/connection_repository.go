package dynamodb

import (
	"context"
	"fmt"
	"sort"

	"focuslink/domain/core/entities"
	"focuslink/domain/core/valueobjects"
	pkgerrors "focuslink/pkg/errors"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
)

const connPrefix = "CONN#"

// ConnectionRepository implements ports.ConnectionRepository on DynamoDB.
// Each connection is written under both participants so either can list it
// with a single query; the two copies change together in a transaction.
type ConnectionRepository struct {
	*Table
}

// NewConnectionRepository creates a new ConnectionRepository
func NewConnectionRepository(t *Table) *ConnectionRepository {
	return &ConnectionRepository{Table: t}
}

func (r *ConnectionRepository) Save(ctx context.Context, conn *entities.Connection) error {
	items := make([]types.TransactWriteItem, 0, 2)
	for _, uid := range conn.Users {
		item, err := marshalItem(conn, "CONNECTION", map[string]string{
			attrPK: userPK(uid),
			attrSK: connPrefix + conn.ID,
		})
		if err != nil {
			return fmt.Errorf("failed to marshal connection: %w", err)
		}
		items = append(items, types.TransactWriteItem{
			Put: &types.Put{TableName: r.tableName(), Item: item},
		})
	}

	if _, err := r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{TransactItems: items}); err != nil {
		r.logger.Error("Failed to save connection", zap.Error(err), zap.String("connectionID", conn.ID))
		return translateError("SaveConnection", err)
	}
	return nil
}

func (r *ConnectionRepository) GetByID(ctx context.Context, id string) (*entities.Connection, error) {
	cid, err := valueobjects.ParseConnectionID(id)
	if err != nil {
		return nil, pkgerrors.NewNotFoundError("connection")
	}

	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: r.tableName(),
		Key:       key(userPK(cid.Users()[0]), connPrefix+id),
	})
	if err != nil {
		return nil, translateError("GetConnection", err)
	}
	if out.Item == nil {
		return nil, pkgerrors.NewNotFoundError("connection")
	}
	return decodeConnection(out.Item)
}

// Delete removes both copies. Deleting a missing connection is not an error.
func (r *ConnectionRepository) Delete(ctx context.Context, id string) error {
	cid, err := valueobjects.ParseConnectionID(id)
	if err != nil {
		return nil
	}

	items := make([]types.TransactWriteItem, 0, 2)
	for _, uid := range cid.Users() {
		items = append(items, types.TransactWriteItem{
			Delete: &types.Delete{TableName: r.tableName(), Key: key(userPK(uid), connPrefix+id)},
		})
	}
	if _, err := r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{TransactItems: items}); err != nil {
		return translateError("DeleteConnection", err)
	}
	return nil
}

func (r *ConnectionRepository) ListByUser(ctx context.Context, uid string) ([]*entities.Connection, error) {
	items, err := r.queryPrefix(ctx, userPK(uid), connPrefix)
	if err != nil {
		return nil, translateError("ListConnections", err)
	}

	out := make([]*entities.Connection, 0, len(items))
	for _, item := range items {
		c, err := decodeConnection(item)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// queryPrefix lists a partition's items whose sort key starts with prefix
func (t *Table) queryPrefix(ctx context.Context, pk, prefix string) ([]map[string]types.AttributeValue, error) {
	keyCond := expression.Key(attrPK).Equal(expression.Value(pk)).
		And(expression.Key(attrSK).BeginsWith(prefix))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, err
	}
	return t.queryAll(ctx, &dynamodb.QueryInput{
		TableName:                 t.tableName(),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
}

func decodeConnection(item map[string]types.AttributeValue) (*entities.Connection, error) {
	var c entities.Connection
	if err := unmarshalItem(item, &c); err != nil {
		return nil, fmt.Errorf("failed to unmarshal connection: %w", err)
	}
	if c.Unread == nil {
		c.Unread = map[string]int{}
	}
	return &c, nil
}
