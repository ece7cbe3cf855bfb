package dynamodb

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"focuslink/domain/core/entities"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
)

const (
	socketPrefix = "SOCKET#"
	socketMetaSK = "META"

	// attrTTL is the table's TTL attribute; DynamoDB drops expired sockets
	attrTTL = "ttl"
)

// SocketRepository implements ports.SocketRepository on DynamoDB.
//
//	SOCKET#<id>  META         lookup by socket id on disconnect
//	USER#<uid>   SOCKET#<id>  listing by user
type SocketRepository struct {
	*Table
}

// NewSocketRepository creates a new SocketRepository
func NewSocketRepository(t *Table) *SocketRepository {
	return &SocketRepository{Table: t}
}

func (r *SocketRepository) Save(ctx context.Context, socket *entities.Socket) error {
	keySets := []map[string]string{
		{attrPK: socketPrefix + socket.ID, attrSK: socketMetaSK},
		{attrPK: userPK(socket.UserID), attrSK: socketPrefix + socket.ID},
	}

	items := make([]types.TransactWriteItem, 0, len(keySets))
	for _, keys := range keySets {
		item, err := marshalItem(socket, "SOCKET", keys)
		if err != nil {
			return fmt.Errorf("failed to marshal socket: %w", err)
		}
		item[attrTTL] = &types.AttributeValueMemberN{Value: strconv.FormatInt(socket.ExpiresAt.Unix(), 10)}
		items = append(items, types.TransactWriteItem{
			Put: &types.Put{TableName: r.tableName(), Item: item},
		})
	}

	if _, err := r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{TransactItems: items}); err != nil {
		r.logger.Error("Failed to save socket", zap.Error(err), zap.String("socketID", socket.ID))
		return translateError("SaveSocket", err)
	}
	return nil
}

// Delete removes both items of a socket. The user is read from the META
// item since disconnects only carry the socket id.
func (r *SocketRepository) Delete(ctx context.Context, id string) error {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: r.tableName(),
		Key:       key(socketPrefix+id, socketMetaSK),
	})
	if err != nil {
		return translateError("GetSocket", err)
	}
	if out.Item == nil {
		return nil
	}
	var socket entities.Socket
	if err := unmarshalItem(out.Item, &socket); err != nil {
		return fmt.Errorf("failed to unmarshal socket: %w", err)
	}

	items := []types.TransactWriteItem{
		{Delete: &types.Delete{TableName: r.tableName(), Key: key(socketPrefix+id, socketMetaSK)}},
		{Delete: &types.Delete{TableName: r.tableName(), Key: key(userPK(socket.UserID), socketPrefix+id)}},
	}
	if _, err := r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{TransactItems: items}); err != nil {
		return translateError("DeleteSocket", err)
	}
	return nil
}

// ListByUser skips sockets whose TTL passed but which DynamoDB has not
// yet removed
func (r *SocketRepository) ListByUser(ctx context.Context, uid string) ([]*entities.Socket, error) {
	items, err := r.queryPrefix(ctx, userPK(uid), socketPrefix)
	if err != nil {
		return nil, translateError("ListSockets", err)
	}

	now := time.Now()
	out := make([]*entities.Socket, 0, len(items))
	for _, item := range items {
		var s entities.Socket
		if err := unmarshalItem(item, &s); err != nil {
			return nil, fmt.Errorf("failed to unmarshal socket: %w", err)
		}
		if !s.Expired(now) {
			out = append(out, &s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
