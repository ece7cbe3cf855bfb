package dynamodb

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"focuslink/domain/core/entities"
	pkgerrors "focuslink/pkg/errors"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
)

const (
	groupMetaSK = "META"
	groupPrefix = "GROUP#"
)

func groupPK(id string) string { return groupPrefix + id }

// membershipItem lets a member find their groups by querying their own
// partition.
type membershipItem struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	EntityType string `dynamodbav:"EntityType"`
	GroupID    string `dynamodbav:"GroupID"`
}

// GroupRepository implements ports.GroupRepository on DynamoDB
type GroupRepository struct {
	*Table
}

// NewGroupRepository creates a new GroupRepository
func NewGroupRepository(t *Table) *GroupRepository {
	return &GroupRepository{Table: t}
}

// Save writes the group record and brings the membership pointers in line
// with its member list.
func (r *GroupRepository) Save(ctx context.Context, group *entities.Group) error {
	previous, err := r.GetByID(ctx, group.ID)
	if err != nil && !pkgerrors.IsNotFound(err) {
		return err
	}

	item, err := marshalItem(group, "GROUP", map[string]string{attrPK: groupPK(group.ID), attrSK: groupMetaSK})
	if err != nil {
		return fmt.Errorf("failed to marshal group: %w", err)
	}
	if _, err := r.client.PutItem(ctx, &dynamodb.PutItemInput{TableName: r.tableName(), Item: item}); err != nil {
		r.logger.Error("Failed to save group", zap.Error(err), zap.String("groupID", group.ID))
		return translateError("SaveGroup", err)
	}

	current := make(map[string]struct{}, len(group.Members))
	var requests []types.WriteRequest
	for _, m := range group.Members {
		current[m.UserID] = struct{}{}
		if previous != nil && previous.IsMember(m.UserID) {
			continue
		}
		req, err := r.membershipPut(m.UserID, group.ID)
		if err != nil {
			return err
		}
		requests = append(requests, req)
	}
	if previous != nil {
		for _, m := range previous.Members {
			if _, ok := current[m.UserID]; !ok {
				requests = append(requests, types.WriteRequest{
					DeleteRequest: &types.DeleteRequest{Key: key(userPK(m.UserID), groupPrefix+group.ID)},
				})
			}
		}
	}

	if err := r.batchWrite(ctx, requests); err != nil {
		return translateError("SaveGroupMembers", err)
	}
	return nil
}

func (r *GroupRepository) GetByID(ctx context.Context, id string) (*entities.Group, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: r.tableName(),
		Key:       key(groupPK(id), groupMetaSK),
	})
	if err != nil {
		return nil, translateError("GetGroup", err)
	}
	if out.Item == nil {
		return nil, pkgerrors.NewNotFoundError("group")
	}
	return decodeGroup(out.Item)
}

// Delete removes the group and every membership pointer
func (r *GroupRepository) Delete(ctx context.Context, id string) error {
	group, err := r.GetByID(ctx, id)
	if pkgerrors.IsNotFound(err) {
		return nil
	}
	if err != nil {
		return err
	}

	keys := []map[string]types.AttributeValue{key(groupPK(id), groupMetaSK)}
	for _, m := range group.Members {
		keys = append(keys, key(userPK(m.UserID), groupPrefix+id))
	}
	if err := r.deleteKeys(ctx, keys); err != nil {
		return translateError("DeleteGroup", err)
	}
	return nil
}

// ListByMember returns uid's groups ordered by id
func (r *GroupRepository) ListByMember(ctx context.Context, uid string) ([]*entities.Group, error) {
	pointers, err := r.queryPrefix(ctx, userPK(uid), groupPrefix)
	if err != nil {
		return nil, translateError("ListGroupPointers", err)
	}

	keys := make([]map[string]types.AttributeValue, 0, len(pointers))
	for _, p := range pointers {
		sk, ok := p[attrSK].(*types.AttributeValueMemberS)
		if !ok {
			continue
		}
		keys = append(keys, key(groupPK(strings.TrimPrefix(sk.Value, groupPrefix)), groupMetaSK))
	}

	items, err := r.batchGet(ctx, keys)
	if err != nil {
		return nil, translateError("GetGroups", err)
	}

	out := make([]*entities.Group, 0, len(items))
	for _, item := range items {
		g, err := decodeGroup(item)
		if err != nil {
			return nil, err
		}
		// A pointer can briefly outlive a membership
		if g.IsMember(uid) {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *GroupRepository) membershipPut(uid, groupID string) (types.WriteRequest, error) {
	item, err := marshalMembership(uid, groupID)
	if err != nil {
		return types.WriteRequest{}, err
	}
	return types.WriteRequest{PutRequest: &types.PutRequest{Item: item}}, nil
}

func marshalMembership(uid, groupID string) (map[string]types.AttributeValue, error) {
	item, err := attributevalue.MarshalMap(membershipItem{
		PK:         userPK(uid),
		SK:         groupPrefix + groupID,
		EntityType: "MEMBERSHIP",
		GroupID:    groupID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal membership: %w", err)
	}
	return item, nil
}

func decodeGroup(item map[string]types.AttributeValue) (*entities.Group, error) {
	var g entities.Group
	if err := unmarshalItem(item, &g); err != nil {
		return nil, fmt.Errorf("failed to unmarshal group: %w", err)
	}
	if g.Unread == nil {
		g.Unread = map[string]int{}
	}
	return &g, nil
}
