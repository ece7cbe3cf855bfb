package dynamodb

import (
	"context"
	"fmt"
	"sort"

	"focuslink/domain/core/entities"
	pkgerrors "focuslink/pkg/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
)

const (
	profileSK     = "PROFILE"
	activeIndexPK = "PROFILES#ACTIVE"
)

func userPK(uid string) string { return "USER#" + uid }

// ProfileRepository implements ports.ProfileRepository on DynamoDB.
// Saves are guarded by the profile version.
type ProfileRepository struct {
	*Table
}

// NewProfileRepository creates a new ProfileRepository
func NewProfileRepository(t *Table) *ProfileRepository {
	return &ProfileRepository{Table: t}
}

// Save writes the profile if nobody saved it since it was loaded. On
// success the profile's version is bumped.
func (r *ProfileRepository) Save(ctx context.Context, profile *entities.Profile) error {
	if profile == nil || profile.UID == "" {
		return pkgerrors.NewValidationError("profile uid is required")
	}

	next := *profile
	next.Version = profile.Version + 1

	keys := map[string]string{attrPK: userPK(profile.UID), attrSK: profileSK}
	if profile.IsActive {
		keys[attrGSI1PK] = activeIndexPK
		keys[attrGSI1SK] = profile.UID
	}
	item, err := marshalItem(&next, "PROFILE", keys)
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}

	cond := expression.Name(attrPK).AttributeNotExists().
		Or(expression.Name("version").Equal(expression.Value(profile.Version)))
	expr, err := expression.NewBuilder().WithCondition(cond).Build()
	if err != nil {
		return fmt.Errorf("failed to build expression: %w", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                 r.tableName(),
		Item:                      item,
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		r.logger.Error("Failed to save profile", zap.Error(err), zap.String("uid", profile.UID))
		return translateError("SaveProfile", err)
	}

	profile.Version = next.Version
	r.logger.Debug("Profile saved",
		zap.String("uid", profile.UID),
		zap.Int("goals", len(profile.Goals)),
		zap.Int("version", profile.Version),
	)
	return nil
}

// GetByID retrieves a profile by user id
func (r *ProfileRepository) GetByID(ctx context.Context, uid string) (*entities.Profile, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: r.tableName(),
		Key:       key(userPK(uid), profileSK),
	})
	if err != nil {
		return nil, translateError("GetProfile", err)
	}
	if out.Item == nil {
		return nil, pkgerrors.NewNotFoundError("profile")
	}
	return decodeProfile(out.Item)
}

// GetByIDs fetches the existing profiles among uids
func (r *ProfileRepository) GetByIDs(ctx context.Context, uids []string) ([]*entities.Profile, error) {
	seen := make(map[string]struct{}, len(uids))
	keys := make([]map[string]types.AttributeValue, 0, len(uids))
	for _, uid := range uids {
		if _, dup := seen[uid]; dup || uid == "" {
			continue
		}
		seen[uid] = struct{}{}
		keys = append(keys, key(userPK(uid), profileSK))
	}

	items, err := r.batchGet(ctx, keys)
	if err != nil {
		return nil, translateError("GetProfiles", err)
	}
	return decodeProfiles(items)
}

// ListActive returns every active profile ordered by uid
func (r *ProfileRepository) ListActive(ctx context.Context) ([]*entities.Profile, error) {
	keyCond := expression.Key(attrGSI1PK).Equal(expression.Value(activeIndexPK))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build expression: %w", err)
	}

	items, err := r.queryAll(ctx, &dynamodb.QueryInput{
		TableName:                 r.tableName(),
		IndexName:                 aws.String(r.indexName),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		return nil, translateError("ListActiveProfiles", err)
	}

	profiles, err := decodeProfiles(items)
	if err != nil {
		return nil, err
	}
	sort.Slice(profiles, func(i, j int) bool { return profiles[i].UID < profiles[j].UID })
	return profiles, nil
}

func decodeProfile(item map[string]types.AttributeValue) (*entities.Profile, error) {
	var p entities.Profile
	if err := unmarshalItem(item, &p); err != nil {
		return nil, fmt.Errorf("failed to unmarshal profile: %w", err)
	}
	if p.Goals == nil {
		p.Goals = []entities.Goal{}
	}
	return &p, nil
}

func decodeProfiles(items []map[string]types.AttributeValue) ([]*entities.Profile, error) {
	out := make([]*entities.Profile, 0, len(items))
	for _, item := range items {
		p, err := decodeProfile(item)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}
