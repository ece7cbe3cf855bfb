package eventbridge

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"focuslink/domain/events"
	pkgerrors "focuslink/pkg/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockClient struct {
	mock.Mock
}

func (m *mockClient) PutEvents(ctx context.Context, in *eventbridge.PutEventsInput, _ ...func(*eventbridge.Options)) (*eventbridge.PutEventsOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*eventbridge.PutEventsOutput)
	return out, args.Error(1)
}

func goalsChanged(uid string) events.DomainEvent {
	return events.NewGoalsChanged(uid, "g1", "added", []string{"learn pottery"}, time.Unix(1700000000, 0).UTC())
}

func TestPublisher_Publish(t *testing.T) {
	client := &mockClient{}
	p := NewPublisher(client, "bus", "focuslink.api", DefaultBreakerSettings(), nil)
	ctx := context.Background()

	var entry types.PutEventsRequestEntry
	client.On("PutEvents", ctx, mock.MatchedBy(func(in *eventbridge.PutEventsInput) bool {
		if len(in.Entries) != 1 {
			return false
		}
		entry = in.Entries[0]
		return true
	})).Return(&eventbridge.PutEventsOutput{}, nil).Once()

	require.NoError(t, p.Publish(ctx, goalsChanged("alice")))

	assert.Equal(t, "bus", aws.ToString(entry.EventBusName))
	assert.Equal(t, "focuslink.api", aws.ToString(entry.Source))
	assert.Equal(t, events.TypeGoalsChanged, aws.ToString(entry.DetailType))

	var detail map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(aws.ToString(entry.Detail)), &detail))
	assert.Equal(t, "alice", detail["user_id"])
	assert.Equal(t, []interface{}{"learn pottery"}, detail["active_goals"])
}

func TestPublisher_PublishBatch_Chunks(t *testing.T) {
	client := &mockClient{}
	p := NewPublisher(client, "bus", "src", DefaultBreakerSettings(), nil)
	ctx := context.Background()

	batch := make([]events.DomainEvent, 23)
	for i := range batch {
		batch[i] = goalsChanged("u")
	}

	sizes := []int{}
	client.On("PutEvents", ctx, mock.MatchedBy(func(in *eventbridge.PutEventsInput) bool {
		sizes = append(sizes, len(in.Entries))
		return true
	})).Return(&eventbridge.PutEventsOutput{}, nil)

	require.NoError(t, p.PublishBatch(ctx, batch))
	assert.Equal(t, []int{10, 10, 3}, sizes)
	require.NoError(t, p.PublishBatch(ctx, nil))
	client.AssertNumberOfCalls(t, "PutEvents", 3)
}

func TestPublisher_FailedEntries(t *testing.T) {
	client := &mockClient{}
	p := NewPublisher(client, "bus", "src", DefaultBreakerSettings(), nil)
	ctx := context.Background()

	client.On("PutEvents", ctx, mock.Anything).Return(&eventbridge.PutEventsOutput{
		FailedEntryCount: 1,
		Entries:          []types.PutEventsResultEntry{{ErrorCode: aws.String("InternalFailure")}},
	}, nil).Once()

	err := p.Publish(ctx, goalsChanged("alice"))
	assert.True(t, pkgerrors.IsType(err, pkgerrors.ErrorTypeExternal))
}

func TestPublisher_BreakerOpens(t *testing.T) {
	client := &mockClient{}
	settings := DefaultBreakerSettings()
	settings.MinRequests = 2
	settings.FailureThreshold = 0.5
	p := NewPublisher(client, "bus", "src", settings, nil)
	ctx := context.Background()

	client.On("PutEvents", ctx, mock.Anything).Return(nil, errors.New("throttled"))

	for i := 0; i < 2; i++ {
		err := p.Publish(ctx, goalsChanged("alice"))
		assert.True(t, pkgerrors.IsType(err, pkgerrors.ErrorTypeExternal))
	}
	assert.Equal(t, gobreaker.StateOpen, p.State())

	err := p.Publish(ctx, goalsChanged("alice"))
	assert.True(t, pkgerrors.IsType(err, pkgerrors.ErrorTypeUnavailable))
	client.AssertNumberOfCalls(t, "PutEvents", 2)
}
