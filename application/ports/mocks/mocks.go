// Package mocks holds testify mocks of the application ports
package mocks

import (
	"context"
	"time"

	"focuslink/domain/core/entities"
	"focuslink/domain/events"

	"github.com/stretchr/testify/mock"
)

// MockEventPublisher is a mock implementation of ports.EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, event events.DomainEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockEventPublisher) PublishBatch(ctx context.Context, evts []events.DomainEvent) error {
	args := m.Called(ctx, evts)
	return args.Error(0)
}

// Published returns the types of every event passed to PublishBatch
func (m *MockEventPublisher) Published() []string {
	var types []string
	for _, call := range m.Calls {
		if call.Method != "PublishBatch" {
			continue
		}
		for _, e := range call.Arguments.Get(1).([]events.DomainEvent) {
			types = append(types, e.GetEventType())
		}
	}
	return types
}

// MockProfileRepository is a mock implementation of ports.ProfileRepository
type MockProfileRepository struct {
	mock.Mock
}

func (m *MockProfileRepository) Save(ctx context.Context, profile *entities.Profile) error {
	args := m.Called(ctx, profile)
	return args.Error(0)
}

func (m *MockProfileRepository) GetByID(ctx context.Context, uid string) (*entities.Profile, error) {
	args := m.Called(ctx, uid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Profile), args.Error(1)
}

func (m *MockProfileRepository) GetByIDs(ctx context.Context, uids []string) ([]*entities.Profile, error) {
	args := m.Called(ctx, uids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Profile), args.Error(1)
}

func (m *MockProfileRepository) ListActive(ctx context.Context) ([]*entities.Profile, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Profile), args.Error(1)
}

// MockMetricsRecorder is a mock implementation of ports.MetricsRecorder
type MockMetricsRecorder struct {
	mock.Mock
}

func (m *MockMetricsRecorder) RecordMatchRun(ctx context.Context, candidates, matches int, duration time.Duration) {
	m.Called(ctx, candidates, matches, duration)
}

func (m *MockMetricsRecorder) RecordEvent(ctx context.Context, name string) {
	m.Called(ctx, name)
}

// MockSocketRepository is a mock implementation of ports.SocketRepository
type MockSocketRepository struct {
	mock.Mock
}

func (m *MockSocketRepository) Save(ctx context.Context, socket *entities.Socket) error {
	args := m.Called(ctx, socket)
	return args.Error(0)
}

func (m *MockSocketRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockSocketRepository) ListByUser(ctx context.Context, uid string) ([]*entities.Socket, error) {
	args := m.Called(ctx, uid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Socket), args.Error(1)
}

// MockPusher is a mock implementation of ports.Pusher
type MockPusher struct {
	mock.Mock
}

func (m *MockPusher) Push(ctx context.Context, socketID string, payload []byte) error {
	args := m.Called(ctx, socketID, payload)
	return args.Error(0)
}
