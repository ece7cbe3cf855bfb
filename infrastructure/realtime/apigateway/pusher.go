// Package apigateway pushes payloads to WebSocket clients connected through
// an API Gateway WebSocket API.
package apigateway

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"focuslink/application/ports"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/apigatewaymanagementapi"
	"github.com/aws/aws-sdk-go-v2/service/apigatewaymanagementapi/types"
	"go.uber.org/zap"
)

// API is the subset of the management API client the pusher uses
type API interface {
	PostToConnection(ctx context.Context, in *apigatewaymanagementapi.PostToConnectionInput, optFns ...func(*apigatewaymanagementapi.Options)) (*apigatewaymanagementapi.PostToConnectionOutput, error)
}

// Pusher implements ports.Pusher
type Pusher struct {
	client API
	logger *zap.Logger
}

// NewPusher creates a pusher on an existing client
func NewPusher(client API, logger *zap.Logger) *Pusher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pusher{client: client, logger: logger}
}

// NewClient creates a management API client for a WebSocket stage endpoint,
// e.g. "abc123.execute-api.us-west-2.amazonaws.com/prod"
func NewClient(cfg aws.Config, endpoint string) *apigatewaymanagementapi.Client {
	if !strings.HasPrefix(endpoint, "https://") {
		endpoint = "https://" + endpoint
	}
	return apigatewaymanagementapi.NewFromConfig(cfg, func(o *apigatewaymanagementapi.Options) {
		o.BaseEndpoint = aws.String(endpoint)
	})
}

// Push posts payload to the socket. A disconnected client yields
// ports.ErrSocketGone.
func (p *Pusher) Push(ctx context.Context, socketID string, payload []byte) error {
	_, err := p.client.PostToConnection(ctx, &apigatewaymanagementapi.PostToConnectionInput{
		ConnectionId: aws.String(socketID),
		Data:         payload,
	})
	if err == nil {
		return nil
	}

	var gone *types.GoneException
	if errors.As(err, &gone) {
		p.logger.Debug("Socket is gone", zap.String("socketID", socketID))
		return ports.ErrSocketGone
	}
	return fmt.Errorf("failed to post to socket %s: %w", socketID, err)
}

var _ ports.Pusher = (*Pusher)(nil)
