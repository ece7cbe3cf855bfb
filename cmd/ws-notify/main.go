// Command ws-notify pushes domain events from EventBridge to the WebSocket
// clients of the users they concern.
package main

import (
	"context"
	"fmt"
	"log"

	domainevents "focuslink/domain/events"
	"focuslink/infrastructure/config"
	"focuslink/infrastructure/di"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"
)

var container *di.Container

func init() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	container, _, err = di.InitializeContainer(context.Background(), cfg)
	if err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}
}

func handler(ctx context.Context, event events.EventBridgeEvent) error {
	logger := container.Logger.With(
		zap.String("eventID", event.ID),
		zap.String("detailType", event.DetailType),
	)

	domainEvent, err := domainevents.Decode(event.DetailType, event.Detail)
	if err != nil {
		logger.Error("Could not decode event", zap.Error(err))
		return nil
	}

	if err := container.Notifier.Handle(ctx, domainEvent); err != nil {
		return fmt.Errorf("push %s: %w", event.DetailType, err)
	}
	return nil
}

func main() {
	lambda.Start(handler)
}
