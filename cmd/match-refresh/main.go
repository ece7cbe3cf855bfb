// Command match-refresh recomputes a user's matches whenever their goals
// change. It consumes goals.changed events from EventBridge.
package main

import (
	"context"
	"encoding/json"
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

	if event.DetailType != domainevents.TypeGoalsChanged {
		logger.Warn("Ignoring unexpected event")
		return nil
	}

	var detail domainevents.GoalsChanged
	if err := json.Unmarshal(event.Detail, &detail); err != nil {
		// Malformed details are dropped, not retried
		logger.Error("Could not unmarshal event detail", zap.Error(err))
		return nil
	}
	if detail.UserID == "" {
		logger.Error("Event detail has no user")
		return nil
	}

	// Returning the error lets EventBridge retry
	if err := container.Refresher.Refresh(ctx, detail.UserID); err != nil {
		return fmt.Errorf("refresh matches for %s: %w", detail.UserID, err)
	}
	return nil
}

func main() {
	lambda.Start(handler)
}
