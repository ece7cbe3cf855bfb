// Command ws-disconnect handles $disconnect on the WebSocket API
package main

import (
	"context"
	"log"
	"net/http"

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

func handler(ctx context.Context, req events.APIGatewayWebsocketProxyRequest) (events.APIGatewayProxyResponse, error) {
	socketID := req.RequestContext.ConnectionID
	if err := container.Notifier.Disconnect(ctx, socketID); err != nil {
		// The socket item expires through the table TTL anyway
		container.Logger.Warn("Failed to remove socket", zap.String("socketID", socketID), zap.Error(err))
	}
	return events.APIGatewayProxyResponse{StatusCode: http.StatusOK}, nil
}

func main() {
	lambda.Start(handler)
}
