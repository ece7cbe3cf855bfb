// Command ws-connect handles $connect on the WebSocket API. Browsers cannot
// set headers on a WebSocket upgrade, so the bearer token may also come in
// the token query parameter.
package main

import (
	"context"
	"log"
	"net/http"
	"strings"

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
	logger := container.Logger.With(zap.String("socketID", socketID))

	claims, err := container.Validator.ValidateToken(token(req))
	if err != nil {
		logger.Info("Rejected socket", zap.Error(err))
		return events.APIGatewayProxyResponse{StatusCode: http.StatusUnauthorized}, nil
	}

	if err := container.Notifier.Connect(ctx, socketID, claims.Subject); err != nil {
		logger.Error("Failed to register socket", zap.Error(err))
		return events.APIGatewayProxyResponse{StatusCode: http.StatusInternalServerError}, nil
	}
	return events.APIGatewayProxyResponse{StatusCode: http.StatusOK}, nil
}

func token(req events.APIGatewayWebsocketProxyRequest) string {
	if t := req.QueryStringParameters["token"]; t != "" {
		return t
	}
	for name, value := range req.Headers {
		if strings.EqualFold(name, "Authorization") {
			scheme, t, ok := strings.Cut(value, " ")
			if ok && strings.EqualFold(scheme, "Bearer") {
				return strings.TrimSpace(t)
			}
		}
	}
	return ""
}

func main() {
	lambda.Start(handler)
}
