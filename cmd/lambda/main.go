package main

import (
	"context"
	"log"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	"github.com/sleepstars/chatproxy/internal/app"
	"github.com/sleepstars/chatproxy/internal/config"
	"github.com/sleepstars/chatproxy/internal/logger"
)

// Configuration is read once per container, on cold start.
func newHandler() (func(context.Context, events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error), error) {
	cfg, err := config.LoadConfig(os.Getenv("CONFIG_PATH"))
	if err != nil {
		return nil, err
	}

	level, err := logger.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	logger.InitLogger(level, "chatproxy-lambda")

	a := app.New(cfg, logger.GetLogger(), nil, nil)
	adapter := ginadapter.NewV2(a.Router)

	return func(ctx context.Context, evt events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
		return adapter.ProxyWithContext(ctx, evt)
	}, nil
}

func main() {
	handler, err := newHandler()
	if err != nil {
		log.Fatal(err)
	}
	lambda.Start(handler)
}
