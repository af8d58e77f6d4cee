// Package main serves the HTTP scan intake on API Gateway and forwards accepted scans to SQS.
package main

import (
	"context"
	"log"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	"go.uber.org/zap"

	"github.com/imrishuroy/scan2list/internal/aws"
	"github.com/imrishuroy/scan2list/internal/config"
	"github.com/imrishuroy/scan2list/internal/fulfill"
	"github.com/imrishuroy/scan2list/internal/handlers"
	"github.com/imrishuroy/scan2list/internal/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.QueueURL == "" {
		log.Fatalf("config: SCAN_QUEUE_URL is not set")
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	clients, err := aws.NewAWSClients(context.Background())
	if err != nil {
		logger.Fatal("failed to init aws clients", zap.Error(err))
	}

	forwarder := fulfill.NewForwarder(aws.NewPublisher(clients.SQS, cfg.QueueURL), logger.Named("forward"))
	r := handlers.SetupRouter(handlers.HandlerConfig{
		Submitter: handlers.NewDebouncedSubmitter(cfg.Debounce(), forwarder),
		Logger:    logger.Named("http"),
	})

	// RUN_LOCAL=true runs a plain HTTP server for development.
	if os.Getenv("RUN_LOCAL") == "true" {
		logger.Info("running local server", zap.String("addr", cfg.HTTPAddr))
		if err := r.Run(cfg.HTTPAddr); err != nil {
			logger.Fatal("failed to run local server", zap.Error(err))
		}
		return
	}

	adapter := ginadapter.New(r)
	lambda.Start(func(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
		return adapter.ProxyWithContext(ctx, req)
	})
}
