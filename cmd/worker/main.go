// Package main is the SQS consumer that fulfills forwarded scans.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"

	"github.com/imrishuroy/scan2list/internal/aws"
	"github.com/imrishuroy/scan2list/internal/config"
	"github.com/imrishuroy/scan2list/internal/fulfill"
	"github.com/imrishuroy/scan2list/internal/grocery"
	"github.com/imrishuroy/scan2list/internal/history"
	"github.com/imrishuroy/scan2list/internal/logging"
	"github.com/imrishuroy/scan2list/internal/lookup"
	"github.com/imrishuroy/scan2list/internal/metrics"
)

const historyTTL = 90 * 24 * time.Hour

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	p, err := newProcessor(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to init worker", zap.Error(err))
	}

	// RUN_LOCAL=true feeds a single simulated SQS record through the processor.
	if os.Getenv("RUN_LOCAL") == "true" {
		body := os.Getenv("LOCAL_SQS_BODY")
		if body == "" {
			b, _ := json.Marshal(ScanMessage{Barcode: "049000028911", Source: "local"})
			body = string(b)
		}
		ev := events.SQSEvent{Records: []events.SQSMessage{{MessageId: "local-1", Body: body}}}
		resp, _ := p.Handle(ctx, ev)
		if len(resp.BatchItemFailures) > 0 {
			logger.Fatal("local record failed")
		}
		return
	}

	lambda.Start(p.Handle)
}

func newProcessor(ctx context.Context, cfg config.Config, logger *zap.Logger) (*Processor, error) {
	groceries, err := grocery.NewClient(cfg.GroceryBaseURL, cfg.Username, cfg.Password)
	if err != nil {
		return nil, err
	}
	if err := groceries.Login(ctx); err != nil {
		return nil, fmt.Errorf("list service login: %w", err)
	}

	opts := []fulfill.Option{fulfill.WithNote(cfg.ItemNote)}
	if cfg.HistoryTable != "" || cfg.MetricsNamespace != "" {
		clients, err := aws.NewAWSClients(ctx)
		if err != nil {
			return nil, err
		}
		if cfg.HistoryTable != "" {
			opts = append(opts, fulfill.WithJournal(history.NewStore(clients.DynamoDB, cfg.HistoryTable, historyTTL)))
		}
		if cfg.MetricsNamespace != "" {
			opts = append(opts, fulfill.WithMetrics(metrics.NewCloudWatch(clients.CloudWatch, cfg.MetricsNamespace, logger.Named("metrics"))))
		}
	}

	products := lookup.NewClient(cfg.LookupBaseURL, cfg.UserAgent, &http.Client{Timeout: 10 * time.Second})
	svc := fulfill.NewService(products, groceries, cfg.ListID, logger.Named("fulfill"), opts...)
	return NewProcessor(svc, logger.Named("worker")), nil
}
