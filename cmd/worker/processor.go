package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"

	"github.com/imrishuroy/scan2list/internal/fulfill"
)

// Processor handles SQS batches of forwarded scans.
type Processor struct {
	fulfiller fulfill.Fulfiller
	logger    *zap.Logger
}

// NewProcessor creates a worker processor fulfilling through f.
func NewProcessor(f fulfill.Fulfiller, logger *zap.Logger) *Processor {
	return &Processor{fulfiller: f, logger: logger}
}

// Handle processes every record of the batch. Malformed messages and failed fulfillments
// are logged and dropped. Only records that never reached a remote call are reported
// back as batch item failures.
func (p *Processor) Handle(ctx context.Context, ev events.SQSEvent) (events.SQSEventResponse, error) {
	var resp events.SQSEventResponse
	p.logger.Debug("received batch", zap.Int("records", len(ev.Records)))
	for _, rec := range ev.Records {
		err := p.processMessage(ctx, rec)
		switch {
		case err == nil:
		case errors.Is(err, fulfill.ErrJournalUnavailable):
			p.logger.Warn("scan deferred", zap.String("message_id", rec.MessageId), zap.Error(err))
			resp.BatchItemFailures = append(resp.BatchItemFailures,
				events.SQSBatchItemFailure{ItemIdentifier: rec.MessageId})
		default:
			p.logger.Error("scan dropped", zap.String("message_id", rec.MessageId), zap.Error(err))
		}
	}
	return resp, nil
}

func (p *Processor) processMessage(ctx context.Context, rec events.SQSMessage) error {
	var msg ScanMessage
	if err := json.Unmarshal([]byte(rec.Body), &msg); err != nil {
		return fmt.Errorf("invalid message body: %w", err)
	}
	scan, err := msg.toScan(rec.MessageId)
	if err != nil {
		return fmt.Errorf("invalid message body: %w", err)
	}
	if err := p.fulfiller.Fulfill(ctx, scan); err != nil {
		return fmt.Errorf("barcode %s: %w", scan.Barcode, err)
	}
	return nil
}
