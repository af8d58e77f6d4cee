package fulfill

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/imrishuroy/scan2list/internal/scanner"
)

// Publisher sends a message body with attributes to a queue.
type Publisher interface {
	Send(ctx context.Context, messageBody string, attributes map[string]string) (string, error)
}

// Forwarder hands accepted scans to a queue for a remote worker to fulfill.
type Forwarder struct {
	publisher Publisher
	logger    *zap.Logger
}

// NewForwarder returns a Forwarder publishing through p.
func NewForwarder(p Publisher, logger *zap.Logger) *Forwarder {
	return &Forwarder{publisher: p, logger: logger}
}

// Fulfill publishes scan as JSON.
func (f *Forwarder) Fulfill(ctx context.Context, scan scanner.Scan) error {
	body, err := json.Marshal(scan)
	if err != nil {
		return fmt.Errorf("marshal scan: %w", err)
	}
	msgID, err := f.publisher.Send(ctx, string(body), map[string]string{
		"scan_id": scan.ID,
		"source":  scan.Source,
	})
	if err != nil {
		return fmt.Errorf("forward scan: %w", err)
	}
	f.logger.Info("scan forwarded",
		zap.String("barcode", scan.Barcode),
		zap.String("scan_id", scan.ID),
		zap.String("message_id", msgID))
	return nil
}
