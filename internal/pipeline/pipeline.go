// Package pipeline wires a scan source, the debounce filter and a fulfiller into one
// sequential loop.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/imrishuroy/scan2list/internal/debounce"
	"github.com/imrishuroy/scan2list/internal/fulfill"
	"github.com/imrishuroy/scan2list/internal/metrics"
	"github.com/imrishuroy/scan2list/internal/scanner"
)

// Pipeline processes one scan at a time.
type Pipeline struct {
	source    scanner.Source
	fulfiller fulfill.Fulfiller
	window    time.Duration
	metrics   metrics.Recorder
	logger    *zap.Logger
}

// New returns a Pipeline. A nil recorder disables metrics.
func New(source scanner.Source, fulfiller fulfill.Fulfiller, window time.Duration, recorder metrics.Recorder, logger *zap.Logger) *Pipeline {
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	return &Pipeline{
		source:    source,
		fulfiller: fulfiller,
		window:    window,
		metrics:   recorder,
		logger:    logger,
	}
}

// Run reads scans until ctx is cancelled or the source is exhausted, both of which return
// nil. Fulfillment errors are logged and the loop moves on. Any other source error ends
// the run and is returned.
func (p *Pipeline) Run(ctx context.Context) error {
	var session debounce.Session
	for {
		scan, err := p.source.Next(ctx)
		if err != nil {
			if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
				p.logger.Info("scan loop stopped", zap.Error(err))
				return nil
			}
			if errors.Is(err, io.EOF) {
				p.logger.Info("scan input closed")
				return nil
			}
			p.logger.Error("scan source failed", zap.Error(err))
			return fmt.Errorf("read scan: %w", err)
		}

		log := p.logger.With(zap.String("barcode", scan.Barcode), zap.String("source", scan.Source))
		if !session.Accept(scan.Barcode, scan.At, p.window) {
			p.metrics.Count(ctx, metrics.ScansDebounced, scan.Source)
			log.Debug("duplicate scan ignored", zap.Duration("window", p.window))
			continue
		}
		p.metrics.Count(ctx, metrics.ScansAccepted, scan.Source)
		log.Info("scan accepted", zap.String("scan_id", scan.ID))

		if err := p.fulfiller.Fulfill(ctx, scan); err != nil {
			log.Error("fulfillment failed, scan dropped", zap.String("scan_id", scan.ID), zap.Error(err))
		}
	}
}
