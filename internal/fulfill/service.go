// Package fulfill resolves a scanned barcode to a product name and appends it to the
// shopping list.
package fulfill

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/imrishuroy/scan2list/internal/grocery"
	"github.com/imrishuroy/scan2list/internal/lookup"
	"github.com/imrishuroy/scan2list/internal/metrics"
	"github.com/imrishuroy/scan2list/internal/scanner"
)

// DefaultNote annotates every item added from a scan.
const DefaultNote = "barcode scanned"

// ErrJournalUnavailable wraps journal failures that happen before any remote call, so
// the scan can safely be offered again.
var ErrJournalUnavailable = errors.New("journal unavailable")

// Fulfiller acts on an accepted scan.
type Fulfiller interface {
	Fulfill(ctx context.Context, scan scanner.Scan) error
}

// ProductLookup resolves barcodes to display names.
type ProductLookup interface {
	ProductName(ctx context.Context, barcode string) (string, error)
}

// ListAppender appends items to a shopping list.
type ListAppender interface {
	AddItem(ctx context.Context, listID string, item grocery.Item) error
}

// Journal records each fulfillment attempt. Begin returns false for a scan id that was
// already journaled.
type Journal interface {
	Begin(ctx context.Context, scan scanner.Scan) (bool, error)
	MarkAdded(ctx context.Context, scanID, productName string) error
	MarkFailed(ctx context.Context, scanID, note string) error
}

// Service is the lookup-then-append fulfillment step.
type Service struct {
	lookup  ProductLookup
	list    ListAppender
	listID  string
	note    string
	journal Journal
	metrics metrics.Recorder
	logger  *zap.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithJournal brackets every attempt with journal entries.
func WithJournal(j Journal) Option {
	return func(s *Service) { s.journal = j }
}

// WithMetrics counts added items, placeholders and failures.
func WithMetrics(r metrics.Recorder) Option {
	return func(s *Service) { s.metrics = r }
}

// WithNote overrides DefaultNote.
func WithNote(note string) Option {
	return func(s *Service) { s.note = note }
}

// NewService returns a Service appending to listID.
func NewService(lookup ProductLookup, list ListAppender, listID string, logger *zap.Logger, opts ...Option) *Service {
	s := &Service{
		lookup:  lookup,
		list:    list,
		listID:  listID,
		note:    DefaultNote,
		metrics: metrics.Nop{},
		logger:  logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PlaceholderName is the item name used when a barcode has no known product name.
func PlaceholderName(barcode string) string {
	return fmt.Sprintf("Unknown Product (%s)", barcode)
}

// Fulfill looks up scan.Barcode and appends the result to the list. An unknown product
// is added under PlaceholderName. Lookup transport failures and append failures are
// returned; nothing is retried.
func (s *Service) Fulfill(ctx context.Context, scan scanner.Scan) error {
	log := s.logger.With(zap.String("barcode", scan.Barcode), zap.String("scan_id", scan.ID))

	if s.journal != nil {
		started, err := s.journal.Begin(ctx, scan)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrJournalUnavailable, err)
		}
		if !started {
			log.Info("scan already journaled, skipping")
			return nil
		}
	}

	name, err := s.resolveName(ctx, scan, log)
	if err != nil {
		s.fail(ctx, scan, err, log)
		return err
	}

	item := grocery.Item{Name: name, AutoCategory: true, Note: s.note}
	if err := s.list.AddItem(ctx, s.listID, item); err != nil {
		err = fmt.Errorf("append to list: %w", err)
		s.fail(ctx, scan, err, log)
		return err
	}

	s.metrics.Count(ctx, metrics.ItemsAdded, scan.Source)
	if s.journal != nil {
		if err := s.journal.MarkAdded(ctx, scan.ID, name); err != nil {
			log.Warn("journal update failed", zap.Error(err))
		}
	}
	log.Info("item added", zap.String("item", name), zap.String("list_id", s.listID))
	return nil
}

func (s *Service) resolveName(ctx context.Context, scan scanner.Scan, log *zap.Logger) (string, error) {
	name, err := s.lookup.ProductName(ctx, scan.Barcode)
	switch {
	case errors.Is(err, lookup.ErrProductNotFound):
		log.Warn("product not found, using placeholder", zap.Error(err))
	case err != nil:
		return "", fmt.Errorf("product lookup: %w", err)
	case name == "":
		log.Warn("product has no name, using placeholder")
	default:
		return name, nil
	}
	s.metrics.Count(ctx, metrics.UnknownProducts, scan.Source)
	return PlaceholderName(scan.Barcode), nil
}

func (s *Service) fail(ctx context.Context, scan scanner.Scan, cause error, log *zap.Logger) {
	s.metrics.Count(ctx, metrics.FulfillmentFailures, scan.Source)
	if s.journal == nil {
		return
	}
	if err := s.journal.MarkFailed(ctx, scan.ID, cause.Error()); err != nil {
		log.Warn("journal update failed", zap.Error(err))
	}
}
