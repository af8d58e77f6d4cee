package handlers

import (
	"context"
	"time"

	"github.com/imrishuroy/scan2list/internal/debounce"
	"github.com/imrishuroy/scan2list/internal/fulfill"
	"github.com/imrishuroy/scan2list/internal/scanner"
)

// DebouncedSubmitter debounces barcodes across concurrent requests and fulfills the
// accepted ones inline. It backs the stateless API deployment, where no long-running
// pipeline owns the session.
type DebouncedSubmitter struct {
	guard     *debounce.Guard
	fulfiller fulfill.Fulfiller
	nowFunc   func() time.Time
}

// NewDebouncedSubmitter returns a submitter sharing one debounce session.
func NewDebouncedSubmitter(window time.Duration, f fulfill.Fulfiller) *DebouncedSubmitter {
	return &DebouncedSubmitter{
		guard:     debounce.NewGuard(window),
		fulfiller: f,
		nowFunc:   time.Now,
	}
}

// Submit implements Submitter.
func (d *DebouncedSubmitter) Submit(ctx context.Context, barcode string) (scanner.Scan, error) {
	scan := scanner.NewScan(barcode, scanner.SourceHTTP, d.nowFunc())
	if !d.guard.Accept(barcode, scan.At) {
		return scanner.Scan{}, ErrDuplicateScan
	}
	if err := d.fulfiller.Fulfill(ctx, scan); err != nil {
		return scanner.Scan{}, err
	}
	return scan, nil
}
