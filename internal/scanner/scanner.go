// Package scanner turns raw input (a line-buffered reader, a keyboard-emulating HID device or
// an in-process queue) into a stream of barcode scans.
package scanner

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Source names reported on scans.
const (
	SourceStdin  = "stdin"
	SourceDevice = "device"
	SourceHTTP   = "http"
)

// Scan is one barcode read. At is the time the input arrived at the source.
type Scan struct {
	ID      string    `json:"scan_id"`
	Barcode string    `json:"barcode"`
	At      time.Time `json:"at"`
	Source  string    `json:"source"`
}

// NewScan stamps a barcode with a fresh id.
func NewScan(barcode, source string, at time.Time) Scan {
	return Scan{
		ID:      uuid.NewString(),
		Barcode: barcode,
		At:      at,
		Source:  source,
	}
}

// Source produces scans until the context is cancelled or the input ends.
//
// Next blocks until a scan is available. It returns ctx.Err() on cancellation and io.EOF
// when the underlying input is exhausted.
type Source interface {
	Next(ctx context.Context) (Scan, error)
	Close() error
}

// DeviceConfig selects and drives a keyboard-emulating scanner.
type DeviceConfig struct {
	// NameContains is matched case-insensitively against each input device name.
	NameContains string
	// Grab requests exclusive access so scans do not leak into the console.
	Grab bool
	// PollInterval is the sleep between empty non-blocking reads.
	PollInterval time.Duration
}
