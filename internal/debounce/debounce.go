// Package debounce suppresses repeated scans of the same barcode.
package debounce

import (
	"sync"
	"time"
)

// DefaultWindow is the debounce window used when none is configured.
const DefaultWindow = 2 * time.Second

// Session is the single-slot memory of the last accepted scan. The zero value accepts
// anything. It is owned by the caller and not safe for concurrent use.
type Session struct {
	LastBarcode  string
	LastAccepted time.Time
}

// Accept decides whether barcode, read at at, should be fulfilled and records it when it
// is. A repeat of the last accepted barcode is rejected while less than window has passed
// since it was accepted. A window of zero rejects every consecutive repeat regardless of
// elapsed time.
func (s *Session) Accept(barcode string, at time.Time, window time.Duration) bool {
	if s.LastBarcode != "" && barcode == s.LastBarcode {
		if window <= 0 {
			return false
		}
		if at.Sub(s.LastAccepted) < window {
			return false
		}
	}
	s.LastBarcode = barcode
	s.LastAccepted = at
	return true
}

// Guard wraps a Session for use from concurrent request handlers.
type Guard struct {
	mu      sync.Mutex
	session Session
	window  time.Duration
}

// NewGuard returns a Guard with the given window.
func NewGuard(window time.Duration) *Guard {
	return &Guard{window: window}
}

// Accept is Session.Accept under a lock.
func (g *Guard) Accept(barcode string, at time.Time) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.session.Accept(barcode, at, g.window)
}
