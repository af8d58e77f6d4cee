package scanner

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"
)

// ErrIntakeClosed is returned by Submit once the source has been closed.
var ErrIntakeClosed = errors.New("scan intake closed")

// ChannelSource is an in-process queue of scans submitted by other goroutines, such as the
// HTTP intake. Its buffer plays the role the line buffer plays for stdin.
type ChannelSource struct {
	scans   chan Scan
	done    chan struct{}
	once    sync.Once
	nowFunc func() time.Time
}

// NewChannelSource returns a source buffering up to size pending scans.
func NewChannelSource(size int) *ChannelSource {
	if size <= 0 {
		size = 16
	}
	return &ChannelSource{
		scans:   make(chan Scan, size),
		done:    make(chan struct{}),
		nowFunc: time.Now,
	}
}

// Submit queues a barcode and returns the scan it was wrapped in. It blocks while the
// buffer is full.
func (s *ChannelSource) Submit(ctx context.Context, barcode string) (Scan, error) {
	scan := NewScan(barcode, SourceHTTP, s.nowFunc())
	select {
	case <-s.done:
		return Scan{}, ErrIntakeClosed
	default:
	}
	select {
	case s.scans <- scan:
		return scan, nil
	case <-s.done:
		return Scan{}, ErrIntakeClosed
	case <-ctx.Done():
		return Scan{}, ctx.Err()
	}
}

// Next returns the next submitted scan, or io.EOF once closed and drained.
func (s *ChannelSource) Next(ctx context.Context) (Scan, error) {
	select {
	case scan := <-s.scans:
		return scan, nil
	default:
	}
	select {
	case scan := <-s.scans:
		return scan, nil
	case <-s.done:
		return Scan{}, io.EOF
	case <-ctx.Done():
		return Scan{}, ctx.Err()
	}
}

// Close stops accepting submissions.
func (s *ChannelSource) Close() error {
	s.once.Do(func() { close(s.done) })
	return nil
}
