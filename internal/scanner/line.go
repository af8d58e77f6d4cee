package scanner

import (
	"bufio"
	"context"
	"io"
	"strings"
	"sync"
	"time"
)

type lineResult struct {
	line string
	at   time.Time
	err  error
}

// LineSource reads one barcode per line. A background goroutine owns the blocking read so
// that Next stays responsive to cancellation.
type LineSource struct {
	lines   chan lineResult
	nowFunc func() time.Time
	done    chan struct{}
	once    sync.Once
}

// NewLineSource starts reading r.
func NewLineSource(r io.Reader) *LineSource {
	s := &LineSource{
		lines:   make(chan lineResult),
		nowFunc: time.Now,
		done:    make(chan struct{}),
	}
	go s.read(r)
	return s
}

func (s *LineSource) read(r io.Reader) {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		select {
		case s.lines <- lineResult{line: sc.Text(), at: s.nowFunc()}:
		case <-s.done:
			return
		}
	}
	err := sc.Err()
	if err == nil {
		err = io.EOF
	}
	select {
	case s.lines <- lineResult{err: err}:
	case <-s.done:
	}
}

// Next returns the next non-empty line.
func (s *LineSource) Next(ctx context.Context) (Scan, error) {
	for {
		select {
		case <-ctx.Done():
			return Scan{}, ctx.Err()
		case <-s.done:
			return Scan{}, io.EOF
		case res := <-s.lines:
			if res.err != nil {
				// keep returning EOF on later calls
				s.Close()
				return Scan{}, res.err
			}
			barcode := strings.TrimSpace(res.line)
			if barcode == "" {
				continue
			}
			return NewScan(barcode, SourceStdin, res.at), nil
		}
	}
}

// Close stops the reader goroutine at its next line. The underlying reader is not closed.
func (s *LineSource) Close() error {
	s.once.Do(func() { close(s.done) })
	return nil
}
