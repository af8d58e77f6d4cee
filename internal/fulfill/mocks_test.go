package fulfill

import (
	"context"
	"fmt"

	"github.com/imrishuroy/scan2list/internal/grocery"
	"github.com/imrishuroy/scan2list/internal/lookup"
	"github.com/imrishuroy/scan2list/internal/scanner"
)

// mockLookup answers from a fixed table; barcodes in errs fail with that error and
// anything else is not found.
type mockLookup struct {
	names map[string]string
	errs  map[string]error
	calls []string
}

func (m *mockLookup) ProductName(ctx context.Context, barcode string) (string, error) {
	m.calls = append(m.calls, barcode)
	if err, ok := m.errs[barcode]; ok {
		return "", err
	}
	name, ok := m.names[barcode]
	if !ok {
		return "", fmt.Errorf("%w: %s", lookup.ErrProductNotFound, barcode)
	}
	return name, nil
}

type addCall struct {
	listID string
	item   grocery.Item
}

type mockList struct {
	calls []addCall
	err   error
}

func (m *mockList) AddItem(ctx context.Context, listID string, item grocery.Item) error {
	m.calls = append(m.calls, addCall{listID: listID, item: item})
	return m.err
}

type mockJournal struct {
	seen   map[string]bool
	added  map[string]string
	failed map[string]string
	err    error
}

func newMockJournal() *mockJournal {
	return &mockJournal{seen: map[string]bool{}, added: map[string]string{}, failed: map[string]string{}}
}

func (m *mockJournal) Begin(ctx context.Context, scan scanner.Scan) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	if m.seen[scan.ID] {
		return false, nil
	}
	m.seen[scan.ID] = true
	return true, nil
}

func (m *mockJournal) MarkAdded(ctx context.Context, scanID, productName string) error {
	m.added[scanID] = productName
	return nil
}

func (m *mockJournal) MarkFailed(ctx context.Context, scanID, note string) error {
	m.failed[scanID] = note
	return nil
}

type mockRecorder struct {
	counts map[string]int
}

func (m *mockRecorder) Count(ctx context.Context, name, source string) {
	if m.counts == nil {
		m.counts = map[string]int{}
	}
	m.counts[name]++
}

type mockPublisher struct {
	bodies []string
	attrs  []map[string]string
	err    error
}

func (m *mockPublisher) Send(ctx context.Context, body string, attrs map[string]string) (string, error) {
	m.bodies = append(m.bodies, body)
	m.attrs = append(m.attrs, attrs)
	if m.err != nil {
		return "", m.err
	}
	return fmt.Sprintf("msg-%d", len(m.bodies)), nil
}
