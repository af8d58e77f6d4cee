package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"

	"github.com/imrishuroy/scan2list/internal/fulfill"
	"github.com/imrishuroy/scan2list/internal/scanner"
)

// --- mock implementations ---

type mockFulfiller struct {
	scans []scanner.Scan
	errs  map[string]error
}

func (m *mockFulfiller) Fulfill(ctx context.Context, scan scanner.Scan) error {
	m.scans = append(m.scans, scan)
	return m.errs[scan.Barcode]
}

func record(t *testing.T, id string, msg ScanMessage) events.SQSMessage {
	t.Helper()
	body, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return events.SQSMessage{MessageId: id, Body: string(body)}
}

// --- test cases ---

func TestWorkerProcess_Success(t *testing.T) {
	f := &mockFulfiller{}
	p := NewProcessor(f, zap.NewNop())
	at := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	ev := events.SQSEvent{Records: []events.SQSMessage{
		record(t, "m1", ScanMessage{ScanID: "s1", Barcode: "049000028911", At: at, Source: "device"}),
	}}
	resp, err := p.Handle(context.Background(), ev)
	if err != nil {
		t.Fatalf("unexpected worker error: %v", err)
	}
	if len(resp.BatchItemFailures) != 0 {
		t.Fatalf("unexpected failures: %v", resp.BatchItemFailures)
	}
	if len(f.scans) != 1 {
		t.Fatalf("expected 1 fulfillment, got %d", len(f.scans))
	}
	got := f.scans[0]
	if got.ID != "s1" || got.Barcode != "049000028911" || !got.At.Equal(at) || got.Source != "device" {
		t.Fatalf("unexpected scan: %+v", got)
	}
}

func TestWorkerProcess_MissingScanIDUsesMessageID(t *testing.T) {
	f := &mockFulfiller{}
	p := NewProcessor(f, zap.NewNop())

	ev := events.SQSEvent{Records: []events.SQSMessage{record(t, "m9", ScanMessage{Barcode: " 123 "})}}
	if _, err := p.Handle(context.Background(), ev); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(f.scans) != 1 || f.scans[0].ID != "m9" || f.scans[0].Barcode != "123" {
		t.Fatalf("unexpected scans: %+v", f.scans)
	}
}

func TestWorkerProcess_InvalidBodiesDropped(t *testing.T) {
	f := &mockFulfiller{}
	p := NewProcessor(f, zap.NewNop())

	ev := events.SQSEvent{Records: []events.SQSMessage{
		{MessageId: "bad-json", Body: "{not json"},
		record(t, "empty", ScanMessage{ScanID: "s2", Barcode: "   "}),
		record(t, "ok", ScanMessage{ScanID: "s3", Barcode: "42"}),
	}}
	resp, err := p.Handle(context.Background(), ev)
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(resp.BatchItemFailures) != 0 {
		t.Fatalf("invalid bodies must not be redelivered: %v", resp.BatchItemFailures)
	}
	if len(f.scans) != 1 || f.scans[0].Barcode != "42" {
		t.Fatalf("expected only the valid record fulfilled, got %+v", f.scans)
	}
}

func TestWorkerProcess_FailureHandling(t *testing.T) {
	f := &mockFulfiller{errs: map[string]error{
		"1": errors.New("append to list: 500"),
		"2": fmt.Errorf("%w: throttled", fulfill.ErrJournalUnavailable),
	}}
	p := NewProcessor(f, zap.NewNop())

	ev := events.SQSEvent{Records: []events.SQSMessage{
		record(t, "m1", ScanMessage{ScanID: "s1", Barcode: "1"}),
		record(t, "m2", ScanMessage{ScanID: "s2", Barcode: "2"}),
		record(t, "m3", ScanMessage{ScanID: "s3", Barcode: "3"}),
	}}
	resp, err := p.Handle(context.Background(), ev)
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(f.scans) != 3 {
		t.Fatalf("every record should be attempted, got %d", len(f.scans))
	}
	if len(resp.BatchItemFailures) != 1 || resp.BatchItemFailures[0].ItemIdentifier != "m2" {
		t.Fatalf("expected only m2 reported, got %+v", resp.BatchItemFailures)
	}
}
