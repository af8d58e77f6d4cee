package main

import (
	"errors"
	"strings"
	"time"

	"github.com/imrishuroy/scan2list/internal/scanner"
)

var errEmptyBarcode = errors.New("empty barcode")

// ScanMessage is the payload forwarded from a scanner host -> SQS -> worker.
type ScanMessage struct {
	ScanID  string    `json:"scan_id"`
	Barcode string    `json:"barcode"`
	At      time.Time `json:"at"`
	Source  string    `json:"source,omitempty"`
}

// toScan converts the message, filling a scan id when the sender left it out.
func (m ScanMessage) toScan(messageID string) (scanner.Scan, error) {
	barcode := strings.TrimSpace(m.Barcode)
	if barcode == "" {
		return scanner.Scan{}, errEmptyBarcode
	}
	id := m.ScanID
	if id == "" {
		id = messageID
	}
	at := m.At
	if at.IsZero() {
		at = time.Now()
	}
	return scanner.Scan{ID: id, Barcode: barcode, At: at, Source: m.Source}, nil
}
