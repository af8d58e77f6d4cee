package history

import "time"

// Status values for journal entries
const (
	StatusInProgress = "IN_PROGRESS"
	StatusAdded      = "ADDED"
	StatusFailed     = "FAILED"
)

// ScanRecord is the shape persisted in the scan journal table.
type ScanRecord struct {
	ScanID      string    `dynamodbav:"scan_id"` // PK
	Barcode     string    `dynamodbav:"barcode"`
	Source      string    `dynamodbav:"source,omitempty"`
	Status      string    `dynamodbav:"status"`
	ProductName string    `dynamodbav:"product_name,omitempty"`
	Note        string    `dynamodbav:"note,omitempty"` // failure reason
	ScannedAt   time.Time `dynamodbav:"scanned_at"`
	CreatedAt   time.Time `dynamodbav:"created_at"`
	UpdatedAt   time.Time `dynamodbav:"updated_at"`
	ExpiresAt   int64     `dynamodbav:"expires_at"` // TTL epoch seconds
}
