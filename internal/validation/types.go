package validation

// ScanRequest is the payload for POST /scans
type ScanRequest struct {
	Barcode string `json:"barcode" validate:"required,barcode"`
}
