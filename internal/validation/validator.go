package validation

import (
	"unicode"

	validatorv10 "github.com/go-playground/validator/v10"
)

// maxBarcodeLen bounds accepted barcodes; GTIN-14 is 14 and Code 128 payloads stay well
// below this.
const maxBarcodeLen = 64

// New returns a validator with the "barcode" tag registered.
func New() *validatorv10.Validate {
	v := validatorv10.New()
	// RegisterValidation only fails on an empty tag or nil func
	_ = v.RegisterValidation("barcode", validBarcode)
	return v
}

// validBarcode accepts 1..64 printable, non-space ASCII characters.
func validBarcode(fl validatorv10.FieldLevel) bool {
	s := fl.Field().String()
	if len(s) == 0 || len(s) > maxBarcodeLen {
		return false
	}
	for _, r := range s {
		if r > unicode.MaxASCII || !unicode.IsPrint(r) || unicode.IsSpace(r) {
			return false
		}
	}
	return true
}
