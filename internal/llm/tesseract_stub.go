//go:build !tesseract

package llm

import "errors"

// ErrTesseractNotAvailable is returned when tesseract is selected but not compiled in.
var ErrTesseractNotAvailable = errors.New("tesseract not available: build with -tags tesseract to enable")

// NewTesseractProvider reports that the local OCR engine is not compiled in.
func NewTesseractProvider(cfg ProviderConfig) (Provider, error) {
	return nil, ErrTesseractNotAvailable
}
