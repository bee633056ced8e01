// Package extractor pulls plain text out of loan documents so it can be
// sent for summarizing.
package extractor

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/BerylCAtieno/loanmitra/internal/utils"
)

var (
	ErrNoText      = fmt.Errorf("%w: no text could be extracted", utils.ErrValidation)
	ErrUnsupported = fmt.Errorf("%w: text cannot be extracted from this file type", utils.ErrValidation)
)

// Extract picks a decoder from the mime type, falling back to the file
// extension and then to content sniffing. Scanned images are unsupported.
func Extract(name, mimeType string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("%w: %s is empty", utils.ErrValidation, name)
	}

	switch kind(name, mimeType, data) {
	case "application/pdf":
		return ExtractPDF(data)
	case "text/plain":
		return ExtractText(data)
	default:
		return "", ErrUnsupported
	}
}

func kind(name, mimeType string, data []byte) string {
	mimeType, _, _ = strings.Cut(strings.ToLower(mimeType), ";")
	switch strings.TrimSpace(mimeType) {
	case "application/pdf":
		return "application/pdf"
	case "text/plain":
		return "text/plain"
	}

	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return "application/pdf"
	case ".txt", ".text":
		return "text/plain"
	}

	sniffed, _, _ := strings.Cut(http.DetectContentType(data), ";")
	return sniffed
}
