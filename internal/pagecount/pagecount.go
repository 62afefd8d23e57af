// Package pagecount extracts page counts from uploaded documents so pricing
// can bill per sheet. Extraction failure is never fatal to an upload.
package pagecount

import (
	"bytes"
	"fmt"

	"github.com/ledongthuc/pdf"
)

const pdfContentType = "application/pdf"

// Supported reports whether a page count can be extracted for contentType.
func Supported(contentType string) bool {
	return contentType == pdfContentType
}

// FromPDF returns the number of pages in a PDF document. Malformed input
// yields an error instead of a panic; callers treat any error as "page count
// unknown" and continue the upload.
func FromPDF(data []byte) (n int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf parser panicked: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0, fmt.Errorf("failed to parse pdf: %w", err)
	}
	n = reader.NumPage()
	if n <= 0 {
		return 0, fmt.Errorf("pdf reports no pages")
	}
	return n, nil
}
