package pdfextract

import (
	"bytes"
	"fmt"
	"io"

	"github.com/ledongthuc/pdf"
)

var magic = []byte("%PDF-")

// IsPDF reports whether b starts with the PDF file signature.
func IsPDF(b []byte) bool {
	return bytes.HasPrefix(b, magic)
}

// PlainText returns the text layer of the PDF in b. A scanned document with
// no text layer yields an empty string and no error.
func PlainText(b []byte) (string, error) {
	if len(b) == 0 {
		return "", nil
	}
	doc, err := pdf.NewReader(bytes.NewReader(b), int64(len(b)))
	if err != nil {
		return "", fmt.Errorf("open pdf failed: %w", err)
	}
	plain, err := doc.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract pdf text failed: %w", err)
	}
	out, err := io.ReadAll(plain)
	if err != nil {
		return "", fmt.Errorf("read pdf text failed: %w", err)
	}
	return string(out), nil
}
