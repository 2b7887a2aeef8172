// Package report loads HTML report files from disk for delivery.
package report

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/text/encoding/unicode"
)

// Content holds a report's exact bytes along with the text used for the
// inline message body.
type Content struct {
	// Name is the base name of the report path, used as the attachment filename.
	Name string

	// Raw is the exact file contents.
	Raw []byte

	// HTML is the lossy UTF-8 decoding of Raw.
	HTML string
}

// Load reads the report at path. A missing or unreadable file is an error;
// the caller must not send anything in that case.
func Load(path string) (*Content, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read report: %w", err)
	}

	return &Content{
		Name: filepath.Base(path),
		Raw:  raw,
		HTML: Decode(raw),
	}, nil
}

// Decode interprets raw as UTF-8, replacing each invalid byte with U+FFFD.
// It never fails, and well-formed UTF-8 comes back unchanged.
func Decode(raw []byte) string {
	// The UTF-8 decoder substitutes invalid input instead of failing.
	out, _ := unicode.UTF8.NewDecoder().Bytes(raw)
	return string(out)
}
