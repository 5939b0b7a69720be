package ingest

import (
	"errors"
	"strings"
)

// Doc is a source document: its label (the file name) and raw text.
type Doc struct {
	Label string
	Text  string
}

// Validate checks if the document has required fields
func (d *Doc) Validate() error {
	if strings.TrimSpace(d.Label) == "" {
		return errors.New("doc label is required")
	}
	return nil
}
