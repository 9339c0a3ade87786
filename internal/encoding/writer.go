package encoding

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/ryo246912/gh-pr-code-metrics/internal/models"
	"gopkg.in/yaml.v3"
)

// WriteJSON writes records as one indented JSON array
func WriteJSON(w io.Writer, records []models.Record) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if records == nil {
		records = []models.Record{}
	}
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	return nil
}

// WriteJSONLines writes one compact JSON object per record
func WriteJSONLines(w io.Writer, records []models.Record) error {
	enc := json.NewEncoder(w)
	for _, r := range records {
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("%w: %v", ErrIO, err)
		}
	}
	return nil
}

func WriteYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	return enc.Close()
}
