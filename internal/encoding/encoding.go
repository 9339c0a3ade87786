// Package encoding reads PR code-metrics collections in the formats the
// collector has produced over time and writes their canonical JSON form.
package encoding

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/ryo246912/gh-pr-code-metrics/internal/models"
	"gopkg.in/yaml.v3"
)

var ErrEncoding = errors.New("encoding error")
var ErrIO = errors.New("input/output error")

var errDuplicateKey = errors.New("duplicate key")

type Format string

const (
	FormatJSON      Format = "json"
	FormatJSONLines Format = "jsonl"
	FormatYAML      Format = "yaml"
	// FormatPython is the single-quoted list/dict literal the collector prints.
	FormatPython Format = "python"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Document is a decoded, still untyped, record collection
type Document struct {
	Items  []any
	Format Format
	Size   int
}

// Decode reads r to the end and decodes it as a record collection
func Decode(r io.Reader) (*Document, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIO, err)
	}
	return DecodeBytes(b)
}

// DecodeBytes decodes a JSON array or object, JSON Lines, a Python literal,
// or YAML into untyped records
func DecodeBytes(b []byte) (*Document, error) {
	size := len(b)
	b = bytes.TrimSpace(bytes.TrimPrefix(b, utf8BOM))
	if len(b) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrEncoding)
	}

	items, format, jsonErr := decodeJSON(b)
	if jsonErr == nil {
		return &Document{Items: items, Format: format, Size: size}, nil
	}
	if errors.Is(jsonErr, errDuplicateKey) {
		return nil, fmt.Errorf("%w: %v", ErrEncoding, jsonErr)
	}

	if isFlowLiteral(b) && bytes.IndexByte(b, '\'') >= 0 {
		items, pyErr := decodePython(b)
		if pyErr == nil {
			return &Document{Items: items, Format: FormatPython, Size: size}, nil
		}
		if errors.Is(pyErr, errDuplicateKey) {
			return nil, fmt.Errorf("%w: %v", ErrEncoding, pyErr)
		}
		log.Printf("not a Python literal, trying YAML: %v", pyErr)
	}

	items, yamlErr := decodeYAML(b)
	if yamlErr != nil {
		return nil, fmt.Errorf("%w: not JSON (%v) and not YAML (%v)", ErrEncoding, jsonErr, yamlErr)
	}
	return &Document{Items: items, Format: FormatYAML, Size: size}, nil
}

func decodeJSON(b []byte) ([]any, Format, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()

	var values []any
	for {
		var v any
		err := dec.Decode(&v)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, "", err
		}
		values = append(values, v)
	}

	if err := checkJSONKeys(b); err != nil {
		return nil, "", err
	}

	if len(values) == 1 {
		items, err := collection(values[0])
		return items, FormatJSON, err
	}

	for i, v := range values {
		if _, ok := v.(map[string]any); !ok {
			return nil, "", fmt.Errorf("line value %d is %T, want an object", i+1, v)
		}
	}
	return values, FormatJSONLines, nil
}

// checkJSONKeys walks the tokens of b and rejects objects that repeat a key,
// which encoding/json would otherwise resolve silently to the last value
func checkJSONKeys(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	for {
		if err := walkJSON(dec); err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
	}
}

func walkJSON(dec *json.Decoder) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}

	switch tok {
	case json.Delim('{'):
		seen := make(map[string]bool)
		for dec.More() {
			keyTok, err := dec.Token()
			if err != nil {
				return err
			}
			key, _ := keyTok.(string)
			if seen[key] {
				return fmt.Errorf("offset %d: %w %q", dec.InputOffset(), errDuplicateKey, key)
			}
			seen[key] = true
			if err := walkJSON(dec); err != nil {
				return err
			}
		}
	case json.Delim('['):
		for dec.More() {
			if err := walkJSON(dec); err != nil {
				return err
			}
		}
	default:
		return nil
	}

	// closing delimiter
	_, err = dec.Token()
	return err
}

func decodePython(b []byte) ([]any, error) {
	rewritten, err := pythonToYAML(b)
	if err != nil {
		return nil, err
	}
	return decodeYAML(rewritten)
}

func decodeYAML(b []byte) ([]any, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, err
	}
	v, err := nodeValue(&doc)
	if err != nil {
		return nil, err
	}
	return collection(v)
}

func collection(v any) ([]any, error) {
	switch t := v.(type) {
	case []any:
		return t, nil
	case map[string]any:
		return []any{t}, nil
	default:
		return nil, fmt.Errorf("top-level value is %T, want a list of records or a record", v)
	}
}

// nodeValue converts a YAML node into the same shapes encoding/json produces.
// A plain None scalar is read as null so Python literals decode faithfully.
func nodeValue(n *yaml.Node) (any, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return nodeValue(n.Content[0])
	case yaml.AliasNode:
		return nodeValue(n.Alias)
	case yaml.SequenceNode:
		out := make([]any, 0, len(n.Content))
		for _, c := range n.Content {
			v, err := nodeValue(c)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	case yaml.MappingNode:
		out := make(map[string]any, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			k := n.Content[i]
			if k.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("line %d: mapping key must be a string", k.Line)
			}
			if _, dup := out[k.Value]; dup {
				return nil, fmt.Errorf("line %d: %w %q", k.Line, errDuplicateKey, k.Value)
			}
			v, err := nodeValue(n.Content[i+1])
			if err != nil {
				return nil, err
			}
			out[k.Value] = v
		}
		return out, nil
	case yaml.ScalarNode:
		if n.Style == 0 && n.Value == "None" {
			return nil, nil
		}
		var v any
		if err := n.Decode(&v); err != nil {
			return nil, fmt.Errorf("line %d: %v", n.Line, err)
		}
		return v, nil
	}
	return nil, fmt.Errorf("line %d: unsupported YAML node", n.Line)
}

// Records converts untyped items into typed records. Items are expected to
// have passed validation; type mismatches surface as ErrEncoding.
func Records(items []any) ([]models.Record, error) {
	b, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncoding, err)
	}
	var records []models.Record
	if err := json.Unmarshal(b, &records); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncoding, err)
	}
	for i := range records {
		if records[i].FilesToAnalyze == nil {
			records[i].FilesToAnalyze = []models.FileRef{}
		}
		if records[i].PMDViolations == nil {
			records[i].PMDViolations = models.Violations{}
		}
	}
	return records, nil
}

// Untyped converts typed records back into the untyped form the validator reads
func Untyped(records []models.Record) ([]any, error) {
	b, err := json.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncoding, err)
	}
	items, _, err := decodeJSON(b)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncoding, err)
	}
	return items, nil
}
