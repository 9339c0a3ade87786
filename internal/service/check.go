package service

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/ryo246912/gh-pr-code-metrics/internal/encoding"
	"github.com/ryo246912/gh-pr-code-metrics/internal/models"
	"github.com/ryo246912/gh-pr-code-metrics/internal/ui"
	"github.com/ryo246912/gh-pr-code-metrics/internal/validate"
)

// StdinSource names standard input on the command line
const StdinSource = "-"

var ErrCancelled = errors.New("cancelled by user")

// RecordValidator checks an untyped record collection
type RecordValidator interface {
	Validate(items []any) *validate.Report
}

// Ensure validate.Validator implements RecordValidator interface
var _ RecordValidator = (*validate.Validator)(nil)

// CheckService contains the business logic
type CheckService struct {
	validator RecordValidator
	prompter  ui.Prompter
	stdin     io.Reader
}

// NewCheckService creates a new service instance
func NewCheckService(validator RecordValidator, prompter ui.Prompter) *CheckService {
	return &CheckService{
		validator: validator,
		prompter:  prompter,
		stdin:     os.Stdin,
	}
}

// WithStdin replaces the reader used for the "-" source
func (s *CheckService) WithStdin(r io.Reader) *CheckService {
	s.stdin = r
	return s
}

// Result is a decoded collection and its validation report
type Result struct {
	Source   string
	Document *encoding.Document
	Report   *validate.Report
}

// CheckFile opens path ("-" for stdin) and checks its contents
func (s *CheckService) CheckFile(path string) (*Result, error) {
	if path == StdinSource {
		return s.Check("stdin", s.stdin)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	return s.Check(path, f)
}

// Check decodes and validates one collection
func (s *CheckService) Check(source string, r io.Reader) (*Result, error) {
	doc, err := encoding.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", source, err)
	}
	log.Printf("decoded %d record(s) from %s as %s", len(doc.Items), source, doc.Format)

	report := s.validator.Validate(doc.Items)
	log.Printf("%s: %d error(s), %d warning(s)", source, len(report.Errors()), len(report.Warnings()))

	return &Result{Source: source, Document: doc, Report: report}, nil
}

// Records converts a valid collection into typed records
func (s *CheckService) Records(res *Result) ([]models.Record, error) {
	if err := res.Report.Err(); err != nil {
		return nil, fmt.Errorf("cannot convert %s: %w", res.Source, err)
	}
	return encoding.Records(res.Document.Items)
}

// RecordItems summarizes every record of the result for listing and selection
func RecordItems(res *Result) []ui.RecordItem {
	items := make([]ui.RecordItem, len(res.Document.Items))
	for i, raw := range res.Document.Items {
		item := ui.RecordItem{Index: i, Key: fmt.Sprintf("record %d", i)}
		if m, ok := raw.(map[string]any); ok {
			if owner, ok := m["owner"].(string); ok {
				if repo, ok := m["repo"].(string); ok {
					item.Key = fmt.Sprintf("%s/%s#%v", owner, repo, m["pr_number"])
				}
			}
			if files, ok := m["files_to_analyze"].([]any); ok {
				item.Files = len(files)
			}
		}
		for _, p := range res.Report.ForRecord(i) {
			if p.Severity == validate.SeverityError {
				item.Errors++
			} else {
				item.Warnings++
			}
		}
		items[i] = item
	}
	return items
}

// Selection is what the user picked while inspecting a collection
type Selection struct {
	Index    int
	Item     ui.RecordItem
	Problems []validate.Problem
	// Record is set only when the selected record could be typed.
	Record *models.Record
	File   *models.FileRef
}

// Inspect lets the user pick a record and, when pickFile is set, one of its files
func (s *CheckService) Inspect(res *Result, pickFile bool) (*Selection, error) {
	items := RecordItems(res)
	if len(items) == 0 {
		return nil, fmt.Errorf("%s contains no records", res.Source)
	}

	idx, err := s.prompter.SelectRecord(items)
	if err != nil {
		return nil, fmt.Errorf("failed to select record: %w", err)
	}
	if idx < 0 || idx >= len(items) {
		return nil, fmt.Errorf("invalid record index %d", idx)
	}

	sel := &Selection{Index: idx, Item: items[idx], Problems: res.Report.ForRecord(idx)}

	records, err := encoding.Records([]any{res.Document.Items[idx]})
	if err != nil {
		log.Printf("record %d cannot be typed: %v", idx, err)
		return sel, nil
	}
	sel.Record = &records[0]

	if !pickFile || len(sel.Record.FilesToAnalyze) == 0 {
		return sel, nil
	}

	fileIdx, err := s.prompter.SelectFile(sel.Record.FilesToAnalyze)
	if err != nil {
		return nil, fmt.Errorf("failed to select file: %w", err)
	}
	if fileIdx < 0 || fileIdx >= len(sel.Record.FilesToAnalyze) {
		return nil, fmt.Errorf("invalid file index %d", fileIdx)
	}
	sel.File = &sel.Record.FilesToAnalyze[fileIdx]
	return sel, nil
}

// Normalize writes a valid collection as canonical JSON or JSON Lines
func (s *CheckService) Normalize(res *Result, w io.Writer, jsonLines bool) error {
	records, err := s.Records(res)
	if err != nil {
		return err
	}
	if jsonLines {
		return encoding.WriteJSONLines(w, records)
	}
	return encoding.WriteJSON(w, records)
}

// NormalizeFile renders res before touching path, so a failure leaves an
// existing file intact
func (s *CheckService) NormalizeFile(res *Result, path string, force, jsonLines bool) (err error) {
	var buf bytes.Buffer
	if err := s.Normalize(res, &buf, jsonLines); err != nil {
		return err
	}

	f, err := s.CreateOutput(path, force)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close %s: %w", path, cerr)
		}
	}()

	if _, err := buf.WriteTo(f); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// CreateOutput creates path for writing, asking before replacing an existing
// file unless force is set
func (s *CheckService) CreateOutput(path string, force bool) (*os.File, error) {
	if _, err := os.Stat(path); err == nil && !force {
		confirmed, err := s.prompter.ConfirmOverwrite(path)
		if err != nil {
			return nil, fmt.Errorf("failed to confirm overwrite: %w", err)
		}
		if !confirmed {
			return nil, ErrCancelled
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", path, err)
	}
	return f, nil
}
