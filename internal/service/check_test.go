package service

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ryo246912/gh-pr-code-metrics/internal/encoding"
	"github.com/ryo246912/gh-pr-code-metrics/internal/github"
	"github.com/ryo246912/gh-pr-code-metrics/internal/models"
	"github.com/ryo246912/gh-pr-code-metrics/internal/ui"
	"github.com/ryo246912/gh-pr-code-metrics/internal/validate"
)

func writeCollection(t *testing.T, records ...models.Record) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "records.json")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer f.Close()
	if err := encoding.WriteJSON(f, records); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func newService(prompter *ui.MockPrompter) *CheckService {
	return NewCheckService(validate.New(), prompter)
}

// TestCheckService_CheckFile tests decoding and validation of collection files
func TestCheckService_CheckFile(t *testing.T) {
	valid := github.CreateTestRecord("apache", "pulsar", 24542, 4)
	mismatched := github.CreateTestRecord("dotCMS", "core", 32609, 2)
	mismatched.JavaFilesAnalyzedCount = 3

	tests := []struct {
		name          string
		path          func(t *testing.T) string
		expectValid   bool
		expectError   bool
		errorContains string
	}{
		{
			name:        "valid collection",
			path:        func(t *testing.T) string { return writeCollection(t, valid) },
			expectValid: true,
		},
		{
			name:        "count mismatch",
			path:        func(t *testing.T) string { return writeCollection(t, valid, mismatched) },
			expectValid: false,
		},
		{
			name:          "missing file",
			path:          func(t *testing.T) string { return filepath.Join(t.TempDir(), "missing.json") },
			expectError:   true,
			errorContains: "failed to open",
		},
		{
			name: "undecodable file",
			path: func(t *testing.T) string {
				path := filepath.Join(t.TempDir(), "broken.json")
				if err := os.WriteFile(path, []byte("[{"), 0o600); err != nil {
					t.Fatal(err)
				}
				return path
			},
			expectError:   true,
			errorContains: "failed to decode",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := newService(&ui.MockPrompter{})

			res, err := service.CheckFile(tt.path(t))

			if tt.expectError {
				if err == nil {
					t.Fatalf("Expected error but got none")
				}
				if !strings.Contains(err.Error(), tt.errorContains) {
					t.Errorf("Error %q should contain %q", err.Error(), tt.errorContains)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if res.Report.Valid() != tt.expectValid {
				t.Errorf("Expected valid=%v, got report:\n%s", tt.expectValid, res.Report)
			}
		})
	}
}

func TestCheckService_Stdin(t *testing.T) {
	input := `[{'owner': 'dotCMS', 'repo': 'core', 'pr_number': 32609, 'java_files_analyzed_count': 0, 'files_to_analyze': [], 'pmd_violations': {}}]`
	service := newService(&ui.MockPrompter{}).WithStdin(strings.NewReader(input))

	res, err := service.CheckFile(StdinSource)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if res.Source != "stdin" {
		t.Errorf("Expected source stdin, got %q", res.Source)
	}
	if res.Document.Format != encoding.FormatPython {
		t.Errorf("Expected python format, got %q", res.Document.Format)
	}
	if !res.Report.Valid() {
		t.Errorf("Expected valid report, got:\n%s", res.Report)
	}
}

func TestRecordItems(t *testing.T) {
	bad := github.CreateTestRecord("apache", "pulsar", 24542, 4)
	bad.JavaFilesAnalyzedCount = 1
	path := writeCollection(t, github.CreateTestRecord("dotCMS", "core", 32609, 0), bad)

	res, err := newService(&ui.MockPrompter{}).CheckFile(path)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	items := RecordItems(res)
	if len(items) != 2 {
		t.Fatalf("Expected 2 items, got %d", len(items))
	}
	if items[0].Key != "dotCMS/core#32609" || items[0].Errors != 0 {
		t.Errorf("Unexpected first item: %+v", items[0])
	}
	if items[1].Key != "apache/pulsar#24542" || items[1].Files != 4 || items[1].Errors != 1 {
		t.Errorf("Unexpected second item: %+v", items[1])
	}
}

// TestCheckService_Inspect tests record and file selection
func TestCheckService_Inspect(t *testing.T) {
	pulsar := github.CreateTestRecord("apache", "pulsar", 24542, 4)
	path := writeCollection(t, github.CreateTestRecord("dotCMS", "core", 32609, 0), pulsar)

	tests := []struct {
		name          string
		prompter      *ui.MockPrompter
		pickFile      bool
		expectIndex   int
		expectFile    string
		expectError   bool
		errorContains string
	}{
		{
			name:        "select record only",
			prompter:    &ui.MockPrompter{SelectedRecord: 0},
			expectIndex: 0,
		},
		{
			name:        "select record and file",
			prompter:    &ui.MockPrompter{SelectedRecord: 1, SelectedFile: 2},
			pickFile:    true,
			expectIndex: 1,
			expectFile:  pulsar.FilesToAnalyze[2].FileName,
		},
		{
			name:        "record without files skips file prompt",
			prompter:    &ui.MockPrompter{SelectedRecord: 0},
			pickFile:    true,
			expectIndex: 0,
		},
		{
			name:          "prompt error",
			prompter:      &ui.MockPrompter{RecordSelectionError: errors.New("^C")},
			expectError:   true,
			errorContains: "failed to select record",
		},
		{
			name:          "out of range file",
			prompter:      &ui.MockPrompter{SelectedRecord: 1, SelectedFile: 9},
			pickFile:      true,
			expectError:   true,
			errorContains: "invalid file index",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := newService(tt.prompter)
			res, err := service.CheckFile(path)
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}

			sel, err := service.Inspect(res, tt.pickFile)

			if tt.expectError {
				if err == nil {
					t.Fatalf("Expected error but got none")
				}
				if !strings.Contains(err.Error(), tt.errorContains) {
					t.Errorf("Error %q should contain %q", err.Error(), tt.errorContains)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if !tt.prompter.SelectRecordCalled {
				t.Errorf("Expected SelectRecord to be called")
			}
			if sel.Index != tt.expectIndex {
				t.Errorf("Expected index %d, got %d", tt.expectIndex, sel.Index)
			}
			if sel.Record == nil {
				t.Fatalf("Expected typed record")
			}
			if tt.expectFile == "" {
				if sel.File != nil {
					t.Errorf("Expected no file, got %+v", sel.File)
				}
				if len(sel.Record.FilesToAnalyze) == 0 && tt.prompter.SelectFileCalled {
					t.Errorf("SelectFile should not be called for a record without files")
				}
				return
			}
			if sel.File == nil || sel.File.FileName != tt.expectFile {
				t.Errorf("Expected file %q, got %+v", tt.expectFile, sel.File)
			}
		})
	}
}

func TestCheckService_InspectUntypedRecord(t *testing.T) {
	input := `[{"owner": "apache", "repo": "pulsar", "pr_number": "oops", "java_files_analyzed_count": 0, "files_to_analyze": [], "pmd_violations": {}}]`
	prompter := &ui.MockPrompter{SelectedRecord: 0}
	service := newService(prompter)

	res, err := service.Check("inline", strings.NewReader(input))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	sel, err := service.Inspect(res, true)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if sel.Record != nil {
		t.Errorf("Expected no typed record, got %+v", sel.Record)
	}
	if len(sel.Problems) != 1 || sel.Problems[0].Field != "pr_number" {
		t.Errorf("Unexpected problems: %v", sel.Problems)
	}
}

func TestCheckService_Normalize(t *testing.T) {
	valid := writeCollection(t, github.CreateTestRecord("dotCMS", "core", 32609, 0), github.CreateTestRecord("apache", "pulsar", 24542, 1))

	t.Run("json lines", func(t *testing.T) {
		service := newService(&ui.MockPrompter{})
		res, err := service.CheckFile(valid)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}

		var buf bytes.Buffer
		if err := service.Normalize(res, &buf, true); err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		if len(lines) != 2 {
			t.Fatalf("Expected 2 lines, got %d: %q", len(lines), buf.String())
		}
		if !strings.Contains(lines[0], `"pmd_report_path":null`) {
			t.Errorf("Expected explicit null report path, got %s", lines[0])
		}
	})

	t.Run("invalid collection is refused", func(t *testing.T) {
		bad := github.CreateTestRecord("apache", "pulsar", 24542, 2)
		bad.JavaFilesAnalyzedCount = 0
		service := newService(&ui.MockPrompter{})
		res, err := service.CheckFile(writeCollection(t, bad))
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}

		err = service.Normalize(res, &bytes.Buffer{}, false)
		if !errors.Is(err, validate.ErrValidation) {
			t.Errorf("Expected ErrValidation, got %v", err)
		}
	})
}

// TestCheckService_CreateOutput tests the overwrite confirmation flow
func TestCheckService_CreateOutput(t *testing.T) {
	tests := []struct {
		name          string
		exists        bool
		force         bool
		prompter      *ui.MockPrompter
		expectPrompt  bool
		expectErr     error
		errorContains string
	}{
		{name: "new file", prompter: &ui.MockPrompter{}},
		{name: "existing file confirmed", exists: true, prompter: &ui.MockPrompter{ConfirmedOverwrite: true}, expectPrompt: true},
		{name: "existing file declined", exists: true, prompter: &ui.MockPrompter{}, expectPrompt: true, expectErr: ErrCancelled},
		{name: "existing file forced", exists: true, force: true, prompter: &ui.MockPrompter{}},
		{
			name:          "confirmation error",
			exists:        true,
			prompter:      &ui.MockPrompter{OverwriteConfirmError: errors.New("no tty")},
			expectPrompt:  true,
			errorContains: "failed to confirm overwrite",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "out.json")
			if tt.exists {
				if err := os.WriteFile(path, []byte("[]"), 0o600); err != nil {
					t.Fatal(err)
				}
			}

			f, err := newService(tt.prompter).CreateOutput(path, tt.force)
			if f != nil {
				f.Close()
			}

			if tt.prompter.ConfirmOverwriteCalled != tt.expectPrompt {
				t.Errorf("Expected ConfirmOverwrite called=%v", tt.expectPrompt)
			}
			switch {
			case tt.expectErr != nil:
				if !errors.Is(err, tt.expectErr) {
					t.Errorf("Expected %v, got %v", tt.expectErr, err)
				}
			case tt.errorContains != "":
				if err == nil || !strings.Contains(err.Error(), tt.errorContains) {
					t.Errorf("Error %v should contain %q", err, tt.errorContains)
				}
			case err != nil:
				t.Errorf("Unexpected error: %v", err)
			}
		})
	}
}

// TestCheckService_NormalizeRoundTrip tests that canonical output validates
// again and normalizes to the same bytes
func TestCheckService_NormalizeRoundTrip(t *testing.T) {
	record := github.CreateTestRecord("apache", "pulsar", 24542, 2)
	name := record.FilesToAnalyze[0].FileName
	record.PMDViolations = models.Violations{
		name: {
			{RuleID: "EmptyCatchBlock", Severity: 3, Line: 40, EndLine: 42, Message: "Avoid empty catch blocks"},
			{RuleID: "UnusedPrivateField", Severity: 3, Line: 12, Message: "Avoid unused private fields"},
		},
	}
	service := newService(&ui.MockPrompter{})

	res, err := service.CheckFile(writeCollection(t, record))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !res.Report.Valid() {
		t.Fatalf("Expected valid report, got:\n%s", res.Report)
	}

	var first bytes.Buffer
	if err := service.Normalize(res, &first, false); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	again, err := service.Check("normalized", bytes.NewReader(first.Bytes()))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !again.Report.Valid() || len(again.Report.Problems) != 0 {
		t.Fatalf("Expected normalized output to validate cleanly, got:\n%s", again.Report)
	}

	var second bytes.Buffer
	if err := service.Normalize(again, &second, false); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if first.String() != second.String() {
		t.Errorf("Normalize is not stable:\n%s\n---\n%s", first.String(), second.String())
	}
}

// TestCheckService_NormalizeIncompleteViolation tests that a violation without
// severity or message is refused instead of being written with zero values
func TestCheckService_NormalizeIncompleteViolation(t *testing.T) {
	record := github.CreateTestRecord("apache", "pulsar", 24542, 1)
	name := record.FilesToAnalyze[0].FileName
	items, err := encoding.Untyped([]models.Record{record})
	if err != nil {
		t.Fatal(err)
	}
	items[0].(map[string]any)["pmd_violations"] = map[string]any{
		name: []any{map[string]any{"rule_id": "EmptyCatchBlock", "line": 40, "end_line": 42}},
	}
	raw, err := json.Marshal(items)
	if err != nil {
		t.Fatal(err)
	}

	service := newService(&ui.MockPrompter{})
	res, err := service.Check("incomplete", bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	fields := res.Report.Fields(0)
	want := []string{
		`pmd_violations["` + name + `"][0].message`,
		`pmd_violations["` + name + `"][0].severity`,
	}
	if strings.Join(fields, ",") != strings.Join(want, ",") {
		t.Errorf("Fields(0) = %v, want %v", fields, want)
	}

	if err := service.Normalize(res, &bytes.Buffer{}, false); !errors.Is(err, validate.ErrValidation) {
		t.Errorf("Expected ErrValidation, got %v", err)
	}
}

// TestCheckService_NormalizeFile tests that output files are only touched
// once the collection has been rendered
func TestCheckService_NormalizeFile(t *testing.T) {
	valid := github.CreateTestRecord("apache", "pulsar", 24542, 1)
	invalid := github.CreateTestRecord("apache", "pulsar", 24542, 2)
	invalid.JavaFilesAnalyzedCount = 1

	tests := []struct {
		name        string
		record      models.Record
		force       bool
		prompter    *ui.MockPrompter
		expectError bool
		expectKept  bool
	}{
		{name: "forced overwrite", record: valid, force: true, prompter: &ui.MockPrompter{}},
		{name: "confirmed overwrite", record: valid, prompter: &ui.MockPrompter{ConfirmedOverwrite: true}},
		{name: "declined overwrite", record: valid, prompter: &ui.MockPrompter{}, expectError: true, expectKept: true},
		{name: "invalid collection", record: invalid, force: true, prompter: &ui.MockPrompter{ConfirmedOverwrite: true}, expectError: true, expectKept: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "out.json")
			if err := os.WriteFile(path, []byte("keep"), 0o600); err != nil {
				t.Fatal(err)
			}

			service := newService(tt.prompter)
			res, err := service.CheckFile(writeCollection(t, tt.record))
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}

			err = service.NormalizeFile(res, path, tt.force, false)
			if tt.expectError && err == nil {
				t.Error("Expected error but got nil")
			}
			if !tt.expectError && err != nil {
				t.Errorf("Unexpected error: %v", err)
			}

			content, err := os.ReadFile(path)
			if err != nil {
				t.Fatal(err)
			}
			if kept := string(content) == "keep"; kept != tt.expectKept {
				t.Errorf("Expected file kept=%v, got content %q", tt.expectKept, content)
			}
			if !tt.expectKept && !strings.Contains(string(content), `"pr_number": 24542`) {
				t.Errorf("Expected normalized JSON, got %q", content)
			}
		})
	}
}
