package ui

import "github.com/ryo246912/gh-pr-code-metrics/internal/models"

// RecordItem summarizes one record of a collection for selection
type RecordItem struct {
	Index    int
	Key      string
	Files    int
	Errors   int
	Warnings int
}

// Prompter defines interface for user interaction
type Prompter interface {
	SelectRecord(items []RecordItem) (int, error)
	SelectFile(files []models.FileRef) (int, error)
	ConfirmOverwrite(path string) (bool, error)
}

// DefaultPrompter implements the actual prompting logic
type DefaultPrompter struct{}

// SelectRecord prompts user to select a record
func (p *DefaultPrompter) SelectRecord(items []RecordItem) (int, error) {
	return SelectRecord(items)
}

// SelectFile prompts user to select an analyzed file
func (p *DefaultPrompter) SelectFile(files []models.FileRef) (int, error) {
	return SelectFile(files)
}

// ConfirmOverwrite asks before replacing an existing file
func (p *DefaultPrompter) ConfirmOverwrite(path string) (bool, error) {
	return ConfirmOverwrite(path)
}

// MockPrompter for testing
type MockPrompter struct {
	SelectedRecord        int
	RecordSelectionError  error
	SelectedFile          int
	FileSelectionError    error
	ConfirmedOverwrite    bool
	OverwriteConfirmError error

	// Call tracking
	SelectRecordCalled     bool
	SelectFileCalled       bool
	ConfirmOverwriteCalled bool
	LastRecordItems        []RecordItem
	LastFiles              []models.FileRef
}

// SelectRecord mocks record selection
func (m *MockPrompter) SelectRecord(items []RecordItem) (int, error) {
	m.SelectRecordCalled = true
	m.LastRecordItems = items
	return m.SelectedRecord, m.RecordSelectionError
}

// SelectFile mocks file selection
func (m *MockPrompter) SelectFile(files []models.FileRef) (int, error) {
	m.SelectFileCalled = true
	m.LastFiles = files
	return m.SelectedFile, m.FileSelectionError
}

// ConfirmOverwrite mocks confirmation
func (m *MockPrompter) ConfirmOverwrite(path string) (bool, error) {
	m.ConfirmOverwriteCalled = true
	return m.ConfirmedOverwrite, m.OverwriteConfirmError
}
