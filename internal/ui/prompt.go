package ui

import (
	"fmt"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/ryo246912/gh-pr-code-metrics/internal/models"
)

// RecordLabel renders a record as a fixed-width selection line
func RecordLabel(item RecordItem) string {
	status := "ok"
	switch {
	case item.Errors > 0:
		status = fmt.Sprintf("%d error(s)", item.Errors)
	case item.Warnings > 0:
		status = fmt.Sprintf("%d warning(s)", item.Warnings)
	}
	return fmt.Sprintf(
		"%s %s %s %s",
		PadRight(fmt.Sprintf("[%d]", item.Index), 6),
		PadRight(TruncateLeft(item.Key, 45), 45),
		PadRight(fmt.Sprintf("%d file(s)", item.Files), 12),
		status,
	)
}

func SelectRecord(items []RecordItem) (int, error) {
	if len(items) == 0 {
		return 0, fmt.Errorf("no records to select")
	}

	labels := make([]string, len(items))
	for i, item := range items {
		labels[i] = RecordLabel(item)
	}

	prompt := promptui.Select{
		Label: "Select record",
		Items: labels,
		Size:  12,
		Searcher: func(input string, index int) bool {
			return strings.Contains(strings.ToLower(labels[index]), strings.ToLower(input))
		},
		StartInSearchMode: true,
	}

	idx, _, err := prompt.Run()
	if err != nil {
		return 0, fmt.Errorf("prompt failed: %w", err)
	}
	return items[idx].Index, nil
}

// SelectFile shows analyzed file selection prompt
func SelectFile(files []models.FileRef) (int, error) {
	if len(files) == 0 {
		return 0, fmt.Errorf("record has no analyzed files")
	}

	labels := make([]string, len(files))
	for i, f := range files {
		labels[i] = TruncateLeft(f.FileName, 100)
	}

	prompt := promptui.Select{
		Label: "Select file",
		Items: labels,
		Size:  12,
		Searcher: func(input string, index int) bool {
			return strings.Contains(strings.ToLower(files[index].FileName), strings.ToLower(input))
		},
		StartInSearchMode: true,
	}

	idx, _, err := prompt.Run()
	if err != nil {
		return 0, fmt.Errorf("file selection failed: %w", err)
	}
	return idx, nil
}

// ConfirmOverwrite asks for user confirmation
func ConfirmOverwrite(path string) (bool, error) {
	prompt := promptui.Prompt{
		Label:     fmt.Sprintf("%s exists. Overwrite", path),
		IsConfirm: true,
	}
	_, err := prompt.Run()
	if err == promptui.ErrAbort {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read confirmation: %w", err)
	}
	return true, nil
}
