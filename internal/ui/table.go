package ui

import (
	"fmt"
	"io"
	"strconv"

	"github.com/cli/go-gh/v2/pkg/tableprinter"
	"github.com/cli/go-gh/v2/pkg/term"
	"github.com/ryo246912/gh-pr-code-metrics/internal/models"
	"github.com/ryo246912/gh-pr-code-metrics/internal/validate"
)

const defaultWidth = 120

// Terminal describes where tables are rendered
type Terminal struct {
	IsTTY bool
	Width int
}

// DetectTerminal inspects stdout; tables written elsewhere should use Terminal{}
func DetectTerminal() Terminal {
	t := term.FromEnv()
	if !t.IsTerminalOutput() {
		return Terminal{Width: defaultWidth}
	}
	width, _, err := t.Size()
	if err != nil || width <= 0 {
		width = defaultWidth
	}
	return Terminal{IsTTY: true, Width: width}
}

func (t Terminal) newTable(w io.Writer) tableprinter.TablePrinter {
	width := t.Width
	if width <= 0 {
		width = defaultWidth
	}
	return tableprinter.New(w, t.IsTTY, width)
}

// addHeader follows gh: piped output carries rows only
func (t Terminal) addHeader(tp tableprinter.TablePrinter, columns ...string) {
	if t.IsTTY {
		tp.AddHeader(columns)
	}
}

// PrintProblems renders one row per problem
func PrintProblems(w io.Writer, t Terminal, problems []validate.Problem) error {
	tp := t.newTable(w)
	t.addHeader(tp, "RECORD", "SEVERITY", "KIND", "FIELD", "MESSAGE")
	for _, p := range problems {
		record := strconv.Itoa(p.Record)
		if p.Record == validate.CollectionLevel {
			record = "-"
		}
		tp.AddField(record)
		tp.AddField(string(p.Severity))
		tp.AddField(string(p.Kind))
		tp.AddField(p.Field)
		tp.AddField(p.Message)
		tp.EndRow()
	}
	return tp.Render()
}

// PrintRecords renders the selection summary of a collection
func PrintRecords(w io.Writer, t Terminal, items []RecordItem) error {
	tp := t.newTable(w)
	t.addHeader(tp, "RECORD", "PULL REQUEST", "FILES", "ERRORS", "WARNINGS")
	for _, item := range items {
		tp.AddField(strconv.Itoa(item.Index))
		tp.AddField(item.Key)
		tp.AddField(strconv.Itoa(item.Files))
		tp.AddField(strconv.Itoa(item.Errors))
		tp.AddField(strconv.Itoa(item.Warnings))
		tp.EndRow()
	}
	return tp.Render()
}

// PrintFiles renders the analyzed files of a record with their violation counts
func PrintFiles(w io.Writer, t Terminal, record models.Record) error {
	tp := t.newTable(w)
	t.addHeader(tp, "FILE", "VIOLATIONS", "RAW URL")
	for _, f := range record.FilesToAnalyze {
		tp.AddField(f.FileName, tableprinter.WithTruncate(func(width int, s string) string {
			return TruncateLeft(s, width)
		}))
		tp.AddField(fmt.Sprintf("%d", len(record.PMDViolations[f.FileName])))
		tp.AddField(f.RawURL)
		tp.EndRow()
	}
	return tp.Render()
}
