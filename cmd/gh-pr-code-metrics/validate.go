package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log"

	"github.com/dustin/go-humanize"
	"github.com/dustin/go-humanize/english"
	"github.com/ryo246912/gh-pr-code-metrics/internal/encoding"
	"github.com/ryo246912/gh-pr-code-metrics/internal/service"
	"github.com/ryo246912/gh-pr-code-metrics/internal/ui"
	"github.com/ryo246912/gh-pr-code-metrics/internal/validate"
	"github.com/spf13/cobra"
)

type collectionResult struct {
	Source string           `json:"source" yaml:"source"`
	Format encoding.Format  `json:"format,omitempty" yaml:"format,omitempty"`
	Valid  bool             `json:"valid" yaml:"valid"`
	Report *validate.Report `json:"report,omitempty" yaml:"report,omitempty"`
	// Error is set when the source could not be read or decoded.
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
}

func newValidateCmd(a *app) *cobra.Command {
	var (
		format string
		strict bool
		audit  bool
	)

	cmd := &cobra.Command{
		Use:   "validate [FILE|-]...",
		Short: "Validate record collections and report every problem found",
		Example: "  gh pr-code-metrics validate pr_code_metrics_filtered_accepted.ts\n" +
			"  cat records.jsonl | gh pr-code-metrics validate --format json -",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("strict") {
				a.settings.Validate.Strict = strict
			}
			if !cmd.Flags().Changed("format") {
				format = a.settings.Format
			}
			switch format {
			case "table", "json", "yaml":
			default:
				return fmt.Errorf("unknown format %q, want table, json or yaml", format)
			}

			svc := a.service()
			results := make([]collectionResult, 0, len(args))
			failed := 0
			for _, path := range args {
				res, err := svc.CheckFile(path)
				if err != nil {
					failed++
					log.Printf("skipping %s: %v", path, err)
					if format == "table" {
						fmt.Fprintf(cmd.OutOrStdout(), "%s: %v\n", path, err)
					}
					results = append(results, collectionResult{Source: path, Error: err.Error()})
					continue
				}
				valid := res.Report.Valid()
				if !valid {
					failed++
				}
				if format == "table" {
					if err := printResult(cmd.OutOrStdout(), a.terminal(cmd), res); err != nil {
						return err
					}
				}
				results = append(results, collectionResult{
					Source: res.Source,
					Format: res.Document.Format,
					Valid:  valid,
					Report: res.Report,
				})
			}

			switch format {
			case "table":
			case "json":
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if err := enc.Encode(results); err != nil {
					return err
				}
			case "yaml":
				if err := encoding.WriteYAML(cmd.OutOrStdout(), results); err != nil {
					return err
				}
			}

			if failed == 0 || audit {
				return nil
			}
			return fmt.Errorf("%w: %s of %s failed", validate.ErrValidation,
				english.Plural(failed, "collection", ""), humanize.Comma(int64(len(args))))
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "table", "Output format: table, json or yaml")
	cmd.Flags().BoolVar(&strict, "strict", false, "Treat report path pairing and duplicate pull requests as errors")
	cmd.Flags().BoolVar(&audit, "audit", false, "Exit w/ Code 0 even if validation fails")

	return cmd
}

func printResult(w io.Writer, t ui.Terminal, res *service.Result) error {
	report := res.Report
	fmt.Fprintf(w, "%s (%s, %s): %s, %s\n",
		res.Source,
		res.Document.Format,
		humanize.Bytes(uint64(res.Document.Size)),
		english.Plural(report.Records, "record", ""),
		english.Plural(report.Files, "file", ""),
	)

	if len(report.Problems) > 0 {
		if err := ui.PrintProblems(w, t, report.Problems); err != nil {
			return err
		}
	}

	status := "valid"
	if !report.Valid() {
		status = "invalid"
	}
	_, err := fmt.Fprintf(w, "%s: %s, %s\n",
		status,
		english.Plural(len(report.Errors()), "error", ""),
		english.Plural(len(report.Warnings()), "warning", ""),
	)
	return err
}
