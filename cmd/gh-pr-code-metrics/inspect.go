package main

import (
	"fmt"

	"github.com/ryo246912/gh-pr-code-metrics/internal/service"
	"github.com/ryo246912/gh-pr-code-metrics/internal/ui"
	"github.com/spf13/cobra"
)

func newInspectCmd(a *app) *cobra.Command {
	var (
		list     bool
		pickFile bool
	)

	cmd := &cobra.Command{
		Use:   "inspect FILE",
		Short: "Pick a record interactively and show its files and problems",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := a.service()
			res, err := svc.CheckFile(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			t := a.terminal(cmd)
			if list {
				return ui.PrintRecords(out, t, service.RecordItems(res))
			}

			sel, err := svc.Inspect(res, pickFile)
			if err != nil {
				return err
			}

			fmt.Fprintf(out, "%s\n", sel.Item.Key)
			if sel.Record != nil {
				report := "none"
				if sel.Record.HasReport() {
					report = *sel.Record.PMDReportPath
				}
				fmt.Fprintf(out, "files: %d  violations: %d  pmd report: %s\n",
					sel.Record.JavaFilesAnalyzedCount, sel.Record.ViolationCount(), report)
				if len(sel.Record.FilesToAnalyze) > 0 {
					if err := ui.PrintFiles(out, t, *sel.Record); err != nil {
						return err
					}
				}
			}
			if len(sel.Problems) > 0 {
				if err := ui.PrintProblems(out, t, sel.Problems); err != nil {
					return err
				}
			}
			if sel.File != nil {
				fmt.Fprintln(out, sel.File.RawURL)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&list, "list", "l", false, "List records without prompting")
	cmd.Flags().BoolVar(&pickFile, "file", false, "Also pick an analyzed file and print its raw URL")

	return cmd
}
