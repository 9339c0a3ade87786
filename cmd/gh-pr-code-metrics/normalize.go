package main

import (
	"fmt"
	"log"

	"github.com/ryo246912/gh-pr-code-metrics/internal/service"
	"github.com/spf13/cobra"
)

func newNormalizeCmd(a *app) *cobra.Command {
	var (
		output    string
		jsonLines bool
		force     bool
	)

	cmd := &cobra.Command{
		Use:   "normalize FILE",
		Short: "Rewrite a valid collection as canonical JSON",
		Long: "Rewrite a valid collection as canonical JSON. Python literal and YAML input " +
			"becomes JSON with every field present and pmd_report_path explicitly null when absent.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := a.service()
			res, err := svc.CheckFile(args[0])
			if err != nil {
				return err
			}
			if err := res.Report.Err(); err != nil {
				return fmt.Errorf("%s is not valid, run validate for details: %w", res.Source, err)
			}

			if output == "" || output == service.StdinSource {
				if err := svc.Normalize(res, cmd.OutOrStdout(), jsonLines); err != nil {
					return err
				}
			} else if err := svc.NormalizeFile(res, output, force, jsonLines); err != nil {
				return err
			}
			log.Printf("normalized %d record(s) from %s", res.Report.Records, res.Source)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to this file instead of stdout")
	cmd.Flags().BoolVar(&jsonLines, "jsonl", false, "Write one JSON object per line")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite the output file without asking")

	return cmd
}
