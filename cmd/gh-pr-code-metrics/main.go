package main

import (
	"io"
	"log"
	"os"

	"github.com/ryo246912/gh-pr-code-metrics/internal/config"
	"github.com/ryo246912/gh-pr-code-metrics/internal/service"
	"github.com/ryo246912/gh-pr-code-metrics/internal/ui"
	"github.com/ryo246912/gh-pr-code-metrics/internal/validate"
	"github.com/spf13/cobra"
)

var version = "dev"

// CLIConfig holds what the commands need from the outside world
type CLIConfig struct {
	Version  string
	Stdin    io.Reader
	Prompter ui.Prompter
	// Terminal describes stdout; tests render as if piped.
	Terminal func() ui.Terminal
	EnvFiles []string
}

type app struct {
	cli        CLIConfig
	settings   config.Config
	configPath string
	verbose    bool
}

func (a *app) service() *service.CheckService {
	validator := validate.NewValidator(a.settings.Validate)
	return service.NewCheckService(validator, a.cli.Prompter).WithStdin(a.cli.Stdin)
}

func (a *app) terminal(cmd *cobra.Command) ui.Terminal {
	if a.cli.Terminal == nil || cmd.OutOrStdout() != os.Stdout {
		return ui.Terminal{}
	}
	return a.cli.Terminal()
}

func NewRootCommand(cli CLIConfig) *cobra.Command {
	a := &app{cli: cli}

	cmd := &cobra.Command{
		Use:   "pr-code-metrics",
		Short: "Validate, inspect and normalize PR code-metrics record collections",
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			log.SetFlags(0)
			log.SetPrefix("debug: ")
			log.SetOutput(io.Discard)
			if a.verbose {
				log.SetOutput(cmd.ErrOrStderr())
			}

			settings, err := config.Load(a.configPath, cli.EnvFiles...)
			if err != nil {
				return err
			}
			a.settings = settings
			log.Printf("configuration loaded: strict=%v format=%s", settings.Validate.Strict, settings.Format)
			return nil
		},
		SilenceUsage: true,
	}

	cmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Verbose debug output")
	cmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "YAML configuration file (default $"+config.EnvConfigPath+")")

	cmd.AddCommand(newValidateCmd(a))
	cmd.AddCommand(newInspectCmd(a))
	cmd.AddCommand(newNormalizeCmd(a))
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newVersionCmd(cli.Version))

	return cmd
}

func main() {
	cmd := NewRootCommand(CLIConfig{
		Version:  version,
		Stdin:    os.Stdin,
		Prompter: &ui.DefaultPrompter{},
		Terminal: ui.DetectTerminal,
	})

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
