package validate

import "github.com/ryo246912/gh-pr-code-metrics/internal/github"

// Options tunes the checks applied beyond the required data shape
type Options struct {
	// AllowedHosts lists raw URL hosts; empty allows any host.
	AllowedHosts []string `yaml:"allowed_hosts"`
	RequireHTTPS bool     `yaml:"require_https"`
	// RequireSameRepo requires raw URLs to point into the record's own repository.
	RequireSameRepo bool `yaml:"require_same_repo"`
	// RequireEncodedSeparators requires "/" in file names to appear as %2F in raw URLs.
	RequireEncodedSeparators bool `yaml:"require_encoded_separators"`
	// Strict promotes report-path pairing and duplicate PR warnings to errors.
	Strict bool `yaml:"strict"`
	// CheckReportName warns when pmd_report_path is not named pmd_report_<pr_number>.xml.
	CheckReportName bool `yaml:"check_report_name"`
}

func DefaultOptions() Options {
	return Options{
		AllowedHosts:             []string{github.GitHubHost, github.RawContentHost},
		RequireHTTPS:             true,
		RequireSameRepo:          true,
		RequireEncodedSeparators: true,
		Strict:                   false,
		CheckReportName:          true,
	}
}
