package models

import "fmt"

// Record represents the code-quality metrics collected for one pull request
type Record struct {
	Owner                  string     `json:"owner" yaml:"owner"`
	Repo                   string     `json:"repo" yaml:"repo"`
	PRNumber               int        `json:"pr_number" yaml:"pr_number"`
	JavaFilesAnalyzedCount int        `json:"java_files_analyzed_count" yaml:"java_files_analyzed_count"`
	FilesToAnalyze         []FileRef  `json:"files_to_analyze" yaml:"files_to_analyze"`
	PMDViolations          Violations `json:"pmd_violations" yaml:"pmd_violations"`
	// PMDReportPath is nil when no PMD report was produced for the PR.
	PMDReportPath *string `json:"pmd_report_path" yaml:"pmd_report_path"`
}

// FileRef represents one analyzed source file and where to fetch it
type FileRef struct {
	FileName string `json:"file_name" yaml:"file_name"`
	RawURL   string `json:"raw_url" yaml:"raw_url"`
}

// Violations maps a repository-relative file path to its PMD violations, in report order
type Violations map[string][]Violation

// Violation represents a single PMD rule violation
type Violation struct {
	RuleID string `json:"rule_id" yaml:"rule_id"`
	// Severity is the PMD priority, 1 (highest) to 5.
	Severity int    `json:"severity" yaml:"severity"`
	Line     int    `json:"line" yaml:"line"`
	EndLine  int    `json:"end_line,omitempty" yaml:"end_line,omitempty"`
	Message  string `json:"message" yaml:"message"`
}

// Key identifies the pull request as OWNER/REPO#NUMBER
func (r Record) Key() string {
	return fmt.Sprintf("%s/%s#%d", r.Owner, r.Repo, r.PRNumber)
}

// HasReport reports whether a PMD report path is attached
func (r Record) HasReport() bool {
	return r.PMDReportPath != nil && *r.PMDReportPath != ""
}

// FileNames returns the analyzed file names in order
func (r Record) FileNames() []string {
	names := make([]string, 0, len(r.FilesToAnalyze))
	for _, f := range r.FilesToAnalyze {
		names = append(names, f.FileName)
	}
	return names
}

// ViolationCount returns the total number of violations across all files
func (r Record) ViolationCount() int {
	return r.PMDViolations.Count()
}

// Count returns the total number of violations
func (v Violations) Count() int {
	n := 0
	for _, list := range v {
		n += len(list)
	}
	return n
}
