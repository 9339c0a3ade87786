// Package validate checks PR code-metrics records against their data-shape
// contract and collects every problem instead of stopping at the first one.
package validate

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/ryo246912/gh-pr-code-metrics/internal/encoding"
	"github.com/ryo246912/gh-pr-code-metrics/internal/github"
	"github.com/ryo246912/gh-pr-code-metrics/internal/models"
)

const (
	fieldOwner      = "owner"
	fieldRepo       = "repo"
	fieldPRNumber   = "pr_number"
	fieldCount      = "java_files_analyzed_count"
	fieldFiles      = "files_to_analyze"
	fieldViolations = "pmd_violations"
	fieldReportPath = "pmd_report_path"
	fieldFileName   = "file_name"
	fieldRawURL     = "raw_url"
)

// Validator checks untyped records. It holds no state between calls.
type Validator struct {
	opts Options
}

func NewValidator(opts Options) *Validator {
	return &Validator{opts: opts}
}

// New returns a Validator with DefaultOptions
func New() *Validator {
	return NewValidator(DefaultOptions())
}

func (v *Validator) Options() Options {
	return v.opts
}

// Validate checks every record of a collection and the uniqueness of
// (owner, repo, pr_number) across it
func (v *Validator) Validate(items []any) *Report {
	report := &Report{Records: len(items), Problems: []Problem{}}
	seen := make(map[string]int)

	if len(items) == 0 {
		report.Problems = append(report.Problems, Problem{
			Record:   CollectionLevel,
			Kind:     KindConsistency,
			Severity: SeverityWarning,
			Message:  "collection contains no records",
		})
	}

	for i, item := range items {
		c := &checker{opts: v.opts, index: i}
		c.record(item)

		if m, ok := item.(map[string]any); ok {
			if files, ok := m[fieldFiles].([]any); ok {
				report.Files += len(files)
			}
			if key, ok := recordKey(m); ok {
				if first, dup := seen[key]; dup {
					c.escalate(KindConsistency, fieldPRNumber, "duplicates record %d (%s)", first, key)
				} else {
					seen[key] = i
				}
			}
		}

		report.Problems = append(report.Problems, c.problems...)
	}
	return report
}

// ValidateRecord checks a single record; index only labels the problems
func (v *Validator) ValidateRecord(index int, item any) []Problem {
	c := &checker{opts: v.opts, index: index}
	c.record(item)
	return c.problems
}

// ValidateRecords checks typed records through the same rules as untyped input
func (v *Validator) ValidateRecords(records []models.Record) (*Report, error) {
	items, err := encoding.Untyped(records)
	if err != nil {
		return nil, err
	}
	return v.Validate(items), nil
}

func recordKey(m map[string]any) (string, bool) {
	owner, ok1 := m[fieldOwner].(string)
	repo, ok2 := m[fieldRepo].(string)
	pr, ok3 := asInt(m[fieldPRNumber])
	if !ok1 || !ok2 || !ok3 || owner == "" || repo == "" {
		return "", false
	}
	return fmt.Sprintf("%s/%s#%d", strings.ToLower(owner), strings.ToLower(repo), pr), true
}

type repoRef struct {
	owner, name string
}

func (r repoRef) GetOwner() string { return r.owner }
func (r repoRef) GetName() string  { return r.name }

type checker struct {
	opts     Options
	index    int
	problems []Problem
}

func (c *checker) add(kind Kind, severity Severity, field, format string, args ...any) {
	c.problems = append(c.problems, Problem{
		Record:   c.index,
		Field:    field,
		Kind:     kind,
		Severity: severity,
		Message:  fmt.Sprintf(format, args...),
	})
}

func (c *checker) errorf(kind Kind, field, format string, args ...any) {
	c.add(kind, SeverityError, field, format, args...)
}

func (c *checker) warnf(kind Kind, field, format string, args ...any) {
	c.add(kind, SeverityWarning, field, format, args...)
}

// escalate records an error in strict mode and a warning otherwise
func (c *checker) escalate(kind Kind, field, format string, args ...any) {
	if c.opts.Strict {
		c.errorf(kind, field, format, args...)
		return
	}
	c.warnf(kind, field, format, args...)
}

func (c *checker) requiredString(m map[string]any, key, field string) (string, bool) {
	raw, ok := m[key]
	if !ok {
		c.errorf(KindShape, field, "required field missing")
		return "", false
	}
	s, ok := raw.(string)
	if !ok {
		c.errorf(KindShape, field, "must be a string, got %s", typeName(raw))
		return "", false
	}
	return s, true
}

func (c *checker) requiredInt(m map[string]any, key, field string) (int, bool) {
	raw, ok := m[key]
	if !ok {
		c.errorf(KindShape, field, "required field missing")
		return 0, false
	}
	n, ok := asInt(raw)
	if !ok {
		c.errorf(KindShape, field, "must be an integer, got %s", typeName(raw))
		return 0, false
	}
	if n < 0 {
		c.errorf(KindShape, field, "must be non-negative, got %d", n)
		return 0, false
	}
	return n, true
}

func (c *checker) record(item any) {
	m, ok := item.(map[string]any)
	if !ok {
		c.errorf(KindShape, "", "record must be a mapping, got %s", typeName(item))
		return
	}

	owner, ownerOK := c.requiredString(m, fieldOwner, fieldOwner)
	if ownerOK && strings.TrimSpace(owner) == "" {
		c.errorf(KindShape, fieldOwner, "must not be empty")
		ownerOK = false
	}
	repo, repoOK := c.requiredString(m, fieldRepo, fieldRepo)
	if repoOK && strings.TrimSpace(repo) == "" {
		c.errorf(KindShape, fieldRepo, "must not be empty")
		repoOK = false
	}
	if ownerOK && repoOK {
		if _, err := github.ParseRepository(owner, repo, github.GitHubHost); err != nil {
			field := fieldRepo
			if strings.Contains(owner, "/") {
				field = fieldOwner
			}
			c.errorf(KindShape, field, "%v", err)
			ownerOK, repoOK = false, false
		}
	}

	pr, prOK := c.requiredInt(m, fieldPRNumber, fieldPRNumber)
	count, countOK := c.requiredInt(m, fieldCount, fieldCount)

	var repository *repoRef
	if ownerOK && repoOK {
		repository = &repoRef{owner: owner, name: repo}
	}

	files, filesOK := c.files(m, repository)
	if countOK && filesOK && count != len(files) {
		c.errorf(KindConsistency, fieldCount, "is %d but %s has %d entries", count, fieldFiles, len(files))
	}

	c.violations(m, files, filesOK)
	c.reportPath(m, pr, prOK, len(files), filesOK)
}

// files returns the file names of files_to_analyze; entries without a usable
// name are returned as "" so positions stay aligned
func (c *checker) files(m map[string]any, repository *repoRef) ([]string, bool) {
	raw, ok := m[fieldFiles]
	if !ok {
		c.errorf(KindShape, fieldFiles, "required field missing")
		return nil, false
	}
	list, ok := raw.([]any)
	if !ok {
		c.errorf(KindShape, fieldFiles, "must be a list, got %s", typeName(raw))
		return nil, false
	}

	names := make([]string, len(list))
	firstSeen := make(map[string]int)
	for i, item := range list {
		field := fmt.Sprintf("%s[%d]", fieldFiles, i)
		name, ok := c.fileRef(field, item, repository)
		if !ok {
			continue
		}
		names[i] = name
		if j, dup := firstSeen[name]; dup {
			c.warnf(KindConsistency, field+"."+fieldFileName, "duplicates %s[%d]", fieldFiles, j)
			continue
		}
		firstSeen[name] = i
	}
	return names, true
}

func (c *checker) fileRef(field string, item any, repository *repoRef) (string, bool) {
	fm, ok := item.(map[string]any)
	if !ok {
		c.errorf(KindShape, field, "file reference must be a mapping, got %s", typeName(item))
		return "", false
	}

	name, nameOK := c.requiredString(fm, fieldFileName, field+"."+fieldFileName)
	if nameOK && strings.TrimSpace(name) == "" {
		c.errorf(KindReference, field+"."+fieldFileName, "must not be empty")
		nameOK = false
	}

	rawURL, urlOK := c.requiredString(fm, fieldRawURL, field+"."+fieldRawURL)
	if urlOK {
		fileName := ""
		if nameOK {
			fileName = name
		}
		c.rawURL(field+"."+fieldRawURL, rawURL, fileName, repository)
	}
	return name, nameOK
}

func (c *checker) rawURL(field, s, fileName string, repository *repoRef) {
	u, err := github.ParseURL(s)
	if err != nil {
		c.errorf(KindReference, field, "%v", err)
		return
	}
	if c.opts.RequireHTTPS && u.Scheme != "https" {
		c.errorf(KindReference, field, "scheme is %q, want https", u.Scheme)
	}

	host := strings.ToLower(u.Hostname())
	if len(c.opts.AllowedHosts) > 0 {
		if !c.hostAllowed(host) {
			c.errorf(KindReference, field, "host %q is not allowed", host)
			return
		}
	} else if host != github.GitHubHost && host != github.RawContentHost {
		return
	}

	ref, err := github.ParseRawURL(s)
	if err != nil {
		c.errorf(KindReference, field, "%v", err)
		return
	}
	if c.opts.RequireSameRepo && repository != nil && !github.SameRepository(ref, repository) {
		c.errorf(KindReference, field, "points to %s/%s, not %s/%s", ref.Owner, ref.Repo, repository.owner, repository.name)
	}
	if fileName == "" {
		return
	}
	if ref.Path != fileName {
		c.errorf(KindReference, field, "path %q does not match file_name %q", ref.Path, fileName)
	}
	if c.opts.RequireEncodedSeparators && strings.Contains(fileName, "/") &&
		!strings.Contains(strings.ToUpper(ref.EscapedPath), "%2F") {
		c.errorf(KindReference, field, "path separators are not percent-encoded as %%2F")
	}
}

func (c *checker) hostAllowed(host string) bool {
	for _, h := range c.opts.AllowedHosts {
		if strings.EqualFold(h, host) {
			return true
		}
	}
	return false
}

func (c *checker) violations(m map[string]any, files []string, filesOK bool) {
	raw, ok := m[fieldViolations]
	if !ok {
		c.errorf(KindShape, fieldViolations, "required field missing")
		return
	}
	vm, ok := raw.(map[string]any)
	if !ok {
		c.errorf(KindShape, fieldViolations, "must be a mapping, got %s", typeName(raw))
		return
	}

	known := make(map[string]bool, len(files))
	for _, f := range files {
		known[f] = true
	}

	keys := make([]string, 0, len(vm))
	for k := range vm {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		field := fmt.Sprintf("%s[%q]", fieldViolations, key)
		switch {
		case strings.TrimSpace(key) == "":
			c.errorf(KindReference, field, "file path must not be empty")
		case filesOK && !known[key]:
			c.errorf(KindReference, field, "file is not listed in %s", fieldFiles)
		}

		list, ok := vm[key].([]any)
		if !ok {
			c.errorf(KindShape, field, "must be a list of violations, got %s", typeName(vm[key]))
			continue
		}
		for j, entry := range list {
			c.violation(fmt.Sprintf("%s[%d]", field, j), entry)
		}
	}
}

func (c *checker) violation(field string, entry any) {
	em, ok := entry.(map[string]any)
	if !ok {
		c.errorf(KindShape, field, "violation must be a mapping, got %s", typeName(entry))
		return
	}

	if rule, ok := c.requiredString(em, "rule_id", field+".rule_id"); ok && strings.TrimSpace(rule) == "" {
		c.errorf(KindShape, field+".rule_id", "must not be empty")
	}

	line, lineOK := c.requiredInt(em, "line", field+".line")
	if lineOK && line < 1 {
		c.errorf(KindShape, field+".line", "must be at least 1, got %d", line)
		lineOK = false
	}

	if raw, ok := em["end_line"]; ok {
		end, ok := asInt(raw)
		switch {
		case !ok:
			c.errorf(KindShape, field+".end_line", "must be an integer, got %s", typeName(raw))
		case lineOK && end < line:
			c.errorf(KindConsistency, field+".end_line", "ends at %d before it starts at %d", end, line)
		}
	}

	if sev, ok := c.requiredInt(em, "severity", field+".severity"); ok && (sev < 1 || sev > 5) {
		c.errorf(KindShape, field+".severity", "must be a PMD priority between 1 and 5, got %d", sev)
	}

	c.requiredString(em, "message", field+".message")
}

func (c *checker) reportPath(m map[string]any, pr int, prOK bool, fileCount int, filesOK bool) {
	raw, present := m[fieldReportPath]
	absent := !present || raw == nil
	hasPath := false

	if !absent {
		s, ok := raw.(string)
		switch {
		case !ok:
			c.errorf(KindShape, fieldReportPath, "must be a string or null, got %s", typeName(raw))
		case strings.TrimSpace(s) == "":
			c.errorf(KindShape, fieldReportPath, "must not be empty when present")
		default:
			hasPath = true
			if c.opts.CheckReportName && prOK {
				base := path.Base(strings.ReplaceAll(s, `\`, "/"))
				if want := fmt.Sprintf("pmd_report_%d.xml", pr); base != want {
					c.warnf(KindConsistency, fieldReportPath, "report is named %q, expected %q", base, want)
				}
			}
		}
	}

	if !filesOK {
		return
	}
	switch {
	case fileCount == 0 && hasPath:
		c.escalate(KindConsistency, fieldReportPath, "present although no files were analyzed")
	case fileCount > 0 && absent:
		c.escalate(KindConsistency, fieldReportPath, "missing although %d file(s) were analyzed", fileCount)
	}
}
