package validate

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrValidation  = errors.New("validation error")
	ErrShape       = errors.New("shape error")
	ErrConsistency = errors.New("consistency error")
	ErrReference   = errors.New("reference error")
)

// Kind classifies a problem
type Kind string

const (
	// KindShape means a required field is missing or has the wrong type.
	KindShape Kind = "ShapeError"
	// KindConsistency means two fields, or two records, disagree.
	KindConsistency Kind = "ConsistencyError"
	// KindReference means a file name or raw URL does not point anywhere usable.
	KindReference Kind = "ReferenceError"
)

func (k Kind) sentinel() error {
	switch k {
	case KindShape:
		return ErrShape
	case KindConsistency:
		return ErrConsistency
	default:
		return ErrReference
	}
}

type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// CollectionLevel is the Record index of problems that span several records
const CollectionLevel = -1

// Problem is one violated rule. Field is a path such as files_to_analyze[2].raw_url.
type Problem struct {
	Record   int      `json:"record" yaml:"record"`
	Field    string   `json:"field" yaml:"field"`
	Kind     Kind     `json:"kind" yaml:"kind"`
	Severity Severity `json:"severity" yaml:"severity"`
	Message  string   `json:"message" yaml:"message"`
}

func (p Problem) Error() string {
	where := fmt.Sprintf("record %d", p.Record)
	if p.Record == CollectionLevel {
		where = "collection"
	}
	if p.Field != "" {
		where += ": " + p.Field
	}
	return fmt.Sprintf("%s: %s: %s", p.Kind, where, p.Message)
}

func (p Problem) Unwrap() error {
	return p.Kind.sentinel()
}

// Report collects every problem found in one pass over a collection
type Report struct {
	Records  int       `json:"records" yaml:"records"`
	Files    int       `json:"files" yaml:"files"`
	Problems []Problem `json:"problems" yaml:"problems"`
}

// Valid reports whether no error-severity problem was found
func (r *Report) Valid() bool {
	return len(r.Errors()) == 0
}

func (r *Report) Errors() []Problem {
	return r.filter(SeverityError)
}

func (r *Report) Warnings() []Problem {
	return r.filter(SeverityWarning)
}

func (r *Report) filter(s Severity) []Problem {
	out := make([]Problem, 0, len(r.Problems))
	for _, p := range r.Problems {
		if p.Severity == s {
			out = append(out, p)
		}
	}
	return out
}

// Fields returns the sorted, de-duplicated names of the fields violated by the
// record at index, counting errors only
func (r *Report) Fields(index int) []string {
	set := make(map[string]struct{})
	for _, p := range r.Problems {
		if p.Record == index && p.Severity == SeverityError {
			set[p.Field] = struct{}{}
		}
	}
	fields := make([]string, 0, len(set))
	for f := range set {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fields
}

// ForRecord returns all problems attached to the record at index
func (r *Report) ForRecord(index int) []Problem {
	var out []Problem
	for _, p := range r.Problems {
		if p.Record == index {
			out = append(out, p)
		}
	}
	return out
}

// Err returns nil for a valid report, otherwise an error wrapping
// ErrValidation and every error-severity problem
func (r *Report) Err() error {
	errs := r.Errors()
	if len(errs) == 0 {
		return nil
	}
	joined := make([]error, 0, len(errs)+1)
	joined = append(joined, fmt.Errorf("%w: %d problem(s)", ErrValidation, len(errs)))
	for _, p := range errs {
		joined = append(joined, p)
	}
	return errors.Join(joined...)
}

func (r *Report) String() string {
	if len(r.Problems) == 0 {
		return "valid"
	}
	lines := make([]string, 0, len(r.Problems))
	for _, p := range r.Problems {
		lines = append(lines, fmt.Sprintf("[%s] %s", p.Severity, p.Error()))
	}
	return strings.Join(lines, "\n")
}
