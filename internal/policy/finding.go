package policy

import "fmt"

// Severity is the bucket a finding lands in.
type Severity string

// Severity levels, most severe first.
const (
	// SeverityError is a policy violation. It always fails the run.
	SeverityError Severity = "error"

	// SeverityWarning is a recommendation. It fails the run only in strict mode.
	SeverityWarning Severity = "warning"

	// SeveritySuggestion is advisory and never fails the run.
	SeveritySuggestion Severity = "suggestion"
)

// Finding is one result of a rule.
// File and Path are empty when the rule is not tied to a location.
type Finding struct {
	Severity Severity `json:"severity"`
	Rule     string   `json:"rule"`
	File     string   `json:"file,omitempty"`
	Path     string   `json:"path,omitempty"`
	Message  string   `json:"message"`
}

// String returns the rendered message.
func (f Finding) String() string {
	return f.Message
}

func newFinding(sev Severity, rule, file, path, format string, args ...any) Finding {
	return Finding{
		Severity: sev,
		Rule:     rule,
		File:     file,
		Path:     path,
		Message:  fmt.Sprintf(format, args...),
	}
}

// Report holds the findings of one validation run, bucketed by severity.
// Buckets are append-only and keep the order findings were produced in.
type Report struct {
	ProjectPath string    `json:"project_path"`
	Files       []string  `json:"files"`
	Errors      []Finding `json:"errors"`
	Warnings    []Finding `json:"warnings"`
	Suggestions []Finding `json:"suggestions"`
}

// Add appends findings to the bucket matching their severity.
func (r *Report) Add(findings ...Finding) {
	for _, f := range findings {
		switch f.Severity {
		case SeverityError:
			r.Errors = append(r.Errors, f)
		case SeverityWarning:
			r.Warnings = append(r.Warnings, f)
		default:
			r.Suggestions = append(r.Suggestions, f)
		}
	}
}

// Total returns the number of findings across all buckets.
func (r *Report) Total() int {
	return len(r.Errors) + len(r.Warnings) + len(r.Suggestions)
}

// Counts returns the size of each bucket.
func (r *Report) Counts() (errors, warnings, suggestions int) {
	return len(r.Errors), len(r.Warnings), len(r.Suggestions)
}

// Passed reports whether the run has no errors.
// Warnings and suggestions never affect it.
func (r *Report) Passed() bool {
	return len(r.Errors) == 0
}

// All returns every finding, errors first, then warnings, then suggestions.
func (r *Report) All() []Finding {
	all := make([]Finding, 0, r.Total())
	all = append(all, r.Errors...)
	all = append(all, r.Warnings...)
	return append(all, r.Suggestions...)
}

// ExitCode maps a report to the process exit status.
//
//	errors present             -> 1
//	warnings present, strict   -> 1
//	otherwise                  -> 0
func ExitCode(r *Report, strict bool) int {
	if !r.Passed() {
		return 1
	}
	if strict && len(r.Warnings) > 0 {
		return 1
	}
	return 0
}
