package history

import (
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/dabcheck/internal/policy"
)

// Run is the persisted record of one validation run.
type Run struct {
	ID          string
	ProjectPath string
	StartedAt   time.Time
	Duration    time.Duration
	Strict      bool

	Files       int
	Errors      int
	Warnings    int
	Suggestions int
	ExitCode    int

	// ReportPath is the report file written, empty when output was console-only.
	ReportPath string

	// Findings are in report order (errors, warnings, suggestions).
	// Populated by Get; List leaves it nil.
	Findings []policy.Finding
}

// NewRun builds a run record from a finished report.
func NewRun(rep *policy.Report, strict bool, startedAt time.Time, duration time.Duration, reportPath string) *Run {
	return &Run{
		ID:          uuid.NewString(),
		ProjectPath: rep.ProjectPath,
		StartedAt:   startedAt.UTC(),
		Duration:    duration,
		Strict:      strict,
		Files:       len(rep.Files),
		Errors:      len(rep.Errors),
		Warnings:    len(rep.Warnings),
		Suggestions: len(rep.Suggestions),
		ExitCode:    policy.ExitCode(rep, strict),
		ReportPath:  reportPath,
		Findings:    rep.All(),
	}
}

// Passed reports whether the run exited cleanly.
func (r *Run) Passed() bool {
	return r.ExitCode == 0
}
