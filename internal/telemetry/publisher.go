package telemetry

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/nerrad567/dabcheck/internal/history"
	"github.com/nerrad567/dabcheck/internal/infrastructure/influxdb"
	"github.com/nerrad567/dabcheck/internal/infrastructure/mqtt"
	"github.com/nerrad567/dabcheck/internal/policy"
)

// ResultPublisher sends a run summary to subscribers.
// Satisfied by *mqtt.Client.
type ResultPublisher interface {
	PublishJSON(projectPath string, v any) error
}

// MetricsWriter records run metrics.
// Satisfied by *influxdb.Client.
type MetricsWriter interface {
	WriteRun(m influxdb.RunMetrics)
}

// Logger interface for optional logging support.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Debug(msg string, args ...any)
}

// Summary is the JSON document published for each run.
type Summary struct {
	RunID       string           `json:"run_id"`
	Project     string           `json:"project"`
	ProjectPath string           `json:"project_path"`
	StartedAt   time.Time        `json:"started_at"`
	DurationMS  int64            `json:"duration_ms"`
	Strict      bool             `json:"strict"`
	Passed      bool             `json:"passed"`
	ExitCode    int              `json:"exit_code"`
	Files       int              `json:"files"`
	Errors      int              `json:"errors"`
	Warnings    int              `json:"warnings"`
	Suggestions int              `json:"suggestions"`
	ReportPath  string           `json:"report_path,omitempty"`
	Findings    []policy.Finding `json:"findings"`
}

// Publisher fans a finished run out to the configured sinks.
// Either sink may be nil.
type Publisher struct {
	results ResultPublisher
	metrics MetricsWriter

	logger   Logger
	loggerMu sync.RWMutex
}

// NewPublisher creates a Publisher. Pass nil for a disabled sink.
func NewPublisher(results ResultPublisher, metrics MetricsWriter) *Publisher {
	return &Publisher{
		results: results,
		metrics: metrics,
	}
}

// SetLogger sets a logger for per-sink debug messages.
func (p *Publisher) SetLogger(logger Logger) {
	p.loggerMu.Lock()
	p.logger = logger
	p.loggerMu.Unlock()
}

func (p *Publisher) getLogger() Logger {
	p.loggerMu.RLock()
	defer p.loggerMu.RUnlock()
	return p.logger
}

// Enabled reports whether any sink is configured.
func (p *Publisher) Enabled() bool {
	return p.results != nil || p.metrics != nil
}

// Publish sends run to every configured sink. A failing sink does not stop
// the others; all failures are joined into the returned error.
func (p *Publisher) Publish(run *history.Run) error {
	var errs []error

	if p.results != nil {
		if err := p.results.PublishJSON(run.ProjectPath, NewSummary(run)); err != nil {
			errs = append(errs, fmt.Errorf("publishing result: %w", err))
		} else if logger := p.getLogger(); logger != nil {
			logger.Debug("run summary published", "run_id", run.ID)
		}
	}

	if p.metrics != nil {
		p.metrics.WriteRun(NewRunMetrics(run))
		if logger := p.getLogger(); logger != nil {
			logger.Debug("run metrics queued", "run_id", run.ID)
		}
	}

	return errors.Join(errs...)
}

// NewSummary builds the published document for run.
func NewSummary(run *history.Run) Summary {
	findings := run.Findings
	if findings == nil {
		findings = []policy.Finding{}
	}
	return Summary{
		RunID:       run.ID,
		Project:     mqtt.ProjectSlug(run.ProjectPath),
		ProjectPath: run.ProjectPath,
		StartedAt:   run.StartedAt,
		DurationMS:  run.Duration.Milliseconds(),
		Strict:      run.Strict,
		Passed:      run.Passed(),
		ExitCode:    run.ExitCode,
		Files:       run.Files,
		Errors:      run.Errors,
		Warnings:    run.Warnings,
		Suggestions: run.Suggestions,
		ReportPath:  run.ReportPath,
		Findings:    findings,
	}
}

// NewRunMetrics builds the metrics point set for run.
func NewRunMetrics(run *history.Run) influxdb.RunMetrics {
	return influxdb.RunMetrics{
		Project:     mqtt.ProjectSlug(run.ProjectPath),
		Strict:      run.Strict,
		Passed:      run.Passed(),
		ExitCode:    run.ExitCode,
		Duration:    run.Duration,
		At:          run.StartedAt,
		Files:       run.Files,
		Errors:      run.Errors,
		Warnings:    run.Warnings,
		Suggestions: run.Suggestions,
		Findings:    RuleCounts(run.Findings),
	}
}

// RuleCounts tallies findings per (rule, severity), sorted by rule then severity.
func RuleCounts(findings []policy.Finding) []influxdb.FindingCount {
	type key struct{ rule, severity string }
	counts := make(map[key]int)
	for _, f := range findings {
		counts[key{f.Rule, string(f.Severity)}]++
	}

	out := make([]influxdb.FindingCount, 0, len(counts))
	for k, n := range counts {
		out = append(out, influxdb.FindingCount{Rule: k.rule, Severity: k.severity, Count: n})
	}
	slices.SortFunc(out, func(a, b influxdb.FindingCount) int {
		return cmp.Or(cmp.Compare(a.Rule, b.Rule), cmp.Compare(a.Severity, b.Severity))
	})
	return out
}
