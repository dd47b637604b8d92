package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/nerrad567/dabcheck/internal/policy"
)

// Section rule widths.
const (
	ruleWidth           = 80
	criticalRuleWidth   = 50
	warningRuleWidth    = 60
	suggestionRuleWidth = 65
)

// Header and section titles.
const (
	bannerTitle    = "ENTERPRISE DATABRICKS ASSET BUNDLE (DAB) POLICY VALIDATOR"
	bannerRunning  = "Running enterprise-specific policy validations..."
	bannerSubtitle = "(Complementing built-in 'dab validate' with organizational compliance checks)"

	resultsTitle    = "VALIDATION RESULTS"
	compliantStatus = "STATUS: All enterprise policies are compliant."
	compliantDetail = "No issues found - configuration meets all organizational requirements."

	criticalTitle   = "[CRITICAL] POLICY VIOLATIONS - MUST BE FIXED:"
	warningTitle    = "[WARNING] POLICY RECOMMENDATIONS - SHOULD BE ADDRESSED:"
	suggestionTitle = "[ADVISORY] OPTIMIZATION SUGGESTIONS - CONSIDER IMPLEMENTING:"

	fileTitle = "# Enterprise DAB Validation Report"

	// TimestampLayout is used for the Generated header line.
	TimestampLayout = "2006-01-02 15:04:05"

	// FileTimestampLayout is used in default report file names.
	FileTimestampLayout = "20060102_150405"
)

// Logger interface for optional logging support.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

// Reporter renders validation results to the console and, optionally, to a
// report file. Everything written to the file is also written to the
// console; the file additionally carries a metadata header.
type Reporter struct {
	console io.Writer
	now     func() time.Time
	create  func(path string) (io.WriteCloser, error)

	logger   Logger
	loggerMu sync.RWMutex
}

// New creates a Reporter writing to console.
func New(console io.Writer) *Reporter {
	return &Reporter{
		console: console,
		now:     time.Now,
		create:  createReportFile,
	}
}

// SetLogger sets a logger for file handling messages.
func (r *Reporter) SetLogger(logger Logger) {
	r.loggerMu.Lock()
	r.logger = logger
	r.loggerMu.Unlock()
}

func (r *Reporter) getLogger() Logger {
	r.loggerMu.RLock()
	defer r.loggerMu.RUnlock()
	return r.logger
}

// DefaultPath returns the report path used when none is given:
// <project>/validation/validation_report_<YYYYMMDD_HHMMSS>.txt.
func DefaultPath(projectPath, directory, prefix string, at time.Time) string {
	name := fmt.Sprintf("%s_%s.txt", prefix, at.Format(FileTimestampLayout))
	return filepath.Join(projectPath, directory, name)
}

// WriteBanner prints the banner shown before validation starts.
func (r *Reporter) WriteBanner() error {
	w := &errWriter{w: r.console}
	w.line(strings.Repeat("=", ruleWidth))
	w.line(bannerTitle)
	w.line(strings.Repeat("=", ruleWidth))
	w.line(bannerRunning)
	w.line(bannerSubtitle)
	w.line(strings.Repeat("-", ruleWidth))
	return w.err
}

// Write renders rep to the console and, when outputPath is not empty, to a
// report file at outputPath. The parent directory is created if needed.
//
// A report file that cannot be created or written is not fatal: a warning
// is printed and the results continue on the console only. The returned
// path is the file actually written, or "" when output was console-only.
// The returned error reports console failures.
func (r *Reporter) Write(rep *policy.Report, outputPath string) (string, error) {
	tee := &reportTee{
		console: r.console,
		file:    r.openReportFile(rep, outputPath),
		onFileError: func(err error) {
			r.warnNoFile(outputPath, err)
		},
	}

	w := &errWriter{w: tee}
	render(w, rep)

	file := tee.file
	if file == nil {
		return "", w.err
	}
	if err := file.Close(); err != nil {
		r.warnNoFile(outputPath, err)
		return "", w.err
	}

	// The trailer goes to the console only.
	w.w = r.console
	w.line("")
	w.printf("Validation report saved to: %s\n", outputPath)
	return outputPath, w.err
}

// openReportFile creates the report file and writes its header.
// It returns nil when no file was requested or it could not be created.
func (r *Reporter) openReportFile(rep *policy.Report, outputPath string) io.WriteCloser {
	if outputPath == "" {
		return nil
	}

	file, err := r.create(outputPath)
	if err != nil {
		r.warnNoFile(outputPath, err)
		return nil
	}

	w := &errWriter{w: file}
	w.line(fileTitle)
	w.printf("# Generated: %s\n", r.now().Format(TimestampLayout))
	w.printf("# Project Path: %s\n", rep.ProjectPath)
	w.line("")
	if w.err != nil {
		file.Close() //nolint:errcheck,gosec // Already failing, header error takes precedence
		r.warnNoFile(outputPath, w.err)
		return nil
	}

	if logger := r.getLogger(); logger != nil {
		logger.Debug("report file created", "path", outputPath)
	}
	return file
}

// createReportFile creates path and any missing parent directories.
func createReportFile(path string) (io.WriteCloser, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, err
	}
	return os.Create(path) //nolint:gosec // Path is supplied by the operator
}

func (r *Reporter) warnNoFile(outputPath string, err error) {
	fmt.Fprintf(r.console, "Warning: Could not create output file '%s': %v\n", outputPath, err) //nolint:errcheck // Best effort console notice
	if logger := r.getLogger(); logger != nil {
		logger.Warn("report file unavailable, writing to console only", "path", outputPath, "error", err)
	}
}

// reportTee copies console output to the report file. The first file
// error closes and drops the file; the console keeps receiving output.
type reportTee struct {
	console     io.Writer
	file        io.WriteCloser
	onFileError func(error)
}

func (t *reportTee) Write(p []byte) (int, error) {
	if t.file != nil {
		if _, err := t.file.Write(p); err != nil {
			t.file.Close() //nolint:errcheck,gosec // Already failing
			t.file = nil
			t.onFileError(err)
		}
	}
	return t.console.Write(p)
}

// render writes the results section, the findings and the summary.
func render(w *errWriter, rep *policy.Report) {
	w.line("")
	w.line(strings.Repeat("=", ruleWidth))
	w.line(resultsTitle)
	w.line(strings.Repeat("=", ruleWidth))

	if rep.Total() == 0 {
		w.line(compliantStatus)
		w.line(compliantDetail)
		w.line(strings.Repeat("=", ruleWidth))
		return
	}

	section(w, criticalTitle, criticalRuleWidth, rep.Errors)
	section(w, warningTitle, warningRuleWidth, rep.Warnings)
	section(w, suggestionTitle, suggestionRuleWidth, rep.Suggestions)

	w.line("")
	w.line(strings.Repeat("=", ruleWidth))
	w.printf("SUMMARY: %d critical issues, %d warnings, %d suggestions\n",
		len(rep.Errors), len(rep.Warnings), len(rep.Suggestions))
	w.line(strings.Repeat("=", ruleWidth))
}

func section(w *errWriter, title string, width int, findings []policy.Finding) {
	if len(findings) == 0 {
		return
	}
	w.line("")
	w.line(title)
	w.line(strings.Repeat("-", width))
	for i, f := range findings {
		w.printf("%2d. %s\n", i+1, f.Message)
	}
}

// errWriter keeps the first write error and drops subsequent writes.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) printf(format string, args ...any) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintf(e.w, format, args...)
}

func (e *errWriter) line(s string) {
	e.printf("%s\n", s)
}
