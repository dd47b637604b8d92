package policy

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/nerrad567/dabcheck/internal/bundle"
)

// Bundle layout.
const (
	// BundleFile is the top-level bundle document, relative to the project root.
	BundleFile = "databricks.yml"

	// ResourcesDir holds job definition documents, relative to the project root.
	ResourcesDir = "resources"
)

// Logger interface for optional logging support.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

// Validator runs the compliance checks over one bundle project.
//
// A Validator owns no state between runs; every call to Validate returns a
// fresh Report, so running it twice over an unchanged project yields the
// same findings in the same order.
type Validator struct {
	root   string
	checks []Check

	logger   Logger
	loggerMu sync.RWMutex
}

// NewValidator creates a validator for the project rooted at root.
func NewValidator(root string) *Validator {
	return &Validator{
		root:   root,
		checks: Checks(),
	}
}

// SetLogger sets a logger for progress and skipped-file messages.
func (v *Validator) SetLogger(logger Logger) {
	v.loggerMu.Lock()
	v.logger = logger
	v.loggerMu.Unlock()
}

func (v *Validator) getLogger() Logger {
	v.loggerMu.RLock()
	defer v.loggerMu.RUnlock()
	return v.logger
}

// Root returns the project path being validated.
func (v *Validator) Root() string {
	return v.root
}

// Validate runs every check and returns the aggregated report.
//
// It proceeds in a fixed order:
//  1. Environment consistency over databricks.yml, when the file exists
//  2. Discovery of *.yml / *.yaml files under resources/, in lexical order
//  3. Per file: load, then the six rule families in Checks() order
//
// A document that cannot be loaded is recorded as an error finding and the
// run continues with the next file. The returned error is reserved for
// failures outside the documents themselves: context cancellation and an
// unreadable resources directory.
func (v *Validator) Validate(ctx context.Context) (*Report, error) {
	report := &Report{ProjectPath: v.root}

	v.validateEnvironments(report)

	files, err := v.discover()
	if err != nil {
		return report, err
	}

	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return report, fmt.Errorf("validation interrupted: %w", err)
		}
		v.validateFile(report, path)
	}

	return report, nil
}

func (v *Validator) validateEnvironments(report *Report) {
	path := filepath.Join(v.root, BundleFile)
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		if logger := v.getLogger(); logger != nil {
			logger.Info("bundle file not found, skipping environment consistency", "path", path)
		}
		return
	}

	root, ok := v.load(report, path)
	if !ok {
		return
	}
	report.Add(CheckEnvironmentConsistency(root, v.display(path))...)
}

func (v *Validator) validateFile(report *Report, path string) {
	root, ok := v.load(report, path)
	if !ok {
		return
	}

	file := v.display(path)
	report.Files = append(report.Files, file)

	if root.Len() == 0 {
		if logger := v.getLogger(); logger != nil {
			logger.Debug("empty document, nothing to check", "file", file)
		}
		return
	}

	for _, c := range v.checks {
		findings := c.Run(root, file)
		if logger := v.getLogger(); logger != nil {
			logger.Debug("check complete", "file", file, "check", c.Name, "findings", len(findings))
		}
		report.Add(findings...)
	}
}

// load reads a document, recording a load failure as an error finding.
func (v *Validator) load(report *Report, path string) (bundle.Node, bool) {
	root, err := bundle.Load(path)
	if err != nil {
		file := v.display(path)
		report.Add(newFinding(SeverityError, RuleLoad, file, "",
			"Failed to load %s: %s", file, strings.TrimPrefix(err.Error(), bundle.ErrLoad.Error()+": ")))
		if logger := v.getLogger(); logger != nil {
			logger.Warn("failed to load document", "file", file, "error", err)
		}
		return bundle.Node{}, false
	}
	return root, true
}

// discover lists job documents under the resources directory.
// A missing directory yields no files.
func (v *Validator) discover() ([]string, error) {
	dir := filepath.Join(v.root, ResourcesDir)
	if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}

	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch filepath.Ext(path) {
		case ".yml", ".yaml":
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("discovering resource files: %w", err)
	}
	return files, nil
}

// display renders path relative to the project root with forward slashes.
func (v *Validator) display(path string) string {
	rel, err := filepath.Rel(v.root, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}
