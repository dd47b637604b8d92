// dabcheck - Databricks Asset Bundle policy compliance checker
//
// dabcheck scans a bundle project (databricks.yml plus resources/**/*.yml)
// for enterprise policy violations, prints a severity-bucketed report and
// exits non-zero when the project must not be deployed:
//   - 0: no errors (and no warnings under --strict)
//   - 1: policy errors, or warnings under --strict
//   - 2: invalid flags or tool configuration
//
// Runs can optionally be recorded in a local SQLite history and published
// to MQTT and InfluxDB; those sinks never change the exit code.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	_ "github.com/nerrad567/dabcheck/migrations"

	"github.com/nerrad567/dabcheck/internal/infrastructure/config"
	"github.com/nerrad567/dabcheck/internal/infrastructure/logging"
	"github.com/nerrad567/dabcheck/internal/policy"
	"github.com/nerrad567/dabcheck/internal/report"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Exit codes.
const (
	exitOK    = 0
	exitFail  = 1
	exitUsage = 2
)

// configEnv names the environment variable holding the tool config path.
const configEnv = "DABCHECK_CONFIG"

func main() {
	// Cancel the walk on Ctrl+C or SIGTERM.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	cancel()
	os.Exit(code)
}

// options holds the parsed command line.
type options struct {
	path       string
	strict     bool
	output     string
	configPath string
	history    int
	version    bool
}

// parseFlags parses args. Long and short spellings share one variable.
func parseFlags(args []string, stderr io.Writer) (*options, error) {
	opts := &options{}

	fs := flag.NewFlagSet("dabcheck", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: dabcheck [flags]\n\n")
		fmt.Fprintf(fs.Output(), "Validate a Databricks Asset Bundle project against enterprise policies.\n\n")
		fs.PrintDefaults()
		fmt.Fprintf(fs.Output(), "\nExit status is 1 when policy errors are found, or warnings under --strict.\n")
	}

	fs.StringVar(&opts.path, "path", ".", "bundle project `directory`")
	fs.StringVar(&opts.path, "p", ".", "shorthand for --path")
	fs.BoolVar(&opts.strict, "strict", false, "treat warnings as failures")
	fs.StringVar(&opts.output, "output", "", "report `file` (default <path>/validation/validation_report_<timestamp>.txt)")
	fs.StringVar(&opts.output, "o", "", "shorthand for --output")
	fs.StringVar(&opts.configPath, "config", "", "tool configuration `file` (also "+configEnv+")")
	fs.StringVar(&opts.configPath, "c", "", "shorthand for --config")
	fs.IntVar(&opts.history, "history", 0, "print the last `N` recorded runs for the project and exit")
	fs.BoolVar(&opts.version, "version", false, "print version information and exit")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		fs.Usage()
		return nil, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	if opts.history < 0 {
		return nil, fmt.Errorf("--history must not be negative")
	}
	return opts, nil
}

// run is the actual application logic, separated from main for testability.
// It returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return exitOK
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitUsage
	}

	if opts.version {
		fmt.Fprintf(stdout, "dabcheck %s (commit %s, built %s)\n", version, commit, date)
		return exitOK
	}

	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitUsage
	}

	log := logging.New(cfg.Logging, version)
	log.Debug("configuration loaded",
		"history", cfg.History.Enabled,
		"mqtt", cfg.MQTT.Enabled,
		"influxdb", cfg.InfluxDB.Enabled,
	)

	if opts.history > 0 {
		if err := showHistory(ctx, cfg, projectKey(opts.path), opts.history, stdout); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return exitFail
		}
		return exitOK
	}

	return validate(ctx, cfg, opts, log, stdout, stderr)
}

// validate runs the checks, writes the report and hands the run to the
// optional sinks.
func validate(ctx context.Context, cfg *config.Config, opts *options, log *logging.Logger, stdout, stderr io.Writer) int {
	started := time.Now()

	reporter := report.New(stdout)
	reporter.SetLogger(log)
	if err := reporter.WriteBanner(); err != nil {
		log.Warn("writing banner failed", "error", err)
	}

	validator := policy.NewValidator(opts.path)
	validator.SetLogger(log)
	log.Debug("validating bundle project",
		"root", validator.Root(),
		"strict", opts.strict,
		"required_tags", policy.RequiredTags(),
		"sensitive_fields", policy.SensitiveFields(),
	)

	rep, err := validator.Validate(ctx)
	if err != nil {
		fmt.Fprintf(stderr, "Error: validating %s: %v\n", validator.Root(), err)
		return exitFail
	}

	outputPath := opts.output
	if outputPath == "" {
		outputPath = report.DefaultPath(opts.path, cfg.Report.Directory, cfg.Report.FilePrefix, started)
	}

	savedPath, err := reporter.Write(rep, outputPath)
	if err != nil {
		log.Error("writing report failed", "error", err)
	}

	code := policy.ExitCode(rep, opts.strict)
	log.Info("validation complete",
		"files", len(rep.Files),
		"errors", len(rep.Errors),
		"warnings", len(rep.Warnings),
		"suggestions", len(rep.Suggestions),
		"exit_code", code,
	)

	finished := newRun(rep, opts, started, savedPath)
	recordHistory(ctx, cfg, finished, log)
	publishTelemetry(ctx, cfg, finished, log)

	return code
}

// loadConfig reads the tool configuration from path, DABCHECK_CONFIG, or
// falls back to defaults with environment overrides.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		path = os.Getenv(configEnv)
	}
	if path == "" {
		return config.LoadDefault()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

// projectKey is the project identity used for history and telemetry.
// Relative and absolute spellings of the same directory share one key.
func projectKey(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	return abs
}
