package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/nerrad567/dabcheck/internal/history"
	"github.com/nerrad567/dabcheck/internal/infrastructure/config"
	"github.com/nerrad567/dabcheck/internal/infrastructure/database"
	"github.com/nerrad567/dabcheck/internal/infrastructure/influxdb"
	"github.com/nerrad567/dabcheck/internal/infrastructure/logging"
	"github.com/nerrad567/dabcheck/internal/infrastructure/mqtt"
	"github.com/nerrad567/dabcheck/internal/policy"
	"github.com/nerrad567/dabcheck/internal/telemetry"
)

// newRun builds the history record for a finished validation.
func newRun(rep *policy.Report, opts *options, started time.Time, savedPath string) *history.Run {
	r := history.NewRun(rep, opts.strict, started, time.Since(started), savedPath)
	r.ProjectPath = projectKey(opts.path)
	return r
}

// openHistory opens and migrates the history database.
func openHistory(ctx context.Context, cfg config.HistoryConfig) (*database.DB, error) {
	db, err := database.Open(ctx, database.Config{
		Path:        cfg.Path,
		WALMode:     cfg.WALMode,
		BusyTimeout: cfg.BusyTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}

	if err := db.HealthCheck(ctx); err != nil {
		db.Close() //nolint:errcheck // Already failing
		return nil, err
	}

	if err := db.Migrate(ctx); err != nil {
		db.Close() //nolint:errcheck // Already failing
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return db, nil
}

// recordHistory stores run when history is enabled. Failures are logged only.
func recordHistory(ctx context.Context, cfg *config.Config, run *history.Run, log *logging.Logger) {
	if !cfg.History.Enabled {
		return
	}

	db, err := openHistory(ctx, cfg.History)
	if err != nil {
		log.Warn("run history unavailable", "error", err)
		return
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			log.Warn("error closing history database", "error", closeErr)
		}
	}()

	if err := history.NewSQLiteRepository(db.DB).Record(ctx, run); err != nil {
		log.Warn("recording run failed", "run_id", run.ID, "error", err)
		return
	}
	log.Debug("run recorded", "run_id", run.ID, "path", db.Path())
}

// showHistory prints the latest limit runs recorded for project.
func showHistory(ctx context.Context, cfg *config.Config, project string, limit int, out io.Writer) error {
	if !cfg.History.Enabled {
		return fmt.Errorf("run history is disabled (set history.enabled or DABCHECK_HISTORY_ENABLED)")
	}

	db, err := openHistory(ctx, cfg.History)
	if err != nil {
		return err
	}
	defer db.Close() //nolint:errcheck // Read-only use

	runs, err := history.NewSQLiteRepository(db.DB).ListByProject(ctx, project, limit)
	if err != nil {
		return fmt.Errorf("listing runs: %w", err)
	}

	if len(runs) == 0 {
		fmt.Fprintf(out, "No recorded runs for %s\n", project)
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "STARTED\tRESULT\tERRORS\tWARNINGS\tSUGGESTIONS\tSTRICT\tDURATION\tRUN ID")
	for _, r := range runs {
		result := "PASS"
		if !r.Passed() {
			result = "FAIL"
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%t\t%s\t%s\n",
			r.StartedAt.Local().Format(time.DateTime),
			result,
			r.Errors,
			r.Warnings,
			r.Suggestions,
			r.Strict,
			r.Duration.Round(time.Millisecond),
			r.ID,
		)
	}
	return tw.Flush()
}

// publishTelemetry sends run to the enabled MQTT and InfluxDB sinks.
// Connection and publish failures are logged only.
func publishTelemetry(ctx context.Context, cfg *config.Config, run *history.Run, log *logging.Logger) {
	if !cfg.MQTT.Enabled && !cfg.InfluxDB.Enabled {
		return
	}

	// Disabled sinks stay nil interfaces, not typed nil pointers.
	var results telemetry.ResultPublisher
	var metrics telemetry.MetricsWriter

	if cfg.MQTT.Enabled {
		client, err := mqtt.Connect(cfg.MQTT)
		if err != nil {
			log.Warn("MQTT unavailable", "error", err)
		} else {
			client.SetLogger(log)
			defer func() {
				if closeErr := client.Close(); closeErr != nil {
					log.Warn("error closing MQTT", "error", closeErr)
				}
			}()
			results = client
		}
	}

	if cfg.InfluxDB.Enabled {
		client, err := influxdb.Connect(ctx, cfg.InfluxDB)
		if err != nil {
			log.Warn("InfluxDB unavailable", "error", err)
		} else {
			client.SetOnError(func(writeErr error) {
				log.Warn("InfluxDB write failed", "error", writeErr)
			})
			// Close flushes buffered points.
			defer func() {
				if closeErr := client.Close(); closeErr != nil {
					log.Warn("error closing InfluxDB", "error", closeErr)
				}
			}()
			metrics = client
		}
	}

	if err := healthCheck(ctx, results, metrics); err != nil {
		log.Warn("telemetry sink unhealthy", "error", err)
	}

	publisher := telemetry.NewPublisher(results, metrics)
	publisher.SetLogger(log)
	if !publisher.Enabled() {
		return
	}
	if err := publisher.Publish(run); err != nil {
		log.Warn("publishing telemetry failed", "run_id", run.ID, "error", err)
	}
}

// healthChecker is implemented by the MQTT and InfluxDB clients.
type healthChecker interface {
	HealthCheck(ctx context.Context) error
}

// healthCheck verifies every connected sink answers before publishing.
// Sinks are passed as their telemetry interfaces; nil sinks are skipped.
func healthCheck(ctx context.Context, sinks ...any) error {
	var errs []error
	for _, s := range sinks {
		hc, ok := s.(healthChecker)
		if !ok {
			continue
		}
		if err := hc.HealthCheck(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
