// Package history persists validation runs so trends can be inspected
// across invocations.
//
// Each run is one row in validation_runs, keyed by a random UUID, with its
// findings stored in run_findings in report order. The schema lives in the
// migrations package and is applied with database.DB.Migrate.
//
// Usage:
//
//	repo := history.NewSQLiteRepository(db.DB)
//	run := history.NewRun(report, strict, started, time.Since(started), savedPath)
//	if err := repo.Record(ctx, run); err != nil {
//	    logger.Warn("recording run failed", "error", err)
//	}
package history
