package history

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/nerrad567/dabcheck/internal/infrastructure/database"
	"github.com/nerrad567/dabcheck/internal/policy"
	_ "github.com/nerrad567/dabcheck/migrations" // Registers the history schema
)

// setupTestRepo opens an in-memory database with the embedded schema applied.
func setupTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	ctx := context.Background()

	db, err := database.Open(ctx, database.Config{Path: database.MemoryPath})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() }) //nolint:errcheck // Test cleanup

	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	return NewSQLiteRepository(db.DB)
}

func sampleReport(project string) *policy.Report {
	rep := &policy.Report{ProjectPath: project, Files: []string{"resources/a.yml"}}
	rep.Add(
		policy.Finding{Severity: policy.SeverityError, Rule: policy.RuleRequiredTags, File: "resources/a.yml",
			Path: "resources.jobs.Etl.tags", Message: "missing tags"},
		policy.Finding{Severity: policy.SeverityWarning, Rule: policy.RuleEnvironmentConsistency,
			File: "databricks.yml", Message: "gap"},
		policy.Finding{Severity: policy.SeveritySuggestion, Rule: policy.RuleTimeout, Message: "timeout"},
	)
	return rep
}

func TestNewRun(t *testing.T) {
	started := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
	run := NewRun(sampleReport("/proj"), true, started, 1500*time.Millisecond, "/proj/validation/r.txt")

	if run.ID == "" {
		t.Error("ID should be generated")
	}
	if run.Errors != 1 || run.Warnings != 1 || run.Suggestions != 1 || run.Files != 1 {
		t.Errorf("counts = %d/%d/%d files %d", run.Errors, run.Warnings, run.Suggestions, run.Files)
	}
	if run.ExitCode != 1 || run.Passed() {
		t.Errorf("ExitCode = %d, want 1", run.ExitCode)
	}
	if len(run.Findings) != 3 {
		t.Errorf("len(Findings) = %d, want 3", len(run.Findings))
	}

	other := NewRun(sampleReport("/proj"), true, started, 0, "")
	if other.ID == run.ID {
		t.Error("run IDs should be unique")
	}
}

func TestRecordAndGet(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	started := time.Date(2026, 10, 17, 12, 0, 0, 123456789, time.UTC)
	run := NewRun(sampleReport("/proj"), false, started, 2*time.Second, "/proj/validation/r.txt")

	if err := repo.Record(ctx, run); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	got, err := repo.Get(ctx, run.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if diff := cmp.Diff(run, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestRecord_ConsoleOnlyRunWithoutFindings(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	run := NewRun(&policy.Report{ProjectPath: "/clean"}, false, time.Now(), 0, "")
	if err := repo.Record(ctx, run); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	got, err := repo.Get(ctx, run.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.ReportPath != "" || len(got.Findings) != 0 || !got.Passed() {
		t.Errorf("got = %+v, want clean console-only run", got)
	}
}

func TestRecord_Invalid(t *testing.T) {
	repo := setupTestRepo(t)

	err := repo.Record(context.Background(), &Run{ProjectPath: "/proj"})
	if !errors.Is(err, ErrInvalidRun) {
		t.Errorf("Record() error = %v, want ErrInvalidRun", err)
	}
}

func TestRecord_DuplicateIDIsRejected(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	run := NewRun(sampleReport("/proj"), false, time.Now(), 0, "")
	if err := repo.Record(ctx, run); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if err := repo.Record(ctx, run); err == nil {
		t.Error("second Record() with the same ID should fail")
	}

	got, err := repo.Get(ctx, run.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if len(got.Findings) != len(run.Findings) {
		t.Errorf("findings = %d, want %d (failed insert must not add rows)", len(got.Findings), len(run.Findings))
	}
}

func TestGet_NotFound(t *testing.T) {
	repo := setupTestRepo(t)

	_, err := repo.Get(context.Background(), "nonexistent")
	if !errors.Is(err, ErrRunNotFound) {
		t.Errorf("Get() error = %v, want ErrRunNotFound", err)
	}
}

func TestList(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	base := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
	var ids []string
	for i, project := range []string{"/a", "/b", "/a", "/a"} {
		run := NewRun(sampleReport(project), false, base.Add(time.Duration(i)*time.Minute), 0, "")
		if err := repo.Record(ctx, run); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
		ids = append(ids, run.ID)
	}

	tests := []struct {
		name    string
		list    func() ([]Run, error)
		wantIDs []string
	}{
		{
			name:    "all, newest first",
			list:    func() ([]Run, error) { return repo.List(ctx, 0) },
			wantIDs: []string{ids[3], ids[2], ids[1], ids[0]},
		},
		{
			name:    "limited",
			list:    func() ([]Run, error) { return repo.List(ctx, 2) },
			wantIDs: []string{ids[3], ids[2]},
		},
		{
			name:    "by project",
			list:    func() ([]Run, error) { return repo.ListByProject(ctx, "/a", 2) },
			wantIDs: []string{ids[3], ids[2]},
		},
		{
			name:    "unknown project",
			list:    func() ([]Run, error) { return repo.ListByProject(ctx, "/none", 5) },
			wantIDs: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runs, err := tt.list()
			if err != nil {
				t.Fatalf("list error = %v", err)
			}
			got := make([]string, 0, len(runs))
			for _, r := range runs {
				if r.Findings != nil {
					t.Errorf("List should not load findings for %s", r.ID)
				}
				got = append(got, r.ID)
			}
			if diff := cmp.Diff(tt.wantIDs, got); diff != "" {
				t.Errorf("IDs mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
