package bundle

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	t.Run("valid document", func(t *testing.T) {
		path := writeFile(t, dir, "job.yml", "resources:\n  jobs:\n    Etl: {}\n")

		root, err := Load(path)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if !root.Get("resources").Get("jobs").Has("Etl") {
			t.Error("expected resources.jobs.Etl to be present")
		}
	})

	t.Run("empty file is empty mapping", func(t *testing.T) {
		path := writeFile(t, dir, "empty.yml", "")

		root, err := Load(path)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if !root.IsMapping() || root.Len() != 0 {
			t.Errorf("expected empty mapping, got kind %v len %d", root.Kind(), root.Len())
		}
	})

	t.Run("explicit null document is empty mapping", func(t *testing.T) {
		path := writeFile(t, dir, "null.yml", "~\n")

		root, err := Load(path)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if !root.IsMapping() || root.Len() != 0 {
			t.Errorf("expected empty mapping, got kind %v", root.Kind())
		}
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(dir, "absent.yml"))
		if !errors.Is(err, ErrLoad) {
			t.Fatalf("Load() error = %v, want ErrLoad", err)
		}
		if !errors.Is(err, os.ErrNotExist) {
			t.Errorf("Load() error = %v, want wrapped os.ErrNotExist", err)
		}
	})

	t.Run("malformed yaml", func(t *testing.T) {
		path := writeFile(t, dir, "bad.yml", "resources: [unclosed\n")

		_, err := Load(path)
		if !errors.Is(err, ErrLoad) {
			t.Fatalf("Load() error = %v, want ErrLoad", err)
		}
	})
}

func TestParse_AliasCycleIsLoadError(t *testing.T) {
	_, err := Parse([]byte("loop: &self [a, *self]\n"))
	if !errors.Is(err, ErrLoad) {
		t.Fatalf("Parse() error = %v, want ErrLoad", err)
	}
}

func TestParse_SharedAnchorsAreNotCycles(t *testing.T) {
	root, err := Parse([]byte("base: &b {x: 1}\none: *b\ntwo: *b\nthree: [*b, *b]\n"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if got := root.Get("three").Items()[1].Get("x").Text(); got != "1" {
		t.Errorf("three[1].x = %q, want 1", got)
	}
}
