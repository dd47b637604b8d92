package bundle

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const sampleJob = `
resources:
  jobs:
    Daily_Etl:
      name: "etl-${bundle.environment}"
      max_concurrent_runs: 3
      num_workers: "15"
      ratio: 0.5
      retry_on_timeout: false
      timeout_seconds: null
      tags: &tags
        team: data
      job_clusters:
        - job_cluster_key: main
        - job_cluster_key: aux
      copy_of_tags: *tags
`

func mustParse(t *testing.T, src string) Node {
	t.Helper()
	root, err := Parse([]byte(src))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	return root
}

func TestNode_Navigation(t *testing.T) {
	root := mustParse(t, sampleJob)
	job := root.Get("resources").Get("jobs").Get("Daily_Etl")

	if !job.IsMapping() {
		t.Fatalf("job kind = %v, want mapping", job.Kind())
	}

	if got, ok := job.Get("name").Str(); !ok || got != "etl-${bundle.environment}" {
		t.Errorf("name = %q, %v", got, ok)
	}

	if got, ok := job.Get("max_concurrent_runs").Int(); !ok || got != 3 {
		t.Errorf("max_concurrent_runs = %d, %v; want 3, true", got, ok)
	}

	clusters := job.Get("job_clusters").Items()
	if len(clusters) != 2 {
		t.Fatalf("len(job_clusters) = %d, want 2", len(clusters))
	}
	if got := clusters[1].Get("job_cluster_key").Text(); got != "aux" {
		t.Errorf("job_clusters[1].job_cluster_key = %q, want aux", got)
	}
}

func TestNode_MissingChains(t *testing.T) {
	root := mustParse(t, sampleJob)

	missing := root.Get("nope").Get("deeper").Get("still")
	if missing.Exists() {
		t.Error("missing chain should not exist")
	}
	if missing.Items() != nil || missing.Entries() != nil {
		t.Error("missing node should have no items or entries")
	}
	if _, ok := missing.Str(); ok {
		t.Error("missing node should not be a string")
	}

	// Indexing into a scalar is also just missing
	scalar := root.Get("resources").Get("jobs").Get("Daily_Etl").Get("name")
	if scalar.Get("anything").Exists() {
		t.Error("Get on scalar should return missing node")
	}
}

func TestNode_ScalarTyping(t *testing.T) {
	job := mustParse(t, sampleJob).Get("resources").Get("jobs").Get("Daily_Etl")

	tests := []struct {
		key      string
		isString bool
		kind     Kind
	}{
		{key: "name", isString: true, kind: KindScalar},
		{key: "num_workers", isString: true, kind: KindScalar},
		{key: "max_concurrent_runs", isString: false, kind: KindScalar},
		{key: "ratio", isString: false, kind: KindScalar},
		{key: "retry_on_timeout", isString: false, kind: KindScalar},
		{key: "timeout_seconds", isString: false, kind: KindNull},
		{key: "tags", isString: false, kind: KindMapping},
		{key: "absent", isString: false, kind: KindMissing},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			n := job.Get(tt.key)
			if n.Kind() != tt.kind {
				t.Errorf("Kind() = %v, want %v", n.Kind(), tt.kind)
			}
			if n.IsString() != tt.isString {
				t.Errorf("IsString() = %v, want %v", n.IsString(), tt.isString)
			}
		})
	}

	if !job.Has("timeout_seconds") {
		t.Error("Has() should be true for explicit null")
	}
	if job.Has("absent") {
		t.Error("Has() should be false for absent key")
	}
	if v, ok := job.Get("ratio").Number(); !ok || v != 0.5 {
		t.Errorf("ratio Number() = %v, %v", v, ok)
	}
}

func TestNode_AliasesResolve(t *testing.T) {
	job := mustParse(t, sampleJob).Get("resources").Get("jobs").Get("Daily_Etl")

	if got := job.Get("copy_of_tags").Get("team").Text(); got != "data" {
		t.Errorf("aliased tags team = %q, want data", got)
	}
}

func TestNode_EntriesKeepDocumentOrder(t *testing.T) {
	root := mustParse(t, "zeta: 1\nalpha: 2\nmid: 3\n")

	want := []string{"zeta", "alpha", "mid"}
	if diff := cmp.Diff(want, root.Keys()); diff != "" {
		t.Errorf("Keys() mismatch (-want +got):\n%s", diff)
	}
}

func TestNode_Truthy(t *testing.T) {
	root := mustParse(t, `
empty_list: []
list: [a]
empty_map: {}
zero: 0
one: 1
no: false
yes: true
blank: ""
word: x
nothing: null
`)

	tests := map[string]bool{
		"empty_list": false,
		"list":       true,
		"empty_map":  false,
		"zero":       false,
		"one":        true,
		"no":         false,
		"yes":        true,
		"blank":      false,
		"word":       true,
		"nothing":    false,
		"absent":     false,
	}

	for key, want := range tests {
		if got := root.Get(key).Truthy(); got != want {
			t.Errorf("%s.Truthy() = %v, want %v", key, got, want)
		}
	}
}

func TestNode_EncodeKeepsQuoting(t *testing.T) {
	root := mustParse(t, "db:\n  password: \"hunter2\"\n  user: admin\n")

	text, err := root.Encode()
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if !strings.Contains(text, `password: "hunter2"`) {
		t.Errorf("Encode() lost quoting: %q", text)
	}
	if strings.Contains(text, `"admin"`) {
		t.Errorf("Encode() added quoting to a plain scalar: %q", text)
	}
}

const mergedJobs = `
x-defaults: &defaults
  timeout_seconds: 3600
  tags:
    team: data
x-owner: &owner
  tags:
    team: platform
  owner: ops
jobs:
  Single:
    <<: *defaults
    name: single
  Override:
    <<: *defaults
    timeout_seconds: 60
  Many:
    <<: [*owner, *defaults]
    name: many
`

func TestNode_MergeKeys(t *testing.T) {
	jobs := mustParse(t, mergedJobs).Get("jobs")

	single := jobs.Get("Single")
	if diff := cmp.Diff([]string{"timeout_seconds", "tags", "name"}, single.Keys()); diff != "" {
		t.Errorf("Single keys mismatch (-want +got):\n%s", diff)
	}
	if got := single.Get("tags").Get("team").Text(); got != "data" {
		t.Errorf("merged tags.team = %q, want data", got)
	}
	if single.Has("<<") {
		t.Error("merge key should not be visible as a key")
	}
	if single.Len() != 3 {
		t.Errorf("Len() = %d, want 3", single.Len())
	}

	if v, _ := jobs.Get("Override").Get("timeout_seconds").Int(); v != 60 {
		t.Errorf("explicit key should override merged value, got %d", v)
	}

	many := jobs.Get("Many")
	if got := many.Get("tags").Get("team").Text(); got != "platform" {
		t.Errorf("first merge source should win, tags.team = %q", got)
	}
	if !many.Has("owner") || !many.Has("timeout_seconds") {
		t.Errorf("Many keys = %v, want keys from both sources", many.Keys())
	}
}

func TestNode_DuplicateKeysLastValueWins(t *testing.T) {
	root := mustParse(t, "catalog: a\nother: 1\ncatalog: b\n")

	entries := root.Entries()
	if len(entries) != 2 {
		t.Fatalf("Entries() = %d pairs, want 2", len(entries))
	}
	if entries[0].Key != "catalog" || entries[0].Value.Text() != "b" {
		t.Errorf("Entries()[0] = %s: %q, want catalog: b", entries[0].Key, entries[0].Value.Text())
	}
	if got := root.Get("catalog").Text(); got != "b" {
		t.Errorf("Get(catalog) = %q, want b", got)
	}
}

func TestNode_EncodeDropsCommentsAndExpandsAliases(t *testing.T) {
	root := mustParse(t, `# Set the api_token: "<your token>" via a secret scope
base: &b
  team: data # owner: "someone"
copy:
  <<: *b
  name: x
# trailing note
`)

	text, err := root.Encode()
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	for _, unwanted := range []string{"#", "api_token", "&b", "*b", "<<"} {
		if strings.Contains(text, unwanted) {
			t.Errorf("Encode() output contains %q:\n%s", unwanted, text)
		}
	}
	if !strings.Contains(text, "copy:\n  team: data\n  name: x\n") {
		t.Errorf("Encode() did not expand the merge:\n%s", text)
	}
}
