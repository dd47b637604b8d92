package policy

import (
	"regexp"
	"slices"
	"strings"

	"github.com/nerrad567/dabcheck/internal/bundle"
)

// Rule identifiers carried by findings.
const (
	RuleLoad                   = "load"
	RuleVariableUsage          = "variable-usage"
	RuleJobName                = "job-name"
	RuleEnvironmentReference   = "environment-reference"
	RuleClusterKey             = "cluster-key"
	RuleRequiredTags           = "required-tags"
	RuleHardcodedSecret        = "hardcoded-secret"
	RuleNotebookPath           = "notebook-path"
	RuleMaxConcurrentRuns      = "max-concurrent-runs"
	RuleWorkerCount            = "worker-count"
	RuleNodeType               = "node-type"
	RuleFailureNotifications   = "failure-notifications"
	RuleTimeout                = "timeout"
	RuleRetryOnTimeout         = "retry-on-timeout"
	RuleEnvironmentConsistency = "environment-consistency"
)

// Policy limits.
const (
	// variableSentinel marks a late-bound variable reference.
	variableSentinel = "${"

	// environmentReference must appear in every job display name.
	environmentReference = "${bundle.environment}"

	maxConcurrentRunsLimit   = 5
	defaultMaxConcurrentRuns = 1
	maxWorkers               = 10
)

var (
	requiredTags = []string{"cost_center", "environment", "team"}

	sensitiveFields = map[string]struct{}{
		"existing_cluster_id": {},
		"instance_pool_id":    {},
		"warehouse_id":        {},
		"catalog":             {},
		"schema":              {},
		"volume":              {},
		"storage_location":    {},
	}

	nonStandardNotebookDirs = []string{"/tmp/", "/personal/"}

	jobNameRegex    = regexp.MustCompile(`^[A-Z][a-zA-Z0-9_]*`)
	clusterKeyRegex = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)
)

// secretPattern is a named, case-insensitive hardcoded-secret matcher.
type secretPattern struct {
	name string
	re   *regexp.Regexp
}

// secretPatterns match a quoted literal assigned to a key whose name
// contains password, secret, token or key.
var secretPatterns = []secretPattern{
	{name: "password", re: regexp.MustCompile(`(?i)passwords?\s*[:=]\s*['"][^'"]+['"]`)},
	{name: "secret", re: regexp.MustCompile(`(?i)secrets?\s*[:=]\s*['"][^'"]+['"]`)},
	{name: "token", re: regexp.MustCompile(`(?i)tokens?\s*[:=]\s*['"][^'"]+['"]`)},
	{name: "key", re: regexp.MustCompile(`(?i)keys?\s*[:=]\s*['"][^'"]+['"]`)},
}

// RequiredTags returns the tag names every job must carry.
func RequiredTags() []string {
	return slices.Clone(requiredTags)
}

// SensitiveFields returns the field names that must hold variable references,
// sorted.
func SensitiveFields() []string {
	fields := make([]string, 0, len(sensitiveFields))
	for f := range sensitiveFields {
		fields = append(fields, f)
	}
	slices.Sort(fields)
	return fields
}

// isVariableReference reports whether s is a late-bound ${...} reference.
func isVariableReference(s string) bool {
	return strings.HasPrefix(s, variableSentinel)
}

// job is one entry of resources.jobs.
type job struct {
	name string
	def  bundle.Node
}

// jobsOf returns the job entries of a resource document.
// Entries whose definition is not a mapping are skipped.
func jobsOf(root bundle.Node) []job {
	entries := root.Get("resources").Get("jobs").Entries()
	jobs := make([]job, 0, len(entries))
	for _, e := range entries {
		if !e.Value.IsMapping() {
			continue
		}
		jobs = append(jobs, job{name: e.Key, def: e.Value})
	}
	return jobs
}
