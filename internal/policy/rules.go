package policy

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/nerrad567/dabcheck/internal/bundle"
)

// Check evaluates one rule family against a parsed resource document.
// Checks are pure: they read the tree and return findings, never errors.
// A subtree of an unexpected shape is treated as not applicable.
type Check struct {
	Name string
	Run  func(root bundle.Node, file string) []Finding
}

// Checks returns the per-file rule families in evaluation order.
func Checks() []Check {
	return []Check{
		{Name: "variable-usage", Run: CheckVariableUsage},
		{Name: "naming", Run: CheckNamingConventions},
		{Name: "required-tags", Run: CheckRequiredTags},
		{Name: "security", Run: CheckSecurityCompliance},
		{Name: "cost", Run: CheckCostOptimization},
		{Name: "best-practices", Run: CheckBestPractices},
	}
}

// CheckVariableUsage reports sensitive fields holding hardcoded strings
// instead of ${...} variable references, anywhere in the document.
func CheckVariableUsage(root bundle.Node, file string) []Finding {
	var findings []Finding

	var walk func(n bundle.Node, path string)
	walk = func(n bundle.Node, path string) {
		switch {
		case n.IsMapping():
			for _, e := range n.Entries() {
				current := e.Key
				if path != "" {
					current = path + "." + e.Key
				}

				if _, sensitive := sensitiveFields[e.Key]; sensitive {
					if v, ok := e.Value.Str(); ok && !isVariableReference(v) {
						findings = append(findings, newFinding(SeverityError, RuleVariableUsage, file, current,
							"Policy violation: '%s' in %s must use variables, not hardcoded value '%s'",
							current, file, v))
					}
				}

				walk(e.Value, current)
			}
		case n.IsSequence():
			for i, item := range n.Items() {
				walk(item, fmt.Sprintf("%s[%d]", path, i))
			}
		}
	}
	walk(root, "")

	return findings
}

// CheckNamingConventions reports job keys not starting with a capital
// letter, display names without the environment reference and job cluster
// keys that are not lower snake case.
func CheckNamingConventions(root bundle.Node, file string) []Finding {
	var findings []Finding

	for _, j := range jobsOf(root) {
		jobPath := "resources.jobs." + j.name

		if !jobNameRegex.MatchString(j.name) {
			findings = append(findings, newFinding(SeverityWarning, RuleJobName, file, jobPath,
				"Naming convention: Job '%s' in %s should start with capital letter", j.name, file))
		}

		if !strings.Contains(j.def.Get("name").Text(), environmentReference) {
			findings = append(findings, newFinding(SeverityWarning, RuleEnvironmentReference, file, jobPath+".name",
				"Best practice: Job '%s' name should include environment reference", j.name))
		}

		for i, cluster := range j.def.Get("job_clusters").Items() {
			key := cluster.Get("job_cluster_key").Text()
			if key == "" || clusterKeyRegex.MatchString(key) {
				continue
			}
			findings = append(findings, newFinding(SeverityWarning, RuleClusterKey, file,
				fmt.Sprintf("%s.job_clusters[%d].job_cluster_key", jobPath, i),
				"Naming convention: Job cluster key '%s' should use lowercase with underscores", key))
		}
	}

	return findings
}

// CheckRequiredTags reports jobs missing any required tag. Job tags are
// merged with the custom_tags of every job cluster before comparing.
func CheckRequiredTags(root bundle.Node, file string) []Finding {
	var findings []Finding

	for _, j := range jobsOf(root) {
		present := make(map[string]struct{})
		for _, k := range j.def.Get("tags").Keys() {
			present[k] = struct{}{}
		}
		for _, cluster := range j.def.Get("job_clusters").Items() {
			for _, k := range cluster.Get("new_cluster").Get("custom_tags").Keys() {
				present[k] = struct{}{}
			}
		}

		var missing []string
		for _, tag := range requiredTags {
			if _, ok := present[tag]; !ok {
				missing = append(missing, tag)
			}
		}
		if len(missing) == 0 {
			continue
		}
		slices.Sort(missing)

		findings = append(findings, newFinding(SeverityError, RuleRequiredTags, file, "resources.jobs."+j.name+".tags",
			"Policy violation: Job '%s' in %s missing required tags: %s",
			j.name, file, strings.Join(missing, ", ")))
	}

	return findings
}

// encodeTree renders a document for the secret scan.
var encodeTree = bundle.Node.Encode

// CheckSecurityCompliance scans the whole document for hardcoded secrets,
// then reports notebooks in scratch locations and jobs allowing too many
// concurrent runs.
//
// The secret scan yields at most one finding per pattern per file, no
// matter how many times the pattern occurs. It reads the resolved tree, so
// comments never match. A document that cannot be serialized gets a
// warning instead of a silent skip.
func CheckSecurityCompliance(root bundle.Node, file string) []Finding {
	var findings []Finding

	if text, err := encodeTree(root); err != nil {
		findings = append(findings, newFinding(SeverityWarning, RuleHardcodedSecret, file, "",
			"Security scan skipped: could not serialize %s for secret scanning: %v", file, err))
	} else {
		for _, p := range secretPatterns {
			if p.re.MatchString(text) {
				findings = append(findings, newFinding(SeverityError, RuleHardcodedSecret, file, "",
					"Security violation: Potential hardcoded secret found in %s (%s pattern)", file, p.name))
			}
		}
	}

	for _, j := range jobsOf(root) {
		jobPath := "resources.jobs." + j.name

		for i, task := range j.def.Get("tasks").Items() {
			notebook := task.Get("notebook_task").Get("notebook_path").Text()
			if !inNonStandardLocation(notebook) {
				continue
			}
			findings = append(findings, newFinding(SeverityWarning, RuleNotebookPath, file,
				fmt.Sprintf("%s.tasks[%d].notebook_task.notebook_path", jobPath, i),
				"Security concern: Notebook path '%s' in job '%s' uses non-standard location", notebook, j.name))
		}

		if runs, ok := maxConcurrentRuns(j.def); ok && runs > maxConcurrentRunsLimit {
			findings = append(findings, newFinding(SeverityWarning, RuleMaxConcurrentRuns, file, jobPath+".max_concurrent_runs",
				"Security policy: Job '%s' max_concurrent_runs (%s) exceeds recommended limit of %d",
				j.name, strconv.FormatFloat(runs, 'f', -1, 64), maxConcurrentRunsLimit))
		}
	}

	return findings
}

func inNonStandardLocation(path string) bool {
	for _, dir := range nonStandardNotebookDirs {
		if strings.Contains(path, dir) {
			return true
		}
	}
	return false
}

// maxConcurrentRuns returns the configured value, or the default when the
// field is absent. Non-numeric values are not applicable.
func maxConcurrentRuns(def bundle.Node) (float64, bool) {
	n := def.Get("max_concurrent_runs")
	if !n.Exists() {
		return defaultMaxConcurrentRuns, true
	}
	return n.Number()
}

// CheckCostOptimization suggests reviewing large clusters and
// parameterizing node types. It only ever produces suggestions.
func CheckCostOptimization(root bundle.Node, file string) []Finding {
	var findings []Finding

	for _, j := range jobsOf(root) {
		for i, cluster := range j.def.Get("job_clusters").Items() {
			spec := cluster.Get("new_cluster")
			specPath := fmt.Sprintf("resources.jobs.%s.job_clusters[%d].new_cluster", j.name, i)

			if workers, ok := workerCount(spec.Get("num_workers")); ok && workers > maxWorkers {
				findings = append(findings, newFinding(SeveritySuggestion, RuleWorkerCount, file, specPath+".num_workers",
					"Cost optimization: Job '%s' cluster has %d workers. Consider if this is necessary for your workload.",
					j.name, workers))
			}

			if nodeType, ok := spec.Get("node_type_id").Str(); ok && !isVariableReference(nodeType) {
				findings = append(findings, newFinding(SeveritySuggestion, RuleNodeType, file, specPath+".node_type_id",
					"Cost optimization: Job '%s' uses hardcoded node_type_id. Consider using variables for easier cost management across environments.",
					j.name))
			}
		}
	}

	return findings
}

// workerCount accepts integers and strings made only of digits.
func workerCount(n bundle.Node) (int64, bool) {
	if v, ok := n.Int(); ok {
		return v, true
	}
	s, ok := n.Str()
	if !ok || s == "" {
		return 0, false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// CheckBestPractices suggests failure notifications, a timeout and an
// explicit retry_on_timeout setting for every job.
func CheckBestPractices(root bundle.Node, file string) []Finding {
	var findings []Finding

	for _, j := range jobsOf(root) {
		jobPath := "resources.jobs." + j.name

		if !j.def.Get("email_notifications").Get("on_failure").Truthy() {
			findings = append(findings, newFinding(SeveritySuggestion, RuleFailureNotifications, file, jobPath+".email_notifications.on_failure",
				"Best practice: Job '%s' should have email notifications for failures", j.name))
		}

		if !j.def.Has("timeout_seconds") {
			findings = append(findings, newFinding(SeveritySuggestion, RuleTimeout, file, jobPath+".timeout_seconds",
				"Best practice: Job '%s' should have timeout_seconds configured", j.name))
		}

		if !j.def.Has("retry_on_timeout") {
			findings = append(findings, newFinding(SeveritySuggestion, RuleRetryOnTimeout, file, jobPath+".retry_on_timeout",
				"Best practice: Job '%s' should consider retry_on_timeout configuration", j.name))
		}
	}

	return findings
}
