// Package policy is the rule engine of dabcheck.
//
// It evaluates deployment-bundle documents against a fixed organisational
// policy and buckets the results into three severities:
//
//   - error:      policy violations (hardcoded sensitive fields, missing
//     required tags, hardcoded secrets, unloadable documents). Always fail.
//   - warning:    recommendations (naming, environment reference, cluster
//     key casing, scratch notebook paths, concurrency, cross-environment
//     variable gaps). Fail only in strict mode.
//   - suggestion: advisory cost and best-practice heuristics. Never fail.
//
// The severity of each rule is part of the policy and is not configurable.
//
// Architecture:
//
//	┌────────────────────────────────────────────────────────┐
//	│                Validator (validator.go)                 │
//	│  1. databricks.yml ──▶ CheckEnvironmentConsistency      │
//	│  2. resources/**/*.yml|yaml (lexical order)             │
//	│  3. per file: bundle.Load ──▶ Checks() in order:        │
//	│       variable-usage, naming, required-tags,            │
//	│       security, cost, best-practices                    │
//	│  4. findings appended to one Report                     │
//	└────────────────────────────────────────────────────────┘
//
// Every check is a pure function of (tree, file) returning findings, so
// each rule can be tested on an inline YAML snippet without touching the
// filesystem.
//
// # Usage
//
//	v := policy.NewValidator(projectPath)
//	report, err := v.Validate(ctx)
//	if err != nil {
//	    return err
//	}
//	os.Exit(policy.ExitCode(report, strict))
package policy
