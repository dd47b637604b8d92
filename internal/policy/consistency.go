package policy

import (
	"slices"
	"strings"

	"github.com/nerrad567/dabcheck/internal/bundle"
)

// globalEnvironment names the pseudo-environment used when a bundle
// declares variables but no targets.
const globalEnvironment = "global"

// Environment is the merged variable set of one deployment target.
type Environment struct {
	Name      string
	Variables map[string]struct{}
}

// Has reports whether the environment defines the variable.
func (e Environment) Has(name string) bool {
	_, ok := e.Variables[name]
	return ok
}

// EnvironmentVariables extracts the variable set of every target in a
// top-level bundle document. Global variables are merged into each
// target; a target's own variables win on conflict. Environments keep the
// order targets are declared in.
func EnvironmentVariables(root bundle.Node) []Environment {
	globals := root.Get("variables").Keys()

	var envs []Environment
	for _, target := range root.Get("targets").Entries() {
		vars := make(map[string]struct{}, len(globals))
		for _, name := range globals {
			vars[name] = struct{}{}
		}
		for _, name := range target.Value.Get("variables").Keys() {
			vars[name] = struct{}{}
		}
		envs = append(envs, Environment{Name: target.Key, Variables: vars})
	}

	if len(envs) == 0 && len(globals) > 0 {
		vars := make(map[string]struct{}, len(globals))
		for _, name := range globals {
			vars[name] = struct{}{}
		}
		envs = append(envs, Environment{Name: globalEnvironment, Variables: vars})
	}

	return envs
}

// CheckEnvironmentConsistency warns about every variable that is defined
// in some environments but not all. With fewer than two environments
// there is nothing to compare and no findings are produced.
func CheckEnvironmentConsistency(root bundle.Node, file string) []Finding {
	envs := EnvironmentVariables(root)
	if len(envs) < 2 {
		return nil
	}

	union := make(map[string]struct{})
	for _, env := range envs {
		for name := range env.Variables {
			union[name] = struct{}{}
		}
	}
	names := make([]string, 0, len(union))
	for name := range union {
		names = append(names, name)
	}
	slices.Sort(names)

	var findings []Finding
	for _, name := range names {
		var missing []string
		for _, env := range envs {
			if !env.Has(name) {
				missing = append(missing, env.Name)
			}
		}
		if len(missing) == 0 {
			continue
		}
		findings = append(findings, newFinding(SeverityWarning, RuleEnvironmentConsistency, file, "variables."+name,
			"Environment consistency: Variable '%s' missing in environments: [%s]", name, strings.Join(missing, ", ")))
	}

	return findings
}
