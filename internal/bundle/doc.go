// Package bundle loads deployment-bundle YAML documents into a read-only tree.
//
// A bundle is a databricks.yml file plus job definitions under resources/.
// This package does not know anything about the bundle schema; it only
// exposes the parsed document through Node, a small tagged view over
// gopkg.in/yaml.v3 nodes with mapping, sequence and scalar accessors.
//
// Lookups never fail. Asking a scalar for a key, or a missing value for its
// items, returns a zero Node, so rule code can walk paths such as
// resources.jobs.<name>.job_clusters[*].new_cluster without type switches.
//
// # Usage
//
//	root, err := bundle.Load("resources/etl.yml")
//	if err != nil {
//	    return err // wraps bundle.ErrLoad
//	}
//	for _, job := range root.Get("resources").Get("jobs").Entries() {
//	    fmt.Println(job.Key, job.Value.Get("name").Text())
//	}
package bundle
