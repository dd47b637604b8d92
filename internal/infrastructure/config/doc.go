// Package config handles loading and validating dabcheck configuration.
//
// This package manages:
//   - Loading configuration from an optional YAML file
//   - Overriding with environment variables
//   - Validation of required fields
//   - Default value handling
//
// The configuration covers the tool itself (logging, report location, run
// history, telemetry). The compliance policy is deliberately not part of it:
// required tags, sensitive fields and secret patterns are fixed in package
// policy.
//
// Security Considerations:
//   - Broker passwords and InfluxDB tokens should be set via environment variables
//
// Usage:
//
//	cfg, err := config.Load("dabcheck.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Report.Directory)
package config
