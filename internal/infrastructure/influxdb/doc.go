// Package influxdb records validation metrics in InfluxDB v2.
//
// It wraps the official influxdb-client-go v2 library for connection
// management, batched writes and health checks.
//
// # Measurements
//
//	validation_run      tags: project, strict, passed
//	                    fields: files, errors, warnings, suggestions,
//	                            exit_code, duration_ms
//	validation_finding  tags: project, rule, severity
//	                    fields: count
//
// Tags stay low-cardinality: the project tag is the slug of the project
// directory, never a full path.
//
// # Usage
//
//	client, err := influxdb.Connect(ctx, cfg.InfluxDB)
//	if err != nil {
//	    return err
//	}
//	defer client.Close() // flushes pending points
//
//	client.WriteRun(metrics)
//
// # Error Handling
//
// Writes are non-blocking; failures arrive on the SetOnError callback
// wrapped in ErrWriteFailed. Connection and health check errors are
// returned directly.
package influxdb
