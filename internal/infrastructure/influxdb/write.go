package influxdb

import (
	"strconv"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurement names.
const (
	// MeasurementRun holds one point per validation run.
	MeasurementRun = "validation_run"

	// MeasurementFinding holds one point per (rule, severity) seen in a run.
	MeasurementFinding = "validation_finding"
)

// RunMetrics is the numeric summary of one validation run.
type RunMetrics struct {
	Project  string
	Strict   bool
	Passed   bool
	ExitCode int
	Duration time.Duration
	At       time.Time

	Files       int
	Errors      int
	Warnings    int
	Suggestions int

	// Findings counts findings per rule. Rules with no findings are omitted.
	Findings []FindingCount
}

// FindingCount is the number of findings one rule produced at one severity.
type FindingCount struct {
	Rule     string
	Severity string
	Count    int
}

// WriteRun records a run summary and its per-rule counts.
// The write is non-blocking; call Flush or Close to send it.
func (c *Client) WriteRun(m RunMetrics) {
	if !c.IsConnected() {
		return
	}
	for _, p := range runPoints(m) {
		c.writeAPI.WritePoint(p)
	}
}

// WritePoint writes a custom point timestamped now.
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]any) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(write.NewPoint(measurement, tags, fields, time.Now()))
}

// runPoints builds the points for one run. Tags are low-cardinality
// (project slug, flags, rule id, severity); counts are fields.
func runPoints(m RunMetrics) []*write.Point {
	at := m.At
	if at.IsZero() {
		at = time.Now()
	}

	points := make([]*write.Point, 0, 1+len(m.Findings))
	points = append(points, write.NewPoint(
		MeasurementRun,
		map[string]string{
			"project": m.Project,
			"strict":  strconv.FormatBool(m.Strict),
			"passed":  strconv.FormatBool(m.Passed),
		},
		map[string]any{
			"files":       m.Files,
			"errors":      m.Errors,
			"warnings":    m.Warnings,
			"suggestions": m.Suggestions,
			"exit_code":   m.ExitCode,
			"duration_ms": m.Duration.Milliseconds(),
		},
		at,
	))

	for _, f := range m.Findings {
		if f.Count == 0 {
			continue
		}
		points = append(points, write.NewPoint(
			MeasurementFinding,
			map[string]string{
				"project":  m.Project,
				"rule":     f.Rule,
				"severity": f.Severity,
			},
			map[string]any{"count": f.Count},
			at,
		))
	}

	return points
}
