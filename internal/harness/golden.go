package harness

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// GoldenSubdir is the directory holding golden trace files, a sibling of the
// scenarios directory.
const GoldenSubdir = "golden"

// GoldenDir holds golden trace files, relative to the test's package.
const GoldenDir = "testdata/" + GoldenSubdir

// Snapshot renders a trace as canonical JSON lines: a header line naming the
// scenario, then one line per event.
func Snapshot(name string, trace []TraceEvent) ([]byte, error) {
	var buf bytes.Buffer
	header, err := MarshalCanonical(map[string]any{"scenario_name": name})
	if err != nil {
		return nil, err
	}
	buf.Write(header)
	buf.WriteByte('\n')

	for _, event := range trace {
		line, err := MarshalCanonical(event.toCanonicalMap())
		if err != nil {
			return nil, fmt.Errorf("trace[%d]: %w", event.Seq, err)
		}
		buf.Write(line)
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}

// toCanonicalMap converts an event to a map for canonical JSON serialization.
// Empty optional fields are omitted; rows are kept (possibly empty) for get_all.
func (e TraceEvent) toCanonicalMap() map[string]any {
	m := map[string]any{
		"seq": e.Seq,
		"op":  e.Op,
	}
	if len(e.Statements) > 0 {
		m["statements"] = e.Statements
	}
	if e.Rows != nil {
		rows := make([]any, len(e.Rows))
		for i, r := range e.Rows {
			rows[i] = r
		}
		m["rows"] = rows
	}
	if e.Error != "" {
		m["error"] = e.Error
	}
	return m
}

// RunWithGolden executes a scenario, fails the test on unmet step
// expectations, and compares the trace against testdata/golden/{name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}
	for _, msg := range result.Errors {
		t.Errorf("scenario %s: %s", scenario.Name, msg)
	}
	return AssertGolden(t, scenario.Name, result)
}

// AssertGolden compares an already computed result's trace against a golden file.
func AssertGolden(t *testing.T, name string, result *Result) error {
	t.Helper()

	data, err := Snapshot(name, result.Trace)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir(GoldenDir),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
	return nil
}
