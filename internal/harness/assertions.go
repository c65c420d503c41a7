package harness

import (
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/roach88/minorm/internal/schema"
)

// floatTolerance absorbs single-precision storage (DuckDB FLOAT) when
// comparing expected floating-point values.
const floatTolerance = 1e-6

// AssertionError is returned when a row expectation fails.
// It includes the actual rows to help debug the failure.
type AssertionError struct {
	Expected string
	Actual   string
	Rows     []schema.Record
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "expected %s, got %s", e.Expected, e.Actual)
	if len(e.Rows) > 0 {
		fmt.Fprintf(&buf, "\nactual rows:\n")
		for i, row := range e.Rows {
			fmt.Fprintf(&buf, "  [%d] %v\n", i+1, map[string]any(row))
		}
	}
	return buf.String()
}

// matchRows checks got against expected, row by row in order. Each expected
// row is a subset match: columns it omits are not compared. Returns "" on
// success.
func matchRows(d *schema.Descriptor[schema.Record], got []schema.Record, expected []map[string]any) string {
	if err := assertRows(d, got, expected); err != nil {
		return err.Error()
	}
	return ""
}

func assertRows(d *schema.Descriptor[schema.Record], got []schema.Record, expected []map[string]any) error {
	if len(got) != len(expected) {
		return &AssertionError{
			Expected: fmt.Sprintf("%d rows", len(expected)),
			Actual:   fmt.Sprintf("%d rows", len(got)),
			Rows:     got,
		}
	}

	for i, want := range expected {
		for col, wantVal := range want {
			f, ok := d.Column(col)
			if !ok {
				return fmt.Errorf("row %d: expected column %q is not declared on %s", i+1, col, d.Name())
			}
			norm, err := schema.FromStoreValue(f.Kind, wantVal)
			if err != nil {
				return fmt.Errorf("row %d: expected %s: %w", i+1, col, err)
			}
			if !valuesEqual(got[i][f.Name], norm) {
				return &AssertionError{
					Expected: fmt.Sprintf("row %d %s=%v", i+1, f.Name, norm),
					Actual:   fmt.Sprintf("%v", got[i][f.Name]),
					Rows:     got,
				}
			}
		}
	}
	return nil
}

// valuesEqual compares two native values for equality.
// Floats compare within floatTolerance, relative to the larger magnitude.
func valuesEqual(actual, expected any) bool {
	if actual == nil && expected == nil {
		return true
	}
	if actual == nil || expected == nil {
		return false
	}

	a, aok := actual.(float64)
	e, eok := expected.(float64)
	if aok && eok {
		if a == e {
			return true
		}
		scale := math.Max(math.Abs(a), math.Abs(e))
		return math.Abs(a-e) <= floatTolerance*math.Max(scale, 1)
	}

	return reflect.DeepEqual(actual, expected)
}
