package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/minorm/internal/compiler"
	"github.com/roach88/minorm/internal/schema"
)

// Scenario defines a record lifecycle test.
// Scenarios declare one record type, run a sequence of mapper operations
// against a fresh store and check what each operation returns.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Driver selects the store engine: "sqlite3" (default) or "duckdb".
	Driver string `yaml:"driver,omitempty"`

	// Schema declares the record type inline.
	Schema *SchemaDecl `yaml:"schema,omitempty"`

	// SchemaFile points at a CUE file declaring records; Record picks one.
	// The path is relative to the scenario file.
	SchemaFile string `yaml:"schema_file,omitempty"`
	Record     string `yaml:"record,omitempty"`

	// Keys are handed out in order to inserts with an empty text Id.
	// Without keys, empty Ids are inserted as they are.
	Keys []string `yaml:"keys,omitempty"`

	// Steps run in order against one open store.
	Steps []Step `yaml:"steps"`
}

// SchemaDecl is an inline record declaration.
type SchemaDecl struct {
	Name   string          `yaml:"name"`
	Fields []schema.Column `yaml:"fields"`
}

// Step is one mapper operation.
type Step struct {
	// Op is one of the Op* constants.
	Op string `yaml:"op"`

	// Record is the record passed to insert, update and delete.
	Record map[string]any `yaml:"record,omitempty"`

	// ExpectRows lists the rows get_all must return, in order. Each expected
	// row is a subset match: columns it omits are not compared.
	ExpectRows []map[string]any `yaml:"expect_rows,omitempty"`

	// ExpectError is the error code the step must fail with.
	ExpectError schema.ErrorCode `yaml:"expect_error,omitempty"`
}

// Step operations.
const (
	OpEnsure = "ensure"
	OpInsert = "insert"
	OpGetAll = "get_all"
	OpUpdate = "update"
	OpDelete = "delete"
	OpDrop   = "drop"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
// A relative schema_file is resolved against the scenario's directory.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	if scenario.SchemaFile != "" && !filepath.IsAbs(scenario.SchemaFile) {
		scenario.SchemaFile = filepath.Join(filepath.Dir(path), scenario.SchemaFile)
	}
	if scenario.SchemaFile != "" {
		if _, err := os.Stat(scenario.SchemaFile); err != nil {
			return nil, fmt.Errorf("invalid scenario: schema file not found: %s", scenario.SchemaFile)
		}
	}
	return scenario, nil
}

// ParseScenario decodes and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "expect_row:" vs "expect_rows:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// Descriptor builds the scenario's record descriptor.
func (s *Scenario) Descriptor() (*schema.Descriptor[schema.Record], error) {
	if s.Schema != nil {
		return schema.Dynamic(s.Schema.Name, s.Schema.Fields)
	}
	descs, err := compiler.LoadFile(s.SchemaFile)
	if err != nil {
		return nil, err
	}
	return compiler.Find(descs, s.Record)
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	switch {
	case s.Schema != nil && s.SchemaFile != "":
		return fmt.Errorf("schema and schema_file are mutually exclusive")
	case s.Schema == nil && s.SchemaFile == "":
		return fmt.Errorf("schema or schema_file is required")
	case s.SchemaFile != "" && s.Record == "":
		return fmt.Errorf("record is required with schema_file")
	case s.Schema != nil && s.Record != "":
		return fmt.Errorf("record is only valid with schema_file")
	}

	switch s.Driver {
	case "", "sqlite3", "duckdb":
	default:
		return fmt.Errorf("unknown driver %q", s.Driver)
	}

	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if err := validateStep(i, &step); err != nil {
			return err
		}
	}
	return nil
}

// validateStep validates a single step based on its op.
func validateStep(index int, st *Step) error {
	switch st.Op {
	case "":
		return fmt.Errorf("steps[%d]: op is required", index)
	case OpInsert, OpUpdate, OpDelete:
		if st.Record == nil {
			return fmt.Errorf("steps[%d]: record is required for %s", index, st.Op)
		}
	case OpEnsure, OpGetAll, OpDrop:
		if st.Record != nil {
			return fmt.Errorf("steps[%d]: record is not valid for %s", index, st.Op)
		}
	default:
		return fmt.Errorf("steps[%d]: unknown op %q", index, st.Op)
	}

	if st.ExpectRows != nil && st.Op != OpGetAll {
		return fmt.Errorf("steps[%d]: expect_rows is only valid for get_all", index)
	}
	if st.ExpectRows != nil && st.ExpectError != "" {
		return fmt.Errorf("steps[%d]: expect_rows and expect_error are mutually exclusive", index)
	}
	return nil
}
