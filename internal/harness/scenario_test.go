package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/minorm/internal/schema"
)

func TestLoadScenario_Inline(t *testing.T) {
	s := loadScenario(t, "user_lifecycle")

	assert.Equal(t, "user_lifecycle", s.Name)
	require.NotNil(t, s.Schema)
	assert.Equal(t, "User", s.Schema.Name)
	assert.Equal(t, []schema.Column{
		{Name: "Id", Kind: schema.Text},
		{Name: "Age", Kind: schema.Integer},
		{Name: "Name", Kind: schema.Text},
		{Name: "Height", Kind: schema.FloatingPoint},
	}, s.Schema.Fields)
	require.Len(t, s.Steps, 12)
	assert.Equal(t, schema.ErrCodeUnsafeLiteral, s.Steps[7].ExpectError)
	assert.NotNil(t, s.Steps[9].ExpectRows, "an empty expect_rows list is kept")
	assert.Empty(t, s.Steps[9].ExpectRows)
	assert.Nil(t, s.Steps[8].ExpectRows)
}

func TestLoadScenario_SchemaFileResolved(t *testing.T) {
	s := loadScenario(t, "generated_keys")

	assert.Equal(t, filepath.Join("..", "..", "testdata", "schemas", "user.cue"), s.SchemaFile)
	d, err := s.Descriptor()
	require.NoError(t, err)
	assert.Equal(t, "User", d.Name())
	assert.Len(t, d.Fields(), 4)
}

func TestLoadScenario_MissingSchemaFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "s.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
name: s
description: d
schema_file: nowhere.cue
record: User
steps:
  - op: ensure
`), 0o644))

	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schema file not found")
}

func TestLoadScenario_FileNotFound(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestParseScenario_Invalid(t *testing.T) {
	const header = "name: s\ndescription: d\nschema: {name: T, fields: [{name: Id, kind: text}]}\n"

	testCases := []struct {
		name string
		yaml string
		want string
	}{
		{"unknown field", header + "stepz: []\n", "failed to parse YAML"},
		{"bad kind", "name: s\ndescription: d\nschema: {name: T, fields: [{name: Id, kind: blob}]}\nsteps: [{op: ensure}]\n", "failed to parse YAML"},
		{"missing name", "description: d\nsteps: [{op: ensure}]\n", "name is required"},
		{"missing description", "name: s\nsteps: [{op: ensure}]\n", "description is required"},
		{"missing schema", "name: s\ndescription: d\nsteps: [{op: ensure}]\n", "schema or schema_file is required"},
		{"both schemas", header + "schema_file: x.cue\nrecord: T\nsteps: [{op: ensure}]\n", "mutually exclusive"},
		{"file without record", "name: s\ndescription: d\nschema_file: x.cue\nsteps: [{op: ensure}]\n", "record is required"},
		{"record with inline", header + "record: T\nsteps: [{op: ensure}]\n", "record is only valid"},
		{"bad driver", header + "driver: oracle\nsteps: [{op: ensure}]\n", "unknown driver"},
		{"no steps", header, "steps list is required"},
		{"missing op", header + "steps: [{record: {Id: a}}]\n", "op is required"},
		{"unknown op", header + "steps: [{op: upsert}]\n", "unknown op"},
		{"insert without record", header + "steps: [{op: insert}]\n", "record is required for insert"},
		{"ensure with record", header + "steps: [{op: ensure, record: {Id: a}}]\n", "record is not valid for ensure"},
		{"rows on insert", header + "steps: [{op: insert, record: {Id: a}, expect_rows: []}]\n", "only valid for get_all"},
		{"rows and error", header + "steps: [{op: get_all, expect_rows: [], expect_error: X}]\n", "mutually exclusive"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tc.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}
