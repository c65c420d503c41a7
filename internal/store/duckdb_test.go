package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/minorm/internal/schema"
)

func TestDuckDB_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, Config{Driver: DriverDuckDB, Logger: discard})
	require.NoError(t, err)
	defer s.Close()

	exists, err := s.TableExists(ctx, "Person")
	require.NoError(t, err)
	assert.False(t, exists)

	mustExec(t, s, "CREATE TABLE Person (Id Text, Age Int, Name Text, Height FLOAT, Active Bool)")
	mustExec(t, s, "INSERT INTO Person VALUES ('0001', '21', 'zhangsan', '179.5', 'true')")

	exists, err = s.TableExists(ctx, "person")
	require.NoError(t, err)
	assert.True(t, exists)

	cols, rows := collect(t, s, "SELECT * FROM Person")
	assert.Equal(t, []string{"Id", "Age", "Name", "Height", "Active"}, cols)
	require.Len(t, rows, 1)

	row := rows[0]
	id, err := schema.FromStoreValue(schema.Text, row[0])
	require.NoError(t, err)
	assert.Equal(t, "0001", id)

	age, err := schema.FromStoreValue(schema.Integer, row[1])
	require.NoError(t, err)
	assert.Equal(t, int64(21), age)

	// FLOAT is single precision in DuckDB.
	height, err := schema.FromStoreValue(schema.FloatingPoint, row[3])
	require.NoError(t, err)
	assert.InDelta(t, 179.5, height, 1e-4)

	active, err := schema.FromStoreValue(schema.Boolean, row[4])
	require.NoError(t, err)
	assert.Equal(t, true, active)

	mustExec(t, s, "DROP TABLE Person")
	exists, err = s.TableExists(ctx, "Person")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestDuckDB_StatementError(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, Config{Driver: DriverDuckDB, Logger: discard})
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Execute(ctx, "SELECT * FROM Nowhere")
	assert.True(t, schema.IsCode(err, schema.ErrCodeStatement))
	assert.Equal(t, StateOpen, s.State())
}
