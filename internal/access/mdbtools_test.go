package access

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mdbport/mdbport/internal/schema"
)

const sampleDDL = `-- ----------------------------------------------------------
-- MDB Tools - A library for reading MS Access database files
-- ----------------------------------------------------------

CREATE TABLE "Employees"
 (
	"EmployeeID"			INTEGER NOT NULL,
	"Full Name"			varchar (100),
	"Salary"			Currency,
	"Hired"			DateTime,
	"Rating"			REAL,
	"Photo"			BLOB
);
`

func TestParseSchemaDDL(t *testing.T) {
	descs := parseSchemaDDL(sampleDDL)
	require.Len(t, descs, 6)

	assert.Equal(t, "EmployeeID", descs[0].Name)
	assert.Equal(t, "INTEGER", descs[0].SourceType)
	assert.False(t, descs[0].Nullable)

	assert.Equal(t, "Full Name", descs[1].Name)
	assert.Equal(t, "varchar", descs[1].SourceType)
	assert.True(t, descs[1].Nullable)

	assert.Equal(t, "Salary", descs[2].Name)
	assert.Equal(t, "Currency", descs[2].SourceType)

	assert.Equal(t, "Hired", descs[3].Name)
	assert.Equal(t, "DateTime", descs[3].SourceType)

	assert.Equal(t, "Rating", descs[4].Name)
	assert.Equal(t, "REAL", descs[4].SourceType)

	assert.Equal(t, "Photo", descs[5].Name)
	assert.Equal(t, "BLOB", descs[5].SourceType)
}

// The schema backend emits target-dialect types; mapping the parsed
// descriptors must keep their affinity instead of degrading them to TEXT.
func TestParseSchemaDDLMapsWithoutDegradation(t *testing.T) {
	cols := schema.MapColumns(parseSchemaDDL(sampleDDL))
	require.Len(t, cols, 6)
	assert.Equal(t, schema.TypeInteger, cols[0].Type)
	assert.Equal(t, schema.TypeText, cols[1].Type)
	assert.Equal(t, schema.TypeNumeric, cols[2].Type)
	assert.Equal(t, schema.TypeDatetime, cols[3].Type)
	assert.Equal(t, schema.TypeReal, cols[4].Type)
	assert.Equal(t, schema.TypeBlob, cols[5].Type)
}

func TestParseSchemaDDLEmpty(t *testing.T) {
	assert.Empty(t, parseSchemaDDL("-- no table here\n"))
}

func TestSplitStatements(t *testing.T) {
	batch := "INSERT INTO \"T\" (\"a\") VALUES (1);\nINSERT INTO \"T\" (\"a\") VALUES (2);\n\n"
	stmts := splitStatements(batch)
	require.Len(t, stmts, 2)
	assert.Equal(t, `INSERT INTO "T" ("a") VALUES (1)`, stmts[0])
	assert.Equal(t, `INSERT INTO "T" ("a") VALUES (2)`, stmts[1])
}
