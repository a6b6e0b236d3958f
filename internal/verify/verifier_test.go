package verify

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mdbport/mdbport/internal/sqlite"
)

// buildDB creates a temp database, applies the statements, and returns its
// snapshot.
func buildDB(t *testing.T, name string, stmts ...string) *SchemaSnapshot {
	t.Helper()
	store, err := sqlite.Open(filepath.Join(t.TempDir(), name))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	for _, stmt := range stmts {
		_, err := store.Pool.Exec(stmt)
		require.NoError(t, err)
	}
	snap, err := Snapshot(context.Background(), store)
	require.NoError(t, err)
	return snap
}

func findingsBySeverity(r *Report, severity string) []Finding {
	var out []Finding
	for _, f := range r.Findings {
		if f.Severity == severity {
			out = append(out, f)
		}
	}
	return out
}

func TestCompareIdenticalDatabases(t *testing.T) {
	stmts := []string{
		`CREATE TABLE "Employees" ("EmployeeID" INTEGER NOT NULL PRIMARY KEY, "Name" TEXT)`,
		`INSERT INTO "Employees" VALUES (1, 'Ada'), (2, 'Grace')`,
	}
	ref := buildDB(t, "ref.db", stmts...)
	cand := buildDB(t, "cand.db", stmts...)

	report := Compare(ref, cand)
	assert.True(t, report.Passed())
	assert.Empty(t, report.Findings)
}

// Table-set comparison is directional: an extra candidate table is a warning,
// but the reverse comparison reports the same table as fatally missing.
func TestCompareDirectionalTableSets(t *testing.T) {
	a := buildDB(t, "a.db",
		`CREATE TABLE "Orders" ("ID" INTEGER)`)
	b := buildDB(t, "b.db",
		`CREATE TABLE "Orders" ("ID" INTEGER)`,
		`CREATE TABLE "AuditLog" ("ID" INTEGER)`)

	forward := Compare(a, b)
	assert.True(t, forward.Passed())
	assert.Equal(t, 0, forward.Fatals())
	assert.Equal(t, 1, forward.Warnings())
	assert.Equal(t, 1, forward.ExtraTables)

	backward := Compare(b, a)
	assert.False(t, backward.Passed())
	assert.Equal(t, 1, backward.Fatals())
	assert.Equal(t, 1, backward.MissingTables)
}

func TestCompareCaseInsensitiveNames(t *testing.T) {
	ref := buildDB(t, "ref.db",
		`CREATE TABLE "orders" ("id" INTEGER, "total" NUMERIC)`)
	cand := buildDB(t, "cand.db",
		`CREATE TABLE "Orders" ("ID" INTEGER, "Total" NUMERIC)`)

	report := Compare(ref, cand)
	assert.True(t, report.Passed())
	assert.Empty(t, findingsBySeverity(report, SeverityFatal))
}

func TestCompareDeclaredTypeMismatch(t *testing.T) {
	// "integer" vs "INTEGER" folds equal; "int" is a different declared type.
	ref := buildDB(t, "ref.db",
		`CREATE TABLE "T" ("a" integer, "b" integer)`)
	cand := buildDB(t, "cand.db",
		`CREATE TABLE "T" ("a" INTEGER, "b" int)`)

	report := Compare(ref, cand)
	assert.False(t, report.Passed())
	assert.Equal(t, 1, report.Fatals())
	assert.Equal(t, 1, report.SchemaMismatches)

	fatal := findingsBySeverity(report, SeverityFatal)[0]
	assert.Equal(t, "b", fatal.Column)
	assert.Contains(t, fatal.Message, "reference")
	assert.Contains(t, fatal.Message, "candidate")
}

func TestCompareMissingAndExtraColumns(t *testing.T) {
	ref := buildDB(t, "ref.db",
		`CREATE TABLE "T" ("a" INTEGER, "b" TEXT)`)
	cand := buildDB(t, "cand.db",
		`CREATE TABLE "T" ("a" INTEGER, "c" TEXT)`)

	report := Compare(ref, cand)
	assert.False(t, report.Passed())
	assert.Equal(t, 1, report.Fatals())
	assert.Equal(t, 1, report.Warnings())
}

func TestCompareNotNullAndPrimaryKeyFlags(t *testing.T) {
	ref := buildDB(t, "ref.db",
		`CREATE TABLE "T" ("a" INTEGER NOT NULL, "b" TEXT)`)
	cand := buildDB(t, "cand.db",
		`CREATE TABLE "T" ("a" INTEGER, "b" TEXT)`)

	report := Compare(ref, cand)
	assert.False(t, report.Passed())
	assert.Equal(t, 1, report.SchemaMismatches)
}

// Reference Employees has 5 rows, candidate has 4: exactly one fatal
// row-count finding and no schema findings.
func TestCompareRowCountScenario(t *testing.T) {
	ref := buildDB(t, "ref.db",
		`CREATE TABLE "Employees" ("EmployeeID" INTEGER NOT NULL PRIMARY KEY, "Name" TEXT)`,
		`INSERT INTO "Employees" VALUES (1,'a'),(2,'b'),(3,'c'),(4,'d'),(5,'e')`)
	cand := buildDB(t, "cand.db",
		`CREATE TABLE "Employees" ("EmployeeID" INTEGER NOT NULL PRIMARY KEY, "Name" TEXT)`,
		`INSERT INTO "Employees" VALUES (1,'a'),(2,'b'),(3,'c'),(4,'d')`)

	report := Compare(ref, cand)
	assert.False(t, report.Passed())
	assert.Equal(t, 1, report.Fatals())
	assert.Equal(t, 0, report.SchemaMismatches)
	assert.Equal(t, 1, report.RowCountMismatches)

	fatal := findingsBySeverity(report, SeverityFatal)[0]
	assert.Equal(t, "Employees", fatal.Table)
	assert.Contains(t, fatal.Message, "reference=5")
	assert.Contains(t, fatal.Message, "candidate=4")
}

func TestCompareWarningsNeverFailVerdict(t *testing.T) {
	ref := buildDB(t, "ref.db",
		`CREATE TABLE "T" ("a" INTEGER)`)
	cand := buildDB(t, "cand.db",
		`CREATE TABLE "T" ("a" INTEGER, "extra" TEXT)`,
		`CREATE TABLE "SystemInfo" ("k" TEXT)`)

	report := Compare(ref, cand)
	assert.True(t, report.Passed())
	assert.Equal(t, 2, report.Warnings())
}

func TestSnapshotRowCount(t *testing.T) {
	snap := buildDB(t, "db.db",
		`CREATE TABLE "T" ("a" INTEGER)`,
		`INSERT INTO "T" VALUES (1),(2),(3)`)

	count, ok := snap.RowCount("t")
	assert.True(t, ok)
	assert.Equal(t, int64(3), count)

	_, ok = snap.RowCount("missing")
	assert.False(t, ok)
}
