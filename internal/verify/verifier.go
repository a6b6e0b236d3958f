package verify

import (
	"context"
	"fmt"
	"strings"

	"github.com/mdbport/mdbport/internal/schema"
	"github.com/mdbport/mdbport/internal/sqlite"
)

// Severity of a finding. Fatal findings flip the verdict to failure;
// warnings are informational only.
const (
	SeverityFatal   = "ERROR"
	SeverityWarning = "WARNING"
)

// Finding is one observed difference between the reference and the candidate.
type Finding struct {
	Severity string
	Table    string
	Column   string
	Message  string
}

func (f Finding) String() string {
	loc := f.Table
	if f.Column != "" {
		loc += "." + f.Column
	}
	if loc != "" {
		return fmt.Sprintf("%s [%s]: %s", f.Severity, loc, f.Message)
	}
	return fmt.Sprintf("%s: %s", f.Severity, f.Message)
}

// Report accumulates the findings of one comparison run.
type Report struct {
	Findings []Finding

	MissingTables      int
	ExtraTables        int
	SchemaMismatches   int
	RowCountMismatches int

	fatals   int
	warnings int
}

func (r *Report) fatal(table, column, message string) {
	r.Findings = append(r.Findings, Finding{Severity: SeverityFatal, Table: table, Column: column, Message: message})
	r.fatals++
}

func (r *Report) warn(table, column, message string) {
	r.Findings = append(r.Findings, Finding{Severity: SeverityWarning, Table: table, Column: column, Message: message})
	r.warnings++
}

// Passed reports the overall verdict: success iff no fatal finding was
// recorded in any phase.
func (r *Report) Passed() bool { return r.fatals == 0 }

func (r *Report) Fatals() int   { return r.fatals }
func (r *Report) Warnings() int { return r.warnings }

// tableSnapshot is the per-table slice of a SchemaSnapshot.
type tableSnapshot struct {
	columns  *schema.CaseFoldedIndex
	byFolded map[string]sqlite.ColumnInfo
	rowCount int64
}

// SchemaSnapshot is one database's structure and row counts, captured once at
// the start of a comparison and read-only afterwards. All lookups are keyed
// by folded name; originals are kept for reporting.
type SchemaSnapshot struct {
	tables   *schema.CaseFoldedIndex
	byFolded map[string]*tableSnapshot
}

// Snapshot introspects a database through its own metadata interface.
func Snapshot(ctx context.Context, store *sqlite.Store) (*SchemaSnapshot, error) {
	names, err := store.Tables(ctx)
	if err != nil {
		return nil, err
	}

	snap := &SchemaSnapshot{
		tables:   schema.NewCaseFoldedIndex(names...),
		byFolded: make(map[string]*tableSnapshot, len(names)),
	}
	for _, name := range names {
		cols, err := store.TableInfo(ctx, name)
		if err != nil {
			return nil, err
		}
		count, err := store.RowCount(ctx, name)
		if err != nil {
			return nil, err
		}

		ts := &tableSnapshot{
			columns:  schema.NewCaseFoldedIndex(),
			byFolded: make(map[string]sqlite.ColumnInfo, len(cols)),
			rowCount: count,
		}
		for _, c := range cols {
			ts.columns.Add(c.Name)
			ts.byFolded[schema.Fold(c.Name)] = c
		}
		snap.byFolded[schema.Fold(name)] = ts
	}
	return snap, nil
}

// Compare runs the three comparison phases, reference against candidate.
// Table-set comparison is intentionally directional: a table missing from the
// candidate is fatal, while an extra candidate table is only a warning, since
// candidate converters may expose system or auxiliary objects the reference
// does not.
func Compare(ref, cand *SchemaSnapshot) *Report {
	report := &Report{}

	// Phase 1: table sets.
	for _, folded := range ref.tables.Missing(cand.tables) {
		orig, _ := ref.tables.Original(folded)
		report.fatal(orig, "", "table missing from candidate")
		report.MissingTables++
	}
	for _, folded := range cand.tables.Missing(ref.tables) {
		orig, _ := cand.tables.Original(folded)
		report.warn(orig, "", "extra table in candidate (possibly a system or auxiliary object)")
		report.ExtraTables++
	}

	common := ref.tables.Common(cand.tables)

	// Phase 2: column schemas of common tables.
	for _, folded := range common {
		refTable := ref.byFolded[folded]
		candTable := cand.byFolded[folded]
		candName, _ := cand.tables.Original(folded)

		for _, colFolded := range refTable.columns.Missing(candTable.columns) {
			orig, _ := refTable.columns.Original(colFolded)
			report.fatal(candName, orig, "column missing from candidate")
			report.SchemaMismatches++
		}
		for _, colFolded := range candTable.columns.Missing(refTable.columns) {
			orig, _ := candTable.columns.Original(colFolded)
			report.warn(candName, orig, "extra column in candidate")
		}

		for _, colFolded := range refTable.columns.Common(candTable.columns) {
			refCol := refTable.byFolded[colFolded]
			candCol := candTable.byFolded[colFolded]
			if columnsMatch(refCol, candCol) {
				continue
			}
			report.fatal(candName, candCol.Name, fmt.Sprintf(
				"schema mismatch: reference %s, candidate %s",
				describeColumn(refCol), describeColumn(candCol)))
			report.SchemaMismatches++
		}
	}

	// Phase 3: row counts of common tables.
	for _, folded := range common {
		refCount := ref.byFolded[folded].rowCount
		candCount := cand.byFolded[folded].rowCount
		if refCount == candCount {
			continue
		}
		candName, _ := cand.tables.Original(folded)
		report.fatal(candName, "", fmt.Sprintf(
			"row count mismatch: reference=%d, candidate=%d", refCount, candCount))
		report.RowCountMismatches++
	}

	return report
}

// columnsMatch compares two declared columns. Names and declared types fold
// case; there is no semantic type coercion ("integer" equals "INTEGER" but
// not "int"). Not-null and primary-key flags must match exactly.
func columnsMatch(a, b sqlite.ColumnInfo) bool {
	return strings.EqualFold(a.Name, b.Name) &&
		strings.EqualFold(a.Type, b.Type) &&
		a.NotNull == b.NotNull &&
		a.PrimaryKey == b.PrimaryKey
}

func describeColumn(c sqlite.ColumnInfo) string {
	return fmt.Sprintf("(name=%s type=%s notnull=%t pk=%d)", c.Name, c.Type, c.NotNull, c.PrimaryKey)
}

// CommonTables returns the originally-cased candidate names of the tables
// present on both sides, for per-table OK reporting.
func CommonTables(ref, cand *SchemaSnapshot) []string {
	folded := ref.tables.Common(cand.tables)
	names := make([]string, 0, len(folded))
	for _, f := range folded {
		if orig, ok := cand.tables.Original(f); ok {
			names = append(names, orig)
		}
	}
	return names
}

// RowCount exposes a snapshot's count for one table (folded lookup), for
// report rendering.
func (s *SchemaSnapshot) RowCount(table string) (int64, bool) {
	ts, ok := s.byFolded[schema.Fold(table)]
	if !ok {
		return 0, false
	}
	return ts.rowCount, true
}
