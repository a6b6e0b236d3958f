package schema

// ColumnDescriptor is one column of a source table as reported by the source
// tooling. Name keeps the original casing; comparisons elsewhere fold case.
type ColumnDescriptor struct {
	Name       string
	SourceType string
	Nullable   bool
}

// TargetType is a SQLite column affinity used in generated DDL.
type TargetType string

const (
	TypeText     TargetType = "TEXT"
	TypeInteger  TargetType = "INTEGER"
	TypeReal     TargetType = "REAL"
	TypeDatetime TargetType = "DATETIME"
	TypeNumeric  TargetType = "NUMERIC"
	TypeBlob     TargetType = "BLOB"
)

// MappedColumn is the target-side form of a ColumnDescriptor. Immutable once
// produced.
type MappedColumn struct {
	Name    string
	Type    TargetType
	NotNull bool
}

// TableSchema is the ordered column list for one table. Order must match the
// source ordinal positions: row data is positional and carries no column names.
type TableSchema struct {
	Table   string
	Columns []MappedColumn
}

// Row is one record's raw text values, positionally aligned to a TableSchema.
type Row []string
