package schema

import "strings"

// typeClasses is evaluated in order; the first class with a matching token
// wins, so no source type can fall into two classes.
var typeClasses = []struct {
	tokens []string
	target TargetType
}{
	{[]string{"CHAR", "TEXT", "MEMO", "STRING"}, TypeText},
	{[]string{"INT", "LONG", "BYTE", "COUNTER"}, TypeInteger},
	{[]string{"DOUBLE", "FLOAT", "SINGLE"}, TypeReal},
	{[]string{"DATETIME"}, TypeDatetime},
	{[]string{"CURRENCY"}, TypeNumeric},
	{[]string{"BIT"}, TypeInteger},
	{[]string{"OLE", "BINARY"}, TypeBlob},
}

// MapType classifies a source type label into a target column type. A label
// that already is a target type passes through unchanged, so descriptors
// parsed from target-dialect DDL (the mdb-tools schema backend emits REAL,
// BLOB and friends directly) keep their affinity. Everything else is a
// case-insensitive substring test over Access-style tokens. Unrecognized
// labels map to TEXT, so the mapper never fails.
func MapType(sourceType string) TargetType {
	upper := strings.ToUpper(strings.TrimSpace(sourceType))
	switch TargetType(upper) {
	case TypeText, TypeInteger, TypeReal, TypeDatetime, TypeNumeric, TypeBlob:
		return TargetType(upper)
	}
	for _, class := range typeClasses {
		for _, token := range class.tokens {
			if strings.Contains(upper, token) {
				return class.target
			}
		}
	}
	return TypeText
}

// MapColumn derives the target column for a source descriptor. A column is
// NOT NULL only when the source explicitly reported it non-nullable.
func MapColumn(d ColumnDescriptor) MappedColumn {
	return MappedColumn{
		Name:    d.Name,
		Type:    MapType(d.SourceType),
		NotNull: !d.Nullable,
	}
}

// MapColumns maps a full descriptor sequence, preserving order.
func MapColumns(descs []ColumnDescriptor) []MappedColumn {
	cols := make([]MappedColumn, len(descs))
	for i, d := range descs {
		cols[i] = MapColumn(d)
	}
	return cols
}
