package access

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mdbport/mdbport/internal/schema"
)

// fakeRunner returns a canned console transcript for every issued command.
type fakeRunner struct {
	output string
	err    error
	calls  int
}

func (f *fakeRunner) Run(ctx context.Context, command string) (string, error) {
	f.calls++
	return f.output, f.err
}

func testLogger() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}

const tablesTranscript = `
UCanAccess>
| TABLE_NAME |
| Employees |
| Orders |
| LINE_ITEMS |
3 rows selected
`

const columnsTranscript = `
UCanAccess>
| COLUMN_NAME | DATA_TYPE | IS_NULLABLE |
| EmployeeID | COUNTER | NO |
| Name | VARCHAR | YES |
| HireDate | DATETIME | YES |
| Photo | OLE | YES |
`

func TestExtractorTables(t *testing.T) {
	runner := &fakeRunner{output: tablesTranscript}
	ext := NewExtractor(runner, DefaultRetryOptions, testLogger())

	tables, err := ext.Tables(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Employees", "Orders", "LINE_ITEMS"}, tables)
}

func TestExtractorColumns(t *testing.T) {
	runner := &fakeRunner{output: columnsTranscript}
	ext := NewExtractor(runner, DefaultRetryOptions, testLogger())

	descs, err := ext.Columns(context.Background(), "Employees")
	require.NoError(t, err)
	require.Len(t, descs, 4)

	assert.Equal(t, schema.ColumnDescriptor{Name: "EmployeeID", SourceType: "COUNTER", Nullable: false}, descs[0])
	assert.Equal(t, schema.ColumnDescriptor{Name: "Name", SourceType: "VARCHAR", Nullable: true}, descs[1])
	assert.Equal(t, schema.ColumnDescriptor{Name: "HireDate", SourceType: "DATETIME", Nullable: true}, descs[2])
	assert.Equal(t, schema.ColumnDescriptor{Name: "Photo", SourceType: "OLE", Nullable: true}, descs[3])
}

func TestExtractorColumnsSchemaUnavailable(t *testing.T) {
	// A view produces banner noise but no parseable column rows.
	runner := &fakeRunner{output: "UCanAccess>\nno rows selected\n"}
	ext := NewExtractor(runner, DefaultRetryOptions, testLogger())

	_, err := ext.Columns(context.Background(), "SomeView")
	assert.ErrorIs(t, err, ErrSchemaUnavailable)
}

func TestExtractorToolFailureNotRetried(t *testing.T) {
	runner := &fakeRunner{err: &ToolFailureError{Tool: "console.sh", Err: errors.New("exec format error")}}
	ext := NewExtractor(runner, DefaultRetryOptions, testLogger())

	_, err := ext.Tables(context.Background())
	require.Error(t, err)
	assert.Equal(t, 1, runner.calls)
}

func TestExtractorTimeoutRetried(t *testing.T) {
	opts := RetryOptions{MaxAttempts: 3, InitialBackoff: 0, MaxBackoff: 0, BackoffMultiplier: 1}
	runner := &fakeRunner{err: &ToolTimeoutError{Tool: "console.sh", Err: context.DeadlineExceeded}}
	ext := NewExtractor(runner, opts, testLogger())

	_, err := ext.Tables(context.Background())
	require.Error(t, err)
	assert.Equal(t, 3, runner.calls)
}

func TestParseTableCellsFiltersHeader(t *testing.T) {
	tables := parseTableCells("| TABLE_NAME |\n| Orders |\n| TABLE_NAME |\n")
	assert.Equal(t, []string{"Orders"}, tables)
}

func TestParseColumnRowsToleratesGarbage(t *testing.T) {
	out := "garbage \xff\xfe line\n| COLUMN_NAME | DATA_TYPE | IS_NULLABLE |\n| ID | LONG | NO |\nmore noise"
	descs := parseColumnRows(sanitize(out))
	require.Len(t, descs, 1)
	assert.Equal(t, "ID", descs[0].Name)
	assert.False(t, descs[0].Nullable)
}

func TestSanitizeReplacesInvalidUTF8(t *testing.T) {
	out := sanitize("caf\xe9")
	assert.Equal(t, "caf�", out)
}
