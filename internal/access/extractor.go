package access

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/mdbport/mdbport/internal/schema"
)

// Source is the contract the transfer engine depends on for metadata
// discovery. Both the console extractor and the mdb-tools runner satisfy it.
type Source interface {
	// Tables lists the table names of the source database.
	Tables(ctx context.Context) ([]string, error)
	// Columns returns the ordered column descriptors for one table, or
	// ErrSchemaUnavailable when the object has no recoverable schema.
	Columns(ctx context.Context, table string) ([]schema.ColumnDescriptor, error)
}

var (
	tableCellRe = regexp.MustCompile(`\|\s*([^|\s]+)\s*\|`)
	columnRowRe = regexp.MustCompile(`\|\s*([^|]+?)\s*\|\s*([^|]+?)\s*\|\s*([^|]+?)\s*\|`)
)

// Extractor obtains schema metadata by scraping the tabular text the console
// prints for metadata queries. Replacing the scrape with a structured
// metadata API only has to honor the Source contract.
type Extractor struct {
	console runner
	retry   RetryOptions
	log     *zap.SugaredLogger
}

var _ Source = (*Extractor)(nil)

func NewExtractor(console runner, retry RetryOptions, log *zap.SugaredLogger) *Extractor {
	return &Extractor{console: console, retry: retry, log: log}
}

// Tables discovers table names from the metadata view.
func (e *Extractor) Tables(ctx context.Context) ([]string, error) {
	const query = "SELECT TABLE_NAME FROM information_schema.tables WHERE TABLE_SCHEMA='PUBLIC';"
	out, err := withRetry(ctx, e.log, e.retry, func(ctx context.Context) (string, error) {
		return e.console.Run(ctx, query)
	})
	if err != nil {
		return nil, fmt.Errorf("listing tables: %w", err)
	}
	return parseTableCells(out), nil
}

// Columns returns the descriptors for one table in ordinal-position order.
func (e *Extractor) Columns(ctx context.Context, table string) ([]schema.ColumnDescriptor, error) {
	query := fmt.Sprintf(
		"SELECT COLUMN_NAME, DATA_TYPE, IS_NULLABLE FROM information_schema.columns WHERE TABLE_NAME = '%s' ORDER BY ORDINAL_POSITION;",
		strings.ToUpper(table))
	out, err := withRetry(ctx, e.log, e.retry, func(ctx context.Context) (string, error) {
		return e.console.Run(ctx, query)
	})
	if err != nil {
		return nil, fmt.Errorf("describing table %s: %w", table, err)
	}

	descs := parseColumnRows(out)
	if len(descs) == 0 {
		return nil, fmt.Errorf("%w: table %s (possibly a view or query)", ErrSchemaUnavailable, table)
	}
	return descs, nil
}

// ExportCSV asks the console to export one table to a delimited text file.
func (e *Extractor) ExportCSV(ctx context.Context, table, path string) error {
	command := fmt.Sprintf("export -t \"%s\" \"%s\";", table, path)
	_, err := withRetry(ctx, e.log, e.retry, func(ctx context.Context) (string, error) {
		return e.console.Run(ctx, command)
	})
	if err != nil {
		return fmt.Errorf("exporting table %s: %w", table, err)
	}
	return nil
}

// parseTableCells extracts single-cell `| name |` matches, dropping the echoed
// column header. The console writes headers into the same stream as data.
func parseTableCells(out string) []string {
	var tables []string
	for _, m := range tableCellRe.FindAllStringSubmatch(out, -1) {
		name := strings.TrimSpace(m[1])
		if name == "" || name == "TABLE_NAME" {
			continue
		}
		tables = append(tables, name)
	}
	return tables
}

// parseColumnRows extracts `| name | type | nullable |` triples, dropping
// header echoes. IS_NULLABLE is "NO" only for explicitly non-nullable
// columns; anything else stays nullable.
func parseColumnRows(out string) []schema.ColumnDescriptor {
	var descs []schema.ColumnDescriptor
	for _, m := range columnRowRe.FindAllStringSubmatch(out, -1) {
		name := strings.TrimSpace(m[1])
		if name == "" || name == "COLUMN_NAME" {
			continue
		}
		descs = append(descs, schema.ColumnDescriptor{
			Name:       name,
			SourceType: strings.TrimSpace(m[2]),
			Nullable:   !strings.EqualFold(strings.TrimSpace(m[3]), "NO"),
		})
	}
	return descs
}
