package migrate

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/mdbport/mdbport/internal/schema"
	"github.com/mdbport/mdbport/internal/sqlite"
)

// CSVExporter is the piece of the source tooling the conservative path needs:
// one delimited-text export per table.
type CSVExporter interface {
	ExportCSV(ctx context.Context, table, path string) error
}

// CSVStrategy is the conservative transfer path: export each table to an
// intermediate delimited file, then insert row by row. Slower than the bulk
// path but gives per-row control over malformed records and null handling.
type CSVStrategy struct {
	exporter  CSVExporter
	delimiter rune
	log       *zap.SugaredLogger
}

var _ TransferStrategy = (*CSVStrategy)(nil)

func NewCSVStrategy(exporter CSVExporter, delimiter rune, log *zap.SugaredLogger) *CSVStrategy {
	return &CSVStrategy{exporter: exporter, delimiter: delimiter, log: log}
}

func (s *CSVStrategy) Name() string { return "csv" }

func (s *CSVStrategy) MigrateTable(ctx context.Context, tx *sql.Tx, workDir, table string, cols []schema.MappedColumn) (int64, int64, error) {
	path := filepath.Join(workDir, table+".csv")
	if err := s.exporter.ExportCSV(ctx, table, path); err != nil {
		return 0, 0, err
	}
	defer os.Remove(path)

	f, err := os.Open(path)
	if err != nil {
		// The console reports success even when a table exports nothing.
		s.log.Warnw("no export produced, treating table as empty", "table", table, "error", err)
		return 0, 0, nil
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.Comma = s.delimiter
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	// Header record; column values carry no name tags, so alignment is purely
	// positional against the mapped schema.
	if _, err := reader.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return 0, 0, nil
		}
		return 0, 0, fmt.Errorf("reading export header for table %s: %w", table, err)
	}

	stmt, err := tx.PrepareContext(ctx, sqlite.InsertSQL(table, len(cols)))
	if err != nil {
		return 0, 0, fmt.Errorf("preparing insert for table %s: %w", table, err)
	}
	defer stmt.Close()

	var committed, skipped int64
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			s.log.Warnw("skipping unreadable row", "table", table, "error", err)
			skipped++
			continue
		}
		if len(record) != len(cols) {
			s.log.Warnw("skipping row with wrong column count",
				"table", table, "expected", len(cols), "got", len(record), "row", record)
			skipped++
			continue
		}

		if _, err := stmt.ExecContext(ctx, NormalizeRow(record, cols)...); err != nil {
			s.log.Warnw("skipping row rejected by target", "table", table, "row", record, "error", err)
			skipped++
			continue
		}
		committed++
	}
	return committed, skipped, nil
}

// NormalizeRow converts raw text values to insert arguments. The export
// format cannot distinguish empty string from no value, so an empty value
// becomes NULL unless the destination column is textual (TEXT or DATETIME),
// where the empty string is preserved literally.
func NormalizeRow(record []string, cols []schema.MappedColumn) []any {
	args := make([]any, len(record))
	for i, value := range record {
		if value == "" && cols[i].Type != schema.TypeText && cols[i].Type != schema.TypeDatetime {
			args[i] = nil
			continue
		}
		args[i] = value
	}
	return args
}
