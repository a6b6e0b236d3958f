package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/mdbport/mdbport/internal/schema"
)

// ColumnInfo is one row of PRAGMA table_info for a column.
type ColumnInfo struct {
	Name         string
	Type         string
	NotNull      bool
	DefaultValue sql.NullString
	PrimaryKey   int
}

// Store wraps a single SQLite connection. The transfer engine holds one
// read-write Store for a whole run; the verifier opens two read-only ones.
type Store struct {
	Pool *sql.DB
	Path string
}

// Open opens (creating if absent) a read-write database at path.
func Open(path string) (*Store, error) {
	pool, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database %s: %w", path, err)
	}
	if err := pool.Ping(); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connecting to sqlite database %s: %w", path, err)
	}
	return &Store{Pool: pool, Path: path}, nil
}

// OpenReadOnly opens an existing database without write access.
func OpenReadOnly(path string) (*Store, error) {
	pool, err := sql.Open("sqlite3", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database %s: %w", path, err)
	}
	if err := pool.Ping(); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connecting to sqlite database %s: %w", path, err)
	}
	return &Store{Pool: pool, Path: path}, nil
}

func (s *Store) Close() error {
	if s.Pool != nil {
		return s.Pool.Close()
	}
	return nil
}

// QuoteIdentifier quotes a table or column name so reserved words and
// embedded punctuation survive. Access allows nearly anything in a name.
func QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// CreateTable builds and executes the DDL for one mapped table.
func (s *Store) CreateTable(ctx context.Context, table string, cols []schema.MappedColumn) error {
	if len(cols) == 0 {
		return fmt.Errorf("table %s has no columns", table)
	}
	defs := make([]string, len(cols))
	for i, c := range cols {
		def := QuoteIdentifier(c.Name) + " " + string(c.Type)
		if c.NotNull {
			def += " NOT NULL"
		}
		defs[i] = def
	}
	ddl := fmt.Sprintf("CREATE TABLE %s (%s)", QuoteIdentifier(table), strings.Join(defs, ", "))
	if _, err := s.Pool.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("creating table %s: %w", table, err)
	}
	return nil
}

// InsertSQL returns the positional insert statement for a table.
func InsertSQL(table string, columns int) string {
	placeholders := make([]string, columns)
	for i := range placeholders {
		placeholders[i] = "?"
	}
	return fmt.Sprintf("INSERT INTO %s VALUES (%s)", QuoteIdentifier(table), strings.Join(placeholders, ", "))
}

func (s *Store) Begin(ctx context.Context) (*sql.Tx, error) {
	return s.Pool.BeginTx(ctx, nil)
}

// Tables lists user tables, excluding SQLite's own bookkeeping objects.
func (s *Store) Tables(ctx context.Context) ([]string, error) {
	rows, err := s.Pool.QueryContext(ctx,
		"SELECT name FROM sqlite_master WHERE type='table' AND name NOT LIKE 'sqlite_%' ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("querying tables: %w", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning table name: %w", err)
		}
		tables = append(tables, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating tables: %w", err)
	}
	return tables, nil
}

// TableInfo returns the declared column metadata for one table.
func (s *Store) TableInfo(ctx context.Context, table string) ([]ColumnInfo, error) {
	query := fmt.Sprintf("PRAGMA table_info(%s)", QuoteIdentifier(table))
	rows, err := s.Pool.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying columns for table %s: %w", table, err)
	}
	defer rows.Close()

	var cols []ColumnInfo
	for rows.Next() {
		var (
			cid     int
			info    ColumnInfo
			notNull int
		)
		if err := rows.Scan(&cid, &info.Name, &info.Type, &notNull, &info.DefaultValue, &info.PrimaryKey); err != nil {
			return nil, fmt.Errorf("scanning column info for table %s: %w", table, err)
		}
		info.NotNull = notNull != 0
		cols = append(cols, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating columns for table %s: %w", table, err)
	}
	return cols, nil
}

// RowCount returns SELECT COUNT(*) for one table.
func (s *Store) RowCount(ctx context.Context, table string) (int64, error) {
	var count int64
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s", QuoteIdentifier(table))
	if err := s.Pool.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting rows in table %s: %w", table, err)
	}
	return count, nil
}
