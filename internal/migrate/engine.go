package migrate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/mdbport/mdbport/internal/access"
	"github.com/mdbport/mdbport/internal/schema"
	"github.com/mdbport/mdbport/internal/sqlite"
)

// TransferStrategy moves one table's rows from the source into an open target
// transaction. The conservative CSV path and the bulk statement path are
// interchangeable implementations; selection happens at wiring time, not by
// branching inside the engine.
type TransferStrategy interface {
	Name() string
	// MigrateTable returns the rows committed and the rows skipped for one
	// table. workDir is a run-scoped scratch directory owned by the engine.
	MigrateTable(ctx context.Context, tx *sql.Tx, workDir, table string, cols []schema.MappedColumn) (committed, skipped int64, err error)
}

// Result aggregates one migration run. RowsCommitted across all tables is the
// success signal operators rely on.
type Result struct {
	TablesMigrated int
	TablesSkipped  int
	RowsCommitted  int64
	RowsSkipped    int64
}

// Engine drives the per-table migration sequence: extract descriptors, map
// types, create the target table, then hand the rows to the strategy inside
// one transaction per table. Tables are processed strictly one at a time.
type Engine struct {
	source   access.Source
	store    *sqlite.Store
	strategy TransferStrategy
	log      *zap.SugaredLogger

	// OnDiscover, when set, is invoked once with the number of discovered
	// tables. OnTable is invoked after each table finishes (migrated or
	// skipped). Both exist for progress reporting.
	OnDiscover func(count int)
	OnTable    func(table string)
}

func NewEngine(source access.Source, store *sqlite.Store, strategy TransferStrategy, log *zap.SugaredLogger) *Engine {
	return &Engine{source: source, store: store, strategy: strategy, log: log}
}

// Run migrates every discoverable table. Failures are isolated per table and
// per row; only the inability to list tables at all aborts the run.
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	tables, err := e.source.Tables(ctx)
	if err != nil {
		return nil, fmt.Errorf("discovering tables: %w", err)
	}
	if len(tables) == 0 {
		e.log.Warn("no tables found in source database")
		return &Result{}, nil
	}
	e.log.Infow("discovered tables", "count", len(tables), "strategy", e.strategy.Name())
	if e.OnDiscover != nil {
		e.OnDiscover(len(tables))
	}

	workDir, err := os.MkdirTemp("", "mdbport-*")
	if err != nil {
		return nil, fmt.Errorf("creating scratch directory: %w", err)
	}
	defer os.RemoveAll(workDir)

	result := &Result{}
	for _, table := range tables {
		e.migrateTable(ctx, workDir, table, result)
		if e.OnTable != nil {
			e.OnTable(table)
		}
	}

	e.log.Infow("migration complete",
		"tables_migrated", result.TablesMigrated,
		"tables_skipped", result.TablesSkipped,
		"rows_committed", result.RowsCommitted,
		"rows_skipped", result.RowsSkipped)
	return result, nil
}

func (e *Engine) migrateTable(ctx context.Context, workDir, table string, result *Result) {
	descs, err := e.source.Columns(ctx, table)
	if err != nil {
		if errors.Is(err, access.ErrSchemaUnavailable) {
			e.log.Warnw("skipping table, schema unavailable", "table", table, "error", err)
		} else {
			e.log.Warnw("skipping table, metadata query failed", "table", table, "error", err)
		}
		result.TablesSkipped++
		return
	}

	cols := schema.MapColumns(descs)
	if err := e.store.CreateTable(ctx, table, cols); err != nil {
		e.log.Warnw("skipping table, create failed", "table", table, "error", err)
		result.TablesSkipped++
		return
	}

	tx, err := e.store.Begin(ctx)
	if err != nil {
		e.log.Warnw("skipping table, transaction begin failed", "table", table, "error", err)
		result.TablesSkipped++
		return
	}

	committed, skipped, err := e.strategy.MigrateTable(ctx, tx, workDir, table, cols)
	if err != nil {
		tx.Rollback()
		e.log.Warnw("skipping table, transfer failed", "table", table, "error", err)
		result.TablesSkipped++
		return
	}
	if err := tx.Commit(); err != nil {
		e.log.Warnw("skipping table, commit failed", "table", table, "error", err)
		result.TablesSkipped++
		return
	}

	e.log.Infow("table migrated", "table", table, "rows", committed, "rows_skipped", skipped)
	result.TablesMigrated++
	result.RowsCommitted += committed
	result.RowsSkipped += skipped
}
