package access

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mdbport/mdbport/internal/schema"
)

// MDBTools drives the mdb-tools command suite. It serves both as an alternate
// metadata Source and as the exporter behind the bulk transfer path, which
// asks mdb-export to emit SQLite INSERT statements directly.
type MDBTools struct {
	tablesBin string
	schemaBin string
	exportBin string
	dbPath    string
	timeout   time.Duration
	log       *zap.SugaredLogger
}

var _ Source = (*MDBTools)(nil)

// NewMDBTools resolves the three mdb-tools binaries on PATH. Any of them
// missing is ErrToolUnavailable.
func NewMDBTools(dbPath string, timeout time.Duration, log *zap.SugaredLogger) (*MDBTools, error) {
	bins := make(map[string]string, 3)
	for _, name := range []string{"mdb-tables", "mdb-schema", "mdb-export"} {
		path, err := exec.LookPath(name)
		if err != nil {
			return nil, fmt.Errorf("%w: %s not found in PATH", ErrToolUnavailable, name)
		}
		bins[name] = path
	}
	return &MDBTools{
		tablesBin: bins["mdb-tables"],
		schemaBin: bins["mdb-schema"],
		exportBin: bins["mdb-export"],
		dbPath:    dbPath,
		timeout:   timeout,
		log:       log,
	}, nil
}

func (m *MDBTools) run(ctx context.Context, bin string, args ...string) (string, error) {
	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return "", &ToolTimeoutError{Tool: bin, Err: ctx.Err()}
	}
	if err != nil {
		return "", &ToolFailureError{Tool: bin, Err: fmt.Errorf("%w (stderr: %s)", err, sanitize(stderr.String()))}
	}
	return sanitize(stdout.String()), nil
}

// Tables lists table names, one per line via mdb-tables -1.
func (m *MDBTools) Tables(ctx context.Context) ([]string, error) {
	out, err := m.run(ctx, m.tablesBin, "-1", m.dbPath)
	if err != nil {
		return nil, fmt.Errorf("listing tables: %w", err)
	}
	var tables []string
	for _, line := range strings.Split(out, "\n") {
		if name := strings.TrimSpace(line); name != "" {
			tables = append(tables, name)
		}
	}
	return tables, nil
}

// Columns derives descriptors from the CREATE TABLE statement mdb-schema
// generates for the sqlite dialect.
func (m *MDBTools) Columns(ctx context.Context, table string) ([]schema.ColumnDescriptor, error) {
	out, err := m.run(ctx, m.schemaBin, m.dbPath, "-T", table, "sqlite")
	if err != nil {
		return nil, fmt.Errorf("describing table %s: %w", table, err)
	}
	descs := parseSchemaDDL(out)
	if len(descs) == 0 {
		return nil, fmt.Errorf("%w: table %s (no columns in generated schema)", ErrSchemaUnavailable, table)
	}
	return descs, nil
}

// ExportInserts returns the tool-generated INSERT statements for one table.
// Binary fields are stripped; they cannot round-trip through this path.
func (m *MDBTools) ExportInserts(ctx context.Context, table string) ([]string, error) {
	out, err := m.run(ctx, m.exportBin,
		"-I", "sqlite", "-D", "%Y-%m-%d %H:%M:%S", "-b", "strip", m.dbPath, table)
	if err != nil {
		return nil, fmt.Errorf("exporting table %s: %w", table, err)
	}
	return splitStatements(out), nil
}

// ddlColumnRe matches one quoted column definition line inside a generated
// CREATE TABLE body, e.g. `"Customer ID"  Long Integer NOT NULL,`.
var ddlColumnRe = regexp.MustCompile(`(?m)^\s*"([^"]+)"\s+([A-Za-z][A-Za-z0-9 ]*[A-Za-z0-9])`)

// parseSchemaDDL extracts descriptors from a generated CREATE TABLE
// statement, in declaration order.
func parseSchemaDDL(ddl string) []schema.ColumnDescriptor {
	var descs []schema.ColumnDescriptor
	for _, m := range ddlColumnRe.FindAllStringSubmatch(ddl, -1) {
		name := strings.TrimSpace(m[1])
		typ := strings.TrimSpace(m[2])
		nullable := true
		if idx := strings.Index(strings.ToUpper(typ), " NOT NULL"); idx >= 0 {
			typ = strings.TrimSpace(typ[:idx])
			nullable = false
		}
		descs = append(descs, schema.ColumnDescriptor{Name: name, SourceType: typ, Nullable: nullable})
	}
	return descs
}

// splitStatements breaks a generated statement batch on terminator-newline
// boundaries, dropping blanks.
func splitStatements(batch string) []string {
	parts := strings.Split(batch, ";\n")
	var stmts []string
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			stmts = append(stmts, s)
		}
	}
	return stmts
}
