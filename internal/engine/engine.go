// Package engine provides the relational query capability the grader runs
// learner and canonical SQL against. The backing store is an in-memory
// SQLite database seeded once from the table fixtures; the engine itself
// never mutates it afterwards.
package engine

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	_ "modernc.org/sqlite" // Registers the sqlite driver

	"github.com/example/sqlrevise/internal/domain"
)

// Executor runs SQL text against the fixture tables and returns a tabular
// result. Malformed SQL, unknown identifiers, type errors and deadline
// expiry come back as a *ExecError value, never as a panic or a hang.
type Executor interface {
	Execute(ctx context.Context, sqlText string) (*domain.Result, error)
}

// ExecError is a structured query-execution failure with a human-readable
// message. It is a normal, reportable outcome for learner submissions.
type ExecError struct {
	Msg string
}

func (e *ExecError) Error() string {
	return "query execution: " + e.Msg
}

// columnAffinity maps fixture type tags to SQLite column types.
var columnAffinity = map[string]string{
	"int":   "INTEGER",
	"float": "REAL",
	"str":   "TEXT",
}

// SQLite is the production Executor. It also exposes the fixture tables for
// display purposes.
type SQLite struct {
	db     *sql.DB
	tables []string
}

// NewSQLite opens an in-memory database and seeds it with the given table
// fixtures. Values are converted according to each column's declared type
// tag; an unrecognized tag fails the load.
func NewSQLite(ctx context.Context, tables []domain.TableFixture) (*SQLite, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to open engine database: %w", err)
	}
	// A second pooled connection would see its own empty copy of the
	// in-memory database.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to engine database: %w", err)
	}

	e := &SQLite{db: db}
	for _, t := range tables {
		if err := e.createTable(ctx, t); err != nil {
			db.Close()
			return nil, err
		}
		e.tables = append(e.tables, t.Name)
	}

	// Fixtures are read-only from here on; a mutating statement from either
	// the learner or a canonical answer fails like any other bad query.
	if _, err := db.ExecContext(ctx, "PRAGMA query_only = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to lock engine database read-only: %w", err)
	}
	return e, nil
}

// Close closes the engine's database.
func (e *SQLite) Close() error {
	return e.db.Close()
}

// Tables returns the names of the loaded fixture tables.
func (e *SQLite) Tables() []string {
	out := make([]string, len(e.tables))
	copy(out, e.tables)
	return out
}

func (e *SQLite) createTable(ctx context.Context, t domain.TableFixture) error {
	cols := make([]string, len(t.ColumnNames))
	for i, name := range t.ColumnNames {
		affinity, ok := columnAffinity[t.ColumnTypes[i]]
		if !ok {
			return fmt.Errorf("table %s: unsupported type tag %q", t.Name, t.ColumnTypes[i])
		}
		cols[i] = quoteIdent(name) + " " + affinity
	}

	ddl := fmt.Sprintf("CREATE TABLE %s (%s)", quoteIdent(t.Name), strings.Join(cols, ", "))
	if _, err := e.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("failed to create table %s: %w", t.Name, err)
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(t.ColumnNames)), ", ")
	insert := fmt.Sprintf("INSERT INTO %s VALUES (%s)", quoteIdent(t.Name), placeholders)
	for _, row := range t.Rows {
		args := make([]any, len(row))
		for i, raw := range row {
			v, err := convertValue(raw, t.ColumnTypes[i])
			if err != nil {
				return fmt.Errorf("table %s: %w", t.Name, err)
			}
			args[i] = v
		}
		if _, err := e.db.ExecContext(ctx, insert, args...); err != nil {
			return fmt.Errorf("failed to seed table %s: %w", t.Name, err)
		}
	}
	return nil
}

// convertValue parses a raw fixture value according to its type tag.
func convertValue(raw, tag string) (any, error) {
	switch tag {
	case "int":
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("value %q is not an int: %w", raw, err)
		}
		return n, nil
	case "float":
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("value %q is not a float: %w", raw, err)
		}
		return f, nil
	case "str":
		return raw, nil
	}
	return nil, fmt.Errorf("unsupported type tag %q", tag)
}

// Execute runs the given SQL and captures the full result set, preserving
// column order and row order exactly as produced.
func (e *SQLite) Execute(ctx context.Context, sqlText string) (*domain.Result, error) {
	rows, err := e.db.QueryContext(ctx, sqlText)
	if err != nil {
		return nil, &ExecError{Msg: err.Error()}
	}
	defer rows.Close()

	return collect(rows)
}

// Preview returns the full contents of one fixture table for display.
func (e *SQLite) Preview(ctx context.Context, table string) (*domain.Result, error) {
	return e.Execute(ctx, "SELECT * FROM "+quoteIdent(table))
}

func collect(rows *sql.Rows) (*domain.Result, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, &ExecError{Msg: err.Error()}
	}

	result := &domain.Result{Columns: cols}
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, &ExecError{Msg: err.Error()}
		}
		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		result.Rows = append(result.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, &ExecError{Msg: err.Error()}
	}
	return result, nil
}

// quoteIdent quotes a SQL identifier, doubling embedded quotes.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
