// sql.go - SQL database sink: one table per record template
package sink

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/wilhasse/go-rbf/format"
	"github.com/wilhasse/go-rbf/record"
	"github.com/wilhasse/go-rbf/schema"
)

// RunColumn holds the run id in every table
const RunColumn = "_run"

// Dialect selects the SQL flavour and the database/sql driver
type Dialect string

const (
	DialectSQLite   Dialect = KindSQLite
	DialectPostgres Dialect = KindPostgres
	DialectMySQL    Dialect = KindMySQL
)

// Driver returns the database/sql driver name
func (d Dialect) Driver() string {
	return string(d)
}

func (d Dialect) valid() bool {
	switch d {
	case DialectSQLite, DialectPostgres, DialectMySQL:
		return true
	default:
		return false
	}
}

// Quote quotes an identifier
func (d Dialect) Quote(name string) string {
	if d == DialectMySQL {
		return "`" + strings.ReplaceAll(name, "`", "``") + "`"
	}
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// placeholder returns the i-th (1-based) bind parameter
func (d Dialect) placeholder(i int) string {
	if d == DialectPostgres {
		return "$" + strconv.Itoa(i)
	}
	return "?"
}

// CreateTable returns the DDL of the table holding rec. Two fields mapping
// to the same column name (F5 repeated next to a field named F5_1) are an
// ErrConfig.
func (d Dialect) CreateTable(rec *record.Record) (string, error) {
	seen := map[string]bool{RunColumn: true}
	cols := []string{d.Quote(RunColumn) + " TEXT"}
	for _, c := range Columns(rec) {
		if seen[c] {
			return "", fmt.Errorf("%w: record %s: column %s is defined twice", format.ErrConfig, rec.Name, c)
		}
		seen[c] = true
		cols = append(cols, d.Quote(c)+" TEXT")
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", d.Quote(rec.Name), strings.Join(cols, ", ")), nil
}

// Insert returns the INSERT statement of rec
func (d Dialect) Insert(rec *record.Record) string {
	cols := []string{d.Quote(RunColumn)}
	params := []string{d.placeholder(1)}
	for i, c := range Columns(rec) {
		cols = append(cols, d.Quote(c))
		params = append(params, d.placeholder(i+2))
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		d.Quote(rec.Name), strings.Join(cols, ", "), strings.Join(params, ", "))
}

// SQL inserts records in a single transaction committed on Close
type SQL struct {
	db      *sql.DB
	ownDB   bool
	dialect Dialect
	runID   string
	tx      *sql.Tx
	stmts   map[string]*sql.Stmt
	written int
}

// OpenSQL opens a database with the dialect driver and creates the sink.
// The database is closed with the sink.
func OpenSQL(ctx context.Context, dialect Dialect, dsn string, layout *schema.Layout, runID string) (*SQL, error) {
	if !dialect.valid() {
		return nil, fmt.Errorf("%w: unknown SQL dialect %q", format.ErrConfig, dialect)
	}
	db, err := sql.Open(dialect.Driver(), dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dialect, err)
	}
	if dialect == DialectSQLite {
		// in-memory databases live in a single connection
		db.SetMaxOpenConns(1)
	}
	s, err := NewSQL(ctx, db, dialect, layout, runID)
	if err != nil {
		db.Close()
		return nil, err
	}
	s.ownDB = true
	return s, nil
}

// NewSQL creates one table per record template of layout, if missing, and
// starts the insert transaction.
func NewSQL(ctx context.Context, db *sql.DB, dialect Dialect, layout *schema.Layout, runID string) (*SQL, error) {
	if !dialect.valid() {
		return nil, fmt.Errorf("%w: unknown SQL dialect %q", format.ErrConfig, dialect)
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}

	s := &SQL{db: db, dialect: dialect, runID: runID, tx: tx, stmts: make(map[string]*sql.Stmt)}
	for _, rec := range layout.Records() {
		ddl, err := dialect.CreateTable(rec)
		if err != nil {
			s.abort()
			return nil, err
		}
		if _, err := tx.ExecContext(ctx, ddl); err != nil {
			s.abort()
			return nil, fmt.Errorf("create table %s: %w", rec.Name, err)
		}
		stmt, err := tx.PrepareContext(ctx, dialect.Insert(rec))
		if err != nil {
			s.abort()
			return nil, fmt.Errorf("prepare insert %s: %w", rec.Name, err)
		}
		s.stmts[rec.Name] = stmt
	}
	return s, nil
}

// Write inserts the current values of rec
func (s *SQL) Write(ctx context.Context, rec *record.Record) error {
	stmt, ok := s.stmts[rec.Name]
	if !ok {
		return fmt.Errorf("%w: no table for record %s", format.ErrLookup, rec.Name)
	}
	args := make([]any, 0, rec.Count()+1)
	args = append(args, s.runID)
	for _, v := range Values(rec) {
		args = append(args, v)
	}
	if _, err := stmt.ExecContext(ctx, args...); err != nil {
		return fmt.Errorf("insert %s: %w", rec.Name, err)
	}
	s.written++
	return nil
}

// Written returns the number of inserted rows
func (s *SQL) Written() int { return s.written }

// Close commits the transaction
func (s *SQL) Close(ctx context.Context) error {
	for _, stmt := range s.stmts {
		stmt.Close()
	}
	err := s.tx.Commit()
	if s.ownDB {
		s.db.Close()
	}
	if err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Abort rolls the transaction back: no row of the run is kept
func (s *SQL) Abort(ctx context.Context) error {
	err := s.abort()
	if s.ownDB {
		s.db.Close()
	}
	s.written = 0
	if err != nil {
		return fmt.Errorf("rollback: %w", err)
	}
	return nil
}

func (s *SQL) abort() error {
	for _, stmt := range s.stmts {
		stmt.Close()
	}
	return s.tx.Rollback()
}
