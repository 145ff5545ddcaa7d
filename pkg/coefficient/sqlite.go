package coefficient

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3" // cgo driver, registered as "sqlite3"
	_ "modernc.org/sqlite"          // pure Go driver, registered as "sqlite"
)

// Supported database/sql driver names.
const (
	DriverModernc = "sqlite"
	DriverMattn   = "sqlite3"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SQLiteConfig configures the SQLite backend.
type SQLiteConfig struct {
	// Path is the database file path, or ":memory:".
	Path string

	// Driver is DriverModernc (default) or DriverMattn.
	Driver string

	// BusyTimeout is how long to wait for locks before failing.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// SQLiteBackend stores coefficient tables in SQLite.
type SQLiteBackend struct {
	db     *sql.DB
	q      DBTX
	logger *slog.Logger
}

// OpenSQLite opens (and if needed creates) a coefficient database.
func OpenSQLite(cfg SQLiteConfig) (*SQLiteBackend, error) {
	if cfg.Path == "" {
		return nil, errors.New("db path cannot be empty")
	}
	if cfg.Driver == "" {
		cfg.Driver = DriverModernc
	}
	if cfg.BusyTimeout == 0 {
		cfg.BusyTimeout = 5 * time.Second
	}

	dsn, err := buildDSN(cfg)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(cfg.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	backend, err := NewSQLiteBackend(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return backend, nil
}

// NewSQLiteBackend wraps an open database and ensures the schema exists.
func NewSQLiteBackend(db *sql.DB) (*SQLiteBackend, error) {
	if _, err := db.Exec(Schema); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	if _, err := db.Exec(`INSERT OR IGNORE INTO schema_version (version) VALUES (?)`, SchemaVersion); err != nil {
		return nil, fmt.Errorf("failed to record schema version: %w", err)
	}

	return &SQLiteBackend{
		db:     db,
		q:      db,
		logger: slog.Default().With("component", "coefficient.sqlite"),
	}, nil
}

func buildDSN(cfg SQLiteConfig) (string, error) {
	if cfg.Path == ":memory:" {
		return cfg.Path, nil
	}

	ms := cfg.BusyTimeout.Milliseconds()
	switch cfg.Driver {
	case DriverModernc:
		return fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)", cfg.Path, ms), nil
	case DriverMattn:
		return fmt.Sprintf("file:%s?_busy_timeout=%d&_journal_mode=WAL", cfg.Path, ms), nil
	default:
		return "", fmt.Errorf("unsupported sqlite driver: %q", cfg.Driver)
	}
}

// WithTx returns a backend that runs every statement on tx. The caller owns
// the transaction and must commit or roll it back.
func (s *SQLiteBackend) WithTx(tx *sql.Tx) *SQLiteBackend {
	return &SQLiteBackend{db: s.db, q: tx, logger: s.logger}
}

// DB returns the underlying database handle.
func (s *SQLiteBackend) DB() *sql.DB {
	return s.db
}

// First implements Backend with a single SELECT.
func (s *SQLiteBackend) First(ctx context.Context, q Query) (string, bool, error) {
	if err := q.Validate(); err != nil {
		return "", false, err
	}

	query, args := buildSelect(q)
	s.logger.Debug("Coefficient query", "sql", query, "args", args)

	var result sql.NullString
	err := s.q.QueryRowContext(ctx, query, args...).Scan(&result)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to query coefficient %q: %w", q.Scope.Code, err)
	}
	if !result.Valid {
		return "", false, nil
	}
	return result.String, true, nil
}

// buildSelect renders q as SQL. q must be validated: operators and indexes
// come from closed sets, values are always bound.
func buildSelect(q Query) (string, []any) {
	var sb strings.Builder
	args := []any{q.Scope.Tenant, q.Scope.CalculatorID, q.Scope.Code}

	sb.WriteString("SELECT result FROM coefficient_rows WHERE tenant = ? AND calculator_id = ? AND code = ?")
	for _, p := range q.Predicates {
		col := columnName(p.Index)
		switch {
		case p.Operator == OpLike:
			fmt.Fprintf(&sb, " AND %s LIKE ?", col)
		case p.Kind == KindNumber:
			fmt.Fprintf(&sb, " AND CAST(%s AS REAL) %s CAST(? AS REAL)", col, p.Operator)
		default:
			fmt.Fprintf(&sb, " AND %s %s ?", col, p.Operator)
		}
		args = append(args, p.Value)
	}

	sb.WriteString(" ORDER BY ")
	for _, o := range q.Order {
		col := columnName(o.Index)
		if o.Kind == KindNumber {
			col = fmt.Sprintf("CAST(%s AS REAL)", col)
		}
		fmt.Fprintf(&sb, "%s %s, ", col, o.Sort)
	}
	sb.WriteString("id ASC LIMIT 1")

	return sb.String(), args
}

// Copy implements Backend with a single INSERT ... SELECT.
func (s *SQLiteBackend) Copy(ctx context.Context, tenant, fromID, toID, code string) (int64, error) {
	query := fmt.Sprintf(`
		INSERT INTO coefficient_rows (tenant, calculator_id, code, %[1]s, result)
		SELECT tenant, ?, code, %[1]s, result
		FROM coefficient_rows
		WHERE tenant = ? AND calculator_id = ? AND code = ?
		ORDER BY id`, conditionColumns)

	res, err := s.q.ExecContext(ctx, query, toID, tenant, fromID, code)
	if err != nil {
		return 0, fmt.Errorf("failed to copy coefficient table %q: %w", code, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count copied rows: %w", err)
	}
	return n, nil
}

// Insert implements Backend. Without a caller transaction the rows are
// inserted in one transaction of their own.
func (s *SQLiteBackend) Insert(ctx context.Context, scope Scope, rows []Row) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		return insertRows(ctx, tx, scope, rows)
	})
}

// Replace implements Backend with a DELETE and the inserts in one
// transaction.
func (s *SQLiteBackend) Replace(ctx context.Context, scope Scope, rows []Row) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := deleteRows(ctx, tx, scope); err != nil {
			return err
		}
		return insertRows(ctx, tx, scope, rows)
	})
}

// inTx runs fn on the caller's transaction, or on a new one that is
// committed when fn succeeds.
func (s *SQLiteBackend) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	if tx, ok := s.q.(*sql.Tx); ok {
		return fn(tx)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit coefficient rows: %w", err)
	}
	return nil
}

func insertRows(ctx context.Context, tx *sql.Tx, scope Scope, rows []Row) error {
	placeholders := strings.Repeat("?, ", MaxColumns+3) + "?"
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(
		`INSERT INTO coefficient_rows (tenant, calculator_id, code, %s, result) VALUES (%s)`,
		conditionColumns, placeholders))
	if err != nil {
		return fmt.Errorf("failed to prepare insert statement: %w", err)
	}
	defer stmt.Close()

	for i, row := range rows {
		if len(row.Columns) > MaxColumns {
			return fmt.Errorf("row %d: %d columns exceed maximum of %d", i, len(row.Columns), MaxColumns)
		}

		args := make([]any, 0, MaxColumns+4)
		args = append(args, scope.Tenant, scope.CalculatorID, scope.Code)
		for c := 0; c < MaxColumns; c++ {
			if c < len(row.Columns) {
				args = append(args, row.Columns[c])
			} else {
				args = append(args, nil)
			}
		}
		args = append(args, row.Result)

		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("failed to insert row %d: %w", i, err)
		}
	}
	return nil
}

// Delete implements Backend.
func (s *SQLiteBackend) Delete(ctx context.Context, scope Scope) (int64, error) {
	return deleteRows(ctx, s.q, scope)
}

func deleteRows(ctx context.Context, q DBTX, scope Scope) (int64, error) {
	res, err := q.ExecContext(ctx,
		`DELETE FROM coefficient_rows WHERE tenant = ? AND calculator_id = ? AND code = ?`,
		scope.Tenant, scope.CalculatorID, scope.Code)
	if err != nil {
		return 0, fmt.Errorf("failed to delete coefficient table %q: %w", scope.Code, err)
	}
	return res.RowsAffected()
}

// List implements Backend.
func (s *SQLiteBackend) List(ctx context.Context, scope Scope) ([]Row, error) {
	query := fmt.Sprintf(`
		SELECT %s, result FROM coefficient_rows
		WHERE tenant = ? AND calculator_id = ? AND code = ?
		ORDER BY id`, conditionColumns)

	rs, err := s.q.QueryContext(ctx, query, scope.Tenant, scope.CalculatorID, scope.Code)
	if err != nil {
		return nil, fmt.Errorf("failed to list coefficient table %q: %w", scope.Code, err)
	}
	defer rs.Close()

	var rows []Row
	for rs.Next() {
		cols := make([]sql.NullString, MaxColumns)
		var result sql.NullString
		dest := make([]any, 0, MaxColumns+1)
		for i := range cols {
			dest = append(dest, &cols[i])
		}
		dest = append(dest, &result)

		if err := rs.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan coefficient row: %w", err)
		}

		row := Row{Result: result.String}
		last := -1
		for i, c := range cols {
			if c.Valid {
				last = i
			}
		}
		for i := 0; i <= last; i++ {
			row.Columns = append(row.Columns, cols[i].String)
		}
		rows = append(rows, row)
	}
	return rows, rs.Err()
}

// Close closes the database. Backends returned by WithTx share the handle.
func (s *SQLiteBackend) Close() error {
	return s.db.Close()
}
