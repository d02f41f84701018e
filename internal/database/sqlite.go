package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/mattn/go-sqlite3"

	"ecorpus-go/internal/database/migrations"
	"ecorpus-go/internal/database/sqlc"
)

// MemoryPath opens a private in-memory catalog.
const MemoryPath = ":memory:"

// DB is the sqlite catalog. Reads outside a transaction go through Queries;
// units of work go through BeginTransaction.
type DB struct {
	db      *sql.DB
	queries *sqlc.Queries
	path    string
}

// Tx is a transactional handle. Every query issued through Queries runs on the
// transaction's connection and sees its uncommitted writes.
type Tx struct {
	tx      *sql.Tx
	queries *sqlc.Queries
	depth   int
}

// Open opens the catalog at path and wraps it with typed queries.
// path can be a file path or ":memory:".
func Open(path string) (*DB, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}

	return &DB{
		db:      db,
		queries: sqlc.New(db),
		path:    path,
	}, nil
}

// OpenConnection opens and configures a sqlite connection pool.
// Foreign keys are enforced, writers wait up to five seconds for the lock and
// every transaction starts with BEGIN IMMEDIATE so the generation read and the
// row insert happen under the same write lock.
func OpenConnection(path string) (*sql.DB, error) {
	params := []string{
		"_foreign_keys=on",
		"_busy_timeout=5000",
		"_txlock=immediate",
	}
	if path != MemoryPath {
		params = append(params, "_journal_mode=WAL", "_synchronous=NORMAL")
	}

	db, err := sql.Open("sqlite3", path+"?"+strings.Join(params, "&"))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if path == MemoryPath {
		// Each new connection would get its own empty database.
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return db, nil
}

// Queries returns the non-transactional query set. It must not be used from
// inside a unit of work on a single-connection (in-memory) catalog.
func (d *DB) Queries() *sqlc.Queries {
	return d.queries
}

// BeginTransaction runs work inside a new transaction on its own connection.
// The transaction commits when work returns nil and rolls back otherwise; the
// error returned by work is always returned unchanged in kind.
func (d *DB) BeginTransaction(ctx context.Context, work func(ctx context.Context, tx *Tx) error) (err error) {
	sqlTx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = sqlTx.Rollback()
			panic(p)
		}
	}()

	tx := &Tx{tx: sqlTx, queries: d.queries.WithTx(sqlTx)}
	if err := work(ctx, tx); err != nil {
		if rbErr := sqlTx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback failed: %v)", err, rbErr)
		}
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Queries returns the query set bound to this transaction.
func (t *Tx) Queries() *sqlc.Queries {
	return t.queries
}

// BeginTransaction runs work inside a savepoint of t. A failing nested unit is
// rolled back to its savepoint and its error returned; the caller may absorb
// it and keep using t.
func (t *Tx) BeginTransaction(ctx context.Context, work func(ctx context.Context, tx *Tx) error) error {
	name := fmt.Sprintf("sp_%d", t.depth+1)
	if _, err := t.tx.ExecContext(ctx, "SAVEPOINT "+name); err != nil {
		return fmt.Errorf("creating savepoint %s: %w", name, err)
	}

	child := &Tx{tx: t.tx, queries: t.queries, depth: t.depth + 1}
	if err := work(ctx, child); err != nil {
		if rbErr := t.rollbackTo(ctx, name); rbErr != nil {
			return fmt.Errorf("%w (rollback failed: %v)", err, rbErr)
		}
		return err
	}

	if _, err := t.tx.ExecContext(ctx, "RELEASE "+name); err != nil {
		return fmt.Errorf("releasing savepoint %s: %w", name, err)
	}
	return nil
}

// rollbackTo undoes the writes made since the savepoint and pops it.
func (t *Tx) rollbackTo(ctx context.Context, name string) error {
	if _, err := t.tx.ExecContext(ctx, "ROLLBACK TO "+name); err != nil {
		return err
	}
	_, err := t.tx.ExecContext(ctx, "RELEASE "+name)
	return err
}

// Path returns the database file path (or ":memory:" for in-memory databases).
func (d *DB) Path() string {
	return d.path
}

// CheckMigrations verifies the database schema is up-to-date.
func (d *DB) CheckMigrations() error {
	return migrations.CheckDBMigrationStatus(d.db)
}

// MigrateUp applies pending schema migrations.
func (d *DB) MigrateUp() error {
	return migrations.MigrateUp(d.db)
}

// BackupTo creates a complete copy of the database at destPath using VACUUM INTO.
func (d *DB) BackupTo(ctx context.Context, destPath string) error {
	if _, err := d.db.ExecContext(ctx, "VACUUM INTO ?", destPath); err != nil {
		return fmt.Errorf("backing up database: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	if d.db != nil {
		return d.db.Close()
	}
	return nil
}

// IsNotFound reports whether err is the "no rows" result of a :one query.
func IsNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// IsUniqueViolation reports whether err is a UNIQUE constraint failure.
func IsUniqueViolation(err error) bool {
	return hasExtendedCode(err, sqlite3.ErrConstraintUnique)
}

// IsPrimaryKeyViolation reports whether err is a PRIMARY KEY constraint failure.
func IsPrimaryKeyViolation(err error) bool {
	return hasExtendedCode(err, sqlite3.ErrConstraintPrimaryKey)
}

// IsForeignKeyViolation reports whether err is a FOREIGN KEY constraint failure.
func IsForeignKeyViolation(err error) bool {
	return hasExtendedCode(err, sqlite3.ErrConstraintForeignKey)
}

func hasExtendedCode(err error, code sqlite3.ErrNoExtended) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.ExtendedCode == code
}
