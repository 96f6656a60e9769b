package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/adamspd/patentehub/utils"
	"github.com/mattn/go-sqlite3"
)

var (
	ErrNotFound          = errors.New("record not found")
	ErrConflict          = errors.New("unique index violation")
	ErrMissingKey        = errors.New("record has no primary key")
	ErrInvalidRecord     = errors.New("record is not a JSON object")
	ErrUnknownCollection = errors.New("unknown collection")
	ErrUnknownIndex      = errors.New("unknown index")
	ErrSchemaDowngrade   = errors.New("stored schema is newer than this build")
)

// DB is the keyed document store. Every collection lives in its own table
// holding the JSON document plus one column per secondary index.
type DB struct {
	*sql.DB
	schema      Schema
	collections map[string]*Collection
}

// Open opens (creating if needed) the store at dbPath and brings its layout
// up to the given schema. An error here means the medium is unusable and the
// caller should abort startup.
func Open(ctx context.Context, dbPath string, schema Schema) (*DB, error) {
	utils.LogStartup("Opening store at: %s (schema v%d)", dbPath, schema.Version)

	sqlDB, err := sql.Open("sqlite3", dsn(dbPath))
	if err != nil {
		utils.LogError("Failed to open store: %v", err)
		return nil, err
	}

	// One connection: transactions are serialized and :memory: stores are
	// not split across connections.
	sqlDB.SetMaxOpenConns(1)

	if err := sqlDB.PingContext(ctx); err != nil {
		utils.LogError("Failed to ping store: %v", err)
		sqlDB.Close()
		return nil, fmt.Errorf("open store %s: %w", dbPath, err)
	}

	d := &DB{
		DB:          sqlDB,
		schema:      schema,
		collections: make(map[string]*Collection, len(schema.Collections)),
	}
	for i := range schema.Collections {
		c := &schema.Collections[i]
		d.collections[c.Name] = c
	}

	if err := d.migrate(ctx); err != nil {
		utils.LogError("Failed to migrate store: %v", err)
		sqlDB.Close()
		return nil, err
	}

	utils.LogStartup("Store ready: %d collections", len(d.collections))
	return d, nil
}

func dsn(dbPath string) string {
	if dbPath == ":memory:" || strings.HasPrefix(dbPath, "file:") {
		return dbPath
	}
	return fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL&_txlock=immediate", dbPath)
}

// Collections returns the declared collection names in schema order.
func (d *DB) Collections() []string {
	names := make([]string, 0, len(d.schema.Collections))
	for _, c := range d.schema.Collections {
		names = append(names, c.Name)
	}
	return names
}

func (d *DB) HasCollection(name string) bool {
	_, ok := d.collections[name]
	return ok
}

// Version returns the schema version recorded in the medium.
func (d *DB) Version(ctx context.Context) (int, error) {
	var v int
	err := d.QueryRowContext(ctx, "PRAGMA user_version").Scan(&v)
	return v, err
}

func (d *DB) collection(name string) (*Collection, error) {
	c, ok := d.collections[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCollection, name)
	}
	return c, nil
}

// migrate only ever adds tables, index columns and indexes.
func (d *DB) migrate(ctx context.Context) error {
	current, err := d.Version(ctx)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if current > d.schema.Version {
		return fmt.Errorf("%w: stored v%d, declared v%d", ErrSchemaDowngrade, current, d.schema.Version)
	}

	tx, err := d.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for i, c := range d.schema.Collections {
		utils.LogDB("Ensuring collection %d/%d: %s", i+1, len(d.schema.Collections), c.Name)

		if _, err := tx.ExecContext(ctx, fmt.Sprintf(
			`CREATE TABLE IF NOT EXISTS %s (pk TEXT PRIMARY KEY, doc TEXT NOT NULL)`, quote(c.Name))); err != nil {
			return fmt.Errorf("failed to create collection %s: %w", c.Name, err)
		}

		existing, err := tableColumns(ctx, tx, c.Name)
		if err != nil {
			return err
		}

		var added []Index
		for _, idx := range c.Indexes {
			col := indexColumn(idx.Name)
			if existing[col] {
				continue
			}
			if _, err := tx.ExecContext(ctx, fmt.Sprintf(`ALTER TABLE %s ADD COLUMN %s TEXT`, quote(c.Name), quote(col))); err != nil {
				return fmt.Errorf("failed to add index column %s.%s: %w", c.Name, idx.Name, err)
			}
			added = append(added, idx)
		}

		if len(added) > 0 {
			if err := backfill(ctx, tx, &c, added); err != nil {
				return err
			}
		}

		for _, idx := range c.Indexes {
			unique := ""
			if idx.Unique {
				unique = "UNIQUE "
			}
			stmt := fmt.Sprintf(`CREATE %sINDEX IF NOT EXISTS %s ON %s (%s)`,
				unique, quote(c.Name+"__"+idx.Name), quote(c.Name), quote(indexColumn(idx.Name)))
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("failed to create index %s.%s: %w", c.Name, idx.Name, translate(err))
			}
		}
	}

	if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", d.schema.Version)); err != nil {
		return fmt.Errorf("write schema version: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	if current != d.schema.Version {
		utils.LogDB("Schema upgraded from v%d to v%d", current, d.schema.Version)
	}
	return nil
}

func tableColumns(ctx context.Context, tx *sql.Tx, table string) (map[string]bool, error) {
	rows, err := tx.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", quote(table)))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols := map[string]bool{}
	for rows.Next() {
		var cid, notnull, pk int
		var name, ctype string
		var dflt interface{}
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dflt, &pk); err != nil {
			return nil, err
		}
		cols[name] = true
	}
	return cols, rows.Err()
}

// backfill computes the values of freshly added index columns for rows
// written before the index existed.
func backfill(ctx context.Context, tx *sql.Tx, c *Collection, added []Index) error {
	rows, err := tx.QueryContext(ctx, fmt.Sprintf("SELECT pk, doc FROM %s", quote(c.Name)))
	if err != nil {
		return err
	}
	type row struct{ pk, doc string }
	var pending []row
	for rows.Next() {
		var r row
		if err := rows.Scan(&r.pk, &r.doc); err != nil {
			rows.Close()
			return err
		}
		pending = append(pending, r)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for _, r := range pending {
		fields, err := decodeDoc([]byte(r.doc))
		if err != nil {
			return fmt.Errorf("backfill %s/%s: %w", c.Name, r.pk, err)
		}
		for _, idx := range added {
			_, err := tx.ExecContext(ctx, fmt.Sprintf("UPDATE %s SET %s = ? WHERE pk = ?", quote(c.Name), quote(indexColumn(idx.Name))),
				indexValue(fields, idx), r.pk)
			if err != nil {
				return fmt.Errorf("backfill %s/%s: %w", c.Name, r.pk, err)
			}
		}
	}

	utils.LogDB("Backfilled %d index(es) over %d %s record(s)", len(added), len(pending), c.Name)
	return nil
}

func translate(err error) error {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.ExtendedCode {
		case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
			return fmt.Errorf("%w: %v", ErrConflict, err)
		}
	}
	return err
}

func quote(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

func indexColumn(name string) string {
	return "ix_" + name
}
