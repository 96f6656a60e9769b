package db

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/adamspd/patentehub/utils"
)

// Tx is a unit of work over the store. Either every write made through it
// becomes visible or none does.
type Tx struct {
	ctx context.Context
	tx  *sql.Tx
	db  *DB
}

// Update runs fn inside a read-write transaction, committing when fn
// returns nil. Do not call DB-level methods from inside fn: the store holds a
// single connection and they would wait for fn forever.
func (d *DB) Update(ctx context.Context, fn func(tx *Tx) error) error {
	start := time.Now()
	sqlTx, err := d.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&Tx{ctx: ctx, tx: sqlTx, db: d}); err != nil {
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", translate(err))
	}
	utils.LogDebug("Transaction committed in %v", time.Since(start))
	return nil
}

// View runs fn inside a transaction that is always rolled back.
func (d *DB) View(ctx context.Context, fn func(tx *Tx) error) error {
	sqlTx, err := d.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer sqlTx.Rollback()
	return fn(&Tx{ctx: ctx, tx: sqlTx, db: d})
}

// Put marshals record to JSON and stores it.
func (t *Tx) Put(coll string, record interface{}) error {
	raw, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode %s record: %w", coll, err)
	}
	return t.PutRaw(coll, raw)
}

// PutRaw inserts the record or replaces the one with the same primary key.
func (t *Tx) PutRaw(coll string, raw json.RawMessage) error {
	c, err := t.db.collection(coll)
	if err != nil {
		return err
	}
	fields, err := decodeDoc(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", coll, err)
	}
	key, err := c.keyOf(fields)
	if err != nil {
		return err
	}

	var doc bytes.Buffer
	if err := json.Compact(&doc, raw); err != nil {
		return fmt.Errorf("%s/%s: %w", coll, key, err)
	}

	cols := []string{"pk", "doc"}
	args := []interface{}{key, doc.String()}
	for _, idx := range c.Indexes {
		cols = append(cols, quote(indexColumn(idx.Name)))
		args = append(args, indexValue(fields, idx))
	}
	updates := make([]string, 0, len(cols)-1)
	for _, col := range cols[1:] {
		updates = append(updates, fmt.Sprintf("%s = excluded.%s", col, col))
	}

	stmt := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) ON CONFLICT(pk) DO UPDATE SET %s",
		quote(c.Name), strings.Join(cols, ", "),
		strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", "),
		strings.Join(updates, ", "))

	if _, err := t.tx.ExecContext(t.ctx, stmt, args...); err != nil {
		return fmt.Errorf("put %s/%s: %w", coll, key, translate(err))
	}
	return nil
}

// Get returns the raw record stored under key, or ErrNotFound.
func (t *Tx) Get(coll, key string) (json.RawMessage, error) {
	c, err := t.db.collection(coll)
	if err != nil {
		return nil, err
	}
	var doc string
	err = t.tx.QueryRowContext(t.ctx, fmt.Sprintf("SELECT doc FROM %s WHERE pk = ?", quote(c.Name)), key).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, coll, key)
	}
	if err != nil {
		return nil, err
	}
	return json.RawMessage(doc), nil
}

// All returns every record of the collection in insertion order.
func (t *Tx) All(coll string) ([]json.RawMessage, error) {
	c, err := t.db.collection(coll)
	if err != nil {
		return nil, err
	}
	return t.docs(fmt.Sprintf("SELECT doc FROM %s ORDER BY rowid", quote(c.Name)))
}

// ByIndex returns the records whose index value matches. An empty value
// matches records where the indexed field is absent.
func (t *Tx) ByIndex(coll, index string, values ...string) ([]json.RawMessage, error) {
	c, err := t.db.collection(coll)
	if err != nil {
		return nil, err
	}
	idx, err := c.index(index)
	if err != nil {
		return nil, err
	}
	where, args := lookup(idx, values)
	return t.docs(fmt.Sprintf("SELECT doc FROM %s WHERE %s ORDER BY rowid", quote(c.Name), where), args...)
}

// Unique returns the single record matching a unique index, or ErrNotFound.
func (t *Tx) Unique(coll, index string, values ...string) (json.RawMessage, error) {
	docs, err := t.ByIndex(coll, index, values...)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("%w: %s by %s", ErrNotFound, coll, index)
	}
	return docs[0], nil
}

// Delete removes the record stored under key. Deleting an absent key is not
// an error.
func (t *Tx) Delete(coll, key string) error {
	c, err := t.db.collection(coll)
	if err != nil {
		return err
	}
	_, err = t.tx.ExecContext(t.ctx, fmt.Sprintf("DELETE FROM %s WHERE pk = ?", quote(c.Name)), key)
	return err
}

func (t *Tx) Count(coll string) (int, error) {
	c, err := t.db.collection(coll)
	if err != nil {
		return 0, err
	}
	var n int
	err = t.tx.QueryRowContext(t.ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", quote(c.Name))).Scan(&n)
	return n, err
}

func (t *Tx) docs(query string, args ...interface{}) ([]json.RawMessage, error) {
	rows, err := t.tx.QueryContext(t.ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []json.RawMessage{}
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, err
		}
		out = append(out, json.RawMessage(doc))
	}
	return out, rows.Err()
}

func lookup(idx *Index, values []string) (string, []interface{}) {
	col := quote(indexColumn(idx.Name))
	if len(values) != len(idx.Fields) {
		return "0", nil
	}
	for _, v := range values {
		if v == "" {
			return col + " IS NULL", nil
		}
	}
	return col + " = ?", []interface{}{strings.Join(values, compositeSep)}
}

// Get decodes the record stored under key.
func Get[T any](tx *Tx, coll, key string) (*T, error) {
	raw, err := tx.Get(coll, key)
	if err != nil {
		return nil, err
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("decode %s/%s: %w", coll, key, err)
	}
	return &v, nil
}

// All decodes every record of the collection. The result is never nil.
func All[T any](tx *Tx, coll string) ([]T, error) {
	raws, err := tx.All(coll)
	if err != nil {
		return nil, err
	}
	return decodeAll[T](coll, raws)
}

func ByIndex[T any](tx *Tx, coll, index string, values ...string) ([]T, error) {
	raws, err := tx.ByIndex(coll, index, values...)
	if err != nil {
		return nil, err
	}
	return decodeAll[T](coll, raws)
}

func Unique[T any](tx *Tx, coll, index string, values ...string) (*T, error) {
	raw, err := tx.Unique(coll, index, values...)
	if err != nil {
		return nil, err
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("decode %s: %w", coll, err)
	}
	return &v, nil
}

func decodeAll[T any](coll string, raws []json.RawMessage) ([]T, error) {
	out := make([]T, 0, len(raws))
	for _, raw := range raws {
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("decode %s: %w", coll, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// Put stores a single record in its own transaction.
func (d *DB) Put(ctx context.Context, coll string, record interface{}) error {
	return d.Update(ctx, func(tx *Tx) error {
		return tx.Put(coll, record)
	})
}

func (d *DB) GetRaw(ctx context.Context, coll, key string) (json.RawMessage, error) {
	var raw json.RawMessage
	err := d.View(ctx, func(tx *Tx) error {
		var err error
		raw, err = tx.Get(coll, key)
		return err
	})
	return raw, err
}

func (d *DB) Delete(ctx context.Context, coll, key string) error {
	return d.Update(ctx, func(tx *Tx) error {
		return tx.Delete(coll, key)
	})
}

func (d *DB) Count(ctx context.Context, coll string) (int, error) {
	var n int
	err := d.View(ctx, func(tx *Tx) error {
		var err error
		n, err = tx.Count(coll)
		return err
	})
	return n, err
}

// Export returns every raw record of the collection in insertion order.
func (d *DB) Export(ctx context.Context, coll string) ([]json.RawMessage, error) {
	var out []json.RawMessage
	err := d.View(ctx, func(tx *Tx) error {
		var err error
		out, err = tx.All(coll)
		return err
	})
	return out, err
}

// Import upserts records by primary key in one transaction.
func (d *DB) Import(ctx context.Context, coll string, records []json.RawMessage) (int, error) {
	start := time.Now()
	err := d.Update(ctx, func(tx *Tx) error {
		for _, raw := range records {
			if err := tx.PutRaw(coll, raw); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	utils.LogDB("Imported %d %s record(s) in %v", len(records), coll, time.Since(start))
	return len(records), nil
}
