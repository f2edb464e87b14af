// Package archive reads a previously fetched batch of posts from a SQLite
// file. Rows come back in insertion order.
package archive

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"

	"tweetsieve/internal/model"
)

// DB wraps the SQLite archive.
type DB struct{ sql *sql.DB }

func Open(path string) (*DB, error) {
	d, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	d.SetMaxOpenConns(1)
	if _, err := d.Exec(`PRAGMA journal_mode=WAL; PRAGMA synchronous=NORMAL;`); err != nil {
		_ = d.Close()
		return nil, err
	}
	db := &DB{sql: d}
	if err := db.migrate(); err != nil {
		_ = d.Close()
		return nil, err
	}
	return db, nil
}

func (d *DB) Close() error { return d.sql.Close() }

func (d *DB) migrate() error {
	_, err := d.sql.Exec(`
	CREATE TABLE IF NOT EXISTS tweets (
	  seq INTEGER PRIMARY KEY AUTOINCREMENT,
	  id TEXT,
	  text TEXT,
	  created_at TEXT,
	  public_metrics TEXT,
	  raw TEXT
	);
	`)
	return err
}

// Import appends records to the archive, keeping each one's full JSON in raw.
// Records that are not objects are stored as-is so a later load reproduces
// the batch exactly.
func (d *DB) Import(ctx context.Context, records []*model.Record) (int, error) {
	tx, err := d.sql.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO tweets(id, text, created_at, public_metrics, raw) VALUES(?,?,?,?,?)`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()
	for i, r := range records {
		raw, err := json.Marshal(r)
		if err != nil {
			return i, fmt.Errorf("record %d: %w", i, err)
		}
		text, _ := r.Text()
		created, _ := r.CreatedAt()
		if _, err := stmt.ExecContext(ctx, nullable(r.ID()), nullable(text), nullable(created), nullable(string(r.PublicMetrics())), string(raw)); err != nil {
			return i, fmt.Errorf("record %d: %w", i, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return len(records), nil
}

// LoadBatch returns up to limit records in row order; limit <= 0 loads all.
// A row with raw JSON is used verbatim, otherwise an object is assembled
// from the column values.
func (d *DB) LoadBatch(ctx context.Context, limit int) ([]*model.Record, error) {
	q := `SELECT id, text, created_at, public_metrics, raw FROM tweets ORDER BY seq`
	args := []any{}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := d.sql.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*model.Record
	for rows.Next() {
		var id, text, created, pm, raw sql.NullString
		if err := rows.Scan(&id, &text, &created, &pm, &raw); err != nil {
			return nil, err
		}
		if raw.Valid && raw.String != "" {
			out = append(out, model.Parse(json.RawMessage(raw.String)))
			continue
		}
		out = append(out, model.Parse(assemble(id, text, created, pm)))
	}
	return out, rows.Err()
}

// Count returns the number of archived rows.
func (d *DB) Count(ctx context.Context) (int, error) {
	var n int
	err := d.sql.QueryRowContext(ctx, `SELECT COUNT(*) FROM tweets`).Scan(&n)
	return n, err
}

func assemble(id, text, created, pm sql.NullString) json.RawMessage {
	var buf bytes.Buffer
	buf.WriteByte('{')
	field := func(k string, v []byte) {
		if buf.Len() > 1 {
			buf.WriteByte(',')
		}
		kb, _ := json.Marshal(k)
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(v)
	}
	str := func(s string) []byte { b, _ := json.Marshal(s); return b }
	if id.Valid {
		field("id", str(id.String))
	}
	if text.Valid {
		field("text", str(text.String))
	}
	if created.Valid {
		field("created_at", str(created.String))
	}
	if pm.Valid && json.Valid([]byte(pm.String)) {
		field("public_metrics", []byte(pm.String))
	}
	buf.WriteByte('}')
	return buf.Bytes()
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
