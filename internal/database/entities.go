package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"maps"
	"time"

	"github.com/google/uuid"

	"github.com/fabolze/SoAWebApp-sub000/internal/dataset"
	"github.com/fabolze/SoAWebApp-sub000/internal/entity"
	"github.com/fabolze/SoAWebApp-sub000/internal/logger"
)

var _ dataset.Loader = (*Database)(nil)

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// SaveEntity inserts or replaces rec under kind. A record without an id is
// given a generated one; the stored record is returned.
func (d *Database) SaveEntity(ctx context.Context, kind entity.Kind, rec entity.Record) (entity.Record, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("save entity: %w", unsupported(kind))
	}
	return d.saveEntity(ctx, d.db, kind, rec)
}

func (d *Database) saveEntity(ctx context.Context, ex execer, kind entity.Kind, rec entity.Record) (entity.Record, error) {
	id := rec.ID()
	if id == "" {
		id = uuid.NewString()
		rec = maps.Clone(rec)
		if rec == nil {
			rec = entity.Record{}
		}
		rec["id"] = id
	}

	body, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s %q: %w", kind, id, err)
	}

	query := d.qb.Build(`
		INSERT INTO entities (row_id, kind, entity_id, position, body, updated_at)
		VALUES (?, ?, ?, (SELECT COALESCE(MAX(position), 0) + 1 FROM entities WHERE kind = ?), ?, ?)
		ON CONFLICT (kind, entity_id) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at
	`)
	_, err = ex.ExecContext(ctx, query,
		uuid.NewString(), string(kind), id, string(kind), string(body), time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to save %s %q: %w", kind, id, err)
	}
	return rec, nil
}

// ListEntities returns the records of kind in insertion order.
func (d *Database) ListEntities(ctx context.Context, kind entity.Kind) ([]entity.Record, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("list entities: %w", unsupported(kind))
	}
	rows, err := d.db.QueryContext(ctx,
		d.qb.Build(`SELECT body FROM entities WHERE kind = ? ORDER BY position`), string(kind))
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", kind, err)
	}
	defer rows.Close()

	records := []entity.Record{}
	for rows.Next() {
		var body []byte
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", kind, err)
		}
		rec, err := decodeBody(body)
		if err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", kind, err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// GetEntity returns one record by id.
func (d *Database) GetEntity(ctx context.Context, kind entity.Kind, id string) (entity.Record, bool, error) {
	var body []byte
	err := d.db.QueryRowContext(ctx,
		d.qb.Build(`SELECT body FROM entities WHERE kind = ? AND entity_id = ?`), string(kind), id).Scan(&body)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get %s %q: %w", kind, id, err)
	}
	rec, err := decodeBody(body)
	if err != nil {
		return nil, false, fmt.Errorf("failed to decode %s %q: %w", kind, id, err)
	}
	return rec, true, nil
}

// DeleteEntity removes one record and reports whether it existed.
func (d *Database) DeleteEntity(ctx context.Context, kind entity.Kind, id string) (bool, error) {
	res, err := d.db.ExecContext(ctx,
		d.qb.Build(`DELETE FROM entities WHERE kind = ? AND entity_id = ?`), string(kind), id)
	if err != nil {
		return false, fmt.Errorf("failed to delete %s %q: %w", kind, id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// CountByKind returns the number of stored records per kind.
func (d *Database) CountByKind(ctx context.Context) (map[entity.Kind]int, error) {
	rows, err := d.db.QueryContext(ctx, `SELECT kind, COUNT(*) FROM entities GROUP BY kind`)
	if err != nil {
		return nil, fmt.Errorf("failed to count entities: %w", err)
	}
	defer rows.Close()

	counts := make(map[entity.Kind]int)
	for rows.Next() {
		var kind string
		var n int
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, err
		}
		counts[entity.Kind(kind)] = n
	}
	return counts, rows.Err()
}

// Load reads every stored record into a bundle.
func (d *Database) Load(ctx context.Context) (dataset.Bundle, error) {
	rows, err := d.db.QueryContext(ctx, `SELECT kind, body FROM entities ORDER BY kind, position`)
	if err != nil {
		return nil, fmt.Errorf("failed to load entities: %w", err)
	}
	defer rows.Close()

	b := dataset.NewBundle()
	for rows.Next() {
		var kind string
		var body []byte
		if err := rows.Scan(&kind, &body); err != nil {
			return nil, err
		}
		k := entity.Kind(kind)
		if !k.Valid() {
			logger.Warning("Skipping stored entity of unknown kind", "kind", kind)
			continue
		}
		rec, err := decodeBody(body)
		if err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", kind, err)
		}
		b[k] = append(b[k], rec)
	}
	return b, rows.Err()
}

// ImportBundle saves every record of b in one transaction and returns how many
// were written.
func (d *Database) ImportBundle(ctx context.Context, b dataset.Bundle) (int, error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin import: %w", err)
	}
	defer tx.Rollback()

	n := 0
	for _, kind := range entity.Kinds {
		for _, rec := range b.List(kind) {
			if _, err := d.saveEntity(ctx, tx, kind, rec); err != nil {
				return 0, err
			}
			n++
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit import: %w", err)
	}
	logger.Info("Imported entities", "count", n)
	return n, nil
}

func decodeBody(body []byte) (entity.Record, error) {
	var rec entity.Record
	if err := json.Unmarshal(body, &rec); err != nil {
		return nil, err
	}
	if rec == nil {
		rec = entity.Record{}
	}
	return rec, nil
}

func unsupported(kind entity.Kind) error {
	_, err := entity.ParseKind(string(kind))
	return err
}
