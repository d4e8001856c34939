package persist

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/l1jgo/autobuild/internal/blueprint"
)

// BlueprintRepo stores captured blueprints. It implements blueprint.Source.
type BlueprintRepo struct {
	db *sql.DB
}

func NewBlueprintRepo(db *sql.DB) *BlueprintRepo {
	return &BlueprintRepo{db: db}
}

// Load reads a blueprint's elements in capture order and checks them
// against the stored digest.
func (r *BlueprintRepo) Load(ctx context.Context, name string) ([]blueprint.RawElement, error) {
	var (
		id     int64
		digest []byte
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, digest FROM blueprints WHERE name = $1`, name,
	).Scan(&id, &digest)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("blueprint %q: %w", name, blueprint.ErrBlueprintMissing)
	}
	if err != nil {
		return nil, fmt.Errorf("load blueprint %q: %w", name, err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT prefab, pos_x, pos_y, pos_z, rot_x, rot_y, rot_z, grade, skin, flags, items
		 FROM blueprint_elements WHERE blueprint_id = $1 ORDER BY seq`, id,
	)
	if err != nil {
		return nil, fmt.Errorf("load blueprint %q elements: %w", name, err)
	}
	defer rows.Close()

	var elems []blueprint.RawElement
	for rows.Next() {
		var (
			e            blueprint.RawElement
			px, py, pz   float64
			rx, ry, rz   float64
			grade        sql.NullInt64
			skin         int64
			flags, items []byte
		)
		if err := rows.Scan(&e.Prefab, &px, &py, &pz, &rx, &ry, &rz, &grade, &skin, &flags, &items); err != nil {
			return nil, fmt.Errorf("scan blueprint %q element: %w", name, err)
		}
		e.Position = []float64{px, py, pz}
		e.Rotation = []float64{rx, ry, rz}
		if grade.Valid {
			g := int(grade.Int64)
			e.Grade = &g
		}
		e.Skin = uint64(skin)
		if len(flags) > 0 {
			if err := json.Unmarshal(flags, &e.Flags); err != nil {
				return nil, fmt.Errorf("blueprint %q flags: %v: %w", name, err, blueprint.ErrBlueprintCorrupt)
			}
		}
		if len(items) > 0 {
			if err := json.Unmarshal(items, &e.Items); err != nil {
				return nil, fmt.Errorf("blueprint %q items: %v: %w", name, err, blueprint.ErrBlueprintCorrupt)
			}
		}
		elems = append(elems, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load blueprint %q elements: %w", name, err)
	}

	sum, err := Digest(elems)
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(sum, digest) {
		return nil, fmt.Errorf("blueprint %q digest mismatch: %w", name, blueprint.ErrBlueprintCorrupt)
	}
	return elems, nil
}

// Save replaces the blueprint stored under name in one transaction.
func (r *BlueprintRepo) Save(ctx context.Context, name, owner string, elems []blueprint.RawElement) error {
	for i, e := range elems {
		if len(e.Position) != 3 || len(e.Rotation) != 3 {
			return fmt.Errorf("blueprint %q element %d: %w", name, i, blueprint.ErrBlueprintCorrupt)
		}
	}
	sum, err := Digest(elems)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("blueprint begin: %w", err)
	}
	defer tx.Rollback()

	var id int64
	if err := tx.QueryRowContext(ctx,
		`INSERT INTO blueprints (name, owner, digest) VALUES ($1, $2, $3)
		 ON CONFLICT (name) DO UPDATE SET owner = EXCLUDED.owner, digest = EXCLUDED.digest, updated_at = now()
		 RETURNING id`,
		name, owner, sum,
	).Scan(&id); err != nil {
		return fmt.Errorf("upsert blueprint %q: %w", name, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM blueprint_elements WHERE blueprint_id = $1`, id); err != nil {
		return fmt.Errorf("clear blueprint %q: %w", name, err)
	}

	for i, e := range elems {
		var grade any
		if e.Grade != nil {
			grade = int64(*e.Grade)
		}
		flags, err := nullJSON(len(e.Flags) > 0, e.Flags)
		if err != nil {
			return err
		}
		items, err := nullJSON(len(e.Items) > 0, e.Items)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO blueprint_elements
			 (blueprint_id, seq, prefab, pos_x, pos_y, pos_z, rot_x, rot_y, rot_z, grade, skin, flags, items)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
			id, i, e.Prefab,
			e.Position[0], e.Position[1], e.Position[2],
			e.Rotation[0], e.Rotation[1], e.Rotation[2],
			grade, int64(e.Skin), flags, items,
		); err != nil {
			return fmt.Errorf("insert blueprint %q element %d: %w", name, i, err)
		}
	}
	return tx.Commit()
}

// List returns every stored blueprint name in alphabetical order.
func (r *BlueprintRepo) List(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT name FROM blueprints ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list blueprints: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("scan blueprint name: %w", err)
		}
		names = append(names, n)
	}
	return names, rows.Err()
}

func nullJSON(present bool, v any) (any, error) {
	if !present {
		return nil, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode element field: %w", err)
	}
	return raw, nil
}
