package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/lazypower/ecan/internal/atomspace"
)

var _ atomspace.Store = (*DB)(nil)

// unavailable marks a driver-level failure as a store outage.
func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, atomspace.ErrStoreUnavailable, err)
}

// AddNode inserts a node, or returns the existing handle for the same
// type and name.
func (db *DB) AddNode(ctx context.Context, t atomspace.Type, name string) (atomspace.Handle, error) {
	if !t.Valid() || !t.IsNode() {
		return 0, fmt.Errorf("add node %q: %w: %s", name, atomspace.ErrInvalidType, t)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, unavailable("add node", err)
	}
	defer tx.Rollback()

	var id int64
	err = tx.QueryRowContext(ctx, `SELECT id FROM atoms WHERE type = ? AND name = ?`, string(t), name).Scan(&id)
	if err == nil {
		return atomspace.Handle(id), nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("add node: lookup: %w", err)
	}

	id, err = insertAtom(ctx, tx, t, sql.NullString{String: name, Valid: true})
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("add node: commit: %w", err)
	}
	return atomspace.Handle(id), nil
}

// AddLink inserts a link over outgoing. Every target must exist.
func (db *DB) AddLink(ctx context.Context, t atomspace.Type, outgoing ...atomspace.Handle) (atomspace.Handle, error) {
	if !t.Valid() || !t.IsLink() {
		return 0, fmt.Errorf("add link: %w: %s", atomspace.ErrInvalidType, t)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, unavailable("add link", err)
	}
	defer tx.Rollback()

	for _, o := range outgoing {
		ok, err := exists(ctx, tx, o)
		if err != nil {
			return 0, err
		}
		if !ok {
			return 0, fmt.Errorf("add link target %d: %w", o, atomspace.ErrNotFound)
		}
	}

	id, err := insertAtom(ctx, tx, t, sql.NullString{})
	if err != nil {
		return 0, err
	}
	for i, o := range outgoing {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO atom_outgoing (link_id, position, target_id) VALUES (?, ?, ?)`,
			id, i, int64(o)); err != nil {
			return 0, fmt.Errorf("add link outgoing: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("add link: commit: %w", err)
	}
	return atomspace.Handle(id), nil
}

func insertAtom(ctx context.Context, tx *sql.Tx, t atomspace.Type, name sql.NullString) (int64, error) {
	tv := atomspace.DefaultTruthValue
	result, err := tx.ExecContext(ctx, `
		INSERT INTO atoms (type, name, tv_strength, tv_confidence, sti, lti, vlti, created_at)
		VALUES (?, ?, ?, ?, 0, 0, ?, ?)
	`, string(t), name, tv.Strength, tv.Confidence, int(atomspace.Disposable), time.Now().UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("insert atom: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert atom id: %w", err)
	}
	return id, nil
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func exists(ctx context.Context, q querier, h atomspace.Handle) (bool, error) {
	var n int
	if err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM atoms WHERE id = ?`, int64(h)).Scan(&n); err != nil {
		return false, unavailable("lookup atom", err)
	}
	return n > 0, nil
}

// Get returns the element stored under h.
func (db *DB) Get(ctx context.Context, h atomspace.Handle) (atomspace.Element, error) {
	var (
		e        atomspace.Element
		typ      string
		name     sql.NullString
		strength sql.NullFloat64
		conf     sql.NullFloat64
		sti, lti sql.NullInt64
		vlti     sql.NullInt64
	)
	err := db.QueryRowContext(ctx, `
		SELECT id, type, name, tv_strength, tv_confidence, sti, lti, vlti
		FROM atoms WHERE id = ?
	`, int64(h)).Scan(&e.Handle, &typ, &name, &strength, &conf, &sti, &lti, &vlti)
	if errors.Is(err, sql.ErrNoRows) {
		return atomspace.Element{}, fmt.Errorf("get %d: %w", h, atomspace.ErrNotFound)
	}
	if err != nil {
		return atomspace.Element{}, unavailable(fmt.Sprintf("get %d", h), err)
	}

	e.Type = atomspace.Type(typ)
	e.Name = name.String
	if strength.Valid && conf.Valid {
		e.TV = &atomspace.TruthValue{Strength: strength.Float64, Confidence: conf.Float64}
	}
	if sti.Valid && lti.Valid && vlti.Valid {
		e.AV = &atomspace.AttentionValue{
			STI:  sti.Int64,
			LTI:  lti.Int64,
			VLTI: atomspace.Disposability(vlti.Int64),
		}
	}

	if e.Type.IsLink() {
		out, err := scanHandles(db.QueryContext(ctx,
			`SELECT target_id FROM atom_outgoing WHERE link_id = ? ORDER BY position`, int64(h)))
		if err != nil {
			return atomspace.Element{}, unavailable(fmt.Sprintf("get %d outgoing", h), err)
		}
		e.Outgoing = out
	}
	return e, nil
}

// GetByType returns matching handles in ascending order.
func (db *DB) GetByType(ctx context.Context, t atomspace.Type, subtypes bool) ([]atomspace.Handle, error) {
	types := []atomspace.Type{t}
	if subtypes {
		types = atomspace.Subtypes(t)
	}
	args := make([]any, len(types))
	for i, typ := range types {
		args[i] = string(typ)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(types)), ",")

	hs, err := scanHandles(db.QueryContext(ctx,
		fmt.Sprintf(`SELECT id FROM atoms WHERE type IN (%s) ORDER BY id`, placeholders), args...))
	if err != nil {
		return nil, unavailable("get by type", err)
	}
	return hs, nil
}

// Incoming returns the links that reference h.
func (db *DB) Incoming(ctx context.Context, h atomspace.Handle) ([]atomspace.Handle, error) {
	ok, err := exists(ctx, db, h)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("incoming %d: %w", h, atomspace.ErrNotFound)
	}
	return incoming(ctx, db, h)
}

func incoming(ctx context.Context, q querier, h atomspace.Handle) ([]atomspace.Handle, error) {
	hs, err := scanHandles(q.QueryContext(ctx,
		`SELECT DISTINCT link_id FROM atom_outgoing WHERE target_id = ? ORDER BY link_id`, int64(h)))
	if err != nil {
		return nil, unavailable(fmt.Sprintf("incoming %d", h), err)
	}
	return hs, nil
}

func scanHandles(rows *sql.Rows, err error) ([]atomspace.Handle, error) {
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []atomspace.Handle
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, atomspace.Handle(id))
	}
	return out, rows.Err()
}

// SetTruthValue replaces the element's truth value.
func (db *DB) SetTruthValue(ctx context.Context, h atomspace.Handle, tv atomspace.TruthValue) error {
	if !tv.Valid() {
		return fmt.Errorf("set truth value %d: %w: %+v", h, atomspace.ErrInvalidState, tv)
	}
	return db.update(ctx, h, "set truth value",
		`UPDATE atoms SET tv_strength = ?, tv_confidence = ? WHERE id = ?`,
		tv.Strength, tv.Confidence, int64(h))
}

// SetAttentionValue replaces the element's attention value.
func (db *DB) SetAttentionValue(ctx context.Context, h atomspace.Handle, av atomspace.AttentionValue) error {
	return db.update(ctx, h, "set attention value",
		`UPDATE atoms SET sti = ?, lti = ?, vlti = ? WHERE id = ?`,
		av.STI, av.LTI, int(av.VLTI), int64(h))
}

func (db *DB) update(ctx context.Context, h atomspace.Handle, op, query string, args ...any) error {
	result, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s %d: %w", op, h, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s %d: rows affected: %w", op, h, err)
	}
	if n == 0 {
		return fmt.Errorf("%s %d: %w", op, h, atomspace.ErrNotFound)
	}
	return nil
}

// Remove deletes h, and with recursive every link that references it
// directly or transitively. Links are always created after their targets,
// so deleting in descending handle order satisfies the foreign keys.
func (db *DB) Remove(ctx context.Context, h atomspace.Handle, recursive bool) (bool, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return false, unavailable("remove", err)
	}
	defer tx.Rollback()

	ok, err := exists(ctx, tx, h)
	if err != nil || !ok {
		return false, err
	}

	victims := []atomspace.Handle{h}
	seen := map[atomspace.Handle]bool{h: true}
	for i := 0; i < len(victims); i++ {
		in, err := incoming(ctx, tx, victims[i])
		if err != nil {
			return false, err
		}
		if len(in) > 0 && !recursive {
			return false, nil
		}
		for _, l := range in {
			if !seen[l] {
				seen[l] = true
				victims = append(victims, l)
			}
		}
	}

	slices.Sort(victims)
	slices.Reverse(victims)
	for _, v := range victims {
		if _, err := tx.ExecContext(ctx, `DELETE FROM atom_outgoing WHERE link_id = ?`, int64(v)); err != nil {
			return false, fmt.Errorf("remove %d outgoing: %w", v, err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM atoms WHERE id = ?`, int64(v)); err != nil {
			return false, fmt.Errorf("remove %d: %w", v, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("remove %d: commit: %w", h, err)
	}
	return true, nil
}

// Count returns the number of stored elements.
func (db *DB) Count(ctx context.Context) (int, error) {
	var n int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM atoms`).Scan(&n); err != nil {
		return 0, unavailable("count", err)
	}
	return n, nil
}
