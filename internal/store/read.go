package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Aliases returns every stored alias keyed by mangled name.
func (s *Store) Aliases(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT mangled, canonical FROM aliases
		ORDER BY seq ASC, mangled COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query aliases: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var mangled, canonical string
		if err := rows.Scan(&mangled, &canonical); err != nil {
			return nil, fmt.Errorf("scan alias: %w", err)
		}
		out[mangled] = canonical
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate aliases: %w", err)
	}
	return out, nil
}

// ReadUnit returns the unit with the given ID.
func (s *Store) ReadUnit(ctx context.Context, id string) (Unit, error) {
	var u Unit
	err := s.db.QueryRowContext(ctx, `
		SELECT id, source, seq FROM units WHERE id = ?
	`, id).Scan(&u.ID, &u.Source, &u.Seq)
	if errors.Is(err, sql.ErrNoRows) {
		return Unit{}, fmt.Errorf("unit %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Unit{}, fmt.Errorf("read unit: %w", err)
	}
	return u, nil
}

// Units returns all units in seq order.
func (s *Store) Units(ctx context.Context) ([]Unit, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, source, seq FROM units
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query units: %w", err)
	}
	defer rows.Close()

	units := []Unit{}
	for rows.Next() {
		var u Unit
		if err := rows.Scan(&u.ID, &u.Source, &u.Seq); err != nil {
			return nil, fmt.Errorf("scan unit: %w", err)
		}
		units = append(units, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate units: %w", err)
	}
	return units, nil
}

// ReadLowerings returns a unit's log in seq order.
//
// Returns an empty slice (not nil) if the unit logged nothing.
func (s *Store) ReadLowerings(ctx context.Context, unitID string) ([]Lowering, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, operator, operation, types, lowering_id
		FROM lowerings
		WHERE unit_id = ?
		ORDER BY seq ASC, id ASC
	`, unitID)
	if err != nil {
		return nil, fmt.Errorf("query lowerings: %w", err)
	}
	defer rows.Close()

	out := []Lowering{}
	for rows.Next() {
		var l Lowering
		var typesJSON string
		if err := rows.Scan(&l.Seq, &l.Operator, &l.Operation, &typesJSON, &l.LoweringID); err != nil {
			return nil, fmt.Errorf("scan lowering: %w", err)
		}
		if l.Types, err = unmarshalTypes(typesJSON); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate lowerings: %w", err)
	}
	return out, nil
}

// LastSeq returns the highest seq stored in any table, or 0.
func (s *Store) LastSeq(ctx context.Context) (int64, error) {
	var seq sql.NullInt64
	err := s.db.QueryRowContext(ctx, `
		SELECT MAX(seq) FROM (
			SELECT seq FROM aliases
			UNION ALL SELECT seq FROM units
			UNION ALL SELECT seq FROM lowerings
		)
	`).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("last seq: %w", err)
	}
	return seq.Int64, nil
}
