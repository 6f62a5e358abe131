package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/roach88/lowercore/internal/ir"
)

// Unit is one lowering session.
type Unit struct {
	ID     string
	Source string
	Seq    int64
}

// Lowering is one logged dispatch decision.
type Lowering struct {
	Seq        int64
	Operator   string
	Operation  string
	Types      []string
	LoweringID string
}

// NewLowering builds the log row for an operator dispatched on types to
// the named operation.
func NewLowering(operator, operation string, types []ir.Type) Lowering {
	names := make([]string, len(types))
	for i, t := range types {
		if t == nil {
			names[i] = ir.Void.String()
			continue
		}
		names[i] = t.String()
	}
	return Lowering{
		Operator:   operator,
		Operation:  operation,
		Types:      names,
		LoweringID: ir.LoweringID(operator, types...),
	}
}

// PutAlias records that mangled resolved to canonical. A later write for
// the same mangled name replaces the earlier one.
func (s *Store) PutAlias(ctx context.Context, mangled, canonical string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO aliases (mangled, canonical, seq)
		VALUES (?, ?, ?)
		ON CONFLICT(mangled) DO UPDATE SET canonical = excluded.canonical, seq = excluded.seq
	`, mangled, canonical, s.clock.Next())
	if err != nil {
		return fmt.Errorf("put alias: %w", err)
	}
	return nil
}

// BeginUnit starts a session for source and returns it with a fresh
// UUIDv7 ID.
func (s *Store) BeginUnit(ctx context.Context, source string) (Unit, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return Unit{}, fmt.Errorf("begin unit: %w", err)
	}
	u := Unit{ID: id.String(), Source: source, Seq: s.clock.Next()}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO units (id, source, seq) VALUES (?, ?, ?)
	`, u.ID, u.Source, u.Seq)
	if err != nil {
		return Unit{}, fmt.Errorf("begin unit: %w", err)
	}
	return u, nil
}

// WriteLowering appends l to the unit's log. A zero Seq is assigned from
// the store's clock. The assigned seq is returned.
//
// Note: The unit must exist (foreign key constraint).
func (s *Store) WriteLowering(ctx context.Context, unitID string, l Lowering) (int64, error) {
	if l.Seq == 0 {
		l.Seq = s.clock.Next()
	}
	typesJSON, err := marshalTypes(l.Types)
	if err != nil {
		return 0, fmt.Errorf("write lowering: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO lowerings (unit_id, seq, operator, operation, types, lowering_id)
		VALUES (?, ?, ?, ?, ?, ?)
	`, unitID, l.Seq, l.Operator, l.Operation, typesJSON, l.LoweringID)
	if err != nil {
		return 0, fmt.Errorf("write lowering: %w", err)
	}
	return l.Seq, nil
}
