package store

import (
	"context"
	"fmt"
)

// Drift is a dispatch decision that differs between two units. Before or
// After is empty when the decision appears in only one unit.
type Drift struct {
	LoweringID string
	Operator   string
	Types      []string
	Before     string
	After      string
}

// CompareUnits reports every decision whose selected operation differs
// between unit a and unit b. Decisions are keyed by LoweringID; the first
// occurrence in each unit counts. Results follow a's seq order, then b's
// for decisions only b made.
func (s *Store) CompareUnits(ctx context.Context, a, b string) ([]Drift, error) {
	before, err := s.ReadLowerings(ctx, a)
	if err != nil {
		return nil, fmt.Errorf("compare units: %w", err)
	}
	after, err := s.ReadLowerings(ctx, b)
	if err != nil {
		return nil, fmt.Errorf("compare units: %w", err)
	}

	afterByID := make(map[string]Lowering, len(after))
	for _, l := range after {
		if _, ok := afterByID[l.LoweringID]; !ok {
			afterByID[l.LoweringID] = l
		}
	}

	drifts := []Drift{}
	seen := make(map[string]bool, len(before))
	for _, l := range before {
		if seen[l.LoweringID] {
			continue
		}
		seen[l.LoweringID] = true
		other, ok := afterByID[l.LoweringID]
		if ok && other.Operation == l.Operation {
			continue
		}
		drifts = append(drifts, Drift{
			LoweringID: l.LoweringID,
			Operator:   l.Operator,
			Types:      l.Types,
			Before:     l.Operation,
			After:      other.Operation,
		})
	}
	for _, l := range after {
		if seen[l.LoweringID] {
			continue
		}
		seen[l.LoweringID] = true
		drifts = append(drifts, Drift{
			LoweringID: l.LoweringID,
			Operator:   l.Operator,
			Types:      l.Types,
			After:      l.Operation,
		})
	}
	return drifts, nil
}
