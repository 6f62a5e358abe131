package harness

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/lowercore/internal/engine"
	"github.com/roach88/lowercore/internal/intrinsics"
	"github.com/roach88/lowercore/internal/ir"
	"github.com/roach88/lowercore/internal/llvmir"
	"github.com/roach88/lowercore/internal/lowering"
	"github.com/roach88/lowercore/internal/store"
	"github.com/roach88/lowercore/internal/testutil"
)

// heapLimit bounds the memory a scenario may allocate.
const heapLimit = 16 << 20

// Option configures a scenario run.
type Option func(*runConfig)

type runConfig struct {
	logger       *slog.Logger
	registryOpts []intrinsics.Option
}

// WithLogger sets the logger handed to the registry, lowerer and host.
func WithLogger(l *slog.Logger) Option {
	return func(c *runConfig) {
		c.logger = l
	}
}

// WithRegistryOptions adds options to the default registry, e.g.
// intrinsics.WithDisabled.
func WithRegistryOptions(opts ...intrinsics.Option) Option {
	return func(c *runConfig) {
		c.registryOpts = append(c.registryOpts, opts...)
	}
}

// Harness is the execution state of one scenario run.
type Harness struct {
	store  *store.Store
	unit   store.Unit
	clock  *testutil.DeterministicClock
	lw     *lowering.Lowerer
	frame  *engine.Frame
	logger *slog.Logger

	// last is the record of the most recent successful lowering.
	last *lowering.Record
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
// Execution flow:
// 1. Create the store, seed it with the scenario's aliases
// 2. Build a registry preloaded from the store and a lowerer over it
// 3. Lower and execute each step in one frame, logging every lowering
// 4. Evaluate assertions against the trace and persisted aliases
//
// Malformed steps (unparseable types or literals) return an error; failed
// expectations are reported in the result.
func Run(scenario *Scenario, opts ...Option) (*Result, error) {
	cfg := runConfig{logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(&cfg)
	}
	ctx := context.Background()

	clock := testutil.NewDeterministicClock()
	st, err := store.Open(":memory:", store.WithClock(clock))
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	for mangled, canonical := range scenario.Aliases {
		if err := st.PutAlias(ctx, intrinsics.Normalize(mangled), intrinsics.Normalize(canonical)); err != nil {
			return nil, err
		}
	}
	unit, err := st.BeginUnit(ctx, scenario.Name)
	if err != nil {
		return nil, err
	}

	var aliasErr error
	regOpts := []intrinsics.Option{
		intrinsics.WithLogger(cfg.logger),
		intrinsics.WithAliasObserver(func(mangled, canonical string) {
			if err := st.PutAlias(ctx, mangled, canonical); err != nil {
				aliasErr = errors.Join(aliasErr, err)
			}
		}),
	}
	reg, err := intrinsics.NewDefaultRegistry(append(regOpts, cfg.registryOpts...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to build registry: %w", err)
	}
	persisted, err := st.Aliases(ctx)
	if err != nil {
		return nil, err
	}
	reg.Preload(persisted)

	layout := ir.DefaultLayout
	if scenario.PointerSize != 0 {
		layout = ir.DataLayout{PointerSize: scenario.PointerSize}
	}
	frame, err := engine.NewFrame(engine.NewHeap(heapLimit), engine.NewBasicHost(cfg.logger))
	if err != nil {
		return nil, err
	}
	frame.Layout = layout

	h := &Harness{
		store:  st,
		unit:   unit,
		clock:  clock,
		frame:  frame,
		logger: cfg.logger,
	}
	h.lw = lowering.New(layout, reg,
		lowering.WithLogger(cfg.logger),
		lowering.WithObserver(func(r lowering.Record) { h.last = &r }),
	)

	result := NewResult()
	for i, step := range scenario.Steps {
		if err := h.executeStep(ctx, i, step, result); err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
	}
	if aliasErr != nil {
		return nil, fmt.Errorf("failed to persist aliases: %w", aliasErr)
	}

	if result.Aliases, err = st.Aliases(ctx); err != nil {
		return nil, err
	}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}

// executeStep lowers and runs one step, appends its trace event and checks
// its expect clause.
func (h *Harness) executeStep(ctx context.Context, i int, step Step, result *Result) error {
	inst, types, err := BuildInstruction(step)
	if err != nil {
		return err
	}

	event := TraceEvent{Step: i, Operator: step.Op, Types: typeNames(types)}
	if step.Call != "" {
		event.Operator = "call"
	}

	h.last = nil
	op, err := h.lw.LowerInstruction(inst)
	if err != nil {
		event.Seq = h.clock.Next()
		event.Error = ErrorCode(err)
		h.logger.Info("lowering failed", "step", i, "error", err)
	} else {
		rec := h.last
		event.Operator = rec.Operator
		event.Operation = rec.Operation
		event.Seq, err = h.store.WriteLowering(ctx, h.unit.ID, store.NewLowering(rec.Operator, rec.Operation, rec.Types))
		if err != nil {
			return err
		}

		v, err := op.Execute(h.frame)
		if err != nil {
			event.Error = ErrorCode(err)
		} else {
			event.Value = ir.FormatValue(v)
		}
		h.logger.Info("step executed", "step", i, "operation", event.Operation, "value", event.Value, "error", event.Error)
	}
	result.Trace = append(result.Trace, event)

	for _, msg := range checkExpect(event, step.Expect) {
		result.AddError(fmt.Sprintf("step %d (%s): %s", i, event.Operator, msg))
	}
	return nil
}

// checkExpect compares an event with its expect clause. A step without one
// must not fail.
func checkExpect(event TraceEvent, expect *Expect) []string {
	if expect == nil {
		if event.Error != "" {
			return []string{fmt.Sprintf("unexpected error %s", event.Error)}
		}
		return nil
	}

	var msgs []string
	switch {
	case expect.Error != "" && event.Error != expect.Error:
		msgs = append(msgs, fmt.Sprintf("expected error %s, got %q", expect.Error, event.Error))
	case expect.Error == "" && event.Error != "":
		msgs = append(msgs, fmt.Sprintf("unexpected error %s", event.Error))
	}
	if expect.Operation != "" && event.Operation != expect.Operation {
		msgs = append(msgs, fmt.Sprintf("expected operation %s, got %q", expect.Operation, event.Operation))
	}
	if expect.Value != "" && event.Value != expect.Value {
		msgs = append(msgs, fmt.Sprintf("expected value %s, got %q", expect.Value, event.Value))
	}
	return msgs
}

// BuildInstruction parses a step into an instruction with literal operands.
// It also returns the types the step names, for the trace.
func BuildInstruction(step Step) (lowering.Instruction, []ir.Type, error) {
	if step.Call != "" {
		sig, err := llvmir.ParseSignature(step.Signature)
		if err != nil {
			return nil, nil, err
		}
		if len(step.Args) > len(sig.Params) {
			return nil, nil, fmt.Errorf("call %s: %d arguments for %d parameters", step.Call, len(step.Args), len(sig.Params))
		}
		args, err := literals(sig.Params[:len(step.Args)], step.Args)
		if err != nil {
			return nil, nil, err
		}
		return &lowering.CallInst{Callee: step.Call, Sig: sig, Args: args}, []ir.Type{sig}, nil
	}

	t, err := llvmir.ParseType(step.Type)
	if err != nil {
		return nil, nil, err
	}
	types := []ir.Type{t}
	var to ir.Type
	if step.To != "" {
		if to, err = llvmir.ParseType(step.To); err != nil {
			return nil, nil, err
		}
		types = append(types, to)
	}

	operandTypes := make([]ir.Type, len(step.Args))
	for j := range operandTypes {
		operandTypes[j] = t
	}
	if step.Op == "select" && len(operandTypes) > 0 {
		operandTypes[0] = ir.Int1
		if vt, ok := t.(*ir.VectorType); ok {
			operandTypes[0] = ir.MustVector(ir.Int1, vt.Len)
		}
	}
	args, err := literals(operandTypes, step.Args)
	if err != nil {
		return nil, nil, err
	}
	inst, err := lowering.ParseInstruction(step.Op, t, to, args)
	if err != nil {
		return nil, nil, err
	}
	return inst, types, nil
}

// literals parses each operand against its type.
func literals(types []ir.Type, args []string) ([]engine.Operation, error) {
	ops := make([]engine.Operation, len(args))
	for i, s := range args {
		v, err := ir.ParseValue(types[i], s)
		if err != nil {
			return nil, fmt.Errorf("args[%d]: %w", i, err)
		}
		ops[i] = &engine.Const{Label: "lit." + types[i].String(), Value: v}
	}
	return ops, nil
}

func typeNames(types []ir.Type) []string {
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = t.String()
	}
	return names
}

// ErrorCode returns the lowering or runtime code carried by err.
func ErrorCode(err error) string {
	var le *lowering.LoweringError
	if errors.As(err, &le) {
		return string(le.Code)
	}
	if code := engine.CodeOf(err); code != "" {
		return string(code)
	}
	return "ERROR"
}
