package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/lowercore/internal/engine"
	"github.com/roach88/lowercore/internal/harness"
	"github.com/roach88/lowercore/internal/ir"
	"github.com/roach88/lowercore/internal/store"
)

// evalHeapLimit bounds the memory one evaluation may allocate.
const evalHeapLimit = 1 << 20

// EvalOptions holds flags for the eval command.
type EvalOptions struct {
	*RootOptions
	Op        string
	Type      string
	To        string
	Call      string
	Signature string
}

// EvalResult is the outcome of one evaluation.
type EvalResult struct {
	Operation string `json:"operation,omitempty"`
	Value     string `json:"value,omitempty"`
	Error     string `json:"error,omitempty"`
}

// NewEvalCommand creates the eval command.
func NewEvalCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EvalOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "eval [literal]...",
		Short: "Lower one instruction and run it on literal operands",
		Long: `Lower one instruction and run it on literal operands.

Either --op and --type name an instruction, or --call and --signature
name a call. Literals use the notation values are printed in: decimal or
0x hex integers, true/false for i1, nan/inf for floats and <a, b> for
vectors. The first literal of a select is its condition.

Exit codes:
  0 - The operation ran
  1 - Lowering or execution failed
  2 - Command error

Examples:
  lowerc eval --op add --type i32 7 5
  lowerc eval --op zext --type i8 --to i32 0xff
  lowerc eval --op olt --type double 1.5 2
  lowerc eval --call llvm.ctpop.i32 --signature "i32 (i32)" 255`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withContainer(rootOpts, cmd, func(c *Container) error {
				return runEval(opts, c, cmd, args)
			})
		},
	}

	cmd.Flags().StringVar(&opts.Op, "op", "", "instruction mnemonic (add, icmp predicate, cast kind, select)")
	cmd.Flags().StringVar(&opts.Type, "type", "", "operand type")
	cmd.Flags().StringVar(&opts.To, "to", "", "target type for casts")
	cmd.Flags().StringVar(&opts.Call, "call", "", "callee name")
	cmd.Flags().StringVar(&opts.Signature, "signature", "", "callee signature, e.g. \"i32 (i32, i1)\"")

	return cmd
}

func runEval(opts *EvalOptions, c *Container, cmd *cobra.Command, args []string) error {
	step := harness.Step{
		Op:        opts.Op,
		Type:      opts.Type,
		To:        opts.To,
		Call:      opts.Call,
		Signature: opts.Signature,
		Args:      args,
	}
	switch {
	case step.Call != "" && step.Signature == "":
		return NewExitError(ExitCommandError, "--call requires --signature")
	case step.Call == "" && (step.Op == "" || step.Type == ""):
		return NewExitError(ExitCommandError, "either --op and --type or --call and --signature are required")
	}

	inst, _, err := harness.BuildInstruction(step)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid instruction", err)
	}

	lw, err := c.Lowerer()
	if err != nil {
		return err
	}
	logger, err := c.Logger()
	if err != nil {
		return err
	}

	f := newFormatter(opts.RootOptions, cmd)
	op, err := lw.LowerInstruction(inst)
	if err != nil {
		code := harness.ErrorCode(err)
		if opts.Format == "json" {
			_ = f.Error(code, err.Error(), nil)
		}
		return WrapExitError(ExitFailure, "lowering failed", err)
	}
	if err := persistLowerings(c); err != nil {
		return err
	}

	frame, err := engine.NewFrame(engine.NewHeap(evalHeapLimit), engine.NewBasicHost(logger))
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to create frame", err)
	}
	frame.Layout = lw.Layout()

	res := EvalResult{Operation: op.Name()}
	v, execErr := op.Execute(frame)
	if execErr != nil {
		res.Error = harness.ErrorCode(execErr)
	} else {
		res.Value = ir.FormatValue(v)
	}

	if opts.Format == "json" {
		status := "ok"
		if execErr != nil {
			status = "error"
		}
		if err := f.Result(status, res); err != nil {
			return err
		}
	} else if execErr != nil {
		fmt.Fprintf(f.Writer, "%s failed: %s\n", res.Operation, res.Error)
	} else {
		fmt.Fprintf(f.Writer, "%s = %s\n", res.Operation, res.Value)
	}

	if execErr != nil {
		return WrapExitError(ExitFailure, "execution failed", execErr)
	}
	return nil
}

// persistLowerings writes the recorded dispatch decisions to the store as
// one "eval" unit. It does nothing without a store.
func persistLowerings(c *Container) error {
	st, err := c.Store()
	if err != nil || st == nil {
		return err
	}
	ctx := context.Background()
	unit, err := st.BeginUnit(ctx, "eval")
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to begin unit", err)
	}
	for _, r := range c.Recorder().Records() {
		if _, err := st.WriteLowering(ctx, unit.ID, store.NewLowering(r.Operator, r.Operation, r.Types)); err != nil {
			return WrapExitError(ExitCommandError, "failed to log lowering", err)
		}
	}
	return nil
}
