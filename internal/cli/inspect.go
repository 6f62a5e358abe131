package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/lowercore/internal/llvmir"
)

// InspectOptions holds flags for the inspect command.
type InspectOptions struct {
	*RootOptions
	Strict bool
}

// InspectedFunction is the JSON form of one inspected function.
type InspectedFunction struct {
	Name      string   `json:"name"`
	Status    string   `json:"status"`
	Signature string   `json:"signature"`
	Tags      []string `json:"tags,omitempty"`
	Canonical string   `json:"canonical,omitempty"`
	Inline    bool     `json:"inline,omitempty"`
	Detail    string   `json:"detail,omitempty"`
}

// InspectResult is the JSON form of an inspection report.
type InspectResult struct {
	Source    string              `json:"source"`
	Functions []InspectedFunction `json:"functions"`
	Counts    map[string]int      `json:"counts"`
}

// inspectStatuses is the order counts are reported in.
var inspectStatuses = []llvmir.Status{
	llvmir.StatusDefined,
	llvmir.StatusSupported,
	llvmir.StatusUnsupported,
	llvmir.StatusSignature,
	llvmir.StatusUntyped,
}

// NewInspectCommand creates the inspect command.
func NewInspectCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InspectOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "inspect <file.ll>",
		Short: "Report which functions of an LLVM module can be lowered",
		Long: `Parse a textual LLVM module and report, for every function, whether
the registry can lower calls to it.

Statuses:
  defined      the module provides a body
  supported    a registry entry serves the declaration
  unsupported  no registry entry serves the name
  signature    the entry rejects the declared signature
  untyped      the signature uses a type lowerc cannot represent

Exit codes:
  0 - Inspection finished (with --strict: every declaration is supported)
  1 - --strict and some declaration is unsupported or has a bad signature
  2 - Command error (unreadable or unparseable module)

Examples:
  lowerc inspect module.ll
  lowerc inspect module.ll --strict --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withContainer(rootOpts, cmd, func(c *Container) error {
				return runInspect(opts, c, cmd, args[0])
			})
		},
	}

	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "fail when a declaration cannot be lowered")

	return cmd
}

func runInspect(opts *InspectOptions, c *Container, cmd *cobra.Command, path string) error {
	reg, err := c.Registry()
	if err != nil {
		return err
	}

	rep, err := llvmir.InspectFile(path, reg)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to inspect module", err)
	}

	f := newFormatter(opts.RootOptions, cmd)
	if opts.Format == "json" {
		if err := f.Success(toInspectResult(rep)); err != nil {
			return err
		}
	} else {
		writeInspectText(f, rep)
	}

	if opts.Strict {
		if bad := rep.Count(llvmir.StatusUnsupported) + rep.Count(llvmir.StatusSignature); bad > 0 {
			return NewExitError(ExitFailure, fmt.Sprintf("%d declarations cannot be lowered", bad))
		}
	}
	return nil
}

func toInspectResult(rep *llvmir.Report) InspectResult {
	out := InspectResult{
		Source:    rep.Source,
		Functions: make([]InspectedFunction, 0, len(rep.Functions)),
		Counts:    make(map[string]int, len(inspectStatuses)),
	}
	for _, fn := range rep.Functions {
		tags := make([]string, len(fn.Tags))
		for i, t := range fn.Tags {
			tags[i] = t.String()
		}
		out.Functions = append(out.Functions, InspectedFunction{
			Name:      fn.Name,
			Status:    string(fn.Status),
			Signature: fn.Signature,
			Tags:      tags,
			Canonical: fn.Canonical,
			Inline:    fn.Inline,
			Detail:    fn.Detail,
		})
	}
	for _, s := range inspectStatuses {
		out.Counts[string(s)] = rep.Count(s)
	}
	return out
}

func writeInspectText(f *OutputFormatter, rep *llvmir.Report) {
	tw := tabwriter.NewWriter(f.Writer, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "FUNCTION\tSTATUS\tSIGNATURE\tENTRY")
	for _, fn := range rep.Functions {
		entry := fn.Canonical
		if fn.Inline {
			entry += " [inline]"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", fn.Name, fn.Status, fn.Signature, entry)
	}
	tw.Flush()

	for _, fn := range rep.Functions {
		if fn.Detail != "" {
			f.VerboseLog("%s: %s", fn.Name, fn.Detail)
		}
	}

	parts := make([]string, len(inspectStatuses))
	for i, s := range inspectStatuses {
		parts[i] = fmt.Sprintf("%d %s", rep.Count(s), s)
	}
	fmt.Fprintf(f.Writer, "\nSummary: %s\n", strings.Join(parts, ", "))
}
