package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/lowercore/internal/intrinsics"
)

// IntrinsicInfo describes one registry entry.
type IntrinsicInfo struct {
	Name        string `json:"name"`
	ForceInline bool   `json:"force_inline"`
	ForceSplit  bool   `json:"force_split"`
}

// Resolution is the outcome of resolving one name.
type Resolution struct {
	Name      string `json:"name"`
	Canonical string `json:"canonical,omitempty"`
	Supported bool   `json:"supported"`
}

// NewIntrinsicsCommand creates the intrinsics command and its subcommands.
func NewIntrinsicsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "intrinsics",
		Short: "Query the intrinsic and builtin registry",
	}
	cmd.AddCommand(newIntrinsicsListCommand(rootOpts))
	cmd.AddCommand(newIntrinsicsResolveCommand(rootOpts))
	return cmd
}

func newIntrinsicsListCommand(opts *RootOptions) *cobra.Command {
	var prefix string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List registered names",
		Long: `List every name the registry serves, in sorted order.

Entries that must be inlined are marked [inline]; entries that get a
separate copy per call site are marked [split]. Disabled entries are omitted.

Examples:
  lowerc intrinsics list
  lowerc intrinsics list --prefix @llvm.ctpop
  lowerc intrinsics list --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withContainer(opts, cmd, func(c *Container) error {
				return runIntrinsicsList(opts, c, cmd, prefix)
			})
		},
	}
	cmd.Flags().StringVar(&prefix, "prefix", "", "only names starting with this prefix")
	return cmd
}

func runIntrinsicsList(opts *RootOptions, c *Container, cmd *cobra.Command, prefix string) error {
	reg, err := c.Registry()
	if err != nil {
		return err
	}
	if prefix != "" {
		prefix = intrinsics.Normalize(prefix)
	}

	infos := []IntrinsicInfo{}
	for _, name := range reg.Names() {
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		infos = append(infos, IntrinsicInfo{
			Name:        name,
			ForceInline: reg.ForceInline(name),
			ForceSplit:  reg.ForceSplit(name),
		})
	}

	f := newFormatter(opts, cmd)
	if opts.Format == "json" {
		return f.Success(infos)
	}
	for _, info := range infos {
		line := info.Name
		if info.ForceInline {
			line += " [inline]"
		}
		if info.ForceSplit {
			line += " [split]"
		}
		fmt.Fprintln(f.Writer, line)
	}
	f.VerboseLog("%d names", len(infos))
	return nil
}

func newIntrinsicsResolveCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <name>...",
		Short: "Resolve names to registry entries",
		Long: `Resolve each name to the registry entry that serves it.

Names are normalized first. Rust legacy mangled names are demangled and
the result is remembered in the alias store when one is configured.

Exit codes:
  0 - Every name is supported
  1 - At least one name is unsupported
  2 - Command error

Examples:
  lowerc intrinsics resolve llvm.ctlz.i32 _ZN4core9panicking5panicE
  lowerc intrinsics resolve @mystery --format json`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withContainer(opts, cmd, func(c *Container) error {
				return runIntrinsicsResolve(opts, c, cmd, args)
			})
		},
	}
}

func runIntrinsicsResolve(opts *RootOptions, c *Container, cmd *cobra.Command, names []string) error {
	reg, err := c.Registry()
	if err != nil {
		return err
	}

	results := make([]Resolution, 0, len(names))
	unsupported := 0
	for _, name := range names {
		r := Resolution{Name: intrinsics.Normalize(name)}
		if e, ok := reg.Resolve(name); ok {
			r.Canonical = e.Name
			r.Supported = true
		} else {
			unsupported++
		}
		results = append(results, r)
	}

	f := newFormatter(opts, cmd)
	if opts.Format == "json" {
		status := "ok"
		if unsupported > 0 {
			status = "error"
		}
		if err := f.Result(status, results); err != nil {
			return err
		}
	} else {
		for _, r := range results {
			target := r.Canonical
			if !r.Supported {
				target = "unsupported"
			}
			fmt.Fprintf(f.Writer, "%s -> %s\n", r.Name, target)
		}
	}

	if unsupported > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d of %d names unsupported", unsupported, len(names)))
	}
	return nil
}
