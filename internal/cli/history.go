package cli

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/lowercore/internal/store"
)

// UnitSummary is one row of the units listing.
type UnitSummary struct {
	ID        string `json:"id"`
	Source    string `json:"source"`
	Seq       int64  `json:"seq"`
	Lowerings int    `json:"lowerings"`
}

// AliasRow is one persisted alias.
type AliasRow struct {
	Mangled   string `json:"mangled"`
	Canonical string `json:"canonical"`
}

// NewHistoryCommand creates the history command and its subcommands.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect the alias store and lowering log",
		Long: `Inspect what earlier runs persisted in the alias store.

Every command requires a store, configured with store.path, the
LOWERC_STORE environment variable or --store.

Examples:
  lowerc history units --store lowerc.db
  lowerc history show <unit-id>
  lowerc history diff <unit-a> <unit-b>
  lowerc history aliases`,
	}
	cmd.AddCommand(newHistoryUnitsCommand(rootOpts))
	cmd.AddCommand(newHistoryShowCommand(rootOpts))
	cmd.AddCommand(newHistoryDiffCommand(rootOpts))
	cmd.AddCommand(newHistoryAliasesCommand(rootOpts))
	return cmd
}

// historyCommand builds a subcommand that runs fn against the configured store.
func historyCommand(opts *RootOptions, use, short string, args cobra.PositionalArgs,
	fn func(ctx context.Context, st *store.Store, f *OutputFormatter, args []string) error,
) *cobra.Command {
	return &cobra.Command{
		Use:           use,
		Short:         short,
		Args:          args,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withContainer(opts, cmd, func(c *Container) error {
				st, err := c.Store()
				if err != nil {
					return err
				}
				if st == nil {
					return NewExitError(ExitCommandError, "no store configured (set store.path, LOWERC_STORE or --store)")
				}
				return fn(cmd.Context(), st, newFormatter(opts, cmd), args)
			})
		},
	}
}

func newHistoryUnitsCommand(opts *RootOptions) *cobra.Command {
	return historyCommand(opts, "units", "List logged units", cobra.NoArgs,
		func(ctx context.Context, st *store.Store, f *OutputFormatter, _ []string) error {
			units, err := st.Units(ctx)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to read units", err)
			}
			rows := make([]UnitSummary, 0, len(units))
			for _, u := range units {
				ls, err := st.ReadLowerings(ctx, u.ID)
				if err != nil {
					return WrapExitError(ExitCommandError, "failed to read lowerings", err)
				}
				rows = append(rows, UnitSummary{ID: u.ID, Source: u.Source, Seq: u.Seq, Lowerings: len(ls)})
			}

			if f.Format == "json" {
				return f.Success(rows)
			}
			if len(rows) == 0 {
				fmt.Fprintln(f.Writer, "No units logged.")
				return nil
			}
			for _, r := range rows {
				fmt.Fprintf(f.Writer, "%d  %s  %s  (%d lowerings)\n", r.Seq, r.ID, r.Source, r.Lowerings)
			}
			return nil
		})
}

func newHistoryShowCommand(opts *RootOptions) *cobra.Command {
	return historyCommand(opts, "show <unit-id>", "Show a unit's lowering log", cobra.ExactArgs(1),
		func(ctx context.Context, st *store.Store, f *OutputFormatter, args []string) error {
			unit, err := readUnit(ctx, st, args[0])
			if err != nil {
				return err
			}
			ls, err := st.ReadLowerings(ctx, unit.ID)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to read lowerings", err)
			}

			if f.Format == "json" {
				return f.Success(map[string]any{"unit": unit, "lowerings": ls})
			}
			fmt.Fprintf(f.Writer, "Unit %s (%s)\n", unit.ID, unit.Source)
			for _, l := range ls {
				fmt.Fprintf(f.Writer, "  [%d] %s %s -> %s\n", l.Seq, l.Operator, strings.Join(l.Types, ", "), l.Operation)
			}
			return nil
		})
}

func newHistoryDiffCommand(opts *RootOptions) *cobra.Command {
	return historyCommand(opts, "diff <unit-a> <unit-b>", "Report dispatch decisions that differ between units", cobra.ExactArgs(2),
		func(ctx context.Context, st *store.Store, f *OutputFormatter, args []string) error {
			for _, id := range args {
				if _, err := readUnit(ctx, st, id); err != nil {
					return err
				}
			}
			drifts, err := st.CompareUnits(ctx, args[0], args[1])
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to compare units", err)
			}

			if f.Format == "json" {
				status := "ok"
				if len(drifts) > 0 {
					status = "error"
				}
				if err := f.Result(status, drifts); err != nil {
					return err
				}
			} else if len(drifts) == 0 {
				fmt.Fprintln(f.Writer, "No drift.")
			} else {
				for _, d := range drifts {
					fmt.Fprintf(f.Writer, "%s %s: %s -> %s\n", d.Operator, strings.Join(d.Types, ", "), orNone(d.Before), orNone(d.After))
				}
			}

			if len(drifts) > 0 {
				return NewExitError(ExitFailure, fmt.Sprintf("%d decisions drifted", len(drifts)))
			}
			return nil
		})
}

func newHistoryAliasesCommand(opts *RootOptions) *cobra.Command {
	return historyCommand(opts, "aliases", "List remembered mangled-name aliases", cobra.NoArgs,
		func(ctx context.Context, st *store.Store, f *OutputFormatter, _ []string) error {
			aliases, err := st.Aliases(ctx)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to read aliases", err)
			}
			rows := make([]AliasRow, 0, len(aliases))
			for _, m := range slices.Sorted(maps.Keys(aliases)) {
				rows = append(rows, AliasRow{Mangled: m, Canonical: aliases[m]})
			}

			if f.Format == "json" {
				return f.Success(rows)
			}
			for _, r := range rows {
				fmt.Fprintf(f.Writer, "%s -> %s\n", r.Mangled, r.Canonical)
			}
			return nil
		})
}

func readUnit(ctx context.Context, st *store.Store, id string) (store.Unit, error) {
	unit, err := st.ReadUnit(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return store.Unit{}, NewExitError(ExitCommandError, fmt.Sprintf("unit not found: %s", id))
	}
	if err != nil {
		return store.Unit{}, WrapExitError(ExitCommandError, "failed to read unit", err)
	}
	return unit, nil
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
