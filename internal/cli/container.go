package cli

import (
	"context"
	"io"
	"log/slog"
	"slices"
	"sync"

	"github.com/samber/do"
	"github.com/spf13/cobra"

	"github.com/roach88/lowercore/internal/config"
	"github.com/roach88/lowercore/internal/intrinsics"
	"github.com/roach88/lowercore/internal/lowering"
	"github.com/roach88/lowercore/internal/store"
)

// Recorder collects the lowerings made through the container's Lowerer.
// It is safe for concurrent use.
type Recorder struct {
	mu      sync.Mutex
	records []lowering.Record
}

// Add appends r.
func (r *Recorder) Add(rec lowering.Record) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, rec)
}

// Records returns a copy of the collected records in arrival order.
func (r *Recorder) Records() []lowering.Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.records)
}

// Container wires the services a command needs. Services are built on
// first use, so a command that never touches the store never opens it.
type Container struct {
	*do.Injector
}

// NewContainer registers the providers for one command invocation.
// Diagnostics are logged to errOut.
func NewContainer(opts *RootOptions, errOut io.Writer) *Container {
	i := do.New()

	do.Provide(i, func(i *do.Injector) (*config.Config, error) {
		env := opts.Env
		if env == nil {
			env = config.ProcessEnv()
		}
		cfg, err := config.Load(opts.Config, env)
		if err != nil {
			return nil, err
		}
		if opts.Store != "" {
			cfg.Store.Path = opts.Store
		}
		return cfg, nil
	})

	do.Provide(i, func(i *do.Injector) (*slog.Logger, error) {
		cfg, err := do.Invoke[*config.Config](i)
		if err != nil {
			return nil, err
		}
		logCfg := cfg.Log
		if opts.Verbose {
			logCfg.Level = "debug"
		}
		h, err := logCfg.Handler(errOut)
		if err != nil {
			return nil, err
		}
		return slog.New(h), nil
	})

	do.Provide(i, func(i *do.Injector) (*store.Store, error) {
		cfg, err := do.Invoke[*config.Config](i)
		if err != nil {
			return nil, err
		}
		return store.Open(cfg.Store.Path)
	})

	do.Provide(i, func(i *do.Injector) (*intrinsics.Registry, error) {
		cfg, err := do.Invoke[*config.Config](i)
		if err != nil {
			return nil, err
		}
		logger := do.MustInvoke[*slog.Logger](i)
		regOpts := []intrinsics.Option{
			intrinsics.WithLogger(logger),
			intrinsics.WithDisabled(cfg.Registry.Disabled...),
		}

		var st *store.Store
		if cfg.Store.Path != "" {
			if st, err = do.Invoke[*store.Store](i); err != nil {
				return nil, err
			}
			regOpts = append(regOpts, intrinsics.WithAliasObserver(func(mangled, canonical string) {
				if err := st.PutAlias(context.Background(), mangled, canonical); err != nil {
					logger.Warn("failed to persist alias", "mangled", mangled, "error", err)
				}
			}))
		}

		reg, err := intrinsics.NewDefaultRegistry(regOpts...)
		if err != nil {
			return nil, err
		}
		if st != nil {
			aliases, err := st.Aliases(context.Background())
			if err != nil {
				return nil, err
			}
			n := reg.Preload(aliases)
			logger.Debug("preloaded aliases", "count", n, "store", cfg.Store.Path)
		}
		return reg, nil
	})

	do.ProvideValue(i, &Recorder{})

	do.Provide(i, func(i *do.Injector) (*lowering.Lowerer, error) {
		cfg, err := do.Invoke[*config.Config](i)
		if err != nil {
			return nil, err
		}
		reg, err := do.Invoke[*intrinsics.Registry](i)
		if err != nil {
			return nil, err
		}
		rec := do.MustInvoke[*Recorder](i)
		return lowering.New(cfg.Target.Layout(), reg,
			lowering.WithLogger(do.MustInvoke[*slog.Logger](i)),
			lowering.WithObserver(rec.Add),
		), nil
	})

	return &Container{Injector: i}
}

// Config returns the loaded configuration.
func (c *Container) Config() (*config.Config, error) {
	cfg, err := do.Invoke[*config.Config](c.Injector)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load config", err)
	}
	return cfg, nil
}

// Logger returns the configured logger.
func (c *Container) Logger() (*slog.Logger, error) {
	if _, err := c.Config(); err != nil {
		return nil, err
	}
	l, err := do.Invoke[*slog.Logger](c.Injector)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid log config", err)
	}
	return l, nil
}

// Store returns the alias store, or nil when none is configured.
func (c *Container) Store() (*store.Store, error) {
	cfg, err := c.Config()
	if err != nil {
		return nil, err
	}
	if cfg.Store.Path == "" {
		return nil, nil
	}
	st, err := do.Invoke[*store.Store](c.Injector)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open store", err)
	}
	return st, nil
}

// Registry returns the intrinsic registry, preloaded from the store.
func (c *Container) Registry() (*intrinsics.Registry, error) {
	if _, err := c.Logger(); err != nil {
		return nil, err
	}
	reg, err := do.Invoke[*intrinsics.Registry](c.Injector)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to build registry", err)
	}
	return reg, nil
}

// Lowerer returns a lowerer for the configured target.
func (c *Container) Lowerer() (*lowering.Lowerer, error) {
	if _, err := c.Registry(); err != nil {
		return nil, err
	}
	lw, err := do.Invoke[*lowering.Lowerer](c.Injector)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to build lowerer", err)
	}
	return lw, nil
}

// Recorder returns the lowering recorder.
func (c *Container) Recorder() *Recorder {
	return do.MustInvoke[*Recorder](c.Injector)
}

// withContainer runs fn with a fresh container and shuts it down afterwards,
// closing the store if one was opened.
func withContainer(opts *RootOptions, cmd *cobra.Command, fn func(*Container) error) error {
	c := NewContainer(opts, cmd.ErrOrStderr())
	err := fn(c)
	if shutdownErr := c.Shutdown(); shutdownErr != nil && err == nil {
		err = WrapExitError(ExitCommandError, "shutdown failed", shutdownErr)
	}
	return err
}

func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}
