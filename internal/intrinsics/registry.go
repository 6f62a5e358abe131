package intrinsics

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/lowercore/internal/engine"
	"github.com/roach88/lowercore/internal/ir"
)

// LowerFunc builds the operation implementing an entry for one call
// signature. args[i] yields the callee's i-th argument.
type LowerFunc func(args []engine.Operation, sig *ir.FunctionType) (engine.Operation, error)

// Entry is one registered intrinsic or builtin.
type Entry struct {
	// Name is the canonical symbol, including the leading "@".
	Name string

	// ForceInline asks the caller to expand the operation at the call site.
	ForceInline bool

	// ForceSplit asks the caller to give each call site its own copy.
	ForceSplit bool

	// Lower builds the operation for a signature.
	Lower LowerFunc
}

// CallTarget is a resolved external call.
type CallTarget struct {
	// Name is the canonical name of the entry that served the lookup.
	Name string

	// Entry is the resolved entry.
	Entry *Entry

	// Operation reads its arguments from the frame it executes in.
	Operation engine.Operation
}

var (
	// ErrDuplicateEntry is returned by Register for a name already present.
	ErrDuplicateEntry = errors.New("duplicate intrinsic")

	// ErrNotFound is returned by ResolveIntrinsic for an unknown symbol.
	ErrNotFound = errors.New("intrinsic not found")

	// ErrSignature is returned by a LowerFunc that cannot serve the
	// declared signature.
	ErrSignature = errors.New("unsupported intrinsic signature")
)

// Demangler maps a mangled symbol to a canonical name. It reports false when
// the symbol is not in its scheme.
type Demangler func(name string) (string, bool)

// Registry maps external symbol names to entries.
//
// Entries are registered during setup and never mutated afterwards. Lookups
// are safe for concurrent use; the only mutation after setup is the alias
// memo filled by demangled hits.
type Registry struct {
	entries    map[string]*Entry
	aliases    sync.Map // mangled name -> *Entry
	demanglers []Demangler
	disabled   map[string]bool
	onAlias    func(mangled, canonical string)
	logger     *slog.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithDemanglers replaces the demangler chain. Demanglers are tried in order.
func WithDemanglers(ds ...Demangler) Option {
	return func(r *Registry) {
		r.demanglers = ds
	}
}

// WithAliasObserver registers fn to be told of every memoised alias.
func WithAliasObserver(fn func(mangled, canonical string)) Option {
	return func(r *Registry) {
		r.onAlias = fn
	}
}

// WithDisabled makes Register skip the named entries.
func WithDisabled(names ...string) Option {
	return func(r *Registry) {
		for _, n := range names {
			r.disabled[Normalize(n)] = true
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = l
	}
}

// NewRegistry creates an empty registry with the Rust legacy demangler.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		entries:    make(map[string]*Entry),
		demanglers: []Demangler{DemangleRustLegacy},
		disabled:   make(map[string]bool),
		logger:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Normalize returns the lookup key for a symbol: NFC form with a leading "@".
func Normalize(name string) string {
	name = norm.NFC.String(name)
	if !strings.HasPrefix(name, "@") {
		name = "@" + name
	}
	return name
}

// Register adds e. Names are normalised first.
func (r *Registry) Register(e Entry) error {
	if e.Lower == nil {
		return fmt.Errorf("intrinsic %s has no implementation", e.Name)
	}
	e.Name = Normalize(e.Name)
	if r.disabled[e.Name] {
		r.logger.Debug("intrinsic disabled", "name", e.Name)
		return nil
	}
	if _, ok := r.entries[e.Name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateEntry, e.Name)
	}
	r.entries[e.Name] = &e
	return nil
}

// Alias registers name as another spelling of an existing entry.
func (r *Registry) Alias(name, target string) error {
	e, ok := r.entries[Normalize(target)]
	if !ok {
		return fmt.Errorf("%w: alias target %s", ErrNotFound, target)
	}
	alias := *e
	alias.Name = name
	return r.Register(alias)
}

// registerAll registers entries in order and stops at the first error.
func (r *Registry) registerAll(entries ...Entry) error {
	for _, e := range entries {
		if err := r.Register(e); err != nil {
			return err
		}
	}
	return nil
}

// Resolve finds the entry for name. Exact matches win; otherwise each
// demangler is tried in order and a hit is memoised under name.
func (r *Registry) Resolve(name string) (*Entry, bool) {
	key := Normalize(name)
	if e, ok := r.entries[key]; ok {
		return e, true
	}
	if v, ok := r.aliases.Load(key); ok {
		return v.(*Entry), true
	}
	for _, d := range r.demanglers {
		canonical, ok := d(key)
		if !ok {
			continue
		}
		e, ok := r.entries[Normalize(canonical)]
		if !ok {
			continue
		}
		r.aliases.Store(key, e)
		r.logger.Debug("intrinsic alias", "mangled", key, "canonical", e.Name)
		if r.onAlias != nil {
			r.onAlias(key, e.Name)
		}
		return e, true
	}
	return nil, false
}

// Preload seeds the alias memo, typically from a persisted store. Aliases
// whose canonical entry is not registered are skipped.
func (r *Registry) Preload(aliases map[string]string) int {
	n := 0
	for mangled, canonical := range aliases {
		if e, ok := r.entries[Normalize(canonical)]; ok {
			r.aliases.Store(Normalize(mangled), e)
			n++
		}
	}
	return n
}

// Aliases returns a snapshot of the memoised aliases.
func (r *Registry) Aliases() map[string]string {
	out := make(map[string]string)
	r.aliases.Range(func(k, v any) bool {
		out[k.(string)] = v.(*Entry).Name
		return true
	})
	return out
}

// IsIntrinsic reports whether name resolves to an entry.
func (r *Registry) IsIntrinsic(name string) bool {
	_, ok := r.Resolve(name)
	return ok
}

// ForceInline reports the entry's inline hint. Unknown names report false.
func (r *Registry) ForceInline(name string) bool {
	e, ok := r.Resolve(name)
	return ok && e.ForceInline
}

// ForceSplit reports the entry's split hint. Unknown names report false.
func (r *Registry) ForceSplit(name string) bool {
	e, ok := r.Resolve(name)
	return ok && e.ForceSplit
}

// Names returns the registered canonical names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.entries))
	for n := range r.entries {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// Len returns the number of registered entries.
func (r *Registry) Len() int {
	return len(r.entries)
}

// ResolveIntrinsic resolves name and builds its operation for sig. The
// operation's argument i is read from the executing frame's Args[i].
func (r *Registry) ResolveIntrinsic(name string, sig *ir.FunctionType) (*CallTarget, error) {
	e, ok := r.Resolve(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, Normalize(name))
	}
	args := make([]engine.Operation, len(sig.Params))
	for i := range args {
		args[i] = &engine.Arg{Index: i}
	}
	op, err := e.Lower(args, sig)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", e.Name, sig, err)
	}
	return &CallTarget{Name: e.Name, Entry: e, Operation: op}, nil
}
