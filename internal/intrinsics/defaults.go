package intrinsics

// RegisterDefaults installs every built-in family into r.
func RegisterDefaults(r *Registry) error {
	families := []struct {
		name     string
		register func(*Registry) error
	}{
		{"bits", registerBits},
		{"overflow", registerOverflow},
		{"memory", registerMemory},
		{"stack", registerStack},
		{"annotations", registerAnnotations},
		{"math", registerMath},
		{"allocation", registerAllocation},
		{"strings", registerStrings},
		{"process", registerProcess},
		{"exceptions", registerExceptions},
		{"complex", registerComplex},
		{"rust", registerRust},
		{"interop", registerInterop},
	}
	for _, fam := range families {
		before := r.Len()
		if err := fam.register(r); err != nil {
			return err
		}
		r.logger.Debug("registered intrinsic family", "family", fam.name, "entries", r.Len()-before)
	}
	return nil
}

// NewDefaultRegistry is NewRegistry followed by RegisterDefaults.
func NewDefaultRegistry(opts ...Option) (*Registry, error) {
	r := NewRegistry(opts...)
	if err := RegisterDefaults(r); err != nil {
		return nil, err
	}
	return r, nil
}
