package testutil

import "strconv"

// MapEnv is an environment backed by a map. It satisfies
// config.Environment so tests never read the process environment.
type MapEnv map[string]string

// Has reports whether name is set.
func (m MapEnv) Has(name string) bool {
	_, ok := m[name]
	return ok
}

// Str returns the value of name, or the first default when unset.
func (m MapEnv) Str(name string, def ...string) string {
	if v, ok := m[name]; ok {
		return v
	}
	if len(def) > 0 {
		return def[0]
	}
	return ""
}

// Int parses the value of name, or returns def when unset or malformed.
func (m MapEnv) Int(name string, def int) int {
	n, err := strconv.Atoi(m[name])
	if err != nil {
		return def
	}
	return n
}
