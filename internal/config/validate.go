package config

import "fmt"

// Validation error codes (E200-E209)
const (
	ErrPointerSize = "E200" // pointer size must be 4 or 8
	ErrLogLevel    = "E201" // unknown log level
	ErrLogFormat   = "E202" // log format must be text or json
	ErrEmptyName   = "E203" // empty disabled intrinsic name
)

// ValidationError is a semantic error in a loaded configuration.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate returns every problem found in c.
func (c *Config) Validate() []ValidationError {
	var errs []ValidationError

	if c.Target.PointerSize != 4 && c.Target.PointerSize != 8 {
		errs = append(errs, ValidationError{
			Field:   "target.pointer_size",
			Message: fmt.Sprintf("must be 4 or 8, got %d", c.Target.PointerSize),
			Code:    ErrPointerSize,
		})
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		errs = append(errs, ValidationError{
			Field:   "log.level",
			Message: fmt.Sprintf("unknown level %q", c.Log.Level),
			Code:    ErrLogLevel,
		})
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		errs = append(errs, ValidationError{
			Field:   "log.format",
			Message: fmt.Sprintf("must be text or json, got %q", c.Log.Format),
			Code:    ErrLogFormat,
		})
	}
	for i, name := range c.Registry.Disabled {
		if name == "" {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("registry.disabled[%d]", i),
				Message: "empty intrinsic name",
				Code:    ErrEmptyName,
			})
		}
	}
	return errs
}
