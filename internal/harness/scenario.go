package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// Scenario is a lowering test: steps to lower and execute, then assertions
// over the resulting trace.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// PointerSize is the target pointer width in bytes. Zero means 8.
	PointerSize int64 `yaml:"pointer_size,omitempty"`

	// Aliases preloads the registry's alias memo, as a store would.
	Aliases map[string]string `yaml:"aliases,omitempty"`

	// Steps run in order against one frame.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final trace and alias memo.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Step lowers one instruction and executes the selected operation.
// Exactly one of Op and Call is set.
type Step struct {
	// Op is an instruction mnemonic: add, sdiv, shl, slt, oeq, sext, select...
	Op string `yaml:"op,omitempty"`

	// Type is the operand type (the source type for casts).
	Type string `yaml:"type,omitempty"`

	// To is the target type of a cast.
	To string `yaml:"to,omitempty"`

	// Call is the external symbol a call step invokes.
	Call string `yaml:"call,omitempty"`

	// Signature is the callee's function type, e.g. "i32 (i32, i1)".
	Signature string `yaml:"signature,omitempty"`

	// Args are operand literals. For select the first is the condition.
	Args []string `yaml:"args"`

	// Expect checks the step's outcome. If nil the step must succeed.
	Expect *Expect `yaml:"expect,omitempty"`
}

// Expect specifies a step's expected outcome. Empty fields are not checked.
type Expect struct {
	// Operation is the Name of the selected operation.
	Operation string `yaml:"operation,omitempty"`

	// Value is the formatted result.
	Value string `yaml:"value,omitempty"`

	// Error is the expected lowering or runtime error code, such as
	// TYPE_SYSTEM_VIOLATION or DIVIDE_BY_ZERO.
	Error string `yaml:"error,omitempty"`
}

// Assertion validates the trace or alias memo after all steps ran.
type Assertion struct {
	// Type is one of trace_contains, trace_order, trace_count, alias.
	Type string `yaml:"type"`

	// Operation is used by trace_contains and trace_count.
	Operation string `yaml:"operation,omitempty"`

	// Operations is the expected order (trace_order).
	Operations []string `yaml:"operations,omitempty"`

	// Count is the expected number of occurrences (trace_count).
	Count int `yaml:"count,omitempty"`

	// Mangled and Canonical name the expected alias (alias).
	Mangled   string `yaml:"mangled,omitempty"`
	Canonical string `yaml:"canonical,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
	AssertAlias         = "alias"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// FindScenarios returns the .yaml and .yml files under dir whose base name
// matches filter, sorted by path. An empty filter matches everything.
func FindScenarios(dir, filter string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := filepath.Ext(path)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}
		if filter != "" {
			name := filepath.Base(path)
			matched, err := filepath.Match(filter, name[:len(name)-len(ext)])
			if err != nil {
				return fmt.Errorf("invalid filter pattern: %w", err)
			}
			if !matched {
				return nil
			}
		}
		files = append(files, path)
		return nil
	})
	sort.Strings(files)
	return files, err
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.PointerSize != 0 && s.PointerSize != 4 && s.PointerSize != 8 {
		return fmt.Errorf("pointer_size must be 4 or 8, got %d", s.PointerSize)
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		switch {
		case step.Op == "" && step.Call == "":
			return fmt.Errorf("steps[%d]: op or call is required", i)
		case step.Op != "" && step.Call != "":
			return fmt.Errorf("steps[%d]: op and call are mutually exclusive", i)
		case step.Op != "" && step.Type == "":
			return fmt.Errorf("steps[%d]: type is required for op %s", i, step.Op)
		case step.Call != "" && step.Signature == "":
			return fmt.Errorf("steps[%d]: signature is required for call %s", i, step.Call)
		}
		if e := step.Expect; e != nil && e.Error != "" && e.Value != "" {
			return fmt.Errorf("steps[%d].expect: value and error are mutually exclusive", i)
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(i, &a); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertTraceContains:
		if a.Operation == "" {
			return fmt.Errorf("assertions[%d]: operation is required for trace_contains", index)
		}
	case AssertTraceOrder:
		if len(a.Operations) == 0 {
			return fmt.Errorf("assertions[%d]: operations list is required for trace_order", index)
		}
	case AssertTraceCount:
		if a.Operation == "" {
			return fmt.Errorf("assertions[%d]: operation is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	case AssertAlias:
		if a.Mangled == "" || a.Canonical == "" {
			return fmt.Errorf("assertions[%d]: mangled and canonical are required for alias", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
