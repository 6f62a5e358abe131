package ir

import "fmt"

// ConversionKind identifies a cast instruction.
type ConversionKind int

const (
	Truncate ConversionKind = iota
	SignExtend
	ZeroExtend
	Bitcast
	FloatToSignedInt
	FloatToUnsignedInt
	SignedIntToFloat
	UnsignedIntToFloat
	PointerToInt
	IntToPointer
	FunctionPointerCast
)

var conversionNames = []string{
	Truncate:            "trunc",
	SignExtend:          "sext",
	ZeroExtend:          "zext",
	Bitcast:             "bitcast",
	FloatToSignedInt:    "fptosi",
	FloatToUnsignedInt:  "fptoui",
	SignedIntToFloat:    "sitofp",
	UnsignedIntToFloat:  "uitofp",
	PointerToInt:        "ptrtoint",
	IntToPointer:        "inttoptr",
	FunctionPointerCast: "fncast",
}

// conversionAliases maps LLVM mnemonics that fold into another kind.
var conversionAliases = map[string]ConversionKind{
	"fpext":   SignExtend,
	"fptrunc": Truncate,
}

func (k ConversionKind) String() string {
	if k >= 0 && int(k) < len(conversionNames) {
		return conversionNames[k]
	}
	return fmt.Sprintf("conversion(%d)", int(k))
}

// ParseConversionKind parses an LLVM cast mnemonic.
func ParseConversionKind(s string) (ConversionKind, error) {
	for i, name := range conversionNames {
		if name == s {
			return ConversionKind(i), nil
		}
	}
	if k, ok := conversionAliases[s]; ok {
		return k, nil
	}
	return 0, fmt.Errorf("unknown conversion kind %q", s)
}

// ArithmeticOp identifies an arithmetic binary operator.
// Div and Rem are the floating-point forms; integers must pick a signedness.
type ArithmeticOp int

const (
	Add ArithmeticOp = iota
	Sub
	Mul
	SignedDiv
	UnsignedDiv
	SignedRem
	UnsignedRem
	Div
	Rem
)

var arithmeticNames = []string{
	Add:         "add",
	Sub:         "sub",
	Mul:         "mul",
	SignedDiv:   "sdiv",
	UnsignedDiv: "udiv",
	SignedRem:   "srem",
	UnsignedRem: "urem",
	Div:         "fdiv",
	Rem:         "frem",
}

var arithmeticAliases = map[string]ArithmeticOp{
	"fadd": Add,
	"fsub": Sub,
	"fmul": Mul,
}

func (op ArithmeticOp) String() string {
	if op >= 0 && int(op) < len(arithmeticNames) {
		return arithmeticNames[op]
	}
	return fmt.Sprintf("arith(%d)", int(op))
}

// ParseArithmeticOp parses an LLVM arithmetic mnemonic.
func ParseArithmeticOp(s string) (ArithmeticOp, error) {
	for i, name := range arithmeticNames {
		if name == s {
			return ArithmeticOp(i), nil
		}
	}
	if op, ok := arithmeticAliases[s]; ok {
		return op, nil
	}
	return 0, fmt.Errorf("unknown arithmetic operator %q", s)
}

// LogicalOp identifies a bitwise binary operator.
type LogicalOp int

const (
	ShiftLeft LogicalOp = iota
	LogicalShiftRight
	ArithmeticShiftRight
	And
	Or
	Xor
)

var logicalNames = []string{
	ShiftLeft:            "shl",
	LogicalShiftRight:    "lshr",
	ArithmeticShiftRight: "ashr",
	And:                  "and",
	Or:                   "or",
	Xor:                  "xor",
}

func (op LogicalOp) String() string {
	if op >= 0 && int(op) < len(logicalNames) {
		return logicalNames[op]
	}
	return fmt.Sprintf("logical(%d)", int(op))
}

// ParseLogicalOp parses an LLVM bitwise mnemonic.
func ParseLogicalOp(s string) (LogicalOp, error) {
	for i, name := range logicalNames {
		if name == s {
			return LogicalOp(i), nil
		}
	}
	return 0, fmt.Errorf("unknown logical operator %q", s)
}

// ComparisonOp identifies an icmp or fcmp predicate.
type ComparisonOp int

const (
	Equal ComparisonOp = iota
	NotEqual
	SignedLT
	SignedLE
	SignedGT
	SignedGE
	UnsignedLT
	UnsignedLE
	UnsignedGT
	UnsignedGE

	AlwaysFalse
	OrderedEQ
	OrderedGT
	OrderedGE
	OrderedLT
	OrderedLE
	OrderedNE
	Ordered
	Unordered
	UnorderedEQ
	UnorderedGT
	UnorderedGE
	UnorderedLT
	UnorderedLE
	UnorderedNE
	AlwaysTrue
)

var comparisonNames = []string{
	Equal:       "eq",
	NotEqual:    "ne",
	SignedLT:    "slt",
	SignedLE:    "sle",
	SignedGT:    "sgt",
	SignedGE:    "sge",
	UnsignedLT:  "ult",
	UnsignedLE:  "ule",
	UnsignedGT:  "ugt",
	UnsignedGE:  "uge",
	AlwaysFalse: "false",
	OrderedEQ:   "oeq",
	OrderedGT:   "ogt",
	OrderedGE:   "oge",
	OrderedLT:   "olt",
	OrderedLE:   "ole",
	OrderedNE:   "one",
	Ordered:     "ord",
	Unordered:   "uno",
	UnorderedEQ: "ueq",
	UnorderedGT: "fugt",
	UnorderedGE: "fuge",
	UnorderedLT: "fult",
	UnorderedLE: "fule",
	UnorderedNE: "une",
	AlwaysTrue:  "true",
}

func (op ComparisonOp) String() string {
	if op >= 0 && int(op) < len(comparisonNames) {
		return comparisonNames[op]
	}
	return fmt.Sprintf("cmp(%d)", int(op))
}

// IsFloat reports whether the predicate belongs to the fcmp family.
func (op ComparisonOp) IsFloat() bool {
	return op >= AlwaysFalse && op <= AlwaysTrue
}

// ParseComparisonOp parses a predicate mnemonic. The unordered relational fcmp
// predicates collide with the unsigned icmp ones (ugt, uge, ult, ule), so the
// float flag selects which family those four names belong to.
func ParseComparisonOp(s string, float bool) (ComparisonOp, error) {
	if float {
		switch s {
		case "ugt":
			return UnorderedGT, nil
		case "uge":
			return UnorderedGE, nil
		case "ult":
			return UnorderedLT, nil
		case "ule":
			return UnorderedLE, nil
		}
	}
	for i, name := range comparisonNames {
		if name == s {
			return ComparisonOp(i), nil
		}
	}
	return 0, fmt.Errorf("unknown comparison predicate %q", s)
}
