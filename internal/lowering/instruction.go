package lowering

import (
	"github.com/roach88/lowercore/internal/engine"
	"github.com/roach88/lowercore/internal/ir"
)

// Instruction is a decoded IR instruction ready for lowering.
// Only the types declared in this file implement it.
type Instruction interface {
	instruction() // Sealed - only these types implement it
}

// BinaryInst is an arithmetic instruction.
type BinaryInst struct {
	Op   ir.ArithmeticOp
	Type ir.Type
	L, R engine.Operation
}

// LogicalInst is a bitwise or shift instruction.
type LogicalInst struct {
	Op   ir.LogicalOp
	Type ir.Type
	L, R engine.Operation
}

// CompareInst is an icmp or fcmp instruction.
type CompareInst struct {
	Op   ir.ComparisonOp
	Type ir.Type
	L, R engine.Operation
}

// CastInst is a conversion instruction.
type CastInst struct {
	Kind     ir.ConversionKind
	From, To ir.Type
	In       engine.Operation
}

// SelectInst is a select instruction.
type SelectInst struct {
	CondType, Type    ir.Type
	Cond, True, False engine.Operation
}

// LoadInst reads Type from Addr.
type LoadInst struct {
	Type ir.Type
	Addr engine.Operation
}

// StoreInst writes Value to Addr.
type StoreInst struct {
	Type        ir.Type
	Addr, Value engine.Operation
}

// ExtractValueInst reads an aggregate element.
type ExtractValueInst struct {
	Type    ir.Type
	Indices []int
	Agg     engine.Operation
}

// InsertValueInst replaces an aggregate element.
type InsertValueInst struct {
	Type       ir.Type
	Indices    []int
	Agg, Value engine.Operation
}

// ExtractElementInst reads a vector lane.
type ExtractElementInst struct {
	Type          ir.Type
	Vector, Index engine.Operation
}

// InsertElementInst replaces a vector lane.
type InsertElementInst struct {
	Type                   ir.Type
	Vector, Element, Index engine.Operation
}

// ShuffleVectorInst permutes two vectors.
type ShuffleVectorInst struct {
	Type ir.Type
	Mask []int
	A, B engine.Operation
}

// GetElementPtrInst computes an element address.
type GetElementPtrInst struct {
	Source  ir.Type
	Base    engine.Operation
	Indices []Index
}

// AllocaInst reserves stack storage. Count may be nil.
type AllocaInst struct {
	Type  ir.Type
	Count engine.Operation
	Align int64
}

// VAArgInst reads the next variadic argument.
type VAArgInst struct {
	Type ir.Type
	List engine.Operation
}

// LiteralInst is a constant.
type LiteralInst struct {
	Type  ir.Type
	Value ir.Value
}

// CallInst is a direct call to an external symbol.
type CallInst struct {
	Callee string
	Sig    *ir.FunctionType
	Args   []engine.Operation
}

func (*BinaryInst) instruction()         {}
func (*LogicalInst) instruction()        {}
func (*CompareInst) instruction()        {}
func (*CastInst) instruction()           {}
func (*SelectInst) instruction()         {}
func (*LoadInst) instruction()           {}
func (*StoreInst) instruction()          {}
func (*ExtractValueInst) instruction()   {}
func (*InsertValueInst) instruction()    {}
func (*ExtractElementInst) instruction() {}
func (*InsertElementInst) instruction()  {}
func (*ShuffleVectorInst) instruction()  {}
func (*GetElementPtrInst) instruction()  {}
func (*AllocaInst) instruction()         {}
func (*VAArgInst) instruction()          {}
func (*LiteralInst) instruction()        {}
func (*CallInst) instruction()           {}

// LowerInstruction selects the operation for inst. Successful selections are
// logged at debug level and reported to the observer.
func (lw *Lowerer) LowerInstruction(inst Instruction) (engine.Operation, error) {
	var (
		op       engine.Operation
		err      error
		operator string
		types    []ir.Type
	)
	switch x := inst.(type) {
	case *BinaryInst:
		operator, types = x.Op.String(), []ir.Type{x.Type}
		op, err = lw.Arithmetic(x.Op, x.Type, x.L, x.R)
	case *LogicalInst:
		operator, types = x.Op.String(), []ir.Type{x.Type}
		op, err = lw.Logical(x.Op, x.Type, x.L, x.R)
	case *CompareInst:
		operator, types = x.Op.String(), []ir.Type{x.Type}
		op, err = lw.Compare(x.Op, x.Type, x.L, x.R)
	case *CastInst:
		operator, types = x.Kind.String(), []ir.Type{x.From, x.To}
		op, err = lw.Cast(x.Kind, x.From, x.To, x.In)
	case *SelectInst:
		operator, types = "select", []ir.Type{x.CondType, x.Type}
		op, err = lw.Select(x.CondType, x.Type, x.Cond, x.True, x.False)
	case *LoadInst:
		operator, types = "load", []ir.Type{x.Type}
		op, err = lw.Load(x.Type, x.Addr)
	case *StoreInst:
		operator, types = "store", []ir.Type{x.Type}
		op, err = lw.Store(x.Type, x.Addr, x.Value)
	case *ExtractValueInst:
		operator, types = "extractvalue", []ir.Type{x.Type}
		op, err = lw.ExtractValue(x.Type, x.Indices, x.Agg)
	case *InsertValueInst:
		operator, types = "insertvalue", []ir.Type{x.Type}
		op, err = lw.InsertValue(x.Type, x.Indices, x.Agg, x.Value)
	case *ExtractElementInst:
		operator, types = "extractelement", []ir.Type{x.Type}
		op, err = lw.ExtractElement(x.Type, x.Vector, x.Index)
	case *InsertElementInst:
		operator, types = "insertelement", []ir.Type{x.Type}
		op, err = lw.InsertElement(x.Type, x.Vector, x.Element, x.Index)
	case *ShuffleVectorInst:
		operator, types = "shufflevector", []ir.Type{x.Type}
		op, err = lw.ShuffleVector(x.Type, x.Mask, x.A, x.B)
	case *GetElementPtrInst:
		operator, types = "getelementptr", []ir.Type{x.Source}
		op, err = lw.ElementPointer(x.Source, x.Base, x.Indices)
	case *AllocaInst:
		operator, types = "alloca", []ir.Type{x.Type}
		op, err = lw.Alloca(x.Type, x.Count, x.Align)
	case *VAArgInst:
		operator, types = "va_arg", []ir.Type{x.Type}
		op, err = lw.VAArg(x.Type, x.List)
	case *LiteralInst:
		operator, types = "literal", []ir.Type{x.Type}
		op, err = lw.Literal(x.Type, x.Value)
	case *CallInst:
		operator, types = "call", []ir.Type{x.Sig}
		op, err = lw.LowerCall(x.Callee, x.Sig, x.Args)
	default:
		return nil, violationf("lower", nil, "unknown instruction %T", inst)
	}
	if err != nil {
		return nil, err
	}

	rec := Record{Operator: operator, Types: types, Operation: op.Name()}
	lw.logger.Debug("lowered", "operator", operator, "operation", rec.Operation)
	if lw.observer != nil {
		lw.observer(rec)
	}
	return op, nil
}
