package ir

import (
	"cinder/internal/source"
	"cinder/internal/types"
)

// InstrKind enumerates instruction kinds.
type InstrKind uint8

const (
	// InstrInvalid marks a tombstoned arena slot.
	InstrInvalid InstrKind = iota
	// InstrParam is a block parameter pseudo-instruction. Params sit at
	// the front of their block and define the values passed by branch
	// arguments of predecessor terminators.
	InstrParam
	// InstrConst is an integer literal.
	InstrConst
	// InstrFnAddr materializes the address of a named function.
	InstrFnAddr
	// InstrBinOp is a pure two-operand arithmetic instruction.
	InstrBinOp
	// InstrCall applies a callee value to arguments.
	InstrCall
	// InstrBr is an unconditional branch terminator.
	InstrBr
	// InstrCondBr is a two-way conditional branch terminator.
	InstrCondBr
	// InstrReturn is a function return terminator.
	InstrReturn
	// InstrUnreachable is a terminator marking a point control flow
	// cannot reach. A synthesized one carries an invalid span.
	InstrUnreachable
)

func (k InstrKind) String() string {
	switch k {
	case InstrInvalid:
		return "invalid"
	case InstrParam:
		return "param"
	case InstrConst:
		return "const"
	case InstrFnAddr:
		return "fn_addr"
	case InstrBinOp:
		return "bin_op"
	case InstrCall:
		return "call"
	case InstrBr:
		return "br"
	case InstrCondBr:
		return "cond_br"
	case InstrReturn:
		return "return"
	case InstrUnreachable:
		return "unreachable"
	default:
		return "unknown"
	}
}

// BinOp enumerates pure binary operations.
type BinOp uint8

const (
	BinAdd BinOp = iota
	BinSub
	BinMul
)

func (op BinOp) String() string {
	switch op {
	case BinAdd:
		return "add"
	case BinSub:
		return "sub"
	case BinMul:
		return "mul"
	default:
		return "unknown"
	}
}

// ParamInstr carries the declared type of a block parameter.
type ParamInstr struct {
	Type types.TypeID
}

// ConstInstr is an integer literal of a fixed-width integer type.
// A 1-bit literal is the boolean shape the terminator folder recognizes.
type ConstInstr struct {
	Type  types.TypeID
	Value uint64
}

// FnAddrInstr references a function by name. Its type is a function type;
// the no-return classification of calls through this value comes from it.
type FnAddrInstr struct {
	Name string
	Type types.TypeID
}

// BinOpInstr holds the operator; both inputs are operand edges.
type BinOpInstr struct {
	Op BinOp
}

// BrTerm is an unconditional branch. All operand edges are block
// arguments for Target's parameters.
type BrTerm struct {
	Target BlockID
}

// CondBrTerm is a conditional branch. Operand edge 0 is the condition,
// followed by NumTrueArgs arguments for True, then the arguments for
// False.
type CondBrTerm struct {
	True        BlockID
	False       BlockID
	NumTrueArgs int
}

// ReturnTerm returns from the function; operand edge 0 is the returned
// value when HasValue is set.
type ReturnTerm struct {
	HasValue bool
}

// Instr is an arena-allocated instruction. Kind selects which payload
// field is meaningful. Operands lists the edges this instruction created
// as a user, in operand order; Uses lists the edges other instructions
// hold against this instruction's value.
//
// Operands and Uses are maintained by Func methods; mutating them
// directly breaks use-def integrity.
type Instr struct {
	Kind   InstrKind
	Parent BlockID
	Span   source.Span

	Param  ParamInstr
	Const  ConstInstr
	FnAddr FnAddrInstr
	BinOp  BinOpInstr
	Br     BrTerm
	CondBr CondBrTerm
	Return ReturnTerm

	Operands []OperandID
	Uses     []OperandID
}

// IsTerminator reports whether the instruction ends a basic block.
func (in *Instr) IsTerminator() bool {
	switch in.Kind {
	case InstrBr, InstrCondBr, InstrReturn, InstrUnreachable:
		return true
	default:
		return false
	}
}

// MayHaveSideEffects reports whether removing the instruction could
// change observable behavior even when its value is unused.
func (in *Instr) MayHaveSideEffects() bool {
	return in.Kind == InstrCall
}

// Operand is a single data-use edge from a user instruction to the
// instruction defining the value it consumes. Def is NoInstrID once the
// edge has been dropped from the def's use-list.
type Operand struct {
	User InstrID
	Def  InstrID
}
