package ir

import (
	"fmt"

	"fortio.org/safecast"

	"cinder/internal/source"
	"cinder/internal/types"
)

// Construction API. Frontends (and tests) build functions through these
// methods so that operand edges and use-lists stay consistent. The pass
// itself only deletes and re-terminates; it never builds new data flow.

// NewBlock appends a new empty block. The first block created becomes
// the entry block.
func (f *Func) NewBlock() BlockID {
	idx, err := safecast.Conv[int32](len(f.blocks))
	if err != nil {
		panic(fmt.Errorf("len(blocks) overflow: %w", err))
	}
	id := BlockID(idx)
	f.blocks = append(f.blocks, block{live: true})
	if f.entry == NoBlockID {
		f.entry = id
	}
	return id
}

// AddParam appends a block parameter. Parameters must precede body
// instructions.
func (f *Func) AddParam(b BlockID, typ types.TypeID) InstrID {
	f.checkBlock(b)
	instrs := f.blocks[b].instrs
	if len(instrs) > 0 && f.instrs[instrs[len(instrs)-1]].Kind != InstrParam {
		panic("ir: block parameters must be added before body instructions")
	}
	return f.appendInstr(b, Instr{Kind: InstrParam, Param: ParamInstr{Type: typ}})
}

// AppendConst appends an integer literal of the given type.
func (f *Func) AppendConst(b BlockID, typ types.TypeID, value uint64) InstrID {
	return f.appendInstr(b, Instr{Kind: InstrConst, Const: ConstInstr{Type: typ, Value: value}})
}

// AppendFnAddr appends a function address constant.
func (f *Func) AppendFnAddr(b BlockID, name string, typ types.TypeID) InstrID {
	return f.appendInstr(b, Instr{Kind: InstrFnAddr, FnAddr: FnAddrInstr{Name: name, Type: typ}})
}

// AppendBinOp appends a pure binary operation on x and y.
func (f *Func) AppendBinOp(b BlockID, op BinOp, x, y InstrID) InstrID {
	id := f.appendInstr(b, Instr{Kind: InstrBinOp, BinOp: BinOpInstr{Op: op}})
	f.addOperand(id, x)
	f.addOperand(id, y)
	return id
}

// AppendCall appends a call. Operand 0 is the callee value, the rest are
// arguments.
func (f *Func) AppendCall(b BlockID, callee InstrID, args ...InstrID) InstrID {
	id := f.appendInstr(b, Instr{Kind: InstrCall})
	f.addOperand(id, callee)
	for _, arg := range args {
		f.addOperand(id, arg)
	}
	return id
}

// SetBr terminates the block with an unconditional branch carrying block
// arguments for the target's parameters.
func (f *Func) SetBr(b BlockID, target BlockID, args ...InstrID) InstrID {
	f.checkUnterminated(b)
	return f.appendBr(b, target, args)
}

// SetCondBr terminates the block with a conditional branch.
func (f *Func) SetCondBr(b BlockID, cond InstrID, trueBlock BlockID, trueArgs []InstrID, falseBlock BlockID, falseArgs []InstrID) InstrID {
	f.checkUnterminated(b)
	id := f.appendInstr(b, Instr{Kind: InstrCondBr, CondBr: CondBrTerm{
		True:        trueBlock,
		False:       falseBlock,
		NumTrueArgs: len(trueArgs),
	}})
	f.addOperand(id, cond)
	for _, arg := range trueArgs {
		f.addOperand(id, arg)
	}
	for _, arg := range falseArgs {
		f.addOperand(id, arg)
	}
	return id
}

// SetReturn terminates the block with a return. Pass NoInstrID for a
// valueless return.
func (f *Func) SetReturn(b BlockID, value InstrID) InstrID {
	f.checkUnterminated(b)
	id := f.appendInstr(b, Instr{Kind: InstrReturn, Return: ReturnTerm{HasValue: value != NoInstrID}})
	if value != NoInstrID {
		f.addOperand(id, value)
	}
	return id
}

// SetUnreachable terminates the block with an unreachable marker. An
// invalid span marks the terminator as compiler-synthesized.
func (f *Func) SetUnreachable(b BlockID, span source.Span) InstrID {
	f.checkUnterminated(b)
	return f.appendUnreachable(b, span)
}

// appendBr builds an unconditional branch without the termination check.
// The terminator folder appends the replacement branch while the old
// conditional branch is still in place, so the new branch holds uses of
// the argument values before the old edges are dropped.
func (f *Func) appendBr(b BlockID, target BlockID, args []InstrID) InstrID {
	id := f.appendInstr(b, Instr{Kind: InstrBr, Br: BrTerm{Target: target}})
	for _, arg := range args {
		f.addOperand(id, arg)
	}
	return id
}

// appendUnreachable builds an unreachable terminator without the
// termination check.
func (f *Func) appendUnreachable(b BlockID, span source.Span) InstrID {
	return f.appendInstr(b, Instr{Kind: InstrUnreachable, Span: span})
}

func (f *Func) appendInstr(b BlockID, in Instr) InstrID {
	f.checkBlock(b)
	in.Parent = b
	idx, err := safecast.Conv[int32](len(f.instrs))
	if err != nil {
		panic(fmt.Errorf("len(instrs) overflow: %w", err))
	}
	id := InstrID(idx)
	f.instrs = append(f.instrs, in)
	f.blocks[b].instrs = append(f.blocks[b].instrs, id)
	return id
}

func (f *Func) addOperand(user, def InstrID) {
	edge := f.newEdge(user, def)
	f.instrs[user].Operands = append(f.instrs[user].Operands, edge)
}

func (f *Func) checkUnterminated(b BlockID) {
	if f.Terminator(b) != NoInstrID {
		panic(fmt.Sprintf("ir: block %d is already terminated", b))
	}
}
