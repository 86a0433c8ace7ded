package ir

import (
	"fmt"
	"slices"

	"fortio.org/safecast"
)

// block is an arena slot owning an ordered list of instructions. The
// last instruction of a well-formed live block is its terminator.
type block struct {
	instrs []InstrID
	live   bool
}

// Func is an ordered sequence of basic blocks. The first block created
// is the entry block and is always considered reachable.
type Func struct {
	Name string

	entry  BlockID
	blocks []block
	instrs []Instr
	edges  []Operand
}

// NewFunc creates an empty function.
func NewFunc(name string) *Func {
	return &Func{Name: name, entry: NoBlockID}
}

// Entry returns the entry block, or NoBlockID for an empty function.
func (f *Func) Entry() BlockID {
	return f.entry
}

// Blocks returns the live blocks in creation order.
func (f *Func) Blocks() []BlockID {
	out := make([]BlockID, 0, len(f.blocks))
	for i := range f.blocks {
		if f.blocks[i].live {
			out = append(out, BlockID(i))
		}
	}
	return out
}

// NumBlocks returns the number of live blocks.
func (f *Func) NumBlocks() int {
	n := 0
	for i := range f.blocks {
		if f.blocks[i].live {
			n++
		}
	}
	return n
}

// BlockAlive reports whether b refers to a live block.
func (f *Func) BlockAlive(b BlockID) bool {
	return b >= 0 && int(b) < len(f.blocks) && f.blocks[b].live
}

// Instrs returns the instruction list of a block, in order. The slice is
// owned by the function; callers must not mutate it.
func (f *Func) Instrs(b BlockID) []InstrID {
	f.checkBlock(b)
	return f.blocks[b].instrs
}

// Params returns the leading parameter pseudo-instructions of a block.
func (f *Func) Params(b BlockID) []InstrID {
	instrs := f.Instrs(b)
	n := 0
	for _, id := range instrs {
		if f.instrs[id].Kind != InstrParam {
			break
		}
		n++
	}
	return instrs[:n]
}

// InstrAlive reports whether id refers to a live instruction.
func (f *Func) InstrAlive(id InstrID) bool {
	return id >= 0 && int(id) < len(f.instrs) && f.instrs[id].Kind != InstrInvalid
}

// Instr returns the instruction for a live handle. Dereferencing a
// removed instruction is a caller bug and panics.
func (f *Func) Instr(id InstrID) *Instr {
	if !f.InstrAlive(id) {
		panic(fmt.Sprintf("ir: dead instruction handle %d", id))
	}
	return &f.instrs[id]
}

// Operand returns the edge for an operand handle.
func (f *Func) Operand(id OperandID) Operand {
	if id < 0 || int(id) >= len(f.edges) {
		panic(fmt.Sprintf("ir: invalid operand handle %d", id))
	}
	return f.edges[id]
}

// NumUses returns the size of the instruction's use-list.
func (f *Func) NumUses(id InstrID) int {
	return len(f.Instr(id).Uses)
}

// Terminator returns the block's terminator instruction, or NoInstrID if
// the block is empty or its last instruction is not a terminator.
func (f *Func) Terminator(b BlockID) InstrID {
	instrs := f.Instrs(b)
	if len(instrs) == 0 {
		return NoInstrID
	}
	last := instrs[len(instrs)-1]
	if !f.instrs[last].IsTerminator() {
		return NoInstrID
	}
	return last
}

// Succs returns the successor blocks referenced by the block's
// terminator: none for returns and unreachable, one for an unconditional
// branch, two for a conditional branch.
func (f *Func) Succs(b BlockID) []BlockID {
	term := f.Terminator(b)
	if term == NoInstrID {
		return nil
	}
	in := &f.instrs[term]
	switch in.Kind {
	case InstrBr:
		return []BlockID{in.Br.Target}
	case InstrCondBr:
		return []BlockID{in.CondBr.True, in.CondBr.False}
	default:
		return nil
	}
}

func (f *Func) checkBlock(b BlockID) {
	if !f.BlockAlive(b) {
		panic(fmt.Sprintf("ir: dead block handle %d", b))
	}
}

// newEdge records a use-def link from user to def and appends it to
// def's use-list.
func (f *Func) newEdge(user, def InstrID) OperandID {
	if !f.InstrAlive(def) {
		panic(fmt.Sprintf("ir: operand edge to dead instruction %d", def))
	}
	idx, err := safecast.Conv[int32](len(f.edges))
	if err != nil {
		panic(fmt.Errorf("len(edges) overflow: %w", err))
	}
	id := OperandID(idx)
	f.edges = append(f.edges, Operand{User: user, Def: def})
	f.instrs[def].Uses = append(f.instrs[def].Uses, id)
	return id
}

// dropOperand detaches the edge from its def's use-list without
// destroying either endpoint. Dropping an already-detached edge is a
// no-op.
func (f *Func) dropOperand(id OperandID) {
	edge := &f.edges[id]
	if edge.Def == NoInstrID {
		return
	}
	def := &f.instrs[edge.Def]
	idx := slices.Index(def.Uses, id)
	if idx < 0 {
		panic(fmt.Sprintf("ir: operand %d missing from use-list of %d", id, edge.Def))
	}
	def.Uses = slices.Delete(def.Uses, idx, idx+1)
	edge.Def = NoInstrID
}

// dropAllOperands detaches every operand edge of the instruction.
func (f *Func) dropAllOperands(id InstrID) {
	for _, op := range f.Instr(id).Operands {
		f.dropOperand(op)
	}
}

// eraseFromParent physically removes the instruction from its owning
// block and tombstones its arena slot. All operand edges must already be
// detached and the use-list must be empty; violating either is a bug in
// the caller, not a recoverable condition.
func (f *Func) eraseFromParent(id InstrID) {
	in := f.Instr(id)
	if len(in.Uses) != 0 {
		panic(fmt.Sprintf("ir: erasing instruction %d with %d remaining uses", id, len(in.Uses)))
	}
	for _, op := range in.Operands {
		if f.edges[op].Def != NoInstrID {
			panic(fmt.Sprintf("ir: erasing instruction %d with attached operand %d", id, op))
		}
	}
	f.checkBlock(in.Parent)
	bb := &f.blocks[in.Parent]
	idx := slices.Index(bb.instrs, id)
	if idx < 0 {
		panic(fmt.Sprintf("ir: instruction %d not found in parent block %d", id, in.Parent))
	}
	bb.instrs = slices.Delete(bb.instrs, idx, idx+1)
	f.instrs[id] = Instr{Kind: InstrInvalid, Parent: NoBlockID}
}

// removeBlock tombstones an emptied block. The reachability sweep erases
// all of a block's instructions before removing the block itself.
func (f *Func) removeBlock(b BlockID) {
	f.checkBlock(b)
	if b == f.entry {
		panic("ir: removing the entry block")
	}
	if len(f.blocks[b].instrs) != 0 {
		panic(fmt.Sprintf("ir: removing non-empty block %d", b))
	}
	f.blocks[b] = block{}
}
