package ir

import (
	"fmt"

	"cinder/internal/source"
	"cinder/internal/types"
)

// Stats reports what a dead-code elimination run removed. Counts are
// returned and aggregated by callers rather than kept in ambient state.
type Stats struct {
	BlocksRemoved int
	InstrsRemoved int
}

// Merge accumulates another run's counts.
func (s *Stats) Merge(o Stats) {
	s.BlocksRemoved += o.BlocksRemoved
	s.InstrsRemoved += o.InstrsRemoved
}

// FoldTerminator rewrites a conditional branch whose condition is a
// 1-bit integer literal into an unconditional branch to the taken
// successor, then deletes the old branch and any literal it leaves dead.
// Returns false when the terminator is not a constant-conditioned
// conditional branch.
func (f *Func) FoldTerminator(typesIn *types.Interner, b BlockID) bool {
	term := f.Terminator(b)
	if term == NoInstrID {
		return false
	}
	in := f.Instr(term)
	if in.Kind != InstrCondBr {
		return false
	}

	condDef := f.edges[in.Operands[0]].Def
	if condDef == NoInstrID || f.instrs[condDef].Kind != InstrConst {
		return false
	}
	lit := f.instrs[condDef].Const
	if bits, ok := typesIn.IntBits(lit.Type); !ok || bits != 1 {
		return false
	}

	// Pick the reachable successor and its arguments. Resolve argument
	// values now: the replacement branch must take its uses before the
	// old branch's edges are dropped, or an argument used only here
	// would be swept away mid-rewrite.
	args := in.Operands[1:]
	var target BlockID
	var taken []OperandID
	switch lit.Value {
	case 0:
		target = in.CondBr.False
		taken = args[in.CondBr.NumTrueArgs:]
	case 1:
		target = in.CondBr.True
		taken = args[:in.CondBr.NumTrueArgs]
	default:
		panic(fmt.Sprintf("ir: 1-bit literal with value %d", lit.Value))
	}
	vals := make([]InstrID, len(taken))
	for i, op := range taken {
		vals[i] = f.edges[op].Def
	}

	f.appendBr(b, target, vals)
	f.EraseAndCleanupInstr(term)
	return true
}

// SimplifyNoReturnCalls truncates a block after a call to a function
// whose type is classified as never-returning: everything following the
// call is deleted and the block is re-terminated with an unreachable
// marker carrying an invalid span, so downstream diagnostics can tell
// the synthesized terminator from user-authored unreachable code.
// Returns the number of truncated instructions and whether the block
// changed.
func (f *Func) SimplifyNoReturnCalls(typesIn *types.Interner, b BlockID) (int, bool) {
	instrs := f.Instrs(b)
	callAt := -1
	for i, id := range instrs {
		if f.instrs[id].Kind == InstrCall && typesIn.IsNoReturn(f.calleeType(id)) {
			callAt = i
			break
		}
	}
	if callAt < 0 {
		return 0, false
	}
	trailing := instrs[callAt+1:]
	if len(trailing) == 1 {
		if last := &f.instrs[trailing[0]]; last.Kind == InstrUnreachable && !last.Span.Valid() {
			// Already simplified on a previous run. A user-authored
			// unreachable keeps its valid span and is replaced below.
			return 0, false
		}
	}

	toDelete := make(InstrSet, len(trailing))
	for _, id := range trailing {
		toDelete[id] = struct{}{}
	}

	// A truncated value may still be used by blocks below the truncation
	// point. Those users are dominated by the no-return call, become
	// unreachable once this block is re-terminated, and are erased by the
	// reachability sweep; detach their edges now so the batch can go.
	f.dropOutsideUses(toDelete)

	removed := len(toDelete)
	f.EraseAndCleanup(toDelete)
	f.appendUnreachable(b, source.Invalid())
	return removed, true
}

// calleeType returns the static type of a call's callee value, or
// NoTypeID when it cannot be determined.
func (f *Func) calleeType(call InstrID) types.TypeID {
	def := f.edges[f.instrs[call].Operands[0]].Def
	if def == NoInstrID || f.instrs[def].Kind != InstrFnAddr {
		return types.NoTypeID
	}
	return f.instrs[def].FnAddr.Type
}

// RemoveUnreachableBlocks deletes every block not reachable from the
// entry by successor edges, along with all of their instructions.
// Returns the number of blocks removed and whether anything changed.
func (f *Func) RemoveUnreachableBlocks() (int, bool) {
	if f.entry == NoBlockID {
		return 0, false
	}

	reachable := map[BlockID]struct{}{f.entry: {}}
	worklist := []BlockID{f.entry}
	for len(worklist) > 0 {
		bb := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]
		for _, succ := range f.Succs(bb) {
			if _, seen := reachable[succ]; !seen {
				reachable[succ] = struct{}{}
				worklist = append(worklist, succ)
			}
		}
	}

	blocks := f.Blocks()
	if len(reachable) == len(blocks) {
		return 0, false
	}

	// Detach control-side references first: cleaning up each dead
	// block's terminator drops its operand edges (branch condition,
	// block arguments) before the block's remaining instructions are
	// considered.
	for _, b := range blocks {
		if _, ok := reachable[b]; ok {
			continue
		}
		if term := f.Terminator(b); term != NoInstrID {
			f.EraseAndCleanupInstr(term)
		}
	}

	// One batch for everything left in the dead blocks. This runs while
	// the instructions still exist and are still parented, since the
	// cleanup walks operand and use relationships.
	toDelete := make(InstrSet)
	for _, b := range blocks {
		if _, ok := reachable[b]; ok {
			continue
		}
		for _, id := range f.Instrs(b) {
			toDelete[id] = struct{}{}
		}
	}
	if len(toDelete) > 0 {
		f.EraseAndCleanup(toDelete)
	}

	removed := 0
	for _, b := range blocks {
		if _, ok := reachable[b]; ok {
			continue
		}
		f.removeBlock(b)
		removed++
	}
	return removed, true
}

// EliminateFunc runs dead-code elimination on one function: each block
// is visited once in its original order and either constant-folded or
// truncated after a no-return call, then unreachable blocks are swept.
func EliminateFunc(f *Func, typesIn *types.Interner) Stats {
	var stats Stats
	for _, b := range f.Blocks() {
		if f.FoldTerminator(typesIn, b) {
			continue
		}
		if n, changed := f.SimplifyNoReturnCalls(typesIn, b); changed {
			stats.InstrsRemoved += n
		}
	}

	removed, _ := f.RemoveUnreachableBlocks()
	stats.BlocksRemoved += removed
	return stats
}

// EliminateDeadCode runs EliminateFunc over every function of the
// module, in module order, and aggregates the removal counts.
func EliminateDeadCode(m *Module, typesIn *types.Interner) Stats {
	var stats Stats
	for _, f := range m.Funcs {
		if f == nil {
			continue
		}
		stats.Merge(EliminateFunc(f, typesIn))
	}
	return stats
}
