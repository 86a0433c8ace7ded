package ir

import "slices"

// InstrSet is a deduplicated set of instruction handles.
type InstrSet map[InstrID]struct{}

// NewInstrSet builds a set from the given handles.
func NewInstrSet(ids ...InstrID) InstrSet {
	set := make(InstrSet, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

// IsTriviallyDead performs a fast local check: an instruction is
// trivially dead when it is not a terminator, nothing uses its value,
// and it has no side effects. Block parameters are owned by control flow
// and are never deletion candidates. The test is local; it does not
// consider effects transitively.
func (f *Func) IsTriviallyDead(id InstrID) bool {
	if id == NoInstrID || !f.InstrAlive(id) {
		return false
	}
	in := &f.instrs[id]
	if in.IsTerminator() || in.Kind == InstrParam {
		return false
	}
	if len(in.Uses) != 0 {
		return false
	}
	return !in.MayHaveSideEffects()
}

// DeleteRecursively deletes the instruction if it is trivially dead,
// along with operands that become dead in turn. Reports whether anything
// was deleted.
//
// Every instruction erased here has zero uses at the moment of erasure,
// and operand edges are always dropped before either endpoint goes away.
func (f *Func) DeleteRecursively(id InstrID) bool {
	if id == NoInstrID || !f.IsTriviallyDead(id) {
		return false
	}

	worklist := []InstrID{id}
	for len(worklist) > 0 {
		cur := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]

		for _, op := range f.instrs[cur].Operands {
			def := f.edges[op].Def
			f.dropOperand(op)
			if def != NoInstrID && f.IsTriviallyDead(def) {
				worklist = append(worklist, def)
			}
		}

		f.eraseFromParent(cur)
	}
	return true
}

// EraseAndCleanup deletes every instruction in the set and any
// instruction that becomes dead after the removal. Reports whether
// instructions beyond the set itself were deleted.
//
// References are dropped for the whole batch before anything is erased,
// so set members referencing each other never see a dangling def.
func (f *Func) EraseAndCleanup(toDelete InstrSet) bool {
	// Deleting these instructions may make their operands dead; collect
	// the candidates that are not scheduled for deletion themselves.
	possiblyDead := make(InstrSet)
	for id := range toDelete {
		for _, op := range f.Instr(id).Operands {
			def := f.edges[op].Def
			if def == NoInstrID {
				continue
			}
			if _, scheduled := toDelete[def]; !scheduled {
				possiblyDead[def] = struct{}{}
			}
		}
	}

	for id := range toDelete {
		f.dropAllOperands(id)
	}

	additional := false
	for id := range possiblyDead {
		if f.DeleteRecursively(id) {
			additional = true
		}
	}

	// The cascade above may already have reclaimed a set member whose
	// last use sat on a deleted candidate; skip those instead of erasing
	// twice.
	for id := range toDelete {
		if f.InstrAlive(id) {
			f.eraseFromParent(id)
		}
	}

	return additional
}

// dropOutsideUses detaches every use edge held against batch members by
// instructions outside the batch. The users keep their operand slots,
// now detached.
func (f *Func) dropOutsideUses(batch InstrSet) {
	for id := range batch {
		for _, use := range slices.Clone(f.instrs[id].Uses) {
			if _, scheduled := batch[f.edges[use].User]; !scheduled {
				f.dropOperand(use)
			}
		}
	}
}

// EraseAndCleanupInstr is the single-instruction form of EraseAndCleanup.
func (f *Func) EraseAndCleanupInstr(id InstrID) bool {
	return f.EraseAndCleanup(NewInstrSet(id))
}
