package ir

import (
	"errors"
	"fmt"
	"slices"

	"cinder/internal/types"
)

// Validate checks module invariants.
// Returns an error if any invariant is violated.
func Validate(m *Module, typesIn *types.Interner) error {
	if m == nil {
		return nil
	}
	var errs []error
	for _, f := range m.Funcs {
		if f == nil {
			continue
		}
		if err := ValidateFunc(f, typesIn); err != nil {
			errs = append(errs, fmt.Errorf("function %s: %w", f.Name, err))
		}
	}
	return errors.Join(errs...)
}

// ValidateFunc checks the structural invariants of one function.
func ValidateFunc(f *Func, typesIn *types.Interner) error {
	if f == nil {
		return nil
	}

	var errs []error
	if err := validateBlocks(f); err != nil {
		errs = append(errs, err)
	}
	if err := validateEdges(f); err != nil {
		errs = append(errs, err)
	}
	if err := validateArity(f); err != nil {
		errs = append(errs, err)
	}
	if err := validateBranches(f, typesIn); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// validateBlocks checks that every live block ends in exactly one
// terminator, that terminators never appear mid-block, and that params
// only lead the block.
func validateBlocks(f *Func) error {
	var errs []error
	for _, b := range f.Blocks() {
		instrs := f.Instrs(b)
		if len(instrs) == 0 {
			errs = append(errs, fmt.Errorf("bb%d: empty block", b))
			continue
		}
		sawBody := false
		for pos, id := range instrs {
			if !f.InstrAlive(id) {
				errs = append(errs, fmt.Errorf("bb%d: dead instruction handle %d at %d", b, id, pos))
				continue
			}
			in := &f.instrs[id]
			if in.Parent != b {
				errs = append(errs, fmt.Errorf("bb%d: instruction %d claims parent bb%d", b, id, in.Parent))
			}
			if in.IsTerminator() && pos != len(instrs)-1 {
				errs = append(errs, fmt.Errorf("bb%d: terminator %d at position %d is not last", b, id, pos))
			}
			if in.Kind == InstrParam && sawBody {
				errs = append(errs, fmt.Errorf("bb%d: parameter %d after body instructions", b, id))
			}
			if in.Kind != InstrParam {
				sawBody = true
			}
		}
		if f.Terminator(b) == NoInstrID {
			errs = append(errs, fmt.Errorf("bb%d: unterminated block", b))
		}
	}
	return errors.Join(errs...)
}

// validateEdges checks bidirectional use-def consistency: every operand
// edge points at a live def that lists the edge in its use-list, every
// use-list entry points back, and use-counts match use-list sizes.
func validateEdges(f *Func) error {
	var errs []error
	for _, b := range f.Blocks() {
		for _, id := range f.Instrs(b) {
			if !f.InstrAlive(id) {
				continue // reported by validateBlocks
			}
			in := &f.instrs[id]
			for i, op := range in.Operands {
				edge := f.edges[op]
				if edge.User != id {
					errs = append(errs, fmt.Errorf("instr %d: operand %d recorded user %d", id, i, edge.User))
				}
				if edge.Def == NoInstrID {
					errs = append(errs, fmt.Errorf("instr %d: operand %d is detached", id, i))
					continue
				}
				if !f.InstrAlive(edge.Def) {
					errs = append(errs, fmt.Errorf("instr %d: operand %d points at dead instruction %d", id, i, edge.Def))
					continue
				}
				if !slices.Contains(f.instrs[edge.Def].Uses, op) {
					errs = append(errs, fmt.Errorf("instr %d: operand %d missing from use-list of %d", id, i, edge.Def))
				}
			}
			for _, use := range in.Uses {
				edge := f.edges[use]
				if edge.Def != id {
					errs = append(errs, fmt.Errorf("instr %d: use-list entry %d has def %d", id, use, edge.Def))
					continue
				}
				if !f.InstrAlive(edge.User) {
					errs = append(errs, fmt.Errorf("instr %d: used by dead instruction %d", id, edge.User))
				}
			}
		}
	}
	return errors.Join(errs...)
}

// validateArity checks per-kind operand counts, so decoded artifacts
// with missing operands are reported instead of faulting a later pass.
func validateArity(f *Func) error {
	var errs []error
	for _, b := range f.Blocks() {
		for _, id := range f.Instrs(b) {
			if !f.InstrAlive(id) {
				continue // reported by validateBlocks
			}
			in := &f.instrs[id]
			n := len(in.Operands)
			switch in.Kind {
			case InstrParam, InstrConst, InstrFnAddr, InstrUnreachable:
				if n != 0 {
					errs = append(errs, fmt.Errorf("instr %d: %s carries %d operands", id, in.Kind, n))
				}
			case InstrBinOp:
				if n != 2 {
					errs = append(errs, fmt.Errorf("instr %d: bin_op with %d operands, want 2", id, n))
				}
			case InstrCall:
				if n < 1 {
					errs = append(errs, fmt.Errorf("instr %d: call without a callee operand", id))
				}
			case InstrCondBr:
				if n < 1 {
					errs = append(errs, fmt.Errorf("instr %d: conditional branch without a condition operand", id))
				}
			case InstrReturn:
				want := 0
				if in.Return.HasValue {
					want = 1
				}
				if n != want {
					errs = append(errs, fmt.Errorf("instr %d: return with %d operands, want %d", id, n, want))
				}
			}
		}
	}
	return errors.Join(errs...)
}

// validateBranches checks branch targets, argument/parameter counts, and
// boolean literal values.
func validateBranches(f *Func, typesIn *types.Interner) error {
	var errs []error
	for _, b := range f.Blocks() {
		term := f.Terminator(b)
		if term == NoInstrID {
			continue
		}
		in := &f.instrs[term]
		switch in.Kind {
		case InstrBr:
			errs = append(errs, f.checkBranchEdge(b, in.Br.Target, len(in.Operands))...)
		case InstrCondBr:
			nTrue := in.CondBr.NumTrueArgs
			nFalse := len(in.Operands) - 1 - nTrue
			if nFalse < 0 {
				errs = append(errs, fmt.Errorf("bb%d: conditional branch argument split out of range", b))
				continue
			}
			errs = append(errs, f.checkBranchEdge(b, in.CondBr.True, nTrue)...)
			errs = append(errs, f.checkBranchEdge(b, in.CondBr.False, nFalse)...)
		}
	}

	if typesIn != nil {
		for i := range f.instrs {
			in := &f.instrs[i]
			if in.Kind != InstrConst {
				continue
			}
			if bits, ok := typesIn.IntBits(in.Const.Type); ok && bits == 1 && in.Const.Value > 1 {
				errs = append(errs, fmt.Errorf("instr %d: 1-bit literal with value %d", i, in.Const.Value))
			}
		}
	}
	return errors.Join(errs...)
}

func (f *Func) checkBranchEdge(from, target BlockID, argc int) []error {
	if !f.BlockAlive(target) {
		return []error{fmt.Errorf("bb%d: branch target bb%d does not exist", from, target)}
	}
	if want := len(f.Params(target)); want != argc {
		return []error{fmt.Errorf("bb%d: %d arguments for bb%d which declares %d parameters", from, argc, target, want)}
	}
	return nil
}
