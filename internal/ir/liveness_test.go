package ir_test

import (
	"testing"

	"cinder/internal/ir"
	"cinder/internal/types"
)

// TestIsTriviallyDead checks the local deadness test against every
// exclusion: uses, side effects, terminators, and block parameters.
func TestIsTriviallyDead(t *testing.T) {
	in := types.NewInterner()
	bi := in.Builtins()

	f := ir.NewFunc("test")
	bb := f.NewBlock()
	p := f.AddParam(bb, bi.I32)

	unused := f.AppendConst(bb, bi.I32, 5)
	used := f.AppendConst(bb, bi.I32, 7)
	sum := f.AppendBinOp(bb, ir.BinAdd, used, used)

	addrTy := in.InternFn(types.FnInfo{Result: bi.I32})
	callee := f.AppendFnAddr(bb, "opaque", addrTy)
	call := f.AppendCall(bb, callee)
	term := f.SetReturn(bb, ir.NoInstrID)

	if !f.IsTriviallyDead(unused) {
		t.Error("unused pure constant must be trivially dead")
	}
	if !f.IsTriviallyDead(sum) {
		t.Error("unused pure bin_op must be trivially dead")
	}
	if f.IsTriviallyDead(used) {
		t.Error("constant with uses must not be trivially dead")
	}
	if f.IsTriviallyDead(call) {
		t.Error("call has side effects and must not be trivially dead")
	}
	if f.IsTriviallyDead(term) {
		t.Error("terminator must never be trivially dead")
	}
	if f.IsTriviallyDead(p) {
		t.Error("block parameter must never be trivially dead")
	}
	if f.IsTriviallyDead(ir.NoInstrID) {
		t.Error("NoInstrID must not be trivially dead")
	}
}

// TestDeleteRecursivelyCascade checks that deleting a dead instruction
// cascades through operand edges: y = add(x, x), both unused elsewhere,
// removes y and then x.
func TestDeleteRecursivelyCascade(t *testing.T) {
	in := types.NewInterner()
	bi := in.Builtins()

	f := ir.NewFunc("test")
	bb := f.NewBlock()
	x := f.AppendConst(bb, bi.I32, 5)
	y := f.AppendBinOp(bb, ir.BinAdd, x, x)
	f.SetReturn(bb, ir.NoInstrID)

	if !f.DeleteRecursively(y) {
		t.Fatal("expected deletion to report a change")
	}
	if f.InstrAlive(y) {
		t.Error("y must be erased")
	}
	if f.InstrAlive(x) {
		t.Error("x must be erased by the cascade")
	}
	if got := len(f.Instrs(bb)); got != 1 {
		t.Errorf("expected only the terminator to remain, got %d instructions", got)
	}
	if err := ir.ValidateFunc(f, in); err != nil {
		t.Errorf("validation failed after deletion: %v", err)
	}
}

// TestDeleteRecursivelyStopsAtLiveOperand checks that the cascade keeps
// operands that still have other uses.
func TestDeleteRecursivelyStopsAtLiveOperand(t *testing.T) {
	in := types.NewInterner()
	bi := in.Builtins()

	f := ir.NewFunc("test")
	bb := f.NewBlock()
	x := f.AppendConst(bb, bi.I32, 5)
	dead := f.AppendBinOp(bb, ir.BinAdd, x, x)
	f.SetReturn(bb, x) // keeps x alive

	if !f.DeleteRecursively(dead) {
		t.Fatal("expected deletion to report a change")
	}
	if !f.InstrAlive(x) {
		t.Error("x still has a use and must survive")
	}
	if got := f.NumUses(x); got != 1 {
		t.Errorf("expected 1 remaining use of x, got %d", got)
	}
}

// TestDeleteRecursivelyNoop checks the no-change cases.
func TestDeleteRecursivelyNoop(t *testing.T) {
	in := types.NewInterner()
	bi := in.Builtins()

	f := ir.NewFunc("test")
	bb := f.NewBlock()
	x := f.AppendConst(bb, bi.I32, 5)
	f.SetReturn(bb, x)

	if f.DeleteRecursively(x) {
		t.Error("used instruction must not be deleted")
	}
	if f.DeleteRecursively(ir.NoInstrID) {
		t.Error("NoInstrID must be a no-op")
	}
	if !f.InstrAlive(x) {
		t.Error("x must survive the no-op calls")
	}
}

// TestEraseAndCleanupBatchInternalRefs checks that a batch whose members
// reference each other is deleted without dangling defs: references are
// dropped for the whole batch before anything is erased.
func TestEraseAndCleanupBatchInternalRefs(t *testing.T) {
	in := types.NewInterner()
	bi := in.Builtins()

	f := ir.NewFunc("test")
	bb := f.NewBlock()
	a := f.AppendConst(bb, bi.I32, 1)
	b := f.AppendBinOp(bb, ir.BinAdd, a, a)
	c := f.AppendBinOp(bb, ir.BinMul, b, a)
	f.SetReturn(bb, ir.NoInstrID)

	additional := f.EraseAndCleanup(ir.NewInstrSet(a, b, c))
	if additional {
		t.Error("no instruction outside the batch should have been deleted")
	}
	for _, id := range []ir.InstrID{a, b, c} {
		if f.InstrAlive(id) {
			t.Errorf("instruction %d must be erased", id)
		}
	}
	if err := ir.ValidateFunc(f, in); err != nil {
		t.Errorf("validation failed after batch deletion: %v", err)
	}
}

// TestEraseAndCleanupCascadesOutsideBatch checks that operands outside
// the batch that lose their last use are cleaned up too, and that the
// result accumulates across candidates instead of reflecting only the
// last one.
func TestEraseAndCleanupCascadesOutsideBatch(t *testing.T) {
	in := types.NewInterner()
	bi := in.Builtins()

	f := ir.NewFunc("test")
	bb := f.NewBlock()
	x := f.AppendConst(bb, bi.I32, 2)
	kept := f.AppendConst(bb, bi.I32, 3)
	u := f.AppendBinOp(bb, ir.BinAdd, x, kept)
	f.SetReturn(bb, kept) // kept stays live, x does not

	if !f.EraseAndCleanup(ir.NewInstrSet(u)) {
		t.Error("expected the cascade onto x to be reported")
	}
	if f.InstrAlive(x) {
		t.Error("x lost its last use and must be erased")
	}
	if !f.InstrAlive(kept) {
		t.Error("kept still has a use and must survive")
	}
	if err := ir.ValidateFunc(f, in); err != nil {
		t.Errorf("validation failed after cleanup: %v", err)
	}
}

// TestEraseAndCleanupInstr checks the single-instruction form.
func TestEraseAndCleanupInstr(t *testing.T) {
	in := types.NewInterner()
	bi := in.Builtins()

	f := ir.NewFunc("test")
	bb := f.NewBlock()
	x := f.AppendConst(bb, bi.I32, 2)
	u := f.AppendBinOp(bb, ir.BinAdd, x, x)
	f.SetReturn(bb, ir.NoInstrID)

	if !f.EraseAndCleanupInstr(u) {
		t.Error("expected the cascade onto x to be reported")
	}
	if f.InstrAlive(u) || f.InstrAlive(x) {
		t.Error("both u and x must be erased")
	}
}
