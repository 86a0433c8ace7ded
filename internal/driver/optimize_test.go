package driver_test

import (
	"context"
	"testing"

	"cinder/internal/driver"
	"cinder/internal/ir"
	"cinder/internal/observ"
	"cinder/internal/types"
)

// buildModule makes n copies of a function with a constant-conditioned
// branch whose untaken arm holds dead instructions.
func buildModule(in *types.Interner, n int) *ir.Module {
	bi := in.Builtins()
	m := ir.NewModule()
	for i := 0; i < n; i++ {
		f := ir.NewFunc("f")
		entry := f.NewBlock()
		taken := f.NewBlock()
		dead := f.NewBlock()
		f.SetReturn(taken, ir.NoInstrID)

		x := f.AppendConst(dead, bi.I32, 7)
		f.AppendBinOp(dead, ir.BinAdd, x, x)
		f.SetReturn(dead, ir.NoInstrID)

		c := f.AppendConst(entry, bi.I1, 1)
		f.SetCondBr(entry, c, taken, nil, dead, nil)
		m.AddFunc(f)
	}
	return m
}

func TestOptimizeMatchesSequential(t *testing.T) {
	const funcs = 16

	seqIn := types.NewInterner()
	seq := buildModule(seqIn, funcs)
	want := ir.EliminateDeadCode(seq, seqIn)

	parIn := types.NewInterner()
	par := buildModule(parIn, funcs)
	got, err := driver.Optimize(context.Background(), par, parIn, driver.Options{Jobs: 4})
	if err != nil {
		t.Fatalf("optimize failed: %v", err)
	}
	if got != want {
		t.Errorf("parallel stats %+v, sequential stats %+v", got, want)
	}
	if err := ir.Validate(par, parIn); err != nil {
		t.Errorf("validation failed after parallel run: %v", err)
	}
}

func TestOptimizeDefaultsJobs(t *testing.T) {
	in := types.NewInterner()
	m := buildModule(in, 3)

	stats, err := driver.Optimize(context.Background(), m, in, driver.Options{})
	if err != nil {
		t.Fatalf("optimize failed: %v", err)
	}
	if stats.BlocksRemoved != 3 {
		t.Errorf("BlocksRemoved = %d, want 3", stats.BlocksRemoved)
	}
}

func TestOptimizeEmptyModule(t *testing.T) {
	stats, err := driver.Optimize(context.Background(), ir.NewModule(), types.NewInterner(), driver.Options{})
	if err != nil {
		t.Fatalf("optimize failed: %v", err)
	}
	if stats != (ir.Stats{}) {
		t.Errorf("empty module produced stats %+v", stats)
	}
}

func TestOptimizeCancelledContext(t *testing.T) {
	in := types.NewInterner()
	m := buildModule(in, 8)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := driver.Optimize(ctx, m, in, driver.Options{Jobs: 1}); err == nil {
		t.Error("expected an error from a cancelled context")
	}
}

func TestOptimizeRecordsPhase(t *testing.T) {
	in := types.NewInterner()
	m := buildModule(in, 2)

	timer := observ.NewTimer()
	if _, err := driver.Optimize(context.Background(), m, in, driver.Options{Timer: timer}); err != nil {
		t.Fatalf("optimize failed: %v", err)
	}
	report := timer.Report()
	if len(report.Phases) != 1 || report.Phases[0].Name != "deadcode" {
		t.Errorf("unexpected phase report: %+v", report)
	}
}
