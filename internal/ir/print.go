package ir

import (
	"fmt"
	"io"
	"strings"

	"cinder/internal/types"
)

// DumpModule writes a human-readable listing of the module.
func DumpModule(w io.Writer, m *Module, typesIn *types.Interner) error {
	if w == nil || m == nil {
		return nil
	}
	fmt.Fprintf(w, "funcs=%d\n", len(m.Funcs))
	for _, f := range m.Funcs {
		if f == nil {
			continue
		}
		if err := DumpFunc(w, f, typesIn); err != nil {
			return err
		}
	}
	return nil
}

// DumpFunc writes a human-readable listing of one function. Values and
// blocks are numbered in listing order rather than by arena handle, so
// the rendering is stable across snapshot round trips and deletions.
func DumpFunc(w io.Writer, f *Func, typesIn *types.Interner) error {
	if w == nil || f == nil {
		return nil
	}
	p := newFuncPrinter(f, typesIn)
	if _, err := fmt.Fprintf(w, "\nfn %s:\n", f.Name); err != nil {
		return err
	}
	for _, b := range f.Blocks() {
		fmt.Fprintf(w, "%s:\n", p.blockHeader(b))
		for _, id := range f.Instrs(b) {
			if f.instrs[id].Kind == InstrParam {
				continue
			}
			fmt.Fprintf(w, "  %s\n", p.instrString(id))
		}
	}
	return nil
}

// funcPrinter assigns sequential listing numbers to blocks and to
// value-producing instructions.
type funcPrinter struct {
	f       *Func
	typesIn *types.Interner
	vals    map[InstrID]int
	blks    map[BlockID]int
}

func newFuncPrinter(f *Func, typesIn *types.Interner) *funcPrinter {
	p := &funcPrinter{
		f:       f,
		typesIn: typesIn,
		vals:    make(map[InstrID]int),
		blks:    make(map[BlockID]int),
	}
	for _, b := range f.Blocks() {
		p.blks[b] = len(p.blks)
		for _, id := range f.Instrs(b) {
			switch f.instrs[id].Kind {
			case InstrParam, InstrConst, InstrFnAddr, InstrBinOp, InstrCall:
				p.vals[id] = len(p.vals)
			}
		}
	}
	return p
}

func (p *funcPrinter) val(id InstrID) string {
	if n, ok := p.vals[id]; ok {
		return fmt.Sprintf("%%%d", n)
	}
	return "%?"
}

func (p *funcPrinter) blk(b BlockID) string {
	if n, ok := p.blks[b]; ok {
		return fmt.Sprintf("bb%d", n)
	}
	return "bb?"
}

func (p *funcPrinter) blockHeader(b BlockID) string {
	params := p.f.Params(b)
	if len(params) == 0 {
		return p.blk(b)
	}
	var sb strings.Builder
	sb.WriteString(p.blk(b))
	sb.WriteString("(")
	for i, prm := range params {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%s: %s", p.val(prm), typeStr(p.typesIn, p.f.instrs[prm].Param.Type))
	}
	sb.WriteString(")")
	return sb.String()
}

func (p *funcPrinter) instrString(id InstrID) string {
	in := &p.f.instrs[id]
	switch in.Kind {
	case InstrConst:
		return fmt.Sprintf("%s = const %s %d", p.val(id), typeStr(p.typesIn, in.Const.Type), in.Const.Value)
	case InstrFnAddr:
		return fmt.Sprintf("%s = fn_addr @%s : %s", p.val(id), in.FnAddr.Name, typeStr(p.typesIn, in.FnAddr.Type))
	case InstrBinOp:
		return fmt.Sprintf("%s = %s %s", p.val(id), in.BinOp.Op, p.operandList(in.Operands))
	case InstrCall:
		return fmt.Sprintf("%s = call %s(%s)", p.val(id), p.valueName(in.Operands[0]), p.operandList(in.Operands[1:]))
	case InstrBr:
		return fmt.Sprintf("br %s", p.targetString(in.Br.Target, in.Operands))
	case InstrCondBr:
		trueOps := in.Operands[1 : 1+in.CondBr.NumTrueArgs]
		falseOps := in.Operands[1+in.CondBr.NumTrueArgs:]
		return fmt.Sprintf("cond_br %s, %s, %s",
			p.valueName(in.Operands[0]),
			p.targetString(in.CondBr.True, trueOps),
			p.targetString(in.CondBr.False, falseOps))
	case InstrReturn:
		if in.Return.HasValue {
			return fmt.Sprintf("return %s", p.valueName(in.Operands[0]))
		}
		return "return"
	case InstrUnreachable:
		if !in.Span.Valid() {
			return "unreachable // synthesized"
		}
		return "unreachable"
	default:
		return fmt.Sprintf("%s = %s", p.val(id), in.Kind)
	}
}

func (p *funcPrinter) targetString(target BlockID, args []OperandID) string {
	if len(args) == 0 {
		return p.blk(target)
	}
	return fmt.Sprintf("%s(%s)", p.blk(target), p.operandList(args))
}

func (p *funcPrinter) operandList(ops []OperandID) string {
	parts := make([]string, len(ops))
	for i, op := range ops {
		parts[i] = p.valueName(op)
	}
	return strings.Join(parts, ", ")
}

func (p *funcPrinter) valueName(op OperandID) string {
	def := p.f.edges[op].Def
	if def == NoInstrID {
		return "%<detached>"
	}
	return p.val(def)
}

func typeStr(typesIn *types.Interner, id types.TypeID) string {
	if typesIn == nil {
		return fmt.Sprintf("t%d", id)
	}
	return typesIn.String(id)
}
