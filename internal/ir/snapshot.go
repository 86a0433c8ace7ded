package ir

import (
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"

	"cinder/internal/source"
	"cinder/internal/types"
)

// Current schema version - increment when the snapshot format changes
const snapshotSchemaVersion uint16 = 1

// Snapshots are the storable artifact form of a module: the functions
// plus the slice of the type table they reference, self-contained so a
// later process can decode without the producing frontend.

type snapshotModule struct {
	Schema uint16
	Types  []snapshotType
	Funcs  []snapshotFunc
}

type snapshotType struct {
	Kind     uint8
	Bits     uint16
	Params   []int32 // type table indices
	Result   int32   // type table index, -1 for none
	NoReturn bool
}

type snapshotFunc struct {
	Name   string
	Blocks []snapshotBlock
}

type snapshotBlock struct {
	ID     int32
	Instrs []snapshotInstr
}

type snapshotInstr struct {
	ID   int32
	Kind uint8

	Type        int32 // type table index, -1 for none
	Value       uint64
	Name        string
	Op          uint8
	Target      int32
	True        int32
	False       int32
	NumTrueArgs int
	HasValue    bool

	SpanFile  uint32
	SpanStart uint32
	SpanEnd   uint32

	Operands []int32 // def instruction IDs, in operand order
}

// WriteSnapshot serializes the module and the types it references.
func WriteSnapshot(w io.Writer, m *Module, typesIn *types.Interner) error {
	enc := typeEncoder{in: typesIn, index: make(map[types.TypeID]int32)}
	snap := snapshotModule{Schema: snapshotSchemaVersion}

	for _, f := range m.Funcs {
		if f == nil {
			continue
		}
		sf := snapshotFunc{Name: f.Name}
		for _, b := range f.Blocks() {
			sb := snapshotBlock{ID: int32(b)}
			for _, id := range f.Instrs(b) {
				sb.Instrs = append(sb.Instrs, encodeInstr(f, id, &enc))
			}
			sf.Blocks = append(sf.Blocks, sb)
		}
		snap.Funcs = append(snap.Funcs, sf)
	}
	snap.Types = enc.table

	return msgpack.NewEncoder(w).Encode(&snap)
}

// ReadSnapshot decodes a module snapshot into a fresh module and type
// interner.
func ReadSnapshot(r io.Reader) (*Module, *types.Interner, error) {
	var snap snapshotModule
	if err := msgpack.NewDecoder(r).Decode(&snap); err != nil {
		return nil, nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if snap.Schema != snapshotSchemaVersion {
		return nil, nil, fmt.Errorf("snapshot schema %d, want %d", snap.Schema, snapshotSchemaVersion)
	}

	typesIn := types.NewInterner()
	typeIDs, err := decodeTypes(snap.Types, typesIn)
	if err != nil {
		return nil, nil, err
	}
	typeAt := func(idx int32) (types.TypeID, error) {
		if idx == -1 {
			return types.NoTypeID, nil
		}
		if idx < 0 || int(idx) >= len(typeIDs) {
			return types.NoTypeID, fmt.Errorf("type index %d out of range", idx)
		}
		return typeIDs[idx], nil
	}

	m := NewModule()
	for fi := range snap.Funcs {
		sf := &snap.Funcs[fi]
		f, err := decodeFunc(sf, typeAt)
		if err != nil {
			return nil, nil, fmt.Errorf("function %s: %w", sf.Name, err)
		}
		m.AddFunc(f)
	}
	return m, typesIn, nil
}

type typeEncoder struct {
	in    *types.Interner
	index map[types.TypeID]int32
	table []snapshotType
}

// encode interns a TypeID into the snapshot type table, recursing into
// function parameter and result types.
func (e *typeEncoder) encode(id types.TypeID) int32 {
	if id == types.NoTypeID {
		return -1
	}
	if idx, ok := e.index[id]; ok {
		return idx
	}
	tt := e.in.MustLookup(id)
	st := snapshotType{Kind: uint8(tt.Kind), Bits: tt.Bits, Result: -1}

	// Reserve the slot before recursing so self-referential tables
	// terminate; function types cannot actually contain themselves here.
	idx := int32(len(e.table))
	e.index[id] = idx
	e.table = append(e.table, st)

	if tt.Kind == types.KindFn {
		info, ok := e.in.FnInfo(id)
		if !ok {
			panic(fmt.Sprintf("ir: function type %d without info", id))
		}
		for _, p := range info.Params {
			st.Params = append(st.Params, e.encode(p))
		}
		st.Result = e.encode(info.Result)
		st.NoReturn = info.NoReturn
		e.table[idx] = st
	}
	return idx
}

func decodeTypes(table []snapshotType, typesIn *types.Interner) ([]types.TypeID, error) {
	ids := make([]types.TypeID, len(table))
	done := make([]bool, len(table))
	seen := make([]bool, len(table))
	var intern func(idx int32) (types.TypeID, error)
	intern = func(idx int32) (types.TypeID, error) {
		if idx == -1 {
			return types.NoTypeID, nil
		}
		if idx < 0 || int(idx) >= len(table) {
			return types.NoTypeID, fmt.Errorf("type index %d out of range", idx)
		}
		if done[idx] {
			return ids[idx], nil
		}
		if seen[idx] {
			return types.NoTypeID, fmt.Errorf("cyclic type at index %d", idx)
		}
		seen[idx] = true

		st := table[idx]
		var id types.TypeID
		switch types.Kind(st.Kind) {
		case types.KindUnit:
			id = typesIn.Intern(types.Type{Kind: types.KindUnit})
		case types.KindInt:
			id = typesIn.Intern(types.MakeInt(st.Bits))
		case types.KindFn:
			info := types.FnInfo{NoReturn: st.NoReturn}
			for _, p := range st.Params {
				pid, err := intern(p)
				if err != nil {
					return types.NoTypeID, err
				}
				info.Params = append(info.Params, pid)
			}
			rid, err := intern(st.Result)
			if err != nil {
				return types.NoTypeID, err
			}
			info.Result = rid
			id = typesIn.InternFn(info)
		default:
			return types.NoTypeID, fmt.Errorf("unknown type kind %d", st.Kind)
		}
		ids[idx] = id
		done[idx] = true
		return id, nil
	}
	for i := range table {
		if _, err := intern(int32(i)); err != nil {
			return nil, err
		}
	}
	return ids, nil
}

func encodeInstr(f *Func, id InstrID, enc *typeEncoder) snapshotInstr {
	in := f.Instr(id)
	si := snapshotInstr{
		ID:        int32(id),
		Kind:      uint8(in.Kind),
		Type:      -1,
		SpanFile:  uint32(in.Span.File),
		SpanStart: in.Span.Start,
		SpanEnd:   in.Span.End,
	}
	switch in.Kind {
	case InstrParam:
		si.Type = enc.encode(in.Param.Type)
	case InstrConst:
		si.Type = enc.encode(in.Const.Type)
		si.Value = in.Const.Value
	case InstrFnAddr:
		si.Type = enc.encode(in.FnAddr.Type)
		si.Name = in.FnAddr.Name
	case InstrBinOp:
		si.Op = uint8(in.BinOp.Op)
	case InstrBr:
		si.Target = int32(in.Br.Target)
	case InstrCondBr:
		si.True = int32(in.CondBr.True)
		si.False = int32(in.CondBr.False)
		si.NumTrueArgs = in.CondBr.NumTrueArgs
	case InstrReturn:
		si.HasValue = in.Return.HasValue
	}
	for _, op := range in.Operands {
		si.Operands = append(si.Operands, int32(f.edges[op].Def))
	}
	return si
}

// decodeFunc rebuilds a function in two passes: first every block and
// instruction without data edges, then the operand wiring, so uses may
// reference defs in any later block.
func decodeFunc(sf *snapshotFunc, typeAt func(int32) (types.TypeID, error)) (*Func, error) {
	f := NewFunc(sf.Name)

	blockOf := make(map[int32]BlockID, len(sf.Blocks))
	for i := range sf.Blocks {
		blockOf[sf.Blocks[i].ID] = f.NewBlock()
	}
	remapBlock := func(id int32) (BlockID, error) {
		b, ok := blockOf[id]
		if !ok {
			return NoBlockID, fmt.Errorf("branch target bb%d not in snapshot", id)
		}
		return b, nil
	}

	instrOf := make(map[int32]InstrID)
	for bi := range sf.Blocks {
		sb := &sf.Blocks[bi]
		b := blockOf[sb.ID]
		for ii := range sb.Instrs {
			si := &sb.Instrs[ii]
			typ, err := typeAt(si.Type)
			if err != nil {
				return nil, err
			}

			in := Instr{Kind: InstrKind(si.Kind), Span: source.Span{
				File:  source.FileID(si.SpanFile),
				Start: si.SpanStart,
				End:   si.SpanEnd,
			}}
			switch in.Kind {
			case InstrParam:
				in.Param = ParamInstr{Type: typ}
			case InstrConst:
				in.Const = ConstInstr{Type: typ, Value: si.Value}
			case InstrFnAddr:
				in.FnAddr = FnAddrInstr{Name: si.Name, Type: typ}
			case InstrBinOp:
				in.BinOp = BinOpInstr{Op: BinOp(si.Op)}
			case InstrCall:
				// operands only
			case InstrBr:
				target, err := remapBlock(si.Target)
				if err != nil {
					return nil, err
				}
				in.Br = BrTerm{Target: target}
			case InstrCondBr:
				trueB, err := remapBlock(si.True)
				if err != nil {
					return nil, err
				}
				falseB, err := remapBlock(si.False)
				if err != nil {
					return nil, err
				}
				in.CondBr = CondBrTerm{True: trueB, False: falseB, NumTrueArgs: si.NumTrueArgs}
			case InstrReturn:
				in.Return = ReturnTerm{HasValue: si.HasValue}
			case InstrUnreachable:
				// span only
			default:
				return nil, fmt.Errorf("unknown instruction kind %d", si.Kind)
			}
			instrOf[si.ID] = f.appendInstr(b, in)
		}
	}

	for bi := range sf.Blocks {
		sb := &sf.Blocks[bi]
		for ii := range sb.Instrs {
			si := &sb.Instrs[ii]
			user := instrOf[si.ID]
			for _, oldDef := range si.Operands {
				def, ok := instrOf[oldDef]
				if !ok {
					return nil, fmt.Errorf("instr %d: operand def %d not in snapshot", si.ID, oldDef)
				}
				f.addOperand(user, def)
			}
		}
	}
	return f, nil
}
