package types

import (
	"fmt"
	"strings"

	"fortio.org/safecast"
)

// Builtins stores TypeIDs for common primitive types.
type Builtins struct {
	Unit TypeID
	I1   TypeID
	I8   TypeID
	I16  TypeID
	I32  TypeID
	I64  TypeID
}

// Interner provides stable TypeIDs by hashing structural descriptors.
type Interner struct {
	types    []Type
	index    map[typeKey]TypeID
	fns      []FnInfo
	fnIndex  map[string]TypeID
	builtins Builtins
}

type typeKey struct {
	Kind Kind
	Bits uint16
}

// NewInterner constructs an interner seeded with built-in primitives.
func NewInterner() *Interner {
	in := &Interner{
		index:   make(map[typeKey]TypeID, 16),
		fnIndex: make(map[string]TypeID, 16),
	}
	in.fns = append(in.fns, FnInfo{}) // reserve 0 as invalid sentinel
	in.builtins.Unit = in.Intern(Type{Kind: KindUnit})
	in.builtins.I1 = in.Intern(MakeInt(1))
	in.builtins.I8 = in.Intern(MakeInt(8))
	in.builtins.I16 = in.Intern(MakeInt(16))
	in.builtins.I32 = in.Intern(MakeInt(32))
	in.builtins.I64 = in.Intern(MakeInt(64))
	return in
}

// Builtins returns TypeIDs for primitive types.
func (in *Interner) Builtins() Builtins {
	return in.builtins
}

// Intern ensures the provided descriptor has a stable TypeID.
// Function types must go through InternFn.
func (in *Interner) Intern(t Type) TypeID {
	switch t.Kind {
	case KindInvalid:
		return NoTypeID
	case KindFn:
		panic("types: function types must be interned via InternFn")
	}
	key := typeKey{Kind: t.Kind, Bits: t.Bits}
	if id, ok := in.index[key]; ok {
		return id
	}
	id := in.push(t)
	in.index[key] = id
	return id
}

// InternFn ensures the function descriptor has a stable TypeID.
func (in *Interner) InternFn(info FnInfo) TypeID {
	key := fnKey(info)
	if id, ok := in.fnIndex[key]; ok {
		return id
	}
	fnIdx, err := safecast.Conv[int32](len(in.fns))
	if err != nil {
		panic(fmt.Errorf("len(fns) overflow: %w", err))
	}
	in.fns = append(in.fns, FnInfo{
		Params:   append([]TypeID(nil), info.Params...),
		Result:   info.Result,
		NoReturn: info.NoReturn,
	})
	id := in.push(Type{Kind: KindFn, Fn: fnIdx})
	in.fnIndex[key] = id
	return id
}

// push adds the descriptor to the storage without consulting the maps.
func (in *Interner) push(t Type) TypeID {
	lenTypes, err := safecast.Conv[int32](len(in.types))
	if err != nil {
		panic(fmt.Errorf("len(types) overflow: %w", err))
	}
	id := TypeID(lenTypes)
	in.types = append(in.types, t)
	return id
}

// Lookup returns the descriptor for a TypeID.
func (in *Interner) Lookup(id TypeID) (Type, bool) {
	if id < 0 || int(id) >= len(in.types) {
		return Type{}, false
	}
	return in.types[id], true
}

// MustLookup panics when id is invalid.
func (in *Interner) MustLookup(id TypeID) Type {
	tt, ok := in.Lookup(id)
	if !ok {
		panic("types: invalid TypeID")
	}
	return tt
}

// IntBits returns the width of an integer type.
func (in *Interner) IntBits(id TypeID) (uint16, bool) {
	tt, ok := in.Lookup(id)
	if !ok || tt.Kind != KindInt {
		return 0, false
	}
	return tt.Bits, true
}

// FnInfo returns the function info for a function TypeID.
func (in *Interner) FnInfo(id TypeID) (FnInfo, bool) {
	tt, ok := in.Lookup(id)
	if !ok || tt.Kind != KindFn {
		return FnInfo{}, false
	}
	if tt.Fn <= 0 || int(tt.Fn) >= len(in.fns) {
		return FnInfo{}, false
	}
	return in.fns[tt.Fn], true
}

// IsNoReturn reports whether id is a function type classified as
// never-returning. Non-function types report false.
func (in *Interner) IsNoReturn(id TypeID) bool {
	info, ok := in.FnInfo(id)
	return ok && info.NoReturn
}

// String renders a TypeID for dumps and error messages.
func (in *Interner) String(id TypeID) string {
	tt, ok := in.Lookup(id)
	if !ok {
		return "<invalid>"
	}
	switch tt.Kind {
	case KindUnit:
		return "unit"
	case KindInt:
		return fmt.Sprintf("i%d", tt.Bits)
	case KindFn:
		info, ok := in.FnInfo(id)
		if !ok {
			return "fn<invalid>"
		}
		var sb strings.Builder
		sb.WriteString("fn(")
		for i, p := range info.Params {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(in.String(p))
		}
		sb.WriteString(")")
		if info.NoReturn {
			sb.WriteString(" -> never")
		} else if info.Result != NoTypeID {
			sb.WriteString(" -> ")
			sb.WriteString(in.String(info.Result))
		}
		return sb.String()
	default:
		return "<invalid>"
	}
}

func fnKey(info FnInfo) string {
	var sb strings.Builder
	for _, p := range info.Params {
		fmt.Fprintf(&sb, "%d,", p)
	}
	fmt.Fprintf(&sb, "->%d", info.Result)
	if info.NoReturn {
		sb.WriteString("!")
	}
	return sb.String()
}
