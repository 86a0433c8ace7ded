// Package types holds the static type table consulted by the IR passes.
// It answers two questions the optimizer cares about: how wide is an
// integer type, and does a function type promise to never return.
package types

// TypeID is a stable handle into an Interner.
type TypeID int32

// NoTypeID marks an absent or unknown type.
const NoTypeID TypeID = -1

// Kind enumerates type descriptor kinds.
type Kind uint8

const (
	// KindInvalid is the reserved invalid descriptor.
	KindInvalid Kind = iota
	// KindUnit is the empty result type.
	KindUnit
	// KindInt is a fixed-width integer type.
	KindInt
	// KindFn is a function type.
	KindFn
)

// Type is a structural type descriptor. For KindInt, Bits carries the
// width; for KindFn, Fn indexes the interner's function info table.
type Type struct {
	Kind Kind
	Bits uint16
	Fn   int32
}

// MakeInt builds an integer descriptor of the given bit width.
func MakeInt(bits uint16) Type {
	return Type{Kind: KindInt, Bits: bits}
}

// FnInfo describes a function type. NoReturn marks callees whose type
// guarantees execution does not resume after the call.
type FnInfo struct {
	Params   []TypeID
	Result   TypeID
	NoReturn bool
}
