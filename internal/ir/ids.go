// Package ir defines an intermediate representation of functions built
// from basic blocks, with instructions linked by explicit use-def
// operand edges, and the dead-code elimination pass that rewrites it in
// place.
//
// Blocks, instructions and operand edges live in per-function arenas and
// are addressed by int32 handles. Removing an entity tombstones its arena
// slot; handles of removed entities must not be dereferenced again.
package ir

type FuncID int32
type BlockID int32
type InstrID int32
type OperandID int32

const (
	NoFuncID    FuncID    = -1
	NoBlockID   BlockID   = -1
	NoInstrID   InstrID   = -1
	NoOperandID OperandID = -1
)
