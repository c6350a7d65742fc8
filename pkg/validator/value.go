// Package validator implements the contract-call validation procedure of
// spec §4.1: parsing raw string/JSON arguments against a soroban.ABI
// function signature, checking type compatibility and numeric range, and
// collecting every applicable error and warning rather than stopping at the
// first failure.
package validator

import (
	"math/big"

	"github.com/contractforge/registry/pkg/regerr"
	"github.com/contractforge/registry/pkg/soroban"
)

// Value is a parsed call argument or return placeholder, tagged by its
// Soroban type. Only the fields relevant to Type.Kind are populated.
type Value struct {
	Type soroban.Type

	Bool  bool
	Int   *big.Int
	Str   string
	Bytes []byte

	IsNull bool
	Elem   *Value // option<T> payload when not null

	Elems []Value          // vec, tuple
	Pairs []MapPair        // map
	Fields map[string]Value // struct

	Variant string // enum
	Payload *Value // enum variant payload, nil for unit variants
}

// MapPair is one key/value entry of a parsed map argument. Pairs are neither
// sorted nor kept in input order: they follow Go's map iteration order over
// the decoded JSON object, since map<K,V> carries no ordering guarantee of
// its own.
type MapPair struct {
	Key   Value
	Value Value
}

// WarningKind enumerates the non-fatal conditions the validator can report
// alongside (or, in strict mode, instead of) a successful parse.
type WarningKind string

const (
	WarningImplicitConversion WarningKind = "IMPLICIT_CONVERSION"
	WarningPotentialOverflow  WarningKind = "POTENTIAL_OVERFLOW"
	WarningMutableCall        WarningKind = "MUTABLE_CALL"
)

// Warning is a non-fatal validation finding. In lenient mode it accompanies
// a successful ParsedCall; in strict mode it is promoted to a regerr.Error
// of the matching kind (see Validate).
type Warning struct {
	Kind    WarningKind
	Message string
	Field   string
}

// ParsedCall is the fully typed result of a successful validation: the
// function name, its arguments in declared order, and the declared return
// type (not evaluated — the registry validates calls, it does not execute
// contracts).
type ParsedCall struct {
	Function string
	Args     []Value
	Return   soroban.Type
}

// CallValidationResult is the outcome of Validate: either Call is non-nil
// and Errors is empty, or Call is nil and Errors explains every failure.
// Warnings may be present in either case (lenient mode) or absent (they were
// promoted into Errors in strict mode).
type CallValidationResult struct {
	Call     *ParsedCall
	Warnings []Warning
	Errors   regerr.List
}
