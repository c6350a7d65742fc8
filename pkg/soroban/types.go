// Package soroban implements the ABI model, semver diff, and OpenAPI
// projection described by the registry's contract-interface subsystem: a
// closed tagged union of wire types, structural equality/compatibility over
// that union, and exhaustive visitors for diffing and projecting it.
package soroban

import "fmt"

// Kind is the tag of the SorobanType closed union. Every new variant must be
// added here and then handled by every exhaustive switch in this package
// (equality, diff, openapi) — the compiler will not catch a missed switch
// arm. The OpenAPI projection's switch panics on unknown kinds to fail
// loudly; Equal treats an unlisted kind as a primitive decided by its tag.
type Kind string

const (
	KindBool      Kind = "bool"
	KindI32       Kind = "i32"
	KindI64       Kind = "i64"
	KindI128      Kind = "i128"
	KindI256      Kind = "i256"
	KindU32       Kind = "u32"
	KindU64       Kind = "u64"
	KindU128      Kind = "u128"
	KindU256      Kind = "u256"
	KindSymbol    Kind = "symbol"
	KindString    Kind = "string"
	KindBytes     Kind = "bytes"
	KindBytesN    Kind = "bytesN"
	KindAddress   Kind = "address"
	KindTimepoint Kind = "timepoint"
	KindDuration  Kind = "duration"
	KindVoid      Kind = "void"

	KindOption Kind = "option"
	KindVec    Kind = "vec"
	KindMap    Kind = "map"
	KindTuple  Kind = "tuple"
	KindResult Kind = "result"

	KindStruct Kind = "struct"
	KindEnum   Kind = "enum"
	KindCustom Kind = "custom"
)

// Field is a named, typed member of a struct.
type Field struct {
	Name string `json:"name"`
	Type Type   `json:"type"`
}

// Variant is a named enum case with an optional payload type (nil payload
// means a unit variant).
type Variant struct {
	Name    string `json:"name"`
	Payload *Type  `json:"payload,omitempty"`
}

// Type is the SorobanType tagged union. Only the fields relevant to Kind are
// populated; all others are zero. Structural equality is defined over Kind
// plus whichever component fields that Kind uses — see Equal.
type Type struct {
	Kind Kind `json:"kind"`

	// bytesN width.
	N int `json:"n,omitempty"`

	// option<Elem>, vec<Elem>.
	Elem *Type `json:"elem,omitempty"`

	// map<Key,Value>.
	Key   *Type `json:"key,omitempty"`
	Value *Type `json:"value,omitempty"`

	// tuple<Elems...>.
	Elems []Type `json:"elems,omitempty"`

	// result<Ok,Err>.
	Ok  *Type `json:"ok,omitempty"`
	Err *Type `json:"err,omitempty"`

	// struct{Name,Fields}, enum{Name,Variants}, custom{Name}.
	Name     string    `json:"name,omitempty"`
	Fields   []Field   `json:"fields,omitempty"`
	Variants []Variant `json:"variants,omitempty"`
}

// Convenience constructors for primitive types, used throughout tests and
// fixture ABIs.
func Bool() Type      { return Type{Kind: KindBool} }
func I32() Type       { return Type{Kind: KindI32} }
func I64() Type       { return Type{Kind: KindI64} }
func I128() Type      { return Type{Kind: KindI128} }
func I256() Type      { return Type{Kind: KindI256} }
func U32() Type       { return Type{Kind: KindU32} }
func U64() Type       { return Type{Kind: KindU64} }
func U128() Type      { return Type{Kind: KindU128} }
func U256() Type      { return Type{Kind: KindU256} }
func Symbol() Type    { return Type{Kind: KindSymbol} }
func Str() Type       { return Type{Kind: KindString} }
func Bytes() Type     { return Type{Kind: KindBytes} }
func BytesN(n int) Type {
	return Type{Kind: KindBytesN, N: n}
}
func Address() Type   { return Type{Kind: KindAddress} }
func Timepoint() Type { return Type{Kind: KindTimepoint} }
func Duration() Type  { return Type{Kind: KindDuration} }
func Void() Type      { return Type{Kind: KindVoid} }

func Option(elem Type) Type { return Type{Kind: KindOption, Elem: &elem} }
func Vec(elem Type) Type    { return Type{Kind: KindVec, Elem: &elem} }
func Map(key, value Type) Type {
	return Type{Kind: KindMap, Key: &key, Value: &value}
}
func Tuple(elems ...Type) Type { return Type{Kind: KindTuple, Elems: elems} }
func Result(ok, errT Type) Type {
	return Type{Kind: KindResult, Ok: &ok, Err: &errT}
}

func Struct(name string, fields ...Field) Type {
	return Type{Kind: KindStruct, Name: name, Fields: fields}
}
func Enum(name string, variants ...Variant) Type {
	return Type{Kind: KindEnum, Name: name, Variants: variants}
}
func Custom(name string) Type { return Type{Kind: KindCustom, Name: name} }

// IsInteger reports whether k is one of the eight integer kinds.
func IsInteger(k Kind) bool {
	switch k {
	case KindI32, KindI64, KindI128, KindI256, KindU32, KindU64, KindU128, KindU256:
		return true
	default:
		return false
	}
}

// IsSigned reports whether k is a signed integer kind. Only meaningful when
// IsInteger(k) is true.
func IsSigned(k Kind) bool {
	switch k {
	case KindI32, KindI64, KindI128, KindI256:
		return true
	default:
		return false
	}
}

// integerWidth orders integer kinds by bit width for the widening relation.
// i32 < i64 < i128 < i256, u32 < u64 < u128 < u256 (spec §4.1).
var integerWidth = map[Kind]int{
	KindI32: 32, KindI64: 64, KindI128: 128, KindI256: 256,
	KindU32: 32, KindU64: 64, KindU128: 128, KindU256: 256,
}

// Width returns the bit width of an integer kind, or 0 if k is not integer.
func Width(k Kind) int { return integerWidth[k] }

// String renders a human-readable type signature, used in error messages and
// the OpenAPI projection's descriptions.
func (t Type) String() string {
	switch t.Kind {
	case KindOption:
		return fmt.Sprintf("option<%s>", t.Elem.String())
	case KindVec:
		return fmt.Sprintf("vec<%s>", t.Elem.String())
	case KindMap:
		return fmt.Sprintf("map<%s,%s>", t.Key.String(), t.Value.String())
	case KindTuple:
		s := "tuple<"
		for i, e := range t.Elems {
			if i > 0 {
				s += ","
			}
			s += e.String()
		}
		return s + ">"
	case KindResult:
		return fmt.Sprintf("result<%s,%s>", t.Ok.String(), t.Err.String())
	case KindBytesN:
		return fmt.Sprintf("bytes%d", t.N)
	case KindStruct, KindEnum, KindCustom:
		return string(t.Kind) + ":" + t.Name
	default:
		return string(t.Kind)
	}
}
