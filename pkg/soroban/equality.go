package soroban

// Equal reports structural equality: same tag, and recursively equal
// component types. custom{name} compares by name only, per spec §3.
func Equal(a, b Type) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KindBytesN:
		return a.N == b.N
	case KindOption, KindVec:
		return Equal(*a.Elem, *b.Elem)
	case KindMap:
		return Equal(*a.Key, *b.Key) && Equal(*a.Value, *b.Value)
	case KindTuple:
		if len(a.Elems) != len(b.Elems) {
			return false
		}
		for i := range a.Elems {
			if !Equal(a.Elems[i], b.Elems[i]) {
				return false
			}
		}
		return true
	case KindResult:
		return Equal(*a.Ok, *b.Ok) && Equal(*a.Err, *b.Err)
	case KindStruct:
		if a.Name != b.Name || len(a.Fields) != len(b.Fields) {
			return false
		}
		for i := range a.Fields {
			if a.Fields[i].Name != b.Fields[i].Name || !Equal(a.Fields[i].Type, b.Fields[i].Type) {
				return false
			}
		}
		return true
	case KindEnum:
		if a.Name != b.Name || len(a.Variants) != len(b.Variants) {
			return false
		}
		for i := range a.Variants {
			if a.Variants[i].Name != b.Variants[i].Name {
				return false
			}
			if (a.Variants[i].Payload == nil) != (b.Variants[i].Payload == nil) {
				return false
			}
			if a.Variants[i].Payload != nil && !Equal(*a.Variants[i].Payload, *b.Variants[i].Payload) {
				return false
			}
		}
		return true
	case KindCustom:
		return a.Name == b.Name
	default:
		// Primitive with no component fields: tag equality already decided it.
		return true
	}
}

// Compatible implements the type-compatibility relation of spec §4.1: exact
// structural equality, integer widening within the same signedness, the
// string/symbol pair, and structural compatibility of option/vec element
// types. Used by the call validator when the declared parameter type differs
// from a value's natural type (e.g. symbol accepted where string declared).
func Compatible(declared, actual Type) bool {
	if Equal(declared, actual) {
		return true
	}
	if IsInteger(declared.Kind) && IsInteger(actual.Kind) && IsSigned(declared.Kind) == IsSigned(actual.Kind) {
		return Width(declared.Kind) >= Width(actual.Kind)
	}
	if (declared.Kind == KindString && actual.Kind == KindSymbol) ||
		(declared.Kind == KindSymbol && actual.Kind == KindString) {
		return true
	}
	if declared.Kind == KindOption && actual.Kind == KindOption {
		return Compatible(*declared.Elem, *actual.Elem)
	}
	if declared.Kind == KindVec && actual.Kind == KindVec {
		return Compatible(*declared.Elem, *actual.Elem)
	}
	return false
}

// ImplicitConvertible is the widening subset of Compatible: same-signedness
// integers where the declared type is wider than the actual one, or the
// string/symbol pair. A match here
// (that isn't exact equality) is reported as an ImplicitConversion warning
// in lenient validation mode rather than a hard TypeMismatch.
func ImplicitConvertible(declared, actual Type) bool {
	if Equal(declared, actual) {
		return false
	}
	if IsInteger(declared.Kind) && IsInteger(actual.Kind) && IsSigned(declared.Kind) == IsSigned(actual.Kind) {
		return Width(declared.Kind) > Width(actual.Kind)
	}
	if (declared.Kind == KindString && actual.Kind == KindSymbol) ||
		(declared.Kind == KindSymbol && actual.Kind == KindString) {
		return true
	}
	return false
}
