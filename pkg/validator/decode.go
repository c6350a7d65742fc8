package validator

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/contractforge/registry/pkg/regerr"
	"github.com/contractforge/registry/pkg/soroban"
)

// decodeComposite parses a raw JSON argument against a composite SorobanType
// (option/vec/map/tuple/result/struct/enum). Primitive leaves nested inside
// are parsed by re-encoding the decoded JSON scalar back to its string form
// and delegating to parsePrimitive, keeping a single source of truth for
// primitive parsing rules.
func decodeComposite(t soroban.Type, raw, field string, types map[string]soroban.Type) (Value, *regerr.Error) {
	switch t.Kind {
	case soroban.KindOption:
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" || trimmed == "null" || strings.EqualFold(trimmed, "None") {
			return Value{Type: t, IsNull: true}, nil
		}
		inner, err := parseValue(*t.Elem, raw, field, types)
		if err != nil {
			return Value{}, err
		}
		return Value{Type: t, Elem: &inner}, nil

	case soroban.KindVec:
		var raws []json.RawMessage
		if err := json.Unmarshal([]byte(raw), &raws); err != nil {
			return Value{}, regerr.WithField(regerr.KindParseError,
				fmt.Sprintf("invalid vec JSON: %v", err), field)
		}
		elems := make([]Value, 0, len(raws))
		for i, r := range raws {
			v, err := parseValue(*t.Elem, string(r), fmt.Sprintf("%s[%d]", field, i), types)
			if err != nil {
				return Value{}, err
			}
			elems = append(elems, v)
		}
		return Value{Type: t, Elems: elems}, nil

	case soroban.KindTuple:
		var raws []json.RawMessage
		if err := json.Unmarshal([]byte(raw), &raws); err != nil {
			return Value{}, regerr.WithField(regerr.KindParseError,
				fmt.Sprintf("invalid tuple JSON: %v", err), field)
		}
		if len(raws) != len(t.Elems) {
			return Value{}, regerr.Mismatch(regerr.KindParamCountMismatch,
				fmt.Sprintf("tuple expects %d elements, got %d", len(t.Elems), len(raws)),
				field, fmt.Sprintf("%d", len(t.Elems)), fmt.Sprintf("%d", len(raws)))
		}
		elems := make([]Value, len(raws))
		for i, r := range raws {
			v, err := parseValue(t.Elems[i], string(r), fmt.Sprintf("%s[%d]", field, i), types)
			if err != nil {
				return Value{}, err
			}
			elems[i] = v
		}
		return Value{Type: t, Elems: elems}, nil

	case soroban.KindMap:
		var raws map[string]json.RawMessage
		if err := json.Unmarshal([]byte(raw), &raws); err != nil {
			return Value{}, regerr.WithField(regerr.KindParseError,
				fmt.Sprintf("invalid map JSON: %v", err), field)
		}
		pairs := make([]MapPair, 0, len(raws))
		for k, r := range raws {
			key, err := parseValue(*t.Key, quoteIfNeeded(*t.Key, k), field+".key", types)
			if err != nil {
				return Value{}, err
			}
			val, err := parseValue(*t.Value, string(r), field+"["+k+"]", types)
			if err != nil {
				return Value{}, err
			}
			pairs = append(pairs, MapPair{Key: key, Value: val})
		}
		return Value{Type: t, Pairs: pairs}, nil

	case soroban.KindResult:
		var wrapper struct {
			Ok  *json.RawMessage `json:"ok"`
			Err *json.RawMessage `json:"err"`
		}
		if err := json.Unmarshal([]byte(raw), &wrapper); err != nil {
			return Value{}, regerr.WithField(regerr.KindParseError,
				fmt.Sprintf("invalid result JSON: %v", err), field)
		}
		switch {
		case wrapper.Ok != nil:
			v, err := parseValue(*t.Ok, string(*wrapper.Ok), field+".ok", types)
			if err != nil {
				return Value{}, err
			}
			return Value{Type: t, Variant: "ok", Payload: &v}, nil
		case wrapper.Err != nil:
			v, err := parseValue(*t.Err, string(*wrapper.Err), field+".err", types)
			if err != nil {
				return Value{}, err
			}
			return Value{Type: t, Variant: "err", Payload: &v}, nil
		default:
			return Value{}, regerr.WithField(regerr.KindParseError,
				`result must have exactly one of "ok" or "err"`, field)
		}

	case soroban.KindStruct:
		var raws map[string]json.RawMessage
		if err := json.Unmarshal([]byte(raw), &raws); err != nil {
			return Value{}, regerr.WithField(regerr.KindParseError,
				fmt.Sprintf("invalid struct JSON: %v", err), field)
		}
		fields := make(map[string]Value, len(t.Fields))
		for _, f := range t.Fields {
			r, ok := raws[f.Name]
			if !ok {
				return Value{}, regerr.WithField(regerr.KindParseError,
					fmt.Sprintf("struct %s missing field %q", t.Name, f.Name), field+"."+f.Name)
			}
			v, err := parseValue(f.Type, string(r), field+"."+f.Name, types)
			if err != nil {
				return Value{}, err
			}
			fields[f.Name] = v
		}
		return Value{Type: t, Fields: fields}, nil

	case soroban.KindEnum:
		trimmed := strings.TrimSpace(raw)
		// Unit variant may be passed as a bare JSON string.
		var variantName string
		if err := json.Unmarshal([]byte(trimmed), &variantName); err == nil {
			for _, v := range t.Variants {
				if v.Name == variantName {
					return Value{Type: t, Variant: variantName}, nil
				}
			}
			return Value{}, regerr.WithField(regerr.KindParseError,
				fmt.Sprintf("enum %s has no variant %q", t.Name, variantName), field)
		}
		var obj struct {
			Variant string           `json:"variant"`
			Payload *json.RawMessage `json:"payload"`
		}
		if err := json.Unmarshal([]byte(trimmed), &obj); err != nil {
			return Value{}, regerr.WithField(regerr.KindParseError,
				fmt.Sprintf("invalid enum JSON: %v", err), field)
		}
		for _, v := range t.Variants {
			if v.Name != obj.Variant {
				continue
			}
			if v.Payload == nil {
				return Value{Type: t, Variant: v.Name}, nil
			}
			if obj.Payload == nil {
				return Value{}, regerr.WithField(regerr.KindParseError,
					fmt.Sprintf("enum variant %q requires a payload", v.Name), field)
			}
			payload, err := parseValue(*v.Payload, string(*obj.Payload), field+".payload", types)
			if err != nil {
				return Value{}, err
			}
			return Value{Type: t, Variant: v.Name, Payload: &payload}, nil
		}
		return Value{}, regerr.WithField(regerr.KindParseError,
			fmt.Sprintf("enum %s has no variant %q", t.Name, obj.Variant), field)

	case soroban.KindCustom:
		resolved, ok := types[t.Name]
		if !ok {
			return Value{}, regerr.WithField(regerr.KindParseError,
				fmt.Sprintf("unresolved custom type %q", t.Name), field)
		}
		return parseValue(resolved, raw, field, types)

	default:
		return Value{}, regerr.WithField(regerr.KindParseError,
			fmt.Sprintf("%s is not a composite type", t.Kind), field)
	}
}

// quoteIfNeeded wraps a raw JSON object key in quotes when the target key
// type is a string-like kind, since JSON object keys are always bare strings.
func quoteIfNeeded(t soroban.Type, key string) string {
	switch t.Kind {
	case soroban.KindString, soroban.KindSymbol, soroban.KindAddress:
		b, _ := json.Marshal(key)
		return string(b)
	default:
		return key
	}
}

// parseValue dispatches to the primitive or composite parser for t.
func parseValue(t soroban.Type, raw, field string, types map[string]soroban.Type) (Value, *regerr.Error) {
	switch t.Kind {
	case soroban.KindOption, soroban.KindVec, soroban.KindMap, soroban.KindTuple,
		soroban.KindResult, soroban.KindStruct, soroban.KindEnum, soroban.KindCustom:
		return decodeComposite(t, raw, field, types)
	default:
		return parsePrimitive(t, unquoteJSONString(raw), field)
	}
}

// unquoteJSONString strips surrounding JSON double-quotes from raw when
// present, so a primitive param can be supplied either bare ("42") or as a
// JSON string ("\"42\"") inside a composite's nested fields.
func unquoteJSONString(raw string) string {
	var s string
	if err := json.Unmarshal([]byte(raw), &s); err == nil {
		return s
	}
	return strings.TrimSpace(raw)
}
