package validator

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"regexp"
	"strconv"
	"strings"

	"github.com/contractforge/registry/pkg/regerr"
	"github.com/contractforge/registry/pkg/soroban"
)

var symbolPattern = regexp.MustCompile(`^[A-Za-z0-9_]{1,32}$`)

// integerBounds holds the [min, max] (inclusive) representable range of each
// integer Kind, computed once at init.
var integerBounds = buildIntegerBounds()

func buildIntegerBounds() map[soroban.Kind][2]*big.Int {
	bounds := make(map[soroban.Kind][2]*big.Int, 8)
	for kind, width := range map[soroban.Kind]int{
		soroban.KindI32: 32, soroban.KindI64: 64, soroban.KindI128: 128, soroban.KindI256: 256,
	} {
		max := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), uint(width-1)), big.NewInt(1))
		min := new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), uint(width-1)))
		bounds[kind] = [2]*big.Int{min, max}
	}
	for kind, width := range map[soroban.Kind]int{
		soroban.KindU32: 32, soroban.KindU64: 64, soroban.KindU128: 128, soroban.KindU256: 256,
	} {
		max := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), uint(width)), big.NewInt(1))
		bounds[kind] = [2]*big.Int{big.NewInt(0), max}
	}
	return bounds
}

// parsePrimitive parses a raw string into a Value for a leaf (non-composite)
// SorobanType per spec §4.1's argument-parsing constraints. Composite types
// (option/vec/map/tuple/result/struct/enum) are handled by decode.go.
func parsePrimitive(t soroban.Type, raw, field string) (Value, *regerr.Error) {
	switch t.Kind {
	case soroban.KindBool:
		switch strings.ToLower(strings.TrimSpace(raw)) {
		case "true", "1":
			return Value{Type: t, Bool: true}, nil
		case "false", "0":
			return Value{Type: t, Bool: false}, nil
		default:
			return Value{}, regerr.WithField(regerr.KindParseError,
				fmt.Sprintf("invalid bool %q", raw), field)
		}

	case soroban.KindI32, soroban.KindI64, soroban.KindI128, soroban.KindI256,
		soroban.KindU32, soroban.KindU64, soroban.KindU128, soroban.KindU256:
		n, ok := new(big.Int).SetString(strings.TrimSpace(raw), 10)
		if !ok {
			return Value{}, regerr.WithField(regerr.KindParseError,
				fmt.Sprintf("invalid integer %q", raw), field)
		}
		return Value{Type: t, Int: n}, nil

	case soroban.KindSymbol:
		if !symbolPattern.MatchString(raw) {
			return Value{}, regerr.WithField(regerr.KindInvalidSymbol,
				fmt.Sprintf("invalid symbol %q: max 32 chars of [A-Za-z0-9_]", raw), field)
		}
		return Value{Type: t, Str: raw}, nil

	case soroban.KindString:
		return Value{Type: t, Str: raw}, nil

	case soroban.KindBytes:
		b, err := parseHex(raw)
		if err != nil {
			return Value{}, regerr.WithField(regerr.KindParseError, err.Error(), field)
		}
		return Value{Type: t, Bytes: b}, nil

	case soroban.KindBytesN:
		b, err := parseHex(raw)
		if err != nil {
			return Value{}, regerr.WithField(regerr.KindParseError, err.Error(), field)
		}
		if len(b) != t.N {
			return Value{}, regerr.Mismatch(regerr.KindParseError,
				fmt.Sprintf("bytes%d expects %d bytes, got %d", t.N, t.N, len(b)),
				field, strconv.Itoa(t.N), strconv.Itoa(len(b)))
		}
		return Value{Type: t, Bytes: b}, nil

	case soroban.KindAddress:
		if len(raw) != 56 || (raw[0] != 'G' && raw[0] != 'C') {
			return Value{}, regerr.WithField(regerr.KindInvalidAddress,
				fmt.Sprintf("invalid address %q: expected 56 chars starting with G or C", raw), field)
		}
		return Value{Type: t, Str: raw}, nil

	case soroban.KindTimepoint, soroban.KindDuration:
		n, ok := new(big.Int).SetString(strings.TrimSpace(raw), 10)
		if !ok {
			return Value{}, regerr.WithField(regerr.KindParseError,
				fmt.Sprintf("invalid %s %q", t.Kind, raw), field)
		}
		return Value{Type: t, Int: n}, nil

	case soroban.KindVoid:
		return Value{Type: t}, nil

	default:
		return Value{}, regerr.WithField(regerr.KindParseError,
			fmt.Sprintf("%s is not a primitive type", t.Kind), field)
	}
}

func parseHex(raw string) ([]byte, error) {
	raw = strings.TrimPrefix(strings.TrimPrefix(raw, "0x"), "0X")
	b, err := hex.DecodeString(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid hex %q: %w", raw, err)
	}
	return b, nil
}
