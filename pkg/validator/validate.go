package validator

import (
	"fmt"
	"math/big"

	"github.com/contractforge/registry/pkg/regerr"
	"github.com/contractforge/registry/pkg/soroban"
)

// overflowThresholdNum/Den express the 90%-of-magnitude PotentialOverflow
// trigger from spec §4.1 as an exact rational comparison, avoiding floating
// point on values that may be up to 256 bits wide.
const (
	overflowThresholdNum = 9
	overflowThresholdDen = 10
)

// Validate runs the full call-validation procedure of spec §4.1 against abi
// for the named function and raw argument strings. strict selects whether
// non-exact type matches and range warnings are promoted to hard errors.
func Validate(abi *soroban.ABI, method string, rawArgs []string, strict bool) CallValidationResult {
	var (
		errs     regerr.List
		warnings []Warning
	)

	fn, ok := abi.FunctionByName(method)
	if !ok {
		errs = append(errs, regerr.WithField(regerr.KindFunctionNotFound,
			fmt.Sprintf("no function named %q", method), "method"))
		return CallValidationResult{Errors: errs}
	}

	if !fn.Public {
		errs = append(errs, regerr.WithField(regerr.KindFunctionNotPublic,
			fmt.Sprintf("function %q is not public", method), "method"))
	}

	if len(rawArgs) != len(fn.Params) {
		errs = append(errs, regerr.Mismatch(regerr.KindParamCountMismatch,
			fmt.Sprintf("function %q expects %d params, got %d", method, len(fn.Params), len(rawArgs)),
			"args", fmt.Sprintf("%d", len(fn.Params)), fmt.Sprintf("%d", len(rawArgs))))
		return CallValidationResult{Errors: errs}
	}

	args := make([]Value, len(fn.Params))
	for i, p := range fn.Params {
		field := p.Name
		v, err := parseValue(p.Type, rawArgs[i], field, abi.Types)
		if err != nil {
			errs = append(errs, err)
			continue
		}

		if cmpErr, warn := checkCompatible(p.Type, v, field, strict); cmpErr != nil {
			errs = append(errs, cmpErr)
		} else if warn != nil {
			warnings = append(warnings, *warn)
		}

		if soroban.IsInteger(p.Type.Kind) {
			rangeErr, warn := checkRange(p.Type, v, field, strict)
			if rangeErr != nil {
				errs = append(errs, rangeErr)
			} else if warn != nil {
				warnings = append(warnings, *warn)
			}
		}

		args[i] = v
	}

	if fn.Mutates {
		warnings = append(warnings, Warning{
			Kind:    WarningMutableCall,
			Message: fmt.Sprintf("function %q mutates contract state", method),
			Field:   "method",
		})
	}

	if strict {
		var promoted regerr.List
		for _, w := range warnings {
			promoted = append(promoted, regerr.WithField(warningErrorKind(w.Kind), w.Message, w.Field))
		}
		errs = append(errs, promoted...)
		warnings = nil
	}

	if errs.HasErrors() {
		return CallValidationResult{Warnings: warnings, Errors: errs}
	}

	return CallValidationResult{
		Call: &ParsedCall{
			Function: fn.Name,
			Args:     args,
			Return:   fn.Return,
		},
		Warnings: warnings,
	}
}

func warningErrorKind(k WarningKind) regerr.Kind {
	switch k {
	case WarningImplicitConversion:
		return regerr.KindTypeMismatch
	case WarningPotentialOverflow:
		return regerr.KindValueOutOfRange
	default:
		return regerr.KindInvalidRequest
	}
}

// checkCompatible implements spec §4.1 step 4: the parsed value's natural
// type against the declared type. Integer/integer pairs are left entirely to
// checkRange (see DESIGN.md) — this only fires for non-integer declared
// types, since every integer literal parses directly into the declared
// integer Kind and therefore never disagrees with it here.
func checkCompatible(declared soroban.Type, v Value, field string, strict bool) (*regerr.Error, *Warning) {
	actual := v.Type
	if soroban.Equal(declared, actual) {
		return nil, nil
	}
	if soroban.IsInteger(declared.Kind) {
		// Width/signedness mismatches are range concerns, not structural ones.
		return nil, nil
	}

	if !soroban.Compatible(declared, actual) {
		return regerr.Mismatch(regerr.KindTypeMismatch,
			fmt.Sprintf("declared type %s is not compatible with parsed type %s", declared, actual),
			field, declared.String(), actual.String()), nil
	}

	if soroban.ImplicitConvertible(declared, actual) {
		if strict {
			return regerr.Mismatch(regerr.KindTypeMismatch,
				fmt.Sprintf("strict mode: %s does not exactly match %s", declared, actual),
				field, declared.String(), actual.String()), nil
		}
		return nil, &Warning{
			Kind:    WarningImplicitConversion,
			Message: fmt.Sprintf("%s implicitly converted from %s", declared, actual),
			Field:   field,
		}
	}
	return nil, nil
}

// checkRange implements spec §4.1 step 5 for integer-kind params: overflow of
// the declared width is ValueOutOfRange (strict) or a PotentialOverflow
// warning (lenient); a value within 10% of the declared type's magnitude
// always emits PotentialOverflow regardless of mode.
func checkRange(declared soroban.Type, v Value, field string, strict bool) (*regerr.Error, *Warning) {
	bounds, ok := integerBounds[declared.Kind]
	if !ok || v.Int == nil {
		return nil, nil
	}
	min, max := bounds[0], bounds[1]

	if v.Int.Cmp(min) < 0 || v.Int.Cmp(max) > 0 {
		if strict {
			return regerr.Mismatch(regerr.KindValueOutOfRange,
				fmt.Sprintf("value %s out of range for %s", v.Int, declared.Kind),
				field, fmt.Sprintf("[%s,%s]", min, max), v.Int.String()), nil
		}
		return nil, &Warning{
			Kind:    WarningPotentialOverflow,
			Message: fmt.Sprintf("value %s exceeds the range of %s", v.Int, declared.Kind),
			Field:   field,
		}
	}

	if nearMagnitudeLimit(v.Int, max) {
		return nil, &Warning{
			Kind:    WarningPotentialOverflow,
			Message: fmt.Sprintf("value %s exceeds 90%% of %s's magnitude", v.Int, declared.Kind),
			Field:   field,
		}
	}
	return nil, nil
}

// nearMagnitudeLimit reports whether |n| exceeds 90% of max, computed as an
// exact integer comparison: |n|*10 > max*9.
func nearMagnitudeLimit(n, max *big.Int) bool {
	abs := new(big.Int).Abs(n)
	lhs := new(big.Int).Mul(abs, big.NewInt(overflowThresholdDen))
	rhs := new(big.Int).Mul(max, big.NewInt(overflowThresholdNum))
	return lhs.Cmp(rhs) > 0
}
