package soroban

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/contractforge/registry/pkg/regerr"
)

// Severity classifies a single ABI change.
type Severity string

const (
	SeverityBreaking    Severity = "breaking"
	SeverityNonBreaking Severity = "non_breaking"
)

// Change is one detected difference between two ABI snapshots.
type Change struct {
	Kind     string   `json:"kind"`
	Severity Severity `json:"severity"`
	Detail   string   `json:"detail"`
}

// Diff computes every detected change between an old and new ABI snapshot,
// per the rules in spec §4.1.
func Diff(oldABI, newABI *ABI) []Change {
	var changes []Change

	oldFns := indexFunctions(oldABI.Functions)
	newFns := indexFunctions(newABI.Functions)

	for name, oldFn := range oldFns {
		newFn, ok := newFns[name]
		if !ok {
			changes = append(changes, Change{
				Kind: "function_removed", Severity: SeverityBreaking,
				Detail: fmt.Sprintf("function %q removed", name),
			})
			continue
		}
		changes = append(changes, diffFunction(name, oldFn, newFn)...)
	}
	for name := range newFns {
		if _, ok := oldFns[name]; !ok {
			changes = append(changes, Change{
				Kind: "function_added", Severity: SeverityNonBreaking,
				Detail: fmt.Sprintf("function %q added", name),
			})
		}
	}

	changes = append(changes, diffTypes(oldABI.Types, newABI.Types)...)

	return changes
}

func indexFunctions(fns []Function) map[string]Function {
	m := make(map[string]Function, len(fns))
	for _, fn := range fns {
		m[fn.Name] = fn
	}
	return m
}

func diffFunction(name string, oldFn, newFn Function) []Change {
	var changes []Change

	if len(oldFn.Params) != len(newFn.Params) {
		changes = append(changes, Change{
			Kind: "param_count_changed", Severity: SeverityBreaking,
			Detail: fmt.Sprintf("function %q: param count %d -> %d", name, len(oldFn.Params), len(newFn.Params)),
		})
	} else {
		for i := range oldFn.Params {
			if !Equal(oldFn.Params[i].Type, newFn.Params[i].Type) {
				changes = append(changes, Change{
					Kind: "param_type_changed", Severity: SeverityBreaking,
					Detail: fmt.Sprintf("function %q: param %q type %s -> %s",
						name, oldFn.Params[i].Name, oldFn.Params[i].Type, newFn.Params[i].Type),
				})
			} else if oldFn.Params[i].Name != newFn.Params[i].Name {
				changes = append(changes, Change{
					Kind: "param_name_changed", Severity: SeverityNonBreaking,
					Detail: fmt.Sprintf("function %q: param name %q -> %q",
						name, oldFn.Params[i].Name, newFn.Params[i].Name),
				})
			}
		}
	}

	if !Equal(oldFn.Return, newFn.Return) {
		changes = append(changes, Change{
			Kind: "return_type_changed", Severity: SeverityBreaking,
			Detail: fmt.Sprintf("function %q: return type %s -> %s", name, oldFn.Return, newFn.Return),
		})
	}

	return changes
}

func diffTypes(oldTypes, newTypes map[string]Type) []Change {
	var changes []Change

	for name, oldT := range oldTypes {
		newT, ok := newTypes[name]
		if !ok {
			changes = append(changes, Change{
				Kind: "type_removed", Severity: SeverityBreaking,
				Detail: fmt.Sprintf("type %q removed", name),
			})
			continue
		}
		changes = append(changes, diffNamedType(name, oldT, newT)...)
	}
	for name := range newTypes {
		if _, ok := oldTypes[name]; !ok {
			changes = append(changes, Change{
				Kind: "type_added", Severity: SeverityNonBreaking,
				Detail: fmt.Sprintf("type %q added", name),
			})
		}
	}
	return changes
}

func diffNamedType(name string, oldT, newT Type) []Change {
	var changes []Change

	if oldT.Kind != newT.Kind {
		changes = append(changes, Change{
			Kind: "type_kind_changed", Severity: SeverityBreaking,
			Detail: fmt.Sprintf("type %q kind %s -> %s", name, oldT.Kind, newT.Kind),
		})
		return changes
	}

	switch oldT.Kind {
	case KindStruct:
		oldFields := indexFields(oldT.Fields)
		newFields := indexFields(newT.Fields)
		for fname, oldF := range oldFields {
			newF, ok := newFields[fname]
			if !ok {
				changes = append(changes, Change{
					Kind: "type_field_removed", Severity: SeverityBreaking,
					Detail: fmt.Sprintf("type %q: field %q removed", name, fname),
				})
				continue
			}
			if !Equal(oldF, newF) {
				changes = append(changes, Change{
					Kind: "type_field_type_changed", Severity: SeverityBreaking,
					Detail: fmt.Sprintf("type %q: field %q type %s -> %s", name, fname, oldF, newF),
				})
			}
		}
		for fname := range newFields {
			if _, ok := oldFields[fname]; !ok {
				changes = append(changes, Change{
					Kind: "type_field_added", Severity: SeverityBreaking,
					Detail: fmt.Sprintf("type %q: field %q added", name, fname),
				})
			}
		}
	case KindEnum:
		oldVariants := indexVariants(oldT.Variants)
		newVariants := indexVariants(newT.Variants)
		for vname, oldV := range oldVariants {
			newV, ok := newVariants[vname]
			if !ok {
				changes = append(changes, Change{
					Kind: "enum_variant_removed", Severity: SeverityBreaking,
					Detail: fmt.Sprintf("type %q: variant %q removed", name, vname),
				})
				continue
			}
			if (oldV.Payload == nil) != (newV.Payload == nil) ||
				(oldV.Payload != nil && newV.Payload != nil && !Equal(*oldV.Payload, *newV.Payload)) {
				changes = append(changes, Change{
					Kind: "enum_variant_payload_changed", Severity: SeverityBreaking,
					Detail: fmt.Sprintf("type %q: variant %q payload changed", name, vname),
				})
			}
		}
		for vname := range newVariants {
			if _, ok := oldVariants[vname]; !ok {
				changes = append(changes, Change{
					Kind: "enum_variant_added", Severity: SeverityNonBreaking,
					Detail: fmt.Sprintf("type %q: variant %q added", name, vname),
				})
			}
		}
	}
	return changes
}

func indexFields(fields []Field) map[string]Type {
	m := make(map[string]Type, len(fields))
	for _, f := range fields {
		m[f.Name] = f.Type
	}
	return m
}

func indexVariants(variants []Variant) map[string]Variant {
	m := make(map[string]Variant, len(variants))
	for _, v := range variants {
		m[v.Name] = v
	}
	return m
}

// HasBreaking reports whether any change in the set is breaking.
func HasBreaking(changes []Change) bool {
	for _, c := range changes {
		if c.Severity == SeverityBreaking {
			return true
		}
	}
	return false
}

// semver is a minimal major.minor.patch parse — the registry only needs to
// compare major components for the publish guard.
type semver struct {
	major, minor, patch int
}

func parseSemver(s string) (semver, error) {
	parts := strings.SplitN(s, ".", 3)
	if len(parts) != 3 {
		return semver{}, fmt.Errorf("invalid semver %q: expected major.minor.patch", s)
	}
	major, err := strconv.Atoi(parts[0])
	if err != nil {
		return semver{}, fmt.Errorf("invalid semver major %q: %w", s, err)
	}
	minor, err := strconv.Atoi(parts[1])
	if err != nil {
		return semver{}, fmt.Errorf("invalid semver minor %q: %w", s, err)
	}
	patch, err := strconv.Atoi(parts[2])
	if err != nil {
		return semver{}, fmt.Errorf("invalid semver patch %q: %w", s, err)
	}
	return semver{major, minor, patch}, nil
}

// CheckPublishGuard enforces spec §4.1's BreakingChangeWithoutMajorBump rule:
// if any breaking change exists between priorVersion's ABI and the new ABI,
// newVersion must bump the major component relative to priorVersion.
func CheckPublishGuard(priorVersion, newVersion string, changes []Change) error {
	if !HasBreaking(changes) {
		return nil
	}

	prior, err := parseSemver(priorVersion)
	if err != nil {
		return regerr.WithField(regerr.KindInvalidRequest, err.Error(), "version")
	}
	next, err := parseSemver(newVersion)
	if err != nil {
		return regerr.WithField(regerr.KindInvalidRequest, err.Error(), "version")
	}

	if next.major <= prior.major {
		return regerr.Mismatch(regerr.KindBreakingChangeWithoutMajorBump,
			"ABI contains breaking changes but the new version does not bump the major component",
			"version", fmt.Sprintf("major > %d", prior.major), strconv.Itoa(next.major))
	}
	return nil
}
