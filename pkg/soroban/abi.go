package soroban

import (
	"fmt"

	"github.com/contractforge/registry/pkg/regerr"
)

// Param is a single named, typed function parameter.
type Param struct {
	Name string `json:"name"`
	Type Type   `json:"type"`
}

// Function is one callable entry point in a contract's ABI.
type Function struct {
	Name    string  `json:"name"`
	Params  []Param `json:"params"`
	Return  Type    `json:"return"`
	Public  bool    `json:"public"`
	Mutates bool    `json:"mutates"`
}

// ErrorVariant is one entry of a contract's error enum.
type ErrorVariant struct {
	Name string `json:"name"`
	Code int32  `json:"code"`
}

// ABI is the canonical, immutable snapshot of a contract's public interface:
// its functions, its named type table (structs/enums), and its error enum.
// An ABI is built once per (contract, version) and never mutated afterward.
type ABI struct {
	ContractID string            `json:"contract_id"`
	Name       string            `json:"name"`
	Version    string            `json:"version,omitempty"`
	Functions  []Function        `json:"functions"`
	Types      map[string]Type   `json:"types"`
	Errors     []ErrorVariant    `json:"errors"`
}

// New validates and builds an ABI: function names must be unique, and every
// custom{name} type reference reachable from a function signature or from
// the named type table must resolve to an entry in Types.
func New(contractID, name, version string, functions []Function, types map[string]Type, errs []ErrorVariant) (*ABI, error) {
	abi := &ABI{
		ContractID: contractID,
		Name:       name,
		Version:    version,
		Functions:  functions,
		Types:      types,
		Errors:     errs,
	}

	seen := make(map[string]bool, len(functions))
	for _, fn := range functions {
		if seen[fn.Name] {
			return nil, regerr.WithField(regerr.KindInvalidRequest,
				fmt.Sprintf("duplicate function name %q", fn.Name), "functions")
		}
		seen[fn.Name] = true
	}

	if err := abi.validateTypeReferences(); err != nil {
		return nil, err
	}
	return abi, nil
}

// FunctionByName looks up a function by exact name.
func (a *ABI) FunctionByName(name string) (Function, bool) {
	for _, fn := range a.Functions {
		if fn.Name == name {
			return fn, true
		}
	}
	return Function{}, false
}

// validateTypeReferences walks every type reachable from the ABI and
// confirms that custom{name} resolves against the Types table.
func (a *ABI) validateTypeReferences() error {
	var walk func(t Type) error
	walk = func(t Type) error {
		switch t.Kind {
		case KindCustom:
			if _, ok := a.Types[t.Name]; !ok {
				return regerr.WithField(regerr.KindInvalidRequest,
					fmt.Sprintf("unresolved type reference %q", t.Name), "types")
			}
		case KindOption, KindVec:
			return walk(*t.Elem)
		case KindMap:
			if err := walk(*t.Key); err != nil {
				return err
			}
			return walk(*t.Value)
		case KindTuple:
			for _, e := range t.Elems {
				if err := walk(e); err != nil {
					return err
				}
			}
		case KindResult:
			if err := walk(*t.Ok); err != nil {
				return err
			}
			return walk(*t.Err)
		case KindStruct:
			for _, f := range t.Fields {
				if err := walk(f.Type); err != nil {
					return err
				}
			}
		case KindEnum:
			for _, v := range t.Variants {
				if v.Payload != nil {
					if err := walk(*v.Payload); err != nil {
						return err
					}
				}
			}
		}
		return nil
	}

	for _, fn := range a.Functions {
		for _, p := range fn.Params {
			if err := walk(p.Type); err != nil {
				return err
			}
		}
		if err := walk(fn.Return); err != nil {
			return err
		}
	}
	for _, t := range a.Types {
		if err := walk(t); err != nil {
			return err
		}
	}
	return nil
}
