package validator

import (
	"testing"

	"github.com/contractforge/registry/pkg/soroban"
)

func testABI(t *testing.T) *soroban.ABI {
	t.Helper()
	types := map[string]soroban.Type{
		"Balance": soroban.Struct("Balance",
			soroban.Field{Name: "amount", Type: soroban.I128()},
			soroban.Field{Name: "owner", Type: soroban.Address()}),
	}
	fns := []soroban.Function{
		{
			Name:    "transfer",
			Params:  []soroban.Param{{Name: "to", Type: soroban.Address()}, {Name: "amount", Type: soroban.U128()}},
			Return:  soroban.Void(),
			Public:  true,
			Mutates: true,
		},
		{
			Name:   "get_balance",
			Params: []soroban.Param{{Name: "account", Type: soroban.Address()}},
			Return: soroban.Custom("Balance"),
			Public: true,
		},
		{
			Name:   "internal_only",
			Params: nil,
			Return: soroban.Void(),
			Public: false,
		},
	}
	abi, err := soroban.New("C123", "token", "1.0.0", fns, types, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return abi
}

const testAddr = "GABCDEFGHIJKLMNOPQRSTUVWXYZ234567ABCDEFGHIJKLMNOPQRSTUVW"

func TestValidate_Success(t *testing.T) {
	abi := testABI(t)
	result := Validate(abi, "transfer", []string{testAddr, "1000"}, false)
	if result.Errors.HasErrors() {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if result.Call == nil {
		t.Fatal("expected a parsed call")
	}
	foundMutable := false
	for _, w := range result.Warnings {
		if w.Kind == WarningMutableCall {
			foundMutable = true
		}
	}
	if !foundMutable {
		t.Fatal("expected a MutableCall warning for a mutating function")
	}
}

func TestValidate_FunctionNotFound(t *testing.T) {
	abi := testABI(t)
	result := Validate(abi, "nonexistent", nil, false)
	if !result.Errors.HasErrors() || result.Errors[0].Kind != "FUNCTION_NOT_FOUND" {
		t.Fatalf("expected FUNCTION_NOT_FOUND, got %v", result.Errors)
	}
}

func TestValidate_FunctionNotPublic(t *testing.T) {
	abi := testABI(t)
	result := Validate(abi, "internal_only", nil, false)
	found := false
	for _, e := range result.Errors {
		if e.Kind == "FUNCTION_NOT_PUBLIC" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected FUNCTION_NOT_PUBLIC, got %v", result.Errors)
	}
}

func TestValidate_ParamCountMismatch(t *testing.T) {
	abi := testABI(t)
	result := Validate(abi, "transfer", []string{testAddr}, false)
	if !result.Errors.HasErrors() || result.Errors[0].Kind != "PARAM_COUNT_MISMATCH" {
		t.Fatalf("expected PARAM_COUNT_MISMATCH, got %v", result.Errors)
	}
}

func TestValidate_ValueOutOfRange_Strict(t *testing.T) {
	abi := testABI(t)
	huge := "999999999999999999999999999999999999999999999999999999999999999999999999999999999999999"
	result := Validate(abi, "transfer", []string{testAddr, huge}, true)
	found := false
	for _, e := range result.Errors {
		if e.Kind == "VALUE_OUT_OF_RANGE" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected VALUE_OUT_OF_RANGE in strict mode, got %v", result.Errors)
	}
}

func TestValidate_PotentialOverflow_Lenient(t *testing.T) {
	abi := testABI(t)
	huge := "999999999999999999999999999999999999999999999999999999999999999999999999999999999999999"
	result := Validate(abi, "transfer", []string{testAddr, huge}, false)
	if result.Errors.HasErrors() {
		t.Fatalf("lenient mode must not fail on overflow, got %v", result.Errors)
	}
	found := false
	for _, w := range result.Warnings {
		if w.Kind == WarningPotentialOverflow {
			found = true
		}
	}
	if !found {
		t.Fatal("expected a PotentialOverflow warning in lenient mode")
	}
}

func TestValidate_InvalidAddress(t *testing.T) {
	abi := testABI(t)
	result := Validate(abi, "transfer", []string{"not-an-address", "1"}, false)
	found := false
	for _, e := range result.Errors {
		if e.Kind == "INVALID_ADDRESS" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected INVALID_ADDRESS, got %v", result.Errors)
	}
}

func TestValidate_CustomReturnType(t *testing.T) {
	abi := testABI(t)
	result := Validate(abi, "get_balance", []string{testAddr}, false)
	if result.Errors.HasErrors() {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if result.Call.Return.Kind != soroban.KindCustom {
		t.Fatalf("expected custom return type, got %s", result.Call.Return.Kind)
	}
}
