package soroban

import "testing"

func sampleABI(t *testing.T, version string) *ABI {
	t.Helper()
	types := map[string]Type{
		"Balance": Struct("Balance", Field{Name: "amount", Type: I128()}, Field{Name: "owner", Type: Address()}),
	}
	fns := []Function{
		{
			Name:    "transfer",
			Params:  []Param{{Name: "to", Type: Address()}, {Name: "amount", Type: I128()}},
			Return:  Result(Void(), Custom("Error")),
			Public:  true,
			Mutates: true,
		},
		{
			Name:   "balance_of",
			Params: []Param{{Name: "account", Type: Address()}},
			Return: Custom("Balance"),
			Public: true,
		},
	}
	errs := []ErrorVariant{{Name: "InsufficientBalance", Code: 1}}
	types["Error"] = Enum("Error", Variant{Name: "InsufficientBalance"})

	abi, err := New("C123", "token", version, fns, types, errs)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return abi
}

func TestNew_DuplicateFunctionName(t *testing.T) {
	fns := []Function{
		{Name: "foo", Return: Void(), Public: true},
		{Name: "foo", Return: Void(), Public: true},
	}
	if _, err := New("C1", "dup", "1.0.0", fns, nil, nil); err == nil {
		t.Fatal("expected error for duplicate function name")
	}
}

func TestNew_UnresolvedTypeReference(t *testing.T) {
	fns := []Function{
		{Name: "foo", Params: []Param{{Name: "x", Type: Custom("Missing")}}, Return: Void(), Public: true},
	}
	if _, err := New("C1", "missing", "1.0.0", fns, map[string]Type{}, nil); err == nil {
		t.Fatal("expected error for unresolved custom type reference")
	}
}

func TestFunctionByName(t *testing.T) {
	abi := sampleABI(t, "1.0.0")
	fn, ok := abi.FunctionByName("transfer")
	if !ok {
		t.Fatal("expected to find transfer")
	}
	if len(fn.Params) != 2 {
		t.Fatalf("expected 2 params, got %d", len(fn.Params))
	}
	if _, ok := abi.FunctionByName("nope"); ok {
		t.Fatal("expected not to find nope")
	}
}

func TestEqual(t *testing.T) {
	cases := []struct {
		name string
		a, b Type
		want bool
	}{
		{"same primitive", I64(), I64(), true},
		{"different primitive", I64(), U64(), false},
		{"same bytesN width", BytesN(32), BytesN(32), true},
		{"different bytesN width", BytesN(32), BytesN(16), false},
		{"nested vec equal", Vec(I64()), Vec(I64()), true},
		{"nested vec unequal", Vec(I64()), Vec(U64()), false},
		{"custom by name", Custom("Foo"), Custom("Foo"), true},
		{"custom different name", Custom("Foo"), Custom("Bar"), false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := Equal(c.a, c.b); got != c.want {
				t.Errorf("Equal(%s, %s) = %v, want %v", c.a, c.b, got, c.want)
			}
		})
	}
}

func TestCompatible(t *testing.T) {
	if !Compatible(U64(), U32()) {
		t.Error("expected u64 declared compatible with u32 actual (widening)")
	}
	if Compatible(U64(), I64()) {
		t.Error("expected u64/i64 to be incompatible (signedness differs)")
	}
	if !Compatible(Str(), Symbol()) {
		t.Error("expected string/symbol to be compatible")
	}
	if !Compatible(Option(I64()), Option(I32())) {
		t.Error("expected option<i64>/option<i32> compatible")
	}
}

func TestImplicitConvertible(t *testing.T) {
	if ImplicitConvertible(I64(), I64()) {
		t.Error("exact equality must not count as implicit conversion")
	}
	if !ImplicitConvertible(I128(), I64()) {
		t.Error("expected i128 declared / i64 actual to be an implicit widening conversion")
	}
	if !ImplicitConvertible(Symbol(), Str()) {
		t.Error("expected symbol/string pair to be implicitly convertible")
	}
}

func TestDiff_BreakingParamTypeChanged(t *testing.T) {
	oldABI := sampleABI(t, "1.0.0")
	newFns := []Function{
		{
			Name:    "transfer",
			Params:  []Param{{Name: "to", Type: Address()}, {Name: "amount", Type: I64()}},
			Return:  Result(Void(), Custom("Error")),
			Public:  true,
			Mutates: true,
		},
		{
			Name:   "balance_of",
			Params: []Param{{Name: "account", Type: Address()}},
			Return: Custom("Balance"),
			Public: true,
		},
	}
	newABI, err := New("C123", "token", "1.1.0", newFns, oldABI.Types, oldABI.Errors)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	changes := Diff(oldABI, newABI)
	if !HasBreaking(changes) {
		t.Fatal("expected a breaking change for param type change")
	}
}

func TestDiff_NonBreakingFunctionAdded(t *testing.T) {
	oldABI := sampleABI(t, "1.0.0")
	newFns := append(append([]Function{}, oldABI.Functions...), Function{
		Name: "total_supply", Return: I128(), Public: true,
	})
	newABI, err := New("C123", "token", "1.1.0", newFns, oldABI.Types, oldABI.Errors)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	changes := Diff(oldABI, newABI)
	if HasBreaking(changes) {
		t.Fatal("adding a function must not be breaking")
	}
	found := false
	for _, c := range changes {
		if c.Kind == "function_added" {
			found = true
		}
	}
	if !found {
		t.Fatal("expected a function_added change")
	}
}

func TestCheckPublishGuard(t *testing.T) {
	breaking := []Change{{Kind: "function_removed", Severity: SeverityBreaking}}
	if err := CheckPublishGuard("1.2.0", "1.3.0", breaking); err == nil {
		t.Fatal("expected BreakingChangeWithoutMajorBump error")
	}
	if err := CheckPublishGuard("1.2.0", "2.0.0", breaking); err != nil {
		t.Fatalf("expected major bump to satisfy guard, got %v", err)
	}

	nonBreaking := []Change{{Kind: "function_added", Severity: SeverityNonBreaking}}
	if err := CheckPublishGuard("1.2.0", "1.3.0", nonBreaking); err != nil {
		t.Fatalf("non-breaking changes must not require a major bump, got %v", err)
	}
}

func TestToOpenAPI(t *testing.T) {
	abi := sampleABI(t, "1.0.0")
	doc := abi.ToOpenAPI()

	if _, ok := doc.Paths["/invoke/transfer"]; !ok {
		t.Fatal("expected a path for public function transfer")
	}
	if _, ok := doc.Components.Schemas["Balance"]; !ok {
		t.Fatal("expected a component schema for Balance")
	}
	op := doc.Paths["/invoke/transfer"].Post
	if op == nil {
		t.Fatal("expected a POST operation")
	}
	if len(op.RequestBody.Content["application/json"].Schema.Required) != 2 {
		t.Fatalf("expected 2 required params in request body schema")
	}
}
