package auditchecklist

// Catalog returns the static checklist catalog, a compile-time list of
// checks spanning every audit category (spec §4.6). The twelve items
// with DetectionAutomatic are wired to concrete detectors in detect.go;
// the rest are manual-only and remain Pending until an auditor sets them.
func Catalog() []Item {
	items := []Item{
		// --- input_validation ---
		{ID: "iv-001", Category: CategoryInputValidation, Title: "Parameter bounds checked", Severity: SeverityHigh, Detection: DetectionManual,
			Description: "All public entrypoint parameters are range- or length-checked before use.",
			Remediation: "Add explicit bound checks at the top of every public function.",
			References:  []string{"OWASP Smart Contract Top 10: Input Validation"}},
		{ID: "iv-002", Category: CategoryInputValidation, Title: "No unvalidated external address input", Severity: SeverityMedium, Detection: DetectionManual,
			Description: "Addresses supplied by callers are validated before being persisted or invoked.",
			Remediation: "Validate address format and, where applicable, existence before use."},
		{ID: "iv-003", Category: CategoryInputValidation, Title: "String/symbol length limits enforced", Severity: SeverityLow, Detection: DetectionManual,
			Description: "User-supplied strings and symbols are bounded to prevent storage bloat.",
			Remediation: "Reject inputs exceeding a documented maximum length."},
		{ID: "iv-004", Category: CategoryInputValidation, Title: "Enum/variant inputs exhaustively matched", Severity: SeverityMedium, Detection: DetectionManual,
			Description: "Match arms over user-controlled enums cover every variant or have an explicit default.",
			Remediation: "Add a catch-all arm that rejects unknown variants."},

		// --- access_control ---
		{ID: "ac-001", Category: CategoryAccessControl, Title: "Missing require_auth on privileged code", Severity: SeverityCritical, Detection: DetectionAutomatic,
			Description: "Administrative/ownership code paths invoke an authorization check.",
			Remediation: "Call require_auth (or equivalent) before executing privileged logic.",
			References:  []string{"Soroban Authorization Guide"}},
		{ID: "ac-002", Category: CategoryAccessControl, Title: "Role separation documented", Severity: SeverityLow, Detection: DetectionManual,
			Description: "Distinct roles (admin, operator, user) are documented and enforced separately.",
			Remediation: "Introduce a role table instead of a single admin address."},
		{ID: "ac-003", Category: CategoryAccessControl, Title: "Ownership transfer is two-step", Severity: SeverityMedium, Detection: DetectionManual,
			Description: "Ownership transfer requires the new owner to accept, preventing lockout on a bad address.",
			Remediation: "Implement propose/accept ownership transfer."},
		{ID: "ac-004", Category: CategoryAccessControl, Title: "Admin functions emit events", Severity: SeverityLow, Detection: DetectionManual,
			Description: "Privileged state changes emit an auditable event.",
			Remediation: "Publish an event alongside every admin mutation."},

		// --- numerical_safety ---
		{ID: "ns-001", Category: CategoryNumericalSafety, Title: "Unchecked arithmetic", Severity: SeverityHigh, Detection: DetectionAutomatic,
			Description: "Arithmetic operators are used without checked_* or saturating_* equivalents anywhere in the file.",
			Remediation: "Replace raw +, -, *, / with checked or saturating variants.",
			References:  []string{"Rust Integer Overflow"}},
		{ID: "ns-002", Category: CategoryNumericalSafety, Title: "Division without guard", Severity: SeverityMedium, Detection: DetectionAutomatic,
			Description: "Division has no nearby zero-guard (require!/!= 0/> 0 within five lines).",
			Remediation: "Guard every division with an explicit non-zero check."},
		{ID: "ns-003", Category: CategoryNumericalSafety, Title: "Truncating cast", Severity: SeverityMedium, Detection: DetectionAutomatic,
			Description: "A narrowing numeric cast (as i32/u32/i64/u64/i8/u8/usize) appears outside test code.",
			Remediation: "Use try_from/try_into and handle the conversion error."},
		{ID: "ns-004", Category: CategoryNumericalSafety, Title: "Rounding direction documented", Severity: SeverityLow, Detection: DetectionManual,
			Description: "Division/rounding in financial calculations documents which direction favors the protocol.",
			Remediation: "Add a comment and test asserting the rounding direction."},

		// --- state_management ---
		{ID: "sm-001", Category: CategoryStateManagement, Title: "CEI violation", Severity: SeverityCritical, Detection: DetectionAutomatic,
			Description: "An external call is followed by a state write in the same function (checks-effects-interactions violation).",
			Remediation: "Perform all state writes before any external call.",
			References:  []string{"Checks-Effects-Interactions Pattern"}},
		{ID: "sm-002", Category: CategoryStateManagement, Title: "Invariants re-checked post-mutation", Severity: SeverityMedium, Detection: DetectionManual,
			Description: "Critical invariants are re-validated after any state mutation that could violate them.",
			Remediation: "Add a post-condition assertion after complex mutations."},
		{ID: "sm-003", Category: CategoryStateManagement, Title: "No partial-write on error paths", Severity: SeverityHigh, Detection: DetectionManual,
			Description: "An early return on error never leaves storage partially updated.",
			Remediation: "Validate all preconditions before performing any write."},

		// --- reentrancy ---
		{ID: "re-001", Category: CategoryReentrancy, Title: "Reentrancy guard on external-call functions", Severity: SeverityCritical, Detection: DetectionManual,
			Description: "Functions that call out to other contracts guard against reentrant invocation.",
			Remediation: "Add a reentrancy lock flag checked at function entry."},
		{ID: "re-002", Category: CategoryReentrancy, Title: "Cross-contract calls isolated from shared mutable state", Severity: SeverityHigh, Detection: DetectionManual,
			Description: "Shared balances/state are not mutated between an external call and its completion.",
			Remediation: "Snapshot state before calling out, diff and reconcile after."},

		// --- auth ---
		{ID: "au-001", Category: CategoryAuth, Title: "Init guard", Severity: SeverityCritical, Detection: DetectionAutomatic,
			Description: "An initialize function exists with no corresponding AlreadyInitialized/is_initialized/DataKey::Initialized guard.",
			Remediation: "Check and set an initialization flag atomically in the init function.",
			References:  []string{"Soroban Initialization Patterns"}},
		{ID: "au-002", Category: CategoryAuth, Title: "Signature replay protection", Severity: SeverityHigh, Detection: DetectionManual,
			Description: "Off-chain signatures include a nonce or sequence number preventing replay.",
			Remediation: "Bind signed payloads to a monotonically increasing nonce."},
		{ID: "au-003", Category: CategoryAuth, Title: "Multi-sig threshold validated on policy creation", Severity: SeverityMedium, Detection: DetectionManual,
			Description: "Threshold is checked against signer count at policy creation time, not deferred to first use.",
			Remediation: "Reject policies where threshold exceeds the signer set."},

		// --- error_handling ---
		{ID: "eh-001", Category: CategoryErrorHandling, Title: "Unguarded unwrap/expect/panic", Severity: SeverityHigh, Detection: DetectionAutomatic,
			Description: "unwrap(), expect(), or panic! appears outside comments or test-annotated regions.",
			Remediation: "Propagate errors with ? and a typed error enum instead of panicking.",
			References:  []string{"Rust Error Handling Best Practices"}},
		{ID: "eh-002", Category: CategoryErrorHandling, Title: "Error types are descriptive", Severity: SeverityLow, Detection: DetectionManual,
			Description: "Contract errors use a dedicated enum with distinct, documented variants.",
			Remediation: "Replace generic error strings with a typed error enum."},
		{ID: "eh-003", Category: CategoryErrorHandling, Title: "External call failures handled", Severity: SeverityMedium, Detection: DetectionManual,
			Description: "Return values from cross-contract calls are checked rather than assumed to succeed.",
			Remediation: "Match on the call result and handle the error branch explicitly."},

		// --- token_safety ---
		{ID: "ts-001", Category: CategoryTokenSafety, Title: "Transfer without auth", Severity: SeverityCritical, Detection: DetectionAutomatic,
			Description: "A transfer call exists in the file with no auth call anywhere in it.",
			Remediation: "Require authorization from the token owner before transferring.",
			References:  []string{"Token Interface Security"}},
		{ID: "ts-002", Category: CategoryTokenSafety, Title: "Balance checks before debit", Severity: SeverityHigh, Detection: DetectionManual,
			Description: "Debits verify sufficient balance before subtracting.",
			Remediation: "Add an explicit balance >= amount check before every debit."},
		{ID: "ts-003", Category: CategoryTokenSafety, Title: "Approve/allowance pattern resistant to front-running", Severity: SeverityMedium, Detection: DetectionManual,
			Description: "Allowance changes go through increase/decrease rather than a raw set.",
			Remediation: "Expose increase_allowance/decrease_allowance instead of set_allowance."},

		// --- cross_contract ---
		{ID: "cc-001", Category: CategoryCrossContract, Title: "Callee address validated", Severity: SeverityHigh, Detection: DetectionManual,
			Description: "Addresses of contracts invoked cross-contract are validated or allow-listed.",
			Remediation: "Maintain an allow-list of trusted contract addresses for sensitive calls."},
		{ID: "cc-002", Category: CategoryCrossContract, Title: "Gas/instruction budget for sub-calls bounded", Severity: SeverityMedium, Detection: DetectionManual,
			Description: "Cross-contract calls cannot exhaust the caller's instruction budget unexpectedly.",
			Remediation: "Document and test the worst-case instruction cost of sub-calls."},

		// --- events ---
		{ID: "ev-001", Category: CategoryEvents, Title: "Events on transfers", Severity: SeverityMedium, Detection: DetectionAutomatic,
			Description: "Transfer/deposit/withdraw logic exists but no event publish call appears anywhere in the file.",
			Remediation: "Publish a structured event for every balance-affecting operation.",
			References:  []string{"Event Logging Conventions"}},
		{ID: "ev-002", Category: CategoryEvents, Title: "Events carry sufficient context", Severity: SeverityLow, Detection: DetectionManual,
			Description: "Emitted events include actor, amount, and resulting state where relevant.",
			Remediation: "Extend event payloads with the fields an indexer would need."},

		// --- storage ---
		{ID: "st-001", Category: CategoryStorage, Title: "Storage TTL missing", Severity: SeverityHigh, Detection: DetectionAutomatic,
			Description: "Persistent storage is used but no extend_ttl call appears anywhere in the file.",
			Remediation: "Call extend_ttl after writes to persistent storage entries.",
			References:  []string{"Soroban State Expiration"}},
		{ID: "st-002", Category: CategoryStorage, Title: "Storage keys namespaced", Severity: SeverityLow, Detection: DetectionManual,
			Description: "Storage keys are namespaced to avoid collisions between logical data sets.",
			Remediation: "Prefix storage keys with a data-kind discriminant."},
		{ID: "st-003", Category: CategoryStorage, Title: "Temporary vs persistent storage used correctly", Severity: SeverityMedium, Detection: DetectionManual,
			Description: "Ephemeral data uses temporary storage rather than persistent storage.",
			Remediation: "Move short-lived data to temporary storage to reduce rent cost."},

		// --- upgradeability ---
		{ID: "up-001", Category: CategoryUpgradeability, Title: "Upgrade path requires multisig approval", Severity: SeverityCritical, Detection: DetectionManual,
			Description: "Contract upgrades cannot be triggered by a single key.",
			Remediation: "Route upgrade execution through the multisig proposal state machine."},
		{ID: "up-002", Category: CategoryUpgradeability, Title: "Storage layout compatible across upgrades", Severity: SeverityHigh, Detection: DetectionManual,
			Description: "New contract versions do not reinterpret existing storage keys incompatibly.",
			Remediation: "Version storage keys or run a migration routine on upgrade."},

		// --- serialization ---
		{ID: "se-001", Category: CategorySerialization, Title: "Deserialization rejects unknown fields safely", Severity: SeverityMedium, Detection: DetectionManual,
			Description: "Unexpected fields in deserialized payloads do not silently corrupt state.",
			Remediation: "Use a strict deserializer or explicitly ignore-and-log unknown fields."},
		{ID: "se-002", Category: CategorySerialization, Title: "Versioned wire formats", Severity: SeverityLow, Detection: DetectionManual,
			Description: "Serialized payloads carry a version discriminant for forward compatibility.",
			Remediation: "Add a version byte/field to every persisted or transmitted structure."},

		// --- resource_limits ---
		{ID: "rl-001", Category: CategoryResourceLimits, Title: "Unbounded loops", Severity: SeverityHigh, Detection: DetectionAutomatic,
			Description: "An iteration construct has no MAX/bound marker within ten lines.",
			Remediation: "Cap loop iterations with a documented maximum and enforce it.",
			References:  []string{"Soroban Resource Limits"}},
		{ID: "rl-002", Category: CategoryResourceLimits, Title: "Vector/map growth bounded", Severity: SeverityMedium, Detection: DetectionManual,
			Description: "Collections that grow with user input have an enforced maximum size.",
			Remediation: "Reject inserts once a collection reaches its configured cap."},
		{ID: "rl-003", Category: CategoryResourceLimits, Title: "Direct numeric/index subscript", Severity: SeverityMedium, Detection: DetectionAutomatic,
			Description: "A fixed or variable index subscript ([0], [i], [n]) appears outside tests/comments without a bounds check.",
			Remediation: "Use .get(i) and handle the None/out-of-bounds case explicitly.",
			References:  []string{"Index Out-of-Bounds Panics"}},

		// --- input_validation ---
		{ID: "iv-005", Category: CategoryInputValidation, Title: "Amount parameters reject zero where meaningless", Severity: SeverityLow, Detection: DetectionManual,
			Description: "Transfer/mint/burn amounts reject a zero value when a zero-amount call has no valid effect.",
			Remediation: "Add an explicit amount > 0 check before the corresponding state change."},

		// --- access_control ---
		{ID: "ac-005", Category: CategoryAccessControl, Title: "Pausable emergency stop", Severity: SeverityMedium, Detection: DetectionManual,
			Description: "An authorized role can pause state-changing entrypoints during an incident.",
			Remediation: "Add a pause flag checked at the top of every mutating function."},

		// --- numerical_safety ---
		{ID: "ns-005", Category: CategoryNumericalSafety, Title: "Fixed-point precision loss bounded", Severity: SeverityMedium, Detection: DetectionManual,
			Description: "Multiplication before division ordering is used to minimize rounding error in fixed-point math.",
			Remediation: "Reorder arithmetic so multiplication precedes division, or adopt a wider intermediate type."},

		// --- state_management ---
		{ID: "sm-004", Category: CategoryStateManagement, Title: "State machine has no unreachable terminal deadlock", Severity: SeverityMedium, Detection: DetectionManual,
			Description: "Every non-terminal state has a documented path to a terminal state under normal operation.",
			Remediation: "Diagram the state machine and confirm every state can progress or terminate."},

		// --- reentrancy ---
		{ID: "re-003", Category: CategoryReentrancy, Title: "Callback/hook invocations documented", Severity: SeverityMedium, Detection: DetectionManual,
			Description: "Any contract-supplied callback or hook invoked mid-function is documented as a reentrancy boundary.",
			Remediation: "Annotate callback call sites and re-verify invariants immediately afterward."},

		// --- auth ---
		{ID: "au-004", Category: CategoryAuth, Title: "Session/authorization expiry enforced", Severity: SeverityMedium, Detection: DetectionManual,
			Description: "Time-bound authorizations (multisig proposals, delegated approvals) are rejected once expired.",
			Remediation: "Check the current ledger timestamp against the authorization's expiry before acting on it."},

		// --- error_handling ---
		{ID: "eh-004", Category: CategoryErrorHandling, Title: "Errors distinguishable by client code", Severity: SeverityLow, Detection: DetectionManual,
			Description: "Each error variant maps to a stable, distinct code a caller can branch on.",
			Remediation: "Avoid collapsing distinct failure causes into one generic error variant."},

		// --- token_safety ---
		{ID: "ts-004", Category: CategoryTokenSafety, Title: "Minting is access-controlled and capped", Severity: SeverityCritical, Detection: DetectionManual,
			Description: "Mint operations are restricted to an authorized role and bounded by a documented supply cap.",
			Remediation: "Require auth on mint and enforce a maximum total supply check."},

		// --- cross_contract ---
		{ID: "cc-003", Category: CategoryCrossContract, Title: "Cross-contract call return type validated", Severity: SeverityMedium, Detection: DetectionManual,
			Description: "Deserialized results from cross-contract calls are type-checked before use rather than trusted blindly.",
			Remediation: "Validate the shape of a callee's response before acting on its fields."},

		// --- events ---
		{ID: "ev-003", Category: CategoryEvents, Title: "Events are append-only and not replayed", Severity: SeverityLow, Detection: DetectionManual,
			Description: "Event emission happens exactly once per state-affecting operation, never retried on retry paths.",
			Remediation: "Emit events only after the corresponding state write has committed."},

		// --- storage ---
		{ID: "st-004", Category: CategoryStorage, Title: "Storage entry count bounded", Severity: SeverityMedium, Detection: DetectionManual,
			Description: "Per-user or per-contract storage entry growth has a documented and enforced ceiling.",
			Remediation: "Reject writes that would exceed the configured per-key or per-user entry limit."},

		// --- upgradeability ---
		{ID: "up-003", Category: CategoryUpgradeability, Title: "Upgrade events are logged", Severity: SeverityLow, Detection: DetectionManual,
			Description: "A successful upgrade emits an event recording the old and new WASM hash.",
			Remediation: "Publish an upgrade event alongside the code-hash swap."},

		// --- serialization ---
		{ID: "se-003", Category: CategorySerialization, Title: "Struct field order stable across versions", Severity: SeverityMedium, Detection: DetectionManual,
			Description: "Added fields are appended rather than inserted, preserving positional wire compatibility.",
			Remediation: "Append new fields at the end of the struct/tuple rather than reordering existing ones."},

		// --- resource_limits ---
		{ID: "rl-004", Category: CategoryResourceLimits, Title: "Batch operation size capped", Severity: SeverityMedium, Detection: DetectionManual,
			Description: "Functions accepting a caller-supplied list bound the list length before iterating.",
			Remediation: "Reject batch calls whose input length exceeds a documented maximum."},
	}
	return items
}
