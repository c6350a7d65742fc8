package regression

import "testing"

func TestClassify_SameHashStillFlagsSeverityDegradation(t *testing.T) {
	// spec §8 scenario 4, first case: baseline 10ms, current 16ms, same
	// output hash -> 60% degradation -> Critical, and regression_detected
	// must be true even though the output hash matches.
	thresholds := Thresholds{MinorPct: 10, MajorPct: 25, CriticalPct: 50}
	degradation, severity, detected := Classify(10000, 16000, "abc", "abc", thresholds)

	if degradation != 60 {
		t.Errorf("degradationPct = %v, want 60", degradation)
	}
	if severity != SeverityCritical {
		t.Errorf("severity = %v, want %v", severity, SeverityCritical)
	}
	if !detected {
		t.Error("regressionDetected = false, want true for a Critical-severity run")
	}
}

func TestClassify_NoTimingOrOutputChangeIsClean(t *testing.T) {
	thresholds := Thresholds{MinorPct: 10, MajorPct: 25, CriticalPct: 50}
	_, severity, detected := Classify(10000, 10050, "abc", "abc", thresholds)

	if severity != SeverityNone {
		t.Errorf("severity = %v, want %v", severity, SeverityNone)
	}
	if detected {
		t.Error("regressionDetected = true, want false for a within-threshold run with a matching output hash")
	}
}

func TestClassify_OutputMismatchAloneIsDetected(t *testing.T) {
	thresholds := Thresholds{MinorPct: 10, MajorPct: 25, CriticalPct: 50}
	_, severity, detected := Classify(10000, 10050, "abc", "def", thresholds)

	if severity != SeverityMajor {
		t.Errorf("severity = %v, want %v (output mismatch escalates at least to Major)", severity, SeverityMajor)
	}
	if !detected {
		t.Error("regressionDetected = false, want true on an output hash mismatch")
	}
}

func TestClassify_MinorDegradationIsDetected(t *testing.T) {
	thresholds := Thresholds{MinorPct: 10, MajorPct: 25, CriticalPct: 50}
	_, severity, detected := Classify(10000, 11500, "abc", "abc", thresholds)

	if severity != SeverityMinor {
		t.Errorf("severity = %v, want %v", severity, SeverityMinor)
	}
	if !detected {
		t.Error("regressionDetected = false, want true for any non-None severity")
	}
}
