// Package regression implements the performance-baseline and comparison
// engine described by spec §4.4: establish a timing/output baseline for a
// (contract, version, suite, function), then compare each subsequent run
// against it and classify the result's severity.
package regression

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
)

// Severity classifies how badly a run degraded against its baseline.
type Severity string

const (
	SeverityNone     Severity = "none"
	SeverityMinor    Severity = "minor"
	SeverityMajor    Severity = "major"
	SeverityCritical Severity = "critical"
)

// Baseline is the active performance/output reference for a
// (contract, version, suite, function) tuple.
type Baseline struct {
	ID         uuid.UUID `json:"id"`
	ContractID string    `json:"contract_id"`
	Version    string    `json:"version"`
	Suite      string    `json:"suite"`
	Function   string    `json:"function"`
	Iterations int       `json:"iterations"`
	AvgMicros  float64   `json:"avg_micros"`
	MinMicros  float64   `json:"min_micros"`
	MaxMicros  float64   `json:"max_micros"`
	P95Micros  float64   `json:"p95_micros"`
	P99Micros  float64   `json:"p99_micros"`
	StddevMicros float64 `json:"stddev_micros"`
	OutputHash string    `json:"output_hash"`
	Active     bool      `json:"active"`
	CreatedAt  time.Time `json:"created_at"`
}

// Run is one comparison of a subsequent execution against the active
// baseline.
type Run struct {
	ID                uuid.UUID `json:"id"`
	BaselineID        *uuid.UUID `json:"baseline_id,omitempty"`
	ContractID        string    `json:"contract_id"`
	Version           string    `json:"version"`
	Suite             string    `json:"suite"`
	Function          string    `json:"function"`
	AvgMicros         float64   `json:"avg_micros"`
	OutputHash        string    `json:"output_hash"`
	DegradationPct    float64   `json:"degradation_pct"`
	Severity          Severity  `json:"severity"`
	RegressionDetected bool     `json:"regression_detected"`
	Status            string    `json:"status"` // passed or failed
	CreatedAt         time.Time `json:"created_at"`
}

// Thresholds holds the percent-degradation cutoffs for each severity tier.
// Configurable per engine instance per spec §4.4's closing note.
type Thresholds struct {
	MinorPct    float64
	MajorPct    float64
	CriticalPct float64
}

// Stats summarizes a set of per-iteration duration samples in microseconds.
type Stats struct {
	Iterations int
	Avg, Min, Max, P95, P99, Stddev float64
}

// Summarize computes the standard statistics over samples, which must be
// non-empty and given in microseconds.
func Summarize(samples []float64) Stats {
	n := len(samples)
	sorted := append([]float64(nil), samples...)
	sort.Float64s(sorted)

	var sum float64
	for _, s := range sorted {
		sum += s
	}
	avg := sum / float64(n)

	var variance float64
	for _, s := range sorted {
		d := s - avg
		variance += d * d
	}
	variance /= float64(n)

	return Stats{
		Iterations: n,
		Avg:        avg,
		Min:        sorted[0],
		Max:        sorted[n-1],
		P95:        percentile(sorted, 0.95),
		P99:        percentile(sorted, 0.99),
		Stddev:     math.Sqrt(variance),
	}
}

func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	idx := p * float64(len(sorted)-1)
	lo := int(math.Floor(idx))
	hi := int(math.Ceil(idx))
	if lo == hi {
		return sorted[lo]
	}
	frac := idx - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

// CanonicalJSON serializes v with object keys sorted recursively, so the
// same logical value always hashes identically regardless of map
// iteration order. encoding/json alone does not sort nested map[string]any
// keys the way it sorts top-level struct fields, so output hashing needs
// this explicit pass (see DESIGN.md Open Question 2).
func CanonicalJSON(v any) ([]byte, error) {
	normalized, err := normalize(v)
	if err != nil {
		return nil, err
	}
	return json.Marshal(normalized)
}

func normalize(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var decoded any
	if err := json.Unmarshal(b, &decoded); err != nil {
		return nil, err
	}
	return normalizeDecoded(decoded), nil
}

func normalizeDecoded(v any) any {
	switch val := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		ordered := make(orderedMap, 0, len(keys))
		for _, k := range keys {
			ordered = append(ordered, kv{k, normalizeDecoded(val[k])})
		}
		return ordered
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = normalizeDecoded(item)
		}
		return out
	default:
		return val
	}
}

type kv struct {
	Key   string
	Value any
}

// orderedMap marshals as a JSON object preserving insertion order, which
// normalizeDecoded has already sorted by key.
type orderedMap []kv

func (m orderedMap) MarshalJSON() ([]byte, error) {
	buf := []byte{'{'}
	for i, pair := range m {
		if i > 0 {
			buf = append(buf, ',')
		}
		keyJSON, err := json.Marshal(pair.Key)
		if err != nil {
			return nil, err
		}
		valJSON, err := json.Marshal(pair.Value)
		if err != nil {
			return nil, err
		}
		buf = append(buf, keyJSON...)
		buf = append(buf, ':')
		buf = append(buf, valJSON...)
	}
	buf = append(buf, '}')
	return buf, nil
}

// HashOutput returns the hex SHA-256 digest of the canonical JSON
// serialization of output.
func HashOutput(output any) (string, error) {
	canon, err := CanonicalJSON(output)
	if err != nil {
		return "", fmt.Errorf("canonicalizing output: %w", err)
	}
	sum := sha256.Sum256(canon)
	return hex.EncodeToString(sum[:]), nil
}

// Classify determines severity and regression_detected for a run against
// its baseline, per spec §4.4 steps 3-6.
func Classify(baselineAvg, currentAvg float64, baselineOutputHash, currentOutputHash string, t Thresholds) (degradationPct float64, severity Severity, regressionDetected bool) {
	if baselineAvg == 0 {
		degradationPct = 0
	} else {
		degradationPct = (currentAvg - baselineAvg) / baselineAvg * 100
	}

	switch {
	case degradationPct > t.CriticalPct:
		severity = SeverityCritical
	case degradationPct > t.MajorPct:
		severity = SeverityMajor
	case degradationPct > t.MinorPct:
		severity = SeverityMinor
	default:
		severity = SeverityNone
	}

	if currentOutputHash != baselineOutputHash {
		regressionDetected = true
		if severity == SeverityNone || severity == SeverityMinor {
			severity = SeverityMajor
		}
	}

	if severity != SeverityNone {
		regressionDetected = true
	}

	return degradationPct, severity, regressionDetected
}
