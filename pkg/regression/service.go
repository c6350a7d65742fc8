package regression

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// Service orchestrates baseline establishment and run comparison.
type Service struct {
	store      *Store
	thresholds Thresholds
	logger     *slog.Logger
}

// NewService creates a regression Service backed by store, using the given
// severity thresholds.
func NewService(store *Store, thresholds Thresholds, logger *slog.Logger) *Service {
	return &Service{store: store, thresholds: thresholds, logger: logger}
}

// EstablishBaselineRequest carries the raw per-iteration samples and the
// output snapshot to hash for a new baseline.
type EstablishBaselineRequest struct {
	ContractID string
	Version    string
	Suite      string
	Function   string
	Samples    []float64 // microseconds
	Output     any
}

// EstablishBaseline computes summary statistics and an output hash, then
// deactivates any prior active baseline for the tuple and inserts the new
// one as active (spec §4.4 steps 1-4).
func (s *Service) EstablishBaseline(ctx context.Context, req EstablishBaselineRequest) (Baseline, error) {
	stats := Summarize(req.Samples)
	outputHash, err := HashOutput(req.Output)
	if err != nil {
		return Baseline{}, err
	}

	baseline := Baseline{
		ContractID:   req.ContractID,
		Version:      req.Version,
		Suite:        req.Suite,
		Function:     req.Function,
		Iterations:   stats.Iterations,
		AvgMicros:    stats.Avg,
		MinMicros:    stats.Min,
		MaxMicros:    stats.Max,
		P95Micros:    stats.P95,
		P99Micros:    stats.P99,
		StddevMicros: stats.Stddev,
		OutputHash:   outputHash,
		Active:       true,
	}

	return s.store.ReplaceActiveBaseline(ctx, baseline)
}

// RecordRunRequest carries a single execution's timing and output.
type RecordRunRequest struct {
	ContractID string
	Version    string
	Suite      string
	Function   string
	AvgMicros  float64
	Output     any
}

// RecordRun compares an execution against the active baseline, if any, and
// persists the classified result (spec §4.4 "Test run and comparison").
func (s *Service) RecordRun(ctx context.Context, req RecordRunRequest) (Run, error) {
	outputHash, err := HashOutput(req.Output)
	if err != nil {
		return Run{}, err
	}

	baseline, err := s.store.ActiveBaseline(ctx, req.ContractID, req.Version, req.Suite, req.Function)
	if err != nil && !isNotFound(err) {
		return Run{}, err
	}

	run := Run{
		ContractID: req.ContractID,
		Version:    req.Version,
		Suite:      req.Suite,
		Function:   req.Function,
		AvgMicros:  req.AvgMicros,
		OutputHash: outputHash,
	}

	if baseline == nil {
		run.Status = "passed"
		run.Severity = SeverityNone
		return s.store.CreateRun(ctx, run)
	}

	id := baseline.ID
	run.BaselineID = &id
	run.DegradationPct, run.Severity, run.RegressionDetected = Classify(
		baseline.AvgMicros, req.AvgMicros, baseline.OutputHash, outputHash, s.thresholds,
	)
	if run.RegressionDetected {
		run.Status = "failed"
	} else {
		run.Status = "passed"
	}

	return s.store.CreateRun(ctx, run)
}

// History returns recent runs for a (contract, version, suite, function).
func (s *Service) History(ctx context.Context, contractID, version, suite, function string, limit int) ([]Run, error) {
	return s.store.RunHistory(ctx, contractID, version, suite, function, limit)
}

// ByID is used by handlers needing a single baseline.
func (s *Service) ByID(ctx context.Context, id uuid.UUID) (Baseline, error) {
	return s.store.GetBaseline(ctx, id)
}
