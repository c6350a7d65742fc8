package capacity

import (
	"context"
	"fmt"
	"log/slog"
)

// Limits holds the hard resource limits used for breach detection.
type Limits map[Resource]float64

// Service runs capacity planning for a contract's resource snapshots.
type Service struct {
	store         *Store
	rates         Rates
	limits        Limits
	costs         CostTable
	xlmUSDPrice   float64
	horizonMonths int
	logger        *slog.Logger
}

// NewService creates a capacity planning Service.
func NewService(store *Store, rates Rates, limits Limits, costs CostTable, xlmUSDPrice float64, horizonMonths int, logger *slog.Logger) *Service {
	return &Service{store: store, rates: rates, limits: limits, costs: costs, xlmUSDPrice: xlmUSDPrice, horizonMonths: horizonMonths, logger: logger}
}

// Report is the full output of a planning run for a contract.
type Report struct {
	ContractID      string           `json:"contract_id"`
	Scenario        Scenario         `json:"scenario"`
	Alerts          []Alert          `json:"alerts"`
	Recommendations []Recommendation `json:"recommendations"`
	CostEstimates   []CostEstimate   `json:"cost_estimates"`
	OverallStatus   string           `json:"overall_status"`
}

// Plan evaluates every resource snapshot for a contract against the base
// scenario, generating alerts, recommendations, and cost estimates (spec
// §4.5 in full).
func (s *Service) Plan(ctx context.Context, contractID string) (Report, error) {
	snapshots, err := s.store.LatestSnapshots(ctx, contractID)
	if err != nil {
		return Report{}, err
	}

	report := Report{ContractID: contractID, Scenario: ScenarioBase}

	for _, snap := range snapshots {
		rate := s.rates.RateFor(ScenarioBase)
		limit := s.limits[snap.Resource]

		projections := Forecast(snap.Current, rate, s.horizonMonths)
		breachMonth := BreachAtMonth(projections, limit)
		daysUntilBreach := DaysUntilBreach(breachMonth)

		alert := EvaluateAlert(snap.Resource, snap.Current, limit, daysUntilBreach)
		if alert != nil {
			report.Alerts = append(report.Alerts, *alert)
			if err := s.store.RecordAlert(ctx, contractID, *alert); err != nil {
				s.logger.Error("recording capacity alert", "error", err, "resource", snap.Resource)
			}
		}

		pct := 0.0
		if limit > 0 {
			pct = snap.Current / limit * 100
		}
		breached := alert != nil && alert.Severity == SeverityBreached
		if ShouldRecommend(pct, daysUntilBreach, breached) {
			report.Recommendations = append(report.Recommendations, recommendationFor(snap.Resource, pct, daysUntilBreach, breached))
		}

		horizonMonth := s.horizonMonths
		if horizonMonth >= len(projections) {
			horizonMonth = len(projections) - 1
		}
		unitCost := s.costs[snap.Resource]
		report.CostEstimates = append(report.CostEstimates, EstimateCost(snap.Resource, projections[horizonMonth].Value, unitCost, s.xlmUSDPrice))
	}

	SortRecommendations(report.Recommendations)
	report.OverallStatus = OverallStatus(report.Alerts)
	return report, nil
}

func recommendationFor(resource Resource, pct float64, daysUntilBreach *int, breached bool) Recommendation {
	alert := &Alert{Resource: resource, PctConsumed: pct, DaysUntilBreach: daysUntilBreach}
	switch {
	case breached:
		alert.Severity = SeverityBreached
	case daysUntilBreach != nil && *daysUntilBreach <= 30:
		alert.Severity = SeverityCritical
	default:
		alert.Severity = SeverityWarning
	}

	kind, title, desc, action, effort, savings := recommendationTemplate(resource)
	return Recommendation{
		Resource:            resource,
		Kind:                kind,
		Title:               title,
		Description:         desc,
		Action:              action,
		Effort:              effort,
		EstimatedSavingsPct: savings,
		Priority:            priorityFor(alert),
	}
}

func recommendationTemplate(resource Resource) (kind RecommendationKind, title, description, action string, effort Effort, savingsPct float64) {
	switch resource {
	case ResourceStorageEntries:
		return RecommendationStorage, "Prune stale storage entries",
			"Storage entry count is approaching its limit.",
			"Run a TTL sweep and archive inactive entries to a cheaper tier.", EffortMedium, 20
	case ResourceCPUInstructions:
		return RecommendationCode, "Optimize hot-path instruction count",
			"CPU instruction usage per transaction is trending toward the limit.",
			"Profile the contract's hottest functions and reduce branching/loops.", EffortHigh, 15
	case ResourceUniqueUsers:
		return RecommendationArchitecture, "Plan for horizontal user-base growth",
			"Unique user count is trending toward the configured ceiling.",
			"Evaluate sharding or a higher-tier deployment before the limit is reached.", EffortHigh, 0
	case ResourceTransactions:
		return RecommendationInfra, "Scale transaction throughput capacity",
			"Transaction volume is trending toward the per-ledger limit.",
			"Request a ledger throughput increase or batch transactions where possible.", EffortMedium, 10
	case ResourceWasmBytes:
		return RecommendationCode, "Reduce compiled wasm size",
			"Compiled wasm size is approaching the byte limit.",
			"Strip debug symbols and dead code paths from the build.", EffortLow, 10
	case ResourceFeePerOp:
		return RecommendationConfig, "Review fee-per-operation budget",
			"Fee-per-operation spend is trending upward.",
			"Re-evaluate the operation's fee schedule against the configured budget.", EffortLow, 5
	default:
		return RecommendationConfig, fmt.Sprintf("Review %s usage", resource),
			"Usage is trending toward its configured limit.",
			"Investigate growth drivers for this resource.", EffortMedium, 0
	}
}
