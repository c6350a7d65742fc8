// Package capacity implements the compound-growth forecaster, breach
// detector, alert generator, and cost estimator described by spec §4.5.
package capacity

import (
	"math"
	"sort"
	"time"
)

// Resource is one of the closed set of forecastable resource kinds.
type Resource string

const (
	ResourceStorageEntries Resource = "storage_entries"
	ResourceCPUInstructions Resource = "cpu_instructions"
	ResourceUniqueUsers    Resource = "unique_users"
	ResourceTransactions   Resource = "transactions"
	ResourceWasmBytes      Resource = "wasm_bytes"
	ResourceFeePerOp       Resource = "fee_per_op"
)

// Scenario selects the monthly growth rate used by the forecaster.
type Scenario string

const (
	ScenarioConservative Scenario = "conservative"
	ScenarioBase         Scenario = "base"
	ScenarioAggressive   Scenario = "aggressive"
	ScenarioCustom       Scenario = "custom"
)

// Severity classifies a capacity alert.
type Severity string

const (
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
	SeverityBreached Severity = "breached"
)

// Rates holds the monthly growth rate for each named scenario.
type Rates struct {
	Conservative float64
	Base         float64
	Aggressive   float64
	Custom       float64 // clamped to [0, 10] by RateFor
}

// RateFor returns the monthly growth rate for scenario.
func (r Rates) RateFor(scenario Scenario) float64 {
	switch scenario {
	case ScenarioConservative:
		return r.Conservative
	case ScenarioAggressive:
		return r.Aggressive
	case ScenarioCustom:
		return clamp(r.Custom, 0, 10)
	default:
		return r.Base
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// MonthProjection is the projected value at a single forecast month.
type MonthProjection struct {
	Month int     `json:"month"`
	Value float64 `json:"value"`
}

// Forecast computes compound-growth projections V(t) = V0 * (1+r)^t for
// t = 0..horizon inclusive.
func Forecast(current float64, rate float64, horizonMonths int) []MonthProjection {
	projections := make([]MonthProjection, 0, horizonMonths+1)
	for t := 0; t <= horizonMonths; t++ {
		v := current * math.Pow(1+rate, float64(t))
		projections = append(projections, MonthProjection{Month: t, Value: v})
	}
	return projections
}

// BreachAtMonth returns the first month t at which V(t) > limit, or nil if
// no month within the forecast breaches.
func BreachAtMonth(projections []MonthProjection, limit float64) *int {
	for _, p := range projections {
		if p.Value > limit {
			month := p.Month
			return &month
		}
	}
	return nil
}

// DaysUntilBreach converts a breach month to a day count, 30 days/month.
func DaysUntilBreach(breachMonth *int) *int {
	if breachMonth == nil {
		return nil
	}
	days := 30 * *breachMonth
	return &days
}

// Alert is a generated capacity warning for a single resource.
type Alert struct {
	Resource         Resource `json:"resource"`
	Severity         Severity `json:"severity"`
	PctConsumed      float64  `json:"pct_consumed"`
	DaysUntilBreach  *int     `json:"days_until_breach,omitempty"`
	Acknowledged     bool     `json:"acknowledged"`
}

// EvaluateAlert computes the alert for a resource under the base scenario,
// per spec §4.5 "Alerts (base scenario)". Returns nil when no threshold is
// crossed.
func EvaluateAlert(resource Resource, current, limit float64, daysUntilBreach *int) *Alert {
	pct := 0.0
	if limit > 0 {
		pct = current / limit * 100
	}

	switch {
	case current > limit:
		return &Alert{Resource: resource, Severity: SeverityBreached, PctConsumed: pct, DaysUntilBreach: daysUntilBreach}
	case daysUntilBreach != nil && *daysUntilBreach <= 30:
		return &Alert{Resource: resource, Severity: SeverityCritical, PctConsumed: pct, DaysUntilBreach: daysUntilBreach}
	case limit > 0 && current/limit >= 0.60:
		return &Alert{Resource: resource, Severity: SeverityWarning, PctConsumed: pct, DaysUntilBreach: daysUntilBreach}
	default:
		return nil
	}
}

// RecommendationKind categorizes a capacity recommendation's remedy type.
type RecommendationKind string

const (
	RecommendationStorage      RecommendationKind = "storage"
	RecommendationCode         RecommendationKind = "code"
	RecommendationArchitecture RecommendationKind = "architecture"
	RecommendationConfig       RecommendationKind = "config"
	RecommendationInfra        RecommendationKind = "infra"
)

// Effort is a recommendation's implementation effort tier.
type Effort string

const (
	EffortLow    Effort = "low"
	EffortMedium Effort = "medium"
	EffortHigh   Effort = "high"
)

// Recommendation is one actionable remedy for a resource under pressure.
type Recommendation struct {
	Resource           Resource           `json:"resource"`
	Kind               RecommendationKind `json:"kind"`
	Title              string             `json:"title"`
	Description        string             `json:"description"`
	Action             string             `json:"action"`
	Effort             Effort             `json:"effort"`
	EstimatedSavingsPct float64           `json:"estimated_savings_pct"`
	Priority           int                `json:"priority"` // 1 highest
}

// priorityFor maps an alert's severity (or its absence) to a recommendation
// priority: 1 breached, 2 critical, 3 warning, 4 otherwise.
func priorityFor(alert *Alert) int {
	if alert == nil {
		return 4
	}
	switch alert.Severity {
	case SeverityBreached:
		return 1
	case SeverityCritical:
		return 2
	case SeverityWarning:
		return 3
	default:
		return 4
	}
}

// ShouldRecommend reports whether a resource qualifies for a recommendation:
// pct >= 50%, or days_until_breach <= 60, or already breached.
func ShouldRecommend(pctConsumed float64, daysUntilBreach *int, breached bool) bool {
	if breached {
		return true
	}
	if pctConsumed >= 50 {
		return true
	}
	if daysUntilBreach != nil && *daysUntilBreach <= 60 {
		return true
	}
	return false
}

// SortRecommendations orders recommendations ascending by priority
// (1 = highest), stable on input order for equal priorities.
func SortRecommendations(recs []Recommendation) {
	sort.SliceStable(recs, func(i, j int) bool { return recs[i].Priority < recs[j].Priority })
}

// CostTable holds the XLM-per-unit constant for each resource.
type CostTable map[Resource]float64

// CostEstimate is the projected monthly spend for one resource.
type CostEstimate struct {
	Resource           Resource `json:"resource"`
	ProjectedValue     float64  `json:"projected_value"`
	ProjectedMonthlyXLM float64 `json:"projected_monthly_xlm"`
	ProjectedMonthlyUSD float64 `json:"projected_monthly_usd"`
}

// EstimateCost computes the projected monthly spend for projectedValue
// units of resource, at unitCost XLM/unit and xlmUSDPrice USD/XLM.
func EstimateCost(resource Resource, projectedValue, unitCost, xlmUSDPrice float64) CostEstimate {
	xlm := projectedValue * unitCost
	return CostEstimate{
		Resource:            resource,
		ProjectedValue:      projectedValue,
		ProjectedMonthlyXLM: xlm,
		ProjectedMonthlyUSD: xlm * xlmUSDPrice,
	}
}

// OverallStatus returns the strongest alert severity across alerts, or
// "healthy" when alerts is empty.
func OverallStatus(alerts []Alert) string {
	strongest := ""
	rank := map[Severity]int{SeverityWarning: 1, SeverityCritical: 2, SeverityBreached: 3}
	best := 0
	for _, a := range alerts {
		if r := rank[a.Severity]; r > best {
			best = r
			strongest = string(a.Severity)
		}
	}
	if strongest == "" {
		return "healthy"
	}
	return strongest
}

// Snapshot is a point-in-time resource consumption reading.
type Snapshot struct {
	Resource  Resource
	Current   float64
	Limit     float64
	Timestamp time.Time
}
