package model

// Decision is one team's chosen intensity and coverage for a policy.
type Decision struct {
	Intensity float64 `json:"intensity"`
	Coverage  float64 `json:"coverage"`
}

// TimestepResult holds one month's metrics. Immutable once produced.
type TimestepResult struct {
	MonthIndex           int                `json:"month_index"`
	Incidence            float64            `json:"incidence"`
	HospitalAdmissions   float64            `json:"hospital_admissions"`
	BedDays              float64            `json:"bed_days"`
	CareHomeAdmissions   float64            `json:"care_home_admissions"`
	Deaths               float64            `json:"deaths"`
	CostsGBP             float64            `json:"costs_gbp"`
	QALYs                float64            `json:"qalys"`
	DisabilityPrevalence float64            `json:"disability_prevalence"`
	EquityGaps           map[string]float64 `json:"equity_gaps"`
}

// RoundSummary maps named totals and final values derived from the
// timestep sequence, including the four scoring-input values.
type RoundSummary map[string]float64

// Summary keys consumed by the scoring engine.
const (
	SummaryHealthValue   = "health_value"
	SummaryCostValue     = "cost_value"
	SummaryCapacityValue = "capacity_value"
	SummaryEquityValue   = "equity_value"
)

// TeamMetrics is one scoring-engine input row: a team's four dimension
// values for the round.
type TeamMetrics struct {
	Team     string  `json:"team"`
	Health   float64 `json:"health_value"`
	Cost     float64 `json:"cost_value"`
	Capacity float64 `json:"capacity_value"`
	Equity   float64 `json:"equity_value"`
}

// Scoring dimensions.
const (
	DimHealth   = "health"
	DimCost     = "cost"
	DimCapacity = "capacity"
	DimEquity   = "equity"
)

// Value returns the raw value for a named dimension.
func (m TeamMetrics) Value(dimension string) float64 {
	switch dimension {
	case DimHealth:
		return m.Health
	case DimCost:
		return m.Cost
	case DimCapacity:
		return m.Capacity
	case DimEquity:
		return m.Equity
	}
	return 0
}

// ScoredRow is one leaderboard row: normalised per-dimension scores, the
// weighted total, and the 1-based rank.
type ScoredRow struct {
	Team       string             `json:"team"`
	Values     map[string]float64 `json:"values"`
	Scores     map[string]float64 `json:"scores"`
	TotalScore float64            `json:"total_score"`
	Rank       int                `json:"rank"`
}

// Calculation outcomes for the round envelope.
const (
	OutcomeSuccess = "SUCCESS"
	OutcomeFailure = "FAILURE"
)
