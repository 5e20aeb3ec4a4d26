package model

// TransitionDefinition is one named hazard model: a log-hazard intercept and
// a mapping from feature name to coefficient.
type TransitionDefinition struct {
	Intercept    float64            `json:"intercept" yaml:"intercept"`
	Coefficients map[string]float64 `json:"coefficients" yaml:"coefficients"`
}

// LengthOfStayConfig parameterises the stay distribution for one setting.
type LengthOfStayConfig struct {
	Mean               float64 `json:"mean" yaml:"mean"`
	Overdispersion     float64 `json:"overdispersion" yaml:"overdispersion"`
	CapacityMultiplier float64 `json:"capacity_multiplier" yaml:"capacity_multiplier"`
}

// TransitionsConfig carries the seven named transition models plus the
// discrete time step.
type TransitionsConfig struct {
	TimeStepMonths int                             `json:"time_step_months" yaml:"time_step_months"`
	Transitions    map[string]TransitionDefinition `json:"transitions" yaml:"transitions"`
	LengthOfStay   map[string]LengthOfStayConfig   `json:"length_of_stay" yaml:"length_of_stay"`
}

// Policy is a catalogue entry. Effects map a target parameter to the
// additive shift applied at full ramp and full intensity.
type Policy struct {
	ID                string             `json:"id" yaml:"id"`
	Name              string             `json:"name" yaml:"name"`
	Description       string             `json:"description" yaml:"description"`
	CostPerCapita     float64            `json:"cost_per_capita" yaml:"cost_per_capita"`
	Effects           map[string]float64 `json:"effects" yaml:"effects"`
	LagMonths         int                `json:"lag_months" yaml:"lag_months"`
	DiminishingReturn float64            `json:"diminishing_return" yaml:"diminishing_return"`
}

// PoliciesConfig is the policy catalogue plus the per-round budget.
type PoliciesConfig struct {
	Policies       []Policy `json:"policies" yaml:"policies"`
	RoundBudgetGBP float64  `json:"round_budget_gbp" yaml:"round_budget_gbp"`
}

// ByID returns the catalogue entry for id, if present.
func (p *PoliciesConfig) ByID(id string) (Policy, bool) {
	for _, pol := range p.Policies {
		if pol.ID == id {
			return pol, true
		}
	}
	return Policy{}, false
}

// CostsConfig holds unit costs (GBP) and QALY utility weights.
type CostsConfig struct {
	UnitCosts   map[string]float64 `json:"unit_costs" yaml:"unit_costs"`
	QALYWeights map[string]float64 `json:"qaly_weights" yaml:"qaly_weights"`
}

// Normalisation methods for scoring.
const (
	NormZScore = "zscore"
	NormMinMax = "minmax"
)

// ScoringConfig holds per-dimension weights and the normalisation method.
type ScoringConfig struct {
	Weights        map[string]float64 `json:"weights" yaml:"weights"`
	EquityOutcomes []string           `json:"equity_outcomes" yaml:"equity_outcomes"`
	Normalisation  string             `json:"normalisation" yaml:"normalisation"`
}

// BaselineConfig describes the distributions the synthesiser draws from.
type BaselineConfig struct {
	CohortSize         int                `json:"cohort_size" yaml:"cohort_size"`
	AgeDistribution    map[string]float64 `json:"age_distribution" yaml:"age_distribution"`
	SexDistribution    map[string]float64 `json:"sex_distribution" yaml:"sex_distribution"`
	Regions            map[string]float64 `json:"regions" yaml:"regions"`
	IMDDistribution    []float64          `json:"imd_distribution" yaml:"imd_distribution"`
	UrbanRuralSplit    map[string]float64 `json:"urban_rural_split" yaml:"urban_rural_split"`
	ServiceIndices     map[string]float64 `json:"service_indices" yaml:"service_indices"`
	EnvironmentIndices map[string]float64 `json:"environment_indices" yaml:"environment_indices"`
	CareCapacity       map[string]float64 `json:"care_capacity" yaml:"care_capacity"`
}
