// Package policy computes time-ramped, diminishing-return-adjusted policy
// effects and prices decision sets against a round budget.
package policy

import (
	"fmt"
	"math"
	"sort"

	"github.com/shopspring/decimal"

	"ageing-engine/internal/model"
)

// ErrUnknownPolicy is returned when a decision names a policy id that is
// not in the catalogue.
var ErrUnknownPolicy = fmt.Errorf("unknown policy id")

// ActivePolicy is a catalogue policy plus the decision's chosen intensity
// and coverage and the number of consecutive months it has been active.
type ActivePolicy struct {
	Policy       model.Policy
	Intensity    float64
	Coverage     float64
	MonthsActive int
}

// Ramp is the fraction of full effect reached after the onset lag: zero
// while within the lag, then 1 - exp(-m/6), a roughly four-month half-life
// approach to full strength.
func (a ActivePolicy) Ramp() float64 {
	lag := a.Policy.LagMonths
	if lag < 0 {
		lag = 0
	}
	if a.MonthsActive <= lag {
		return 0
	}
	effective := float64(a.MonthsActive - lag)
	return clip01(1.0 - math.Exp(-effective/6.0))
}

// DiminishingMultiplier discounts low-intensity choices more heavily when
// the policy's diminishing-return coefficient is high, modelling fixed-cost
// interventions.
func (a ActivePolicy) DiminishingMultiplier() float64 {
	dim := a.Policy.DiminishingReturn
	if dim < 0 {
		dim = 0
	} else if dim > 1 {
		dim = 1
	}
	return 1.0 - dim*(1.0-clip01(a.Intensity))
}

// EffectStrength is the scalar multiplier applied to the policy's target
// effects this month.
func (a ActivePolicy) EffectStrength() float64 {
	return clip01(clip01(a.Intensity) * a.Ramp() * a.DiminishingMultiplier())
}

// BuildActive resolves a decision map against the catalogue. A decision for
// a policy id missing from the catalogue is a configuration error.
func BuildActive(catalogue *model.PoliciesConfig, decisions map[string]model.Decision, monthsActive map[string]int) ([]ActivePolicy, error) {
	if len(decisions) == 0 {
		return nil, nil
	}
	ids := sortedIDs(decisions)
	active := make([]ActivePolicy, 0, len(ids))
	for _, id := range ids {
		pol, ok := catalogue.ByID(id)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownPolicy, id)
		}
		d := decisions[id]
		active = append(active, ActivePolicy{
			Policy:       pol,
			Intensity:    d.Intensity,
			Coverage:     d.Coverage,
			MonthsActive: monthsActive[id],
		})
	}
	return active, nil
}

// AggregateEffects sums target-parameter shifts across active policies,
// each scaled by its effect strength. Policies with non-positive strength
// contribute nothing.
func AggregateEffects(active []ActivePolicy) map[string]float64 {
	modifiers := make(map[string]float64)
	for _, a := range active {
		strength := a.EffectStrength()
		if strength <= 0 {
			continue
		}
		keys := make([]string, 0, len(a.Policy.Effects))
		for key := range a.Policy.Effects {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			modifiers[key] += a.Policy.Effects[key] * strength
		}
	}
	return modifiers
}

// Cost prices a decision set in GBP: cost per capita x cohort size x
// intensity x coverage, summed over chosen policies. Decimal arithmetic
// keeps the pricing exact. Unknown policy ids are a configuration error.
func Cost(catalogue *model.PoliciesConfig, decisions map[string]model.Decision, cohortSize int) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, id := range sortedIDs(decisions) {
		pol, ok := catalogue.ByID(id)
		if !ok {
			return decimal.Zero, fmt.Errorf("%w: %s", ErrUnknownPolicy, id)
		}
		d := decisions[id]
		line := decimal.NewFromFloat(pol.CostPerCapita).
			Mul(decimal.NewFromInt(int64(cohortSize))).
			Mul(decimal.NewFromFloat(d.Intensity)).
			Mul(decimal.NewFromFloat(d.Coverage))
		total = total.Add(line)
	}
	return total, nil
}

// OverBudget reports whether a priced decision set exceeds the round
// budget. Budget enforcement is a boundary concern: the caller rejects the
// decision before the engine runs.
func OverBudget(cost decimal.Decimal, budgetGBP float64) bool {
	return cost.GreaterThan(decimal.NewFromFloat(budgetGBP))
}

func sortedIDs(decisions map[string]model.Decision) []string {
	ids := make([]string, 0, len(decisions))
	for id := range decisions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func clip01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
