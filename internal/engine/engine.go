// Package engine steps a cohort forward month by month, applying
// transitions in a fixed order and producing a round summary.
package engine

import (
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"ageing-engine/internal/capacity"
	"ageing-engine/internal/config"
	"ageing-engine/internal/hazard"
	"ageing-engine/internal/model"
	"ageing-engine/internal/policy"
	"ageing-engine/internal/scoring"
	"ageing-engine/internal/shock"
)

// RoundRequest is everything one simulate call needs. The cohort is the
// caller's snapshot; the engine works on its own copy.
type RoundRequest struct {
	Cohort             *model.Cohort
	Months             int
	Decisions          map[string]model.Decision
	Shocks             []shock.Shock
	Seed               int64
	PolicyMonthsActive map[string]int
}

// RoundResult carries the advanced cohort, the ordered per-month results,
// the aggregated summary and a one-row scored table for the just-completed
// round, wrapped in run metadata for the persistence layer.
type RoundResult struct {
	RunID       string
	Outcome     string
	StartedAt   time.Time
	CompletedAt time.Time
	DurationMs  int64

	Cohort             *model.Cohort
	Timesteps          []model.TimestepResult
	Summary            model.RoundSummary
	Scored             []model.ScoredRow
	PolicyMonthsActive map[string]int
}

const defaultLengthOfStayDays = 7.0

// SimulateRound runs the monthly loop exactly req.Months times. A missing
// transition definition or an unknown policy id is a fatal configuration
// error returned before the caller's cohort is touched. Repeated calls
// with identical inputs and seed are bit-identical.
func SimulateRound(bundle *config.Bundle, req RoundRequest) (*RoundResult, error) {
	start := time.Now()

	for _, name := range config.RequiredTransitions {
		if _, ok := bundle.Transitions.Transitions[name]; !ok {
			return nil, fmt.Errorf("%w: %s", config.ErrMissingTransition, name)
		}
	}

	cohort := req.Cohort.Copy()
	n := cohort.Size()
	rng := rand.New(rand.NewSource(req.Seed))

	dtMonths := float64(bundle.Transitions.TimeStepMonths)
	if dtMonths <= 0 {
		dtMonths = 1
	}
	dtYears := dtMonths / 12.0

	// Pricing fails fast on unknown policy ids.
	cost, err := policy.Cost(&bundle.Policies, req.Decisions, n)
	if err != nil {
		return nil, err
	}
	policyCostPerMonth := 0.0
	if req.Months > 0 {
		policyCostPerMonth = cost.InexactFloat64() / float64(req.Months)
	}

	counters := make(map[string]int, len(req.Decisions))
	for id := range req.Decisions {
		counters[id] = req.PolicyMonthsActive[id]
	}

	shockMods := shock.ActiveModifiers(req.Shocks)

	baseLOS := defaultLengthOfStayDays
	if los, ok := bundle.Transitions.LengthOfStay["hospital"]; ok {
		baseLOS = los.Mean
	}

	losRemaining := make([]float64, n)
	timesteps := make([]model.TimestepResult, 0, req.Months)

	for month := 0; month < req.Months; month++ {
		feats := buildFeatures(cohort)

		active, err := policy.BuildActive(&bundle.Policies, req.Decisions, counters)
		if err != nil {
			return nil, err
		}
		mods := mergeModifiers(policy.AggregateEffects(active), shockMods)
		caps := capacity.Feedback(cohort, baseLOS, mods)

		var newIncidence, newHospital, newCare, newDeaths int
		bedDays := 0.0

		// Long-term-condition onset, progression, severe escalation.
		onsetProbs := transitionProbs(bundle, "ltc_onset", feats, dtMonths, mods, cohort.Alive)
		progressionProbs := transitionProbs(bundle, "ltc_progression", feats, dtMonths, mods, cohort.Alive)
		for i := 0; i < n; i++ {
			if rng.Float64() < onsetProbs[i] && cohort.LTCState[i] == model.LTCNone {
				cohort.LTCState[i] = model.LTCMild
				newIncidence++
			}
		}
		for i := 0; i < n; i++ {
			if rng.Float64() < progressionProbs[i] && cohort.LTCState[i] == model.LTCMild {
				cohort.LTCState[i] = model.LTCModerate
			}
		}
		for i := 0; i < n; i++ {
			// Escalation reuses half the progression probability; there is
			// no separate severe hazard model.
			severe := clip01(progressionProbs[i] * 0.5)
			if rng.Float64() < severe && cohort.LTCState[i] >= model.LTCModerate {
				cohort.LTCState[i] = model.LTCSevere
			}
		}

		// Disability onset and recovery. Congestion suppresses recovery.
		disabilityProbs := transitionProbs(bundle, "disability_onset", feats, dtMonths, mods, cohort.Alive)
		recoveryProbs := transitionProbs(bundle, "disability_recovery", feats, dtMonths, mods, cohort.Alive)
		persistence := max(caps.DisabilityPersistence, 1e-6)
		for i := 0; i < n; i++ {
			if rng.Float64() < disabilityProbs[i] && !cohort.Disability[i] {
				cohort.Disability[i] = true
			}
		}
		for i := 0; i < n; i++ {
			if rng.Float64() < recoveryProbs[i]/persistence && cohort.Disability[i] {
				cohort.Disability[i] = false
			}
		}

		// Hospitalisation: admissions, gamma length of stay, discharges.
		hospitalProbs := transitionProbs(bundle, "hospitalisation", feats, dtMonths, mods, cohort.Alive)
		for i := 0; i < n; i++ {
			if rng.Float64() < hospitalProbs[i] && !cohort.Hospitalised[i] {
				cohort.Hospitalised[i] = true
				los := max(1.0, hazard.SampleGamma(rng, caps.LengthOfStay/2.0, 2.0))
				losRemaining[i] = los
				bedDays += los
				newHospital++
			}
		}
		for i := 0; i < n; i++ {
			if cohort.Hospitalised[i] {
				losRemaining[i] = max(0, losRemaining[i]-dtMonths*30)
				if losRemaining[i] <= 0 {
					cohort.Hospitalised[i] = false
				}
			}
		}

		// Care-home admission: disabled, tier >= Moderate, not in care.
		careProbs := transitionProbs(bundle, "care_home", feats, dtMonths, mods, cohort.Alive)
		for i := 0; i < n; i++ {
			if rng.Float64() < careProbs[i] &&
				!cohort.CareHome[i] && cohort.Disability[i] && cohort.LTCState[i] >= model.LTCModerate {
				cohort.CareHome[i] = true
				newCare++
			}
		}

		// Mortality is terminal: all flags cleared, no later transitions.
		mortalityProbs := transitionProbs(bundle, "mortality", feats, dtMonths, mods, cohort.Alive)
		for i := 0; i < n; i++ {
			p := clip01(mortalityProbs[i] * caps.MortalityMultiplier)
			if rng.Float64() < p && cohort.Alive[i] {
				cohort.Alive[i] = false
				cohort.Hospitalised[i] = false
				cohort.CareHome[i] = false
				cohort.Disability[i] = false
				newDeaths++
			}
		}

		for i := 0; i < n; i++ {
			cohort.Age[i] += dtYears
		}

		aliveCount := cohort.AliveCount()
		disabledAlive := 0
		careResidents := 0
		for i := 0; i < n; i++ {
			if cohort.Alive[i] && cohort.Disability[i] {
				disabledAlive++
			}
			if cohort.CareHome[i] {
				careResidents++
			}
		}
		disabilityPrev := float64(disabledAlive) / float64(max(aliveCount, 1))

		qalys := stepQALYs(cohort, bundle.Costs.QALYWeights, dtYears)
		hospitalCost := bedDays * bundle.Costs.UnitCosts["hospital_bed_day"]
		careCost := float64(careResidents) * 30 * bundle.Costs.UnitCosts["care_home_day"]
		totalCost := policyCostPerMonth + hospitalCost + careCost

		equityGap := deprivationGap(cohort)

		timesteps = append(timesteps, model.TimestepResult{
			MonthIndex:           month + 1,
			Incidence:            float64(newIncidence),
			HospitalAdmissions:   float64(newHospital),
			BedDays:              bedDays,
			CareHomeAdmissions:   float64(newCare),
			Deaths:               float64(newDeaths),
			CostsGBP:             totalCost,
			QALYs:                qalys,
			DisabilityPrevalence: disabilityPrev,
			EquityGaps:           map[string]float64{"disability": equityGap},
		})

		for _, id := range sortedCounterKeys(counters) {
			if d, ok := req.Decisions[id]; ok && d.Intensity > 0 {
				counters[id]++
			}
		}
	}

	cohort.MonthsElapsed += req.Months

	summary := summariseRound(timesteps)
	scored := scoring.ScoreRound([]model.TeamMetrics{{
		Team:     "current",
		Health:   summary[model.SummaryHealthValue],
		Cost:     summary[model.SummaryCostValue],
		Capacity: summary[model.SummaryCapacityValue],
		Equity:   summary[model.SummaryEquityValue],
	}}, bundle.Scoring)

	completed := time.Now()
	result := &RoundResult{
		RunID:              uuid.New().String(),
		Outcome:            model.OutcomeSuccess,
		StartedAt:          start,
		CompletedAt:        completed,
		DurationMs:         completed.Sub(start).Milliseconds(),
		Cohort:             cohort,
		Timesteps:          timesteps,
		Summary:            summary,
		Scored:             scored,
		PolicyMonthsActive: counters,
	}

	log.Debug().
		Str("run_id", result.RunID).
		Int("months", req.Months).
		Int("alive", cohort.AliveCount()).
		Float64("total_cost", summary["costs_total"]).
		Msg("round simulated")

	return result, nil
}

// transitionProbs computes the per-individual probability for one named
// transition. A modifier key equal to the transition name shifts the
// intercept; a key matching a non-feature coefficient slot feeds that slot
// as a constant. Dead individuals get probability zero.
func transitionProbs(bundle *config.Bundle, name string, feats *hazard.Features, dtMonths float64, mods map[string]float64, alive []bool) []float64 {
	def := bundle.Transitions.Transitions[name]
	lp := hazard.LinearPredictor(def.Intercept+mods[name], def.Coefficients, feats)

	coefKeys := make([]string, 0, len(def.Coefficients))
	for key := range def.Coefficients {
		coefKeys = append(coefKeys, key)
	}
	sort.Strings(coefKeys)
	for _, key := range coefKeys {
		if feats.Slot(key) != nil {
			continue
		}
		v, ok := mods[key]
		if !ok {
			continue
		}
		shift := def.Coefficients[key] * v
		for i := range lp {
			lp[i] += shift
		}
	}

	probs := hazard.LogHazardToProbability(lp, dtMonths)
	for i := range probs {
		if !alive[i] {
			probs[i] = 0
		}
	}
	return probs
}

// buildFeatures copies current state into the fixed schema; transitions
// within one month all see the month-start state.
func buildFeatures(c *model.Cohort) *hazard.Features {
	n := c.Size()
	f := &hazard.Features{
		Age:               append([]float64(nil), c.Age...),
		CommunityCapacity: append([]float64(nil), c.CommunityCapacity...),
		HeatExposure:      append([]float64(nil), c.HeatExposure...),
		ColdExposure:      append([]float64(nil), c.ColdExposure...),
		IMDQuintile:       make([]float64, n),
		LTCLevel:          make([]float64, n),
		Disability:        make([]float64, n),
		Hospitalised:      make([]float64, n),
	}
	for i := 0; i < n; i++ {
		f.IMDQuintile[i] = float64(c.IMDQuintile[i])
		f.LTCLevel[i] = float64(c.LTCState[i])
		if c.Disability[i] {
			f.Disability[i] = 1
		}
		if c.Hospitalised[i] {
			f.Hospitalised[i] = 1
		}
	}
	return f
}

// mergeModifiers sums policy and shock modifiers into one map; the two
// sources combine additively, same as simultaneous shocks.
func mergeModifiers(policyMods, shockMods map[string]float64) map[string]float64 {
	merged := make(map[string]float64, len(policyMods)+len(shockMods))
	for key, v := range policyMods {
		merged[key] += v
	}
	for key, v := range shockMods {
		merged[key] += v
	}
	return merged
}

func stepQALYs(c *model.Cohort, weights map[string]float64, dtYears float64) float64 {
	healthy := weightOr(weights, "healthy", 0.9)
	mild := weightOr(weights, "ltc_mild", 0.8)
	moderate := weightOr(weights, "ltc_moderate", 0.65)
	severe := weightOr(weights, "ltc_severe", 0.45)
	disabilityFactor := weightOr(weights, "disability", 0.5) / max(healthy, 1e-6)

	sum := 0.0
	for i := 0; i < c.Size(); i++ {
		if !c.Alive[i] {
			continue
		}
		var base float64
		switch c.LTCState[i] {
		case model.LTCNone:
			base = healthy
		case model.LTCMild:
			base = mild
		case model.LTCModerate:
			base = moderate
		default:
			base = severe
		}
		if c.Disability[i] {
			base *= disabilityFactor
		}
		sum += base
	}
	return sum * dtYears
}

// deprivationGap is the disability-prevalence difference between the most
// and least deprived quintiles present among the living.
func deprivationGap(c *model.Cohort) float64 {
	minQ, maxQ := 0, 0
	found := false
	for i := 0; i < c.Size(); i++ {
		if !c.Alive[i] {
			continue
		}
		q := c.IMDQuintile[i]
		if !found {
			minQ, maxQ = q, q
			found = true
			continue
		}
		if q < minQ {
			minQ = q
		}
		if q > maxQ {
			maxQ = q
		}
	}
	if !found {
		return 0
	}
	var minDisabled, minCount, maxDisabled, maxCount int
	for i := 0; i < c.Size(); i++ {
		if !c.Alive[i] {
			continue
		}
		switch c.IMDQuintile[i] {
		case minQ:
			minCount++
			if c.Disability[i] {
				minDisabled++
			}
		case maxQ:
			maxCount++
			if c.Disability[i] {
				maxDisabled++
			}
		}
	}
	if minCount == 0 || maxCount == 0 {
		return 0
	}
	return float64(maxDisabled)/float64(maxCount) - float64(minDisabled)/float64(minCount)
}

func summariseRound(timesteps []model.TimestepResult) model.RoundSummary {
	summary := model.RoundSummary{
		"incidence_total":            0,
		"hospital_admissions_total":  0,
		"bed_days_total":             0,
		"care_home_admissions_total": 0,
		"deaths_total":               0,
		"costs_total":                0,
		"qalys_total":                0,
		"disability_prev_end":        0,
		"equity_gap_disability":      0,
	}
	for _, ts := range timesteps {
		summary["incidence_total"] += ts.Incidence
		summary["hospital_admissions_total"] += ts.HospitalAdmissions
		summary["bed_days_total"] += ts.BedDays
		summary["care_home_admissions_total"] += ts.CareHomeAdmissions
		summary["deaths_total"] += ts.Deaths
		summary["costs_total"] += ts.CostsGBP
		summary["qalys_total"] += ts.QALYs
	}
	if len(timesteps) > 0 {
		last := timesteps[len(timesteps)-1]
		summary["disability_prev_end"] = last.DisabilityPrevalence
		summary["equity_gap_disability"] = last.EquityGaps["disability"]
	}
	summary[model.SummaryHealthValue] = summary["qalys_total"]
	summary[model.SummaryCostValue] = summary["costs_total"]
	summary[model.SummaryCapacityValue] = -summary["bed_days_total"]
	gap := summary["equity_gap_disability"]
	if gap < 0 {
		gap = -gap
	}
	summary[model.SummaryEquityValue] = -gap
	return summary
}

func sortedCounterKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func weightOr(weights map[string]float64, key string, fallback float64) float64 {
	if v, ok := weights[key]; ok {
		return v
	}
	return fallback
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
