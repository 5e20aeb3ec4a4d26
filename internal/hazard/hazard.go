// Package hazard converts linear predictors into bounded transition
// probabilities using the constant-hazard survival formula.
package hazard

import (
	"math"
	"sort"
)

// Features is the fixed feature schema every transition model draws from.
// Each slot is a full-length cohort column; there is no dynamic key space
// beyond these names.
type Features struct {
	Age               []float64
	IMDQuintile       []float64
	CommunityCapacity []float64
	LTCLevel          []float64
	Disability        []float64
	HeatExposure      []float64
	ColdExposure      []float64
	Hospitalised      []float64
}

// Slot returns the column for a feature name, or nil if the name is not
// part of the schema.
func (f *Features) Slot(name string) []float64 {
	switch name {
	case "age":
		return f.Age
	case "imd_quintile":
		return f.IMDQuintile
	case "community_capacity":
		return f.CommunityCapacity
	case "ltc_level":
		return f.LTCLevel
	case "disability":
		return f.Disability
	case "heat_exposure":
		return f.HeatExposure
	case "cold_exposure":
		return f.ColdExposure
	case "hospitalised":
		return f.Hospitalised
	}
	return nil
}

// Len returns the column length.
func (f *Features) Len() int {
	return len(f.Age)
}

// LinearPredictor computes intercept + sum of coefficient x feature for each
// individual. Coefficient keys with no matching feature slot are ignored, so
// a newer config schema stays loadable.
func LinearPredictor(intercept float64, coefficients map[string]float64, features *Features) []float64 {
	n := features.Len()
	lp := make([]float64, n)
	for i := range lp {
		lp[i] = intercept
	}
	// Fixed iteration order keeps float accumulation reproducible.
	keys := make([]string, 0, len(coefficients))
	for key := range coefficients {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		values := features.Slot(key)
		if values == nil {
			continue
		}
		coef := coefficients[key]
		for i, v := range values {
			lp[i] += coef * v
		}
	}
	return lp
}

// HazardToProbability applies the survival conversion
// p = 1 - exp(-max(h,0) * dt/12) and clips into [0,1]. Negative rates are
// treated as zero hazard.
func HazardToProbability(hazards []float64, dtMonths float64) []float64 {
	dtYears := dtMonths / 12.0
	probs := make([]float64, len(hazards))
	for i, h := range hazards {
		if h < 0 {
			h = 0
		}
		p := 1.0 - math.Exp(-h*dtYears)
		probs[i] = clip01(p)
	}
	return probs
}

// LogHazardToProbability exponentiates the linear predictor (log link) and
// converts to a probability. The result is in [0,1] for any real predictor.
func LogHazardToProbability(lp []float64, dtMonths float64) []float64 {
	hazards := make([]float64, len(lp))
	for i, v := range lp {
		hazards[i] = math.Exp(v)
	}
	return HazardToProbability(hazards, dtMonths)
}

const competingRiskTolerance = 1e-8

// CompetingRiskAdjust caps the element-wise sum of mutually exclusive
// transition probabilities at 1 by shrinking each vector in proportion to
// its share of the excess. Inputs are returned unchanged when the excess is
// within tolerance.
func CompetingRiskAdjust(probabilities ...[]float64) [][]float64 {
	if len(probabilities) == 0 {
		return nil
	}
	n := len(probabilities[0])
	total := make([]float64, n)
	for _, probs := range probabilities {
		for i, p := range probs {
			total[i] += p
		}
	}
	maxExcess := 0.0
	for _, t := range total {
		if e := t - 1.0; e > maxExcess {
			maxExcess = e
		}
	}
	if maxExcess <= competingRiskTolerance {
		return probabilities
	}
	adjusted := make([][]float64, len(probabilities))
	for j, probs := range probabilities {
		out := make([]float64, n)
		for i, p := range probs {
			excess := total[i] - 1.0
			if excess < 0 {
				excess = 0
			}
			out[i] = clip01(p - excess*(p/(total[i]+1e-12)))
		}
		adjusted[j] = out
	}
	return adjusted
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
