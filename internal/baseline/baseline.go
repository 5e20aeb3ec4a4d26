// Package baseline draws an initial synthetic cohort from configured
// demographic and clinical distributions.
package baseline

import (
	"math/rand"
	"sort"
	"strconv"
	"strings"

	"ageing-engine/internal/model"
)

// Synthesise draws a cohort of cfg.CohortSize individuals. Categorical
// columns are stored as integer codes in sorted label order. Everyone
// starts alive, not hospitalised and not in care.
func Synthesise(cfg *model.BaselineConfig, seed int64) *model.Cohort {
	rng := rand.New(rand.NewSource(seed))
	n := cfg.CohortSize
	c := model.NewCohort(n)

	ageLabels, ageCum := cumulative(cfg.AgeDistribution)
	for i := 0; i < n; i++ {
		band := ageLabels[pick(rng, ageCum)]
		lo, hi := ageBandBounds(band)
		c.Age[i] = float64(lo + rng.Intn(hi-lo+1))
	}

	drawCategorical(rng, cfg.SexDistribution, c.Sex)
	drawCategorical(rng, cfg.Regions, c.Region)
	drawCategorical(rng, cfg.UrbanRuralSplit, c.UrbanRural)

	imdCum := cumulativeWeights(cfg.IMDDistribution)
	for i := 0; i < n; i++ {
		c.IMDQuintile[i] = pick(rng, imdCum) + 1
	}

	gpMean := cfg.ServiceIndices["gp_density_mean"]
	gpSD := sdOrDefault(cfg.ServiceIndices, "gp_density_sd")
	commMean := cfg.ServiceIndices["community_capacity_mean"]
	commSD := sdOrDefault(cfg.ServiceIndices, "community_capacity_sd")
	heatMean := cfg.EnvironmentIndices["heat_exposure_mean"]
	heatSD := sdOrDefault(cfg.EnvironmentIndices, "heat_exposure_sd")
	coldMean := cfg.EnvironmentIndices["cold_exposure_mean"]
	coldSD := sdOrDefault(cfg.EnvironmentIndices, "cold_exposure_sd")
	for i := 0; i < n; i++ {
		c.GPAccess[i] = rng.NormFloat64()*gpSD + gpMean
	}
	for i := 0; i < n; i++ {
		c.CommunityCapacity[i] = rng.NormFloat64()*commSD + commMean
	}
	for i := 0; i < n; i++ {
		c.HeatExposure[i] = rng.NormFloat64()*heatSD + heatMean
	}
	for i := 0; i < n; i++ {
		c.ColdExposure[i] = rng.NormFloat64()*coldSD + coldMean
	}

	// Baseline morbidity: older and more deprived individuals are more
	// likely to carry conditions, assigned through three sequential draws.
	for i := 0; i < n; i++ {
		p := clipRange(0.2+0.01*(c.Age[i]-65)+0.03*float64(c.IMDQuintile[i]-3), 0.05, 0.9)
		if rng.Float64() < p {
			c.LTCState[i] = model.LTCMild
		}
	}
	for i := 0; i < n; i++ {
		p := clipRange(0.15+0.008*(c.Age[i]-70), 0.05, 0.8)
		if c.LTCState[i] > model.LTCNone && rng.Float64() < p {
			c.LTCState[i] = model.LTCModerate
		}
	}
	for i := 0; i < n; i++ {
		p := clipRange(0.06+0.01*(c.Age[i]-80), 0.02, 0.6)
		if c.LTCState[i] >= model.LTCModerate && rng.Float64() < p {
			c.LTCState[i] = model.LTCSevere
		}
	}

	for i := 0; i < n; i++ {
		p := clipRange(0.1+0.02*float64(c.LTCState[i]), 0, 0.7)
		c.Disability[i] = rng.Float64() < p
	}

	hospitalBeds := capacityOrDefault(cfg.CareCapacity, "hospital_beds_per_1k", 3.0)
	careBeds := capacityOrDefault(cfg.CareCapacity, "care_home_beds_per_1k", 5.0)
	for i := 0; i < n; i++ {
		c.Alive[i] = true
		c.HospitalBedsPer1K[i] = hospitalBeds
		c.CareHomeBedsPer1K[i] = careBeds
	}

	return c
}

// ageBandBounds parses "65-69" style labels; "85+" caps at 95.
func ageBandBounds(label string) (int, int) {
	if strings.HasSuffix(label, "+") {
		lo, err := strconv.Atoi(strings.TrimSuffix(label, "+"))
		if err != nil {
			return 65, 95
		}
		return lo, lo + 10
	}
	parts := strings.SplitN(label, "-", 2)
	if len(parts) != 2 {
		return 65, 95
	}
	lo, err1 := strconv.Atoi(parts[0])
	hi, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil || hi < lo {
		return 65, 95
	}
	return lo, hi
}

func drawCategorical(rng *rand.Rand, dist map[string]float64, dst []int) {
	_, cum := cumulative(dist)
	for i := range dst {
		dst[i] = pick(rng, cum)
	}
}

// cumulative returns sorted labels and their normalised cumulative weights.
func cumulative(dist map[string]float64) ([]string, []float64) {
	labels := make([]string, 0, len(dist))
	for label := range dist {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	weights := make([]float64, len(labels))
	for i, label := range labels {
		weights[i] = dist[label]
	}
	return labels, cumulativeWeights(weights)
}

func cumulativeWeights(weights []float64) []float64 {
	total := 0.0
	for _, w := range weights {
		total += w
	}
	cum := make([]float64, len(weights))
	run := 0.0
	for i, w := range weights {
		if total > 0 {
			run += w / total
		} else if len(weights) > 0 {
			run += 1.0 / float64(len(weights))
		}
		cum[i] = run
	}
	if len(cum) > 0 {
		cum[len(cum)-1] = 1.0
	}
	return cum
}

func pick(rng *rand.Rand, cum []float64) int {
	u := rng.Float64()
	for i, c := range cum {
		if u < c {
			return i
		}
	}
	return len(cum) - 1
}

func sdOrDefault(indices map[string]float64, key string) float64 {
	if sd, ok := indices[key]; ok && sd > 0 {
		return sd
	}
	return 0.1
}

func capacityOrDefault(capacity map[string]float64, key string, fallback float64) float64 {
	if v, ok := capacity[key]; ok && v > 0 {
		return v
	}
	return fallback
}

func clipRange(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
