// Package capacity derives congestion multipliers from hospital and
// care-home occupancy.
package capacity

import "ageing-engine/internal/model"

// Modifier keys recognised from policies and shocks.
const (
	ModifierHospital  = "capacity_hospital"
	ModifierCommunity = "capacity_community"
)

// Smallest beds-per-1000 denominator; zero configured beds must not divide
// by zero.
const minBedsPer1K = 0.1

// Multipliers is the capacity feedback applied within a step: the
// pressure-adjusted mean length of stay plus mortality and
// disability-persistence multipliers.
type Multipliers struct {
	LengthOfStay          float64
	MortalityMultiplier   float64
	DisabilityPersistence float64
}

// Feedback computes occupancy pressure from current utilisation and
// converts it into multipliers. Pressure is zero until utilisation exceeds
// capacity; externally supplied capacity modifiers scale the result as
// x(1 + modifier).
func Feedback(cohort *model.Cohort, baseLengthOfStay float64, modifiers map[string]float64) Multipliers {
	n := cohort.Size()
	if n == 0 {
		return Multipliers{
			LengthOfStay:          baseLengthOfStay,
			MortalityMultiplier:   1,
			DisabilityPersistence: 1,
		}
	}

	var hospitalised, inCare int
	var hospitalBeds, careBeds float64
	for i := 0; i < n; i++ {
		if cohort.Hospitalised[i] {
			hospitalised++
		}
		if cohort.CareHome[i] {
			inCare++
		}
		hospitalBeds += cohort.HospitalBedsPer1K[i]
		careBeds += cohort.CareHomeBedsPer1K[i]
	}
	hospitalBeds /= float64(n)
	careBeds /= float64(n)

	hospitalOccupancy := float64(hospitalised) / float64(n) * 1000 / max(hospitalBeds, minBedsPer1K)
	careOccupancy := float64(inCare) / float64(n) * 1000 / max(careBeds, minBedsPer1K)

	hospitalPressure := max(hospitalOccupancy-1.0, 0)
	carePressure := max(careOccupancy-1.0, 0)

	losMultiplier := 1.0 + hospitalPressure*0.3
	mortality := 1.0 + hospitalPressure*0.2
	persistence := 1.0 + carePressure*0.15

	losMultiplier *= 1.0 + modifiers[ModifierHospital]
	persistence *= 1.0 + modifiers[ModifierCommunity]

	return Multipliers{
		LengthOfStay:          baseLengthOfStay * losMultiplier,
		MortalityMultiplier:   mortality,
		DisabilityPersistence: persistence,
	}
}
