package config

import "ageing-engine/internal/model"

// Default returns a complete bundle so a session can start with no config
// files mounted. Intercepts are on the log-hazard scale (annual rates);
// policy effect keys are either transition names (intercept shifts),
// capacity modifiers, or enumerated feature slots.
func Default() *Bundle {
	return &Bundle{
		Baseline: model.BaselineConfig{
			CohortSize: 2000,
			AgeDistribution: map[string]float64{
				"65-69": 0.30,
				"70-74": 0.25,
				"75-79": 0.20,
				"80-84": 0.15,
				"85+":   0.10,
			},
			SexDistribution: map[string]float64{"female": 0.55, "male": 0.45},
			Regions: map[string]float64{
				"north":      0.20,
				"midlands":   0.20,
				"london":     0.15,
				"south_east": 0.25,
				"south_west": 0.20,
			},
			IMDDistribution: []float64{0.18, 0.20, 0.21, 0.21, 0.20},
			UrbanRuralSplit: map[string]float64{"urban": 0.80, "rural": 0.20},
			ServiceIndices: map[string]float64{
				"gp_density_mean":         0.0,
				"gp_density_sd":           0.1,
				"community_capacity_mean": 0.0,
				"community_capacity_sd":   0.1,
			},
			EnvironmentIndices: map[string]float64{
				"heat_exposure_mean": 0.0,
				"heat_exposure_sd":   0.1,
				"cold_exposure_mean": 0.0,
				"cold_exposure_sd":   0.1,
			},
			CareCapacity: map[string]float64{
				"hospital_beds_per_1k":  3.0,
				"care_home_beds_per_1k": 5.0,
			},
		},
		Transitions: model.TransitionsConfig{
			TimeStepMonths: 1,
			Transitions: map[string]model.TransitionDefinition{
				"ltc_onset": {
					Intercept: -6.2,
					Coefficients: map[string]float64{
						"age":                0.045,
						"imd_quintile":       0.08,
						"cold_exposure":      0.30,
						"heat_exposure":      0.20,
						"community_capacity": -0.25,
					},
				},
				"ltc_progression": {
					Intercept: -6.6,
					Coefficients: map[string]float64{
						"age":                0.05,
						"imd_quintile":       0.06,
						"community_capacity": -0.30,
					},
				},
				"disability_onset": {
					Intercept: -7.0,
					Coefficients: map[string]float64{
						"age":          0.05,
						"ltc_level":    0.50,
						"imd_quintile": 0.05,
					},
				},
				"disability_recovery": {
					Intercept: -1.8,
					Coefficients: map[string]float64{
						"age":                -0.01,
						"ltc_level":          -0.40,
						"community_capacity": 0.40,
					},
				},
				"hospitalisation": {
					Intercept: -4.8,
					Coefficients: map[string]float64{
						"age":            0.04,
						"ltc_level":      0.35,
						"disability":     0.40,
						"heat_exposure":  0.25,
						"cold_exposure":  0.25,
						"shock_hospital": 1.0,
					},
				},
				"care_home": {
					Intercept: -8.0,
					Coefficients: map[string]float64{
						"age":        0.06,
						"disability": 0.80,
						"ltc_level":  0.30,
					},
				},
				"mortality": {
					Intercept: -9.5,
					Coefficients: map[string]float64{
						"age":             0.09,
						"ltc_level":       0.40,
						"disability":      0.30,
						"hospitalised":    0.50,
						"shock_mortality": 1.0,
					},
				},
			},
			LengthOfStay: map[string]model.LengthOfStayConfig{
				"hospital": {Mean: 7.0, Overdispersion: 2.0, CapacityMultiplier: 0.3},
			},
		},
		Policies: model.PoliciesConfig{
			RoundBudgetGBP: 60000,
			Policies: []model.Policy{
				{
					ID:            "falls_prevention",
					Name:          "Falls prevention programme",
					Description:   "Strength and balance classes plus home hazard checks.",
					CostPerCapita: 12,
					Effects: map[string]float64{
						"hospitalisation":  -0.25,
						"disability_onset": -0.15,
					},
					LagMonths:         2,
					DiminishingReturn: 0.3,
				},
				{
					ID:            "smoking_cessation",
					Name:          "Smoking cessation support",
					Description:   "Pharmacotherapy and counselling for older smokers.",
					CostPerCapita: 8,
					Effects: map[string]float64{
						"ltc_onset":       -0.30,
						"ltc_progression": -0.15,
					},
					LagMonths:         6,
					DiminishingReturn: 0.5,
				},
				{
					ID:            "community_rehab",
					Name:          "Community rehabilitation teams",
					Description:   "Reablement at home after illness or injury.",
					CostPerCapita: 18,
					Effects: map[string]float64{
						"disability_recovery": 0.35,
						"care_home":           -0.20,
						"capacity_community":  -0.10,
					},
					LagMonths:         3,
					DiminishingReturn: 0.4,
				},
				{
					ID:            "home_insulation",
					Name:          "Home insulation retrofit",
					Description:   "Reduces winter cold exposure in older housing.",
					CostPerCapita: 30,
					Effects: map[string]float64{
						"hospitalisation": -0.15,
						"mortality":       -0.12,
					},
					LagMonths:         4,
					DiminishingReturn: 0.2,
				},
				{
					ID:            "gp_capacity",
					Name:          "Primary care capacity uplift",
					Description:   "Extra GP sessions and same-day urgent appointments.",
					CostPerCapita: 20,
					Effects: map[string]float64{
						"hospitalisation":   -0.20,
						"mortality":         -0.10,
						"capacity_hospital": -0.15,
					},
					LagMonths:         1,
					DiminishingReturn: 0.6,
				},
			},
		},
		Costs: model.CostsConfig{
			UnitCosts: map[string]float64{
				"hospital_bed_day": 350,
				"care_home_day":    120,
			},
			QALYWeights: map[string]float64{
				"healthy":      0.90,
				"ltc_mild":     0.80,
				"ltc_moderate": 0.65,
				"ltc_severe":   0.45,
				"disability":   0.50,
			},
		},
		Scoring: model.ScoringConfig{
			Weights: map[string]float64{
				model.DimHealth:   0.4,
				model.DimCost:     0.2,
				model.DimCapacity: 0.2,
				model.DimEquity:   0.2,
			},
			EquityOutcomes: []string{"disability"},
			Normalisation:  model.NormZScore,
		},
	}
}
