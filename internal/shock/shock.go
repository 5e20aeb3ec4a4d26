// Package shock holds the catalogue of exogenous events and sums their
// modifiers into the same space as policy effects.
package shock

import "sort"

// Shock is a named exogenous event: an immutable additive modifier bundle.
// Keys prefixed "capacity_" feed capacity feedback; all other keys feed
// hazard intercept shifts. The duration is informational; the caller
// manages the activation window.
type Shock struct {
	Name           string             `json:"name"`
	Description    string             `json:"description"`
	DurationMonths int                `json:"duration_months"`
	Modifiers      map[string]float64 `json:"modifiers"`
}

var catalogue = map[string]Shock{
	"heatwave": {
		Name:           "heatwave",
		Description:    "Sustained heat raises frailty and hospitalisation risk.",
		DurationMonths: 2,
		Modifiers:      map[string]float64{"shock_hospital": 0.25, "shock_mortality": 0.15},
	},
	"cold_snap": {
		Name:           "cold_snap",
		Description:    "Winter cold strains capacity and drives mortality.",
		DurationMonths: 3,
		Modifiers:      map[string]float64{"shock_mortality": 0.2, "shock_hospital": 0.1},
	},
	"flu_season": {
		Name:           "flu_season",
		Description:    "Influenza season raises admissions but short-lived.",
		DurationMonths: 3,
		Modifiers:      map[string]float64{"shock_hospital": 0.18},
	},
	"industrial_action": {
		Name:           "industrial_action",
		Description:    "Workforce strike reduces capacity.",
		DurationMonths: 1,
		Modifiers:      map[string]float64{"capacity_hospital": -0.2, "capacity_community": -0.15},
	},
}

// Get looks up a catalogue shock by name.
func Get(name string) (Shock, bool) {
	s, ok := catalogue[name]
	return s, ok
}

// Names returns the catalogue names in sorted order.
func Names() []string {
	names := make([]string, 0, len(catalogue))
	for name := range catalogue {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ActiveModifiers sums modifiers across all currently active shocks.
// Simultaneous shocks combine additively; there is no interaction effect.
func ActiveModifiers(active []Shock) map[string]float64 {
	modifiers := make(map[string]float64)
	for _, s := range active {
		keys := make([]string, 0, len(s.Modifiers))
		for key := range s.Modifiers {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			modifiers[key] += s.Modifiers[key]
		}
	}
	return modifiers
}
