package shock

import (
	"math"
	"testing"
)

func TestGetKnownShock(t *testing.T) {
	s, ok := Get("flu_season")
	if !ok {
		t.Fatal("expected flu_season in the catalogue")
	}
	if s.Modifiers["shock_hospital"] != 0.18 {
		t.Fatalf("expected shock_hospital 0.18, got %v", s.Modifiers["shock_hospital"])
	}
}

func TestGetUnknownShock(t *testing.T) {
	if _, ok := Get("asteroid"); ok {
		t.Fatal("unexpected catalogue entry for unknown shock")
	}
}

func TestActiveModifiersSumAdditively(t *testing.T) {
	heat, _ := Get("heatwave")
	cold, _ := Get("cold_snap")
	mods := ActiveModifiers([]Shock{heat, cold})
	if math.Abs(mods["shock_hospital"]-0.35) > 1e-12 {
		t.Fatalf("expected shock_hospital 0.35, got %v", mods["shock_hospital"])
	}
	if math.Abs(mods["shock_mortality"]-0.35) > 1e-12 {
		t.Fatalf("expected shock_mortality 0.35, got %v", mods["shock_mortality"])
	}
}

func TestActiveModifiersEmpty(t *testing.T) {
	if mods := ActiveModifiers(nil); len(mods) != 0 {
		t.Fatalf("expected empty modifiers, got %v", mods)
	}
}

func TestCapacityKeysCarriedThrough(t *testing.T) {
	strike, _ := Get("industrial_action")
	mods := ActiveModifiers([]Shock{strike})
	if mods["capacity_hospital"] != -0.2 {
		t.Fatalf("expected capacity_hospital -0.2, got %v", mods["capacity_hospital"])
	}
	if mods["capacity_community"] != -0.15 {
		t.Fatalf("expected capacity_community -0.15, got %v", mods["capacity_community"])
	}
}
