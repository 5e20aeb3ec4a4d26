package store

import (
	"errors"
	"testing"

	"ageing-engine/internal/model"
)

func testSnapshot() *model.Snapshot {
	return &model.Snapshot{Columns: map[string][]float64{model.ColAge: {70, 80}}}
}

func TestCreateSessionCode(t *testing.T) {
	s := New()
	session := s.CreateSession("demo", 42)
	if session.ID == "" {
		t.Fatal("expected a session id")
	}
	if len(session.Code) != 6 {
		t.Fatalf("expected a 6-char join code, got %q", session.Code)
	}
	if session.Round != 0 {
		t.Fatalf("expected round 0, got %d", session.Round)
	}

	byCode, err := s.SessionByCode(session.Code)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if byCode.ID != session.ID {
		t.Fatal("lookup by code returned a different session")
	}
	if _, err := s.SessionByCode("NOPE01"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestJoinTeamUniqueNames(t *testing.T) {
	s := New()
	session := s.CreateSession("demo", 1)

	team, err := s.JoinTeam(session.ID, "red", testSnapshot())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if team.ID == "" {
		t.Fatal("expected a team id")
	}
	if _, err := s.JoinTeam(session.ID, "red", testSnapshot()); !errors.Is(err, ErrDuplicateTeam) {
		t.Fatalf("expected ErrDuplicateTeam, got %v", err)
	}
	if _, err := s.JoinTeam("missing", "blue", testSnapshot()); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestSetDecisionsAndRoundInputs(t *testing.T) {
	s := New()
	session := s.CreateSession("demo", 1)
	team, _ := s.JoinTeam(session.ID, "red", testSnapshot())

	decisions := map[string]model.Decision{"falls_prevention": {Intensity: 0.5, Coverage: 1}}
	if err := s.SetDecisions(session.ID, team.ID, decisions); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.SetDecisions(session.ID, "missing", decisions); !errors.Is(err, ErrTeamNotFound) {
		t.Fatalf("expected ErrTeamNotFound, got %v", err)
	}

	inputs, err := s.RoundInputs(session.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(inputs) != 1 {
		t.Fatalf("expected one input, got %d", len(inputs))
	}
	if inputs[0].Decisions["falls_prevention"].Intensity != 0.5 {
		t.Fatal("decisions not captured")
	}

	// The captured maps are copies, not views into the team record.
	inputs[0].Decisions["falls_prevention"] = model.Decision{Intensity: 1, Coverage: 1}
	again, _ := s.RoundInputs(session.ID)
	if again[0].Decisions["falls_prevention"].Intensity != 0.5 {
		t.Fatal("round inputs share state with the store")
	}
}

func testSave(teamID string, round int) RoundSave {
	return RoundSave{
		TeamID:   teamID,
		Snapshot: &model.Snapshot{Columns: map[string][]float64{model.ColAge: {70.25, 80.25}}, MonthsElapsed: 3 * round},
		Counters: map[string]int{"falls_prevention": 3 * round},
		Record: RoundRecord{
			Round:   round,
			RunID:   "run-1",
			Shocks:  []string{"flu_season"},
			Summary: model.RoundSummary{"deaths_total": 2},
		},
	}
}

func TestCompleteRound(t *testing.T) {
	s := New()
	session := s.CreateSession("demo", 1)
	team, _ := s.JoinTeam(session.ID, "red", testSnapshot())

	round, err := s.NextRound(session.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if round != 1 {
		t.Fatalf("expected next round 1, got %d", round)
	}
	if err := s.CompleteRound(session.ID, round, []RoundSave{testSave(team.ID, round)}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := s.Session(session.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Round != 1 {
		t.Fatalf("expected round counter 1, got %d", got.Round)
	}

	teams, err := s.Teams(session.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	first := teams[0]
	if first.Snapshot.MonthsElapsed != 3 {
		t.Fatal("snapshot not replaced")
	}
	if first.PolicyMonthsActive["falls_prevention"] != 3 {
		t.Fatal("policy counters not replaced")
	}
	if first.LastSummary["deaths_total"] != 2 {
		t.Fatal("last summary not recorded")
	}
	if len(first.Rounds) != 1 || first.Rounds[0].RunID != "run-1" {
		t.Fatal("round record not appended")
	}
}

func TestCompleteRoundConflict(t *testing.T) {
	s := New()
	session := s.CreateSession("demo", 1)
	team, _ := s.JoinTeam(session.ID, "red", testSnapshot())

	if err := s.CompleteRound(session.ID, 1, []RoundSave{testSave(team.ID, 1)}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// A second advance that also observed round 1 must be rejected.
	if err := s.CompleteRound(session.ID, 1, []RoundSave{testSave(team.ID, 1)}); !errors.Is(err, ErrRoundConflict) {
		t.Fatalf("expected ErrRoundConflict, got %v", err)
	}
}

func TestCompleteRoundUnknownTeamSavesNothing(t *testing.T) {
	s := New()
	session := s.CreateSession("demo", 1)
	team, _ := s.JoinTeam(session.ID, "red", testSnapshot())

	saves := []RoundSave{testSave(team.ID, 1), testSave("missing", 1)}
	if err := s.CompleteRound(session.ID, 1, saves); !errors.Is(err, ErrTeamNotFound) {
		t.Fatalf("expected ErrTeamNotFound, got %v", err)
	}

	got, _ := s.Session(session.ID)
	if got.Round != 0 {
		t.Fatalf("failed save must not bump the round, got %d", got.Round)
	}
	teams, _ := s.Teams(session.ID)
	if len(teams[0].Rounds) != 0 || teams[0].LastSummary != nil {
		t.Fatal("failed save must not persist any team's round")
	}
}

func TestTeamsCopiesAreRaceFree(t *testing.T) {
	s := New()
	session := s.CreateSession("demo", 1)
	team, _ := s.JoinTeam(session.ID, "red", testSnapshot())

	done := make(chan struct{})
	go func() {
		defer close(done)
		for round := 1; round <= 200; round++ {
			if err := s.CompleteRound(session.ID, round, []RoundSave{testSave(team.ID, round)}); err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
		}
	}()

	for {
		teams, err := s.Teams(session.ID)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if teams[0].LastSummary != nil && teams[0].LastSummary["deaths_total"] != 2 {
			t.Fatalf("unexpected summary under concurrent writes: %v", teams[0].LastSummary)
		}
		select {
		case <-done:
			return
		default:
		}
	}
}
