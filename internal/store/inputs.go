package store

import "ageing-engine/internal/model"

// RoundInput is one team's inputs for a round advance, copied out under
// the lock so concurrent simulation never shares mutable state.
type RoundInput struct {
	TeamID             string
	TeamName           string
	Snapshot           *model.Snapshot
	Decisions          map[string]model.Decision
	PolicyMonthsActive map[string]int
}

// RoundInputs captures every team's current snapshot, decisions and policy
// counters for a session.
func (s *Store) RoundInputs(sessionID string) ([]RoundInput, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	inputs := make([]RoundInput, 0, len(session.Teams))
	for _, t := range session.Teams {
		decisions := make(map[string]model.Decision, len(t.Decisions))
		for id, d := range t.Decisions {
			decisions[id] = d
		}
		counters := make(map[string]int, len(t.PolicyMonthsActive))
		for id, m := range t.PolicyMonthsActive {
			counters[id] = m
		}
		inputs = append(inputs, RoundInput{
			TeamID:             t.ID,
			TeamName:           t.Name,
			Snapshot:           t.Snapshot,
			Decisions:          decisions,
			PolicyMonthsActive: counters,
		})
	}
	return inputs, nil
}
