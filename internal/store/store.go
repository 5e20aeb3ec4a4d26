// Package store is the in-memory session/team/round store the service
// layer uses. Durable persistence is an external collaborator; this store
// implements the same record shapes behind a mutex.
package store

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"ageing-engine/internal/model"
)

var (
	ErrSessionNotFound = fmt.Errorf("session not found")
	ErrTeamNotFound    = fmt.Errorf("team not found")
	ErrDuplicateTeam   = fmt.Errorf("team name already taken")
	ErrRoundConflict   = fmt.Errorf("round already advanced")
)

// Session is one classroom game: a join code, a seed and a set of teams
// advancing in lockstep rounds.
type Session struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Code      string    `json:"code"`
	Seed      int64     `json:"seed"`
	Round     int       `json:"round"`
	CreatedAt time.Time `json:"created_at"`
	Teams     []*Team   `json:"teams"`
}

// Team owns a cohort snapshot, the pending decision set and per-policy
// active-month counters carried between rounds.
type Team struct {
	ID                 string                    `json:"id"`
	Name               string                    `json:"name"`
	Snapshot           *model.Snapshot           `json:"-"`
	Decisions          map[string]model.Decision `json:"decisions"`
	PolicyMonthsActive map[string]int            `json:"policy_months_active"`
	LastSummary        model.RoundSummary        `json:"last_summary"`
	Rounds             []RoundRecord             `json:"rounds"`
}

// RoundRecord is the persisted trace of one simulated round for one team.
type RoundRecord struct {
	Round     int                       `json:"round"`
	RunID     string                    `json:"run_id"`
	Decisions map[string]model.Decision `json:"decisions"`
	Shocks    []string                  `json:"shocks"`
	Summary   model.RoundSummary        `json:"summary"`
}

// Store is safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func New() *Store {
	return &Store{sessions: make(map[string]*Session)}
}

// CreateSession registers a new session with a short join code.
func (s *Store) CreateSession(name string, seed int64) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.New().String()
	session := &Session{
		ID:        id,
		Name:      name,
		Code:      strings.ToUpper(id[:6]),
		Seed:      seed,
		CreatedAt: time.Now().UTC(),
	}
	s.sessions[session.ID] = session
	return session
}

// Session returns a session by id.
func (s *Store) Session(id string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// SessionByCode returns a session by join code.
func (s *Store) SessionByCode(code string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	code = strings.ToUpper(code)
	for _, session := range s.sessions {
		if session.Code == code {
			return session, nil
		}
	}
	return nil, ErrSessionNotFound
}

// JoinTeam adds a team with its baseline snapshot to a session. Team names
// are unique within a session.
func (s *Store) JoinTeam(sessionID, name string, snapshot *model.Snapshot) (*Team, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	for _, t := range session.Teams {
		if t.Name == name {
			return nil, ErrDuplicateTeam
		}
	}
	team := &Team{
		ID:                 uuid.New().String(),
		Name:               name,
		Snapshot:           snapshot,
		Decisions:          make(map[string]model.Decision),
		PolicyMonthsActive: make(map[string]int),
	}
	session.Teams = append(session.Teams, team)
	return team, nil
}

// SetDecisions replaces a team's pending decision set.
func (s *Store) SetDecisions(sessionID, teamID string, decisions map[string]model.Decision) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	team, err := s.findTeam(sessionID, teamID)
	if err != nil {
		return err
	}
	team.Decisions = decisions
	return nil
}

// RoundSave is one team's completed round: the advanced snapshot, the
// updated policy counters and the round record.
type RoundSave struct {
	TeamID   string
	Snapshot *model.Snapshot
	Counters map[string]int
	Record   RoundRecord
}

// NextRound returns the round number the next advance will produce.
func (s *Store) NextRound(sessionID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return 0, ErrSessionNotFound
	}
	return session.Round + 1, nil
}

// CompleteRound persists every team's round and bumps the session round
// counter in one critical section, so a session is never left half
// advanced. The expected round number guards against two concurrent
// advances landing on the same round.
func (s *Store) CompleteRound(sessionID string, round int, saves []RoundSave) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return ErrSessionNotFound
	}
	if session.Round+1 != round {
		return fmt.Errorf("%w: round %d already recorded", ErrRoundConflict, session.Round)
	}
	teams := make([]*Team, len(saves))
	for i, save := range saves {
		team, err := s.findTeam(sessionID, save.TeamID)
		if err != nil {
			return err
		}
		teams[i] = team
	}
	for i, save := range saves {
		team := teams[i]
		team.Snapshot = save.Snapshot
		team.PolicyMonthsActive = save.Counters
		team.LastSummary = save.Record.Summary
		team.Rounds = append(team.Rounds, save.Record)
	}
	session.Round = round
	return nil
}

// Teams returns copies of the session's teams in join order. Nested maps
// are copied too, so callers may read them while a concurrent advance
// rewrites the originals.
func (s *Store) Teams(sessionID string) ([]Team, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	teams := make([]Team, 0, len(session.Teams))
	for _, t := range session.Teams {
		teams = append(teams, copyTeam(t))
	}
	return teams, nil
}

// Snapshots are replaced wholesale, never mutated in place, so the
// pointer itself is safe to share.
func copyTeam(t *Team) Team {
	out := *t
	out.Decisions = make(map[string]model.Decision, len(t.Decisions))
	for id, d := range t.Decisions {
		out.Decisions[id] = d
	}
	out.PolicyMonthsActive = make(map[string]int, len(t.PolicyMonthsActive))
	for id, m := range t.PolicyMonthsActive {
		out.PolicyMonthsActive[id] = m
	}
	if t.LastSummary != nil {
		out.LastSummary = make(model.RoundSummary, len(t.LastSummary))
		for key, v := range t.LastSummary {
			out.LastSummary[key] = v
		}
	}
	out.Rounds = append([]RoundRecord(nil), t.Rounds...)
	return out
}

func (s *Store) findTeam(sessionID, teamID string) (*Team, error) {
	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	for _, t := range session.Teams {
		if t.ID == teamID {
			return t, nil
		}
	}
	return nil, ErrTeamNotFound
}
