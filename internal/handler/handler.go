// Package handler exposes the session and round flow over fasthttp.
// Budget enforcement lives here, at the boundary, not in the engine.
package handler

import (
	"errors"
	"hash/fnv"
	"sync"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
	"github.com/valyala/fasthttp"

	"ageing-engine/internal/baseline"
	"ageing-engine/internal/config"
	"ageing-engine/internal/engine"
	"ageing-engine/internal/model"
	"ageing-engine/internal/policy"
	"ageing-engine/internal/scoring"
	"ageing-engine/internal/shock"
	"ageing-engine/internal/store"
)

// Handler routes the service endpoints.
type Handler struct {
	bundle *config.Bundle
	store  *store.Store
}

func New(bundle *config.Bundle, st *store.Store) *Handler {
	return &Handler{bundle: bundle, store: st}
}

// Handle is the fasthttp entry point.
func (h *Handler) Handle(ctx *fasthttp.RequestCtx) {
	path := string(ctx.Path())
	method := string(ctx.Method())

	switch {
	case path == "/healthz" && method == fasthttp.MethodGet:
		writeJSON(ctx, fasthttp.StatusOK, map[string]string{"status": "ok"})
	case path == "/sessions" && method == fasthttp.MethodPost:
		h.createSession(ctx)
	case path == "/sessions/join" && method == fasthttp.MethodPost:
		h.joinSession(ctx)
	case path == "/decisions" && method == fasthttp.MethodPost:
		h.submitDecisions(ctx)
	case path == "/advance" && method == fasthttp.MethodPost:
		h.advanceRound(ctx)
	case path == "/leaderboard" && method == fasthttp.MethodGet:
		h.leaderboard(ctx)
	default:
		writeError(ctx, fasthttp.StatusNotFound, "no such route")
	}
}

type errorResponse struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}

type createSessionRequest struct {
	Name string `json:"name"`
	Seed int64  `json:"seed"`
}

func (h *Handler) createSession(ctx *fasthttp.RequestCtx) {
	var req createSessionRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		writeError(ctx, fasthttp.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Seed == 0 {
		req.Seed = 1234
	}
	session := h.store.CreateSession(req.Name, req.Seed)
	log.Info().Str("session_id", session.ID).Str("code", session.Code).Msg("session created")
	writeJSON(ctx, fasthttp.StatusOK, map[string]string{
		"session_id": session.ID,
		"code":       session.Code,
	})
}

type joinRequest struct {
	Code     string `json:"code"`
	TeamName string `json:"team_name"`
}

func (h *Handler) joinSession(ctx *fasthttp.RequestCtx) {
	var req joinRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		writeError(ctx, fasthttp.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.TeamName == "" {
		writeError(ctx, fasthttp.StatusBadRequest, "team_name is required")
		return
	}
	session, err := h.store.SessionByCode(req.Code)
	if err != nil {
		writeError(ctx, fasthttp.StatusNotFound, err.Error())
		return
	}
	cohort := baseline.Synthesise(&h.bundle.Baseline, teamSeed(session.Seed, req.TeamName))
	team, err := h.store.JoinTeam(session.ID, req.TeamName, cohort.Snapshot())
	if err != nil {
		writeError(ctx, fasthttp.StatusConflict, err.Error())
		return
	}
	log.Info().Str("session_id", session.ID).Str("team", req.TeamName).Msg("team joined")
	writeJSON(ctx, fasthttp.StatusOK, map[string]any{
		"session_id":  session.ID,
		"team_id":     team.ID,
		"cohort_size": cohort.Size(),
	})
}

type decisionsRequest struct {
	SessionID string                    `json:"session_id"`
	TeamID    string                    `json:"team_id"`
	Decisions map[string]model.Decision `json:"decisions"`
}

func (h *Handler) submitDecisions(ctx *fasthttp.RequestCtx) {
	var req decisionsRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		writeError(ctx, fasthttp.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	cost, err := policy.Cost(&h.bundle.Policies, req.Decisions, h.bundle.Baseline.CohortSize)
	if err != nil {
		writeError(ctx, fasthttp.StatusBadRequest, err.Error())
		return
	}
	if policy.OverBudget(cost, h.bundle.Policies.RoundBudgetGBP) {
		writeError(ctx, fasthttp.StatusUnprocessableEntity, "decision set exceeds round budget")
		return
	}
	if err := h.store.SetDecisions(req.SessionID, req.TeamID, req.Decisions); err != nil {
		writeError(ctx, fasthttp.StatusNotFound, err.Error())
		return
	}
	costGBP, _ := cost.Float64()
	writeJSON(ctx, fasthttp.StatusOK, map[string]any{
		"accepted": true,
		"cost_gbp": costGBP,
	})
}

type advanceRequest struct {
	SessionID string   `json:"session_id"`
	Months    int      `json:"months"`
	Shocks    []string `json:"shocks"`
}

type teamRoundOutcome struct {
	input  store.RoundInput
	result *engine.RoundResult
	err    error
}

func (h *Handler) advanceRound(ctx *fasthttp.RequestCtx) {
	var req advanceRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		writeError(ctx, fasthttp.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Months <= 0 {
		req.Months = 12
	}
	session, err := h.store.Session(req.SessionID)
	if err != nil {
		writeError(ctx, fasthttp.StatusNotFound, err.Error())
		return
	}

	shocks := make([]shock.Shock, 0, len(req.Shocks))
	for _, name := range req.Shocks {
		s, ok := shock.Get(name)
		if !ok {
			writeError(ctx, fasthttp.StatusBadRequest, "unknown shock: "+name)
			return
		}
		shocks = append(shocks, s)
	}

	inputs, err := h.store.RoundInputs(req.SessionID)
	if err != nil {
		writeError(ctx, fasthttp.StatusNotFound, err.Error())
		return
	}
	if len(inputs) == 0 {
		writeError(ctx, fasthttp.StatusUnprocessableEntity, "session has no teams")
		return
	}

	round, err := h.store.NextRound(req.SessionID)
	if err != nil {
		writeError(ctx, fasthttp.StatusNotFound, err.Error())
		return
	}

	// Team runs are disjoint, so one goroutine per team is safe.
	outcomes := make([]teamRoundOutcome, len(inputs))
	var wg sync.WaitGroup
	for i, input := range inputs {
		wg.Add(1)
		go func(i int, input store.RoundInput) {
			defer wg.Done()
			outcomes[i] = h.runTeamRound(input, req.Months, shocks, session.Seed, round)
		}(i, input)
	}
	wg.Wait()

	// Persist nothing until every team's run succeeded; a failed round
	// leaves the session exactly where it was.
	saves := make([]store.RoundSave, 0, len(outcomes))
	rows := make([]model.TeamMetrics, 0, len(outcomes))
	for _, out := range outcomes {
		if out.err != nil {
			log.Error().Err(out.err).Str("team", out.input.TeamName).Msg("round failed")
			writeError(ctx, fasthttp.StatusInternalServerError, out.err.Error())
			return
		}
		saves = append(saves, store.RoundSave{
			TeamID:   out.input.TeamID,
			Snapshot: out.result.Cohort.Snapshot(),
			Counters: out.result.PolicyMonthsActive,
			Record: store.RoundRecord{
				Round:     round,
				RunID:     out.result.RunID,
				Decisions: out.input.Decisions,
				Shocks:    req.Shocks,
				Summary:   out.result.Summary,
			},
		})
		rows = append(rows, metricsRow(out.input.TeamName, out.result.Summary))
	}
	if err := h.store.CompleteRound(req.SessionID, round, saves); err != nil {
		status := fasthttp.StatusInternalServerError
		if errors.Is(err, store.ErrRoundConflict) {
			status = fasthttp.StatusConflict
		}
		writeError(ctx, status, err.Error())
		return
	}

	scored := scoring.ScoreRound(rows, h.bundle.Scoring)
	log.Info().Str("session_id", req.SessionID).Int("round", round).Int("teams", len(rows)).Msg("round advanced")
	writeJSON(ctx, fasthttp.StatusOK, map[string]any{
		"round":       round,
		"leaderboard": scored,
	})
}

func (h *Handler) runTeamRound(input store.RoundInput, months int, shocks []shock.Shock, sessionSeed int64, round int) teamRoundOutcome {
	cohort, err := model.FromSnapshot(input.Snapshot)
	if err != nil {
		return teamRoundOutcome{input: input, err: err}
	}
	result, err := engine.SimulateRound(h.bundle, engine.RoundRequest{
		Cohort:             cohort,
		Months:             months,
		Decisions:          input.Decisions,
		Shocks:             shocks,
		Seed:               roundSeed(sessionSeed, input.TeamName, round),
		PolicyMonthsActive: input.PolicyMonthsActive,
	})
	return teamRoundOutcome{input: input, result: result, err: err}
}

func (h *Handler) leaderboard(ctx *fasthttp.RequestCtx) {
	sessionID := string(ctx.QueryArgs().Peek("session_id"))
	teams, err := h.store.Teams(sessionID)
	if err != nil {
		writeError(ctx, fasthttp.StatusNotFound, err.Error())
		return
	}
	rows := make([]model.TeamMetrics, 0, len(teams))
	for _, t := range teams {
		if t.LastSummary == nil {
			continue
		}
		rows = append(rows, metricsRow(t.Name, t.LastSummary))
	}
	writeJSON(ctx, fasthttp.StatusOK, map[string]any{
		"leaderboard": scoring.ScoreRound(rows, h.bundle.Scoring),
	})
}

func metricsRow(team string, summary model.RoundSummary) model.TeamMetrics {
	return model.TeamMetrics{
		Team:     team,
		Health:   summary[model.SummaryHealthValue],
		Cost:     summary[model.SummaryCostValue],
		Capacity: summary[model.SummaryCapacityValue],
		Equity:   summary[model.SummaryEquityValue],
	}
}

// teamSeed derives a stable baseline seed from the session seed and team
// name, so a rebuilt session reproduces identical cohorts.
func teamSeed(sessionSeed int64, teamName string) int64 {
	h := fnv.New32a()
	h.Write([]byte(teamName))
	return sessionSeed + int64(h.Sum32())
}

func roundSeed(sessionSeed int64, teamName string, round int) int64 {
	return teamSeed(sessionSeed, teamName) + int64(round)*7919
}

func writeJSON(ctx *fasthttp.RequestCtx, status int, payload any) {
	ctx.SetStatusCode(status)
	ctx.SetContentType("application/json")
	body, err := json.Marshal(payload)
	if err != nil {
		ctx.SetStatusCode(fasthttp.StatusInternalServerError)
		return
	}
	ctx.SetBody(body)
}

func writeError(ctx *fasthttp.RequestCtx, status int, message string) {
	writeJSON(ctx, status, errorResponse{Status: status, Message: message})
}
