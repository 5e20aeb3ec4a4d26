package handler

import (
	"testing"

	json "github.com/goccy/go-json"
	"github.com/valyala/fasthttp"

	"ageing-engine/internal/config"
	"ageing-engine/internal/model"
	"ageing-engine/internal/store"
)

func testHandler() *Handler {
	bundle := config.Default()
	bundle.Baseline.CohortSize = 200
	return New(bundle, store.New())
}

func do(t *testing.T, h *Handler, method, uri string, body any) *fasthttp.RequestCtx {
	t.Helper()
	ctx := &fasthttp.RequestCtx{}
	ctx.Request.Header.SetMethod(method)
	ctx.Request.SetRequestURI(uri)
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		ctx.Request.SetBody(payload)
	}
	h.Handle(ctx)
	return ctx
}

func decode(t *testing.T, ctx *fasthttp.RequestCtx, out any) {
	t.Helper()
	if err := json.Unmarshal(ctx.Response.Body(), out); err != nil {
		t.Fatalf("decode response %q: %v", ctx.Response.Body(), err)
	}
}

func TestHealthz(t *testing.T) {
	h := testHandler()
	ctx := do(t, h, fasthttp.MethodGet, "/healthz", nil)
	if ctx.Response.StatusCode() != fasthttp.StatusOK {
		t.Fatalf("expected 200, got %d", ctx.Response.StatusCode())
	}
}

func TestUnknownRoute(t *testing.T) {
	h := testHandler()
	ctx := do(t, h, fasthttp.MethodGet, "/nope", nil)
	if ctx.Response.StatusCode() != fasthttp.StatusNotFound {
		t.Fatalf("expected 404, got %d", ctx.Response.StatusCode())
	}
}

func TestSessionLifecycle(t *testing.T) {
	h := testHandler()

	ctx := do(t, h, fasthttp.MethodPost, "/sessions", map[string]any{"name": "demo", "seed": 42})
	if ctx.Response.StatusCode() != fasthttp.StatusOK {
		t.Fatalf("create session: expected 200, got %d: %s", ctx.Response.StatusCode(), ctx.Response.Body())
	}
	var created struct {
		SessionID string `json:"session_id"`
		Code      string `json:"code"`
	}
	decode(t, ctx, &created)
	if created.SessionID == "" || created.Code == "" {
		t.Fatalf("incomplete create response: %+v", created)
	}

	ctx = do(t, h, fasthttp.MethodPost, "/sessions/join", map[string]any{"code": created.Code, "team_name": "red"})
	if ctx.Response.StatusCode() != fasthttp.StatusOK {
		t.Fatalf("join: expected 200, got %d: %s", ctx.Response.StatusCode(), ctx.Response.Body())
	}
	var joined struct {
		SessionID  string `json:"session_id"`
		TeamID     string `json:"team_id"`
		CohortSize int    `json:"cohort_size"`
	}
	decode(t, ctx, &joined)
	if joined.CohortSize != 200 {
		t.Fatalf("expected a 200-person cohort, got %d", joined.CohortSize)
	}

	// Duplicate team names are rejected.
	ctx = do(t, h, fasthttp.MethodPost, "/sessions/join", map[string]any{"code": created.Code, "team_name": "red"})
	if ctx.Response.StatusCode() != fasthttp.StatusConflict {
		t.Fatalf("expected 409, got %d", ctx.Response.StatusCode())
	}

	ctx = do(t, h, fasthttp.MethodPost, "/sessions/join", map[string]any{"code": "ZZZZZZ", "team_name": "blue"})
	if ctx.Response.StatusCode() != fasthttp.StatusNotFound {
		t.Fatalf("expected 404 for unknown code, got %d", ctx.Response.StatusCode())
	}
}

func TestDecisionsBudgetEnforced(t *testing.T) {
	h := testHandler()
	h.bundle.Policies.RoundBudgetGBP = 1000

	created := h.store.CreateSession("demo", 42)
	ctx := do(t, h, fasthttp.MethodPost, "/sessions/join", map[string]any{"code": created.Code, "team_name": "red"})
	var joined struct {
		TeamID string `json:"team_id"`
	}
	decode(t, ctx, &joined)

	// falls_prevention at full intensity and coverage costs 12 * 200 = 2400.
	ctx = do(t, h, fasthttp.MethodPost, "/decisions", map[string]any{
		"session_id": created.ID,
		"team_id":    joined.TeamID,
		"decisions":  map[string]model.Decision{"falls_prevention": {Intensity: 1, Coverage: 1}},
	})
	if ctx.Response.StatusCode() != fasthttp.StatusUnprocessableEntity {
		t.Fatalf("expected 422 over budget, got %d: %s", ctx.Response.StatusCode(), ctx.Response.Body())
	}

	ctx = do(t, h, fasthttp.MethodPost, "/decisions", map[string]any{
		"session_id": created.ID,
		"team_id":    joined.TeamID,
		"decisions":  map[string]model.Decision{"falls_prevention": {Intensity: 0.2, Coverage: 0.5}},
	})
	if ctx.Response.StatusCode() != fasthttp.StatusOK {
		t.Fatalf("expected 200, got %d: %s", ctx.Response.StatusCode(), ctx.Response.Body())
	}
	var accepted struct {
		Accepted bool    `json:"accepted"`
		CostGBP  float64 `json:"cost_gbp"`
	}
	decode(t, ctx, &accepted)
	if !accepted.Accepted || accepted.CostGBP <= 0 {
		t.Fatalf("unexpected acceptance payload: %+v", accepted)
	}

	ctx = do(t, h, fasthttp.MethodPost, "/decisions", map[string]any{
		"session_id": created.ID,
		"team_id":    joined.TeamID,
		"decisions":  map[string]model.Decision{"free_lunch": {Intensity: 1, Coverage: 1}},
	})
	if ctx.Response.StatusCode() != fasthttp.StatusBadRequest {
		t.Fatalf("expected 400 for unknown policy, got %d", ctx.Response.StatusCode())
	}
}

func TestAdvanceRoundAndLeaderboard(t *testing.T) {
	h := testHandler()
	created := h.store.CreateSession("demo", 42)

	var teams []string
	for _, name := range []string{"red", "blue"} {
		ctx := do(t, h, fasthttp.MethodPost, "/sessions/join", map[string]any{"code": created.Code, "team_name": name})
		var joined struct {
			TeamID string `json:"team_id"`
		}
		decode(t, ctx, &joined)
		teams = append(teams, joined.TeamID)
	}
	do(t, h, fasthttp.MethodPost, "/decisions", map[string]any{
		"session_id": created.ID,
		"team_id":    teams[0],
		"decisions":  map[string]model.Decision{"falls_prevention": {Intensity: 0.8, Coverage: 0.6}},
	})

	ctx := do(t, h, fasthttp.MethodPost, "/advance", map[string]any{
		"session_id": created.ID,
		"months":     3,
		"shocks":     []string{"flu_season"},
	})
	if ctx.Response.StatusCode() != fasthttp.StatusOK {
		t.Fatalf("advance: expected 200, got %d: %s", ctx.Response.StatusCode(), ctx.Response.Body())
	}
	var advanced struct {
		Round       int               `json:"round"`
		Leaderboard []model.ScoredRow `json:"leaderboard"`
	}
	decode(t, ctx, &advanced)
	if advanced.Round != 1 {
		t.Fatalf("expected round 1, got %d", advanced.Round)
	}
	if len(advanced.Leaderboard) != 2 {
		t.Fatalf("expected two leaderboard rows, got %d", len(advanced.Leaderboard))
	}
	if advanced.Leaderboard[0].Rank != 1 || advanced.Leaderboard[1].Rank != 2 {
		t.Fatalf("leaderboard not ranked: %+v", advanced.Leaderboard)
	}

	ctx = do(t, h, fasthttp.MethodGet, "/leaderboard?session_id="+created.ID, nil)
	if ctx.Response.StatusCode() != fasthttp.StatusOK {
		t.Fatalf("leaderboard: expected 200, got %d", ctx.Response.StatusCode())
	}
	var board struct {
		Leaderboard []model.ScoredRow `json:"leaderboard"`
	}
	decode(t, ctx, &board)
	if len(board.Leaderboard) != 2 {
		t.Fatalf("expected two rows after the round, got %d", len(board.Leaderboard))
	}
}

func TestAdvanceFailureLeavesSessionUntouched(t *testing.T) {
	h := testHandler()
	created := h.store.CreateSession("demo", 42)
	ctx := do(t, h, fasthttp.MethodPost, "/sessions/join", map[string]any{"code": created.Code, "team_name": "red"})
	var joined struct {
		TeamID string `json:"team_id"`
	}
	decode(t, ctx, &joined)
	// A second team whose snapshot is missing columns fails its run.
	if _, err := h.store.JoinTeam(created.ID, "broken", &model.Snapshot{Columns: map[string][]float64{model.ColAge: {70}}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx = do(t, h, fasthttp.MethodPost, "/advance", map[string]any{"session_id": created.ID, "months": 1})
	if ctx.Response.StatusCode() != fasthttp.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", ctx.Response.StatusCode())
	}

	session, err := h.store.Session(created.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if session.Round != 0 {
		t.Fatalf("failed advance must not bump the round, got %d", session.Round)
	}
	teams, err := h.store.Teams(created.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, team := range teams {
		if len(team.Rounds) != 0 || team.LastSummary != nil {
			t.Fatalf("failed advance must not persist rounds for %s", team.Name)
		}
	}
}

func TestAdvanceUnknownShock(t *testing.T) {
	h := testHandler()
	created := h.store.CreateSession("demo", 1)
	do(t, h, fasthttp.MethodPost, "/sessions/join", map[string]any{"code": created.Code, "team_name": "red"})

	ctx := do(t, h, fasthttp.MethodPost, "/advance", map[string]any{
		"session_id": created.ID,
		"months":     1,
		"shocks":     []string{"meteor"},
	})
	if ctx.Response.StatusCode() != fasthttp.StatusBadRequest {
		t.Fatalf("expected 400, got %d", ctx.Response.StatusCode())
	}
}

func TestAdvanceWithoutTeams(t *testing.T) {
	h := testHandler()
	created := h.store.CreateSession("demo", 1)
	ctx := do(t, h, fasthttp.MethodPost, "/advance", map[string]any{"session_id": created.ID, "months": 1})
	if ctx.Response.StatusCode() != fasthttp.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", ctx.Response.StatusCode())
	}
}
