package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"staff-match/internal/delivery/http/middleware"
	"staff-match/internal/domain/criteria"
	"staff-match/internal/domain/entity"
	"staff-match/internal/domain/match"
	"staff-match/internal/pkg/jwt"
	"staff-match/internal/pkg/response"
	"staff-match/internal/usecase"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMatching struct {
	lastReq     usecase.MatchRequest
	result      usecase.MatchResult
	err         error
	invalidated []string
	invErr      error
}

func (f *fakeMatching) ComputeMatches(_ context.Context, req usecase.MatchRequest) (usecase.MatchResult, error) {
	f.lastReq = req
	if f.err != nil {
		return usecase.MatchResult{}, f.err
	}
	res := f.result
	res.SubjectKind = req.SubjectKind
	res.SubjectID = req.SubjectID
	return res, nil
}

func (f *fakeMatching) InvalidateSubject(_ context.Context, kind entity.Kind, id string) error {
	if f.invErr != nil {
		return f.invErr
	}
	f.invalidated = append(f.invalidated, string(kind)+"/"+id)
	return nil
}

func (f *fakeMatching) InvalidateKey(context.Context, string) error { return nil }

type fakeFeedback struct {
	lastIn    usecase.FeedbackInput
	duplicate bool
	err       error
	signal    match.AcceptanceSignal
}

func (f *fakeFeedback) RecordFeedback(_ context.Context, in usecase.FeedbackInput) (match.Feedback, bool, error) {
	f.lastIn = in
	if f.err != nil {
		return match.Feedback{}, false, f.err
	}
	return match.Feedback{ID: uuid.New(), MatchID: in.MatchID, ActorID: in.ActorID, Outcome: match.Outcome(in.Outcome), Rating: in.Rating}, f.duplicate, nil
}

func (f *fakeFeedback) Signal(_ context.Context, fp string) (match.AcceptanceSignal, error) {
	if f.err != nil {
		return match.AcceptanceSignal{}, f.err
	}
	s := f.signal
	s.Fingerprint = fp
	return s, nil
}

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

type envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newTestApp(t *testing.T, mu usecase.MatchingUsecase, fu usecase.FeedbackUsecase, tokens jwt.Service) *fiber.App {
	t.Helper()
	app := fiber.New()
	app.Use(middleware.NewErrorMiddleware(nil).Middleware())

	v1 := app.Group("/api/v1")
	if mu != nil {
		NewMatchHandler(mu).RegisterRoutes(v1)
	}
	if fu != nil {
		NewFeedbackHandler(fu).RegisterRoutes(v1, middleware.NewAuthMiddleware(tokens).Middleware())
	}
	return app
}

func do(t *testing.T, app *fiber.App, method, path string, body any, headers map[string]string) (int, envelope) {
	t.Helper()
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rdr = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rdr)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &env), string(raw))
	return resp.StatusCode, env
}

func TestMatchHandler_Compute(t *testing.T) {
	id := uuid.New()
	uc := &fakeMatching{result: usecase.MatchResult{
		Fingerprint: "fp",
		Matches: []match.Match{{
			ID:          id,
			CandidateID: "w-1",
			Rank:        1,
			TotalScore:  0.9,
			Scores:      map[criteria.Category]float64{criteria.CategorySkills: 1},
		}},
	}}
	app := newTestApp(t, uc, nil, nil)

	status, env := do(t, app, http.MethodPost, "/api/v1/jobs/job-1/matches", map[string]any{
		"force_refresh": true,
		"criteria": map[string]any{
			"top_k":  5,
			"skills": map[string]any{"weight": 0.5},
		},
	}, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, response.MessageOK, env.Message)

	assert.Equal(t, entity.KindJob, uc.lastReq.SubjectKind)
	assert.Equal(t, "job-1", uc.lastReq.SubjectID)
	assert.True(t, uc.lastReq.ForceRefresh)
	require.NotNil(t, uc.lastReq.Override)
	require.NotNil(t, uc.lastReq.Override.TopK)
	assert.Equal(t, 5, *uc.lastReq.Override.TopK)
	require.NotNil(t, uc.lastReq.Override.Skills)
	assert.InDelta(t, 0.5, *uc.lastReq.Override.Skills.Weight, 1e-9)
	assert.Nil(t, uc.lastReq.Override.Location)

	var data struct {
		SubjectKind string `json:"subject_kind"`
		Matches     []struct {
			MatchID     uuid.UUID `json:"match_id"`
			CandidateID string    `json:"candidate_id"`
			Rank        int       `json:"rank"`
		} `json:"matches"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, "job", data.SubjectKind)
	require.Len(t, data.Matches, 1)
	assert.Equal(t, id, data.Matches[0].MatchID)
	assert.Equal(t, "w-1", data.Matches[0].CandidateID)
}

func TestMatchHandler_ComputeWithoutBody(t *testing.T) {
	uc := &fakeMatching{}
	app := newTestApp(t, uc, nil, nil)

	status, env := do(t, app, http.MethodPost, "/api/v1/workers/w-9/matches", nil, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, entity.KindWorker, uc.lastReq.SubjectKind)
	assert.Nil(t, uc.lastReq.Override)

	var data struct {
		Matches []json.RawMessage `json:"matches"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.NotNil(t, data.Matches)
	assert.Empty(t, data.Matches)
}

func TestMatchHandler_RejectsInvalidCriteria(t *testing.T) {
	uc := &fakeMatching{}
	app := newTestApp(t, uc, nil, nil)

	status, env := do(t, app, http.MethodPost, "/api/v1/jobs/j/matches", map[string]any{
		"criteria": map[string]any{"location": map[string]any{"weight": 1.5}},
	}, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, string(env.Data), "location.weight")
	assert.Empty(t, uc.lastReq.SubjectID)
}

func TestMatchHandler_ErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"not found", usecase.ErrNotFound, http.StatusNotFound},
		{"invalid", usecase.ErrInvalidInput, http.StatusBadRequest},
		{"configuration", &criteria.ConfigurationError{Field: "top_k", Reason: "bad"}, http.StatusBadRequest},
		{"cache", usecase.ErrCacheUnavailable, http.StatusServiceUnavailable},
		{"timeout", usecase.ErrPersistenceTimeout, http.StatusGatewayTimeout},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := newTestApp(t, &fakeMatching{err: tc.err}, nil, nil)
			status, env := do(t, app, http.MethodPost, "/api/v1/jobs/j/matches", nil, nil)
			assert.Equal(t, tc.status, status)
			assert.Equal(t, tc.status, env.Status)
		})
	}
}

func TestMatchHandler_Invalidate(t *testing.T) {
	uc := &fakeMatching{}
	app := newTestApp(t, uc, nil, nil)

	status, _ := do(t, app, http.MethodDelete, "/api/v1/workers/w-1/matches/cache", nil, nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, []string{"worker/w-1"}, uc.invalidated)

	uc.invErr = usecase.ErrCacheUnavailable
	status, _ = do(t, app, http.MethodDelete, "/api/v1/workers/w-1/matches/cache", nil, nil)
	assert.Equal(t, http.StatusServiceUnavailable, status)
}

func TestFeedbackHandler_Submit(t *testing.T) {
	tokens := jwt.NewHMACService("secret", time.Minute, "")
	tok, err := tokens.GenerateAccessToken("recruiter-1", "recruiter")
	require.NoError(t, err)
	auth := map[string]string{"Authorization": "Bearer " + tok}

	fu := &fakeFeedback{}
	app := newTestApp(t, nil, fu, tokens)
	matchID := uuid.New()
	path := "/api/v1/matches/" + matchID.String() + "/feedback"

	status, _ := do(t, app, http.MethodPost, path, map[string]any{"outcome": "accept", "rating": 4}, nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, env := do(t, app, http.MethodPost, path, map[string]any{"outcome": "accept", "rating": 4}, auth)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "recruiter-1", fu.lastIn.ActorID)
	assert.Equal(t, matchID, fu.lastIn.MatchID)
	require.NotNil(t, fu.lastIn.Rating)
	assert.Equal(t, 4, *fu.lastIn.Rating)
	assert.Contains(t, string(env.Data), `"duplicate":false`)

	fu.duplicate = true
	status, env = do(t, app, http.MethodPost, path, map[string]any{"outcome": "accept"}, auth)
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(env.Data), `"duplicate":true`)

	status, _ = do(t, app, http.MethodPost, path, map[string]any{"outcome": "maybe"}, auth)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = do(t, app, http.MethodPost, path, map[string]any{"outcome": "reject", "rating": 9}, auth)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = do(t, app, http.MethodPost, "/api/v1/matches/not-a-uuid/feedback", map[string]any{"outcome": "accept"}, auth)
	assert.Equal(t, http.StatusBadRequest, status)

	fu.err = usecase.ErrMatchNotFound
	status, _ = do(t, app, http.MethodPost, path, map[string]any{"outcome": "accept"}, auth)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestFeedbackHandler_Signal(t *testing.T) {
	fu := &fakeFeedback{signal: match.NewAcceptanceSignal("", 3, 1)}
	app := newTestApp(t, nil, fu, jwt.NewHMACService("secret", time.Minute, ""))

	status, env := do(t, app, http.MethodGet, "/api/v1/feedback/signals/abc", nil, nil)
	require.Equal(t, http.StatusOK, status)

	var s match.AcceptanceSignal
	require.NoError(t, json.Unmarshal(env.Data, &s))
	assert.Equal(t, "abc", s.Fingerprint)
	assert.Equal(t, 3, s.Accepts)
	assert.InDelta(t, 0.75, s.AcceptanceRate, 1e-9)
}

func TestHealthHandler(t *testing.T) {
	up := pingerFunc(func(context.Context) error { return nil })
	down := pingerFunc(func(context.Context) error { return errors.New("refused") })

	app := fiber.New()
	NewHealthHandler(map[string]Pinger{"database": up, "cache": up}).RegisterRoutes(app)
	status, env := do(t, app, http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(env.Data), `"database":"up"`)

	app = fiber.New()
	NewHealthHandler(map[string]Pinger{"database": up, "cache": down}).RegisterRoutes(app)
	status, env = do(t, app, http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Contains(t, string(env.Data), `"cache":"down"`)
}
