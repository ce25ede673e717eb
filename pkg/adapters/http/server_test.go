package http

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/ingest"
	"github.com/aretw0/ingest/pkg/domain"
)

func newTestHandler(t *testing.T, opts ...Option) (http.Handler, *StreamManager) {
	t.Helper()
	streams := NewStreamManager(nil)
	w := ingest.New(ingest.WithChangeListener(streams.OnChange))
	return NewHandler(w, append([]Option{WithStreams(streams)}, opts...)...), streams
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestGetHealth(t *testing.T) {
	h, _ := newTestHandler(t)
	rr := do(t, h, "GET", "/health", nil)

	assert.Equal(t, http.StatusOK, rr.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp["status"])
}

func TestGetInfo(t *testing.T) {
	h, _ := newTestHandler(t)
	rr := do(t, h, "GET", "/info", nil)

	assert.Equal(t, http.StatusOK, rr.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "ingest-http", resp["app"])
	assert.Equal(t, ingest.Version, resp["version"])
	assert.Equal(t, "1.0.0", resp["api_version"])
}

func TestOpenAPIDocument(t *testing.T) {
	doc, err := GetSwagger()
	require.NoError(t, err)

	h, _ := newTestHandler(t)
	rr := do(t, h, "GET", "/openapi.yaml", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "openapi: 3.0.3")

	// Every API route is documented.
	s := &Server{Wizard: ingest.New(), Streams: NewStreamManager(nil)}
	router, ok := s.Routes().(chi.Routes)
	require.True(t, ok)
	undocumented := map[string]bool{"/openapi.yaml": true, "/swagger": true}
	err = chi.Walk(router, func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		route = strings.TrimSuffix(route, "/")
		if undocumented[route] {
			return nil
		}
		item := doc.Paths.Find(route)
		if assert.NotNil(t, item, "route %s is not documented", route) {
			assert.NotNil(t, item.GetOperation(method), "%s %s is not documented", method, route)
		}
		return nil
	})
	require.NoError(t, err)
}

func TestWizardRoundTrip(t *testing.T) {
	h, _ := newTestHandler(t, WithDefaults(domain.Configuration{Namespace: "web"}))

	rr := do(t, h, "POST", "/sessions", StartRequest{SessionID: "s1"})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var state domain.WizardState
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &state))
	assert.Equal(t, "web:1", state.Objects[0].ID)

	rr = do(t, h, "POST", "/sessions", StartRequest{SessionID: "s1"})
	assert.Equal(t, http.StatusOK, rr.Code, "restarting returns the existing session")

	rr = do(t, h, "GET", "/sessions/s1/render", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var step domain.RenderableStep
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &step))
	assert.Equal(t, 2, step.Total)
	require.NotNil(t, step.Form)

	rr = do(t, h, "POST", "/sessions/s1/submit", SubmitRequest{Control: "next", Values: map[string]any{"label": ""}})
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	var errResp ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &errResp))
	assert.Contains(t, errResp.Fields, "label")

	rr = do(t, h, "POST", "/sessions/s1/submit", SubmitRequest{Control: "next", Values: map[string]any{"label": "Report"}})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = do(t, h, "POST", "/sessions/s1/submit", SubmitRequest{Control: "ingest", Values: map[string]any{"content": "body"}})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var res ingest.SubmitResult
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &res))
	require.NotNil(t, res.Result)
	require.Len(t, res.Result.Persisted, 1)
	assert.Equal(t, "Report", res.Result.Persisted[0].Label)

	rr = do(t, h, "GET", "/sessions/s1", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestSessionsEndpoints(t *testing.T) {
	h, _ := newTestHandler(t)

	rr := do(t, h, "GET", "/sessions", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `[]`, rr.Body.String())

	rr = do(t, h, "POST", "/sessions", StartRequest{})
	require.Equal(t, http.StatusCreated, rr.Code)
	var state domain.WizardState
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &state))
	assert.NotEmpty(t, state.SessionID, "an id is generated")

	rr = do(t, h, "DELETE", "/sessions/"+state.SessionID, nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = do(t, h, "GET", "/sessions/"+state.SessionID+"/render", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestSubmitErrors(t *testing.T) {
	h, _ := newTestHandler(t)
	require.Equal(t, http.StatusCreated, do(t, h, "POST", "/sessions", StartRequest{SessionID: "s1"}).Code)

	req := httptest.NewRequest("POST", "/sessions/s1/submit", strings.NewReader("{"))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(t, h, "POST", "/sessions/s1/submit", SubmitRequest{})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(t, h, "POST", "/sessions/s1/submit", SubmitRequest{Control: "ingest"})
	assert.Equal(t, http.StatusBadRequest, rr.Code, "ingest is not offered on the first step")
}

func TestListSteps(t *testing.T) {
	h, _ := newTestHandler(t)
	rr := do(t, h, "GET", "/steps?model=book", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var steps []domain.Step
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &steps))
	require.Len(t, steps, 2)
	assert.Equal(t, "object-details", steps[0].ID)
}

func TestMetricsRoute(t *testing.T) {
	h, _ := newTestHandler(t)
	assert.Equal(t, http.StatusNotFound, do(t, h, "GET", "/metrics", nil).Code)

	h, _ = newTestHandler(t, WithMetrics(promhttp.Handler()))
	assert.Equal(t, http.StatusOK, do(t, h, "GET", "/metrics", nil).Code)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, StatusFor(domain.ErrSessionNotFound))
	assert.Equal(t, http.StatusUnprocessableEntity, StatusFor(&domain.ValidationError{}))
	assert.Equal(t, http.StatusInternalServerError, StatusFor(&domain.StepNotFoundError{Index: 3}))
	assert.Equal(t, http.StatusConflict, StatusFor(domain.ErrFinalized))
	assert.Equal(t, http.StatusBadRequest, StatusFor(domain.ErrUnknownControl))
}

func TestSubscribeEvents_Session(t *testing.T) {
	h, streams := newTestHandler(t)
	srv := httptest.NewServer(h)
	defer srv.Close()

	require.Equal(t, http.StatusCreated, do(t, h, "POST", "/sessions", StartRequest{SessionID: "sess-1"}).Code)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, "GET", srv.URL+"/sessions/sess-1/events?watch=step", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	lines := bufio.NewScanner(resp.Body)
	require.True(t, lines.Scan())
	assert.Equal(t, "event: ping", lines.Text())

	require.Eventually(t, func() bool { return streams.Subscribers("sess-1") == 1 }, time.Second, 10*time.Millisecond)

	rr := do(t, h, "POST", "/sessions/sess-1/submit", SubmitRequest{Control: "next", Values: map[string]any{"label": "x"}})
	require.Equal(t, http.StatusOK, rr.Code)

	var data string
	for lines.Scan() {
		if strings.HasPrefix(lines.Text(), "data: {") {
			data = strings.TrimPrefix(lines.Text(), "data: ")
			break
		}
	}
	require.NotEmpty(t, data)

	var diff domain.StateDiff
	require.NoError(t, json.Unmarshal([]byte(data), &diff))
	assert.Equal(t, "sess-1", diff.SessionID)
	require.NotNil(t, diff.CurrentStep)
	assert.Equal(t, 1, *diff.CurrentStep)
}

func TestMatchesWatch(t *testing.T) {
	one := 1
	valuesOnly, _ := json.Marshal(domain.StateDiff{SessionID: "s", Values: map[string]any{"a": 1}})
	stepOnly, _ := json.Marshal(domain.StateDiff{SessionID: "s", CurrentStep: &one})

	assert.True(t, matchesWatch(string(valuesOnly), nil))
	assert.True(t, matchesWatch(string(valuesOnly), []string{"values"}))
	assert.False(t, matchesWatch(string(valuesOnly), []string{"step", "status"}))
	assert.True(t, matchesWatch(string(stepOnly), []string{" step"}))
}

func TestStreamManager_SubscribeCancel(t *testing.T) {
	sm := NewStreamManager(nil)
	ch, cancel := sm.Subscribe("s")
	assert.Equal(t, 1, sm.Subscribers("s"))

	sm.Broadcast("s", "hello")
	assert.Equal(t, "hello", <-ch)

	cancel()
	cancel()
	assert.Zero(t, sm.Subscribers("s"))
	_, open := <-ch
	assert.False(t, open)
}
