package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lixenwraith/collide/config"
	"github.com/lixenwraith/collide/engine"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := config.Default()
	cfg.Count = 6
	cfg.StreamFPS = 1000
	return New(cfg, log.New(io.Discard))
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

// wallScene is a single particle that reaches the right wall at t=48
const wallScene = `{"redraw_interval": 0, "particles": [{"x": 0.5, "y": 0.5, "vx": 0.01, "radius": 0.02, "mass": 0.5}]}`

func create(t *testing.T, h http.Handler, body string) RunState {
	t.Helper()
	w := do(t, h, http.MethodPost, "/api/v1/runs", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[RunState](t, w)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	w := do(t, s.Handler(), http.MethodGet, "/api/v1/health", "")
	assert.Equal(t, http.StatusOK, w.Code)

	body := decode[map[string]any](t, w)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, float64(0), body["runs"])
}

func TestCreateRunDefaults(t *testing.T) {
	s := newTestServer(t)
	state := create(t, s.Handler(), "")

	_, err := uuid.Parse(state.ID)
	assert.NoError(t, err)
	assert.Equal(t, 6, state.Count)
	assert.Equal(t, 0.0, state.Time)
	assert.Greater(t, state.Stats.Pending, 0)
}

func TestCreateRunRejectsBadConfig(t *testing.T) {
	s := newTestServer(t)

	w := do(t, s.Handler(), http.MethodPost, "/api/v1/runs", `{"count": -1}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	overlap := `{"particles": [{"x": 0.5, "y": 0.5}, {"x": 0.51, "y": 0.5}]}`
	w = do(t, s.Handler(), http.MethodPost, "/api/v1/runs", overlap)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "overlap")

	w = do(t, s.Handler(), http.MethodPost, "/api/v1/runs", `{"count": `)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStepAndRun(t *testing.T) {
	s := newTestServer(t)
	h := s.Handler()
	id := create(t, h, wallScene).ID

	w := do(t, h, http.MethodPost, "/api/v1/runs/"+id+"/step", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[advanceResponse](t, w)
	assert.InDelta(t, 48, resp.Run.Time, 1e-9)
	assert.Equal(t, uint64(1), resp.Run.Stats.WallHits)

	w = do(t, h, http.MethodPost, "/api/v1/runs/"+id+"/run", `{"until": 100}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp = decode[advanceResponse](t, w)
	assert.Equal(t, 100.0, resp.Run.Time)

	w = do(t, h, http.MethodPost, "/api/v1/runs/"+id+"/run", `{"events": 2}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp = decode[advanceResponse](t, w)
	assert.Equal(t, 2, resp.Executed)
	assert.InDelta(t, 240, resp.Run.Time, 1e-9)

	w = do(t, h, http.MethodGet, "/api/v1/runs/"+id, "")
	require.Equal(t, http.StatusOK, w.Code)
	state := decode[RunState](t, w)
	require.Len(t, state.Particles, 1)
	assert.Equal(t, 3, state.Particles[0].Collisions)
}

func TestRunValidation(t *testing.T) {
	s := newTestServer(t)
	h := s.Handler()
	id := create(t, h, wallScene).ID

	for _, body := range []string{`{}`, `{"until": 5, "events": 5}`, `{"events": -1}`, `not json`} {
		w := do(t, h, http.MethodPost, "/api/v1/runs/"+id+"/run", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
	}

	w := do(t, h, http.MethodPost, "/api/v1/runs/"+id+"/run", `{"until": 10}`)
	require.Equal(t, http.StatusOK, w.Code)
	w = do(t, h, http.MethodPost, "/api/v1/runs/"+id+"/run", `{"until": 5}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "before current time")
}

func TestCancel(t *testing.T) {
	s := newTestServer(t)
	h := s.Handler()
	id := create(t, h, wallScene).ID

	w := do(t, h, http.MethodPost, "/api/v1/runs/"+id+"/cancel", "")
	assert.Equal(t, http.StatusAccepted, w.Code)

	w = do(t, h, http.MethodPost, "/api/v1/runs/"+id+"/run", `{"events": 5}`)
	assert.Equal(t, http.StatusConflict, w.Code)
	resp := decode[errorResponse](t, w)
	assert.Contains(t, resp.Error, engine.ErrCanceled.Error())
	require.NotNil(t, resp.Run)
	assert.Equal(t, 0.0, resp.Run.Time)

	// the flag is consumed
	w = do(t, h, http.MethodPost, "/api/v1/runs/"+id+"/run", `{"events": 1}`)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestQueueExhausted(t *testing.T) {
	s := newTestServer(t)
	h := s.Handler()
	id := create(t, h, `{"redraw_interval": 0, "particles": [{"x": 0.5, "y": 0.5}]}`).ID

	w := do(t, h, http.MethodPost, "/api/v1/runs/"+id+"/step", "")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "exhausted")
}

func TestUnknownAndDeletedRuns(t *testing.T) {
	s := newTestServer(t)
	h := s.Handler()

	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/api/v1/runs/nope", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/api/v1/runs/"+uuid.NewString(), "").Code)

	id := create(t, h, "").ID
	list := decode[map[string][]RunState](t, do(t, h, http.MethodGet, "/api/v1/runs", ""))
	require.Len(t, list["runs"], 1)
	assert.Equal(t, id, list["runs"][0].ID)

	assert.Equal(t, http.StatusNoContent, do(t, h, http.MethodDelete, "/api/v1/runs/"+id, "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/api/v1/runs/"+id, "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodDelete, "/api/v1/runs/"+id, "").Code)
}

func TestStream(t *testing.T) {
	s := newTestServer(t)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/api/v1/runs", "application/json", strings.NewReader(`{"count": 4, "redraw_interval": 1}`))
	require.NoError(t, err)
	var state RunState
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&state))
	resp.Body.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/v1/runs/" + state.ID + "/stream"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	read := func() engine.Snapshot {
		t.Helper()
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
		var msg Message
		require.NoError(t, conn.ReadJSON(&msg))
		assert.Equal(t, "snapshot", msg.Type)
		var snap engine.Snapshot
		require.NoError(t, json.Unmarshal(msg.Data, &snap))
		return snap
	}

	initial := read()
	assert.Len(t, initial.Particles, 4)
	assert.Equal(t, 0.0, initial.Time)

	resp, err = http.Post(ts.URL+"/api/v1/runs/"+state.ID+"/run", "application/json", bytes.NewBufferString(`{"until": 3}`))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	frame := read()
	assert.Len(t, frame.Particles, 4)
	assert.LessOrEqual(t, frame.Time, 3.0)
}

func TestHubDropsWithoutClientsOrWhenFull(t *testing.T) {
	h := NewHub(1000, log.New(io.Discard))
	assert.NotPanics(t, func() { h.Render(engine.Snapshot{}) })

	c := &client{send: make(chan []byte, 1)}
	h.clients[c] = struct{}{}
	h.broadcast(engine.Snapshot{Time: 1})
	h.broadcast(engine.Snapshot{Time: 2})
	assert.Len(t, c.send, 1)
	assert.Equal(t, uint64(1), h.dropped)

	h.Close()
	assert.Equal(t, 0, h.Len())
	_, open := <-c.send
	assert.True(t, open, "buffered frame still delivered")
	_, open = <-c.send
	assert.False(t, open)
}
