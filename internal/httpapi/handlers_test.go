package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maxz000/zwift-watcher/internal/worldstate"
)

func newTestServer() (*Server, *worldstate.Locked) {
	locked := worldstate.NewLocked(worldstate.New(nil, nil))
	return NewServer(locked, nil, nil), locked
}

func decodeEnvelope(t *testing.T, body *bytes.Buffer) map[string]any {
	t.Helper()
	var env map[string]any
	require.NoError(t, json.Unmarshal(body.Bytes(), &env))
	return env
}

func TestHandleRoot(t *testing.T) {
	server, locked := newTestServer()
	locked.With(func(w *worldstate.World) {
		w.WatchAdd(7)
		w.PushSample(worldstate.PlayerSample{ID: 7, GroupID: 1, WorldTime: 1000})
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	server.Mux().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	env := decodeEnvelope(t, rec.Body)
	assert.Equal(t, "ok", env["result"])
	data := env["data"].(map[string]any)
	assert.Equal(t, float64(1000), data["world_time"])
	assert.Equal(t, []any{float64(7)}, data["group_to_watch"])
}

func TestHandleUsers(t *testing.T) {
	server, locked := newTestServer()
	locked.With(func(w *worldstate.World) {
		w.PushSample(worldstate.PlayerSample{ID: 1, GroupID: 1, WorldTime: 100})
		w.PushSample(worldstate.PlayerSample{ID: 2, GroupID: 1, WorldTime: 100})
	})

	req := httptest.NewRequest(http.MethodGet, "/users", nil)
	rec := httptest.NewRecorder()
	server.Mux().ServeHTTP(rec, req)

	env := decodeEnvelope(t, rec.Body)
	data := env["data"].(map[string]any)
	assert.Len(t, data["users"], 2)
}

func TestHandleWatchAddAndGet(t *testing.T) {
	server, locked := newTestServer()
	locked.With(func(w *worldstate.World) {
		w.PushSample(worldstate.PlayerSample{ID: 5, GroupID: 1, WorldTime: 1000, X: 1, Y: 2})
	})

	addReq := httptest.NewRequest(http.MethodPost, "/watch/add", bytes.NewBufferString(`{"id":5}`))
	addRec := httptest.NewRecorder()
	server.Mux().ServeHTTP(addRec, addReq)
	require.Equal(t, http.StatusOK, addRec.Code)

	getReq := httptest.NewRequest(http.MethodGet, "/watch?latest=1", nil)
	getRec := httptest.NewRecorder()
	server.Mux().ServeHTTP(getRec, getReq)

	var env struct {
		Result string           `json:"result"`
		Data   []map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(getRec.Body.Bytes(), &env))
	require.Len(t, env.Data, 1)
	assert.Equal(t, float64(5), env.Data[0]["id"])
}

func TestHandleWatchClear(t *testing.T) {
	server, locked := newTestServer()
	locked.With(func(w *worldstate.World) {
		w.WatchAdd(1)
	})

	req := httptest.NewRequest(http.MethodDelete, "/watch/clear", nil)
	rec := httptest.NewRecorder()
	server.Mux().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	watchLen := worldstate.WithResult(locked, func(w *worldstate.World) int {
		return w.Watch().Len()
	})
	assert.Equal(t, 0, watchLen)
}

func TestHandleWatchGet_WrongMethod(t *testing.T) {
	server, _ := newTestServer()
	req := httptest.NewRequest(http.MethodPost, "/watch", nil)
	rec := httptest.NewRecorder()
	server.Mux().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
