// Package httpapi serves time-consistent snapshots of the world over JSON
// HTTP. Handlers are thin: acquire the world lock, read or compute, encode,
// release — no handler holds the lock across a write to the response.
package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/maxz000/zwift-watcher/internal/metrics"
	"github.com/maxz000/zwift-watcher/internal/worldstate"
)

// Server holds the dependencies every handler needs.
type Server struct {
	locked  *worldstate.Locked
	logger  *zap.Logger
	metrics *metrics.Registry
}

// NewServer builds an httpapi.Server.
func NewServer(locked *worldstate.Locked, logger *zap.Logger, metricsRegistry *metrics.Registry) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{locked: locked, logger: logger, metrics: metricsRegistry}
}

// Mux builds the HTTP route table for the world-state JSON surface. Metrics
// and the health check are served from a separate listener; see
// DiagnosticsMux.
func (s *Server) Mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleRoot)
	mux.HandleFunc("/users", s.handleUsers)
	mux.HandleFunc("/watch", s.handleWatchGet)
	mux.HandleFunc("/watch/add", s.handleWatchAdd)
	mux.HandleFunc("/watch/clear", s.handleWatchClear)
	return mux
}

// DiagnosticsMux builds the health/metrics route table, bound separately
// from the world-state surface so operators can restrict or firewall it
// independently. endpoint is the path the Prometheus handler is mounted at.
func (s *Server) DiagnosticsMux(endpoint string) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	if s.metrics != nil {
		mux.Handle(endpoint, s.metrics.Handler())
	}
	return mux
}

// envelope is the `{"result":"ok","data":...}` response shape every
// endpoint returns.
type envelope struct {
	Result string `json:"result"`
	Data   any    `json:"data"`
}

func writeOK(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(envelope{Result: "ok", Data: data}); err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	type rootSnapshot struct {
		worldTime int64
		watchIDs  []int32
	}

	snapshot := worldstate.WithResult(s.locked, func(world *worldstate.World) rootSnapshot {
		return rootSnapshot{worldTime: world.WorldTime, watchIDs: world.Watch().Iter()}
	})

	writeOK(w, map[string]any{
		"world_time":     snapshot.worldTime,
		"group_to_watch": snapshot.watchIDs,
	})
}

func (s *Server) handleUsers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	type usersSnapshot struct {
		worldTime int64
		users     []int32
	}

	snapshot := worldstate.WithResult(s.locked, func(world *worldstate.World) usersSnapshot {
		return usersSnapshot{worldTime: world.WorldTime, users: world.PlayersList()}
	})

	writeOK(w, map[string]any{
		"world_time": snapshot.worldTime,
		"users":      snapshot.users,
	})
}

// watchSample is one entry of the /watch response: a plain sample plus the
// additive, optional heading field.
type watchSample struct {
	worldstate.PlayerSample
	Heading *heading `json:"heading,omitempty"`
}

type heading struct {
	DX float64 `json:"dx"`
	DY float64 `json:"dy"`
}

func (s *Server) handleWatchGet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	_, hasLatest := r.URL.Query()["latest"]

	start := time.Now()
	result := worldstate.WithResult(s.locked, func(world *worldstate.World) []watchSample {
		samples := world.WatchSnapshot(hasLatest)
		out := make([]watchSample, len(samples))
		for i, sample := range samples {
			entry := watchSample{PlayerSample: sample}
			if record, ok := world.Player(sample.ID); ok {
				if dx, dy, ok := record.MotionVectorAt(sample.WorldTime); ok {
					entry.Heading = &heading{DX: dx, DY: dy}
				}
			}
			out[i] = entry
		}
		return out
	})
	if s.metrics != nil {
		s.metrics.ObserveWatchQuery(time.Since(start))
	}

	writeOK(w, result)
}

type watchAddRequest struct {
	ID int32 `json:"id"`
}

func (s *Server) handleWatchAdd(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req watchAddRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	s.locked.With(func(world *worldstate.World) {
		world.WatchAdd(req.ID)
	})

	writeOK(w, map[string]any{"id": req.ID})
}

func (s *Server) handleWatchClear(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s.locked.With(func(world *worldstate.World) {
		world.WatchClear()
	})

	writeOK(w, map[string]any{})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	type healthSnapshot struct {
		players int
		groups  int
	}
	snapshot := worldstate.WithResult(s.locked, func(world *worldstate.World) healthSnapshot {
		return healthSnapshot{players: len(world.PlayersList()), groups: len(world.GroupsList())}
	})

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
		"players":   snapshot.players,
		"groups":    snapshot.groups,
	})
}
