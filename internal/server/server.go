package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/hazz-dev/depwatch/internal/health"
)

// Monitor defines the status queries the server needs.
type Monitor interface {
	ServiceIDs() []string
	ServiceStatus(serviceID string) health.ServiceStatus
	AllServiceStatuses() map[string]health.ServiceStatus
	OverallStatus() health.SystemStatus
	History(serviceID string) []health.Result
}

// Server holds the chi router and its dependencies.
type Server struct {
	monitor Monitor
	router  chi.Router
	logger  *slog.Logger
}

// New creates a new Server and registers all routes.
func New(monitor Monitor, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		monitor: monitor,
		router:  chi.NewRouter(),
		logger:  logger,
	}
	s.registerRoutes()
	return s
}

// Router returns the chi router (for mounting or testing).
func (s *Server) Router() chi.Router {
	return s.router
}

func (s *Server) registerRoutes() {
	r := s.router
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/api/health", s.handleHealth)
	r.Get("/api/status", s.handleOverallStatus)
	r.Get("/api/services", s.handleListServices)
	r.Get("/api/services/{id}", s.handleGetService)
	r.Get("/api/services/{id}/history", s.handleGetServiceHistory)
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
		)
	})
}

// --- Response helpers ---

type envelope struct {
	Data  interface{} `json:"data"`
	Error string      `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(envelope{Data: data})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(envelope{Error: msg})
}

// --- JSON shapes ---

type resultJSON struct {
	Status    string         `json:"status"`
	Message   string         `json:"message"`
	Timestamp time.Time      `json:"timestamp"`
	LatencyMs int64          `json:"latency_ms,omitempty"`
	Extra     map[string]any `json:"extra,omitempty"`
}

func toResultJSON(r health.Result) resultJSON {
	return resultJSON{
		Status:    string(r.Status),
		Message:   r.Message,
		Timestamp: r.Timestamp,
		LatencyMs: r.Latency.Milliseconds(),
		Extra:     r.Extra,
	}
}

type serviceStatusJSON struct {
	ServiceID   string         `json:"service_id"`
	DisplayName string         `json:"display_name,omitempty"`
	ServiceURL  string         `json:"service_url,omitempty"`
	Status      string         `json:"status"`
	Message     string         `json:"message"`
	Timestamp   time.Time      `json:"timestamp"`
	LatencyMs   int64          `json:"latency_ms,omitempty"`
	Extra       map[string]any `json:"extra,omitempty"`
	Summary     health.Summary `json:"history_summary"`
	HistorySize int            `json:"history_size"`
}

func toServiceStatusJSON(st health.ServiceStatus) serviceStatusJSON {
	return serviceStatusJSON{
		ServiceID:   st.ServiceID,
		DisplayName: st.DisplayName,
		ServiceURL:  st.ServiceURL,
		Status:      string(st.Result.Status),
		Message:     st.Result.Message,
		Timestamp:   st.Result.Timestamp,
		LatencyMs:   st.Result.Latency.Milliseconds(),
		Extra:       st.Result.Extra,
		Summary:     st.Summary,
		HistorySize: st.HistorySize,
	}
}

type systemStatusJSON struct {
	Status       string                       `json:"status"`
	Timestamp    time.Time                    `json:"timestamp"`
	ServiceCount int                          `json:"service_count"`
	Services     map[string]serviceStatusJSON `json:"services"`
}

// --- Handlers ---

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) handleOverallStatus(w http.ResponseWriter, r *http.Request) {
	sys := s.monitor.OverallStatus()
	services := make(map[string]serviceStatusJSON, len(sys.Services))
	for id, st := range sys.Services {
		services[id] = toServiceStatusJSON(st)
	}
	writeJSON(w, http.StatusOK, systemStatusJSON{
		Status:       string(sys.Status),
		Timestamp:    sys.Timestamp,
		ServiceCount: sys.ServiceCount,
		Services:     services,
	})
}

func (s *Server) handleListServices(w http.ResponseWriter, r *http.Request) {
	all := s.monitor.AllServiceStatuses()
	out := make([]serviceStatusJSON, 0, len(all))
	for _, id := range s.monitor.ServiceIDs() {
		out = append(out, toServiceStatusJSON(all[id]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetService(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !s.registered(id) {
		writeError(w, http.StatusNotFound, "unknown service")
		return
	}
	writeJSON(w, http.StatusOK, toServiceStatusJSON(s.monitor.ServiceStatus(id)))
}

func (s *Server) handleGetServiceHistory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !s.registered(id) {
		writeError(w, http.StatusNotFound, "unknown service")
		return
	}
	hist := s.monitor.History(id)
	out := make([]resultJSON, 0, len(hist))
	for _, res := range hist {
		out = append(out, toResultJSON(res))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) registered(id string) bool {
	for _, known := range s.monitor.ServiceIDs() {
		if known == id {
			return true
		}
	}
	return false
}
