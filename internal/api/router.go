package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/aegis-valuation/internal/api/handlers"
	"github.com/wonny/aegis-valuation/pkg/logger"
)

// RequestRecorder receives per-request metrics
type RequestRecorder interface {
	RecordRequest(route, method string, status int, duration time.Duration)
}

// RouterDeps bundles everything the router wires together
type RouterDeps struct {
	Analyze  *handlers.AnalyzeHandler
	Metrics  http.Handler    // nil = /metrics not exposed
	Limiter  Limiter         // nil = no throttling
	Recorder RequestRecorder // nil = no request metrics
	Logger   *logger.Logger
}

// NewRouter creates and configures the HTTP router
// ⭐ SSOT: 라우팅 설정은 이 함수에서만
func NewRouter(deps RouterDeps) http.Handler {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", healthCheckHandler).Methods("GET")
	if deps.Metrics != nil {
		r.Handle("/metrics", deps.Metrics).Methods("GET")
	}

	// API
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/analyze", deps.Analyze.AnalyzeSnapshot).Methods("POST")
	api.HandleFunc("/analyze/{code:[A-Za-z0-9._-]+}", deps.Analyze.AnalyzeCode).Methods("GET")
	api.HandleFunc("/config", deps.Analyze.GetConfig).Methods("GET")
	if deps.Limiter != nil {
		api.Use(rateLimitMiddleware(deps.Limiter, deps.Logger))
	}

	// Apply middleware
	r.Use(loggingMiddleware(deps.Logger, deps.Recorder))
	r.Use(recoveryMiddleware(deps.Logger))

	return r
}

// healthCheckHandler returns server health status
func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "ok",
		"service": "aegis-valuation-api",
	})
}
