package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/aegis-valuation/internal/contracts"
	"github.com/wonny/aegis-valuation/internal/engineconfig"
	"github.com/wonny/aegis-valuation/internal/pipeline"
	"github.com/wonny/aegis-valuation/internal/snapshot"
	"github.com/wonny/aegis-valuation/internal/synthesis"
	"github.com/wonny/aegis-valuation/pkg/logger"
	"github.com/wonny/aegis-valuation/pkg/redis"
)

// maxBodyBytes bounds POST /api/analyze payloads
const maxBodyBytes = 8 << 20

// Analyzer runs the engine on one snapshot
type Analyzer interface {
	Run(ctx context.Context, snap *contracts.AnalysisSnapshot) (*pipeline.Report, error)
	Config() engineconfig.Config
	ConfigHash() string
}

// ReportCache stores finished reports (Redis in production)
type ReportCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// AnalyzeHandler handles analysis API endpoints
// ⭐ SSOT: 분석 API 핸들러는 여기서만
type AnalyzeHandler struct {
	engine     Analyzer
	source     contracts.SnapshotSource
	reports    ReportCache
	runTimeout time.Duration
	logger     *logger.Logger
}

// NewAnalyzeHandler creates a new analyze handler.
// source and reports may be nil: GET then answers 503 / skips caching.
func NewAnalyzeHandler(
	engine Analyzer,
	source contracts.SnapshotSource,
	reports ReportCache,
	runTimeout time.Duration,
	log *logger.Logger,
) *AnalyzeHandler {
	return &AnalyzeHandler{
		engine:     engine,
		source:     source,
		reports:    reports,
		runTimeout: runTimeout,
		logger:     log,
	}
}

// AnalyzeSnapshot analyses the snapshot in the request body
// POST /api/analyze
func (h *AnalyzeHandler) AnalyzeSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := snapshot.Decode(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	report, err := h.run(r.Context(), snap)
	if err != nil {
		h.respondRunError(w, snap.Code, err)
		return
	}

	respondJSON(w, http.StatusOK, report)
}

// AnalyzeCode loads the stored snapshot of a stock and analyses it
// GET /api/analyze/{code}?as_of=YYYY-MM-DD
func (h *AnalyzeHandler) AnalyzeCode(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	code := mux.Vars(r)["code"]

	if h.source == nil {
		respondError(w, http.StatusServiceUnavailable, "Snapshot store not configured")
		return
	}

	var asOf time.Time
	asOfKey := "latest"
	if v := r.URL.Query().Get("as_of"); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid 'as_of' date format (expected YYYY-MM-DD)")
			return
		}
		asOf, asOfKey = parsed, v
	}

	cacheKey := redis.ReportKey(code, asOfKey, h.engine.ConfigHash())
	if h.reports != nil {
		var cached pipeline.Report
		if hit, err := h.reports.Get(ctx, cacheKey, &cached); err != nil {
			h.logger.WithError(err).WithField("key", cacheKey).Warn("Report cache read failed")
		} else if hit {
			respondJSON(w, http.StatusOK, &cached)
			return
		}
	}

	snap, err := h.source.Load(ctx, code, asOf)
	if err != nil {
		switch {
		case errors.Is(err, snapshot.ErrNotFound):
			respondError(w, http.StatusNotFound, "Snapshot not found for "+code)
		case errors.Is(err, snapshot.ErrInvalid), errors.Is(err, contracts.ErrMalformedSeries):
			h.logger.WithError(err).WithField("code", code).Error("Stored snapshot is invalid")
			respondError(w, http.StatusUnprocessableEntity, err.Error())
		default:
			h.logger.WithError(err).WithField("code", code).Error("Failed to load snapshot")
			respondError(w, http.StatusInternalServerError, "Failed to load snapshot")
		}
		return
	}

	report, err := h.run(ctx, snap)
	if err != nil {
		h.respondRunError(w, code, err)
		return
	}

	if h.reports != nil {
		if err := h.reports.Set(ctx, cacheKey, report, redis.TTLMedium); err != nil {
			h.logger.WithError(err).WithField("key", cacheKey).Warn("Report cache write failed")
		}
	}

	respondJSON(w, http.StatusOK, report)
}

// ConfigResponse is the body of GET /api/config
type ConfigResponse struct {
	ConfigHash string              `json:"config_hash"`
	Config     engineconfig.Config `json:"config"`
}

// GetConfig returns the active engine configuration
// GET /api/config
func (h *AnalyzeHandler) GetConfig(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, ConfigResponse{
		ConfigHash: h.engine.ConfigHash(),
		Config:     h.engine.Config(),
	})
}

func (h *AnalyzeHandler) run(ctx context.Context, snap *contracts.AnalysisSnapshot) (*pipeline.Report, error) {
	if h.runTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.runTimeout)
		defer cancel()
	}
	return h.engine.Run(ctx, snap)
}

func (h *AnalyzeHandler) respondRunError(w http.ResponseWriter, code string, err error) {
	switch {
	case errors.Is(err, contracts.ErrMalformedSeries), errors.Is(err, snapshot.ErrInvalid):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, synthesis.ErrReservedSignal):
		respondError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		respondError(w, http.StatusGatewayTimeout, "Analysis timed out")
	case errors.Is(err, context.Canceled):
		// client went away
		h.logger.WithField("code", code).Debug("Analysis cancelled")
	default:
		h.logger.WithError(err).WithField("code", code).Error("Analysis failed")
		respondError(w, http.StatusInternalServerError, "Analysis failed")
	}
}
