package pipeline

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/wonny/aegis-valuation/internal/contracts"
	"github.com/wonny/aegis-valuation/internal/crossval"
	"github.com/wonny/aegis-valuation/internal/engineconfig"
	"github.com/wonny/aegis-valuation/internal/signals"
	"github.com/wonny/aegis-valuation/internal/synthesis"
	"github.com/wonny/aegis-valuation/internal/valuation"
	"github.com/wonny/aegis-valuation/pkg/logger"
)

// Report is the full output of one analysis run
// ⭐ SSOT: Engine → CLI/API/Renderer 전달 구조체 (AsOf 외 시각 정보 없음)
type Report struct {
	Code           string                         `json:"code"`
	Name           string                         `json:"name,omitempty"`
	AsOf           time.Time                      `json:"as_of"`
	ConfigHash     string                         `json:"config_hash"`
	Valuation      *contracts.ValuationResult     `json:"valuation"`
	Trust          *contracts.TrustScoreResult    `json:"trust"`
	DCF            contracts.SignalContribution   `json:"dcf"`
	Contributions  []contracts.SignalContribution `json:"contributions"`
	Recommendation *contracts.Recommendation      `json:"recommendation"`
}

// Engine coordinates valuation, cross-validation, signals and synthesis
// ⭐ SSOT: 파이프라인 조율은 여기서만
type Engine struct {
	cfg        engineconfig.Config
	configHash string

	valuer      *valuation.Valuer
	validator   *crossval.Validator
	synthesizer *synthesis.Synthesizer
	producers   []contracts.SignalProducer

	recorder contracts.RunRecorder
	logger   *logger.Logger
}

// Option customises an Engine
type Option func(*Engine)

// WithProducers replaces the built-in signal producers
func WithProducers(producers ...contracts.SignalProducer) Option {
	return func(e *Engine) {
		e.producers = producers
	}
}

// WithRecorder attaches a run recorder (metrics)
func WithRecorder(r contracts.RunRecorder) Option {
	return func(e *Engine) {
		e.recorder = r
	}
}

// NewEngine creates a new engine for one immutable configuration
func NewEngine(cfg engineconfig.Config, log *logger.Logger, opts ...Option) (*Engine, error) {
	if err := engineconfig.Validate(&cfg); err != nil {
		return nil, fmt.Errorf("engine config: %w", err)
	}
	hash, err := engineconfig.Hash(&cfg)
	if err != nil {
		return nil, fmt.Errorf("engine config hash: %w", err)
	}

	e := &Engine{
		cfg:         cfg,
		configHash:  hash,
		valuer:      valuation.NewValuer(log),
		validator:   crossval.NewValidator(log),
		synthesizer: synthesis.NewSynthesizer(log),
		producers:   signals.Builtin(log),
		recorder:    nopRecorder{},
		logger:      log,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Config returns the engine configuration
func (e *Engine) Config() engineconfig.Config {
	return e.cfg
}

// ConfigHash returns the SHA-256 of the engine configuration
func (e *Engine) ConfigHash() string {
	return e.configHash
}

// Run analyses one snapshot.
// VALUATION, CROSS_VALIDATION and SIGNALS run concurrently; SYNTHESIS waits for all three.
// A cancelled context yields (nil, ctx.Err()), never a partial report.
func (e *Engine) Run(ctx context.Context, snapshot *contracts.AnalysisSnapshot) (*Report, error) {
	startTime := time.Now()

	if snapshot == nil {
		return nil, fmt.Errorf("nil snapshot")
	}
	if err := snapshot.Validate(); err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", snapshot.Code, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e.logger.WithFields(map[string]interface{}{
		"code":        snapshot.Code,
		"as_of":       snapshot.AsOf.Format("2006-01-02"),
		"config_hash": e.configHash,
	}).Info("Starting analysis run")

	var (
		valuationResult *contracts.ValuationResult
		trustResult     *contracts.TrustScoreResult
		builtin         []contracts.SignalContribution
	)

	g, gctx := errgroup.WithContext(ctx)

	// VALUATION
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		res, err := e.valuer.Value(snapshot.ValuationInput(), e.cfg.Valuation)
		if err != nil {
			e.recorder.RecordError(contracts.StageValuation)
			return fmt.Errorf("%s: %w", contracts.StageValuation, err)
		}
		e.recorder.RecordStage(contracts.StageValuation, res.Available)
		valuationResult = res
		return nil
	})

	// CROSS_VALIDATION
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		fiscalYear := 0
		if snapshot.Reference != nil {
			fiscalYear = snapshot.Reference.FiscalYear
		}
		source := crossval.SourceFiguresFrom(snapshot.Statements, fiscalYear)
		res := e.validator.Validate(source, snapshot.Reference, snapshot.Footnotes, snapshot.AuditorObservations, e.cfg.CrossValidation)
		e.recorder.RecordStage(contracts.StageCrossValidation, res.Available && res.TrustScore != nil)
		trustResult = res
		return nil
	})

	// SIGNALS
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		builtin = signals.ProduceAll(snapshot, e.producers)
		_, voting := contracts.CountVotes(builtin)
		e.recorder.RecordStage(contracts.StageSignals, voting > 0)
		return nil
	})

	// barrier
	if err := g.Wait(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// SYNTHESIS: built-in producers first, then external contributions in given order
	contributions := make([]contracts.SignalContribution, 0, len(builtin)+len(snapshot.Contributions))
	contributions = append(contributions, builtin...)
	contributions = append(contributions, snapshot.Contributions...)

	rec, err := e.synthesizer.Synthesize(valuationResult, trustResult, contributions, e.cfg.Synthesis)
	if err != nil {
		e.recorder.RecordError(contracts.StageSynthesis)
		return nil, fmt.Errorf("%s: %w", contracts.StageSynthesis, err)
	}

	report := &Report{
		Code:           snapshot.Code,
		Name:           snapshot.Name,
		AsOf:           snapshot.AsOf,
		ConfigHash:     e.configHash,
		Valuation:      valuationResult,
		Trust:          trustResult,
		DCF:            synthesis.DCFContribution(valuationResult, e.cfg.Synthesis),
		Contributions:  contributions,
		Recommendation: rec,
	}

	duration := time.Since(startTime)
	e.recorder.RecordRun(rec.Tier, duration)

	e.logger.WithFields(map[string]interface{}{
		"code":         snapshot.Code,
		"tier":         rec.Tier,
		"score":        rec.Score,
		"max_score":    rec.MaxScore,
		"confidence":   rec.Confidence,
		"dcf_reliable": valuationResult.IntrinsicReliable(),
		"duration_ms":  duration.Milliseconds(),
	}).Info("Analysis run completed")

	return report, nil
}

type nopRecorder struct{}

func (nopRecorder) RecordRun(contracts.Tier, time.Duration) {}
func (nopRecorder) RecordStage(contracts.Stage, bool) {}
func (nopRecorder) RecordError(contracts.Stage) {}
