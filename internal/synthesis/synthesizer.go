package synthesis

import (
	"errors"
	"fmt"
	"math"

	"github.com/wonny/aegis-valuation/internal/contracts"
	"github.com/wonny/aegis-valuation/internal/engineconfig"
	"github.com/wonny/aegis-valuation/pkg/logger"
)

// ErrReservedSignal is returned when an external contribution uses the DCF signal name
var ErrReservedSignal = errors.New("reserved signal name")

// 비율 비교 허용오차 (2/3 경계 부동소수점 보정)
const ratioEpsilon = 1e-9

// Investment horizon per tier
const (
	HorizonBuy  = "12–18 months"
	HorizonHold = "6–12 months (review)"
	HorizonSell = "Consider exit within 3–6 months"
	HorizonNone = "N/A"
)

// Synthesizer aggregates signal votes into one recommendation
// ⭐ SSOT: 등급 결정 로직은 여기서만 (투표 → 신뢰도 게이트 → 가드레일 캡)
type Synthesizer struct {
	logger *logger.Logger
}

// NewSynthesizer creates a new synthesizer
func NewSynthesizer(log *logger.Logger) *Synthesizer {
	return &Synthesizer{
		logger: log,
	}
}

// Synthesize runs EVALUATE_VOTES → APPLY_TRUST_GATE → APPLY_GUARDRAIL_GATE → EMIT.
// The DCF vote is derived from valuation and placed first; contributions keep their order.
func (s *Synthesizer) Synthesize(
	valuation *contracts.ValuationResult,
	trust *contracts.TrustScoreResult,
	contributions []contracts.SignalContribution,
	cfg engineconfig.Synthesis,
) (*contracts.Recommendation, error) {
	for i, c := range contributions {
		if c.Name == contracts.SignalDCF {
			return nil, fmt.Errorf("contribution %d: %w: %q is derived from the valuation", i, ErrReservedSignal, c.Name)
		}
	}

	// 1. EVALUATE_VOTES
	votes := make([]contracts.SignalContribution, 0, len(contributions)+1)
	votes = append(votes, DCFContribution(valuation, cfg))
	votes = append(votes, contributions...)

	score, maxScore := contracts.CountVotes(votes)
	thesis := make([]string, 0, len(votes)+1)
	for _, c := range votes {
		if c.Available && c.Rationale != "" {
			thesis = append(thesis, c.Rationale)
		}
	}

	rec := &contracts.Recommendation{
		Score:    score,
		MaxScore: maxScore,
	}
	if maxScore > 0 {
		pct := math.Round(float64(score)/float64(maxScore)*1000) / 10
		rec.ScorePct = contracts.Float(pct)
	}

	// 2. APPLY_TRUST_GATE (최우선)
	if ts, ok := trust.Score(); ok && ts < cfg.SuspendThreshold {
		rec.Tier = contracts.TierSuspended
		rec.Confidence = contracts.ConfidenceInvalid
		rec.Horizon = HorizonNone
		rec.DataSuspended = true
		warning := fmt.Sprintf("⚠️ RATING SUSPENDED: data trust score %.1f is below %.0f; figures could not be verified against the filing, manual review required", ts, cfg.SuspendThreshold)
		rec.Thesis = append([]string{warning}, thesis...)

		s.logger.WithFields(map[string]interface{}{
			"trust_score": ts,
			"threshold":   cfg.SuspendThreshold,
			"score":       score,
			"max_score":   maxScore,
		}).Debug("Rating suspended by trust gate")
		return rec, nil
	}

	// 3. APPLY_GUARDRAIL_GATE
	if maxScore == 0 {
		rec.Tier = contracts.TierHold
		rec.Confidence = contracts.ConfidenceLow
		rec.Horizon = HorizonNone
		rec.Thesis = append(thesis, "Insufficient data for rating")
		return rec, nil
	}

	rec.Tier = tierFor(float64(score)/float64(maxScore), cfg)
	// EV 불일치 시 HOLD 초과 tier는 HOLD로 cap (하향만, 상향 없음)
	if rec.Tier.Rank() > contracts.TierHold.Rank() && valuation != nil && valuation.Available && valuation.EVMismatch {
		rec.Tier = contracts.TierHold
		rec.GuardrailApplied = true
		thesis = append(thesis, guardrailRationale(valuation))
	}

	// 4. EMIT
	rec.Confidence = confidenceFor(maxScore, cfg)
	rec.Horizon = horizonFor(rec.Tier)
	rec.Thesis = thesis

	s.logger.WithFields(map[string]interface{}{
		"tier":       rec.Tier,
		"score":      score,
		"max_score":  maxScore,
		"confidence": rec.Confidence,
		"guardrail":  rec.GuardrailApplied,
	}).Debug("Synthesized recommendation")

	return rec, nil
}

// DCFContribution derives the DCF vote from a valuation result.
// EV 불일치 시 투표에서 제외 (부정 투표로 세지 않음)
func DCFContribution(v *contracts.ValuationResult, cfg engineconfig.Synthesis) contracts.SignalContribution {
	switch {
	case v == nil:
		return contracts.Missing(contracts.SignalDCF, "DCF valuation not run")
	case !v.Available:
		return contracts.Missing(contracts.SignalDCF, "DCF unavailable: "+v.Reason)
	case v.EVMismatch:
		delta := 0.0
		if v.EVDeltaPct != nil {
			delta = *v.EVDeltaPct
		}
		return contracts.Abstain(contracts.SignalDCF,
			fmt.Sprintf("DCF excluded from vote: intrinsic EV deviates %.1f%% from market EV", delta))
	case v.UpsidePct == nil:
		return contracts.Missing(contracts.SignalDCF, "DCF upside unavailable: no market price")
	}

	up := *v.UpsidePct
	if up > cfg.DCFUpsideThresholdPct {
		return contracts.Positive(contracts.SignalDCF,
			fmt.Sprintf("Undervalued per DCF (intrinsic %.2f vs price %.2f, upside %+.1f%%)", v.IntrinsicValue, v.CurrentPrice, up))
	}
	return contracts.Negative(contracts.SignalDCF,
		fmt.Sprintf("Overvalued per DCF (intrinsic %.2f vs price %.2f, upside %+.1f%%)", v.IntrinsicValue, v.CurrentPrice, up))
}

func tierFor(pct float64, cfg engineconfig.Synthesis) contracts.Tier {
	switch {
	case pct+ratioEpsilon >= cfg.BuyRatio:
		return contracts.TierBuy
	case pct+ratioEpsilon >= cfg.HoldRatio:
		return contracts.TierHold
	default:
		return contracts.TierSell
	}
}

func confidenceFor(maxScore int, cfg engineconfig.Synthesis) contracts.Confidence {
	switch {
	case maxScore >= cfg.HighConfidenceMin:
		return contracts.ConfidenceHigh
	case maxScore >= cfg.MediumConfidenceMin:
		return contracts.ConfidenceMedium
	default:
		return contracts.ConfidenceLow
	}
}

func horizonFor(tier contracts.Tier) string {
	switch tier {
	case contracts.TierBuy:
		return HorizonBuy
	case contracts.TierHold:
		return HorizonHold
	case contracts.TierSell:
		return HorizonSell
	default:
		return HorizonNone
	}
}

func guardrailRationale(v *contracts.ValuationResult) string {
	if v.EVDeltaPct != nil {
		return fmt.Sprintf("Rating capped at HOLD: DCF enterprise value deviates %.1f%% from market EV, intrinsic value unreliable", *v.EVDeltaPct)
	}
	return "Rating capped at HOLD: DCF enterprise value implausible versus market EV"
}
