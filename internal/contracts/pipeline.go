package contracts

// Pipeline Stage 정의 (SSOT)
// 모든 로그, 메트릭, 리포트에서 이 상수를 사용해야 함
//
// 파이프라인 흐름:
//   ┌ VALUATION ────────┐
//   ├ CROSS_VALIDATION ─┼→ SYNTHESIS
//   └ SIGNALS ──────────┘
//   (앞 세 단계는 병렬, SYNTHESIS는 barrier)

// Stage represents a pipeline stage
type Stage string

const (
	// StageValuation DCF 가치평가
	// 위치: internal/valuation/
	StageValuation Stage = "VALUATION"

	// StageCrossValidation 스크래핑 수치 vs 공시 수치 대사, 신뢰도 점수
	// 위치: internal/crossval/
	StageCrossValidation Stage = "CROSS_VALIDATION"

	// StageSignals 내장 시그널 생성 (현금전환, 성장, 멀티플, 퀄리티)
	// 위치: internal/signals/
	StageSignals Stage = "SIGNALS"

	// StageSynthesis 투표 집계 + 신뢰도 게이트 + 가드레일 캡
	// 위치: internal/synthesis/
	StageSynthesis Stage = "SYNTHESIS"
)

// String returns the stage name
func (s Stage) String() string {
	return string(s)
}

// AllStages returns all pipeline stages in order
func AllStages() []Stage {
	return []Stage{
		StageValuation,
		StageCrossValidation,
		StageSignals,
		StageSynthesis,
	}
}
