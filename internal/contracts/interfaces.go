package contracts

import (
	"context"
	"time"
)

// SnapshotSource loads the analysis inputs for one stock
// ⭐ SSOT: 입력 스냅샷 로딩 인터페이스 (File / Postgres / Redis cache)
type SnapshotSource interface {
	Load(ctx context.Context, code string, asOf time.Time) (*AnalysisSnapshot, error)
}

// SignalProducer turns a snapshot into one vote
type SignalProducer interface {
	Name() string
	Produce(snapshot *AnalysisSnapshot) SignalContribution
}

// RunRecorder receives pipeline run outcomes (metrics)
type RunRecorder interface {
	RecordRun(tier Tier, duration time.Duration)
	RecordStage(stage Stage, available bool)
	RecordError(stage Stage)
}
