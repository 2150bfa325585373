package commands

import (
	"context"
	"fmt"

	"github.com/wonny/aegis-valuation/internal/contracts"
	"github.com/wonny/aegis-valuation/internal/engineconfig"
	"github.com/wonny/aegis-valuation/internal/pipeline"
	"github.com/wonny/aegis-valuation/internal/snapshot"
	"github.com/wonny/aegis-valuation/pkg/config"
	"github.com/wonny/aegis-valuation/pkg/database"
	"github.com/wonny/aegis-valuation/pkg/logger"
	"github.com/wonny/aegis-valuation/pkg/redis"
)

// loadAppConfig loads env config and applies global flags
func loadAppConfig() (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if engineConfigPath != "" {
		cfg.Engine.ConfigPath = engineConfigPath
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	return cfg, logger.New(cfg), nil
}

// loadEngineConfig reads the engine YAML (or defaults) and logs soft warnings
func loadEngineConfig(path string, log *logger.Logger) (*engineconfig.Config, []byte, error) {
	engineCfg, raw, err := engineconfig.LoadOrDefault(path)
	if err != nil {
		return nil, nil, fmt.Errorf("load engine config: %w", err)
	}
	for _, w := range engineconfig.Warn(engineCfg) {
		log.WithFields(map[string]interface{}{
			"code":    w.Code,
			"message": w.Message,
		}).Warn("Engine config warning")
	}
	return engineCfg, raw, nil
}

// newEngine builds the analysis engine from the configured YAML
func newEngine(cfg *config.Config, log *logger.Logger, opts ...pipeline.Option) (*pipeline.Engine, error) {
	engineCfg, _, err := loadEngineConfig(cfg.Engine.ConfigPath, log)
	if err != nil {
		return nil, err
	}
	return pipeline.NewEngine(*engineCfg, log, opts...)
}

// sourceStack is the snapshot source plus the connections it holds
type sourceStack struct {
	Source contracts.SnapshotSource
	DB     *database.DB
	Redis  *redis.Client
}

// Close releases database and redis connections
func (s *sourceStack) Close() {
	if s.DB != nil {
		s.DB.Close()
	}
	if s.Redis != nil {
		_ = s.Redis.Close()
	}
}

// openSources picks Postgres when DATABASE_URL is set, otherwise the snapshot directory.
// Redis (when enabled) is layered on top as a read-through cache.
func openSources(ctx context.Context, cfg *config.Config, recorder snapshot.CacheRecorder, log *logger.Logger) (*sourceStack, error) {
	stack := &sourceStack{}

	if cfg.Database.Enabled() {
		db, err := database.New(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		stack.DB = db

		pg := snapshot.NewPostgresSource(db.Pool)
		if err := pg.EnsureSchema(ctx); err != nil {
			stack.Close()
			return nil, fmt.Errorf("ensure snapshot schema: %w", err)
		}
		stack.Source = pg
		log.Info("Using PostgreSQL snapshot store")
	} else {
		stack.Source = snapshot.NewFileSource(cfg.Engine.SnapshotDir)
		log.WithField("dir", cfg.Engine.SnapshotDir).Info("Using file snapshot store")
	}

	rc, err := redis.New(ctx, cfg)
	if err != nil {
		stack.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	stack.Redis = rc
	if rc.Enabled() {
		cache := redis.NewCache(rc, "aegis")
		stack.Source = snapshot.NewCachedSource(stack.Source, cache, cfg.Engine.CacheTTL, recorder, log)
		log.Info("Redis snapshot cache enabled")
	}

	return stack, nil
}
