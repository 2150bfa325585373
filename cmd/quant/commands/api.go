package commands

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/aegis-valuation/internal/api"
	"github.com/wonny/aegis-valuation/internal/api/handlers"
	"github.com/wonny/aegis-valuation/internal/pipeline"
	"github.com/wonny/aegis-valuation/pkg/metrics"
	"github.com/wonny/aegis-valuation/pkg/redis"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "API 서버 시작",
	Long: `REST API 서버를 시작합니다.

이 명령어는:
- HTTP API 서버 시작
- 스냅샷 분석 엔드포인트 제공
- Prometheus 메트릭 노출 (METRICS_ENABLED)

Endpoints:
  GET  /health                 - Health check
  GET  /metrics                - Prometheus metrics
  POST /api/analyze            - 요청 본문의 스냅샷 분석
  GET  /api/analyze/{code}     - 저장된 스냅샷 분석 (?as_of=YYYY-MM-DD)
  GET  /api/config             - 엔진 설정 + 해시

Example:
  go run ./cmd/quant api
  go run ./cmd/quant api --port 8080`,
	RunE: runAPIServer,
}

var (
	apiPort string
)

func init() {
	rootCmd.AddCommand(apiCmd)

	// Flags
	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 서버 포트 (기본: PORT)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Aegis Valuation API Server ===")

	// 1. Load config
	cfg, log, err := loadAppConfig()
	if err != nil {
		return err
	}

	// Override port if flag is set
	if apiPort != "" {
		cfg.Port = apiPort
	}

	log.WithFields(map[string]interface{}{
		"port": cfg.Port,
		"env":  cfg.Env,
	}).Info("Initializing API server")

	ctx := context.Background()

	// 2. Metrics
	recorder := metrics.New()

	// 3. Engine
	engine, err := newEngine(cfg, log, pipeline.WithRecorder(recorder))
	if err != nil {
		return err
	}
	log.WithField("config_hash", engine.ConfigHash()).Info("Engine ready")

	// 4. Snapshot sources (Postgres | files) + Redis cache
	stack, err := openSources(ctx, cfg, recorder, log)
	if err != nil {
		return err
	}
	defer stack.Close()

	// 5. Report cache + rate limiter
	var reports handlers.ReportCache
	var limiter api.Limiter = api.NewLocalLimiter(cfg.API.RateLimitRPS, cfg.API.RateLimitBurst)
	if stack.Redis.Enabled() {
		reports = redis.NewCache(stack.Redis, "aegis")
		limiter = api.NewRedisLimiter(
			redis.NewRateLimiter(stack.Redis, "aegis"),
			int(cfg.API.RateLimitRPS*60),
			time.Minute,
		)
	}

	// 6. Handler + router
	analyzeHandler := handlers.NewAnalyzeHandler(engine, stack.Source, reports, cfg.Engine.RunTimeout, log)

	var metricsHandler http.Handler
	if cfg.MetricsEnabled {
		metricsHandler = recorder.Handler()
	}

	router := api.NewRouter(api.RouterDeps{
		Analyze:  analyzeHandler,
		Metrics:  metricsHandler,
		Limiter:  limiter,
		Recorder: recorder,
		Logger:   log,
	})

	// 7. Create server
	server := api.New(cfg, log, router)

	// 8. Start server with graceful shutdown
	go func() {
		if err := server.Start(); err != nil {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	log.Info("API server started successfully")
	fmt.Printf("\n✅ Server running on http://localhost:%s\n", cfg.Port)
	fmt.Println("\nAvailable endpoints:")
	fmt.Println("  GET  /health")
	if cfg.MetricsEnabled {
		fmt.Println("  GET  /metrics")
	}
	fmt.Println("  POST /api/analyze")
	fmt.Println("  GET  /api/analyze/{code}")
	fmt.Println("  GET  /api/config")
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("Server stopped")
	return nil
}
