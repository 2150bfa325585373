package commands

import (
	"github.com/spf13/cobra"
)

// Version is set at build time: -ldflags "-X .../commands.Version=v1.2.3"
var Version = "dev"

var (
	// Global flags
	engineConfigPath string
	verbose          bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:     "quant",
	Short:   "Aegis Valuation - DCF / 교차검증 / 시그널 종합 엔진",
	Version: Version,
	Long: `Aegis Valuation Unified CLI

재무제표 스냅샷 하나로 세 단계를 실행합니다.
  DCF 가치평가 → 공시 수치 교차검증(신뢰도) → 시그널 투표 종합(BUY/HOLD/SELL)

Usage:
  go run ./cmd/quant [command]

Examples:
  go run ./cmd/quant analyze --file data/snapshots/005930.json
  go run ./cmd/quant analyze --code 005930 --json
  go run ./cmd/quant api
  go run ./cmd/quant config show`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&engineConfigPath, "engine-config", "", "engine YAML (default: ENGINE_CONFIG or built-in)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (debug logs)")
}
