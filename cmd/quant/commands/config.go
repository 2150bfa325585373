package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wonny/aegis-valuation/internal/engineconfig"
	"github.com/wonny/aegis-valuation/pkg/logger"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "엔진 설정 조회 / 검증",
	Long: `엔진 YAML 설정(할인율, 허용오차, 투표 밴드)을 다룹니다.

Example:
  go run ./cmd/quant config show
  go run ./cmd/quant config validate --engine-config config/engine.yaml
  go run ./cmd/quant config hash`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "적용될 설정을 YAML로 출력",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := configPath()
		if err != nil {
			return err
		}
		_, raw, err := loadEngineConfig(path, logger.Nop())
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(raw)
		return err
	},
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "설정 검증 (오류는 실패, 경고는 출력만)",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := configPath()
		if err != nil {
			return err
		}
		cfg, _, err := engineconfig.LoadOrDefault(path)
		if err != nil {
			PrintError(err.Error())
			return err
		}
		for _, w := range engineconfig.Warn(cfg) {
			PrintWarning(fmt.Sprintf("%s: %s", w.Code, w.Message))
		}
		PrintSuccess(fmt.Sprintf("config %s (%s) is valid", cfg.Meta.ConfigID, cfg.Meta.Version))
		return nil
	},
}

var configHashGitCommit string

var configHashCmd = &cobra.Command{
	Use:   "hash",
	Short: "설정 해시 + 의사결정 스냅샷 출력",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := configPath()
		if err != nil {
			return err
		}
		cfg, raw, err := engineconfig.LoadOrDefault(path)
		if err != nil {
			return err
		}
		snap, err := engineconfig.NewDecisionSnapshot(cfg, raw, configHashGitCommit)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(snap)
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd, configValidateCmd, configHashCmd)

	configHashCmd.Flags().StringVar(&configHashGitCommit, "git-commit", "", "스냅샷에 기록할 git commit")
}

// configPath resolves --engine-config, then ENGINE_CONFIG
func configPath() (string, error) {
	cfg, _, err := loadAppConfig()
	if err != nil {
		return "", err
	}
	return cfg.Engine.ConfigPath, nil
}
