package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/aegis-valuation/internal/snapshot"
	"github.com/wonny/aegis-valuation/pkg/database"
)

// snapshotCmd represents the snapshot command
var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "분석 스냅샷 관리",
	Long: `분석 입력 스냅샷(JSON)을 검증하고 PostgreSQL에 적재합니다.

Example:
  go run ./cmd/quant snapshot check data/snapshots/005930.json
  go run ./cmd/quant snapshot import data/snapshots/*.json`,
}

var snapshotCheckCmd = &cobra.Command{
	Use:   "check [file...]",
	Short: "스냅샷 파일 구조 검증",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSnapshotCheck,
}

var snapshotImportCmd = &cobra.Command{
	Use:   "import [file...]",
	Short: "스냅샷 파일을 PostgreSQL에 적재 (upsert)",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSnapshotImport,
}

func init() {
	rootCmd.AddCommand(snapshotCmd)
	snapshotCmd.AddCommand(snapshotCheckCmd, snapshotImportCmd)
}

func runSnapshotCheck(cmd *cobra.Command, args []string) error {
	failed := 0
	for _, path := range args {
		snap, err := snapshot.ReadFile(path)
		if err != nil {
			PrintError(fmt.Sprintf("%s: %v", path, err))
			failed++
			continue
		}
		PrintSuccess(fmt.Sprintf("%s: %s as of %s", path, snap.Code, snap.AsOf.Format("2006-01-02")))
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d snapshots invalid", failed, len(args))
	}
	return nil
}

func runSnapshotImport(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadAppConfig()
	if err != nil {
		return err
	}
	if !cfg.Database.Enabled() {
		return fmt.Errorf("snapshot import: %w (set DATABASE_URL)", database.ErrNotConfigured)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	store := snapshot.NewPostgresSource(db.Pool)
	if err := store.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("ensure snapshot schema: %w", err)
	}

	imported := 0
	for i, path := range args {
		snap, err := snapshot.ReadFile(path)
		if err != nil {
			PrintError(fmt.Sprintf("%s: %v", path, err))
			continue
		}
		if err := store.Save(ctx, snap); err != nil {
			log.WithError(err).WithField("file", path).Error("Snapshot import failed")
			PrintError(fmt.Sprintf("%s: %v", path, err))
			continue
		}
		imported++
		fmt.Printf("[Import] %s → %s @ %s [%d/%d]\n", path, snap.Code, snap.AsOf.Format("2006-01-02"), i+1, len(args))
	}

	fmt.Println()
	PrintSuccess(fmt.Sprintf("imported %d of %d snapshots", imported, len(args)))
	if imported < len(args) {
		return fmt.Errorf("%d snapshots failed", len(args)-imported)
	}
	return nil
}
