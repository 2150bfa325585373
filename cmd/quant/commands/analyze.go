package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/aegis-valuation/internal/contracts"
	"github.com/wonny/aegis-valuation/internal/pipeline"
	"github.com/wonny/aegis-valuation/internal/snapshot"
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "단일 종목 분석 실행",
	Long: `스냅샷 하나에 대해 DCF → 교차검증 → 시그널 종합을 실행합니다.

입력:
  --file   스냅샷 JSON 파일
  --code   종목코드 (DATABASE_URL 설정 시 PostgreSQL, 아니면 SNAPSHOT_DIR)

Example:
  go run ./cmd/quant analyze --file data/snapshots/005930.json
  go run ./cmd/quant analyze --code 005930 --as-of 2024-06-30
  go run ./cmd/quant analyze --code 005930 --json`,
	RunE: runAnalyze,
}

var (
	analyzeFile string
	analyzeCode string
	analyzeAsOf string
	analyzeJSON bool
)

func init() {
	rootCmd.AddCommand(analyzeCmd)

	// Flags
	analyzeCmd.Flags().StringVar(&analyzeFile, "file", "", "스냅샷 JSON 파일 경로")
	analyzeCmd.Flags().StringVar(&analyzeCode, "code", "", "종목코드")
	analyzeCmd.Flags().StringVar(&analyzeAsOf, "as-of", "", "기준일 (YYYY-MM-DD, --code 전용)")
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "리포트를 JSON으로 출력")
	analyzeCmd.MarkFlagsMutuallyExclusive("file", "code")
	analyzeCmd.MarkFlagsOneRequired("file", "code")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadAppConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	engine, err := newEngine(cfg, log)
	if err != nil {
		return err
	}

	var snap *contracts.AnalysisSnapshot
	if analyzeFile != "" {
		snap, err = snapshot.ReadFile(analyzeFile)
		if err != nil {
			return fmt.Errorf("read snapshot: %w", err)
		}
	} else {
		var asOf time.Time
		if analyzeAsOf != "" {
			asOf, err = time.Parse("2006-01-02", analyzeAsOf)
			if err != nil {
				return fmt.Errorf("invalid --as-of %q: %w", analyzeAsOf, err)
			}
		}

		stack, err := openSources(ctx, cfg, nil, log)
		if err != nil {
			return err
		}
		defer stack.Close()

		snap, err = stack.Source.Load(ctx, analyzeCode, asOf)
		if err != nil {
			return fmt.Errorf("load snapshot %s: %w", analyzeCode, err)
		}
	}

	if cfg.Engine.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Engine.RunTimeout)
		defer cancel()
	}

	report, err := engine.Run(ctx, snap)
	if err != nil {
		return fmt.Errorf("analyze %s: %w", snap.Code, err)
	}

	if analyzeJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	printReport(report)
	return nil
}

// printReport renders a report for the terminal
func printReport(r *pipeline.Report) {
	PrintDoubleSeparator()
	title := r.Code
	if r.Name != "" {
		title = fmt.Sprintf("%s (%s)", r.Name, r.Code)
	}
	fmt.Printf("  %s\n", title)
	if !r.AsOf.IsZero() {
		fmt.Printf("  As of     : %s\n", r.AsOf.Format("2006-01-02"))
	}
	fmt.Printf("  Config    : %s\n", shortHash(r.ConfigHash))
	PrintDoubleSeparator()

	printValuation(r.Valuation)
	printTrust(r.Trust)
	printSignals(r)
	printRecommendation(r.Recommendation)
}

func printValuation(v *contracts.ValuationResult) {
	fmt.Println()
	fmt.Println("📐 DCF Valuation")
	PrintSeparator()
	if v == nil || !v.Available {
		reason := "not computed"
		if v != nil {
			reason = fmt.Sprintf("%s: %s", v.Kind, v.Reason)
		}
		PrintWarning("Valuation unavailable (" + reason + ")")
		return
	}

	PrintKeyValue("Intrinsic value", fmt.Sprintf("%.2f", v.IntrinsicValue), 16)
	PrintKeyValue("Current price", fmt.Sprintf("%.2f", v.CurrentPrice), 16)
	PrintKeyValue("Upside", formatPct(v.UpsidePct), 16)
	PrintKeyValue("WACC", fmt.Sprintf("%.2f%%", v.WACC*100), 16)
	PrintKeyValue("Growth", fmt.Sprintf("%.2f%% → %.2f%%", v.GrowthRate*100, v.TerminalGrowth*100), 16)
	PrintKeyValue("Enterprise value", fmt.Sprintf("%.2f", v.EnterpriseValue), 16)
	PrintKeyValue("Equity value", fmt.Sprintf("%.2f", v.EquityValue), 16)
	if v.EVMismatch {
		PrintWarning(fmt.Sprintf("DCF EV deviates from market EV by %s", formatPct(v.EVDeltaPct)))
	}
	if v.PeakCapex {
		PrintInfo("Peak capex cycle: FCF may be understated")
	}

	if g := v.Sensitivity; g != nil && len(g.Cells) > 0 {
		fmt.Println()
		fmt.Printf("   Sensitivity (rows: WACC, cols: terminal growth, %d valid)\n", g.Valid())
		columns := []string{"WACC"}
		widths := []int{8}
		for _, tg := range g.TerminalGrowthRange {
			columns = append(columns, fmt.Sprintf("%.2f%%", tg*100))
			widths = append(widths, 10)
		}
		PrintTableHeader(columns, widths)
		for i, row := range g.Cells {
			values := []string{fmt.Sprintf("%.2f%%", g.WACCRange[i]*100)}
			for _, cell := range row {
				if cell == nil {
					values = append(values, "n/a")
					continue
				}
				values = append(values, fmt.Sprintf("%.2f", *cell))
			}
			PrintTableRow(values, widths)
		}
	}
}

func printTrust(t *contracts.TrustScoreResult) {
	fmt.Println()
	fmt.Println("🔍 Cross-Validation")
	PrintSeparator()
	score, ok := t.Score()
	if !ok {
		reason := "no reference figures"
		if t != nil && t.Reason != "" {
			reason = t.Reason
		}
		PrintInfo("Trust score unavailable (" + reason + ")")
		return
	}

	PrintKeyValue("Trust score", fmt.Sprintf("%.1f / 100 (%s)", score, t.Label), 16)
	PrintKeyValue("Checks", fmt.Sprintf("%d match, %d partial, %d mismatch, %d skipped",
		t.Summary.Matched, t.Summary.Partial, t.Summary.Mismatch, t.Summary.Skipped), 16)
	if t.Penalty > 0 {
		PrintKeyValue("Auditor penalty", fmt.Sprintf("-%.1f", t.Penalty), 16)
	}

	var flags []string
	for _, f := range t.FlagsBySeverity() {
		text := f.Title
		if text == "" {
			text = f.Impact
		}
		flags = append(flags, fmt.Sprintf("[%s] %s %s", f.Severity, f.Category, text))
	}
	if len(flags) > 0 {
		PrintList(flags)
	}
}

func printSignals(r *pipeline.Report) {
	fmt.Println()
	fmt.Println("🗳  Signals")
	PrintSeparator()
	widths := []int{20, 8, 60}
	PrintTableHeader([]string{"Signal", "Vote", "Rationale"}, widths)
	for _, c := range append([]contracts.SignalContribution{r.DCF}, r.Contributions...) {
		PrintTableRow([]string{c.Name, voteLabel(c), c.Rationale}, widths)
	}
}

func printRecommendation(rec *contracts.Recommendation) {
	fmt.Println()
	PrintDoubleSeparator()
	if rec == nil {
		PrintError("No recommendation")
		return
	}
	fmt.Printf("  %s  (score %d/%d = %s, confidence %s)\n",
		rec.Tier, rec.Score, rec.MaxScore, formatPct(rec.ScorePct), rec.Confidence)
	fmt.Printf("  Horizon: %s\n", rec.Horizon)
	PrintDoubleSeparator()
	PrintNumberedList(rec.Thesis)
	if rec.DataSuspended {
		PrintWarning("Rating suspended: source data failed cross-validation")
	}
	if rec.GuardrailApplied {
		PrintWarning("Rating capped by EV guardrail")
	}
}

func voteLabel(c contracts.SignalContribution) string {
	switch {
	case !c.Available:
		return "—"
	case c.IsPositive == nil:
		return "abstain"
	case *c.IsPositive:
		return "+1"
	default:
		return "0"
	}
}

func formatPct(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.1f%%", *v)
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
