package valuation

import (
	"math"

	"github.com/wonny/aegis-valuation/internal/contracts"
	"github.com/wonny/aegis-valuation/internal/engineconfig"
)

// projection is the explicit-horizon DCF
type projection struct {
	FCF           []float64
	PVOfFCF       float64
	TerminalValue float64
	PVOfTerminal  float64
	EV            float64
}

// project grows base FCF for n years with growth decaying linearly to tg
// g_y = g − (g − tg)·y/n, FCF_y = base·(1+g_y)^y (매년 base 기준), 음수 FCF는 0으로 floor
// 호출자는 wacc > tg 를 보장해야 함
func project(base, growth, tg, wacc float64, n int) projection {
	p := projection{FCF: make([]float64, n)}
	for y := 1; y <= n; y++ {
		g := growth - (growth-tg)*float64(y)/float64(n)
		fcf := base * math.Pow(1+g, float64(y))
		if fcf < 0 {
			fcf = 0
		}
		p.FCF[y-1] = fcf
		p.PVOfFCF += fcf / math.Pow(1+wacc, float64(y))
	}

	if final := p.FCF[n-1]; final > 0 {
		p.TerminalValue = final * (1 + tg) / (wacc - tg)
		p.PVOfTerminal = p.TerminalValue / math.Pow(1+wacc, float64(n))
	}
	p.EV = p.PVOfFCF + p.PVOfTerminal
	return p
}

// sensitivity recomputes intrinsic value over the WACC × terminal growth grid
// WACC ≤ tg + margin 셀은 nil (분모 퇴화 방지)
func sensitivity(base, growth, tg, wacc, netDebt, shares float64, n int, cfg engineconfig.Sensitivity) *contracts.SensitivityGrid {
	grid := &contracts.SensitivityGrid{
		WACCRange:           make([]float64, len(cfg.WACCDeltas)),
		TerminalGrowthRange: make([]float64, len(cfg.TerminalGrowthDeltas)),
		Cells:               make([][]*float64, len(cfg.WACCDeltas)),
	}
	for j, d := range cfg.TerminalGrowthDeltas {
		grid.TerminalGrowthRange[j] = tg + d
	}

	for i, d := range cfg.WACCDeltas {
		w := wacc + d
		grid.WACCRange[i] = w
		row := make([]*float64, len(grid.TerminalGrowthRange))
		for j, t := range grid.TerminalGrowthRange {
			if w <= t+cfg.InvalidMargin+1e-9 {
				continue
			}
			p := project(base, growth, t, w, n)
			iv := (p.EV - netDebt) / shares
			if math.IsNaN(iv) || math.IsInf(iv, 0) {
				continue
			}
			row[j] = contracts.Float(iv)
		}
		grid.Cells[i] = row
	}
	return grid
}
