package backtest

import (
	"fmt"
	"os"
	"sort"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// WriteReport renders a self-contained HTML report for one run: the equity
// curve over steps plus the decision distribution.
func WriteReport(result *RunResult, path string) error {
	if result == nil {
		return fmt.Errorf("write report: nil result")
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    fmt.Sprintf("Backtest %s", result.AssetID),
			Subtitle: fmt.Sprintf("net %.4f, win rate %.0f%%, max drawdown %.4f", result.KPIs.NetPnl, result.KPIs.WinRate*100, result.KPIs.MaxDrawdown),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Trigger: "axis"}),
	)
	xAxis := make([]string, len(result.Steps))
	equity := make([]opts.LineData, len(result.EquityCurve))
	for i, st := range result.Steps {
		xAxis[i] = st.Timestamp.Format("01-02 15:04")
	}
	for i, v := range result.EquityCurve {
		equity[i] = opts.LineData{Value: v}
	}
	line.SetXAxis(xAxis).AddSeries("equity", equity)

	bar := charts.NewBar()
	bar.SetGlobalOptions(charts.WithTitleOpts(opts.Title{Title: "Decisions"}))
	decisions := make([]string, 0, len(result.Summary.DecisionCounts))
	for d := range result.Summary.DecisionCounts {
		decisions = append(decisions, d)
	}
	sort.Strings(decisions)
	counts := make([]opts.BarData, len(decisions))
	for i, d := range decisions {
		counts[i] = opts.BarData{Value: result.Summary.DecisionCounts[d]}
	}
	bar.SetXAxis(decisions).AddSeries("count", counts)

	page := components.NewPage()
	page.AddCharts(line, bar)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report file: %w", err)
	}
	defer f.Close()
	if err := page.Render(f); err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	return nil
}
