package notifier

import (
	"fmt"
	"html"
	"strings"

	"MarketAnalyzer/internal/model"
	"MarketAnalyzer/internal/recorder"
)

const dateLayout = "2006-01-02"

var indicatorLabels = map[string]string{
	model.NameSMA20:      "SMA 20",
	model.NameEMA20:      "EMA 20",
	model.NameRSI14:      "RSI 14",
	model.NameMACD:       "MACD",
	model.NameMACDSignal: "MACD signal",
	model.NameMACDHist:   "MACD hist",
	model.NameBBLower:    "BB lower",
	model.NameBBMiddle:   "BB middle",
	model.NameBBUpper:    "BB upper",
}

// FormatAnalysis formats a single analysis into a Telegram message.
func FormatAnalysis(a *model.Analysis) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("📊 <b>%s</b> | %s\n", html.EscapeString(a.Symbol), a.LastDate.Format(dateLayout)))
	b.WriteString(fmt.Sprintf("收盘价: %.2f (%d bars, %s)\n", a.LastClose, a.Bars, a.Interval))
	if a.Quote.Valid {
		b.WriteString(fmt.Sprintf("实时价格: %.2f", a.Quote.Float64))
		if a.LastClose > 0 {
			b.WriteString(fmt.Sprintf(" (较收盘 %+.2f%%)", (a.Quote.Float64-a.LastClose)/a.LastClose*100))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")

	if a.Indicators.Empty() {
		b.WriteString("暂无可用指标\n")
		return b.String()
	}

	b.WriteString("📈 <b>技术指标:</b>\n")
	for _, name := range model.IndicatorNames {
		v, ok := a.Indicators.Lookup(name)
		if !ok {
			b.WriteString(fmt.Sprintf("  %s: n/a\n", indicatorLabels[name]))
			continue
		}
		b.WriteString(fmt.Sprintf("  %s: %.2f\n", indicatorLabels[name], v))
	}

	if notes := commentary(a); len(notes) > 0 {
		b.WriteString("\n")
		for _, n := range notes {
			b.WriteString("• " + n + "\n")
		}
	}
	return b.String()
}

// commentary gives short readings of the RSI zone, band position and MACD side.
func commentary(a *model.Analysis) []string {
	var notes []string
	ind := a.Indicators

	if rsi, ok := ind.Lookup(model.NameRSI14); ok {
		switch {
		case rsi >= 70:
			notes = append(notes, fmt.Sprintf("RSI %.1f 超买", rsi))
		case rsi <= 30:
			notes = append(notes, fmt.Sprintf("RSI %.1f 超卖", rsi))
		}
	}
	if upper, ok := ind.Lookup(model.NameBBUpper); ok && a.LastClose > upper {
		notes = append(notes, "收盘价高于布林上轨")
	}
	if lower, ok := ind.Lookup(model.NameBBLower); ok && a.LastClose < lower {
		notes = append(notes, "收盘价低于布林下轨")
	}
	if hist, ok := ind.Lookup(model.NameMACDHist); ok {
		if hist > 0 {
			notes = append(notes, "MACD 位于信号线上方")
		} else if hist < 0 {
			notes = append(notes, "MACD 位于信号线下方")
		}
	}
	return notes
}

// FormatDigest formats the result of a watchlist sweep.
func FormatDigest(analyses []*model.Analysis, failed []string) string {
	var b strings.Builder
	b.WriteString("🗓 <b>MarketAnalyzer 日报</b>\n\n")

	for _, a := range analyses {
		b.WriteString(fmt.Sprintf("<b>%s</b> %.2f", html.EscapeString(a.Symbol), a.LastClose))
		if rsi, ok := a.Indicators.Lookup(model.NameRSI14); ok {
			b.WriteString(fmt.Sprintf(" | RSI %.1f", rsi))
		}
		if hist, ok := a.Indicators.Lookup(model.NameMACDHist); ok {
			b.WriteString(fmt.Sprintf(" | MACDh %+.2f", hist))
		}
		if mid, ok := a.Indicators.Lookup(model.NameBBMiddle); ok {
			b.WriteString(fmt.Sprintf(" | BBM %.2f", mid))
		}
		b.WriteString("\n")
	}
	if len(analyses) == 0 {
		b.WriteString("没有成功的分析\n")
	}
	if len(failed) > 0 {
		b.WriteString(fmt.Sprintf("\n⚠️ 失败: %s\n", html.EscapeString(strings.Join(failed, ", "))))
	}
	return b.String()
}

// FormatHistory formats recorded snapshots, newest first.
func FormatHistory(symbol string, snaps []recorder.Snapshot) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📜 <b>%s 历史指标</b>\n\n", html.EscapeString(symbol)))
	if len(snaps) == 0 {
		b.WriteString("暂无记录\n")
		return b.String()
	}
	for _, s := range snaps {
		b.WriteString(fmt.Sprintf("%s  %.2f", s.Indicators.Date.Format(dateLayout), s.Close))
		for _, name := range []string{model.NameSMA20, model.NameRSI14, model.NameMACD} {
			if v, ok := s.Indicators.Lookup(name); ok {
				b.WriteString(fmt.Sprintf(" | %s %.2f", indicatorLabels[name], v))
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}

// FormatWatchlist lists the configured symbols.
func FormatWatchlist(symbols []string) string {
	return fmt.Sprintf("👀 <b>关注列表</b>\n%s", html.EscapeString(strings.Join(symbols, ", ")))
}

// FormatHelp returns the command reference.
func FormatHelp() string {
	return `📖 <b>可用命令</b>

/ta SYMBOL [days] - 技术指标分析 (默认回看天数见配置)
/history SYMBOL [n] - 最近 n 条记录的指标
/watchlist - 查看关注列表
/help - 显示帮助`
}
