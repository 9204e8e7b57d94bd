package notifier

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"MarketAnalyzer/internal/model"
	"MarketAnalyzer/internal/recorder"
)

func sampleAnalysis() *model.Analysis {
	date := time.Date(2024, 3, 28, 0, 0, 0, 0, time.UTC)
	return &model.Analysis{
		Symbol:    "SPY",
		Interval:  "1d",
		Bars:      60,
		LastDate:  date,
		LastClose: 170,
		Indicators: model.IndicatorSet{
			Date:       date,
			SMA20:      model.NewValue(154.9),
			EMA20:      model.NewValue(154.39),
			RSI14:      model.NewValue(75),
			MACD:       model.NewValue(4.88),
			MACDSignal: model.NewValue(5.35),
			MACDHist:   model.NewValue(-0.47),
			BBLower:    model.NewValue(146.62),
			BBMiddle:   model.NewValue(154.9),
			BBUpper:    model.NewValue(163.18),
		},
	}
}

func TestFormatAnalysis(t *testing.T) {
	msg := FormatAnalysis(sampleAnalysis())

	assert.Contains(t, msg, "<b>SPY</b> | 2024-03-28")
	assert.Contains(t, msg, "SMA 20: 154.90")
	assert.Contains(t, msg, "BB upper: 163.18")
	assert.Contains(t, msg, "RSI 75.0 超买")
	assert.Contains(t, msg, "收盘价高于布林上轨")
	assert.Contains(t, msg, "MACD 位于信号线下方")
}

func TestFormatAnalysis_Quote(t *testing.T) {
	a := sampleAnalysis()
	assert.NotContains(t, FormatAnalysis(a), "实时价格")

	a.Quote = model.NewValue(171.7)
	assert.Contains(t, FormatAnalysis(a), "实时价格: 171.70 (较收盘 +1.00%)")
}

func TestFormatAnalysis_MissingIndicators(t *testing.T) {
	a := sampleAnalysis()
	a.Indicators.SMA20 = model.Value{}
	a.Indicators.RSI14 = model.Value{}

	msg := FormatAnalysis(a)
	assert.Contains(t, msg, "SMA 20: n/a")
	assert.Contains(t, msg, "RSI 14: n/a")
	assert.NotContains(t, msg, "超买")
}

func TestFormatAnalysis_Empty(t *testing.T) {
	a := &model.Analysis{Symbol: "NEW", Interval: "1d"}
	msg := FormatAnalysis(a)
	assert.Contains(t, msg, "暂无可用指标")
	assert.NotContains(t, msg, "n/a")
}

func TestFormatAnalysis_EscapesSymbol(t *testing.T) {
	a := sampleAnalysis()
	a.Symbol = "A<B>"
	assert.Contains(t, FormatAnalysis(a), "A&lt;B&gt;")
}

func TestFormatDigest(t *testing.T) {
	msg := FormatDigest([]*model.Analysis{sampleAnalysis()}, []string{"BAD"})

	assert.Contains(t, msg, "<b>SPY</b> 170.00 | RSI 75.0 | MACDh -0.47 | BBM 154.90")
	assert.Contains(t, msg, "失败: BAD")
}

func TestFormatDigest_NothingSucceeded(t *testing.T) {
	msg := FormatDigest(nil, []string{"X", "Y"})
	assert.Contains(t, msg, "没有成功的分析")
	assert.Contains(t, msg, "X, Y")
}

func TestFormatHistory(t *testing.T) {
	a := sampleAnalysis()
	snaps := []recorder.Snapshot{{Symbol: "SPY", Close: 170, Indicators: a.Indicators}}

	msg := FormatHistory("SPY", snaps)
	assert.Contains(t, msg, "2024-03-28  170.00 | SMA 20 154.90 | RSI 14 75.00 | MACD 4.88")

	assert.Contains(t, FormatHistory("SPY", nil), "暂无记录")
}

func TestFormatHelp(t *testing.T) {
	help := FormatHelp()
	for _, cmd := range []string{"/ta", "/history", "/watchlist", "/help"} {
		assert.True(t, strings.Contains(help, cmd), cmd)
	}
}
