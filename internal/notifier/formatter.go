package notifier

import (
	"fmt"
	"html"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"

	"BasketSentinel/internal/backtest"
	"BasketSentinel/internal/model"
)

var decisionIcon = map[model.Decision]string{
	model.DecisionBuy:  "🟢",
	model.DecisionSell: "🔴",
	model.DecisionNone: "⚪",
}

// FormatSignalReport formats a basket assessment into a Telegram message.
func FormatSignalReport(reports []model.SignalReport, asOf time.Time) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📊 <b>BasketSentinel signals</b> | %s\n\n", asOf.Format("2006-01-02")))

	var buys, sells int
	for _, r := range reports {
		switch r.Decision {
		case model.DecisionBuy:
			buys++
		case model.DecisionSell:
			sells++
		}
		b.WriteString(fmt.Sprintf("%s %s\n", decisionIcon[r.Decision], html.EscapeString(backtest.Describe(r))))
		if r.Reason != "" {
			b.WriteString(fmt.Sprintf("   <i>%s</i>\n", html.EscapeString(r.Reason)))
			continue
		}
		b.WriteString(fmt.Sprintf("   price %s | buy %.2f | sell %.2f | RSI %.0f\n",
			formatMoney(r.Score.Price), r.Score.Buy, r.Score.Sell, r.Indicators.RSI))
	}
	b.WriteString(fmt.Sprintf("\n%d buy, %d sell, %d no signal\n", buys, sells, len(reports)-buys-sells))
	return b.String()
}

// FormatSignalDetail breaks one report down by factor.
func FormatSignalDetail(r model.SignalReport) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s <b>%s</b> | %s\n\n", decisionIcon[r.Decision], html.EscapeString(r.Symbol), r.AsOf.Format("2006-01-02")))
	if r.Reason != "" {
		b.WriteString(html.EscapeString(r.Reason) + "\n")
		return b.String()
	}
	p := r.Indicators
	b.WriteString(fmt.Sprintf("Price: %s\n", formatMoney(p.Close)))
	if p.BandsReady {
		b.WriteString(fmt.Sprintf("Bollinger: %.2f / %.2f / %.2f\n", p.Lower, p.Mid, p.Upper))
	} else {
		b.WriteString("Bollinger: warming up\n")
	}
	b.WriteString(fmt.Sprintf("RSI: %.1f | MACD: %.3f (signal %.3f)\n\n", p.RSI, p.MACD, p.Signal))

	b.WriteString("📈 <b>Factors:</b>\n")
	for _, f := range r.Score.Factors {
		if f.RawScore == 0 {
			continue
		}
		b.WriteString(fmt.Sprintf("  %s %s: %.2f (×%.2f) = %.3f\n", f.Side, f.Name, f.RawScore, f.Weight, f.Weighted))
	}
	b.WriteString(fmt.Sprintf("  buy %.3f | sell %.3f\n", r.Score.Buy, r.Score.Sell))
	return b.String()
}

// FormatBacktestReport summarizes a backtest result.
func FormatBacktestReport(res *backtest.Result) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🧪 <b>Backtest</b> | %s → %s\n",
		res.Start.Format("2006-01-02"), res.End.Format("2006-01-02")))
	b.WriteString(fmt.Sprintf("Run: <code>%s</code>\n\n", res.RunID))
	b.WriteString(fmt.Sprintf("Initial: %s\n", formatMoney(res.InitialBalance)))
	b.WriteString(fmt.Sprintf("Final:   %s (%+.2f%%)\n", formatMoney(res.FinalBalance), res.ReturnPct))
	b.WriteString(fmt.Sprintf("Cash:    %s\n", formatMoney(res.Cash)))
	b.WriteString(fmt.Sprintf("Trades:  %d buy / %d sell\n", res.Buys, res.Sells))

	if stats := res.SymbolStats(); len(stats) > 0 {
		b.WriteString("\n<b>Per symbol:</b>\n")
		for _, st := range stats {
			b.WriteString(fmt.Sprintf("  %s: %dB/%dS realized %s held %d\n",
				st.Symbol, st.Buys, st.Sells, formatMoney(st.Realized), st.Shares))
		}
	}
	if skipped := res.SkippedSymbols(); len(skipped) > 0 {
		b.WriteString("\n<b>Skipped:</b>\n")
		for _, sym := range skipped {
			b.WriteString(fmt.Sprintf("  %s: %s\n", sym, html.EscapeString(res.Skipped[sym])))
		}
	}
	return b.String()
}

// formatMoney renders an amount with two decimals and thousands separators.
// Non-finite amounts render as n/a.
func formatMoney(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "n/a"
	}
	d := decimal.NewFromFloat(v).Round(2)
	sign := ""
	if d.IsNegative() {
		sign = "-"
	}
	return sign + "$" + humanize.FormatFloat("#,###.##", d.Abs().InexactFloat64())
}

var htmlTag = regexp.MustCompile(`</?[a-z]+>`)

// PlainText strips the Telegram HTML markup for console output.
func PlainText(msg string) string {
	return html.UnescapeString(htmlTag.ReplaceAllString(msg, ""))
}
