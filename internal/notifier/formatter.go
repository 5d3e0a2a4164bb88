package notifier

import (
	"fmt"
	"html"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"

	"SwingScreener/internal/model"
)

// SignalTags returns short tags for the active signals, in a fixed order.
func SignalTags(s model.SignalSet) string {
	var tags []string
	if s.EMAAligned {
		tags = append(tags, "EMA")
	}
	if s.RSIRecovery {
		tags = append(tags, "RSI")
	}
	if s.MACDCrossover {
		tags = append(tags, "MACD")
	}
	if s.SupportBounce {
		tags = append(tags, "SUP")
	}
	if s.VolumeSurge {
		tags = append(tags, "VOL")
	}
	if len(tags) == 0 {
		return "-"
	}
	return strings.Join(tags, " ")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func rsiText(o model.OptFloat) string {
	if v, ok := o.Get(); ok {
		return fmt.Sprintf("%.0f", v)
	}
	return "-"
}

// FormatScanReport formats the top candidates of a scan into a Telegram message.
func FormatScanReport(marketName string, res *model.ScanResult, topN int) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("🎯 <b>Swing Candidates</b> | %s | %s\n", html.EscapeString(marketName), res.ScannedAt.Format("2006-01-02")))
	b.WriteString(fmt.Sprintf("Scanned %d · %d candidates · %d filtered · %d skipped\n\n",
		res.Stats.Scanned, res.Count, res.Stats.Filtered, res.Stats.Skipped))

	if res.Count == 0 {
		b.WriteString("No swing trade candidates found today.")
		return b.String()
	}

	for i, c := range res.Candidates {
		if topN > 0 && i >= topN {
			b.WriteString(fmt.Sprintf("… and %d more\n", res.Count-topN))
			break
		}
		lvl := c.Levels
		b.WriteString(fmt.Sprintf("<b>%d. %s</b> %s\n", i+1, html.EscapeString(c.Symbol), html.EscapeString(truncate(c.Company, 28))))
		b.WriteString(fmt.Sprintf("   Score %.1f · R:R %.2f · RSI %s · %s\n", c.Score, lvl.RiskReward, rsiText(c.Latest.RSI), SignalTags(c.Signals)))
		b.WriteString(fmt.Sprintf("   CMP %.2f · Entry %.2f · SL %.2f · TGT %.2f\n", c.Latest.Close, lvl.Entry, lvl.StopLoss, lvl.PrimaryTarget))
	}
	return b.String()
}

// FormatCandidate formats one candidate with its score breakdown.
func FormatCandidate(c model.Candidate) string {
	var b strings.Builder
	lvl := c.Levels

	b.WriteString(fmt.Sprintf("📈 <b>%s</b> %s\n", html.EscapeString(c.Symbol), html.EscapeString(c.Company)))
	if c.Industry != "" {
		b.WriteString(fmt.Sprintf("%s\n", html.EscapeString(c.Industry)))
	}
	b.WriteString(fmt.Sprintf("\nCMP: %.2f | Volume: %s\n", c.Latest.Close, humanize.Comma(int64(c.Latest.Volume))))
	b.WriteString(fmt.Sprintf("Entry: %.2f\nStop loss: %.2f (risk %.2f)\n", lvl.Entry, lvl.StopLoss, lvl.Risk))
	b.WriteString(fmt.Sprintf("Target 1: %.2f | Target 2: %.2f\n", lvl.Target1, lvl.Target2))
	b.WriteString(fmt.Sprintf("R:R: %.2f\n\n", lvl.RiskReward))

	b.WriteString("📊 <b>Score breakdown:</b>\n")
	for _, f := range c.ScoreBreakdown {
		b.WriteString(fmt.Sprintf("  %s: %.1f (×%.2f) = %.1f  %s\n",
			f.Name, f.RawScore, f.Weight, f.Weighted, html.EscapeString(f.Reason)))
	}
	b.WriteString("  ─────────────────\n")
	b.WriteString(fmt.Sprintf("  Total: %.1f\n", c.Score))
	return b.String()
}

// FormatScanAge describes when a result was produced, e.g. "scanned 2 hours ago".
func FormatScanAge(res *model.ScanResult, now time.Time) string {
	return "scanned " + humanize.RelTime(res.ScannedAt, now, "ago", "from now")
}

// RenderTable writes the candidates as an aligned text table for the terminal.
func RenderTable(w io.Writer, candidates []model.Candidate) error {
	if len(candidates) == 0 {
		_, err := fmt.Fprintln(w, "No swing trade candidates found today.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "#\tSymbol\tCompany\tScore\tCMP\tEntry\tStop Loss\tTarget\tR:R\tSignals\tRSI\t")
	for i, c := range candidates {
		lvl := c.Levels
		fmt.Fprintf(tw, "%d\t%s\t%s\t%.1f\t%.2f\t%.2f\t%.2f\t%.2f\t%.2f\t%s\t%s\t\n",
			i+1, c.Symbol, truncate(c.Company, 20), c.Score,
			c.Latest.Close, lvl.Entry, lvl.StopLoss, lvl.PrimaryTarget, lvl.RiskReward,
			SignalTags(c.Signals), rsiText(c.Latest.RSI))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	_, err := fmt.Fprintln(w, "\nSignals: EMA aligned | RSI recovery | MACD crossover | SUP support bounce | VOL volume surge\n"+
		"CMP = current market price | R:R = risk:reward ratio")
	return err
}
