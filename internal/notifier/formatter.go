package notifier

import (
	"fmt"
	"html"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"CryptoSignal/internal/collector"
	"CryptoSignal/internal/model"
)

// Fixed replies.
const (
	MsgSignalError  = "❌ Error generating signal. Please try again."
	MsgPriceError   = "❌ Error fetching price. Please try again."
	MsgScanError    = "❌ Error scanning markets. Please try again."
	MsgSubscribed   = "🔔 You are subscribed to automatic signals."
	MsgUnsubscribed = "🔕 You will no longer receive automatic signals. Send /start to subscribe again."
	MsgNotSubbed    = "ℹ️ You were not subscribed."

	MsgUnsubscribeError = "❌ Could not unsubscribe. Please try again."
)

// Status is the snapshot rendered by /status.
type Status struct {
	TestMode      bool
	Source        string
	Pairs         []string
	Interval      string
	Uptime        time.Duration
	Subscribers   int
	LastBroadcast time.Time
}

func modeLabel(testMode bool) string {
	if testMode {
		return "🔴 TEST MODE"
	}
	return "🟢 LIVE TRADING"
}

// LabelEmoji maps a signal label to its marker.
func LabelEmoji(l model.SignalLabel) string {
	switch l {
	case model.SignalStrongLong:
		return "🟢🟢"
	case model.SignalLong:
		return "🟢"
	case model.SignalShort:
		return "🔴"
	case model.SignalStrongShort:
		return "🔴🔴"
	default:
		return "⚪"
	}
}

// Strength folds the confidence into the 0-5 scale shown to users.
func Strength(sig *model.Signal) int {
	if sig == nil || sig.Label == model.SignalNeutral {
		return 0
	}
	switch {
	case sig.Confidence < 1:
		return 1
	case sig.Confidence > 5:
		return 5
	default:
		return sig.Confidence
	}
}

func strengthBar(n int) string {
	return strings.Repeat("▰", n) + strings.Repeat("▱", 5-n)
}

// indicator renders v with format, or "n/a" while it is undefined.
func indicator(format string, v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "n/a"
	}
	return fmt.Sprintf(format, v)
}

// FormatPriceValue renders a price with thousands separators, keeping more
// decimals for sub-dollar coins.
func FormatPriceValue(p float64) string {
	if math.IsNaN(p) || math.IsInf(p, 0) {
		return "n/a"
	}
	places := int32(2)
	switch abs := math.Abs(p); {
	case abs == 0:
	case abs < 0.01:
		places = 6
	case abs < 1:
		places = 4
	}
	s := decimal.NewFromFloat(p).StringFixed(places)

	intPart, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, frac = s[:i], s[i:]
	}
	neg := strings.HasPrefix(intPart, "-")
	intPart = strings.TrimPrefix(intPart, "-")

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	b.WriteString(frac)
	return "$" + b.String()
}

// FormatWelcome is the /start reply.
func FormatWelcome(name string, pairs []string, interval string, testMode bool) string {
	var b strings.Builder
	if name == "" {
		name = "there"
	}
	b.WriteString(fmt.Sprintf("Hi %s! 🤖\n\n", html.EscapeString(name)))
	b.WriteString("🚀 <b>Crypto Futures Trading Bot</b> 🚀\n\n")
	b.WriteString("<b>Pairs Monitoring:</b>\n")
	for _, p := range pairs {
		b.WriteString(fmt.Sprintf("• %s\n", p))
	}
	b.WriteString(fmt.Sprintf("\n<b>Timeframe:</b> %s\n", interval))
	b.WriteString("<b>Strategy:</b> 3-5 Minute Scalping\n")
	b.WriteString(fmt.Sprintf("<b>Status:</b> %s\n\n", modeLabel(testMode)))
	b.WriteString("Bot will send automatic trading signals for LONG/SHORT positions.\n")
	b.WriteString("Send /help for commands, /stop to unsubscribe.")
	return b.String()
}

// FormatSignal renders one analysis with its votes and indicator snapshot.
func FormatSignal(a *model.Analysis, testMode bool) string {
	var b strings.Builder
	title := "Trading Signal"
	if testMode {
		title += " - TEST DATA"
	}
	sig := a.Signal
	n := Strength(sig)

	b.WriteString(fmt.Sprintf("📊 <b>%s</b> 📊\n\n", title))
	b.WriteString(fmt.Sprintf("<b>Pair:</b> %s\n", a.Symbol))
	b.WriteString(fmt.Sprintf("<b>Price:</b> %s\n", FormatPriceValue(a.Price)))
	b.WriteString(fmt.Sprintf("<b>Signal:</b> %s %s\n", LabelEmoji(sig.Label), sig.Label))
	b.WriteString(fmt.Sprintf("<b>Strength:</b> %d/5 %s\n", n, strengthBar(n)))
	b.WriteString(fmt.Sprintf("<b>Votes:</b> 🐂 %d | 🐻 %d\n", sig.Bullish, sig.Bearish))

	var active []string
	for _, v := range sig.Votes {
		if v.Direction == model.Abstain {
			continue
		}
		arrow := "▲"
		if v.Direction == model.Bearish {
			arrow = "▼"
		}
		weight := ""
		if v.Weight > 1 {
			weight = fmt.Sprintf(" ×%d", v.Weight)
		}
		active = append(active, fmt.Sprintf("  %s %s%s: %s", arrow, v.Rule, weight, html.EscapeString(v.Commentary)))
	}
	if len(active) > 0 {
		b.WriteString("\n<b>Rules:</b>\n")
		b.WriteString(strings.Join(active, "\n"))
		b.WriteString("\n")
	}

	r := a.Latest
	b.WriteString("\n<b>Indicators:</b>\n")
	b.WriteString(fmt.Sprintf("  RSI %s | StochRSI %s\n", indicator("%.1f", r.RSI), indicator("%.1f", r.StochRSI)))
	b.WriteString(fmt.Sprintf("  MACD %s / %s (hist %s)\n",
		indicator("%.4g", r.MACD), indicator("%.4g", r.MACDSignal), indicator("%.4g", r.MACDHistogram)))
	b.WriteString(fmt.Sprintf("  K %s | D %s | J %s | WR %s\n",
		indicator("%.1f", r.K), indicator("%.1f", r.D), indicator("%.1f", r.J), indicator("%.1f", r.WR)))
	b.WriteString(fmt.Sprintf("  BOLL %s / %s\n", FormatPriceValue(r.BBLower), FormatPriceValue(r.BBUpper)))
	b.WriteString(fmt.Sprintf("\n🕒 %s UTC", a.At.UTC().Format("2006-01-02 15:04")))
	if testMode {
		b.WriteString("\n<i>Note: TEST MODE - simulated market data</i>")
	}
	return b.String()
}

// FormatPrice is the /price reply.
func FormatPrice(symbol string, price float64, at time.Time) string {
	return fmt.Sprintf("💱 <b>%s</b>: %s\n🕒 %s UTC", symbol, FormatPriceValue(price), at.UTC().Format("2006-01-02 15:04:05"))
}

// FormatScan lists every pair on one line. Failed pairs are marked, not dropped.
func FormatScan(results []collector.ScanResult, testMode bool) string {
	var b strings.Builder
	b.WriteString("🔎 <b>Market Scan</b>")
	if testMode {
		b.WriteString(" - TEST DATA")
	}
	b.WriteString("\n\n")
	for _, r := range results {
		if r.Err != nil || r.Analysis == nil {
			b.WriteString(fmt.Sprintf("⚠️ %s: no data\n", r.Symbol))
			continue
		}
		sig := r.Analysis.Signal
		b.WriteString(fmt.Sprintf("%s <b>%s</b> %s %s (%d/5)\n",
			LabelEmoji(sig.Label), r.Symbol, FormatPriceValue(r.Analysis.Price), sig.Label, Strength(sig)))
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatAlerts is the broadcast message for the directional signals of one
// scheduler tick.
func FormatAlerts(analyses []*model.Analysis, testMode bool) string {
	var b strings.Builder
	b.WriteString("🔔 <b>Signal Alert</b>")
	if testMode {
		b.WriteString(" - TEST DATA")
	}
	b.WriteString("\n\n")
	for _, a := range analyses {
		n := Strength(a.Signal)
		b.WriteString(fmt.Sprintf("%s <b>%s</b> %s\n", LabelEmoji(a.Signal.Label), a.Symbol, a.Signal.Label))
		b.WriteString(fmt.Sprintf("   %s | %d/5 %s\n", FormatPriceValue(a.Price), n, strengthBar(n)))
	}
	b.WriteString("\nSend /signal PAIR for details.")
	return b.String()
}

// FormatStatus is the /status reply.
func FormatStatus(s Status) string {
	var b strings.Builder
	b.WriteString("🤖 <b>Bot Status</b> 🤖\n\n")
	b.WriteString("<b>Status:</b> 🟢 RUNNING\n")
	b.WriteString(fmt.Sprintf("<b>Mode:</b> %s\n", modeLabel(s.TestMode)))
	b.WriteString(fmt.Sprintf("<b>Data source:</b> %s\n", s.Source))
	b.WriteString(fmt.Sprintf("<b>Pairs:</b> %d (%s)\n", len(s.Pairs), strings.Join(s.Pairs, ", ")))
	b.WriteString(fmt.Sprintf("<b>Timeframe:</b> %s\n", s.Interval))
	b.WriteString(fmt.Sprintf("<b>Subscribers:</b> %d\n", s.Subscribers))
	b.WriteString(fmt.Sprintf("<b>Uptime:</b> %s\n", s.Uptime.Truncate(time.Second)))
	if s.LastBroadcast.IsZero() {
		b.WriteString("<b>Last broadcast:</b> never")
	} else {
		b.WriteString(fmt.Sprintf("<b>Last broadcast:</b> %s UTC", s.LastBroadcast.UTC().Format("2006-01-02 15:04")))
	}
	return b.String()
}

// FormatUnknownPair rejects a pair outside the watch list.
func FormatUnknownPair(pair string, pairs []string) string {
	return fmt.Sprintf("❓ Unknown pair <b>%s</b>.\nAvailable: %s", html.EscapeString(pair), strings.Join(pairs, ", "))
}

// FormatHelp lists the supported commands.
func FormatHelp() string {
	var b strings.Builder
	b.WriteString("📖 <b>Commands</b>\n\n")
	b.WriteString("/start - subscribe to automatic signals\n")
	b.WriteString("/stop - unsubscribe\n")
	b.WriteString("/signal [PAIR] - current signal (default: first pair)\n")
	b.WriteString("/price [PAIR] - latest price\n")
	b.WriteString("/scan - signals for all pairs\n")
	b.WriteString("/status - bot status\n")
	b.WriteString("/help - this message")
	return b.String()
}
