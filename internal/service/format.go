package service

import (
	"time"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"

	"github.com/rongwang/finance-cockpit/internal/models"
)

// DisplayCurrency is the currency every amount is shown in
const DisplayCurrency = money.AUD

// FormatCurrency renders amount as AUD the way en-AU shows it, e.g. "$1,234.56" or "-$20.00"
func FormatCurrency(amount decimal.Decimal) string {
	// to get a never nil currency I need to call the Money constructor
	cur := money.New(0, DisplayCurrency).Currency()
	// go-money's AUD grapheme is "A$", locally it is just "$"
	f := money.NewFormatter(cur.Fraction, cur.Decimal, cur.Thousand, "$", cur.Template)
	minor := amount.Shift(int32(cur.Fraction)).Round(0).IntPart()
	return f.Format(minor)
}

// FormatPercent renders a percentage with one decimal, e.g. "35.5%"
func FormatPercent(value decimal.Decimal) string {
	return value.StringFixed(1) + "%"
}

// FormatSignedPercent is FormatPercent with a leading "+" for positive values
func FormatSignedPercent(value decimal.Decimal) string {
	if value.IsPositive() {
		return "+" + FormatPercent(value)
	}
	return FormatPercent(value)
}

// FormatDate renders an RFC 3339 or YYYY-MM-DD timestamp as an Australian date.
// Unparseable input is returned unchanged.
func FormatDate(s string) string {
	if t, ok := parseTimestamp(s); ok {
		return t.Format("02/01/2006")
	}
	return s
}

func parseTimestamp(s string) (time.Time, bool) {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Tones name how a status badge is drawn
const (
	ToneSuccess = "success"
	ToneInfo    = "info"
	ToneWarning = "warning"
	ToneDanger  = "danger"
	ToneAccent  = "accent"
	ToneNeutral = "neutral"
)

// BookingTone maps a booking status to a badge tone
func BookingTone(status models.BookingStatus) string {
	switch status {
	case models.BookingCompleted:
		return ToneSuccess
	case models.BookingConfirmed:
		return ToneInfo
	case models.BookingPending:
		return ToneWarning
	case models.BookingCancelled:
		return ToneDanger
	}
	return ToneNeutral
}

// SeverityTone maps an alert severity to a badge tone
func SeverityTone(severity models.AlertSeverity) string {
	switch severity {
	case models.SeverityCritical:
		return ToneDanger
	case models.SeverityWarning:
		return ToneWarning
	case models.SeverityInfo:
		return ToneInfo
	}
	return ToneNeutral
}

// RecommendationTone maps a recommendation type to a badge tone
func RecommendationTone(kind models.RecommendationType) string {
	switch kind {
	case models.RecommendationAdjustmentJournal:
		return ToneInfo
	case models.RecommendationCashReserveMove:
		return ToneAccent
	case models.RecommendationGSTReserve:
		return ToneWarning
	case models.RecommendationMarginOptimization:
		return ToneSuccess
	}
	return ToneNeutral
}
