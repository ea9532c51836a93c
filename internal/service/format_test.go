package service_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rongwang/finance-cockpit/internal/models"
	"github.com/rongwang/finance-cockpit/internal/service"
)

func TestFormatCurrency(t *testing.T) {
	assert.Equal(t, "$0.00", service.FormatCurrency(dec("0")))
	assert.Equal(t, "$1,234.56", service.FormatCurrency(dec("1234.56")))
	assert.Equal(t, "$1,234,567.00", service.FormatCurrency(dec("1234567")))
	assert.Equal(t, "-$20.00", service.FormatCurrency(dec("-20")))
	assert.Equal(t, "$0.13", service.FormatCurrency(dec("0.125")))
}

func TestFormatPercent(t *testing.T) {
	assert.Equal(t, "35.5%", service.FormatPercent(dec("35.46")))
	assert.Equal(t, "0.0%", service.FormatPercent(dec("0")))
	assert.Equal(t, "+2.0%", service.FormatSignedPercent(dec("2")))
	assert.Equal(t, "-1.3%", service.FormatSignedPercent(dec("-1.25")))
}

func TestFormatDate(t *testing.T) {
	assert.Equal(t, "15/03/2025", service.FormatDate("2025-03-15"))
	assert.Equal(t, "01/02/2025", service.FormatDate("2025-02-01T08:00:00.000Z"))
	assert.Equal(t, "soon", service.FormatDate("soon"))
}

func TestTones(t *testing.T) {
	assert.Equal(t, service.ToneWarning, service.BookingTone(models.BookingPending))
	assert.Equal(t, service.ToneNeutral, service.BookingTone("ARCHIVED"))
	assert.Equal(t, service.ToneWarning, service.SeverityTone(models.SeverityWarning))
	assert.Equal(t, service.ToneNeutral, service.RecommendationTone(models.RecommendationOther))
}
