package models

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrialBalanceAccountBalance(t *testing.T) {
	tb := &TrialBalanceResponse{Entries: []TrialBalanceEntry{
		{AccountCode: "110", Balance: decimal.NewFromInt(1000)},
		{AccountCode: "800", Balance: decimal.NewFromInt(-250)},
	}}

	assert.True(t, tb.AccountBalance("110").Equal(decimal.NewFromInt(1000)))
	assert.True(t, tb.AccountBalance("800").Equal(decimal.NewFromInt(-250)))
	assert.True(t, tb.AccountBalance("112").IsZero())

	var missing *TrialBalanceResponse
	assert.True(t, missing.AccountBalance("110").IsZero())
}

func TestPnLLinesConsistent(t *testing.T) {
	raw := `{
		"entityId": "e1", "from": "2024-01-01", "to": "2024-01-31",
		"revenue": [{"accountCode": "400", "accountName": "Hire", "amount": 7000.50},
		            {"accountCode": "401", "accountName": "Transport", "amount": 2999.50}],
		"cogs": [{"accountCode": "500", "accountName": "Crane", "amount": 5000}],
		"expenses": [],
		"totalRevenue": 10000, "totalCogs": 5000, "totalExpenses": 0,
		"grossMargin": 5000, "netResult": 5000
	}`
	var pnl PnLResponse
	require.NoError(t, json.Unmarshal([]byte(raw), &pnl))
	assert.True(t, pnl.LinesConsistent())

	pnl.TotalCogs = decimal.NewFromInt(4000)
	assert.False(t, pnl.LinesConsistent())
}

func TestBalanceSheetBalanced(t *testing.T) {
	bs := BalanceSheetResponse{
		TotalAssets:      decimal.RequireFromString("1500.25"),
		TotalLiabilities: decimal.RequireFromString("500.25"),
		TotalEquity:      decimal.NewFromInt(1000),
	}
	assert.True(t, bs.Balanced())

	bs.TotalEquity = decimal.NewFromInt(999)
	assert.False(t, bs.Balanced())
}

func TestRecommendationTransitions(t *testing.T) {
	assert.True(t, RecommendationPending.CanTransitionTo(RecommendationApplied))
	assert.True(t, RecommendationPending.CanTransitionTo(RecommendationRejected))
	assert.False(t, RecommendationPending.CanTransitionTo(RecommendationPending))
	assert.False(t, RecommendationApplied.CanTransitionTo(RecommendationRejected))
	assert.False(t, RecommendationRejected.CanTransitionTo(RecommendationApplied))

	rec := CfoRecommendation{Status: RecommendationApplied}
	assert.True(t, rec.IsTerminal())
	rec.Status = RecommendationPending
	assert.False(t, rec.IsTerminal())
}

func TestAlertAcknowledged(t *testing.T) {
	var alert CfoAlert
	require.NoError(t, json.Unmarshal([]byte(`{"id":"a1","severity":"INFO","category":"GST","acknowledgedAt":null}`), &alert))
	assert.False(t, alert.Acknowledged())

	require.NoError(t, json.Unmarshal([]byte(`{"id":"a1","severity":"INFO","category":"GST","acknowledgedAt":"2024-01-02T00:00:00Z"}`), &alert))
	assert.True(t, alert.Acknowledged())
}

func TestBookingDetailsDecodesEmbeddedSummary(t *testing.T) {
	raw := `{"id":"b1","customer":"Acme","supplier":"Cranes Co","status":"CONFIRMED",
		"totalJobAmount":3000,"events":[{"id":"ev1","type":"DEPOSIT","date":"2024-01-02","amount":1000}],
		"revenue":3000,"cogs":2500,"grossMargin":500}`
	var details BookingDetails
	require.NoError(t, json.Unmarshal([]byte(raw), &details))

	assert.Equal(t, "b1", details.ID)
	assert.Equal(t, BookingConfirmed, details.Status)
	assert.True(t, details.Status.Valid())
	assert.Len(t, details.Events, 1)
	assert.True(t, details.GrossMargin.Equal(decimal.NewFromInt(500)))
}
