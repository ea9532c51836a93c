package api_test

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rongwang/finance-cockpit/internal/api/testutils"
	"github.com/rongwang/finance-cockpit/internal/models"
	"github.com/rongwang/finance-cockpit/internal/service"
)

func loggedIn(t *testing.T) *testutils.TestContext {
	testCtx := testutils.SetupTestContext(t)
	t.Cleanup(func() { testutils.CleanupTestContext(testCtx) })
	testCtx.Login(t)
	return testCtx
}

func TestDashboard(t *testing.T) {
	testCtx := loggedIn(t)

	// Test case 1: Everything available
	w := testCtx.Do(http.MethodGet, "/api/dashboard", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var view service.DashboardView
	testutils.DecodeJSON(t, w, &view)
	assert.Empty(t, view.Error)
	assert.Equal(t, testutils.TestEntityID, view.EntityID)
	require.NotNil(t, view.Brief)
	assert.Equal(t, "45 days", view.Brief.Runway)
	require.Len(t, view.KPIs, 5)
	assert.Equal(t, "$20,000.00", view.KPIs[0].Value)

	// Test case 2: The brief is down, the page still renders
	testCtx.Fakes.Set(func(f *testutils.FakeBackends) { f.BriefFails = true })
	w = testCtx.Do(http.MethodGet, "/api/dashboard", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	view = service.DashboardView{}
	testutils.DecodeJSON(t, w, &view)
	assert.Empty(t, view.Error)
	assert.Equal(t, service.BriefUnavailable, view.BriefWarning)
	assert.Nil(t, view.Brief)
	assert.Equal(t, "$15,000.00", view.KPIs[0].Value)
	assert.Equal(t, "$3,000.00", view.KPIs[1].Value)
}

func TestDashboardLedgerErrors(t *testing.T) {
	testCtx := loggedIn(t)

	// Test case 1: Ledger answers with an error status
	testCtx.Fakes.Set(func(f *testutils.FakeBackends) { f.LedgerDown = true })
	w := testCtx.Do(http.MethodGet, "/api/dashboard", nil, nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)

	var view service.DashboardView
	testutils.DecodeJSON(t, w, &view)
	assert.Equal(t, "CraneLedger API error: 503 Service Unavailable", view.Error)
	assert.False(t, view.Loading)

	// Test case 2: Ledger unreachable
	testCtx.StopLedger()
	w = testCtx.Do(http.MethodGet, "/api/dashboard", nil, nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	view = service.DashboardView{}
	testutils.DecodeJSON(t, w, &view)
	assert.True(t, strings.HasPrefix(view.Error, "Failed to fetch from CraneLedger: "), view.Error)
}

func TestBookings(t *testing.T) {
	testCtx := loggedIn(t)

	// Test case 1: No filters
	w := testCtx.Do(http.MethodGet, "/api/bookings?status=all", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var view service.BookingsView
	testutils.DecodeJSON(t, w, &view)
	require.Len(t, view.Rows, 1)
	assert.Equal(t, "$1,000.00", view.Rows[0].Total)
	assert.Equal(t, service.ToneInfo, view.Rows[0].StatusTone)

	// Test case 2: Status and start date only
	w = testCtx.Do(http.MethodGet, "/api/bookings?status=PENDING&fromDate=2025-01-01", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	testCtx.Fakes.Snapshot(func(f *testutils.FakeBackends) {
		require.Len(t, f.BookingQueries, 2)
		assert.Equal(t, "entityId="+testutils.TestEntityID, f.BookingQueries[0])
		assert.Equal(t, "entityId="+testutils.TestEntityID+"&fromDate=2025-01-01&status=PENDING", f.BookingQueries[1])
	})

	// Test case 3: Bad input never reaches the ledger
	for _, query := range []string{"status=LOST", "fromDate=01-01-2025", "fromDate=2025-02-01&toDate=2025-01-01"} {
		w = testCtx.Do(http.MethodGet, "/api/bookings?"+query, nil, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, query)
	}
	testCtx.Fakes.Snapshot(func(f *testutils.FakeBackends) {
		assert.Len(t, f.BookingQueries, 2)
	})
}

func TestBookingsInvalidResponse(t *testing.T) {
	testCtx := loggedIn(t)
	testCtx.Fakes.Set(func(f *testutils.FakeBackends) {
		f.BookingsRaw = `[{"id":"b-1","status":"LOST"}]`
	})

	w := testCtx.Do(http.MethodGet, "/api/bookings", nil, nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)

	var view service.BookingsView
	testutils.DecodeJSON(t, w, &view)
	assert.True(t, strings.HasPrefix(view.Error, "Invalid response from CraneLedger"), view.Error)
	assert.Empty(t, view.Rows)
}

func TestBookingDetail(t *testing.T) {
	testCtx := loggedIn(t)

	w := testCtx.Do(http.MethodGet, "/api/bookings/b-1", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var view service.BookingDetailView
	testutils.DecodeJSON(t, w, &view)
	require.Len(t, view.Timeline, 2)
	assert.Equal(t, "e1", view.Timeline[0].ID)
	assert.Equal(t, "35.0%", view.Financials.MarginPct)

	w = testCtx.Do(http.MethodGet, "/api/bookings/missing", nil, nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	view = service.BookingDetailView{}
	testutils.DecodeJSON(t, w, &view)
	assert.Equal(t, "CraneLedger API error: 404 Not Found", view.Error)
}

func TestAlerts(t *testing.T) {
	testCtx := loggedIn(t)

	w := testCtx.Do(http.MethodGet, "/api/alerts", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var view service.AlertsView
	testutils.DecodeJSON(t, w, &view)
	assert.True(t, view.UnacknowledgedOnly)
	assert.Len(t, view.Cards, 2)

	w = testCtx.Do(http.MethodGet, "/api/alerts?unacknowledgedOnly=maybe", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Test case: Acknowledge succeeds
	w = testCtx.Do(http.MethodPost, "/api/alerts/alert-1/ack", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var action models.ActionResponse
	testutils.DecodeJSON(t, w, &action)
	assert.Equal(t, "alert-1", action.ID)
	assert.Equal(t, []models.Notification{{Level: "success", Message: "Alert acknowledged"}}, action.Notifications)

	// Test case: Acknowledge fails
	testCtx.Fakes.Set(func(f *testutils.FakeBackends) { f.WritesFail = true })
	w = testCtx.Do(http.MethodPost, "/api/alerts/alert-2/ack", nil, nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)

	action = models.ActionResponse{}
	testutils.DecodeJSON(t, w, &action)
	assert.Equal(t, "error", action.Status)
	assert.Equal(t, []models.Notification{{Level: "error", Message: "Failed to acknowledge alert"}}, action.Notifications)

	testCtx.Fakes.Snapshot(func(f *testutils.FakeBackends) {
		assert.Equal(t, []string{"alert-1"}, f.Acked)
	})
}

func TestRecommendations(t *testing.T) {
	testCtx := loggedIn(t)

	w := testCtx.Do(http.MethodGet, "/api/recommendations", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var view service.RecommendationsView
	testutils.DecodeJSON(t, w, &view)
	assert.Equal(t, models.RecommendationPending, view.Status)
	require.Len(t, view.Cards, 2)
	assert.True(t, view.Cards[0].Actionable)

	w = testCtx.Do(http.MethodGet, "/api/recommendations?status=DONE", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = testCtx.Do(http.MethodGet, "/api/recommendations?status=APPLIED", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	view = service.RecommendationsView{}
	testutils.DecodeJSON(t, w, &view)
	assert.False(t, view.Cards[0].Actionable)
}

func TestRecommendationActions(t *testing.T) {
	testCtx := loggedIn(t)

	// Test case 1: Approve
	w := testCtx.Do(http.MethodPost, "/api/recommendations/rec-2/approve", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var action models.ActionResponse
	testutils.DecodeJSON(t, w, &action)
	assert.Equal(t, "Recommendation approved successfully", action.Notifications[0].Message)

	// Test case 2: Reject with a reason
	w = testCtx.Do(http.MethodPost, "/api/recommendations/rec-1/reject", models.RejectRequest{Reason: "Not needed"}, nil)
	require.Equal(t, http.StatusOK, w.Code)

	// Test case 3: Reject without a body
	w = testCtx.Do(http.MethodPost, "/api/recommendations/rec-3/reject", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	// Test case 4: Reject with a broken body
	w = testCtx.Do(http.MethodPost, "/api/recommendations/rec-4/reject", "{", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	testCtx.Fakes.Snapshot(func(f *testutils.FakeBackends) {
		assert.Equal(t, []string{"rec-2"}, f.Approved)
		assert.JSONEq(t, `{"reason":"Not needed"}`, f.RejectBodies["rec-1"])
		assert.Empty(t, f.RejectBodies["rec-3"])
		assert.NotContains(t, f.RejectBodies, "rec-4")
	})

	// Test case 5: Backend failure
	testCtx.Fakes.Set(func(f *testutils.FakeBackends) { f.WritesFail = true })
	w = testCtx.Do(http.MethodPost, "/api/recommendations/rec-1/reject", models.RejectRequest{Reason: "Not needed"}, nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)

	action = models.ActionResponse{}
	testutils.DecodeJSON(t, w, &action)
	assert.Equal(t, "Failed to reject recommendation", action.Notifications[0].Message)
}

func TestReports(t *testing.T) {
	testCtx := loggedIn(t)

	w := testCtx.Do(http.MethodGet, "/api/reports", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var view service.ReportsView
	testutils.DecodeJSON(t, w, &view)
	assert.Equal(t, service.PeriodMonth, view.Period)
	assert.Equal(t, "Last 30 Days", view.PeriodLabel)
	require.NotNil(t, view.BalanceSheet)
	assert.True(t, view.BalanceSheet.Balanced)
	require.NotNil(t, view.PnL)
	assert.Equal(t, "$4,000.00", view.PnL.NetResult)

	w = testCtx.Do(http.MethodGet, "/api/reports?period=year", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	view = service.ReportsView{}
	testutils.DecodeJSON(t, w, &view)
	assert.Equal(t, "This Year", view.PeriodLabel)

	w = testCtx.Do(http.MethodGet, "/api/reports?period=decade", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	testCtx := loggedIn(t)

	w := testCtx.Do(http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// make at least one upstream call so the counters exist
	testCtx.Do(http.MethodGet, "/api/entities", nil, nil)

	w = testCtx.Do(http.MethodGet, "/metrics", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "cockpit_upstream_requests_total")
}
