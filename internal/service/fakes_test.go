package service_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rongwang/finance-cockpit/internal/advisory"
	"github.com/rongwang/finance-cockpit/internal/ledger"
	"github.com/rongwang/finance-cockpit/internal/models"
	"github.com/rongwang/finance-cockpit/internal/service"
	"github.com/rongwang/finance-cockpit/internal/upstream"
	"github.com/rongwang/finance-cockpit/internal/utils"
)

const testEntityID = "entity-1"

var errNotWired = errors.New("not wired")

var fixedNow = time.Date(2025, 3, 15, 10, 30, 0, 0, time.UTC)

type fakeLedger struct {
	entities     func(ctx context.Context) ([]models.Entity, error)
	trialBalance func(ctx context.Context, entityID string, asOf time.Time) (*models.TrialBalanceResponse, error)
	pnl          func(ctx context.Context, entityID string, from, to time.Time) (*models.PnLResponse, error)
	balanceSheet func(ctx context.Context, entityID string, asOf time.Time) (*models.BalanceSheetResponse, error)
	bookings     func(ctx context.Context, entityID string, filters ledger.BookingFilters) ([]models.BookingSummary, error)
	details      func(ctx context.Context, bookingID string) (*models.BookingDetails, error)
}

func (f *fakeLedger) GetEntities(ctx context.Context) ([]models.Entity, error) {
	if f.entities == nil {
		return nil, errNotWired
	}
	return f.entities(ctx)
}

func (f *fakeLedger) GetTrialBalance(ctx context.Context, entityID string, asOf time.Time) (*models.TrialBalanceResponse, error) {
	if f.trialBalance == nil {
		return nil, errNotWired
	}
	return f.trialBalance(ctx, entityID, asOf)
}

func (f *fakeLedger) GetPnL(ctx context.Context, entityID string, from, to time.Time) (*models.PnLResponse, error) {
	if f.pnl == nil {
		return nil, errNotWired
	}
	return f.pnl(ctx, entityID, from, to)
}

func (f *fakeLedger) GetBalanceSheet(ctx context.Context, entityID string, asOf time.Time) (*models.BalanceSheetResponse, error) {
	if f.balanceSheet == nil {
		return nil, errNotWired
	}
	return f.balanceSheet(ctx, entityID, asOf)
}

func (f *fakeLedger) GetBookings(ctx context.Context, entityID string, filters ledger.BookingFilters) ([]models.BookingSummary, error) {
	if f.bookings == nil {
		return nil, errNotWired
	}
	return f.bookings(ctx, entityID, filters)
}

func (f *fakeLedger) GetBookingDetails(ctx context.Context, bookingID string) (*models.BookingDetails, error) {
	if f.details == nil {
		return nil, errNotWired
	}
	return f.details(ctx, bookingID)
}

type fakeAdvisory struct {
	mu sync.Mutex

	brief           func(ctx context.Context, entityID string) (*models.CfoBrief, error)
	alerts          func(ctx context.Context, entityID string, filter advisory.AlertFilter) ([]models.CfoAlert, error)
	recommendations func(ctx context.Context, entityID string, status models.RecommendationStatus) ([]models.CfoRecommendation, error)
	writeErr        error

	acked    []string
	approved []string
	rejected map[string]string
}

func (f *fakeAdvisory) GetBrief(ctx context.Context, entityID string) (*models.CfoBrief, error) {
	if f.brief == nil {
		return nil, errNotWired
	}
	return f.brief(ctx, entityID)
}

func (f *fakeAdvisory) GetAlerts(ctx context.Context, entityID string, filter advisory.AlertFilter) ([]models.CfoAlert, error) {
	if f.alerts == nil {
		return nil, errNotWired
	}
	return f.alerts(ctx, entityID, filter)
}

func (f *fakeAdvisory) AcknowledgeAlert(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return f.writeErr
	}
	f.acked = append(f.acked, id)
	return nil
}

func (f *fakeAdvisory) GetRecommendations(ctx context.Context, entityID string, status models.RecommendationStatus) ([]models.CfoRecommendation, error) {
	if f.recommendations == nil {
		return nil, errNotWired
	}
	return f.recommendations(ctx, entityID, status)
}

func (f *fakeAdvisory) ApproveRecommendation(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return f.writeErr
	}
	f.approved = append(f.approved, id)
	return nil
}

func (f *fakeAdvisory) RejectRecommendation(_ context.Context, id, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return f.writeErr
	}
	if f.rejected == nil {
		f.rejected = map[string]string{}
	}
	f.rejected[id] = reason
	return nil
}

func newDeps(l *fakeLedger, a *fakeAdvisory) service.Deps {
	return service.Deps{
		Ledger:          l,
		Advisory:        a,
		DefaultEntityID: testEntityID,
		Now:             func() time.Time { return fixedNow },
		Logger:          utils.NewDiscardLogger(),
	}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func apiError(backend string, code int, text string) error {
	return &upstream.APIError{Backend: backend, StatusCode: code, StatusText: text}
}

func sampleTrialBalance() *models.TrialBalanceResponse {
	return &models.TrialBalanceResponse{
		EntityID: testEntityID,
		AsOf:     "2025-03-15",
		Entries: []models.TrialBalanceEntry{
			{AccountCode: "110", AccountName: "Bank", Balance: dec("15000")},
			{AccountCode: "112", AccountName: "Accounts Receivable", Balance: dec("4200.5")},
			{AccountCode: "800", AccountName: "Customer Deposits", Balance: dec("-3000")},
		},
	}
}

func samplePnL() *models.PnLResponse {
	return &models.PnLResponse{
		EntityID:      testEntityID,
		From:          "2025-02-13",
		To:            "2025-03-15",
		Revenue:       []models.PnLEntry{{AccountCode: "400", AccountName: "Crane Hire", Amount: dec("10000")}},
		Cogs:          []models.PnLEntry{{AccountCode: "500", AccountName: "Supplier Costs", Amount: dec("6000")}},
		Expenses:      []models.PnLEntry{{AccountCode: "600", AccountName: "Admin", Amount: dec("1500")}},
		TotalRevenue:  dec("10000"),
		TotalCogs:     dec("6000"),
		TotalExpenses: dec("1500"),
		GrossMargin:   dec("4000"),
		NetResult:     dec("2500"),
	}
}

func sampleRecommendations() []models.CfoRecommendation {
	cash := dec("-5000")
	return []models.CfoRecommendation{
		{
			ID:     "rec-1",
			Type:   models.RecommendationCashReserveMove,
			Status: models.RecommendationPending,
			Title:  "Move cash to reserve",
			Impact: models.RecommendationImpact{Cash: &cash, Description: "Hold GST"},
		},
		{
			ID:     "rec-2",
			Type:   models.RecommendationGSTReserve,
			Status: models.RecommendationPending,
			Title:  "Reserve GST",
		},
	}
}
