package service

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/rongwang/finance-cockpit/internal/advisory"
	"github.com/rongwang/finance-cockpit/internal/ledger"
	"github.com/rongwang/finance-cockpit/internal/models"
)

// LedgerAPI is what the pages need from the ledger backend
type LedgerAPI interface {
	GetEntities(ctx context.Context) ([]models.Entity, error)
	GetTrialBalance(ctx context.Context, entityID string, asOf time.Time) (*models.TrialBalanceResponse, error)
	GetPnL(ctx context.Context, entityID string, from, to time.Time) (*models.PnLResponse, error)
	GetBalanceSheet(ctx context.Context, entityID string, asOf time.Time) (*models.BalanceSheetResponse, error)
	GetBookings(ctx context.Context, entityID string, filters ledger.BookingFilters) ([]models.BookingSummary, error)
	GetBookingDetails(ctx context.Context, bookingID string) (*models.BookingDetails, error)
}

// AdvisoryAPI is what the pages need from the advisory backend
type AdvisoryAPI interface {
	GetBrief(ctx context.Context, ledgerEntityID string) (*models.CfoBrief, error)
	GetAlerts(ctx context.Context, ledgerEntityID string, filter advisory.AlertFilter) ([]models.CfoAlert, error)
	AcknowledgeAlert(ctx context.Context, id string) error
	GetRecommendations(ctx context.Context, ledgerEntityID string, status models.RecommendationStatus) ([]models.CfoRecommendation, error)
	ApproveRecommendation(ctx context.Context, id string) error
	RejectRecommendation(ctx context.Context, id string, reason string) error
}

// Notification levels
const (
	LevelSuccess = "success"
	LevelError   = "error"
)

// Notifier receives the transient messages raised by page actions
type Notifier interface {
	Notify(level, message string)
}

// Collector is a Notifier that keeps what it receives
type Collector struct {
	mu            sync.Mutex
	notifications []models.Notification
}

func (c *Collector) Notify(level, message string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notifications = append(c.notifications, models.Notification{Level: level, Message: message})
}

// Drain returns and forgets the collected notifications
func (c *Collector) Drain() []models.Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.notifications
	c.notifications = nil
	if out == nil {
		out = []models.Notification{}
	}
	return out
}

// Service defines all the page operations of the cockpit
type Service interface {
	Entities(ctx context.Context) ([]models.Entity, error)
	Dashboard(ctx context.Context, entityID string) *DashboardView
	Bookings(ctx context.Context, filter BookingFilter) *BookingsView
	BookingDetail(ctx context.Context, bookingID string) *BookingDetailView
	Alerts(ctx context.Context, unacknowledgedOnly bool) *AlertsView
	AcknowledgeAlert(ctx context.Context, id string, notifier Notifier) error
	Recommendations(ctx context.Context, status models.RecommendationStatus) *RecommendationsView
	ApproveRecommendation(ctx context.Context, id string, notifier Notifier) error
	RejectRecommendation(ctx context.Context, id, reason string, notifier Notifier) error
	Reports(ctx context.Context, period Period) *ReportsView
}

// Deps are the collaborators of the page controllers
type Deps struct {
	Ledger          LedgerAPI
	Advisory        AdvisoryAPI
	DefaultEntityID string
	Now             func() time.Time
	Logger          logrus.FieldLogger
}

func (d Deps) today() time.Time {
	now := time.Now
	if d.Now != nil {
		now = d.Now
	}
	t := now().UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func (d Deps) logger() logrus.FieldLogger {
	if d.Logger == nil {
		return logrus.StandardLogger()
	}
	return d.Logger
}

// DefaultService implements the Service interface.
// Every call drives a fresh controller through one load or action.
type DefaultService struct {
	deps Deps
}

// NewDefaultService creates a new DefaultService
func NewDefaultService(deps Deps) Service {
	return &DefaultService{deps: deps}
}

func (s *DefaultService) Entities(ctx context.Context) ([]models.Entity, error) {
	return s.deps.Ledger.GetEntities(ctx)
}

func (s *DefaultService) Dashboard(ctx context.Context, entityID string) *DashboardView {
	c := NewDashboardController(s.deps)
	if entityID != "" {
		c.SelectEntity(ctx, entityID)
	} else {
		c.Load(ctx)
	}
	return c.View()
}

func (s *DefaultService) Bookings(ctx context.Context, filter BookingFilter) *BookingsView {
	c := NewBookingsController(s.deps)
	c.Load(ctx, filter)
	return c.View()
}

func (s *DefaultService) BookingDetail(ctx context.Context, bookingID string) *BookingDetailView {
	c := NewBookingDetailController(s.deps)
	c.Load(ctx, bookingID)
	return c.View()
}

func (s *DefaultService) Alerts(ctx context.Context, unacknowledgedOnly bool) *AlertsView {
	c := NewAlertsController(s.deps, nil)
	c.Load(ctx, unacknowledgedOnly)
	return c.View()
}

func (s *DefaultService) AcknowledgeAlert(ctx context.Context, id string, notifier Notifier) error {
	return NewAlertsController(s.deps, notifier).Acknowledge(ctx, id)
}

func (s *DefaultService) Recommendations(ctx context.Context, status models.RecommendationStatus) *RecommendationsView {
	c := NewRecommendationsController(s.deps, nil)
	c.Load(ctx, status)
	return c.View()
}

func (s *DefaultService) ApproveRecommendation(ctx context.Context, id string, notifier Notifier) error {
	return NewRecommendationsController(s.deps, notifier).Approve(ctx, id)
}

func (s *DefaultService) RejectRecommendation(ctx context.Context, id, reason string, notifier Notifier) error {
	return NewRecommendationsController(s.deps, notifier).Reject(ctx, id, reason)
}

func (s *DefaultService) Reports(ctx context.Context, period Period) *ReportsView {
	c := NewReportsController(s.deps)
	c.Load(ctx, period)
	return c.View()
}

// discard is the Notifier used when none is given
type discard struct{}

func (discard) Notify(string, string) {}

func notifierOrDiscard(n Notifier) Notifier {
	if n == nil {
		return discard{}
	}
	return n
}
