package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/rongwang/finance-cockpit/internal/ledger"
	"github.com/rongwang/finance-cockpit/internal/models"
)

// StatusAll is the booking status filter that selects every status
const StatusAll = "all"

// ErrInvalidDateRange is returned when a booking filter ends before it starts
var ErrInvalidDateRange = errors.New("fromDate is after toDate")

// BookingFilter is what the bookings page filters on.
// An empty or "all" status and zero dates are not sent to the ledger.
type BookingFilter struct {
	Status   string
	FromDate time.Time
	ToDate   time.Time
}

// Validate checks the status value and the date range
func (f BookingFilter) Validate() error {
	if f.Status != "" && f.Status != StatusAll && !models.BookingStatus(f.Status).Valid() {
		return fmt.Errorf("unknown booking status %q", f.Status)
	}
	if !f.FromDate.IsZero() && !f.ToDate.IsZero() && f.FromDate.After(f.ToDate) {
		return ErrInvalidDateRange
	}
	return nil
}

func (f BookingFilter) ledgerFilters() ledger.BookingFilters {
	out := ledger.BookingFilters{FromDate: f.FromDate, ToDate: f.ToDate}
	if f.Status != StatusAll {
		out.Status = models.BookingStatus(f.Status)
	}
	return out
}

// BookingRow is one line of the bookings table
type BookingRow struct {
	ID                string `json:"id"`
	ExternalBookingID string `json:"externalBookingId,omitempty"`
	Customer          string `json:"customer"`
	Supplier          string `json:"supplier"`
	Status            string `json:"status"`
	StatusTone        string `json:"statusTone"`
	Deposit           string `json:"deposit"`
	Balance           string `json:"balance"`
	Total             string `json:"total"`
	Margin            string `json:"margin"`
	Created           string `json:"created"`
}

func newBookingRow(b models.BookingSummary) BookingRow {
	return BookingRow{
		ID:                b.ID,
		ExternalBookingID: b.ExternalBookingID,
		Customer:          b.Customer,
		Supplier:          b.Supplier,
		Status:            string(b.Status),
		StatusTone:        BookingTone(b.Status),
		Deposit:           FormatCurrency(b.DepositAmount),
		Balance:           FormatCurrency(b.BalanceAmount),
		Total:             FormatCurrency(b.TotalJobAmount),
		Margin:            FormatCurrency(b.MarginAmount),
		Created:           FormatDate(b.CreatedAt),
	}
}

// BookingsView is what the bookings page renders
type BookingsView struct {
	PageState
	Filter   BookingFilterView       `json:"filter"`
	Rows     []BookingRow            `json:"rows"`
	Bookings []models.BookingSummary `json:"bookings"`
}

// BookingFilterView echoes the applied filter back
type BookingFilterView struct {
	Status   string `json:"status"`
	FromDate string `json:"fromDate,omitempty"`
	ToDate   string `json:"toDate,omitempty"`
}

// BookingsController lists the bookings of the default entity
type BookingsController struct {
	page
	deps Deps

	filter   BookingFilter
	bookings []models.BookingSummary
}

// NewBookingsController creates a bookings page showing all statuses
func NewBookingsController(deps Deps) *BookingsController {
	return &BookingsController{deps: deps, filter: BookingFilter{Status: StatusAll}}
}

// Load applies filter and fetches the matching bookings
func (b *BookingsController) Load(ctx context.Context, filter BookingFilter) {
	if filter.Status == "" {
		filter.Status = StatusAll
	}

	seq := b.begin()
	b.mu.Lock()
	b.filter = filter
	b.mu.Unlock()

	bookings, err := b.deps.Ledger.GetBookings(ctx, b.deps.DefaultEntityID, filter.ledgerFilters())
	b.finish(seq, err, "Failed to load bookings", func() {
		b.bookings = bookings
	})
}

// View returns a snapshot of the page
func (b *BookingsController) View() *BookingsView {
	b.mu.Lock()
	defer b.mu.Unlock()

	view := &BookingsView{
		PageState: b.pageState(),
		Filter:    BookingFilterView{Status: b.filter.Status},
		Rows:      make([]BookingRow, 0, len(b.bookings)),
		Bookings:  slices.Clone(b.bookings),
	}
	if !b.filter.FromDate.IsZero() {
		view.Filter.FromDate = b.filter.FromDate.Format(ledger.DateFormat)
	}
	if !b.filter.ToDate.IsZero() {
		view.Filter.ToDate = b.filter.ToDate.Format(ledger.DateFormat)
	}
	if view.Bookings == nil {
		view.Bookings = []models.BookingSummary{}
	}
	for _, booking := range b.bookings {
		view.Rows = append(view.Rows, newBookingRow(booking))
	}
	return view
}
