package service

import (
	"context"
	"slices"

	"github.com/rongwang/finance-cockpit/internal/models"
)

// TimelineEvent is one formatted booking event
type TimelineEvent struct {
	ID             string `json:"id"`
	Type           string `json:"type"`
	Date           string `json:"date"`
	Amount         string `json:"amount"`
	JournalEntryID string `json:"journalEntryId,omitempty"`
	Description    string `json:"description,omitempty"`
}

// BookingFinancials is the revenue breakdown of a booking
type BookingFinancials struct {
	Revenue     string `json:"revenue"`
	Cogs        string `json:"cogs"`
	GrossMargin string `json:"grossMargin"`
	MarginPct   string `json:"marginPct"`
}

// BookingDetailView is what the booking detail page renders
type BookingDetailView struct {
	PageState
	Booking    *BookingRow            `json:"booking,omitempty"`
	Financials *BookingFinancials     `json:"financials,omitempty"`
	Timeline   []TimelineEvent        `json:"timeline"`
	Details    *models.BookingDetails `json:"details,omitempty"`
}

// BookingDetailController shows a single booking
type BookingDetailController struct {
	page
	deps Deps

	details *models.BookingDetails
}

// NewBookingDetailController creates an empty detail page
func NewBookingDetailController(deps Deps) *BookingDetailController {
	return &BookingDetailController{deps: deps}
}

// Load fetches the booking with its events
func (b *BookingDetailController) Load(ctx context.Context, bookingID string) {
	seq := b.begin()

	details, err := b.deps.Ledger.GetBookingDetails(ctx, bookingID)
	b.finish(seq, err, "Failed to load booking details", func() {
		b.details = details
	})
}

// View returns a snapshot of the page
func (b *BookingDetailController) View() *BookingDetailView {
	b.mu.Lock()
	defer b.mu.Unlock()

	view := &BookingDetailView{
		PageState: b.pageState(),
		Timeline:  []TimelineEvent{},
		Details:   b.details,
	}
	if b.details == nil {
		return view
	}

	row := newBookingRow(b.details.BookingSummary)
	view.Booking = &row

	pct := "0.0%"
	if !b.details.Revenue.IsZero() {
		pct = FormatPercent(b.details.GrossMargin.Div(b.details.Revenue).Shift(2))
	}
	view.Financials = &BookingFinancials{
		Revenue:     FormatCurrency(b.details.Revenue),
		Cogs:        FormatCurrency(b.details.Cogs),
		GrossMargin: FormatCurrency(b.details.GrossMargin),
		MarginPct:   pct,
	}

	for _, event := range sortedEvents(b.details.Events) {
		view.Timeline = append(view.Timeline, TimelineEvent{
			ID:             event.ID,
			Type:           event.Type,
			Date:           FormatDate(event.Date),
			Amount:         FormatCurrency(event.Amount),
			JournalEntryID: event.JournalEntryID,
			Description:    event.Description,
		})
	}
	return view
}

// sortedEvents orders events by date, oldest first. Unparseable dates sort last.
func sortedEvents(events []models.BookingEvent) []models.BookingEvent {
	out := slices.Clone(events)
	slices.SortStableFunc(out, func(a, b models.BookingEvent) int {
		ta, okA := parseTimestamp(a.Date)
		tb, okB := parseTimestamp(b.Date)
		switch {
		case okA && okB:
			return ta.Compare(tb)
		case okA:
			return -1
		case okB:
			return 1
		}
		return 0
	})
	return out
}
