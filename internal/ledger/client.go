// Package ledger is the typed client for the CraneLedger accounting backend.
package ledger

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/rongwang/finance-cockpit/internal/models"
	"github.com/rongwang/finance-cockpit/internal/upstream"
)

// BackendName labels errors coming from this backend
const BackendName = "CraneLedger"

// DateFormat is the wire format of every date parameter
const DateFormat = "2006-01-02"

// BookingFilters narrows a booking listing. Zero values are not sent.
type BookingFilters struct {
	Status   models.BookingStatus
	FromDate time.Time
	ToDate   time.Time
}

// Client is the CraneLedger API client
type Client struct {
	api *upstream.Client
}

// NewClient creates a new ledger client. httpClient may be nil.
func NewClient(baseURL string, httpClient *http.Client, timeout time.Duration, logger logrus.FieldLogger) *Client {
	return &Client{
		api: upstream.New(upstream.Options{
			Backend:    BackendName,
			BaseURL:    baseURL,
			HTTPClient: httpClient,
			Timeout:    timeout,
			Logger:     logger,
		}),
	}
}

// GetEntities lists the ledger entities
func (c *Client) GetEntities(ctx context.Context) ([]models.Entity, error) {
	var entities []models.Entity
	if err := c.api.Get(ctx, "/entities", nil, &entities); err != nil {
		return nil, err
	}
	return entities, nil
}

// GetTrialBalance fetches the trial balance of an entity as of a date
func (c *Client) GetTrialBalance(ctx context.Context, entityID string, asOf time.Time) (*models.TrialBalanceResponse, error) {
	var tb models.TrialBalanceResponse
	query := url.Values{"asOf": {asOf.Format(DateFormat)}}
	if err := c.api.Get(ctx, entityPath(entityID, "trial-balance"), query, &tb); err != nil {
		return nil, err
	}
	return &tb, nil
}

// GetPnL fetches the profit and loss statement of an entity over [from, to]
func (c *Client) GetPnL(ctx context.Context, entityID string, from, to time.Time) (*models.PnLResponse, error) {
	var pnl models.PnLResponse
	query := url.Values{
		"from": {from.Format(DateFormat)},
		"to":   {to.Format(DateFormat)},
	}
	if err := c.api.Get(ctx, entityPath(entityID, "pnl"), query, &pnl); err != nil {
		return nil, err
	}
	return &pnl, nil
}

// GetBalanceSheet fetches the balance sheet of an entity as of a date
func (c *Client) GetBalanceSheet(ctx context.Context, entityID string, asOf time.Time) (*models.BalanceSheetResponse, error) {
	var bs models.BalanceSheetResponse
	query := url.Values{"asOf": {asOf.Format(DateFormat)}}
	if err := c.api.Get(ctx, entityPath(entityID, "balance-sheet"), query, &bs); err != nil {
		return nil, err
	}
	return &bs, nil
}

// GetBookings lists the bookings of an entity
func (c *Client) GetBookings(ctx context.Context, entityID string, filters BookingFilters) ([]models.BookingSummary, error) {
	var bookings []models.BookingSummary
	if err := c.api.Get(ctx, "/bookings", BookingQuery(entityID, filters), &bookings); err != nil {
		return nil, err
	}
	return bookings, nil
}

// GetBookingDetails fetches one booking with its events
func (c *Client) GetBookingDetails(ctx context.Context, bookingID string) (*models.BookingDetails, error) {
	var details models.BookingDetails
	if err := c.api.Get(ctx, "/bookings/"+url.PathEscape(bookingID), nil, &details); err != nil {
		return nil, err
	}
	return &details, nil
}

// BookingQuery builds the booking query string: the entity plus only the filters that are set
func BookingQuery(entityID string, filters BookingFilters) url.Values {
	query := url.Values{"entityId": {entityID}}
	if filters.Status != "" {
		query.Set("status", string(filters.Status))
	}
	if !filters.FromDate.IsZero() {
		query.Set("fromDate", filters.FromDate.Format(DateFormat))
	}
	if !filters.ToDate.IsZero() {
		query.Set("toDate", filters.ToDate.Format(DateFormat))
	}
	return query
}

func entityPath(entityID, resource string) string {
	return fmt.Sprintf("/entities/%s/%s", url.PathEscape(entityID), resource)
}
