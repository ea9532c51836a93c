// Package advisory is the typed client for the AI-CFO advisory backend.
package advisory

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/rongwang/finance-cockpit/internal/models"
	"github.com/rongwang/finance-cockpit/internal/upstream"
)

// BackendName labels errors coming from this backend
const BackendName = "AI-CFO"

// AlertFilter narrows an alert listing
type AlertFilter struct {
	UnacknowledgedOnly bool
}

type rejectBody struct {
	Reason string `json:"reason"`
}

// Client is the AI-CFO API client
type Client struct {
	api *upstream.Client
}

// NewClient creates a new advisory client. httpClient may be nil.
func NewClient(baseURL string, httpClient *http.Client, timeout time.Duration, logger logrus.FieldLogger) *Client {
	return &Client{
		api: upstream.New(upstream.Options{
			Backend:    BackendName,
			BaseURL:    baseURL,
			HTTPClient: httpClient,
			Timeout:    timeout,
			JSONHeader: true,
			Logger:     logger,
		}),
	}
}

// GetEntities lists the entities known to the advisory backend
func (c *Client) GetEntities(ctx context.Context) ([]models.CfoEntity, error) {
	var entities []models.CfoEntity
	if err := c.api.Get(ctx, "/entities", nil, &entities); err != nil {
		return nil, err
	}
	return entities, nil
}

// GetBrief fetches the daily brief of a ledger entity
func (c *Client) GetBrief(ctx context.Context, ledgerEntityID string) (*models.CfoBrief, error) {
	var brief models.CfoBrief
	if err := c.api.Get(ctx, "/entities/"+url.PathEscape(ledgerEntityID)+"/brief", nil, &brief); err != nil {
		return nil, err
	}
	return &brief, nil
}

// GetAlerts lists the alerts of a ledger entity
func (c *Client) GetAlerts(ctx context.Context, ledgerEntityID string, filter AlertFilter) ([]models.CfoAlert, error) {
	query := url.Values{}
	if filter.UnacknowledgedOnly {
		query.Set("unacknowledged", "true")
	}

	var alerts []models.CfoAlert
	if err := c.api.Get(ctx, "/entities/"+url.PathEscape(ledgerEntityID)+"/alerts", query, &alerts); err != nil {
		return nil, err
	}
	return alerts, nil
}

// AcknowledgeAlert marks an alert as acknowledged
func (c *Client) AcknowledgeAlert(ctx context.Context, id string) error {
	return c.api.Post(ctx, "/alerts/"+url.PathEscape(id)+"/ack", nil)
}

// GetRecommendations lists the recommendations of a ledger entity, optionally by status
func (c *Client) GetRecommendations(ctx context.Context, ledgerEntityID string, status models.RecommendationStatus) ([]models.CfoRecommendation, error) {
	query := url.Values{}
	if status != "" {
		query.Set("status", string(status))
	}

	var recs []models.CfoRecommendation
	if err := c.api.Get(ctx, "/entities/"+url.PathEscape(ledgerEntityID)+"/recommendations", query, &recs); err != nil {
		return nil, err
	}
	return recs, nil
}

// ApproveRecommendation applies a pending recommendation
func (c *Client) ApproveRecommendation(ctx context.Context, id string) error {
	return c.api.Post(ctx, "/recommendations/"+url.PathEscape(id)+"/approve", nil)
}

// RejectRecommendation rejects a pending recommendation.
// The reason is sent only when non-empty.
func (c *Client) RejectRecommendation(ctx context.Context, id string, reason string) error {
	var body any
	if reason != "" {
		body = rejectBody{Reason: reason}
	}
	return c.api.Post(ctx, "/recommendations/"+url.PathEscape(id)+"/reject", body)
}
