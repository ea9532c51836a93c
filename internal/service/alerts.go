package service

import (
	"context"
	"slices"

	"github.com/rongwang/finance-cockpit/internal/advisory"
	"github.com/rongwang/finance-cockpit/internal/models"
	"github.com/rongwang/finance-cockpit/internal/utils"
)

// AlertCard is one formatted alert
type AlertCard struct {
	ID           string `json:"id"`
	Severity     string `json:"severity"`
	SeverityTone string `json:"severityTone"`
	Category     string `json:"category"`
	Title        string `json:"title"`
	Body         string `json:"body"`
	Created      string `json:"created"`
	Acknowledged bool   `json:"acknowledged"`
	Processing   bool   `json:"processing"`
}

// AlertsView is what the alerts page renders
type AlertsView struct {
	PageState
	UnacknowledgedOnly bool              `json:"unacknowledgedOnly"`
	Cards              []AlertCard       `json:"cards"`
	Alerts             []models.CfoAlert `json:"alerts"`
}

// AlertsController lists and acknowledges the alerts of the default entity
type AlertsController struct {
	page
	deps     Deps
	notifier Notifier

	unacknowledgedOnly bool
	alerts             []models.CfoAlert
	acknowledging      processing
}

// NewAlertsController creates an alerts page showing unacknowledged alerts.
// notifier may be nil.
func NewAlertsController(deps Deps, notifier Notifier) *AlertsController {
	return &AlertsController{
		deps:               deps,
		notifier:           notifierOrDiscard(notifier),
		unacknowledgedOnly: true,
		acknowledging:      processing{},
	}
}

// Load fetches the alerts
func (a *AlertsController) Load(ctx context.Context, unacknowledgedOnly bool) {
	seq := a.begin()
	a.mu.Lock()
	a.unacknowledgedOnly = unacknowledgedOnly
	a.mu.Unlock()

	alerts, err := a.deps.Advisory.GetAlerts(ctx, a.deps.DefaultEntityID, advisory.AlertFilter{
		UnacknowledgedOnly: unacknowledgedOnly,
	})
	a.finish(seq, err, "Failed to load alerts", func() {
		a.alerts = alerts
	})
}

// Acknowledge marks an alert as seen. The alert leaves the list only once the
// backend has confirmed.
func (a *AlertsController) Acknowledge(ctx context.Context, id string) error {
	a.mu.Lock()
	a.acknowledging[id] = struct{}{}
	a.mu.Unlock()

	err := a.deps.Advisory.AcknowledgeAlert(ctx, id)

	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.acknowledging, id)

	if err != nil {
		utils.LogError(a.deps.logger(), "service", "AlertsController.Acknowledge", "acknowledge alert", id, err)
		a.notifier.Notify(LevelError, "Failed to acknowledge alert")
		return err
	}

	a.alerts = slices.DeleteFunc(a.alerts, func(alert models.CfoAlert) bool {
		return alert.ID == id
	})
	a.notifier.Notify(LevelSuccess, "Alert acknowledged")
	return nil
}

// Processing lists the alerts with an acknowledgement in flight
func (a *AlertsController) Processing() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.acknowledging.ids()
}

// View returns a snapshot of the page
func (a *AlertsController) View() *AlertsView {
	a.mu.Lock()
	defer a.mu.Unlock()

	view := &AlertsView{
		PageState:          a.pageState(),
		UnacknowledgedOnly: a.unacknowledgedOnly,
		Cards:              make([]AlertCard, 0, len(a.alerts)),
		Alerts:             slices.Clone(a.alerts),
	}
	if view.Alerts == nil {
		view.Alerts = []models.CfoAlert{}
	}
	for _, alert := range a.alerts {
		_, busy := a.acknowledging[alert.ID]
		view.Cards = append(view.Cards, AlertCard{
			ID:           alert.ID,
			Severity:     string(alert.Severity),
			SeverityTone: SeverityTone(alert.Severity),
			Category:     string(alert.Category),
			Title:        alert.Title,
			Body:         alert.Body,
			Created:      FormatDate(alert.CreatedAt),
			Acknowledged: alert.Acknowledged(),
			Processing:   busy,
		})
	}
	return view
}
