package service

import (
	"context"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/rongwang/finance-cockpit/internal/models"
	"github.com/rongwang/finance-cockpit/internal/utils"
)

// ImpactItem is one estimated effect of a recommendation
type ImpactItem struct {
	Label     string `json:"label"`
	Amount    string `json:"amount"`
	Direction string `json:"direction"` // "up" or "down"
}

// ImpactView is the formatted impact estimate of a recommendation.
// Figures the backend did not estimate are left out.
type ImpactView struct {
	Items       []ImpactItem `json:"items"`
	Description string       `json:"description"`
}

// RecommendationCard is one formatted recommendation
type RecommendationCard struct {
	ID          string     `json:"id"`
	Type        string     `json:"type"`
	TypeTone    string     `json:"typeTone"`
	Status      string     `json:"status"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Impact      ImpactView `json:"impact"`
	Created     string     `json:"created"`
	Actionable  bool       `json:"actionable"`
	Processing  bool       `json:"processing"`
}

// RecommendationsView is what the recommendations page renders
type RecommendationsView struct {
	PageState
	Status          models.RecommendationStatus `json:"status"`
	Cards           []RecommendationCard        `json:"cards"`
	Recommendations []models.CfoRecommendation  `json:"recommendations"`
}

// RecommendationsController lists recommendations of one status and acts on them
type RecommendationsController struct {
	page
	deps     Deps
	notifier Notifier

	status          models.RecommendationStatus
	recommendations []models.CfoRecommendation
	inFlight        processing
}

// NewRecommendationsController creates a page on the PENDING tab. notifier may be nil.
func NewRecommendationsController(deps Deps, notifier Notifier) *RecommendationsController {
	return &RecommendationsController{
		deps:     deps,
		notifier: notifierOrDiscard(notifier),
		status:   models.RecommendationPending,
		inFlight: processing{},
	}
}

// Load fetches the recommendations with status; empty means PENDING
func (r *RecommendationsController) Load(ctx context.Context, status models.RecommendationStatus) {
	if status == "" {
		status = models.RecommendationPending
	}

	seq := r.begin()
	r.mu.Lock()
	r.status = status
	r.mu.Unlock()

	recs, err := r.deps.Advisory.GetRecommendations(ctx, r.deps.DefaultEntityID, status)
	r.finish(seq, err, "Failed to load recommendations", func() {
		r.recommendations = recs
	})
}

// Approve applies a recommendation
func (r *RecommendationsController) Approve(ctx context.Context, id string) error {
	return r.act(id, "RecommendationsController.Approve",
		"Recommendation approved successfully", "Failed to approve recommendation",
		func() error { return r.deps.Advisory.ApproveRecommendation(ctx, id) })
}

// Reject declines a recommendation; reason is optional
func (r *RecommendationsController) Reject(ctx context.Context, id, reason string) error {
	return r.act(id, "RecommendationsController.Reject",
		"Recommendation rejected", "Failed to reject recommendation",
		func() error { return r.deps.Advisory.RejectRecommendation(ctx, id, reason) })
}

// act runs a write and removes id from the list once it succeeded
func (r *RecommendationsController) act(id, funcName, okMsg, failMsg string, call func() error) error {
	r.mu.Lock()
	r.inFlight[id] = struct{}{}
	r.mu.Unlock()

	err := call()

	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.inFlight, id)

	if err != nil {
		utils.LogError(r.deps.logger(), "service", funcName, "update recommendation", id, err)
		r.notifier.Notify(LevelError, failMsg)
		return err
	}

	r.recommendations = slices.DeleteFunc(r.recommendations, func(rec models.CfoRecommendation) bool {
		return rec.ID == id
	})
	r.notifier.Notify(LevelSuccess, okMsg)
	return nil
}

// Processing lists the recommendations with an action in flight
func (r *RecommendationsController) Processing() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.inFlight.ids()
}

// View returns a snapshot of the page
func (r *RecommendationsController) View() *RecommendationsView {
	r.mu.Lock()
	defer r.mu.Unlock()

	view := &RecommendationsView{
		PageState:       r.pageState(),
		Status:          r.status,
		Cards:           make([]RecommendationCard, 0, len(r.recommendations)),
		Recommendations: slices.Clone(r.recommendations),
	}
	if view.Recommendations == nil {
		view.Recommendations = []models.CfoRecommendation{}
	}
	for _, rec := range r.recommendations {
		_, busy := r.inFlight[rec.ID]
		view.Cards = append(view.Cards, RecommendationCard{
			ID:          rec.ID,
			Type:        string(rec.Type),
			TypeTone:    RecommendationTone(rec.Type),
			Status:      string(rec.Status),
			Title:       rec.Title,
			Description: rec.Description,
			Impact:      newImpactView(rec.Impact),
			Created:     FormatDate(rec.CreatedAt),
			Actionable:  !rec.IsTerminal(),
			Processing:  busy,
		})
	}
	return view
}

func newImpactView(impact models.RecommendationImpact) ImpactView {
	view := ImpactView{Items: []ImpactItem{}, Description: impact.Description}
	for _, item := range []struct {
		label string
		value *decimal.Decimal
	}{
		{"Cash Impact", impact.Cash},
		{"Equity Impact", impact.Equity},
		{"GST Impact", impact.Gst},
		{"Margin Impact", impact.Margin},
	} {
		if item.value == nil {
			continue
		}
		direction := "down"
		if item.value.IsPositive() {
			direction = "up"
		}
		view.Items = append(view.Items, ImpactItem{
			Label:     item.label,
			Amount:    FormatCurrency(item.value.Abs()),
			Direction: direction,
		})
	}
	return view
}
