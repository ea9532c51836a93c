package models

import (
	"github.com/shopspring/decimal"
)

// CfoEntity is an entity known to the advisory backend
type CfoEntity struct {
	ID             string `json:"id" validate:"required"`
	LedgerEntityID string `json:"ledgerEntityId"`
	Name           string `json:"name"`
	CreatedAt      string `json:"createdAt,omitempty"`
}

// CfoBrief is the daily advisory summary for an entity
type CfoBrief struct {
	LedgerEntityID    string          `json:"ledgerEntityId"`
	AsOf              string          `json:"asOf"`
	Cash              decimal.Decimal `json:"cash"`
	RunwayDays        int             `json:"runwayDays"`
	DepositsHeld      decimal.Decimal `json:"depositsHeld"`
	GstExposure       decimal.Decimal `json:"gstExposure"`
	MarginPctCurrent  decimal.Decimal `json:"marginPctCurrent"`
	MarginPctPrevious decimal.Decimal `json:"marginPctPrevious"`
	MarginTrendDelta  decimal.Decimal `json:"marginTrendDelta"`
	Narrative         string          `json:"narrative"`
}

// AlertSeverity grades an alert
type AlertSeverity string

const (
	SeverityInfo     AlertSeverity = "INFO"
	SeverityWarning  AlertSeverity = "WARNING"
	SeverityCritical AlertSeverity = "CRITICAL"
)

// AlertCategory groups alerts by topic
type AlertCategory string

const (
	CategoryCashflow AlertCategory = "CASHFLOW"
	CategoryGST      AlertCategory = "GST"
	CategoryMargin   AlertCategory = "MARGIN"
	CategoryDeposits AlertCategory = "DEPOSITS"
	CategoryGeneral  AlertCategory = "GENERAL"
)

// CfoAlert is an advisory notice. AcknowledgedAt stays nil until acknowledged.
type CfoAlert struct {
	ID             string        `json:"id" validate:"required"`
	LedgerEntityID string        `json:"ledgerEntityId"`
	Severity       AlertSeverity `json:"severity" validate:"required,oneof=INFO WARNING CRITICAL"`
	Category       AlertCategory `json:"category" validate:"required,oneof=CASHFLOW GST MARGIN DEPOSITS GENERAL"`
	Title          string        `json:"title"`
	Body           string        `json:"body"`
	CreatedAt      string        `json:"createdAt"`
	AcknowledgedAt *string       `json:"acknowledgedAt,omitempty"`
	AcknowledgedBy *string       `json:"acknowledgedBy,omitempty"`
}

// Acknowledged reports whether the alert has been acknowledged
func (a *CfoAlert) Acknowledged() bool {
	return a.AcknowledgedAt != nil && *a.AcknowledgedAt != ""
}

// RecommendationType classifies a recommendation
type RecommendationType string

const (
	RecommendationAdjustmentJournal  RecommendationType = "ADJUSTMENT_JOURNAL"
	RecommendationCashReserveMove    RecommendationType = "CASH_RESERVE_MOVE"
	RecommendationGSTReserve         RecommendationType = "GST_RESERVE"
	RecommendationMarginOptimization RecommendationType = "MARGIN_OPTIMIZATION"
	RecommendationOther              RecommendationType = "OTHER"
)

// RecommendationStatus is the state of a recommendation
type RecommendationStatus string

const (
	RecommendationPending  RecommendationStatus = "PENDING"
	RecommendationApplied  RecommendationStatus = "APPLIED"
	RecommendationRejected RecommendationStatus = "REJECTED"
)

// Valid reports whether s is a known recommendation status
func (s RecommendationStatus) Valid() bool {
	switch s {
	case RecommendationPending, RecommendationApplied, RecommendationRejected:
		return true
	}
	return false
}

// CanTransitionTo reports whether a recommendation may move from s to next.
// Only PENDING moves, and only to APPLIED or REJECTED.
func (s RecommendationStatus) CanTransitionTo(next RecommendationStatus) bool {
	return s == RecommendationPending && (next == RecommendationApplied || next == RecommendationRejected)
}

// RecommendationImpact estimates the effect of applying a recommendation
type RecommendationImpact struct {
	Cash        *decimal.Decimal `json:"cash,omitempty"`
	Equity      *decimal.Decimal `json:"equity,omitempty"`
	Gst         *decimal.Decimal `json:"gst,omitempty"`
	Margin      *decimal.Decimal `json:"margin,omitempty"`
	Description string           `json:"description"`
}

// CfoRecommendation is a suggested financial action
type CfoRecommendation struct {
	ID              string               `json:"id" validate:"required"`
	LedgerEntityID  string               `json:"ledgerEntityId"`
	Type            RecommendationType   `json:"type" validate:"required,oneof=ADJUSTMENT_JOURNAL CASH_RESERVE_MOVE GST_RESERVE MARGIN_OPTIMIZATION OTHER"`
	Status          RecommendationStatus `json:"status" validate:"required,oneof=PENDING APPLIED REJECTED"`
	Title           string               `json:"title"`
	Description     string               `json:"description"`
	Impact          RecommendationImpact `json:"impact"`
	CreatedAt       string               `json:"createdAt"`
	AppliedAt       *string              `json:"appliedAt,omitempty"`
	RejectedAt      *string              `json:"rejectedAt,omitempty"`
	RejectionReason *string              `json:"rejectionReason,omitempty"`
}

// IsTerminal reports whether the recommendation can no longer change
func (r *CfoRecommendation) IsTerminal() bool {
	return r.Status == RecommendationApplied || r.Status == RecommendationRejected
}
