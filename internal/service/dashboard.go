package service

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/rongwang/finance-cockpit/internal/models"
	"github.com/rongwang/finance-cockpit/internal/utils"
)

// BriefUnavailable is the warning shown when the advisory brief cannot be loaded
const BriefUnavailable = "AI-CFO summary temporarily unavailable"

// Ledger accounts the dashboard reads from the trial balance
const (
	AccountCash               = "110"
	AccountReceivable         = "112"
	AccountCustomerDeposits   = "800"
	dashboardLookbackDays     = 30
	dashboardLoadFailFallback = "Failed to load dashboard data"
)

// KPI is one dashboard card
type KPI struct {
	Title       string `json:"title"`
	Value       string `json:"value"`
	Description string `json:"description"`
}

// BriefSummary is the formatted advisory brief
type BriefSummary struct {
	AsOf           string `json:"asOf"`
	Runway         string `json:"runway"`
	GstExposure    string `json:"gstExposure"`
	CurrentMargin  string `json:"currentMargin"`
	PreviousMargin string `json:"previousMargin"`
	MarginTrend    string `json:"marginTrend"` // "up", "down" or "flat"
	MarginDelta    string `json:"marginDelta"`
	Narrative      string `json:"narrative"`
}

// Performance is the formatted P&L block of the dashboard
type Performance struct {
	TotalRevenue string `json:"totalRevenue"`
	TotalCogs    string `json:"totalCogs"`
	GrossMargin  string `json:"grossMargin"`
	NetResult    string `json:"netResult"`
}

// DashboardView is what the dashboard page renders
type DashboardView struct {
	PageState
	EntityID     string                       `json:"entityId"`
	Entities     []models.Entity              `json:"entities"`
	BriefWarning string                       `json:"briefWarning,omitempty"`
	Brief        *BriefSummary                `json:"brief,omitempty"`
	KPIs         []KPI                        `json:"kpis"`
	Performance  *Performance                 `json:"performance,omitempty"`
	TrialBalance *models.TrialBalanceResponse `json:"trialBalance,omitempty"`
	PnL          *models.PnLResponse          `json:"pnl,omitempty"`
}

// DashboardController loads the dashboard of one entity
type DashboardController struct {
	page
	deps Deps

	entityID     string
	entities     []models.Entity
	trialBalance *models.TrialBalanceResponse
	pnl          *models.PnLResponse
	brief        *models.CfoBrief
	briefWarning string
}

// NewDashboardController creates a dashboard on the default entity
func NewDashboardController(deps Deps) *DashboardController {
	return &DashboardController{deps: deps, entityID: deps.DefaultEntityID}
}

// SelectEntity switches entity and reloads
func (d *DashboardController) SelectEntity(ctx context.Context, entityID string) {
	d.mu.Lock()
	d.entityID = entityID
	d.mu.Unlock()

	d.Load(ctx)
}

// Load fetches the trial balance (today) and P&L (last 30 days) together.
// The brief and entity list are secondary: their failures never fail the page.
func (d *DashboardController) Load(ctx context.Context) {
	seq := d.begin()

	d.mu.Lock()
	entityID := d.entityID
	d.briefWarning = ""
	d.mu.Unlock()

	today := d.deps.today()
	from := today.AddDate(0, 0, -dashboardLookbackDays)
	logger := d.deps.logger()

	var (
		wg          sync.WaitGroup
		entities    []models.Entity
		entitiesErr error
		brief       *models.CfoBrief
		briefErr    error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		entities, entitiesErr = d.deps.Ledger.GetEntities(ctx)
	}()
	go func() {
		defer wg.Done()
		brief, briefErr = d.deps.Advisory.GetBrief(ctx, entityID)
	}()

	var (
		tb  *models.TrialBalanceResponse
		pnl *models.PnLResponse
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		tb, err = d.deps.Ledger.GetTrialBalance(gctx, entityID, today)
		return err
	})
	g.Go(func() error {
		var err error
		pnl, err = d.deps.Ledger.GetPnL(gctx, entityID, from, today)
		return err
	})
	err := g.Wait()
	wg.Wait()

	if entitiesErr != nil {
		utils.LogError(logger, "service", "DashboardController.Load", "load entities", nil, entitiesErr)
	}
	if err == nil && briefErr != nil {
		utils.LogError(logger, "service", "DashboardController.Load", "load AI-CFO brief", entityID, briefErr)
	}

	d.finish(seq, err, dashboardLoadFailFallback, func() {
		if entitiesErr == nil {
			d.entities = entities
		}
		d.trialBalance = tb
		d.pnl = pnl
		if briefErr != nil {
			d.brief = nil
			d.briefWarning = BriefUnavailable
		} else {
			d.brief = brief
		}
	})
}

// View returns a snapshot of the page
func (d *DashboardController) View() *DashboardView {
	d.mu.Lock()
	defer d.mu.Unlock()

	view := &DashboardView{
		PageState:    d.pageState(),
		EntityID:     d.entityID,
		Entities:     slices.Clone(d.entities),
		BriefWarning: d.briefWarning,
		KPIs:         d.kpis(),
		TrialBalance: d.trialBalance,
		PnL:          d.pnl,
	}
	if view.Entities == nil {
		view.Entities = []models.Entity{}
	}
	if d.brief != nil {
		view.Brief = summarizeBrief(d.brief)
	}
	if d.pnl != nil {
		view.Performance = &Performance{
			TotalRevenue: FormatCurrency(d.pnl.TotalRevenue),
			TotalCogs:    FormatCurrency(d.pnl.TotalCogs),
			GrossMargin:  FormatCurrency(d.pnl.GrossMargin),
			NetResult:    FormatCurrency(d.pnl.NetResult),
		}
	}
	return view
}

// kpis builds the cards, preferring the brief's figures when present; callers hold mu
func (d *DashboardController) kpis() []KPI {
	cash := KPI{Title: "Cash (Bank / Clearing)"}
	deposits := KPI{Title: "Customer Deposits Held"}
	if d.brief != nil {
		cash.Value, cash.Description = FormatCurrency(d.brief.Cash), "From AI-CFO"
		deposits.Value, deposits.Description = FormatCurrency(d.brief.DepositsHeld), "From AI-CFO"
	} else {
		cash.Value, cash.Description = FormatCurrency(d.trialBalance.AccountBalance(AccountCash)), "Account "+AccountCash
		deposits.Value, deposits.Description = FormatCurrency(d.trialBalance.AccountBalance(AccountCustomerDeposits)), "Account "+AccountCustomerDeposits
	}

	margin, net := decimal.Zero, decimal.Zero
	if d.pnl != nil {
		margin, net = d.pnl.GrossMargin, d.pnl.NetResult
	}

	return []KPI{
		cash,
		deposits,
		{
			Title:       "Accounts Receivable",
			Value:       FormatCurrency(d.trialBalance.AccountBalance(AccountReceivable)),
			Description: "Account " + AccountReceivable,
		},
		{
			Title:       fmt.Sprintf("Margin (Last %d Days)", dashboardLookbackDays),
			Value:       FormatCurrency(margin),
			Description: "Revenue minus COGS",
		},
		{
			Title:       fmt.Sprintf("Net Result (Last %d Days)", dashboardLookbackDays),
			Value:       FormatCurrency(net),
			Description: "Total profit/loss",
		},
	}
}

func summarizeBrief(b *models.CfoBrief) *BriefSummary {
	trend := "flat"
	switch {
	case b.MarginTrendDelta.IsPositive():
		trend = "up"
	case b.MarginTrendDelta.IsNegative():
		trend = "down"
	}
	return &BriefSummary{
		AsOf:           b.AsOf,
		Runway:         fmt.Sprintf("%d days", b.RunwayDays),
		GstExposure:    FormatCurrency(b.GstExposure),
		CurrentMargin:  FormatPercent(b.MarginPctCurrent),
		PreviousMargin: FormatPercent(b.MarginPctPrevious),
		MarginTrend:    trend,
		MarginDelta:    FormatSignedPercent(b.MarginTrendDelta),
		Narrative:      b.Narrative,
	}
}
