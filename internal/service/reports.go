package service

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rongwang/finance-cockpit/internal/ledger"
	"github.com/rongwang/finance-cockpit/internal/models"
)

// Period is a reporting window ending today
type Period string

const (
	PeriodWeek    Period = "7days"
	PeriodMonth   Period = "30days"
	PeriodQuarter Period = "quarter"
	PeriodYear    Period = "year"
)

// Valid reports whether p is a known period
func (p Period) Valid() bool {
	_, ok := periodDays[p]
	return ok
}

var periodDays = map[Period]int{
	PeriodWeek:    7,
	PeriodMonth:   30,
	PeriodQuarter: 90,
	PeriodYear:    365,
}

// Label is the human name of the period
func (p Period) Label() string {
	switch p {
	case PeriodWeek:
		return "Last 7 Days"
	case PeriodMonth:
		return "Last 30 Days"
	case PeriodQuarter:
		return "This Quarter"
	case PeriodYear:
		return "This Year"
	}
	return string(p)
}

// DateRange returns [today - N days, today] for the period
func (p Period) DateRange(today time.Time) (from, to time.Time, err error) {
	days, ok := periodDays[p]
	if !ok {
		return time.Time{}, time.Time{}, fmt.Errorf("unknown period %q", p)
	}
	return today.AddDate(0, 0, -days), today, nil
}

// ReportLine is one formatted statement line
type ReportLine struct {
	AccountCode string `json:"accountCode"`
	AccountName string `json:"accountName"`
	Amount      string `json:"amount"`
}

// PnLSummary is the formatted profit and loss statement
type PnLSummary struct {
	From          string       `json:"from"`
	To            string       `json:"to"`
	Revenue       []ReportLine `json:"revenue"`
	Cogs          []ReportLine `json:"cogs"`
	Expenses      []ReportLine `json:"expenses"`
	TotalRevenue  string       `json:"totalRevenue"`
	TotalCogs     string       `json:"totalCogs"`
	TotalExpenses string       `json:"totalExpenses"`
	GrossMargin   string       `json:"grossMargin"`
	NetResult     string       `json:"netResult"`
	Profitable    bool         `json:"profitable"`
	Consistent    bool         `json:"consistent"`
}

// BalanceSheetSummary is the formatted balance sheet
type BalanceSheetSummary struct {
	AsOf                  string       `json:"asOf"`
	Assets                []ReportLine `json:"assets"`
	Liabilities           []ReportLine `json:"liabilities"`
	Equity                []ReportLine `json:"equity"`
	TotalAssets           string       `json:"totalAssets"`
	TotalLiabilities      string       `json:"totalLiabilities"`
	TotalEquity           string       `json:"totalEquity"`
	LiabilitiesPlusEquity string       `json:"liabilitiesPlusEquity"`
	Balanced              bool         `json:"balanced"`
}

// ReportsView is what the reports page renders
type ReportsView struct {
	PageState
	Period       Period                       `json:"period"`
	PeriodLabel  string                       `json:"periodLabel"`
	From         string                       `json:"from,omitempty"`
	To           string                       `json:"to,omitempty"`
	PnL          *PnLSummary                  `json:"pnl,omitempty"`
	BalanceSheet *BalanceSheetSummary         `json:"balanceSheet,omitempty"`
	RawPnL       *models.PnLResponse          `json:"rawPnl,omitempty"`
	RawBalance   *models.BalanceSheetResponse `json:"rawBalanceSheet,omitempty"`
}

// ReportsController loads the P&L and balance sheet of the default entity
type ReportsController struct {
	page
	deps Deps

	period       Period
	from, to     time.Time
	pnl          *models.PnLResponse
	balanceSheet *models.BalanceSheetResponse
}

// NewReportsController creates a reports page on the last 30 days
func NewReportsController(deps Deps) *ReportsController {
	return &ReportsController{deps: deps, period: PeriodMonth}
}

// Load fetches the P&L over the period and the balance sheet as of today together.
// An empty period means the last 30 days.
func (r *ReportsController) Load(ctx context.Context, period Period) {
	if period == "" {
		period = PeriodMonth
	}

	seq := r.begin()
	r.mu.Lock()
	r.period = period
	r.mu.Unlock()

	today := r.deps.today()
	from, to, err := period.DateRange(today)
	if err != nil {
		r.finish(seq, err, "Failed to load reports", nil)
		return
	}

	var (
		pnl *models.PnLResponse
		bs  *models.BalanceSheetResponse
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		pnl, err = r.deps.Ledger.GetPnL(gctx, r.deps.DefaultEntityID, from, to)
		return err
	})
	g.Go(func() error {
		var err error
		bs, err = r.deps.Ledger.GetBalanceSheet(gctx, r.deps.DefaultEntityID, today)
		return err
	})

	r.finish(seq, g.Wait(), "Failed to load reports", func() {
		r.from, r.to = from, to
		r.pnl = pnl
		r.balanceSheet = bs
	})
}

// View returns a snapshot of the page
func (r *ReportsController) View() *ReportsView {
	r.mu.Lock()
	defer r.mu.Unlock()

	view := &ReportsView{
		PageState:   r.pageState(),
		Period:      r.period,
		PeriodLabel: r.period.Label(),
		RawPnL:      r.pnl,
		RawBalance:  r.balanceSheet,
	}
	if !r.from.IsZero() {
		view.From, view.To = reportDate(r.from), reportDate(r.to)
	}
	if r.pnl != nil {
		view.PnL = &PnLSummary{
			From:          FormatDate(r.pnl.From),
			To:            FormatDate(r.pnl.To),
			Revenue:       pnlLines(r.pnl.Revenue),
			Cogs:          pnlLines(r.pnl.Cogs),
			Expenses:      pnlLines(r.pnl.Expenses),
			TotalRevenue:  FormatCurrency(r.pnl.TotalRevenue),
			TotalCogs:     FormatCurrency(r.pnl.TotalCogs),
			TotalExpenses: FormatCurrency(r.pnl.TotalExpenses),
			GrossMargin:   FormatCurrency(r.pnl.GrossMargin),
			NetResult:     FormatCurrency(r.pnl.NetResult),
			Profitable:    !r.pnl.NetResult.IsNegative(),
			Consistent:    r.pnl.LinesConsistent(),
		}
	}
	if bs := r.balanceSheet; bs != nil {
		view.BalanceSheet = &BalanceSheetSummary{
			AsOf:                  FormatDate(bs.AsOf),
			Assets:                balanceLines(bs.Assets),
			Liabilities:           balanceLines(bs.Liabilities),
			Equity:                balanceLines(bs.Equity),
			TotalAssets:           FormatCurrency(bs.TotalAssets),
			TotalLiabilities:      FormatCurrency(bs.TotalLiabilities),
			TotalEquity:           FormatCurrency(bs.TotalEquity),
			LiabilitiesPlusEquity: FormatCurrency(bs.TotalLiabilities.Add(bs.TotalEquity)),
			Balanced:              bs.Balanced(),
		}
	}
	return view
}

func pnlLines(entries []models.PnLEntry) []ReportLine {
	lines := make([]ReportLine, 0, len(entries))
	for _, e := range entries {
		lines = append(lines, ReportLine{AccountCode: e.AccountCode, AccountName: e.AccountName, Amount: FormatCurrency(e.Amount)})
	}
	return lines
}

func balanceLines(entries []models.BalanceSheetEntry) []ReportLine {
	lines := make([]ReportLine, 0, len(entries))
	for _, e := range entries {
		lines = append(lines, ReportLine{AccountCode: e.AccountCode, AccountName: e.AccountName, Amount: FormatCurrency(e.Amount)})
	}
	return lines
}

// reportDate renders t as a ledger request date
func reportDate(t time.Time) string {
	return t.Format(ledger.DateFormat)
}
