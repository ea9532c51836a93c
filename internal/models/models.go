package models

import (
	"github.com/shopspring/decimal"
)

// Entity represents a legal/accounting entity in the ledger backend
type Entity struct {
	ID        string `json:"id" validate:"required"`
	Name      string `json:"name"`
	Type      string `json:"type,omitempty"`
	CreatedAt string `json:"createdAt,omitempty"`
}

// TrialBalanceEntry is one account's balance as of a date
type TrialBalanceEntry struct {
	AccountCode string          `json:"accountCode" validate:"required"`
	AccountName string          `json:"accountName"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Balance     decimal.Decimal `json:"balance"`
}

// TrialBalanceResponse is a point-in-time listing of account balances
type TrialBalanceResponse struct {
	EntityID string              `json:"entityId"`
	AsOf     string              `json:"asOf"`
	Entries  []TrialBalanceEntry `json:"entries" validate:"dive"`
}

// AccountBalance returns the balance of the given account, zero when absent
func (tb *TrialBalanceResponse) AccountBalance(accountCode string) decimal.Decimal {
	if tb == nil {
		return decimal.Zero
	}
	for _, e := range tb.Entries {
		if e.AccountCode == accountCode {
			return e.Balance
		}
	}
	return decimal.Zero
}

// PnLEntry is one line of a profit and loss statement
type PnLEntry struct {
	AccountCode string          `json:"accountCode" validate:"required"`
	AccountName string          `json:"accountName"`
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category,omitempty"`
}

// PnLResponse is a profit and loss statement over a date range
type PnLResponse struct {
	EntityID      string          `json:"entityId"`
	From          string          `json:"from"`
	To            string          `json:"to"`
	Revenue       []PnLEntry      `json:"revenue" validate:"dive"`
	Cogs          []PnLEntry      `json:"cogs" validate:"dive"`
	Expenses      []PnLEntry      `json:"expenses" validate:"dive"`
	TotalRevenue  decimal.Decimal `json:"totalRevenue"`
	TotalCogs     decimal.Decimal `json:"totalCogs"`
	TotalExpenses decimal.Decimal `json:"totalExpenses"`
	GrossMargin   decimal.Decimal `json:"grossMargin"`
	NetResult     decimal.Decimal `json:"netResult"`
}

// LinesConsistent reports whether each total equals the sum of its lines.
// The backend owns this invariant; the cockpit only reports on it.
func (p *PnLResponse) LinesConsistent() bool {
	return sumPnL(p.Revenue).Equal(p.TotalRevenue) &&
		sumPnL(p.Cogs).Equal(p.TotalCogs) &&
		sumPnL(p.Expenses).Equal(p.TotalExpenses)
}

func sumPnL(entries []PnLEntry) decimal.Decimal {
	total := decimal.Zero
	for _, e := range entries {
		total = total.Add(e.Amount)
	}
	return total
}

// BalanceSheetEntry is one line of a balance sheet
type BalanceSheetEntry struct {
	AccountCode string          `json:"accountCode" validate:"required"`
	AccountName string          `json:"accountName"`
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category,omitempty"`
}

// BalanceSheetResponse is a point-in-time asset/liability/equity snapshot
type BalanceSheetResponse struct {
	EntityID         string              `json:"entityId"`
	AsOf             string              `json:"asOf"`
	Assets           []BalanceSheetEntry `json:"assets" validate:"dive"`
	Liabilities      []BalanceSheetEntry `json:"liabilities" validate:"dive"`
	Equity           []BalanceSheetEntry `json:"equity" validate:"dive"`
	TotalAssets      decimal.Decimal     `json:"totalAssets"`
	TotalLiabilities decimal.Decimal     `json:"totalLiabilities"`
	TotalEquity      decimal.Decimal     `json:"totalEquity"`
}

// Balanced reports whether assets equal liabilities plus equity
func (bs *BalanceSheetResponse) Balanced() bool {
	return bs.TotalAssets.Equal(bs.TotalLiabilities.Add(bs.TotalEquity))
}

// BookingStatus is the lifecycle state of a booking
type BookingStatus string

const (
	BookingPending   BookingStatus = "PENDING"
	BookingConfirmed BookingStatus = "CONFIRMED"
	BookingCompleted BookingStatus = "COMPLETED"
	BookingCancelled BookingStatus = "CANCELLED"
)

// Valid reports whether s is a known booking status
func (s BookingStatus) Valid() bool {
	switch s {
	case BookingPending, BookingConfirmed, BookingCompleted, BookingCancelled:
		return true
	}
	return false
}

// BookingSummary is a transactional booking as listed
type BookingSummary struct {
	ID                string          `json:"id" validate:"required"`
	ExternalBookingID string          `json:"externalBookingId,omitempty"`
	Customer          string          `json:"customer"`
	Supplier          string          `json:"supplier"`
	Status            BookingStatus   `json:"status" validate:"required,oneof=PENDING CONFIRMED COMPLETED CANCELLED"`
	DepositAmount     decimal.Decimal `json:"depositAmount"`
	BalanceAmount     decimal.Decimal `json:"balanceAmount"`
	TotalJobAmount    decimal.Decimal `json:"totalJobAmount"`
	MarginAmount      decimal.Decimal `json:"marginAmount"`
	CreatedAt         string          `json:"createdAt"`
}

// BookingEvent is one financial event on a booking
type BookingEvent struct {
	ID             string          `json:"id" validate:"required"`
	Type           string          `json:"type"`
	Date           string          `json:"date"`
	Amount         decimal.Decimal `json:"amount"`
	JournalEntryID string          `json:"journalEntryId,omitempty"`
	Description    string          `json:"description,omitempty"`
}

// BookingDetails is a booking with its event timeline and breakdown
type BookingDetails struct {
	BookingSummary
	Events      []BookingEvent  `json:"events" validate:"dive"`
	Revenue     decimal.Decimal `json:"revenue"`
	Cogs        decimal.Decimal `json:"cogs"`
	GrossMargin decimal.Decimal `json:"grossMargin"`
}
