// Package dashboard assembles the financial report served on the home screen:
// month summary, all-time balance, recent entries, top expense counterparties
// and the trailing cash flow series, all computed from one store snapshot.
package dashboard

import (
	"errors"

	"github.com/caixaclaro/caixaclaro/internal/ledger"
	"github.com/caixaclaro/caixaclaro/internal/money"
)

// ErrInvalidInput reports a bad reference date or non-positive limits. It is
// raised before any computation starts, so nothing is ever partially built.
var ErrInvalidInput = errors.New("dashboard: invalid input")

// SummaryCard carries the scalar indicators at the top of the dashboard.
type SummaryCard struct {
	CounterpartyCount int         `json:"counterparty_count"`
	MonthIncome       money.Money `json:"month_income"`
	MonthExpense      money.Money `json:"month_expense"`
	MonthNet          money.Money `json:"month_net"`
	TotalBalance      money.Money `json:"total_balance"`
}

// Report is the complete dashboard payload. It is a deterministic function
// of (owner, reference date, snapshot) and is safe to cache as a value.
type Report struct {
	Summary                  SummaryCard                `json:"summary"`
	RecentEntries            []ledger.RecentEntry       `json:"recent_entries"`
	TopExpenseCounterparties []ledger.CounterpartyTotal `json:"top_expense_counterparties"`
	CashFlowSeries           []ledger.CashFlowPoint     `json:"cash_flow_series"`
}
