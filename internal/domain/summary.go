package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// BudgetSummary is the read-only financial overview of one budget.
// SpendPercentage is spent/income*100, zero when there is no income.
type BudgetSummary struct {
	Budget          *Budget         `json:"budget"`
	TotalIncome     decimal.Decimal `json:"totalIncome"`
	TotalSpent      decimal.Decimal `json:"totalSpent"`
	SpendPercentage decimal.Decimal `json:"spendPercentage"`
}

// CategorySummary reports how much of a category's budgeted amount is left.
// Spent sums every non-income transaction in the category; transfers out
// count as spending.
type CategorySummary struct {
	Category  *Category       `json:"category"`
	Spent     decimal.Decimal `json:"spent"`
	Available decimal.Decimal `json:"available"`
}

// SpendingSummaryItem is one row of a budget's spending summary, covering
// regular (non-future-expense) categories only.
type SpendingSummaryItem struct {
	CategoryID     int32           `json:"categoryId"`
	Name           string          `json:"name"`
	BudgetedAmount decimal.Decimal `json:"budgetedAmount"`
	Spent          decimal.Decimal `json:"spent"`
	Remaining      decimal.Decimal `json:"remaining"`
	Percentage     decimal.Decimal `json:"percentage"`
}

// BudgetDrift reports the difference between a budget's cached balance and
// the balance recomputed from its transactions. Drift of zero means the
// denormalized balance is consistent.
type BudgetDrift struct {
	BudgetID        int32           `json:"budgetId"`
	Name            string          `json:"name"`
	CachedBalance   decimal.Decimal `json:"cachedBalance"`
	ComputedBalance decimal.Decimal `json:"computedBalance"`
	Drift           decimal.Decimal `json:"drift"`
}

// ConsistencyReport is the result of recomputing every budget balance in a
// workspace from scratch.
type ConsistencyReport struct {
	Consistent bool           `json:"consistent"`
	Budgets    []*BudgetDrift `json:"budgets"`
}

// FutureExpenseProgress tracks saving progress toward a future expense.
// Saved sums every transaction amount recorded in the category regardless
// of direction, matching how contributions have always been counted.
type FutureExpenseProgress struct {
	Category              *Category       `json:"category"`
	Saved                 decimal.Decimal `json:"saved"`
	Remaining             decimal.Decimal `json:"remaining"`
	MonthsRemaining       int             `json:"monthsRemaining"`
	MonthlyRecommendation decimal.Decimal `json:"monthlyRecommendation"`
}

// SavingsPlan is a per-payday saving suggestion toward a target, assuming
// one payday per whole calendar month until the target date.
type SavingsPlan struct {
	TargetAmount decimal.Decimal `json:"targetAmount"`
	TargetDate   time.Time       `json:"targetDate"`
	Paydays      int             `json:"paydays"`
	Suggestion   decimal.Decimal `json:"suggestion"`
}
