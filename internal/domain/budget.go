package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Budget is a named money pool with a cached running balance.
//
// Balance is denormalized: it must always equal
// InitialBalance + sum(income amounts) - sum(expense amounts) over the
// budget's transactions. The ledger service is the only writer of balance
// deltas, and every delta is applied inside the same database transaction
// as the transaction rows that caused it.
type Budget struct {
	ID             int32           `json:"id"`
	WorkspaceID    int32           `json:"workspaceId"`
	Name           string          `json:"name"`
	Balance        decimal.Decimal `json:"balance"`
	InitialBalance decimal.Decimal `json:"initialBalance"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

type BudgetRepository interface {
	Create(budget *Budget) (*Budget, error)
	GetByID(workspaceID int32, id int32) (*Budget, error)
	GetAllByWorkspace(workspaceID int32) ([]*Budget, error)
	Update(workspaceID int32, id int32, name string) (*Budget, error)
	Delete(workspaceID int32, id int32) error
	// CountDependents reports how many categories and transactions still
	// reference the budget (including transfer mirrors it received).
	CountDependents(workspaceID int32, id int32) (categories int64, transactions int64, err error)
}
