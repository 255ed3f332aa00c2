package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Category is a planned spending bucket or savings goal within a budget.
// TargetDate and TargetAmount are only meaningful when IsFutureExpense is
// set; both are cleared whenever the flag is cleared.
type Category struct {
	ID              int32            `json:"id"`
	WorkspaceID     int32            `json:"workspaceId"`
	BudgetID        int32            `json:"budgetId"`
	Name            string           `json:"name"`
	BudgetedAmount  decimal.Decimal  `json:"budgetedAmount"`
	IsFutureExpense bool             `json:"isFutureExpense"`
	IsTransfer      bool             `json:"isTransfer"`
	TargetDate      *time.Time       `json:"targetDate,omitempty"`
	TargetAmount    *decimal.Decimal `json:"targetAmount,omitempty"`
	CreatedAt       time.Time        `json:"createdAt"`
	UpdatedAt       time.Time        `json:"updatedAt"`
}

// UpdateCategoryData holds the updatable fields of a category.
type UpdateCategoryData struct {
	Name            string
	BudgetedAmount  decimal.Decimal
	IsFutureExpense bool
	IsTransfer      bool
	TargetDate      *time.Time
	TargetAmount    *decimal.Decimal
}

type CategoryRepository interface {
	Create(category *Category) (*Category, error)
	GetByID(workspaceID int32, id int32) (*Category, error)
	GetAllByBudget(workspaceID int32, budgetID int32) ([]*Category, error)
	Update(workspaceID int32, id int32, data *UpdateCategoryData) (*Category, error)
	// DeleteAndDetach clears category_id on every transaction referencing the
	// category and deletes the category, both in one database transaction.
	// Transactions survive with their monetary effect intact.
	DeleteAndDetach(workspaceID int32, id int32) (detached int64, err error)
}
