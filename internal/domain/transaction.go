package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Transaction is a single recorded monetary movement. Amount is always
// stored non-negative; direction comes from IsIncome.
//
// A transfer is a pair of transactions sharing a TransferPairID: the source
// leg (IsTransfer=true, TransferToBudgetID set) and a mirror income leg in
// the target budget. The pair id is the only way mirrors are resolved;
// there is no field matching.
type Transaction struct {
	ID                 int32           `json:"id"`
	WorkspaceID        int32           `json:"workspaceId"`
	BudgetID           int32           `json:"budgetId"`
	Description        string          `json:"description"`
	Amount             decimal.Decimal `json:"amount"`
	Date               time.Time       `json:"date"`
	CategoryID         *int32          `json:"categoryId,omitempty"`
	IsIncome           bool            `json:"isIncome"`
	IsTransfer         bool            `json:"isTransfer"`
	TransferToBudgetID *int32          `json:"transferToBudgetId,omitempty"`
	TransferPairID     *uuid.UUID      `json:"transferPairId,omitempty"`
	ReceiptPath        *string         `json:"receiptPath,omitempty"`
	CreatedAt          time.Time       `json:"createdAt"`
}

// SignedEffect is the delta this transaction contributes to its budget's
// balance: +Amount for income, -Amount otherwise.
func (t *Transaction) SignedEffect() decimal.Decimal {
	if t.IsIncome {
		return t.Amount
	}
	return t.Amount.Neg()
}

// IsMirror reports whether the transaction is the receiving leg of a
// transfer. Mirrors are managed through their source leg and cannot be
// edited directly.
func (t *Transaction) IsMirror() bool {
	return t.TransferPairID != nil && !t.IsTransfer
}

// TransactionUpdate holds the updatable fields of a transaction, applied as
// part of a LedgerChange.
type TransactionUpdate struct {
	ID                 int32
	Description        string
	Amount             decimal.Decimal
	Date               time.Time
	CategoryID         *int32
	IsIncome           bool
	IsTransfer         bool
	TransferToBudgetID *int32
	TransferPairID     *uuid.UUID
}

// BalanceDelta is a signed adjustment to one budget's cached balance.
type BalanceDelta struct {
	BudgetID int32
	Delta    decimal.Decimal
}

// LedgerChange describes every write of one ledger operation: rows to
// insert, update and delete, plus the balance deltas they imply. The
// repository applies the whole change in a single database transaction so
// balances and mirror rows can never be left half-written.
type LedgerChange struct {
	Creates       []*Transaction
	Updates       []*TransactionUpdate
	Deletes       []int32
	BalanceDeltas []BalanceDelta
}

type TransactionFilters struct {
	CategoryID *int32
	StartDate  *time.Time
	EndDate    *time.Time
	IsIncome   *bool
	Page       int32
	PageSize   int32
}

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

type PaginatedTransactions struct {
	Data       []*Transaction `json:"data"`
	Page       int32          `json:"page"`
	PageSize   int32          `json:"pageSize"`
	TotalItems int64          `json:"totalItems"`
	TotalPages int32          `json:"totalPages"`
}

// BudgetTransactionSums holds per-budget income/expense totals aggregated
// from the transaction set.
type BudgetTransactionSums struct {
	BudgetID    int32
	SumIncome   decimal.Decimal
	SumExpenses decimal.Decimal
}

type TransactionRepository interface {
	// Apply executes a LedgerChange atomically and returns the created rows
	// in the order they appear in change.Creates.
	Apply(workspaceID int32, change *LedgerChange) ([]*Transaction, error)
	GetByID(workspaceID int32, id int32) (*Transaction, error)
	// GetMirror returns the other leg of a transfer pair.
	GetMirror(workspaceID int32, pairID uuid.UUID, sourceID int32) (*Transaction, error)
	GetByBudget(workspaceID int32, budgetID int32, filters *TransactionFilters) (*PaginatedTransactions, error)
	GetByCategory(workspaceID int32, categoryID int32) ([]*Transaction, error)
	SumsByBudget(workspaceID int32) ([]*BudgetTransactionSums, error)
	SetReceiptPath(workspaceID int32, id int32, path *string) (*Transaction, error)
}
