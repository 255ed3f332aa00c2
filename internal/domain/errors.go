package domain

import "errors"

// Domain errors
var (
	ErrNotFound             = errors.New("resource not found")
	ErrInvalidInput         = errors.New("invalid input")
	ErrWorkspaceNotFound    = errors.New("workspace not found")
	ErrBudgetNotFound       = errors.New("budget not found")
	ErrCategoryNotFound     = errors.New("category not found")
	ErrTransactionNotFound  = errors.New("transaction not found")
	ErrNameRequired         = errors.New("name is required")
	ErrNameTooLong          = errors.New("name exceeds maximum length")
	ErrDescriptionRequired  = errors.New("description is required")
	ErrDescriptionTooLong   = errors.New("description exceeds maximum length")
	ErrInvalidAmount        = errors.New("amount must be a non-negative number")
	ErrSameBudgetTransfer   = errors.New("cannot transfer to the same budget")
	ErrBudgetNotEmpty       = errors.New("budget still has categories or transactions")
	ErrCategoryWrongBudget  = errors.New("category belongs to a different budget")
	ErrTargetDateRequired   = errors.New("target date is required for a future expense")
	ErrNotFutureExpense     = errors.New("category is not a future expense")
	ErrTransferMirror       = errors.New("transfer mirrors are managed through their source transaction")
	ErrReceiptNotFound      = errors.New("transaction has no receipt")
)

// Validation constants, sized after the original schema columns.
const (
	MaxBudgetNameLength        = 100
	MaxCategoryNameLength      = 100
	MaxTransactionDescription  = 200
)
