package postgres

import (
	"context"
	"fmt"

	"github.com/centavo/centavo-backend/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

const budgetColumns = "id, workspace_id, name, balance, initial_balance, created_at, updated_at"

// BudgetRepository implements domain.BudgetRepository using PostgreSQL
type BudgetRepository struct {
	pool *pgxpool.Pool
}

// NewBudgetRepository creates a new BudgetRepository
func NewBudgetRepository(pool *pgxpool.Pool) *BudgetRepository {
	return &BudgetRepository{pool: pool}
}

// Create creates a new budget. The opening balance equals the initial
// balance; all later balance writes happen through ledger changes.
func (r *BudgetRepository) Create(budget *domain.Budget) (*domain.Budget, error) {
	ctx := context.Background()

	initial, err := decimalToPgNumeric(budget.InitialBalance)
	if err != nil {
		return nil, fmt.Errorf("invalid initial balance: %w", err)
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO budgets (workspace_id, name, balance, initial_balance)
		VALUES ($1, $2, $3, $3)
		RETURNING `+budgetColumns,
		budget.WorkspaceID, budget.Name, initial,
	)
	return scanBudget(row)
}

// GetByID retrieves a budget by its ID within a workspace
func (r *BudgetRepository) GetByID(workspaceID int32, id int32) (*domain.Budget, error) {
	ctx := context.Background()

	row := r.pool.QueryRow(ctx, `
		SELECT `+budgetColumns+` FROM budgets
		WHERE workspace_id = $1 AND id = $2`,
		workspaceID, id,
	)
	budget, err := scanBudget(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrBudgetNotFound
		}
		return nil, err
	}
	return budget, nil
}

// GetAllByWorkspace retrieves all budgets for a workspace
func (r *BudgetRepository) GetAllByWorkspace(workspaceID int32) ([]*domain.Budget, error) {
	ctx := context.Background()

	rows, err := r.pool.Query(ctx, `
		SELECT `+budgetColumns+` FROM budgets
		WHERE workspace_id = $1
		ORDER BY created_at, id`,
		workspaceID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	budgets := []*domain.Budget{}
	for rows.Next() {
		budget, err := scanBudget(rows)
		if err != nil {
			return nil, err
		}
		budgets = append(budgets, budget)
	}
	return budgets, rows.Err()
}

// Update updates a budget's name
func (r *BudgetRepository) Update(workspaceID int32, id int32, name string) (*domain.Budget, error) {
	ctx := context.Background()

	row := r.pool.QueryRow(ctx, `
		UPDATE budgets SET name = $3, updated_at = now()
		WHERE workspace_id = $1 AND id = $2
		RETURNING `+budgetColumns,
		workspaceID, id, name,
	)
	budget, err := scanBudget(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrBudgetNotFound
		}
		return nil, err
	}
	return budget, nil
}

// Delete removes a budget. The service checks CountDependents first for a
// friendly conflict response; the RESTRICT foreign keys on categories and
// transactions back that check if a row slips in between.
func (r *BudgetRepository) Delete(workspaceID int32, id int32) error {
	ctx := context.Background()

	tag, err := r.pool.Exec(ctx, `
		DELETE FROM budgets WHERE workspace_id = $1 AND id = $2`,
		workspaceID, id,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrBudgetNotFound
	}
	return nil
}

// CountDependents reports categories and transactions still referencing the
// budget, counting received transfer mirrors against the target budget.
func (r *BudgetRepository) CountDependents(workspaceID int32, id int32) (int64, int64, error) {
	ctx := context.Background()

	var categories, transactions int64
	err := r.pool.QueryRow(ctx, `
		SELECT
			(SELECT count(*) FROM categories WHERE workspace_id = $1 AND budget_id = $2),
			(SELECT count(*) FROM transactions
			 WHERE workspace_id = $1 AND (budget_id = $2 OR transfer_to_budget_id = $2))`,
		workspaceID, id,
	).Scan(&categories, &transactions)
	if err != nil {
		return 0, 0, err
	}
	return categories, transactions, nil
}

func scanBudget(row pgx.Row) (*domain.Budget, error) {
	var (
		budget  domain.Budget
		balance pgtype.Numeric
		initial pgtype.Numeric
	)
	err := row.Scan(&budget.ID, &budget.WorkspaceID, &budget.Name, &balance, &initial, &budget.CreatedAt, &budget.UpdatedAt)
	if err != nil {
		return nil, err
	}
	budget.Balance = pgNumericToDecimal(balance)
	budget.InitialBalance = pgNumericToDecimal(initial)
	return &budget, nil
}
