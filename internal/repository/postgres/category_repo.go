package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/centavo/centavo-backend/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const categoryColumns = "id, workspace_id, budget_id, name, budgeted_amount, is_future_expense, is_transfer, target_date, target_amount, created_at, updated_at"

// CategoryRepository implements domain.CategoryRepository using PostgreSQL
type CategoryRepository struct {
	pool *pgxpool.Pool
}

// NewCategoryRepository creates a new CategoryRepository
func NewCategoryRepository(pool *pgxpool.Pool) *CategoryRepository {
	return &CategoryRepository{pool: pool}
}

// Create creates a new category
func (r *CategoryRepository) Create(category *domain.Category) (*domain.Category, error) {
	ctx := context.Background()

	budgeted, err := decimalToPgNumeric(category.BudgetedAmount)
	if err != nil {
		return nil, fmt.Errorf("invalid budgeted amount: %w", err)
	}

	var targetDate pgtype.Date
	if category.TargetDate != nil {
		targetDate = timeToPgDate(*category.TargetDate)
	}
	var targetAmount pgtype.Numeric
	if category.TargetAmount != nil {
		targetAmount, err = decimalToPgNumeric(*category.TargetAmount)
		if err != nil {
			return nil, fmt.Errorf("invalid target amount: %w", err)
		}
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO categories (workspace_id, budget_id, name, budgeted_amount, is_future_expense, is_transfer, target_date, target_amount)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+categoryColumns,
		category.WorkspaceID, category.BudgetID, category.Name, budgeted,
		category.IsFutureExpense, category.IsTransfer, targetDate, targetAmount,
	)
	return scanCategory(row)
}

// GetByID retrieves a category by its ID within a workspace
func (r *CategoryRepository) GetByID(workspaceID int32, id int32) (*domain.Category, error) {
	ctx := context.Background()

	row := r.pool.QueryRow(ctx, `
		SELECT `+categoryColumns+` FROM categories
		WHERE workspace_id = $1 AND id = $2`,
		workspaceID, id,
	)
	category, err := scanCategory(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrCategoryNotFound
		}
		return nil, err
	}
	return category, nil
}

// GetAllByBudget retrieves all categories of one budget
func (r *CategoryRepository) GetAllByBudget(workspaceID int32, budgetID int32) ([]*domain.Category, error) {
	ctx := context.Background()

	rows, err := r.pool.Query(ctx, `
		SELECT `+categoryColumns+` FROM categories
		WHERE workspace_id = $1 AND budget_id = $2
		ORDER BY name, id`,
		workspaceID, budgetID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	categories := []*domain.Category{}
	for rows.Next() {
		category, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		categories = append(categories, category)
	}
	return categories, rows.Err()
}

// Update updates a category's fields
func (r *CategoryRepository) Update(workspaceID int32, id int32, data *domain.UpdateCategoryData) (*domain.Category, error) {
	ctx := context.Background()

	budgeted, err := decimalToPgNumeric(data.BudgetedAmount)
	if err != nil {
		return nil, fmt.Errorf("invalid budgeted amount: %w", err)
	}

	var targetDate pgtype.Date
	if data.TargetDate != nil {
		targetDate = timeToPgDate(*data.TargetDate)
	}
	var targetAmount pgtype.Numeric
	if data.TargetAmount != nil {
		targetAmount, err = decimalToPgNumeric(*data.TargetAmount)
		if err != nil {
			return nil, fmt.Errorf("invalid target amount: %w", err)
		}
	}

	row := r.pool.QueryRow(ctx, `
		UPDATE categories
		SET name = $3, budgeted_amount = $4, is_future_expense = $5, is_transfer = $6,
		    target_date = $7, target_amount = $8, updated_at = now()
		WHERE workspace_id = $1 AND id = $2
		RETURNING `+categoryColumns,
		workspaceID, id, data.Name, budgeted, data.IsFutureExpense, data.IsTransfer,
		targetDate, targetAmount,
	)
	category, err := scanCategory(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrCategoryNotFound
		}
		return nil, err
	}
	return category, nil
}

// DeleteAndDetach detaches all transactions from the category, then deletes
// it. Both writes run in one database transaction.
func (r *CategoryRepository) DeleteAndDetach(workspaceID int32, id int32) (int64, error) {
	ctx := context.Background()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	detachTag, err := tx.Exec(ctx, `
		UPDATE transactions SET category_id = NULL
		WHERE workspace_id = $1 AND category_id = $2`,
		workspaceID, id,
	)
	if err != nil {
		return 0, err
	}

	deleteTag, err := tx.Exec(ctx, `
		DELETE FROM categories WHERE workspace_id = $1 AND id = $2`,
		workspaceID, id,
	)
	if err != nil {
		return 0, err
	}
	if deleteTag.RowsAffected() == 0 {
		return 0, domain.ErrCategoryNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return detachTag.RowsAffected(), nil
}

func scanCategory(row pgx.Row) (*domain.Category, error) {
	var (
		category     domain.Category
		budgeted     pgtype.Numeric
		targetDate   pgtype.Date
		targetAmount pgtype.Numeric
	)
	err := row.Scan(&category.ID, &category.WorkspaceID, &category.BudgetID, &category.Name,
		&budgeted, &category.IsFutureExpense, &category.IsTransfer,
		&targetDate, &targetAmount, &category.CreatedAt, &category.UpdatedAt)
	if err != nil {
		return nil, err
	}
	category.BudgetedAmount = pgNumericToDecimal(budgeted)
	if targetDate.Valid {
		d := time.Date(targetDate.Time.Year(), targetDate.Time.Month(), targetDate.Time.Day(), 0, 0, 0, 0, time.UTC)
		category.TargetDate = &d
	}
	if targetAmount.Valid {
		amount := pgNumericToDecimal(targetAmount)
		category.TargetAmount = &amount
	} else if category.IsFutureExpense {
		zero := decimal.Zero
		category.TargetAmount = &zero
	}
	return &category, nil
}
