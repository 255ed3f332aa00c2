package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/centavo/centavo-backend/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

const transactionColumns = "id, workspace_id, budget_id, description, amount, date, category_id, is_income, is_transfer, transfer_to_budget_id, transfer_pair_id, receipt_path, created_at"

// TransactionRepository implements domain.TransactionRepository using PostgreSQL
type TransactionRepository struct {
	pool *pgxpool.Pool
}

// NewTransactionRepository creates a new TransactionRepository
func NewTransactionRepository(pool *pgxpool.Pool) *TransactionRepository {
	return &TransactionRepository{pool: pool}
}

// Apply executes a LedgerChange in one database transaction: inserts,
// updates and deletes of transaction rows plus the balance deltas they
// imply commit together or not at all.
func (r *TransactionRepository) Apply(workspaceID int32, change *domain.LedgerChange) ([]*domain.Transaction, error) {
	ctx := context.Background()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	created := make([]*domain.Transaction, 0, len(change.Creates))
	for _, t := range change.Creates {
		row, err := insertTransaction(ctx, tx, workspaceID, t)
		if err != nil {
			return nil, err
		}
		created = append(created, row)
	}

	for _, u := range change.Updates {
		if err := updateTransaction(ctx, tx, workspaceID, u); err != nil {
			return nil, err
		}
	}

	for _, id := range change.Deletes {
		tag, err := tx.Exec(ctx, `
			DELETE FROM transactions WHERE workspace_id = $1 AND id = $2`,
			workspaceID, id,
		)
		if err != nil {
			return nil, err
		}
		if tag.RowsAffected() == 0 {
			return nil, domain.ErrTransactionNotFound
		}
	}

	for _, delta := range change.BalanceDeltas {
		amount, err := decimalToPgNumeric(delta.Delta)
		if err != nil {
			return nil, fmt.Errorf("invalid balance delta: %w", err)
		}
		tag, err := tx.Exec(ctx, `
			UPDATE budgets SET balance = balance + $3, updated_at = now()
			WHERE workspace_id = $1 AND id = $2`,
			workspaceID, delta.BudgetID, amount,
		)
		if err != nil {
			return nil, err
		}
		if tag.RowsAffected() == 0 {
			return nil, domain.ErrBudgetNotFound
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return created, nil
}

func insertTransaction(ctx context.Context, tx pgx.Tx, workspaceID int32, t *domain.Transaction) (*domain.Transaction, error) {
	amount, err := decimalToPgNumeric(t.Amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount: %w", err)
	}

	var pairID pgtype.UUID
	if t.TransferPairID != nil {
		pairID = pgtype.UUID{Bytes: *t.TransferPairID, Valid: true}
	}

	row := tx.QueryRow(ctx, `
		INSERT INTO transactions (workspace_id, budget_id, description, amount, date, category_id, is_income, is_transfer, transfer_to_budget_id, transfer_pair_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING `+transactionColumns,
		workspaceID, t.BudgetID, t.Description, amount, timeToPgDate(t.Date),
		int32ToPgInt4(t.CategoryID), t.IsIncome, t.IsTransfer,
		int32ToPgInt4(t.TransferToBudgetID), pairID,
	)
	return scanTransaction(row)
}

func updateTransaction(ctx context.Context, tx pgx.Tx, workspaceID int32, u *domain.TransactionUpdate) error {
	amount, err := decimalToPgNumeric(u.Amount)
	if err != nil {
		return fmt.Errorf("invalid amount: %w", err)
	}

	var pairID pgtype.UUID
	if u.TransferPairID != nil {
		pairID = pgtype.UUID{Bytes: *u.TransferPairID, Valid: true}
	}

	tag, err := tx.Exec(ctx, `
		UPDATE transactions
		SET description = $3, amount = $4, date = $5, category_id = $6,
		    is_income = $7, is_transfer = $8, transfer_to_budget_id = $9, transfer_pair_id = $10
		WHERE workspace_id = $1 AND id = $2`,
		workspaceID, u.ID, u.Description, amount, timeToPgDate(u.Date),
		int32ToPgInt4(u.CategoryID), u.IsIncome, u.IsTransfer,
		int32ToPgInt4(u.TransferToBudgetID), pairID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTransactionNotFound
	}
	return nil
}

// GetByID retrieves a transaction by its ID within a workspace
func (r *TransactionRepository) GetByID(workspaceID int32, id int32) (*domain.Transaction, error) {
	ctx := context.Background()

	row := r.pool.QueryRow(ctx, `
		SELECT `+transactionColumns+` FROM transactions
		WHERE workspace_id = $1 AND id = $2`,
		workspaceID, id,
	)
	transaction, err := scanTransaction(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrTransactionNotFound
		}
		return nil, err
	}
	return transaction, nil
}

// GetMirror returns the other leg of a transfer pair
func (r *TransactionRepository) GetMirror(workspaceID int32, pairID uuid.UUID, sourceID int32) (*domain.Transaction, error) {
	ctx := context.Background()

	row := r.pool.QueryRow(ctx, `
		SELECT `+transactionColumns+` FROM transactions
		WHERE workspace_id = $1 AND transfer_pair_id = $2 AND id <> $3`,
		workspaceID, pgtype.UUID{Bytes: pairID, Valid: true}, sourceID,
	)
	transaction, err := scanTransaction(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrTransactionNotFound
		}
		return nil, err
	}
	return transaction, nil
}

// GetByBudget retrieves transactions of one budget, newest date first, with
// optional filters and pagination
func (r *TransactionRepository) GetByBudget(workspaceID int32, budgetID int32, filters *domain.TransactionFilters) (*domain.PaginatedTransactions, error) {
	ctx := context.Background()

	page := int32(1)
	pageSize := int32(domain.DefaultPageSize)
	if filters != nil {
		if filters.Page > 0 {
			page = filters.Page
		}
		if filters.PageSize > 0 {
			pageSize = filters.PageSize
			if pageSize > domain.MaxPageSize {
				pageSize = domain.MaxPageSize
			}
		}
	}
	offset := (page - 1) * pageSize

	where := []string{"workspace_id = $1", "budget_id = $2"}
	args := []interface{}{workspaceID, budgetID}
	if filters != nil {
		if filters.CategoryID != nil {
			args = append(args, *filters.CategoryID)
			where = append(where, fmt.Sprintf("category_id = $%d", len(args)))
		}
		if filters.StartDate != nil {
			args = append(args, timeToPgDate(*filters.StartDate))
			where = append(where, fmt.Sprintf("date >= $%d", len(args)))
		}
		if filters.EndDate != nil {
			args = append(args, timeToPgDate(*filters.EndDate))
			where = append(where, fmt.Sprintf("date <= $%d", len(args)))
		}
		if filters.IsIncome != nil {
			args = append(args, *filters.IsIncome)
			where = append(where, fmt.Sprintf("is_income = $%d", len(args)))
		}
	}
	whereClause := strings.Join(where, " AND ")

	var totalItems int64
	err := r.pool.QueryRow(ctx,
		"SELECT count(*) FROM transactions WHERE "+whereClause, args...,
	).Scan(&totalItems)
	if err != nil {
		return nil, err
	}

	args = append(args, pageSize, offset)
	rows, err := r.pool.Query(ctx, fmt.Sprintf(
		"SELECT %s FROM transactions WHERE %s ORDER BY date DESC, id DESC LIMIT $%d OFFSET $%d",
		transactionColumns, whereClause, len(args)-1, len(args)), args...,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	transactions := []*domain.Transaction{}
	for rows.Next() {
		transaction, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, transaction)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	totalPages := int32(totalItems / int64(pageSize))
	if totalItems%int64(pageSize) > 0 {
		totalPages++
	}

	return &domain.PaginatedTransactions{
		Data:       transactions,
		Page:       page,
		PageSize:   pageSize,
		TotalItems: totalItems,
		TotalPages: totalPages,
	}, nil
}

// GetByCategory retrieves all transactions assigned to a category
func (r *TransactionRepository) GetByCategory(workspaceID int32, categoryID int32) ([]*domain.Transaction, error) {
	ctx := context.Background()

	rows, err := r.pool.Query(ctx, `
		SELECT `+transactionColumns+` FROM transactions
		WHERE workspace_id = $1 AND category_id = $2
		ORDER BY date DESC, id DESC`,
		workspaceID, categoryID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	transactions := []*domain.Transaction{}
	for rows.Next() {
		transaction, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, transaction)
	}
	return transactions, rows.Err()
}

// SumsByBudget aggregates income and expense totals per budget
func (r *TransactionRepository) SumsByBudget(workspaceID int32) ([]*domain.BudgetTransactionSums, error) {
	ctx := context.Background()

	rows, err := r.pool.Query(ctx, `
		SELECT budget_id,
		       COALESCE(sum(amount) FILTER (WHERE is_income), 0)     AS sum_income,
		       COALESCE(sum(amount) FILTER (WHERE NOT is_income), 0) AS sum_expenses
		FROM transactions
		WHERE workspace_id = $1
		GROUP BY budget_id`,
		workspaceID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sums := []*domain.BudgetTransactionSums{}
	for rows.Next() {
		var (
			s        domain.BudgetTransactionSums
			income   pgtype.Numeric
			expenses pgtype.Numeric
		)
		if err := rows.Scan(&s.BudgetID, &income, &expenses); err != nil {
			return nil, err
		}
		s.SumIncome = pgNumericToDecimal(income)
		s.SumExpenses = pgNumericToDecimal(expenses)
		sums = append(sums, &s)
	}
	return sums, rows.Err()
}

// SetReceiptPath stores (or clears) the receipt object path of a transaction
func (r *TransactionRepository) SetReceiptPath(workspaceID int32, id int32, path *string) (*domain.Transaction, error) {
	ctx := context.Background()

	row := r.pool.QueryRow(ctx, `
		UPDATE transactions SET receipt_path = $3
		WHERE workspace_id = $1 AND id = $2
		RETURNING `+transactionColumns,
		workspaceID, id, stringToPgText(path),
	)
	transaction, err := scanTransaction(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrTransactionNotFound
		}
		return nil, err
	}
	return transaction, nil
}

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	var (
		t            domain.Transaction
		amount       pgtype.Numeric
		date         pgtype.Date
		categoryID   pgtype.Int4
		transferToID pgtype.Int4
		pairID       pgtype.UUID
		receiptPath  pgtype.Text
	)
	err := row.Scan(&t.ID, &t.WorkspaceID, &t.BudgetID, &t.Description, &amount, &date,
		&categoryID, &t.IsIncome, &t.IsTransfer, &transferToID, &pairID, &receiptPath, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	t.Amount = pgNumericToDecimal(amount)
	t.Date = date.Time
	t.CategoryID = pgInt4ToInt32(categoryID)
	t.TransferToBudgetID = pgInt4ToInt32(transferToID)
	if pairID.Valid {
		id := uuid.UUID(pairID.Bytes)
		t.TransferPairID = &id
	}
	t.ReceiptPath = pgTextToString(receiptPath)
	return &t, nil
}
