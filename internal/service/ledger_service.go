package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/centavo/centavo-backend/internal/domain"
	"github.com/centavo/centavo-backend/internal/websocket"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// LedgerService owns every transaction mutation. It translates each ledger
// operation into a domain.LedgerChange (rows plus balance deltas) that the
// repository applies in one database transaction, so the cached budget
// balances and transfer mirrors can never drift from the rows.
type LedgerService struct {
	transactionRepo domain.TransactionRepository
	budgetRepo      domain.BudgetRepository
	categoryRepo    domain.CategoryRepository
	eventPublisher  websocket.EventPublisher
}

// NewLedgerService creates a new LedgerService
func NewLedgerService(transactionRepo domain.TransactionRepository, budgetRepo domain.BudgetRepository, categoryRepo domain.CategoryRepository) *LedgerService {
	return &LedgerService{
		transactionRepo: transactionRepo,
		budgetRepo:      budgetRepo,
		categoryRepo:    categoryRepo,
	}
}

// SetEventPublisher sets the event publisher for real-time updates
func (s *LedgerService) SetEventPublisher(publisher websocket.EventPublisher) {
	s.eventPublisher = publisher
}

func (s *LedgerService) publishEvent(workspaceID int32, event websocket.Event) {
	if s.eventPublisher != nil {
		s.eventPublisher.Publish(workspaceID, event)
	}
}

// publishBudgetUpdated re-reads each budget and broadcasts its new state so
// connected clients see balances move together with the transaction events.
func (s *LedgerService) publishBudgetUpdated(workspaceID int32, budgetIDs ...int32) {
	if s.eventPublisher == nil {
		return
	}
	seen := make(map[int32]bool, len(budgetIDs))
	for _, id := range budgetIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		budget, err := s.budgetRepo.GetByID(workspaceID, id)
		if err != nil {
			continue
		}
		s.eventPublisher.Publish(workspaceID, websocket.BudgetUpdated(budget))
	}
}

// CreateTransactionInput holds the input for recording a transaction
type CreateTransactionInput struct {
	BudgetID           int32
	Description        string
	Amount             decimal.Decimal
	Date               *time.Time
	CategoryID         *int32
	IsIncome           bool
	IsTransfer         bool
	TransferToBudgetID *int32
}

// UpdateTransactionInput holds the input for editing a transaction. The
// owning budget cannot change; move money with a transfer instead.
type UpdateTransactionInput struct {
	Description        string
	Amount             decimal.Decimal
	Date               time.Time
	CategoryID         *int32
	IsIncome           bool
	IsTransfer         bool
	TransferToBudgetID *int32
}

func validateDescription(description string) (string, error) {
	trimmed := strings.TrimSpace(description)
	if trimmed == "" {
		return "", domain.ErrDescriptionRequired
	}
	if len(trimmed) > domain.MaxTransactionDescription {
		return "", domain.ErrDescriptionTooLong
	}
	return trimmed, nil
}

// validateCategory checks that the category exists and belongs to the budget
// the transaction lives in.
func (s *LedgerService) validateCategory(workspaceID int32, budgetID int32, categoryID *int32) error {
	if categoryID == nil {
		return nil
	}
	category, err := s.categoryRepo.GetByID(workspaceID, *categoryID)
	if err != nil {
		return domain.ErrCategoryNotFound
	}
	if category.BudgetID != budgetID {
		return domain.ErrCategoryWrongBudget
	}
	return nil
}

// resolveTransferTarget resolves the receiving budget of a transfer. A
// missing target is not an error: the source transaction is still recorded
// and the mirror is skipped, matching how these rows have historically been
// tolerated. Transfers into the same budget are rejected.
func (s *LedgerService) resolveTransferTarget(workspaceID int32, budgetID int32, transferToBudgetID *int32) (*domain.Budget, error) {
	if transferToBudgetID == nil {
		log.Warn().
			Int32("workspace_id", workspaceID).
			Int32("budget_id", budgetID).
			Msg("Transfer without target budget; mirror skipped")
		return nil, nil
	}
	if *transferToBudgetID == budgetID {
		return nil, domain.ErrSameBudgetTransfer
	}
	target, err := s.budgetRepo.GetByID(workspaceID, *transferToBudgetID)
	if err != nil {
		if errors.Is(err, domain.ErrBudgetNotFound) {
			log.Warn().
				Int32("workspace_id", workspaceID).
				Int32("budget_id", budgetID).
				Int32("transfer_to_budget_id", *transferToBudgetID).
				Msg("Transfer target budget not found; mirror skipped")
			return nil, nil
		}
		return nil, err
	}
	return target, nil
}

func mirrorDescription(sourceBudgetName string) string {
	return fmt.Sprintf("Transfer from %s", sourceBudgetName)
}

// CreateTransaction records a transaction and applies its signed effect to
// the budget balance. When the transaction is a transfer with a resolvable
// target, a mirror income transaction is created in the target budget,
// linked to the source by a shared pair id, all in one atomic change.
func (s *LedgerService) CreateTransaction(workspaceID int32, input CreateTransactionInput) (*domain.Transaction, error) {
	budget, err := s.budgetRepo.GetByID(workspaceID, input.BudgetID)
	if err != nil {
		return nil, domain.ErrBudgetNotFound
	}

	description, err := validateDescription(input.Description)
	if err != nil {
		return nil, err
	}

	if input.Amount.IsNegative() {
		return nil, domain.ErrInvalidAmount
	}

	if err := s.validateCategory(workspaceID, input.BudgetID, input.CategoryID); err != nil {
		return nil, err
	}

	date := time.Now().UTC().Truncate(24 * time.Hour)
	if input.Date != nil {
		date = *input.Date
	}

	// A transfer's source leg is always an expense; the mirror carries the
	// income side.
	isIncome := input.IsIncome
	transferTo := input.TransferToBudgetID
	var target *domain.Budget
	if input.IsTransfer {
		isIncome = false
		target, err = s.resolveTransferTarget(workspaceID, input.BudgetID, input.TransferToBudgetID)
		if err != nil {
			return nil, err
		}
		if target == nil {
			// An unresolvable target must not be persisted; the foreign
			// key would reject the row
			transferTo = nil
		}
	} else {
		transferTo = nil
	}

	transaction := &domain.Transaction{
		WorkspaceID:        workspaceID,
		BudgetID:           input.BudgetID,
		Description:        description,
		Amount:             input.Amount,
		Date:               date,
		CategoryID:         input.CategoryID,
		IsIncome:           isIncome,
		IsTransfer:         input.IsTransfer,
		TransferToBudgetID: transferTo,
	}

	change := &domain.LedgerChange{
		Creates: []*domain.Transaction{transaction},
		BalanceDeltas: []domain.BalanceDelta{
			{BudgetID: input.BudgetID, Delta: transaction.SignedEffect()},
		},
	}

	if target != nil {
		pairID := uuid.New()
		transaction.TransferPairID = &pairID
		mirror := &domain.Transaction{
			WorkspaceID:    workspaceID,
			BudgetID:       target.ID,
			Description:    mirrorDescription(budget.Name),
			Amount:         input.Amount,
			Date:           date,
			IsIncome:       true,
			TransferPairID: &pairID,
		}
		change.Creates = append(change.Creates, mirror)
		change.BalanceDeltas = append(change.BalanceDeltas,
			domain.BalanceDelta{BudgetID: target.ID, Delta: input.Amount})
	}

	created, err := s.transactionRepo.Apply(workspaceID, change)
	if err != nil {
		return nil, err
	}

	affected := []int32{input.BudgetID}
	for _, row := range created {
		s.publishEvent(workspaceID, websocket.TransactionCreated(row))
	}
	if target != nil {
		affected = append(affected, target.ID)
	}
	s.publishBudgetUpdated(workspaceID, affected...)

	return created[0], nil
}

// GetTransaction retrieves a transaction by ID within a workspace
func (s *LedgerService) GetTransaction(workspaceID int32, id int32) (*domain.Transaction, error) {
	return s.transactionRepo.GetByID(workspaceID, id)
}

// GetTransactions lists a budget's transactions, newest first, with optional
// filters and pagination.
func (s *LedgerService) GetTransactions(workspaceID int32, budgetID int32, filters *domain.TransactionFilters) (*domain.PaginatedTransactions, error) {
	if _, err := s.budgetRepo.GetByID(workspaceID, budgetID); err != nil {
		return nil, domain.ErrBudgetNotFound
	}
	return s.transactionRepo.GetByBudget(workspaceID, budgetID, filters)
}

// UpdateTransaction edits a transaction: the old signed effect is reversed
// and the new one applied, the old mirror (if any) is reversed and removed,
// and a new mirror is created when the new state is a transfer. Mirrors
// themselves cannot be edited.
func (s *LedgerService) UpdateTransaction(workspaceID int32, id int32, input UpdateTransactionInput) (*domain.Transaction, error) {
	existing, err := s.transactionRepo.GetByID(workspaceID, id)
	if err != nil {
		return nil, err
	}
	if existing.IsMirror() {
		return nil, domain.ErrTransferMirror
	}

	budget, err := s.budgetRepo.GetByID(workspaceID, existing.BudgetID)
	if err != nil {
		return nil, domain.ErrBudgetNotFound
	}

	description, err := validateDescription(input.Description)
	if err != nil {
		return nil, err
	}

	if input.Amount.IsNegative() {
		return nil, domain.ErrInvalidAmount
	}

	if err := s.validateCategory(workspaceID, existing.BudgetID, input.CategoryID); err != nil {
		return nil, err
	}

	isIncome := input.IsIncome
	transferTo := input.TransferToBudgetID
	var target *domain.Budget
	if input.IsTransfer {
		isIncome = false
		target, err = s.resolveTransferTarget(workspaceID, existing.BudgetID, input.TransferToBudgetID)
		if err != nil {
			return nil, err
		}
		if target == nil {
			// An unresolvable target must not be persisted; the foreign
			// key would reject the row
			transferTo = nil
		}
	} else {
		transferTo = nil
	}

	change := &domain.LedgerChange{}
	affected := []int32{existing.BudgetID}

	// Reverse and remove the old mirror before building the new state.
	if existing.IsTransfer && existing.TransferPairID != nil {
		oldMirror, err := s.transactionRepo.GetMirror(workspaceID, *existing.TransferPairID, existing.ID)
		if err == nil {
			change.Deletes = append(change.Deletes, oldMirror.ID)
			change.BalanceDeltas = append(change.BalanceDeltas,
				domain.BalanceDelta{BudgetID: oldMirror.BudgetID, Delta: oldMirror.SignedEffect().Neg()})
			affected = append(affected, oldMirror.BudgetID)
		} else if !errors.Is(err, domain.ErrTransactionNotFound) {
			return nil, err
		}
	}

	update := &domain.TransactionUpdate{
		ID:                 id,
		Description:        description,
		Amount:             input.Amount,
		Date:               input.Date,
		CategoryID:         input.CategoryID,
		IsIncome:           isIncome,
		IsTransfer:         input.IsTransfer,
		TransferToBudgetID: transferTo,
	}
	change.Updates = append(change.Updates, update)

	newEffect := input.Amount
	if !isIncome {
		newEffect = input.Amount.Neg()
	}
	change.BalanceDeltas = append(change.BalanceDeltas,
		domain.BalanceDelta{BudgetID: existing.BudgetID, Delta: newEffect.Sub(existing.SignedEffect())})

	if target != nil {
		pairID := uuid.New()
		update.TransferPairID = &pairID
		mirror := &domain.Transaction{
			WorkspaceID:    workspaceID,
			BudgetID:       target.ID,
			Description:    mirrorDescription(budget.Name),
			Amount:         input.Amount,
			Date:           input.Date,
			IsIncome:       true,
			TransferPairID: &pairID,
		}
		change.Creates = append(change.Creates, mirror)
		change.BalanceDeltas = append(change.BalanceDeltas,
			domain.BalanceDelta{BudgetID: target.ID, Delta: input.Amount})
		affected = append(affected, target.ID)
	}

	created, err := s.transactionRepo.Apply(workspaceID, change)
	if err != nil {
		return nil, err
	}

	updated, err := s.transactionRepo.GetByID(workspaceID, id)
	if err != nil {
		return nil, err
	}

	s.publishEvent(workspaceID, websocket.TransactionUpdated(updated))
	for _, row := range created {
		s.publishEvent(workspaceID, websocket.TransactionCreated(row))
	}
	s.publishBudgetUpdated(workspaceID, affected...)

	return updated, nil
}

// DeleteTransaction removes a transaction and reverses its balance effect.
// Deleting either leg of a transfer removes both legs.
func (s *LedgerService) DeleteTransaction(workspaceID int32, id int32) error {
	existing, err := s.transactionRepo.GetByID(workspaceID, id)
	if err != nil {
		return err
	}

	change := &domain.LedgerChange{
		Deletes: []int32{existing.ID},
		BalanceDeltas: []domain.BalanceDelta{
			{BudgetID: existing.BudgetID, Delta: existing.SignedEffect().Neg()},
		},
	}
	affected := []int32{existing.BudgetID}
	deleted := []*domain.Transaction{existing}

	if existing.TransferPairID != nil {
		other, err := s.transactionRepo.GetMirror(workspaceID, *existing.TransferPairID, existing.ID)
		if err == nil {
			change.Deletes = append(change.Deletes, other.ID)
			change.BalanceDeltas = append(change.BalanceDeltas,
				domain.BalanceDelta{BudgetID: other.BudgetID, Delta: other.SignedEffect().Neg()})
			affected = append(affected, other.BudgetID)
			deleted = append(deleted, other)
		} else if !errors.Is(err, domain.ErrTransactionNotFound) {
			return err
		}
	}

	if _, err := s.transactionRepo.Apply(workspaceID, change); err != nil {
		return err
	}

	for _, row := range deleted {
		s.publishEvent(workspaceID, websocket.TransactionDeleted(row))
	}
	s.publishBudgetUpdated(workspaceID, affected...)

	return nil
}
