package service

import (
	"strings"

	"github.com/centavo/centavo-backend/internal/domain"
	"github.com/centavo/centavo-backend/internal/websocket"
	"github.com/shopspring/decimal"
)

// BudgetService handles budget-related business logic
type BudgetService struct {
	budgetRepo     domain.BudgetRepository
	eventPublisher websocket.EventPublisher
}

// NewBudgetService creates a new BudgetService
func NewBudgetService(budgetRepo domain.BudgetRepository) *BudgetService {
	return &BudgetService{budgetRepo: budgetRepo}
}

// SetEventPublisher sets the event publisher for real-time updates
func (s *BudgetService) SetEventPublisher(publisher websocket.EventPublisher) {
	s.eventPublisher = publisher
}

func (s *BudgetService) publishEvent(workspaceID int32, event websocket.Event) {
	if s.eventPublisher != nil {
		s.eventPublisher.Publish(workspaceID, event)
	}
}

func validateBudgetName(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", domain.ErrNameRequired
	}
	if len(trimmed) > domain.MaxBudgetNameLength {
		return "", domain.ErrNameTooLong
	}
	return trimmed, nil
}

// CreateBudget creates a new budget. The cached balance starts at the
// initial balance; every later movement goes through the ledger.
func (s *BudgetService) CreateBudget(workspaceID int32, name string, initialBalance decimal.Decimal) (*domain.Budget, error) {
	validName, err := validateBudgetName(name)
	if err != nil {
		return nil, err
	}
	if initialBalance.IsNegative() {
		return nil, domain.ErrInvalidAmount
	}

	budget := &domain.Budget{
		WorkspaceID:    workspaceID,
		Name:           validName,
		InitialBalance: initialBalance,
	}

	created, err := s.budgetRepo.Create(budget)
	if err != nil {
		return nil, err
	}

	s.publishEvent(workspaceID, websocket.BudgetCreated(created))
	return created, nil
}

// GetBudgets retrieves all budgets of a workspace
func (s *BudgetService) GetBudgets(workspaceID int32) ([]*domain.Budget, error) {
	return s.budgetRepo.GetAllByWorkspace(workspaceID)
}

// GetBudgetByID retrieves a budget by ID within a workspace
func (s *BudgetService) GetBudgetByID(workspaceID int32, id int32) (*domain.Budget, error) {
	return s.budgetRepo.GetByID(workspaceID, id)
}

// UpdateBudget renames a budget
func (s *BudgetService) UpdateBudget(workspaceID int32, id int32, name string) (*domain.Budget, error) {
	validName, err := validateBudgetName(name)
	if err != nil {
		return nil, err
	}

	updated, err := s.budgetRepo.Update(workspaceID, id, validName)
	if err != nil {
		return nil, err
	}

	s.publishEvent(workspaceID, websocket.BudgetUpdated(updated))
	return updated, nil
}

// DeleteBudget deletes a budget. A budget that still has categories or
// transactions (including transfer mirrors it received) is rejected; the
// caller must empty it first.
func (s *BudgetService) DeleteBudget(workspaceID int32, id int32) error {
	budget, err := s.budgetRepo.GetByID(workspaceID, id)
	if err != nil {
		return err
	}

	categories, transactions, err := s.budgetRepo.CountDependents(workspaceID, id)
	if err != nil {
		return err
	}
	if categories > 0 || transactions > 0 {
		return domain.ErrBudgetNotEmpty
	}

	if err := s.budgetRepo.Delete(workspaceID, id); err != nil {
		return err
	}

	s.publishEvent(workspaceID, websocket.BudgetDeleted(budget))
	return nil
}
