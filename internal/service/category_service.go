package service

import (
	"strings"
	"time"

	"github.com/centavo/centavo-backend/internal/domain"
	"github.com/centavo/centavo-backend/internal/websocket"
	"github.com/shopspring/decimal"
)

// CategoryService handles category-related business logic
type CategoryService struct {
	categoryRepo   domain.CategoryRepository
	budgetRepo     domain.BudgetRepository
	eventPublisher websocket.EventPublisher
}

// NewCategoryService creates a new CategoryService
func NewCategoryService(categoryRepo domain.CategoryRepository, budgetRepo domain.BudgetRepository) *CategoryService {
	return &CategoryService{
		categoryRepo: categoryRepo,
		budgetRepo:   budgetRepo,
	}
}

// SetEventPublisher sets the event publisher for real-time updates
func (s *CategoryService) SetEventPublisher(publisher websocket.EventPublisher) {
	s.eventPublisher = publisher
}

func (s *CategoryService) publishEvent(workspaceID int32, event websocket.Event) {
	if s.eventPublisher != nil {
		s.eventPublisher.Publish(workspaceID, event)
	}
}

// CategoryInput holds the input for creating or updating a category
type CategoryInput struct {
	Name            string
	BudgetedAmount  decimal.Decimal
	IsFutureExpense bool
	IsTransfer      bool
	TargetDate      *time.Time
	TargetAmount    *decimal.Decimal
}

// validateCategoryInput normalizes and validates a category input. Target
// fields are only persisted for future expenses and cleared otherwise.
func validateCategoryInput(input CategoryInput) (*domain.UpdateCategoryData, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, domain.ErrNameRequired
	}
	if len(name) > domain.MaxCategoryNameLength {
		return nil, domain.ErrNameTooLong
	}

	if input.BudgetedAmount.IsNegative() {
		return nil, domain.ErrInvalidAmount
	}

	data := &domain.UpdateCategoryData{
		Name:            name,
		BudgetedAmount:  input.BudgetedAmount,
		IsFutureExpense: input.IsFutureExpense,
		IsTransfer:      input.IsTransfer,
	}

	if input.IsFutureExpense {
		if input.TargetDate == nil {
			return nil, domain.ErrTargetDateRequired
		}
		data.TargetDate = input.TargetDate
		if input.TargetAmount != nil {
			if input.TargetAmount.IsNegative() {
				return nil, domain.ErrInvalidAmount
			}
			data.TargetAmount = input.TargetAmount
		} else {
			zero := decimal.Zero
			data.TargetAmount = &zero
		}
	}

	return data, nil
}

// CreateCategory creates a new category within a budget
func (s *CategoryService) CreateCategory(workspaceID int32, budgetID int32, input CategoryInput) (*domain.Category, error) {
	if _, err := s.budgetRepo.GetByID(workspaceID, budgetID); err != nil {
		return nil, domain.ErrBudgetNotFound
	}

	data, err := validateCategoryInput(input)
	if err != nil {
		return nil, err
	}

	category := &domain.Category{
		WorkspaceID:     workspaceID,
		BudgetID:        budgetID,
		Name:            data.Name,
		BudgetedAmount:  data.BudgetedAmount,
		IsFutureExpense: data.IsFutureExpense,
		IsTransfer:      data.IsTransfer,
		TargetDate:      data.TargetDate,
		TargetAmount:    data.TargetAmount,
	}

	created, err := s.categoryRepo.Create(category)
	if err != nil {
		return nil, err
	}

	s.publishEvent(workspaceID, websocket.CategoryCreated(created))
	return created, nil
}

// GetCategories retrieves all categories of a budget
func (s *CategoryService) GetCategories(workspaceID int32, budgetID int32) ([]*domain.Category, error) {
	if _, err := s.budgetRepo.GetByID(workspaceID, budgetID); err != nil {
		return nil, domain.ErrBudgetNotFound
	}
	return s.categoryRepo.GetAllByBudget(workspaceID, budgetID)
}

// GetCategoryByID retrieves a category by ID within a workspace
func (s *CategoryService) GetCategoryByID(workspaceID int32, id int32) (*domain.Category, error) {
	return s.categoryRepo.GetByID(workspaceID, id)
}

// UpdateCategory updates an existing category
func (s *CategoryService) UpdateCategory(workspaceID int32, id int32, input CategoryInput) (*domain.Category, error) {
	data, err := validateCategoryInput(input)
	if err != nil {
		return nil, err
	}

	updated, err := s.categoryRepo.Update(workspaceID, id, data)
	if err != nil {
		return nil, err
	}

	s.publishEvent(workspaceID, websocket.CategoryUpdated(updated))
	return updated, nil
}

// DeleteCategory deletes a category. Transactions that referenced it are
// detached, not deleted, so budget balances are untouched.
func (s *CategoryService) DeleteCategory(workspaceID int32, id int32) (int64, error) {
	category, err := s.categoryRepo.GetByID(workspaceID, id)
	if err != nil {
		return 0, err
	}

	detached, err := s.categoryRepo.DeleteAndDetach(workspaceID, id)
	if err != nil {
		return 0, err
	}

	s.publishEvent(workspaceID, websocket.CategoryDeleted(category))
	return detached, nil
}
