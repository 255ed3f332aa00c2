package service

import (
	"time"

	"github.com/centavo/centavo-backend/internal/domain"
	"github.com/centavo/centavo-backend/internal/util"
	"github.com/shopspring/decimal"
)

// SavingsService computes saving progress and suggestions for future
// expenses. The clock is injectable so date math is testable.
type SavingsService struct {
	categoryRepo    domain.CategoryRepository
	budgetRepo      domain.BudgetRepository
	transactionRepo domain.TransactionRepository
	now             func() time.Time
}

// NewSavingsService creates a new SavingsService
func NewSavingsService(categoryRepo domain.CategoryRepository, budgetRepo domain.BudgetRepository, transactionRepo domain.TransactionRepository) *SavingsService {
	return &SavingsService{
		categoryRepo:    categoryRepo,
		budgetRepo:      budgetRepo,
		transactionRepo: transactionRepo,
		now:             time.Now,
	}
}

// SetClock overrides the time source
func (s *SavingsService) SetClock(now func() time.Time) {
	s.now = now
}

// GetFutureExpenseProgress reports saving progress for every future-expense
// category of a budget.
func (s *SavingsService) GetFutureExpenseProgress(workspaceID int32, budgetID int32) ([]*domain.FutureExpenseProgress, error) {
	if _, err := s.budgetRepo.GetByID(workspaceID, budgetID); err != nil {
		return nil, domain.ErrBudgetNotFound
	}

	categories, err := s.categoryRepo.GetAllByBudget(workspaceID, budgetID)
	if err != nil {
		return nil, err
	}

	progress := []*domain.FutureExpenseProgress{}
	for _, category := range categories {
		if !category.IsFutureExpense {
			continue
		}
		item, err := s.buildProgress(workspaceID, category)
		if err != nil {
			return nil, err
		}
		progress = append(progress, item)
	}
	return progress, nil
}

// GetCategoryProgress reports saving progress for one future-expense category
func (s *SavingsService) GetCategoryProgress(workspaceID int32, categoryID int32) (*domain.FutureExpenseProgress, error) {
	category, err := s.categoryRepo.GetByID(workspaceID, categoryID)
	if err != nil {
		return nil, err
	}
	if !category.IsFutureExpense {
		return nil, domain.ErrNotFutureExpense
	}
	return s.buildProgress(workspaceID, category)
}

// buildProgress computes saved/remaining/monthly figures for a category.
// Saved sums every transaction amount in the category regardless of
// direction: contributions are recorded as expenses of the funding budget,
// so direction carries no signal here.
func (s *SavingsService) buildProgress(workspaceID int32, category *domain.Category) (*domain.FutureExpenseProgress, error) {
	transactions, err := s.transactionRepo.GetByCategory(workspaceID, category.ID)
	if err != nil {
		return nil, err
	}

	saved := decimal.Zero
	for _, transaction := range transactions {
		saved = saved.Add(transaction.Amount)
	}

	target := decimal.Zero
	if category.TargetAmount != nil {
		target = *category.TargetAmount
	}
	remaining := target.Sub(saved)

	months := 1
	if category.TargetDate != nil {
		months = util.MonthsUntilByDays(util.DateOnly(s.now()), util.DateOnly(*category.TargetDate))
	}

	// Negative when the goal is overfunded: the recommendation then reads
	// as how much could be drawn back down per month.
	recommendation := remaining.Div(decimal.NewFromInt(int64(months)))

	return &domain.FutureExpenseProgress{
		Category:              category,
		Saved:                 saved,
		Remaining:             remaining,
		MonthsRemaining:       months,
		MonthlyRecommendation: recommendation,
	}, nil
}

// GetSavingsPlan suggests a per-payday amount for a future-expense category,
// assuming one payday per whole calendar month until the target date.
func (s *SavingsService) GetSavingsPlan(workspaceID int32, categoryID int32) (*domain.SavingsPlan, error) {
	category, err := s.categoryRepo.GetByID(workspaceID, categoryID)
	if err != nil {
		return nil, err
	}
	if !category.IsFutureExpense {
		return nil, domain.ErrNotFutureExpense
	}
	if category.TargetDate == nil {
		return nil, domain.ErrTargetDateRequired
	}

	target := decimal.Zero
	if category.TargetAmount != nil {
		target = *category.TargetAmount
	}

	return s.EstimatePlan(target, *category.TargetDate), nil
}

// EstimatePlan computes a savings plan for an arbitrary target. Paydays is
// the whole-month difference between today and the target date, at least
// one, and the suggestion is the target split evenly across paydays,
// rounded to cents.
func (s *SavingsService) EstimatePlan(targetAmount decimal.Decimal, targetDate time.Time) *domain.SavingsPlan {
	paydays := util.WholeMonthsBetween(util.DateOnly(s.now()), util.DateOnly(targetDate))
	if paydays < 1 {
		paydays = 1
	}

	suggestion := targetAmount.Div(decimal.NewFromInt(int64(paydays))).Round(2)

	return &domain.SavingsPlan{
		TargetAmount: targetAmount,
		TargetDate:   targetDate,
		Paydays:      paydays,
		Suggestion:   suggestion,
	}
}
