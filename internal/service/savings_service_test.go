package service

import (
	"errors"
	"testing"
	"time"

	"github.com/centavo/centavo-backend/internal/domain"
	"github.com/centavo/centavo-backend/internal/testutil"
	"github.com/shopspring/decimal"
)

func setupSavingsService() (*SavingsService, *testutil.MockCategoryRepository, *testutil.MockBudgetRepository, *testutil.MockTransactionRepository) {
	categoryRepo := testutil.NewMockCategoryRepository()
	budgetRepo := testutil.NewMockBudgetRepository()
	transactionRepo := testutil.NewMockTransactionRepository()
	svc := NewSavingsService(categoryRepo, budgetRepo, transactionRepo)
	// Fixed clock keeps the date math deterministic.
	svc.SetClock(func() time.Time {
		return time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC)
	})
	return svc, categoryRepo, budgetRepo, transactionRepo
}

func addFutureExpense(categoryRepo *testutil.MockCategoryRepository, id int32, target string, targetDate time.Time) *domain.Category {
	amount := decimal.RequireFromString(target)
	c := &domain.Category{
		ID: id, WorkspaceID: 1, BudgetID: 1, Name: "Vacation",
		IsFutureExpense: true,
		TargetDate:      &targetDate,
		TargetAmount:    &amount,
	}
	categoryRepo.AddCategory(c)
	return c
}

func TestGetCategoryProgress_Success(t *testing.T) {
	svc, categoryRepo, _, transactionRepo := setupSavingsService()
	addFutureExpense(categoryRepo, 1, "600.00", time.Date(2025, 7, 15, 0, 0, 0, 0, time.UTC))

	categoryID := int32(1)
	transactionRepo.AddTransaction(&domain.Transaction{
		ID: 1, WorkspaceID: 1, BudgetID: 1, CategoryID: &categoryID,
		Amount: decimal.RequireFromString("150.00"),
	})

	progress, err := svc.GetCategoryProgress(1, 1)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if !progress.Saved.Equal(decimal.RequireFromString("150.00")) {
		t.Errorf("Expected saved 150.00, got %s", progress.Saved.String())
	}
	if !progress.Remaining.Equal(decimal.RequireFromString("450.00")) {
		t.Errorf("Expected remaining 450.00, got %s", progress.Remaining.String())
	}
	// Jan 15 to Jul 15 is 181 days, six 30-day blocks.
	if progress.MonthsRemaining != 6 {
		t.Errorf("Expected 6 months remaining, got %d", progress.MonthsRemaining)
	}
	if !progress.MonthlyRecommendation.Equal(decimal.RequireFromString("75.00")) {
		t.Errorf("Expected monthly recommendation 75.00, got %s", progress.MonthlyRecommendation.String())
	}
}

func TestGetCategoryProgress_SavedIgnoresDirection(t *testing.T) {
	svc, categoryRepo, _, transactionRepo := setupSavingsService()
	addFutureExpense(categoryRepo, 1, "500.00", time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC))

	categoryID := int32(1)
	transactionRepo.AddTransaction(&domain.Transaction{
		ID: 1, WorkspaceID: 1, BudgetID: 1, CategoryID: &categoryID,
		Amount: decimal.RequireFromString("100.00"),
	})
	transactionRepo.AddTransaction(&domain.Transaction{
		ID: 2, WorkspaceID: 1, BudgetID: 1, CategoryID: &categoryID, IsIncome: true,
		Amount: decimal.RequireFromString("40.00"),
	})

	progress, err := svc.GetCategoryProgress(1, 1)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	// Every amount counts toward saved regardless of direction.
	if !progress.Saved.Equal(decimal.RequireFromString("140.00")) {
		t.Errorf("Expected saved 140.00, got %s", progress.Saved.String())
	}
}

func TestGetCategoryProgress_PastTargetDate_OneMonth(t *testing.T) {
	svc, categoryRepo, _, _ := setupSavingsService()
	addFutureExpense(categoryRepo, 1, "300.00", time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC))

	progress, err := svc.GetCategoryProgress(1, 1)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if progress.MonthsRemaining != 1 {
		t.Errorf("Expected 1 month for a past target, got %d", progress.MonthsRemaining)
	}
	if !progress.MonthlyRecommendation.Equal(decimal.RequireFromString("300.00")) {
		t.Errorf("Expected recommendation 300.00, got %s", progress.MonthlyRecommendation.String())
	}
}

func TestGetCategoryProgress_Overfunded_NegativeRecommendation(t *testing.T) {
	svc, categoryRepo, _, transactionRepo := setupSavingsService()
	addFutureExpense(categoryRepo, 1, "200.00", time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))

	categoryID := int32(1)
	transactionRepo.AddTransaction(&domain.Transaction{
		ID: 1, WorkspaceID: 1, BudgetID: 1, CategoryID: &categoryID,
		Amount: decimal.RequireFromString("250.00"),
	})

	progress, err := svc.GetCategoryProgress(1, 1)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !progress.Remaining.Equal(decimal.RequireFromString("-50.00")) {
		t.Errorf("Expected remaining -50.00, got %s", progress.Remaining.String())
	}
	// Jan 15 to Jun 1 is 137 days, so 4 months at 30 days each. The
	// formula stays remaining/months even past the goal.
	if progress.MonthsRemaining != 4 {
		t.Errorf("Expected 4 months remaining, got %d", progress.MonthsRemaining)
	}
	if !progress.MonthlyRecommendation.Equal(decimal.RequireFromString("-12.50")) {
		t.Errorf("Expected recommendation -12.50, got %s", progress.MonthlyRecommendation.String())
	}
}

func TestGetCategoryProgress_NotFutureExpense(t *testing.T) {
	svc, categoryRepo, _, _ := setupSavingsService()
	categoryRepo.AddCategory(&domain.Category{ID: 1, WorkspaceID: 1, BudgetID: 1, Name: "Food"})

	_, err := svc.GetCategoryProgress(1, 1)
	if !errors.Is(err, domain.ErrNotFutureExpense) {
		t.Errorf("Expected ErrNotFutureExpense, got %v", err)
	}
}

func TestGetFutureExpenseProgress_FiltersCategories(t *testing.T) {
	svc, categoryRepo, budgetRepo, _ := setupSavingsService()
	budgetRepo.AddBudget(&domain.Budget{ID: 1, WorkspaceID: 1, Name: "Checking"})
	addFutureExpense(categoryRepo, 1, "600.00", time.Date(2025, 7, 15, 0, 0, 0, 0, time.UTC))
	categoryRepo.AddCategory(&domain.Category{ID: 2, WorkspaceID: 1, BudgetID: 1, Name: "Food"})

	progress, err := svc.GetFutureExpenseProgress(1, 1)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(progress) != 1 {
		t.Fatalf("Expected 1 future expense, got %d", len(progress))
	}
	if progress[0].Category.ID != 1 {
		t.Errorf("Expected category 1, got %d", progress[0].Category.ID)
	}
}

func TestGetSavingsPlan_Success(t *testing.T) {
	svc, categoryRepo, _, _ := setupSavingsService()
	addFutureExpense(categoryRepo, 1, "1000.00", time.Date(2025, 7, 15, 0, 0, 0, 0, time.UTC))

	plan, err := svc.GetSavingsPlan(1, 1)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	// Jan to Jul is six whole calendar months.
	if plan.Paydays != 6 {
		t.Errorf("Expected 6 paydays, got %d", plan.Paydays)
	}
	if !plan.Suggestion.Equal(decimal.RequireFromString("166.67")) {
		t.Errorf("Expected suggestion 166.67, got %s", plan.Suggestion.String())
	}
}

func TestGetSavingsPlan_NotFutureExpense(t *testing.T) {
	svc, categoryRepo, _, _ := setupSavingsService()
	categoryRepo.AddCategory(&domain.Category{ID: 1, WorkspaceID: 1, BudgetID: 1, Name: "Food"})

	_, err := svc.GetSavingsPlan(1, 1)
	if !errors.Is(err, domain.ErrNotFutureExpense) {
		t.Errorf("Expected ErrNotFutureExpense, got %v", err)
	}
}

func TestEstimatePlan_PastDate_ClampsToOnePayday(t *testing.T) {
	svc, _, _, _ := setupSavingsService()

	plan := svc.EstimatePlan(decimal.RequireFromString("500.00"), time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))
	if plan.Paydays != 1 {
		t.Errorf("Expected 1 payday for a past date, got %d", plan.Paydays)
	}
	if !plan.Suggestion.Equal(decimal.RequireFromString("500.00")) {
		t.Errorf("Expected suggestion 500.00, got %s", plan.Suggestion.String())
	}
}

func TestEstimatePlan_RoundsToCents(t *testing.T) {
	svc, _, _, _ := setupSavingsService()

	plan := svc.EstimatePlan(decimal.RequireFromString("100.00"), time.Date(2025, 4, 15, 0, 0, 0, 0, time.UTC))
	if plan.Paydays != 3 {
		t.Errorf("Expected 3 paydays, got %d", plan.Paydays)
	}
	if !plan.Suggestion.Equal(decimal.RequireFromString("33.33")) {
		t.Errorf("Expected suggestion 33.33, got %s", plan.Suggestion.String())
	}
}
