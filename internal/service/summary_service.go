package service

import (
	"github.com/centavo/centavo-backend/internal/domain"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// SummaryService computes read-only financial overviews. Nothing here
// mutates state; every figure is derived from the current transaction set.
type SummaryService struct {
	budgetRepo      domain.BudgetRepository
	categoryRepo    domain.CategoryRepository
	transactionRepo domain.TransactionRepository
}

// NewSummaryService creates a new SummaryService
func NewSummaryService(budgetRepo domain.BudgetRepository, categoryRepo domain.CategoryRepository, transactionRepo domain.TransactionRepository) *SummaryService {
	return &SummaryService{
		budgetRepo:      budgetRepo,
		categoryRepo:    categoryRepo,
		transactionRepo: transactionRepo,
	}
}

// GetBudgetSummaries returns the overview of every budget in a workspace
func (s *SummaryService) GetBudgetSummaries(workspaceID int32) ([]*domain.BudgetSummary, error) {
	budgets, err := s.budgetRepo.GetAllByWorkspace(workspaceID)
	if err != nil {
		return nil, err
	}

	sums, err := s.transactionRepo.SumsByBudget(workspaceID)
	if err != nil {
		return nil, err
	}
	sumsByBudget := make(map[int32]*domain.BudgetTransactionSums, len(sums))
	for _, sum := range sums {
		sumsByBudget[sum.BudgetID] = sum
	}

	summaries := make([]*domain.BudgetSummary, 0, len(budgets))
	for _, budget := range budgets {
		summaries = append(summaries, buildBudgetSummary(budget, sumsByBudget[budget.ID]))
	}
	return summaries, nil
}

// GetBudgetSummary returns the overview of a single budget
func (s *SummaryService) GetBudgetSummary(workspaceID int32, budgetID int32) (*domain.BudgetSummary, error) {
	budget, err := s.budgetRepo.GetByID(workspaceID, budgetID)
	if err != nil {
		return nil, err
	}

	sums, err := s.transactionRepo.SumsByBudget(workspaceID)
	if err != nil {
		return nil, err
	}
	for _, sum := range sums {
		if sum.BudgetID == budgetID {
			return buildBudgetSummary(budget, sum), nil
		}
	}
	return buildBudgetSummary(budget, nil), nil
}

func buildBudgetSummary(budget *domain.Budget, sums *domain.BudgetTransactionSums) *domain.BudgetSummary {
	income := decimal.Zero
	spent := decimal.Zero
	if sums != nil {
		income = sums.SumIncome
		spent = sums.SumExpenses
	}

	percentage := decimal.Zero
	if income.IsPositive() {
		percentage = spent.Div(income).Mul(hundred)
	}

	return &domain.BudgetSummary{
		Budget:          budget,
		TotalIncome:     income,
		TotalSpent:      spent,
		SpendPercentage: percentage,
	}
}

// GetCategorySummaries returns, for every category of a budget, how much of
// its budgeted amount is still available. Spending counts every non-income
// transaction, so transfers out reduce availability.
func (s *SummaryService) GetCategorySummaries(workspaceID int32, budgetID int32) ([]*domain.CategorySummary, error) {
	if _, err := s.budgetRepo.GetByID(workspaceID, budgetID); err != nil {
		return nil, domain.ErrBudgetNotFound
	}

	categories, err := s.categoryRepo.GetAllByBudget(workspaceID, budgetID)
	if err != nil {
		return nil, err
	}

	summaries := make([]*domain.CategorySummary, 0, len(categories))
	for _, category := range categories {
		spent, err := s.sumCategorySpending(workspaceID, category.ID)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, &domain.CategorySummary{
			Category:  category,
			Spent:     spent,
			Available: category.BudgetedAmount.Sub(spent),
		})
	}
	return summaries, nil
}

// GetSpendingSummary reports spent/remaining/percentage for every regular
// category of a budget. Future expenses are tracked through savings
// progress instead and are excluded here.
func (s *SummaryService) GetSpendingSummary(workspaceID int32, budgetID int32) ([]*domain.SpendingSummaryItem, error) {
	if _, err := s.budgetRepo.GetByID(workspaceID, budgetID); err != nil {
		return nil, domain.ErrBudgetNotFound
	}

	categories, err := s.categoryRepo.GetAllByBudget(workspaceID, budgetID)
	if err != nil {
		return nil, err
	}

	items := []*domain.SpendingSummaryItem{}
	for _, category := range categories {
		if category.IsFutureExpense {
			continue
		}

		spent, err := s.sumCategorySpending(workspaceID, category.ID)
		if err != nil {
			return nil, err
		}

		percentage := decimal.Zero
		if category.BudgetedAmount.IsPositive() {
			percentage = spent.Div(category.BudgetedAmount).Mul(hundred)
		}

		items = append(items, &domain.SpendingSummaryItem{
			CategoryID:     category.ID,
			Name:           category.Name,
			BudgetedAmount: category.BudgetedAmount,
			Spent:          spent,
			Remaining:      category.BudgetedAmount.Sub(spent),
			Percentage:     percentage,
		})
	}
	return items, nil
}

func (s *SummaryService) sumCategorySpending(workspaceID int32, categoryID int32) (decimal.Decimal, error) {
	transactions, err := s.transactionRepo.GetByCategory(workspaceID, categoryID)
	if err != nil {
		return decimal.Zero, err
	}

	spent := decimal.Zero
	for _, transaction := range transactions {
		if !transaction.IsIncome {
			spent = spent.Add(transaction.Amount)
		}
	}
	return spent, nil
}

// CheckConsistency recomputes every budget's balance from its transactions
// and reports drift against the cached balance. The combination of initial
// balance plus summed signed effects must match the cache exactly; any
// nonzero drift marks the report inconsistent.
func (s *SummaryService) CheckConsistency(workspaceID int32) (*domain.ConsistencyReport, error) {
	budgets, err := s.budgetRepo.GetAllByWorkspace(workspaceID)
	if err != nil {
		return nil, err
	}

	sums, err := s.transactionRepo.SumsByBudget(workspaceID)
	if err != nil {
		return nil, err
	}
	sumsByBudget := make(map[int32]*domain.BudgetTransactionSums, len(sums))
	for _, sum := range sums {
		sumsByBudget[sum.BudgetID] = sum
	}

	report := &domain.ConsistencyReport{
		Consistent: true,
		Budgets:    make([]*domain.BudgetDrift, 0, len(budgets)),
	}
	for _, budget := range budgets {
		computed := budget.InitialBalance
		if sum, ok := sumsByBudget[budget.ID]; ok {
			computed = computed.Add(sum.SumIncome).Sub(sum.SumExpenses)
		}

		drift := budget.Balance.Sub(computed)
		if !drift.IsZero() {
			report.Consistent = false
		}

		report.Budgets = append(report.Budgets, &domain.BudgetDrift{
			BudgetID:        budget.ID,
			Name:            budget.Name,
			CachedBalance:   budget.Balance,
			ComputedBalance: computed,
			Drift:           drift,
		})
	}
	return report, nil
}
