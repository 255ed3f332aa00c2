package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/centavo/centavo-backend/internal/domain"
	"github.com/centavo/centavo-backend/internal/middleware"
	"github.com/centavo/centavo-backend/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// SavingsHandler handles future-expense savings HTTP requests
type SavingsHandler struct {
	savingsService *service.SavingsService
}

// NewSavingsHandler creates a new SavingsHandler
func NewSavingsHandler(savingsService *service.SavingsService) *SavingsHandler {
	return &SavingsHandler{savingsService: savingsService}
}

// FutureExpenseProgressResponse represents savings progress in API responses
type FutureExpenseProgressResponse struct {
	Category              CategoryResponse `json:"category"`
	Saved                 string           `json:"saved"`
	Remaining             string           `json:"remaining"`
	MonthsRemaining       int              `json:"monthsRemaining"`
	MonthlyRecommendation string           `json:"monthlyRecommendation"`
}

// SavingsPlanResponse represents a savings plan in API responses
type SavingsPlanResponse struct {
	TargetAmount string `json:"targetAmount"`
	TargetDate   string `json:"targetDate"`
	Paydays      int    `json:"paydays"`
	Suggestion   string `json:"suggestion"`
}

// GetFutureExpenseProgress handles GET /api/v1/budgets/:id/future-expenses
func (h *SavingsHandler) GetFutureExpenseProgress(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	budgetID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid budget ID", nil)
	}

	progress, err := h.savingsService.GetFutureExpenseProgress(workspaceID, int32(budgetID))
	if err != nil {
		if errors.Is(err, domain.ErrBudgetNotFound) {
			return NewNotFoundError(c, "Budget not found")
		}
		log.Error().Err(err).Int32("workspace_id", workspaceID).Int("budget_id", budgetID).Msg("Failed to get future expense progress")
		return NewInternalError(c, "Failed to get future expense progress")
	}

	response := make([]FutureExpenseProgressResponse, len(progress))
	for i, item := range progress {
		response[i] = toFutureExpenseProgressResponse(item)
	}
	return c.JSON(http.StatusOK, response)
}

// GetCategoryProgress handles GET /api/v1/categories/:id/progress
func (h *SavingsHandler) GetCategoryProgress(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid category ID", nil)
	}

	progress, err := h.savingsService.GetCategoryProgress(workspaceID, int32(id))
	if err != nil {
		if errors.Is(err, domain.ErrCategoryNotFound) {
			return NewNotFoundError(c, "Category not found")
		}
		if errors.Is(err, domain.ErrNotFutureExpense) {
			return NewValidationError(c, "Category is not a future expense", nil)
		}
		log.Error().Err(err).Int32("workspace_id", workspaceID).Int("category_id", id).Msg("Failed to get category progress")
		return NewInternalError(c, "Failed to get category progress")
	}

	return c.JSON(http.StatusOK, toFutureExpenseProgressResponse(progress))
}

// GetSavingsPlan handles GET /api/v1/categories/:id/savings-plan
func (h *SavingsHandler) GetSavingsPlan(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid category ID", nil)
	}

	plan, err := h.savingsService.GetSavingsPlan(workspaceID, int32(id))
	if err != nil {
		if errors.Is(err, domain.ErrCategoryNotFound) {
			return NewNotFoundError(c, "Category not found")
		}
		if errors.Is(err, domain.ErrNotFutureExpense) {
			return NewValidationError(c, "Category is not a future expense", nil)
		}
		if errors.Is(err, domain.ErrTargetDateRequired) {
			return NewValidationError(c, "Category has no target date", nil)
		}
		log.Error().Err(err).Int32("workspace_id", workspaceID).Int("category_id", id).Msg("Failed to get savings plan")
		return NewInternalError(c, "Failed to get savings plan")
	}

	return c.JSON(http.StatusOK, toSavingsPlanResponse(plan))
}

// EstimateSavingsPlan handles GET /api/v1/savings-plan
func (h *SavingsHandler) EstimateSavingsPlan(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	amountStr := c.QueryParam("targetAmount")
	dateStr := c.QueryParam("targetDate")
	if amountStr == "" || dateStr == "" {
		return NewValidationError(c, "targetAmount and targetDate query parameters are required", nil)
	}

	amount, err := decimal.NewFromString(amountStr)
	if err != nil || amount.IsNegative() {
		return NewValidationError(c, "Invalid targetAmount", []ValidationError{
			{Field: "targetAmount", Message: "Must be a non-negative decimal number"},
		})
	}

	date, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		return NewValidationError(c, "Invalid targetDate", []ValidationError{
			{Field: "targetDate", Message: "Must be in YYYY-MM-DD format"},
		})
	}

	plan := h.savingsService.EstimatePlan(amount, date)
	return c.JSON(http.StatusOK, toSavingsPlanResponse(plan))
}

func toFutureExpenseProgressResponse(progress *domain.FutureExpenseProgress) FutureExpenseProgressResponse {
	return FutureExpenseProgressResponse{
		Category:              toCategoryResponse(progress.Category),
		Saved:                 progress.Saved.StringFixed(2),
		Remaining:             progress.Remaining.StringFixed(2),
		MonthsRemaining:       progress.MonthsRemaining,
		MonthlyRecommendation: progress.MonthlyRecommendation.StringFixed(2),
	}
}

func toSavingsPlanResponse(plan *domain.SavingsPlan) SavingsPlanResponse {
	return SavingsPlanResponse{
		TargetAmount: plan.TargetAmount.StringFixed(2),
		TargetDate:   plan.TargetDate.Format("2006-01-02"),
		Paydays:      plan.Paydays,
		Suggestion:   plan.Suggestion.StringFixed(2),
	}
}
