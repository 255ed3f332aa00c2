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

// BudgetHandler handles budget-related HTTP requests
type BudgetHandler struct {
	budgetService  *service.BudgetService
	summaryService *service.SummaryService
}

// NewBudgetHandler creates a new BudgetHandler
func NewBudgetHandler(budgetService *service.BudgetService, summaryService *service.SummaryService) *BudgetHandler {
	return &BudgetHandler{
		budgetService:  budgetService,
		summaryService: summaryService,
	}
}

// CreateBudgetRequest represents the create budget request body
type CreateBudgetRequest struct {
	Name           string  `json:"name"`
	InitialBalance *string `json:"initialBalance,omitempty"`
}

// UpdateBudgetRequest represents the update budget request body
type UpdateBudgetRequest struct {
	Name string `json:"name"`
}

// BudgetResponse represents a budget in API responses
type BudgetResponse struct {
	ID             int32  `json:"id"`
	Name           string `json:"name"`
	Balance        string `json:"balance"`
	InitialBalance string `json:"initialBalance"`
	CreatedAt      string `json:"createdAt"`
	UpdatedAt      string `json:"updatedAt"`
}

// BudgetSummaryResponse represents a budget overview in API responses
type BudgetSummaryResponse struct {
	Budget          BudgetResponse `json:"budget"`
	TotalIncome     string         `json:"totalIncome"`
	TotalSpent      string         `json:"totalSpent"`
	SpendPercentage string         `json:"spendPercentage"`
}

// CreateBudget handles POST /api/v1/budgets
func (h *BudgetHandler) CreateBudget(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	var req CreateBudgetRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	initialBalance := decimal.Zero
	if req.InitialBalance != nil && *req.InitialBalance != "" {
		parsed, err := decimal.NewFromString(*req.InitialBalance)
		if err != nil {
			return NewValidationError(c, "Invalid initialBalance", []ValidationError{
				{Field: "initialBalance", Message: "Must be a valid decimal number"},
			})
		}
		initialBalance = parsed
	}

	budget, err := h.budgetService.CreateBudget(workspaceID, req.Name, initialBalance)
	if err != nil {
		if errors.Is(err, domain.ErrNameRequired) {
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "name", Message: "Name is required"},
			})
		}
		if errors.Is(err, domain.ErrNameTooLong) {
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "name", Message: "Name must be 100 characters or less"},
			})
		}
		if errors.Is(err, domain.ErrInvalidAmount) {
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "initialBalance", Message: "Must not be negative"},
			})
		}
		log.Error().Err(err).Int32("workspace_id", workspaceID).Msg("Failed to create budget")
		return NewInternalError(c, "Failed to create budget")
	}

	log.Info().Int32("workspace_id", workspaceID).Int32("budget_id", budget.ID).Str("name", budget.Name).Msg("Budget created")
	return c.JSON(http.StatusCreated, toBudgetResponse(budget))
}

// GetBudgets handles GET /api/v1/budgets
func (h *BudgetHandler) GetBudgets(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	budgets, err := h.budgetService.GetBudgets(workspaceID)
	if err != nil {
		log.Error().Err(err).Int32("workspace_id", workspaceID).Msg("Failed to get budgets")
		return NewInternalError(c, "Failed to get budgets")
	}

	response := make([]BudgetResponse, len(budgets))
	for i, budget := range budgets {
		response[i] = toBudgetResponse(budget)
	}
	return c.JSON(http.StatusOK, response)
}

// GetBudget handles GET /api/v1/budgets/:id
func (h *BudgetHandler) GetBudget(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid budget ID", nil)
	}

	budget, err := h.budgetService.GetBudgetByID(workspaceID, int32(id))
	if err != nil {
		if errors.Is(err, domain.ErrBudgetNotFound) {
			return NewNotFoundError(c, "Budget not found")
		}
		log.Error().Err(err).Int32("workspace_id", workspaceID).Int("budget_id", id).Msg("Failed to get budget")
		return NewInternalError(c, "Failed to get budget")
	}

	return c.JSON(http.StatusOK, toBudgetResponse(budget))
}

// UpdateBudget handles PUT /api/v1/budgets/:id
func (h *BudgetHandler) UpdateBudget(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid budget ID", nil)
	}

	var req UpdateBudgetRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	budget, err := h.budgetService.UpdateBudget(workspaceID, int32(id), req.Name)
	if err != nil {
		if errors.Is(err, domain.ErrBudgetNotFound) {
			return NewNotFoundError(c, "Budget not found")
		}
		if errors.Is(err, domain.ErrNameRequired) {
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "name", Message: "Name is required"},
			})
		}
		if errors.Is(err, domain.ErrNameTooLong) {
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "name", Message: "Name must be 100 characters or less"},
			})
		}
		log.Error().Err(err).Int32("workspace_id", workspaceID).Int("budget_id", id).Msg("Failed to update budget")
		return NewInternalError(c, "Failed to update budget")
	}

	log.Info().Int32("workspace_id", workspaceID).Int32("budget_id", budget.ID).Msg("Budget updated")
	return c.JSON(http.StatusOK, toBudgetResponse(budget))
}

// DeleteBudget handles DELETE /api/v1/budgets/:id
func (h *BudgetHandler) DeleteBudget(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid budget ID", nil)
	}

	if err := h.budgetService.DeleteBudget(workspaceID, int32(id)); err != nil {
		if errors.Is(err, domain.ErrBudgetNotFound) {
			return NewNotFoundError(c, "Budget not found")
		}
		if errors.Is(err, domain.ErrBudgetNotEmpty) {
			return NewConflictError(c, "Budget still has categories or transactions")
		}
		log.Error().Err(err).Int32("workspace_id", workspaceID).Int("budget_id", id).Msg("Failed to delete budget")
		return NewInternalError(c, "Failed to delete budget")
	}

	log.Info().Int32("workspace_id", workspaceID).Int("budget_id", id).Msg("Budget deleted")
	return c.NoContent(http.StatusNoContent)
}

// GetBudgetSummary handles GET /api/v1/budgets/:id/summary
func (h *BudgetHandler) GetBudgetSummary(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid budget ID", nil)
	}

	summary, err := h.summaryService.GetBudgetSummary(workspaceID, int32(id))
	if err != nil {
		if errors.Is(err, domain.ErrBudgetNotFound) {
			return NewNotFoundError(c, "Budget not found")
		}
		log.Error().Err(err).Int32("workspace_id", workspaceID).Int("budget_id", id).Msg("Failed to get budget summary")
		return NewInternalError(c, "Failed to get budget summary")
	}

	return c.JSON(http.StatusOK, toBudgetSummaryResponse(summary))
}

// GetBudgetSummaries handles GET /api/v1/summaries/budgets
func (h *BudgetHandler) GetBudgetSummaries(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	summaries, err := h.summaryService.GetBudgetSummaries(workspaceID)
	if err != nil {
		log.Error().Err(err).Int32("workspace_id", workspaceID).Msg("Failed to get budget summaries")
		return NewInternalError(c, "Failed to get budget summaries")
	}

	response := make([]BudgetSummaryResponse, len(summaries))
	for i, summary := range summaries {
		response[i] = toBudgetSummaryResponse(summary)
	}
	return c.JSON(http.StatusOK, response)
}

// ConsistencyResponse represents a balance consistency report in API responses
type ConsistencyResponse struct {
	Consistent bool                  `json:"consistent"`
	Budgets    []BudgetDriftResponse `json:"budgets"`
}

// BudgetDriftResponse represents one budget's balance drift in API responses
type BudgetDriftResponse struct {
	BudgetID        int32  `json:"budgetId"`
	Name            string `json:"name"`
	CachedBalance   string `json:"cachedBalance"`
	ComputedBalance string `json:"computedBalance"`
	Drift           string `json:"drift"`
}

// CheckConsistency handles GET /api/v1/summaries/consistency
func (h *BudgetHandler) CheckConsistency(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	report, err := h.summaryService.CheckConsistency(workspaceID)
	if err != nil {
		log.Error().Err(err).Int32("workspace_id", workspaceID).Msg("Failed to check consistency")
		return NewInternalError(c, "Failed to check consistency")
	}

	response := ConsistencyResponse{
		Consistent: report.Consistent,
		Budgets:    make([]BudgetDriftResponse, len(report.Budgets)),
	}
	for i, drift := range report.Budgets {
		response.Budgets[i] = BudgetDriftResponse{
			BudgetID:        drift.BudgetID,
			Name:            drift.Name,
			CachedBalance:   drift.CachedBalance.StringFixed(2),
			ComputedBalance: drift.ComputedBalance.StringFixed(2),
			Drift:           drift.Drift.StringFixed(2),
		}
	}
	return c.JSON(http.StatusOK, response)
}

func toBudgetResponse(budget *domain.Budget) BudgetResponse {
	return BudgetResponse{
		ID:             budget.ID,
		Name:           budget.Name,
		Balance:        budget.Balance.StringFixed(2),
		InitialBalance: budget.InitialBalance.StringFixed(2),
		CreatedAt:      budget.CreatedAt.Format(time.RFC3339),
		UpdatedAt:      budget.UpdatedAt.Format(time.RFC3339),
	}
}

func toBudgetSummaryResponse(summary *domain.BudgetSummary) BudgetSummaryResponse {
	return BudgetSummaryResponse{
		Budget:          toBudgetResponse(summary.Budget),
		TotalIncome:     summary.TotalIncome.StringFixed(2),
		TotalSpent:      summary.TotalSpent.StringFixed(2),
		SpendPercentage: summary.SpendPercentage.StringFixed(2),
	}
}
