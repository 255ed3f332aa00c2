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

// CategoryHandler handles category-related HTTP requests
type CategoryHandler struct {
	categoryService *service.CategoryService
	summaryService  *service.SummaryService
}

// NewCategoryHandler creates a new CategoryHandler
func NewCategoryHandler(categoryService *service.CategoryService, summaryService *service.SummaryService) *CategoryHandler {
	return &CategoryHandler{
		categoryService: categoryService,
		summaryService:  summaryService,
	}
}

// CategoryRequest represents the create/update category request body
type CategoryRequest struct {
	Name            string  `json:"name"`
	BudgetedAmount  string  `json:"budgetedAmount"`
	IsFutureExpense bool    `json:"isFutureExpense"`
	IsTransfer      bool    `json:"isTransfer"`
	TargetDate      *string `json:"targetDate,omitempty"`
	TargetAmount    *string `json:"targetAmount,omitempty"`
}

// CategoryResponse represents a category in API responses
type CategoryResponse struct {
	ID              int32   `json:"id"`
	BudgetID        int32   `json:"budgetId"`
	Name            string  `json:"name"`
	BudgetedAmount  string  `json:"budgetedAmount"`
	IsFutureExpense bool    `json:"isFutureExpense"`
	IsTransfer      bool    `json:"isTransfer"`
	TargetDate      *string `json:"targetDate,omitempty"`
	TargetAmount    *string `json:"targetAmount,omitempty"`
	CreatedAt       string  `json:"createdAt"`
	UpdatedAt       string  `json:"updatedAt"`
}

// CategorySummaryResponse represents category availability in API responses
type CategorySummaryResponse struct {
	Category  CategoryResponse `json:"category"`
	Spent     string           `json:"spent"`
	Available string           `json:"available"`
}

// SpendingSummaryItemResponse represents one row of a budget's spending summary
type SpendingSummaryItemResponse struct {
	CategoryID     int32  `json:"categoryId"`
	Name           string `json:"name"`
	BudgetedAmount string `json:"budgetedAmount"`
	Spent          string `json:"spent"`
	Remaining      string `json:"remaining"`
	Percentage     string `json:"percentage"`
}

// parseCategoryRequest converts the request body into a service input.
// It performs no writes; a non-nil field error means the payload is
// malformed and nothing may be mutated.
func parseCategoryRequest(req CategoryRequest) (*service.CategoryInput, *ValidationError) {
	budgeted, err := decimal.NewFromString(req.BudgetedAmount)
	if err != nil {
		return nil, &ValidationError{Field: "budgetedAmount", Message: "Must be a valid decimal number"}
	}

	input := &service.CategoryInput{
		Name:            req.Name,
		BudgetedAmount:  budgeted,
		IsFutureExpense: req.IsFutureExpense,
		IsTransfer:      req.IsTransfer,
	}

	if req.TargetDate != nil && *req.TargetDate != "" {
		parsed, err := time.Parse("2006-01-02", *req.TargetDate)
		if err != nil {
			return nil, &ValidationError{Field: "targetDate", Message: "Must be in YYYY-MM-DD format"}
		}
		input.TargetDate = &parsed
	}

	if req.TargetAmount != nil && *req.TargetAmount != "" {
		parsed, err := decimal.NewFromString(*req.TargetAmount)
		if err != nil {
			return nil, &ValidationError{Field: "targetAmount", Message: "Must be a valid decimal number"}
		}
		input.TargetAmount = &parsed
	}

	return input, nil
}

// categoryErrorResponse maps known domain errors to problem responses. The
// boolean reports whether the error was handled; the write result from
// c.JSON cannot carry that signal because it is nil on success.
func categoryErrorResponse(c echo.Context, err error) (error, bool) {
	switch {
	case errors.Is(err, domain.ErrCategoryNotFound):
		return NewNotFoundError(c, "Category not found"), true
	case errors.Is(err, domain.ErrBudgetNotFound):
		return NewNotFoundError(c, "Budget not found"), true
	case errors.Is(err, domain.ErrNameRequired):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "name", Message: "Name is required"},
		}), true
	case errors.Is(err, domain.ErrNameTooLong):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "name", Message: "Name must be 100 characters or less"},
		}), true
	case errors.Is(err, domain.ErrInvalidAmount):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "budgetedAmount", Message: "Must not be negative"},
		}), true
	case errors.Is(err, domain.ErrTargetDateRequired):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "targetDate", Message: "Target date is required for a future expense"},
		}), true
	}
	return nil, false
}

// CreateCategory handles POST /api/v1/budgets/:id/categories
func (h *CategoryHandler) CreateCategory(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	budgetID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid budget ID", nil)
	}

	var req CategoryRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	input, fieldErr := parseCategoryRequest(req)
	if fieldErr != nil {
		return NewValidationError(c, "Invalid "+fieldErr.Field, []ValidationError{*fieldErr})
	}

	category, err := h.categoryService.CreateCategory(workspaceID, int32(budgetID), *input)
	if err != nil {
		if resp, handled := categoryErrorResponse(c, err); handled {
			return resp
		}
		log.Error().Err(err).Int32("workspace_id", workspaceID).Int("budget_id", budgetID).Msg("Failed to create category")
		return NewInternalError(c, "Failed to create category")
	}

	log.Info().Int32("workspace_id", workspaceID).Int32("category_id", category.ID).Str("name", category.Name).Msg("Category created")
	return c.JSON(http.StatusCreated, toCategoryResponse(category))
}

// GetCategories handles GET /api/v1/budgets/:id/categories
func (h *CategoryHandler) GetCategories(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	budgetID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid budget ID", nil)
	}

	categories, err := h.categoryService.GetCategories(workspaceID, int32(budgetID))
	if err != nil {
		if errors.Is(err, domain.ErrBudgetNotFound) {
			return NewNotFoundError(c, "Budget not found")
		}
		log.Error().Err(err).Int32("workspace_id", workspaceID).Int("budget_id", budgetID).Msg("Failed to get categories")
		return NewInternalError(c, "Failed to get categories")
	}

	response := make([]CategoryResponse, len(categories))
	for i, category := range categories {
		response[i] = toCategoryResponse(category)
	}
	return c.JSON(http.StatusOK, response)
}

// GetCategory handles GET /api/v1/categories/:id
func (h *CategoryHandler) GetCategory(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid category ID", nil)
	}

	category, err := h.categoryService.GetCategoryByID(workspaceID, int32(id))
	if err != nil {
		if errors.Is(err, domain.ErrCategoryNotFound) {
			return NewNotFoundError(c, "Category not found")
		}
		log.Error().Err(err).Int32("workspace_id", workspaceID).Int("category_id", id).Msg("Failed to get category")
		return NewInternalError(c, "Failed to get category")
	}

	return c.JSON(http.StatusOK, toCategoryResponse(category))
}

// UpdateCategory handles PUT /api/v1/categories/:id
func (h *CategoryHandler) UpdateCategory(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid category ID", nil)
	}

	var req CategoryRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	input, fieldErr := parseCategoryRequest(req)
	if fieldErr != nil {
		return NewValidationError(c, "Invalid "+fieldErr.Field, []ValidationError{*fieldErr})
	}

	category, err := h.categoryService.UpdateCategory(workspaceID, int32(id), *input)
	if err != nil {
		if resp, handled := categoryErrorResponse(c, err); handled {
			return resp
		}
		log.Error().Err(err).Int32("workspace_id", workspaceID).Int("category_id", id).Msg("Failed to update category")
		return NewInternalError(c, "Failed to update category")
	}

	log.Info().Int32("workspace_id", workspaceID).Int32("category_id", category.ID).Msg("Category updated")
	return c.JSON(http.StatusOK, toCategoryResponse(category))
}

// DeleteCategoryResponse reports how many transactions lost their category
type DeleteCategoryResponse struct {
	DetachedTransactions int64 `json:"detachedTransactions"`
}

// DeleteCategory handles DELETE /api/v1/categories/:id
func (h *CategoryHandler) DeleteCategory(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid category ID", nil)
	}

	detached, err := h.categoryService.DeleteCategory(workspaceID, int32(id))
	if err != nil {
		if errors.Is(err, domain.ErrCategoryNotFound) {
			return NewNotFoundError(c, "Category not found")
		}
		log.Error().Err(err).Int32("workspace_id", workspaceID).Int("category_id", id).Msg("Failed to delete category")
		return NewInternalError(c, "Failed to delete category")
	}

	log.Info().Int32("workspace_id", workspaceID).Int("category_id", id).Int64("detached", detached).Msg("Category deleted")
	return c.JSON(http.StatusOK, DeleteCategoryResponse{DetachedTransactions: detached})
}

// GetCategorySummaries handles GET /api/v1/budgets/:id/categories/summary
func (h *CategoryHandler) GetCategorySummaries(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	budgetID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid budget ID", nil)
	}

	summaries, err := h.summaryService.GetCategorySummaries(workspaceID, int32(budgetID))
	if err != nil {
		if errors.Is(err, domain.ErrBudgetNotFound) {
			return NewNotFoundError(c, "Budget not found")
		}
		log.Error().Err(err).Int32("workspace_id", workspaceID).Int("budget_id", budgetID).Msg("Failed to get category summaries")
		return NewInternalError(c, "Failed to get category summaries")
	}

	response := make([]CategorySummaryResponse, len(summaries))
	for i, summary := range summaries {
		response[i] = CategorySummaryResponse{
			Category:  toCategoryResponse(summary.Category),
			Spent:     summary.Spent.StringFixed(2),
			Available: summary.Available.StringFixed(2),
		}
	}
	return c.JSON(http.StatusOK, response)
}

// GetSpendingSummary handles GET /api/v1/budgets/:id/spending-summary
func (h *CategoryHandler) GetSpendingSummary(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	budgetID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid budget ID", nil)
	}

	items, err := h.summaryService.GetSpendingSummary(workspaceID, int32(budgetID))
	if err != nil {
		if errors.Is(err, domain.ErrBudgetNotFound) {
			return NewNotFoundError(c, "Budget not found")
		}
		log.Error().Err(err).Int32("workspace_id", workspaceID).Int("budget_id", budgetID).Msg("Failed to get spending summary")
		return NewInternalError(c, "Failed to get spending summary")
	}

	response := make([]SpendingSummaryItemResponse, len(items))
	for i, item := range items {
		response[i] = SpendingSummaryItemResponse{
			CategoryID:     item.CategoryID,
			Name:           item.Name,
			BudgetedAmount: item.BudgetedAmount.StringFixed(2),
			Spent:          item.Spent.StringFixed(2),
			Remaining:      item.Remaining.StringFixed(2),
			Percentage:     item.Percentage.StringFixed(2),
		}
	}
	return c.JSON(http.StatusOK, response)
}

func toCategoryResponse(category *domain.Category) CategoryResponse {
	resp := CategoryResponse{
		ID:              category.ID,
		BudgetID:        category.BudgetID,
		Name:            category.Name,
		BudgetedAmount:  category.BudgetedAmount.StringFixed(2),
		IsFutureExpense: category.IsFutureExpense,
		IsTransfer:      category.IsTransfer,
		CreatedAt:       category.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       category.UpdatedAt.Format(time.RFC3339),
	}
	if category.TargetDate != nil {
		targetDate := category.TargetDate.Format("2006-01-02")
		resp.TargetDate = &targetDate
	}
	if category.TargetAmount != nil {
		targetAmount := category.TargetAmount.StringFixed(2)
		resp.TargetAmount = &targetAmount
	}
	return resp
}
