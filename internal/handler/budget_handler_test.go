package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/centavo/centavo-backend/internal/domain"
	"github.com/centavo/centavo-backend/internal/middleware"
	"github.com/centavo/centavo-backend/internal/service"
	"github.com/centavo/centavo-backend/internal/testutil"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

// setupWorkspaceContext injects an authenticated workspace into the request
// context the way the auth middleware does.
func setupWorkspaceContext(c echo.Context, subject string, workspaceID int32) {
	ctx := context.WithValue(c.Request().Context(), middleware.SubjectKey, subject)
	if workspaceID > 0 {
		ctx = context.WithValue(ctx, middleware.WorkspaceIDKey, workspaceID)
	}
	c.SetRequest(c.Request().WithContext(ctx))
}

func newBudgetHandler() (*BudgetHandler, *testutil.MockBudgetRepository, *testutil.MockTransactionRepository) {
	budgetRepo := testutil.NewMockBudgetRepository()
	transactionRepo := testutil.NewMockTransactionRepository()
	categoryRepo := testutil.NewMockCategoryRepository()
	budgetRepo.TransactionRepo = transactionRepo
	budgetRepo.CategoryRepo = categoryRepo
	budgetService := service.NewBudgetService(budgetRepo)
	summaryService := service.NewSummaryService(budgetRepo, categoryRepo, transactionRepo)
	return NewBudgetHandler(budgetService, summaryService), budgetRepo, transactionRepo
}

func TestCreateBudget_Success(t *testing.T) {
	e := echo.New()
	h, _, _ := newBudgetHandler()

	reqBody := `{"name": "Checking", "initialBalance": "1000.50"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/budgets", strings.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	setupWorkspaceContext(c, "auth0|test", 1)

	if err := h.CreateBudget(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d", rec.Code)
	}

	var response BudgetResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if response.Name != "Checking" {
		t.Errorf("Expected name 'Checking', got %s", response.Name)
	}
	if response.InitialBalance != "1000.50" {
		t.Errorf("Expected initial balance '1000.50', got %s", response.InitialBalance)
	}
}

func TestCreateBudget_MissingWorkspace(t *testing.T) {
	e := echo.New()
	h, _, _ := newBudgetHandler()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/budgets", strings.NewReader(`{"name": "Checking"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.CreateBudget(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", rec.Code)
	}
}

func TestCreateBudget_InvalidInitialBalance(t *testing.T) {
	e := echo.New()
	h, _, _ := newBudgetHandler()

	reqBody := `{"name": "Checking", "initialBalance": "abc"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/budgets", strings.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	setupWorkspaceContext(c, "auth0|test", 1)

	if err := h.CreateBudget(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rec.Code)
	}

	var problem ProblemDetails
	if err := json.Unmarshal(rec.Body.Bytes(), &problem); err != nil {
		t.Fatalf("Failed to unmarshal problem details: %v", err)
	}
	if problem.Type != ErrorTypeValidation {
		t.Errorf("Expected type %s, got %s", ErrorTypeValidation, problem.Type)
	}
}

func TestCreateBudget_EmptyName(t *testing.T) {
	e := echo.New()
	h, _, _ := newBudgetHandler()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/budgets", strings.NewReader(`{"name": "  "}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	setupWorkspaceContext(c, "auth0|test", 1)

	if err := h.CreateBudget(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rec.Code)
	}
}

func TestGetBudget_NotFound(t *testing.T) {
	e := echo.New()
	h, _, _ := newBudgetHandler()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/budgets/999", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("999")
	setupWorkspaceContext(c, "auth0|test", 1)

	if err := h.GetBudget(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", rec.Code)
	}
}

func TestGetBudget_WrongWorkspace(t *testing.T) {
	e := echo.New()
	h, budgetRepo, _ := newBudgetHandler()
	budgetRepo.AddBudget(&domain.Budget{ID: 1, WorkspaceID: 2, Name: "Theirs"})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/budgets/1", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("1")
	setupWorkspaceContext(c, "auth0|test", 1)

	if err := h.GetBudget(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 for cross-workspace access, got %d", rec.Code)
	}
}

func TestDeleteBudget_NotEmpty_Conflict(t *testing.T) {
	e := echo.New()
	h, budgetRepo, transactionRepo := newBudgetHandler()
	budgetRepo.AddBudget(&domain.Budget{ID: 1, WorkspaceID: 1, Name: "Checking"})
	transactionRepo.AddTransaction(&domain.Transaction{
		ID: 1, WorkspaceID: 1, BudgetID: 1,
		Description: "Groceries", Amount: decimal.RequireFromString("10.00"),
	})

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/budgets/1", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("1")
	setupWorkspaceContext(c, "auth0|test", 1)

	if err := h.DeleteBudget(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusConflict {
		t.Errorf("Expected status 409, got %d", rec.Code)
	}

	var problem ProblemDetails
	if err := json.Unmarshal(rec.Body.Bytes(), &problem); err != nil {
		t.Fatalf("Failed to unmarshal problem details: %v", err)
	}
	if problem.Type != ErrorTypeConflict {
		t.Errorf("Expected type %s, got %s", ErrorTypeConflict, problem.Type)
	}
}

func TestDeleteBudget_Empty_NoContent(t *testing.T) {
	e := echo.New()
	h, budgetRepo, _ := newBudgetHandler()
	budgetRepo.AddBudget(&domain.Budget{ID: 1, WorkspaceID: 1, Name: "Checking"})

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/budgets/1", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("1")
	setupWorkspaceContext(c, "auth0|test", 1)

	if err := h.DeleteBudget(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Errorf("Expected status 204, got %d", rec.Code)
	}
}

func TestGetBudgetSummary_Success(t *testing.T) {
	e := echo.New()
	h, budgetRepo, transactionRepo := newBudgetHandler()
	budgetRepo.AddBudget(&domain.Budget{
		ID: 1, WorkspaceID: 1, Name: "Checking",
		Balance: decimal.RequireFromString("150.00"),
	})
	transactionRepo.AddTransaction(&domain.Transaction{
		ID: 1, WorkspaceID: 1, BudgetID: 1, IsIncome: true,
		Amount: decimal.RequireFromString("200.00"),
	})
	transactionRepo.AddTransaction(&domain.Transaction{
		ID: 2, WorkspaceID: 1, BudgetID: 1,
		Amount: decimal.RequireFromString("50.00"),
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/budgets/1/summary", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("1")
	setupWorkspaceContext(c, "auth0|test", 1)

	if err := h.GetBudgetSummary(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}

	var response BudgetSummaryResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if response.TotalIncome != "200.00" {
		t.Errorf("Expected total income '200.00', got %s", response.TotalIncome)
	}
	if response.TotalSpent != "50.00" {
		t.Errorf("Expected total spent '50.00', got %s", response.TotalSpent)
	}
	if response.SpendPercentage != "25.00" {
		t.Errorf("Expected spend percentage '25.00', got %s", response.SpendPercentage)
	}
}

func TestCheckConsistency_ReportsDriftOverHTTP(t *testing.T) {
	e := echo.New()
	h, budgetRepo, _ := newBudgetHandler()
	budgetRepo.AddBudget(&domain.Budget{
		ID: 1, WorkspaceID: 1, Name: "Checking",
		Balance:        decimal.RequireFromString("120.00"),
		InitialBalance: decimal.RequireFromString("100.00"),
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/summaries/consistency", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	setupWorkspaceContext(c, "auth0|test", 1)

	if err := h.CheckConsistency(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}

	var response ConsistencyResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if response.Consistent {
		t.Error("Expected inconsistent report")
	}
	if len(response.Budgets) != 1 {
		t.Fatalf("Expected 1 budget entry, got %d", len(response.Budgets))
	}
	if response.Budgets[0].Drift != "20.00" {
		t.Errorf("Expected drift '20.00', got %s", response.Budgets[0].Drift)
	}
}

func TestGetBudgets_ReturnsWorkspaceBudgets(t *testing.T) {
	e := echo.New()
	h, budgetRepo, _ := newBudgetHandler()
	budgetRepo.AddBudget(&domain.Budget{ID: 1, WorkspaceID: 1, Name: "Checking"})
	budgetRepo.AddBudget(&domain.Budget{ID: 2, WorkspaceID: 2, Name: "Theirs"})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/budgets", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	setupWorkspaceContext(c, "auth0|test", 1)

	if err := h.GetBudgets(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	var response []BudgetResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if len(response) != 1 {
		t.Fatalf("Expected 1 budget, got %d", len(response))
	}
	if response[0].Name != "Checking" {
		t.Errorf("Expected budget 'Checking', got %s", response[0].Name)
	}
}
