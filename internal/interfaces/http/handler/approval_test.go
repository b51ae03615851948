package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	approvalapp "github.com/Jay1425/ExpensoX/internal/application/approval"
	"github.com/Jay1425/ExpensoX/internal/domain/approval"
	"github.com/Jay1425/ExpensoX/internal/domain/expense"
	"github.com/Jay1425/ExpensoX/internal/domain/identity"
	"github.com/Jay1425/ExpensoX/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type approvalHandlerFixture struct {
	expenseRepo  *MockExpenseRepository
	flowRepo     *MockFlowRepository
	ruleRepo     *MockRuleRepository
	decisionRepo *MockDecisionRepository
	userRepo     *MockUserRepository
	eventBus     *MockEventPublisher
	handler      *ApprovalHandler
}

func newApprovalHandlerFixture() *approvalHandlerFixture {
	f := &approvalHandlerFixture{
		expenseRepo:  new(MockExpenseRepository),
		flowRepo:     new(MockFlowRepository),
		ruleRepo:     new(MockRuleRepository),
		decisionRepo: new(MockDecisionRepository),
		userRepo:     new(MockUserRepository),
		eventBus:     new(MockEventPublisher),
	}
	f.eventBus.On("Publish", mock.Anything, mock.Anything).Return(nil).Maybe()
	service := approvalapp.NewService(
		f.expenseRepo, f.flowRepo, f.ruleRepo, f.decisionRepo,
		f.userRepo, approval.NewEngine(), f.eventBus, zap.NewNop(),
	)
	f.handler = NewApprovalHandler(service)
	return f
}

func setupApprovalRouter(f *approvalHandlerFixture, companyID, userID uuid.UUID) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	g := r.Group("/api/v1/approvals")
	g.Use(authContext(companyID, userID, identity.RoleManager))
	{
		g.GET("/pending", f.handler.Pending)
		g.POST("/:id/decide", f.handler.Decide)
	}

	return r
}

// pendingExpenseAtStep returns a submitted expense parked at the given
// flow step, already converted to the company currency.
func pendingExpenseAtStep(t *testing.T, companyID, ownerID uuid.UUID, flowID uuid.UUID, step int) *expense.Expense {
	t.Helper()
	e := testDraftExpense(t, companyID, ownerID)
	e.Status = expense.StatusPending
	e.FlowID = &flowID
	e.CurrentStep = step
	e.ConvertedAmount = e.OriginalAmount
	now := time.Now().Add(-time.Hour)
	e.SubmittedAt = &now
	return e
}

func singleStepFlow(t *testing.T, companyID, approverID uuid.UUID) *approval.Flow {
	t.Helper()
	flow, err := approval.NewFlow(companyID, uuid.New(), "Standard review", []approval.Step{
		{StepNumber: 1, ApproverID: approverID},
	})
	require.NoError(t, err)
	return flow
}

func TestApprovalHandler_Pending_Success(t *testing.T) {
	f := newApprovalHandlerFixture()
	companyID := uuid.New()
	approverID := uuid.New()
	ownerID := uuid.New()
	e := pendingExpenseAtStep(t, companyID, ownerID, uuid.New(), 1)

	f.expenseRepo.On("FindPendingForApprover", mock.Anything, companyID, approverID, mock.MatchedBy(func(filter expense.Filter) bool {
		return filter.SortBy == "submitted_at" && filter.SortOrder == "asc"
	})).Return([]*expense.Expense{e}, int64(1), nil)

	router := setupApprovalRouter(f, companyID, approverID)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/approvals/pending", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, int64(1), resp.Meta.Total)

	items, ok := resp.Data.([]any)
	require.True(t, ok)
	require.Len(t, items, 1)
	item := items[0].(map[string]any)
	assert.Equal(t, e.ExpenseNumber, item["expense_number"])
	assert.Equal(t, "42.5", item["amount"])
	assert.Equal(t, string(expense.StatusPending), item["status"])
	assert.Equal(t, float64(1), item["current_step"])

	f.expenseRepo.AssertExpectations(t)
}

func TestApprovalHandler_Decide_ApproveFinalStep(t *testing.T) {
	f := newApprovalHandlerFixture()
	companyID := uuid.New()
	approverID := uuid.New()
	ownerID := uuid.New()
	flow := singleStepFlow(t, companyID, approverID)
	e := pendingExpenseAtStep(t, companyID, ownerID, flow.ID, 1)

	f.expenseRepo.On("FindByIDForCompany", mock.Anything, companyID, e.ID).Return(e, nil)
	f.flowRepo.On("FindByIDForCompany", mock.Anything, companyID, flow.ID).Return(flow, nil)
	f.decisionRepo.On("HasDecisionAtStep", mock.Anything, e.ID, approverID, 1).Return(false, nil)
	f.decisionRepo.On("Create", mock.Anything, mock.AnythingOfType("*approval.Decision")).Return(nil)
	f.ruleRepo.On("FindByFlow", mock.Anything, companyID, flow.ID).Return([]*approval.Rule{}, nil)
	f.decisionRepo.On("FindByExpense", mock.Anything, e.ID).Return([]*approval.Decision{}, nil)
	f.expenseRepo.On("Update", mock.Anything, mock.AnythingOfType("*expense.Expense")).Return(nil)

	router := setupApprovalRouter(f, companyID, approverID)
	body, _ := json.Marshal(DecideRequest{Decision: "APPROVE", Comment: "Looks good"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/approvals/"+e.ID.String()+"/decide", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.True(t, resp.Success)
	data := resp.Data.(map[string]any)
	assert.Equal(t, string(expense.StatusApproved), data["status"])
	assert.Equal(t, e.ExpenseNumber, data["expense_number"])
	decision := data["decision"].(map[string]any)
	assert.Equal(t, string(approval.DecisionApproved), decision["status"])
	assert.Equal(t, approverID.String(), decision["approver_id"])

	f.expenseRepo.AssertExpectations(t)
	f.decisionRepo.AssertExpectations(t)
}

func TestApprovalHandler_Decide_Reject(t *testing.T) {
	f := newApprovalHandlerFixture()
	companyID := uuid.New()
	approverID := uuid.New()
	ownerID := uuid.New()
	flow := singleStepFlow(t, companyID, approverID)
	e := pendingExpenseAtStep(t, companyID, ownerID, flow.ID, 1)

	f.expenseRepo.On("FindByIDForCompany", mock.Anything, companyID, e.ID).Return(e, nil)
	f.flowRepo.On("FindByIDForCompany", mock.Anything, companyID, flow.ID).Return(flow, nil)
	f.decisionRepo.On("HasDecisionAtStep", mock.Anything, e.ID, approverID, 1).Return(false, nil)
	f.decisionRepo.On("Create", mock.Anything, mock.AnythingOfType("*approval.Decision")).Return(nil)
	f.expenseRepo.On("Update", mock.Anything, mock.AnythingOfType("*expense.Expense")).Return(nil)

	router := setupApprovalRouter(f, companyID, approverID)
	body, _ := json.Marshal(DecideRequest{Decision: "REJECT", Comment: "Missing receipt"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/approvals/"+e.ID.String()+"/decide", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.True(t, resp.Success)
	data := resp.Data.(map[string]any)
	assert.Equal(t, string(expense.StatusRejected), data["status"])
	decision := data["decision"].(map[string]any)
	assert.Equal(t, string(approval.DecisionRejected), decision["status"])
	assert.Equal(t, "Missing receipt", decision["comment"])

	f.ruleRepo.AssertNotCalled(t, "FindByFlow", mock.Anything, mock.Anything, mock.Anything)
	f.expenseRepo.AssertExpectations(t)
	f.decisionRepo.AssertExpectations(t)
}

func TestApprovalHandler_Decide_NotCurrentApprover(t *testing.T) {
	f := newApprovalHandlerFixture()
	companyID := uuid.New()
	approverID := uuid.New()
	ownerID := uuid.New()
	flow := singleStepFlow(t, companyID, uuid.New())
	e := pendingExpenseAtStep(t, companyID, ownerID, flow.ID, 1)

	f.expenseRepo.On("FindByIDForCompany", mock.Anything, companyID, e.ID).Return(e, nil)
	f.flowRepo.On("FindByIDForCompany", mock.Anything, companyID, flow.ID).Return(flow, nil)

	router := setupApprovalRouter(f, companyID, approverID)
	body, _ := json.Marshal(DecideRequest{Decision: "APPROVE"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/approvals/"+e.ID.String()+"/decide", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "DECISION_CONFLICT", resp.Error.Code)

	f.decisionRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestApprovalHandler_Decide_NotDecidable(t *testing.T) {
	f := newApprovalHandlerFixture()
	companyID := uuid.New()
	approverID := uuid.New()
	e := testDraftExpense(t, companyID, uuid.New())

	f.expenseRepo.On("FindByIDForCompany", mock.Anything, companyID, e.ID).Return(e, nil)

	router := setupApprovalRouter(f, companyID, approverID)
	body, _ := json.Marshal(DecideRequest{Decision: "APPROVE"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/approvals/"+e.ID.String()+"/decide", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, "INVALID_STATE", resp.Error.Code)
}

func TestApprovalHandler_Decide_InvalidDecisionValue(t *testing.T) {
	f := newApprovalHandlerFixture()
	companyID := uuid.New()
	approverID := uuid.New()

	router := setupApprovalRouter(f, companyID, approverID)
	body, _ := json.Marshal(map[string]string{"decision": "MAYBE"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/approvals/"+uuid.New().String()+"/decide", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	f.expenseRepo.AssertNotCalled(t, "FindByIDForCompany", mock.Anything, mock.Anything, mock.Anything)
}

func TestApprovalHandler_Decide_InvalidExpenseID(t *testing.T) {
	f := newApprovalHandlerFixture()

	router := setupApprovalRouter(f, uuid.New(), uuid.New())
	body, _ := json.Marshal(DecideRequest{Decision: "APPROVE"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/approvals/not-a-uuid/decide", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
