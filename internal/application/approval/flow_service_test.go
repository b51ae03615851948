package approval

import (
	"context"
	"errors"
	"testing"

	"github.com/Jay1425/ExpensoX/internal/domain/approval"
	"github.com/Jay1425/ExpensoX/internal/domain/identity"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type flowFixture struct {
	flowRepo    *MockFlowRepository
	ruleRepo    *MockRuleRepository
	expenseRepo *MockExpenseRepository
	userRepo    *MockUserRepository
	eventBus    *MockEventPublisher
	service     *FlowService
}

func newFlowFixture() *flowFixture {
	f := &flowFixture{
		flowRepo:    new(MockFlowRepository),
		ruleRepo:    new(MockRuleRepository),
		expenseRepo: new(MockExpenseRepository),
		userRepo:    new(MockUserRepository),
		eventBus:    new(MockEventPublisher),
	}
	f.eventBus.On("Publish", mock.Anything, mock.Anything).Return(nil).Maybe()
	f.service = NewFlowService(f.flowRepo, f.ruleRepo, f.expenseRepo, f.userRepo, f.eventBus, zap.NewNop())
	return f
}

func TestFlowService_CreateFlow(t *testing.T) {
	f := newFlowFixture()
	companyID := uuid.New()
	manager := approverUser(t, companyID, identity.RoleManager)
	admin := approverUser(t, companyID, identity.RoleAdmin)

	f.userRepo.On("FindByIDForCompany", mock.Anything, companyID, manager.ID).Return(manager, nil)
	f.userRepo.On("FindByIDForCompany", mock.Anything, companyID, admin.ID).Return(admin, nil)
	f.flowRepo.On("Create", mock.Anything, mock.AnythingOfType("*approval.Flow")).Return(nil)

	info, err := f.service.CreateFlow(context.Background(), CreateFlowInput{
		CompanyID: companyID,
		CreatedBy: admin.ID,
		Name:      "Finance review",
		Steps: []StepInput{
			{StepNumber: 1, ApproverID: manager.ID},
			{StepNumber: 2, ApproverID: admin.ID},
		},
	})

	require.NoError(t, err)
	assert.Equal(t, "Finance review", info.Name)
	assert.False(t, info.IsDefault)
	require.Len(t, info.Steps, 2)
	assert.Equal(t, manager.ID, info.Steps[0].ApproverID)
	f.flowRepo.AssertNotCalled(t, "ClearDefault", mock.Anything, mock.Anything)
}

func TestFlowService_CreateFlow_DefaultClearsPrevious(t *testing.T) {
	f := newFlowFixture()
	companyID := uuid.New()
	admin := approverUser(t, companyID, identity.RoleAdmin)

	f.userRepo.On("FindByIDForCompany", mock.Anything, companyID, admin.ID).Return(admin, nil)
	f.flowRepo.On("ClearDefault", mock.Anything, companyID).Return(nil)
	f.flowRepo.On("Create", mock.Anything, mock.MatchedBy(func(flow *approval.Flow) bool {
		return flow.IsDefault
	})).Return(nil)

	info, err := f.service.CreateFlow(context.Background(), CreateFlowInput{
		CompanyID: companyID,
		CreatedBy: admin.ID,
		Name:      "Default chain",
		Steps:     []StepInput{{StepNumber: 1, ApproverID: admin.ID}},
		IsDefault: true,
	})

	require.NoError(t, err)
	assert.True(t, info.IsDefault)
	f.flowRepo.AssertExpectations(t)
}

func TestFlowService_CreateFlow_EmployeeApproverRejected(t *testing.T) {
	f := newFlowFixture()
	companyID := uuid.New()
	employee := approverUser(t, companyID, identity.RoleEmployee)

	f.userRepo.On("FindByIDForCompany", mock.Anything, companyID, employee.ID).Return(employee, nil)

	_, err := f.service.CreateFlow(context.Background(), CreateFlowInput{
		CompanyID: companyID,
		CreatedBy: uuid.New(),
		Name:      "Finance review",
		Steps:     []StepInput{{StepNumber: 1, ApproverID: employee.ID}},
	})

	assertDomainErrorCode(t, err, "INVALID_APPROVER")
	f.flowRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestFlowService_CreateFlow_DeactivatedApproverRejected(t *testing.T) {
	f := newFlowFixture()
	companyID := uuid.New()
	manager := approverUser(t, companyID, identity.RoleManager)
	require.NoError(t, manager.Deactivate())
	manager.ClearDomainEvents()

	f.userRepo.On("FindByIDForCompany", mock.Anything, companyID, manager.ID).Return(manager, nil)

	_, err := f.service.CreateFlow(context.Background(), CreateFlowInput{
		CompanyID: companyID,
		CreatedBy: uuid.New(),
		Name:      "Finance review",
		Steps:     []StepInput{{StepNumber: 1, ApproverID: manager.ID}},
	})

	assertDomainErrorCode(t, err, "INVALID_APPROVER")
}

func TestFlowService_CreateFlow_UnknownApprover(t *testing.T) {
	f := newFlowFixture()
	companyID := uuid.New()
	strangerID := uuid.New()

	f.userRepo.On("FindByIDForCompany", mock.Anything, companyID, strangerID).
		Return(nil, errors.New("record not found"))

	_, err := f.service.CreateFlow(context.Background(), CreateFlowInput{
		CompanyID: companyID,
		CreatedBy: uuid.New(),
		Name:      "Finance review",
		Steps:     []StepInput{{StepNumber: 1, ApproverID: strangerID}},
	})

	assertDomainErrorCode(t, err, "APPROVER_NOT_FOUND")
}

func TestFlowService_UpdateFlow(t *testing.T) {
	f := newFlowFixture()
	companyID := uuid.New()
	admin := approverUser(t, companyID, identity.RoleAdmin)
	flow := chainFlow(t, companyID, admin.ID)

	f.flowRepo.On("FindByIDForCompany", mock.Anything, companyID, flow.ID).Return(flow, nil)
	f.userRepo.On("FindByIDForCompany", mock.Anything, companyID, admin.ID).Return(admin, nil)
	f.flowRepo.On("Update", mock.Anything, flow).Return(nil)

	info, err := f.service.UpdateFlow(context.Background(), UpdateFlowInput{
		CompanyID: companyID,
		FlowID:    flow.ID,
		Name:      "Executive review",
		Steps:     []StepInput{{StepNumber: 1, ApproverID: admin.ID}},
	})

	require.NoError(t, err)
	assert.Equal(t, "Executive review", info.Name)
}

func TestFlowService_DeleteFlow(t *testing.T) {
	f := newFlowFixture()
	companyID := uuid.New()
	flow := chainFlow(t, companyID, uuid.New())
	rule := specificRule(t, companyID, flow.ID)

	f.flowRepo.On("FindByIDForCompany", mock.Anything, companyID, flow.ID).Return(flow, nil)
	f.expenseRepo.On("CountActiveByFlow", mock.Anything, companyID, flow.ID).Return(int64(0), nil)
	f.ruleRepo.On("FindByFlow", mock.Anything, companyID, flow.ID).Return([]*approval.Rule{rule}, nil)
	f.ruleRepo.On("Delete", mock.Anything, companyID, rule.ID).Return(nil)
	f.flowRepo.On("Delete", mock.Anything, companyID, flow.ID).Return(nil)

	err := f.service.DeleteFlow(context.Background(), companyID, flow.ID)

	require.NoError(t, err)
	f.ruleRepo.AssertExpectations(t)
	f.flowRepo.AssertExpectations(t)
}

func TestFlowService_DeleteFlow_BlockedWhileInUse(t *testing.T) {
	f := newFlowFixture()
	companyID := uuid.New()
	flow := chainFlow(t, companyID, uuid.New())

	f.flowRepo.On("FindByIDForCompany", mock.Anything, companyID, flow.ID).Return(flow, nil)
	f.expenseRepo.On("CountActiveByFlow", mock.Anything, companyID, flow.ID).Return(int64(3), nil)

	err := f.service.DeleteFlow(context.Background(), companyID, flow.ID)

	assertDomainErrorCode(t, err, "FLOW_IN_USE")
	f.flowRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything, mock.Anything)
}

func TestFlowService_SetDefaultFlow(t *testing.T) {
	f := newFlowFixture()
	companyID := uuid.New()
	flow := chainFlow(t, companyID, uuid.New())

	f.flowRepo.On("FindByIDForCompany", mock.Anything, companyID, flow.ID).Return(flow, nil)
	f.flowRepo.On("ClearDefault", mock.Anything, companyID).Return(nil)
	f.flowRepo.On("Update", mock.Anything, flow).Return(nil)

	info, err := f.service.SetDefaultFlow(context.Background(), companyID, flow.ID)

	require.NoError(t, err)
	assert.True(t, info.IsDefault)
	f.flowRepo.AssertExpectations(t)
}

func TestFlowService_ListFlows(t *testing.T) {
	f := newFlowFixture()
	companyID := uuid.New()
	first := chainFlow(t, companyID, uuid.New())
	second := chainFlow(t, companyID, uuid.New(), uuid.New())

	f.flowRepo.On("FindAllForCompany", mock.Anything, companyID).
		Return([]*approval.Flow{first, second}, nil)

	infos, err := f.service.ListFlows(context.Background(), companyID)

	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Len(t, infos[1].Steps, 2)
}

func TestFlowService_GetFlow_NotFound(t *testing.T) {
	f := newFlowFixture()
	companyID := uuid.New()
	flowID := uuid.New()

	f.flowRepo.On("FindByIDForCompany", mock.Anything, companyID, flowID).
		Return(nil, errors.New("record not found"))

	_, err := f.service.GetFlow(context.Background(), companyID, flowID)

	assertDomainErrorCode(t, err, "FLOW_NOT_FOUND")
}
