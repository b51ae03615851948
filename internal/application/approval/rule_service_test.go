package approval

import (
	"context"
	"errors"
	"testing"

	"github.com/Jay1425/ExpensoX/internal/domain/approval"
	"github.com/Jay1425/ExpensoX/internal/domain/identity"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type ruleFixture struct {
	ruleRepo *MockRuleRepository
	flowRepo *MockFlowRepository
	userRepo *MockUserRepository
	eventBus *MockEventPublisher
	service  *RuleService
}

func newRuleFixture() *ruleFixture {
	f := &ruleFixture{
		ruleRepo: new(MockRuleRepository),
		flowRepo: new(MockFlowRepository),
		userRepo: new(MockUserRepository),
		eventBus: new(MockEventPublisher),
	}
	f.eventBus.On("Publish", mock.Anything, mock.Anything).Return(nil).Maybe()
	f.service = NewRuleService(f.ruleRepo, f.flowRepo, f.userRepo, f.eventBus, zap.NewNop())
	return f
}

func specificRule(t *testing.T, companyID, flowID uuid.UUID) *approval.Rule {
	t.Helper()
	approverID := uuid.New()
	rule, err := approval.NewRule(companyID, uuid.New(), flowID, approval.RuleTypeSpecific, nil, &approverID)
	require.NoError(t, err)
	rule.ClearDomainEvents()
	return rule
}

func TestRuleService_CreateRule_Percentage(t *testing.T) {
	f := newRuleFixture()
	companyID := uuid.New()
	flow := chainFlow(t, companyID, uuid.New(), uuid.New())
	threshold := decimal.NewFromInt(60)

	f.flowRepo.On("FindByIDForCompany", mock.Anything, companyID, flow.ID).Return(flow, nil)
	f.ruleRepo.On("Create", mock.Anything, mock.AnythingOfType("*approval.Rule")).Return(nil)

	info, err := f.service.CreateRule(context.Background(), CreateRuleInput{
		CompanyID:           companyID,
		CreatedBy:           uuid.New(),
		FlowID:              flow.ID,
		RuleType:            approval.RuleTypePercentage,
		PercentageThreshold: &threshold,
	})

	require.NoError(t, err)
	assert.Equal(t, approval.RuleTypePercentage, info.RuleType)
	require.NotNil(t, info.PercentageThreshold)
	assert.True(t, threshold.Equal(*info.PercentageThreshold))
	f.userRepo.AssertNotCalled(t, "FindByIDForCompany", mock.Anything, mock.Anything, mock.Anything)
}

func TestRuleService_CreateRule_SpecificValidatesApprover(t *testing.T) {
	f := newRuleFixture()
	companyID := uuid.New()
	flow := chainFlow(t, companyID, uuid.New())
	employee := approverUser(t, companyID, identity.RoleEmployee)

	f.flowRepo.On("FindByIDForCompany", mock.Anything, companyID, flow.ID).Return(flow, nil)
	f.userRepo.On("FindByIDForCompany", mock.Anything, companyID, employee.ID).Return(employee, nil)

	_, err := f.service.CreateRule(context.Background(), CreateRuleInput{
		CompanyID:          companyID,
		CreatedBy:          uuid.New(),
		FlowID:             flow.ID,
		RuleType:           approval.RuleTypeSpecific,
		SpecificApproverID: &employee.ID,
	})

	assertDomainErrorCode(t, err, "INVALID_APPROVER")
	f.ruleRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestRuleService_CreateRule_FlowNotFound(t *testing.T) {
	f := newRuleFixture()
	companyID := uuid.New()
	flowID := uuid.New()

	f.flowRepo.On("FindByIDForCompany", mock.Anything, companyID, flowID).
		Return(nil, errors.New("record not found"))

	_, err := f.service.CreateRule(context.Background(), CreateRuleInput{
		CompanyID: companyID,
		CreatedBy: uuid.New(),
		FlowID:    flowID,
		RuleType:  approval.RuleTypeSpecific,
	})

	assertDomainErrorCode(t, err, "FLOW_NOT_FOUND")
}

func TestRuleService_UpdateRule(t *testing.T) {
	f := newRuleFixture()
	companyID := uuid.New()
	rule := specificRule(t, companyID, uuid.New())
	admin := approverUser(t, companyID, identity.RoleAdmin)
	threshold := decimal.NewFromInt(75)

	f.ruleRepo.On("FindByIDForCompany", mock.Anything, companyID, rule.ID).Return(rule, nil)
	f.userRepo.On("FindByIDForCompany", mock.Anything, companyID, admin.ID).Return(admin, nil)
	f.ruleRepo.On("Update", mock.Anything, rule).Return(nil)

	info, err := f.service.UpdateRule(context.Background(), UpdateRuleInput{
		CompanyID:           companyID,
		RuleID:              rule.ID,
		RuleType:            approval.RuleTypeHybrid,
		PercentageThreshold: &threshold,
		SpecificApproverID:  &admin.ID,
	})

	require.NoError(t, err)
	assert.Equal(t, approval.RuleTypeHybrid, info.RuleType)
	require.NotNil(t, info.SpecificApproverID)
	assert.Equal(t, admin.ID, *info.SpecificApproverID)
}

func TestRuleService_DeleteRule(t *testing.T) {
	f := newRuleFixture()
	companyID := uuid.New()
	rule := specificRule(t, companyID, uuid.New())

	f.ruleRepo.On("FindByIDForCompany", mock.Anything, companyID, rule.ID).Return(rule, nil)
	f.ruleRepo.On("Delete", mock.Anything, companyID, rule.ID).Return(nil)

	err := f.service.DeleteRule(context.Background(), companyID, rule.ID)

	require.NoError(t, err)
	f.ruleRepo.AssertExpectations(t)
}

func TestRuleService_DeleteRule_NotFound(t *testing.T) {
	f := newRuleFixture()
	companyID := uuid.New()
	ruleID := uuid.New()

	f.ruleRepo.On("FindByIDForCompany", mock.Anything, companyID, ruleID).
		Return(nil, errors.New("record not found"))

	err := f.service.DeleteRule(context.Background(), companyID, ruleID)

	assertDomainErrorCode(t, err, "RULE_NOT_FOUND")
	f.ruleRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything, mock.Anything)
}

func TestRuleService_ListRules(t *testing.T) {
	f := newRuleFixture()
	companyID := uuid.New()
	flow := chainFlow(t, companyID, uuid.New())
	rule := specificRule(t, companyID, flow.ID)

	f.flowRepo.On("FindByIDForCompany", mock.Anything, companyID, flow.ID).Return(flow, nil)
	f.ruleRepo.On("FindByFlow", mock.Anything, companyID, flow.ID).Return([]*approval.Rule{rule}, nil)

	infos, err := f.service.ListRules(context.Background(), companyID, flow.ID)

	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, rule.ID, infos[0].ID)
	assert.Equal(t, flow.ID, infos[0].FlowID)
}
