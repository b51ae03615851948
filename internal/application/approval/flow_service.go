package approval

import (
	"context"

	"github.com/Jay1425/ExpensoX/internal/domain/approval"
	"github.com/Jay1425/ExpensoX/internal/domain/expense"
	"github.com/Jay1425/ExpensoX/internal/domain/identity"
	"github.com/Jay1425/ExpensoX/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// FlowService administers approval flows
type FlowService struct {
	flowRepo    approval.FlowRepository
	ruleRepo    approval.RuleRepository
	expenseRepo expense.Repository
	userRepo    identity.UserRepository
	eventBus    shared.EventPublisher
	logger      *zap.Logger
}

// NewFlowService creates a new flow service
func NewFlowService(
	flowRepo approval.FlowRepository,
	ruleRepo approval.RuleRepository,
	expenseRepo expense.Repository,
	userRepo identity.UserRepository,
	eventBus shared.EventPublisher,
	logger *zap.Logger,
) *FlowService {
	return &FlowService{
		flowRepo:    flowRepo,
		ruleRepo:    ruleRepo,
		expenseRepo: expenseRepo,
		userRepo:    userRepo,
		eventBus:    eventBus,
		logger:      logger,
	}
}

// CreateFlow creates an approval flow after checking every step
// approver can actually approve
func (s *FlowService) CreateFlow(ctx context.Context, input CreateFlowInput) (*FlowInfo, error) {
	steps := make([]approval.Step, len(input.Steps))
	for i, st := range input.Steps {
		steps[i] = approval.Step{StepNumber: st.StepNumber, ApproverID: st.ApproverID}
	}
	if err := s.validateApprovers(ctx, input.CompanyID, steps); err != nil {
		return nil, err
	}

	flow, err := approval.NewFlow(input.CompanyID, input.CreatedBy, input.Name, steps)
	if err != nil {
		return nil, err
	}

	if input.IsDefault {
		if err := s.flowRepo.ClearDefault(ctx, input.CompanyID); err != nil {
			s.logger.Error("Failed to clear default flow", zap.Error(err))
			return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to set default flow")
		}
		flow.SetDefault(true)
	}

	if err := s.flowRepo.Create(ctx, flow); err != nil {
		s.logger.Error("Failed to persist flow", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to create flow")
	}

	s.publishEvents(ctx, flow)

	s.logger.Info("Approval flow created",
		zap.String("flow_id", flow.ID.String()),
		zap.String("name", flow.Name),
		zap.Int("steps", flow.TotalSteps()))

	info := NewFlowInfo(flow)
	return &info, nil
}

// UpdateFlow replaces a flow's name and steps
func (s *FlowService) UpdateFlow(ctx context.Context, input UpdateFlowInput) (*FlowInfo, error) {
	flow, err := s.flowRepo.FindByIDForCompany(ctx, input.CompanyID, input.FlowID)
	if err != nil {
		return nil, shared.NewDomainError("FLOW_NOT_FOUND", "Approval flow not found")
	}

	steps := make([]approval.Step, len(input.Steps))
	for i, st := range input.Steps {
		steps[i] = approval.Step{StepNumber: st.StepNumber, ApproverID: st.ApproverID}
	}
	if err := s.validateApprovers(ctx, input.CompanyID, steps); err != nil {
		return nil, err
	}

	if err := flow.Update(input.Name, steps); err != nil {
		return nil, err
	}
	if err := s.flowRepo.Update(ctx, flow); err != nil {
		s.logger.Error("Failed to update flow", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to update flow")
	}

	s.publishEvents(ctx, flow)

	info := NewFlowInfo(flow)
	return &info, nil
}

// DeleteFlow removes a flow and its rules. Flows still routing live
// expenses cannot be deleted.
func (s *FlowService) DeleteFlow(ctx context.Context, companyID, flowID uuid.UUID) error {
	if _, err := s.flowRepo.FindByIDForCompany(ctx, companyID, flowID); err != nil {
		return shared.NewDomainError("FLOW_NOT_FOUND", "Approval flow not found")
	}

	active, err := s.expenseRepo.CountActiveByFlow(ctx, companyID, flowID)
	if err != nil {
		s.logger.Error("Failed to count active expenses for flow", zap.Error(err))
		return shared.NewDomainError("INTERNAL_ERROR", "Failed to delete flow")
	}
	if active > 0 {
		return shared.NewDomainError("FLOW_IN_USE", "Flow still routes undecided expenses")
	}

	rules, err := s.ruleRepo.FindByFlow(ctx, companyID, flowID)
	if err != nil {
		s.logger.Error("Failed to load rules for flow deletion", zap.Error(err))
		return shared.NewDomainError("INTERNAL_ERROR", "Failed to delete flow")
	}
	for _, rule := range rules {
		if err := s.ruleRepo.Delete(ctx, companyID, rule.ID); err != nil {
			s.logger.Error("Failed to delete rule with flow",
				zap.String("rule_id", rule.ID.String()),
				zap.Error(err))
			return shared.NewDomainError("INTERNAL_ERROR", "Failed to delete flow")
		}
	}

	if err := s.flowRepo.Delete(ctx, companyID, flowID); err != nil {
		s.logger.Error("Failed to delete flow", zap.Error(err))
		return shared.NewDomainError("INTERNAL_ERROR", "Failed to delete flow")
	}

	s.logger.Info("Approval flow deleted", zap.String("flow_id", flowID.String()))
	return nil
}

// GetFlow returns one flow
func (s *FlowService) GetFlow(ctx context.Context, companyID, flowID uuid.UUID) (*FlowInfo, error) {
	flow, err := s.flowRepo.FindByIDForCompany(ctx, companyID, flowID)
	if err != nil {
		return nil, shared.NewDomainError("FLOW_NOT_FOUND", "Approval flow not found")
	}
	info := NewFlowInfo(flow)
	return &info, nil
}

// ListFlows returns every flow of the company
func (s *FlowService) ListFlows(ctx context.Context, companyID uuid.UUID) ([]FlowInfo, error) {
	flows, err := s.flowRepo.FindAllForCompany(ctx, companyID)
	if err != nil {
		s.logger.Error("Failed to list flows", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to list flows")
	}

	infos := make([]FlowInfo, len(flows))
	for i, f := range flows {
		infos[i] = NewFlowInfo(f)
	}
	return infos, nil
}

// SetDefaultFlow marks a flow as the company default, unmarking any
// previous one
func (s *FlowService) SetDefaultFlow(ctx context.Context, companyID, flowID uuid.UUID) (*FlowInfo, error) {
	flow, err := s.flowRepo.FindByIDForCompany(ctx, companyID, flowID)
	if err != nil {
		return nil, shared.NewDomainError("FLOW_NOT_FOUND", "Approval flow not found")
	}

	if err := s.flowRepo.ClearDefault(ctx, companyID); err != nil {
		s.logger.Error("Failed to clear default flow", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to set default flow")
	}

	flow.SetDefault(true)
	if err := s.flowRepo.Update(ctx, flow); err != nil {
		s.logger.Error("Failed to persist default flow", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to set default flow")
	}

	s.publishEvents(ctx, flow)

	info := NewFlowInfo(flow)
	return &info, nil
}

// validateApprovers checks every step approver is an active manager or
// admin of the company
func (s *FlowService) validateApprovers(ctx context.Context, companyID uuid.UUID, steps []approval.Step) error {
	seen := make(map[uuid.UUID]bool, len(steps))
	for _, step := range steps {
		if seen[step.ApproverID] {
			continue
		}
		seen[step.ApproverID] = true

		approver, err := s.userRepo.FindByIDForCompany(ctx, companyID, step.ApproverID)
		if err != nil {
			return shared.NewDomainError("APPROVER_NOT_FOUND", "Step approver not found in this company")
		}
		if !approver.Role.CanApprove() {
			return shared.NewDomainError("INVALID_APPROVER", "Step approvers must hold the MANAGER or ADMIN role")
		}
		if !approver.IsActive() {
			return shared.NewDomainError("INVALID_APPROVER", "Step approvers must be active users")
		}
	}
	return nil
}

func (s *FlowService) publishEvents(ctx context.Context, flow *approval.Flow) {
	events := flow.GetDomainEvents()
	if s.eventBus == nil || len(events) == 0 {
		return
	}
	if err := s.eventBus.Publish(ctx, events...); err != nil {
		s.logger.Error("Failed to publish domain events", zap.Error(err))
	}
	flow.ClearDomainEvents()
}
