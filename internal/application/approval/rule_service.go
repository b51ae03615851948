package approval

import (
	"context"

	"github.com/Jay1425/ExpensoX/internal/domain/approval"
	"github.com/Jay1425/ExpensoX/internal/domain/identity"
	"github.com/Jay1425/ExpensoX/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RuleService administers conditional approval rules attached to flows
type RuleService struct {
	ruleRepo approval.RuleRepository
	flowRepo approval.FlowRepository
	userRepo identity.UserRepository
	eventBus shared.EventPublisher
	logger   *zap.Logger
}

// NewRuleService creates a new rule service
func NewRuleService(
	ruleRepo approval.RuleRepository,
	flowRepo approval.FlowRepository,
	userRepo identity.UserRepository,
	eventBus shared.EventPublisher,
	logger *zap.Logger,
) *RuleService {
	return &RuleService{
		ruleRepo: ruleRepo,
		flowRepo: flowRepo,
		userRepo: userRepo,
		eventBus: eventBus,
		logger:   logger,
	}
}

// CreateRule attaches a rule to an existing flow
func (s *RuleService) CreateRule(ctx context.Context, input CreateRuleInput) (*RuleInfo, error) {
	if _, err := s.flowRepo.FindByIDForCompany(ctx, input.CompanyID, input.FlowID); err != nil {
		return nil, shared.NewDomainError("FLOW_NOT_FOUND", "Approval flow not found")
	}

	if input.SpecificApproverID != nil {
		if err := s.validateSpecificApprover(ctx, input.CompanyID, *input.SpecificApproverID); err != nil {
			return nil, err
		}
	}

	rule, err := approval.NewRule(input.CompanyID, input.CreatedBy, input.FlowID,
		input.RuleType, input.PercentageThreshold, input.SpecificApproverID)
	if err != nil {
		return nil, err
	}

	if err := s.ruleRepo.Create(ctx, rule); err != nil {
		s.logger.Error("Failed to persist rule", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to create rule")
	}

	s.publishEvents(ctx, rule)

	s.logger.Info("Approval rule created",
		zap.String("rule_id", rule.ID.String()),
		zap.String("flow_id", rule.FlowID.String()),
		zap.String("type", string(rule.RuleType)))

	info := NewRuleInfo(rule)
	return &info, nil
}

// UpdateRule changes a rule's type and parameters
func (s *RuleService) UpdateRule(ctx context.Context, input UpdateRuleInput) (*RuleInfo, error) {
	rule, err := s.ruleRepo.FindByIDForCompany(ctx, input.CompanyID, input.RuleID)
	if err != nil {
		return nil, shared.NewDomainError("RULE_NOT_FOUND", "Approval rule not found")
	}

	if input.SpecificApproverID != nil {
		if err := s.validateSpecificApprover(ctx, input.CompanyID, *input.SpecificApproverID); err != nil {
			return nil, err
		}
	}

	if err := rule.Update(input.RuleType, input.PercentageThreshold, input.SpecificApproverID); err != nil {
		return nil, err
	}
	if err := s.ruleRepo.Update(ctx, rule); err != nil {
		s.logger.Error("Failed to update rule", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to update rule")
	}

	info := NewRuleInfo(rule)
	return &info, nil
}

// DeleteRule removes a rule
func (s *RuleService) DeleteRule(ctx context.Context, companyID, ruleID uuid.UUID) error {
	if _, err := s.ruleRepo.FindByIDForCompany(ctx, companyID, ruleID); err != nil {
		return shared.NewDomainError("RULE_NOT_FOUND", "Approval rule not found")
	}
	if err := s.ruleRepo.Delete(ctx, companyID, ruleID); err != nil {
		s.logger.Error("Failed to delete rule", zap.Error(err))
		return shared.NewDomainError("INTERNAL_ERROR", "Failed to delete rule")
	}
	s.logger.Info("Approval rule deleted", zap.String("rule_id", ruleID.String()))
	return nil
}

// ListRules returns the rules attached to a flow
func (s *RuleService) ListRules(ctx context.Context, companyID, flowID uuid.UUID) ([]RuleInfo, error) {
	if _, err := s.flowRepo.FindByIDForCompany(ctx, companyID, flowID); err != nil {
		return nil, shared.NewDomainError("FLOW_NOT_FOUND", "Approval flow not found")
	}

	rules, err := s.ruleRepo.FindByFlow(ctx, companyID, flowID)
	if err != nil {
		s.logger.Error("Failed to list rules", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to list rules")
	}

	infos := make([]RuleInfo, len(rules))
	for i, r := range rules {
		infos[i] = NewRuleInfo(r)
	}
	return infos, nil
}

func (s *RuleService) validateSpecificApprover(ctx context.Context, companyID, approverID uuid.UUID) error {
	approver, err := s.userRepo.FindByIDForCompany(ctx, companyID, approverID)
	if err != nil {
		return shared.NewDomainError("APPROVER_NOT_FOUND", "Rule approver not found in this company")
	}
	if !approver.Role.CanApprove() {
		return shared.NewDomainError("INVALID_APPROVER", "Rule approvers must hold the MANAGER or ADMIN role")
	}
	return nil
}

func (s *RuleService) publishEvents(ctx context.Context, rule *approval.Rule) {
	events := rule.GetDomainEvents()
	if s.eventBus == nil || len(events) == 0 {
		return
	}
	if err := s.eventBus.Publish(ctx, events...); err != nil {
		s.logger.Error("Failed to publish domain events", zap.Error(err))
	}
	rule.ClearDomainEvents()
}
