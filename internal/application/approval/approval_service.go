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

// Service routes submitted expenses through their approval chain. It
// loads whatever the engine needs, records decisions and persists the
// outcome the engine dictates.
type Service struct {
	expenseRepo  expense.Repository
	flowRepo     approval.FlowRepository
	ruleRepo     approval.RuleRepository
	decisionRepo approval.DecisionRepository
	userRepo     identity.UserRepository
	engine       *approval.Engine
	eventBus     shared.EventPublisher
	logger       *zap.Logger
}

// NewService creates a new approval service
func NewService(
	expenseRepo expense.Repository,
	flowRepo approval.FlowRepository,
	ruleRepo approval.RuleRepository,
	decisionRepo approval.DecisionRepository,
	userRepo identity.UserRepository,
	engine *approval.Engine,
	eventBus shared.EventPublisher,
	logger *zap.Logger,
) *Service {
	return &Service{
		expenseRepo:  expenseRepo,
		flowRepo:     flowRepo,
		ruleRepo:     ruleRepo,
		decisionRepo: decisionRepo,
		userRepo:     userRepo,
		engine:       engine,
		eventBus:     eventBus,
		logger:       logger,
	}
}

// Decide records an approval or rejection at the expense's current
// step. Only the approver the routing currently points at may act;
// anyone else, or a repeat decision, gets a conflict error.
func (s *Service) Decide(ctx context.Context, input DecideInput) (*DecisionResult, error) {
	e, err := s.expenseRepo.FindByIDForCompany(ctx, input.CompanyID, input.ExpenseID)
	if err != nil {
		return nil, shared.NewDomainError("EXPENSE_NOT_FOUND", "Expense not found")
	}
	if !e.Status.CanDecide() {
		return nil, shared.NewDomainError("INVALID_STATE", "Expense is not awaiting a decision")
	}

	flow, err := s.loadFlow(ctx, e)
	if err != nil {
		return nil, err
	}

	currentApprover, err := s.engine.CurrentApproverFor(e, flow)
	if err != nil {
		return nil, err
	}
	if currentApprover != input.ApproverID {
		return nil, shared.NewDomainError("DECISION_CONFLICT", "Expense is not waiting on your decision")
	}

	acted, err := s.decisionRepo.HasDecisionAtStep(ctx, e.ID, input.ApproverID, e.CurrentStep)
	if err != nil {
		s.logger.Error("Failed to check decision history", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to record decision")
	}
	if acted {
		return nil, shared.NewDomainError("DECISION_CONFLICT", "You already decided on this expense at this step")
	}

	status := approval.DecisionRejected
	if input.Approve {
		status = approval.DecisionApproved
	}
	decision, err := approval.NewDecision(input.CompanyID, e.ID, input.ApproverID, e.CurrentStep, status, input.Comment)
	if err != nil {
		return nil, err
	}
	if err := s.decisionRepo.Create(ctx, decision); err != nil {
		s.logger.Error("Failed to persist decision", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to record decision")
	}

	var result approval.Result
	if input.Approve {
		rules, decisions, err := s.loadRulesAndHistory(ctx, e, flow)
		if err != nil {
			s.discardDecision(ctx, decision)
			return nil, err
		}
		result = s.engine.AfterApproval(e, flow, rules, decisions)
	} else {
		result = s.engine.AfterRejection()
	}

	if err := s.applyVerdict(e, result, input.ApproverID, input.Comment); err != nil {
		s.discardDecision(ctx, decision)
		return nil, err
	}

	if err := s.expenseRepo.Update(ctx, e); err != nil {
		s.logger.Error("Failed to update expense after decision", zap.Error(err))
		s.discardDecision(ctx, decision)
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to apply decision")
	}

	s.publishEvents(ctx, e)
	s.publishDecisionEvent(ctx, decision)

	s.logger.Info("Decision recorded",
		zap.String("expense_id", e.ID.String()),
		zap.String("approver_id", input.ApproverID.String()),
		zap.String("decision", string(status)),
		zap.String("status", string(e.Status)))

	return s.decisionResult(e, result, decision), nil
}

// Override lets an admin force an outcome outside the normal chain.
// The escalated decision stays in the history.
func (s *Service) Override(ctx context.Context, input OverrideInput) (*DecisionResult, error) {
	admin, err := s.userRepo.FindByIDForCompany(ctx, input.CompanyID, input.AdminID)
	if err != nil {
		return nil, shared.NewDomainError("USER_NOT_FOUND", "User not found")
	}
	if admin.Role != identity.RoleAdmin {
		return nil, shared.NewDomainError("FORBIDDEN", "Only admins can override approvals")
	}

	e, err := s.expenseRepo.FindByIDForCompany(ctx, input.CompanyID, input.ExpenseID)
	if err != nil {
		return nil, shared.NewDomainError("EXPENSE_NOT_FOUND", "Expense not found")
	}
	if !e.Status.CanDecide() {
		return nil, shared.NewDomainError("INVALID_STATE", "Expense is not awaiting a decision")
	}

	decision, err := approval.NewDecision(input.CompanyID, e.ID, input.AdminID, e.CurrentStep, approval.DecisionEscalated, input.Comment)
	if err != nil {
		return nil, err
	}
	if err := s.decisionRepo.Create(ctx, decision); err != nil {
		s.logger.Error("Failed to persist override decision", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to record override")
	}

	if input.Approve {
		err = e.FinalizeApproved(input.AdminID)
	} else {
		err = e.FinalizeRejected(input.AdminID, input.Comment)
	}
	if err != nil {
		s.discardDecision(ctx, decision)
		return nil, err
	}

	if err := s.expenseRepo.Update(ctx, e); err != nil {
		s.logger.Error("Failed to update expense after override", zap.Error(err))
		s.discardDecision(ctx, decision)
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to apply override")
	}

	s.publishEvents(ctx, e)
	s.publishDecisionEvent(ctx, decision)

	s.logger.Warn("Approval overridden",
		zap.String("expense_id", e.ID.String()),
		zap.String("admin_id", input.AdminID.String()),
		zap.Bool("approved", input.Approve))

	return s.decisionResult(e, approval.Result{}, decision), nil
}

// Pending returns the expenses currently waiting on the approver
func (s *Service) Pending(ctx context.Context, input PendingInput) (*PendingResult, error) {
	filter := expense.NewFilter()
	if input.Page > 0 {
		filter.Page = input.Page
	}
	if input.PageSize > 0 {
		filter.PageSize = input.PageSize
	}
	filter.SortBy = "submitted_at"
	filter.SortOrder = "asc"

	expenses, total, err := s.expenseRepo.FindPendingForApprover(ctx, input.CompanyID, input.ApproverID, filter)
	if err != nil {
		s.logger.Error("Failed to list pending expenses", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to list pending approvals")
	}

	items := make([]PendingItem, len(expenses))
	for i, e := range expenses {
		items[i] = PendingItem{
			ExpenseID:     e.ID,
			ExpenseNumber: e.ExpenseNumber,
			OwnerID:       e.OwnerID,
			Category:      e.Category,
			Description:   e.Description,
			ConvertedStr:  e.ConvertedAmount.String(),
			Status:        e.Status,
			CurrentStep:   e.CurrentStep,
			SubmittedAt:   e.SubmittedAt,
		}
	}

	return &PendingResult{
		Items:      items,
		TotalCount: total,
		Page:       filter.Page,
		PageSize:   filter.PageSize,
	}, nil
}

// History returns the full decision trail of an expense
func (s *Service) History(ctx context.Context, companyID, expenseID uuid.UUID) ([]DecisionInfo, error) {
	if _, err := s.expenseRepo.FindByIDForCompany(ctx, companyID, expenseID); err != nil {
		return nil, shared.NewDomainError("EXPENSE_NOT_FOUND", "Expense not found")
	}

	decisions, err := s.decisionRepo.FindByExpense(ctx, companyID, expenseID)
	if err != nil {
		s.logger.Error("Failed to load decision history", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to load decision history")
	}

	infos := make([]DecisionInfo, len(decisions))
	for i, d := range decisions {
		infos[i] = NewDecisionInfo(d)
	}
	return infos, nil
}

// discardDecision removes a decision whose expense transition failed.
// Leaving it behind would trip the repeat-decision guard on retry and
// skew percentage-rule counts while the expense still sits at the step.
func (s *Service) discardDecision(ctx context.Context, decision *approval.Decision) {
	if err := s.decisionRepo.Delete(ctx, decision.ID); err != nil {
		s.logger.Error("Failed to discard decision after aborted transition",
			zap.String("decision_id", decision.ID.String()),
			zap.String("expense_id", decision.ExpenseID.String()),
			zap.Error(err))
	}
}

func (s *Service) loadFlow(ctx context.Context, e *expense.Expense) (*approval.Flow, error) {
	if e.FlowID == nil {
		return nil, nil
	}
	flow, err := s.flowRepo.FindByIDForCompany(ctx, e.CompanyID, *e.FlowID)
	if err != nil {
		s.logger.Error("Failed to load flow for routing",
			zap.String("flow_id", e.FlowID.String()),
			zap.Error(err))
		return nil, shared.NewDomainError("FLOW_NOT_FOUND", "Approval flow not found")
	}
	return flow, nil
}

func (s *Service) loadRulesAndHistory(ctx context.Context, e *expense.Expense, flow *approval.Flow) ([]*approval.Rule, []*approval.Decision, error) {
	var rules []*approval.Rule
	if flow != nil {
		var err error
		rules, err = s.ruleRepo.FindByFlow(ctx, e.CompanyID, flow.ID)
		if err != nil {
			s.logger.Error("Failed to load rules", zap.Error(err))
			return nil, nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to evaluate approval rules")
		}
	}

	decisions, err := s.decisionRepo.FindByExpense(ctx, e.CompanyID, e.ID)
	if err != nil {
		s.logger.Error("Failed to load decision history", zap.Error(err))
		return nil, nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to evaluate approval rules")
	}
	return rules, decisions, nil
}

func (s *Service) applyVerdict(e *expense.Expense, result approval.Result, actorID uuid.UUID, comment string) error {
	switch result.Verdict {
	case approval.VerdictAdvance:
		return e.AdvanceToStep(result.NextStep)
	case approval.VerdictApproved:
		return e.FinalizeApproved(actorID)
	case approval.VerdictRejected:
		return e.FinalizeRejected(actorID, comment)
	default:
		return shared.NewDomainError("INTERNAL_ERROR", "Unknown routing verdict")
	}
}

func (s *Service) decisionResult(e *expense.Expense, result approval.Result, decision *approval.Decision) *DecisionResult {
	res := &DecisionResult{
		ExpenseID:     e.ID,
		ExpenseNumber: e.ExpenseNumber,
		Status:        e.Status,
		CurrentStep:   e.CurrentStep,
		Decision:      NewDecisionInfo(decision),
	}
	if result.FiredRule != nil {
		res.FiredRuleID = &result.FiredRule.ID
	}
	return res
}

func (s *Service) publishEvents(ctx context.Context, e *expense.Expense) {
	events := e.GetDomainEvents()
	if s.eventBus == nil || len(events) == 0 {
		return
	}
	if err := s.eventBus.Publish(ctx, events...); err != nil {
		s.logger.Error("Failed to publish domain events", zap.Error(err))
	}
	e.ClearDomainEvents()
}

func (s *Service) publishDecisionEvent(ctx context.Context, decision *approval.Decision) {
	if s.eventBus == nil {
		return
	}
	if err := s.eventBus.Publish(ctx, approval.NewDecisionRecordedEvent(decision)); err != nil {
		s.logger.Error("Failed to publish decision event", zap.Error(err))
	}
}
