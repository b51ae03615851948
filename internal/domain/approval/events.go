package approval

import (
	"github.com/Jay1425/ExpensoX/internal/domain/shared"
	"github.com/google/uuid"
)

// Aggregate type constants
const (
	AggregateTypeFlow     = "ApprovalFlow"
	AggregateTypeRule     = "ApprovalRule"
	AggregateTypeDecision = "ApprovalDecision"
)

// Approval domain event types
const (
	EventTypeFlowCreated      = "ApprovalFlowCreated"
	EventTypeFlowUpdated      = "ApprovalFlowUpdated"
	EventTypeFlowDefaultSet   = "ApprovalFlowDefaultSet"
	EventTypeRuleCreated      = "ApprovalRuleCreated"
	EventTypeDecisionRecorded = "ApprovalDecisionRecorded"
)

// FlowCreatedEvent is published when a flow is created
type FlowCreatedEvent struct {
	shared.BaseDomainEvent
	Name  string `json:"name"`
	Steps int    `json:"steps"`
}

// NewFlowCreatedEvent creates a new FlowCreatedEvent
func NewFlowCreatedEvent(flow *Flow) *FlowCreatedEvent {
	return &FlowCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeFlowCreated, AggregateTypeFlow, flow.ID, flow.CompanyID),
		Name:            flow.Name,
		Steps:           flow.TotalSteps(),
	}
}

// FlowUpdatedEvent is published when a flow's steps or name change
type FlowUpdatedEvent struct {
	shared.BaseDomainEvent
	Name  string `json:"name"`
	Steps int    `json:"steps"`
}

// NewFlowUpdatedEvent creates a new FlowUpdatedEvent
func NewFlowUpdatedEvent(flow *Flow) *FlowUpdatedEvent {
	return &FlowUpdatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeFlowUpdated, AggregateTypeFlow, flow.ID, flow.CompanyID),
		Name:            flow.Name,
		Steps:           flow.TotalSteps(),
	}
}

// FlowDefaultSetEvent is published when a flow becomes the default
type FlowDefaultSetEvent struct {
	shared.BaseDomainEvent
	Name string `json:"name"`
}

// NewFlowDefaultSetEvent creates a new FlowDefaultSetEvent
func NewFlowDefaultSetEvent(flow *Flow) *FlowDefaultSetEvent {
	return &FlowDefaultSetEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeFlowDefaultSet, AggregateTypeFlow, flow.ID, flow.CompanyID),
		Name:            flow.Name,
	}
}

// DecisionRecordedEvent is published when an approver's verdict lands
// in the decision history, including admin overrides.
type DecisionRecordedEvent struct {
	shared.BaseDomainEvent
	ExpenseID  uuid.UUID      `json:"expense_id"`
	ApproverID uuid.UUID      `json:"approver_id"`
	StepNumber int            `json:"step_number"`
	Status     DecisionStatus `json:"status"`
}

// NewDecisionRecordedEvent creates a new DecisionRecordedEvent
func NewDecisionRecordedEvent(d *Decision) *DecisionRecordedEvent {
	return &DecisionRecordedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDecisionRecorded, AggregateTypeDecision, d.ID, d.CompanyID),
		ExpenseID:       d.ExpenseID,
		ApproverID:      d.ApproverID,
		StepNumber:      d.StepNumber,
		Status:          d.Status,
	}
}

// RuleCreatedEvent is published when a rule is attached to a flow
type RuleCreatedEvent struct {
	shared.BaseDomainEvent
	FlowID   uuid.UUID `json:"flow_id"`
	RuleType RuleType  `json:"rule_type"`
}

// NewRuleCreatedEvent creates a new RuleCreatedEvent
func NewRuleCreatedEvent(rule *Rule) *RuleCreatedEvent {
	return &RuleCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeRuleCreated, AggregateTypeRule, rule.ID, rule.CompanyID),
		FlowID:          rule.FlowID,
		RuleType:        rule.RuleType,
	}
}
