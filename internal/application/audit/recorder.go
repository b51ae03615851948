package audit

import (
	"context"

	"github.com/Jay1425/ExpensoX/internal/domain/approval"
	"github.com/Jay1425/ExpensoX/internal/domain/audit"
	"github.com/Jay1425/ExpensoX/internal/domain/expense"
	"github.com/Jay1425/ExpensoX/internal/domain/identity"
	"github.com/Jay1425/ExpensoX/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Recorder subscribes to the event bus and turns domain events into
// audit log entries. Events it does not know are ignored, so new event
// types never break the trail.
type Recorder struct {
	auditRepo audit.Repository
	logger    *zap.Logger
}

// NewRecorder creates an audit recorder
func NewRecorder(auditRepo audit.Repository, logger *zap.Logger) *Recorder {
	return &Recorder{
		auditRepo: auditRepo,
		logger:    logger,
	}
}

// EventTypes returns an empty slice: the recorder listens to every event
func (r *Recorder) EventTypes() []string {
	return nil
}

// Handle writes one audit entry for the event
func (r *Recorder) Handle(ctx context.Context, event shared.DomainEvent) error {
	action, actorID, details := r.classify(event)
	if action == "" {
		return nil
	}

	entry, err := audit.NewLog(
		event.CompanyID(),
		actorID,
		action,
		event.AggregateType(),
		event.AggregateID(),
		details,
		event.OccurredAt(),
	)
	if err != nil {
		r.logger.Error("Failed to build audit entry",
			zap.String("event_type", event.EventType()),
			zap.Error(err))
		return err
	}

	if err := r.auditRepo.Create(ctx, entry); err != nil {
		r.logger.Error("Failed to persist audit entry",
			zap.String("event_type", event.EventType()),
			zap.String("aggregate_id", event.AggregateID().String()),
			zap.Error(err))
		return err
	}

	return nil
}

// classify maps a domain event to an audit action, the acting user and
// the details worth keeping. An empty action means the event is not
// audited.
func (r *Recorder) classify(event shared.DomainEvent) (audit.Action, *uuid.UUID, map[string]any) {
	switch e := event.(type) {
	case *expense.ExpenseCreatedEvent:
		return audit.ActionCreated, &e.OwnerID, map[string]any{
			"expense_number": e.ExpenseNumber,
			"category":       string(e.Category),
			"amount":         e.Amount,
			"currency":       e.Currency,
		}
	case *expense.ExpenseSubmittedEvent:
		details := map[string]any{
			"expense_number":   e.ExpenseNumber,
			"converted_amount": e.ConvertedAmount,
			"currency":         e.Currency,
		}
		if e.FlowID != nil {
			details["flow_id"] = e.FlowID.String()
		}
		return audit.ActionSubmitted, &e.OwnerID, details
	case *expense.ExpenseApprovedEvent:
		return audit.ActionApproved, e.ApprovedBy, map[string]any{
			"expense_number": e.ExpenseNumber,
		}
	case *expense.ExpenseRejectedEvent:
		return audit.ActionRejected, e.RejectedBy, map[string]any{
			"expense_number": e.ExpenseNumber,
			"reason":         e.Reason,
		}
	case *expense.ExpensePaidEvent:
		return audit.ActionPaid, e.PaidBy, map[string]any{
			"expense_number": e.ExpenseNumber,
		}
	case *expense.ExpenseCancelledEvent:
		return audit.ActionCancelled, &e.OwnerID, map[string]any{
			"expense_number": e.ExpenseNumber,
			"reason":         e.Reason,
		}

	case *identity.UserCreatedEvent:
		return audit.ActionCreated, nil, map[string]any{
			"email": e.Email,
			"role":  string(e.Role),
		}
	case *identity.UserEmailVerifiedEvent:
		return audit.ActionUpdated, nil, map[string]any{
			"email":          e.Email,
			"email_verified": true,
		}
	case *identity.UserPasswordChangedEvent:
		return audit.ActionUpdated, nil, map[string]any{
			"email":            e.Email,
			"password_changed": true,
		}
	case *identity.UserRoleChangedEvent:
		return audit.ActionUpdated, nil, map[string]any{
			"email":    e.Email,
			"old_role": string(e.OldRole),
			"new_role": string(e.NewRole),
		}
	case *identity.UserManagerAssignedEvent:
		return audit.ActionUpdated, nil, map[string]any{
			"email":      e.Email,
			"manager_id": e.ManagerID.String(),
		}
	case *identity.UserStatusChangedEvent:
		return audit.ActionStatusChanged, nil, map[string]any{
			"email":      e.Email,
			"old_status": string(e.OldStatus),
			"new_status": string(e.NewStatus),
		}
	case *identity.UserLoggedInEvent:
		actorID := e.AggregateID()
		return audit.ActionLoggedIn, &actorID, map[string]any{
			"email": e.Email,
			"ip":    e.IP,
		}

	case *identity.CompanyCreatedEvent:
		return audit.ActionCreated, nil, map[string]any{
			"name":     e.Name,
			"country":  e.Country,
			"currency": string(e.CurrencyCode),
		}
	case *identity.CompanyUpdatedEvent:
		return audit.ActionUpdated, nil, map[string]any{
			"name": e.Name,
		}
	case *identity.CompanyStatusChangedEvent:
		return audit.ActionStatusChanged, nil, map[string]any{
			"name":       e.Name,
			"old_status": string(e.OldStatus),
			"new_status": string(e.NewStatus),
		}

	case *approval.FlowCreatedEvent:
		return audit.ActionCreated, nil, map[string]any{
			"name":  e.Name,
			"steps": e.Steps,
		}
	case *approval.FlowUpdatedEvent:
		return audit.ActionUpdated, nil, map[string]any{
			"name":  e.Name,
			"steps": e.Steps,
		}
	case *approval.FlowDefaultSetEvent:
		return audit.ActionUpdated, nil, map[string]any{
			"name":    e.Name,
			"default": true,
		}
	case *approval.RuleCreatedEvent:
		return audit.ActionCreated, nil, map[string]any{
			"flow_id":   e.FlowID.String(),
			"rule_type": string(e.RuleType),
		}
	}

	return "", nil, nil
}
