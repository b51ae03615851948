package approval

import (
	"context"

	"github.com/google/uuid"
)

// FlowRepository defines the interface for approval flow persistence
type FlowRepository interface {
	// Create creates a new flow
	Create(ctx context.Context, flow *Flow) error

	// Update updates an existing flow
	Update(ctx context.Context, flow *Flow) error

	// Delete removes a flow scoped to a company
	Delete(ctx context.Context, companyID, id uuid.UUID) error

	// FindByIDForCompany finds a flow by ID scoped to a company
	FindByIDForCompany(ctx context.Context, companyID, id uuid.UUID) (*Flow, error)

	// FindAllForCompany returns every flow of a company
	FindAllForCompany(ctx context.Context, companyID uuid.UUID) ([]*Flow, error)

	// FindDefault returns the company's default flow, or nil when none
	// is marked
	FindDefault(ctx context.Context, companyID uuid.UUID) (*Flow, error)

	// ClearDefault unmarks any default flow of the company
	ClearDefault(ctx context.Context, companyID uuid.UUID) error
}

// RuleRepository defines the interface for approval rule persistence
type RuleRepository interface {
	// Create creates a new rule
	Create(ctx context.Context, rule *Rule) error

	// Update updates an existing rule
	Update(ctx context.Context, rule *Rule) error

	// Delete removes a rule scoped to a company
	Delete(ctx context.Context, companyID, id uuid.UUID) error

	// FindByIDForCompany finds a rule by ID scoped to a company
	FindByIDForCompany(ctx context.Context, companyID, id uuid.UUID) (*Rule, error)

	// FindByFlow returns the rules attached to a flow
	FindByFlow(ctx context.Context, companyID, flowID uuid.UUID) ([]*Rule, error)
}

// DecisionRepository defines the interface for decision persistence.
// Decisions are append-only.
type DecisionRepository interface {
	// Create stores a decision
	Create(ctx context.Context, decision *Decision) error

	// FindByExpense returns the full decision history of an expense,
	// ordered by step then acted-at
	FindByExpense(ctx context.Context, companyID, expenseID uuid.UUID) ([]*Decision, error)

	// HasDecisionAtStep reports whether the approver already acted on
	// the expense at the given step
	HasDecisionAtStep(ctx context.Context, expenseID, approverID uuid.UUID, stepNumber int) (bool, error)

	// Delete removes a decision. Only used to compensate when the
	// expense transition the decision belongs to could not be applied;
	// settled history is never deleted.
	Delete(ctx context.Context, id uuid.UUID) error
}
