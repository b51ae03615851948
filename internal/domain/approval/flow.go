package approval

import (
	"sort"
	"strings"
	"time"

	"github.com/Jay1425/ExpensoX/internal/domain/shared"
	"github.com/google/uuid"
)

// Step is one ordered stop in an approval flow. Step numbers are
// 1-based and dense; step 0 is reserved for the manager pre-approval.
type Step struct {
	StepNumber int       `json:"step_number"`
	ApproverID uuid.UUID `json:"approver_id"`
}

// Flow is an ordered chain of approvers an expense travels through.
// A company can mark at most one flow as its default.
type Flow struct {
	shared.CompanyAggregateRoot
	Name      string
	IsDefault bool
	Steps     []Step
}

// NewFlow creates a new approval flow
func NewFlow(companyID, createdBy uuid.UUID, name string, steps []Step) (*Flow, error) {
	if err := validateFlowName(name); err != nil {
		return nil, err
	}
	normalized, err := normalizeSteps(steps)
	if err != nil {
		return nil, err
	}

	flow := &Flow{
		CompanyAggregateRoot: shared.NewCompanyAggregateRootWithCreator(companyID, createdBy),
		Name:                 strings.TrimSpace(name),
		Steps:                normalized,
	}

	flow.AddDomainEvent(NewFlowCreatedEvent(flow))

	return flow, nil
}

// Update replaces the flow's name and steps
func (f *Flow) Update(name string, steps []Step) error {
	if err := validateFlowName(name); err != nil {
		return err
	}
	normalized, err := normalizeSteps(steps)
	if err != nil {
		return err
	}

	f.Name = strings.TrimSpace(name)
	f.Steps = normalized
	f.UpdatedAt = time.Now()
	f.IncrementVersion()

	f.AddDomainEvent(NewFlowUpdatedEvent(f))

	return nil
}

// SetDefault marks or unmarks the flow as the company default. The
// application layer clears the previous default first.
func (f *Flow) SetDefault(isDefault bool) {
	if f.IsDefault == isDefault {
		return
	}
	f.IsDefault = isDefault
	f.UpdatedAt = time.Now()
	f.IncrementVersion()

	if isDefault {
		f.AddDomainEvent(NewFlowDefaultSetEvent(f))
	}
}

// StepAt returns the step with the given number, or false
func (f *Flow) StepAt(stepNumber int) (Step, bool) {
	for _, s := range f.Steps {
		if s.StepNumber == stepNumber {
			return s, true
		}
	}
	return Step{}, false
}

// NextStepAfter returns the first step past the given number, or false
// when the flow is exhausted
func (f *Flow) NextStepAfter(stepNumber int) (Step, bool) {
	for _, s := range f.Steps {
		if s.StepNumber > stepNumber {
			return s, true
		}
	}
	return Step{}, false
}

// HasApprover returns true if the user approves any step of the flow
func (f *Flow) HasApprover(userID uuid.UUID) bool {
	for _, s := range f.Steps {
		if s.ApproverID == userID {
			return true
		}
	}
	return false
}

// TotalSteps returns the number of steps in the flow
func (f *Flow) TotalSteps() int {
	return len(f.Steps)
}

func validateFlowName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Flow name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewDomainError("INVALID_NAME", "Flow name cannot exceed 200 characters")
	}
	return nil
}

// normalizeSteps validates the step set and returns it sorted by step
// number. Steps must be 1-based, unique and dense.
func normalizeSteps(steps []Step) ([]Step, error) {
	if len(steps) == 0 {
		return nil, shared.NewDomainError("INVALID_STEPS", "Flow needs at least one step")
	}

	sorted := make([]Step, len(steps))
	copy(sorted, steps)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].StepNumber < sorted[j].StepNumber })

	seen := make(map[uuid.UUID]bool, len(sorted))
	for i, s := range sorted {
		if s.StepNumber != i+1 {
			return nil, shared.NewDomainError("INVALID_STEPS", "Step numbers must start at 1 and increase without gaps")
		}
		if s.ApproverID == uuid.Nil {
			return nil, shared.NewDomainError("INVALID_STEPS", "Every step needs an approver")
		}
		if seen[s.ApproverID] {
			return nil, shared.NewDomainError("INVALID_STEPS", "An approver cannot hold two steps in the same flow")
		}
		seen[s.ApproverID] = true
	}

	return sorted, nil
}
