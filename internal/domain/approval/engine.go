package approval

import (
	"github.com/Jay1425/ExpensoX/internal/domain/expense"
	"github.com/Jay1425/ExpensoX/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Verdict is the engine's instruction after a decision is recorded
type Verdict int

const (
	// VerdictAdvance moves the expense to NextStep and waits
	VerdictAdvance Verdict = iota
	// VerdictApproved finishes routing with an approval
	VerdictApproved
	// VerdictRejected finishes routing with a rejection
	VerdictRejected
)

// Result carries the verdict plus the step to advance to and which
// rule, if any, fired.
type Result struct {
	Verdict   Verdict
	NextStep  int
	FiredRule *Rule
}

// Engine evaluates approval routing. It is a pure domain service: the
// application layer loads the flow, its rules and the decision history
// and persists whatever the engine tells it to.
type Engine struct{}

// NewEngine creates an approval engine
func NewEngine() *Engine {
	return &Engine{}
}

// CurrentApproverFor returns who must act on the expense right now.
// A nil flow is legal for the manager-only pre-step.
func (e *Engine) CurrentApproverFor(exp *expense.Expense, flow *Flow) (uuid.UUID, error) {
	if !exp.Status.CanDecide() {
		return uuid.Nil, shared.NewDomainError("INVALID_STATE", "Expense is not awaiting a decision")
	}
	if exp.AwaitingManagerApproval() {
		return *exp.ManagerApproverID, nil
	}
	if flow == nil {
		return uuid.Nil, shared.NewDomainError("NO_FLOW", "Expense has no flow step to act on")
	}
	step, ok := flow.StepAt(exp.CurrentStep)
	if !ok {
		return uuid.Nil, shared.NewDomainError("INVALID_STEP", "Expense points past the end of its flow")
	}
	return step.ApproverID, nil
}

// AfterApproval decides what happens once an approval was recorded at
// the expense's current step.
//
// Rules are checked first: a SPECIFIC rule fires when its approver has
// approved at any step, a PERCENTAGE rule when the share of approved
// flow steps reaches the threshold, and a HYBRID rule when either
// holds. If no rule fires, routing advances to the next step; past the
// last step the expense is approved.
func (e *Engine) AfterApproval(exp *expense.Expense, flow *Flow, rules []*Rule, decisions []*Decision) Result {
	// Manager pre-step done: enter the flow, or approve when there is none
	if exp.AwaitingManagerApproval() {
		if flow == nil || flow.TotalSteps() == 0 {
			return Result{Verdict: VerdictApproved}
		}
		return Result{Verdict: VerdictAdvance, NextStep: 1}
	}

	if flow == nil || flow.TotalSteps() == 0 {
		// Nothing left to consult
		return Result{Verdict: VerdictApproved}
	}

	if rule := e.firedRule(flow, rules, decisions); rule != nil {
		return Result{Verdict: VerdictApproved, FiredRule: rule}
	}

	if next, ok := flow.NextStepAfter(exp.CurrentStep); ok {
		return Result{Verdict: VerdictAdvance, NextStep: next.StepNumber}
	}

	// Last step approved without a rule firing
	return Result{Verdict: VerdictApproved}
}

// AfterRejection decides what happens once a rejection was recorded.
// Any rejection ends the routing.
func (e *Engine) AfterRejection() Result {
	return Result{Verdict: VerdictRejected}
}

// firedRule returns the first rule satisfied by the decision history
func (e *Engine) firedRule(flow *Flow, rules []*Rule, decisions []*Decision) *Rule {
	for _, rule := range rules {
		if rule.UsesSpecificApprover() && e.specificSatisfied(rule, decisions) {
			return rule
		}
		if rule.UsesPercentage() && e.percentageSatisfied(rule, flow, decisions) {
			return rule
		}
	}
	return nil
}

func (e *Engine) specificSatisfied(rule *Rule, decisions []*Decision) bool {
	if rule.SpecificApproverID == nil {
		return false
	}
	for _, d := range decisions {
		if d.Status == DecisionApproved && d.ApproverID == *rule.SpecificApproverID {
			return true
		}
	}
	return false
}

// percentageSatisfied compares approved flow steps against the total
// step count. The manager pre-step (step 0) does not count toward the
// percentage.
func (e *Engine) percentageSatisfied(rule *Rule, flow *Flow, decisions []*Decision) bool {
	if rule.PercentageThreshold == nil || flow.TotalSteps() == 0 {
		return false
	}

	approvedSteps := make(map[int]bool)
	for _, d := range decisions {
		if d.Status == DecisionApproved && d.StepNumber >= 1 {
			approvedSteps[d.StepNumber] = true
		}
	}

	share := decimal.NewFromInt(int64(len(approvedSteps))).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(int64(flow.TotalSteps())))

	return share.GreaterThanOrEqual(*rule.PercentageThreshold)
}
