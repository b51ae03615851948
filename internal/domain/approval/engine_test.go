package approval

import (
	"testing"
	"time"

	"github.com/Jay1425/ExpensoX/internal/domain/expense"
	"github.com/Jay1425/ExpensoX/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pendingExpense(t *testing.T, flowID, managerID *uuid.UUID) *expense.Expense {
	t.Helper()
	amount, err := valueobject.NewMoneyFromString("250", valueobject.USD)
	require.NoError(t, err)

	e, err := expense.NewExpense(uuid.New(), uuid.New(), "EXP-202601-0001", expense.CategoryTravel, amount, "Conference travel", time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	require.NoError(t, e.Submit(amount, decimal.NewFromInt(1), flowID, managerID))
	return e
}

func threeStepFlow(t *testing.T, approvers ...uuid.UUID) *Flow {
	t.Helper()
	steps := make([]Step, len(approvers))
	for i, a := range approvers {
		steps[i] = Step{StepNumber: i + 1, ApproverID: a}
	}
	flow, err := NewFlow(uuid.New(), uuid.New(), "chain", steps)
	require.NoError(t, err)
	return flow
}

func approvedAt(expenseID, approverID uuid.UUID, step int) *Decision {
	d, _ := NewDecision(uuid.New(), expenseID, approverID, step, DecisionApproved, "")
	return d
}

func TestEngine_CurrentApproverFor(t *testing.T) {
	engine := NewEngine()

	t.Run("manager pre-step points at the manager", func(t *testing.T) {
		managerID := uuid.New()
		e := pendingExpense(t, nil, &managerID)

		got, err := engine.CurrentApproverFor(e, nil)
		require.NoError(t, err)
		assert.Equal(t, managerID, got)
	})

	t.Run("flow step points at the step approver", func(t *testing.T) {
		a, b := uuid.New(), uuid.New()
		flow := threeStepFlow(t, a, b)
		flowID := flow.ID
		e := pendingExpense(t, &flowID, nil)

		got, err := engine.CurrentApproverFor(e, flow)
		require.NoError(t, err)
		assert.Equal(t, a, got)

		require.NoError(t, e.AdvanceToStep(2))
		got, err = engine.CurrentApproverFor(e, flow)
		require.NoError(t, err)
		assert.Equal(t, b, got)
	})

	t.Run("errors on decided expense", func(t *testing.T) {
		e := pendingExpense(t, nil, nil)
		require.NoError(t, e.FinalizeApproved(uuid.New()))
		_, err := engine.CurrentApproverFor(e, nil)
		assert.Error(t, err)
	})

	t.Run("errors past the end of the flow", func(t *testing.T) {
		flow := threeStepFlow(t, uuid.New())
		flowID := flow.ID
		e := pendingExpense(t, &flowID, nil)
		require.NoError(t, e.AdvanceToStep(2))

		_, err := engine.CurrentApproverFor(e, flow)
		assert.Error(t, err)
	})
}

func TestEngine_AfterApproval_NoRules(t *testing.T) {
	engine := NewEngine()

	t.Run("advances through every step then approves", func(t *testing.T) {
		a, b, c := uuid.New(), uuid.New(), uuid.New()
		flow := threeStepFlow(t, a, b, c)
		flowID := flow.ID
		e := pendingExpense(t, &flowID, nil)

		res := engine.AfterApproval(e, flow, nil, []*Decision{approvedAt(e.ID, a, 1)})
		assert.Equal(t, VerdictAdvance, res.Verdict)
		assert.Equal(t, 2, res.NextStep)
		require.NoError(t, e.AdvanceToStep(res.NextStep))

		res = engine.AfterApproval(e, flow, nil, []*Decision{approvedAt(e.ID, a, 1), approvedAt(e.ID, b, 2)})
		assert.Equal(t, VerdictAdvance, res.Verdict)
		assert.Equal(t, 3, res.NextStep)
		require.NoError(t, e.AdvanceToStep(res.NextStep))

		res = engine.AfterApproval(e, flow, nil, []*Decision{approvedAt(e.ID, a, 1), approvedAt(e.ID, b, 2), approvedAt(e.ID, c, 3)})
		assert.Equal(t, VerdictApproved, res.Verdict)
		assert.Nil(t, res.FiredRule)
	})

	t.Run("manager pre-step enters the flow", func(t *testing.T) {
		managerID := uuid.New()
		flow := threeStepFlow(t, uuid.New(), uuid.New())
		flowID := flow.ID
		e := pendingExpense(t, &flowID, &managerID)

		res := engine.AfterApproval(e, flow, nil, []*Decision{approvedAt(e.ID, managerID, 0)})
		assert.Equal(t, VerdictAdvance, res.Verdict)
		assert.Equal(t, 1, res.NextStep)
	})

	t.Run("manager-only approval finishes routing", func(t *testing.T) {
		managerID := uuid.New()
		e := pendingExpense(t, nil, &managerID)

		res := engine.AfterApproval(e, nil, nil, []*Decision{approvedAt(e.ID, managerID, 0)})
		assert.Equal(t, VerdictApproved, res.Verdict)
	})

	t.Run("no flow at all approves immediately", func(t *testing.T) {
		e := pendingExpense(t, nil, nil)
		res := engine.AfterApproval(e, nil, nil, nil)
		assert.Equal(t, VerdictApproved, res.Verdict)
	})
}

func TestEngine_AfterApproval_PercentageRule(t *testing.T) {
	engine := NewEngine()
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	flow := threeStepFlow(t, a, b, c)
	flowID := flow.ID

	rule, err := NewRule(flow.CompanyID, uuid.New(), flow.ID, RuleTypePercentage, decPtr(60), nil)
	require.NoError(t, err)

	t.Run("fires once the share reaches the threshold", func(t *testing.T) {
		e := pendingExpense(t, &flowID, nil)

		// 1 of 3 steps approved: 33% < 60%, keep going
		res := engine.AfterApproval(e, flow, []*Rule{rule}, []*Decision{approvedAt(e.ID, a, 1)})
		assert.Equal(t, VerdictAdvance, res.Verdict)
		require.NoError(t, e.AdvanceToStep(2))

		// 2 of 3 steps approved: 66% >= 60%, approve without step 3
		res = engine.AfterApproval(e, flow, []*Rule{rule}, []*Decision{approvedAt(e.ID, a, 1), approvedAt(e.ID, b, 2)})
		assert.Equal(t, VerdictApproved, res.Verdict)
		assert.Equal(t, rule, res.FiredRule)
	})

	t.Run("manager pre-step approval does not count", func(t *testing.T) {
		managerID := uuid.New()
		twoStep := threeStepFlow(t, a, b)
		id := twoStep.ID
		e := pendingExpense(t, &id, &managerID)
		halfRule, err := NewRule(twoStep.CompanyID, uuid.New(), twoStep.ID, RuleTypePercentage, decPtr(50), nil)
		require.NoError(t, err)

		// Manager approved at step 0; the flow itself is untouched
		res := engine.AfterApproval(e, twoStep, []*Rule{halfRule}, []*Decision{approvedAt(e.ID, managerID, 0)})
		assert.Equal(t, VerdictAdvance, res.Verdict)
		assert.Equal(t, 1, res.NextStep)
	})
}

func TestEngine_AfterApproval_SpecificRule(t *testing.T) {
	engine := NewEngine()
	a, cfo, c := uuid.New(), uuid.New(), uuid.New()
	flow := threeStepFlow(t, a, cfo, c)
	flowID := flow.ID

	rule, err := NewRule(flow.CompanyID, uuid.New(), flow.ID, RuleTypeSpecific, nil, &cfo)
	require.NoError(t, err)

	t.Run("named approver approving ends routing", func(t *testing.T) {
		e := pendingExpense(t, &flowID, nil)
		require.NoError(t, e.AdvanceToStep(2))

		decisions := []*Decision{approvedAt(e.ID, a, 1), approvedAt(e.ID, cfo, 2)}
		res := engine.AfterApproval(e, flow, []*Rule{rule}, decisions)
		assert.Equal(t, VerdictApproved, res.Verdict)
		assert.Equal(t, rule, res.FiredRule)
	})

	t.Run("other approvers do not fire the rule", func(t *testing.T) {
		e := pendingExpense(t, &flowID, nil)

		res := engine.AfterApproval(e, flow, []*Rule{rule}, []*Decision{approvedAt(e.ID, a, 1)})
		assert.Equal(t, VerdictAdvance, res.Verdict)
	})
}

func TestEngine_AfterApproval_HybridRule(t *testing.T) {
	engine := NewEngine()
	a, b, c, d := uuid.New(), uuid.New(), uuid.New(), uuid.New()
	cfo := uuid.New()
	steps := []Step{
		{StepNumber: 1, ApproverID: a},
		{StepNumber: 2, ApproverID: b},
		{StepNumber: 3, ApproverID: c},
		{StepNumber: 4, ApproverID: d},
	}
	flow, err := NewFlow(uuid.New(), uuid.New(), "long chain", steps)
	require.NoError(t, err)
	flowID := flow.ID

	rule, err := NewRule(flow.CompanyID, uuid.New(), flow.ID, RuleTypeHybrid, decPtr(75), &cfo)
	require.NoError(t, err)

	t.Run("fires on the percentage leg", func(t *testing.T) {
		e := pendingExpense(t, &flowID, nil)
		require.NoError(t, e.AdvanceToStep(3))

		decisions := []*Decision{approvedAt(e.ID, a, 1), approvedAt(e.ID, b, 2), approvedAt(e.ID, c, 3)}
		res := engine.AfterApproval(e, flow, []*Rule{rule}, decisions)
		assert.Equal(t, VerdictApproved, res.Verdict) // 3/4 = 75%
	})

	t.Run("fires on the specific leg", func(t *testing.T) {
		e := pendingExpense(t, &flowID, nil)

		// CFO is not a step approver here but approved via override path
		decisions := []*Decision{approvedAt(e.ID, cfo, 1)}
		res := engine.AfterApproval(e, flow, []*Rule{rule}, decisions)
		assert.Equal(t, VerdictApproved, res.Verdict)
	})

	t.Run("neither leg keeps routing", func(t *testing.T) {
		e := pendingExpense(t, &flowID, nil)

		res := engine.AfterApproval(e, flow, []*Rule{rule}, []*Decision{approvedAt(e.ID, a, 1)})
		assert.Equal(t, VerdictAdvance, res.Verdict)
		assert.Equal(t, 2, res.NextStep)
	})
}

func TestEngine_AfterRejection(t *testing.T) {
	engine := NewEngine()
	res := engine.AfterRejection()
	assert.Equal(t, VerdictRejected, res.Verdict)
}
