package approval

import (
	"time"

	"github.com/Jay1425/ExpensoX/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RuleType decides how a conditional rule short-circuits a flow
type RuleType string

const (
	// RuleTypePercentage approves once the share of approved steps
	// reaches the threshold
	RuleTypePercentage RuleType = "PERCENTAGE"
	// RuleTypeSpecific approves as soon as one named approver approves
	RuleTypeSpecific RuleType = "SPECIFIC"
	// RuleTypeHybrid approves when either condition holds
	RuleTypeHybrid RuleType = "HYBRID"
)

// IsValid returns true if the rule type is known
func (t RuleType) IsValid() bool {
	switch t {
	case RuleTypePercentage, RuleTypeSpecific, RuleTypeHybrid:
		return true
	}
	return false
}

// Rule is a conditional shortcut attached to a flow. When a rule fires
// the expense is approved immediately, skipping the remaining steps.
type Rule struct {
	shared.CompanyAggregateRoot
	FlowID              uuid.UUID
	RuleType            RuleType
	PercentageThreshold *decimal.Decimal // 0 < t <= 100, required for PERCENTAGE and HYBRID
	SpecificApproverID  *uuid.UUID       // required for SPECIFIC and HYBRID
}

// NewRule creates a new approval rule bound to a flow
func NewRule(companyID, createdBy, flowID uuid.UUID, ruleType RuleType, threshold *decimal.Decimal, specificApproverID *uuid.UUID) (*Rule, error) {
	if flowID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_FLOW", "Rule must reference a flow")
	}
	if err := validateRule(ruleType, threshold, specificApproverID); err != nil {
		return nil, err
	}

	rule := &Rule{
		CompanyAggregateRoot: shared.NewCompanyAggregateRootWithCreator(companyID, createdBy),
		FlowID:               flowID,
		RuleType:             ruleType,
		PercentageThreshold:  threshold,
		SpecificApproverID:   specificApproverID,
	}

	rule.AddDomainEvent(NewRuleCreatedEvent(rule))

	return rule, nil
}

// Update replaces the rule's condition
func (r *Rule) Update(ruleType RuleType, threshold *decimal.Decimal, specificApproverID *uuid.UUID) error {
	if err := validateRule(ruleType, threshold, specificApproverID); err != nil {
		return err
	}

	r.RuleType = ruleType
	r.PercentageThreshold = threshold
	r.SpecificApproverID = specificApproverID
	r.UpdatedAt = time.Now()
	r.IncrementVersion()

	return nil
}

// UsesPercentage returns true if the rule carries a percentage condition
func (r *Rule) UsesPercentage() bool {
	return r.RuleType == RuleTypePercentage || r.RuleTypeIsHybrid()
}

// UsesSpecificApprover returns true if the rule carries a named approver
func (r *Rule) UsesSpecificApprover() bool {
	return r.RuleType == RuleTypeSpecific || r.RuleTypeIsHybrid()
}

// RuleTypeIsHybrid returns true for hybrid rules
func (r *Rule) RuleTypeIsHybrid() bool {
	return r.RuleType == RuleTypeHybrid
}

func validateRule(ruleType RuleType, threshold *decimal.Decimal, specificApproverID *uuid.UUID) error {
	if !ruleType.IsValid() {
		return shared.NewDomainError("INVALID_RULE_TYPE", "Unknown rule type")
	}

	needsThreshold := ruleType == RuleTypePercentage || ruleType == RuleTypeHybrid
	needsApprover := ruleType == RuleTypeSpecific || ruleType == RuleTypeHybrid

	if needsThreshold {
		if threshold == nil {
			return shared.NewDomainError("INVALID_THRESHOLD", "Percentage rules need a threshold")
		}
		if !threshold.IsPositive() || threshold.GreaterThan(decimal.NewFromInt(100)) {
			return shared.NewDomainError("INVALID_THRESHOLD", "Threshold must be between 0 and 100")
		}
	}
	if needsApprover {
		if specificApproverID == nil || *specificApproverID == uuid.Nil {
			return shared.NewDomainError("INVALID_APPROVER", "Specific rules need an approver")
		}
	}

	return nil
}
