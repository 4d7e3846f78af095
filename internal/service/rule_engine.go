package service

import (
	"fieldexpense/internal/model"
	"fieldexpense/pkg/apperror"

	"github.com/shopspring/decimal"
)

// UnconfiguredRulePolicy values control what Evaluate does when a cost center has
// spend in a governed category but no matching rule. The legacy behavior
// (silent pass-through) is the default; REJECT turns the gap into an error.
const (
	PolicyPassThrough = "PASS_THROUGH"
	PolicyReject      = "REJECT"
)

// RuleEngine applies per-cost-center reimbursement rules to a raw summary
// ledger: per-diem daily eligibility, the per-diem monthly cap, and the
// expense-stipend cap.
type RuleEngine struct {
	policy string
}

func NewRuleEngine(unconfiguredPolicy string) *RuleEngine {
	if unconfiguredPolicy == "" {
		unconfiguredPolicy = PolicyPassThrough
	}
	return &RuleEngine{policy: unconfiguredPolicy}
}

// ruleSet indexes a cost center's rules by type.
type ruleSet struct {
	daily   *model.ReimbursementRule
	monthly *model.ReimbursementRule
	stipend *model.ReimbursementRule
}

func indexRules(rules []model.ReimbursementRule) ruleSet {
	var set ruleSet
	for i := range rules {
		switch rules[i].RuleType {
		case model.RuleTypePerDiemDaily:
			set.daily = &rules[i]
		case model.RuleTypePerDiemMonthly:
			set.monthly = &rules[i]
		case model.RuleTypeExpenseStipend:
			set.stipend = &rules[i]
		}
	}
	return set
}

// Evaluate returns a new ledger with capped amounts, subtotals and grand
// total filled in, and day rows with their eligibility flags resolved.
// The input ledger's raw amounts are never altered.
func (e *RuleEngine) Evaluate(rules map[string][]model.ReimbursementRule, raw model.SummaryLedger, days []model.DayRow) (model.SummaryLedger, []model.DayRow, error) {
	out := model.SummaryLedger{
		CostCenters: make(map[string]model.CostCenterLedger, len(raw.CostCenters)),
		GrandTotal:  decimal.Zero,
	}

	evaluated := make([]model.DayRow, len(days))
	copy(evaluated, days)

	// Resolve daily eligibility first: a day contributes its per-diem amount
	// only when it clears every threshold of the cost center's daily rule.
	eligibleSum := make(map[string]decimal.Decimal) // cost center -> eligible per-diem total
	for i := range evaluated {
		row := &evaluated[i]
		set := indexRules(rules[row.CostCenter])
		row.Eligible = dayEligible(set.daily, row)
		if row.Eligible {
			sum := eligibleSum[row.CostCenter]
			eligibleSum[row.CostCenter] = sum.Add(row.PerDiemAmount)
		}
	}

	for costCenter, ccLedger := range raw.CostCenters {
		set := indexRules(rules[costCenter])
		outCC := model.CostCenterLedger{
			Categories: make(map[string]model.LedgerCell, len(ccLedger.Categories)),
			Subtotal:   decimal.Zero,
		}

		for category, cell := range ccLedger.Categories {
			var adjusted model.LedgerCell
			var err error

			switch category {
			case model.CategoryPerDiem:
				eligible, ok := eligibleSum[costCenter]
				if !ok {
					eligible = decimal.Zero
				}
				adjusted, err = e.applyCap(set.monthly, cell.RawAmount, eligible, model.ReasonMonthlyCap, model.RuleTypePerDiemMonthly, costCenter)
			case model.CategoryEES:
				adjusted, err = e.applyCap(set.stipend, cell.RawAmount, cell.RawAmount, model.ReasonStipendCap, model.RuleTypeExpenseStipend, costCenter)
			default:
				// MILEAGE and OTHER are not governed by any rule type.
				adjusted = model.LedgerCell{RawAmount: cell.RawAmount, CappedAmount: cell.RawAmount}
			}
			if err != nil {
				return model.SummaryLedger{}, nil, err
			}

			outCC.Categories[category] = adjusted
			outCC.Subtotal = outCC.Subtotal.Add(adjusted.CappedAmount)
		}

		out.CostCenters[costCenter] = outCC
		out.GrandTotal = out.GrandTotal.Add(outCC.Subtotal)
	}

	return out, evaluated, nil
}

// dayEligible checks a day row against the daily per-diem rule. With no
// daily rule configured every day is eligible.
func dayEligible(daily *model.ReimbursementRule, row *model.DayRow) bool {
	if daily == nil {
		return true
	}
	return row.Hours.GreaterThanOrEqual(daily.MinHours) &&
		row.Miles.GreaterThanOrEqual(daily.MinMiles) &&
		row.DistanceFromBase.GreaterThanOrEqual(daily.MinDistanceFromBase)
}

// applyCap caps an amount against a single-rule maximum. useActualAmount
// bypasses the cap and flags the cell as an audit exception instead.
func (e *RuleEngine) applyCap(rule *model.ReimbursementRule, raw, amount decimal.Decimal, capReason, ruleType, costCenter string) (model.LedgerCell, error) {
	cell := model.LedgerCell{RawAmount: raw, CappedAmount: amount}

	if rule == nil {
		if amount.IsZero() {
			return cell, nil
		}
		if e.policy == PolicyReject {
			return model.LedgerCell{}, apperror.RuleViolation("cost center %s has no %s rule configured", costCenter, ruleType)
		}
		cell.Reason = model.ReasonNoRule
		return cell, nil
	}

	if amount.GreaterThan(rule.MaxAmount) {
		if rule.UseActualAmount {
			cell.Reason = model.ReasonActualOverride
			return cell, nil
		}
		cell.CappedAmount = rule.MaxAmount
		cell.Capped = true
		cell.Reason = capReason
	}
	return cell, nil
}
