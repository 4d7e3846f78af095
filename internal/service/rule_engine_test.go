package service

import (
	"testing"

	"fieldexpense/internal/model"
	"fieldexpense/pkg/apperror"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func rawLedger(costCenter, category, amount string) model.SummaryLedger {
	return model.SummaryLedger{
		CostCenters: map[string]model.CostCenterLedger{
			costCenter: {
				Categories: map[string]model.LedgerCell{
					category: {RawAmount: dec(amount), CappedAmount: dec(amount)},
				},
			},
		},
	}
}

func TestEvaluateDailyEligibility(t *testing.T) {
	engine := NewRuleEngine(PolicyPassThrough)
	rules := map[string][]model.ReimbursementRule{
		"AL-SOR": {
			{CostCenter: "AL-SOR", RuleType: model.RuleTypePerDiemDaily, MinHours: dec("4"), MinMiles: dec("20"), MinDistanceFromBase: dec("10")},
		},
	}

	days := []model.DayRow{
		{Date: "2026-01-05", CostCenter: "AL-SOR", Hours: dec("3"), Miles: dec("50"), DistanceFromBase: dec("15"), PerDiemAmount: dec("35")},
		{Date: "2026-01-06", CostCenter: "AL-SOR", Hours: dec("8"), Miles: dec("50"), DistanceFromBase: dec("15"), PerDiemAmount: dec("35")},
	}
	raw := rawLedger("AL-SOR", model.CategoryPerDiem, "70")

	ledger, evaluated, err := engine.Evaluate(rules, raw, days)
	require.NoError(t, err)

	// The 3-hour day misses the 4-hour threshold and contributes nothing.
	assert.False(t, evaluated[0].Eligible)
	assert.True(t, evaluated[1].Eligible)

	cell := ledger.CostCenters["AL-SOR"].Categories[model.CategoryPerDiem]
	assert.True(t, cell.CappedAmount.Equal(dec("35")), "got %s", cell.CappedAmount)
	assert.True(t, ledger.GrandTotal.Equal(dec("35")))
}

func TestEvaluateNoDailyRuleEveryDayEligible(t *testing.T) {
	engine := NewRuleEngine(PolicyPassThrough)

	days := []model.DayRow{
		{Date: "2026-01-05", CostCenter: "TX-HOU", Hours: dec("1"), PerDiemAmount: dec("35")},
	}
	raw := rawLedger("TX-HOU", model.CategoryPerDiem, "35")

	ledger, evaluated, err := engine.Evaluate(nil, raw, days)
	require.NoError(t, err)

	assert.True(t, evaluated[0].Eligible)
	cell := ledger.CostCenters["TX-HOU"].Categories[model.CategoryPerDiem]
	assert.True(t, cell.CappedAmount.Equal(dec("35")))
	assert.Equal(t, model.ReasonNoRule, cell.Reason)
}

func TestEvaluateMonthlyCap(t *testing.T) {
	engine := NewRuleEngine(PolicyPassThrough)
	rules := map[string][]model.ReimbursementRule{
		"AL-SOR": {
			{CostCenter: "AL-SOR", RuleType: model.RuleTypePerDiemMonthly, MaxAmount: dec("350")},
		},
	}

	days := []model.DayRow{
		{Date: "2026-01-05", CostCenter: "AL-SOR", PerDiemAmount: dec("400")},
	}
	raw := rawLedger("AL-SOR", model.CategoryPerDiem, "400")

	ledger, _, err := engine.Evaluate(rules, raw, days)
	require.NoError(t, err)

	cell := ledger.CostCenters["AL-SOR"].Categories[model.CategoryPerDiem]
	assert.True(t, cell.Capped)
	assert.Equal(t, model.ReasonMonthlyCap, cell.Reason)
	assert.True(t, cell.RawAmount.Equal(dec("400")))
	assert.True(t, cell.CappedAmount.Equal(dec("350")))
	assert.True(t, ledger.GrandTotal.Equal(dec("350")))
}

func TestEvaluateUseActualAmountBypassesCap(t *testing.T) {
	engine := NewRuleEngine(PolicyPassThrough)
	rules := map[string][]model.ReimbursementRule{
		"AL-SOR": {
			{CostCenter: "AL-SOR", RuleType: model.RuleTypePerDiemMonthly, MaxAmount: dec("350"), UseActualAmount: true},
		},
	}

	days := []model.DayRow{
		{Date: "2026-01-05", CostCenter: "AL-SOR", PerDiemAmount: dec("400")},
	}
	raw := rawLedger("AL-SOR", model.CategoryPerDiem, "400")

	ledger, _, err := engine.Evaluate(rules, raw, days)
	require.NoError(t, err)

	cell := ledger.CostCenters["AL-SOR"].Categories[model.CategoryPerDiem]
	assert.False(t, cell.Capped)
	assert.Equal(t, model.ReasonActualOverride, cell.Reason)
	assert.True(t, cell.CappedAmount.Equal(dec("400")))
}

func TestEvaluateStipendCap(t *testing.T) {
	engine := NewRuleEngine(PolicyPassThrough)
	rules := map[string][]model.ReimbursementRule{
		"TX-HOU": {
			{CostCenter: "TX-HOU", RuleType: model.RuleTypeExpenseStipend, MaxAmount: dec("100")},
		},
	}

	raw := rawLedger("TX-HOU", model.CategoryEES, "180.50")

	ledger, _, err := engine.Evaluate(rules, raw, nil)
	require.NoError(t, err)

	cell := ledger.CostCenters["TX-HOU"].Categories[model.CategoryEES]
	assert.True(t, cell.Capped)
	assert.Equal(t, model.ReasonStipendCap, cell.Reason)
	assert.True(t, cell.CappedAmount.Equal(dec("100")))
}

func TestEvaluateRejectPolicy(t *testing.T) {
	engine := NewRuleEngine(PolicyReject)

	raw := rawLedger("TX-HOU", model.CategoryEES, "50")

	_, _, err := engine.Evaluate(nil, raw, nil)
	require.Error(t, err)
	assert.Equal(t, apperror.KindRuleViolation, apperror.KindOf(err))
}

func TestEvaluateRejectPolicyIgnoresZeroSpend(t *testing.T) {
	engine := NewRuleEngine(PolicyReject)

	raw := rawLedger("TX-HOU", model.CategoryEES, "0")

	_, _, err := engine.Evaluate(nil, raw, nil)
	assert.NoError(t, err)
}

func TestEvaluateUngovernedCategoriesPassThrough(t *testing.T) {
	engine := NewRuleEngine(PolicyReject)

	raw := model.SummaryLedger{
		CostCenters: map[string]model.CostCenterLedger{
			"TX-HOU": {
				Categories: map[string]model.LedgerCell{
					model.CategoryMileage: {RawAmount: dec("65.50"), CappedAmount: dec("65.50")},
					model.CategoryOther:   {RawAmount: dec("12"), CappedAmount: dec("12")},
				},
			},
		},
	}

	ledger, _, err := engine.Evaluate(nil, raw, nil)
	require.NoError(t, err)

	cc := ledger.CostCenters["TX-HOU"]
	assert.True(t, cc.Categories[model.CategoryMileage].CappedAmount.Equal(dec("65.50")))
	assert.True(t, cc.Categories[model.CategoryOther].CappedAmount.Equal(dec("12")))
	assert.True(t, cc.Subtotal.Equal(dec("77.50")))
	assert.True(t, ledger.GrandTotal.Equal(dec("77.50")))
}

func TestEvaluateDoesNotMutateInput(t *testing.T) {
	engine := NewRuleEngine(PolicyPassThrough)
	rules := map[string][]model.ReimbursementRule{
		"AL-SOR": {
			{CostCenter: "AL-SOR", RuleType: model.RuleTypePerDiemMonthly, MaxAmount: dec("10")},
		},
	}

	raw := rawLedger("AL-SOR", model.CategoryPerDiem, "20")
	days := []model.DayRow{{Date: "2026-01-05", CostCenter: "AL-SOR", PerDiemAmount: dec("20")}}

	_, _, err := engine.Evaluate(rules, raw, days)
	require.NoError(t, err)

	assert.True(t, raw.CostCenters["AL-SOR"].Categories[model.CategoryPerDiem].RawAmount.Equal(dec("20")))
	assert.False(t, days[0].Eligible, "input day rows must stay untouched")
}
