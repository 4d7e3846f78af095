package service

import (
	"context"
	"sort"

	"fieldexpense/internal/model"
	"fieldexpense/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Aggregator turns a period's daily entries into a raw summary ledger plus
// per-day eligibility rows. Recompute is idempotent: two passes over
// unchanged entries produce byte-for-byte identical snapshots (buckets are
// maps serialized with sorted keys, day rows are sorted explicitly, and no
// timestamps enter the output).
type Aggregator struct {
	entryRepo   repository.EntryRepository
	mileageRate decimal.Decimal
}

func NewAggregator(entryRepo repository.EntryRepository, mileageRate decimal.Decimal) *Aggregator {
	return &Aggregator{entryRepo: entryRepo, mileageRate: mileageRate}
}

type dayKey struct {
	date       string
	costCenter string
}

// Recompute reads every entry in the period window and buckets raw amounts
// by (cost center, category). Mileage entries contribute miles × the
// configured per-mile rate. Capped amounts start equal to raw; the rule
// engine adjusts them afterwards.
func (a *Aggregator) Recompute(ctx context.Context, employeeID uuid.UUID, period model.Period) (model.SummaryLedger, []model.DayRow, error) {
	entries, err := a.entryRepo.ListForPeriod(ctx, employeeID, period.Start, period.End)
	if err != nil {
		return model.SummaryLedger{}, nil, err
	}

	ledger := model.SummaryLedger{
		CostCenters: make(map[string]model.CostCenterLedger),
		GrandTotal:  decimal.Zero,
	}
	dayRows := make(map[dayKey]*model.DayRow)

	for i := range entries {
		entry := &entries[i]

		amount := entry.Amount
		if entry.EntryType == model.EntryTypeMileage {
			amount = entry.Miles.Mul(a.mileageRate)
		}

		cc, ok := ledger.CostCenters[entry.CostCenter]
		if !ok {
			cc = model.CostCenterLedger{
				Categories: make(map[string]model.LedgerCell),
				Subtotal:   decimal.Zero,
			}
		}
		cell := cc.Categories[entry.Category]
		cell.RawAmount = cell.RawAmount.Add(amount)
		cell.CappedAmount = cell.RawAmount
		cc.Categories[entry.Category] = cell
		ledger.CostCenters[entry.CostCenter] = cc

		// Accumulate the day-level signals the per-diem daily rule gates on.
		key := dayKey{date: entry.Date.Format("2006-01-02"), costCenter: entry.CostCenter}
		row, ok := dayRows[key]
		if !ok {
			row = &model.DayRow{Date: key.date, CostCenter: key.costCenter}
			dayRows[key] = row
		}
		row.Hours = row.Hours.Add(entry.Hours)
		row.Miles = row.Miles.Add(entry.Miles)
		if entry.DistanceFromBase.GreaterThan(row.DistanceFromBase) {
			row.DistanceFromBase = entry.DistanceFromBase
		}
		if entry.Category == model.CategoryPerDiem {
			row.PerDiemAmount = row.PerDiemAmount.Add(amount)
		}
	}

	days := make([]model.DayRow, 0, len(dayRows))
	for _, row := range dayRows {
		days = append(days, *row)
	}
	sort.Slice(days, func(i, j int) bool {
		if days[i].Date != days[j].Date {
			return days[i].Date < days[j].Date
		}
		return days[i].CostCenter < days[j].CostCenter
	})

	return ledger, days, nil
}
