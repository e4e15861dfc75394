package stats

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/ecolage/core"
	"github.com/trezcool/ecolage/core/household"
	"github.com/trezcool/ecolage/core/ledger"
	"github.com/trezcool/ecolage/core/reminder"
)

// RecentWindow is the number of days, today included, counted as recent reminders.
const RecentWindow = 30

type (
	Summary struct {
		AsOf            core.Date  `json:"as_of"`
		Households      int        `json:"households"`
		Students        int        `json:"students"`
		FeePlans        int        `json:"fee_plans"`
		TotalDue        core.Money `json:"total_du"`
		TotalPaid       core.Money `json:"total_paye"`
		TotalUnpaid     core.Money `json:"total_impaye"`
		Installments    Counts     `json:"installments"`
		Reminders       int        `json:"reminders"`
		RecentReminders int        `json:"recent_reminders"`
	}

	Counts struct {
		Paid    int `json:"paid"`
		Pending int `json:"pending"` // not yet due
		Overdue int `json:"overdue"`
	}

	HouseholdSource interface {
		QueryAllHouseholds(ctx context.Context) ([]household.Household, error)
		FilterStudents(ctx context.Context, filter household.StudentFilter) ([]household.Student, error)
	}

	RecordSource interface {
		FilterRecords(ctx context.Context, filter reminder.QueryFilter) ([]reminder.Record, error)
	}

	// Aggregator folds over the stores to summarize them. It only reads.
	Aggregator struct {
		households HouseholdSource
		feePlans   reminder.FeePlanLister
		records    RecordSource
	}
)

func NewAggregator(households HouseholdSource, feePlans reminder.FeePlanLister, records RecordSource) *Aggregator {
	return &Aggregator{households: households, feePlans: feePlans, records: records}
}

// Compute summarizes the stores as of `today`: overdue installments and recent reminders are relative to it.
func (agg *Aggregator) Compute(ctx context.Context, today core.Date) (Summary, error) {
	if today.IsZero() {
		return Summary{}, core.NewValidationError(nil, core.FieldError{Field: "date", Error: "date is required"})
	}
	sum := Summary{AsOf: today}

	hhs, err := agg.households.QueryAllHouseholds(ctx)
	if err != nil {
		return Summary{}, errors.Wrap(err, "querying households")
	}
	sum.Households = len(hhs)

	students, err := agg.households.FilterStudents(ctx, household.StudentFilter{})
	if err != nil {
		return Summary{}, errors.Wrap(err, "querying students")
	}
	sum.Students = len(students)

	plans, err := agg.feePlans.FilterFeePlans(ctx, ledger.QueryFilter{})
	if err != nil {
		return Summary{}, errors.Wrap(err, "querying fee plans")
	}
	sum.FeePlans = len(plans)
	for _, fp := range plans {
		sum.TotalDue += fp.TotalAmount
		sum.TotalPaid += fp.AmountPaid
		for _, inst := range fp.Installments {
			switch inst.DerivedStatus(today) {
			case ledger.StatusPaid:
				sum.Installments.Paid++
			case ledger.StatusOverdue:
				sum.Installments.Overdue++
			default:
				sum.Installments.Pending++
			}
		}
	}
	sum.TotalUnpaid = sum.TotalDue - sum.TotalPaid

	records, err := agg.records.FilterRecords(ctx, reminder.QueryFilter{})
	if err != nil {
		return Summary{}, errors.Wrap(err, "querying reminders")
	}
	sum.Reminders = len(records)
	since := today.AddDays(-(RecentWindow - 1))
	for _, rec := range records {
		if !rec.IssuedOn.Before(since) && !rec.IssuedOn.After(today) {
			sum.RecentReminders++
		}
	}
	return sum, nil
}
