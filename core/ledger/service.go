package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/trezcool/ecolage/core"
	"github.com/trezcool/ecolage/core/household"
)

const (
	EntityFeePlan     = "fee plan"
	EntityInstallment = "installment"
)

var (
	ReasonAlreadyPaid = "installment already paid"

	errInstallmentsRequired = core.FieldError{Field: "installments", Error: "at least one installment or a schedule is required"}
	errDueDateRequired      = "due date is required"
)

type (
	Repository interface {
		// CreateFeePlan returns a *core.NotFoundError when the student does not exist.
		CreateFeePlan(ctx context.Context, fp FeePlan) (FeePlan, error)
		GetFeePlanByID(ctx context.Context, id string) (FeePlan, error)
		// FilterFeePlans returns all fee plans, most recent first, when the filter is empty.
		FilterFeePlans(ctx context.Context, filter QueryFilter) ([]FeePlan, error)
		// MarkInstallmentPaid atomically moves a pending installment to paid and adds its amount to the
		// fee plan's amount paid. It returns a *core.ConflictError when the installment is already paid.
		MarkInstallmentPaid(ctx context.Context, feePlanID, installmentID string, paidAt time.Time) (FeePlan, error)
		DeleteFeePlan(ctx context.Context, id string) error
	}

	StudentGetter interface {
		GetStudentByID(ctx context.Context, id string) (household.Student, error)
	}

	Service struct {
		repo     Repository
		students StudentGetter
		validate *core.Validator
	}
)

func NewService(repo Repository, students StudentGetter, validate *core.Validator) *Service {
	return &Service{repo: repo, students: students, validate: validate}
}

// CreateFeePlan creates a fee plan with all its installments pending and nothing paid.
// When a Schedule is given, the installments are built with SplitMonthly.
func (svc *Service) CreateFeePlan(ctx context.Context, nfp NewFeePlan) (FeePlan, error) {
	nfp.Clean()
	if err := svc.validate.Struct(nfp); err != nil {
		return FeePlan{}, err
	}

	insts := nfp.Installments
	if len(insts) == 0 && nfp.Schedule != nil {
		if nfp.Schedule.FirstDueDate.IsZero() {
			return FeePlan{}, core.NewValidationError(nil, core.FieldError{Field: "schedule.first_due_date", Error: errDueDateRequired})
		}
		if nfp.TotalAmount <= 0 {
			return FeePlan{}, core.NewValidationError(nil, core.FieldError{Field: "total_amount", Error: "total amount is required with a schedule"})
		}
		insts = SplitMonthly(nfp.TotalAmount, nfp.Schedule.Count, nfp.Schedule.FirstDueDate)
	}
	if err := validateInstallments(insts); err != nil {
		return FeePlan{}, err
	}

	total, ok := sumInstallments(insts)
	if !ok {
		return FeePlan{}, core.NewValidationError(nil, core.FieldError{Field: "installments", Error: "sum of installments is too large"})
	}
	if nfp.TotalAmount != 0 && nfp.TotalAmount != total {
		return FeePlan{}, core.NewValidationError(nil, core.FieldError{
			Field: "total_amount",
			Error: fmt.Sprintf("total amount must equal the sum of installments (%s)", total),
		})
	}

	if _, err := svc.students.GetStudentByID(ctx, nfp.StudentID); err != nil {
		return FeePlan{}, err
	}

	now := core.NowFunc().UTC()
	fp := FeePlan{
		ID:           core.NewID(),
		StudentID:    nfp.StudentID,
		SchoolYear:   nfp.SchoolYear,
		TotalAmount:  total,
		Installments: make([]Installment, 0, len(insts)),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	for _, ni := range insts {
		fp.Installments = append(fp.Installments, Installment{
			ID:      core.NewID(),
			DueDate: ni.DueDate,
			Amount:  ni.Amount,
			Status:  StatusPending,
		})
	}
	return svc.repo.CreateFeePlan(ctx, fp)
}

func validateInstallments(insts []NewInstallment) error {
	if len(insts) == 0 {
		return core.NewValidationError(nil, errInstallmentsRequired)
	}
	var flds []core.FieldError
	for i, inst := range insts {
		if inst.DueDate.IsZero() {
			flds = append(flds, core.FieldError{Field: fmt.Sprintf("installments[%d].due_date", i), Error: errDueDateRequired})
		}
		if inst.Amount <= 0 {
			flds = append(flds, core.FieldError{Field: fmt.Sprintf("installments[%d].amount", i), Error: "amount must be positive"})
		}
	}
	if flds != nil {
		return core.NewValidationError(nil, flds...)
	}
	return nil
}

func (svc *Service) GetFeePlan(ctx context.Context, id string) (FeePlan, error) {
	return svc.repo.GetFeePlanByID(ctx, id)
}

func (svc *Service) QueryFeePlans(ctx context.Context, filter QueryFilter) ([]FeePlan, error) {
	filter.StudentID = core.CleanString(filter.StudentID)
	return svc.repo.FilterFeePlans(ctx, filter)
}

// RecordPayment pays one installment in full. It is the only writer of FeePlan.AmountPaid.
// Paying an installment twice is a *core.ConflictError; an amount different from the
// installment's is rejected.
func (svc *Service) RecordPayment(ctx context.Context, feePlanID string, p Payment) (FeePlan, error) {
	p.InstallmentID = core.CleanString(p.InstallmentID)
	if err := svc.validate.Struct(p); err != nil {
		return FeePlan{}, err
	}

	fp, err := svc.repo.GetFeePlanByID(ctx, feePlanID)
	if err != nil {
		return FeePlan{}, err
	}
	inst, ok := fp.Installment(p.InstallmentID)
	if !ok {
		return FeePlan{}, core.NewNotFoundError(EntityInstallment, p.InstallmentID)
	}
	if inst.IsPaid() {
		return FeePlan{}, core.NewConflictError(EntityInstallment, inst.ID, ReasonAlreadyPaid)
	}
	if p.Amount != inst.Amount {
		return FeePlan{}, core.NewValidationError(nil, core.FieldError{
			Field: "amount",
			Error: fmt.Sprintf("amount must equal the installment amount (%s)", inst.Amount),
		})
	}

	return svc.repo.MarkInstallmentPaid(ctx, fp.ID, inst.ID, core.NowFunc().UTC())
}

// DeleteFeePlan deletes the fee plan and all its installments, paid or not.
func (svc *Service) DeleteFeePlan(ctx context.Context, id string) error {
	if _, err := svc.repo.GetFeePlanByID(ctx, id); err != nil {
		return err
	}
	return svc.repo.DeleteFeePlan(ctx, id)
}
