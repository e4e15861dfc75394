package ledger

import (
	"time"

	"github.com/trezcool/ecolage/core"
)

// Status is the stored state of an installment. Overdue is never stored, see Installment.DerivedStatus.
type Status string

const (
	StatusPending Status = "pending"
	StatusPaid    Status = "paid"
	StatusOverdue Status = "overdue" // derived only
)

type Installment struct {
	ID      string     `json:"id"`
	DueDate core.Date  `json:"due_date"`
	Amount  core.Money `json:"amount"`
	Status  Status     `json:"status"`
	PaidAt  *time.Time `json:"paid_at,omitempty"` // UTC
}

func (inst Installment) IsPaid() bool { return inst.Status == StatusPaid }

// IsOverdue reports whether the installment is still pending after its due date.
func (inst Installment) IsOverdue(today core.Date) bool {
	return inst.Status == StatusPending && inst.DueDate.Before(today)
}

func (inst Installment) DerivedStatus(today core.Date) Status {
	if inst.IsOverdue(today) {
		return StatusOverdue
	}
	return inst.Status
}

type FeePlan struct {
	ID           string        `json:"id"`
	StudentID    string        `json:"student_id"`
	SchoolYear   string        `json:"school_year"`
	TotalAmount  core.Money    `json:"total_amount"`
	AmountPaid   core.Money    `json:"amount_paid"`
	Installments []Installment `json:"installments"`
	CreatedAt    time.Time     `json:"created_at"` // UTC
	UpdatedAt    time.Time     `json:"updated_at"` // UTC
}

func (fp FeePlan) Balance() core.Money { return fp.TotalAmount - fp.AmountPaid }

func (fp FeePlan) Installment(id string) (Installment, bool) {
	for _, inst := range fp.Installments {
		if inst.ID == id {
			return inst, true
		}
	}
	return Installment{}, false
}

// PendingInstallments returns installments not yet paid, in due order.
func (fp FeePlan) PendingInstallments() []Installment {
	pending := make([]Installment, 0, len(fp.Installments))
	for _, inst := range fp.Installments {
		if !inst.IsPaid() {
			pending = append(pending, inst)
		}
	}
	return pending
}

// NewInstallment describes one installment of a NewFeePlan.
type NewInstallment struct {
	DueDate core.Date  `json:"due_date"`
	Amount  core.Money `json:"amount" validate:"gt=0"`
}

// Schedule asks for `Count` monthly installments splitting the total amount, starting at FirstDueDate.
type Schedule struct {
	Count        int       `json:"count" validate:"min=1,max=36"`
	FirstDueDate core.Date `json:"first_due_date"`
}

// NewFeePlan contains information needed to create a new FeePlan.
// Either Installments or Schedule must be provided. TotalAmount may be left out when Installments are given.
type NewFeePlan struct {
	StudentID    string           `json:"student_id" validate:"required"`
	SchoolYear   string           `json:"school_year" validate:"required,schoolyear"`
	TotalAmount  core.Money       `json:"total_amount" validate:"gte=0"`
	Installments []NewInstallment `json:"installments" validate:"omitempty,dive"`
	Schedule     *Schedule        `json:"schedule"`
}

func (nfp *NewFeePlan) Clean() {
	nfp.StudentID = core.CleanString(nfp.StudentID)
	nfp.SchoolYear = core.CleanString(nfp.SchoolYear)
}

// Payment records the payment of one installment; Amount must equal the installment amount.
type Payment struct {
	InstallmentID string     `json:"installment_id" validate:"required"`
	Amount        core.Money `json:"amount" validate:"gt=0"`
}

type QueryFilter struct {
	StudentID string `query:"student_id"`
}

// InstallmentView is an Installment with its status derived for a given day.
type InstallmentView struct {
	Installment
	DerivedStatus Status `json:"derived_status"`
}

// FeePlanView is a FeePlan as seen on a given day.
type FeePlanView struct {
	FeePlan
	Installments []InstallmentView `json:"installments"`
	Balance      core.Money        `json:"balance"`
	AsOf         core.Date         `json:"as_of"`
}

func NewFeePlanView(fp FeePlan, today core.Date) FeePlanView {
	views := make([]InstallmentView, 0, len(fp.Installments))
	for _, inst := range fp.Installments {
		views = append(views, InstallmentView{Installment: inst, DerivedStatus: inst.DerivedStatus(today)})
	}
	return FeePlanView{FeePlan: fp, Installments: views, Balance: fp.Balance(), AsOf: today}
}
