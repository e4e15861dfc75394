package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/ecolage/core"
	"github.com/trezcool/ecolage/core/household"
	"github.com/trezcool/ecolage/core/ledger"
)

type feePlanRow struct {
	ID          string    `db:"id"`
	StudentID   string    `db:"student_id"`
	SchoolYear  string    `db:"school_year"`
	TotalAmount int64     `db:"total_amount"`
	AmountPaid  int64     `db:"amount_paid"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

type installmentRow struct {
	ID        string    `db:"id"`
	FeePlanID string    `db:"fee_plan_id"`
	Position  int       `db:"position"`
	DueDate   core.Date `db:"due_date"`
	Amount    int64     `db:"amount"`
	Status    string    `db:"status"`
	PaidAt    null.Time `db:"paid_at"`
}

func (row installmentRow) installment() ledger.Installment {
	inst := ledger.Installment{
		ID:      row.ID,
		DueDate: row.DueDate,
		Amount:  core.Money(row.Amount),
		Status:  ledger.Status(row.Status),
	}
	if row.PaidAt.Valid {
		paidAt := row.PaidAt.Time.UTC()
		inst.PaidAt = &paidAt
	}
	return inst
}

func (row feePlanRow) feePlan(insts []installmentRow) ledger.FeePlan {
	fp := ledger.FeePlan{
		ID:           row.ID,
		StudentID:    row.StudentID,
		SchoolYear:   row.SchoolYear,
		TotalAmount:  core.Money(row.TotalAmount),
		AmountPaid:   core.Money(row.AmountPaid),
		Installments: make([]ledger.Installment, 0, len(insts)),
		CreatedAt:    row.CreatedAt.UTC(),
		UpdatedAt:    row.UpdatedAt.UTC(),
	}
	for _, inst := range insts {
		fp.Installments = append(fp.Installments, inst.installment())
	}
	return fp
}

const (
	feePlanColumns     = "id, student_id, school_year, total_amount, amount_paid, created_at, updated_at"
	installmentColumns = "id, fee_plan_id, position, due_date, amount, status, paid_at"
)

type feePlanRepository struct {
	db *sqlx.DB
}

var _ ledger.Repository = (*feePlanRepository)(nil) // interface compliance check

func NewFeePlanRepository(db *sqlx.DB) ledger.Repository {
	return &feePlanRepository{db: db}
}

func (repo feePlanRepository) CreateFeePlan(ctx context.Context, fp ledger.FeePlan) (ledger.FeePlan, error) {
	err := inTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		q := tx.Rebind("INSERT INTO fee_plans (" + feePlanColumns + ") VALUES (?, ?, ?, ?, ?, ?, ?)")
		_, err := tx.ExecContext(ctx, q, fp.ID, fp.StudentID, fp.SchoolYear, fp.TotalAmount.Cents(), fp.AmountPaid.Cents(), fp.CreatedAt.UTC(), fp.UpdatedAt.UTC())
		if err != nil {
			if isForeignKeyViolation(err) {
				return core.NewNotFoundError(household.EntityStudent, fp.StudentID)
			}
			return core.NewInternalError(err, "inserting fee plan")
		}

		q = tx.Rebind("INSERT INTO installments (" + installmentColumns + ") VALUES (?, ?, ?, ?, ?, ?, ?)")
		for i, inst := range fp.Installments {
			paidAt := null.TimeFromPtr(inst.PaidAt)
			if _, err = tx.ExecContext(ctx, q, inst.ID, fp.ID, i, inst.DueDate, inst.Amount.Cents(), string(inst.Status), paidAt); err != nil {
				return core.NewInternalError(err, "inserting installment")
			}
		}
		return nil
	})
	if err != nil {
		return ledger.FeePlan{}, err
	}
	return fp, nil
}

func (repo feePlanRepository) GetFeePlanByID(ctx context.Context, id string) (ledger.FeePlan, error) {
	return repo.getFeePlan(ctx, repo.db, id)
}

func (repo feePlanRepository) getFeePlan(ctx context.Context, db sqlx.QueryerContext, id string) (ledger.FeePlan, error) {
	var row feePlanRow
	q := repo.db.Rebind("SELECT " + feePlanColumns + " FROM fee_plans WHERE id = ?")
	if err := sqlx.GetContext(ctx, db, &row, q, id); err != nil {
		return ledger.FeePlan{}, trapNoRowsErr(err, ledger.EntityFeePlan, id, "getting fee plan")
	}

	var insts []installmentRow
	q = repo.db.Rebind("SELECT " + installmentColumns + " FROM installments WHERE fee_plan_id = ? ORDER BY position")
	if err := sqlx.SelectContext(ctx, db, &insts, q, id); err != nil {
		return ledger.FeePlan{}, core.NewInternalError(err, "selecting installments")
	}
	return row.feePlan(insts), nil
}

func (repo feePlanRepository) FilterFeePlans(ctx context.Context, filter ledger.QueryFilter) ([]ledger.FeePlan, error) {
	q := "SELECT " + feePlanColumns + " FROM fee_plans"
	var args []interface{}
	if filter.StudentID != "" {
		q += " WHERE student_id = ?"
		args = append(args, filter.StudentID)
	}
	q += " ORDER BY created_at DESC, id DESC"

	var rows []feePlanRow
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(q), args...); err != nil {
		return nil, core.NewInternalError(err, "selecting fee plans")
	}
	if len(rows) == 0 {
		return []ledger.FeePlan{}, nil
	}

	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	q, args, err := sqlx.In("SELECT "+installmentColumns+" FROM installments WHERE fee_plan_id IN (?) ORDER BY fee_plan_id, position", ids)
	if err != nil {
		return nil, core.NewInternalError(err, "building installments query")
	}
	var insts []installmentRow
	if err = repo.db.SelectContext(ctx, &insts, repo.db.Rebind(q), args...); err != nil {
		return nil, core.NewInternalError(err, "selecting installments")
	}
	byPlan := make(map[string][]installmentRow, len(rows))
	for _, inst := range insts {
		byPlan[inst.FeePlanID] = append(byPlan[inst.FeePlanID], inst)
	}

	plans := make([]ledger.FeePlan, 0, len(rows))
	for _, row := range rows {
		plans = append(plans, row.feePlan(byPlan[row.ID]))
	}
	return plans, nil
}

// MarkInstallmentPaid only updates a pending installment, so that concurrent payments
// of the same installment leave exactly one winner.
func (repo feePlanRepository) MarkInstallmentPaid(ctx context.Context, feePlanID, installmentID string, paidAt time.Time) (ledger.FeePlan, error) {
	var fp ledger.FeePlan
	paidAt = paidAt.UTC()
	err := inTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		var inst installmentRow
		q := tx.Rebind("SELECT " + installmentColumns + " FROM installments WHERE id = ? AND fee_plan_id = ?")
		if err := tx.GetContext(ctx, &inst, q, installmentID, feePlanID); err != nil {
			return trapNoRowsErr(err, ledger.EntityInstallment, installmentID, "getting installment")
		}

		q = tx.Rebind("UPDATE installments SET status = ?, paid_at = ? WHERE id = ? AND status = ?")
		res, err := tx.ExecContext(ctx, q, string(ledger.StatusPaid), paidAt, installmentID, string(ledger.StatusPending))
		if err != nil {
			return core.NewInternalError(err, "updating installment")
		}
		n, err := res.RowsAffected()
		if err != nil {
			return core.NewInternalError(err, "reading affected rows")
		}
		if n == 0 {
			return core.NewConflictError(ledger.EntityInstallment, installmentID, ledger.ReasonAlreadyPaid)
		}

		q = tx.Rebind("UPDATE fee_plans SET amount_paid = amount_paid + ?, updated_at = ? WHERE id = ?")
		if _, err = tx.ExecContext(ctx, q, inst.Amount, paidAt, feePlanID); err != nil {
			return core.NewInternalError(err, "updating fee plan")
		}

		fp, err = repo.getFeePlan(ctx, tx, feePlanID)
		return err
	})
	if err != nil {
		return ledger.FeePlan{}, err
	}
	return fp, nil
}

func (repo feePlanRepository) DeleteFeePlan(ctx context.Context, id string) error {
	return inTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, tx.Rebind("DELETE FROM installments WHERE fee_plan_id = ?"), id); err != nil {
			return core.NewInternalError(err, "deleting installments")
		}
		if _, err := tx.ExecContext(ctx, tx.Rebind("DELETE FROM fee_plans WHERE id = ?"), id); err != nil {
			return core.NewInternalError(err, "deleting fee plan")
		}
		return nil
	})
}
