package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/trezcool/ecolage/core"
	"github.com/trezcool/ecolage/core/household"
	"github.com/trezcool/ecolage/core/ledger"
)

type feePlanRepository struct {
	db       *feePlanTable
	students *studentTable
}

var _ ledger.Repository = (*feePlanRepository)(nil) // interface compliance check

func NewFeePlanRepository(db *DB) ledger.Repository {
	return &feePlanRepository{db: db.feePlan, students: db.student}
}

func (repo *feePlanRepository) CreateFeePlan(_ context.Context, fp ledger.FeePlan) (ledger.FeePlan, error) {
	repo.students.RLock()
	defer repo.students.RUnlock()
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.students.table[fp.StudentID]; !ok {
		return ledger.FeePlan{}, core.NewNotFoundError(household.EntityStudent, fp.StudentID)
	}
	stored := cloneFeePlan(fp)
	repo.db.table[fp.ID] = &stored
	return cloneFeePlan(stored), nil
}

func (repo *feePlanRepository) GetFeePlanByID(_ context.Context, id string) (ledger.FeePlan, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if fp, ok := repo.db.table[id]; ok {
		return cloneFeePlan(*fp), nil
	}
	return ledger.FeePlan{}, core.NewNotFoundError(ledger.EntityFeePlan, id)
}

func (repo *feePlanRepository) FilterFeePlans(_ context.Context, filter ledger.QueryFilter) ([]ledger.FeePlan, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	plans := make([]ledger.FeePlan, 0, len(repo.db.table))
	for _, fp := range repo.db.table {
		if filter.StudentID != "" && fp.StudentID != filter.StudentID {
			continue
		}
		plans = append(plans, cloneFeePlan(*fp))
	}
	sort.Slice(plans, func(i, j int) bool {
		if plans[i].CreatedAt.Equal(plans[j].CreatedAt) {
			return plans[i].ID > plans[j].ID
		}
		return plans[i].CreatedAt.After(plans[j].CreatedAt)
	})
	return plans, nil
}

// MarkInstallmentPaid checks and sets the installment status under the table's write lock.
func (repo *feePlanRepository) MarkInstallmentPaid(_ context.Context, feePlanID, installmentID string, paidAt time.Time) (ledger.FeePlan, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	fp, ok := repo.db.table[feePlanID]
	if !ok {
		return ledger.FeePlan{}, core.NewNotFoundError(ledger.EntityFeePlan, feePlanID)
	}
	for i := range fp.Installments {
		inst := &fp.Installments[i]
		if inst.ID != installmentID {
			continue
		}
		if inst.IsPaid() {
			return ledger.FeePlan{}, core.NewConflictError(ledger.EntityInstallment, installmentID, ledger.ReasonAlreadyPaid)
		}
		paidAt := paidAt.UTC()
		inst.Status = ledger.StatusPaid
		inst.PaidAt = &paidAt
		fp.AmountPaid += inst.Amount
		fp.UpdatedAt = paidAt
		return cloneFeePlan(*fp), nil
	}
	return ledger.FeePlan{}, core.NewNotFoundError(ledger.EntityInstallment, installmentID)
}

func (repo *feePlanRepository) DeleteFeePlan(_ context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	delete(repo.db.table, id)
	return nil
}
