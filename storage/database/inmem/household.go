package inmemdb

import (
	"context"
	"sort"

	"github.com/trezcool/ecolage/core"
	"github.com/trezcool/ecolage/core/household"
)

// householdRepository checks references the way foreign keys would. Tables are always locked in the
// order households, students, fee plans.
type householdRepository struct {
	households *householdTable
	students   *studentTable
	feePlans   *feePlanTable
}

var _ household.Repository = (*householdRepository)(nil) // interface compliance check

func NewHouseholdRepository(db *DB) household.Repository {
	return &householdRepository{households: db.household, students: db.student, feePlans: db.feePlan}
}

func (repo *householdRepository) CreateHousehold(_ context.Context, h household.Household) (household.Household, error) {
	repo.households.Lock()
	defer repo.households.Unlock()

	repo.households.table[h.ID] = &h
	return h, nil
}

func (repo *householdRepository) QueryAllHouseholds(_ context.Context) ([]household.Household, error) {
	repo.households.RLock()
	defer repo.households.RUnlock()

	hhs := make([]household.Household, 0, len(repo.households.table))
	for _, h := range repo.households.table {
		hhs = append(hhs, *h)
	}
	sort.Slice(hhs, func(i, j int) bool {
		if hhs[i].CreatedAt.Equal(hhs[j].CreatedAt) {
			return hhs[i].ID > hhs[j].ID
		}
		return hhs[i].CreatedAt.After(hhs[j].CreatedAt)
	})
	return hhs, nil
}

func (repo *householdRepository) GetHouseholdByID(_ context.Context, id string) (household.Household, error) {
	repo.households.RLock()
	defer repo.households.RUnlock()

	if h, ok := repo.households.table[id]; ok {
		return *h, nil
	}
	return household.Household{}, core.NewNotFoundError(household.EntityHousehold, id)
}

func (repo *householdRepository) UpdateHousehold(_ context.Context, h household.Household) (household.Household, error) {
	repo.households.Lock()
	defer repo.households.Unlock()

	if _, ok := repo.households.table[h.ID]; !ok {
		return household.Household{}, core.NewNotFoundError(household.EntityHousehold, h.ID)
	}
	repo.households.table[h.ID] = &h
	return h, nil
}

func (repo *householdRepository) DeleteHousehold(_ context.Context, id string) error {
	repo.households.Lock()
	defer repo.households.Unlock()
	repo.students.RLock()
	defer repo.students.RUnlock()

	for _, s := range repo.students.table {
		if s.HouseholdID == id {
			return core.NewConflictError(household.EntityHousehold, id, household.ReasonHasStudents)
		}
	}
	delete(repo.households.table, id)
	return nil
}

func (repo *householdRepository) CreateStudent(_ context.Context, s household.Student) (household.Student, error) {
	repo.households.RLock()
	defer repo.households.RUnlock()
	repo.students.Lock()
	defer repo.students.Unlock()

	if _, ok := repo.households.table[s.HouseholdID]; !ok {
		return household.Student{}, core.NewNotFoundError(household.EntityHousehold, s.HouseholdID)
	}
	repo.students.table[s.ID] = &s
	return s, nil
}

func (repo *householdRepository) FilterStudents(_ context.Context, filter household.StudentFilter) ([]household.Student, error) {
	repo.students.RLock()
	defer repo.students.RUnlock()

	students := make([]household.Student, 0, len(repo.students.table))
	for _, s := range repo.students.table {
		if filter.HouseholdID != "" && s.HouseholdID != filter.HouseholdID {
			continue
		}
		students = append(students, *s)
	}
	sort.Slice(students, func(i, j int) bool {
		if students[i].CreatedAt.Equal(students[j].CreatedAt) {
			return students[i].ID > students[j].ID
		}
		return students[i].CreatedAt.After(students[j].CreatedAt)
	})
	return students, nil
}

func (repo *householdRepository) GetStudentByID(_ context.Context, id string) (household.Student, error) {
	repo.students.RLock()
	defer repo.students.RUnlock()

	if s, ok := repo.students.table[id]; ok {
		return *s, nil
	}
	return household.Student{}, core.NewNotFoundError(household.EntityStudent, id)
}

func (repo *householdRepository) UpdateStudent(_ context.Context, s household.Student) (household.Student, error) {
	repo.households.RLock()
	defer repo.households.RUnlock()
	repo.students.Lock()
	defer repo.students.Unlock()

	if _, ok := repo.students.table[s.ID]; !ok {
		return household.Student{}, core.NewNotFoundError(household.EntityStudent, s.ID)
	}
	if _, ok := repo.households.table[s.HouseholdID]; !ok {
		return household.Student{}, core.NewNotFoundError(household.EntityHousehold, s.HouseholdID)
	}
	repo.students.table[s.ID] = &s
	return s, nil
}

func (repo *householdRepository) DeleteStudent(_ context.Context, id string) error {
	repo.students.Lock()
	defer repo.students.Unlock()
	repo.feePlans.RLock()
	defer repo.feePlans.RUnlock()

	for _, fp := range repo.feePlans.table {
		if fp.StudentID == id {
			return core.NewConflictError(household.EntityStudent, id, household.ReasonHasFeePlans)
		}
	}
	delete(repo.students.table, id)
	return nil
}
