package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/trezcool/ecolage/core"
	"github.com/trezcool/ecolage/core/household"
)

type householdRow struct {
	ID        string    `db:"id"`
	FirstName string    `db:"first_name"`
	LastName  string    `db:"last_name"`
	Phone     string    `db:"phone"`
	Email     string    `db:"email"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (row householdRow) household() household.Household {
	return household.Household{
		ID:        row.ID,
		FirstName: row.FirstName,
		LastName:  row.LastName,
		Phone:     row.Phone,
		Email:     row.Email,
		CreatedAt: row.CreatedAt.UTC(),
		UpdatedAt: row.UpdatedAt.UTC(),
	}
}

type studentRow struct {
	ID          string    `db:"id"`
	FirstName   string    `db:"first_name"`
	LastName    string    `db:"last_name"`
	Class       string    `db:"class"`
	HouseholdID string    `db:"household_id"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func (row studentRow) student() household.Student {
	return household.Student{
		ID:          row.ID,
		FirstName:   row.FirstName,
		LastName:    row.LastName,
		Class:       row.Class,
		HouseholdID: row.HouseholdID,
		CreatedAt:   row.CreatedAt.UTC(),
		UpdatedAt:   row.UpdatedAt.UTC(),
	}
}

const (
	householdColumns = "id, first_name, last_name, phone, email, created_at, updated_at"
	studentColumns   = "id, first_name, last_name, class, household_id, created_at, updated_at"
)

type householdRepository struct {
	db *sqlx.DB
}

var _ household.Repository = (*householdRepository)(nil) // interface compliance check

func NewHouseholdRepository(db *sqlx.DB) household.Repository {
	return &householdRepository{db: db}
}

func (repo householdRepository) CreateHousehold(ctx context.Context, h household.Household) (household.Household, error) {
	q := repo.db.Rebind("INSERT INTO households (" + householdColumns + ") VALUES (?, ?, ?, ?, ?, ?, ?)")
	if _, err := repo.db.ExecContext(ctx, q, h.ID, h.FirstName, h.LastName, h.Phone, h.Email, h.CreatedAt.UTC(), h.UpdatedAt.UTC()); err != nil {
		return household.Household{}, core.NewInternalError(err, "inserting household")
	}
	return h, nil
}

func (repo householdRepository) QueryAllHouseholds(ctx context.Context) ([]household.Household, error) {
	var rows []householdRow
	q := "SELECT " + householdColumns + " FROM households ORDER BY created_at DESC, id DESC"
	if err := repo.db.SelectContext(ctx, &rows, q); err != nil {
		return nil, core.NewInternalError(err, "selecting households")
	}
	hhs := make([]household.Household, 0, len(rows))
	for _, row := range rows {
		hhs = append(hhs, row.household())
	}
	return hhs, nil
}

func (repo householdRepository) GetHouseholdByID(ctx context.Context, id string) (household.Household, error) {
	var row householdRow
	q := repo.db.Rebind("SELECT " + householdColumns + " FROM households WHERE id = ?")
	if err := repo.db.GetContext(ctx, &row, q, id); err != nil {
		return household.Household{}, trapNoRowsErr(err, household.EntityHousehold, id, "getting household")
	}
	return row.household(), nil
}

func (repo householdRepository) UpdateHousehold(ctx context.Context, h household.Household) (household.Household, error) {
	q := repo.db.Rebind("UPDATE households SET first_name = ?, last_name = ?, phone = ?, email = ?, updated_at = ? WHERE id = ?")
	res, err := repo.db.ExecContext(ctx, q, h.FirstName, h.LastName, h.Phone, h.Email, h.UpdatedAt.UTC(), h.ID)
	if err != nil {
		return household.Household{}, core.NewInternalError(err, "updating household")
	}
	if err = checkAffected(res, household.EntityHousehold, h.ID); err != nil {
		return household.Household{}, err
	}
	return h, nil
}

// DeleteHousehold leaves the students check to the students.household_id foreign key.
func (repo householdRepository) DeleteHousehold(ctx context.Context, id string) error {
	if _, err := repo.db.ExecContext(ctx, repo.db.Rebind("DELETE FROM households WHERE id = ?"), id); err != nil {
		if isForeignKeyViolation(err) {
			return core.NewConflictError(household.EntityHousehold, id, household.ReasonHasStudents)
		}
		return core.NewInternalError(err, "deleting household")
	}
	return nil
}

func (repo householdRepository) CreateStudent(ctx context.Context, s household.Student) (household.Student, error) {
	q := repo.db.Rebind("INSERT INTO students (" + studentColumns + ") VALUES (?, ?, ?, ?, ?, ?, ?)")
	if _, err := repo.db.ExecContext(ctx, q, s.ID, s.FirstName, s.LastName, s.Class, s.HouseholdID, s.CreatedAt.UTC(), s.UpdatedAt.UTC()); err != nil {
		if isForeignKeyViolation(err) {
			return household.Student{}, core.NewNotFoundError(household.EntityHousehold, s.HouseholdID)
		}
		return household.Student{}, core.NewInternalError(err, "inserting student")
	}
	return s, nil
}

func (repo householdRepository) FilterStudents(ctx context.Context, filter household.StudentFilter) ([]household.Student, error) {
	q := "SELECT " + studentColumns + " FROM students"
	var args []interface{}
	if filter.HouseholdID != "" {
		q += " WHERE household_id = ?"
		args = append(args, filter.HouseholdID)
	}
	q += " ORDER BY created_at DESC, id DESC"

	var rows []studentRow
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(q), args...); err != nil {
		return nil, core.NewInternalError(err, "selecting students")
	}
	students := make([]household.Student, 0, len(rows))
	for _, row := range rows {
		students = append(students, row.student())
	}
	return students, nil
}

func (repo householdRepository) GetStudentByID(ctx context.Context, id string) (household.Student, error) {
	var row studentRow
	q := repo.db.Rebind("SELECT " + studentColumns + " FROM students WHERE id = ?")
	if err := repo.db.GetContext(ctx, &row, q, id); err != nil {
		return household.Student{}, trapNoRowsErr(err, household.EntityStudent, id, "getting student")
	}
	return row.student(), nil
}

func (repo householdRepository) UpdateStudent(ctx context.Context, s household.Student) (household.Student, error) {
	q := repo.db.Rebind("UPDATE students SET first_name = ?, last_name = ?, class = ?, household_id = ?, updated_at = ? WHERE id = ?")
	res, err := repo.db.ExecContext(ctx, q, s.FirstName, s.LastName, s.Class, s.HouseholdID, s.UpdatedAt.UTC(), s.ID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return household.Student{}, core.NewNotFoundError(household.EntityHousehold, s.HouseholdID)
		}
		return household.Student{}, core.NewInternalError(err, "updating student")
	}
	if err = checkAffected(res, household.EntityStudent, s.ID); err != nil {
		return household.Student{}, err
	}
	return s, nil
}

// DeleteStudent leaves the fee plans check to the fee_plans.student_id foreign key.
func (repo householdRepository) DeleteStudent(ctx context.Context, id string) error {
	if _, err := repo.db.ExecContext(ctx, repo.db.Rebind("DELETE FROM students WHERE id = ?"), id); err != nil {
		if isForeignKeyViolation(err) {
			return core.NewConflictError(household.EntityStudent, id, household.ReasonHasFeePlans)
		}
		return core.NewInternalError(err, "deleting student")
	}
	return nil
}
