package household

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/ecolage/core"
)

const (
	EntityHousehold = "household"
	EntityStudent   = "student"
)

const (
	ReasonHasStudents = "cannot delete: household still has students"
	ReasonHasFeePlans = "cannot delete: student still has fee plans"
)

type (
	Repository interface {
		CreateHousehold(ctx context.Context, h Household) (Household, error)
		QueryAllHouseholds(ctx context.Context) ([]Household, error)
		GetHouseholdByID(ctx context.Context, id string) (Household, error)
		UpdateHousehold(ctx context.Context, h Household) (Household, error)
		// DeleteHousehold returns a *core.ConflictError, and deletes nothing, while the household owns a student.
		DeleteHousehold(ctx context.Context, id string) error

		// CreateStudent and UpdateStudent return a *core.NotFoundError when the household does not exist.
		CreateStudent(ctx context.Context, s Student) (Student, error)
		// FilterStudents returns all students when the filter is empty.
		FilterStudents(ctx context.Context, filter StudentFilter) ([]Student, error)
		GetStudentByID(ctx context.Context, id string) (Student, error)
		UpdateStudent(ctx context.Context, s Student) (Student, error)
		// DeleteStudent returns a *core.ConflictError, and deletes nothing, while a fee plan references the student.
		DeleteStudent(ctx context.Context, id string) error
	}

	Service struct {
		repo     Repository
		validate *core.Validator
	}
)

func NewService(repo Repository, validate *core.Validator) *Service {
	return &Service{repo: repo, validate: validate}
}

func (svc *Service) CreateHousehold(ctx context.Context, nh NewHousehold) (Household, error) {
	nh.Clean()
	if err := svc.validate.Struct(nh); err != nil {
		return Household{}, err
	}

	now := core.NowFunc().UTC()
	return svc.repo.CreateHousehold(ctx, Household{
		ID:        core.NewID(),
		FirstName: nh.FirstName,
		LastName:  nh.LastName,
		Phone:     nh.Phone,
		Email:     nh.Email,
		CreatedAt: now,
		UpdatedAt: now,
	})
}

func (svc *Service) QueryHouseholds(ctx context.Context) ([]Household, error) {
	return svc.repo.QueryAllHouseholds(ctx)
}

func (svc *Service) GetHousehold(ctx context.Context, id string) (Household, error) {
	return svc.repo.GetHouseholdByID(ctx, id)
}

func (svc *Service) UpdateHousehold(ctx context.Context, id string, uh UpdateHousehold) (Household, error) {
	nh := NewHousehold(uh)
	nh.Clean()
	if err := svc.validate.Struct(nh); err != nil {
		return Household{}, err
	}

	orig, err := svc.repo.GetHouseholdByID(ctx, id)
	if err != nil {
		return Household{}, err
	}
	orig.FirstName = nh.FirstName
	orig.LastName = nh.LastName
	orig.Phone = nh.Phone
	orig.Email = nh.Email
	orig.UpdatedAt = core.NowFunc().UTC()
	return svc.repo.UpdateHousehold(ctx, orig)
}

// DeleteHousehold is rejected while the household owns any student.
func (svc *Service) DeleteHousehold(ctx context.Context, id string) error {
	if _, err := svc.repo.GetHouseholdByID(ctx, id); err != nil {
		return err
	}
	return errors.Wrap(svc.repo.DeleteHousehold(ctx, id), "deleting household")
}

func (svc *Service) CreateStudent(ctx context.Context, ns NewStudent) (Student, error) {
	ns.Clean()
	if err := svc.validate.Struct(ns); err != nil {
		return Student{}, err
	}
	if _, err := svc.repo.GetHouseholdByID(ctx, ns.HouseholdID); err != nil {
		return Student{}, err
	}

	now := core.NowFunc().UTC()
	return svc.repo.CreateStudent(ctx, Student{
		ID:          core.NewID(),
		FirstName:   ns.FirstName,
		LastName:    ns.LastName,
		Class:       ns.Class,
		HouseholdID: ns.HouseholdID,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
}

func (svc *Service) QueryStudents(ctx context.Context, filter StudentFilter) ([]Student, error) {
	filter.HouseholdID = core.CleanString(filter.HouseholdID)
	return svc.repo.FilterStudents(ctx, filter)
}

func (svc *Service) GetStudent(ctx context.Context, id string) (Student, error) {
	return svc.repo.GetStudentByID(ctx, id)
}

func (svc *Service) UpdateStudent(ctx context.Context, id string, us UpdateStudent) (Student, error) {
	ns := NewStudent(us)
	ns.Clean()
	if err := svc.validate.Struct(ns); err != nil {
		return Student{}, err
	}

	orig, err := svc.repo.GetStudentByID(ctx, id)
	if err != nil {
		return Student{}, err
	}
	if ns.HouseholdID != orig.HouseholdID {
		if _, err = svc.repo.GetHouseholdByID(ctx, ns.HouseholdID); err != nil {
			return Student{}, err
		}
	}
	orig.FirstName = ns.FirstName
	orig.LastName = ns.LastName
	orig.Class = ns.Class
	orig.HouseholdID = ns.HouseholdID
	orig.UpdatedAt = core.NowFunc().UTC()
	return svc.repo.UpdateStudent(ctx, orig)
}

// DeleteStudent is rejected while any fee plan references the student.
func (svc *Service) DeleteStudent(ctx context.Context, id string) error {
	if _, err := svc.repo.GetStudentByID(ctx, id); err != nil {
		return err
	}
	return errors.Wrap(svc.repo.DeleteStudent(ctx, id), "deleting student")
}
