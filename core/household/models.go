package household

import (
	"time"

	"github.com/trezcool/ecolage/core"
)

type Household struct {
	ID        string    `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Phone     string    `json:"phone"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

func (h Household) FullName() string {
	return core.CleanString(h.FirstName + " " + h.LastName)
}

func (h Household) HasEmail() bool { return h.Email != "" }
func (h Household) HasPhone() bool { return h.Phone != "" }

type Student struct {
	ID          string    `json:"id"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	Class       string    `json:"class"`
	HouseholdID string    `json:"household_id"`
	CreatedAt   time.Time `json:"created_at"` // UTC
	UpdatedAt   time.Time `json:"updated_at"` // UTC
}

func (s Student) FullName() string {
	return core.CleanString(s.FirstName + " " + s.LastName)
}

// NewHousehold contains information needed to create a new Household.
type NewHousehold struct {
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
	Phone     string `json:"phone" validate:"omitempty,phone"`
	Email     string `json:"email" validate:"omitempty,email"`
}

func (nh *NewHousehold) Clean() {
	nh.FirstName = core.CleanString(nh.FirstName)
	nh.LastName = core.CleanString(nh.LastName)
	nh.Phone = core.CleanString(nh.Phone)
	nh.Email = core.CleanString(nh.Email, true /* lower */)
}

// UpdateHousehold replaces the household's editable fields.
type UpdateHousehold NewHousehold

// NewStudent contains information needed to create a new Student.
type NewStudent struct {
	FirstName   string `json:"first_name" validate:"required"`
	LastName    string `json:"last_name" validate:"required"`
	Class       string `json:"class" validate:"required"`
	HouseholdID string `json:"household_id" validate:"required"`
}

func (ns *NewStudent) Clean() {
	ns.FirstName = core.CleanString(ns.FirstName)
	ns.LastName = core.CleanString(ns.LastName)
	ns.Class = core.CleanString(ns.Class)
	ns.HouseholdID = core.CleanString(ns.HouseholdID)
}

// UpdateStudent replaces the student's editable fields.
type UpdateStudent NewStudent

type StudentFilter struct {
	HouseholdID string `query:"household_id"`
}
