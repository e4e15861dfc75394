package sqlxrepos

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/ecolage/core"
	"github.com/trezcool/ecolage/core/household"
	"github.com/trezcool/ecolage/tests"
)

func TestHouseholdRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewHouseholdRepository(testutil.PrepareDB(t))
	tstamp := time.Date(2025, 8, 1, 9, 30, 0, 0, time.UTC)

	hh1 := testutil.CreateHousehold(t, repo, "Awa", "Kabila", "+243 810 000 000", "awa@test.cd", tstamp)
	hh2 := testutil.CreateHousehold(t, repo, "Jean", "Mbala", "", "jean@test.cd", tstamp.Add(time.Hour))

	t.Run("get", func(t *testing.T) {
		got, err := repo.GetHouseholdByID(ctx, hh1.ID)
		require.NoError(t, err)
		assert.Equal(t, hh1, got)
	})

	t.Run("get: not found", func(t *testing.T) {
		_, err := repo.GetHouseholdByID(ctx, "lol")
		assert.True(t, core.IsNotFound(err))
	})

	t.Run("query: newest first", func(t *testing.T) {
		got, err := repo.QueryAllHouseholds(ctx)
		require.NoError(t, err)
		assert.Equal(t, []household.Household{hh2, hh1}, got)
	})

	t.Run("update", func(t *testing.T) {
		upd := hh2
		upd.Phone = "+243 820 000 000"
		upd.Email = ""
		upd.UpdatedAt = tstamp.Add(2 * time.Hour)
		_, err := repo.UpdateHousehold(ctx, upd)
		require.NoError(t, err)

		got, err := repo.GetHouseholdByID(ctx, hh2.ID)
		require.NoError(t, err)
		assert.Equal(t, upd, got)
	})

	t.Run("update: not found", func(t *testing.T) {
		_, err := repo.UpdateHousehold(ctx, household.Household{ID: "lol", FirstName: "x", LastName: "y"})
		assert.True(t, core.IsNotFound(err))
	})

	t.Run("delete", func(t *testing.T) {
		hh := testutil.CreateHousehold(t, repo, "Tmp", "Tmp", "", "tmp@test.cd")
		require.NoError(t, repo.DeleteHousehold(ctx, hh.ID))

		_, err := repo.GetHouseholdByID(ctx, hh.ID)
		assert.True(t, core.IsNotFound(err))
	})
}

func TestHouseholdRepository_students(t *testing.T) {
	ctx := context.Background()
	repo := NewHouseholdRepository(testutil.PrepareDB(t))
	tstamp := time.Date(2025, 8, 1, 9, 30, 0, 0, time.UTC)

	hh1 := testutil.CreateHousehold(t, repo, "Awa", "Kabila", "", "awa@test.cd")
	hh2 := testutil.CreateHousehold(t, repo, "Jean", "Mbala", "", "jean@test.cd")
	ben := testutil.CreateStudent(t, repo, hh1.ID, "Ben", "Kabila", "6e A", tstamp)
	eva := testutil.CreateStudent(t, repo, hh1.ID, "Eva", "Kabila", "4e B", tstamp.Add(time.Minute))
	paul := testutil.CreateStudent(t, repo, hh2.ID, "Paul", "Mbala", "CM2", tstamp.Add(2*time.Minute))

	t.Run("unknown household", func(t *testing.T) {
		_, err := repo.CreateStudent(ctx, household.Student{
			ID:          core.NewID(),
			FirstName:   "Ghost",
			LastName:    "Ghost",
			Class:       "6e A",
			HouseholdID: "lol",
			CreatedAt:   tstamp,
			UpdatedAt:   tstamp,
		})
		assert.True(t, core.IsNotFound(err), "unexpected error: %v", err)
	})

	t.Run("get", func(t *testing.T) {
		got, err := repo.GetStudentByID(ctx, ben.ID)
		require.NoError(t, err)
		assert.Equal(t, ben, got)

		_, err = repo.GetStudentByID(ctx, "lol")
		assert.True(t, core.IsNotFound(err))
	})

	filterTests := []struct {
		name   string
		filter household.StudentFilter
		want   []household.Student
	}{
		{name: "all", want: []household.Student{paul, eva, ben}},
		{name: "by household", filter: household.StudentFilter{HouseholdID: hh1.ID}, want: []household.Student{eva, ben}},
		{name: "no match", filter: household.StudentFilter{HouseholdID: "lol"}, want: []household.Student{}},
	}
	for _, tt := range filterTests {
		t.Run("filter: "+tt.name, func(t *testing.T) {
			got, err := repo.FilterStudents(ctx, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("household with students cannot be deleted", func(t *testing.T) {
		err := repo.DeleteHousehold(ctx, hh1.ID)
		assert.True(t, core.IsConflict(err), "unexpected error: %v", err)
		_, err = repo.GetHouseholdByID(ctx, hh1.ID)
		assert.NoError(t, err)
	})

	t.Run("move to another household", func(t *testing.T) {
		upd := eva
		upd.HouseholdID = hh2.ID
		upd.Class = "3e A"
		_, err := repo.UpdateStudent(ctx, upd)
		require.NoError(t, err)

		students, err := repo.FilterStudents(ctx, household.StudentFilter{HouseholdID: hh2.ID})
		require.NoError(t, err)
		assert.Len(t, students, 2)

		got, err := repo.GetStudentByID(ctx, eva.ID)
		require.NoError(t, err)
		assert.Equal(t, upd, got)
	})

	t.Run("update: not found", func(t *testing.T) {
		_, err := repo.UpdateStudent(ctx, household.Student{ID: "lol", HouseholdID: hh1.ID})
		assert.True(t, core.IsNotFound(err))
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, repo.DeleteStudent(ctx, paul.ID))
		_, err := repo.GetStudentByID(ctx, paul.ID)
		assert.True(t, core.IsNotFound(err))
	})
}
