package tests

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/ecolage/core/household"
	"github.com/trezcool/ecolage/core/ledger"
	"github.com/trezcool/ecolage/tests"
)

func Test_householdApi_households(t *testing.T) {
	f := setup(t)
	t1 := time.Date(2025, 8, 1, 9, 0, 0, 0, time.UTC)

	hh1 := testutil.CreateHousehold(t, f.stores.Households, "Awa", "Kabila", "+243 810 000 000", "awa@test.cd", t1)
	hh2 := testutil.CreateHousehold(t, f.stores.Households, "Jean", "Mbala", "", "jean@test.cd", t1.Add(time.Hour))
	busy := testutil.CreateHousehold(t, f.stores.Households, "Marie", "Tshala", "", "marie@test.cd", t1.Add(2*time.Hour))
	testutil.CreateStudent(t, f.stores.Households, busy.ID, "Paul", "Tshala", "CM2")

	tests := []httpTest{
		{name: "auth required", path: "/v1/households", wantCode: http.StatusUnauthorized, wantData: marshalObj(t, errMissingToken)},
		{name: "invalid token", path: "/v1/households", token: "lol", wantCode: http.StatusUnauthorized, wantData: marshalObj(t, errInvalidToken)},
		{name: "list: newest first", path: "/v1/households", token: f.staffToken, wantData: marshalList(t, busy, hh2, hh1)},
		{name: "retrieve", path: "/v1/households/" + hh1.ID, token: f.staffToken, wantData: marshalObj(t, hh1)},
		{
			name: "retrieve: not found", path: "/v1/households/lol", token: f.staffToken,
			wantCode: http.StatusNotFound, wantData: marshalObj(t, httpErr{Error: `household "lol" not found`}),
		},
		{
			name: "create: invalid", method: http.MethodPost, path: "/v1/households", token: f.staffToken,
			body:     []byte(`{"first_name": "  ", "phone": "lol", "email": "lol"}`),
			wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, map[string]string{
				"first_name": "this field is required",
				"last_name":  "this field is required",
				"phone":      "invalid phone number",
				"email":      "email must be a valid email address",
			}),
		},
		{
			name: "update: not found", method: http.MethodPut, path: "/v1/households/lol", token: f.staffToken,
			body:     []byte(`{"first_name": "Awa", "last_name": "Kabila"}`),
			wantCode: http.StatusNotFound, wantData: marshalObj(t, httpErr{Error: `household "lol" not found`}),
		},
		{
			name: "delete: has students", method: http.MethodDelete, path: "/v1/households/" + busy.ID, token: f.staffToken,
			wantCode: http.StatusConflict,
			wantData: marshalObj(t, httpErr{Error: `household "` + busy.ID + `": cannot delete: household still has students`}),
		},
		{name: "delete", method: http.MethodDelete, path: "/v1/households/" + hh2.ID, token: f.staffToken, wantCode: http.StatusNoContent},
		{name: "list after delete", path: "/v1/households", token: f.staffToken, wantData: marshalList(t, busy, hh1)},
	}
	for _, tt := range tests {
		tt.run(t, f.app)
	}

	t.Run("create: malformed body", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/households", f.staffToken, []byte(`{"first_name": 1}`))
		f.app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("create", func(t *testing.T) {
		body := []byte(`{"first_name": " Awa ", "last_name": "Mutombo", "phone": "+243 820 000 000", "email": " AWA.M@Test.CD "}`)
		req, rec := newAuthRequest(http.MethodPost, "/v1/households", f.staffToken, body)
		f.app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var got household.Household
		decode(t, rec, &got)
		assert.NotEmpty(t, got.ID)
		assert.Equal(t, "Awa", got.FirstName)
		assert.Equal(t, "awa.m@test.cd", got.Email)

		stored, err := f.svcs.Households.GetHousehold(context.Background(), got.ID)
		require.NoError(t, err)
		assert.Equal(t, stored.Phone, got.Phone)
	})

	t.Run("update", func(t *testing.T) {
		body := []byte(`{"first_name": "Awa", "last_name": "Kabila", "email": "awa.k@test.cd"}`)
		req, rec := newAuthRequest(http.MethodPut, "/v1/households/"+hh1.ID, f.staffToken, body)
		f.app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var got household.Household
		decode(t, rec, &got)
		assert.Equal(t, hh1.ID, got.ID)
		assert.Equal(t, "awa.k@test.cd", got.Email)
		assert.Empty(t, got.Phone) // fields are replaced, not merged
		assert.True(t, got.CreatedAt.Equal(hh1.CreatedAt))
	})
}

func Test_householdApi_students(t *testing.T) {
	f := setup(t)
	t1 := time.Date(2025, 8, 1, 9, 0, 0, 0, time.UTC)

	hh1 := testutil.CreateHousehold(t, f.stores.Households, "Awa", "Kabila", "", "awa@test.cd")
	hh2 := testutil.CreateHousehold(t, f.stores.Households, "Jean", "Mbala", "", "jean@test.cd")
	ben := testutil.CreateStudent(t, f.stores.Households, hh1.ID, "Ben", "Kabila", "6e A", t1)
	eva := testutil.CreateStudent(t, f.stores.Households, hh1.ID, "Eva", "Kabila", "4e B", t1.Add(time.Minute))
	paul := testutil.CreateStudent(t, f.stores.Households, hh2.ID, "Paul", "Mbala", "CM2", t1.Add(2*time.Minute))
	testutil.CreateFeePlan(t, f.stores.FeePlans, eva.ID, []ledger.NewInstallment{testutil.Inst("2025-09-01", "100.00")})

	tests := []httpTest{
		{name: "auth required", path: "/v1/students", wantCode: http.StatusUnauthorized, wantData: marshalObj(t, errMissingToken)},
		{name: "list", path: "/v1/students", token: f.staffToken, wantData: marshalList(t, paul, eva, ben)},
		{name: "list by household", path: "/v1/students?household_id=" + hh1.ID, token: f.staffToken, wantData: marshalList(t, eva, ben)},
		{name: "list: no match", path: "/v1/students?household_id=lol", token: f.staffToken, wantData: marshalList(t)},
		{name: "retrieve", path: "/v1/students/" + ben.ID, token: f.staffToken, wantData: marshalObj(t, ben)},
		{
			name: "create: invalid", method: http.MethodPost, path: "/v1/students", token: f.staffToken,
			body:     []byte(`{"first_name": "Zoe"}`),
			wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, map[string]string{
				"last_name":    "this field is required",
				"class":        "this field is required",
				"household_id": "this field is required",
			}),
		},
		{
			name: "create: unknown household", method: http.MethodPost, path: "/v1/students", token: f.staffToken,
			body:     []byte(`{"first_name": "Zoe", "last_name": "Kabila", "class": "CP", "household_id": "lol"}`),
			wantCode: http.StatusNotFound, wantData: marshalObj(t, httpErr{Error: `household "lol" not found`}),
		},
		{
			name: "delete: has fee plans", method: http.MethodDelete, path: "/v1/students/" + eva.ID, token: f.staffToken,
			wantCode: http.StatusConflict,
			wantData: marshalObj(t, httpErr{Error: `student "` + eva.ID + `": cannot delete: student still has fee plans`}),
		},
		{name: "delete", method: http.MethodDelete, path: "/v1/students/" + paul.ID, token: f.staffToken, wantCode: http.StatusNoContent},
		{
			name: "delete: not found", method: http.MethodDelete, path: "/v1/students/" + paul.ID, token: f.staffToken,
			wantCode: http.StatusNotFound, wantData: marshalObj(t, httpErr{Error: `student "` + paul.ID + `" not found`}),
		},
	}
	for _, tt := range tests {
		tt.run(t, f.app)
	}

	t.Run("create", func(t *testing.T) {
		body := []byte(`{"first_name": "Zoe", "last_name": "Kabila", "class": " CP ", "household_id": "` + hh1.ID + `"}`)
		req, rec := newAuthRequest(http.MethodPost, "/v1/students", f.staffToken, body)
		f.app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var got household.Student
		decode(t, rec, &got)
		assert.Equal(t, "CP", got.Class)
		assert.Equal(t, hh1.ID, got.HouseholdID)
	})

	t.Run("move to another household", func(t *testing.T) {
		body := []byte(`{"first_name": "Ben", "last_name": "Kabila", "class": "5e A", "household_id": "` + hh2.ID + `"}`)
		req, rec := newAuthRequest(http.MethodPut, "/v1/students/"+ben.ID, f.staffToken, body)
		f.app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		students, err := f.svcs.Households.QueryStudents(context.Background(), household.StudentFilter{HouseholdID: hh2.ID})
		require.NoError(t, err)
		if assert.Len(t, students, 1) {
			assert.Equal(t, ben.ID, students[0].ID)
			assert.Equal(t, "5e A", students[0].Class)
		}
	})

	t.Run("update: unknown household", func(t *testing.T) {
		body := []byte(`{"first_name": "Ben", "last_name": "Kabila", "class": "5e A", "household_id": "lol"}`)
		req, rec := newAuthRequest(http.MethodPut, "/v1/students/"+ben.ID, f.staffToken, body)
		f.app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		checkCodeAndData(t, httpTest{wantCode: http.StatusNotFound, wantData: marshalObj(t, httpErr{Error: `household "lol" not found`})}, rec)
	})
}
