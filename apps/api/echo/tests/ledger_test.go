package tests

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/ecolage/core"
	"github.com/trezcool/ecolage/core/ledger"
	"github.com/trezcool/ecolage/tests"
)

func Test_ledgerApi_feePlans(t *testing.T) {
	f := setup(t)
	t1 := time.Date(2025, 8, 1, 9, 0, 0, 0, time.UTC)

	hh := testutil.CreateHousehold(t, f.stores.Households, "Awa", "Kabila", "", "awa@test.cd")
	ben := testutil.CreateStudent(t, f.stores.Households, hh.ID, "Ben", "Kabila", "6e A")
	eva := testutil.CreateStudent(t, f.stores.Households, hh.ID, "Eva", "Kabila", "4e B")
	fp1 := testutil.CreateFeePlan(t, f.stores.FeePlans, ben.ID, []ledger.NewInstallment{
		testutil.Inst("2025-09-01", "100.00"),
		testutil.Inst("2025-10-01", "100.00"),
	}, t1)
	fp2 := testutil.CreateFeePlan(t, f.stores.FeePlans, eva.ID, []ledger.NewInstallment{
		testutil.Inst("2025-09-15", "450.00"),
	}, t1.Add(time.Hour))

	sep20 := core.MustParseDate("2025-09-20")
	view := func(fp ledger.FeePlan, asOf core.Date) ledger.FeePlanView { return ledger.NewFeePlanView(fp, asOf) }

	tests := []httpTest{
		{name: "auth required", path: "/v1/fee-plans", wantCode: http.StatusUnauthorized, wantData: marshalObj(t, errMissingToken)},
		{
			name: "list as of a day", path: "/v1/fee-plans?date=2025-09-20", token: f.staffToken,
			wantData: marshalList(t, view(fp2, sep20), view(fp1, sep20)),
		},
		{
			name: "list by student", path: "/v1/fee-plans?date=2025-09-20&student_id=" + ben.ID, token: f.staffToken,
			wantData: marshalList(t, view(fp1, sep20)),
		},
		{
			name: "retrieve", path: "/v1/fee-plans/" + fp1.ID + "?date=2025-08-31", token: f.staffToken,
			wantData: marshalObj(t, view(fp1, core.MustParseDate("2025-08-31"))),
		},
		{
			name: "retrieve: bad date", path: "/v1/fee-plans/" + fp1.ID + "?date=31/08/2025", token: f.staffToken,
			wantCode: http.StatusBadRequest, wantData: marshalObj(t, map[string]string{"date": "date must be formatted as YYYY-MM-DD"}),
		},
		{
			name: "retrieve: not found", path: "/v1/fee-plans/lol", token: f.staffToken,
			wantCode: http.StatusNotFound, wantData: marshalObj(t, httpErr{Error: `fee plan "lol" not found`}),
		},
		{
			name: "create: invalid", method: http.MethodPost, path: "/v1/fee-plans", token: f.staffToken,
			body:     []byte(`{"school_year": "2025-2027", "installments": [{"due_date": "2025-09-01", "amount": 100}]}`),
			wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, map[string]string{
				"student_id":  "this field is required",
				"school_year": "school year must look like 2025-2026",
			}),
		},
		{
			name: "create: no installments", method: http.MethodPost, path: "/v1/fee-plans", token: f.staffToken,
			body:     []byte(`{"student_id": "` + ben.ID + `", "school_year": "2025-2026"}`),
			wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, map[string]string{"installments": "at least one installment or a schedule is required"}),
		},
		{
			name: "create: total mismatch", method: http.MethodPost, path: "/v1/fee-plans", token: f.staffToken,
			body: []byte(`{"student_id": "` + ben.ID + `", "school_year": "2025-2026", "total_amount": 500,
				"installments": [{"due_date": "2025-09-01", "amount": 100}, {"due_date": "2025-10-01", "amount": "200.00"}]}`),
			wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, map[string]string{"total_amount": "total amount must equal the sum of installments (300.00)"}),
		},
		{
			name: "create: unknown student", method: http.MethodPost, path: "/v1/fee-plans", token: f.staffToken,
			body:     []byte(`{"student_id": "lol", "school_year": "2025-2026", "installments": [{"due_date": "2025-09-01", "amount": 100}]}`),
			wantCode: http.StatusNotFound, wantData: marshalObj(t, httpErr{Error: `student "lol" not found`}),
		},
	}
	for _, tt := range tests {
		tt.run(t, f.app)
	}

	t.Run("create with installments", func(t *testing.T) {
		body := []byte(`{"student_id": "` + ben.ID + `", "school_year": "2025-2026",
			"installments": [{"due_date": "2025-09-01", "amount": 150.5}, {"due_date": "2025-10-01", "amount": "149.50"}]}`)
		req, rec := newAuthRequest(http.MethodPost, "/v1/fee-plans", f.staffToken, body)
		f.app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var got ledger.FeePlanView
		decode(t, rec, &got)
		assert.Equal(t, ben.ID, got.StudentID)
		assert.Equal(t, core.MustParseMoney("300.00"), got.TotalAmount)
		assert.Zero(t, got.AmountPaid)
		assert.Equal(t, core.MustParseMoney("300.00"), got.Balance)
		if assert.Len(t, got.Installments, 2) {
			assert.Equal(t, core.MustParseMoney("150.50"), got.Installments[0].Amount)
			assert.Equal(t, ledger.StatusPending, got.Installments[0].Status)
			assert.Equal(t, core.MustParseDate("2025-10-01"), got.Installments[1].DueDate)
		}
	})

	t.Run("create with a schedule", func(t *testing.T) {
		body := []byte(`{"student_id": "` + eva.ID + `", "school_year": "2025-2026", "total_amount": 1000,
			"schedule": {"count": 3, "first_due_date": "2025-09-30"}}`)
		req, rec := newAuthRequest(http.MethodPost, "/v1/fee-plans", f.staffToken, body)
		f.app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var got ledger.FeePlanView
		decode(t, rec, &got)
		require.Len(t, got.Installments, 3)
		wantDue := []string{"2025-09-30", "2025-10-30", "2025-11-30"}
		wantAmount := []string{"333.33", "333.33", "333.34"}
		for i, inst := range got.Installments {
			assert.Equal(t, core.MustParseDate(wantDue[i]), inst.DueDate)
			assert.Equal(t, core.MustParseMoney(wantAmount[i]), inst.Amount)
		}
	})
}

func Test_ledgerApi_payments(t *testing.T) {
	f := setup(t)

	hh := testutil.CreateHousehold(t, f.stores.Households, "Awa", "Kabila", "", "awa@test.cd")
	ben := testutil.CreateStudent(t, f.stores.Households, hh.ID, "Ben", "Kabila", "6e A")
	fp := testutil.CreateFeePlan(t, f.stores.FeePlans, ben.ID, []ledger.NewInstallment{
		testutil.Inst("2025-09-01", "100.00"),
		testutil.Inst("2025-10-01", "200.00"),
	})
	first, second := fp.Installments[0], fp.Installments[1]
	path := "/v1/fee-plans/" + fp.ID + "/payments"

	t.Run("pay", func(t *testing.T) {
		body := []byte(`{"installment_id": "` + first.ID + `", "amount": 100}`)
		req, rec := newAuthRequest(http.MethodPost, path, f.staffToken, body)
		f.app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var got ledger.FeePlanView
		decode(t, rec, &got)
		assert.Equal(t, core.MustParseMoney("100.00"), got.AmountPaid)
		assert.Equal(t, core.MustParseMoney("200.00"), got.Balance)
		require.Len(t, got.Installments, 2)
		assert.Equal(t, ledger.StatusPaid, got.Installments[0].Status)
		assert.Equal(t, ledger.StatusPaid, got.Installments[0].DerivedStatus)
		assert.NotNil(t, got.Installments[0].PaidAt)
	})

	tests := []httpTest{
		{
			name: "auth required", method: http.MethodPost, path: path,
			body:     []byte(`{"installment_id": "` + second.ID + `", "amount": 200}`),
			wantCode: http.StatusUnauthorized, wantData: marshalObj(t, errMissingToken),
		},
		{
			name: "already paid", method: http.MethodPost, path: path, token: f.staffToken,
			body:     []byte(`{"installment_id": "` + first.ID + `", "amount": 100}`),
			wantCode: http.StatusConflict,
			wantData: marshalObj(t, httpErr{Error: `installment "` + first.ID + `": installment already paid`}),
		},
		{
			name: "wrong amount", method: http.MethodPost, path: path, token: f.staffToken,
			body:     []byte(`{"installment_id": "` + second.ID + `", "amount": 150}`),
			wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, map[string]string{"amount": "amount must equal the installment amount (200.00)"}),
		},
		{
			name: "missing installment", method: http.MethodPost, path: path, token: f.staffToken,
			body:     []byte(`{"amount": 200}`),
			wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, map[string]string{"installment_id": "this field is required"}),
		},
		{
			name: "unknown installment", method: http.MethodPost, path: path, token: f.staffToken,
			body:     []byte(`{"installment_id": "lol", "amount": 200}`),
			wantCode: http.StatusNotFound, wantData: marshalObj(t, httpErr{Error: `installment "lol" not found`}),
		},
		{
			name: "unknown fee plan", method: http.MethodPost, path: "/v1/fee-plans/lol/payments", token: f.staffToken,
			body:     []byte(`{"installment_id": "` + second.ID + `", "amount": 200}`),
			wantCode: http.StatusNotFound, wantData: marshalObj(t, httpErr{Error: `fee plan "lol" not found`}),
		},
	}
	for _, tt := range tests {
		tt.run(t, f.app)
	}

	stored, err := f.svcs.Ledger.GetFeePlan(context.Background(), fp.ID)
	require.NoError(t, err)
	assert.Equal(t, core.MustParseMoney("100.00"), stored.AmountPaid)
	assert.Equal(t, ledger.StatusPending, stored.Installments[1].Status)

	deletes := []httpTest{
		{name: "delete", method: http.MethodDelete, path: "/v1/fee-plans/" + fp.ID, token: f.staffToken, wantCode: http.StatusNoContent},
		{
			name: "delete: not found", method: http.MethodDelete, path: "/v1/fee-plans/" + fp.ID, token: f.staffToken,
			wantCode: http.StatusNotFound, wantData: marshalObj(t, httpErr{Error: `fee plan "` + fp.ID + `" not found`}),
		},
	}
	for _, tt := range deletes {
		tt.run(t, f.app)
	}
}
