package tests

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"

	. "github.com/trezcool/ecolage/apps/api/echo"
	"github.com/trezcool/ecolage/apps/shared"
	"github.com/trezcool/ecolage/core"
	emailsvc "github.com/trezcool/ecolage/services/email"
	smssvc "github.com/trezcool/ecolage/services/sms"
	"github.com/trezcool/ecolage/tests"
)

var (
	errMissingToken = httpErr{Error: "missing or malformed jwt"}
	errInvalidToken = httpErr{Error: "invalid or expired jwt"}
	errForbidden    = httpErr{Error: "permission denied"}

	staff = core.Identity{ID: "staff-1", Name: "Staff", Email: "staff@test.cd"}
	admin = core.Identity{ID: "admin-1", Name: "Admin", Email: "admin@test.cd", IsAdmin: true}
)

type fixture struct {
	conf       *core.Config
	app        Server
	stores     shared.Stores
	svcs       *shared.Services
	staffToken string
	adminToken string
}

func setup(t *testing.T) *fixture {
	conf := testutil.NewConfig()

	// set up DB & services
	stores := shared.NewSQLStores(testutil.PrepareDB(t))
	svcs, err := shared.NewServices(conf, testutil.NewLogger(conf), stores, emailsvc.NewConsoleServiceMock(conf), smssvc.NewConsoleServiceMock())
	if err != nil {
		t.Fatalf("NewServices() failed: %v", err)
	}

	// set up server
	app := NewServer(ServerDeps{
		Conf:           conf,
		Logger:         testutil.NewLogger(conf),
		HouseholdSvc:   svcs.Households,
		LedgerSvc:      svcs.Ledger,
		ReminderSvc:    svcs.Reminders,
		Stats:          svcs.Stats,
		DisableReqLogs: true,
	})
	t.Cleanup(func() { _ = app.Close() })

	return &fixture{
		conf:       conf,
		app:        app,
		stores:     stores,
		svcs:       svcs,
		staffToken: getToken(t, conf, staff),
		adminToken: getToken(t, conf, admin),
	}
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

func (tt httpTest) run(t *testing.T, app Server) {
	if tt.method == "" {
		tt.method = http.MethodGet
	}
	if tt.wantCode == 0 {
		tt.wantCode = http.StatusOK
	}

	t.Run(tt.name, func(t *testing.T) {
		req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func getToken(t *testing.T, conf *core.Config, id core.Identity) string {
	token, err := GenerateToken(conf, NewClaims(conf, id))
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func marshalObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marshalObj() failed: %v", err)
	}
	return data
}

func marshalList(t *testing.T, objs ...interface{}) []byte {
	if objs == nil {
		objs = []interface{}{}
	}
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marshalList() failed: %v", err)
	}
	return data
}

// decode unmarshals the recorded response into v.
func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode() failed: %v; body %s", err, rec.Body.String())
	}
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	assert.Equal(t, tt.wantCode, rec.Code, "unexpected code; body %s", rec.Body.String())
	if tt.wantData == nil {
		assert.Empty(t, rec.Body.String())
		return
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
