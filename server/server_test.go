package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"github.com/jrsteele09/engine-dashboard/apiclient"
	"github.com/jrsteele09/engine-dashboard/apiclient/apifake"
	"github.com/jrsteele09/engine-dashboard/server"
	"github.com/jrsteele09/engine-dashboard/session"
	"github.com/jrsteele09/engine-dashboard/tokenstore/storefake"
	"github.com/jrsteele09/engine-dashboard/users"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type testEnv struct{}

func (testEnv) GetPort() string     { return ":0" }
func (testEnv) GetAppName() string  { return "Engine Dashboard" }
func (testEnv) GetEnv() string      { return "TEST" }
func (testEnv) GetLogLevel() string { return "disabled" }

// midRand returns 0.5, which makes every generated jitter zero
type midRand struct{}

func (midRand) Float64() float64 { return 0.5 }

type fixture struct {
	fake   *apifake.Server
	client *apiclient.Client
	store  *storefake.FakeStore
	mgr    *session.Manager
	srv    *server.Server
}

func newFixture(t *testing.T, restore bool, opts ...server.Option) *fixture {
	t.Helper()
	fake := apifake.New()
	t.Cleanup(fake.Close)

	f := &fixture{
		fake:   fake,
		client: apiclient.New(fake.URL(), apiclient.WithLogger(zerolog.Nop())),
		store:  storefake.NewFakeStore(),
	}
	f.mgr = session.NewManager(f.store, f.client, session.WithLogger(zerolog.Nop()))
	f.client.SetUnauthorizedHandler(f.mgr.ExpireToken)

	opts = append([]server.Option{server.WithRand(midRand{}), server.WithLogger(zerolog.Nop())}, opts...)
	srv, err := server.New(testEnv{}, f.mgr, f.client, opts...)
	require.NoError(t, err)
	f.srv = srv

	if restore {
		f.mgr.Restore(context.Background())
	}
	return f
}

func (f *fixture) do(t *testing.T, method, target string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, target, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	rec := httptest.NewRecorder()
	f.srv.ServeHTTP(rec, req)
	return rec
}

func (f *fixture) get(t *testing.T, target string) *httptest.ResponseRecorder {
	return f.do(t, http.MethodGet, target, nil)
}

func (f *fixture) post(t *testing.T, target string, form url.Values) *httptest.ResponseRecorder {
	if form == nil {
		form = url.Values{}
	}
	return f.do(t, http.MethodPost, target, form)
}

// loginAs creates an account and signs in through the login form
func (f *fixture) loginAs(t *testing.T, username string, role users.Role) users.User {
	t.Helper()
	u := f.fake.AddUser(username, username+"@example.com", "secret1", role)
	rec := f.post(t, "/login", url.Values{"username": {username}, "password": {"secret1"}})
	require.Equal(t, http.StatusSeeOther, rec.Code, rec.Body.String())
	require.True(t, f.mgr.Current().Authenticated())
	return u
}

func requireRedirect(t *testing.T, rec *httptest.ResponseRecorder, location string) {
	t.Helper()
	require.Equal(t, http.StatusSeeOther, rec.Code, rec.Body.String())
	require.Equal(t, location, rec.Header().Get("Location"))
}

// redirectQuery checks the redirect path and returns its query
func redirectQuery(t *testing.T, rec *httptest.ResponseRecorder, path string) url.Values {
	t.Helper()
	require.Equal(t, http.StatusSeeOther, rec.Code, rec.Body.String())
	u, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	require.Equal(t, path, u.Path)
	return u.Query()
}

func TestTemplatesParse(t *testing.T) {
	for _, name := range []string{
		"loading.html", "error.html", "login.html", "register.html", "dashboard.html",
		"engines.html", "engine_detail.html", "engine_form.html", "cycle_form.html",
		"maintenance.html", "maintenance_form.html", "alerts.html",
	} {
		_, err := server.ParseTemplate(name)
		require.NoError(t, err, name)
	}
}

func TestLoadingWhileInitializing(t *testing.T) {
	f := newFixture(t, false)

	for _, target := range []string{"/dashboard", "/login", "/", "/dashboard/engines/1"} {
		rec := f.get(t, target)
		require.Equal(t, http.StatusOK, rec.Code, target)
		require.Contains(t, rec.Body.String(), "Loading", target)
		require.Equal(t, "1", rec.Header().Get("Refresh"))
		require.Empty(t, rec.Header().Get("Location"))
	}
}

func TestHealthBypassesGuard(t *testing.T) {
	f := newFixture(t, false)

	rec := f.get(t, "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "ok", body["status"])
	require.Equal(t, "initializing", body["session"])
	require.Equal(t, false, body["authenticated"])

	f.mgr.Restore(context.Background())
	rec = f.get(t, "/healthz")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "ready", body["session"])
}

func TestAnonymousNavigation(t *testing.T) {
	f := newFixture(t, true)

	requireRedirect(t, f.get(t, "/"), "/login")
	requireRedirect(t, f.get(t, "/dashboard"), "/login?from=%2Fdashboard")
	requireRedirect(t, f.get(t, "/dashboard/engines?q=CFM"), "/login?from=%2Fdashboard%2Fengines%3Fq%3DCFM")

	rec := f.get(t, "/login")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `name="password"`)

	rec = f.get(t, "/register")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `name="confirm_password"`)
}

func TestUnknownPathGoesToDashboard(t *testing.T) {
	f := newFixture(t, true)
	f.loginAs(t, "alice", users.RoleEngineer)

	requireRedirect(t, f.get(t, "/nowhere"), "/dashboard")
}

func TestFrameAndCacheHeaders(t *testing.T) {
	f := newFixture(t, true)

	rec := f.get(t, "/login")
	require.Equal(t, "SAMEORIGIN", rec.Header().Get("X-Frame-Options"))
	require.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
}

func TestLoginReturnsToRequestedPage(t *testing.T) {
	f := newFixture(t, true)
	f.fake.AddUser("alice", "alice@example.com", "secret1", users.RoleEngineer)

	rec := f.post(t, "/login", url.Values{
		"username": {"alice"},
		"password": {"secret1"},
		"from":     {"/dashboard/engines?q=CFM"},
	})
	requireRedirect(t, rec, "/dashboard/engines?q=CFM")

	s := f.mgr.Current()
	require.True(t, s.Authenticated())
	require.Equal(t, "alice", s.Username())
	require.Equal(t, "Bearer "+s.Token, f.client.AuthorizationHeader())
}

func TestLoginIgnoresForeignReturnPath(t *testing.T) {
	f := newFixture(t, true)
	f.fake.AddUser("alice", "alice@example.com", "secret1", users.RoleEngineer)

	rec := f.post(t, "/login", url.Values{
		"username": {"alice"},
		"password": {"secret1"},
		"from":     {"//evil.example.com/dashboard"},
	})
	requireRedirect(t, rec, "/dashboard")
}

func TestLoginFailures(t *testing.T) {
	f := newFixture(t, true)
	f.fake.AddUser("alice", "alice@example.com", "secret1", users.RoleEngineer)

	tests := []struct {
		name     string
		form     url.Values
		wantCode int
		wantText string
	}{
		{"missing password", url.Values{"username": {"alice"}}, http.StatusBadRequest, "Please enter both username and password"},
		{"missing username", url.Values{"password": {"secret1"}}, http.StatusBadRequest, "Please enter both username and password"},
		{"wrong password", url.Values{"username": {"alice"}, "password": {"nope"}}, http.StatusUnauthorized, "Invalid credentials"},
		{"unknown user", url.Values{"username": {"bob"}, "password": {"secret1"}}, http.StatusUnauthorized, "Invalid credentials"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.post(t, "/login", tt.form)
			require.Equal(t, tt.wantCode, rec.Code)
			require.Contains(t, rec.Body.String(), tt.wantText)
			require.False(t, f.mgr.Current().Authenticated())
		})
	}
}

func TestAuthPagesRedirectWhenSignedIn(t *testing.T) {
	f := newFixture(t, true)
	f.loginAs(t, "alice", users.RoleEngineer)

	requireRedirect(t, f.get(t, "/"), "/dashboard")
	requireRedirect(t, f.get(t, "/login"), "/dashboard")
	requireRedirect(t, f.get(t, "/register"), "/dashboard")
}

func TestRegisterValidation(t *testing.T) {
	f := newFixture(t, true)

	base := func() url.Values {
		return url.Values{
			"username":         {"carol"},
			"email":            {"carol@example.com"},
			"password":         {"secret1"},
			"confirm_password": {"secret1"},
		}
	}
	tests := []struct {
		name     string
		edit     func(url.Values)
		wantText string
	}{
		{"missing email", func(v url.Values) { v.Del("email") }, "Please fill out all required fields"},
		{"missing username", func(v url.Values) { v.Set("username", " ") }, "Please fill out all required fields"},
		{"mismatch", func(v url.Values) { v.Set("confirm_password", "secret2") }, "Passwords do not match"},
		{"too short", func(v url.Values) { v.Set("password", "abc"); v.Set("confirm_password", "abc") }, "Password must be at least 6 characters"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := base()
			tt.edit(form)
			rec := f.post(t, "/register", form)
			require.Equal(t, http.StatusBadRequest, rec.Code)
			require.Contains(t, rec.Body.String(), tt.wantText)
		})
	}
	for _, r := range f.fake.Requests() {
		require.NotContains(t, r.Path, "register")
	}
}

func TestRegisterDoesNotSignIn(t *testing.T) {
	f := newFixture(t, true)

	rec := f.post(t, "/register", url.Values{
		"username":         {"carol"},
		"email":            {"carol@example.com"},
		"password":         {"secret1"},
		"confirm_password": {"secret1"},
	})
	q := redirectQuery(t, rec, "/login")
	require.Equal(t, "Registration successful! You can now login.", q.Get("notice"))
	require.False(t, f.mgr.Current().Authenticated())

	rec = f.get(t, "/login?"+q.Encode())
	require.Contains(t, rec.Body.String(), "Registration successful! You can now login.")

	// the new account works
	rec = f.post(t, "/login", url.Values{"username": {"carol"}, "password": {"secret1"}})
	requireRedirect(t, rec, "/dashboard")
}

func TestRegisterConflict(t *testing.T) {
	f := newFixture(t, true)
	f.fake.AddUser("carol", "carol@example.com", "secret1", users.RoleTechnician)

	rec := f.post(t, "/register", url.Values{
		"username":         {"carol"},
		"email":            {"other@example.com"},
		"password":         {"secret1"},
		"confirm_password": {"secret1"},
	})
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Contains(t, rec.Body.String(), "Username already exists")
	require.Contains(t, rec.Body.String(), `value="carol"`)
}

func TestLogout(t *testing.T) {
	f := newFixture(t, true)
	f.loginAs(t, "alice", users.RoleEngineer)

	requireRedirect(t, f.post(t, "/logout", nil), "/login")

	require.False(t, f.mgr.Current().Authenticated())
	require.Empty(t, f.client.AuthorizationHeader())
	token, _ := f.store.Raw()
	require.Empty(t, token)
	requireRedirect(t, f.get(t, "/dashboard"), "/login?from=%2Fdashboard")
}

func TestRevokedTokenEndsSession(t *testing.T) {
	f := newFixture(t, true)
	f.loginAs(t, "alice", users.RoleEngineer)
	f.fake.Revoke(f.mgr.Current().Token)

	requireRedirect(t, f.get(t, "/dashboard/engines"), "/login?from=%2Fdashboard%2Fengines")
	require.False(t, f.mgr.Current().Authenticated())
	require.Empty(t, f.client.AuthorizationHeader())
}

func TestAPIUnreachable(t *testing.T) {
	f := newFixture(t, true)
	f.loginAs(t, "alice", users.RoleEngineer)
	f.fake.Close()

	rec := f.get(t, "/dashboard/engines")
	require.Equal(t, http.StatusBadGateway, rec.Code)
	require.Contains(t, rec.Body.String(), session.NetworkMessage)
	require.True(t, f.mgr.Current().Authenticated())
}

func TestDashboard(t *testing.T) {
	f := newFixture(t, true)
	f.loginAs(t, "alice", users.RoleTechnician)
	e := f.fake.AddEngine(apiclient.EngineInput{SerialNumber: "ESN-100", Model: "CFM56-7B", AircraftID: "N100"})
	f.fake.AddAlert(e.ID, apifake.AlertAnomaly, "Vibration spike detected")

	rec := f.get(t, "/dashboard")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	require.Contains(t, body, "Total engines")
	require.Contains(t, body, "Vibration spike detected")
	require.Contains(t, body, "alice")
}

func TestEnginesListSearch(t *testing.T) {
	f := newFixture(t, true)
	f.loginAs(t, "alice", users.RoleTechnician)
	f.fake.AddEngine(apiclient.EngineInput{SerialNumber: "ESN-100", Model: "CFM56-7B", AircraftID: "N100"})
	f.fake.AddEngine(apiclient.EngineInput{SerialNumber: "ESN-200", Model: "GE9X", AircraftID: "N200"})

	body := f.get(t, "/dashboard/engines").Body.String()
	require.Contains(t, body, "ESN-100")
	require.Contains(t, body, "ESN-200")
	require.NotContains(t, body, "/dashboard/engines/new", "technicians cannot add engines")

	body = f.get(t, "/dashboard/engines?q=ge9").Body.String()
	require.NotContains(t, body, "ESN-100")
	require.Contains(t, body, "ESN-200")

	body = f.get(t, "/dashboard/engines?q=n100").Body.String()
	require.Contains(t, body, "ESN-100")
	require.NotContains(t, body, "ESN-200")
}

func TestEngineRoleGuard(t *testing.T) {
	f := newFixture(t, true)
	f.loginAs(t, "tom", users.RoleTechnician)
	e := f.fake.AddEngine(apiclient.EngineInput{SerialNumber: "ESN-100"})
	id := strconv.Itoa(e.ID)

	requireRedirect(t, f.get(t, "/dashboard/engines/new"), "/dashboard")
	requireRedirect(t, f.get(t, "/dashboard/engines/"+id+"/edit"), "/dashboard")
	requireRedirect(t, f.post(t, "/dashboard/engines/"+id+"/delete", nil), "/dashboard")

	rec := f.get(t, "/dashboard/engines/"+id)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "ESN-100")
	require.NotContains(t, rec.Body.String(), "/delete")
}

func TestEncodedPathsHitTheGuard(t *testing.T) {
	f := newFixture(t, true)

	rec := f.get(t, "/%64ashboard/alerts")
	requireRedirect(t, rec, "/login?from=%2F%2564ashboard%2Falerts")
	require.Empty(t, f.fake.Requests())

	f.loginAs(t, "tom", users.RoleTechnician)
	e := f.fake.AddEngine(apiclient.EngineInput{SerialNumber: "ESN-100"})
	id := strconv.Itoa(e.ID)
	sent := len(f.fake.Requests())

	requireRedirect(t, f.get(t, "/dashboard/engines/%6eew"), "/dashboard")
	requireRedirect(t, f.get(t, "/dashboard/engines/"+id+"/%65dit"), "/dashboard")
	requireRedirect(t, f.post(t, "/dashboard/engines/"+id+"/%64elete", nil), "/dashboard")
	require.Len(t, f.fake.Requests(), sent)
}

func TestEngineCreate(t *testing.T) {
	f := newFixture(t, true)
	f.loginAs(t, "erin", users.RoleEngineer)

	rec := f.get(t, "/dashboard/engines/new")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `value="active" selected`)

	rec = f.post(t, "/dashboard/engines/new", url.Values{
		"serial_number":     {"ESN-300"},
		"model":             {"LEAP-1A"},
		"aircraft_id":       {"N300"},
		"status":            {"active"},
		"installation_date": {"2020-01-15"},
	})
	q := redirectQuery(t, rec, "/dashboard/engines")
	require.Equal(t, "Engine added successfully", q.Get("notice"))

	body := f.get(t, "/dashboard/engines").Body.String()
	require.Contains(t, body, "ESN-300")
	require.Contains(t, body, "LEAP-1A")

	rec = f.post(t, "/dashboard/engines/new", url.Values{"serial_number": {"ESN-300"}})
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Contains(t, rec.Body.String(), "Engine with this serial number already exists")
}

func TestEngineFormValidation(t *testing.T) {
	f := newFixture(t, true)
	f.loginAs(t, "erin", users.RoleEngineer)

	tests := []struct {
		name     string
		form     url.Values
		wantText string
	}{
		{"missing serial", url.Values{"model": {"GE9X"}}, "Serial number is required"},
		{"bad serial", url.Values{"serial_number": {"ESN 1!"}}, "Serial number can only contain letters, numbers, and hyphens"},
		{"future date", url.Values{"serial_number": {"ESN-1"}, "installation_date": {"2999-01-01"}}, "Installation date cannot be in the future"},
		{"bad status", url.Values{"serial_number": {"ESN-1"}, "status": {"flying"}}, "Please choose a valid status"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.post(t, "/dashboard/engines/new", tt.form)
			require.Equal(t, http.StatusBadRequest, rec.Code)
			require.Contains(t, rec.Body.String(), tt.wantText)
		})
	}
	for _, r := range f.fake.Requests() {
		require.False(t, r.Method == http.MethodPost && r.Path == "/api/engines", "invalid form reached the API")
	}
}

func TestEngineEditAndDelete(t *testing.T) {
	f := newFixture(t, true)
	f.loginAs(t, "ada", users.RoleAdmin)
	e := f.fake.AddEngine(apiclient.EngineInput{SerialNumber: "ESN-400", Model: "GE9X", InstallationDate: "2021-05-01"})
	id := strconv.Itoa(e.ID)

	rec := f.get(t, "/dashboard/engines/"+id+"/edit")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `value="2021-05-01"`)
	require.Contains(t, rec.Body.String(), "readonly")

	rec = f.post(t, "/dashboard/engines/"+id+"/edit", url.Values{
		"serial_number": {"ESN-400"},
		"model":         {"GE9X"},
		"aircraft_id":   {"N400"},
		"status":        {"maintenance"},
	})
	q := redirectQuery(t, rec, "/dashboard/engines/"+id)
	require.Equal(t, "Engine updated successfully", q.Get("notice"))

	detail, err := f.client.GetEngine(context.Background(), e.ID)
	require.NoError(t, err)
	require.Equal(t, "N400", detail.AircraftID)
	require.Equal(t, apiclient.EngineStatusMaintenance, detail.Status)

	rec = f.post(t, "/dashboard/engines/"+id+"/delete", nil)
	redirectQuery(t, rec, "/dashboard/engines")

	rec = f.get(t, "/dashboard/engines/"+id)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEngineDetailNotFound(t *testing.T) {
	f := newFixture(t, true)
	f.loginAs(t, "alice", users.RoleTechnician)

	require.Equal(t, http.StatusNotFound, f.get(t, "/dashboard/engines/999").Code)
	require.Equal(t, http.StatusNotFound, f.get(t, "/dashboard/engines/abc").Code)
}

func TestCycleSingleSubmission(t *testing.T) {
	f := newFixture(t, true)
	f.loginAs(t, "erin", users.RoleEngineer)
	e := f.fake.AddEngine(apiclient.EngineInput{SerialNumber: "ESN-500"})
	target := "/dashboard/engines/" + strconv.Itoa(e.ID) + "/cycles"

	rec := f.get(t, target)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `value="518.67"`)

	rec = f.post(t, target, url.Values{"action": {"submit"}, "cycle": {"1"}, "s4": {"1401.5"}})
	q := redirectQuery(t, rec, target)
	require.Equal(t, "Successfully added cycle #1", q.Get("notice"))

	cycles := f.fake.Cycles(e.ID)
	require.Len(t, cycles, 1)
	require.Equal(t, 1, cycles[0].Cycle)
	require.Equal(t, 1401.5, cycles[0].SensorData["s4"])
	require.Equal(t, 518.67, cycles[0].SensorData["s1"])

	// the form now proposes the next cycle and continues from the stored values
	body := f.get(t, target).Body.String()
	require.Contains(t, body, `name="cycle" type="number" min="1" value="2"`)
	require.Contains(t, body, `value="1401.5"`)

	rec = f.post(t, target, url.Values{"action": {"submit"}, "cycle": {"1"}})
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Contains(t, rec.Body.String(), "already exists for cycle 1")
}

func TestCycleBatchSubmission(t *testing.T) {
	f := newFixture(t, true)
	f.loginAs(t, "erin", users.RoleEngineer)
	e := f.fake.AddEngine(apiclient.EngineInput{SerialNumber: "ESN-600"})
	target := "/dashboard/engines/" + strconv.Itoa(e.ID) + "/cycles"

	rec := f.post(t, target, url.Values{
		"action":      {"submit"},
		"batch":       {"on"},
		"batch_start": {"1"},
		"batch_count": {"5"},
		"mode":        {"failure"},
	})
	q := redirectQuery(t, rec, target)
	require.Equal(t, "Successfully added 5 cycles (1-5)", q.Get("notice"))

	cycles := f.fake.Cycles(e.ID)
	require.Len(t, cycles, 5)
	for i, c := range cycles {
		require.Equal(t, i+1, c.Cycle)
	}
	// s4 increases across the batch
	require.Equal(t, 1400.0, cycles[0].SensorData["s4"])
	require.Greater(t, cycles[4].SensorData["s4"], cycles[0].SensorData["s4"])
}

func TestCycleFormValidation(t *testing.T) {
	f := newFixture(t, true)
	f.loginAs(t, "erin", users.RoleEngineer)
	e := f.fake.AddEngine(apiclient.EngineInput{SerialNumber: "ESN-700"})
	target := "/dashboard/engines/" + strconv.Itoa(e.ID) + "/cycles"

	tests := []struct {
		name     string
		form     url.Values
		wantText string
	}{
		{"zero cycle", url.Values{"cycle": {"0"}}, "Cycle number must be a positive whole number"},
		{"text sensor", url.Values{"s3": {"hot"}}, "Value for s3 must be a number"},
		{"batch too large", url.Values{"batch": {"on"}, "batch_count": {"51"}}, "Number of cycles must be between 1 and 50"},
		{"unknown mode", url.Values{"batch": {"on"}, "mode": {"explode"}}, "Please choose a valid degradation mode"},
		{"unknown sample", url.Values{"action": {"sample"}, "sample": {"Nope"}}, "Unknown sample data set"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.post(t, target, tt.form)
			require.Equal(t, http.StatusBadRequest, rec.Code)
			require.Contains(t, rec.Body.String(), tt.wantText)
		})
	}
	require.Empty(t, f.fake.Cycles(e.ID))
}

func TestCycleSampleAndRandomize(t *testing.T) {
	f := newFixture(t, true)
	f.loginAs(t, "erin", users.RoleEngineer)
	e := f.fake.AddEngine(apiclient.EngineInput{SerialNumber: "ESN-800"})
	target := "/dashboard/engines/" + strconv.Itoa(e.ID) + "/cycles"

	rec := f.post(t, target, url.Values{"action": {"sample"}, "sample": {"Degraded Performance"}, "cycle": {"7"}})
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	require.Contains(t, body, `value="1411.42"`)
	require.Contains(t, body, `name="cycle" type="number" min="1" value="7"`)

	// a mid-range random source leaves every value unchanged
	rec = f.post(t, target, url.Values{"action": {"randomize"}, "s4": {"1500"}})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `value="1500"`)

	require.Empty(t, f.fake.Cycles(e.ID))
}

func TestMaintenanceLifecycle(t *testing.T) {
	f := newFixture(t, true)
	f.loginAs(t, "tom", users.RoleTechnician)
	e := f.fake.AddEngine(apiclient.EngineInput{SerialNumber: "ESN-900"})
	other := f.fake.AddEngine(apiclient.EngineInput{SerialNumber: "ESN-901"})

	rec := f.get(t, "/dashboard/maintenance/new?engine_id="+strconv.Itoa(e.ID))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `value="`+strconv.Itoa(e.ID)+`" selected`)

	rec = f.post(t, "/dashboard/maintenance/new", url.Values{"engine_id": {strconv.Itoa(e.ID)}})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "Please fill in all required fields")

	rec = f.post(t, "/dashboard/maintenance/new", url.Values{
		"engine_id":        {strconv.Itoa(e.ID)},
		"maintenance_type": {"inspection"},
		"description":      {"Borescope inspection"},
		"start_date":       {"2024-03-01"},
		"parts_replaced":   {"seal, gasket ,"},
	})
	q := redirectQuery(t, rec, "/dashboard/maintenance")
	require.Equal(t, "Maintenance record added successfully", q.Get("notice"))

	f.post(t, "/dashboard/maintenance/new", url.Values{
		"engine_id":        {strconv.Itoa(other.ID)},
		"maintenance_type": {"repair"},
		"description":      {"Fuel pump swap"},
		"start_date":       {"2024-02-01"},
		"end_date":         {"2024-02-03"},
	})

	records, err := f.client.ListMaintenance(context.Background(), apiclient.MaintenanceFilter{EngineID: e.ID})
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, apiclient.Parts{"seal", "gasket"}, records[0].PartsReplaced)
	id := strconv.Itoa(records[0].ID)

	body := f.get(t, "/dashboard/maintenance").Body.String()
	require.Contains(t, body, "Borescope inspection")
	require.Contains(t, body, "Fuel pump swap")
	require.Contains(t, body, "ESN-900")

	body = f.get(t, "/dashboard/maintenance?engine_id="+strconv.Itoa(other.ID)).Body.String()
	require.NotContains(t, body, "Borescope inspection")
	require.Contains(t, body, "Fuel pump swap")

	body = f.get(t, "/dashboard/maintenance?status=active").Body.String()
	require.Contains(t, body, "Borescope inspection")
	require.NotContains(t, body, "Fuel pump swap")

	body = f.get(t, "/dashboard/maintenance?q=pump").Body.String()
	require.NotContains(t, body, "Borescope inspection")
	require.Contains(t, body, "Fuel pump swap")

	rec = f.get(t, "/dashboard/maintenance/"+id+"/edit")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "seal, gasket")

	rec = f.post(t, "/dashboard/maintenance/"+id+"/edit", url.Values{
		"engine_id":        {strconv.Itoa(e.ID)},
		"maintenance_type": {"inspection"},
		"description":      {"Borescope inspection"},
		"start_date":       {"2024-03-01"},
		"end_date":         {"2024-02-01"},
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "End date cannot be before the start date")

	rec = f.post(t, "/dashboard/maintenance/"+id+"/edit", url.Values{
		"engine_id":        {strconv.Itoa(e.ID)},
		"maintenance_type": {"inspection"},
		"description":      {"Borescope inspection"},
		"start_date":       {"2024-03-01"},
		"end_date":         {"2024-03-02"},
	})
	redirectQuery(t, rec, "/dashboard/maintenance")
	record, err := f.client.GetMaintenance(context.Background(), records[0].ID)
	require.NoError(t, err)
	require.True(t, record.Completed())

	rec = f.post(t, "/dashboard/maintenance/"+id+"/delete", nil)
	redirectQuery(t, rec, "/dashboard/maintenance")
	_, err = f.client.GetMaintenance(context.Background(), records[0].ID)
	require.Equal(t, http.StatusNotFound, apiclient.StatusCode(err))
}

func TestAlerts(t *testing.T) {
	f := newFixture(t, true)
	f.loginAs(t, "erin", users.RoleEngineer)
	e := f.fake.AddEngine(apiclient.EngineInput{SerialNumber: "ESN-950"})
	first := f.fake.AddAlert(e.ID, apifake.AlertAnomaly, "Oil pressure anomaly")
	f.fake.AddAlert(e.ID, apifake.AlertMaintenanceDue, "Maintenance due soon")

	body := f.get(t, "/dashboard/alerts").Body.String()
	require.Contains(t, body, "Oil pressure anomaly")
	require.Contains(t, body, "Maintenance due soon")
	require.Contains(t, body, "ESN-950")

	body = f.get(t, "/dashboard/alerts?q=oil").Body.String()
	require.Contains(t, body, "Oil pressure anomaly")
	require.NotContains(t, body, "Maintenance due soon")

	target := "/dashboard/alerts/" + strconv.Itoa(first)
	rec := f.post(t, target, url.Values{"action": {"read"}})
	q := redirectQuery(t, rec, "/dashboard/alerts")
	require.Equal(t, "active", q.Get("filter"))
	a, ok := f.fake.Alert(first)
	require.True(t, ok)
	require.True(t, a.IsRead)
	require.False(t, a.Resolved)

	rec = f.post(t, target, url.Values{"action": {"resolve"}, "filter": {"all"}})
	q = redirectQuery(t, rec, "/dashboard/alerts")
	require.Equal(t, "all", q.Get("filter"))
	a, _ = f.fake.Alert(first)
	require.True(t, a.Resolved)

	body = f.get(t, "/dashboard/alerts").Body.String()
	require.NotContains(t, body, "Oil pressure anomaly")

	body = f.get(t, "/dashboard/alerts?filter=resolved").Body.String()
	require.Contains(t, body, "Oil pressure anomaly")
	require.Contains(t, body, "by erin")
	require.NotContains(t, body, "Maintenance due soon")

	body = f.get(t, "/dashboard/alerts?resolved=true").Body.String()
	require.Contains(t, body, "Oil pressure anomaly")

	body = f.get(t, "/dashboard/alerts?filter=all").Body.String()
	require.Contains(t, body, "Oil pressure anomaly")
	require.Contains(t, body, "Maintenance due soon")

	rec = f.post(t, target, url.Values{"action": {"explode"}})
	q = redirectQuery(t, rec, "/dashboard/alerts")
	require.Equal(t, "Unknown alert action", q.Get("error"))

	require.Equal(t, http.StatusNotFound, f.post(t, "/dashboard/alerts/999", url.Values{"action": {"read"}}).Code)
}

func TestRecoverMiddleware(t *testing.T) {
	f := newFixture(t, true)
	h := server.ChainMiddleware(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}, f.srv.RecoverMiddleware)

	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestHTMXRedirect(t *testing.T) {
	f := newFixture(t, true)

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.Header.Set("HX-Request", "true")
	rec := httptest.NewRecorder()
	f.srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, "/login?from=%2Fdashboard", rec.Header().Get("HX-Redirect"))
}

func TestRequestLogsGoToServerLogger(t *testing.T) {
	var buf bytes.Buffer
	f := newFixture(t, true, server.WithLogger(zerolog.New(&buf).Level(zerolog.DebugLevel)))

	f.get(t, "/login")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.SplitN(buf.Bytes(), []byte("\n"), 2)[0], &entry))
	require.Equal(t, "request", entry["message"])
	require.Equal(t, "server", entry["component"])
	require.Equal(t, "/login", entry["path"])
	require.Equal(t, "200", entry["status"])
}
