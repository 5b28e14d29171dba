package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicdesk/console/internal/config"
	cerrors "github.com/clinicdesk/console/internal/errors"
	"github.com/clinicdesk/console/pkg/tablectl"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("CONSOLE_BACKEND_TOKEN", "")
	var out bytes.Buffer
	root := newRootCmd(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := root.ExecuteContext(ctx)
	return out.String(), err
}

func writeConfig(t *testing.T, baseURL string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "console.yaml")
	body := "backend:\n  base_url: \"" + baseURL + "/api\"\nlog:\n  level: error\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestVersionShort(t *testing.T) {
	out, err := run(t, "version", "--short")
	require.NoError(t, err)
	assert.Equal(t, "dev\n", out)
}

func TestUsersRequiresToken(t *testing.T) {
	cfg := writeConfig(t, "http://127.0.0.1:1")
	_, err := run(t, "users", "--config", cfg)
	assert.Equal(t, "C150", cerrors.Code(err))
}

func TestUsersBadFilter(t *testing.T) {
	cfg := writeConfig(t, "http://127.0.0.1:1")
	_, err := run(t, "users", "--config", cfg, "--token", "tok", "--filter", "owner")
	assert.Equal(t, "C400", cerrors.Code(err))
}

func usersBackend(t *testing.T, status int) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/user-access", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		if status != http.StatusOK {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"message":"nope"}`))
			return
		}
		q := r.URL.Query()
		assert.Equal(t, "2", q.Get("page"))
		assert.Equal(t, "20", q.Get("limit"))
		assert.Equal(t, "userName", q.Get("sortBy"))
		assert.Equal(t, "desc", q.Get("sortDir"))
		assert.Equal(t, "owner", q.Get("role"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"data": [{"no": 21, "userId": "U021", "userName": "Rana", "role": "owner", "userType": "doctor", "active": true}],
			"pagination": {"total": 21}
		}`))
	}))
	t.Cleanup(ts.Close)
	return ts
}

func TestUsersListsPage(t *testing.T) {
	ts := usersBackend(t, http.StatusOK)
	cfg := writeConfig(t, ts.URL)

	out, err := run(t, "users", "--config", cfg, "--token", "tok",
		"--page", "2", "--limit", "20", "--sort", "userName", "--desc", "--filter", "role=owner")
	require.NoError(t, err)
	assert.Contains(t, out, "User Name")
	assert.Contains(t, out, "Rana")
	assert.Contains(t, out, "Owner")
	assert.Contains(t, out, "Showing 21-21 of 21")
	assert.Contains(t, out, "Page 2 of 2")
}

func TestUsersFromRawQueryAsJSON(t *testing.T) {
	ts := usersBackend(t, http.StatusOK)
	cfg := writeConfig(t, ts.URL)

	out, err := run(t, "users", "--config", cfg, "--token", "tok", "--json",
		"--query", "?page=2&limit=20&sortBy=userName&sortDir=desc&role=owner")
	require.NoError(t, err)

	var page struct {
		Rows  []map[string]any
		Total int
	}
	require.NoError(t, json.Unmarshal([]byte(out), &page))
	assert.Equal(t, 21, page.Total)
	require.Len(t, page.Rows, 1)
	assert.Equal(t, "Rana", page.Rows[0]["userName"])
}

func TestUsersBackendErrors(t *testing.T) {
	tests := []struct {
		status int
		code   string
	}{
		{http.StatusUnauthorized, "C151"},
		{http.StatusInternalServerError, "C200"},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			ts := usersBackend(t, tt.status)
			cfg := writeConfig(t, ts.URL)
			_, err := run(t, "users", "--config", cfg, "--token", "tok")
			assert.Equal(t, tt.code, cerrors.Code(err))
		})
	}
}

const onboardingYAML = `
user:
  first_name: Rana
  last_name: Haddad
  email: rana@clinic.test
subscription:
  plan_type: clinic
  plan_id: basic
organization:
  name: Haddad Health
complex:
  name: North Complex
  departments:
    - name: Dental
  working_hours:
    - entity_type: complex
      entity_name: North Complex
      day_of_week: monday
      is_working_day: true
      opening_time: "08:00"
      closing_time: "16:00"
clinic:
  name: Smile Clinic
  capacity:
    max_doctors: 4
services:
  - name: Cleaning
    duration_minutes: 30
    price: 50
contacts:
  - type: phone
    value: "+966500000000"
`

func writeOnboarding(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "onboarding.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestOnboardingSubmitDryRun(t *testing.T) {
	cfg := writeConfig(t, "http://127.0.0.1:1")
	file := writeOnboarding(t, onboardingYAML)

	out, err := run(t, "onboarding", "submit", "--config", cfg, "-f", file, "--dry-run")
	require.NoError(t, err)

	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &payload))
	assert.Equal(t, "Haddad Health", payload["organization"].(map[string]any)["name"])
	assert.Len(t, payload["departments"], 1)
	assert.Len(t, payload["workingHours"], 1)
	clinic := payload["clinics"].([]any)[0].(map[string]any)
	assert.Equal(t, float64(4), clinic["capacity"].(map[string]any)["maxDoctors"])
}

func TestOnboardingSubmitRejectsUnknownFields(t *testing.T) {
	cfg := writeConfig(t, "http://127.0.0.1:1")
	file := writeOnboarding(t, onboardingYAML+"surprise: true\n")

	_, err := run(t, "onboarding", "submit", "--config", cfg, "-f", file, "--dry-run")
	assert.Equal(t, "C400", cerrors.Code(err))
}

func TestOnboardingSubmit(t *testing.T) {
	var validated []string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/onboarding/validate":
			var req struct {
				Step string `json:"step"`
			}
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			validated = append(validated, req.Step)
			_, _ = w.Write([]byte(`{"success":true,"data":{"isValid":true,"errors":[]}}`))
		case "/api/onboarding/complete":
			_, _ = w.Write([]byte(`{"success":true,"data":{"success":true,"userId":"u-9","subscriptionId":"s-1"}}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer ts.Close()
	cfg := writeConfig(t, ts.URL)
	file := writeOnboarding(t, onboardingYAML)

	out, err := run(t, "onboarding", "submit", "--config", cfg, "--token", "tok", "-f", file, "--validate")
	require.NoError(t, err)
	assert.Equal(t, []string{"organization", "complex", "clinic", "services", "contact"}, validated)
	assert.Contains(t, out, "onboarded user u-9, subscription s-1")
}

func TestServerConfigFromFile(t *testing.T) {
	c := config.New()
	c.Table.SortCycle = "toggle"
	c.Session.MaxSessions = 3

	got := serverConfig(c)
	assert.Equal(t, tablectl.SortCycleToggle, got.SortCycle)
	assert.Equal(t, 3, got.Session.MaxSessions)
	assert.Equal(t, c.Auth.AllowedRoles, got.AllowedRoles)
	assert.Equal(t, c.Metrics.Path, got.MetricsPath)
}

func TestAuthOptionsWarnWithoutSecret(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	c := config.New()

	c.Auth.Secret = ""
	assert.Len(t, authOptions(c.Auth, logger), 2)
	assert.Contains(t, logs.String(), "level=WARN")
	assert.Contains(t, logs.String(), "CONSOLE_AUTH_SECRET")

	logs.Reset()
	c.Auth.Secret = "s3cret"
	assert.Len(t, authOptions(c.Auth, logger), 3)
	assert.Empty(t, logs.String())
}
