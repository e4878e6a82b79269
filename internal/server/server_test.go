package server

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/delordemm1/cryptjournal-api/internal/auth"
	"github.com/delordemm1/cryptjournal-api/internal/config"
	"github.com/delordemm1/cryptjournal-api/internal/metrics"
	"github.com/delordemm1/cryptjournal-api/internal/modules/user"
	"github.com/delordemm1/cryptjournal-api/internal/modules/user/usertest"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const (
	email    = "a@x.com"
	password = "Abcdef1!"
)

type testServer struct {
	handler    http.Handler
	repo       *usertest.Repository
	dispatcher *usertest.Dispatcher
	metrics    *metrics.Metrics
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	cfg := &config.Config{}
	cfg.App.Name = "Crypt Journal"
	cfg.App.FrontendURL = "http://localhost:3000"
	cfg.Auth.ResetTokenTTL = 15 * time.Minute
	cfg.Mail.DispatchTimeout = time.Second

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	ts := &testServer{
		repo:       usertest.NewRepository(),
		dispatcher: &usertest.Dispatcher{},
		metrics:    metrics.NewWithRegistry(prometheus.NewRegistry()),
	}
	svc := user.NewService(&user.Config{
		Repo:       ts.repo,
		Logger:     log,
		Config:     cfg,
		Hasher:     auth.NewPasswordHasher(bcrypt.MinCost),
		Tokens:     tokens,
		Dispatcher: ts.dispatcher,
	})
	ts.handler = New(cfg, log, svc, tokens, ts.metrics)
	return ts
}

type response struct {
	Status int
	Body   map[string]any
}

func (ts *testServer) do(t *testing.T, method, path, token string, body any) response {
	t.Helper()

	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)

	out := response{Status: rec.Code}
	if rec.Body.Len() > 0 && strings.Contains(rec.Header().Get("Content-Type"), "json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out.Body), rec.Body.String())
	}
	return out
}

func signUpBody(mail, pw, confirm string) map[string]string {
	return map[string]string{
		"firstName":       "Ada",
		"lastName":        "Lovelace",
		"email":           mail,
		"password":        pw,
		"confirmPassword": confirm,
	}
}

func (ts *testServer) signUp(t *testing.T) string {
	t.Helper()
	res := ts.do(t, http.MethodPost, "/api/auth/sign_up", "", signUpBody(email, password, password))
	require.Equal(t, http.StatusCreated, res.Status, res.Body)
	token, _ := res.Body["token"].(string)
	require.NotEmpty(t, token)
	return token
}

func TestHealth(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)
	res := ts.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, res.Status)
	assert.Equal(t, "ok", res.Body["status"])
}

func TestNotFound(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)
	res := ts.do(t, http.MethodGet, "/api/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, res.Status)
	assert.Equal(t, "Not found", res.Body["message"])
}

func TestSignUpAndLogin(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)

	res := ts.do(t, http.MethodPost, "/api/auth/sign_up", "", signUpBody(email, password, password))
	require.Equal(t, http.StatusCreated, res.Status)
	assert.Equal(t, "User Account Created.", res.Body["message"])
	assert.NotEmpty(t, res.Body["token"])
	u, _ := res.Body["user"].(map[string]any)
	assert.Equal(t, email, u["email"])
	assert.NotEmpty(t, u["id"])
	assert.NotContains(t, res.Body, "password")

	res = ts.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": email, "password": password})
	require.Equal(t, http.StatusCreated, res.Status)
	assert.Equal(t, "Login was successful.", res.Body["message"])
	assert.NotEmpty(t, res.Body["token"])

	res = ts.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": email, "password": "Wrong123!"})
	assert.Equal(t, http.StatusUnauthorized, res.Status)
	assert.Equal(t, "Invalid email or password.", res.Body["message"])

	res = ts.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "nobody@x.com", "password": password})
	assert.Equal(t, http.StatusUnauthorized, res.Status)
	assert.Equal(t, "Invalid email or password.", res.Body["message"])
}

func TestSignUpRejections(t *testing.T) {
	t.Parallel()

	t.Run("mismatch", func(t *testing.T) {
		ts := newTestServer(t)
		res := ts.do(t, http.MethodPost, "/api/auth/sign_up", "", signUpBody(email, password, "Abcdef1?"))
		assert.Equal(t, http.StatusBadRequest, res.Status)
		assert.Equal(t, "The passwords do not match. Make sure that the passwords match.", res.Body["message"])
		assert.Zero(t, ts.repo.Count(email))
	})

	t.Run("weak password", func(t *testing.T) {
		ts := newTestServer(t)
		res := ts.do(t, http.MethodPost, "/api/auth/sign_up", "", signUpBody(email, "abcdefgh", "abcdefgh"))
		assert.Equal(t, http.StatusBadRequest, res.Status)
		assert.Equal(t, auth.ErrPasswordTooWeak.Error(), res.Body["message"])
	})

	t.Run("invalid email", func(t *testing.T) {
		ts := newTestServer(t)
		res := ts.do(t, http.MethodPost, "/api/auth/sign_up", "", signUpBody("not-an-email", password, password))
		assert.Equal(t, http.StatusBadRequest, res.Status)
		assert.Equal(t, "invalid email", res.Body["message"])
	})

	t.Run("missing field", func(t *testing.T) {
		ts := newTestServer(t)
		body := signUpBody(email, password, password)
		delete(body, "lastName")
		res := ts.do(t, http.MethodPost, "/api/auth/sign_up", "", body)
		assert.Equal(t, http.StatusBadRequest, res.Status)
		assert.Equal(t, "lastName is required", res.Body["message"])
	})

	t.Run("duplicate email", func(t *testing.T) {
		ts := newTestServer(t)
		ts.signUp(t)
		res := ts.do(t, http.MethodPost, "/api/auth/sign_up", "", signUpBody(email, password, password))
		assert.Equal(t, http.StatusInternalServerError, res.Status)
		assert.Equal(t, "Server Error.", res.Body["message"])
		assert.Equal(t, 1, ts.repo.Count(email))
	})

	t.Run("already logged in", func(t *testing.T) {
		ts := newTestServer(t)
		token := ts.signUp(t)
		res := ts.do(t, http.MethodPost, "/api/auth/sign_up", token, signUpBody("b@x.com", password, password))
		assert.Equal(t, http.StatusBadRequest, res.Status)
		assert.Equal(t, "You are already logged in.", res.Body["message"])
		assert.Zero(t, ts.repo.Count("b@x.com"))
	})
}

func TestLoginWhileLoggedIn(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)
	token := ts.signUp(t)

	res := ts.do(t, http.MethodPost, "/api/auth/login", token, map[string]string{"email": email, "password": password})
	assert.Equal(t, http.StatusBadRequest, res.Status)
	assert.Equal(t, "You are already logged in.", res.Body["message"])

	res = ts.do(t, http.MethodPost, "/api/auth/login", token, map[string]string{"email": email})
	assert.Equal(t, http.StatusBadRequest, res.Status)
	assert.Equal(t, "You are already logged in.", res.Body["message"])

	res = ts.do(t, http.MethodPost, "/api/auth/forgot_password", token, map[string]string{})
	assert.Equal(t, http.StatusBadRequest, res.Status)
	assert.Equal(t, "You are already logged in.", res.Body["message"])
}

func TestPasswordResetFlow(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)
	ts.signUp(t)

	res := ts.do(t, http.MethodPost, "/api/auth/forgot_password", "", map[string]string{"userEmail": email})
	require.Equal(t, http.StatusCreated, res.Status)
	assert.Equal(t, "Password reset link sent.", res.Body["message"])

	link, err := ts.dispatcher.Last()
	require.NoError(t, err)
	assert.Equal(t, email, link.Email)
	require.True(t, strings.HasPrefix(link.URL, "http://localhost:3000/reset_password/"), link.URL)
	token := strings.TrimPrefix(link.URL, "http://localhost:3000/reset_password/")

	const newPassword = "Xyz98765#"
	change := map[string]string{"new_password": newPassword, "confirm_new_password": newPassword, "token": token}

	res = ts.do(t, http.MethodPost, "/api/auth/change_password", "", change)
	require.Equal(t, http.StatusCreated, res.Status)
	assert.Equal(t, "Password has been successfully updated.", res.Body["message"])

	res = ts.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": email, "password": password})
	assert.Equal(t, http.StatusUnauthorized, res.Status)

	res = ts.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": email, "password": newPassword})
	assert.Equal(t, http.StatusCreated, res.Status)

	res = ts.do(t, http.MethodPost, "/api/auth/change_password", "", change)
	assert.Equal(t, http.StatusBadRequest, res.Status)
	assert.Equal(t, "Invalid password reset token.", res.Body["message"])
}

func TestForgotPasswordUnknownEmail(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)
	res := ts.do(t, http.MethodPost, "/api/auth/forgot_password", "", map[string]string{"userEmail": "nobody@x.com"})
	assert.Equal(t, http.StatusUnauthorized, res.Status)
	assert.Equal(t, "No account with that email address was found in our system.", res.Body["message"])
	assert.Empty(t, ts.dispatcher.Links())
}

func TestChangePasswordMismatch(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)
	res := ts.do(t, http.MethodPost, "/api/auth/change_password", "", map[string]string{
		"new_password": "Xyz98765#", "confirm_new_password": "Xyz98765$", "token": "whatever",
	})
	assert.Equal(t, http.StatusBadRequest, res.Status)
	assert.Equal(t, "The passwords do not match. Make sure that the passwords match.", res.Body["message"])
}

func TestProfile(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)
	token := ts.signUp(t)

	res := ts.do(t, http.MethodGet, "/api/profile/getUserAccountInfo", "", nil)
	assert.Equal(t, http.StatusUnauthorized, res.Status)
	assert.Equal(t, "Unauthorized", res.Body["message"])

	res = ts.do(t, http.MethodGet, "/api/profile/getUserAccountInfo", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, res.Status)

	res = ts.do(t, http.MethodGet, "/api/profile/getUserAccountInfo", token, nil)
	require.Equal(t, http.StatusOK, res.Status)
	assert.Equal(t, "User information retrieved successfully.", res.Body["message"])
	data, _ := res.Body["data"].(map[string]any)
	assert.Equal(t, "Ada", data["first_name"])
	assert.Equal(t, email, data["email"])
	assert.Equal(t, false, data["mfa_enabled"])

	res = ts.do(t, http.MethodPost, "/api/profile/editAccountInformation", token, map[string]any{
		"firstName":  "Augusta",
		"mfaEnabled": true,
	})
	require.Equal(t, http.StatusOK, res.Status, res.Body)
	assert.Equal(t, "Account information has been updated.", res.Body["message"])

	res = ts.do(t, http.MethodGet, "/api/profile/getUserAccountInfo", token, nil)
	data, _ = res.Body["data"].(map[string]any)
	assert.Equal(t, "Augusta", data["first_name"])
	assert.Equal(t, true, data["mfa_enabled"])

	res = ts.do(t, http.MethodPost, "/api/profile/editAccountInformation", token, map[string]any{"lastName": "   "})
	assert.Equal(t, http.StatusBadRequest, res.Status)
	res = ts.do(t, http.MethodGet, "/api/profile/getUserAccountInfo", token, nil)
	data, _ = res.Body["data"].(map[string]any)
	assert.Equal(t, "Lovelace", data["last_name"])

	res = ts.do(t, http.MethodPost, "/api/profile/editAccountInformation", "", map[string]any{"firstName": "X"})
	assert.Equal(t, http.StatusUnauthorized, res.Status)
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)
	ts.signUp(t)
	ts.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": email, "password": "Wrong123!"})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, `auth_attempts_total{flow="sign_up",outcome="success"} 1`)
	assert.Contains(t, body, `auth_attempts_total{flow="login",outcome="rejected"} 1`)
	assert.Contains(t, body, `http_requests_total{method="POST",path="/api/auth/login",status="401"} 1`)
}
