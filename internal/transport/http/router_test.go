package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"regexp"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cashflow-api/internal/config"
	"github.com/cashflow-api/internal/domain"
	jwtinfra "github.com/cashflow-api/internal/infrastructure/jwt"
	"github.com/cashflow-api/internal/pkg/id"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// --- in-memory stores ---

type memUsers struct {
	mu   sync.Mutex
	byID map[string]domain.User
}

func newMemUsers() *memUsers { return &memUsers{byID: map[string]domain.User{}} }

func (m *memUsers) Create(_ context.Context, u *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.byID {
		if existing.Email == u.Email {
			return domain.ErrDuplicateEmail
		}
	}
	m.byID[u.UserID] = *u
	return nil
}

func (m *memUsers) Get(_ context.Context, userID string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &u, nil
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memUsers) Update(_ context.Context, u *domain.User, fields ...domain.UserField) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.byID[u.UserID]
	if !ok {
		return domain.ErrNotFound
	}
	for _, f := range fields {
		switch f {
		case domain.FieldFirstName:
			stored.FirstName = u.FirstName
		case domain.FieldLastName:
			stored.LastName = u.LastName
		case domain.FieldPhone:
			stored.Phone = u.Phone
		case domain.FieldPasswordHash:
			stored.PasswordHash = u.PasswordHash
		case domain.FieldProfileImage:
			stored.ProfileImage = u.ProfileImage
		case domain.FieldPendingEmail:
			stored.PendingEmail = u.PendingEmail
		case domain.FieldEmailOTP:
			stored.EmailOTP = u.EmailOTP
		case domain.FieldEmailOTPExpiry:
			stored.EmailOTPExpiry = u.EmailOTPExpiry
		case domain.FieldResetToken:
			stored.ResetToken = u.ResetToken
		case domain.FieldResetTokenExpiry:
			stored.ResetTokenExpiry = u.ResetTokenExpiry
		}
	}
	m.byID[u.UserID] = stored
	return nil
}

func (m *memUsers) ChangeEmail(_ context.Context, u *domain.User, previous string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.byID {
		if existing.Email == u.Email && existing.UserID != u.UserID {
			return domain.ErrDuplicateEmail
		}
	}
	if m.byID[u.UserID].Email != previous {
		return domain.ErrNotFound
	}
	m.byID[u.UserID] = *u
	return nil
}

type memSessions struct {
	mu   sync.Mutex
	byID map[string]domain.Session
}

func newMemSessions() *memSessions { return &memSessions{byID: map[string]domain.Session{}} }

func (m *memSessions) Upsert(_ context.Context, userID string, fp domain.Fingerprint, now time.Time) (*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for sid, s := range m.byID {
		if s.UserID == userID && s.Active() && s.DeviceName == fp.DeviceName &&
			s.Browser == fp.Browser && s.OperatingSystem == fp.OperatingSystem {
			s.LastActive = now
			s.IPAddress = fp.IPAddress
			m.byID[sid] = s
			return &s, nil
		}
	}
	s := domain.Session{
		SessionID: id.New(), UserID: userID,
		DeviceName: fp.DeviceName, Browser: fp.Browser, OperatingSystem: fp.OperatingSystem,
		IPAddress: fp.IPAddress, Location: fp.Location,
		LoginTime: now, LastActive: now, Status: domain.StatusActive,
	}
	m.byID[s.SessionID] = s
	return &s, nil
}

func (m *memSessions) Get(_ context.Context, sessionID string) (*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.byID[sessionID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &s, nil
}

func (m *memSessions) ListByUser(_ context.Context, userID string, since *time.Time) ([]domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Session
	for _, s := range m.byID {
		if s.UserID == userID && (since == nil || !s.LoginTime.Before(*since)) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LoginTime.After(out[j].LoginTime) })
	return out, nil
}

func (m *memSessions) Deactivate(_ context.Context, s *domain.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := m.byID[s.SessionID]
	stored.Status = domain.StatusInactive
	m.byID[s.SessionID] = stored
	return nil
}

type memActivities struct {
	mu  sync.Mutex
	all []domain.Activity
}

func (m *memActivities) Create(_ context.Context, a *domain.Activity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.all = append(m.all, *a)
	return nil
}

func (m *memActivities) ListByUser(_ context.Context, userID string, since *time.Time) ([]domain.Activity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Activity
	for i := len(m.all) - 1; i >= 0; i-- {
		a := m.all[i]
		if a.UserID == userID && (since == nil || !a.Timestamp.Before(*since)) {
			out = append(out, a)
		}
	}
	return out, nil
}

type memImages struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (m *memImages) Upload(_ context.Context, key string, r io.Reader, _ string) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	return "s3://test-bucket/" + key, nil
}

func (m *memImages) Delete(_ context.Context, location string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, strings.TrimPrefix(location, "s3://test-bucket/"))
	return nil
}

type sentMail struct{ to, subject, body string }

type captureMailer struct {
	mu   sync.Mutex
	sent []sentMail
}

func (c *captureMailer) SendEmail(to, subject, body string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, sentMail{to, subject, body})
	return nil
}

var codePattern = regexp.MustCompile(`\b\d{6}\b`)

func (c *captureMailer) lastCode(t *testing.T) string {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	require.NotEmpty(t, c.sent)
	code := codePattern.FindString(c.sent[len(c.sent)-1].body)
	require.NotEmpty(t, code)
	return code
}

// --- harness ---

type testServer struct {
	handler    http.Handler
	users      *memUsers
	sessions   *memSessions
	activities *memActivities
	images     *memImages
	mailer     *captureMailer
	contacts   *memContacts
	tags       *memTags
	txs        *memTransactions
}

func newTestServer(t *testing.T, overrides ...func(*config.Config)) *testServer {
	t.Helper()
	cfg := &config.Config{
		JWTSecret:        "router-test-secret",
		JWTExpiry:        24 * time.Hour,
		ResetTokenExpiry: time.Hour,
		OTPExpiry:        15 * time.Minute,
		OTPResendExpiry:  30 * time.Minute,
		EmailOTPExpiry:   30 * time.Minute,
		ClientURL:        "http://localhost:3000",
		AllowedOrigins:   []string{"*"},
		RateLimitRPS:     1000,
		RateLimitBurst:   1000,
	}
	for _, o := range overrides {
		o(cfg)
	}
	provider, err := jwtinfra.NewProvider(cfg)
	require.NoError(t, err)

	ts := &testServer{
		users:      newMemUsers(),
		sessions:   newMemSessions(),
		activities: &memActivities{},
		images:     &memImages{objects: map[string][]byte{}},
		mailer:     &captureMailer{},
		contacts:   &memContacts{byID: map[string]domain.Contact{}},
		tags:       &memTags{byID: map[string]domain.Tag{}},
		txs:        &memTransactions{byID: map[string]domain.Transaction{}},
	}
	h, rl := NewRouter(cfg, &Deps{
		UserRepo:     ts.users,
		SessionRepo:  ts.sessions,
		ActivityRepo: ts.activities,
		ContactRepo:  ts.contacts,
		TagRepo:      ts.tags,
		TxRepo:       ts.txs,
		ImageStore:   ts.images,
		Mailer:       ts.mailer,
		JWTProvider:  provider,
		BcryptCost:   bcrypt.MinCost,
	})
	t.Cleanup(rl.Stop)
	ts.handler = h
	return ts
}

func (ts *testServer) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rdr = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rdr)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), v), rr.Body.String())
}

var signup = map[string]string{
	"email":     "Ana@Example.com",
	"password":  "secret123",
	"firstName": "Ana",
	"lastName":  "Lima",
	"phone":     "+14155550100",
}

// registerAndLogin runs the full signup flow and returns an access token.
func (ts *testServer) registerAndLogin(t *testing.T) (userID, token string) {
	t.Helper()
	return ts.registerAndLoginAs(t, signup)
}

func (ts *testServer) registerAndLoginAs(t *testing.T, body map[string]string) (userID, token string) {
	t.Helper()
	email := strings.ToLower(body["email"])
	rr := ts.do(t, http.MethodPost, "/api/auth/register", "", body)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var reg struct {
		Message string `json:"message"`
		UserID  string `json:"userId"`
	}
	decode(t, rr, &reg)

	rr = ts.do(t, http.MethodPost, "/api/auth/verify-email", "", map[string]string{
		"email": email, "otp": ts.mailer.lastCode(t),
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = ts.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": email, "password": body["password"],
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var login struct {
		Token string `json:"token"`
	}
	decode(t, rr, &login)
	return reg.UserID, login.Token
}

// --- tests ---

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	rr := ts.do(t, http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok","message":"API is running"}`, rr.Body.String())
}

func TestRegisterVerifyLogin_RoundTrip(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.do(t, http.MethodPost, "/api/auth/register", "", signup)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var reg struct {
		Message string `json:"message"`
		UserID  string `json:"userId"`
	}
	decode(t, rr, &reg)
	assert.NotEmpty(t, reg.UserID)
	assert.Equal(t, "ana@example.com", ts.mailer.sent[0].to)

	// Login before verification: the credential does not exist yet.
	rr = ts.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "ana@example.com", "password": "secret123",
	})
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	code := ts.mailer.lastCode(t)
	rr = ts.do(t, http.MethodPost, "/api/auth/verify-email", "", map[string]string{
		"email": "ana@example.com", "otp": code,
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var verified struct {
		Success bool               `json:"success"`
		User    domain.UserSummary `json:"user"`
	}
	decode(t, rr, &verified)
	assert.True(t, verified.Success)
	assert.Equal(t, reg.UserID, verified.User.ID)
	assert.Equal(t, "+14155550100", verified.User.PhoneNumber)

	// The same code cannot be redeemed twice.
	rr = ts.do(t, http.MethodPost, "/api/auth/verify-email", "", map[string]string{
		"email": "ana@example.com", "otp": code,
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.JSONEq(t, `{"success":false,"error":"Invalid or expired registration attempt. Please register again."}`, rr.Body.String())

	rr = ts.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "ana@example.com", "password": "secret123",
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var login struct {
		Token string             `json:"token"`
		User  domain.UserSummary `json:"user"`
	}
	decode(t, rr, &login)
	assert.NotEmpty(t, login.Token)
	assert.Equal(t, reg.UserID, login.User.ID)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	ts := newTestServer(t)
	ts.registerAndLogin(t)

	rr := ts.do(t, http.MethodPost, "/api/auth/register", "", signup)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.JSONEq(t, `{"error":"Email already registered"}`, rr.Body.String())
}

func TestRegister_ValidationDetail(t *testing.T) {
	ts := newTestServer(t)
	rr := ts.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{"email": "nope"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "Email")
	assert.Empty(t, ts.mailer.sent)
}

func TestRegister_MalformedBody(t *testing.T) {
	ts := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader("{"))
	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestVerifyEmail_WrongCodeKeepsPending(t *testing.T) {
	ts := newTestServer(t)
	rr := ts.do(t, http.MethodPost, "/api/auth/register", "", signup)
	require.Equal(t, http.StatusCreated, rr.Code)
	code := ts.mailer.lastCode(t)
	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}

	rr = ts.do(t, http.MethodPost, "/api/auth/verify-email", "", map[string]string{"email": "ana@example.com", "otp": wrong})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "Invalid OTP")

	rr = ts.do(t, http.MethodPost, "/api/auth/verify-email", "", map[string]string{"email": "ana@example.com", "otp": code})
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestResendOTP(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.do(t, http.MethodPost, "/api/auth/resend-otp", "", map[string]string{"email": "ana@example.com"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = ts.do(t, http.MethodPost, "/api/auth/register", "", signup)
	require.Equal(t, http.StatusCreated, rr.Code)
	rr = ts.do(t, http.MethodPost, "/api/auth/resend-otp", "", map[string]string{"email": "ana@example.com"})
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, ts.mailer.sent, 2)

	rr = ts.do(t, http.MethodPost, "/api/auth/verify-email", "", map[string]string{
		"email": "ana@example.com", "otp": ts.mailer.lastCode(t),
	})
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestLogin_WrongPasswordIndistinguishable(t *testing.T) {
	ts := newTestServer(t)
	ts.registerAndLogin(t)

	wrongPassword := ts.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "ana@example.com", "password": "wrong-one",
	})
	unknownEmail := ts.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "nobody@example.com", "password": "secret123",
	})
	assert.Equal(t, http.StatusUnauthorized, wrongPassword.Code)
	assert.Equal(t, wrongPassword.Body.String(), unknownEmail.Body.String())
}

func TestSessions_DedupeListTerminate(t *testing.T) {
	ts := newTestServer(t)
	_, token := ts.registerAndLogin(t)

	// A second login from the same client refreshes the same session.
	rr := ts.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "ana@example.com", "password": "secret123",
	})
	require.Equal(t, http.StatusOK, rr.Code)

	rr = ts.do(t, http.MethodGet, "/api/auth/sessions", token, nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var sessions []domain.Session
	decode(t, rr, &sessions)
	require.Len(t, sessions, 1)
	assert.Equal(t, domain.StatusActive, sessions[0].Status)
	assert.Contains(t, sessions[0].Browser, "Chrome")

	rr = ts.do(t, http.MethodPost, "/api/auth/sessions/"+sessions[0].SessionID+"/terminate", token, nil)
	assert.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = ts.do(t, http.MethodGet, "/api/auth/sessions?range=today", token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	decode(t, rr, &sessions)
	require.Len(t, sessions, 1)
	assert.Equal(t, domain.StatusInactive, sessions[0].Status)

	rr = ts.do(t, http.MethodGet, "/api/auth/sessions?range=decade", token, nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestSessions_TerminateForeignSession(t *testing.T) {
	ts := newTestServer(t)
	_, token := ts.registerAndLogin(t)

	other, err := ts.sessions.Upsert(context.Background(), "someone-else", domain.Fingerprint{DeviceName: "Phone"}, time.Now())
	require.NoError(t, err)

	rr := ts.do(t, http.MethodPost, "/api/auth/sessions/"+other.SessionID+"/terminate", token, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.JSONEq(t, `{"error":"Session not found"}`, rr.Body.String())

	stored, err := ts.sessions.Get(context.Background(), other.SessionID)
	require.NoError(t, err)
	assert.True(t, stored.Active())
}

func TestProtectedRoutes_RequireToken(t *testing.T) {
	ts := newTestServer(t)
	for _, path := range []string{"/api/auth/sessions", "/api/users/profile", "/api/activity/activity-logs"} {
		rr := ts.do(t, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, rr.Code, path)
	}
}

func TestActivityLog_RecordsFlow(t *testing.T) {
	ts := newTestServer(t)
	_, token := ts.registerAndLogin(t)

	rr := ts.do(t, http.MethodGet, "/api/activity/activity-logs", token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var logs []domain.Activity
	decode(t, rr, &logs)
	require.Len(t, logs, 2)
	assert.Equal(t, domain.ActionLogin, logs[0].Action)
	assert.Equal(t, domain.ActionEmailVerified, logs[1].Action)
	assert.Contains(t, logs[0].UserAgent, "Chrome")
}

func TestForgotAndResetPassword(t *testing.T) {
	ts := newTestServer(t)
	ts.registerAndLogin(t)

	rr := ts.do(t, http.MethodPost, "/api/auth/forgot-password", "", map[string]string{"email": "ghost@example.com"})
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = ts.do(t, http.MethodPost, "/api/auth/forgot-password", "", map[string]string{"email": "ana@example.com"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	mail := ts.mailer.sent[len(ts.mailer.sent)-1]
	_, after, found := strings.Cut(mail.body, "token=")
	require.True(t, found)
	resetToken := strings.Fields(after)[0]

	// A reset token is not an access token.
	rr = ts.do(t, http.MethodGet, "/api/users/profile", resetToken, nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = ts.do(t, http.MethodPost, "/api/auth/reset-password", "", map[string]string{
		"token": resetToken, "newPassword": "brand-new-pw",
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = ts.do(t, http.MethodPost, "/api/auth/reset-password", "", map[string]string{
		"token": resetToken, "newPassword": "another-pw",
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = ts.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "ana@example.com", "password": "brand-new-pw",
	})
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestProfile_GetAndUploadImage(t *testing.T) {
	ts := newTestServer(t)
	userID, token := ts.registerAndLogin(t)

	rr := ts.do(t, http.MethodGet, "/api/users/profile", token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var u map[string]interface{}
	decode(t, rr, &u)
	assert.Equal(t, "ana@example.com", u["email"])
	assert.NotContains(t, u, "passwordHash")

	png := append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 64)...)
	rr = uploadImage(t, ts, token, png)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var env struct {
		User domain.User `json:"user"`
	}
	decode(t, rr, &env)
	require.NotNil(t, env.User.ProfileImage)
	assert.True(t, strings.HasPrefix(*env.User.ProfileImage, fmt.Sprintf("s3://test-bucket/profiles/%s/", userID)))
	assert.True(t, strings.HasSuffix(*env.User.ProfileImage, ".png"))
	assert.Len(t, ts.images.objects, 1)

	rr = uploadImage(t, ts, token, []byte("plain text is not an image"))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Len(t, ts.images.objects, 1)
}

func uploadImage(t *testing.T, ts *testServer, token string, data []byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("profileImage", "avatar.png")
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPut, "/api/users/profile/image", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	return rr
}

func loginFrom(ts *testServer, remoteAddr, forwardedFor string) int {
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"email":"x@example.com","password":"nope"}`))
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = remoteAddr
	if forwardedFor != "" {
		req.Header.Set("X-Forwarded-For", forwardedFor)
	}
	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	return rr.Code
}

func tightLimit(cfg *config.Config) {
	cfg.RateLimitRPS = 0.001
	cfg.RateLimitBurst = 2
}

func TestAuthRateLimit_KeyedOnConnection(t *testing.T) {
	ts := newTestServer(t, tightLimit)

	limited := 0
	for i := 0; i < 20; i++ {
		if loginFrom(ts, "203.0.113.9:40000", fmt.Sprintf("198.51.100.%d", i)) == http.StatusTooManyRequests {
			limited++
		}
	}
	assert.Equal(t, 18, limited)
}

func TestAuthRateLimit_TrustedProxyUsesForwardedClient(t *testing.T) {
	ts := newTestServer(t, tightLimit, func(cfg *config.Config) { cfg.TrustProxy = true })

	for i := 0; i < 2; i++ {
		assert.Equal(t, http.StatusUnauthorized, loginFrom(ts, "10.0.0.1:443", "198.51.100.1"))
	}
	assert.Equal(t, http.StatusTooManyRequests, loginFrom(ts, "10.0.0.1:443", "198.51.100.1"))
	assert.Equal(t, http.StatusUnauthorized, loginFrom(ts, "10.0.0.1:443", "198.51.100.2"))
}
