package controller

import (
	"bytes"
	"encoding/json"
	"neet_tracker_backend/internal/config"
	"neet_tracker_backend/internal/middleware"
	"neet_tracker_backend/internal/model"
	"neet_tracker_backend/internal/service"
	"neet_tracker_backend/internal/service/servicetest"
	"neet_tracker_backend/internal/util"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	router *gin.Engine
	users  *servicetest.UserStore
	sender *servicetest.Sender
	auth   *service.AuthService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{}
	cfg.JWT.Secret = "controller-test-secret-0123456789"
	cfg.JWT.ExpireTime = time.Hour
	cfg.Storage.Type = util.StorageLocal
	cfg.Storage.LocalPath = t.TempDir()

	users := servicetest.NewUserStore()
	sender := &servicetest.Sender{}
	notifications := service.NewNotificationService(sender)
	authSvc := service.NewAuthService(users, cfg, nil)
	tests := service.NewTestRecordService(servicetest.NewRecordStore(), servicetest.NewCache())
	reports := service.NewReportService(notifications, service.NewStorageProvider(cfg))

	ac := NewAuthController(authSvc, service.NewUserService(users))
	tc := NewTestController(tests, notifications, reports)

	r := gin.New()
	api := r.Group("/api")
	api.POST("/auth/signup", ac.Signup)
	api.POST("/auth/login", ac.Login)
	authed := api.Group("")
	authed.Use(middleware.AuthMiddleware(authSvc))
	authed.GET("/auth/me", ac.Me)
	authed.PUT("/auth/profile", ac.UpdateProfile)
	authed.POST("/tests/preview", tc.Preview)
	authed.GET("/tests", tc.List)
	authed.GET("/tests/stats/summary", tc.Stats)
	authed.GET("/tests/:id", tc.Get)
	authed.POST("/tests", tc.Create)
	authed.PUT("/tests/:id", tc.Update)
	authed.DELETE("/tests/:id", tc.Delete)
	authed.DELETE("/tests", tc.DeleteAll)
	authed.POST("/tests/:id/send-email", tc.SendEmail)
	authed.GET("/tests/:id/report", tc.Report)
	authed.POST("/tests/:id/report/archive", tc.ArchiveReport)

	return &fixture{router: r, users: users, sender: sender, auth: authSvc}
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (f *fixture) do(t *testing.T, method, path, token string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	var env envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

func (f *fixture) signup(t *testing.T, email, guardian string) string {
	t.Helper()
	w, env := f.do(t, http.MethodPost, "/api/auth/signup", "", gin.H{
		"email": email, "password": "secret1", "name": "Asha", "guardianEmail": guardian,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var res struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &res))
	return res.Token
}

var mechanicsTest = gin.H{
	"id":      "t1",
	"subject": "Physics",
	"dateISO": "2025-05-20T10:00:00Z",
	"questions": []gin.H{
		{"number": 1, "chapter": "Mechanics", "status": "correct"},
		{"number": 2, "chapter": "Mechanics", "status": "wrong"},
		{"number": 3, "chapter": "", "status": "not_attempted"},
	},
}

func TestSignupAndLogin(t *testing.T) {
	f := newFixture(t)
	token := f.signup(t, "a@b.com", "")

	w, _ := f.do(t, http.MethodPost, "/api/auth/signup", "", gin.H{"email": "A@b.com", "password": "secret1", "name": "B"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w, _ = f.do(t, http.MethodPost, "/api/auth/signup", "", gin.H{"email": "bad", "password": "1", "name": "B"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, env := f.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"email": "a@b.com", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid credentials", env.Message)

	w, _ = f.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"email": "a@b.com", "password": "secret1"})
	assert.Equal(t, http.StatusOK, w.Code)

	w, env = f.do(t, http.MethodGet, "/api/auth/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"email":"a@b.com"`)
	assert.NotContains(t, string(env.Data), "password")
}

func TestUpdateProfile(t *testing.T) {
	f := newFixture(t)
	token := f.signup(t, "a@b.com", "")

	w, env := f.do(t, http.MethodPut, "/api/auth/profile", token, gin.H{"guardianEmail": "Parent@x.com"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"guardianEmail":"parent@x.com"`)

	w, _ = f.do(t, http.MethodPut, "/api/auth/profile", token, gin.H{"guardianEmail": "nope"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateIgnoresClientAggregates(t *testing.T) {
	f := newFixture(t)
	token := f.signup(t, "a@b.com", "")

	body := gin.H{}
	for k, v := range mechanicsTest {
		body[k] = v
	}
	body["score"] = 500
	body["questionCount"] = 99

	w, env := f.do(t, http.MethodPost, "/api/tests", token, body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var rec model.TestRecord
	require.NoError(t, json.Unmarshal(env.Data, &rec))
	assert.Equal(t, "t1", rec.RecordID)
	assert.Equal(t, 3, rec.Score)
	assert.Equal(t, 3, rec.QuestionCount)
	assert.Equal(t, []string{"Mechanics", "Mixed"}, rec.ByChapter.Keys())

	w, _ = f.do(t, http.MethodPost, "/api/tests", token, mechanicsTest)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t)
	token := f.signup(t, "a@b.com", "")

	cases := []gin.H{
		{"subject": "Physics", "questions": []gin.H{}},
		{"id": "x", "subject": "Maths", "questions": []gin.H{}},
		{"id": "x", "subject": "Physics"},
		{"id": "x", "subject": "Physics", "questions": []gin.H{{"status": "skipped"}}},
	}
	for _, body := range cases {
		w, _ := f.do(t, http.MethodPost, "/api/tests", token, body)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
	}
}

func TestRecordLifecycle(t *testing.T) {
	f := newFixture(t)
	token := f.signup(t, "a@b.com", "")
	other := f.signup(t, "c@d.com", "")

	w, _ := f.do(t, http.MethodPost, "/api/tests", token, mechanicsTest)
	require.Equal(t, http.StatusCreated, w.Code)

	w, _ = f.do(t, http.MethodGet, "/api/tests/t1", other, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, env := f.do(t, http.MethodGet, "/api/tests?subject=Physics", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list []model.TestRecord
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Len(t, list, 1)

	w, env = f.do(t, http.MethodGet, "/api/tests", other, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, string(env.Data))

	w, env = f.do(t, http.MethodPut, "/api/tests/t1", token, gin.H{
		"questions": []gin.H{{"number": 1, "chapter": "Optics", "status": "correct"}},
	})
	require.Equal(t, http.StatusOK, w.Code)
	var rec model.TestRecord
	require.NoError(t, json.Unmarshal(env.Data, &rec))
	assert.Equal(t, 4, rec.Score)
	assert.Equal(t, model.Physics, rec.Subject)

	w, env = f.do(t, http.MethodGet, "/api/tests/stats/summary", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var summary service.StatsSummary
	require.NoError(t, json.Unmarshal(env.Data, &summary))
	assert.EqualValues(t, 1, summary.Overall.TotalTests)
	assert.EqualValues(t, 4, summary.Overall.TotalScore)

	w, _ = f.do(t, http.MethodDelete, "/api/tests/t1", other, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, env = f.do(t, http.MethodDelete, "/api/tests/t1", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"Test deleted successfully","id":"t1"}`, string(env.Data))

	w, env = f.do(t, http.MethodDelete, "/api/tests", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"All tests cleared successfully","deletedCount":0}`, string(env.Data))
}

func TestPreview(t *testing.T) {
	f := newFixture(t)
	token := f.signup(t, "a@b.com", "")

	w, env := f.do(t, http.MethodPost, "/api/tests/preview", token, gin.H{"questions": mechanicsTest["questions"]})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{
		"correct": 1, "wrong": 1, "notAttempted": 1, "score": 3,
		"byChapter": {
			"Mechanics": {"correct": 1, "wrong": 1, "notAttempted": 0, "score": 3},
			"Mixed": {"correct": 0, "wrong": 0, "notAttempted": 1, "score": 0}
		}
	}`, string(env.Data))
}

func TestSendEmail(t *testing.T) {
	f := newFixture(t)
	noGuardian := f.signup(t, "a@b.com", "")
	withGuardian := f.signup(t, "c@d.com", "parent@x.com")

	for _, tok := range []string{noGuardian, withGuardian} {
		w, _ := f.do(t, http.MethodPost, "/api/tests", tok, mechanicsTest)
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w, _ := f.do(t, http.MethodPost, "/api/tests/missing/send-email", withGuardian, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, env := f.do(t, http.MethodPost, "/api/tests/t1/send-email", noGuardian, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "No guardian email configured", env.Message)

	w, _ = f.do(t, http.MethodPost, "/api/tests/t1/send-email", withGuardian, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	require.Len(t, f.sender.Messages(), 1)
	assert.Equal(t, "parent@x.com", f.sender.Messages()[0].To)

	f.sender.Err = servicetest.ErrSMTPDown
	w, _ = f.do(t, http.MethodPost, "/api/tests/t1/send-email", withGuardian, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReportAndArchive(t *testing.T) {
	f := newFixture(t)
	token := f.signup(t, "a@b.com", "")
	w, _ := f.do(t, http.MethodPost, "/api/tests", token, mechanicsTest)
	require.Equal(t, http.StatusCreated, w.Code)

	w, _ = f.do(t, http.MethodGet, "/api/tests/t1/report", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, util.MimeHTML, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), "Mechanics")

	w, env := f.do(t, http.MethodPost, "/api/tests/t1/report/archive", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var res struct {
		URL string `json:"url"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.True(t, strings.HasPrefix(res.URL, "/uploads/reports/"), res.URL)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	f := newFixture(t)

	w, env := f.do(t, http.MethodGet, "/api/tests", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Access token required", env.Message)

	w, env = f.do(t, http.MethodGet, "/api/tests", "garbage", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "Invalid or expired token", env.Message)
}
