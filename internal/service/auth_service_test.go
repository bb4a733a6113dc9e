package service

import (
	"context"
	"neet_tracker_backend/internal/config"
	"neet_tracker_backend/internal/model"
	"neet_tracker_backend/internal/service/servicetest"
	"neet_tracker_backend/internal/util"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type chanWelcomer struct {
	ch chan *model.User
}

func (w *chanWelcomer) SendWelcome(ctx context.Context, user *model.User) bool {
	w.ch <- user
	return true
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.JWT.Secret = "test-secret-test-secret-test-secret"
	cfg.JWT.ExpireTime = time.Hour
	return cfg
}

func newAuthService() (*AuthService, *servicetest.UserStore, *chanWelcomer) {
	users := servicetest.NewUserStore()
	welcomer := &chanWelcomer{ch: make(chan *model.User, 4)}
	return NewAuthService(users, testConfig(), welcomer), users, welcomer
}

func TestAuthService_RegisterAndLogin(t *testing.T) {
	svc, users, welcomer := newAuthService()
	ctx := context.Background()

	res, err := svc.Register(ctx, RegisterRequest{
		Email:         "  Student@Example.com ",
		Password:      "secret1",
		Name:          "Asha",
		GuardianEmail: "Parent@Example.com",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, "student@example.com", res.User.Email)
	assert.Equal(t, "parent@example.com", res.User.GuardianEmail)
	assert.NotEqual(t, "secret1", res.User.Password)

	stored, err := users.FindByEmail(ctx, "student@example.com")
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, stored.ID)

	select {
	case u := <-welcomer.ch:
		assert.Equal(t, res.User.ID, u.ID)
	case <-time.After(2 * time.Second):
		t.Fatal("welcome email was not sent")
	}

	login, err := svc.Login(ctx, LoginRequest{Email: "STUDENT@example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, login.User.ID)

	claims, err := util.ParseJWT(login.Token, svc.Cfg.JWT.Secret)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, claims.UserID)
}

func TestAuthService_RegisterRejectsDuplicateEmail(t *testing.T) {
	svc, _, _ := newAuthService()
	ctx := context.Background()
	req := RegisterRequest{Email: "a@b.com", Password: "secret1", Name: "A"}

	_, err := svc.Register(ctx, req)
	require.NoError(t, err)

	req.Email = "A@B.com"
	_, err = svc.Register(ctx, req)
	assert.ErrorIs(t, err, util.ErrEmailRegistered)
}

func TestAuthService_RegisterValidation(t *testing.T) {
	svc, _, _ := newAuthService()
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterRequest{Email: "a@b.com", Password: "short", Name: "A"})
	assert.ErrorIs(t, err, util.ErrValidation)

	_, err = svc.Register(ctx, RegisterRequest{Email: "a@b.com", Password: "secret1", Name: "   "})
	assert.ErrorIs(t, err, util.ErrValidation)
}

func TestAuthService_LoginFailures(t *testing.T) {
	svc, _, _ := newAuthService()
	ctx := context.Background()
	_, err := svc.Register(ctx, RegisterRequest{Email: "a@b.com", Password: "secret1", Name: "A"})
	require.NoError(t, err)

	_, err = svc.Login(ctx, LoginRequest{Email: "a@b.com", Password: "wrong-pass"})
	assert.ErrorIs(t, err, util.ErrInvalidCredentials)

	_, err = svc.Login(ctx, LoginRequest{Email: "nobody@b.com", Password: "secret1"})
	assert.ErrorIs(t, err, util.ErrInvalidCredentials)
}

func TestAuthService_Authenticate(t *testing.T) {
	svc, users, _ := newAuthService()
	ctx := context.Background()
	res, err := svc.Register(ctx, RegisterRequest{Email: "a@b.com", Password: "secret1", Name: "A"})
	require.NoError(t, err)

	user, err := svc.Authenticate(ctx, res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, user.ID)

	_, err = svc.Authenticate(ctx, "not-a-token")
	assert.ErrorIs(t, err, util.ErrTokenInvalid)

	ghost := &model.User{UUIDBase: model.UUIDBase{ID: "ghost"}, Email: "g@b.com"}
	token, err := svc.IssueToken(ghost)
	require.NoError(t, err)
	_, err = svc.Authenticate(ctx, token)
	assert.ErrorIs(t, err, util.ErrUserNotFound)

	other := NewAuthService(users, testConfig(), nil)
	other.Cfg.JWT.Secret = "another-secret-another-secret-1234"
	_, err = other.Authenticate(ctx, res.Token)
	assert.ErrorIs(t, err, util.ErrTokenInvalid)
}

func TestAuthService_ExpiredToken(t *testing.T) {
	svc, _, _ := newAuthService()
	user := &model.User{UUIDBase: model.UUIDBase{ID: "u1"}}

	token, err := util.GenerateJWT(user, svc.Cfg.JWT.Secret, -time.Minute)
	require.NoError(t, err)

	_, err = svc.Authenticate(context.Background(), token)
	assert.ErrorIs(t, err, util.ErrTokenInvalid)
}

func TestUserService_UpdateProfile(t *testing.T) {
	users := servicetest.NewUserStore()
	ctx := context.Background()
	require.NoError(t, users.Create(ctx, &model.User{UUIDBase: model.UUIDBase{ID: "u1"}, Email: "a@b.com", Name: "A"}))
	svc := NewUserService(users)

	name := "  Asha  "
	guardian := "Parent@Example.com"
	user, err := svc.UpdateProfile(ctx, "u1", UpdateProfileRequest{Name: &name, GuardianEmail: &guardian})
	require.NoError(t, err)
	assert.Equal(t, "Asha", user.Name)
	assert.Equal(t, "parent@example.com", user.GuardianEmail)

	bad := "not an email"
	_, err = svc.UpdateProfile(ctx, "u1", UpdateProfileRequest{GuardianEmail: &bad})
	assert.ErrorIs(t, err, util.ErrValidation)

	none := ""
	user, err = svc.UpdateProfile(ctx, "u1", UpdateProfileRequest{GuardianEmail: &none})
	require.NoError(t, err)
	assert.False(t, user.HasGuardian())
	assert.Equal(t, "Asha", user.Name)

	_, err = svc.Profile(ctx, "missing")
	assert.ErrorIs(t, err, util.ErrUserNotFound)
}
