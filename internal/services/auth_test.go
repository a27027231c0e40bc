package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/coursekit/scormlite-backend/internal/repos"
)

func newTestAuth(t *testing.T) AuthService {
	t.Helper()
	db := testDB(t)
	log := testLogger(t)
	return NewAuthService(
		log,
		repos.NewUserRepo(db, log),
		repos.NewUserTokenRepo(db, log),
		"test-secret",
		15*time.Minute,
		24*time.Hour,
	)
}

func TestRegisterAndLogin(t *testing.T) {
	auth := newTestAuth(t)
	ctx := context.Background()

	user, err := auth.Register(ctx, "Ada@Example.com", "hunter2", "Ada")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if user.Email != "ada@example.com" {
		t.Fatalf("email not normalized: %q", user.Email)
	}
	if user.Password == "hunter2" {
		t.Fatal("password stored in the clear")
	}

	loggedIn, pair, err := auth.Login(ctx, "ada@example.com", "hunter2")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if loggedIn.ID != user.ID {
		t.Fatalf("Login returned user %s, want %s", loggedIn.ID, user.ID)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatalf("Login returned incomplete pair %+v", pair)
	}

	claims, err := auth.ParseAccessToken(pair.AccessToken)
	if err != nil {
		t.Fatalf("ParseAccessToken: %v", err)
	}
	if claims.Subject != user.ID.String() {
		t.Fatalf("claims subject = %q, want %s", claims.Subject, user.ID)
	}
	if claims.Email != "ada@example.com" {
		t.Fatalf("claims email = %q", claims.Email)
	}
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	auth := newTestAuth(t)
	ctx := context.Background()
	if _, err := auth.Register(ctx, "ada@example.com", "hunter2", "Ada"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, err := auth.Register(ctx, "ada@example.com", "other", "Ada II"); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("duplicate Register err = %v, want ErrEmailTaken", err)
	}
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	auth := newTestAuth(t)
	ctx := context.Background()
	if _, err := auth.Register(ctx, "ada@example.com", "hunter2", "Ada"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, _, err := auth.Login(ctx, "ada@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("Login err = %v, want ErrInvalidCredentials", err)
	}
	if _, _, err := auth.Login(ctx, "nobody@example.com", "hunter2"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("Login unknown user err = %v, want ErrInvalidCredentials", err)
	}
}

func TestRefreshRotatesTokens(t *testing.T) {
	auth := newTestAuth(t)
	ctx := context.Background()
	if _, err := auth.Register(ctx, "ada@example.com", "hunter2", "Ada"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	_, pair, err := auth.Login(ctx, "ada@example.com", "hunter2")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	rotated, err := auth.Refresh(ctx, pair.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if rotated.RefreshToken == pair.RefreshToken {
		t.Fatal("Refresh did not rotate the refresh token")
	}

	// The old token is revoked by the rotation.
	if _, err := auth.Refresh(ctx, pair.RefreshToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("replayed Refresh err = %v, want ErrInvalidToken", err)
	}
}

func TestLogoutRevokesRefreshTokens(t *testing.T) {
	auth := newTestAuth(t)
	ctx := context.Background()
	user, err := auth.Register(ctx, "ada@example.com", "hunter2", "Ada")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	_, pair, err := auth.Login(ctx, "ada@example.com", "hunter2")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if err := auth.Logout(ctx, user.ID); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if _, err := auth.Refresh(ctx, pair.RefreshToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("Refresh after logout err = %v, want ErrInvalidToken", err)
	}
}

func TestAuthSurvivesMissingPrimaryStore(t *testing.T) {
	log := testLogger(t)
	auth := NewAuthService(
		log,
		repos.NewUserRepo(nil, log),
		repos.NewUserTokenRepo(nil, log),
		"test-secret",
		15*time.Minute,
		24*time.Hour,
	)
	ctx := context.Background()

	if _, err := auth.Register(ctx, "ada@example.com", "hunter2", "Ada"); !errors.Is(err, repos.ErrDatabaseUnavailable) {
		t.Fatalf("Register without a database err = %v, want ErrDatabaseUnavailable", err)
	}
	if _, _, err := auth.Login(ctx, "ada@example.com", "hunter2"); !errors.Is(err, repos.ErrDatabaseUnavailable) {
		t.Fatalf("Login without a database err = %v, want ErrDatabaseUnavailable", err)
	}
	if _, err := auth.Refresh(ctx, "some-refresh-token"); !errors.Is(err, repos.ErrDatabaseUnavailable) {
		t.Fatalf("Refresh without a database err = %v, want ErrDatabaseUnavailable", err)
	}
}

func TestParseAccessTokenRejectsGarbage(t *testing.T) {
	auth := newTestAuth(t)
	if _, err := auth.ParseAccessToken("not.a.token"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("ParseAccessToken err = %v, want ErrInvalidToken", err)
	}
}
