package middleware

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/trailpost/trailpost/internal/apperr"
	"github.com/trailpost/trailpost/internal/domain"
	"github.com/trailpost/trailpost/internal/helper"
)

// stubAccountRepo serves a single account; only the lookups the gate uses
// are implemented.
type stubAccountRepo struct {
	acc *domain.Account
}

func (s *stubAccountRepo) FindByID(id uint) (*domain.Account, error) {
	if s.acc == nil || s.acc.ID != id {
		return nil, apperr.ErrAccountNotFound
	}
	out := *s.acc
	return &out, nil
}

func (s *stubAccountRepo) Create(*domain.Account) (*domain.Account, error) { panic("not used") }
func (s *stubAccountRepo) Save(*domain.Account) error                      { panic("not used") }
func (s *stubAccountRepo) FindByEmail(string) (*domain.Account, error)     { panic("not used") }
func (s *stubAccountRepo) VerifyAccount(*domain.Account, *domain.Profile) error {
	panic("not used")
}
func (s *stubAccountRepo) SaveRefreshSession(uint, *string) error         { panic("not used") }
func (s *stubAccountRepo) RevokeSessions(uint) error                      { panic("not used") }
func (s *stubAccountRepo) SaveAndRevokeSessions(*domain.Account) error    { panic("not used") }
func (s *stubAccountRepo) FindProfile(uint) (*domain.Profile, error)      { panic("not used") }
func (s *stubAccountRepo) SaveProfile(*domain.Profile) error              { panic("not used") }
func (s *stubAccountRepo) List(int, int) ([]domain.Account, int64, error) { panic("not used") }
func (s *stubAccountRepo) Delete(uint) error                              { panic("not used") }

func gateFixture(t *testing.T) (*fiber.App, helper.Auth, *stubAccountRepo) {
	t.Helper()

	auth := helper.SetupAuth("access-secret", "refresh-secret", 15*time.Minute, 168*time.Hour, bcrypt.MinCost)
	repo := &stubAccountRepo{acc: &domain.Account{
		ID:             7,
		Email:          "mala@example.com",
		Role:           domain.RoleTraveller,
		IsVerified:     true,
		IsActive:       true,
		SessionVersion: 2,
	}}

	app := fiber.New()
	app.Get("/protected", AuthMiddleware(auth, repo), func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	app.Get("/admin", AuthMiddleware(auth, repo), RequireRoles(domain.RoleAdmin), func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	return app, auth, repo
}

func TestGateRejectsMissingToken(t *testing.T) {
	app, _, _ := gateFixture(t)

	resp, err := app.Test(httptest.NewRequest("GET", "/protected", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestGateAcceptsBearerToken(t *testing.T) {
	app, auth, repo := gateFixture(t)

	token, err := auth.IssueAccessToken(repo.acc)
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestGateAcceptsCookieToken(t *testing.T) {
	app, auth, repo := gateFixture(t)

	token, err := auth.IssueAccessToken(repo.acc)
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Cookie", "access_token="+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestGateRejectsRefreshTokenOnAccessRoutes(t *testing.T) {
	app, auth, repo := gateFixture(t)

	refresh, err := auth.IssueRefreshToken(repo.acc)
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+refresh)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestGateRejectsStaleSessionVersion(t *testing.T) {
	app, auth, repo := gateFixture(t)

	token, err := auth.IssueAccessToken(repo.acc)
	require.NoError(t, err)

	// revocation bumps the stored version; the claim is now stale
	repo.acc.SessionVersion++

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assertCookiesCleared(t, resp.Header.Values("Set-Cookie"))
}

func TestGateRejectsBlockedAccountAndClearsCookies(t *testing.T) {
	app, auth, repo := gateFixture(t)

	token, err := auth.IssueAccessToken(repo.acc)
	require.NoError(t, err)

	repo.acc.IsActive = false

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	assertCookiesCleared(t, resp.Header.Values("Set-Cookie"))
}

func TestRequireRolesIsFlatMembership(t *testing.T) {
	app, auth, repo := gateFixture(t)

	token, err := auth.IssueAccessToken(repo.acc)
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	// admins pass; there is no ordering between the roles
	repo.acc.Role = domain.RoleAdmin
	token, err = auth.IssueAccessToken(repo.acc)
	require.NoError(t, err)

	req = httptest.NewRequest("GET", "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func assertCookiesCleared(t *testing.T, setCookies []string) {
	t.Helper()
	joined := strings.Join(setCookies, "\n")
	assert.Contains(t, joined, "access_token=")
	assert.Contains(t, joined, "refresh_token=")
}
