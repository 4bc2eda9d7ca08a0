package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"flowconnect-backend/internal/domain"
	"flowconnect-backend/internal/identity"

	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupAuthTest(t *testing.T, cache *redis.Client) (*fiber.App, *gorm.DB, uuid.UUID) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.User{}))

	orgID := uuid.New()
	subject := "auth0|tester"
	require.NoError(t, db.Create(&domain.User{
		ExternalSubjectID: &subject,
		Email:             "tester@example.com",
		PrimaryOrgID:      &orgID,
	}).Error)

	app := fiber.New()
	app.Use(Auth(&identity.Resolver{DB: db}, cache))
	app.Get("/whoami", func(c *fiber.Ctx) error {
		auth := GetAuth(c)
		require.NotNil(t, auth)
		return c.SendString(auth.OrgID.String())
	})
	return app, db, orgID
}

func TestAuth_MissingHeader(t *testing.T) {
	app, _, _ := setupAuthTest(t, nil)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/whoami", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAuth_UnknownSubject(t *testing.T) {
	app, _, _ := setupAuthTest(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("X-Auth-Subject", "auth0|stranger")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAuth_ResolvesWithoutCache(t *testing.T) {
	app, _, orgID := setupAuthTest(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("X-Auth-Subject", "auth0|tester")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, orgID.String(), string(body))
}

func TestAuth_CachesResolution(t *testing.T) {
	mr := miniredis.RunT(t)
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	app, db, _ := setupAuthTest(t, cache)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("X-Auth-Subject", "auth0|tester")
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.True(t, mr.Exists("auth:subject:auth0|tester"))

	// Second request is served from the cache even after the user row is gone.
	require.NoError(t, db.Where("email = ?", "tester@example.com").Delete(&domain.User{}).Error)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAuth_CacheExpiryFallsBackToResolver(t *testing.T) {
	mr := miniredis.RunT(t)
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	app, db, _ := setupAuthTest(t, cache)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("X-Auth-Subject", "auth0|tester")
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	mr.FastForward(authCacheTTL + 1)
	require.NoError(t, db.Where("email = ?", "tester@example.com").Delete(&domain.User{}).Error)

	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
