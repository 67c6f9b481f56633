package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"alumnet/internal/config"
	"alumnet/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const authTestSecret = "test-secret-key-12345678901234567890123456789012"

func signToken(t *testing.T, claims jwt.MapClaims, secret string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func memberClaims(exp time.Duration) jwt.MapClaims {
	return jwt.MapClaims{
		"sub":   "member-1",
		"name":  "Priya Raman",
		"batch": "2014",
		"exp":   time.Now().Add(exp).Unix(),
	}
}

func identityTestApp() *fiber.App {
	InitMiddleware(&config.Config{JWTSecret: authTestSecret})

	app := fiber.New()
	app.Get("/protected", IdentityRequired, func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"userID": c.Locals("userID"),
			"author": c.Locals("author"),
		})
	})
	app.Get("/open", IdentityOptional, func(c *fiber.Ctx) error {
		userID, _ := c.Locals("userID").(string)
		return c.JSON(fiber.Map{"userID": userID})
	})
	return app
}

func TestIdentityRequired(t *testing.T) {
	app := identityTestApp()

	tests := []struct {
		name           string
		authorization  string
		expectedStatus int
	}{
		{
			name:           "valid token",
			authorization:  "Bearer " + signToken(t, memberClaims(time.Hour), authTestSecret),
			expectedStatus: http.StatusOK,
		},
		{
			name:           "missing header",
			authorization:  "",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "malformed header",
			authorization:  "Token abc",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "expired token",
			authorization:  "Bearer " + signToken(t, memberClaims(-time.Hour), authTestSecret),
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "wrong signing key",
			authorization:  "Bearer " + signToken(t, memberClaims(time.Hour), "some-other-secret-that-is-also-long-enough"),
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name: "missing display name",
			authorization: "Bearer " + signToken(t, jwt.MapClaims{
				"sub": "member-1",
				"exp": time.Now().Add(time.Hour).Unix(),
			}, authTestSecret),
			expectedStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tt.authorization != "" {
				req.Header.Set("Authorization", tt.authorization)
			}
			resp, err := app.Test(req, -1)
			require.NoError(t, err)
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)
		})
	}
}

func TestIdentityRequired_SnapshotInLocals(t *testing.T) {
	app := identityTestApp()

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, memberClaims(time.Hour), authTestSecret))
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		UserID string                `json:"userID"`
		Author models.AuthorSnapshot `json:"author"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "member-1", body.UserID)
	assert.Equal(t, "Priya Raman", body.Author.Name)
	assert.Equal(t, "2014", body.Author.Batch)
}

func TestIdentityOptional(t *testing.T) {
	app := identityTestApp()

	// Anonymous passes through.
	req := httptest.NewRequest(http.MethodGet, "/open", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Invalid token also passes through anonymously.
	req = httptest.NewRequest(http.MethodGet, "/open", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Valid token attaches identity.
	req = httptest.NewRequest(http.MethodGet, "/open", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, memberClaims(time.Hour), authTestSecret))
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		UserID string `json:"userID"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "member-1", body.UserID)
}
