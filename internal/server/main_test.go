package server

import (
	"os"
	"testing"
	"time"

	"alumnet/internal/config"
	"alumnet/internal/identity"
	"alumnet/internal/localstore"
	"alumnet/internal/middleware"
	"alumnet/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	os.Setenv("APP_ENV", "test")
	os.Exit(m.Run())
}

const testSecret = "handler-test-secret-which-is-long-enough"

// setupTestApp builds a fully routed app over an in-memory store.
func setupTestApp(t *testing.T) (*fiber.App, *identity.Directory) {
	t.Helper()

	cfg := &config.Config{
		JWTSecret:    testSecret,
		Port:         "0",
		StoreBackend: config.StoreLocal,
		Env:          "test",
	}
	middleware.InitMiddleware(cfg)

	store := localstore.New(localstore.NewMemoryKV())
	directory := identity.NewDirectory()

	srv, err := NewServerWithDeps(cfg, store.Posts(), store.Comments(), directory, nil)
	require.NoError(t, err)

	app := fiber.New()
	srv.SetupRoutes(app)
	return app, directory
}

// bearerToken signs a token carrying the member's display snapshot.
func bearerToken(t *testing.T, userID, name string) string {
	t.Helper()
	token, err := identity.IssueToken(testSecret, identity.Principal{
		UserID: userID,
		Author: models.AuthorSnapshot{Name: name, Batch: "2014"},
	}, time.Hour)
	require.NoError(t, err)
	return "Bearer " + token
}
