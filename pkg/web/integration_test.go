//go:build integration

package web_test

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/jornadaflow/jornada/pkg/flowstore"
	"github.com/jornadaflow/jornada/pkg/models"
	"github.com/jornadaflow/jornada/pkg/persistence/postgresql"
	"github.com/jornadaflow/jornada/pkg/registry"
	"github.com/jornadaflow/jornada/pkg/services"
	"github.com/jornadaflow/jornada/pkg/web"
)

func setupPostgres(t *testing.T) string {
	t.Helper()

	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:15-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_DB":       "test_jornada",
				"POSTGRES_USER":     "test_user",
				"POSTGRES_PASSWORD": "test_pass",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
		},
		Started: true,
	})
	require.NoError(t, err)

	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)

	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	return fmt.Sprintf("postgres://test_user:test_pass@%s:%s/test_jornada?sslmode=disable", host, port.Port())
}

func setupPostgresApp(t *testing.T) *testEnv {
	t.Helper()

	logger := slog.New(slog.DiscardHandler)

	persistence, err := postgresql.NewPersistence(context.Background(), logger, setupPostgres(t))
	require.NoError(t, err)

	t.Cleanup(func() { _ = persistence.Close(context.Background()) })

	reg := registry.NewRegistry(logger)
	reg.RegisterBuiltins()

	bus := &recordingBus{}
	flowService := flowstore.NewService(persistence, flowstore.NewValidator(reg))
	sessionService := services.NewSession(persistence, bus, logger)
	validate := validator.New(validator.WithRequiredStructEnabled())

	handlers := web.NewAPIHandlers(flowService, sessionService, validate, reg, bus)

	app := fiber.New()

	f := app.Group("/flows")
	f.Get("/", handlers.GetFlows)
	f.Post("/", handlers.CreateFlow)
	f.Get("/:id", handlers.GetFlow)
	f.Put("/:id", handlers.UpdateFlow)
	f.Delete("/:id", handlers.DeleteFlow)
	f.Post("/:id/publish", handlers.PublishFlow)

	s := app.Group("/sessions")
	s.Get("/", handlers.GetSessions)
	s.Post("/", handlers.StartSession)
	s.Get("/:id", handlers.GetSession)

	return &testEnv{app: app, flows: flowService, sessions: sessionService, bus: bus}
}

func TestIntegration_FlowLifecycleOverPostgres(t *testing.T) {
	env := setupPostgresApp(t)

	created := decodeBody[models.Flow](t, doJSON(t, env.app, http.MethodPost, "/flows", validFlowRequest()))
	require.NotEmpty(t, created.ID)

	resp := doJSON(t, env.app, http.MethodPost, "/flows/"+created.ID+"/publish", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	snapshot := decodeBody[models.Flow](t, resp)
	assert.Equal(t, models.FlowStatusPublished, snapshot.Status)
	assert.NotEqual(t, created.ID, snapshot.ID)

	resp = doJSON(t, env.app, http.MethodGet, "/flows/"+snapshot.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	reloaded := decodeBody[models.Flow](t, resp)
	assert.Len(t, reloaded.Nodes, 3)
	assert.Len(t, reloaded.Edges, 2)
}

func TestIntegration_SessionLifecycleOverPostgres(t *testing.T) {
	env := setupPostgresApp(t)

	created := decodeBody[models.Flow](t, doJSON(t, env.app, http.MethodPost, "/flows", validFlowRequest()))
	snapshot := decodeBody[models.Flow](t, doJSON(t, env.app, http.MethodPost, "/flows/"+created.ID+"/publish", nil))

	resp := doJSON(t, env.app, http.MethodPost, "/sessions", web.StartSessionRequest{
		FlowID:            snapshot.ID,
		ContactID:         "contact-1",
		ChannelInstanceID: "channel-1",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	session := decodeBody[web.SessionResponse](t, resp)
	require.NotEmpty(t, session.ID)

	// Starting again for the same contact returns the existing session.
	resp = doJSON(t, env.app, http.MethodPost, "/sessions", web.StartSessionRequest{
		FlowID:            snapshot.ID,
		ContactID:         "contact-1",
		ChannelInstanceID: "channel-1",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	again := decodeBody[web.SessionResponse](t, resp)
	assert.Equal(t, session.ID, again.ID)

	resp = doJSON(t, env.app, http.MethodGet, "/sessions/"+session.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	fetched := decodeBody[web.SessionResponse](t, resp)
	assert.Equal(t, "active", fetched.Status)
}
