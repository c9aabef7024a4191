package http

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	apperrors "github.com/spec-kit/complaint-service/pkg/util"
)

type errorEnvelope struct {
	Error struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	app := fiber.New()
	RegisterMiddlewares(app, zap.NewNop(), nil, 5*time.Second)
	return app
}

func TestErrorHandlingDomainError(t *testing.T) {
	app := newTestApp(t)
	app.Get("/boom", func(_ *fiber.Ctx) error {
		return apperrors.NewValidationError("description, cause, impact and proofImage are required",
			map[string]any{"missing": []string{"cause"}})
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/boom", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	var envelope errorEnvelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	assert.Equal(t, "VALIDATION_FAILED", envelope.Error.Code)
	assert.NotEmpty(t, envelope.Error.Message)
	assert.Contains(t, envelope.Error.Details, "missing")
}

func TestErrorHandlingNotFound(t *testing.T) {
	app := newTestApp(t)
	app.Get("/missing", func(_ *fiber.Ctx) error {
		return apperrors.NewNotFound("complaint", nil)
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/missing", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	var envelope errorEnvelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	assert.Equal(t, "NOT_FOUND", envelope.Error.Code)
}

func TestErrorHandlingFiberError(t *testing.T) {
	app := newTestApp(t)
	app.Get("/bad", func(_ *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/bad", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	var envelope errorEnvelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	assert.Equal(t, "REQUEST_FAILED", envelope.Error.Code)
	assert.Equal(t, "invalid request body", envelope.Error.Message)
}

func TestErrorHandlingPanicRecovery(t *testing.T) {
	app := newTestApp(t)
	app.Get("/panic", func(_ *fiber.Ctx) error {
		panic("unexpected state")
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/panic", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)

	var envelope errorEnvelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	assert.Equal(t, "INTERNAL_ERROR", envelope.Error.Code)
}

func TestRequestLoggerRecordsErrorStatus(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	app := fiber.New()
	RegisterMiddlewares(app, zap.New(core), nil, 5*time.Second)
	app.Get("/missing", func(_ *fiber.Ctx) error {
		return apperrors.NewNotFound("complaint", nil)
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/missing", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	entries := logs.FilterMessage("request").All()
	require.Len(t, entries, 1)
	assert.EqualValues(t, fiber.StatusNotFound, entries[0].ContextMap()["status"],
		"access log must carry the status written by the error handler")
}

func TestSuccessPassesThrough(t *testing.T) {
	app := newTestApp(t)
	app.Get("/ok", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/ok", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
