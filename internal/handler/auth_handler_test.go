package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/taskledger/taskledger-api/internal/dto"
	"github.com/taskledger/taskledger-api/internal/handler"
	"github.com/taskledger/taskledger-api/internal/models"
	"github.com/taskledger/taskledger-api/internal/service"
)

type mockAuthService struct {
	lastMeta service.RequestMeta
	response dto.TokenResponse
	err      error
}

func (m *mockAuthService) Register(_ context.Context, req dto.RegisterRequest, meta service.RequestMeta) (dto.TokenResponse, error) {
	m.lastMeta = meta
	if m.err != nil {
		return dto.TokenResponse{}, m.err
	}
	return m.response, nil
}

func (m *mockAuthService) Login(_ context.Context, req dto.LoginRequest, meta service.RequestMeta) (dto.TokenResponse, error) {
	m.lastMeta = meta
	if m.err != nil {
		return dto.TokenResponse{}, m.err
	}
	return m.response, nil
}

func (m *mockAuthService) Logout(_ context.Context, user models.User, meta service.RequestMeta) error {
	m.lastMeta = meta
	return m.err
}

func newAuthApp(svc service.AuthService) *fiber.App {
	app := fiber.New()
	h := handler.NewAuthHandler(svc, zerolog.New(io.Discard))
	group := app.Group("/api/v1/auth")
	h.RegisterPublic(group)
	h.RegisterProtected(group, func(c *fiber.Ctx) error {
		c.Locals("identity", models.User{Email: "jane@example.com", Role: models.RoleUser, IsActive: true})
		return c.Next()
	})
	return app
}

func decodeResponse(t *testing.T, resp *http.Response, target interface{}) {
	t.Helper()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	require.NoError(t, json.Unmarshal(data, target))
}

func postJSON(t *testing.T, app *fiber.App, path string, payload interface{}) *http.Response {
	t.Helper()

	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	req.Header.Set("User-Agent", "cli/1.0")

	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func TestAuthHandlerRegisterSuccess(t *testing.T) {
	svc := &mockAuthService{response: dto.TokenResponse{AccessToken: "tok", TokenType: "bearer"}}
	app := newAuthApp(svc)

	resp := postJSON(t, app, "/api/v1/auth/register", dto.RegisterRequest{
		Email:    "jane@example.com",
		Password: "Secret123!",
		FullName: "Jane Doe",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var response struct {
		Success bool              `json:"success"`
		Data    dto.TokenResponse `json:"data"`
	}
	decodeResponse(t, resp, &response)
	require.True(t, response.Success)
	require.Equal(t, "tok", response.Data.AccessToken)

	// The first X-Forwarded-For entry wins over the proxy hop.
	require.Equal(t, "203.0.113.9", svc.lastMeta.IP)
	require.Equal(t, "cli/1.0", svc.lastMeta.UserAgent)
}

func TestAuthHandlerRegisterConflict(t *testing.T) {
	svc := &mockAuthService{err: service.ErrEmailTaken}
	app := newAuthApp(svc)

	resp := postJSON(t, app, "/api/v1/auth/register", dto.RegisterRequest{
		Email:    "jane@example.com",
		Password: "Secret123!",
		FullName: "Jane Doe",
	})
	require.Equal(t, fiber.StatusConflict, resp.StatusCode)
}

func TestAuthHandlerMalformedBody(t *testing.T) {
	app := newAuthApp(&mockAuthService{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", bytes.NewReader([]byte("{not json")))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestAuthHandlerLoginInvalidCredentials(t *testing.T) {
	svc := &mockAuthService{err: service.ErrInvalidCredentials}
	app := newAuthApp(svc)

	resp := postJSON(t, app, "/api/v1/auth/login", dto.LoginRequest{
		Email:    "jane@example.com",
		Password: "wrong",
	})
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	var response struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	decodeResponse(t, resp, &response)
	require.False(t, response.Success)
	require.Equal(t, service.ErrInvalidCredentials.Error(), response.Message)
}

func TestAuthHandlerLoginInactiveAccount(t *testing.T) {
	svc := &mockAuthService{err: service.ErrAccountInactive}
	app := newAuthApp(svc)

	resp := postJSON(t, app, "/api/v1/auth/login", dto.LoginRequest{
		Email:    "jane@example.com",
		Password: "Secret123!",
	})
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestAuthHandlerMe(t *testing.T) {
	app := newAuthApp(&mockAuthService{})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var response struct {
		Data dto.UserResponse `json:"data"`
	}
	decodeResponse(t, resp, &response)
	require.Equal(t, "jane@example.com", response.Data.Email)
}
