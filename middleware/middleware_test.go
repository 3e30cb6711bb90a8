package middleware

import (
	"advisory/config"
	"advisory/models"
	"advisory/services"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestJWTRoundTrip(t *testing.T) {
	config.AppConfig = &config.Config{JWTKey: "test-secret"}
	user := &models.User{Model: gorm.Model{ID: 42}, Email: "a@x.com", Role: models.RoleAdmin}
	token, err := GenerateJWT(user)
	require.NoError(t, err)

	app := fiber.New()
	app.Get("/who", JWTMiddleware, RequireRole(models.RoleAdmin), func(c *fiber.Ctx) error {
		return c.SendString(fmt.Sprintf("%d %s %s", c.Locals("userId"), c.Locals("role"), c.Locals("email")))
	})

	req := httptest.NewRequest(http.MethodGet, "/who", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "42 admin a@x.com", string(body))

	// a token signed with another key is rejected
	config.AppConfig = &config.Config{JWTKey: "rotated"}
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRequireRole_Forbidden(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		c.Locals("userId", uint(1))
		c.Locals("role", models.RoleUser)
		return c.Next()
	}, RequireRole(models.RoleAdmin), func(c *fiber.Ctx) error { return c.SendStatus(http.StatusOK) })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestErrorResponse_StatusMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{&services.ValidationError{Fields: map[string]string{"email": "bad"}}, http.StatusUnprocessableEntity},
		{fmt.Errorf("%w: nope", services.ErrInvalidInput), http.StatusBadRequest},
		{services.ErrAlreadyExists, http.StatusConflict},
		{services.ErrNoCode, http.StatusNotFound},
		{services.ErrNotFound, http.StatusNotFound},
		{services.ErrExpired, http.StatusGone},
		{services.ErrInvalidCode, http.StatusUnauthorized},
		{services.ErrInvalidCredentials, http.StatusUnauthorized},
		{services.ErrNotVerified, http.StatusForbidden},
		{services.ErrAccountBlocked, http.StatusForbidden},
		{services.ErrInvalidSignature, http.StatusBadRequest},
		{&services.RateLimitError{RetryAfter: 12500 * time.Millisecond}, http.StatusTooManyRequests},
		{errors.New("database is locked"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		app := fiber.New()
		err := tc.err
		app.Get("/", func(c *fiber.Ctx) error { return ErrorResponse(c, err) })

		resp, reqErr := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
		require.NoError(t, reqErr)
		assert.Equal(t, tc.status, resp.StatusCode, tc.err.Error())

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, false, body["success"])
		if tc.status == http.StatusTooManyRequests {
			assert.Equal(t, "13", resp.Header.Get("Retry-After"))
		}
		if tc.status == http.StatusInternalServerError {
			assert.Equal(t, "Failed to process your request!", body["message"])
		}
	}
}

func TestJsonResponse_FlattensMaps(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		return JsonResponse(c, http.StatusOK, true, "ok", fiber.Map{"orderId": "order_1", "success": "ignored"})
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "order_1", body["orderId"])
	assert.Equal(t, "order_1", body["data"].(map[string]interface{})["orderId"])
}
