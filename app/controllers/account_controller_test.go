package controllers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func accountApp() *fiber.App {
	app := fiber.New()
	app.Post("/accounts", HandleAccountSync)
	app.Post("/accounts/verify", HandleAccountVerify)
	return app
}

func postJSON(t *testing.T, app *fiber.App, path, body string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func TestHandleAccountSync_RejectsInvalidBody(t *testing.T) {
	app := accountApp()

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", "{"},
		{"missing fields", "{}"},
		{"bad email", `{"name":"Maria Silva","email":"nope","password":"secret1","role":"family"}`},
		{"short password", `{"name":"Maria Silva","email":"maria@example.com","password":"abc","role":"family"}`},
		{"admin role not syncable", `{"name":"Maria Silva","email":"maria@example.com","password":"secret1","role":"admin"}`},
	}
	for _, tt := range tests {
		resp := postJSON(t, app, "/accounts", tt.body)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, tt.name)
	}
}

func TestHandleAccountVerify_RejectsInvalidBody(t *testing.T) {
	app := accountApp()

	for _, body := range []string{"{", "{}", `{"email":"nope","password":"x"}`} {
		resp := postJSON(t, app, "/accounts/verify", body)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	}
}
