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

func webhookApp() *fiber.App {
	app := fiber.New()
	app.Post("/webhooks/payment", HandlePaymentWebhook)
	return app
}

func TestHandlePaymentWebhook_RequiresGatewayParam(t *testing.T) {
	app := webhookApp()

	req := httptest.NewRequest(http.MethodPost, "/webhooks/payment", strings.NewReader("{}"))
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	req = httptest.NewRequest(http.MethodPost, "/webhooks/payment?gateway=stripe", strings.NewReader("{}"))
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandlePaymentWebhook_RejectsBadToken(t *testing.T) {
	t.Setenv("ASAAS_WEBHOOK_TOKEN", "expected-secret")
	app := webhookApp()

	// Missing token.
	req := httptest.NewRequest(http.MethodPost, "/webhooks/payment?gateway=asaas", strings.NewReader("{}"))
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Wrong token.
	req = httptest.NewRequest(http.MethodPost, "/webhooks/payment?gateway=asaas", strings.NewReader("{}"))
	req.Header.Set("asaas-access-token", "wrong")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHandlePaymentWebhook_RejectsWhenUnconfigured(t *testing.T) {
	t.Setenv("ASAAS_WEBHOOK_TOKEN", "")
	app := webhookApp()

	// An empty configured secret must not mean "accept everything".
	req := httptest.NewRequest(http.MethodPost, "/webhooks/payment?gateway=asaas", strings.NewReader("{}"))
	req.Header.Set("asaas-access-token", "")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
