package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ninho-app/ninho/internal/pkg/billing"
	"github.com/ninho-app/ninho/internal/pkg/env"
)

const defaultAsaasBaseURL = "https://api.asaas.com/v3"

// AsaasClient is the adapter for the Asaas payment processor (PIX, card,
// boleto). It creates charges and fetches PIX payloads; webhook traffic goes
// the other way and is handled by the reconciler. Remote failures are wrapped
// as billing gateway errors and never retried here; callers decide on backoff.
type AsaasClient struct {
	APIKey  string
	BaseURL string

	HTTPClient *http.Client
}

// NewAsaasClientFromEnv builds a client from ASAAS_* environment variables.
func NewAsaasClientFromEnv() *AsaasClient {
	return &AsaasClient{
		APIKey:  strings.TrimSpace(env.GetEnv("ASAAS_API_KEY", "")),
		BaseURL: strings.TrimRight(env.GetEnv("ASAAS_BASE_URL", defaultAsaasBaseURL), "/"),
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

func (c *AsaasClient) Name() string {
	return billing.GatewayAsaas
}

type asaasChargeRequest struct {
	Customer          string  `json:"customer,omitempty"`
	BillingType       string  `json:"billingType"`
	Value             float64 `json:"value"`
	DueDate           string  `json:"dueDate"`
	Description       string  `json:"description,omitempty"`
	ExternalReference string  `json:"externalReference,omitempty"`
}

type asaasChargeResponse struct {
	ID          string  `json:"id"`
	Status      string  `json:"status"`
	Value       float64 `json:"value"`
	BillingType string  `json:"billingType"`
	InvoiceURL  string  `json:"invoiceUrl"`
}

type asaasPixResponse struct {
	EncodedImage   string `json:"encodedImage"`
	Payload        string `json:"payload"`
	ExpirationDate string `json:"expirationDate"`
}

// CreateCharge creates a charge at Asaas. Amounts arrive in centavos and go
// out as decimal reais, which is what the Asaas API speaks.
func (c *AsaasClient) CreateCharge(ctx context.Context, req billing.ChargeRequest) (*billing.Charge, error) {
	if strings.TrimSpace(c.APIKey) == "" {
		return nil, errors.New("ASAAS_API_KEY is not configured")
	}
	if req.AmountCentavos <= 0 {
		return nil, errors.New("charge amount must be positive")
	}

	body := asaasChargeRequest{
		BillingType:       billingTypeFor(req.BillingType),
		Value:             float64(req.AmountCentavos) / 100,
		DueDate:           req.DueDate.Format("2006-01-02"),
		Description:       req.Description,
		ExternalReference: req.ExternalReference,
	}

	var out asaasChargeResponse
	if err := c.doJSON(ctx, http.MethodPost, "/payments", body, &out); err != nil {
		return nil, err
	}
	if out.ID == "" {
		return nil, billing.NewGatewayError("gateway returned a charge without an id", nil)
	}

	return &billing.Charge{
		ExternalID:  out.ID,
		Status:      out.Status,
		InvoiceURL:  out.InvoiceURL,
		BillingType: out.BillingType,
	}, nil
}

// GetPixQRCode fetches the PIX QR image and copy-paste payload for a charge.
func (c *AsaasClient) GetPixQRCode(ctx context.Context, externalPaymentID string) (*billing.PixQRCode, error) {
	id := strings.TrimSpace(externalPaymentID)
	if id == "" {
		return nil, errors.New("external payment id is required")
	}

	var out asaasPixResponse
	if err := c.doJSON(ctx, http.MethodGet, "/payments/"+id+"/pixQrCode", nil, &out); err != nil {
		return nil, err
	}

	return &billing.PixQRCode{
		EncodedImage:   out.EncodedImage,
		Payload:        out.Payload,
		ExpirationDate: out.ExpirationDate,
	}, nil
}

func (c *AsaasClient) doJSON(ctx context.Context, method, path string, in, out interface{}) error {
	var reqBody io.Reader
	if in != nil {
		encoded, err := json.Marshal(in)
		if err != nil {
			return err
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reqBody)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("access_token", c.APIKey)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return billing.NewGatewayError("gateway request failed", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return billing.NewGatewayError(
			fmt.Sprintf("gateway returned status %d for %s %s", resp.StatusCode, method, path), nil)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return billing.NewGatewayError("gateway returned an unparseable response", err)
	}
	return nil
}

func billingTypeFor(paymentMethod string) string {
	switch paymentMethod {
	case "credit_card":
		return "CREDIT_CARD"
	case "boleto":
		return "BOLETO"
	default:
		return "PIX"
	}
}
