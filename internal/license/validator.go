package license

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// DefaultAPIURL is the license-key endpoint validated against when none is
// configured.
const DefaultAPIURL = "https://api.polar.sh/v1/customer-portal/license-keys"

// Validator checks a key against the license service. It returns an *Error
// with CodeNetwork when the service could not be reached, and another code
// when the service rejected the key.
type Validator interface {
	Validate(ctx context.Context, key string) (*Info, error)
}

// HTTPValidator validates keys with POST <BaseURL>/validate.
type HTTPValidator struct {
	BaseURL        string
	OrganizationID string
	StoreURL       string
	Client         *http.Client

	now func() time.Time
}

// NewHTTPValidator returns a validator with a 15 second request timeout.
func NewHTTPValidator(baseURL, organizationID, storeURL string) *HTTPValidator {
	if baseURL == "" {
		baseURL = DefaultAPIURL
	}
	return &HTTPValidator{
		BaseURL:        strings.TrimRight(baseURL, "/"),
		OrganizationID: organizationID,
		StoreURL:       storeURL,
		Client:         &http.Client{Timeout: 15 * time.Second},
		now:            time.Now,
	}
}

type validateRequest struct {
	Key            string `json:"key"`
	OrganizationID string `json:"organization_id"`
}

type validateResponse struct {
	ID               string     `json:"id"`
	Status           string     `json:"status"`
	ExpiresAt        *time.Time `json:"expires_at"`
	LimitActivations *int       `json:"limit_activations"`
	Validations      int        `json:"validations"`
	LimitUsage       *int       `json:"limit_usage"`
	Usage            int        `json:"usage"`
	Customer         *struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	} `json:"customer"`
}

// Validate implements Validator.
func (v *HTTPValidator) Validate(ctx context.Context, key string) (*Info, error) {
	body, err := json.Marshal(validateRequest{Key: key, OrganizationID: v.OrganizationID})
	if err != nil {
		return nil, fmt.Errorf("failed to encode validation request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.BaseURL+"/validate", bytes.NewReader(body))
	if err != nil {
		return nil, newError(CodeNetwork, err.Error())
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	client := v.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, newError(CodeNetwork, err.Error())
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, newError(CodeInvalidKey, "license key not found"+v.purchaseHint())
	case resp.StatusCode == http.StatusUnprocessableEntity:
		return nil, newError(CodeInvalidKey, "invalid license key format"+v.purchaseHint())
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, newError(CodeInvalidKey, fmt.Sprintf("HTTP error: %d", resp.StatusCode))
	}

	var data validateResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, newError(CodeNetwork, "malformed validation response: "+err.Error())
	}

	now := time.Now
	if v.now != nil {
		now = v.now
	}
	expired := data.ExpiresAt != nil && data.ExpiresAt.Before(now())

	switch {
	case expired:
		return nil, newError(CodeExpired, "license has expired"+v.renewHint())
	case data.Status == "revoked":
		return nil, newError(CodeRevoked, "license has been revoked")
	case data.Status == "disabled":
		return nil, newError(CodeDisabled, "license has been disabled")
	case data.Status != "granted":
		return nil, newError(CodeInvalidKey, "license is not valid"+v.purchaseHint())
	}

	info := &Info{
		Key:             key,
		Status:          StatusActive,
		Valid:           true,
		ExpiresAt:       data.ExpiresAt,
		ActivationLimit: data.LimitActivations,
		ActivationUsage: data.Validations,
		UsageLimit:      data.LimitUsage,
		Usage:           data.Usage,
	}
	if data.Customer != nil {
		info.CustomerEmail = data.Customer.Email
		info.CustomerName = data.Customer.Name
	}
	return info, nil
}

func (v *HTTPValidator) purchaseHint() string {
	if v.StoreURL == "" {
		return ""
	}
	return "; purchase a license at " + v.StoreURL
}

func (v *HTTPValidator) renewHint() string {
	if v.StoreURL == "" {
		return ""
	}
	return "; renew at " + v.StoreURL
}
