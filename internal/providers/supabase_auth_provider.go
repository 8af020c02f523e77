package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"label-cabinet/backstage/internal/common"
)

// AuthAdmin changes accounts in the external auth provider.
type AuthAdmin interface {
	UpdateUserEmail(ctx context.Context, userID, email string) error
}

// SupabaseAuthProvider calls the auth admin API with the service-role key.
type SupabaseAuthProvider struct {
	BaseURL    string
	ServiceKey string
	Client     *http.Client
}

func NewSupabaseAuthProvider(baseURL, serviceKey string) *SupabaseAuthProvider {
	return &SupabaseAuthProvider{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		ServiceKey: serviceKey,
		Client: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

type adminUserUpdate struct {
	Email        string `json:"email"`
	EmailConfirm bool   `json:"email_confirm"`
}

// UpdateUserEmail sets a confirmed email on the auth user.
func (p *SupabaseAuthProvider) UpdateUserEmail(ctx context.Context, userID, email string) error {
	payload := adminUserUpdate{Email: email, EmailConfirm: true}
	_, err := p.doJSON(ctx, http.MethodPut, "/auth/v1/admin/users/"+userID, payload)
	return err
}

// doJSON sends a JSON request with service-role credentials and returns the body.
func (p *SupabaseAuthProvider) doJSON(ctx context.Context, method, endpoint string, payload interface{}) ([]byte, error) {
	if p.BaseURL == "" || p.ServiceKey == "" {
		return nil, &ProviderError{
			Code:    ErrCodeNotConfigured,
			Message: "SUPABASE_URL and SUPABASE_SERVICE_KEY must be set",
		}
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, &ProviderError{
			Code:    ErrCodeNetworkError,
			Message: "Failed to marshal request body",
			Err:     err,
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, p.BaseURL+endpoint, bytes.NewReader(payloadBytes))
	if err != nil {
		return nil, &ProviderError{
			Code:    ErrCodeNetworkError,
			Message: "Failed to create request",
			Err:     err,
		}
	}

	req.Header.Set("Authorization", "Bearer "+p.ServiceKey)
	req.Header.Set("apikey", p.ServiceKey)
	req.Header.Set("Content-Type", "application/json")
	common.LogHTTPRequest(req)

	resp, err := p.Client.Do(req)
	if err != nil {
		return nil, &ProviderError{
			Code:    ErrCodeNetworkError,
			Message: "Auth admin request failed",
			Err:     err,
		}
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, &ProviderError{
			Code:       ErrCodeNotFound,
			StatusCode: resp.StatusCode,
			Message:    "Auth user not found",
			Details:    string(body),
		}
	case resp.StatusCode >= 400:
		return nil, &ProviderError{
			Code:       ErrCodeRejected,
			StatusCode: resp.StatusCode,
			Message:    "Auth admin API rejected the request",
			Details:    string(body),
		}
	}

	return body, nil
}
