package providers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSupabaseAuthProvider_UpdateUserEmail_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("Expected PUT request, got %s", r.Method)
		}
		if r.URL.Path != "/auth/v1/admin/users/user-1" {
			t.Errorf("Expected admin users path, got %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer service-key" {
			t.Errorf("Expected service key bearer, got %s", r.Header.Get("Authorization"))
		}

		var body adminUserUpdate
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("Failed to decode body: %v", err)
		}
		if body.Email != "new@example.com" || !body.EmailConfirm {
			t.Errorf("Expected confirmed new@example.com, got %+v", body)
		}

		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"id":"user-1"}`))
	}))
	defer server.Close()

	provider := NewSupabaseAuthProvider(server.URL, "service-key")

	if err := provider.UpdateUserEmail(context.Background(), "user-1", "new@example.com"); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
}

func TestSupabaseAuthProvider_UpdateUserEmail_Rejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"msg":"email exists"}`))
	}))
	defer server.Close()

	provider := NewSupabaseAuthProvider(server.URL, "service-key")
	err := provider.UpdateUserEmail(context.Background(), "user-1", "taken@example.com")

	var perr *ProviderError
	if !errors.As(err, &perr) {
		t.Fatalf("Expected ProviderError, got %v", err)
	}
	if perr.Code != ErrCodeRejected || perr.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("Expected REJECTED/422, got %s/%d", perr.Code, perr.StatusCode)
	}
}

func TestSupabaseAuthProvider_NotConfigured(t *testing.T) {
	provider := NewSupabaseAuthProvider("", "")
	err := provider.UpdateUserEmail(context.Background(), "user-1", "a@b.c")

	var perr *ProviderError
	if !errors.As(err, &perr) || perr.Code != ErrCodeNotConfigured {
		t.Errorf("Expected NOT_CONFIGURED error, got %v", err)
	}
}
