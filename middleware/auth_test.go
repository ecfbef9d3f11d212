package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func authedRequest(t *testing.T, am *AuthMiddleware, path, header string) *httptest.ResponseRecorder {
	t.Helper()
	handler := am.BearerMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, path, nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, req)
	return recorder
}

func TestBearerMiddleware(t *testing.T) {
	am := NewAuthMiddleware("sekrit")

	tests := []struct {
		name   string
		path   string
		header string
		want   int
	}{
		{"valid token", "/webhooks/booking", "Bearer sekrit", http.StatusOK},
		{"wrong token", "/webhooks/booking", "Bearer nope", http.StatusUnauthorized},
		{"missing header", "/webhooks/booking", "", http.StatusUnauthorized},
		{"wrong scheme", "/webhooks/booking", "Basic sekrit", http.StatusUnauthorized},
		{"health is open", "/health", "", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := authedRequest(t, am, tt.path, tt.header); got.Code != tt.want {
				t.Errorf("status = %d, want %d", got.Code, tt.want)
			}
		})
	}
}

func TestBearerMiddleware_DisabledWithoutToken(t *testing.T) {
	am := NewAuthMiddleware("")

	if got := authedRequest(t, am, "/webhooks/booking", ""); got.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 when no token is configured", got.Code)
	}
}
