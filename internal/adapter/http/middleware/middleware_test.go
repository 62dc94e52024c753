package middleware

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/nxfinance/loans/internal/domain"
	"github.com/nxfinance/loans/internal/infrastructure/auth"
	"github.com/nxfinance/loans/internal/infrastructure/metrics"
)

func TestRecovery(t *testing.T) {
	var buf bytes.Buffer
	handler := Recovery(zerolog.New(&buf))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/loans/x", nil))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, rr.Body.String())
	assert.Contains(t, buf.String(), "panic recovered")
}

func TestLoggingMiddleware(t *testing.T) {
	var buf bytes.Buffer
	mw := NewLoggingMiddleware(zerolog.New(&buf))

	handler := mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/v1/loans", nil))

	out := buf.String()
	assert.Contains(t, out, `"level":"error"`)
	assert.Contains(t, out, `"status":503`)
	assert.Contains(t, out, `"path":"/api/v1/loans"`)
}

func TestAuthMiddleware(t *testing.T) {
	manager := auth.NewJWTManager("test-secret", time.Hour)
	customerToken, err := manager.Generate(&domain.User{ID: "u1", Role: domain.RoleCustomer, CustomerID: "cust-1"})
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantReason string
	}{
		{"valid token", "Bearer " + customerToken, http.StatusOK, ""},
		{"missing header", "", http.StatusUnauthorized, "missing_header"},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized, "malformed_header"},
		{"garbage token", "Bearer not-a-jwt", http.StatusUnauthorized, "invalid_token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := metrics.NewWithRegistry(prometheus.NewRegistry())

			var seen *domain.User
			handler := AuthMiddleware(manager, m)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen, _ = domain.UserFromContext(r.Context())
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/v1/loans/x", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			assert.Equal(t, tt.wantStatus, rr.Code)
			if tt.wantReason == "" {
				if assert.NotNil(t, seen) {
					assert.Equal(t, "cust-1", seen.CustomerID)
				}
				return
			}
			assert.Equal(t, float64(1), testutil.ToFloat64(m.AuthFailures.WithLabelValues(tt.wantReason)))
		})
	}
}

type verifierFunc func(string) (*auth.Claims, error)

func (f verifierFunc) Verify(token string) (*auth.Claims, error) { return f(token) }

func TestAuthMiddleware_ExpiredToken(t *testing.T) {
	m := metrics.NewWithRegistry(prometheus.NewRegistry())
	verifier := verifierFunc(func(string) (*auth.Claims, error) {
		return nil, errors.Join(domain.ErrExpiredToken)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer old")
	rr := httptest.NewRecorder()
	AuthMiddleware(verifier, m)(http.NotFoundHandler()).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.AuthFailures.WithLabelValues("expired_token")))
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name string
		user *domain.User
		want int
	}{
		{"no user", nil, http.StatusUnauthorized},
		{"customer", &domain.User{ID: "u1", Role: domain.RoleCustomer, CustomerID: "c"}, http.StatusForbidden},
		{"admin", &domain.User{ID: "u2", Role: domain.RoleAdmin}, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/loans/x/approve", strings.NewReader(""))
			if tt.user != nil {
				req = req.WithContext(domain.ContextWithUser(req.Context(), tt.user))
			}
			rr := httptest.NewRecorder()
			RequireRole(domain.RoleAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			})).ServeHTTP(rr, req)

			assert.Equal(t, tt.want, rr.Code)
		})
	}
}
