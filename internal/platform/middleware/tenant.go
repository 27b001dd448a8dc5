package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"govinda/internal/platform/metrics"
	tenantmodels "govinda/internal/tenant/models"
	id "govinda/pkg/domain"
	"govinda/pkg/requestcontext"
)

// TenantResolver looks a tenant up by id. The tenant service satisfies this.
type TenantResolver interface {
	GetTenant(ctx context.Context, tenantID id.TenantID) (*tenantmodels.Tenant, error)
}

// ResolveTenant scopes the request to a tenant. The authenticated token
// already carries a tenant; an explicit X-Tenant-ID header must match it.
// Requests for an inactive tenant are rejected here, which is the single
// enforcement point for tenant deactivation.
func ResolveTenant(resolver TenantResolver, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			tenantID := requestcontext.TenantID(ctx)
			if header := r.Header.Get("X-Tenant-ID"); header != "" {
				headerID, err := id.ParseTenantID(header)
				if err != nil {
					writeAuthError(w, http.StatusBadRequest, "invalid tenant id")
					return
				}
				if !tenantID.IsNil() && headerID != tenantID {
					writeAuthError(w, http.StatusForbidden, "tenant mismatch")
					return
				}
				tenantID = headerID
			}
			if tenantID.IsNil() {
				writeAuthError(w, http.StatusUnauthorized, "no tenant in request")
				return
			}

			tenant, err := resolver.GetTenant(ctx, tenantID)
			if err != nil {
				logger.WarnContext(ctx, "tenant resolution failed",
					"tenant_id", tenantID, "error", err)
				writeAuthError(w, http.StatusUnauthorized, "unknown tenant")
				return
			}
			if !tenant.IsActive() {
				writeAuthError(w, http.StatusForbidden, "tenant is deactivated")
				return
			}

			ctx = requestcontext.WithTenantID(ctx, tenantID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdminToken gates the admin surface on a shared secret header.
// Tenant lifecycle management is operator tooling, not tenant-facing API.
func RequireAdminToken(token string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token == "" || r.Header.Get("X-Admin-Token") != token {
				logger.WarnContext(r.Context(), "admin token rejected", "path", r.URL.Path)
				writeAuthError(w, http.StatusForbidden, "admin token required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Latency feeds the transport-level Prometheus metrics.
func Latency(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			m.ObserveRequest(r.Method, strconv.Itoa(rec.status), start)
		})
	}
}
