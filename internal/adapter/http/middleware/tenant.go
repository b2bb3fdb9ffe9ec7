package middleware

import (
	"context"
	"net/http"
)

const (
	// TenantHeader carries the tenant scope of the request.
	TenantHeader = "X-Tenant-ID"
	// ActorHeader carries the acting user for audit trails.
	ActorHeader = "X-Actor-ID"
)

type contextKey int

const (
	tenantContextKey contextKey = iota
	actorContextKey
)

// Tenant extracts the tenant and actor headers into the request context.
// Requests without a tenant are rejected; every API operation is
// tenant-scoped.
func Tenant(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tenantID := r.Header.Get(TenantHeader)
		if tenantID == "" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":"missing tenant","message":"the ` + TenantHeader + ` header is required"}`))
			return
		}

		ctx := context.WithValue(r.Context(), tenantContextKey, tenantID)
		if actor := r.Header.Get(ActorHeader); actor != "" {
			ctx = context.WithValue(ctx, actorContextKey, actor)
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// TenantFromContext returns the tenant ID stored by the Tenant middleware.
func TenantFromContext(ctx context.Context) string {
	tenantID, _ := ctx.Value(tenantContextKey).(string)
	return tenantID
}

// ActorFromContext returns the actor ID stored by the Tenant middleware, or
// an empty string when the header was absent.
func ActorFromContext(ctx context.Context) string {
	actor, _ := ctx.Value(actorContextKey).(string)
	return actor
}
