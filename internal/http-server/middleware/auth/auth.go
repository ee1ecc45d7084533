package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"booking-service/internal/models"
	"booking-service/pkg/response"
	"booking-service/pkg/sl"
)

const HeaderAPIKey = "X-API-Key"

type ctxKey struct{}

type Authenticator interface {
	Authenticate(ctx context.Context, apiKey string) (*models.Tenant, error)
}

// New resolves the tenant from X-API-Key or an Authorization bearer token and
// stores it in the request context.
func New(log *slog.Logger, authenticator Authenticator) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			const op = "middleware.auth.New"

			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			tenant, err := authenticator.Authenticate(r.Context(), apiKey(r))

			switch {
			case errors.Is(err, response.ErrUnauthorized):
				log.Warn("rejected api key")
				w.WriteHeader(http.StatusUnauthorized)
				render.JSON(w, r, response.Error(response.INVALID_API_KEY, "invalid api key"))
				return
			case errors.Is(err, response.ErrForbidden):
				log.Warn("tenant is inactive")
				w.WriteHeader(http.StatusForbidden)
				render.JSON(w, r, response.Error(response.TENANT_INACTIVE, "tenant is inactive"))
				return
			case err != nil:
				log.Error("failed to authenticate", sl.Err(err))
				w.WriteHeader(http.StatusInternalServerError)
				render.JSON(w, r, response.Error(response.DATABASE_ERROR, "failed to authenticate"))
				return
			}

			ctx := WithTenant(r.Context(), tenant)
			next.ServeHTTP(w, r.WithContext(ctx))
		}

		return http.HandlerFunc(fn)
	}
}

func TenantFromContext(ctx context.Context) (*models.Tenant, bool) {
	t, ok := ctx.Value(ctxKey{}).(*models.Tenant)
	return t, ok && t != nil
}

// WithTenant returns a copy of ctx carrying the tenant.
func WithTenant(ctx context.Context, t *models.Tenant) context.Context {
	return context.WithValue(ctx, ctxKey{}, t)
}

func apiKey(r *http.Request) string {
	if key := strings.TrimSpace(r.Header.Get(HeaderAPIKey)); key != "" {
		return key
	}
	authz := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(authz) > 7 && strings.EqualFold(authz[:7], "bearer ") {
		return strings.TrimSpace(authz[7:])
	}
	return ""
}
