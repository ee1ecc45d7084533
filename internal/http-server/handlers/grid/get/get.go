package get

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"booking-service/api"
	"booking-service/internal/http-server/middleware/auth"
	"booking-service/internal/service"
	"booking-service/pkg/response"
	"booking-service/pkg/sl"
)

type GridGetter interface {
	Grid(ctx context.Context, tenantID string, date string) (*api.GridResponse, error)
}

func New(log *slog.Logger, getter GridGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.grid.get.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		tenant, ok := auth.TenantFromContext(r.Context())
		if !ok {
			w.WriteHeader(http.StatusUnauthorized)
			render.JSON(w, r, response.Error(response.INVALID_API_KEY, "missing tenant"))
			return
		}

		grid, err := getter.Grid(r.Context(), tenant.ID, r.URL.Query().Get("date"))

		var invalid *service.ValidationError
		if errors.As(err, &invalid) {
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(response.VALIDATION_ERROR, invalid.Error()))
			return
		}

		if err != nil {
			log.Error("failed to build grid", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(response.DATABASE_ERROR, "failed to build grid"))
			return
		}

		log.Debug("grid built", slog.Int("rows", len(grid.Employees)))

		render.JSON(w, r, grid)
	}
}
