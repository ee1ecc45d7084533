package check

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

type AvailabilityChecker interface {
	CheckAvailability(ctx context.Context, tenantID string, req *api.CheckRequest) (*api.CheckResponse, error)
}

type StaffNotFoundResponse struct {
	response.Response
	AvailableEmployees []string `json:"available_employees"`
}

// New answers GET /check. A blocked slot is a normal 200 answer carrying
// conflicts and alternatives.
func New(log *slog.Logger, checker AvailabilityChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.availability.check.New"

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

		q := r.URL.Query()
		req := api.CheckRequest{
			Date:     q.Get("date"),
			Time:     q.Get("time"),
			Employee: q.Get("employee"),
			Duration: q.Get("duration"),
		}

		resp, err := checker.CheckAvailability(r.Context(), tenant.ID, &req)

		var notFound *service.StaffNotFoundError
		var invalid *service.ValidationError

		switch {
		case errors.As(err, &invalid):
			log.Info("invalid availability request", slog.String("field", invalid.Field))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(response.VALIDATION_ERROR, invalid.Error()))
			return
		case errors.As(err, &notFound):
			log.Info("employee not found", slog.String("employee", notFound.Name))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, StaffNotFoundResponse{
				Response:           response.Error(response.EMPLOYEE_NOT_FOUND, notFound.Error()),
				AvailableEmployees: notFound.Roster,
			})
			return
		case err != nil:
			log.Error("failed to check availability", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(response.DATABASE_ERROR, "failed to check availability"))
			return
		}

		log.Debug("availability checked",
			slog.Bool("available", resp.Available),
			slog.String("block_reason", resp.BlockReason),
		)

		render.JSON(w, r, resp)
	}
}
