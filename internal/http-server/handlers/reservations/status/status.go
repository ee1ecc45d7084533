// Package status serves the lifecycle routes of a reservation. One handler is
// mounted per target status.
package status

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"booking-service/api"
	"booking-service/internal/http-server/middleware/auth"
	"booking-service/internal/models"
	"booking-service/pkg/response"
	"booking-service/pkg/sl"
)

type StatusChanger interface {
	ChangeStatus(ctx context.Context, tenantID, id string, status models.ReservationStatus) (*api.ReservationResponse, error)
}

type Response struct {
	Success     bool                    `json:"success"`
	Reservation api.ReservationResponse `json:"reservation"`
}

func New(log *slog.Logger, changer StatusChanger, target models.ReservationStatus) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.reservations.status.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.String("target", string(target)),
		)

		tenant, ok := auth.TenantFromContext(r.Context())
		if !ok {
			w.WriteHeader(http.StatusUnauthorized)
			render.JSON(w, r, response.Error(response.INVALID_API_KEY, "missing tenant"))
			return
		}

		id := chi.URLParam(r, "id")
		if id == "" {
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(response.VALIDATION_ERROR, "id is required"))
			return
		}

		reservation, err := changer.ChangeStatus(r.Context(), tenant.ID, id, target)

		switch {
		case errors.Is(err, response.ErrNotFound):
			log.Info("reservation not found", slog.String("reservation_id", id))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error(response.NOT_FOUND, "reservation not found"))
			return
		case errors.Is(err, response.ErrInvalidTransition):
			log.Info("invalid status transition", sl.Err(err))
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error(response.INVALID_STATUS_TRANSITION, "reservation cannot move to "+string(target)))
			return
		case err != nil:
			log.Error("failed to change reservation status", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(response.DATABASE_ERROR, "failed to change reservation status"))
			return
		}

		log.Info("reservation status changed", slog.String("reservation_id", id))

		render.JSON(w, r, Response{Success: true, Reservation: *reservation})
	}
}
