package get

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
	"booking-service/pkg/response"
	"booking-service/pkg/sl"
)

type ReservationGetter interface {
	GetReservation(ctx context.Context, tenantID, id string) (*api.ReservationResponse, error)
}

type Response struct {
	Reservation api.ReservationResponse `json:"reservation"`
}

func New(log *slog.Logger, getter ReservationGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.reservations.get.New"

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

		id := chi.URLParam(r, "id")
		if id == "" {
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(response.VALIDATION_ERROR, "id is required"))
			return
		}

		reservation, err := getter.GetReservation(r.Context(), tenant.ID, id)

		if errors.Is(err, response.ErrNotFound) {
			log.Info("reservation not found", slog.String("reservation_id", id))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error(response.NOT_FOUND, "reservation not found"))
			return
		}

		if err != nil {
			log.Error("failed to get reservation", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(response.DATABASE_ERROR, "failed to get reservation"))
			return
		}

		render.JSON(w, r, Response{Reservation: *reservation})
	}
}
