package create

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

type ReservationCreator interface {
	Book(ctx context.Context, tenantID string, req *api.BookingRequest) (*api.BookingResponse, error)
}

type Request struct {
	api.BookingRequest
}

type ConflictResponse struct {
	response.Response
	Success                 bool                         `json:"success"`
	Booked                  bool                         `json:"booked"`
	BlockReason             string                       `json:"block_reason,omitempty"`
	ConflictingReservations []api.ConflictingReservation `json:"conflicting_reservations,omitempty"`
	Alternatives            api.Alternatives             `json:"alternatives"`
}

type StaffNotFoundResponse struct {
	response.Response
	AvailableEmployees []string `json:"available_employees"`
}

func New(log *slog.Logger, creator ReservationCreator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.reservations.create.New"

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

		var req Request

		if err := render.DecodeJSON(r.Body, &req); err != nil {
			log.Error("failed to decode request body", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(response.VALIDATION_ERROR, "failed to decode request"))
			return
		}

		booking, err := creator.Book(r.Context(), tenant.ID, &req.BookingRequest)

		var invalid *service.ValidationError
		var notFound *service.StaffNotFoundError
		var conflict *service.SlotConflictError

		switch {
		case errors.As(err, &invalid):
			log.Info("invalid booking request", slog.String("field", invalid.Field))
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
		case errors.Is(err, response.ErrProductNotFound):
			log.Info("product not found", sl.Err(err))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error(response.PRODUCT_NOT_FOUND, "product not found"))
			return
		case errors.As(err, &conflict):
			log.Info("time slot occupied", slog.String("block_reason", conflict.BlockReason))
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, ConflictResponse{
				Response:                response.Error(response.TIME_SLOT_OCCUPIED, "time slot is occupied"),
				BlockReason:             conflict.BlockReason,
				ConflictingReservations: conflict.Conflicts,
				Alternatives:            conflict.Alternatives,
			})
			return
		case errors.Is(err, response.ErrLocked):
			log.Warn("booking lock is busy")
			w.WriteHeader(http.StatusLocked)
			render.JSON(w, r, response.Error(response.LOCKED, "another booking for this date is in progress, retry"))
			return
		case err != nil:
			log.Error("failed to create reservation", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(response.DATABASE_ERROR, "failed to create reservation"))
			return
		}

		log.Info("reservation created", slog.String("reservation_id", booking.ReservationID))

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, booking)
	}
}
