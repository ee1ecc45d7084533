package router

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"booking-service/internal/http-server/handlers/availability/check"
	employeesList "booking-service/internal/http-server/handlers/employees/list"
	gridGet "booking-service/internal/http-server/handlers/grid/get"
	reservationCreate "booking-service/internal/http-server/handlers/reservations/create"
	reservationGet "booking-service/internal/http-server/handlers/reservations/get"
	reservationStatus "booking-service/internal/http-server/handlers/reservations/status"
	"booking-service/internal/http-server/middleware/auth"
	"booking-service/internal/models"
	"booking-service/pkg/middleware/mwLogger"
)

type Service interface {
	auth.Authenticator
	check.AvailabilityChecker
	reservationCreate.ReservationCreator
	reservationGet.ReservationGetter
	reservationStatus.StatusChanger
	gridGet.GridGetter
	employeesList.EmployeeLister
}

type Options struct {
	AllowedOrigins []string
}

func New(log *slog.Logger, service Service, opts Options) http.Handler {
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}

	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(mwLogger.New(log))
	router.Use(middleware.Recoverer)
	router.Use(middleware.URLFormat)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", auth.HeaderAPIKey},
	}))

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, map[string]string{"status": "ok"})
	})
	router.Handle("/metrics", promhttp.Handler())

	router.Group(func(r chi.Router) {
		r.Use(auth.New(log, service))

		r.Get("/check", check.New(log, service))
		r.Get("/grid", gridGet.New(log, service))
		r.Get("/employees", employeesList.New(log, service))

		r.Post("/reservations", reservationCreate.New(log, service))
		r.Patch("/reservations", reservationCreate.New(log, service))
		r.Get("/reservations/{id}", reservationGet.New(log, service))
		r.Put("/reservations/{id}/confirm", reservationStatus.New(log, service, models.ReservationConfirmed))
		r.Put("/reservations/{id}/cancel", reservationStatus.New(log, service, models.ReservationCancelled))
		r.Put("/reservations/{id}/complete", reservationStatus.New(log, service, models.ReservationCompleted))
		r.Put("/reservations/{id}/no-show", reservationStatus.New(log, service, models.ReservationNoShow))
	})

	return router
}
