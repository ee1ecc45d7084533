package list

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"booking-service/api"
	"booking-service/internal/http-server/middleware/auth"
	"booking-service/pkg/response"
	"booking-service/pkg/sl"
)

type EmployeeLister interface {
	ListEmployees(ctx context.Context, tenantID string) ([]*api.EmployeeResponse, error)
}

type Response struct {
	Employees []*api.EmployeeResponse `json:"employees"`
}

func New(log *slog.Logger, lister EmployeeLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.employees.list.New"

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

		employees, err := lister.ListEmployees(r.Context(), tenant.ID)
		if err != nil {
			log.Error("failed to list employees", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(response.DATABASE_ERROR, "failed to list employees"))
			return
		}

		render.JSON(w, r, Response{Employees: employees})
	}
}
