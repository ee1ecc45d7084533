package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"booking-service/api"
	"booking-service/internal/lock"
	"booking-service/internal/metrics"
	"booking-service/internal/models"
	"booking-service/internal/notify"
	"booking-service/internal/scheduling"
	"booking-service/pkg/response"
	"booking-service/pkg/sl"
)

const (
	defaultLockTTL  = 10 * time.Second
	defaultLockWait = 3 * time.Second
	defaultSource   = "api"
)

type Service struct {
	store    Store
	engine   *scheduling.Engine
	locker   lock.Locker
	notifier notify.Notifier
	log      *slog.Logger
	lockTTL  time.Duration
	lockWait time.Duration
}

type Options struct {
	Schedule scheduling.Options
	LockTTL  time.Duration
	LockWait time.Duration
}

func NewService(log *slog.Logger, store Store, locker lock.Locker, notifier notify.Notifier, opts Options) *Service {
	if opts.LockTTL <= 0 {
		opts.LockTTL = defaultLockTTL
	}
	if opts.LockWait <= 0 {
		opts.LockWait = defaultLockWait
	}
	if notifier == nil {
		notifier = notify.Nop{}
	}

	return &Service{
		store:    store,
		engine:   scheduling.NewEngine(store, opts.Schedule),
		locker:   locker,
		notifier: notifier,
		log:      log,
		lockTTL:  opts.LockTTL,
		lockWait: opts.LockWait,
	}
}

type Store interface {
	scheduling.Source

	GetTenantByAPIKey(ctx context.Context, apiKey string) (*models.Tenant, error)

	FindProduct(ctx context.Context, tenantID, idOrName string) (*models.Product, error)

	CreateReservation(ctx context.Context, r *models.Reservation) (string, error)
	GetReservation(ctx context.Context, tenantID, id string) (*models.Reservation, error)
	UpdateReservationStatus(ctx context.Context, tenantID, id string, status models.ReservationStatus) error
}

// Tenants

func (s *Service) Authenticate(ctx context.Context, apiKey string) (*models.Tenant, error) {
	const op = "service.Authenticate"

	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("%s: %w", op, response.ErrUnauthorized)
	}

	tenant, err := s.store.GetTenantByAPIKey(ctx, apiKey)
	if err != nil {
		if errors.Is(err, response.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, response.ErrUnauthorized)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if !tenant.IsActive {
		return nil, fmt.Errorf("%s: %w", op, response.ErrForbidden)
	}

	return tenant, nil
}

// Roster

func (s *Service) ListEmployees(ctx context.Context, tenantID string) ([]*api.EmployeeResponse, error) {
	const op = "service.ListEmployees"

	roster, err := s.activeRoster(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	result := make([]*api.EmployeeResponse, 0, len(roster))
	for _, m := range roster {
		result = append(result, &api.EmployeeResponse{
			ID:        m.ID,
			Name:      m.Name,
			Color:     m.Color,
			SortOrder: m.SortOrder,
		})
	}

	return result, nil
}

// Availability

func (s *Service) CheckAvailability(ctx context.Context, tenantID string, req *api.CheckRequest) (*api.CheckResponse, error) {
	const op = "service.CheckAvailability"

	date, start, err := parseSlot(req.Date, req.Time, "date", "time")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	duration := s.engine.Options().DefaultDuration
	if strings.TrimSpace(req.Duration) != "" {
		d, err := strconv.Atoi(strings.TrimSpace(req.Duration))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, &ValidationError{Field: "duration", Reason: "must be a whole number of minutes"})
		}
		duration = d
	}
	if err := validateInterval(start, duration); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	staff, err := s.store.ListStaff(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	candidate := scheduling.Candidate{Date: date, Start: start, Duration: duration}
	requested := api.RequestedSlot{
		Date:     scheduling.FormatDate(date),
		Time:     scheduling.ToTimeString(start),
		Duration: duration,
	}

	if strings.TrimSpace(req.Employee) != "" {
		member, ok := scheduling.FindStaff(staff, req.Employee)
		if !ok {
			return nil, fmt.Errorf("%s: %w", op, staffNotFound(req.Employee, staff))
		}
		candidate.StaffID = member.ID
		requested.Employee = member.Name
	}

	day, result, err := s.engine.Check(ctx, tenantID, candidate)
	if err != nil {
		if errors.Is(err, scheduling.ErrUnknownStaff) {
			return nil, fmt.Errorf("%s: %w", op, staffNotFound(req.Employee, staff))
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if result.Available {
		metrics.IncAvailabilityCheck("available")
		return &api.CheckResponse{Available: true, Requested: requested}, nil
	}

	metrics.IncAvailabilityCheck("blocked")

	alts, err := s.engine.Alternatives(ctx, tenantID, day, candidate)
	if err != nil {
		s.log.Warn("failed to compute alternatives", slog.String("op", op), slog.String("tenant_id", tenantID), sl.Err(err))
	}

	names := staffNames(staff)

	return &api.CheckResponse{
		Available:               false,
		Requested:               requested,
		BlockReason:             result.BlockReason.String(),
		ConflictingReservations: toConflicts(result.Conflicts, names),
		Alternatives:            toAlternatives(alts),
	}, nil
}

func (s *Service) Grid(ctx context.Context, tenantID string, dateStr string) (*api.GridResponse, error) {
	const op = "service.Grid"

	if strings.TrimSpace(dateStr) == "" {
		return nil, fmt.Errorf("%s: %w", op, &ValidationError{Field: "date", Reason: "is required"})
	}
	date, err := scheduling.ParseDate(dateStr)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, &ValidationError{Field: "date", Reason: "expected DD.MM.YYYY"})
	}

	grid, err := s.engine.Grid(ctx, tenantID, date)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	resp := &api.GridResponse{
		Date:      scheduling.FormatDate(grid.Date),
		Start:     scheduling.ToTimeString(grid.Start),
		End:       scheduling.ToTimeString(grid.End),
		Tick:      grid.Tick,
		Employees: make([]api.GridRow, 0, len(grid.Rows)),
	}
	for _, row := range grid.Rows {
		out := api.GridRow{
			EmployeeID: row.Staff.ID,
			Employee:   row.Staff.Name,
			Color:      row.Staff.Color,
			Shift:      string(row.Shift),
			Slots:      make([]api.GridCell, 0, len(row.Cells)),
		}
		for _, c := range row.Cells {
			out.Slots = append(out.Slots, api.GridCell{
				Time:          scheduling.ToTimeString(c.Start),
				Status:        string(c.Status),
				Customer:      c.CustomerName,
				ReservationID: c.ReservationID,
			})
		}
		resp.Employees = append(resp.Employees, out)
	}

	return resp, nil
}

// Reservations

func (s *Service) GetReservation(ctx context.Context, tenantID, id string) (*api.ReservationResponse, error) {
	const op = "service.GetReservation"

	r, err := s.store.GetReservation(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, response.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	staff, err := s.store.ListStaff(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	resp := toReservation(r, staffNames(staff))
	return &resp, nil
}

// ChangeStatus moves a reservation along its lifecycle. Cancelling releases
// the interval for new bookings.
func (s *Service) ChangeStatus(ctx context.Context, tenantID, id string, status models.ReservationStatus) (*api.ReservationResponse, error) {
	const op = "service.ChangeStatus"

	r, err := s.store.GetReservation(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, response.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if r.Status == status {
		return s.GetReservation(ctx, tenantID, id)
	}
	if !r.Status.CanTransitionTo(status) {
		return nil, fmt.Errorf("%s: %s -> %s: %w", op, r.Status, status, response.ErrInvalidTransition)
	}

	if err := s.store.UpdateReservationStatus(ctx, tenantID, id, status); err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, response.ErrPersistence, err)
	}

	metrics.IncStatusTransition(string(status))

	return s.GetReservation(ctx, tenantID, id)
}

func (s *Service) activeRoster(ctx context.Context, tenantID string) ([]models.StaffMember, error) {
	staff, err := s.store.ListStaff(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return scheduling.ActiveRoster(staff), nil
}

func staffNotFound(name string, staff []models.StaffMember) *StaffNotFoundError {
	roster := make([]string, 0, len(staff))
	for _, m := range scheduling.ActiveRoster(staff) {
		roster = append(roster, m.Name)
	}
	return &StaffNotFoundError{Name: name, Roster: roster}
}

func staffNames(staff []models.StaffMember) map[string]string {
	names := make(map[string]string, len(staff))
	for _, m := range staff {
		names[m.ID] = m.Name
	}
	return names
}

func parseSlot(dateStr, timeStr, dateField, timeField string) (time.Time, int, error) {
	if strings.TrimSpace(dateStr) == "" {
		return time.Time{}, 0, &ValidationError{Field: dateField, Reason: "is required"}
	}
	if strings.TrimSpace(timeStr) == "" {
		return time.Time{}, 0, &ValidationError{Field: timeField, Reason: "is required"}
	}

	date, err := scheduling.ParseDate(dateStr)
	if err != nil {
		return time.Time{}, 0, &ValidationError{Field: dateField, Reason: "expected DD.MM.YYYY"}
	}
	start, err := scheduling.ToMinutes(timeStr)
	if err != nil {
		return time.Time{}, 0, &ValidationError{Field: timeField, Reason: "expected HH:MM"}
	}

	return date, start, nil
}

func validateInterval(start, duration int) error {
	if duration <= 0 {
		return &ValidationError{Field: "duration", Reason: "must be positive"}
	}
	if duration > scheduling.MinutesPerDay-1-start {
		return &ValidationError{Field: "duration", Reason: "reservation must end before midnight"}
	}
	return nil
}

func toConflicts(conflicts []scheduling.Conflict, names map[string]string) []api.ConflictingReservation {
	out := make([]api.ConflictingReservation, 0, len(conflicts))
	for _, c := range conflicts {
		out = append(out, api.ConflictingReservation{
			Customer:  c.CustomerLabel,
			StartTime: scheduling.ToTimeString(c.Start),
			EndTime:   scheduling.ToTimeString(c.End),
			Employee:  names[c.StaffID],
		})
	}
	return out
}

func toAlternatives(alts scheduling.Alternatives) *api.Alternatives {
	out := &api.Alternatives{
		SameDayTimes:      make([]string, 0, len(alts.SameDayTimes)),
		SameTimeEmployees: make([]string, 0, len(alts.SameTimeStaff)),
		NextDays:          make([]api.NextDaySlot, 0, len(alts.NextDays)),
	}
	for _, t := range alts.SameDayTimes {
		out.SameDayTimes = append(out.SameDayTimes, scheduling.ToTimeString(t))
	}
	for _, m := range alts.SameTimeStaff {
		out.SameTimeEmployees = append(out.SameTimeEmployees, m.Name)
	}
	for _, d := range alts.NextDays {
		out.NextDays = append(out.NextDays, api.NextDaySlot{
			Date: scheduling.FormatGermanDate(d.Date),
			Time: scheduling.ToTimeString(d.Start),
		})
	}
	return out
}

func toReservation(r *models.Reservation, names map[string]string) api.ReservationResponse {
	resp := api.ReservationResponse{
		ID:            r.ID,
		CustomerName:  r.CustomerName,
		CustomerEmail: r.CustomerEmail,
		CustomerPhone: r.CustomerPhone,
		Date:          scheduling.FormatDate(r.Date),
		Time:          r.StartTime,
		PartySize:     r.PartySize,
		Status:        string(r.Status),
		PricePaid:     r.PricePaid,
		Notes:         r.Notes,
		Source:        r.Source,
	}
	if r.EndTime != nil {
		resp.EndTime = *r.EndTime
	}
	if r.StaffID != nil {
		resp.EmployeeID = *r.StaffID
		resp.Employee = names[*r.StaffID]
	}
	if r.ProductID != nil {
		resp.ProductID = *r.ProductID
	}
	if !r.CreatedAt.IsZero() {
		created := r.CreatedAt
		resp.CreatedAt = &created
	}
	return resp
}
