package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
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

// bookingLockKey serializes every booking of one tenant on one date. Requests
// without a staff member are checked against the whole day, so the key cannot
// be narrower than the date.
func bookingLockKey(tenantID string, date time.Time) string {
	return fmt.Sprintf("booking:%s:%s", tenantID, scheduling.FormatDate(date))
}

type bookingPlan struct {
	reservation models.Reservation
	candidate   scheduling.Candidate
	staffName   string
	staff       []models.StaffMember
}

// Book validates the request, re-checks the interval under the per-date lock
// and inserts the reservation. The notification is emitted after the lock is
// released and never fails the booking.
func (s *Service) Book(ctx context.Context, tenantID string, req *api.BookingRequest) (*api.BookingResponse, error) {
	const op = "service.Book"

	log := s.log.With(slog.String("op", op), slog.String("tenant_id", tenantID))

	plan, err := s.planBooking(ctx, tenantID, req)
	if err != nil {
		metrics.IncBooking(bookingOutcome(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	id, err := s.reserve(ctx, tenantID, plan)
	if err != nil {
		metrics.IncBooking(bookingOutcome(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	plan.reservation.ID = id

	metrics.IncBooking("created")
	log.Info("reservation created",
		slog.String("reservation_id", id),
		slog.String("date", scheduling.FormatDate(plan.reservation.Date)),
		slog.String("time", plan.reservation.StartTime),
		slog.String("employee", plan.staffName),
	)

	s.emitNotification(ctx, log, plan.reservation, plan.staffName)

	resp := toReservation(&plan.reservation, staffNames(plan.staff))

	return &api.BookingResponse{
		Success:       true,
		Booked:        true,
		ReservationID: id,
		Reservation:   resp,
	}, nil
}

func (s *Service) planBooking(ctx context.Context, tenantID string, req *api.BookingRequest) (*bookingPlan, error) {
	if strings.TrimSpace(req.CustomerName) == "" {
		return nil, &ValidationError{Field: "customer_name", Reason: "is required"}
	}

	date, start, err := parseSlot(req.ReservationDate, req.ReservationTime, "reservation_date", "reservation_time")
	if err != nil {
		return nil, err
	}

	partySize := 1
	if req.PartySize != nil {
		if *req.PartySize < 1 {
			return nil, &ValidationError{Field: "party_size", Reason: "must be at least 1"}
		}
		partySize = *req.PartySize
	}

	staff, err := s.store.ListStaff(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", response.ErrPersistence, err)
	}

	plan := &bookingPlan{staff: staff}
	r := &plan.reservation
	r.TenantID = tenantID
	r.CustomerName = strings.TrimSpace(req.CustomerName)
	r.CustomerEmail = strings.TrimSpace(req.CustomerEmail)
	r.CustomerPhone = strings.TrimSpace(req.CustomerPhone)
	r.Date = date
	r.StartTime = scheduling.ToTimeString(start)
	r.PartySize = partySize
	r.Status = models.ReservationConfirmed
	r.Notes = req.Notes
	r.Source = strings.TrimSpace(req.Source)
	if r.Source == "" {
		r.Source = defaultSource
	}

	if strings.TrimSpace(req.Employee) != "" {
		member, ok := scheduling.FindStaff(staff, req.Employee)
		if !ok {
			return nil, staffNotFound(req.Employee, staff)
		}
		staffID := member.ID
		r.StaffID = &staffID
		plan.staffName = member.Name
	}

	duration := 0
	if req.Duration != nil {
		duration = *req.Duration
		if duration <= 0 {
			return nil, &ValidationError{Field: "duration", Reason: "must be positive"}
		}
	}

	productRef := strings.TrimSpace(req.ProductID)
	if productRef == "" {
		productRef = strings.TrimSpace(req.ProductName)
	}
	if productRef != "" {
		product, err := s.store.FindProduct(ctx, tenantID, productRef)
		if err != nil {
			if errors.Is(err, response.ErrNotFound) {
				return nil, fmt.Errorf("%q: %w", productRef, response.ErrProductNotFound)
			}
			return nil, fmt.Errorf("%w: %w", response.ErrPersistence, err)
		}
		productID := product.ID
		r.ProductID = &productID
		price := product.Price
		r.PricePaid = &price
		if duration == 0 && product.Duration > 0 {
			duration = product.Duration
		}
	}
	if req.PricePaid != nil {
		if req.PricePaid.IsNegative() {
			return nil, &ValidationError{Field: "price_paid", Reason: "must not be negative"}
		}
		price := *req.PricePaid
		r.PricePaid = &price
	}

	if duration == 0 {
		duration = s.engine.Options().DefaultDuration
	}
	if err := validateInterval(start, duration); err != nil {
		return nil, err
	}
	end := scheduling.ToTimeString(start + duration)
	r.EndTime = &end

	plan.candidate = scheduling.Candidate{Date: date, Start: start, Duration: duration}
	if r.StaffID != nil {
		plan.candidate.StaffID = *r.StaffID
	}

	return plan, nil
}

// reserve inserts the reservation or returns a SlotConflictError. Alternatives
// are searched after the per-date lock is released.
func (s *Service) reserve(ctx context.Context, tenantID string, plan *bookingPlan) (string, error) {
	id, day, result, err := s.insertLocked(ctx, tenantID, plan)
	if err != nil {
		return "", err
	}
	if !result.Available {
		return "", s.conflict(ctx, tenantID, day, plan, result)
	}
	return id, nil
}

// insertLocked holds the per-date lock across the availability re-check and
// the insert. A blocked interval comes back as a Result, not an error.
func (s *Service) insertLocked(ctx context.Context, tenantID string, plan *bookingPlan) (string, *scheduling.Day, scheduling.Result, error) {
	key := bookingLockKey(tenantID, plan.candidate.Date)

	token, err := lock.Acquire(ctx, s.locker, key, s.lockTTL, s.lockWait)
	if err != nil {
		if errors.Is(err, lock.ErrNotAcquired) {
			return "", nil, scheduling.Result{}, fmt.Errorf("%w: %w", response.ErrLocked, err)
		}
		return "", nil, scheduling.Result{}, err
	}
	defer func() {
		if err := s.locker.Unlock(context.WithoutCancel(ctx), key, token); err != nil {
			s.log.Warn("failed to release booking lock", slog.String("key", key), sl.Err(err))
		}
	}()

	day, result, err := s.engine.Check(ctx, tenantID, plan.candidate)
	if err != nil {
		if errors.Is(err, scheduling.ErrUnknownStaff) {
			return "", nil, scheduling.Result{}, staffNotFound(plan.staffName, plan.staff)
		}
		return "", nil, scheduling.Result{}, fmt.Errorf("%w: %w", response.ErrPersistence, err)
	}
	if !result.Available {
		return "", day, result, nil
	}

	id, err := s.store.CreateReservation(ctx, &plan.reservation)
	if err != nil {
		if errors.Is(err, response.ErrSlotOccupied) {
			return "", day, scheduling.Result{BlockReason: scheduling.BlockReservationConflict}, nil
		}
		return "", nil, scheduling.Result{}, fmt.Errorf("%w: %w", response.ErrPersistence, err)
	}

	return id, day, result, nil
}

// conflict builds the 409 payload. A failing alternative search is logged and
// leaves the alternatives empty rather than hiding the conflict.
func (s *Service) conflict(ctx context.Context, tenantID string, day *scheduling.Day, plan *bookingPlan, result scheduling.Result) error {
	names := staffNames(plan.staff)

	alts, err := s.engine.Alternatives(ctx, tenantID, day, plan.candidate)
	if err != nil {
		s.log.Warn("failed to compute alternatives", slog.String("tenant_id", tenantID), sl.Err(err))
	}

	return &SlotConflictError{
		BlockReason:  result.BlockReason.String(),
		Conflicts:    toConflicts(result.Conflicts, names),
		Alternatives: *toAlternatives(alts),
	}
}

func (s *Service) emitNotification(ctx context.Context, log *slog.Logger, r models.Reservation, staffName string) {
	n, err := notify.NewReservationNotification(r, staffName)
	if err == nil {
		err = s.notifier.Notify(context.WithoutCancel(ctx), n)
	}
	if err != nil {
		metrics.IncNotificationFailure()
		log.Warn("failed to emit reservation notification", slog.String("reservation_id", r.ID), sl.Err(err))
	}
}

func bookingOutcome(err error) string {
	switch {
	case errors.Is(err, response.ErrValidation):
		return "invalid"
	case errors.Is(err, response.ErrStaffNotFound), errors.Is(err, response.ErrProductNotFound):
		return "not_found"
	case errors.Is(err, response.ErrSlotOccupied):
		return "conflict"
	case errors.Is(err, response.ErrLocked):
		return "locked"
	default:
		return "error"
	}
}
