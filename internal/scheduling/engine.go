package scheduling

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"booking-service/internal/models"
)

var ErrUnknownStaff = errors.New("staff member is not active or does not exist")

// Source is the read side the engine needs. The engine never writes.
type Source interface {
	ListStaff(ctx context.Context, tenantID string) ([]models.StaffMember, error)
	ListShifts(ctx context.Context, tenantID string, weekday models.Weekday) ([]models.ShiftPattern, error)
	ListExceptions(ctx context.Context, tenantID string, date time.Time) ([]models.ShiftException, error)
	ListClosedDays(ctx context.Context, tenantID string) ([]models.ClosedDay, error)
	ListReservations(ctx context.Context, tenantID string, date time.Time, staffID *string) ([]models.Reservation, error)
}

// Engine loads day snapshots from a Source and runs the scheduling rules on
// them. It holds no state between calls.
type Engine struct {
	src  Source
	opts Options
}

func NewEngine(src Source, opts Options) *Engine {
	return &Engine{src: src, opts: opts.withDefaults()}
}

func (e *Engine) Options() Options {
	return e.opts
}

func (e *Engine) LoadDay(ctx context.Context, tenantID string, date time.Time) (*Day, error) {
	const op = "scheduling.Engine.LoadDay"

	date = DateOnly(date)

	staff, err := e.src.ListStaff(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("%s: staff: %w", op, err)
	}
	shifts, err := e.src.ListShifts(ctx, tenantID, models.WeekdayOf(date))
	if err != nil {
		return nil, fmt.Errorf("%s: shifts: %w", op, err)
	}
	exceptions, err := e.src.ListExceptions(ctx, tenantID, date)
	if err != nil {
		return nil, fmt.Errorf("%s: exceptions: %w", op, err)
	}
	closed, err := e.src.ListClosedDays(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("%s: closed days: %w", op, err)
	}
	reservations, err := e.src.ListReservations(ctx, tenantID, date, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: reservations: %w", op, err)
	}

	day, err := BuildDay(date, DayData{
		Staff:        staff,
		Shifts:       shifts,
		Exceptions:   exceptions,
		ClosedDays:   closed,
		Reservations: reservations,
	}, e.opts.DefaultDuration)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return day, nil
}

// Check loads the candidate's day and evaluates it. A named staff member that
// is missing or inactive yields ErrUnknownStaff.
func (e *Engine) Check(ctx context.Context, tenantID string, c Candidate) (*Day, Result, error) {
	const op = "scheduling.Engine.Check"

	day, err := e.LoadDay(ctx, tenantID, c.Date)
	if err != nil {
		return nil, Result{}, fmt.Errorf("%s: %w", op, err)
	}

	if c.StaffID != "" {
		if _, ok := day.Staff(c.StaffID); !ok {
			return day, Result{}, fmt.Errorf("%s: %w", op, ErrUnknownStaff)
		}
	}

	return day, day.Evaluate(c), nil
}

// Alternatives runs the three searches for a blocked candidate. The later days
// are loaded concurrently; day is the already loaded snapshot of c.Date.
func (e *Engine) Alternatives(ctx context.Context, tenantID string, day *Day, c Candidate) (Alternatives, error) {
	const op = "scheduling.Engine.Alternatives"

	alts := Alternatives{
		SameDayTimes:  SameDayTimes(day, c, e.opts),
		SameTimeStaff: SameTimeStaff(day, c, e.opts.MaxAlternatives),
	}

	days := make([]*Day, e.opts.LookaheadDays)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i := range days {
		g.Go(func() error {
			d, err := e.LoadDay(gctx, tenantID, AddDays(c.Date, i+1))
			if err != nil {
				return err
			}
			days[i] = d
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return alts, fmt.Errorf("%s: %w", op, err)
	}

	alts.NextDays = NextDays(days, c, e.opts.MaxAlternatives)

	return alts, nil
}

func (e *Engine) Grid(ctx context.Context, tenantID string, date time.Time) (Grid, error) {
	const op = "scheduling.Engine.Grid"

	day, err := e.LoadDay(ctx, tenantID, date)
	if err != nil {
		return Grid{}, fmt.Errorf("%s: %w", op, err)
	}

	return BuildGrid(day, e.opts), nil
}
