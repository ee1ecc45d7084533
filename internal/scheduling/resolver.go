package scheduling

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"booking-service/internal/models"
)

// Window is a half-open minute range within one day.
type Window struct {
	Start int
	End   int
}

func (w Window) Contains(start, end int) bool {
	return start >= w.Start && end <= w.End
}

// ShiftState distinguishes an explicit day off from a weekday that was never configured.
type ShiftState string

const (
	ShiftWorking    ShiftState = "working"
	ShiftDayOff     ShiftState = "day_off"
	ShiftNotDefined ShiftState = "not_configured"
)

// DayData is everything read from storage for one tenant and date.
type DayData struct {
	Staff        []models.StaffMember
	Shifts       []models.ShiftPattern
	Exceptions   []models.ShiftException
	ClosedDays   []models.ClosedDay
	Reservations []models.Reservation
}

// Day is an immutable snapshot of the schedule for one tenant and date.
// All rule evaluation happens against a Day, never against storage directly.
type Day struct {
	Date    time.Time
	Weekday models.Weekday
	Closed  bool
	Roster  []models.StaffMember

	shiftStates map[string]ShiftState
	windows     map[string]Window
	exceptions  map[string][]Window
	occupancy   []Occupancy
}

func BuildDay(date time.Time, data DayData, defaultDuration int) (*Day, error) {
	const op = "scheduling.BuildDay"

	date = DateOnly(date)

	d := &Day{
		Date:        date,
		Weekday:     models.WeekdayOf(date),
		shiftStates: make(map[string]ShiftState),
		windows:     make(map[string]Window),
		exceptions:  make(map[string][]Window),
	}

	for _, cd := range data.ClosedDays {
		if cd.Weekday == d.Weekday {
			d.Closed = true
		}
	}

	d.Roster = ActiveRoster(data.Staff)

	for _, sh := range data.Shifts {
		if sh.Weekday != d.Weekday {
			continue
		}
		if !sh.IsWorking {
			d.shiftStates[sh.StaffID] = ShiftDayOff
			continue
		}
		start, err := ToMinutes(sh.StartTime)
		if err != nil {
			return nil, fmt.Errorf("%s: shift start for staff %s: %w", op, sh.StaffID, err)
		}
		end, err := ToMinutes(sh.EndTime)
		if err != nil {
			return nil, fmt.Errorf("%s: shift end for staff %s: %w", op, sh.StaffID, err)
		}
		if end <= start {
			d.shiftStates[sh.StaffID] = ShiftDayOff
			continue
		}
		d.shiftStates[sh.StaffID] = ShiftWorking
		d.windows[sh.StaffID] = Window{Start: start, End: end}
	}

	for _, ex := range data.Exceptions {
		if !DateOnly(ex.Date).Equal(date) {
			continue
		}
		start, err := ToMinutes(ex.StartTime)
		if err != nil {
			return nil, fmt.Errorf("%s: exception %s start: %w", op, ex.ID, err)
		}
		end, err := ToMinutes(ex.EndTime)
		if err != nil {
			return nil, fmt.Errorf("%s: exception %s end: %w", op, ex.ID, err)
		}
		d.exceptions[ex.StaffID] = append(d.exceptions[ex.StaffID], Window{Start: start, End: end})
	}

	occ, err := IndexReservations(data.Reservations, defaultDuration)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	d.occupancy = occ

	return d, nil
}

// IsWeekdayClosed reports the business-wide closed-day flag for this date's weekday.
func (d *Day) IsWeekdayClosed() bool {
	return d.Closed
}

// WorkingWindow returns the shift of the staff member, or false when there is
// no shift row or an explicit not-working row.
func (d *Day) WorkingWindow(staffID string) (Window, bool) {
	w, ok := d.windows[staffID]
	return w, ok
}

func (d *Day) ShiftState(staffID string) ShiftState {
	if st, ok := d.shiftStates[staffID]; ok {
		return st
	}
	return ShiftNotDefined
}

func (d *Day) IsExceptionBlocking(staffID string, start, end int) bool {
	for _, w := range d.exceptions[staffID] {
		if Overlaps(start, end, w.Start, w.End) {
			return true
		}
	}
	return false
}

// StaffGate applies closed day, working window and exception rules in that
// order and returns the first one that fails.
func (d *Day) StaffGate(staffID string, start, end int) BlockReason {
	if d.IsWeekdayClosed() {
		return BlockClosedDay
	}
	w, ok := d.WorkingWindow(staffID)
	if !ok || !w.Contains(start, end) {
		return BlockStaffOff
	}
	if d.IsExceptionBlocking(staffID, start, end) {
		return BlockException
	}
	return BlockNone
}

func (d *Day) Staff(staffID string) (models.StaffMember, bool) {
	for _, s := range d.Roster {
		if s.ID == staffID {
			return s, true
		}
	}
	return models.StaffMember{}, false
}

// ActiveRoster drops deactivated staff and orders the rest by sort order, then name.
func ActiveRoster(staff []models.StaffMember) []models.StaffMember {
	var roster []models.StaffMember
	for _, s := range staff {
		if s.IsActive {
			roster = append(roster, s)
		}
	}
	sort.SliceStable(roster, func(i, j int) bool {
		if roster[i].SortOrder != roster[j].SortOrder {
			return roster[i].SortOrder < roster[j].SortOrder
		}
		return roster[i].Name < roster[j].Name
	})
	return roster
}

// FindStaff resolves a staff member by id or case-insensitive name among active staff.
func FindStaff(roster []models.StaffMember, nameOrID string) (models.StaffMember, bool) {
	key := strings.TrimSpace(nameOrID)
	if key == "" {
		return models.StaffMember{}, false
	}
	for _, s := range roster {
		if s.IsActive && s.ID == key {
			return s, true
		}
	}
	for _, s := range roster {
		if s.IsActive && strings.EqualFold(strings.TrimSpace(s.Name), key) {
			return s, true
		}
	}
	return models.StaffMember{}, false
}
