package scheduling

import (
	"strings"
	"time"
	"unicode/utf8"
)

type BlockReason int

const (
	BlockNone BlockReason = iota
	BlockClosedDay
	BlockStaffOff
	BlockException
	BlockReservationConflict
)

func (r BlockReason) String() string {
	switch r {
	case BlockNone:
		return "NONE"
	case BlockClosedDay:
		return "CLOSED_DAY"
	case BlockStaffOff:
		return "STAFF_OFF"
	case BlockException:
		return "EXCEPTION"
	case BlockReservationConflict:
		return "RESERVATION_CONFLICT"
	default:
		return "UNKNOWN"
	}
}

func (r BlockReason) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// Candidate is the interval under test. An empty StaffID means the request did
// not name a staff member.
type Candidate struct {
	Date     time.Time
	Start    int
	Duration int
	StaffID  string
}

func (c Candidate) End() int {
	return c.Start + c.Duration
}

type Conflict struct {
	ReservationID string
	CustomerName  string
	CustomerLabel string
	StaffID       string
	Start         int
	End           int
}

type Result struct {
	Available   bool
	BlockReason BlockReason
	Conflicts   []Conflict
}

// Evaluate decides whether the candidate is free on this day.
//
// Without a staff member only the business-wide closed day and the tenant's
// whole reservation table are consulted.
func (d *Day) Evaluate(c Candidate) Result {
	if d.IsWeekdayClosed() {
		return Result{BlockReason: BlockClosedDay}
	}

	if c.StaffID != "" {
		if _, ok := d.Staff(c.StaffID); !ok {
			return Result{BlockReason: BlockStaffOff}
		}
		if reason := d.StaffGate(c.StaffID, c.Start, c.End()); reason != BlockNone {
			return Result{BlockReason: reason}
		}
	}

	var conflicts []Conflict
	for _, o := range d.ReservationsFor(c.StaffID) {
		if !Overlaps(c.Start, c.End(), o.Start, o.End) {
			continue
		}
		conflict := Conflict{
			ReservationID: o.Reservation.ID,
			CustomerName:  o.Reservation.CustomerName,
			CustomerLabel: CustomerLabel(o.Reservation.CustomerName),
			Start:         o.Start,
			End:           o.End,
		}
		if o.Reservation.StaffID != nil {
			conflict.StaffID = *o.Reservation.StaffID
		}
		conflicts = append(conflicts, conflict)
	}

	if len(conflicts) > 0 {
		return Result{BlockReason: BlockReservationConflict, Conflicts: conflicts}
	}

	return Result{Available: true, BlockReason: BlockNone}
}

// CustomerLabel reduces "Anna Maria Schmidt" to "Anna S.".
func CustomerLabel(name string) string {
	fields := strings.Fields(name)
	switch len(fields) {
	case 0:
		return ""
	case 1:
		return fields[0]
	}
	last := fields[len(fields)-1]
	r, _ := utf8.DecodeRuneInString(last)
	return fields[0] + " " + strings.ToUpper(string(r)) + "."
}
