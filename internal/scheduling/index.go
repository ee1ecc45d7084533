package scheduling

import (
	"fmt"
	"sort"

	"booking-service/internal/models"
)

// DefaultDuration is the occupancy assumed for a reservation stored without an
// end time, and the duration of a booking request that does not name one.
const DefaultDuration = 60

// Occupancy is a reservation together with the interval it blocks.
type Occupancy struct {
	Reservation models.Reservation
	Start       int
	End         int
}

// IndexReservations drops cancelled reservations and resolves the effective
// end of every other one. The result is ordered by start time.
func IndexReservations(reservations []models.Reservation, defaultDuration int) ([]Occupancy, error) {
	const op = "scheduling.IndexReservations"

	if defaultDuration <= 0 {
		defaultDuration = DefaultDuration
	}

	out := make([]Occupancy, 0, len(reservations))
	for _, r := range reservations {
		if !r.Status.Occupies() {
			continue
		}

		start, err := ToMinutes(r.StartTime)
		if err != nil {
			return nil, fmt.Errorf("%s: reservation %s: %w", op, r.ID, err)
		}

		end := start + defaultDuration
		if r.EndTime != nil && *r.EndTime != "" {
			e, err := ToMinutes(*r.EndTime)
			if err != nil {
				return nil, fmt.Errorf("%s: reservation %s: %w", op, r.ID, err)
			}
			if e > start {
				end = e
			}
		}

		out = append(out, Occupancy{Reservation: r, Start: start, End: end})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Start < out[j].Start
	})

	return out, nil
}

// ReservationsFor returns the occupancy of one staff member, or of the whole
// tenant when staffID is empty.
func (d *Day) ReservationsFor(staffID string) []Occupancy {
	if staffID == "" {
		return d.occupancy
	}
	var out []Occupancy
	for _, o := range d.occupancy {
		if o.Reservation.StaffID != nil && *o.Reservation.StaffID == staffID {
			out = append(out, o)
		}
	}
	return out
}
