package scheduling

import (
	"time"

	"booking-service/internal/models"
)

type CellStatus string

const (
	CellAvailable   CellStatus = "available"
	CellClosedDay   CellStatus = "closed_day"
	CellStaffOff    CellStatus = "staff_off"
	CellException   CellStatus = "exception"
	CellReservation CellStatus = "reservation"
)

type Cell struct {
	Start         int
	Status        CellStatus
	CustomerName  string
	ReservationID string
}

type GridRow struct {
	Staff models.StaffMember
	Shift ShiftState
	Cells []Cell
}

type Grid struct {
	Date  time.Time
	Start int
	End   int
	Tick  int
	Rows  []GridRow
}

// BuildGrid expands the day into fixed ticks per active staff member. Every
// cell is classified by Day.Evaluate, the same rule set used for bookings.
func BuildGrid(d *Day, opts Options) Grid {
	opts = opts.withDefaults()

	g := Grid{
		Date:  d.Date,
		Start: -1,
		End:   -1,
		Tick:  opts.GridTick,
	}

	for _, s := range d.Roster {
		w, ok := d.WorkingWindow(s.ID)
		if !ok {
			continue
		}
		if g.Start < 0 || w.Start < g.Start {
			g.Start = w.Start
		}
		if w.End > g.End {
			g.End = w.End
		}
	}
	if g.Start < 0 {
		g.Start, g.End = opts.OpeningStart, opts.OpeningEnd
	}

	for _, s := range d.Roster {
		row := GridRow{Staff: s, Shift: d.ShiftState(s.ID)}
		for t := g.Start; t+g.Tick <= g.End; t += g.Tick {
			res := d.Evaluate(Candidate{Date: d.Date, Start: t, Duration: g.Tick, StaffID: s.ID})
			cell := Cell{Start: t, Status: cellStatus(res.BlockReason)}
			if len(res.Conflicts) > 0 {
				cell.CustomerName = res.Conflicts[0].CustomerName
				cell.ReservationID = res.Conflicts[0].ReservationID
			}
			row.Cells = append(row.Cells, cell)
		}
		g.Rows = append(g.Rows, row)
	}

	return g
}

func cellStatus(r BlockReason) CellStatus {
	switch r {
	case BlockNone:
		return CellAvailable
	case BlockClosedDay:
		return CellClosedDay
	case BlockStaffOff:
		return CellStaffOff
	case BlockException:
		return CellException
	case BlockReservationConflict:
		return CellReservation
	default:
		return CellStaffOff
	}
}
