package scheduling

import (
	"sort"
	"time"

	"booking-service/internal/models"
)

type Options struct {
	// OpeningStart and OpeningEnd bound the same-day search and are the grid
	// fallback when nobody has a shift. Minutes after midnight.
	OpeningStart    int
	OpeningEnd      int
	Step            int
	GridTick        int
	LookaheadDays   int
	MaxAlternatives int
	DefaultDuration int
}

func DefaultOptions() Options {
	return Options{
		OpeningStart:    9 * 60,
		OpeningEnd:      18 * 60,
		Step:            30,
		GridTick:        15,
		LookaheadDays:   7,
		MaxAlternatives: 5,
		DefaultDuration: DefaultDuration,
	}
}

// withDefaults fills zero fields so a partially configured Options is usable.
func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.OpeningEnd <= o.OpeningStart {
		o.OpeningStart, o.OpeningEnd = def.OpeningStart, def.OpeningEnd
	}
	if o.Step <= 0 {
		o.Step = def.Step
	}
	if o.GridTick <= 0 {
		o.GridTick = def.GridTick
	}
	if o.LookaheadDays <= 0 {
		o.LookaheadDays = def.LookaheadDays
	}
	if o.MaxAlternatives <= 0 {
		o.MaxAlternatives = def.MaxAlternatives
	}
	if o.DefaultDuration <= 0 {
		o.DefaultDuration = def.DefaultDuration
	}
	return o
}

type DaySlot struct {
	Date  time.Time
	Start int
}

type Alternatives struct {
	SameDayTimes  []int
	SameTimeStaff []models.StaffMember
	NextDays      []DaySlot
}

// SameDayTimes scans step-aligned starts across the opening window and returns
// the free ones closest to the requested start.
func SameDayTimes(d *Day, c Candidate, opts Options) []int {
	opts = opts.withDefaults()

	first := opts.OpeningStart
	if rem := first % opts.Step; rem != 0 {
		first += opts.Step - rem
	}

	var free []int
	for t := first; t+c.Duration <= opts.OpeningEnd; t += opts.Step {
		if t == c.Start {
			continue
		}
		probe := c
		probe.Start = t
		if d.Evaluate(probe).Available {
			free = append(free, t)
		}
	}

	sort.SliceStable(free, func(i, j int) bool {
		di, dj := abs(free[i]-c.Start), abs(free[j]-c.Start)
		if di != dj {
			return di < dj
		}
		return free[i] < free[j]
	})

	if len(free) > opts.MaxAlternatives {
		free = free[:opts.MaxAlternatives]
	}
	return free
}

// SameTimeStaff lists other active staff for whom the identical interval is free.
// It is empty when the candidate did not name a staff member.
func SameTimeStaff(d *Day, c Candidate, limit int) []models.StaffMember {
	if c.StaffID == "" {
		return nil
	}

	var out []models.StaffMember
	for _, s := range d.Roster {
		if len(out) >= limit {
			break
		}
		if s.ID == c.StaffID {
			continue
		}
		probe := c
		probe.StaffID = s.ID
		if d.Evaluate(probe).Available {
			out = append(out, s)
		}
	}
	return out
}

// NextDays evaluates the identical time on each of the given later days, which
// must be in ascending date order, and stops once limit matches are found.
func NextDays(days []*Day, c Candidate, limit int) []DaySlot {
	var out []DaySlot
	for _, d := range days {
		if len(out) >= limit {
			break
		}
		if d == nil || !d.Date.After(DateOnly(c.Date)) {
			continue
		}
		probe := c
		probe.Date = d.Date
		if d.Evaluate(probe).Available {
			out = append(out, DaySlot{Date: d.Date, Start: c.Start})
		}
	}
	return out
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
