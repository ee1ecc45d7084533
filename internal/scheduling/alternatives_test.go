package scheduling

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"booking-service/internal/models"
)

type fakeSource struct {
	staff        []models.StaffMember
	shifts       []models.ShiftPattern
	exceptions   []models.ShiftException
	closed       []models.ClosedDay
	reservations []models.Reservation
	failOn       time.Time
}

func (f *fakeSource) ListStaff(context.Context, string) ([]models.StaffMember, error) {
	return f.staff, nil
}

func (f *fakeSource) ListShifts(_ context.Context, _ string, wd models.Weekday) ([]models.ShiftPattern, error) {
	var out []models.ShiftPattern
	for _, sh := range f.shifts {
		if sh.Weekday == wd {
			out = append(out, sh)
		}
	}
	return out, nil
}

func (f *fakeSource) ListExceptions(_ context.Context, _ string, date time.Time) ([]models.ShiftException, error) {
	var out []models.ShiftException
	for _, ex := range f.exceptions {
		if ex.Date.Equal(date) {
			out = append(out, ex)
		}
	}
	return out, nil
}

func (f *fakeSource) ListClosedDays(context.Context, string) ([]models.ClosedDay, error) {
	return f.closed, nil
}

func (f *fakeSource) ListReservations(_ context.Context, _ string, date time.Time, _ *string) ([]models.Reservation, error) {
	if !f.failOn.IsZero() && f.failOn.Equal(date) {
		return nil, errors.New("connection reset")
	}
	var out []models.Reservation
	for _, r := range f.reservations {
		if r.Date.Equal(date) {
			out = append(out, r)
		}
	}
	return out, nil
}

// weekSource has Lisa working 09-18 and Tom 12-20 Monday to Saturday; Sunday is closed.
func weekSource() *fakeSource {
	src := &fakeSource{
		staff:  []models.StaffMember{staff("lisa", "Lisa", 1), staff("tom", "Tom", 2)},
		closed: []models.ClosedDay{{TenantID: "t1", Weekday: models.Sunday}},
	}
	for wd := models.Monday; wd <= models.Saturday; wd++ {
		src.shifts = append(src.shifts,
			shift("lisa", wd, "09:00", "18:00"),
			shift("tom", wd, "12:00", "20:00"),
		)
	}
	return src
}

func onDate(r models.Reservation, date time.Time) models.Reservation {
	r.Date = date
	return r
}

func TestSameDayTimesOrderedByDistance(t *testing.T) {
	day := lisaDay(t, DayData{
		Reservations: []models.Reservation{reservation("r1", "Anna", "lisa", "10:00", "10:30")},
	})
	c := Candidate{Date: tuesday, Start: minutes(t, "10:00"), Duration: 30, StaffID: "lisa"}

	got := SameDayTimes(day, c, DefaultOptions())

	want := []int{minutes(t, "09:30"), minutes(t, "10:30"), minutes(t, "09:00"), minutes(t, "11:00"), minutes(t, "11:30")}
	assert.Equal(t, want, got)

	for _, start := range got {
		probe := c
		probe.Start = start
		assert.True(t, day.Evaluate(probe).Available, ToTimeString(start))
		assert.NotEqual(t, c.Start, start)
	}
}

func TestSameDayTimesRespectsOpeningWindow(t *testing.T) {
	day := lisaDay(t, DayData{})
	c := Candidate{Date: tuesday, Start: minutes(t, "17:30"), Duration: 60, StaffID: "lisa"}

	got := SameDayTimes(day, c, DefaultOptions())
	require.NotEmpty(t, got)
	for _, start := range got {
		assert.LessOrEqual(t, start+c.Duration, 18*60)
		assert.Zero(t, start%30)
	}
}

func TestSameTimeStaff(t *testing.T) {
	day := lisaDay(t, DayData{
		Reservations: []models.Reservation{reservation("r1", "Anna", "lisa", "12:00", "12:30")},
	})

	c := Candidate{Date: tuesday, Start: minutes(t, "12:00"), Duration: 30, StaffID: "lisa"}
	got := SameTimeStaff(day, c, 5)
	require.Len(t, got, 1)
	assert.Equal(t, "Tom", got[0].Name)

	// Tom starts at 12:00, so he is no alternative in the morning.
	c.Start = minutes(t, "10:00")
	assert.Empty(t, SameTimeStaff(day, c, 5))

	c.StaffID = ""
	assert.Nil(t, SameTimeStaff(day, c, 5))
}

func TestEngineAlternativesNextDays(t *testing.T) {
	src := weekSource()
	thursday := AddDays(tuesday, 2)
	src.reservations = []models.Reservation{
		reservation("r1", "Anna", "lisa", "10:00", "10:30"),
		onDate(reservation("r2", "Bert", "lisa", "10:00", "11:00"), thursday),
	}

	engine := NewEngine(src, DefaultOptions())
	c := Candidate{Date: tuesday, Start: minutes(t, "10:00"), Duration: 30, StaffID: "lisa"}

	day, res, err := engine.Check(context.Background(), "t1", c)
	require.NoError(t, err)
	require.False(t, res.Available)

	alts, err := engine.Alternatives(context.Background(), "t1", day, c)
	require.NoError(t, err)

	var got []string
	for _, slot := range alts.NextDays {
		got = append(got, FormatDate(slot.Date))
		assert.Equal(t, c.Start, slot.Start)
	}
	// Thursday is booked and Sunday is closed.
	assert.Equal(t, []string{"2025-01-15", "2025-01-17", "2025-01-18", "2025-01-20", "2025-01-21"}, got)

	for i := 1; i < len(alts.NextDays); i++ {
		assert.True(t, alts.NextDays[i].Date.After(alts.NextDays[i-1].Date))
	}
	assert.Empty(t, alts.SameTimeStaff)
	assert.NotEmpty(t, alts.SameDayTimes)
}

func TestEngineAlternativesPropagatesLoadError(t *testing.T) {
	src := weekSource()
	src.failOn = AddDays(tuesday, 3)

	engine := NewEngine(src, DefaultOptions())
	c := Candidate{Date: tuesday, Start: minutes(t, "10:00"), Duration: 30, StaffID: "lisa"}

	day, err := engine.LoadDay(context.Background(), "t1", tuesday)
	require.NoError(t, err)

	alts, err := engine.Alternatives(context.Background(), "t1", day, c)
	require.Error(t, err)
	assert.Nil(t, alts.NextDays)
}

func TestEngineCheckUnknownStaff(t *testing.T) {
	engine := NewEngine(weekSource(), Options{})

	_, _, err := engine.Check(context.Background(), "t1", Candidate{Date: tuesday, Start: 600, Duration: 30, StaffID: "ghost"})
	assert.ErrorIs(t, err, ErrUnknownStaff)
}

func TestEngineCheckIsIdempotent(t *testing.T) {
	src := weekSource()
	src.reservations = []models.Reservation{reservation("r1", "Anna", "lisa", "10:00", "10:30")}
	engine := NewEngine(src, DefaultOptions())
	c := Candidate{Date: tuesday, Start: minutes(t, "10:15"), Duration: 30, StaffID: "lisa"}

	_, first, err := engine.Check(context.Background(), "t1", c)
	require.NoError(t, err)
	_, second, err := engine.Check(context.Background(), "t1", c)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}
