package scheduling

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"booking-service/internal/models"
)

func lisaDay(t *testing.T, extra DayData) *Day {
	t.Helper()

	data := DayData{
		Staff:  []models.StaffMember{staff("lisa", "Lisa", 1), staff("tom", "Tom", 2)},
		Shifts: []models.ShiftPattern{shift("lisa", models.Tuesday, "09:00", "18:00"), shift("tom", models.Tuesday, "12:00", "20:00")},
	}
	data.Exceptions = extra.Exceptions
	data.ClosedDays = extra.ClosedDays
	data.Reservations = extra.Reservations

	return mustDay(t, tuesday, data)
}

func TestEvaluateReservationOverlap(t *testing.T) {
	day := lisaDay(t, DayData{
		Reservations: []models.Reservation{reservation("r1", "Anna Maria Schmidt", "lisa", "10:00", "10:30")},
	})

	blocked := day.Evaluate(Candidate{Date: tuesday, Start: minutes(t, "10:00"), Duration: 30, StaffID: "lisa"})
	assert.False(t, blocked.Available)
	assert.Equal(t, BlockReservationConflict, blocked.BlockReason)
	require.Len(t, blocked.Conflicts, 1)
	assert.Equal(t, "r1", blocked.Conflicts[0].ReservationID)
	assert.Equal(t, "Anna S.", blocked.Conflicts[0].CustomerLabel)
	assert.Equal(t, minutes(t, "10:00"), blocked.Conflicts[0].Start)
	assert.Equal(t, minutes(t, "10:30"), blocked.Conflicts[0].End)

	free := day.Evaluate(Candidate{Date: tuesday, Start: minutes(t, "10:30"), Duration: 30, StaffID: "lisa"})
	assert.True(t, free.Available)
	assert.Equal(t, BlockNone, free.BlockReason)
	assert.Empty(t, free.Conflicts)

	// Tom does not share Lisa's reservations.
	other := day.Evaluate(Candidate{Date: tuesday, Start: minutes(t, "12:00"), Duration: 30, StaffID: "tom"})
	assert.True(t, other.Available)
}

func TestEvaluateClosedDayWins(t *testing.T) {
	day := mustDay(t, monday, DayData{
		Staff:      []models.StaffMember{staff("lisa", "Lisa", 1)},
		Shifts:     []models.ShiftPattern{shift("lisa", models.Monday, "09:00", "18:00")},
		ClosedDays: []models.ClosedDay{{TenantID: "t1", Weekday: models.Monday}},
	})

	for _, staffID := range []string{"lisa", ""} {
		res := day.Evaluate(Candidate{Date: monday, Start: minutes(t, "10:00"), Duration: 30, StaffID: staffID})
		assert.False(t, res.Available, staffID)
		assert.Equal(t, BlockClosedDay, res.BlockReason, staffID)
		assert.Equal(t, "CLOSED_DAY", res.BlockReason.String())
	}
}

func TestEvaluateException(t *testing.T) {
	day := lisaDay(t, DayData{
		Exceptions: []models.ShiftException{{ID: "ex1", StaffID: "lisa", Date: tuesday, StartTime: "14:00", EndTime: "15:00"}},
	})

	blocked := day.Evaluate(Candidate{Date: tuesday, Start: minutes(t, "14:30"), Duration: 15, StaffID: "lisa"})
	assert.False(t, blocked.Available)
	assert.Equal(t, BlockException, blocked.BlockReason)

	free := day.Evaluate(Candidate{Date: tuesday, Start: minutes(t, "13:00"), Duration: 30, StaffID: "lisa"})
	assert.True(t, free.Available)

	touching := day.Evaluate(Candidate{Date: tuesday, Start: minutes(t, "13:30"), Duration: 30, StaffID: "lisa"})
	assert.True(t, touching.Available)
}

func TestEvaluateStaffOff(t *testing.T) {
	data := DayData{
		Staff: []models.StaffMember{staff("lisa", "Lisa", 1), staff("ben", "Ben", 2), staff("kim", "Kim", 3)},
		Shifts: []models.ShiftPattern{
			shift("lisa", models.Tuesday, "09:00", "18:00"),
			{StaffID: "ben", Weekday: models.Tuesday, IsWorking: false},
		},
	}
	day := mustDay(t, tuesday, data)

	tests := []struct {
		name    string
		staffID string
		start   string
		dur     int
		want    BlockReason
	}{
		{name: "before shift", staffID: "lisa", start: "08:30", dur: 60, want: BlockStaffOff},
		{name: "past shift end", staffID: "lisa", start: "17:30", dur: 60, want: BlockStaffOff},
		{name: "ends at shift end", staffID: "lisa", start: "17:00", dur: 60, want: BlockNone},
		{name: "explicit day off", staffID: "ben", start: "10:00", dur: 30, want: BlockStaffOff},
		{name: "never configured", staffID: "kim", start: "10:00", dur: 30, want: BlockStaffOff},
		{name: "unknown staff", staffID: "ghost", start: "10:00", dur: 30, want: BlockStaffOff},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := day.Evaluate(Candidate{Date: tuesday, Start: minutes(t, tt.start), Duration: tt.dur, StaffID: tt.staffID})
			assert.Equal(t, tt.want, res.BlockReason)
			assert.Equal(t, tt.want == BlockNone, res.Available)
		})
	}

	assert.Equal(t, ShiftDayOff, day.ShiftState("ben"))
	assert.Equal(t, ShiftNotDefined, day.ShiftState("kim"))
	assert.Equal(t, ShiftWorking, day.ShiftState("lisa"))
}

func TestEvaluateWithoutStaffUsesWholeTable(t *testing.T) {
	day := lisaDay(t, DayData{
		Reservations: []models.Reservation{
			reservation("r1", "Anna", "lisa", "10:00", "11:00"),
			reservation("r2", "Bert", "tom", "10:30", "11:30"),
			reservation("r3", "Cleo", "", "07:00", "07:30"),
		},
	})

	// Outside every shift: staff rules are skipped without a staff member.
	early := day.Evaluate(Candidate{Date: tuesday, Start: minutes(t, "07:00"), Duration: 30})
	assert.Equal(t, BlockReservationConflict, early.BlockReason)

	res := day.Evaluate(Candidate{Date: tuesday, Start: minutes(t, "10:15"), Duration: 30})
	assert.False(t, res.Available)
	require.Len(t, res.Conflicts, 2)
	assert.Equal(t, "r1", res.Conflicts[0].ReservationID)
	assert.Equal(t, "r2", res.Conflicts[1].ReservationID)

	free := day.Evaluate(Candidate{Date: tuesday, Start: minutes(t, "06:00"), Duration: 30})
	assert.True(t, free.Available)
}

func TestEvaluateDefaultDurationAndCancelled(t *testing.T) {
	cancelled := reservation("r2", "Bert", "lisa", "12:00", "13:00")
	cancelled.Status = models.ReservationCancelled

	day := lisaDay(t, DayData{
		Reservations: []models.Reservation{
			reservation("r1", "Anna", "lisa", "10:00", ""),
			cancelled,
		},
	})

	// No end time means DefaultDuration minutes.
	res := day.Evaluate(Candidate{Date: tuesday, Start: minutes(t, "10:45"), Duration: 30, StaffID: "lisa"})
	assert.Equal(t, BlockReservationConflict, res.BlockReason)
	require.Len(t, res.Conflicts, 1)
	assert.Equal(t, minutes(t, "11:00"), res.Conflicts[0].End)

	after := day.Evaluate(Candidate{Date: tuesday, Start: minutes(t, "11:00"), Duration: 30, StaffID: "lisa"})
	assert.True(t, after.Available)

	freed := day.Evaluate(Candidate{Date: tuesday, Start: minutes(t, "12:00"), Duration: 60, StaffID: "lisa"})
	assert.True(t, freed.Available)
}

func TestEvaluateIsIdempotent(t *testing.T) {
	day := lisaDay(t, DayData{
		Reservations: []models.Reservation{reservation("r1", "Anna", "lisa", "10:00", "10:30")},
	})
	c := Candidate{Date: tuesday, Start: minutes(t, "10:00"), Duration: 60, StaffID: "lisa"}

	assert.Equal(t, day.Evaluate(c), day.Evaluate(c))
}

func TestBuildDayRejectsMalformedShift(t *testing.T) {
	_, err := BuildDay(tuesday, DayData{
		Staff:  []models.StaffMember{staff("lisa", "Lisa", 1)},
		Shifts: []models.ShiftPattern{shift("lisa", models.Tuesday, "9am", "18:00")},
	}, DefaultDuration)
	assert.ErrorIs(t, err, ErrMalformedTime)
}

func TestCustomerLabel(t *testing.T) {
	assert.Equal(t, "", CustomerLabel("  "))
	assert.Equal(t, "Cher", CustomerLabel("Cher"))
	assert.Equal(t, "Anna S.", CustomerLabel("Anna Maria Schmidt"))
	assert.Equal(t, "Jörg Ö.", CustomerLabel("Jörg özdemir"))
}

func TestFindStaff(t *testing.T) {
	inactive := staff("old", "Old Timer", 0)
	inactive.IsActive = false
	roster := []models.StaffMember{staff("lisa", "Lisa", 1), inactive}

	m, ok := FindStaff(roster, "lisa")
	require.True(t, ok)
	assert.Equal(t, "Lisa", m.Name)

	m, ok = FindStaff(roster, " LISA ")
	require.True(t, ok)
	assert.Equal(t, "lisa", m.ID)

	_, ok = FindStaff(roster, "Old Timer")
	assert.False(t, ok)

	_, ok = FindStaff(roster, "")
	assert.False(t, ok)
}
