package scheduling

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"booking-service/internal/models"
)

var (
	tuesday = time.Date(2025, time.January, 14, 0, 0, 0, 0, time.UTC)
	monday  = time.Date(2025, time.January, 13, 0, 0, 0, 0, time.UTC)
)

func staff(id, name string, order int) models.StaffMember {
	return models.StaffMember{ID: id, TenantID: "t1", Name: name, IsActive: true, SortOrder: order}
}

func shift(staffID string, wd models.Weekday, start, end string) models.ShiftPattern {
	return models.ShiftPattern{StaffID: staffID, Weekday: wd, StartTime: start, EndTime: end, IsWorking: true}
}

func reservation(id, customer, staffID, start, end string) models.Reservation {
	r := models.Reservation{
		ID:           id,
		TenantID:     "t1",
		CustomerName: customer,
		Date:         tuesday,
		StartTime:    start,
		Status:       models.ReservationConfirmed,
	}
	if end != "" {
		r.EndTime = &end
	}
	if staffID != "" {
		r.StaffID = &staffID
	}
	return r
}

func mustDay(t *testing.T, date time.Time, data DayData) *Day {
	t.Helper()

	d, err := BuildDay(date, data, DefaultDuration)
	require.NoError(t, err)
	return d
}

func minutes(t *testing.T, s string) int {
	t.Helper()

	m, err := ToMinutes(s)
	require.NoError(t, err)
	return m
}
