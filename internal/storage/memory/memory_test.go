package memory

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"booking-service/internal/models"
	"booking-service/pkg/response"
)

const fixtureYAML = `
tenants:
  - id: "salon"
    name: "Salon"
    api_key: "demo-key"
    closed_weekdays: [1]
    staff:
      - id: "lisa"
        name: "Lisa"
        sort_order: 1
        shifts:
          - { weekday: 2, start: "09:00", end: "18:00" }
          - { weekday: 3, off: true }
        exceptions:
          - { date: "14.01.2025", start: "14:00", end: "15:00", reason: "doctor" }
      - id: "max"
        name: "Max"
        inactive: true
    products:
      - { id: "cut", name: "Haircut", price: "35.00", duration: 45 }
  - id: "gone"
    name: "Gone"
    api_key: "gone-key"
    inactive: true
`

var tuesday = time.Date(2025, time.January, 14, 0, 0, 0, 0, time.UTC)

func loadFixture(t *testing.T) *Storage {
	t.Helper()

	path := filepath.Join(t.TempDir(), "fixture.yaml")
	require.NoError(t, os.WriteFile(path, []byte(fixtureYAML), 0o600))

	s := New()
	require.NoError(t, s.LoadFixture(path))
	return s
}

func strPtr(s string) *string { return &s }

func TestLoadFixture(t *testing.T) {
	s := loadFixture(t)
	ctx := context.Background()

	tenant, err := s.GetTenantByAPIKey(ctx, "demo-key")
	require.NoError(t, err)
	assert.Equal(t, "salon", tenant.ID)
	assert.True(t, tenant.IsActive)

	gone, err := s.GetTenantByAPIKey(ctx, "gone-key")
	require.NoError(t, err)
	assert.False(t, gone.IsActive)

	_, err = s.GetTenantByAPIKey(ctx, "unknown")
	assert.ErrorIs(t, err, response.ErrNotFound)

	staff, err := s.ListStaff(ctx, "salon")
	require.NoError(t, err)
	require.Len(t, staff, 2)
	assert.Equal(t, "Max", staff[0].Name)
	assert.False(t, staff[0].IsActive)

	shifts, err := s.ListShifts(ctx, "salon", models.Tuesday)
	require.NoError(t, err)
	require.Len(t, shifts, 1)
	assert.Equal(t, "09:00", shifts[0].StartTime)

	off, err := s.ListShifts(ctx, "salon", models.Wednesday)
	require.NoError(t, err)
	require.Len(t, off, 1)
	assert.False(t, off[0].IsWorking)

	exceptions, err := s.ListExceptions(ctx, "salon", tuesday)
	require.NoError(t, err)
	require.Len(t, exceptions, 1)
	assert.Equal(t, "doctor", exceptions[0].Reason)

	closed, err := s.ListClosedDays(ctx, "salon")
	require.NoError(t, err)
	assert.Equal(t, []models.ClosedDay{{TenantID: "salon", Weekday: models.Monday}}, closed)

	product, err := s.FindProduct(ctx, "salon", "HAIRCUT")
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("35").Equal(product.Price))
	assert.Equal(t, 45, product.Duration)

	_, err = s.FindProduct(ctx, "gone", "cut")
	assert.ErrorIs(t, err, response.ErrNotFound)
}

func TestLoadFixtureErrors(t *testing.T) {
	dir := t.TempDir()

	assert.Error(t, New().LoadFixture(filepath.Join(dir, "missing.yaml")))

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("tenants:\n  - closed_weekdays: [9]\n"), 0o600))
	assert.Error(t, New().LoadFixture(bad))
}

func TestCreateReservationRejectsOverlap(t *testing.T) {
	s := loadFixture(t)
	ctx := context.Background()

	first := &models.Reservation{
		TenantID: "salon", CustomerName: "Anna", Date: tuesday,
		StartTime: "10:00", EndTime: strPtr("11:00"), PartySize: 1,
		Status: models.ReservationConfirmed, StaffID: strPtr("lisa"),
	}
	id, err := s.CreateReservation(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, id, first.ID)
	assert.False(t, first.CreatedAt.IsZero())

	overlapping := *first
	overlapping.StartTime, overlapping.EndTime = "10:30", strPtr("11:30")
	_, err = s.CreateReservation(ctx, &overlapping)
	assert.ErrorIs(t, err, response.ErrSlotOccupied)

	touching := *first
	touching.StartTime, touching.EndTime = "11:00", strPtr("11:30")
	_, err = s.CreateReservation(ctx, &touching)
	assert.NoError(t, err)

	// Rows without a staff member are not covered by the per-staff rule.
	unassigned := *first
	unassigned.StaffID = nil
	_, err = s.CreateReservation(ctx, &unassigned)
	assert.NoError(t, err)

	require.NoError(t, s.UpdateReservationStatus(ctx, "salon", id, models.ReservationCancelled))
	replacement := *first
	_, err = s.CreateReservation(ctx, &replacement)
	assert.NoError(t, err)

	all, err := s.ListReservations(ctx, "salon", tuesday, nil)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	lisa, err := s.ListReservations(ctx, "salon", tuesday, strPtr("lisa"))
	require.NoError(t, err)
	require.Len(t, lisa, 2)
	assert.Equal(t, "10:00", lisa[0].StartTime)
	assert.Equal(t, "11:00", lisa[1].StartTime)
}

func TestUpdateReservationStatus(t *testing.T) {
	s := loadFixture(t)
	ctx := context.Background()

	r := s.AddReservation(models.Reservation{TenantID: "salon", CustomerName: "Anna", Date: tuesday, StartTime: "10:00", Status: models.ReservationPending})

	assert.ErrorIs(t, s.UpdateReservationStatus(ctx, "gone", r.ID, models.ReservationConfirmed), response.ErrNotFound)
	assert.ErrorIs(t, s.UpdateReservationStatus(ctx, "salon", r.ID, models.ReservationCompleted), response.ErrInvalidTransition)
	require.NoError(t, s.UpdateReservationStatus(ctx, "salon", r.ID, models.ReservationConfirmed))

	got, err := s.GetReservation(ctx, "salon", r.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReservationConfirmed, got.Status)
}

func TestNotificationsAreScopedByTenant(t *testing.T) {
	s := New()
	ctx := context.Background()

	require.NoError(t, s.CreateNotification(ctx, &models.Notification{TenantID: "a", Type: "new_reservation"}))
	require.NoError(t, s.CreateNotification(ctx, &models.Notification{TenantID: "b", Type: "new_reservation"}))

	got := s.Notifications("a")
	require.Len(t, got, 1)
	assert.NotEmpty(t, got[0].ID)
}
