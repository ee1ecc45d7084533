package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"booking-service/internal/models"
)

// Notifier emits a notification about a domain event. Callers treat failures
// as best-effort: they are logged, never returned to the client.
type Notifier interface {
	Notify(ctx context.Context, n models.Notification) error
}

type NotificationStore interface {
	CreateNotification(ctx context.Context, n *models.Notification) error
}

// StoreNotifier writes the notification as a record in the tenant's store.
type StoreNotifier struct {
	store NotificationStore
}

func NewStoreNotifier(store NotificationStore) *StoreNotifier {
	return &StoreNotifier{store: store}
}

func (s *StoreNotifier) Notify(ctx context.Context, n models.Notification) error {
	const op = "notify.StoreNotifier.Notify"

	if err := s.store.CreateNotification(ctx, &n); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

type Nop struct{}

func (Nop) Notify(context.Context, models.Notification) error { return nil }

type reservationPayload struct {
	ReservationID string `json:"reservation_id"`
	CustomerName  string `json:"customer_name"`
	Date          string `json:"reservation_date"`
	Time          string `json:"reservation_time"`
	EndTime       string `json:"end_time,omitempty"`
	Employee      string `json:"employee,omitempty"`
	PartySize     int    `json:"party_size"`
	Source        string `json:"source,omitempty"`
}

// NewReservationNotification describes a freshly created reservation.
func NewReservationNotification(r models.Reservation, employee string) (models.Notification, error) {
	const op = "notify.NewReservationNotification"

	p := reservationPayload{
		ReservationID: r.ID,
		CustomerName:  r.CustomerName,
		Date:          r.Date.Format("2006-01-02"),
		Time:          r.StartTime,
		Employee:      employee,
		PartySize:     r.PartySize,
		Source:        r.Source,
	}
	if r.EndTime != nil {
		p.EndTime = *r.EndTime
	}

	payload, err := json.Marshal(p)
	if err != nil {
		return models.Notification{}, fmt.Errorf("%s: %w", op, err)
	}

	msg := fmt.Sprintf("%s on %s at %s", r.CustomerName, r.Date.Format("02.01.2006"), r.StartTime)
	if employee != "" {
		msg += " with " + employee
	}

	return models.Notification{
		ID:        uuid.NewString(),
		TenantID:  r.TenantID,
		Type:      models.NotificationNewReservation,
		Title:     "New reservation",
		Message:   msg,
		Payload:   payload,
		CreatedAt: time.Now().UTC(),
	}, nil
}
