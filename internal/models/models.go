package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Weekday follows time.Weekday numbering: 0 = Sunday .. 6 = Saturday.
type Weekday int

const (
	Sunday Weekday = iota
	Monday
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
)

func WeekdayOf(date time.Time) Weekday {
	return Weekday(date.Weekday())
}

func ParseWeekday(n int) (Weekday, error) {
	wd := Weekday(n)
	if !wd.Valid() {
		return 0, fmt.Errorf("weekday out of range: %d", n)
	}
	return wd, nil
}

func (w Weekday) Valid() bool {
	return w >= Sunday && w <= Saturday
}

func (w Weekday) String() string {
	if !w.Valid() {
		return fmt.Sprintf("Weekday(%d)", int(w))
	}
	return time.Weekday(w).String()
}

type ReservationStatus string

const (
	ReservationPending   ReservationStatus = "pending"
	ReservationConfirmed ReservationStatus = "confirmed"
	ReservationCancelled ReservationStatus = "cancelled"
	ReservationCompleted ReservationStatus = "completed"
	ReservationNoShow    ReservationStatus = "no_show"
)

func ParseReservationStatus(s string) (ReservationStatus, error) {
	switch st := ReservationStatus(strings.ToLower(strings.TrimSpace(s))); st {
	case ReservationPending, ReservationConfirmed, ReservationCancelled, ReservationCompleted, ReservationNoShow:
		return st, nil
	default:
		return "", fmt.Errorf("unknown reservation status: %q", s)
	}
}

// Occupies reports whether a reservation in this status blocks its interval.
func (s ReservationStatus) Occupies() bool {
	switch s {
	case ReservationCancelled:
		return false
	case ReservationPending, ReservationConfirmed, ReservationCompleted, ReservationNoShow:
		return true
	default:
		return true
	}
}

func (s ReservationStatus) CanTransitionTo(next ReservationStatus) bool {
	switch s {
	case ReservationPending:
		return next == ReservationConfirmed || next == ReservationCancelled
	case ReservationConfirmed:
		return next == ReservationCancelled || next == ReservationCompleted || next == ReservationNoShow
	case ReservationCancelled, ReservationCompleted, ReservationNoShow:
		return false
	default:
		return false
	}
}

type Tenant struct {
	ID       string `db:"id"`
	Name     string `db:"name"`
	APIKey   string `db:"api_key"`
	IsActive bool   `db:"is_active"`
}

type StaffMember struct {
	ID        string `db:"id"`
	TenantID  string `db:"tenant_id"`
	Name      string `db:"name"`
	IsActive  bool   `db:"is_active"`
	Color     string `db:"color"`
	SortOrder int    `db:"sort_order"`
}

// ShiftPattern is the weekly shift of one staff member. Times are "HH:MM".
type ShiftPattern struct {
	StaffID   string  `db:"staff_id"`
	Weekday   Weekday `db:"weekday"`
	StartTime string  `db:"start_time"`
	EndTime   string  `db:"end_time"`
	IsWorking bool    `db:"is_working"`
}

// ShiftException blocks part of a working day for one staff member.
type ShiftException struct {
	ID        string    `db:"id"`
	StaffID   string    `db:"staff_id"`
	Date      time.Time `db:"date"`
	StartTime string    `db:"start_time"`
	EndTime   string    `db:"end_time"`
	Reason    string    `db:"reason"`
}

type ClosedDay struct {
	TenantID string  `db:"tenant_id"`
	Weekday  Weekday `db:"weekday"`
}

type Product struct {
	ID       string          `db:"id"`
	TenantID string          `db:"tenant_id"`
	Name     string          `db:"name"`
	Price    decimal.Decimal `db:"price"`
	Duration int             `db:"duration_minutes"`
}

type Reservation struct {
	ID            string            `db:"id"`
	TenantID      string            `db:"tenant_id"`
	CustomerName  string            `db:"customer_name"`
	CustomerEmail string            `db:"customer_email"`
	CustomerPhone string            `db:"customer_phone"`
	Date          time.Time         `db:"reservation_date"`
	StartTime     string            `db:"reservation_time"`
	EndTime       *string           `db:"end_time"`
	PartySize     int               `db:"party_size"`
	Status        ReservationStatus `db:"status"`
	StaffID       *string           `db:"staff_id"`
	ProductID     *string           `db:"product_id"`
	PricePaid     *decimal.Decimal  `db:"price_paid"`
	Notes         string            `db:"notes"`
	Source        string            `db:"source"`
	CreatedAt     time.Time         `db:"created_at"`
}

type Notification struct {
	ID        string    `db:"id"`
	TenantID  string    `db:"tenant_id"`
	Type      string    `db:"type"`
	Title     string    `db:"title"`
	Message   string    `db:"message"`
	Payload   []byte    `db:"payload"`
	CreatedAt time.Time `db:"created_at"`
}

const NotificationNewReservation = "new_reservation"
