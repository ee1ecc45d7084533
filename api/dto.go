package api

import (
	"time"

	"github.com/shopspring/decimal"
)

type CheckRequest struct {
	Date     string
	Time     string
	Employee string
	Duration string
}

type RequestedSlot struct {
	Date     string `json:"date"`
	Time     string `json:"time"`
	Duration int    `json:"duration"`
	Employee string `json:"employee,omitempty"`
}

type ConflictingReservation struct {
	Customer  string `json:"customer"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Employee  string `json:"employee,omitempty"`
}

type NextDaySlot struct {
	Date string `json:"date"`
	Time string `json:"time"`
}

type Alternatives struct {
	SameDayTimes      []string      `json:"same_day_times"`
	SameTimeEmployees []string      `json:"same_time_employees"`
	NextDays          []NextDaySlot `json:"next_days"`
}

type CheckResponse struct {
	Available               bool                     `json:"available"`
	Requested               RequestedSlot            `json:"requested"`
	BlockReason             string                   `json:"block_reason,omitempty"`
	ConflictingReservations []ConflictingReservation `json:"conflicting_reservations,omitempty"`
	Alternatives            *Alternatives            `json:"alternatives,omitempty"`
}

type BookingRequest struct {
	CustomerName    string           `json:"customer_name"`
	CustomerEmail   string           `json:"customer_email,omitempty"`
	CustomerPhone   string           `json:"customer_phone,omitempty"`
	ReservationDate string           `json:"reservation_date"`
	ReservationTime string           `json:"reservation_time"`
	Duration        *int             `json:"duration,omitempty"`
	Employee        string           `json:"employee,omitempty"`
	PartySize       *int             `json:"party_size,omitempty"`
	ProductName     string           `json:"product_name,omitempty"`
	ProductID       string           `json:"product_id,omitempty"`
	PricePaid       *decimal.Decimal `json:"price_paid,omitempty"`
	Notes           string           `json:"notes,omitempty"`
	Source          string           `json:"source,omitempty"`
}

type ReservationResponse struct {
	ID            string           `json:"id"`
	CustomerName  string           `json:"customer_name"`
	CustomerEmail string           `json:"customer_email,omitempty"`
	CustomerPhone string           `json:"customer_phone,omitempty"`
	Date          string           `json:"reservation_date"`
	Time          string           `json:"reservation_time"`
	EndTime       string           `json:"end_time,omitempty"`
	PartySize     int              `json:"party_size"`
	Status        string           `json:"status"`
	EmployeeID    string           `json:"employee_id,omitempty"`
	Employee      string           `json:"employee,omitempty"`
	ProductID     string           `json:"product_id,omitempty"`
	PricePaid     *decimal.Decimal `json:"price_paid,omitempty"`
	Notes         string           `json:"notes,omitempty"`
	Source        string           `json:"source,omitempty"`
	CreatedAt     *time.Time       `json:"created_at,omitempty"`
}

type BookingResponse struct {
	Success       bool                `json:"success"`
	Booked        bool                `json:"booked"`
	ReservationID string              `json:"reservation_id"`
	Reservation   ReservationResponse `json:"reservation"`
}

type EmployeeResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Color     string `json:"color,omitempty"`
	SortOrder int    `json:"sort_order"`
}

type GridCell struct {
	Time          string `json:"time"`
	Status        string `json:"status"`
	Customer      string `json:"customer,omitempty"`
	ReservationID string `json:"reservation_id,omitempty"`
}

type GridRow struct {
	EmployeeID string     `json:"employee_id"`
	Employee   string     `json:"employee"`
	Color      string     `json:"color,omitempty"`
	Shift      string     `json:"shift"`
	Slots      []GridCell `json:"slots"`
}

type GridResponse struct {
	Date      string    `json:"date"`
	Start     string    `json:"start"`
	End       string    `json:"end"`
	Tick      int       `json:"tick_minutes"`
	Employees []GridRow `json:"employees"`
}
