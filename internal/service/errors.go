package service

import (
	"fmt"
	"strings"

	"booking-service/api"
	"booking-service/pkg/response"
)

type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return response.ErrValidation
}

// StaffNotFoundError carries the active roster so callers can offer valid names.
type StaffNotFoundError struct {
	Name   string
	Roster []string
}

func (e *StaffNotFoundError) Error() string {
	return fmt.Sprintf("employee %q not found, available: %s", e.Name, strings.Join(e.Roster, ", "))
}

func (e *StaffNotFoundError) Unwrap() error {
	return response.ErrStaffNotFound
}

// SlotConflictError is returned when the re-check right before insertion fails.
type SlotConflictError struct {
	BlockReason  string
	Conflicts    []api.ConflictingReservation
	Alternatives api.Alternatives
}

func (e *SlotConflictError) Error() string {
	return fmt.Sprintf("time slot occupied: %s", e.BlockReason)
}

func (e *SlotConflictError) Unwrap() error {
	return response.ErrSlotOccupied
}
