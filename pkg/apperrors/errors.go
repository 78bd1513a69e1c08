package apperrors

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrFlightNotFound      = errors.New("flight not found")
	ErrTicketNotFound      = errors.New("ticket not found")
	ErrConflict            = errors.New("conflict")
	ErrSeatsExhausted      = fmt.Errorf("%w: no available seats for this flight", ErrConflict)
	ErrInvalidResize       = fmt.Errorf("%w: cannot reduce total seats below the number of booked seats", ErrConflict)
	ErrForceRequired       = errors.New("flight has booked seats, force confirmation required")
	ErrPastFlightImmutable = errors.New("cannot cancel past flights")
	ErrInvalidInput        = errors.New("invalid input")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrForbidden           = errors.New("not authorized as admin")
)

type ConflictReason string

const (
	ReasonDuplicateID       ConflictReason = "duplicate_id"
	ReasonInvalidTimeRange  ConflictReason = "invalid_time_range"
	ReasonDepartureConflict ConflictReason = "departure_conflict"
	ReasonArrivalConflict   ConflictReason = "arrival_conflict"
	ReasonCityExists        ConflictReason = "city_exists"
)

// ConflictError describes a rejected flight schedule. City and At are set for
// departure and arrival conflicts.
type ConflictError struct {
	Reason ConflictReason
	City   string
	At     time.Time
}

func (e *ConflictError) Error() string {
	switch e.Reason {
	case ReasonDuplicateID:
		return "Flight ID already exists"
	case ReasonCityExists:
		return "City already exists"
	case ReasonInvalidTimeRange:
		return "Arrival time must be after departure time"
	case ReasonDepartureConflict:
		return fmt.Sprintf("Another flight already departs from %s at %s. Please choose a different departure time.",
			e.City, e.At.UTC().Format("2006-01-02 15:04"))
	case ReasonArrivalConflict:
		return fmt.Sprintf("Another flight already arrives at %s at %s. Please choose a different arrival time.",
			e.City, e.At.UTC().Format("2006-01-02 15:04"))
	default:
		return "flight schedule conflict"
	}
}

func (e *ConflictError) Unwrap() error { return ErrConflict }

// ForceRequiredError is returned when a flight with bookings is deleted without confirmation.
type ForceRequiredError struct {
	BookedSeats int
}

func (e *ForceRequiredError) Error() string {
	return fmt.Sprintf("This flight has %d booked seats. To cancel this flight and notify passengers, add ?force=true to the request.", e.BookedSeats)
}

func (e *ForceRequiredError) Unwrap() error { return ErrForceRequired }

// PastFlightError is returned when a departed flight is deleted.
type PastFlightError struct {
	Departure time.Time
	Now       time.Time
}

func (e *PastFlightError) Error() string {
	return "Cannot cancel past flights. This flight has already departed or was scheduled in the past."
}

func (e *PastFlightError) Unwrap() error { return ErrPastFlightImmutable }
