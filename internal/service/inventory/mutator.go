// Package inventory owns every change to a flight's available-seat count.
package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/happyflights/flightbooking/internal/domain"
	"github.com/happyflights/flightbooking/internal/repository"
	"github.com/happyflights/flightbooking/internal/service/conflicts"
	"github.com/happyflights/flightbooking/pkg/apperrors"
)

// FlightUpdate is the full set of admin-editable flight fields.
type FlightUpdate struct {
	FromCity      string
	ToCity        string
	DepartureTime time.Time
	ArrivalTime   time.Time
	Price         float64
	SeatsTotal    int
}

type Mutator struct {
	tx      repository.Transactor
	flights repository.FlightRepository
	tickets repository.TicketRepository
	checker *conflicts.Checker
}

func NewMutator(tx repository.Transactor, flights repository.FlightRepository, tickets repository.TicketRepository, checker *conflicts.Checker) *Mutator {
	return &Mutator{tx: tx, flights: flights, tickets: tickets, checker: checker}
}

// BookSeat takes one seat on draft.FlightID and persists draft as a confirmed
// ticket carrying a snapshot of the flight. Both writes commit together.
func (m *Mutator) BookSeat(ctx context.Context, draft domain.Ticket) (*domain.Ticket, *domain.Flight, error) {
	var (
		ticket = draft
		flight *domain.Flight
	)
	err := m.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		flight, err = m.flights.DecrementSeat(ctx, draft.FlightID)
		if err != nil {
			return err
		}
		snap := flight.Snapshot()
		ticket.Snapshot = &snap
		ticket.Status = domain.TicketStatusConfirmed
		if err := m.tickets.Create(ctx, &ticket); err != nil {
			return fmt.Errorf("create ticket: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return &ticket, flight, nil
}

// Resize changes seats_total and shifts seats_available by the same delta.
func (m *Mutator) Resize(ctx context.Context, flightID string, seatsTotal int) (*domain.Flight, error) {
	return m.apply(ctx, flightID, func(current domain.Flight) FlightUpdate {
		return FlightUpdate{
			FromCity:      current.FromCity,
			ToCity:        current.ToCity,
			DepartureTime: current.DepartureTime,
			ArrivalTime:   current.ArrivalTime,
			Price:         current.Price,
			SeatsTotal:    seatsTotal,
		}
	})
}

// Update replaces the admin-editable fields of a flight. Capacity changes and
// schedule conflict checks are evaluated against the locked current row, and
// nothing is written unless every check passes.
func (m *Mutator) Update(ctx context.Context, flightID string, update FlightUpdate) (*domain.Flight, error) {
	return m.apply(ctx, flightID, func(domain.Flight) FlightUpdate { return update })
}

func (m *Mutator) apply(ctx context.Context, flightID string, next func(current domain.Flight) FlightUpdate) (*domain.Flight, error) {
	var updated domain.Flight
	err := m.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		current, err := m.flights.GetForUpdate(ctx, flightID)
		if err != nil {
			return err
		}
		u := next(*current)
		if u.SeatsTotal <= 0 {
			return fmt.Errorf("%w: seats_total must be positive", apperrors.ErrInvalidInput)
		}

		available, err := ResizedAvailability(*current, u.SeatsTotal)
		if err != nil {
			return err
		}

		updated = *current
		updated.FromCity = u.FromCity
		updated.ToCity = u.ToCity
		updated.DepartureTime = u.DepartureTime
		updated.ArrivalTime = u.ArrivalTime
		updated.Price = u.Price
		updated.SeatsTotal = u.SeatsTotal
		updated.SeatsAvailable = available

		if err := m.checker.Check(ctx, updated, flightID); err != nil {
			return err
		}
		if err := m.flights.Update(ctx, &updated); err != nil {
			return err
		}
		if _, err := m.tickets.RefreshSnapshots(ctx, &updated); err != nil {
			return fmt.Errorf("refresh ticket snapshots: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// ResizedAvailability returns seats_available after moving seats_total to
// seatsTotal, rejecting a capacity below the seats already booked.
func ResizedAvailability(current domain.Flight, seatsTotal int) (int, error) {
	available := current.SeatsAvailable + (seatsTotal - current.SeatsTotal)
	if available < 0 {
		return 0, apperrors.ErrInvalidResize
	}
	return available, nil
}
