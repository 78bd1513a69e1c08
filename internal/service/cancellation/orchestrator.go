// Package cancellation deletes flights, cascading to their confirmed tickets
// once the caller has confirmed the booked-seat count.
package cancellation

import (
	"context"
	"fmt"
	"time"

	"github.com/happyflights/flightbooking/internal/domain"
	"github.com/happyflights/flightbooking/internal/repository"
	"github.com/happyflights/flightbooking/pkg/apperrors"
)

type State string

const (
	// StateProposed means the flight has bookings and the caller must confirm.
	StateProposed State = "proposed"
	// StateConfirmed means the caller confirmed the booked count it was shown.
	StateConfirmed State = "confirmed"
	// StateCommitted means tickets were cancelled and the flight deleted.
	StateCommitted State = "committed"
	// StateDeleted means the flight had no bookings and was deleted outright.
	StateDeleted State = "deleted"
)

type Request struct {
	FlightID string
	Force    bool
	// ExpectedBooked, when set on a forced request, must equal the booked
	// count at commit time. A mismatch re-proposes with the current count.
	ExpectedBooked *int
}

type Result struct {
	FlightID         string
	State            State
	BookedSeats      int
	Flight           domain.Flight
	CancelledTickets []domain.Ticket
}

type Orchestrator struct {
	tx      repository.Transactor
	flights repository.FlightRepository
	tickets repository.TicketRepository
	now     func() time.Time
}

func NewOrchestrator(tx repository.Transactor, flights repository.FlightRepository, tickets repository.TicketRepository) *Orchestrator {
	return &Orchestrator{tx: tx, flights: flights, tickets: tickets, now: time.Now}
}

// WithClock replaces the clock used for the past-flight check and cancelled_at.
func (o *Orchestrator) WithClock(now func() time.Time) *Orchestrator {
	o.now = now
	return o
}

// Delete runs the deletion state machine for one flight. Every decision is
// taken against the locked flight row, and the ticket cascade commits in the
// same transaction as the flight delete.
func (o *Orchestrator) Delete(ctx context.Context, req Request) (*Result, error) {
	var res *Result
	err := o.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		flight, err := o.flights.GetForUpdate(ctx, req.FlightID)
		if err != nil {
			return err
		}

		now := o.now()
		if flight.DepartureTime.Before(now) {
			return &apperrors.PastFlightError{Departure: flight.DepartureTime, Now: now}
		}

		booked := flight.BookedSeats()
		if booked == 0 {
			if err := o.flights.Delete(ctx, flight.FlightID); err != nil {
				return err
			}
			res = &Result{FlightID: flight.FlightID, State: StateDeleted, Flight: *flight}
			return nil
		}

		state := propose(req, booked)
		if state != StateConfirmed {
			return &apperrors.ForceRequiredError{BookedSeats: booked}
		}

		cancelled, err := o.tickets.CancelConfirmedByFlight(ctx, flight, domain.CancellationReasonAirline, now)
		if err != nil {
			return fmt.Errorf("cancel tickets: %w", err)
		}
		if err := o.flights.Delete(ctx, flight.FlightID); err != nil {
			return err
		}
		res = &Result{
			FlightID:         flight.FlightID,
			State:            StateCommitted,
			BookedSeats:      booked,
			Flight:           *flight,
			CancelledTickets: cancelled,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// propose decides whether a request for a flight with booked seats is confirmed.
func propose(req Request, booked int) State {
	if !req.Force {
		return StateProposed
	}
	if req.ExpectedBooked != nil && *req.ExpectedBooked != booked {
		return StateProposed
	}
	return StateConfirmed
}
