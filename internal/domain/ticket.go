package domain

import "time"

type TicketStatus string

const (
	TicketStatusConfirmed TicketStatus = "confirmed"
	TicketStatusCancelled TicketStatus = "cancelled"
)

const CancellationReasonAirline = "Flight cancelled by airline"

// FlightSnapshot is the denormalized copy of a flight kept on a ticket so the
// booking stays displayable after the flight record is gone.
type FlightSnapshot struct {
	From          string
	To            string
	DepartureTime time.Time
	ArrivalTime   time.Time
	Price         float64
}

type Ticket struct {
	TicketID           string
	PassengerName      string
	PassengerSurname   string
	PassengerEmail     string
	FlightID           string
	Snapshot           *FlightSnapshot
	SeatNumber         string
	Status             TicketStatus
	CancellationReason string
	CancelledAt        *time.Time
	CreatedAt          time.Time
}

// Cancel moves a confirmed ticket to cancelled and refreshes its snapshot from the flight.
func (t *Ticket) Cancel(f *Flight, reason string, at time.Time) {
	snap := f.Snapshot()
	t.Snapshot = &snap
	t.Status = TicketStatusCancelled
	t.CancellationReason = reason
	t.CancelledAt = &at
}
