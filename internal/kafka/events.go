package kafka

import (
	"time"

	"github.com/happyflights/flightbooking/internal/domain"
)

const (
	EventTicketConfirmed = "ticket_confirmed"
	EventFlightCancelled = "flight_cancelled"
)

// TicketEvent notifies a passenger about their ticket. Flight fields carry the
// route as it was when the event was produced, since the flight may be gone.
type TicketEvent struct {
	Type             string    `json:"type"`
	TicketID         string    `json:"ticket_id"`
	FlightID         string    `json:"flight_id"`
	PassengerName    string    `json:"passenger_name"`
	PassengerSurname string    `json:"passenger_surname"`
	Email            string    `json:"email"`
	SeatNumber       string    `json:"seat_number,omitempty"`
	FromCity         string    `json:"from_city"`
	ToCity           string    `json:"to_city"`
	DepartureTime    time.Time `json:"departure_time"`
	ArrivalTime      time.Time `json:"arrival_time"`
	Price            float64   `json:"price"`
	Reason           string    `json:"reason,omitempty"`
	OccurredAt       time.Time `json:"occurred_at"`
}

// NewTicketEvent builds an event of kind for ticket using its flight snapshot.
func NewTicketEvent(kind string, ticket domain.Ticket, at time.Time) TicketEvent {
	event := TicketEvent{
		Type:             kind,
		TicketID:         ticket.TicketID,
		FlightID:         ticket.FlightID,
		PassengerName:    ticket.PassengerName,
		PassengerSurname: ticket.PassengerSurname,
		Email:            ticket.PassengerEmail,
		SeatNumber:       ticket.SeatNumber,
		Reason:           ticket.CancellationReason,
		OccurredAt:       at,
	}
	if s := ticket.Snapshot; s != nil {
		event.FromCity = s.From
		event.ToCity = s.To
		event.DepartureTime = s.DepartureTime
		event.ArrivalTime = s.ArrivalTime
		event.Price = s.Price
	}
	return event
}
