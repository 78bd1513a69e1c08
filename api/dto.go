package api

import (
	"time"

	"github.com/happyflights/flightbooking/internal/domain"
	"github.com/happyflights/flightbooking/internal/service/booking"
	"github.com/happyflights/flightbooking/internal/service/flights"
)

type flightRequest struct {
	FlightID      string    `json:"flight_id"`
	FromCity      string    `json:"from_city" binding:"required"`
	ToCity        string    `json:"to_city" binding:"required"`
	DepartureTime time.Time `json:"departure_time" binding:"required"`
	ArrivalTime   time.Time `json:"arrival_time" binding:"required"`
	Price         float64   `json:"price"`
	SeatsTotal    int       `json:"seats_total" binding:"required"`
}

func (r flightRequest) input() flights.FlightInput {
	return flights.FlightInput{
		FlightID:      r.FlightID,
		FromCity:      r.FromCity,
		ToCity:        r.ToCity,
		DepartureTime: r.DepartureTime,
		ArrivalTime:   r.ArrivalTime,
		Price:         r.Price,
		SeatsTotal:    r.SeatsTotal,
	}
}

type resizeRequest struct {
	SeatsTotal int `json:"seats_total" binding:"required"`
}

type flightResponse struct {
	FlightID       string    `json:"flight_id"`
	FromCity       string    `json:"from_city"`
	ToCity         string    `json:"to_city"`
	DepartureTime  time.Time `json:"departure_time"`
	ArrivalTime    time.Time `json:"arrival_time"`
	Price          float64   `json:"price"`
	SeatsTotal     int       `json:"seats_total"`
	SeatsAvailable int       `json:"seats_available"`
	CreatedAt      time.Time `json:"created_at,omitzero"`
	UpdatedAt      time.Time `json:"updated_at,omitzero"`
}

func toFlightResponse(f domain.Flight) flightResponse {
	return flightResponse{
		FlightID:       f.FlightID,
		FromCity:       f.FromCity,
		ToCity:         f.ToCity,
		DepartureTime:  f.DepartureTime,
		ArrivalTime:    f.ArrivalTime,
		Price:          f.Price,
		SeatsTotal:     f.SeatsTotal,
		SeatsAvailable: f.SeatsAvailable,
		CreatedAt:      f.CreatedAt,
		UpdatedAt:      f.UpdatedAt,
	}
}

func toFlightResponses(list []domain.Flight) []flightResponse {
	out := make([]flightResponse, 0, len(list))
	for _, f := range list {
		out = append(out, toFlightResponse(f))
	}
	return out
}

func optionalFlight(f *domain.Flight) *flightResponse {
	if f == nil {
		return nil
	}
	r := toFlightResponse(*f)
	return &r
}

type bookingRequest struct {
	PassengerName    string `json:"passenger_name" binding:"required"`
	PassengerSurname string `json:"passenger_surname" binding:"required"`
	PassengerEmail   string `json:"passenger_email" binding:"required"`
	FlightID         string `json:"flight_id" binding:"required"`
	SeatNumber       string `json:"seat_number"`
}

type ticketResponse struct {
	TicketID            string     `json:"ticket_id"`
	PassengerName       string     `json:"passenger_name"`
	PassengerSurname    string     `json:"passenger_surname"`
	PassengerEmail      string     `json:"passenger_email"`
	FlightID            string     `json:"flight_id"`
	SeatNumber          string     `json:"seat_number,omitempty"`
	Status              string     `json:"status"`
	CancellationReason  string     `json:"cancellation_reason,omitempty"`
	CancelledAt         *time.Time `json:"cancelled_at,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
	FlightFrom          string     `json:"flight_from,omitempty"`
	FlightTo            string     `json:"flight_to,omitempty"`
	FlightDepartureTime *time.Time `json:"flight_departure_time,omitempty"`
	FlightArrivalTime   *time.Time `json:"flight_arrival_time,omitempty"`
	FlightPrice         *float64   `json:"flight_price,omitempty"`
}

func toTicketResponse(t domain.Ticket) ticketResponse {
	r := ticketResponse{
		TicketID:           t.TicketID,
		PassengerName:      t.PassengerName,
		PassengerSurname:   t.PassengerSurname,
		PassengerEmail:     t.PassengerEmail,
		FlightID:           t.FlightID,
		SeatNumber:         t.SeatNumber,
		Status:             string(t.Status),
		CancellationReason: t.CancellationReason,
		CancelledAt:        t.CancelledAt,
		CreatedAt:          t.CreatedAt,
	}
	if s := t.Snapshot; s != nil {
		dep, arr, price := s.DepartureTime, s.ArrivalTime, s.Price
		r.FlightFrom = s.From
		r.FlightTo = s.To
		r.FlightDepartureTime = &dep
		r.FlightArrivalTime = &arr
		r.FlightPrice = &price
	}
	return r
}

// ticketDetailsResponse is a ticket with its flight under flight_details,
// falling back to the ticket snapshot once the flight is gone.
type ticketDetailsResponse struct {
	ticketResponse
	FlightDetails *flightResponse `json:"flight_details"`
}

func toTicketDetails(v booking.TicketView) ticketDetailsResponse {
	return ticketDetailsResponse{
		ticketResponse: toTicketResponse(v.Ticket),
		FlightDetails:  optionalFlight(v.Details()),
	}
}

// passengerTicketResponse is the booking history entry: the flight is embedded
// under flight, and email and price are repeated at the top level.
type passengerTicketResponse struct {
	ticketResponse
	Flight *flightResponse `json:"flight"`
	Email  string          `json:"email"`
	Price  float64         `json:"price"`
}

func toPassengerTicket(v booking.TicketView) passengerTicketResponse {
	r := passengerTicketResponse{
		ticketResponse: toTicketResponse(v.Ticket),
		Flight:         optionalFlight(v.Details()),
		Email:          v.Ticket.PassengerEmail,
	}
	if r.Flight != nil {
		r.Price = r.Flight.Price
	}
	return r
}

type deleteFlightResponse struct {
	Message            string `json:"message"`
	AffectedPassengers int    `json:"affectedPassengers,omitempty"`
	CancelledTickets   *int   `json:"cancelledTickets,omitempty"`
	Warning            string `json:"warning,omitempty"`
}

type backfillResultResponse struct {
	TicketID string `json:"ticket_id"`
	FlightID string `json:"flight_id"`
	Status   string `json:"status"`
	From     string `json:"from,omitempty"`
	To       string `json:"to,omitempty"`
	Error    string `json:"error,omitempty"`
}

type backfillResponse struct {
	Success bool                     `json:"success"`
	Message string                   `json:"message"`
	Updated int                      `json:"updated"`
	Failed  int                      `json:"failed"`
	Total   int                      `json:"total"`
	Results []backfillResultResponse `json:"results"`
}

func toBackfillResponse(r *booking.BackfillReport) backfillResponse {
	resp := backfillResponse{
		Success: true,
		Message: "Migration completed successfully",
		Updated: r.Updated,
		Failed:  r.Failed,
		Total:   r.Total,
		Results: make([]backfillResultResponse, 0, len(r.Results)),
	}
	if r.Total == 0 {
		resp.Message = "No tickets need updating"
	}
	for _, res := range r.Results {
		resp.Results = append(resp.Results, backfillResultResponse{
			TicketID: res.TicketID,
			FlightID: res.FlightID,
			Status:   string(res.Status),
			From:     res.From,
			To:       res.To,
			Error:    res.Error,
		})
	}
	return resp
}

type cityRequest struct {
	CityID   string `json:"city_id" binding:"required"`
	CityName string `json:"city_name" binding:"required"`
}

type cityResponse struct {
	CityID    string    `json:"city_id"`
	CityName  string    `json:"city_name"`
	CreatedAt time.Time `json:"created_at"`
}

func toCityResponse(c domain.City) cityResponse {
	return cityResponse{CityID: c.CityID, CityName: c.CityName, CreatedAt: c.CreatedAt}
}
