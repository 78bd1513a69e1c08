package tickets_service_api

import (
	"context"
	"net/http"
	"time"

	"github.com/happyflights/flightbooking/internal/api/rpc"
	"github.com/happyflights/flightbooking/internal/domain"
	"github.com/happyflights/flightbooking/internal/service/booking"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const ServiceName = "happyflights.v1.TicketsService"

// TicketsServiceServer is the server API for TicketsService.
type TicketsServiceServer interface {
	CreateTicket(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	GetTicket(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	ListTicketsByEmail(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*TicketsServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		rpc.Unary(ServiceName, "CreateTicket", TicketsServiceServer.CreateTicket),
		rpc.Unary(ServiceName, "GetTicket", TicketsServiceServer.GetTicket),
		rpc.Unary(ServiceName, "ListTicketsByEmail", TicketsServiceServer.ListTicketsByEmail),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "happyflights/v1/tickets.proto",
}

func RegisterTicketsServiceServer(s grpc.ServiceRegistrar, srv TicketsServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// GatewayRoutes exposes the service over HTTP under /v1/tickets.
func GatewayRoutes() []rpc.Route {
	m := func(name string) string { return rpc.FullMethod(ServiceName, name) }
	return []rpc.Route{
		{Method: http.MethodPost, Pattern: "/v1/tickets", RPC: m("CreateTicket"), Body: true},
		{Method: http.MethodGet, Pattern: "/v1/tickets/ticket/{ticket_id}", RPC: m("GetTicket")},
		{Method: http.MethodGet, Pattern: "/v1/tickets/by-email/{email}", RPC: m("ListTicketsByEmail")},
	}
}

// Server adapts BookingUseCase to TicketsServiceServer.
type Server struct {
	bookings booking.BookingUseCase
}

func NewServer(bookings booking.BookingUseCase) *Server {
	return &Server{bookings: bookings}
}

type createRequest struct {
	PassengerName    string `json:"passenger_name"`
	PassengerSurname string `json:"passenger_surname"`
	PassengerEmail   string `json:"passenger_email"`
	FlightID         string `json:"flight_id"`
	SeatNumber       string `json:"seat_number"`
}

type ticketMessage struct {
	TicketID           string         `json:"ticket_id"`
	PassengerName      string         `json:"passenger_name"`
	PassengerSurname   string         `json:"passenger_surname"`
	PassengerEmail     string         `json:"passenger_email"`
	FlightID           string         `json:"flight_id"`
	SeatNumber         string         `json:"seat_number,omitempty"`
	Status             string         `json:"status"`
	CancellationReason string         `json:"cancellation_reason,omitempty"`
	CancelledAt        *time.Time     `json:"cancelled_at,omitempty"`
	CreatedAt          time.Time      `json:"created_at"`
	FlightDetails      *flightMessage `json:"flight_details,omitempty"`
}

type flightMessage struct {
	FlightID      string    `json:"flight_id"`
	FromCity      string    `json:"from_city"`
	ToCity        string    `json:"to_city"`
	DepartureTime time.Time `json:"departure_time"`
	ArrivalTime   time.Time `json:"arrival_time"`
	Price         float64   `json:"price"`
}

func toTicketMessage(t domain.Ticket, flight *domain.Flight) ticketMessage {
	m := ticketMessage{
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
	if flight != nil {
		m.FlightDetails = &flightMessage{
			FlightID:      flight.FlightID,
			FromCity:      flight.FromCity,
			ToCity:        flight.ToCity,
			DepartureTime: flight.DepartureTime,
			ArrivalTime:   flight.ArrivalTime,
			Price:         flight.Price,
		}
	}
	return m
}

type ticketsResponse struct {
	Tickets []ticketMessage `json:"tickets"`
}

func (s *Server) CreateTicket(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in createRequest
	if err := rpc.Decode(req, &in); err != nil {
		return nil, err
	}
	ticket, err := s.bookings.CreateBooking(ctx, booking.CreateBookingInput{
		PassengerName:    in.PassengerName,
		PassengerSurname: in.PassengerSurname,
		PassengerEmail:   in.PassengerEmail,
		FlightID:         in.FlightID,
		SeatNumber:       in.SeatNumber,
	})
	if err != nil {
		return nil, rpc.Status(err, "CreateTicket")
	}
	return rpc.Encode(toTicketMessage(*ticket, nil))
}

func (s *Server) GetTicket(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in struct {
		TicketID string `json:"ticket_id"`
	}
	if err := rpc.Decode(req, &in); err != nil {
		return nil, err
	}
	view, err := s.bookings.GetTicket(ctx, in.TicketID)
	if err != nil {
		return nil, rpc.Status(err, "GetTicket")
	}
	return rpc.Encode(toTicketMessage(view.Ticket, view.Details()))
}

func (s *Server) ListTicketsByEmail(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in struct {
		Email string `json:"email"`
	}
	if err := rpc.Decode(req, &in); err != nil {
		return nil, err
	}
	views, err := s.bookings.ListByEmail(ctx, in.Email)
	if err != nil {
		return nil, rpc.Status(err, "ListTicketsByEmail")
	}
	resp := ticketsResponse{Tickets: make([]ticketMessage, 0, len(views))}
	for _, v := range views {
		resp.Tickets = append(resp.Tickets, toTicketMessage(v.Ticket, v.Details()))
	}
	return rpc.Encode(resp)
}
