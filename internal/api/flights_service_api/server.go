package flights_service_api

import (
	"context"
	"net/http"
	"time"

	"github.com/happyflights/flightbooking/internal/api/rpc"
	"github.com/happyflights/flightbooking/internal/domain"
	"github.com/happyflights/flightbooking/internal/service/cancellation"
	"github.com/happyflights/flightbooking/internal/service/flights"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

const ServiceName = "happyflights.v1.FlightsService"

// FlightsServiceServer is the server API for FlightsService. Every message is
// a google.protobuf.Struct holding the JSON form used by the REST API.
type FlightsServiceServer interface {
	ListFlights(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	ListAllFlights(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	GetFlight(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	CreateFlight(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	UpdateFlight(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	ResizeFlight(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	DeleteFlight(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*FlightsServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		rpc.Unary(ServiceName, "ListFlights", FlightsServiceServer.ListFlights),
		rpc.Unary(ServiceName, "ListAllFlights", FlightsServiceServer.ListAllFlights),
		rpc.Unary(ServiceName, "GetFlight", FlightsServiceServer.GetFlight),
		rpc.Unary(ServiceName, "CreateFlight", FlightsServiceServer.CreateFlight),
		rpc.Unary(ServiceName, "UpdateFlight", FlightsServiceServer.UpdateFlight),
		rpc.Unary(ServiceName, "ResizeFlight", FlightsServiceServer.ResizeFlight),
		rpc.Unary(ServiceName, "DeleteFlight", FlightsServiceServer.DeleteFlight),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "happyflights/v1/flights.proto",
}

func RegisterFlightsServiceServer(s grpc.ServiceRegistrar, srv FlightsServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// AdminMethods lists the calls that require an admin token.
func AdminMethods() []string {
	return []string{
		rpc.FullMethod(ServiceName, "ListAllFlights"),
		rpc.FullMethod(ServiceName, "CreateFlight"),
		rpc.FullMethod(ServiceName, "UpdateFlight"),
		rpc.FullMethod(ServiceName, "ResizeFlight"),
		rpc.FullMethod(ServiceName, "DeleteFlight"),
	}
}

// GatewayRoutes exposes the service over HTTP under /v1/flights.
func GatewayRoutes() []rpc.Route {
	m := func(name string) string { return rpc.FullMethod(ServiceName, name) }
	return []rpc.Route{
		{Method: http.MethodGet, Pattern: "/v1/flights", RPC: m("ListFlights")},
		{Method: http.MethodGet, Pattern: "/v1/flights/admin/all", RPC: m("ListAllFlights")},
		{Method: http.MethodGet, Pattern: "/v1/flights/{flight_id}", RPC: m("GetFlight")},
		{Method: http.MethodPost, Pattern: "/v1/flights", RPC: m("CreateFlight"), Body: true},
		{Method: http.MethodPut, Pattern: "/v1/flights/{flight_id}", RPC: m("UpdateFlight"), Body: true},
		{Method: http.MethodPatch, Pattern: "/v1/flights/{flight_id}/seats", RPC: m("ResizeFlight"), Body: true},
		{Method: http.MethodDelete, Pattern: "/v1/flights/{flight_id}", RPC: m("DeleteFlight"), Bools: []string{"force"}, Ints: []string{"expected_booked"}},
	}
}

// Server adapts FlightUseCase to FlightsServiceServer.
type Server struct {
	flights flights.FlightUseCase
}

func NewServer(flights flights.FlightUseCase) *Server {
	return &Server{flights: flights}
}

type listRequest struct {
	FromCity string `json:"from_city"`
	ToCity   string `json:"to_city"`
	Date     string `json:"date"`
}

type idRequest struct {
	FlightID string `json:"flight_id"`
}

type flightRequest struct {
	FlightID      string    `json:"flight_id"`
	FromCity      string    `json:"from_city"`
	ToCity        string    `json:"to_city"`
	DepartureTime time.Time `json:"departure_time"`
	ArrivalTime   time.Time `json:"arrival_time"`
	Price         float64   `json:"price"`
	SeatsTotal    int       `json:"seats_total"`
}

func (r flightRequest) input() (flights.FlightInput, error) {
	if r.DepartureTime.IsZero() || r.ArrivalTime.IsZero() {
		return flights.FlightInput{}, status.Error(codes.InvalidArgument, "departure_time and arrival_time are required")
	}
	return flights.FlightInput{
		FlightID:      r.FlightID,
		FromCity:      r.FromCity,
		ToCity:        r.ToCity,
		DepartureTime: r.DepartureTime,
		ArrivalTime:   r.ArrivalTime,
		Price:         r.Price,
		SeatsTotal:    r.SeatsTotal,
	}, nil
}

type resizeRequest struct {
	FlightID   string `json:"flight_id"`
	SeatsTotal int    `json:"seats_total"`
}

type deleteRequest struct {
	FlightID       string `json:"flight_id"`
	Force          bool   `json:"force"`
	ExpectedBooked *int   `json:"expected_booked"`
}

type flightMessage struct {
	FlightID       string    `json:"flight_id"`
	FromCity       string    `json:"from_city"`
	ToCity         string    `json:"to_city"`
	DepartureTime  time.Time `json:"departure_time"`
	ArrivalTime    time.Time `json:"arrival_time"`
	Price          float64   `json:"price"`
	SeatsTotal     int       `json:"seats_total"`
	SeatsAvailable int       `json:"seats_available"`
}

func toFlightMessage(f domain.Flight) flightMessage {
	return flightMessage{
		FlightID:       f.FlightID,
		FromCity:       f.FromCity,
		ToCity:         f.ToCity,
		DepartureTime:  f.DepartureTime,
		ArrivalTime:    f.ArrivalTime,
		Price:          f.Price,
		SeatsTotal:     f.SeatsTotal,
		SeatsAvailable: f.SeatsAvailable,
	}
}

type listResponse struct {
	Flights []flightMessage `json:"flights"`
}

type deleteResponse struct {
	Message            string `json:"message"`
	AffectedPassengers int    `json:"affectedPassengers,omitempty"`
	CancelledTickets   int    `json:"cancelledTickets,omitempty"`
}

func (s *Server) ListFlights(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return s.list(ctx, req, "ListFlights", s.flights.List)
}

func (s *Server) ListAllFlights(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return s.list(ctx, req, "ListAllFlights", s.flights.ListAll)
}

func (s *Server) list(ctx context.Context, req *structpb.Struct, method string, list func(context.Context, flights.Query) ([]domain.Flight, error)) (*structpb.Struct, error) {
	var in listRequest
	if err := rpc.Decode(req, &in); err != nil {
		return nil, err
	}
	found, err := list(ctx, flights.Query{FromCity: in.FromCity, ToCity: in.ToCity, Date: in.Date})
	if err != nil {
		return nil, rpc.Status(err, method)
	}
	resp := listResponse{Flights: make([]flightMessage, 0, len(found))}
	for _, f := range found {
		resp.Flights = append(resp.Flights, toFlightMessage(f))
	}
	return rpc.Encode(resp)
}

func (s *Server) GetFlight(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in idRequest
	if err := rpc.Decode(req, &in); err != nil {
		return nil, err
	}
	flight, err := s.flights.GetByID(ctx, in.FlightID)
	if err != nil {
		return nil, rpc.Status(err, "GetFlight")
	}
	return rpc.Encode(toFlightMessage(*flight))
}

func (s *Server) CreateFlight(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in flightRequest
	if err := rpc.Decode(req, &in); err != nil {
		return nil, err
	}
	input, err := in.input()
	if err != nil {
		return nil, err
	}
	flight, err := s.flights.Create(ctx, input)
	if err != nil {
		return nil, rpc.Status(err, "CreateFlight")
	}
	return rpc.Encode(toFlightMessage(*flight))
}

func (s *Server) UpdateFlight(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in flightRequest
	if err := rpc.Decode(req, &in); err != nil {
		return nil, err
	}
	input, err := in.input()
	if err != nil {
		return nil, err
	}
	flight, err := s.flights.Update(ctx, in.FlightID, input)
	if err != nil {
		return nil, rpc.Status(err, "UpdateFlight")
	}
	return rpc.Encode(toFlightMessage(*flight))
}

func (s *Server) ResizeFlight(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in resizeRequest
	if err := rpc.Decode(req, &in); err != nil {
		return nil, err
	}
	flight, err := s.flights.Resize(ctx, in.FlightID, in.SeatsTotal)
	if err != nil {
		return nil, rpc.Status(err, "ResizeFlight")
	}
	return rpc.Encode(toFlightMessage(*flight))
}

func (s *Server) DeleteFlight(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in deleteRequest
	if err := rpc.Decode(req, &in); err != nil {
		return nil, err
	}
	if in.ExpectedBooked != nil && *in.ExpectedBooked < 0 {
		return nil, status.Error(codes.InvalidArgument, "expected_booked must be a non-negative integer")
	}
	res, err := s.flights.Delete(ctx, cancellation.Request{FlightID: in.FlightID, Force: in.Force, ExpectedBooked: in.ExpectedBooked})
	if err != nil {
		return nil, rpc.Status(err, "DeleteFlight")
	}
	if res.State != cancellation.StateCommitted {
		return rpc.Encode(deleteResponse{Message: "Flight deleted successfully"})
	}
	return rpc.Encode(deleteResponse{
		Message:            "Flight cancelled successfully",
		AffectedPassengers: res.BookedSeats,
		CancelledTickets:   len(res.CancelledTickets),
	})
}
