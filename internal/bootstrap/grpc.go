package bootstrap

import (
	"fmt"
	"net"
	"net/http"
	"strconv"

	flightsapi "github.com/happyflights/flightbooking/internal/api/flights_service_api"
	"github.com/happyflights/flightbooking/internal/api/rpc"
	ticketsapi "github.com/happyflights/flightbooking/internal/api/tickets_service_api"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// NewGRPCServer registers the flights and tickets services. Admin methods
// require an admin token in the call metadata.
func NewGRPCServer(deps Dependencies) *grpc.Server {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(
		rpc.Logger(),
		rpc.AdminOnly(deps.Verifier, flightsapi.AdminMethods()...),
	))
	flightsapi.RegisterFlightsServiceServer(srv, flightsapi.NewServer(deps.Flights))
	ticketsapi.RegisterTicketsServiceServer(srv, ticketsapi.NewServer(deps.Bookings))
	return srv
}

// NewGateway returns the /v1 HTTP gateway forwarding to the services over conn.
func NewGateway(conn grpc.ClientConnInterface) (http.Handler, error) {
	routes := append(flightsapi.GatewayRoutes(), ticketsapi.GatewayRoutes()...)
	mux, err := rpc.NewGateway(conn, routes...)
	if err != nil {
		return nil, fmt.Errorf("register gateway: %w", err)
	}
	return mux, nil
}

func dialGRPC(addr net.Addr) (*grpc.ClientConn, error) {
	target := addr.String()
	if tcp, ok := addr.(*net.TCPAddr); ok && tcp.IP.IsUnspecified() {
		target = net.JoinHostPort("localhost", strconv.Itoa(tcp.Port))
	}
	conn, err := grpc.NewClient(target, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("dial gRPC %s: %w", target, err)
	}
	return conn, nil
}
