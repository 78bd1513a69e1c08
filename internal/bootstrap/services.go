package bootstrap

import (
	"github.com/happyflights/flightbooking/internal/cache"
	"github.com/happyflights/flightbooking/internal/kafka"
	"github.com/happyflights/flightbooking/internal/service/booking"
	"github.com/happyflights/flightbooking/internal/service/cancellation"
	"github.com/happyflights/flightbooking/internal/service/cities"
	"github.com/happyflights/flightbooking/internal/service/conflicts"
	"github.com/happyflights/flightbooking/internal/service/flights"
	"github.com/happyflights/flightbooking/internal/service/inventory"
)

type Services struct {
	Flights  *flights.FlightService
	Bookings *booking.BookingService
	Cities   *cities.CityService
}

// NewServices wires the domain services over storage. redisCache and producer
// are optional.
func NewServices(storage *Storage, redisCache *cache.RedisCache, producer *kafka.Producer) *Services {
	checker := conflicts.NewChecker(storage.Flights)
	mutator := inventory.NewMutator(storage.Tx, storage.Flights, storage.Tickets, checker)
	canceller := cancellation.NewOrchestrator(storage.Tx, storage.Flights, storage.Tickets)

	var (
		flightOpts  []flights.Option
		bookingOpts []booking.BookingServiceOption
	)
	if redisCache != nil {
		flightOpts = append(flightOpts, flights.WithCache(redisCache))
		bookingOpts = append(bookingOpts, booking.WithCache(redisCache))
	}
	if producer != nil {
		flightOpts = append(flightOpts, flights.WithNotifier(producer))
		bookingOpts = append(bookingOpts, booking.WithProducer(producer))
	}

	return &Services{
		Flights:  flights.NewFlightService(storage.Tx, storage.Flights, checker, mutator, canceller, flightOpts...),
		Bookings: booking.NewBookingService(storage.Tickets, storage.Flights, mutator, bookingOpts...),
		Cities:   cities.NewCityService(storage.Tx, storage.Cities),
	}
}
