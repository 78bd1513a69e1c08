package flights

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/happyflights/flightbooking/internal/cache"
	"github.com/happyflights/flightbooking/internal/domain"
	"github.com/happyflights/flightbooking/internal/kafka"
	"github.com/happyflights/flightbooking/internal/metrics"
	"github.com/happyflights/flightbooking/internal/repository"
	"github.com/happyflights/flightbooking/internal/service/cancellation"
	"github.com/happyflights/flightbooking/internal/service/conflicts"
	"github.com/happyflights/flightbooking/internal/service/inventory"
	"github.com/happyflights/flightbooking/pkg/apperrors"
	"github.com/happyflights/flightbooking/pkg/logger"
	"go.uber.org/zap"
)

const dateLayout = "2006-01-02"

type FlightUseCase interface {
	List(ctx context.Context, q Query) ([]domain.Flight, error)
	ListAll(ctx context.Context, q Query) ([]domain.Flight, error)
	GetByID(ctx context.Context, id string) (*domain.Flight, error)
	Create(ctx context.Context, in FlightInput) (*domain.Flight, error)
	Update(ctx context.Context, id string, in FlightInput) (*domain.Flight, error)
	Resize(ctx context.Context, id string, seatsTotal int) (*domain.Flight, error)
	Delete(ctx context.Context, req cancellation.Request) (*cancellation.Result, error)
}

// FlightCache stores public flight listings. ListingKey pins the listing
// version once per lookup; the read and the write both use that key.
type FlightCache interface {
	ListingKey(ctx context.Context, query string) (string, error)
	GetFlights(ctx context.Context, key string) ([]domain.Flight, bool, error)
	SetFlights(ctx context.Context, key string, flights []domain.Flight) error
	InvalidateFlights(ctx context.Context) error
}

type Notifier interface {
	Publish(ctx context.Context, event kafka.TicketEvent) error
}

// Query filters flight listings. Date is YYYY-MM-DD and selects one UTC day.
type Query struct {
	FromCity string
	ToCity   string
	Date     string
}

type FlightInput struct {
	FlightID      string
	FromCity      string
	ToCity        string
	DepartureTime time.Time
	ArrivalTime   time.Time
	Price         float64
	SeatsTotal    int
}

type FlightService struct {
	tx        repository.Transactor
	repo      repository.FlightRepository
	checker   *conflicts.Checker
	mutator   *inventory.Mutator
	canceller *cancellation.Orchestrator
	cache     FlightCache
	notifier  Notifier
	now       func() time.Time
}

type Option func(*FlightService)

func WithCache(c FlightCache) Option {
	return func(s *FlightService) { s.cache = c }
}

func WithNotifier(n Notifier) Option {
	return func(s *FlightService) { s.notifier = n }
}

func WithClock(now func() time.Time) Option {
	return func(s *FlightService) { s.now = now }
}

func NewFlightService(
	tx repository.Transactor,
	repo repository.FlightRepository,
	checker *conflicts.Checker,
	mutator *inventory.Mutator,
	canceller *cancellation.Orchestrator,
	opts ...Option,
) *FlightService {
	s := &FlightService{
		tx:        tx,
		repo:      repo,
		checker:   checker,
		mutator:   mutator,
		canceller: canceller,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	canceller.WithClock(s.now)
	return s
}

// List returns upcoming flights, earliest departure first. Flights that have
// already departed are never returned, even from the cache.
func (s *FlightService) List(ctx context.Context, q Query) ([]domain.Flight, error) {
	now := s.now()
	filter, err := buildFilter(q)
	if err != nil {
		return nil, err
	}
	if filter.DepartureFrom == nil || filter.DepartureFrom.Before(now) {
		filter.DepartureFrom = &now
	}

	key := s.listingKey(ctx, filter, q.Date)
	if key != "" {
		cached, ok, err := s.cache.GetFlights(ctx, key)
		switch {
		case err != nil:
			metrics.FlightsCacheLookups.WithLabelValues("error").Inc()
			logger.WithComponent("flights").Warn("flights cache read failed", zap.Error(err))
		case ok:
			metrics.FlightsCacheLookups.WithLabelValues("hit").Inc()
			return upcoming(cached, now), nil
		default:
			metrics.FlightsCacheLookups.WithLabelValues("miss").Inc()
		}
	}

	flights, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if key != "" {
		if err := s.cache.SetFlights(ctx, key, flights); err != nil {
			logger.WithComponent("flights").Warn("flights cache write failed", zap.Error(err))
		}
	}
	return flights, nil
}

// listingKey returns "" when there is no cache or the version cannot be read.
func (s *FlightService) listingKey(ctx context.Context, filter domain.FlightFilter, date string) string {
	if s.cache == nil {
		return ""
	}
	key, err := s.cache.ListingKey(ctx, cache.FlightsQuery(filter.FromCity, filter.ToCity, date))
	if err != nil {
		metrics.FlightsCacheLookups.WithLabelValues("error").Inc()
		logger.WithComponent("flights").Warn("flights cache version read failed", zap.Error(err))
		return ""
	}
	return key
}

// ListAll returns flights including past ones, newest departure first.
func (s *FlightService) ListAll(ctx context.Context, q Query) ([]domain.Flight, error) {
	filter, err := buildFilter(q)
	if err != nil {
		return nil, err
	}
	filter.NewestFirst = true
	return s.repo.List(ctx, filter)
}

func (s *FlightService) GetByID(ctx context.Context, id string) (*domain.Flight, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *FlightService) Create(ctx context.Context, in FlightInput) (*domain.Flight, error) {
	in = normalize(in)
	if in.FlightID == "" {
		return nil, fmt.Errorf("%w: flight_id is required", apperrors.ErrInvalidInput)
	}
	if err := validate(in); err != nil {
		return nil, err
	}

	flight := domain.Flight{
		FlightID:       in.FlightID,
		FromCity:       in.FromCity,
		ToCity:         in.ToCity,
		DepartureTime:  in.DepartureTime,
		ArrivalTime:    in.ArrivalTime,
		Price:          in.Price,
		SeatsTotal:     in.SeatsTotal,
		SeatsAvailable: in.SeatsTotal,
	}

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.repo.GetByID(ctx, flight.FlightID); err == nil {
			return &apperrors.ConflictError{Reason: apperrors.ReasonDuplicateID}
		} else if !errors.Is(err, apperrors.ErrFlightNotFound) {
			return err
		}
		if err := s.checker.Check(ctx, flight, flight.FlightID); err != nil {
			return err
		}
		return s.repo.Create(ctx, &flight)
	})
	if err != nil {
		return nil, err
	}

	logger.WithComponent("flights").Info("flight created",
		zap.String("flight_id", flight.FlightID),
		zap.String("from", flight.FromCity),
		zap.String("to", flight.ToCity),
		zap.Time("departure", flight.DepartureTime))
	s.invalidate(ctx)
	return &flight, nil
}

// Update applies an admin edit. Capacity and schedule are validated against
// the locked flight and the edit is rejected whole on any failure.
func (s *FlightService) Update(ctx context.Context, id string, in FlightInput) (*domain.Flight, error) {
	in = normalize(in)
	if err := validate(in); err != nil {
		return nil, err
	}

	flight, err := s.mutator.Update(ctx, id, inventory.FlightUpdate{
		FromCity:      in.FromCity,
		ToCity:        in.ToCity,
		DepartureTime: in.DepartureTime,
		ArrivalTime:   in.ArrivalTime,
		Price:         in.Price,
		SeatsTotal:    in.SeatsTotal,
	})
	if err != nil {
		return nil, err
	}

	logger.WithComponent("flights").Info("flight updated",
		zap.String("flight_id", flight.FlightID),
		zap.Int("seats_total", flight.SeatsTotal),
		zap.Int("seats_available", flight.SeatsAvailable))
	s.invalidate(ctx)
	return flight, nil
}

// Resize changes only the capacity of a flight. Seats already booked stay
// booked; shrinking below them fails with ErrInvalidResize.
func (s *FlightService) Resize(ctx context.Context, id string, seatsTotal int) (*domain.Flight, error) {
	if seatsTotal <= 0 {
		return nil, fmt.Errorf("%w: seats_total must be positive", apperrors.ErrInvalidInput)
	}
	flight, err := s.mutator.Resize(ctx, id, seatsTotal)
	if err != nil {
		return nil, err
	}

	logger.WithComponent("flights").Info("flight resized",
		zap.String("flight_id", flight.FlightID),
		zap.Int("seats_total", flight.SeatsTotal),
		zap.Int("seats_available", flight.SeatsAvailable))
	s.invalidate(ctx)
	return flight, nil
}

// Delete removes a flight. A flight with bookings needs a forced request;
// its confirmed tickets are cancelled and each passenger is notified.
func (s *FlightService) Delete(ctx context.Context, req cancellation.Request) (*cancellation.Result, error) {
	res, err := s.canceller.Delete(ctx, req)
	if err != nil {
		if errors.Is(err, apperrors.ErrForceRequired) {
			metrics.FlightDeletions.WithLabelValues(string(cancellation.StateProposed)).Inc()
		}
		return nil, err
	}

	metrics.FlightDeletions.WithLabelValues(string(res.State)).Inc()
	metrics.TicketsCancelled.Add(float64(len(res.CancelledTickets)))

	log := logger.WithComponent("flights").With(zap.String("flight_id", res.FlightID))
	if res.State == cancellation.StateCommitted {
		log.Info("flight force-cancelled", zap.Int("affected_passengers", len(res.CancelledTickets)))
	} else {
		log.Info("flight deleted")
	}

	s.notifyCancelled(ctx, res.CancelledTickets)
	s.invalidate(ctx)
	return res, nil
}

func (s *FlightService) notifyCancelled(ctx context.Context, tickets []domain.Ticket) {
	if s.notifier == nil {
		return
	}
	at := s.now()
	for _, t := range tickets {
		err := s.notifier.Publish(ctx, kafka.NewTicketEvent(kafka.EventFlightCancelled, t, at))
		if err != nil {
			metrics.NotificationsPublished.WithLabelValues(kafka.EventFlightCancelled, "failed").Inc()
			logger.WithComponent("flights").Warn("cancellation notification failed",
				zap.String("ticket_id", t.TicketID), zap.Error(err))
			continue
		}
		metrics.NotificationsPublished.WithLabelValues(kafka.EventFlightCancelled, "published").Inc()
	}
}

func (s *FlightService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateFlights(ctx); err != nil {
		logger.WithComponent("flights").Warn("flights cache invalidation failed", zap.Error(err))
	}
}

func buildFilter(q Query) (domain.FlightFilter, error) {
	filter := domain.FlightFilter{
		FromCity: strings.TrimSpace(q.FromCity),
		ToCity:   strings.TrimSpace(q.ToCity),
	}
	if q.Date == "" {
		return filter, nil
	}
	day, err := time.Parse(dateLayout, q.Date)
	if err != nil {
		return filter, fmt.Errorf("%w: date must be YYYY-MM-DD", apperrors.ErrInvalidInput)
	}
	next := day.AddDate(0, 0, 1)
	filter.DepartureFrom = &day
	filter.DepartureTo = &next
	return filter, nil
}

func upcoming(flights []domain.Flight, now time.Time) []domain.Flight {
	out := make([]domain.Flight, 0, len(flights))
	for _, f := range flights {
		if !f.DepartureTime.Before(now) {
			out = append(out, f)
		}
	}
	return out
}

func normalize(in FlightInput) FlightInput {
	in.FlightID = strings.TrimSpace(in.FlightID)
	in.FromCity = strings.TrimSpace(in.FromCity)
	in.ToCity = strings.TrimSpace(in.ToCity)
	in.DepartureTime = domain.NormalizeScheduleTime(in.DepartureTime)
	in.ArrivalTime = domain.NormalizeScheduleTime(in.ArrivalTime)
	return in
}

func validate(in FlightInput) error {
	switch {
	case in.FromCity == "" || in.ToCity == "":
		return fmt.Errorf("%w: from_city and to_city are required", apperrors.ErrInvalidInput)
	case in.FromCity == in.ToCity:
		return fmt.Errorf("%w: from_city and to_city must differ", apperrors.ErrInvalidInput)
	case in.DepartureTime.IsZero() || in.ArrivalTime.IsZero():
		return fmt.Errorf("%w: departure_time and arrival_time are required", apperrors.ErrInvalidInput)
	case in.Price < 0:
		return fmt.Errorf("%w: price must not be negative", apperrors.ErrInvalidInput)
	case in.SeatsTotal <= 0:
		return fmt.Errorf("%w: seats_total must be positive", apperrors.ErrInvalidInput)
	}
	return nil
}

var _ FlightUseCase = (*FlightService)(nil)
