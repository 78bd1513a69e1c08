package booking

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/happyflights/flightbooking/internal/domain"
	"github.com/happyflights/flightbooking/internal/kafka"
	"github.com/happyflights/flightbooking/internal/metrics"
	"github.com/happyflights/flightbooking/internal/repository"
	"github.com/happyflights/flightbooking/internal/service/inventory"
	"github.com/happyflights/flightbooking/pkg/apperrors"
	"github.com/happyflights/flightbooking/pkg/logger"
	"go.uber.org/zap"
)

type BookingUseCase interface {
	CreateBooking(ctx context.Context, input CreateBookingInput) (*domain.Ticket, error)
	GetTicket(ctx context.Context, ticketID string) (*TicketView, error)
	ListByEmail(ctx context.Context, email string) ([]TicketView, error)
	ListAll(ctx context.Context) ([]TicketView, error)
	BackfillSnapshots(ctx context.Context) (*BackfillReport, error)
}

type Producer interface {
	Publish(ctx context.Context, event kafka.TicketEvent) error
}

// CacheInvalidator drops cached flight listings after seat counts change.
type CacheInvalidator interface {
	InvalidateFlights(ctx context.Context) error
}

type CreateBookingInput struct {
	PassengerName    string
	PassengerSurname string
	PassengerEmail   string
	FlightID         string
	SeatNumber       string
}

// TicketView is a ticket together with its flight, if the flight still exists.
type TicketView struct {
	Ticket domain.Ticket
	Flight *domain.Flight
}

// Details returns the live flight, or one rebuilt from the ticket snapshot
// when the flight is gone. It is nil when neither is available.
func (v TicketView) Details() *domain.Flight {
	if v.Flight != nil {
		return v.Flight
	}
	s := v.Ticket.Snapshot
	if s == nil || s.From == "" || s.To == "" {
		return nil
	}
	return &domain.Flight{
		FlightID:      v.Ticket.FlightID,
		FromCity:      s.From,
		ToCity:        s.To,
		DepartureTime: s.DepartureTime,
		ArrivalTime:   s.ArrivalTime,
		Price:         s.Price,
	}
}

type BackfillStatus string

const (
	BackfillUpdated        BackfillStatus = "updated"
	BackfillNoChanges      BackfillStatus = "no_changes"
	BackfillFlightNotFound BackfillStatus = "flight_not_found"
	BackfillError          BackfillStatus = "error"
)

type BackfillResult struct {
	TicketID string
	FlightID string
	Status   BackfillStatus
	From     string
	To       string
	Error    string
}

type BackfillReport struct {
	Updated int
	Failed  int
	Total   int
	Results []BackfillResult
}

type BookingService struct {
	tickets  repository.TicketRepository
	flights  repository.FlightRepository
	mutator  *inventory.Mutator
	producer Producer
	cache    CacheInvalidator
	now      func() time.Time
	newID    func() string
}

type BookingServiceOption func(*BookingService)

func WithProducer(p Producer) BookingServiceOption {
	return func(s *BookingService) {
		s.producer = p
	}
}

func WithCache(c CacheInvalidator) BookingServiceOption {
	return func(s *BookingService) {
		s.cache = c
	}
}

func WithClock(now func() time.Time) BookingServiceOption {
	return func(s *BookingService) {
		s.now = now
	}
}

func NewBookingService(
	tickets repository.TicketRepository,
	flights repository.FlightRepository,
	mutator *inventory.Mutator,
	opts ...BookingServiceOption,
) *BookingService {
	service := &BookingService{
		tickets: tickets,
		flights: flights,
		mutator: mutator,
		now:     time.Now,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// CreateBooking takes a seat on the flight and issues a confirmed ticket.
// The confirmation notification is best effort and never undoes the booking.
func (s *BookingService) CreateBooking(ctx context.Context, input CreateBookingInput) (*domain.Ticket, error) {
	input, err := normalizeInput(input)
	if err != nil {
		return nil, err
	}

	ticket, _, err := s.mutator.BookSeat(ctx, domain.Ticket{
		TicketID:         s.newID(),
		PassengerName:    input.PassengerName,
		PassengerSurname: input.PassengerSurname,
		PassengerEmail:   input.PassengerEmail,
		FlightID:         input.FlightID,
		SeatNumber:       input.SeatNumber,
	})
	if err != nil {
		metrics.BookingsTotal.WithLabelValues(bookingResult(err)).Inc()
		return nil, err
	}
	metrics.BookingsTotal.WithLabelValues("confirmed").Inc()

	log := logger.WithComponent("booking").With(
		zap.String("ticket_id", ticket.TicketID),
		zap.String("flight_id", ticket.FlightID))
	log.Info("ticket booked")

	if s.producer != nil {
		event := kafka.NewTicketEvent(kafka.EventTicketConfirmed, *ticket, s.now())
		if err := s.producer.Publish(ctx, event); err != nil {
			metrics.NotificationsPublished.WithLabelValues(kafka.EventTicketConfirmed, "failed").Inc()
			log.Warn("confirmation notification failed", zap.Error(err))
		} else {
			metrics.NotificationsPublished.WithLabelValues(kafka.EventTicketConfirmed, "published").Inc()
		}
	}
	if s.cache != nil {
		if err := s.cache.InvalidateFlights(ctx); err != nil {
			log.Warn("flights cache invalidation failed", zap.Error(err))
		}
	}
	return ticket, nil
}

func (s *BookingService) GetTicket(ctx context.Context, ticketID string) (*TicketView, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	views, err := s.withFlights(ctx, []domain.Ticket{*ticket})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// ListByEmail returns a passenger's tickets, newest first.
func (s *BookingService) ListByEmail(ctx context.Context, email string) ([]TicketView, error) {
	tickets, err := s.tickets.ListByEmail(ctx, bareAddress(email))
	if err != nil {
		return nil, err
	}
	return s.withFlights(ctx, tickets)
}

// ListAll returns every ticket, newest first.
func (s *BookingService) ListAll(ctx context.Context) ([]TicketView, error) {
	tickets, err := s.tickets.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return s.withFlights(ctx, tickets)
}

func (s *BookingService) withFlights(ctx context.Context, tickets []domain.Ticket) ([]TicketView, error) {
	flights := make(map[string]*domain.Flight)
	views := make([]TicketView, 0, len(tickets))
	for _, t := range tickets {
		f, seen := flights[t.FlightID]
		if !seen {
			var err error
			f, err = s.flights.GetByID(ctx, t.FlightID)
			if err != nil && !errors.Is(err, apperrors.ErrFlightNotFound) {
				return nil, fmt.Errorf("load flight %s: %w", t.FlightID, err)
			}
			flights[t.FlightID] = f
		}
		views = append(views, TicketView{Ticket: t, Flight: f})
	}
	return views, nil
}

// BackfillSnapshots copies flight details onto tickets that have none.
// Tickets whose flight no longer exists are reported and left untouched.
func (s *BookingService) BackfillSnapshots(ctx context.Context) (*BackfillReport, error) {
	tickets, err := s.tickets.ListWithoutSnapshot(ctx)
	if err != nil {
		return nil, err
	}

	log := logger.WithComponent("booking")
	report := &BackfillReport{Total: len(tickets), Results: make([]BackfillResult, 0, len(tickets))}
	for _, t := range tickets {
		res := BackfillResult{TicketID: t.TicketID, FlightID: t.FlightID}

		flight, err := s.flights.GetByID(ctx, t.FlightID)
		switch {
		case errors.Is(err, apperrors.ErrFlightNotFound):
			res.Status = BackfillFlightNotFound
			report.Failed++
		case err != nil:
			res.Status = BackfillError
			res.Error = err.Error()
			report.Failed++
		default:
			ok, err := s.tickets.SetSnapshot(ctx, t.TicketID, flight.Snapshot())
			switch {
			case err != nil:
				res.Status = BackfillError
				res.Error = err.Error()
				report.Failed++
			case !ok:
				res.Status = BackfillNoChanges
			default:
				res.Status = BackfillUpdated
				res.From, res.To = flight.FromCity, flight.ToCity
				report.Updated++
			}
		}
		report.Results = append(report.Results, res)
	}

	log.Info("ticket snapshot backfill finished",
		zap.Int("total", report.Total),
		zap.Int("updated", report.Updated),
		zap.Int("failed", report.Failed))
	return report, nil
}

// normalizeInput trims every field and reduces the email to its bare
// address, dropping any display name.
func normalizeInput(in CreateBookingInput) (CreateBookingInput, error) {
	in = trimInput(in)
	if err := validateInput(in); err != nil {
		return in, err
	}
	addr, err := mail.ParseAddress(in.PassengerEmail)
	if err != nil {
		return in, fmt.Errorf("%w: passenger_email is not a valid address", apperrors.ErrInvalidInput)
	}
	in.PassengerEmail = addr.Address
	return in, nil
}

func bareAddress(email string) string {
	email = strings.TrimSpace(email)
	if addr, err := mail.ParseAddress(email); err == nil {
		return addr.Address
	}
	return email
}

func trimInput(in CreateBookingInput) CreateBookingInput {
	in.PassengerName = strings.TrimSpace(in.PassengerName)
	in.PassengerSurname = strings.TrimSpace(in.PassengerSurname)
	in.PassengerEmail = strings.TrimSpace(in.PassengerEmail)
	in.FlightID = strings.TrimSpace(in.FlightID)
	in.SeatNumber = strings.TrimSpace(in.SeatNumber)
	return in
}

func validateInput(in CreateBookingInput) error {
	if in.PassengerName == "" || in.PassengerSurname == "" {
		return fmt.Errorf("%w: passenger name and surname are required", apperrors.ErrInvalidInput)
	}
	if in.FlightID == "" {
		return fmt.Errorf("%w: flight_id is required", apperrors.ErrInvalidInput)
	}
	return nil
}

func bookingResult(err error) string {
	switch {
	case errors.Is(err, apperrors.ErrSeatsExhausted):
		return "exhausted"
	case errors.Is(err, apperrors.ErrFlightNotFound):
		return "not_found"
	default:
		return "error"
	}
}

var _ BookingUseCase = (*BookingService)(nil)
