package repository

import (
	"context"
	"time"

	"github.com/happyflights/flightbooking/internal/domain"
)

// Transactor runs fn inside a single transaction. Repository calls made with
// the ctx passed to fn join that transaction.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type FlightRepository interface {
	List(ctx context.Context, filter domain.FlightFilter) ([]domain.Flight, error)
	GetByID(ctx context.Context, id string) (*domain.Flight, error)
	// GetForUpdate reads the flight and, inside a transaction, locks it until commit.
	GetForUpdate(ctx context.Context, id string) (*domain.Flight, error)
	// FindScheduleConflicts returns flights other than excludeID that share the
	// candidate's departure city and time or its arrival city and time.
	FindScheduleConflicts(ctx context.Context, candidate domain.Flight, excludeID string) ([]domain.Flight, error)
	Create(ctx context.Context, flight *domain.Flight) error
	Update(ctx context.Context, flight *domain.Flight) error
	// DecrementSeat takes one seat only while seats_available > 0.
	DecrementSeat(ctx context.Context, id string) (*domain.Flight, error)
	Delete(ctx context.Context, id string) error
}

type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	ListByEmail(ctx context.Context, email string) ([]domain.Ticket, error)
	ListAll(ctx context.Context) ([]domain.Ticket, error)
	ListWithoutSnapshot(ctx context.Context) ([]domain.Ticket, error)
	// CancelConfirmedByFlight cancels every confirmed ticket of the flight,
	// snapshotting the flight onto each, and returns the cancelled tickets.
	CancelConfirmedByFlight(ctx context.Context, flight *domain.Flight, reason string, at time.Time) ([]domain.Ticket, error)
	// RefreshSnapshots rewrites the snapshot of the flight's confirmed tickets.
	RefreshSnapshots(ctx context.Context, flight *domain.Flight) (int, error)
	SetSnapshot(ctx context.Context, ticketID string, snapshot domain.FlightSnapshot) (bool, error)
}

type CityRepository interface {
	// List returns every city ordered by name.
	List(ctx context.Context) ([]domain.City, error)
	// Exists reports whether a city has the given id or the given name.
	Exists(ctx context.Context, id, name string) (bool, error)
	Create(ctx context.Context, city *domain.City) error
}
