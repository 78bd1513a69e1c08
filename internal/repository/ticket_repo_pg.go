package repository

import (
	"context"
	"errors"
	"time"

	"github.com/happyflights/flightbooking/internal/domain"
	"github.com/happyflights/flightbooking/pkg/apperrors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const ticketColumns = `ticket_id, passenger_name, passenger_surname, passenger_email, flight_id,
	flight_from, flight_to, flight_departure_time, flight_arrival_time, flight_price,
	seat_number, status, cancellation_reason, cancelled_at, created_at`

type PGTicketRepository struct {
	db *pgxpool.Pool
}

func NewTicketRepository(db *pgxpool.Pool) TicketRepository {
	return &PGTicketRepository{db: db}
}

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var (
		t        domain.Ticket
		from, to *string
		dep, arr *time.Time
		price    *float64
	)
	if err := row.Scan(&t.TicketID, &t.PassengerName, &t.PassengerSurname, &t.PassengerEmail, &t.FlightID,
		&from, &to, &dep, &arr, &price,
		&t.SeatNumber, &t.Status, &t.CancellationReason, &t.CancelledAt, &t.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrTicketNotFound
		}
		return nil, err
	}
	if from != nil && *from != "" && to != nil {
		snap := domain.FlightSnapshot{From: *from, To: *to}
		if dep != nil {
			snap.DepartureTime = *dep
		}
		if arr != nil {
			snap.ArrivalTime = *arr
		}
		if price != nil {
			snap.Price = *price
		}
		t.Snapshot = &snap
	}
	return &t, nil
}

func collectTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	defer rows.Close()

	tickets := make([]domain.Ticket, 0)
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, *t)
	}
	return tickets, rows.Err()
}

func snapshotArgs(s *domain.FlightSnapshot) (from, to *string, dep, arr *time.Time, price *float64) {
	if s == nil {
		return nil, nil, nil, nil, nil
	}
	return &s.From, &s.To, &s.DepartureTime, &s.ArrivalTime, &s.Price
}

func (r *PGTicketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	from, to, dep, arr, price := snapshotArgs(ticket.Snapshot)
	return conn(ctx, r.db).QueryRow(ctx, `INSERT INTO tickets (ticket_id, passenger_name, passenger_surname, passenger_email, flight_id,
			flight_from, flight_to, flight_departure_time, flight_arrival_time, flight_price, seat_number, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at`,
		ticket.TicketID, ticket.PassengerName, ticket.PassengerSurname, ticket.PassengerEmail, ticket.FlightID,
		from, to, dep, arr, price, ticket.SeatNumber, ticket.Status).
		Scan(&ticket.CreatedAt)
}

func (r *PGTicketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	return scanTicket(conn(ctx, r.db).QueryRow(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE ticket_id=$1`, id))
}

func (r *PGTicketRepository) ListByEmail(ctx context.Context, email string) ([]domain.Ticket, error) {
	rows, err := conn(ctx, r.db).Query(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE passenger_email=$1 ORDER BY created_at DESC`, email)
	if err != nil {
		return nil, err
	}
	return collectTickets(rows)
}

func (r *PGTicketRepository) ListAll(ctx context.Context) ([]domain.Ticket, error) {
	rows, err := conn(ctx, r.db).Query(ctx, `SELECT `+ticketColumns+` FROM tickets ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	return collectTickets(rows)
}

func (r *PGTicketRepository) ListWithoutSnapshot(ctx context.Context) ([]domain.Ticket, error) {
	rows, err := conn(ctx, r.db).Query(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE flight_from IS NULL OR flight_from = '' ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	return collectTickets(rows)
}

func (r *PGTicketRepository) CancelConfirmedByFlight(ctx context.Context, flight *domain.Flight, reason string, at time.Time) ([]domain.Ticket, error) {
	rows, err := conn(ctx, r.db).Query(ctx, `UPDATE tickets
		SET status=$2, cancellation_reason=$3, cancelled_at=$4,
			flight_from=$5, flight_to=$6, flight_departure_time=$7, flight_arrival_time=$8, flight_price=$9
		WHERE flight_id=$1 AND status=$10
		RETURNING `+ticketColumns,
		flight.FlightID, domain.TicketStatusCancelled, reason, at,
		flight.FromCity, flight.ToCity, flight.DepartureTime, flight.ArrivalTime, flight.Price,
		domain.TicketStatusConfirmed)
	if err != nil {
		return nil, err
	}
	return collectTickets(rows)
}

func (r *PGTicketRepository) RefreshSnapshots(ctx context.Context, flight *domain.Flight) (int, error) {
	res, err := conn(ctx, r.db).Exec(ctx, `UPDATE tickets
		SET flight_from=$2, flight_to=$3, flight_departure_time=$4, flight_arrival_time=$5, flight_price=$6
		WHERE flight_id=$1 AND status=$7`,
		flight.FlightID, flight.FromCity, flight.ToCity, flight.DepartureTime, flight.ArrivalTime, flight.Price,
		domain.TicketStatusConfirmed)
	if err != nil {
		return 0, err
	}
	return int(res.RowsAffected()), nil
}

func (r *PGTicketRepository) SetSnapshot(ctx context.Context, ticketID string, s domain.FlightSnapshot) (bool, error) {
	res, err := conn(ctx, r.db).Exec(ctx, `UPDATE tickets
		SET flight_from=$2, flight_to=$3, flight_departure_time=$4, flight_arrival_time=$5, flight_price=$6
		WHERE ticket_id=$1`,
		ticketID, s.From, s.To, s.DepartureTime, s.ArrivalTime, s.Price)
	if err != nil {
		return false, err
	}
	return res.RowsAffected() > 0, nil
}

var _ TicketRepository = (*PGTicketRepository)(nil)
