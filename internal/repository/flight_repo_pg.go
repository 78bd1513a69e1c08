package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/happyflights/flightbooking/internal/domain"
	"github.com/happyflights/flightbooking/pkg/apperrors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const flightColumns = `flight_id, from_city, to_city, departure_time, arrival_time, price, seats_total, seats_available, created_at, updated_at`

type PGFlightRepository struct {
	db *pgxpool.Pool
}

func NewFlightRepository(db *pgxpool.Pool) FlightRepository {
	return &PGFlightRepository{db: db}
}

func scanFlight(row pgx.Row) (*domain.Flight, error) {
	var f domain.Flight
	if err := row.Scan(&f.FlightID, &f.FromCity, &f.ToCity, &f.DepartureTime, &f.ArrivalTime, &f.Price, &f.SeatsTotal, &f.SeatsAvailable, &f.CreatedAt, &f.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrFlightNotFound
		}
		return nil, err
	}
	return &f, nil
}

func collectFlights(rows pgx.Rows) ([]domain.Flight, error) {
	defer rows.Close()

	flights := make([]domain.Flight, 0)
	for rows.Next() {
		f, err := scanFlight(rows)
		if err != nil {
			return nil, err
		}
		flights = append(flights, *f)
	}
	return flights, rows.Err()
}

func (r *PGFlightRepository) List(ctx context.Context, filter domain.FlightFilter) ([]domain.Flight, error) {
	where := []string{}
	args := []any{}
	add := func(cond string, arg any) {
		args = append(args, arg)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if filter.FromCity != "" {
		add("from_city = $%d", filter.FromCity)
	}
	if filter.ToCity != "" {
		add("to_city = $%d", filter.ToCity)
	}
	if filter.DepartureFrom != nil {
		add("departure_time >= $%d", *filter.DepartureFrom)
	}
	if filter.DepartureTo != nil {
		add("departure_time < $%d", *filter.DepartureTo)
	}

	query := `SELECT ` + flightColumns + ` FROM flights`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	if filter.NewestFirst {
		query += ` ORDER BY departure_time DESC`
	} else {
		query += ` ORDER BY departure_time`
	}

	rows, err := conn(ctx, r.db).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return collectFlights(rows)
}

func (r *PGFlightRepository) GetByID(ctx context.Context, id string) (*domain.Flight, error) {
	return scanFlight(conn(ctx, r.db).QueryRow(ctx, `SELECT `+flightColumns+` FROM flights WHERE flight_id=$1`, id))
}

func (r *PGFlightRepository) GetForUpdate(ctx context.Context, id string) (*domain.Flight, error) {
	return scanFlight(conn(ctx, r.db).QueryRow(ctx, `SELECT `+flightColumns+` FROM flights WHERE flight_id=$1 FOR UPDATE`, id))
}

func (r *PGFlightRepository) FindScheduleConflicts(ctx context.Context, candidate domain.Flight, excludeID string) ([]domain.Flight, error) {
	rows, err := conn(ctx, r.db).Query(ctx, `SELECT `+flightColumns+` FROM flights
		WHERE flight_id <> $1
		  AND ((from_city = $2 AND departure_time = $3) OR (to_city = $4 AND arrival_time = $5))
		ORDER BY departure_time`,
		excludeID, candidate.FromCity, candidate.DepartureTime, candidate.ToCity, candidate.ArrivalTime)
	if err != nil {
		return nil, err
	}
	return collectFlights(rows)
}

func (r *PGFlightRepository) Create(ctx context.Context, flight *domain.Flight) error {
	err := conn(ctx, r.db).QueryRow(ctx, `INSERT INTO flights (flight_id, from_city, to_city, departure_time, arrival_time, price, seats_total, seats_available)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at`,
		flight.FlightID, flight.FromCity, flight.ToCity, flight.DepartureTime, flight.ArrivalTime, flight.Price, flight.SeatsTotal, flight.SeatsAvailable).
		Scan(&flight.CreatedAt, &flight.UpdatedAt)
	if err != nil {
		return translateFlightWriteError(err, *flight)
	}
	return nil
}

func (r *PGFlightRepository) Update(ctx context.Context, flight *domain.Flight) error {
	err := conn(ctx, r.db).QueryRow(ctx, `UPDATE flights
		SET from_city=$2, to_city=$3, departure_time=$4, arrival_time=$5, price=$6, seats_total=$7, seats_available=$8, updated_at=now()
		WHERE flight_id=$1
		RETURNING updated_at`,
		flight.FlightID, flight.FromCity, flight.ToCity, flight.DepartureTime, flight.ArrivalTime, flight.Price, flight.SeatsTotal, flight.SeatsAvailable).
		Scan(&flight.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrFlightNotFound
		}
		return translateFlightWriteError(err, *flight)
	}
	return nil
}

func (r *PGFlightRepository) DecrementSeat(ctx context.Context, id string) (*domain.Flight, error) {
	q := conn(ctx, r.db)
	f, err := scanFlight(q.QueryRow(ctx, `UPDATE flights SET seats_available = seats_available - 1, updated_at = now()
		WHERE flight_id=$1 AND seats_available > 0
		RETURNING `+flightColumns, id))
	if errors.Is(err, apperrors.ErrFlightNotFound) {
		var exists bool
		if err := q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM flights WHERE flight_id=$1)`, id).Scan(&exists); err != nil {
			return nil, err
		}
		if exists {
			return nil, apperrors.ErrSeatsExhausted
		}
	}
	return f, err
}

func (r *PGFlightRepository) Delete(ctx context.Context, id string) error {
	res, err := conn(ctx, r.db).Exec(ctx, `DELETE FROM flights WHERE flight_id=$1`, id)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return apperrors.ErrFlightNotFound
	}
	return nil
}

var _ FlightRepository = (*PGFlightRepository)(nil)
