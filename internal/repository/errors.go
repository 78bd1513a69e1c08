package repository

import (
	"errors"

	"github.com/happyflights/flightbooking/internal/domain"
	"github.com/happyflights/flightbooking/pkg/apperrors"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	uniqueViolation = "23505"
	checkViolation  = "23514"
)

// translateFlightWriteError maps constraint violations on the flights table
// to schedule conflicts.
func translateFlightWriteError(err error, candidate domain.Flight) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	if pgErr.Code == checkViolation && pgErr.ConstraintName == "flights_time_check" {
		return &apperrors.ConflictError{Reason: apperrors.ReasonInvalidTimeRange}
	}
	if pgErr.Code != uniqueViolation {
		return err
	}
	switch pgErr.ConstraintName {
	case "flights_pkey":
		return &apperrors.ConflictError{Reason: apperrors.ReasonDuplicateID}
	case "flights_departure_uniq":
		return &apperrors.ConflictError{Reason: apperrors.ReasonDepartureConflict, City: candidate.FromCity, At: candidate.DepartureTime}
	case "flights_arrival_uniq":
		return &apperrors.ConflictError{Reason: apperrors.ReasonArrivalConflict, City: candidate.ToCity, At: candidate.ArrivalTime}
	default:
		return err
	}
}

// translateCityWriteError maps a duplicate city id or name to ReasonCityExists.
func translateCityWriteError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		switch pgErr.ConstraintName {
		case "cities_pkey", "cities_name_uniq":
			return &apperrors.ConflictError{Reason: apperrors.ReasonCityExists}
		}
	}
	return err
}
