// Package conflicts rejects flight schedules that collide with existing flights.
//
// Only exact timestamp matches are collisions: two flights leaving the same
// city one minute apart are both accepted.
package conflicts

import (
	"context"
	"fmt"

	"github.com/happyflights/flightbooking/internal/domain"
	"github.com/happyflights/flightbooking/pkg/apperrors"
)

type ScheduleFinder interface {
	FindScheduleConflicts(ctx context.Context, candidate domain.Flight, excludeID string) ([]domain.Flight, error)
}

type Checker struct {
	flights ScheduleFinder
}

func NewChecker(flights ScheduleFinder) *Checker {
	return &Checker{flights: flights}
}

// Check validates candidate against persisted flights other than excludeFlightID.
func (c *Checker) Check(ctx context.Context, candidate domain.Flight, excludeFlightID string) error {
	if err := checkTimeRange(candidate); err != nil {
		return err
	}
	existing, err := c.flights.FindScheduleConflicts(ctx, candidate, excludeFlightID)
	if err != nil {
		return fmt.Errorf("find schedule conflicts: %w", err)
	}
	return Evaluate(candidate, existing, excludeFlightID)
}

// Evaluate applies the rules in order: time range, departure collision, arrival collision.
func Evaluate(candidate domain.Flight, existing []domain.Flight, excludeFlightID string) error {
	if err := checkTimeRange(candidate); err != nil {
		return err
	}
	for _, f := range existing {
		if f.FlightID != excludeFlightID && f.FromCity == candidate.FromCity && f.DepartureTime.Equal(candidate.DepartureTime) {
			return &apperrors.ConflictError{Reason: apperrors.ReasonDepartureConflict, City: candidate.FromCity, At: candidate.DepartureTime}
		}
	}
	for _, f := range existing {
		if f.FlightID != excludeFlightID && f.ToCity == candidate.ToCity && f.ArrivalTime.Equal(candidate.ArrivalTime) {
			return &apperrors.ConflictError{Reason: apperrors.ReasonArrivalConflict, City: candidate.ToCity, At: candidate.ArrivalTime}
		}
	}
	return nil
}

func checkTimeRange(candidate domain.Flight) error {
	if !candidate.DepartureTime.Before(candidate.ArrivalTime) {
		return &apperrors.ConflictError{Reason: apperrors.ReasonInvalidTimeRange}
	}
	return nil
}
