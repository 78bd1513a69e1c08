package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/happyflights/flightbooking/internal/domain"
	"github.com/happyflights/flightbooking/pkg/apperrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type storeUnderTest struct {
	tx      Transactor
	flights FlightRepository
	tickets TicketRepository
	cities  CityRepository
}

var base = time.Date(2030, 5, 10, 9, 0, 0, 0, time.UTC)

func testFlight(id, from, to string, dep time.Time, seats int) *domain.Flight {
	return &domain.Flight{
		FlightID:       id,
		FromCity:       from,
		ToCity:         to,
		DepartureTime:  dep,
		ArrivalTime:    dep.Add(90 * time.Minute),
		Price:          999.5,
		SeatsTotal:     seats,
		SeatsAvailable: seats,
	}
}

func testTicket(id, flightID, email string) *domain.Ticket {
	return &domain.Ticket{
		TicketID:         id,
		PassengerName:    "Ada",
		PassengerSurname: "Lovelace",
		PassengerEmail:   email,
		FlightID:         flightID,
		SeatNumber:       "12A",
		Status:           domain.TicketStatusConfirmed,
	}
}

func runRepositoryContract(t *testing.T, newStore func(t *testing.T) storeUnderTest) {
	ctx := context.Background()

	t.Run("create and get flight", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.flights.Create(ctx, testFlight("HF1", "Istanbul", "Ankara", base, 10)))

		got, err := s.flights.GetByID(ctx, "HF1")
		require.NoError(t, err)
		assert.Equal(t, "Istanbul", got.FromCity)
		assert.Equal(t, 10, got.SeatsAvailable)
		assert.True(t, got.DepartureTime.Equal(base))

		_, err = s.flights.GetByID(ctx, "missing")
		assert.ErrorIs(t, err, apperrors.ErrFlightNotFound)
	})

	t.Run("duplicate flight id", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.flights.Create(ctx, testFlight("HF1", "Istanbul", "Ankara", base, 10)))
		err := s.flights.Create(ctx, testFlight("HF1", "Izmir", "Antalya", base.Add(time.Hour), 10))

		var conflict *apperrors.ConflictError
		require.True(t, errors.As(err, &conflict))
		assert.Equal(t, apperrors.ReasonDuplicateID, conflict.Reason)
	})

	t.Run("list filters and order", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.flights.Create(ctx, testFlight("A", "Istanbul", "Ankara", base, 10)))
		require.NoError(t, s.flights.Create(ctx, testFlight("B", "Istanbul", "Izmir", base.Add(24*time.Hour), 10)))
		require.NoError(t, s.flights.Create(ctx, testFlight("C", "Izmir", "Ankara", base.Add(2*time.Hour), 10)))

		all, err := s.flights.List(ctx, domain.FlightFilter{})
		require.NoError(t, err)
		assert.Equal(t, []string{"A", "C", "B"}, flightIDs(all))

		newest, err := s.flights.List(ctx, domain.FlightFilter{NewestFirst: true})
		require.NoError(t, err)
		assert.Equal(t, []string{"B", "C", "A"}, flightIDs(newest))

		from, to := base, base.Add(24*time.Hour)
		day, err := s.flights.List(ctx, domain.FlightFilter{FromCity: "Istanbul", DepartureFrom: &from, DepartureTo: &to})
		require.NoError(t, err)
		assert.Equal(t, []string{"A"}, flightIDs(day))
	})

	t.Run("schedule conflicts exclude the candidate", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.flights.Create(ctx, testFlight("A", "Istanbul", "Ankara", base, 10)))

		candidate := *testFlight("B", "Istanbul", "Izmir", base, 10)
		found, err := s.flights.FindScheduleConflicts(ctx, candidate, "B")
		require.NoError(t, err)
		assert.Equal(t, []string{"A"}, flightIDs(found))

		found, err = s.flights.FindScheduleConflicts(ctx, *testFlight("A", "Istanbul", "Ankara", base, 10), "A")
		require.NoError(t, err)
		assert.Empty(t, found)
	})

	t.Run("decrement stops at zero", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.flights.Create(ctx, testFlight("A", "Istanbul", "Ankara", base, 2)))

		f, err := s.flights.DecrementSeat(ctx, "A")
		require.NoError(t, err)
		assert.Equal(t, 1, f.SeatsAvailable)
		_, err = s.flights.DecrementSeat(ctx, "A")
		require.NoError(t, err)

		_, err = s.flights.DecrementSeat(ctx, "A")
		assert.ErrorIs(t, err, apperrors.ErrSeatsExhausted)
		_, err = s.flights.DecrementSeat(ctx, "missing")
		assert.ErrorIs(t, err, apperrors.ErrFlightNotFound)
	})

	t.Run("transaction rolls back on error", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.flights.Create(ctx, testFlight("A", "Istanbul", "Ankara", base, 5)))

		boom := errors.New("boom")
		err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
			if _, err := s.flights.DecrementSeat(ctx, "A"); err != nil {
				return err
			}
			if err := s.tickets.Create(ctx, testTicket("t1", "A", "a@example.com")); err != nil {
				return err
			}
			return boom
		})
		assert.ErrorIs(t, err, boom)

		f, err := s.flights.GetByID(ctx, "A")
		require.NoError(t, err)
		assert.Equal(t, 5, f.SeatsAvailable)
		_, err = s.tickets.GetByID(ctx, "t1")
		assert.ErrorIs(t, err, apperrors.ErrTicketNotFound)
	})

	t.Run("cities sorted by name", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.cities.Create(ctx, &domain.City{CityID: "IST", CityName: "Istanbul"}))
		require.NoError(t, s.cities.Create(ctx, &domain.City{CityID: "ANK", CityName: "Ankara"}))

		cities, err := s.cities.List(ctx)
		require.NoError(t, err)
		require.Len(t, cities, 2)
		assert.Equal(t, "Ankara", cities[0].CityName)
		assert.Equal(t, "Istanbul", cities[1].CityName)
		assert.False(t, cities[0].CreatedAt.IsZero())
	})

	t.Run("duplicate city id or name", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.cities.Create(ctx, &domain.City{CityID: "IST", CityName: "Istanbul"}))

		for _, exists := range [][2]string{{"IST", "Other"}, {"OTH", "Istanbul"}} {
			ok, err := s.cities.Exists(ctx, exists[0], exists[1])
			require.NoError(t, err)
			assert.True(t, ok)

			err = s.cities.Create(ctx, &domain.City{CityID: exists[0], CityName: exists[1]})
			var conflict *apperrors.ConflictError
			require.ErrorAs(t, err, &conflict)
			assert.Equal(t, apperrors.ReasonCityExists, conflict.Reason)
		}

		ok, err := s.cities.Exists(ctx, "ANK", "Ankara")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("cancel confirmed tickets snapshots the flight", func(t *testing.T) {
		s := newStore(t)
		flight := testFlight("A", "Istanbul", "Ankara", base, 5)
		require.NoError(t, s.flights.Create(ctx, flight))
		require.NoError(t, s.tickets.Create(ctx, testTicket("t1", "A", "a@example.com")))
		require.NoError(t, s.tickets.Create(ctx, testTicket("t2", "A", "b@example.com")))
		require.NoError(t, s.tickets.Create(ctx, testTicket("t3", "other", "a@example.com")))

		at := base.Add(-time.Hour)
		cancelled, err := s.tickets.CancelConfirmedByFlight(ctx, flight, domain.CancellationReasonAirline, at)
		require.NoError(t, err)
		assert.Len(t, cancelled, 2)

		got, err := s.tickets.GetByID(ctx, "t1")
		require.NoError(t, err)
		assert.Equal(t, domain.TicketStatusCancelled, got.Status)
		assert.Equal(t, domain.CancellationReasonAirline, got.CancellationReason)
		require.NotNil(t, got.CancelledAt)
		assert.True(t, got.CancelledAt.Equal(at))
		require.NotNil(t, got.Snapshot)
		assert.Equal(t, "Ankara", got.Snapshot.To)
		assert.Equal(t, 999.5, got.Snapshot.Price)

		other, err := s.tickets.GetByID(ctx, "t3")
		require.NoError(t, err)
		assert.Equal(t, domain.TicketStatusConfirmed, other.Status)

		again, err := s.tickets.CancelConfirmedByFlight(ctx, flight, domain.CancellationReasonAirline, at)
		require.NoError(t, err)
		assert.Empty(t, again)
	})

	t.Run("tickets by email and snapshot backfill", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.tickets.Create(ctx, testTicket("t1", "A", "a@example.com")))
		require.NoError(t, s.tickets.Create(ctx, testTicket("t2", "A", "b@example.com")))

		mine, err := s.tickets.ListByEmail(ctx, "a@example.com")
		require.NoError(t, err)
		assert.Len(t, mine, 1)

		missing, err := s.tickets.ListWithoutSnapshot(ctx)
		require.NoError(t, err)
		assert.Len(t, missing, 2)

		ok, err := s.tickets.SetSnapshot(ctx, "t1", domain.FlightSnapshot{From: "Istanbul", To: "Ankara", Price: 10})
		require.NoError(t, err)
		assert.True(t, ok)

		missing, err = s.tickets.ListWithoutSnapshot(ctx)
		require.NoError(t, err)
		assert.Len(t, missing, 1)
		assert.Equal(t, "t2", missing[0].TicketID)
	})
}

func flightIDs(flights []domain.Flight) []string {
	ids := make([]string, 0, len(flights))
	for _, f := range flights {
		ids = append(ids, f.FlightID)
	}
	return ids
}
