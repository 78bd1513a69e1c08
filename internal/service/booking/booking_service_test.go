package booking

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/happyflights/flightbooking/internal/domain"
	"github.com/happyflights/flightbooking/internal/kafka"
	"github.com/happyflights/flightbooking/internal/repository"
	"github.com/happyflights/flightbooking/internal/service/cancellation"
	"github.com/happyflights/flightbooking/internal/service/conflicts"
	"github.com/happyflights/flightbooking/internal/service/inventory"
	"github.com/happyflights/flightbooking/pkg/apperrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2030, 4, 1, 9, 0, 0, 0, time.UTC)

type MockProducer struct {
	mock.Mock
}

func (m *MockProducer) Publish(ctx context.Context, event kafka.TicketEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

type MockCache struct {
	mock.Mock
}

func (m *MockCache) InvalidateFlights(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func setup(t *testing.T, seats int, opts ...BookingServiceOption) (*BookingService, *repository.MemoryStore) {
	t.Helper()
	store := repository.NewMemoryStore()
	dep := now.Add(72 * time.Hour)
	f := domain.Flight{
		FlightID:       "HF10",
		FromCity:       "Antalya",
		ToCity:         "Istanbul",
		DepartureTime:  dep,
		ArrivalTime:    dep.Add(75 * time.Minute),
		Price:          1250,
		SeatsTotal:     seats,
		SeatsAvailable: seats,
	}
	require.NoError(t, store.Flights().Create(context.Background(), &f))

	mutator := inventory.NewMutator(store, store.Flights(), store.Tickets(), conflicts.NewChecker(store.Flights()))
	opts = append([]BookingServiceOption{WithClock(func() time.Time { return now })}, opts...)
	return NewBookingService(store.Tickets(), store.Flights(), mutator, opts...), store
}

func validInput() CreateBookingInput {
	return CreateBookingInput{
		PassengerName:    "Ada",
		PassengerSurname: "Lovelace",
		PassengerEmail:   "ada@example.com",
		FlightID:         "HF10",
	}
}

func TestBookingService_CreateBooking_Success(t *testing.T) {
	producer := &MockProducer{}
	cache := &MockCache{}
	service, store := setup(t, 2, WithProducer(producer), WithCache(cache))
	ctx := context.Background()

	producer.On("Publish", ctx, mock.MatchedBy(func(e kafka.TicketEvent) bool {
		return e.Type == kafka.EventTicketConfirmed && e.Email == "ada@example.com" && e.FromCity == "Antalya" && e.OccurredAt.Equal(now)
	})).Return(nil).Once()
	cache.On("InvalidateFlights", ctx).Return(nil).Once()

	ticket, err := service.CreateBooking(ctx, validInput())
	require.NoError(t, err)
	assert.NotEmpty(t, ticket.TicketID)
	assert.Equal(t, domain.TicketStatusConfirmed, ticket.Status)
	require.NotNil(t, ticket.Snapshot)
	assert.Equal(t, 1250.0, ticket.Snapshot.Price)

	flight, err := store.Flights().GetByID(ctx, "HF10")
	require.NoError(t, err)
	assert.Equal(t, 1, flight.SeatsAvailable)

	producer.AssertExpectations(t)
	cache.AssertExpectations(t)
}

func TestBookingService_CreateBooking_NotificationFailureKeepsBooking(t *testing.T) {
	producer := &MockProducer{}
	service, store := setup(t, 1, WithProducer(producer))
	ctx := context.Background()
	producer.On("Publish", ctx, mock.Anything).Return(errors.New("kafka: leader not available"))

	ticket, err := service.CreateBooking(ctx, validInput())
	require.NoError(t, err)

	stored, err := store.Tickets().GetByID(ctx, ticket.TicketID)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusConfirmed, stored.Status)
}

func TestBookingService_CreateBooking_ValidationErrors(t *testing.T) {
	service, _ := setup(t, 1)

	for name, mutate := range map[string]func(*CreateBookingInput){
		"missing name":    func(in *CreateBookingInput) { in.PassengerName = "" },
		"missing surname": func(in *CreateBookingInput) { in.PassengerSurname = "  " },
		"missing flight":  func(in *CreateBookingInput) { in.FlightID = "" },
		"bad email":       func(in *CreateBookingInput) { in.PassengerEmail = "not-an-email" },
	} {
		t.Run(name, func(t *testing.T) {
			in := validInput()
			mutate(&in)
			_, err := service.CreateBooking(context.Background(), in)
			assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
		})
	}
}

func TestBookingService_CreateBooking_StoresBareAddress(t *testing.T) {
	service, _ := setup(t, 2)
	ctx := context.Background()

	in := validInput()
	in.PassengerEmail = "Ada Lovelace <ada@example.com>"
	ticket, err := service.CreateBooking(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", ticket.PassengerEmail)

	views, err := service.ListByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, ticket.TicketID, views[0].Ticket.TicketID)

	views, err = service.ListByEmail(ctx, "Ada <ada@example.com>")
	require.NoError(t, err)
	assert.Len(t, views, 1)
}

func TestBookingService_CreateBooking_Failures(t *testing.T) {
	producer := &MockProducer{}
	service, _ := setup(t, 1, WithProducer(producer))
	ctx := context.Background()
	producer.On("Publish", ctx, mock.Anything).Return(nil)

	in := validInput()
	in.FlightID = "NOPE"
	_, err := service.CreateBooking(ctx, in)
	assert.ErrorIs(t, err, apperrors.ErrFlightNotFound)

	_, err = service.CreateBooking(ctx, validInput())
	require.NoError(t, err)

	_, err = service.CreateBooking(ctx, validInput())
	assert.ErrorIs(t, err, apperrors.ErrSeatsExhausted)
	producer.AssertNumberOfCalls(t, "Publish", 1)
}

func TestBookingService_CreateBooking_Concurrent(t *testing.T) {
	const seats = 25
	service, store := setup(t, seats)
	ctx := context.Background()

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		failures  int
	)
	for i := 0; i < seats+5; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			in := validInput()
			in.PassengerEmail = fmt.Sprintf("p%d@example.com", n)
			_, err := service.CreateBooking(ctx, in)

			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				successes++
			} else if errors.Is(err, apperrors.ErrSeatsExhausted) {
				failures++
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, seats, successes)
	assert.Equal(t, 5, failures)
	flight, err := store.Flights().GetByID(ctx, "HF10")
	require.NoError(t, err)
	assert.Equal(t, 0, flight.SeatsAvailable)
}

func TestBookingService_Views(t *testing.T) {
	service, store := setup(t, 5)
	ctx := context.Background()

	first, err := service.CreateBooking(ctx, validInput())
	require.NoError(t, err)
	second, err := service.CreateBooking(ctx, validInput())
	require.NoError(t, err)
	other := validInput()
	other.PassengerEmail = "grace@example.com"
	_, err = service.CreateBooking(ctx, other)
	require.NoError(t, err)

	views, err := service.ListByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, second.TicketID, views[0].Ticket.TicketID)
	assert.Equal(t, first.TicketID, views[1].Ticket.TicketID)
	require.NotNil(t, views[0].Flight)
	assert.Equal(t, 2, views[0].Flight.SeatsAvailable)

	all, err := service.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	_, err = service.GetTicket(ctx, "missing")
	assert.ErrorIs(t, err, apperrors.ErrTicketNotFound)

	// After a forced cancellation the ticket stays displayable from its snapshot.
	o := cancellation.NewOrchestrator(store, store.Flights(), store.Tickets()).WithClock(func() time.Time { return now })
	_, err = o.Delete(ctx, cancellation.Request{FlightID: "HF10", Force: true})
	require.NoError(t, err)

	view, err := service.GetTicket(ctx, first.TicketID)
	require.NoError(t, err)
	assert.Nil(t, view.Flight)
	assert.Equal(t, domain.TicketStatusCancelled, view.Ticket.Status)
	details := view.Details()
	require.NotNil(t, details)
	assert.Equal(t, "Antalya", details.FromCity)
	assert.Equal(t, "HF10", details.FlightID)
	assert.Equal(t, 1250.0, details.Price)
}

func TestTicketView_Details(t *testing.T) {
	live := &domain.Flight{FlightID: "L1", FromCity: "Live"}
	assert.Same(t, live, TicketView{Flight: live}.Details())
	assert.Nil(t, TicketView{Ticket: domain.Ticket{FlightID: "X"}}.Details())
	assert.Nil(t, TicketView{Ticket: domain.Ticket{Snapshot: &domain.FlightSnapshot{From: "A"}}}.Details())
}

func TestBookingService_BackfillSnapshots(t *testing.T) {
	service, store := setup(t, 5)
	ctx := context.Background()

	for _, tk := range []domain.Ticket{
		{TicketID: "legacy-1", FlightID: "HF10", PassengerEmail: "a@example.com", Status: domain.TicketStatusConfirmed},
		{TicketID: "legacy-2", FlightID: "GONE", PassengerEmail: "b@example.com", Status: domain.TicketStatusConfirmed},
		{TicketID: "current", FlightID: "HF10", PassengerEmail: "c@example.com", Status: domain.TicketStatusConfirmed,
			Snapshot: &domain.FlightSnapshot{From: "Antalya", To: "Istanbul"}},
	} {
		tk := tk
		require.NoError(t, store.Tickets().Create(ctx, &tk))
	}

	report, err := service.BackfillSnapshots(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Total)
	assert.Equal(t, 1, report.Updated)
	assert.Equal(t, 1, report.Failed)
	require.Len(t, report.Results, 2)
	assert.Equal(t, BackfillResult{TicketID: "legacy-1", FlightID: "HF10", Status: BackfillUpdated, From: "Antalya", To: "Istanbul"}, report.Results[0])
	assert.Equal(t, BackfillFlightNotFound, report.Results[1].Status)

	updated, err := store.Tickets().GetByID(ctx, "legacy-1")
	require.NoError(t, err)
	require.NotNil(t, updated.Snapshot)
	assert.Equal(t, "Istanbul", updated.Snapshot.To)

	report, err = service.BackfillSnapshots(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Total, "only the ticket of the missing flight is left")
}
