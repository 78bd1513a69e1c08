package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/happyflights/flightbooking/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatch(t *testing.T) {
	event := TicketEvent{
		Type:          EventFlightCancelled,
		TicketID:      "t-1",
		FlightID:      "HF100",
		Email:         "ada@example.com",
		FromCity:      "Paris",
		ToCity:        "Rome",
		DepartureTime: time.Date(2030, 5, 1, 9, 30, 0, 0, time.UTC),
		Reason:        "Flight cancelled by airline",
	}
	data, err := json.Marshal(event)
	require.NoError(t, err)

	var got TicketEvent
	err = Dispatch(context.Background(), data, func(_ context.Context, e TicketEvent) error {
		got = e
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, event, got)
}

func TestDispatch_Errors(t *testing.T) {
	called := false
	err := Dispatch(context.Background(), []byte("{not json"), func(context.Context, TicketEvent) error {
		called = true
		return nil
	})
	assert.Error(t, err)
	assert.False(t, called)

	boom := errors.New("smtp down")
	err = Dispatch(context.Background(), []byte(`{"type":"ticket_confirmed"}`), func(context.Context, TicketEvent) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
}

func TestNewTicketEvent(t *testing.T) {
	at := time.Date(2030, 5, 1, 7, 0, 0, 0, time.UTC)
	ticket := domain.Ticket{
		TicketID:           "t-9",
		FlightID:           "HF9",
		PassengerName:      "Alan",
		PassengerSurname:   "Turing",
		PassengerEmail:     "alan@example.com",
		CancellationReason: domain.CancellationReasonAirline,
		Snapshot:           &domain.FlightSnapshot{From: "Leeds", To: "York", Price: 42},
	}

	event := NewTicketEvent(EventFlightCancelled, ticket, at)
	assert.Equal(t, EventFlightCancelled, event.Type)
	assert.Equal(t, "alan@example.com", event.Email)
	assert.Equal(t, "Leeds", event.FromCity)
	assert.Equal(t, 42.0, event.Price)
	assert.Equal(t, domain.CancellationReasonAirline, event.Reason)
	assert.Equal(t, at, event.OccurredAt)

	ticket.Snapshot = nil
	assert.Empty(t, NewTicketEvent(EventTicketConfirmed, ticket, at).FromCity)
}
