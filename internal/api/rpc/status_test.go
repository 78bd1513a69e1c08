package rpc

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/happyflights/flightbooking/pkg/apperrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

func TestStatus(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		code    codes.Code
		message string
	}{
		{"flight not found", apperrors.ErrFlightNotFound, codes.NotFound, "Flight not found"},
		{"ticket not found", fmt.Errorf("get: %w", apperrors.ErrTicketNotFound), codes.NotFound, "Ticket not found"},
		{"seats exhausted", apperrors.ErrSeatsExhausted, codes.Aborted, "No available seats for this flight"},
		{"invalid resize", apperrors.ErrInvalidResize, codes.Aborted, "Cannot reduce total seats below the number of booked seats"},
		{"duplicate id", &apperrors.ConflictError{Reason: apperrors.ReasonDuplicateID}, codes.AlreadyExists, "Flight ID already exists"},
		{"city exists", &apperrors.ConflictError{Reason: apperrors.ReasonCityExists}, codes.AlreadyExists, "City already exists"},
		{"time range", &apperrors.ConflictError{Reason: apperrors.ReasonInvalidTimeRange}, codes.Aborted, "Arrival time must be after departure time"},
		{"invalid input", fmt.Errorf("%w: flight_id is required", apperrors.ErrInvalidInput), codes.InvalidArgument, "invalid input: flight_id is required"},
		{"unauthorized", apperrors.ErrUnauthorized, codes.Unauthenticated, "Token is not valid"},
		{"forbidden", apperrors.ErrForbidden, codes.PermissionDenied, "Not authorized as admin"},
		{"unexpected", errors.New("connection reset"), codes.Internal, "Server error"},
		{"already a status", status.Error(codes.InvalidArgument, "bad json"), codes.InvalidArgument, "bad json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := status.Convert(Status(tt.err, "Test"))
			assert.Equal(t, tt.code, st.Code())
			assert.Equal(t, tt.message, st.Message())
		})
	}

	assert.NoError(t, Status(nil, "Test"))
}

func TestStatus_Details(t *testing.T) {
	st := status.Convert(Status(&apperrors.ForceRequiredError{BookedSeats: 4}, "DeleteFlight"))
	require.Equal(t, codes.Aborted, st.Code())
	require.Len(t, st.Details(), 1)
	detail, ok := st.Details()[0].(*structpb.Struct)
	require.True(t, ok)
	assert.Equal(t, float64(4), detail.Fields["bookedSeats"].GetNumberValue())
	assert.True(t, detail.Fields["requiresForce"].GetBoolValue())

	departure := time.Date(2020, 1, 1, 8, 0, 0, 0, time.UTC)
	st = status.Convert(Status(&apperrors.PastFlightError{Departure: departure, Now: departure.Add(time.Hour)}, "DeleteFlight"))
	require.Equal(t, codes.Aborted, st.Code())
	require.Len(t, st.Details(), 1)
	detail = st.Details()[0].(*structpb.Struct)
	assert.Equal(t, "2020-01-01T08:00:00Z", detail.Fields["flightDeparture"].GetStringValue())
	assert.Equal(t, "2020-01-01T09:00:00Z", detail.Fields["currentTime"].GetStringValue())
}
