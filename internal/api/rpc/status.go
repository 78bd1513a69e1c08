package rpc

import (
	"errors"
	"time"

	"github.com/happyflights/flightbooking/pkg/apperrors"
	"github.com/happyflights/flightbooking/pkg/logger"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

const serverErrorMessage = "Server error"

// Status converts a service error into a gRPC status error. Confirmation and
// past-flight errors carry their fields as a Struct detail.
func Status(err error, method string) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	var (
		force    *apperrors.ForceRequiredError
		past     *apperrors.PastFlightError
		conflict *apperrors.ConflictError
	)
	switch {
	case errors.As(err, &force):
		return withDetails(codes.Aborted, force.Error(), map[string]any{
			"bookedSeats":   force.BookedSeats,
			"requiresForce": true,
		})
	case errors.As(err, &past):
		return withDetails(codes.Aborted, past.Error(), map[string]any{
			"flightDeparture": past.Departure.UTC().Format(time.RFC3339),
			"currentTime":     past.Now.UTC().Format(time.RFC3339),
		})
	case errors.Is(err, apperrors.ErrFlightNotFound):
		return status.Error(codes.NotFound, "Flight not found")
	case errors.Is(err, apperrors.ErrTicketNotFound):
		return status.Error(codes.NotFound, "Ticket not found")
	case errors.Is(err, apperrors.ErrSeatsExhausted):
		return status.Error(codes.Aborted, "No available seats for this flight")
	case errors.Is(err, apperrors.ErrInvalidResize):
		return status.Error(codes.Aborted, "Cannot reduce total seats below the number of booked seats")
	case errors.As(err, &conflict):
		if conflict.Reason == apperrors.ReasonDuplicateID || conflict.Reason == apperrors.ReasonCityExists {
			return status.Error(codes.AlreadyExists, conflict.Error())
		}
		return status.Error(codes.Aborted, conflict.Error())
	case errors.Is(err, apperrors.ErrConflict):
		return status.Error(codes.Aborted, err.Error())
	case errors.Is(err, apperrors.ErrInvalidInput):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, apperrors.ErrUnauthorized):
		return status.Error(codes.Unauthenticated, "Token is not valid")
	case errors.Is(err, apperrors.ErrForbidden):
		return status.Error(codes.PermissionDenied, "Not authorized as admin")
	default:
		logger.WithComponent("grpc").Error("Unexpected error", zap.String("method", method), zap.Error(err))
		return status.Error(codes.Internal, serverErrorMessage)
	}
}

func withDetails(code codes.Code, message string, fields map[string]any) error {
	st := status.New(code, message)
	detail, err := structpb.NewStruct(fields)
	if err != nil {
		return st.Err()
	}
	withDetail, err := st.WithDetails(detail)
	if err != nil {
		return st.Err()
	}
	return withDetail.Err()
}
