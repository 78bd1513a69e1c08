package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/happyflights/flightbooking/pkg/apperrors"
	"github.com/happyflights/flightbooking/pkg/logger"
	"go.uber.org/zap"
)

const serverErrorMessage = "Server error"

type errorResponse struct {
	Message string `json:"message"`
}

type forceRequiredResponse struct {
	Message       string `json:"message"`
	BookedSeats   int    `json:"bookedSeats"`
	RequiresForce bool   `json:"requiresForce"`
}

type pastFlightResponse struct {
	Message         string    `json:"message"`
	FlightDeparture time.Time `json:"flightDeparture"`
	CurrentTime     time.Time `json:"currentTime"`
}

// handleError maps service errors to status codes. Unexpected errors are
// logged and answered with a generic message.
func handleError(c *gin.Context, err error, operation string) {
	log := logger.WithComponent("handler").With(zap.String("operation", operation), zap.Error(err))

	var (
		force *apperrors.ForceRequiredError
		past  *apperrors.PastFlightError
	)
	switch {
	case errors.As(err, &force):
		log.Info("force confirmation required", zap.Int("booked_seats", force.BookedSeats))
		c.JSON(http.StatusConflict, forceRequiredResponse{Message: force.Error(), BookedSeats: force.BookedSeats, RequiresForce: true})
	case errors.As(err, &past):
		log.Info("past flight is immutable")
		c.JSON(http.StatusConflict, pastFlightResponse{Message: past.Error(), FlightDeparture: past.Departure, CurrentTime: past.Now})
	case errors.Is(err, apperrors.ErrFlightNotFound):
		log.Warn("Flight not found")
		c.JSON(http.StatusNotFound, errorResponse{Message: "Flight not found"})
	case errors.Is(err, apperrors.ErrTicketNotFound):
		log.Warn("Ticket not found")
		c.JSON(http.StatusNotFound, errorResponse{Message: "Ticket not found"})
	case errors.Is(err, apperrors.ErrSeatsExhausted):
		log.Info("No available seats")
		c.JSON(http.StatusConflict, errorResponse{Message: "No available seats for this flight"})
	case errors.Is(err, apperrors.ErrInvalidResize):
		log.Info("Invalid resize")
		c.JSON(http.StatusConflict, errorResponse{Message: "Cannot reduce total seats below the number of booked seats"})
	case errors.Is(err, apperrors.ErrConflict):
		log.Info("Conflict")
		c.JSON(http.StatusConflict, errorResponse{Message: conflictMessage(err)})
	case errors.Is(err, apperrors.ErrInvalidInput):
		log.Warn("Invalid input")
		c.JSON(http.StatusBadRequest, errorResponse{Message: err.Error()})
	case errors.Is(err, apperrors.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, errorResponse{Message: "Token is not valid"})
	case errors.Is(err, apperrors.ErrForbidden):
		c.JSON(http.StatusForbidden, errorResponse{Message: "Not authorized as admin"})
	default:
		log.Error("Unexpected error")
		c.JSON(http.StatusInternalServerError, errorResponse{Message: serverErrorMessage})
	}
}

func conflictMessage(err error) string {
	var conflict *apperrors.ConflictError
	if errors.As(err, &conflict) {
		return conflict.Error()
	}
	return err.Error()
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, errorResponse{Message: message})
}
