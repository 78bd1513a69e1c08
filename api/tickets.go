package api

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/happyflights/flightbooking/internal/service/booking"
)

type TicketHandler struct {
	service booking.BookingUseCase
}

func NewTicketHandler(service booking.BookingUseCase) *TicketHandler {
	return &TicketHandler{service: service}
}

// Register mounts the ticket routes. idempotency guards ticket creation and may be nil.
func (h *TicketHandler) Register(router *gin.RouterGroup, idempotency gin.HandlerFunc) {
	create := []gin.HandlerFunc{h.create}
	if idempotency != nil {
		create = append([]gin.HandlerFunc{idempotency}, create...)
	}
	router.POST("", create...)
	router.GET("/by-email/:email", h.listByEmail)
	router.GET("/ticket/:id", h.get)
}

func (h *TicketHandler) create(c *gin.Context) {
	var req bookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	ticket, err := h.service.CreateBooking(c.Request.Context(), booking.CreateBookingInput{
		PassengerName:    req.PassengerName,
		PassengerSurname: req.PassengerSurname,
		PassengerEmail:   req.PassengerEmail,
		FlightID:         req.FlightID,
		SeatNumber:       req.SeatNumber,
	})
	if err != nil {
		handleError(c, err, "CreateBooking")
		return
	}
	c.JSON(http.StatusCreated, toTicketResponse(*ticket))
}

func (h *TicketHandler) listByEmail(c *gin.Context) {
	email, err := url.PathUnescape(c.Param("email"))
	if err != nil {
		badRequest(c, "invalid email")
		return
	}
	views, err := h.service.ListByEmail(c.Request.Context(), email)
	if err != nil {
		handleError(c, err, "ListTicketsByEmail")
		return
	}
	out := make([]passengerTicketResponse, 0, len(views))
	for _, v := range views {
		out = append(out, toPassengerTicket(v))
	}
	c.JSON(http.StatusOK, out)
}

func (h *TicketHandler) get(c *gin.Context) {
	view, err := h.service.GetTicket(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err, "GetTicket")
		return
	}
	c.JSON(http.StatusOK, toTicketDetails(*view))
}
