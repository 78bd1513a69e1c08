package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/happyflights/flightbooking/internal/service/cancellation"
	"github.com/happyflights/flightbooking/internal/service/flights"
)

type FlightHandler struct {
	service flights.FlightUseCase
}

func NewFlightHandler(service flights.FlightUseCase) *FlightHandler {
	return &FlightHandler{service: service}
}

func (h *FlightHandler) Register(router *gin.RouterGroup, admin gin.HandlerFunc) {
	router.GET("", h.list)
	router.GET("/admin/all", admin, h.listAll)
	router.GET("/:id", h.get)
	router.POST("", admin, h.create)
	router.PUT("/:id", admin, h.update)
	router.PATCH("/:id/seats", admin, h.resize)
	router.DELETE("/:id", admin, h.delete)
}

func query(c *gin.Context) flights.Query {
	return flights.Query{
		FromCity: c.Query("from_city"),
		ToCity:   c.Query("to_city"),
		Date:     c.Query("date"),
	}
}

func (h *FlightHandler) list(c *gin.Context) {
	list, err := h.service.List(c.Request.Context(), query(c))
	if err != nil {
		handleError(c, err, "ListFlights")
		return
	}
	c.JSON(http.StatusOK, toFlightResponses(list))
}

func (h *FlightHandler) listAll(c *gin.Context) {
	list, err := h.service.ListAll(c.Request.Context(), query(c))
	if err != nil {
		handleError(c, err, "ListAllFlights")
		return
	}
	c.JSON(http.StatusOK, toFlightResponses(list))
}

func (h *FlightHandler) get(c *gin.Context) {
	flight, err := h.service.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err, "GetFlight")
		return
	}
	c.JSON(http.StatusOK, toFlightResponse(*flight))
}

func (h *FlightHandler) create(c *gin.Context) {
	var req flightRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	flight, err := h.service.Create(c.Request.Context(), req.input())
	if err != nil {
		handleError(c, err, "CreateFlight")
		return
	}
	c.JSON(http.StatusCreated, toFlightResponse(*flight))
}

func (h *FlightHandler) update(c *gin.Context) {
	var req flightRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	flight, err := h.service.Update(c.Request.Context(), c.Param("id"), req.input())
	if err != nil {
		handleError(c, err, "UpdateFlight")
		return
	}
	c.JSON(http.StatusOK, toFlightResponse(*flight))
}

func (h *FlightHandler) resize(c *gin.Context) {
	var req resizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	flight, err := h.service.Resize(c.Request.Context(), c.Param("id"), req.SeatsTotal)
	if err != nil {
		handleError(c, err, "ResizeFlight")
		return
	}
	c.JSON(http.StatusOK, toFlightResponse(*flight))
}

func (h *FlightHandler) delete(c *gin.Context) {
	req := cancellation.Request{
		FlightID: c.Param("id"),
		Force:    c.Query("force") == "true",
	}
	if raw := c.Query("expected_booked"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			badRequest(c, "expected_booked must be a non-negative integer")
			return
		}
		req.ExpectedBooked = &n
	}

	res, err := h.service.Delete(c.Request.Context(), req)
	if err != nil {
		handleError(c, err, "DeleteFlight")
		return
	}

	if res.State != cancellation.StateCommitted {
		c.JSON(http.StatusOK, deleteFlightResponse{Message: "Flight deleted successfully"})
		return
	}
	cancelled := len(res.CancelledTickets)
	c.JSON(http.StatusOK, deleteFlightResponse{
		Message:            "Flight cancelled successfully",
		AffectedPassengers: res.BookedSeats,
		CancelledTickets:   &cancelled,
		Warning:            "All passenger tickets have been marked as cancelled",
	})
}
