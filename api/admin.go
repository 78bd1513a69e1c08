package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/happyflights/flightbooking/internal/service/booking"
)

type AdminHandler struct {
	service booking.BookingUseCase
}

func NewAdminHandler(service booking.BookingUseCase) *AdminHandler {
	return &AdminHandler{service: service}
}

func (h *AdminHandler) Register(router *gin.RouterGroup, admin gin.HandlerFunc) {
	router.GET("/tickets", admin, h.listTickets)
	router.POST("/update-tickets", admin, h.backfill)
}

func (h *AdminHandler) listTickets(c *gin.Context) {
	views, err := h.service.ListAll(c.Request.Context())
	if err != nil {
		handleError(c, err, "ListAllTickets")
		return
	}
	out := make([]ticketDetailsResponse, 0, len(views))
	for _, v := range views {
		out = append(out, toTicketDetails(v))
	}
	c.JSON(http.StatusOK, out)
}

func (h *AdminHandler) backfill(c *gin.Context) {
	report, err := h.service.BackfillSnapshots(c.Request.Context())
	if err != nil {
		handleError(c, err, "BackfillSnapshots")
		return
	}
	c.JSON(http.StatusOK, toBackfillResponse(report))
}
