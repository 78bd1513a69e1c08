package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/happyflights/flightbooking/internal/service/cities"
)

type CityHandler struct {
	service cities.CityUseCase
}

func NewCityHandler(service cities.CityUseCase) *CityHandler {
	return &CityHandler{service: service}
}

func (h *CityHandler) Register(router *gin.RouterGroup, admin gin.HandlerFunc) {
	router.GET("", h.list)
	router.POST("", admin, h.create)
}

func (h *CityHandler) list(c *gin.Context) {
	list, err := h.service.List(c.Request.Context())
	if err != nil {
		handleError(c, err, "ListCities")
		return
	}
	resp := make([]cityResponse, 0, len(list))
	for _, city := range list {
		resp = append(resp, toCityResponse(city))
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CityHandler) create(c *gin.Context) {
	var req cityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	city, err := h.service.Create(c.Request.Context(), cities.CityInput{CityID: req.CityID, CityName: req.CityName})
	if err != nil {
		handleError(c, err, "CreateCity")
		return
	}
	c.JSON(http.StatusCreated, toCityResponse(*city))
}
