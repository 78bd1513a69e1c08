package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestMiddlewareAndHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Middleware())
	r.GET("/api/flights/:id", func(c *gin.Context) { c.Status(http.StatusNotFound) })
	r.GET("/metrics", Handler())

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/flights/HF1", nil))

	BookingsTotal.WithLabelValues("confirmed").Inc()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `flightbooking_http_request_duration_seconds_count{method="GET",route="/api/flights/:id",status="404"}`)
	assert.Contains(t, w.Body.String(), `flightbooking_bookings_total{result="confirmed"}`)
}
