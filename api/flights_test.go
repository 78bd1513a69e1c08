package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/happyflights/flightbooking/internal/auth"
	"github.com/happyflights/flightbooking/internal/domain"
	"github.com/happyflights/flightbooking/internal/service/cancellation"
	"github.com/happyflights/flightbooking/internal/service/flights"
	"github.com/happyflights/flightbooking/pkg/apperrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

// MockFlightUseCase is a mock implementation of flights.FlightUseCase
type MockFlightUseCase struct {
	mock.Mock
}

func (m *MockFlightUseCase) List(ctx context.Context, q flights.Query) ([]domain.Flight, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Flight), args.Error(1)
}

func (m *MockFlightUseCase) ListAll(ctx context.Context, q flights.Query) ([]domain.Flight, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Flight), args.Error(1)
}

func (m *MockFlightUseCase) GetByID(ctx context.Context, id string) (*domain.Flight, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Flight), args.Error(1)
}

func (m *MockFlightUseCase) Create(ctx context.Context, in flights.FlightInput) (*domain.Flight, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Flight), args.Error(1)
}

func (m *MockFlightUseCase) Update(ctx context.Context, id string, in flights.FlightInput) (*domain.Flight, error) {
	args := m.Called(ctx, id, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Flight), args.Error(1)
}

func (m *MockFlightUseCase) Resize(ctx context.Context, id string, seatsTotal int) (*domain.Flight, error) {
	args := m.Called(ctx, id, seatsTotal)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Flight), args.Error(1)
}

func (m *MockFlightUseCase) Delete(ctx context.Context, req cancellation.Request) (*cancellation.Result, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cancellation.Result), args.Error(1)
}

func newTestRouter(flightSvc flights.FlightUseCase) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	admin := RequireAdmin(auth.NewVerifier(testSecret))
	NewFlightHandler(flightSvc).Register(r.Group("/api/flights"), admin)
	return r
}

func token(t *testing.T, isAdmin bool) string {
	t.Helper()
	tok, err := auth.NewVerifier(testSecret).Issue("u1", "u1@example.com", isAdmin, time.Hour)
	require.NoError(t, err)
	return tok
}

func do(r http.Handler, method, path, body, tok string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

var departure = time.Date(2030, 7, 1, 8, 0, 0, 0, time.UTC)

func sampleFlight() *domain.Flight {
	return &domain.Flight{
		FlightID:       "HF100",
		FromCity:       "Istanbul",
		ToCity:         "Ankara",
		DepartureTime:  departure,
		ArrivalTime:    departure.Add(time.Hour),
		Price:          850,
		SeatsTotal:     150,
		SeatsAvailable: 120,
	}
}

func TestFlightHandler_list(t *testing.T) {
	mockService := &MockFlightUseCase{}
	handler := NewFlightHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("GET", "/api/flights?from_city=Istanbul&date=2030-07-01", nil)

	mockService.On("List", c.Request.Context(), flights.Query{FromCity: "Istanbul", Date: "2030-07-01"}).
		Return([]domain.Flight{*sampleFlight()}, nil)

	handler.list(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var body []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body, 1)
	assert.Equal(t, "HF100", body[0]["flight_id"])
	assert.Equal(t, "Istanbul", body[0]["from_city"])
	assert.EqualValues(t, 120, body[0]["seats_available"])
	assert.Equal(t, "2030-07-01T08:00:00Z", body[0]["departure_time"])
	assert.NotContains(t, body[0], "created_at")

	mockService.AssertExpectations(t)
}

func TestFlightHandler_list_Errors(t *testing.T) {
	mockService := &MockFlightUseCase{}
	r := newTestRouter(mockService)
	mockService.On("List", mock.Anything, flights.Query{}).Return(nil, errors.New("pool closed")).Once()
	mockService.On("List", mock.Anything, flights.Query{Date: "tomorrow"}).
		Return(nil, apperrors.ErrInvalidInput).Once()

	w := do(r, http.MethodGet, "/api/flights", "", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Server error", decode(t, w)["message"])

	w = do(r, http.MethodGet, "/api/flights?date=tomorrow", "", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFlightHandler_get(t *testing.T) {
	mockService := &MockFlightUseCase{}
	handler := NewFlightHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	c.Params = gin.Params{{Key: "id", Value: "HF100"}}
	c.Request = httptest.NewRequest("GET", "/api/flights/HF100", nil)

	mockService.On("GetByID", c.Request.Context(), "HF100").Return(sampleFlight(), nil)

	handler.get(c)

	assert.Equal(t, http.StatusOK, w.Code)

	mockService.AssertExpectations(t)
}

func TestFlightHandler_get_NotFound(t *testing.T) {
	mockService := &MockFlightUseCase{}
	r := newTestRouter(mockService)
	mockService.On("GetByID", mock.Anything, "XX1").Return(nil, apperrors.ErrFlightNotFound)

	w := do(r, http.MethodGet, "/api/flights/XX1", "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Flight not found", decode(t, w)["message"])
}

func TestFlightHandler_AdminRoutesRequireAdmin(t *testing.T) {
	mockService := &MockFlightUseCase{}
	r := newTestRouter(mockService)

	w := do(r, http.MethodGet, "/api/flights/admin/all", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "No token, authorization denied", decode(t, w)["message"])

	w = do(r, http.MethodDelete, "/api/flights/HF100", "", "garbage")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Token is not valid", decode(t, w)["message"])

	w = do(r, http.MethodPost, "/api/flights", "{}", token(t, false))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "Not authorized as admin", decode(t, w)["message"])

	mockService.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	mockService.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestFlightHandler_listAll_LegacyHeader(t *testing.T) {
	mockService := &MockFlightUseCase{}
	r := newTestRouter(mockService)
	mockService.On("ListAll", mock.Anything, flights.Query{ToCity: "Ankara"}).Return([]domain.Flight{*sampleFlight()}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/flights/admin/all?to_city=Ankara", nil)
	req.Header.Set("x-auth-token", token(t, true))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	mockService.AssertExpectations(t)
}

func TestFlightHandler_create(t *testing.T) {
	mockService := &MockFlightUseCase{}
	r := newTestRouter(mockService)
	body := `{"flight_id":"HF100","from_city":"Istanbul","to_city":"Ankara",
		"departure_time":"2030-07-01T08:00:00Z","arrival_time":"2030-07-01T09:00:00Z","price":850,"seats_total":150}`

	expected := flights.FlightInput{
		FlightID:      "HF100",
		FromCity:      "Istanbul",
		ToCity:        "Ankara",
		DepartureTime: departure,
		ArrivalTime:   departure.Add(time.Hour),
		Price:         850,
		SeatsTotal:    150,
	}
	mockService.On("Create", mock.Anything, expected).Return(sampleFlight(), nil).Once()
	mockService.On("Create", mock.Anything, expected).
		Return(nil, &apperrors.ConflictError{Reason: apperrors.ReasonDepartureConflict, City: "Istanbul", At: departure}).Once()

	w := do(r, http.MethodPost, "/api/flights", body, token(t, true))
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "HF100", decode(t, w)["flight_id"])

	w = do(r, http.MethodPost, "/api/flights", body, token(t, true))
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "Another flight already departs from Istanbul at 2030-07-01 08:00. Please choose a different departure time.",
		decode(t, w)["message"])

	w = do(r, http.MethodPost, "/api/flights", `{"from_city":"Istanbul"}`, token(t, true))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockService.AssertNumberOfCalls(t, "Create", 2)
}

func TestFlightHandler_update_InvalidResize(t *testing.T) {
	mockService := &MockFlightUseCase{}
	r := newTestRouter(mockService)
	body := `{"from_city":"Istanbul","to_city":"Ankara",
		"departure_time":"2030-07-01T08:00:00Z","arrival_time":"2030-07-01T09:00:00Z","price":850,"seats_total":10}`
	mockService.On("Update", mock.Anything, "HF100", mock.AnythingOfType("flights.FlightInput")).
		Return(nil, apperrors.ErrInvalidResize)

	w := do(r, http.MethodPut, "/api/flights/HF100", body, token(t, true))
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "Cannot reduce total seats below the number of booked seats", decode(t, w)["message"])
}

func TestFlightHandler_resize(t *testing.T) {
	mockService := &MockFlightUseCase{}
	r := newTestRouter(mockService)
	resized := sampleFlight()
	resized.SeatsTotal = 160
	resized.SeatsAvailable = 130
	mockService.On("Resize", mock.Anything, "HF100", 160).Return(resized, nil)
	mockService.On("Resize", mock.Anything, "HF100", 10).Return(nil, apperrors.ErrInvalidResize)

	w := do(r, http.MethodPatch, "/api/flights/HF100/seats", `{"seats_total":160}`, token(t, true))
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 130, decode(t, w)["seats_available"])

	w = do(r, http.MethodPatch, "/api/flights/HF100/seats", `{"seats_total":10}`, token(t, true))
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(r, http.MethodPatch, "/api/flights/HF100/seats", `{}`, token(t, true))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodPatch, "/api/flights/HF100/seats", `{"seats_total":160}`, token(t, false))
	assert.Equal(t, http.StatusForbidden, w.Code)
	mockService.AssertNumberOfCalls(t, "Resize", 2)
}

func TestFlightHandler_delete(t *testing.T) {
	admin := token(t, true)

	t.Run("no bookings", func(t *testing.T) {
		mockService := &MockFlightUseCase{}
		r := newTestRouter(mockService)
		mockService.On("Delete", mock.Anything, cancellation.Request{FlightID: "HF100"}).
			Return(&cancellation.Result{FlightID: "HF100", State: cancellation.StateDeleted}, nil)

		w := do(r, http.MethodDelete, "/api/flights/HF100", "", admin)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, map[string]any{"message": "Flight deleted successfully"}, decode(t, w))
	})

	t.Run("force required", func(t *testing.T) {
		mockService := &MockFlightUseCase{}
		r := newTestRouter(mockService)
		mockService.On("Delete", mock.Anything, cancellation.Request{FlightID: "HF100"}).
			Return(nil, &apperrors.ForceRequiredError{BookedSeats: 3})

		w := do(r, http.MethodDelete, "/api/flights/HF100", "", admin)
		assert.Equal(t, http.StatusConflict, w.Code)
		body := decode(t, w)
		assert.Equal(t, true, body["requiresForce"])
		assert.EqualValues(t, 3, body["bookedSeats"])
		assert.Contains(t, body["message"], "3 booked seats")
	})

	t.Run("forced", func(t *testing.T) {
		mockService := &MockFlightUseCase{}
		r := newTestRouter(mockService)
		expected := 3
		mockService.On("Delete", mock.Anything, cancellation.Request{FlightID: "HF100", Force: true, ExpectedBooked: &expected}).
			Return(&cancellation.Result{
				FlightID:         "HF100",
				State:            cancellation.StateCommitted,
				BookedSeats:      3,
				CancelledTickets: make([]domain.Ticket, 3),
			}, nil)

		w := do(r, http.MethodDelete, "/api/flights/HF100?force=true&expected_booked=3", "", admin)
		assert.Equal(t, http.StatusOK, w.Code)
		body := decode(t, w)
		assert.Equal(t, "Flight cancelled successfully", body["message"])
		assert.EqualValues(t, 3, body["affectedPassengers"])
		assert.EqualValues(t, 3, body["cancelledTickets"])
		assert.Equal(t, "All passenger tickets have been marked as cancelled", body["warning"])
	})

	t.Run("past flight", func(t *testing.T) {
		mockService := &MockFlightUseCase{}
		r := newTestRouter(mockService)
		now := departure.Add(time.Hour)
		mockService.On("Delete", mock.Anything, cancellation.Request{FlightID: "HF100", Force: true}).
			Return(nil, &apperrors.PastFlightError{Departure: departure, Now: now})

		w := do(r, http.MethodDelete, "/api/flights/HF100?force=true", "", admin)
		assert.Equal(t, http.StatusConflict, w.Code)
		body := decode(t, w)
		assert.Equal(t, "2030-07-01T08:00:00Z", body["flightDeparture"])
		assert.Equal(t, "2030-07-01T09:00:00Z", body["currentTime"])
	})

	t.Run("bad expected_booked", func(t *testing.T) {
		mockService := &MockFlightUseCase{}
		r := newTestRouter(mockService)

		w := do(r, http.MethodDelete, "/api/flights/HF100?force=true&expected_booked=many", "", admin)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		mockService.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})
}
