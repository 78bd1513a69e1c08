package domain

import "time"

type Flight struct {
	FlightID       string
	FromCity       string
	ToCity         string
	DepartureTime  time.Time
	ArrivalTime    time.Time
	Price          float64
	SeatsTotal     int
	SeatsAvailable int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// BookedSeats is the number of seats taken by confirmed tickets.
func (f *Flight) BookedSeats() int {
	return f.SeatsTotal - f.SeatsAvailable
}

// Snapshot captures the displayable attributes copied onto tickets.
func (f *Flight) Snapshot() FlightSnapshot {
	return FlightSnapshot{
		From:          f.FromCity,
		To:            f.ToCity,
		DepartureTime: f.DepartureTime,
		ArrivalTime:   f.ArrivalTime,
		Price:         f.Price,
	}
}

// FlightFilter narrows flight listings. DepartureFrom is inclusive, DepartureTo exclusive.
type FlightFilter struct {
	FromCity      string
	ToCity        string
	DepartureFrom *time.Time
	DepartureTo   *time.Time
	NewestFirst   bool
}

// NormalizeScheduleTime brings schedule timestamps to UTC minute precision so that
// exact-match conflict rules compare at minute granularity.
func NormalizeScheduleTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Minute)
}
