package domain

import "time"

// City is an entry of the city registry offered to admins when scheduling flights.
type City struct {
	CityID    string
	CityName  string
	CreatedAt time.Time
}
