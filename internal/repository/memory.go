package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/happyflights/flightbooking/internal/domain"
	"github.com/happyflights/flightbooking/pkg/apperrors"
)

// MemoryStore keeps flights, tickets and cities in process. Transactions are fully
// serialized and roll back by restoring the state captured at begin.
type MemoryStore struct {
	mu      sync.Mutex
	flights map[string]domain.Flight
	tickets map[string]domain.Ticket
	cities  map[string]domain.City
	seq     int64
	order   map[string]int64
	now     func() time.Time
}

type memTxKey struct{}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		flights: make(map[string]domain.Flight),
		tickets: make(map[string]domain.Ticket),
		cities:  make(map[string]domain.City),
		order:   make(map[string]int64),
		now:     time.Now,
	}
}

func (s *MemoryStore) Flights() FlightRepository { return &memFlights{s: s} }

func (s *MemoryStore) Tickets() TicketRepository { return &memTickets{s: s} }

func (s *MemoryStore) Cities() CityRepository { return &memCities{s: s} }

func (s *MemoryStore) inTx(ctx context.Context) bool {
	owner, _ := ctx.Value(memTxKey{}).(*MemoryStore)
	return owner == s
}

// lock acquires the store unless ctx already holds it through WithinTransaction.
func (s *MemoryStore) lock(ctx context.Context) func() {
	if s.inTx(ctx) {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *MemoryStore) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.inTx(ctx) {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	flights := make(map[string]domain.Flight, len(s.flights))
	for k, v := range s.flights {
		flights[k] = v
	}
	tickets := make(map[string]domain.Ticket, len(s.tickets))
	for k, v := range s.tickets {
		tickets[k] = v
	}
	cities := make(map[string]domain.City, len(s.cities))
	for k, v := range s.cities {
		cities[k] = v
	}
	order := make(map[string]int64, len(s.order))
	for k, v := range s.order {
		order[k] = v
	}
	seq := s.seq

	committed := false
	defer func() {
		if !committed {
			s.flights, s.tickets, s.cities, s.order, s.seq = flights, tickets, cities, order, seq
		}
	}()

	if err := fn(context.WithValue(ctx, memTxKey{}, s)); err != nil {
		return err
	}
	committed = true
	return nil
}

type memFlights struct{ s *MemoryStore }

func (r *memFlights) List(ctx context.Context, filter domain.FlightFilter) ([]domain.Flight, error) {
	defer r.s.lock(ctx)()

	flights := make([]domain.Flight, 0)
	for _, f := range r.s.flights {
		if filter.FromCity != "" && f.FromCity != filter.FromCity {
			continue
		}
		if filter.ToCity != "" && f.ToCity != filter.ToCity {
			continue
		}
		if filter.DepartureFrom != nil && f.DepartureTime.Before(*filter.DepartureFrom) {
			continue
		}
		if filter.DepartureTo != nil && !f.DepartureTime.Before(*filter.DepartureTo) {
			continue
		}
		flights = append(flights, f)
	}
	sort.Slice(flights, func(i, j int) bool {
		if filter.NewestFirst {
			return flights[i].DepartureTime.After(flights[j].DepartureTime)
		}
		return flights[i].DepartureTime.Before(flights[j].DepartureTime)
	})
	return flights, nil
}

func (r *memFlights) GetByID(ctx context.Context, id string) (*domain.Flight, error) {
	defer r.s.lock(ctx)()

	f, ok := r.s.flights[id]
	if !ok {
		return nil, apperrors.ErrFlightNotFound
	}
	return &f, nil
}

func (r *memFlights) GetForUpdate(ctx context.Context, id string) (*domain.Flight, error) {
	return r.GetByID(ctx, id)
}

func (r *memFlights) FindScheduleConflicts(ctx context.Context, candidate domain.Flight, excludeID string) ([]domain.Flight, error) {
	defer r.s.lock(ctx)()

	conflicts := make([]domain.Flight, 0)
	for id, f := range r.s.flights {
		if id == excludeID {
			continue
		}
		if (f.FromCity == candidate.FromCity && f.DepartureTime.Equal(candidate.DepartureTime)) ||
			(f.ToCity == candidate.ToCity && f.ArrivalTime.Equal(candidate.ArrivalTime)) {
			conflicts = append(conflicts, f)
		}
	}
	return conflicts, nil
}

func (r *memFlights) Create(ctx context.Context, flight *domain.Flight) error {
	defer r.s.lock(ctx)()

	if _, exists := r.s.flights[flight.FlightID]; exists {
		return &apperrors.ConflictError{Reason: apperrors.ReasonDuplicateID}
	}
	now := r.s.now()
	flight.CreatedAt, flight.UpdatedAt = now, now
	r.s.flights[flight.FlightID] = *flight
	return nil
}

func (r *memFlights) Update(ctx context.Context, flight *domain.Flight) error {
	defer r.s.lock(ctx)()

	if _, exists := r.s.flights[flight.FlightID]; !exists {
		return apperrors.ErrFlightNotFound
	}
	flight.UpdatedAt = r.s.now()
	r.s.flights[flight.FlightID] = *flight
	return nil
}

func (r *memFlights) DecrementSeat(ctx context.Context, id string) (*domain.Flight, error) {
	defer r.s.lock(ctx)()

	f, ok := r.s.flights[id]
	if !ok {
		return nil, apperrors.ErrFlightNotFound
	}
	if f.SeatsAvailable <= 0 {
		return nil, apperrors.ErrSeatsExhausted
	}
	f.SeatsAvailable--
	f.UpdatedAt = r.s.now()
	r.s.flights[id] = f
	return &f, nil
}

func (r *memFlights) Delete(ctx context.Context, id string) error {
	defer r.s.lock(ctx)()

	if _, ok := r.s.flights[id]; !ok {
		return apperrors.ErrFlightNotFound
	}
	delete(r.s.flights, id)
	return nil
}

type memTickets struct{ s *MemoryStore }

// sorted returns tickets matching keep, newest first unless oldestFirst.
func (r *memTickets) sorted(keep func(domain.Ticket) bool, oldestFirst bool) []domain.Ticket {
	tickets := make([]domain.Ticket, 0)
	for _, t := range r.s.tickets {
		if keep(t) {
			tickets = append(tickets, t)
		}
	}
	sort.Slice(tickets, func(i, j int) bool {
		a, b := r.s.order[tickets[i].TicketID], r.s.order[tickets[j].TicketID]
		if oldestFirst {
			return a < b
		}
		return a > b
	})
	return tickets
}

func (r *memTickets) Create(ctx context.Context, ticket *domain.Ticket) error {
	defer r.s.lock(ctx)()

	if _, exists := r.s.tickets[ticket.TicketID]; exists {
		return apperrors.ErrConflict
	}
	ticket.CreatedAt = r.s.now()
	r.s.seq++
	r.s.order[ticket.TicketID] = r.s.seq
	r.s.tickets[ticket.TicketID] = *ticket
	return nil
}

func (r *memTickets) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	defer r.s.lock(ctx)()

	t, ok := r.s.tickets[id]
	if !ok {
		return nil, apperrors.ErrTicketNotFound
	}
	return &t, nil
}

func (r *memTickets) ListByEmail(ctx context.Context, email string) ([]domain.Ticket, error) {
	defer r.s.lock(ctx)()
	return r.sorted(func(t domain.Ticket) bool { return t.PassengerEmail == email }, false), nil
}

func (r *memTickets) ListAll(ctx context.Context) ([]domain.Ticket, error) {
	defer r.s.lock(ctx)()
	return r.sorted(func(domain.Ticket) bool { return true }, false), nil
}

func (r *memTickets) ListWithoutSnapshot(ctx context.Context) ([]domain.Ticket, error) {
	defer r.s.lock(ctx)()
	return r.sorted(func(t domain.Ticket) bool { return t.Snapshot == nil || t.Snapshot.From == "" }, true), nil
}

func (r *memTickets) CancelConfirmedByFlight(ctx context.Context, flight *domain.Flight, reason string, at time.Time) ([]domain.Ticket, error) {
	defer r.s.lock(ctx)()

	cancelled := r.sorted(func(t domain.Ticket) bool {
		return t.FlightID == flight.FlightID && t.Status == domain.TicketStatusConfirmed
	}, true)
	for i := range cancelled {
		cancelled[i].Cancel(flight, reason, at)
		r.s.tickets[cancelled[i].TicketID] = cancelled[i]
	}
	return cancelled, nil
}

func (r *memTickets) RefreshSnapshots(ctx context.Context, flight *domain.Flight) (int, error) {
	defer r.s.lock(ctx)()

	n := 0
	for id, t := range r.s.tickets {
		if t.FlightID != flight.FlightID || t.Status != domain.TicketStatusConfirmed {
			continue
		}
		snap := flight.Snapshot()
		t.Snapshot = &snap
		r.s.tickets[id] = t
		n++
	}
	return n, nil
}

func (r *memTickets) SetSnapshot(ctx context.Context, ticketID string, snapshot domain.FlightSnapshot) (bool, error) {
	defer r.s.lock(ctx)()

	t, ok := r.s.tickets[ticketID]
	if !ok {
		return false, nil
	}
	t.Snapshot = &snapshot
	r.s.tickets[ticketID] = t
	return true, nil
}

var (
	_ Transactor       = (*MemoryStore)(nil)
	_ FlightRepository = (*memFlights)(nil)
	_ TicketRepository = (*memTickets)(nil)
)

type memCities struct{ s *MemoryStore }

func (r *memCities) List(ctx context.Context) ([]domain.City, error) {
	defer r.s.lock(ctx)()

	cities := make([]domain.City, 0, len(r.s.cities))
	for _, c := range r.s.cities {
		cities = append(cities, c)
	}
	sort.Slice(cities, func(i, j int) bool { return cities[i].CityName < cities[j].CityName })
	return cities, nil
}

func (r *memCities) Exists(ctx context.Context, id, name string) (bool, error) {
	defer r.s.lock(ctx)()

	for _, c := range r.s.cities {
		if c.CityID == id || c.CityName == name {
			return true, nil
		}
	}
	return false, nil
}

func (r *memCities) Create(ctx context.Context, city *domain.City) error {
	defer r.s.lock(ctx)()

	for _, c := range r.s.cities {
		if c.CityID == city.CityID || c.CityName == city.CityName {
			return &apperrors.ConflictError{Reason: apperrors.ReasonCityExists}
		}
	}
	city.CreatedAt = r.s.now()
	r.s.cities[city.CityID] = *city
	return nil
}
