package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/happyflights/flightbooking/config"
	"github.com/happyflights/flightbooking/internal/domain"
	"github.com/redis/go-redis/v9"
)

// ErrInFlight is returned when an idempotency key is reserved but its
// response has not been stored yet.
var ErrInFlight = errors.New("request with this idempotency key is in progress")

const pendingMarker = "pending"

type RedisCache struct {
	client         *redis.Client
	flightsTTL     time.Duration
	idempotencyTTL time.Duration
}

func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB})
}

func NewRedisCache(client *redis.Client, booking config.BookingConfig) *RedisCache {
	return &RedisCache{
		client:         client,
		flightsTTL:     booking.FlightsCacheDuration(),
		idempotencyTTL: booking.IdempotencyDuration(),
	}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// ListingKey resolves the cache key for query under the current listing
// version. Callers read and write with the same key, so a listing computed
// before an invalidation is never stored under the newer version.
func (c *RedisCache) ListingKey(ctx context.Context, query string) (string, error) {
	version, err := c.client.Get(ctx, flightsVersionKey()).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return "", err
	}
	return FlightsKey(version, query), nil
}

// GetFlights returns the listing cached under key. ok is false on a miss.
func (c *RedisCache) GetFlights(ctx context.Context, key string) (flights []domain.Flight, ok bool, err error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}

	if err := json.Unmarshal(data, &flights); err != nil {
		return nil, false, err
	}
	return flights, true, nil
}

func (c *RedisCache) SetFlights(ctx context.Context, key string, flights []domain.Flight) error {
	payload, err := json.Marshal(flights)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, payload, c.flightsTTL).Err()
}

// InvalidateFlights bumps the listing version so every cached query goes stale
// at once. Old entries expire through their TTL.
func (c *RedisCache) InvalidateFlights(ctx context.Context) error {
	return c.client.Incr(ctx, flightsVersionKey()).Err()
}

// StoredResponse is a completed response replayed for a repeated idempotency key.
type StoredResponse struct {
	Status int             `json:"status"`
	Body   json.RawMessage `json:"body"`
}

// Reserve claims key for a new request. It returns the stored response when
// the key already completed, and ErrInFlight when it is still being served.
func (c *RedisCache) Reserve(ctx context.Context, key string) (*StoredResponse, error) {
	ok, err := c.client.SetNX(ctx, IdempotencyKey(key), pendingMarker, c.idempotencyTTL).Result()
	if err != nil {
		return nil, err
	}
	if ok {
		return nil, nil
	}

	data, err := c.client.Get(ctx, IdempotencyKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return c.Reserve(ctx, key)
		}
		return nil, err
	}
	if string(data) == pendingMarker {
		return nil, ErrInFlight
	}

	var stored StoredResponse
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("decode stored response: %w", err)
	}
	return &stored, nil
}

func (c *RedisCache) Complete(ctx context.Context, key string, resp StoredResponse) error {
	payload, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, IdempotencyKey(key), payload, c.idempotencyTTL).Err()
}

// Release drops a reservation so the request can be retried.
func (c *RedisCache) Release(ctx context.Context, key string) error {
	return c.client.Del(ctx, IdempotencyKey(key)).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

func FlightsKey(version int64, query string) string {
	return fmt.Sprintf("cache:flights:v%d:%s", version, query)
}

// FlightsQuery renders listing parameters into the cache key suffix. Values
// are used verbatim: city matching is exact, so the key must be too.
func FlightsQuery(fromCity, toCity, date string) string {
	return strings.Join([]string{fromCity, toCity, date}, "|")
}

func flightsVersionKey() string {
	return "cache:flights:version"
}

func IdempotencyKey(key string) string {
	return "idempotency:tickets:" + key
}
