package repository

import (
	"context"

	"github.com/happyflights/flightbooking/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PGCityRepository struct {
	db *pgxpool.Pool
}

func NewCityRepository(db *pgxpool.Pool) CityRepository {
	return &PGCityRepository{db: db}
}

func (r *PGCityRepository) List(ctx context.Context) ([]domain.City, error) {
	rows, err := conn(ctx, r.db).Query(ctx, `SELECT city_id, city_name, created_at FROM cities ORDER BY city_name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cities := make([]domain.City, 0)
	for rows.Next() {
		var c domain.City
		if err := rows.Scan(&c.CityID, &c.CityName, &c.CreatedAt); err != nil {
			return nil, err
		}
		cities = append(cities, c)
	}
	return cities, rows.Err()
}

func (r *PGCityRepository) Exists(ctx context.Context, id, name string) (bool, error) {
	var exists bool
	err := conn(ctx, r.db).QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM cities WHERE city_id = $1 OR city_name = $2)`, id, name).Scan(&exists)
	return exists, err
}

func (r *PGCityRepository) Create(ctx context.Context, city *domain.City) error {
	err := conn(ctx, r.db).QueryRow(ctx,
		`INSERT INTO cities (city_id, city_name) VALUES ($1, $2) RETURNING created_at`,
		city.CityID, city.CityName).Scan(&city.CreatedAt)
	if err != nil {
		return translateCityWriteError(err)
	}
	return nil
}
