package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"sponti/internal/domain"
	"sponti/internal/repository"
)

const createTripsTable = `
CREATE TABLE IF NOT EXISTS trips (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	author_id INTEGER NOT NULL REFERENCES users(id),
	title TEXT NOT NULL,
	description TEXT NOT NULL,
	location TEXT NOT NULL,
	trip_date TEXT NOT NULL,
	image_url TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_trips_author_id ON trips(author_id);
`

const selectTrip = `
SELECT t.id, t.author_id, t.title, t.description, t.location, t.trip_date,
	t.image_url, t.created_at, u.name, u.email
FROM trips t
JOIN users u ON u.id = t.author_id
`

type TripRepository struct {
	db *sql.DB
}

func NewTripRepository(db *sql.DB) repository.TripRepository {
	return &TripRepository{db: db}
}

func (r *TripRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createTripsTable); err != nil {
		return fmt.Errorf("create trips table: %w", err)
	}
	return nil
}

func (r *TripRepository) Create(ctx context.Context, trip *domain.Trip) (int64, error) {
	trip.CreatedAt = time.Now().UTC()

	res, err := r.db.ExecContext(ctx, `
INSERT INTO trips (author_id, title, description, location, trip_date, image_url, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)`,
		trip.AuthorID,
		trip.Title,
		trip.Description,
		trip.Location,
		trip.TripDate,
		trip.ImageURL,
		trip.CreatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("insert trip: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("trip last insert id: %w", err)
	}
	trip.ID = id
	return id, nil
}

func (r *TripRepository) GetByID(ctx context.Context, id int64) (*domain.Trip, error) {
	row := r.db.QueryRowContext(ctx, selectTrip+`WHERE t.id = ?`, id)
	trip, err := scanTrip(row)
	if err != nil {
		return nil, err
	}
	return trip, nil
}

func (r *TripRepository) List(ctx context.Context) ([]domain.Trip, error) {
	rows, err := r.db.QueryContext(ctx, selectTrip+`ORDER BY t.created_at DESC, t.id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list trips: %w", err)
	}
	defer rows.Close()
	return collectTrips(rows)
}

func (r *TripRepository) ListByAuthorEmail(ctx context.Context, email string) ([]domain.Trip, error) {
	rows, err := r.db.QueryContext(ctx, selectTrip+`WHERE u.email = ? ORDER BY t.created_at DESC, t.id DESC`, email)
	if err != nil {
		return nil, fmt.Errorf("list trips by author: %w", err)
	}
	defer rows.Close()
	return collectTrips(rows)
}

func (r *TripRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM trips WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete trip: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func collectTrips(rows *sql.Rows) ([]domain.Trip, error) {
	var trips []domain.Trip
	for rows.Next() {
		trip, err := scanTrip(rows)
		if err != nil {
			return nil, err
		}
		trips = append(trips, *trip)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trips: %w", err)
	}
	return trips, nil
}

func scanTrip(row interface {
	Scan(dest ...any) error
}) (*domain.Trip, error) {
	var trip domain.Trip
	if err := row.Scan(
		&trip.ID,
		&trip.AuthorID,
		&trip.Title,
		&trip.Description,
		&trip.Location,
		&trip.TripDate,
		&trip.ImageURL,
		&trip.CreatedAt,
		&trip.AuthorName,
		&trip.AuthorEmail,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan trip: %w", err)
	}
	return &trip, nil
}
