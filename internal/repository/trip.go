package repository

import (
	"context"

	"sponti/internal/domain"
)

// TripRepository defines persistence operations for Trip entities.
type TripRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, trip *domain.Trip) (int64, error)
	GetByID(ctx context.Context, id int64) (*domain.Trip, error)
	List(ctx context.Context) ([]domain.Trip, error)
	ListByAuthorEmail(ctx context.Context, email string) ([]domain.Trip, error)
	Delete(ctx context.Context, id int64) error
}
