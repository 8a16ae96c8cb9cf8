package service

import (
	"context"
	"errors"
	"strings"

	"sponti/internal/domain"
	"sponti/internal/repository"
)

// ErrMissingTripFields is returned when a required trip form field is empty.
var ErrMissingTripFields = errors.New("title, description, location and date are required")

// CreateTripInput is the validated form input for a new trip post.
type CreateTripInput struct {
	AuthorID    int64
	Title       string
	Description string
	Location    string
	TripDate    string
	ImageURL    string
}

// TripService coordinates trip post operations backed by repositories.
type TripService interface {
	CreateTrip(ctx context.Context, in CreateTripInput) (*domain.Trip, error)
	GetTrip(ctx context.Context, id int64) (*domain.Trip, error)
	ListTrips(ctx context.Context) ([]domain.Trip, error)
	ListByAuthor(ctx context.Context, email string) ([]domain.Trip, error)
	DeleteTrip(ctx context.Context, id int64, requesterID int64) error
}

type tripService struct {
	trips repository.TripRepository
}

func NewTripService(trips repository.TripRepository) TripService {
	return &tripService{trips: trips}
}

func (s *tripService) CreateTrip(ctx context.Context, in CreateTripInput) (*domain.Trip, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.Location = strings.TrimSpace(in.Location)
	in.TripDate = strings.TrimSpace(in.TripDate)

	if in.Title == "" || in.Description == "" || in.Location == "" || in.TripDate == "" {
		return nil, ErrMissingTripFields
	}

	trip := &domain.Trip{
		AuthorID:    in.AuthorID,
		Title:       in.Title,
		Description: in.Description,
		Location:    in.Location,
		TripDate:    in.TripDate,
		ImageURL:    in.ImageURL,
	}

	if _, err := s.trips.Create(ctx, trip); err != nil {
		return nil, err
	}
	return trip, nil
}

func (s *tripService) GetTrip(ctx context.Context, id int64) (*domain.Trip, error) {
	return s.trips.GetByID(ctx, id)
}

func (s *tripService) ListTrips(ctx context.Context) ([]domain.Trip, error) {
	return s.trips.List(ctx)
}

func (s *tripService) ListByAuthor(ctx context.Context, email string) ([]domain.Trip, error) {
	return s.trips.ListByAuthorEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
}

func (s *tripService) DeleteTrip(ctx context.Context, id int64, requesterID int64) error {
	trip, err := s.trips.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if trip.AuthorID != requesterID {
		return repository.ErrNotFound
	}
	return s.trips.Delete(ctx, id)
}
