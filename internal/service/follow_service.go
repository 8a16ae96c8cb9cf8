package service

import (
	"context"
	"strings"

	"sponti/internal/domain"
	"sponti/internal/repository"
)

// FollowService maintains follower relationships between users.
type FollowService interface {
	// Follow makes follower follow user. Following twice is a no-op.
	Follow(ctx context.Context, userEmail, followerEmail string) error
	Unfollow(ctx context.Context, userEmail, followerEmail string) error
	Followers(ctx context.Context, userEmail string) ([]domain.Follow, error)
	Following(ctx context.Context, followerEmail string) ([]domain.Follow, error)
}

type followService struct {
	follows repository.FollowRepository
}

func NewFollowService(follows repository.FollowRepository) FollowService {
	return &followService{follows: follows}
}

func (s *followService) Follow(ctx context.Context, userEmail, followerEmail string) error {
	return s.follows.Upsert(ctx, normalize(userEmail), normalize(followerEmail))
}

func (s *followService) Unfollow(ctx context.Context, userEmail, followerEmail string) error {
	return s.follows.Delete(ctx, normalize(userEmail), normalize(followerEmail))
}

func (s *followService) Followers(ctx context.Context, userEmail string) ([]domain.Follow, error) {
	return s.follows.Followers(ctx, normalize(userEmail))
}

func (s *followService) Following(ctx context.Context, followerEmail string) ([]domain.Follow, error) {
	return s.follows.Following(ctx, normalize(followerEmail))
}

func normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
