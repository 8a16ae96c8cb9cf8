package repository

import (
	"context"

	"sponti/internal/domain"
)

// FollowRepository defines persistence operations for follow relationships.
type FollowRepository interface {
	Init(ctx context.Context) error
	// Upsert records that follower follows user; inserting an existing pair
	// is a no-op.
	Upsert(ctx context.Context, userEmail, followerEmail string) error
	Delete(ctx context.Context, userEmail, followerEmail string) error
	// Followers lists everyone following userEmail.
	Followers(ctx context.Context, userEmail string) ([]domain.Follow, error)
	// Following lists everyone followerEmail follows.
	Following(ctx context.Context, followerEmail string) ([]domain.Follow, error)
}
