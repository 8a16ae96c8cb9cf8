package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"sponti/internal/domain"
	"sponti/internal/repository"
)

const createFollowsTable = `
CREATE TABLE IF NOT EXISTS follows (
	user_email TEXT NOT NULL,
	follower_email TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	PRIMARY KEY (user_email, follower_email)
);
`

type FollowRepository struct {
	db *sql.DB
}

func NewFollowRepository(db *sql.DB) repository.FollowRepository {
	return &FollowRepository{db: db}
}

func (r *FollowRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createFollowsTable); err != nil {
		return fmt.Errorf("create follows table: %w", err)
	}
	return nil
}

func (r *FollowRepository) Upsert(ctx context.Context, userEmail, followerEmail string) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO follows (user_email, follower_email, created_at)
VALUES (?, ?, ?)
ON CONFLICT (user_email, follower_email) DO NOTHING`,
		userEmail, followerEmail, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert follow: %w", err)
	}
	return nil
}

func (r *FollowRepository) Delete(ctx context.Context, userEmail, followerEmail string) error {
	if _, err := r.db.ExecContext(ctx, `
DELETE FROM follows WHERE user_email = ? AND follower_email = ?`,
		userEmail, followerEmail,
	); err != nil {
		return fmt.Errorf("delete follow: %w", err)
	}
	return nil
}

func (r *FollowRepository) Followers(ctx context.Context, userEmail string) ([]domain.Follow, error) {
	return r.query(ctx, `
SELECT user_email, follower_email, created_at
FROM follows WHERE user_email = ?`, userEmail)
}

func (r *FollowRepository) Following(ctx context.Context, followerEmail string) ([]domain.Follow, error) {
	return r.query(ctx, `
SELECT user_email, follower_email, created_at
FROM follows WHERE follower_email = ?`, followerEmail)
}

func (r *FollowRepository) query(ctx context.Context, q string, arg string) ([]domain.Follow, error) {
	rows, err := r.db.QueryContext(ctx, q, arg)
	if err != nil {
		return nil, fmt.Errorf("query follows: %w", err)
	}
	defer rows.Close()

	var follows []domain.Follow
	for rows.Next() {
		var f domain.Follow
		if err := rows.Scan(&f.UserEmail, &f.FollowerEmail, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan follow: %w", err)
		}
		follows = append(follows, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate follows: %w", err)
	}
	return follows, nil
}
