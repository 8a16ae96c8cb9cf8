package domain

import "time"

// Follow records that FollowerEmail follows UserEmail.
type Follow struct {
	UserEmail     string
	FollowerEmail string
	CreatedAt     time.Time
}
