package domain

import "time"

// Trip is a single shared trip post.
type Trip struct {
	ID          int64
	AuthorID    int64
	Title       string
	Description string
	Location    string
	TripDate    string
	ImageURL    string
	CreatedAt   time.Time

	// Author fields are populated by list queries joining the users table.
	AuthorName   string
	AuthorEmail  string
	AuthorAvatar string
}
