package domain

import (
	"strconv"
	"time"
)

// User represents a registered account of the application.
type User struct {
	ID           int64
	Email        string
	Name         string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// AvatarURL returns a deterministic placeholder avatar for the user.
func (u *User) AvatarURL() string {
	return "https://i.pravatar.cc/150?img=" + strconv.FormatInt(u.ID, 10)
}
