package models

import "time"

// Micropost is a short authored post owned by exactly one user.
type Micropost struct {
	ID        int64
	UserID    string
	Content   string
	CreatedAt time.Time
}
