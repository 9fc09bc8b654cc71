package models

import "time"

// Relationship is a directed follow edge: FollowerID follows FollowedID.
type Relationship struct {
	ID         int64
	FollowerID string
	FollowedID string
	CreatedAt  time.Time
}
