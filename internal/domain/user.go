package domain

import "time"

// User represents a patient (or the relative booking on their behalf).
type User struct {
	ID         int64
	Name       string
	Phone      string
	LineUserID string
	CreatedAt  time.Time
}
