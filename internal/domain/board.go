package domain

import "time"

// Board groups tasks and members around a shared project.
type Board struct {
	ID          string
	OwnerID     string
	Name        string
	Description string
	Archived    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
