package event

import "time"

type EventStatus string

const (
	StatusScheduled EventStatus = "scheduled"
	StatusCompleted EventStatus = "completed"
	StatusCancelled EventStatus = "cancelled"
)

type Event struct {
	ID              int         `db:"id" json:"id"`
	ClubID          int         `db:"club_id" json:"club_id"`
	Title           string      `db:"title" json:"title"`
	Description     string      `db:"description" json:"description"`
	Status          EventStatus `db:"status" json:"status"`
	FeeCents        int64       `db:"fee_cents" json:"fee_cents"`
	Currency        string      `db:"currency" json:"currency"`
	FreeForMembers  bool        `db:"free_for_members" json:"free_for_members"`
	MaxParticipants int         `db:"max_participants" json:"max_participants"`
	StartsAt        time.Time   `db:"starts_at" json:"starts_at"`
	EndsAt          time.Time   `db:"ends_at" json:"ends_at"`
	CreatedAt       time.Time   `db:"created_at" json:"created_at"`
}

type EventWithAvailability struct {
	Event
	RegisteredCount int  `db:"registered_count" json:"registered_count"`
	SpotsLeft       int  `json:"spots_left"`
	IsFull          bool `json:"is_full"`
}

type CreateEventRequest struct {
	ClubID          int    `json:"club_id" binding:"required,gt=0"`
	Title           string `json:"title" binding:"required,min=2,max=200"`
	Description     string `json:"description" binding:"max=4000"`
	FeeCents        int64  `json:"fee_cents" binding:"gte=0"`
	Currency        string `json:"currency" binding:"required,len=3,uppercase"`
	FreeForMembers  bool   `json:"free_for_members"`
	MaxParticipants int    `json:"max_participants" binding:"required,min=1"`
	StartsAt        string `json:"starts_at" binding:"required"`
	EndsAt          string `json:"ends_at" binding:"required"`
}
