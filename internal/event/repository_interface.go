package event

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, clubID int, title, description string, feeCents int64, currency string, freeForMembers bool, maxParticipants int, startsAt, endsAt time.Time) (*Event, error)
	GetByID(ctx context.Context, id int) (*Event, error)
	List(ctx context.Context, clubID *int, onlyUpcoming bool) ([]EventWithAvailability, error)
	SetStatus(ctx context.Context, id int, status EventStatus) error
}
