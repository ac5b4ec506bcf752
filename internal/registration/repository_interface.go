package registration

import "context"

type Repository interface {
	Register(ctx context.Context, p RegisterParams) (*RegisterResult, error)
	GetByID(ctx context.Context, id int) (*Participant, error)
	Cancel(ctx context.Context, id int) error
	MarkAttended(ctx context.Context, id int) error
	CountRegistered(ctx context.Context, eventID int) (int, error)
	GetUserRegistrations(ctx context.Context, userID int) ([]RegistrationWithEvent, error)
	ListByEvent(ctx context.Context, eventID int) ([]ParticipantWithUser, error)
}
