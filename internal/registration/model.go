package registration

import (
	"time"

	"github.com/grush1k033/club-management-sub000/internal/ledger"
)

type ParticipantStatus string

const (
	StatusRegistered ParticipantStatus = "registered"
	StatusCancelled  ParticipantStatus = "cancelled"
	StatusAttended   ParticipantStatus = "attended"
)

// Participant ties a user to an event. Unique per (event, user);
// re-registration after cancellation reuses the row.
type Participant struct {
	ID        int               `db:"id" json:"id"`
	EventID   int               `db:"event_id" json:"event_id"`
	UserID    int               `db:"user_id" json:"user_id"`
	Status    ParticipantStatus `db:"status" json:"status"`
	CreatedAt time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt time.Time         `db:"updated_at" json:"updated_at"`
}

type ParticipantWithUser struct {
	Participant
	UserName  string `db:"user_name" json:"user_name"`
	UserEmail string `db:"user_email" json:"user_email"`
}

type RegistrationWithEvent struct {
	Participant
	EventTitle    string    `db:"event_title" json:"event_title"`
	EventStartsAt time.Time `db:"event_starts_at" json:"event_starts_at"`
	ClubName      string    `db:"club_name" json:"club_name"`
}

const (
	ActionRegistered   = "registered"
	ActionReRegistered = "re-registered"
)

// RegisterParams drives the transactional registration. Settle is nil
// when no fee applies.
type RegisterParams struct {
	EventID int
	UserID  int
	Settle  *ledger.SettleParams
}

// RegisterResult is what the repository reports back after commit.
type RegisterResult struct {
	Participant         Participant
	Action              string
	CurrentParticipants int
	Settlement          *ledger.Settlement
}

// RegisterResponse is the wire shape of a successful registration.
type RegisterResponse struct {
	RegistrationID      int    `json:"registration_id"`
	Action              string `json:"action" example:"registered"`
	NeedsPayment        bool   `json:"needs_payment"`
	PaymentID           *int   `json:"payment_id,omitempty"`
	FeeAmountCents      int64  `json:"fee_amount_cents"`
	CurrentParticipants int    `json:"current_participants"`
}

type RegisterRequest struct {
	TransactionID *string `json:"transaction_id,omitempty" binding:"omitempty,min=8,max=128"`
}

type CancelResponse struct {
	Message string `json:"message" example:"Registration cancelled successfully"`
}
