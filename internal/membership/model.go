package membership

import (
	"time"

	"github.com/grush1k033/club-management-sub000/internal/ledger"
)

type JoinRequestStatus string

const (
	StatusPending   JoinRequestStatus = "pending"
	StatusApproved  JoinRequestStatus = "approved"
	StatusCancelled JoinRequestStatus = "cancelled"
)

// ClubJoinRequest — заявка пользователя на вступление в клуб. At most
// one pending and one approved row per (user, club).
type ClubJoinRequest struct {
	ID          int               `db:"id" json:"id"`
	UserID      int               `db:"user_id" json:"user_id"`
	ClubID      int               `db:"club_id" json:"club_id"`
	Status      JoinRequestStatus `db:"status" json:"status"`
	PaymentID   *int              `db:"payment_id" json:"payment_id,omitempty"`
	Reason      *string           `db:"reason" json:"reason,omitempty"`
	ProcessedBy *int              `db:"processed_by" json:"processed_by,omitempty"`
	ProcessedAt *time.Time        `db:"processed_at" json:"processed_at,omitempty"`
	CreatedAt   time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time         `db:"updated_at" json:"updated_at"`
}

// ApproveParams drives the transactional join settlement. Settle is nil
// when the club charges no joining fee.
type ApproveParams struct {
	RequestID int
	UserID    int
	ClubID    int
	ActorID   int
	Settle    *ledger.SettleParams
}

type ApproveResult struct {
	Request    ClubJoinRequest
	Settlement *ledger.Settlement
}

// JoinResult is the wire shape of a successful joining-fee settlement.
type JoinResult struct {
	Request ClubJoinRequest `json:"request"`
	Payment *ledger.Payment `json:"payment,omitempty"`
	User    JoinedUser      `json:"user"`
}

type JoinedUser struct {
	ID           int     `json:"id"`
	ClubID       *int    `json:"club_id"`
	ClubName     *string `json:"club_name,omitempty"`
	BalanceCents int64   `json:"balance_cents"`
	Currency     string  `json:"currency"`
}

type PayJoiningFeeRequest struct {
	TransactionID *string `json:"transaction_id,omitempty" binding:"omitempty,min=8,max=128"`
}
