package ledger

import "time"

type PaymentType string
type PaymentStatus string
type PaymentMethod string

const (
	TypeEventFee PaymentType = "event_fee"
	TypeClubFee  PaymentType = "club_fee"
	TypeDonation PaymentType = "donation"

	StatusPending   PaymentStatus = "pending"
	StatusCompleted PaymentStatus = "completed"
	StatusFailed    PaymentStatus = "failed"

	MethodBalance  PaymentMethod = "balance"
	MethodExternal PaymentMethod = "external"
)

// ValidType reports whether t is one of the closed payment types.
func ValidType(t PaymentType) bool {
	switch t {
	case TypeEventFee, TypeClubFee, TypeDonation:
		return true
	}
	return false
}

// ValidMethod reports whether m is a known payment method.
func ValidMethod(m PaymentMethod) bool {
	switch m {
	case MethodBalance, MethodExternal:
		return true
	}
	return false
}

// Payment — одно движение денег. Completed balance payments are immutable.
type Payment struct {
	ID            int           `db:"id" json:"id"`
	UserID        int           `db:"user_id" json:"user_id"`
	ClubID        int           `db:"club_id" json:"club_id"`
	EventID       *int          `db:"event_id" json:"event_id,omitempty"`
	Type          PaymentType   `db:"type" json:"type"`
	AmountCents   int64         `db:"amount_cents" json:"amount_cents"`
	Currency      string        `db:"currency" json:"currency"`
	Status        PaymentStatus `db:"status" json:"status"`
	Method        PaymentMethod `db:"method" json:"method"`
	Description   string        `db:"description" json:"description"`
	IsCrossClub   bool          `db:"is_cross_club" json:"is_cross_club"`
	TransactionID *string       `db:"transaction_id" json:"transaction_id,omitempty"`
	CreatedAt     time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time     `db:"updated_at" json:"updated_at"`
}

// BalanceTransaction is an immutable ledger row. Replaying the signed
// amounts of a user's rows reconstructs the current balance.
type BalanceTransaction struct {
	ID                 int       `db:"id" json:"id"`
	UserID             int       `db:"user_id" json:"user_id"`
	PaymentID          *int      `db:"payment_id" json:"payment_id,omitempty"`
	ClubID             *int      `db:"club_id" json:"club_id,omitempty"`
	EventID            *int      `db:"event_id" json:"event_id,omitempty"`
	AmountCents        int64     `db:"amount_cents" json:"amount_cents"`
	BalanceBeforeCents int64     `db:"balance_before_cents" json:"balance_before_cents"`
	BalanceAfterCents  int64     `db:"balance_after_cents" json:"balance_after_cents"`
	Currency           string    `db:"currency" json:"currency"`
	CreatedAt          time.Time `db:"created_at" json:"created_at"`
}

// Balance is a user's stored balance as read from the users row.
type Balance struct {
	UserID       int    `db:"id" json:"user_id"`
	BalanceCents int64  `db:"balance_cents" json:"balance_cents"`
	Currency     string `db:"currency" json:"currency"`
}

// CreateParams describes a payment to be created without immediate
// balance effect (external settlement).
type CreateParams struct {
	UserID        int
	ClubID        int
	EventID       *int
	Type          PaymentType
	AmountCents   int64
	Currency      string
	Description   string
	TransactionID *string
}

// SettleParams describes an atomic balance settlement.
type SettleParams struct {
	UserID      int
	ClubID      int
	EventID     *int
	Type        PaymentType
	AmountCents int64
	Currency    string
	Description string
	// TransactionID is the caller's idempotency key. A retry with the
	// same key returns the original settlement instead of charging again.
	TransactionID *string
}

// Settlement is the result of a balance settlement: the completed
// payment plus the ledger row it produced.
type Settlement struct {
	Payment Payment            `json:"payment"`
	Entry   BalanceTransaction `json:"balance_transaction"`
	// Replayed is true when an idempotent retry matched an existing
	// payment and no money moved.
	Replayed bool `json:"replayed,omitempty"`
}
