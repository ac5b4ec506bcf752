package ledger

import (
	"context"
	"errors"

	"github.com/grush1k033/club-management-sub000/internal/logger"
	"github.com/grush1k033/club-management-sub000/internal/metrics"
)

var (
	ErrInvalidAmount     = errors.New("amount must be positive")
	ErrInvalidType       = errors.New("unknown payment type")
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrSettlementFailed is the opaque error callers see when a
	// settlement aborts for an internal reason. The detail is logged,
	// never returned.
	ErrSettlementFailed = errors.New("settlement failed")
)

type Service interface {
	CreatePending(ctx context.Context, p CreateParams) (*Payment, error)
	SettleWithBalance(ctx context.Context, p SettleParams) (*Settlement, error)
	UpdateStatus(ctx context.Context, paymentID int, status PaymentStatus, externalRef *string) (*Payment, error)
	GetBalance(ctx context.Context, userID int) (*Balance, error)
	TopUp(ctx context.Context, userID int, amountCents int64) (*BalanceTransaction, error)
	GetPaymentByID(ctx context.Context, id int) (*Payment, error)
	ListUserPayments(ctx context.Context, userID, limit, offset int) ([]Payment, error)
	ListUserTransactions(ctx context.Context, userID, limit, offset int) ([]BalanceTransaction, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) CreatePending(ctx context.Context, p CreateParams) (*Payment, error) {
	if p.AmountCents <= 0 {
		return nil, ErrInvalidAmount
	}
	if !ValidType(p.Type) {
		return nil, ErrInvalidType
	}

	payment, err := s.repo.CreatePending(ctx, p)
	if err != nil {
		return nil, err
	}

	metrics.RecordPayment(string(payment.Type), string(payment.Method), string(payment.Status))
	return payment, nil
}

func (s *service) SettleWithBalance(ctx context.Context, p SettleParams) (*Settlement, error) {
	if p.AmountCents <= 0 {
		return nil, ErrInvalidAmount
	}
	if !ValidType(p.Type) {
		return nil, ErrInvalidType
	}

	settlement, err := s.repo.SettleWithBalance(ctx, p)
	if err != nil {
		return nil, s.settleError(err, p)
	}

	if !settlement.Replayed {
		metrics.RecordPayment(string(settlement.Payment.Type), string(MethodBalance), string(StatusCompleted))
	}
	return settlement, nil
}

// settleError passes domain errors through and collapses everything else
// into the opaque settlement failure.
func (s *service) settleError(err error, p SettleParams) error {
	switch {
	case errors.Is(err, ErrInsufficientFunds),
		errors.Is(err, ErrCurrencyMismatch),
		errors.Is(err, ErrUserNotFound),
		errors.Is(err, ErrDuplicateTransactionID):
		return err
	}

	logger.Error("balance settlement failed",
		"error", err,
		"user_id", p.UserID,
		"club_id", p.ClubID,
		"type", p.Type,
		"amount_cents", p.AmountCents,
	)
	metrics.RecordSettlementFailure()
	return ErrSettlementFailed
}

func (s *service) UpdateStatus(ctx context.Context, paymentID int, status PaymentStatus, externalRef *string) (*Payment, error) {
	if status != StatusCompleted && status != StatusFailed {
		return nil, ErrInvalidTransition
	}

	payment, err := s.repo.UpdateStatus(ctx, paymentID, status, externalRef)
	if err != nil {
		return nil, err
	}

	metrics.RecordPayment(string(payment.Type), string(payment.Method), string(payment.Status))
	return payment, nil
}

func (s *service) GetBalance(ctx context.Context, userID int) (*Balance, error) {
	return s.repo.GetBalance(ctx, userID)
}

func (s *service) TopUp(ctx context.Context, userID int, amountCents int64) (*BalanceTransaction, error) {
	if amountCents <= 0 {
		return nil, ErrInvalidAmount
	}

	entry, err := s.repo.TopUp(ctx, userID, amountCents)
	if err != nil {
		return nil, err
	}

	metrics.RecordTopUp()
	return entry, nil
}

func (s *service) GetPaymentByID(ctx context.Context, id int) (*Payment, error) {
	return s.repo.GetPaymentByID(ctx, id)
}

func (s *service) ListUserPayments(ctx context.Context, userID, limit, offset int) ([]Payment, error) {
	return s.repo.ListUserPayments(ctx, userID, limit, offset)
}

func (s *service) ListUserTransactions(ctx context.Context, userID, limit, offset int) ([]BalanceTransaction, error) {
	return s.repo.ListUserTransactions(ctx, userID, limit, offset)
}
