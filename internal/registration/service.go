package registration

import (
	"context"
	"errors"
	"fmt"

	"github.com/grush1k033/club-management-sub000/internal/email"
	"github.com/grush1k033/club-management-sub000/internal/event"
	"github.com/grush1k033/club-management-sub000/internal/ledger"
	"github.com/grush1k033/club-management-sub000/internal/logger"
	"github.com/grush1k033/club-management-sub000/internal/metrics"
	"github.com/grush1k033/club-management-sub000/internal/user"
)

var ErrNotOwner = errors.New("registration belongs to another user")

type Service interface {
	Register(ctx context.Context, userID, eventID int, transactionID *string) (*RegisterResponse, error)
	Cancel(ctx context.Context, userID, registrationID int) error
	MarkAttended(ctx context.Context, registrationID int) error
	GetUserRegistrations(ctx context.Context, userID int) ([]RegistrationWithEvent, error)
	ListByEvent(ctx context.Context, eventID int) ([]ParticipantWithUser, error)
}

type service struct {
	repo         Repository
	eventRepo    event.Repository
	userRepo     user.Repository
	emailService *email.Service
}

func NewService(repo Repository, eventRepo event.Repository, userRepo user.Repository, emailService *email.Service) Service {
	return &service{
		repo:         repo,
		eventRepo:    eventRepo,
		userRepo:     userRepo,
		emailService: emailService,
	}
}

// Register decides whether the registration carries a fee and runs the
// transactional registration. A member of the owning club is exempt when
// the event is free for members; everyone else pays the full fee from
// their balance.
func (s *service) Register(ctx context.Context, userID, eventID int, transactionID *string) (*RegisterResponse, error) {
	ev, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, event.ErrEventNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}

	u, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	feeCents := ev.FeeCents
	isOwnClubMember := u.ClubID != nil && *u.ClubID == ev.ClubID
	if isOwnClubMember && ev.FreeForMembers {
		feeCents = 0
	}

	params := RegisterParams{EventID: eventID, UserID: userID}
	if feeCents > 0 {
		evID := ev.ID
		params.Settle = &ledger.SettleParams{
			UserID:        userID,
			ClubID:        ev.ClubID,
			EventID:       &evID,
			Type:          ledger.TypeEventFee,
			AmountCents:   feeCents,
			Currency:      ev.Currency,
			Description:   fmt.Sprintf("Event fee: %s", ev.Title),
			TransactionID: transactionID,
		}
	}

	result, err := s.repo.Register(ctx, params)
	if err != nil {
		return nil, s.registerError(err, userID, eventID)
	}

	metrics.RecordRegistration(result.Action)

	s.emailService.SendEventRegistration(ctx, u.Email, u.Name, ev.Title, ev.StartsAt)

	resp := &RegisterResponse{
		RegistrationID:      result.Participant.ID,
		Action:              result.Action,
		NeedsPayment:        params.Settle != nil,
		FeeAmountCents:      feeCents,
		CurrentParticipants: result.CurrentParticipants,
	}
	if result.Settlement != nil {
		paymentID := result.Settlement.Payment.ID
		resp.PaymentID = &paymentID
	}
	return resp, nil
}

// registerError keeps domain errors intact and hides internal
// transaction failures behind the opaque settlement error.
func (s *service) registerError(err error, userID, eventID int) error {
	switch {
	case errors.Is(err, ErrEventNotFound),
		errors.Is(err, ErrEventNotOpen),
		errors.Is(err, ErrCapacityExceeded),
		errors.Is(err, ErrAlreadyRegistered),
		errors.Is(err, ErrAlreadyAttended),
		errors.Is(err, ledger.ErrInsufficientFunds),
		errors.Is(err, ledger.ErrCurrencyMismatch),
		errors.Is(err, ledger.ErrDuplicateTransactionID),
		errors.Is(err, ledger.ErrUserNotFound):
		return err
	}

	logger.Error("event registration failed",
		"error", err,
		"user_id", userID,
		"event_id", eventID,
	)
	metrics.RecordSettlementFailure()
	return ledger.ErrSettlementFailed
}

func (s *service) Cancel(ctx context.Context, userID, registrationID int) error {
	participant, err := s.repo.GetByID(ctx, registrationID)
	if err != nil {
		return err
	}

	if participant.UserID != userID {
		return ErrNotOwner
	}

	// No auto-refund on cancellation.
	if err := s.repo.Cancel(ctx, registrationID); err != nil {
		return err
	}

	metrics.RecordRegistrationCancellation()

	if u, err := s.userRepo.FindByID(ctx, userID); err == nil {
		if ev, err := s.eventRepo.GetByID(ctx, participant.EventID); err == nil {
			s.emailService.SendRegistrationCancelled(ctx, u.Email, u.Name, ev.Title)
		}
	}
	return nil
}

func (s *service) MarkAttended(ctx context.Context, registrationID int) error {
	return s.repo.MarkAttended(ctx, registrationID)
}

func (s *service) GetUserRegistrations(ctx context.Context, userID int) ([]RegistrationWithEvent, error) {
	return s.repo.GetUserRegistrations(ctx, userID)
}

func (s *service) ListByEvent(ctx context.Context, eventID int) ([]ParticipantWithUser, error) {
	return s.repo.ListByEvent(ctx, eventID)
}
