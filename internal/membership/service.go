package membership

import (
	"context"
	"errors"
	"fmt"

	"github.com/grush1k033/club-management-sub000/internal/club"
	"github.com/grush1k033/club-management-sub000/internal/email"
	"github.com/grush1k033/club-management-sub000/internal/ledger"
	"github.com/grush1k033/club-management-sub000/internal/logger"
	"github.com/grush1k033/club-management-sub000/internal/metrics"
	"github.com/grush1k033/club-management-sub000/internal/user"
)

var (
	ErrClubNotFound     = errors.New("club not found")
	ErrDuplicateRequest = errors.New("a pending join request already exists")
	ErrAlreadyApproved  = errors.New("join request already approved for this club")
)

type Service interface {
	RequestToJoin(ctx context.Context, userID, clubID int) (*ClubJoinRequest, error)
	CancelJoinRequest(ctx context.Context, userID, clubID int) error
	PayJoiningFee(ctx context.Context, userID, clubID int, transactionID *string) (*JoinResult, error)
	ListForUser(ctx context.Context, userID int) ([]ClubJoinRequest, error)
	ListPendingByClub(ctx context.Context, clubID int) ([]ClubJoinRequest, error)
}

type service struct {
	repo         Repository
	clubRepo     club.Repository
	userRepo     user.Repository
	emailService *email.Service
}

func NewService(repo Repository, clubRepo club.Repository, userRepo user.Repository, emailService *email.Service) Service {
	return &service{
		repo:         repo,
		clubRepo:     clubRepo,
		userRepo:     userRepo,
		emailService: emailService,
	}
}

func (s *service) RequestToJoin(ctx context.Context, userID, clubID int) (*ClubJoinRequest, error) {
	u, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u.ClubID != nil {
		return nil, ErrAlreadyMember
	}

	if _, err := s.clubRepo.GetByID(ctx, clubID); err != nil {
		if errors.Is(err, club.ErrClubNotFound) {
			return nil, ErrClubNotFound
		}
		return nil, err
	}

	if _, err := s.repo.GetPending(ctx, userID, clubID); err == nil {
		return nil, ErrDuplicateRequest
	} else if !errors.Is(err, ErrRequestNotFound) {
		return nil, err
	}

	req, err := s.repo.GetOrCreatePending(ctx, userID, clubID)
	if err != nil {
		return nil, err
	}

	metrics.RecordJoinRequest(string(StatusPending))
	return req, nil
}

func (s *service) CancelJoinRequest(ctx context.Context, userID, clubID int) error {
	if err := s.repo.CancelPending(ctx, userID, clubID); err != nil {
		return err
	}
	metrics.RecordJoinRequest(string(StatusCancelled))
	return nil
}

// PayJoiningFee settles the club's joining fee from the user's balance
// and grants membership in the same transaction. The pending request is
// secured first so a settlement failure has a row to mark cancelled.
func (s *service) PayJoiningFee(ctx context.Context, userID, clubID int, transactionID *string) (*JoinResult, error) {
	u, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u.ClubID != nil {
		return nil, ErrAlreadyMember
	}

	cl, err := s.clubRepo.GetByID(ctx, clubID)
	if err != nil {
		if errors.Is(err, club.ErrClubNotFound) {
			return nil, ErrClubNotFound
		}
		return nil, err
	}

	approved, err := s.repo.HasApproved(ctx, userID, clubID)
	if err != nil {
		return nil, err
	}
	if approved {
		return nil, ErrAlreadyApproved
	}

	req, err := s.repo.GetOrCreatePending(ctx, userID, clubID)
	if err != nil {
		return nil, err
	}

	params := ApproveParams{
		RequestID: req.ID,
		UserID:    userID,
		ClubID:    clubID,
		ActorID:   userID,
	}
	if cl.JoiningFeeCents > 0 {
		params.Settle = &ledger.SettleParams{
			UserID:        userID,
			ClubID:        clubID,
			Type:          ledger.TypeClubFee,
			AmountCents:   cl.JoiningFeeCents,
			Currency:      cl.Currency,
			Description:   fmt.Sprintf("Joining fee: %s", cl.Name),
			TransactionID: transactionID,
		}
	}

	result, err := s.repo.ApproveAndJoin(ctx, params)
	if err != nil {
		return nil, s.joinError(ctx, err, req.ID, userID, clubID)
	}

	metrics.RecordJoinRequest(string(StatusApproved))

	s.emailService.SendMembershipApproved(ctx, u.Email, u.Name, cl.Name)

	profile, err := s.userRepo.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	joinResult := &JoinResult{
		Request: result.Request,
		User: JoinedUser{
			ID:           profile.ID,
			ClubID:       profile.ClubID,
			ClubName:     profile.ClubName,
			BalanceCents: profile.BalanceCents,
			Currency:     profile.Currency,
		},
	}
	if result.Settlement != nil {
		joinResult.Payment = &result.Settlement.Payment
	}
	return joinResult, nil
}

// joinError marks the pending request cancelled when the settlement
// itself failed, keeps domain errors intact and hides internal failures.
func (s *service) joinError(ctx context.Context, err error, requestID, userID, clubID int) error {
	switch {
	case errors.Is(err, ErrAlreadyMember),
		errors.Is(err, ErrRequestNotFound),
		errors.Is(err, ErrRequestNotPending),
		errors.Is(err, ledger.ErrUserNotFound),
		errors.Is(err, ledger.ErrDuplicateTransactionID):
		return err
	case errors.Is(err, ledger.ErrInsufficientFunds),
		errors.Is(err, ledger.ErrCurrencyMismatch):
		if markErr := s.repo.MarkCancelled(ctx, requestID, err.Error()); markErr != nil {
			logger.Error("failed to mark join request cancelled",
				"error", markErr,
				"request_id", requestID,
			)
		}
		metrics.RecordJoinRequest(string(StatusCancelled))
		return err
	}

	logger.Error("joining fee settlement failed",
		"error", err,
		"user_id", userID,
		"club_id", clubID,
	)
	metrics.RecordSettlementFailure()
	if markErr := s.repo.MarkCancelled(ctx, requestID, "settlement failed"); markErr != nil {
		logger.Error("failed to mark join request cancelled",
			"error", markErr,
			"request_id", requestID,
		)
	}
	return ledger.ErrSettlementFailed
}

func (s *service) ListForUser(ctx context.Context, userID int) ([]ClubJoinRequest, error) {
	return s.repo.ListForUser(ctx, userID)
}

func (s *service) ListPendingByClub(ctx context.Context, clubID int) ([]ClubJoinRequest, error) {
	return s.repo.ListPendingByClub(ctx, clubID)
}
