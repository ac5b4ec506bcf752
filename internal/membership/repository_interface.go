package membership

import "context"

type Repository interface {
	GetPending(ctx context.Context, userID, clubID int) (*ClubJoinRequest, error)
	GetOrCreatePending(ctx context.Context, userID, clubID int) (*ClubJoinRequest, error)
	HasApproved(ctx context.Context, userID, clubID int) (bool, error)
	ApproveAndJoin(ctx context.Context, p ApproveParams) (*ApproveResult, error)
	MarkCancelled(ctx context.Context, requestID int, reason string) error
	CancelPending(ctx context.Context, userID, clubID int) error
	ListForUser(ctx context.Context, userID int) ([]ClubJoinRequest, error)
	ListPendingByClub(ctx context.Context, clubID int) ([]ClubJoinRequest, error)
}
