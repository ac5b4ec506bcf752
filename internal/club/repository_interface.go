package club

import "context"

type Repository interface {
	Create(ctx context.Context, p CreateClubRequest) (*Club, error)
	GetByID(ctx context.Context, id int) (*Club, error)
	List(ctx context.Context) ([]Club, error)
	MemberCount(ctx context.Context, clubID int) (int, error)
}
