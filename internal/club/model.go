package club

import "time"

type Club struct {
	ID              int       `db:"id" json:"id"`
	Name            string    `db:"name" json:"name"`
	Description     string    `db:"description" json:"description"`
	City            string    `db:"city" json:"city"`
	JoiningFeeCents int64     `db:"joining_fee_cents" json:"joining_fee_cents"`
	Currency        string    `db:"currency" json:"currency"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}

type CreateClubRequest struct {
	Name            string `json:"name" binding:"required,min=2,max=120"`
	Description     string `json:"description" binding:"max=2000"`
	City            string `json:"city" binding:"required,min=2,max=120"`
	JoiningFeeCents int64  `json:"joining_fee_cents" binding:"gte=0"`
	Currency        string `json:"currency" binding:"required,len=3,uppercase"`
}
