package api

type ErrorResponse struct {
	Error string `json:"error" example:"something went wrong"`
}

type ValidationErrorResponse struct {
	Error   string       `json:"error" example:"validation failed"`
	Details []FieldError `json:"details,omitempty"`
}

type FieldError struct {
	Field   string `json:"field" example:"amount_cents"`
	Tag     string `json:"tag" example:"required"`
	Message string `json:"message" example:"amount_cents is required"`
}

type InsufficientFundsResponse struct {
	Error          string `json:"error" example:"insufficient balance"`
	RequiredCents  int64  `json:"required_cents" example:"2500"`
	AvailableCents int64  `json:"available_cents" example:"1000"`
}

type MessageResponse struct {
	Message string `json:"message" example:"ok"`
}

type HealthResponse struct {
	Status string `json:"status" example:"ok"`
}
