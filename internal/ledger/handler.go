package ledger

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/grush1k033/club-management-sub000/internal/api"
	"github.com/grush1k033/club-management-sub000/internal/auth"
	"github.com/grush1k033/club-management-sub000/internal/club"
	"github.com/grush1k033/club-management-sub000/internal/event"
)

type Handler struct {
	svc       Service
	eventRepo event.Repository
	clubRepo  club.Repository
}

func NewHandler(svc Service, eventRepo event.Repository, clubRepo club.Repository) *Handler {
	return &Handler{
		svc:       svc,
		eventRepo: eventRepo,
		clubRepo:  clubRepo,
	}
}

type PayForEventRequest struct {
	Method        PaymentMethod `json:"method" binding:"required"`
	TransactionID *string       `json:"transaction_id,omitempty" binding:"omitempty,min=8,max=128"`
}

type DonateRequest struct {
	AmountCents   int64   `json:"amount_cents" binding:"required,gt=0"`
	TransactionID *string `json:"transaction_id,omitempty" binding:"omitempty,min=8,max=128"`
}

type TopUpRequest struct {
	AmountCents int64 `json:"amount_cents" binding:"required,gt=0"`
}

type UpdateStatusRequest struct {
	Status      PaymentStatus `json:"status" binding:"required"`
	ExternalRef *string       `json:"external_ref,omitempty" binding:"omitempty,min=1,max=128"`
}

// PayForEvent godoc
// @Summary      Pay event fee
// @Description  Pays an event fee directly: from balance (settled atomically) or as a pending external payment.
// @Tags         payments
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        eventID  path      int                 true  "Event ID"
// @Param        body     body      PayForEventRequest  true  "Payment method"
// @Success      201      {object}  Payment
// @Failure      400      {object}  api.ErrorResponse
// @Failure      402      {object}  api.InsufficientFundsResponse
// @Failure      404      {object}  api.ErrorResponse
// @Failure      500      {object}  api.ErrorResponse
// @Router       /events/{eventID}/pay [post]
func (h *Handler) PayForEvent(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "user not authenticated"})
		return
	}

	eventID, err := strconv.Atoi(c.Param("eventID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid event ID"})
		return
	}

	var req PayForEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid payment payload: " + err.Error()})
		return
	}
	if !ValidMethod(req.Method) {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "method must be 'balance' or 'external'"})
		return
	}

	ev, err := h.eventRepo.GetByID(c.Request.Context(), eventID)
	if err != nil {
		if errors.Is(err, event.ErrEventNotFound) {
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "event not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to fetch event"})
		return
	}

	if ev.FeeCents <= 0 {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "event has no fee"})
		return
	}

	evID := ev.ID
	description := "Event fee: " + ev.Title

	if req.Method == MethodBalance {
		settlement, err := h.svc.SettleWithBalance(c.Request.Context(), SettleParams{
			UserID:        userID,
			ClubID:        ev.ClubID,
			EventID:       &evID,
			Type:          TypeEventFee,
			AmountCents:   ev.FeeCents,
			Currency:      ev.Currency,
			Description:   description,
			TransactionID: req.TransactionID,
		})
		if err != nil {
			h.respondSettleError(c, err)
			return
		}
		c.JSON(http.StatusCreated, settlement.Payment)
		return
	}

	payment, err := h.svc.CreatePending(c.Request.Context(), CreateParams{
		UserID:        userID,
		ClubID:        ev.ClubID,
		EventID:       &evID,
		Type:          TypeEventFee,
		AmountCents:   ev.FeeCents,
		Currency:      ev.Currency,
		Description:   description,
		TransactionID: req.TransactionID,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to create payment"})
		return
	}

	c.JSON(http.StatusCreated, payment)
}

// Donate godoc
// @Summary      Donate to club
// @Description  Settles a donation to a club from the user's balance.
// @Tags         payments
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        clubID  path      int            true  "Club ID"
// @Param        body    body      DonateRequest  true  "Donation"
// @Success      201     {object}  Payment
// @Failure      400     {object}  api.ErrorResponse
// @Failure      402     {object}  api.InsufficientFundsResponse
// @Failure      404     {object}  api.ErrorResponse
// @Failure      500     {object}  api.ErrorResponse
// @Router       /clubs/{clubID}/donate [post]
func (h *Handler) Donate(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "user not authenticated"})
		return
	}

	clubID, err := strconv.Atoi(c.Param("clubID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid club ID"})
		return
	}

	var req DonateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid donation payload: " + err.Error()})
		return
	}

	cl, err := h.clubRepo.GetByID(c.Request.Context(), clubID)
	if err != nil {
		if errors.Is(err, club.ErrClubNotFound) {
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "club not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to fetch club"})
		return
	}

	settlement, err := h.svc.SettleWithBalance(c.Request.Context(), SettleParams{
		UserID:        userID,
		ClubID:        cl.ID,
		Type:          TypeDonation,
		AmountCents:   req.AmountCents,
		Currency:      cl.Currency,
		Description:   "Donation: " + cl.Name,
		TransactionID: req.TransactionID,
	})
	if err != nil {
		h.respondSettleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, settlement.Payment)
}

// TopUp godoc
// @Summary      Top up balance
// @Tags         payments
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        body  body      TopUpRequest  true  "Amount"
// @Success      200   {object}  BalanceTransaction
// @Failure      400   {object}  api.ErrorResponse
// @Failure      500   {object}  api.ErrorResponse
// @Router       /me/balance/topup [post]
func (h *Handler) TopUp(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "user not authenticated"})
		return
	}

	var req TopUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "amount_cents must be positive"})
		return
	}

	entry, err := h.svc.TopUp(c.Request.Context(), userID, req.AmountCents)
	if err != nil {
		if errors.Is(err, ErrInvalidAmount) {
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "amount_cents must be positive"})
			return
		}
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to top up balance"})
		return
	}

	c.JSON(http.StatusOK, entry)
}

// ListMyPayments godoc
// @Summary      List my payments
// @Tags         payments
// @Security     BearerAuth
// @Produce      json
// @Param        limit   query     int  false  "Page size"
// @Param        offset  query     int  false  "Offset"
// @Success      200     {array}   Payment
// @Failure      500     {object}  api.ErrorResponse
// @Router       /me/payments [get]
func (h *Handler) ListMyPayments(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "user not authenticated"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	payments, err := h.svc.ListUserPayments(c.Request.Context(), userID, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to fetch payments"})
		return
	}

	c.JSON(http.StatusOK, payments)
}

// ListMyTransactions godoc
// @Summary      List my balance transactions
// @Tags         payments
// @Security     BearerAuth
// @Produce      json
// @Param        limit   query     int  false  "Page size"
// @Param        offset  query     int  false  "Offset"
// @Success      200     {array}   BalanceTransaction
// @Failure      500     {object}  api.ErrorResponse
// @Router       /me/transactions [get]
func (h *Handler) ListMyTransactions(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "user not authenticated"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	txs, err := h.svc.ListUserTransactions(c.Request.Context(), userID, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to fetch transactions"})
		return
	}

	c.JSON(http.StatusOK, txs)
}

// GetPayment godoc
// @Summary      Get payment
// @Description  Returns a payment. Users can only see their own payments; admins see all.
// @Tags         payments
// @Security     BearerAuth
// @Produce      json
// @Param        paymentID  path      int  true  "Payment ID"
// @Success      200        {object}  Payment
// @Failure      400        {object}  api.ErrorResponse
// @Failure      403        {object}  api.ErrorResponse
// @Failure      404        {object}  api.ErrorResponse
// @Router       /payments/{paymentID} [get]
func (h *Handler) GetPayment(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "user not authenticated"})
		return
	}

	paymentID, err := strconv.Atoi(c.Param("paymentID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid payment ID"})
		return
	}

	payment, err := h.svc.GetPaymentByID(c.Request.Context(), paymentID)
	if err != nil {
		if errors.Is(err, ErrPaymentNotFound) {
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "payment not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to fetch payment"})
		return
	}

	role, _ := auth.GetUserRole(c)
	if payment.UserID != userID && role != "admin" {
		c.JSON(http.StatusForbidden, api.ErrorResponse{Error: "you can only view your own payments"})
		return
	}

	c.JSON(http.StatusOK, payment)
}

// UpdatePaymentStatus godoc
// @Summary      Update payment status
// @Description  Moves an externally-settled payment out of pending. Admin only. Balance payments are immutable.
// @Tags         payments
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        paymentID  path      int                  true  "Payment ID"
// @Param        body       body      UpdateStatusRequest  true  "New status"
// @Success      200        {object}  Payment
// @Failure      400        {object}  api.ErrorResponse
// @Failure      404        {object}  api.ErrorResponse
// @Failure      409        {object}  api.ErrorResponse
// @Router       /admin/payments/{paymentID}/status [post]
func (h *Handler) UpdatePaymentStatus(c *gin.Context) {
	paymentID, err := strconv.Atoi(c.Param("paymentID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid payment ID"})
		return
	}

	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid payload: " + err.Error()})
		return
	}

	payment, err := h.svc.UpdateStatus(c.Request.Context(), paymentID, req.Status, req.ExternalRef)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidTransition):
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "status must be 'completed' or 'failed'"})
		case errors.Is(err, ErrPaymentNotFound):
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "payment not found"})
		case errors.Is(err, ErrPaymentImmutable):
			c.JSON(http.StatusConflict, api.ErrorResponse{Error: "payment status can no longer change"})
		default:
			c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to update payment"})
		}
		return
	}

	c.JSON(http.StatusOK, payment)
}

func (h *Handler) respondSettleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrInvalidAmount):
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "amount must be positive"})
	case errors.Is(err, ErrInsufficientFunds):
		resp := api.InsufficientFundsResponse{Error: "insufficient balance"}
		var ife *InsufficientFundsError
		if errors.As(err, &ife) {
			resp.RequiredCents = ife.RequiredCents
			resp.AvailableCents = ife.AvailableCents
		}
		c.JSON(http.StatusPaymentRequired, resp)
	case errors.Is(err, ErrCurrencyMismatch):
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "payment currency does not match your balance currency"})
	case errors.Is(err, ErrDuplicateTransactionID):
		c.JSON(http.StatusConflict, api.ErrorResponse{Error: "transaction id already used"})
	case errors.Is(err, ErrUserNotFound):
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "user not found"})
	default:
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "settlement failed"})
	}
}
