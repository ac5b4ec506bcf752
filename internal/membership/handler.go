package membership

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/grush1k033/club-management-sub000/internal/api"
	"github.com/grush1k033/club-management-sub000/internal/auth"
	"github.com/grush1k033/club-management-sub000/internal/ledger"
)

type Handler struct {
	svc Service
}

func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

// RequestToJoin godoc
// @Summary      Request to join club
// @Tags         membership
// @Security     BearerAuth
// @Produce      json
// @Param        clubID  path      int  true  "Club ID"
// @Success      201     {object}  ClubJoinRequest
// @Failure      400     {object}  api.ErrorResponse
// @Failure      404     {object}  api.ErrorResponse
// @Failure      409     {object}  api.ErrorResponse
// @Failure      500     {object}  api.ErrorResponse
// @Router       /clubs/{clubID}/join [post]
func (h *Handler) RequestToJoin(c *gin.Context) {
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

	req, err := h.svc.RequestToJoin(c.Request.Context(), userID, clubID)
	if err != nil {
		switch {
		case errors.Is(err, ErrClubNotFound):
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "club not found"})
		case errors.Is(err, ErrAlreadyMember):
			c.JSON(http.StatusConflict, api.ErrorResponse{Error: "you already belong to a club"})
		case errors.Is(err, ErrDuplicateRequest):
			c.JSON(http.StatusConflict, api.ErrorResponse{Error: "a pending join request already exists"})
		default:
			c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to create join request"})
		}
		return
	}

	c.JSON(http.StatusCreated, req)
}

// CancelJoinRequest godoc
// @Summary      Withdraw join request
// @Tags         membership
// @Security     BearerAuth
// @Produce      json
// @Param        clubID  path      int  true  "Club ID"
// @Success      200     {object}  api.MessageResponse
// @Failure      400     {object}  api.ErrorResponse
// @Failure      404     {object}  api.ErrorResponse
// @Failure      500     {object}  api.ErrorResponse
// @Router       /clubs/{clubID}/join [delete]
func (h *Handler) CancelJoinRequest(c *gin.Context) {
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

	if err := h.svc.CancelJoinRequest(c.Request.Context(), userID, clubID); err != nil {
		if errors.Is(err, ErrRequestNotFound) {
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "no pending join request for this club"})
			return
		}
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to cancel join request"})
		return
	}

	c.JSON(http.StatusOK, api.MessageResponse{Message: "join request cancelled"})
}

// PayJoiningFee godoc
// @Summary      Pay joining fee
// @Description  Settles the club joining fee from the user's balance and grants membership atomically. Accepts an optional idempotency key for safe retries.
// @Tags         membership
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        clubID  path      int                   true   "Club ID"
// @Param        body    body      PayJoiningFeeRequest  false  "Optional idempotency key"
// @Success      200     {object}  JoinResult
// @Failure      400     {object}  api.ErrorResponse
// @Failure      402     {object}  api.InsufficientFundsResponse
// @Failure      404     {object}  api.ErrorResponse
// @Failure      409     {object}  api.ErrorResponse
// @Failure      500     {object}  api.ErrorResponse
// @Router       /clubs/{clubID}/join/pay [post]
func (h *Handler) PayJoiningFee(c *gin.Context) {
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

	var req PayJoiningFeeRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid payload: " + err.Error()})
			return
		}
	}

	result, err := h.svc.PayJoiningFee(c.Request.Context(), userID, clubID, req.TransactionID)
	if err != nil {
		switch {
		case errors.Is(err, ErrClubNotFound):
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "club not found"})
		case errors.Is(err, ErrAlreadyMember):
			c.JSON(http.StatusConflict, api.ErrorResponse{Error: "you already belong to a club"})
		case errors.Is(err, ErrAlreadyApproved):
			c.JSON(http.StatusConflict, api.ErrorResponse{Error: "join request already approved"})
		case errors.Is(err, ledger.ErrInsufficientFunds):
			resp := api.InsufficientFundsResponse{Error: "insufficient balance for joining fee"}
			var ife *ledger.InsufficientFundsError
			if errors.As(err, &ife) {
				resp.RequiredCents = ife.RequiredCents
				resp.AvailableCents = ife.AvailableCents
			}
			c.JSON(http.StatusPaymentRequired, resp)
		case errors.Is(err, ledger.ErrCurrencyMismatch):
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "joining fee currency does not match your balance currency"})
		case errors.Is(err, ledger.ErrDuplicateTransactionID):
			c.JSON(http.StatusConflict, api.ErrorResponse{Error: "transaction id already used"})
		default:
			c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "joining fee payment failed"})
		}
		return
	}

	c.JSON(http.StatusOK, result)
}

// ListMyJoinRequests godoc
// @Summary      List my join requests
// @Tags         membership
// @Security     BearerAuth
// @Produce      json
// @Success      200  {array}   ClubJoinRequest
// @Failure      500  {object}  api.ErrorResponse
// @Router       /me/join-requests [get]
func (h *Handler) ListMyJoinRequests(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "user not authenticated"})
		return
	}

	reqs, err := h.svc.ListForUser(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to fetch join requests"})
		return
	}

	c.JSON(http.StatusOK, reqs)
}

// ListPendingByClub godoc
// @Summary      List pending join requests for a club
// @Description  Admin only.
// @Tags         membership
// @Security     BearerAuth
// @Produce      json
// @Param        clubID  path      int  true  "Club ID"
// @Success      200     {array}   ClubJoinRequest
// @Failure      400     {object}  api.ErrorResponse
// @Failure      500     {object}  api.ErrorResponse
// @Router       /admin/clubs/{clubID}/join-requests [get]
func (h *Handler) ListPendingByClub(c *gin.Context) {
	clubID, err := strconv.Atoi(c.Param("clubID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid club ID"})
		return
	}

	reqs, err := h.svc.ListPendingByClub(c.Request.Context(), clubID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to fetch join requests"})
		return
	}

	c.JSON(http.StatusOK, reqs)
}
