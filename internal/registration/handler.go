package registration

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

// RegisterForEvent godoc
// @Summary      Register for event
// @Description  Registers the current user for an event, settling the fee from balance when one applies. Accepts an optional idempotency key for safe retries.
// @Tags         registrations
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        eventID  path      int              true   "Event ID"
// @Param        body     body      RegisterRequest  false  "Optional idempotency key"
// @Success      201      {object}  RegisterResponse
// @Failure      400      {object}  api.ErrorResponse
// @Failure      402      {object}  api.InsufficientFundsResponse
// @Failure      404      {object}  api.ErrorResponse
// @Failure      409      {object}  api.ErrorResponse
// @Failure      500      {object}  api.ErrorResponse
// @Router       /events/{eventID}/register [post]
func (h *Handler) RegisterForEvent(c *gin.Context) {
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

	var req RegisterRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid registration payload: " + err.Error()})
			return
		}
	}

	resp, err := h.svc.Register(c.Request.Context(), userID, eventID, req.TransactionID)
	if err != nil {
		switch {
		case errors.Is(err, ErrEventNotFound):
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "event not found"})
		case errors.Is(err, ErrEventNotOpen):
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "event is not open for registration"})
		case errors.Is(err, ErrCapacityExceeded):
			c.JSON(http.StatusConflict, api.ErrorResponse{Error: "event is full"})
		case errors.Is(err, ErrAlreadyRegistered):
			c.JSON(http.StatusConflict, api.ErrorResponse{Error: "you are already registered for this event"})
		case errors.Is(err, ErrAlreadyAttended):
			c.JSON(http.StatusConflict, api.ErrorResponse{Error: "you already attended this event"})
		case errors.Is(err, ledger.ErrInsufficientFunds):
			resp := api.InsufficientFundsResponse{Error: "insufficient balance for event fee"}
			var ife *ledger.InsufficientFundsError
			if errors.As(err, &ife) {
				resp.RequiredCents = ife.RequiredCents
				resp.AvailableCents = ife.AvailableCents
			}
			c.JSON(http.StatusPaymentRequired, resp)
		case errors.Is(err, ledger.ErrCurrencyMismatch):
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "event fee currency does not match your balance currency"})
		case errors.Is(err, ledger.ErrDuplicateTransactionID):
			c.JSON(http.StatusConflict, api.ErrorResponse{Error: "transaction id already used"})
		default:
			c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "registration failed"})
		}
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// CancelRegistration godoc
// @Summary      Cancel registration
// @Description  Cancels the current user's registration. No automatic refund.
// @Tags         registrations
// @Security     BearerAuth
// @Produce      json
// @Param        registrationID  path      int  true  "Registration ID"
// @Success      200             {object}  CancelResponse
// @Failure      400             {object}  api.ErrorResponse
// @Failure      403             {object}  api.ErrorResponse
// @Failure      404             {object}  api.ErrorResponse
// @Failure      500             {object}  api.ErrorResponse
// @Router       /registrations/{registrationID}/cancel [post]
func (h *Handler) CancelRegistration(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "user not authenticated"})
		return
	}

	registrationID, err := strconv.Atoi(c.Param("registrationID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid registration ID"})
		return
	}

	err = h.svc.Cancel(c.Request.Context(), userID, registrationID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "registration not found"})
		case errors.Is(err, ErrNotOwner):
			c.JSON(http.StatusForbidden, api.ErrorResponse{Error: "you can only cancel your own registrations"})
		case errors.Is(err, ErrNotCancellable):
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "registration not found or already cancelled"})
		default:
			c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to cancel registration"})
		}
		return
	}

	c.JSON(http.StatusOK, CancelResponse{Message: "Registration cancelled successfully"})
}

// ListMyRegistrations godoc
// @Summary      List my registrations
// @Tags         registrations
// @Security     BearerAuth
// @Produce      json
// @Success      200  {array}   RegistrationWithEvent
// @Failure      500  {object}  api.ErrorResponse
// @Router       /registrations [get]
func (h *Handler) ListMyRegistrations(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "user not authenticated"})
		return
	}

	regs, err := h.svc.GetUserRegistrations(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to fetch registrations"})
		return
	}

	c.JSON(http.StatusOK, regs)
}

// ListEventParticipants godoc
// @Summary      List event participants
// @Description  Returns all registrations for an event. Admin only.
// @Tags         registrations
// @Security     BearerAuth
// @Produce      json
// @Param        eventID  path      int  true  "Event ID"
// @Success      200      {array}   ParticipantWithUser
// @Failure      400      {object}  api.ErrorResponse
// @Failure      500      {object}  api.ErrorResponse
// @Router       /admin/events/{eventID}/participants [get]
func (h *Handler) ListEventParticipants(c *gin.Context) {
	eventID, err := strconv.Atoi(c.Param("eventID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid event ID"})
		return
	}

	participants, err := h.svc.ListByEvent(c.Request.Context(), eventID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to fetch participants"})
		return
	}

	c.JSON(http.StatusOK, participants)
}

// MarkAttended godoc
// @Summary      Mark registration attended
// @Description  Marks a registered participant as attended. Admin only.
// @Tags         registrations
// @Security     BearerAuth
// @Produce      json
// @Param        registrationID  path      int  true  "Registration ID"
// @Success      200             {object}  api.MessageResponse
// @Failure      400             {object}  api.ErrorResponse
// @Failure      404             {object}  api.ErrorResponse
// @Failure      500             {object}  api.ErrorResponse
// @Router       /admin/registrations/{registrationID}/attended [post]
func (h *Handler) MarkAttended(c *gin.Context) {
	registrationID, err := strconv.Atoi(c.Param("registrationID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid registration ID"})
		return
	}

	if err := h.svc.MarkAttended(c.Request.Context(), registrationID); err != nil {
		if errors.Is(err, ErrNotFound) {
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "registration not found or not in registered state"})
			return
		}
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to mark attendance"})
		return
	}

	c.JSON(http.StatusOK, api.MessageResponse{Message: "attendance recorded"})
}
