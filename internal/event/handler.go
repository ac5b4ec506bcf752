package event

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/grush1k033/club-management-sub000/internal/api"
)

type Handler struct {
	repo Repository
}

func NewHandler(repo Repository) *Handler {
	return &Handler{repo: repo}
}

// CreateEvent godoc
// @Summary      Create event
// @Description  Creates a scheduled event for a club. Admin only.
// @Tags         events
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        event  body      CreateEventRequest  true  "Event"
// @Success      201    {object}  Event
// @Failure      400    {object}  api.ErrorResponse
// @Failure      500    {object}  api.ErrorResponse
// @Router       /admin/events [post]
func (h *Handler) CreateEvent(c *gin.Context) {
	var req CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid event payload: " + err.Error()})
		return
	}

	startsAt, err := time.Parse(time.RFC3339, req.StartsAt)
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid starts_at format, use RFC3339"})
		return
	}

	endsAt, err := time.Parse(time.RFC3339, req.EndsAt)
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid ends_at format, use RFC3339"})
		return
	}

	if !endsAt.After(startsAt) {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "ends_at must be after starts_at"})
		return
	}

	ev, err := h.repo.Create(c.Request.Context(), req.ClubID, req.Title, req.Description, req.FeeCents, req.Currency, req.FreeForMembers, req.MaxParticipants, startsAt, endsAt)
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to create event"})
		return
	}

	c.JSON(http.StatusCreated, ev)
}

// ListEvents godoc
// @Summary      List events
// @Description  Lists events with availability counters. Filter by club or upcoming.
// @Tags         events
// @Security     BearerAuth
// @Produce      json
// @Param        club_id   query     int     false  "Filter by club"
// @Param        upcoming  query     bool    false  "Only upcoming events"
// @Success      200       {array}   EventWithAvailability
// @Failure      400       {object}  api.ErrorResponse
// @Failure      500       {object}  api.ErrorResponse
// @Router       /events [get]
func (h *Handler) ListEvents(c *gin.Context) {
	var clubID *int
	if raw := c.Query("club_id"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid club_id"})
			return
		}
		clubID = &id
	}

	onlyUpcoming := c.DefaultQuery("upcoming", "false") == "true"

	events, err := h.repo.List(c.Request.Context(), clubID, onlyUpcoming)
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to fetch events"})
		return
	}

	c.JSON(http.StatusOK, events)
}

// GetEvent godoc
// @Summary      Get event
// @Tags         events
// @Security     BearerAuth
// @Produce      json
// @Param        eventID  path      int  true  "Event ID"
// @Success      200      {object}  Event
// @Failure      400      {object}  api.ErrorResponse
// @Failure      404      {object}  api.ErrorResponse
// @Router       /events/{eventID} [get]
func (h *Handler) GetEvent(c *gin.Context) {
	eventID, err := strconv.Atoi(c.Param("eventID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid event ID"})
		return
	}

	ev, err := h.repo.GetByID(c.Request.Context(), eventID)
	if err != nil {
		if errors.Is(err, ErrEventNotFound) {
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "event not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to fetch event"})
		return
	}

	c.JSON(http.StatusOK, ev)
}
