package club

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/grush1k033/club-management-sub000/internal/api"
)

type Handler struct {
	repo Repository
}

func NewHandler(repo Repository) *Handler {
	return &Handler{repo: repo}
}

// CreateClub godoc
// @Summary      Create club
// @Description  Creates a new club. Admin only.
// @Tags         clubs
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        club  body      CreateClubRequest  true  "Club"
// @Success      201   {object}  Club
// @Failure      400   {object}  api.ErrorResponse
// @Failure      500   {object}  api.ErrorResponse
// @Router       /admin/clubs [post]
func (h *Handler) CreateClub(c *gin.Context) {
	var req CreateClubRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid club payload: " + err.Error()})
		return
	}

	club, err := h.repo.Create(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to create club"})
		return
	}

	c.JSON(http.StatusCreated, club)
}

// ListClubs godoc
// @Summary      List clubs
// @Tags         clubs
// @Security     BearerAuth
// @Produce      json
// @Success      200  {array}   Club
// @Failure      500  {object}  api.ErrorResponse
// @Router       /clubs [get]
func (h *Handler) ListClubs(c *gin.Context) {
	clubs, err := h.repo.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to fetch clubs"})
		return
	}

	c.JSON(http.StatusOK, clubs)
}

// GetClub godoc
// @Summary      Get club
// @Tags         clubs
// @Security     BearerAuth
// @Produce      json
// @Param        clubID  path      int  true  "Club ID"
// @Success      200     {object}  Club
// @Failure      400     {object}  api.ErrorResponse
// @Failure      404     {object}  api.ErrorResponse
// @Router       /clubs/{clubID} [get]
func (h *Handler) GetClub(c *gin.Context) {
	clubID, err := strconv.Atoi(c.Param("clubID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid club ID"})
		return
	}

	club, err := h.repo.GetByID(c.Request.Context(), clubID)
	if err != nil {
		if errors.Is(err, ErrClubNotFound) {
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "club not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to fetch club"})
		return
	}

	members, err := h.repo.MemberCount(c.Request.Context(), clubID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to fetch club"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"club":         club,
		"member_count": members,
	})
}
