package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tazhibayda/blood-service/internal/domain"
	"github.com/tazhibayda/blood-service/internal/queue"
	"github.com/tazhibayda/blood-service/internal/repo"
)

type createResponseReq struct {
	RequestID string `json:"request_id"`
	Message   string `json:"message"`
}

// CreateResponse godoc
// @Summary Respond to a blood request
// @Tags responses
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param payload body createResponseReq true "response"
// @Success 201 {object} domain.DonorResponse
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /api/responses [post]
func (h *Handler) CreateResponse(c *gin.Context) {
	var in createResponseReq
	if err := c.ShouldBindJSON(&in); err != nil || strings.TrimSpace(in.RequestID) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "request_id required"})
		return
	}

	ctx := c.Request.Context()
	req, err := h.Store.FindRequestByID(ctx, in.RequestID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
		return
	}
	if req == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "request not found"})
		return
	}

	u := currentUser(c)
	existing, err := h.Store.FindResponse(ctx, req.ID, u.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
		return
	}
	if existing != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "already responded to this request"})
		return
	}

	phone := u.Phone
	if phone == "" {
		phone = "Not provided"
	}
	r := &domain.DonorResponse{
		ID:         uuid.NewString(),
		RequestID:  req.ID,
		DonorID:    u.ID,
		DonorName:  u.Name,
		DonorPhone: phone,
		DonorEmail: u.Email,
		Message:    in.Message,
		Status:     domain.ResponseStatusPending,
	}
	// уникальный индекс закрывает окно между pre-check и insert
	if err := h.Store.CreateResponse(ctx, r); err != nil {
		if err == repo.ErrDuplicateResponse {
			c.JSON(http.StatusConflict, gin.H{"error": "already responded to this request"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
		return
	}

	if err := h.Store.IncRequestResponses(ctx, req.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
		return
	}

	go h.Events.Publish(ctx, queue.Exchange, queue.KeyResponseCreated,
		queue.ResponseCreated{ResponseID: r.ID, RequestID: r.RequestID, DonorID: r.DonorID},
		c.GetString(requestIDKey))

	c.JSON(http.StatusCreated, r)
}

// RequestResponses godoc
// @Summary Responses for a request (owner only)
// @Tags responses
// @Security BearerAuth
// @Produce json
// @Param id path string true "request id"
// @Success 200 {array} domain.DonorResponse
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /api/responses/request/{id} [get]
func (h *Handler) RequestResponses(c *gin.Context) {
	ctx := c.Request.Context()
	req, err := h.Store.FindRequestByID(ctx, c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
		return
	}
	if req == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "request not found"})
		return
	}
	if req.RequesterID != currentUser(c).ID {
		c.JSON(http.StatusForbidden, gin.H{"error": "not authorized"})
		return
	}

	out, err := h.Store.ListResponsesByRequest(ctx, req.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
		return
	}
	if out == nil {
		out = []domain.DonorResponse{}
	}
	c.JSON(http.StatusOK, out)
}

// MyResponses godoc
// @Summary Current user's responses
// @Tags responses
// @Security BearerAuth
// @Produce json
// @Success 200 {array} domain.DonorResponse
// @Failure 401 {object} map[string]string
// @Router /api/responses/my [get]
func (h *Handler) MyResponses(c *gin.Context) {
	out, err := h.Store.ListResponsesByDonor(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
		return
	}
	if out == nil {
		out = []domain.DonorResponse{}
	}
	c.JSON(http.StatusOK, out)
}
