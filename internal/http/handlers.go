package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tazhibayda/blood-service/internal/domain"
	"github.com/tazhibayda/blood-service/internal/extauth"
	"github.com/tazhibayda/blood-service/internal/queue"
	"github.com/tazhibayda/blood-service/internal/repo"
)

// Store is the slice of the Mongo layer the handlers need. It is an
// interface so tests can swap in an in-memory implementation.
type Store interface {
	Ping(ctx context.Context) error

	CreateUser(ctx context.Context, u *domain.User) error
	FindUserByEmail(ctx context.Context, email string) (*domain.User, error)
	FindUserByID(ctx context.Context, id string) (*domain.User, error)
	UpdateUserFields(ctx context.Context, id string, fields map[string]any) error
	CountUsers(ctx context.Context) (int64, error)

	CreateSession(ctx context.Context, s *domain.Session) error
	FindSessionByToken(ctx context.Context, token string) (*domain.Session, error)
	DeleteSessionByToken(ctx context.Context, token string) error

	CreateRequest(ctx context.Context, r *domain.BloodRequest) error
	FindRequestByID(ctx context.Context, id string) (*domain.BloodRequest, error)
	ListRequests(ctx context.Context, f repo.RequestFilter) ([]domain.BloodRequest, error)
	ListRequestsByRequester(ctx context.Context, requesterID string) ([]domain.BloodRequest, error)
	UpdateRequestStatus(ctx context.Context, id, status string) error
	IncRequestResponses(ctx context.Context, id string) error
	CountRequests(ctx context.Context, status string) (int64, error)

	CreateResponse(ctx context.Context, r *domain.DonorResponse) error
	FindResponse(ctx context.Context, requestID, donorID string) (*domain.DonorResponse, error)
	ListResponsesByRequest(ctx context.Context, requestID string) ([]domain.DonorResponse, error)
	ListResponsesByDonor(ctx context.Context, donorID string) ([]domain.DonorResponse, error)
	CountResponses(ctx context.Context) (int64, error)
}

type Handler struct {
	Store      Store
	Auth       extauth.Client
	Events     queue.Publisher
	SessionTTL time.Duration
}

func NewHandler(store Store, auth extauth.Client, pub queue.Publisher, sessionTTLDays int) *Handler {
	if sessionTTLDays <= 0 {
		sessionTTLDays = 7
	}
	return &Handler{
		Store:      store,
		Auth:       auth,
		Events:     pub,
		SessionTTL: time.Duration(sessionTTLDays) * 24 * time.Hour,
	}
}

// Healthz godoc
// @Summary Service health
// @Tags ops
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 503 {object} map[string]string
// @Router /healthz [get]
func (h *Handler) Healthz(c *gin.Context) {
	if err := h.Store.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type statsResp struct {
	TotalRequests  int64 `json:"total_requests"`
	ActiveRequests int64 `json:"active_requests"`
	TotalResponses int64 `json:"total_responses"`
	TotalUsers     int64 `json:"total_users"`
}

// Stats godoc
// @Summary Platform statistics
// @Tags stats
// @Produce json
// @Success 200 {object} statsResp
// @Router /api/stats [get]
func (h *Handler) Stats(c *gin.Context) {
	ctx := c.Request.Context()

	total, err := h.Store.CountRequests(ctx, "")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
		return
	}
	active, err := h.Store.CountRequests(ctx, domain.RequestStatusActive)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
		return
	}
	responses, err := h.Store.CountResponses(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
		return
	}
	users, err := h.Store.CountUsers(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
		return
	}

	c.JSON(http.StatusOK, statsResp{
		TotalRequests:  total,
		ActiveRequests: active,
		TotalResponses: responses,
		TotalUsers:     users,
	})
}
