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

type createRequestReq struct {
	PatientName     string `json:"patient_name"`
	BloodGroup      string `json:"blood_group"`
	UnitsNeeded     int    `json:"units_needed"`
	HospitalName    string `json:"hospital_name"`
	HospitalAddress string `json:"hospital_address"`
	City            string `json:"city"`
	Urgency         string `json:"urgency"`
	Description     string `json:"description"`
}

func (in *createRequestReq) validate() string {
	if strings.TrimSpace(in.PatientName) == "" {
		return "patient_name required"
	}
	if in.UnitsNeeded <= 0 {
		return "units_needed must be positive"
	}
	if strings.TrimSpace(in.HospitalName) == "" {
		return "hospital_name required"
	}
	if strings.TrimSpace(in.HospitalAddress) == "" {
		return "hospital_address required"
	}
	if strings.TrimSpace(in.City) == "" {
		return "city required"
	}
	if !domain.ValidUrgency(in.Urgency) {
		return "urgency must be critical|urgent|normal"
	}
	return ""
}

// CreateRequest godoc
// @Summary Create blood request
// @Tags requests
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param payload body createRequestReq true "request"
// @Success 201 {object} domain.BloodRequest
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Router /api/requests [post]
func (h *Handler) CreateRequest(c *gin.Context) {
	var in createRequestReq
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if msg := in.validate(); msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}

	u := currentUser(c)
	phone := u.Phone
	if phone == "" {
		phone = "Not provided"
	}
	r := &domain.BloodRequest{
		ID:              uuid.NewString(),
		RequesterID:     u.ID,
		RequesterName:   u.Name,
		RequesterPhone:  phone,
		PatientName:     strings.TrimSpace(in.PatientName),
		BloodGroup:      in.BloodGroup,
		UnitsNeeded:     in.UnitsNeeded,
		HospitalName:    strings.TrimSpace(in.HospitalName),
		HospitalAddress: strings.TrimSpace(in.HospitalAddress),
		City:            strings.TrimSpace(in.City),
		Urgency:         in.Urgency,
		Description:     in.Description,
		Status:          domain.RequestStatusActive,
	}
	if err := h.Store.CreateRequest(c.Request.Context(), r); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
		return
	}

	go h.Events.Publish(c.Request.Context(), queue.Exchange, queue.KeyRequestCreated,
		queue.RequestCreated{
			RequestID:   r.ID,
			RequesterID: r.RequesterID,
			City:        r.City,
			Urgency:     r.Urgency,
			UnitsNeeded: r.UnitsNeeded,
			CreatedAt:   r.CreatedAt,
		},
		c.GetString(requestIDKey))

	c.JSON(http.StatusCreated, r)
}

// ListRequests godoc
// @Summary List blood requests
// @Tags requests
// @Produce json
// @Param city query string false "filter by city"
// @Param urgency query string false "filter by urgency"
// @Param status query string false "filter by status (default active)"
// @Success 200 {array} domain.BloodRequest
// @Router /api/requests [get]
func (h *Handler) ListRequests(c *gin.Context) {
	f := repo.RequestFilter{
		City:    c.Query("city"),
		Urgency: c.Query("urgency"),
		Status:  c.DefaultQuery("status", domain.RequestStatusActive),
	}
	out, err := h.Store.ListRequests(c.Request.Context(), f)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
		return
	}
	if out == nil {
		out = []domain.BloodRequest{}
	}
	c.JSON(http.StatusOK, out)
}

// MyRequests godoc
// @Summary Current user's blood requests
// @Tags requests
// @Security BearerAuth
// @Produce json
// @Success 200 {array} domain.BloodRequest
// @Failure 401 {object} map[string]string
// @Router /api/requests/my [get]
func (h *Handler) MyRequests(c *gin.Context) {
	u := currentUser(c)
	out, err := h.Store.ListRequestsByRequester(c.Request.Context(), u.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
		return
	}
	if out == nil {
		out = []domain.BloodRequest{}
	}
	c.JSON(http.StatusOK, out)
}

// GetRequest godoc
// @Summary Blood request details
// @Tags requests
// @Produce json
// @Param id path string true "request id"
// @Success 200 {object} domain.BloodRequest
// @Failure 404 {object} map[string]string
// @Router /api/requests/{id} [get]
func (h *Handler) GetRequest(c *gin.Context) {
	r, err := h.Store.FindRequestByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
		return
	}
	if r == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "request not found"})
		return
	}
	c.JSON(http.StatusOK, r)
}

type updateStatusReq struct {
	Status string `json:"status"`
}

// UpdateRequestStatus godoc
// @Summary Update request status (owner only)
// @Tags requests
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "request id"
// @Param payload body updateStatusReq true "status"
// @Success 200 {object} map[string]string
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /api/requests/{id}/status [put]
func (h *Handler) UpdateRequestStatus(c *gin.Context) {
	var in updateStatusReq
	if err := c.ShouldBindJSON(&in); err != nil || !domain.ValidRequestStatus(in.Status) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status must be active|fulfilled|expired"})
		return
	}

	ctx := c.Request.Context()
	r, err := h.Store.FindRequestByID(ctx, c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
		return
	}
	if r == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "request not found"})
		return
	}
	if r.RequesterID != currentUser(c).ID {
		c.JSON(http.StatusForbidden, gin.H{"error": "not authorized"})
		return
	}

	if err := h.Store.UpdateRequestStatus(ctx, r.ID, in.Status); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "status updated"})
}
