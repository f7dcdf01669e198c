package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tazhibayda/blood-service/internal/domain"
	"github.com/tazhibayda/blood-service/internal/log"
	"github.com/tazhibayda/blood-service/internal/metrics"
	"github.com/tazhibayda/blood-service/internal/queue"
)

const (
	sessionCookie  = "session_token"
	currentUserKey = "current_user"
)

var (
	errNotAuthenticated = errors.New("not authenticated")
	errSessionExpired   = errors.New("session expired")
	errUserNotFound     = errors.New("user not found")
)

// credentialToken extracts the session token from the request. A bearer
// token in the Authorization header wins over the cookie.
func credentialToken(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); strings.HasPrefix(strings.ToLower(h), "bearer ") {
		if tok := strings.TrimSpace(h[len("Bearer "):]); tok != "" {
			return tok
		}
	}
	if tok, err := c.Cookie(sessionCookie); err == nil {
		return tok
	}
	return ""
}

// resolveUser validates the credential against the sessions and users
// collections. All failure modes collapse into a 401 for the caller; an
// orphaned session (user row missing) must not be distinguishable from a
// bad token.
func (h *Handler) resolveUser(c *gin.Context) (*domain.User, error) {
	token := credentialToken(c)
	if token == "" {
		return nil, errNotAuthenticated
	}

	ctx := c.Request.Context()
	sess, err := h.Store.FindSessionByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if sess == nil || sess.Expired(time.Now()) {
		return nil, errSessionExpired
	}

	u, err := h.Store.FindUserByID(ctx, sess.UserID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, errUserNotFound
	}
	return u, nil
}

// RequireAuth resolves the caller's identity and aborts with 401 when it
// can't.
func (h *Handler) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		u, err := h.resolveUser(c)
		if err != nil {
			switch err {
			case errNotAuthenticated, errSessionExpired, errUserNotFound:
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			default:
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "db error"})
			}
			return
		}
		c.Set(currentUserKey, u)
		c.Next()
	}
}

func currentUser(c *gin.Context) *domain.User {
	v, _ := c.Get(currentUserKey)
	return v.(*domain.User)
}

type profileResp struct {
	User         *domain.User `json:"user"`
	SessionToken string       `json:"session_token"`
	RedirectTo   string       `json:"redirect_to"`
}

// Profile godoc
// @Summary Complete external login
// @Description Exchanges the provider session_id for user data and opens a session.
// @Tags auth
// @Produce json
// @Param session_id query string true "provider session id"
// @Success 200 {object} profileResp
// @Failure 400 {object} map[string]string
// @Router /api/auth/profile [get]
func (h *Handler) Profile(c *gin.Context) {
	sessionID := c.Query("session_id")
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing session_id"})
		return
	}

	ctx := c.Request.Context()
	data, err := h.Auth.SessionData(ctx, sessionID)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues("failed").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": "authentication failed: " + err.Error()})
		return
	}

	u, err := h.Store.FindUserByEmail(ctx, data.Email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
		return
	}
	if u == nil {
		// первый вход: тип и город — заглушки, пользователь дозаполнит профиль
		u = &domain.User{
			ID:        uuid.NewString(),
			Email:     data.Email,
			Name:      data.Name,
			Picture:   data.Picture,
			UserType:  domain.UserTypeRequester,
			City:      "Unknown",
			CreatedAt: time.Now().UTC(),
		}
		if err := h.Store.CreateUser(ctx, u); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
			return
		}
		go h.Events.Publish(ctx, queue.Exchange, queue.KeyUserRegistered,
			queue.UserRegistered{UserID: u.ID, Email: u.Email, Name: u.Name},
			c.GetString(requestIDKey))
	}

	// Токен принадлежит провайдеру; дедупликации нет — у пользователя может
	// быть несколько живых сессий.
	sess := &domain.Session{
		ID:           uuid.NewString(),
		UserID:       u.ID,
		SessionToken: data.SessionToken,
		ExpiresAt:    time.Now().UTC().Add(h.SessionTTL),
		CreatedAt:    time.Now().UTC(),
	}
	if err := h.Store.CreateSession(ctx, sess); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
		return
	}

	metrics.LoginsTotal.WithLabelValues("ok").Inc()
	log.WithDD(ctx, log.L()).Info("login completed",
		zap.String("user_id", u.ID), zap.String("email", u.Email))

	c.JSON(http.StatusOK, profileResp{
		User:         u,
		SessionToken: data.SessionToken,
		RedirectTo:   "/dashboard",
	})
}

type setSessionReq struct {
	SessionToken string `json:"session_token"`
}

// SetSession godoc
// @Summary Set the session cookie
// @Tags auth
// @Accept json
// @Produce json
// @Param payload body setSessionReq true "session_token"
// @Success 200 {object} map[string]string
// @Failure 400 {object} map[string]string
// @Router /api/auth/set-session [post]
func (h *Handler) SetSession(c *gin.Context) {
	var in setSessionReq
	if err := c.ShouldBindJSON(&in); err != nil || in.SessionToken == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing session_token"})
		return
	}

	c.SetSameSite(http.SameSiteNoneMode)
	c.SetCookie(sessionCookie, in.SessionToken, int(h.SessionTTL/time.Second), "/", "", true, true)
	c.JSON(http.StatusOK, gin.H{"message": "session cookie set"})
}

// Me godoc
// @Summary Current user
// @Tags auth
// @Security BearerAuth
// @Produce json
// @Success 200 {object} domain.User
// @Failure 401 {object} map[string]string
// @Router /api/auth/me [get]
func (h *Handler) Me(c *gin.Context) {
	c.JSON(http.StatusOK, currentUser(c))
}

// updateProfileReq is the allow-list of mutable profile fields. Identity
// fields (id, email, created_at) can't be patched through here.
type updateProfileReq struct {
	Name             *string `json:"name"`
	Picture          *string `json:"picture"`
	UserType         *string `json:"user_type"`
	City             *string `json:"city"`
	Phone            *string `json:"phone"`
	EmergencyContact *string `json:"emergency_contact"`
}

// UpdateProfile godoc
// @Summary Update profile
// @Tags auth
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param payload body updateProfileReq true "mutable fields"
// @Success 200 {object} domain.User
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Router /api/auth/profile [put]
func (h *Handler) UpdateProfile(c *gin.Context) {
	var in updateProfileReq
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	fields := map[string]any{}
	if in.Name != nil {
		if strings.TrimSpace(*in.Name) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "name must not be empty"})
			return
		}
		fields["name"] = strings.TrimSpace(*in.Name)
	}
	if in.Picture != nil {
		fields["picture"] = *in.Picture
	}
	if in.UserType != nil {
		if !domain.ValidUserType(*in.UserType) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "user_type must be donor|requester|ngo"})
			return
		}
		fields["user_type"] = *in.UserType
	}
	if in.City != nil {
		if strings.TrimSpace(*in.City) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "city must not be empty"})
			return
		}
		fields["city"] = strings.TrimSpace(*in.City)
	}
	if in.Phone != nil {
		fields["phone"] = *in.Phone
	}
	if in.EmergencyContact != nil {
		fields["emergency_contact"] = *in.EmergencyContact
	}

	u := currentUser(c)
	ctx := c.Request.Context()
	if err := h.Store.UpdateUserFields(ctx, u.ID, fields); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
		return
	}

	updated, err := h.Store.FindUserByID(ctx, u.ID)
	if err != nil || updated == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
		return
	}
	c.JSON(http.StatusOK, updated)
}

// Logout godoc
// @Summary Logout
// @Tags auth
// @Security BearerAuth
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Router /api/auth/logout [post]
func (h *Handler) Logout(c *gin.Context) {
	// the credential that authenticated the call is the session we end
	token := credentialToken(c)
	if token != "" {
		if err := h.Store.DeleteSessionByToken(c.Request.Context(), token); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
			return
		}
	}

	c.SetSameSite(http.SameSiteNoneMode)
	c.SetCookie(sessionCookie, "", -1, "/", "", true, true)
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}
