package http_test

import (
	"bytes"
	"context"
	"errors"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tazhibayda/blood-service/internal/domain"
	"github.com/tazhibayda/blood-service/internal/extauth"
	api "github.com/tazhibayda/blood-service/internal/http"
	"github.com/tazhibayda/blood-service/internal/log"
	"github.com/tazhibayda/blood-service/internal/queue"
	"github.com/tazhibayda/blood-service/internal/repo"
)

// memStore is an in-memory api.Store used instead of a real Mongo instance.
type memStore struct {
	mu        sync.Mutex
	users     map[string]*domain.User
	sessions  map[string]*domain.Session // keyed by token
	requests  map[string]*domain.BloodRequest
	responses map[string]*domain.DonorResponse
}

func newMemStore() *memStore {
	return &memStore{
		users:     map[string]*domain.User{},
		sessions:  map[string]*domain.Session{},
		requests:  map[string]*domain.BloodRequest{},
		responses: map[string]*domain.DonorResponse{},
	}
}

func (m *memStore) Ping(context.Context) error { return nil }

func (m *memStore) CreateUser(_ context.Context, u *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *memStore) FindUserByEmail(_ context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memStore) FindUserByID(_ context.Context, id string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (m *memStore) UpdateUserFields(_ context.Context, id string, fields map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return repo.ErrNotFound
	}
	for k, v := range fields {
		s, _ := v.(string)
		switch k {
		case "name":
			u.Name = s
		case "picture":
			u.Picture = s
		case "user_type":
			u.UserType = s
		case "city":
			u.City = s
		case "phone":
			u.Phone = s
		case "emergency_contact":
			u.EmergencyContact = s
		default:
			return errors.New("unexpected field " + k)
		}
	}
	return nil
}

func (m *memStore) CountUsers(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.users)), nil
}

func (m *memStore) CreateSession(_ context.Context, s *domain.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.sessions[s.SessionToken] = &cp
	return nil
}

func (m *memStore) FindSessionByToken(_ context.Context, token string) (*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[token]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (m *memStore) DeleteSessionByToken(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, token)
	return nil
}

func (m *memStore) CreateRequest(_ context.Context, r *domain.BloodRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	cp := *r
	m.requests[r.ID] = &cp
	return nil
}

func (m *memStore) FindRequestByID(_ context.Context, id string) (*domain.BloodRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.requests[id]
	if !ok {
		return nil, nil
	}
	cp := *r
	return &cp, nil
}

func (m *memStore) ListRequests(_ context.Context, f repo.RequestFilter) ([]domain.BloodRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.BloodRequest
	for _, r := range m.requests {
		if f.Status != "" && r.Status != f.Status {
			continue
		}
		if f.City != "" && r.City != f.City {
			continue
		}
		if f.Urgency != "" && r.Urgency != f.Urgency {
			continue
		}
		out = append(out, *r)
	}
	sortRequestsDesc(out)
	return out, nil
}

func (m *memStore) ListRequestsByRequester(_ context.Context, requesterID string) ([]domain.BloodRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.BloodRequest
	for _, r := range m.requests {
		if r.RequesterID == requesterID {
			out = append(out, *r)
		}
	}
	sortRequestsDesc(out)
	return out, nil
}

func (m *memStore) UpdateRequestStatus(_ context.Context, id, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.requests[id]
	if !ok {
		return repo.ErrNotFound
	}
	r.Status = status
	return nil
}

func (m *memStore) IncRequestResponses(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.requests[id]; ok {
		r.ResponsesCount++
	}
	return nil
}

func (m *memStore) CountRequests(_ context.Context, status string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, r := range m.requests {
		if status == "" || r.Status == status {
			n++
		}
	}
	return n, nil
}

func (m *memStore) CreateResponse(_ context.Context, r *domain.DonorResponse) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ex := range m.responses {
		if ex.RequestID == r.RequestID && ex.DonorID == r.DonorID {
			return repo.ErrDuplicateResponse
		}
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	cp := *r
	m.responses[r.ID] = &cp
	return nil
}

func (m *memStore) FindResponse(_ context.Context, requestID, donorID string) (*domain.DonorResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.responses {
		if r.RequestID == requestID && r.DonorID == donorID {
			cp := *r
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memStore) ListResponsesByRequest(_ context.Context, requestID string) ([]domain.DonorResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.DonorResponse
	for _, r := range m.responses {
		if r.RequestID == requestID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (m *memStore) ListResponsesByDonor(_ context.Context, donorID string) ([]domain.DonorResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.DonorResponse
	for _, r := range m.responses {
		if r.DonorID == donorID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (m *memStore) CountResponses(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.responses)), nil
}

func sortRequestsDesc(rs []domain.BloodRequest) {
	sort.Slice(rs, func(i, j int) bool { return rs[i].CreatedAt.After(rs[j].CreatedAt) })
}

// fakeAuth returns canned session data or an error.
type fakeAuth struct {
	data *extauth.SessionData
	err  error
}

func (f *fakeAuth) SessionData(context.Context, string) (*extauth.SessionData, error) {
	if f.err != nil {
		return nil, f.err
	}
	cp := *f.data
	return &cp, nil
}

type testEnv struct {
	Store  *memStore
	Auth   *fakeAuth
	Router *gin.Engine
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	if _, err := log.Init(false); err != nil {
		t.Fatalf("log init: %v", err)
	}

	store := newMemStore()
	auth := &fakeAuth{data: &extauth.SessionData{
		Email:        "jane@example.com",
		Name:         "Jane",
		Picture:      "https://pics.example.com/jane.png",
		SessionToken: "provider-token-1",
	}}

	h := api.NewHandler(store, auth, queue.NewNoop(), 7)

	gin.SetMode(gin.TestMode)
	r := api.NewRouter(h, api.RouterOptions{
		CORSOrigins: "*",
		Limiter:     api.NewMemoryLimiter(1000, time.Minute),
	})
	return &testEnv{Store: store, Auth: auth, Router: r}
}

// seedUser inserts a user plus a live session and returns (user id, token).
func (e *testEnv) seedUser(t *testing.T, userType, city string) (string, string) {
	t.Helper()
	uid := uuid.NewString()
	tok := uuid.NewString()
	_ = e.Store.CreateUser(context.Background(), &domain.User{
		ID:        uid,
		Email:     uid + "@example.com",
		Name:      "User " + uid[:8],
		UserType:  userType,
		City:      city,
		Phone:     "+7-700-000-0000",
		CreatedAt: time.Now().UTC(),
	})
	_ = e.Store.CreateSession(context.Background(), &domain.Session{
		ID:           uuid.NewString(),
		UserID:       uid,
		SessionToken: tok,
		ExpiresAt:    time.Now().UTC().Add(24 * time.Hour),
		CreatedAt:    time.Now().UTC(),
	})
	return uid, tok
}

func (e *testEnv) do(method, path, body string, hdr map[string]string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	e.Router.ServeHTTP(w, req)
	return w
}

func bearer(tok string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + tok}
}
