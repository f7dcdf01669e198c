package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/tazhibayda/blood-service/internal/domain"
)

func Test_Me_ValidSession(t *testing.T) {
	env := newTestEnv(t)
	uid, tok := env.seedUser(t, domain.UserTypeDonor, "Almaty")

	w := env.do("GET", "/api/auth/me", "", bearer(tok))
	if w.Code != http.StatusOK {
		t.Fatalf("me code=%d body=%s", w.Code, w.Body.String())
	}
	var u domain.User
	if err := json.Unmarshal(w.Body.Bytes(), &u); err != nil {
		t.Fatal(err)
	}
	if u.ID != uid || u.UserType != domain.UserTypeDonor {
		t.Fatalf("wrong user returned: %+v", u)
	}
}

func Test_Me_NoCredential(t *testing.T) {
	env := newTestEnv(t)

	w := env.do("GET", "/api/auth/me", "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d: %s", w.Code, w.Body.String())
	}
}

func Test_Me_ExpiredSession(t *testing.T) {
	env := newTestEnv(t)
	uid, _ := env.seedUser(t, domain.UserTypeDonor, "Almaty")

	// сессия с истёкшим сроком; зона не-UTC не должна влиять на сравнение
	loc := time.FixedZone("UTC+6", 6*3600)
	tok := "expired-token"
	_ = env.Store.CreateSession(context.Background(), &domain.Session{
		ID:           uuid.NewString(),
		UserID:       uid,
		SessionToken: tok,
		ExpiresAt:    time.Now().In(loc).Add(-time.Hour),
	})

	w := env.do("GET", "/api/auth/me", "", bearer(tok))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for expired session, got %d", w.Code)
	}
}

func Test_Me_OrphanedSession(t *testing.T) {
	env := newTestEnv(t)

	// session points at a user that does not exist
	tok := "orphan-token"
	_ = env.Store.CreateSession(context.Background(), &domain.Session{
		ID:           uuid.NewString(),
		UserID:       "gone",
		SessionToken: tok,
		ExpiresAt:    time.Now().UTC().Add(time.Hour),
	})

	w := env.do("GET", "/api/auth/me", "", bearer(tok))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for orphaned session, got %d", w.Code)
	}
}

func Test_BearerTakesPrecedenceOverCookie(t *testing.T) {
	env := newTestEnv(t)
	_, tok := env.seedUser(t, domain.UserTypeDonor, "Almaty")

	w := env.do("GET", "/api/auth/me", "", map[string]string{
		"Authorization": "Bearer " + tok,
		"Cookie":        "session_token=bogus",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("bearer should win over bad cookie, got %d: %s", w.Code, w.Body.String())
	}
}

func Test_CookieFallback(t *testing.T) {
	env := newTestEnv(t)
	_, tok := env.seedUser(t, domain.UserTypeDonor, "Almaty")

	w := env.do("GET", "/api/auth/me", "", map[string]string{"Cookie": "session_token=" + tok})
	if w.Code != http.StatusOK {
		t.Fatalf("cookie credential failed: %d %s", w.Code, w.Body.String())
	}
}

func Test_Logout_InvalidatesSession(t *testing.T) {
	env := newTestEnv(t)
	_, tok := env.seedUser(t, domain.UserTypeDonor, "Almaty")

	w := env.do("POST", "/api/auth/logout", "", bearer(tok))
	if w.Code != http.StatusOK {
		t.Fatalf("logout: %d %s", w.Code, w.Body.String())
	}

	w = env.do("GET", "/api/auth/me", "", bearer(tok))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("token must be dead after logout, got %d", w.Code)
	}
}

func Test_Profile_MissingSessionID(t *testing.T) {
	env := newTestEnv(t)

	w := env.do("GET", "/api/auth/profile", "", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func Test_Profile_ProviderFailure(t *testing.T) {
	env := newTestEnv(t)
	env.Auth.err = errors.New("session-data status 500: boom")

	w := env.do("GET", "/api/auth/profile?session_id=sid-1", "", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "authentication failed") {
		t.Fatalf("upstream detail missing: %s", w.Body.String())
	}
}

func Test_Profile_CreatesUserOnce_SessionsTwice(t *testing.T) {
	env := newTestEnv(t)

	w := env.do("GET", "/api/auth/profile?session_id=sid-1", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("profile1: %d %s", w.Code, w.Body.String())
	}
	var resp struct {
		User         domain.User `json:"user"`
		SessionToken string      `json:"session_token"`
		RedirectTo   string      `json:"redirect_to"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.SessionToken != "provider-token-1" || resp.RedirectTo != "/dashboard" {
		t.Fatalf("unexpected payload: %+v", resp)
	}
	if resp.User.UserType != domain.UserTypeRequester || resp.User.City != "Unknown" {
		t.Fatalf("new user defaults wrong: %+v", resp.User)
	}

	// second login for the same email, new provider token
	env.Auth.data.SessionToken = "provider-token-2"
	w = env.do("GET", "/api/auth/profile?session_id=sid-2", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("profile2: %d %s", w.Code, w.Body.String())
	}

	users, _ := env.Store.CountUsers(context.Background())
	if users != 1 {
		t.Fatalf("want 1 user, got %d", users)
	}
	if len(env.Store.sessions) != 2 {
		t.Fatalf("want 2 sessions, got %d", len(env.Store.sessions))
	}

	// freshly minted token is usable straight away
	w = env.do("GET", "/api/auth/me", "", bearer("provider-token-2"))
	if w.Code != http.StatusOK {
		t.Fatalf("second token unusable: %d %s", w.Code, w.Body.String())
	}
}

func Test_SetSession_CookieDirective(t *testing.T) {
	env := newTestEnv(t)

	w := env.do("POST", "/api/auth/set-session", `{"session_token":"tok-1"}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("set-session: %d %s", w.Code, w.Body.String())
	}
	sc := w.Header().Get("Set-Cookie")
	for _, want := range []string{"session_token=tok-1", "Path=/", "HttpOnly", "Secure", "SameSite=None"} {
		if !strings.Contains(sc, want) {
			t.Fatalf("cookie missing %q: %s", want, sc)
		}
	}
}

func Test_SetSession_MissingToken(t *testing.T) {
	env := newTestEnv(t)

	w := env.do("POST", "/api/auth/set-session", `{}`, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func Test_UpdateProfile_AllowList(t *testing.T) {
	env := newTestEnv(t)
	uid, tok := env.seedUser(t, domain.UserTypeRequester, "Unknown")

	body := `{"user_type":"donor","city":"Astana","phone":"+7-701-111-2233","email":"hijack@example.com","id":"evil"}`
	w := env.do("PUT", "/api/auth/profile", body, bearer(tok))
	if w.Code != http.StatusOK {
		t.Fatalf("update: %d %s", w.Code, w.Body.String())
	}

	u, _ := env.Store.FindUserByID(context.Background(), uid)
	if u.UserType != domain.UserTypeDonor || u.City != "Astana" {
		t.Fatalf("patch not applied: %+v", u)
	}
	// identity fields must survive the patch untouched
	if u.ID != uid || !strings.HasSuffix(u.Email, "@example.com") || u.Email == "hijack@example.com" {
		t.Fatalf("identity fields mutated: %+v", u)
	}
}

func Test_UpdateProfile_BadUserType(t *testing.T) {
	env := newTestEnv(t)
	_, tok := env.seedUser(t, domain.UserTypeRequester, "Unknown")

	w := env.do("PUT", "/api/auth/profile", `{"user_type":"vampire"}`, bearer(tok))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
}
