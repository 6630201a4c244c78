package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/irrigo/irrigo/internal/shared"
)

type stubRepo struct {
	users    map[string]*User
	sessions map[string]int64
}

func newStubRepo(t *testing.T, email, password string) *stubRepo {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return &stubRepo{
		users:    map[string]*User{email: {ID: 7, Email: email, PasswordHash: string(hash), IsActive: true}},
		sessions: map[string]int64{},
	}
}

func (s *stubRepo) FindByEmail(ctx context.Context, email string) (*User, error) {
	if user, ok := s.users[email]; ok {
		return user, nil
	}
	return nil, shared.ErrNotFound
}

func (s *stubRepo) FindByID(ctx context.Context, id int64) (*User, error) {
	for _, user := range s.users {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (s *stubRepo) UpsertUser(ctx context.Context, email, passwordHash string) (*User, error) {
	user, ok := s.users[email]
	if !ok {
		user = &User{ID: int64(len(s.users) + 100), Email: email}
		s.users[email] = user
	}
	user.PasswordHash = passwordHash
	user.IsActive = true
	return user, nil
}

func (s *stubRepo) CreateSession(ctx context.Context, id string, userID int64, expiresAt time.Time, ip, ua string) error {
	s.sessions[id] = userID
	return nil
}

func (s *stubRepo) DeleteSession(ctx context.Context, id string) error {
	delete(s.sessions, id)
	return nil
}

type authFixture struct {
	router   chi.Router
	sessions *shared.SessionManager
	redis    *miniredis.Miniredis
	repo     *stubRepo
	cookie   string
}

func newFixture(t *testing.T) *authFixture {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	sessions := shared.NewSessionManager(client, "irrigo_admin", time.Hour, false)
	repo := newStubRepo(t, "admin@irrigo.test", "correct-horse")
	handler := NewHandler(nil, NewService(repo), sessions, shared.NewCSRFManager("csrf-secret"))

	f := &authFixture{sessions: sessions, redis: mr, repo: repo}
	router := chi.NewRouter()
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, err := sessions.Load(r.Context(), r)
			require.NoError(t, err)
			ctx := shared.ContextWithSession(r.Context(), sess)
			rec := httptest.NewRecorder()
			next.ServeHTTP(rec, r.WithContext(ctx))
			require.NoError(t, sessions.Commit(ctx, w, sess))
			f.cookie = sess.ID
			for k, v := range rec.Header() {
				w.Header()[k] = v
			}
			w.WriteHeader(rec.Code)
			_, _ = w.Write(rec.Body.Bytes())
		})
	})
	handler.MountRoutes(router)
	router.With(RequireAdmin).Get("/protected", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, int64(7), shared.AdminFromContext(r.Context()))
		w.WriteHeader(http.StatusNoContent)
	})
	f.router = router
	return f
}

func (f *authFixture) do(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if f.cookie != "" {
		req.AddCookie(&http.Cookie{Name: f.sessions.CookieName(), Value: f.cookie})
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decodeSession(t *testing.T, rec *httptest.ResponseRecorder) sessionResponse {
	t.Helper()
	var resp sessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestCurrentSessionAnonymousIssuesCSRFToken(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodGet, "/session", "")
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeSession(t, rec)
	assert.False(t, resp.Authenticated)
	assert.NotEmpty(t, resp.CSRFToken)
	assert.True(t, f.redis.Exists("irrigo:session:"+f.cookie))
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	f := newFixture(t)
	f.do(http.MethodGet, "/session", "")

	rec := f.do(http.MethodPost, "/session", `{"email":"admin@irrigo.test","password":"wrong-password"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, f.repo.sessions)
}

func TestLoginValidatesBody(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodPost, "/session", `{"email":"not-an-email","password":"x"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"email"`)
	assert.Contains(t, rec.Body.String(), `"password"`)
}

func TestLoginRenewsSessionAndGrantsAccess(t *testing.T) {
	f := newFixture(t)
	f.do(http.MethodGet, "/session", "")
	anonymousID := f.cookie

	rec := f.do(http.MethodPost, "/session", `{"email":"admin@irrigo.test","password":"correct-horse"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeSession(t, rec)
	assert.True(t, resp.Authenticated)
	require.NotNil(t, resp.User)
	assert.Equal(t, "admin@irrigo.test", resp.User.Email)
	assert.NotEqual(t, anonymousID, f.cookie)
	assert.False(t, f.redis.Exists("irrigo:session:"+anonymousID))
	assert.Equal(t, int64(7), f.repo.sessions[f.cookie])

	assert.Equal(t, http.StatusNoContent, f.do(http.MethodGet, "/protected", "").Code)

	current := decodeSession(t, f.do(http.MethodGet, "/session", ""))
	assert.True(t, current.Authenticated)
	assert.Equal(t, resp.CSRFToken, current.CSRFToken)
}

func TestLogoutDestroysSession(t *testing.T) {
	f := newFixture(t)
	f.do(http.MethodGet, "/session", "")
	require.Equal(t, http.StatusOK, f.do(http.MethodPost, "/session", `{"email":"admin@irrigo.test","password":"correct-horse"}`).Code)
	loggedIn := f.cookie

	assert.Equal(t, http.StatusNoContent, f.do(http.MethodDelete, "/session", "").Code)
	assert.False(t, f.redis.Exists("irrigo:session:"+loggedIn))
	assert.Empty(t, f.repo.sessions)
}

func TestRequireAdminRejectsAnonymous(t *testing.T) {
	f := newFixture(t)
	rec := f.do(http.MethodGet, "/protected", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
}

func TestSaveAdminValidatesAndHashes(t *testing.T) {
	repo := newStubRepo(t, "admin@irrigo.test", "correct-horse")
	svc := NewService(repo)

	_, err := svc.SaveAdmin(context.Background(), "bad", "short")
	var fields shared.FieldErrors
	require.ErrorAs(t, err, &fields)
	assert.Len(t, fields, 2)

	user, err := svc.SaveAdmin(context.Background(), "ops@irrigo.test", "long-enough-pass")
	require.NoError(t, err)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("long-enough-pass")))

	authed, err := svc.Authenticate(context.Background(), "ops@irrigo.test", "long-enough-pass")
	require.NoError(t, err)
	assert.Equal(t, user.ID, authed.ID)
}
