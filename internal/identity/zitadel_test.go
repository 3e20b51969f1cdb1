package identity

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xela07ax/approval-desk/internal/infra"
	"go.uber.org/zap"
)

func newTestClient(authority string) *ZitadelClient {
	return NewZitadelClient(
		infra.ZitadelConfig{Authority: authority, Token: "test-pat"},
		infra.IdentityConfig{LookupTimeout: 2 * time.Second, RateLimit: 1000, RateBurst: 100},
		zap.NewNop(),
	)
}

func TestLookupUserHuman(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/management/v1/users/u1", r.URL.Path)
		assert.Equal(t, "Bearer test-pat", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"user": {
			"id": "u1",
			"userName": "ivan.petrov",
			"preferredLoginName": "ivan.petrov@corp.zitadel.cloud",
			"human": {
				"profile": {"firstName": "Ivan", "lastName": "Petrov", "displayName": "Ivan P."},
				"email": {"email": "ivan@corp.io"}
			}
		}}`))
	}))
	defer srv.Close()

	info, err := newTestClient(srv.URL).LookupUser(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1", info.UserID)
	assert.Equal(t, "Ivan P.", info.Name)
	assert.Equal(t, "ivan@corp.io", info.Email)
}

func TestLookupUserNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).LookupUser(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestLookupUserPermissionDenied(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).LookupUser(context.Background(), "u1")
	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestLookupUserServerErrorIsRetried(t *testing.T) {
	var attempts int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"user": {"id": "u1", "userName": "ivan"}}`))
	}))
	defer srv.Close()

	info, err := newTestClient(srv.URL).LookupUser(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "ivan", info.Name)
	assert.Equal(t, 3, attempts)
}

func TestExtractUserInfoPreferenceOrder(t *testing.T) {
	human := func(display, first, last, email string) *zitadelUser {
		u := &zitadelUser{
			ID:                 "u1",
			UserName:           "login.name",
			PreferredLoginName: "login@corp.zitadel.cloud",
			Human: &struct {
				Profile struct {
					FirstName   string `json:"firstName"`
					LastName    string `json:"lastName"`
					DisplayName string `json:"displayName"`
				} `json:"profile"`
				Email struct {
					Email string `json:"email"`
				} `json:"email"`
			}{},
		}
		u.Human.Profile.DisplayName = display
		u.Human.Profile.FirstName = first
		u.Human.Profile.LastName = last
		u.Human.Email.Email = email
		return u
	}

	// DisplayName приоритетнее имени и фамилии
	info := extractUserInfo(human("Ivan P.", "Ivan", "Petrov", "ivan@corp.io"))
	assert.Equal(t, "Ivan P.", info.Name)
	assert.Equal(t, "ivan@corp.io", info.Email)

	// Нет DisplayName — склейка First + Last
	info = extractUserInfo(human("", "Ivan", "Petrov", ""))
	assert.Equal(t, "Ivan Petrov", info.Name)
	assert.Equal(t, "login@corp.zitadel.cloud", info.Email)

	// Только фамилия — без лишних пробелов
	info = extractUserInfo(human("", "", "Petrov", ""))
	assert.Equal(t, "Petrov", info.Name)

	// Профиль пуст — остается каноничный userName
	info = extractUserInfo(human("", "", "", ""))
	assert.Equal(t, "login.name", info.Name)
}

func TestExtractUserInfoMachine(t *testing.T) {
	u := &zitadelUser{
		ID: "m1",
		Machine: &struct {
			Name string `json:"name"`
		}{Name: "ci-robot"},
	}

	info := extractUserInfo(u)
	assert.Equal(t, "ci-robot", info.Name)
	assert.Equal(t, "ci-robot@machine-account", info.Email)
}

func TestExtractUserInfoUnknownShape(t *testing.T) {
	u := &zitadelUser{ID: "x1", UserName: "mystery"}

	info := extractUserInfo(u)
	assert.Equal(t, "mystery", info.Name)
	assert.Equal(t, "mystery@example.com", info.Email)
}
