package main

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/crucial707/quill/internal/auth"
	"github.com/crucial707/quill/internal/config"
	"github.com/crucial707/quill/internal/models"
)

const testSecret = "test-secret-for-integration"

var userCols = []string{"id", "username", "email", "password_hash", "created_at"}
var postCols = []string{"id", "title", "content", "image_url", "username", "user_id", "created_at", "updated_at"}

type apiClient struct {
	t   *testing.T
	srv *httptest.Server
}

func (c apiClient) do(method, path, token string, body any) *http.Response {
	c.t.Helper()
	var rd *bytes.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}
	req, _ := http.NewRequest(method, c.srv.URL+path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := c.srv.Client().Do(req)
	if err != nil {
		c.t.Fatalf("%s %s: %v", method, path, err)
	}
	return resp
}

func decode(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode %s: %v", resp.Request.URL.Path, err)
	}
}

func expectStatus(t *testing.T, resp *http.Response, want int) {
	t.Helper()
	if resp.StatusCode != want {
		t.Fatalf("%s %s: got %d, want %d", resp.Request.Method, resp.Request.URL.Path, resp.StatusCode, want)
	}
}

// TestAPI_PostLifecycle builds the full router over a sqlmock-backed DB and runs
// register, login, create, get, a forbidden update, delete and a final get.
func TestAPI_PostLifecycle(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	cfg := config.Config{JWTSecret: testSecret, JWTExpireHours: 1}
	srv := httptest.NewServer(newRouter(db, cfg, nil))
	defer srv.Close()
	c := apiClient{t: t, srv: srv}

	// 1) Register
	mock.ExpectQuery(`INSERT INTO users`).
		WithArgs(sqlmock.AnyArg(), "alice", "alice@example.com", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))

	resp := c.do("POST", "/api/auth/register", "", map[string]string{
		"username": "alice", "email": "alice@example.com", "password": "hunter22",
	})
	expectStatus(t, resp, http.StatusCreated)
	var alice models.User
	decode(t, resp, &alice)

	// 2) Login
	hash, _ := auth.HashPassword("hunter22")
	mock.ExpectQuery(`FROM users WHERE email = \$1`).
		WithArgs("alice@example.com").
		WillReturnRows(sqlmock.NewRows(userCols).AddRow(alice.ID, "alice", "alice@example.com", hash, alice.CreatedAt))

	resp = c.do("POST", "/api/auth/login", "", map[string]string{"email": "alice@example.com", "password": "hunter22"})
	expectStatus(t, resp, http.StatusOK)
	var login struct {
		Token string      `json:"token"`
		User  models.User `json:"user"`
	}
	decode(t, resp, &login)
	if login.Token == "" || login.User.ID != alice.ID {
		t.Fatalf("unexpected login response: %+v", login)
	}

	expectUser := func(u models.User) {
		mock.ExpectQuery(`FROM users WHERE id = \$1`).
			WithArgs(u.ID).
			WillReturnRows(sqlmock.NewRows(userCols).AddRow(u.ID, u.Username, u.Email, "x", u.CreatedAt))
	}

	// 3) Create
	content := strings.Repeat("Go is fun! ", 6)[:60]
	expectUser(alice)
	mock.ExpectExec(`INSERT INTO posts`).
		WithArgs(sqlmock.AnyArg(), "Hello World", content, "", "alice", alice.ID, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	resp = c.do("POST", "/api/posts", login.Token, map[string]string{"title": "Hello World", "content": content})
	expectStatus(t, resp, http.StatusCreated)
	var created models.Post
	decode(t, resp, &created)
	if created.UserID != alice.ID || created.Username != "alice" {
		t.Fatalf("unexpected post: %+v", created)
	}

	postRow := func() *sqlmock.Rows {
		return sqlmock.NewRows(postCols).
			AddRow(created.ID, created.Title, created.Content, "", "alice", alice.ID, created.CreatedAt, created.UpdatedAt)
	}

	// 4) Get (public)
	mock.ExpectQuery(`FROM posts WHERE id = \$1`).WithArgs(created.ID).WillReturnRows(postRow())
	resp = c.do("GET", "/api/posts/"+created.ID, "", nil)
	expectStatus(t, resp, http.StatusOK)
	resp.Body.Close()

	// 5) Update by another user
	bob := models.User{ID: "2a4c6e80-1b3d-4f5a-8c7e-9d0f1a2b3c4d", Username: "bob", Email: "bob@example.com", CreatedAt: time.Now()}
	bobToken, err := auth.NewTokens([]byte(testSecret), time.Hour).Issue(bob.ID, bob.Username)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	expectUser(bob)
	mock.ExpectQuery(`FROM posts WHERE id = \$1`).WithArgs(created.ID).WillReturnRows(postRow())

	resp = c.do("PUT", "/api/posts/"+created.ID, bobToken, map[string]string{"title": "Hijacked title"})
	expectStatus(t, resp, http.StatusForbidden)
	resp.Body.Close()

	// 6) Delete by owner
	expectUser(alice)
	mock.ExpectQuery(`FROM posts WHERE id = \$1`).WithArgs(created.ID).WillReturnRows(postRow())
	mock.ExpectExec(`DELETE FROM posts WHERE id = \$1 AND user_id = \$2`).
		WithArgs(created.ID, alice.ID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	resp = c.do("DELETE", "/api/posts/"+created.ID, login.Token, nil)
	expectStatus(t, resp, http.StatusOK)
	var msg map[string]string
	decode(t, resp, &msg)
	if msg["message"] != "post deleted successfully" {
		t.Errorf("unexpected delete response: %v", msg)
	}

	// 7) Get after delete
	mock.ExpectQuery(`FROM posts WHERE id = \$1`).WithArgs(created.ID).WillReturnError(sql.ErrNoRows)
	resp = c.do("GET", "/api/posts/"+created.ID, "", nil)
	expectStatus(t, resp, http.StatusNotFound)
	resp.Body.Close()

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestAPI_ProtectedRoutesRequireToken(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	srv := httptest.NewServer(newRouter(db, config.Config{JWTSecret: testSecret}, nil))
	defer srv.Close()
	c := apiClient{t: t, srv: srv}

	for _, tc := range []struct{ method, path string }{
		{"POST", "/api/posts"},
		{"PUT", "/api/posts/0b6d7b9e-3f0e-4a57-9d57-2f3c0c1d8a11"},
		{"DELETE", "/api/posts/0b6d7b9e-3f0e-4a57-9d57-2f3c0c1d8a11"},
		{"GET", "/api/auth/me"},
	} {
		resp := c.do(tc.method, tc.path, "", nil)
		expectStatus(t, resp, http.StatusUnauthorized)
		resp.Body.Close()
	}

	resp := c.do("GET", "/api/auth/me", "not-a-token", nil)
	expectStatus(t, resp, http.StatusUnauthorized)
	resp.Body.Close()

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("no query expected: %v", err)
	}
}

func TestAPI_HealthAndUploadsDisabled(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	srv := httptest.NewServer(newRouter(db, config.Config{JWTSecret: testSecret}, nil))
	defer srv.Close()
	c := apiClient{t: t, srv: srv}

	resp := c.do("GET", "/health", "", nil)
	expectStatus(t, resp, http.StatusOK)
	if resp.Header.Get("X-Content-Type-Options") != "nosniff" {
		t.Error("security headers missing")
	}
	resp.Body.Close()

	resp = c.do("POST", "/api/uploads", "", nil)
	expectStatus(t, resp, http.StatusNotFound)
	resp.Body.Close()
}

func TestTokenTTL(t *testing.T) {
	if got := tokenTTL(config.Config{}); got != 24*time.Hour {
		t.Errorf("default ttl: got %v", got)
	}
	if got := tokenTTL(config.Config{JWTExpireHours: 2}); got != 2*time.Hour {
		t.Errorf("ttl: got %v", got)
	}
}
