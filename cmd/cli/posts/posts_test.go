package posts

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/crucial707/quill/cmd/cli/config"
	"github.com/crucial707/quill/internal/models"
	"github.com/spf13/cobra"
)

func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := &cobra.Command{Use: "quill", SilenceUsage: true, SilenceErrors: true}
	InitPosts(root)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func samplePage() models.PostPage {
	now := time.Now()
	return models.PostPage{
		Posts: []models.Post{
			{ID: "p2", Title: "Second post", Username: "bob", CreatedAt: now},
			{ID: "p1", Title: "First post", Username: "alice", CreatedAt: now.Add(-time.Hour)},
		},
		Total: 2, Page: 1, TotalPages: 1,
	}
}

func TestListPosts_TableOutput(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/posts" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if r.URL.Query().Get("search") != "post" {
			t.Errorf("search not forwarded: %s", r.URL.RawQuery)
		}
		_ = json.NewEncoder(w).Encode(samplePage())
	}))
	defer srv.Close()
	t.Setenv("QUILL_API_URL", srv.URL)

	out, err := runCmd(t, "posts", "list", "--search", "post")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out, "Second post") || !strings.Contains(out, "alice") || !strings.Contains(out, "Page 1 of 1") {
		t.Fatalf("expected posts in output, got: %s", out)
	}
}

func TestListPosts_JSONOutput(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(samplePage())
	}))
	defer srv.Close()
	t.Setenv("QUILL_API_URL", srv.URL)

	out, err := runCmd(t, "posts", "list", "--json")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out, `"totalPages": 1`) || !strings.Contains(out, `"username": "bob"`) {
		t.Fatalf("expected JSON output, got: %s", out)
	}
}

func TestUpdatePost_OnlyChangedFlags(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	if err := config.SaveToken("tok"); err != nil {
		t.Fatalf("SaveToken: %v", err)
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Path != "/api/posts/p1" {
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if len(body) != 1 || body["title"] != "Better title" {
			t.Errorf("unexpected body: %v", body)
		}
		_ = json.NewEncoder(w).Encode(models.Post{ID: "p1", Title: "Better title"})
	}))
	defer srv.Close()
	t.Setenv("QUILL_API_URL", srv.URL)

	out, err := runCmd(t, "posts", "update", "p1", "--title", "Better title")
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !strings.Contains(out, "Updated post p1") {
		t.Errorf("unexpected output: %s", out)
	}
}

func TestUpdatePost_NothingToUpdate(t *testing.T) {
	if _, err := runCmd(t, "posts", "update", "p1"); err == nil {
		t.Error("expected error when no fields are given")
	}
}

func TestDeletePost_RequiresLogin(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	_, err := runCmd(t, "posts", "delete", "p1")
	if err == nil || !strings.Contains(err.Error(), "not logged in") {
		t.Fatalf("expected not logged in error, got %v", err)
	}
}

func TestDeletePost_Forbidden(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	_ = config.SaveToken("tok")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":"not authorized to modify this post"}`))
	}))
	defer srv.Close()
	t.Setenv("QUILL_API_URL", srv.URL)

	_, err := runCmd(t, "posts", "delete", "p1")
	if err == nil || !strings.Contains(err.Error(), "not authorized") {
		t.Fatalf("expected forbidden error, got %v", err)
	}
}

func TestListPosts_Mine(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	if err := config.SaveToken("tok"); err != nil {
		t.Fatalf("SaveToken: %v", err)
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			t.Errorf("missing token on %s", r.URL.Path)
		}
		switch r.URL.Path {
		case "/api/auth/me":
			_ = json.NewEncoder(w).Encode(models.User{ID: "u-alice", Username: "alice"})
		case "/api/posts":
			if got := r.URL.Query().Get("user"); got != "u-alice" {
				t.Errorf("user filter: got %q", got)
			}
			page := samplePage()
			page.Posts = page.Posts[1:]
			page.Total = 1
			_ = json.NewEncoder(w).Encode(page)
		default:
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
	}))
	defer srv.Close()
	t.Setenv("QUILL_API_URL", srv.URL)

	out, err := runCmd(t, "posts", "list", "--mine")
	if err != nil {
		t.Fatalf("list --mine: %v", err)
	}
	if !strings.Contains(out, "First post") || strings.Contains(out, "Second post") {
		t.Fatalf("expected only alice's post, got: %s", out)
	}
}

func TestListPosts_MineRequiresLogin(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	_, err := runCmd(t, "posts", "list", "--mine")
	if err == nil || !strings.Contains(err.Error(), "not logged in") {
		t.Fatalf("expected not logged in error, got %v", err)
	}
}

func TestUploadImage_PrintsURL(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	_ = config.SaveToken("tok")

	path := filepath.Join(t.TempDir(), "cover.jpg")
	if err := os.WriteFile(path, []byte("\xff\xd8\xff\xe0 jpeg bytes"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/uploads" {
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"imageURL":"http://cdn.test/quill-media/covers/x.jpg"}`))
	}))
	defer srv.Close()
	t.Setenv("QUILL_API_URL", srv.URL)

	out, err := runCmd(t, "posts", "upload-image", path)
	if err != nil {
		t.Fatalf("upload-image: %v", err)
	}
	if strings.TrimSpace(out) != "http://cdn.test/quill-media/covers/x.jpg" {
		t.Errorf("unexpected output: %q", out)
	}
}
