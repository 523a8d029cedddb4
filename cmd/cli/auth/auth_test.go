package auth

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/crucial707/quill/cmd/cli/config"
	"github.com/spf13/cobra"
)

func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := &cobra.Command{Use: "quill", SilenceUsage: true, SilenceErrors: true}
	InitAuth(root)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestLoginThenLogout(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/auth/login" || r.Method != http.MethodPost {
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["email"] != "alice@example.com" || body["password"] != "hunter22" {
			t.Errorf("unexpected body: %v", body)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"token": "signed.jwt.token",
			"user":  map[string]string{"id": "u1", "username": "alice"},
		})
	}))
	defer srv.Close()
	t.Setenv("QUILL_API_URL", srv.URL)

	out, err := runCmd(t, "auth", "login", "--email", "alice@example.com", "--password", "hunter22")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if !strings.Contains(out, "Logged in as alice") {
		t.Errorf("unexpected output: %s", out)
	}
	token, err := config.LoadToken()
	if err != nil || token != "signed.jwt.token" {
		t.Fatalf("stored token: %q, %v", token, err)
	}

	out, err = runCmd(t, "auth", "logout")
	if err != nil || !strings.Contains(out, "Logged out") {
		t.Fatalf("logout: %q, %v", out, err)
	}
	if _, err := config.LoadToken(); err == nil {
		t.Error("token should be removed after logout")
	}
}

func TestLogin_InvalidCredentials(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"invalid credentials"}`))
	}))
	defer srv.Close()
	t.Setenv("QUILL_API_URL", srv.URL)

	_, err := runCmd(t, "auth", "login", "--email", "alice@example.com", "--password", "wrong")
	if err == nil || !strings.Contains(err.Error(), "invalid credentials") {
		t.Fatalf("expected invalid credentials error, got %v", err)
	}
	if _, err := config.LoadToken(); err == nil {
		t.Error("no token should be stored after a failed login")
	}
}

func TestRegister_RequiresFlags(t *testing.T) {
	if _, err := runCmd(t, "auth", "register", "--username", "alice"); err == nil {
		t.Error("expected missing flag error")
	}
}
