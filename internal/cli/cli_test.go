package cli

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() { rootCmd.SetArgs(nil) })
	err := rootCmd.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.HasPrefix(out, "reply_reminder_bot dev") {
		t.Errorf("output = %q", out)
	}
}

func TestResolveCommand(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v2/messages/2" {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"id":"2","original":"1","sender":"42","channel":"200","guild":"100","timestamp":"2024-05-01T12:00:00Z"}`))
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	out, err := execute(t, "resolve", "--api-url", srv.URL, "2")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !strings.Contains(out, `"sender": "42"`) {
		t.Errorf("output = %q, want the sender", out)
	}

	out, err = execute(t, "resolve", "--api-url", srv.URL, "3")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !strings.Contains(out, "was not proxied") {
		t.Errorf("output = %q", out)
	}
}

func TestResolveRequiresOneArgument(t *testing.T) {
	if _, err := execute(t, "resolve"); err == nil {
		t.Error("resolve without a message id succeeded")
	}
}
