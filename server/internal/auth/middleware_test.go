package auth

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	_, _ = w.Write([]byte("ok"))
})

func call(t *testing.T, mw func(http.Handler) http.Handler, header, key string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/refresh", nil)
	if key != "" {
		req.Header.Set(header, key)
	}
	rec := httptest.NewRecorder()
	mw(okHandler).ServeHTTP(rec, req)
	return rec
}

func TestAPIKey_ModeNone_PassesThrough(t *testing.T) {
	rec := call(t, APIKey("none", "x-api-key", "secret"), "x-api-key", "")
	if rec.Code != http.StatusOK {
		t.Errorf("status: got %d, want 200", rec.Code)
	}
	if rec.Body.String() != "ok" {
		t.Errorf("body: got %q, want ok", rec.Body.String())
	}
}

func TestAPIKey_EmptyKey_PassesThrough(t *testing.T) {
	rec := call(t, APIKey("apikey", "x-api-key", ""), "x-api-key", "")
	if rec.Code != http.StatusOK {
		t.Errorf("status: got %d, want 200", rec.Code)
	}
}

func TestAPIKey_CorrectKey_Passes(t *testing.T) {
	rec := call(t, APIKey("apikey", "x-api-key", "supersecret"), "x-api-key", "supersecret")
	if rec.Code != http.StatusOK {
		t.Errorf("status: got %d, want 200", rec.Code)
	}
}

func TestAPIKey_HeaderNameCaseInsensitive(t *testing.T) {
	rec := call(t, APIKey("apikey", "x-api-key", "supersecret"), "X-Api-Key", "supersecret")
	if rec.Code != http.StatusOK {
		t.Errorf("status: got %d, want 200", rec.Code)
	}
}

func TestAPIKey_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		header string
		key    string
	}{
		{"missing", "x-api-key", ""},
		{"wrong key", "x-api-key", "nope"},
		{"prefix of key", "x-api-key", "super"},
		{"wrong header", "authorization", "supersecret"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := call(t, APIKey("apikey", "x-api-key", "supersecret"), tc.header, tc.key)
			if rec.Code != http.StatusUnauthorized {
				t.Errorf("status: got %d, want 401", rec.Code)
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("content-type: got %q, want application/json", ct)
			}
		})
	}
}

// captureLogs routes the default logger into a buffer for the test.
func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return &buf
}

func TestAPIKey_WarnsWhenKeyMissing(t *testing.T) {
	buf := captureLogs(t)
	APIKey("apikey", "x-api-key", "")
	if !strings.Contains(buf.String(), "no key configured") {
		t.Errorf("log: got %q, want a missing key warning", buf.String())
	}
}

func TestAPIKey_NoWarningWhenConfigured(t *testing.T) {
	tests := []struct{ mode, key string }{
		{"apikey", "s3cret"},
		{"none", ""},
	}
	for _, tc := range tests {
		buf := captureLogs(t)
		APIKey(tc.mode, "x-api-key", tc.key)
		if buf.Len() != 0 {
			t.Errorf("mode=%s key=%q: unexpected log %q", tc.mode, tc.key, buf.String())
		}
	}
}
