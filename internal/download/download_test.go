package download

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"podscrub/internal/logger"
)

func TestDownloadWritesFile(t *testing.T) {
	payload := strings.Repeat("audio-bytes ", 1000)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(payload))
	}))
	defer server.Close()

	dir := t.TempDir()
	f := New(dir, logger.New())

	got, err := f.Download(context.Background(), server.URL+"/show/episode.mp3")
	if err != nil {
		t.Fatalf("Download() error = %v", err)
	}
	if filepath.Dir(got) != dir {
		t.Errorf("file %s landed outside the media dir %s", got, dir)
	}
	if filepath.Ext(got) != ".mp3" {
		t.Errorf("file %s should keep the .mp3 extension", got)
	}
	data, err := os.ReadFile(got)
	if err != nil {
		t.Fatalf("reading downloaded file: %v", err)
	}
	if string(data) != payload {
		t.Errorf("downloaded %d bytes, want %d", len(data), len(payload))
	}
}

func TestDownloadStatusFailureLeavesNothing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	dir := t.TempDir()
	f := New(dir, logger.New())

	if _, err := f.Download(context.Background(), server.URL+"/gone.mp3"); err == nil {
		t.Fatal("Download() = nil error, want 404 failure")
	}
	assertEmptyDir(t, dir)
}

func TestDownloadTruncatedBodyRemovesPartialFile(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Promise more bytes than delivered so the client sees a
		// truncated stream mid-copy.
		w.Header().Set("Content-Length", "100000")
		w.Write([]byte("only a little"))
	}))
	defer server.Close()

	dir := t.TempDir()
	f := New(dir, logger.New())

	if _, err := f.Download(context.Background(), server.URL+"/cut.mp3"); err == nil {
		t.Fatal("Download() = nil error, want truncation failure")
	}
	assertEmptyDir(t, dir)
}

func TestDownloadEmptyURL(t *testing.T) {
	f := New(t.TempDir(), logger.New())
	if _, err := f.Download(context.Background(), ""); err == nil {
		t.Fatal("Download(\"\") = nil error, want failure")
	}
}

func TestExtensionOf(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://cdn.example.com/ep.mp3", ".mp3"},
		{"https://cdn.example.com/ep.M4A?token=abc", ".m4a"},
		{"https://cdn.example.com/ep.exe", ".mp3"},
		{"https://cdn.example.com/stream", ".mp3"},
		{"://bad", ".mp3"},
	}
	for _, tt := range tests {
		if got := extensionOf(tt.url); got != tt.want {
			t.Errorf("extensionOf(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}

func assertEmptyDir(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("reading %s: %v", dir, err)
	}
	if len(entries) != 0 {
		t.Errorf("media dir should be empty, found %d entries", len(entries))
	}
}
