// Package download fetches episode audio into local media storage.
package download

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"podscrub/internal/logger"
)

type Fetcher struct {
	http *http.Client
	dir  string
	log  *logrus.Entry
}

func New(dir string, log *logger.Logger) *Fetcher {
	return &Fetcher{
		// Hour-long shows off slow CDNs take a while
		http: &http.Client{Timeout: 10 * time.Minute},
		dir:  dir,
		log:  log.WithField("component", "download"),
	}
}

// Download streams the enclosure into the media dir under a fresh name and
// returns the local path. Nothing is left behind on failure: a partially
// written file is removed before the error returns.
func (f *Fetcher) Download(ctx context.Context, audioURL string) (string, error) {
	if audioURL == "" {
		return "", fmt.Errorf("episode has no audio URL")
	}
	if err := os.MkdirAll(f.dir, 0o755); err != nil {
		return "", fmt.Errorf("create media dir: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, audioURL, nil)
	if err != nil {
		return "", fmt.Errorf("build download request: %w", err)
	}
	resp, err := f.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("download failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("download failed: status %d", resp.StatusCode)
	}

	dest := filepath.Join(f.dir, uuid.New().String()+extensionOf(audioURL))
	out, err := os.Create(dest)
	if err != nil {
		return "", fmt.Errorf("create media file: %w", err)
	}

	n, err := io.Copy(out, resp.Body)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(dest)
		return "", fmt.Errorf("write media file: %w", err)
	}

	f.log.WithFields(logrus.Fields{"url": audioURL, "bytes": n, "path": dest}).Info("media downloaded")
	return dest, nil
}

// extensionOf keeps the enclosure's extension when it is a known audio one.
func extensionOf(audioURL string) string {
	u, err := url.Parse(audioURL)
	if err != nil {
		return ".mp3"
	}
	switch ext := strings.ToLower(path.Ext(u.Path)); ext {
	case ".mp3", ".m4a", ".aac", ".ogg", ".wav", ".flac", ".opus":
		return ext
	default:
		return ".mp3"
	}
}
