// Package transcribe uploads audio to a whisper-compatible endpoint and
// returns the transcript with its detected language.
package transcribe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"podscrub/internal/logger"
	"podscrub/internal/retry"
	"podscrub/internal/types"
)

type Client struct {
	http   *http.Client
	url    string
	key    string
	model  string
	policy retry.Policy
	log    *logrus.Entry
}

func New(endpoint, apiKey, model string, policy retry.Policy, log *logger.Logger) *Client {
	return &Client{
		http:   &http.Client{Timeout: 30 * time.Minute},
		url:    endpoint,
		key:    apiKey,
		model:  model,
		policy: policy,
		log:    log.WithField("component", "transcribe"),
	}
}

type statusError struct {
	status int
	body   string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("transcription status %d: %s", e.status, e.body)
}

// classify mirrors the LLM-side taxonomy for the STT transport: 429 aborts,
// server trouble and expired tokens are retried, the rest of 4xx is not.
func classify(err error) retry.Class {
	var se *statusError
	if errors.As(err, &se) {
		switch {
		case se.status == 429:
			return retry.RateLimit
		case se.status == 401 || se.status == 408:
			return retry.Transient
		case se.status >= 400 && se.status < 500:
			return retry.Client
		default:
			return retry.Transient
		}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return retry.Client
	}
	return retry.Transient
}

// Transcribe runs the upload under the retry policy. A failure that
// survives the policy is an engine failure the caller treats as fatal.
func (c *Client) Transcribe(ctx context.Context, mediaPath string) (types.Transcript, error) {
	var result types.Transcript
	op := func() error {
		t, err := c.upload(ctx, mediaPath)
		if err != nil {
			c.log.WithError(err).Warn("transcription attempt failed")
			return err
		}
		result = t
		return nil
	}
	if err := c.policy.Do(ctx, classify, op); err != nil {
		return types.Transcript{}, fmt.Errorf("transcription failed: %w", err)
	}
	c.log.WithFields(logrus.Fields{
		"language": result.Language,
		"chars":    len(result.Text),
	}).Info("transcript received")
	return result, nil
}

func (c *Client) upload(ctx context.Context, mediaPath string) (types.Transcript, error) {
	f, err := os.Open(mediaPath)
	if err != nil {
		return types.Transcript{}, fmt.Errorf("open media: %w", err)
	}
	defer f.Close()

	// Stream the form through a pipe instead of buffering the whole
	// episode in memory.
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	errCh := make(chan error, 1)
	go func() {
		defer pw.Close()
		defer mw.Close()

		if err := mw.WriteField("model", c.model); err != nil {
			errCh <- err
			return
		}
		if err := mw.WriteField("response_format", "verbose_json"); err != nil {
			errCh <- err
			return
		}
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, filepath.Base(mediaPath)))
		h.Set("Content-Type", mimeFromExt(filepath.Ext(mediaPath)))
		part, err := mw.CreatePart(h)
		if err != nil {
			errCh <- err
			return
		}
		if _, err := io.Copy(part, f); err != nil {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, pr)
	if err != nil {
		return types.Transcript{}, fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if c.key != "" {
		req.Header.Set("Authorization", "Bearer "+c.key)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return types.Transcript{}, fmt.Errorf("upload failed: %w", err)
	}
	defer resp.Body.Close()

	if writeErr := <-errCh; writeErr != nil {
		return types.Transcript{}, fmt.Errorf("multipart write error: %w", writeErr)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return types.Transcript{}, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return types.Transcript{}, &statusError{status: resp.StatusCode, body: snippet(raw)}
	}

	var payload struct {
		Text     string `json:"text"`
		Language string `json:"language"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return types.Transcript{}, fmt.Errorf("decode transcription response: %w", err)
	}
	if strings.TrimSpace(payload.Text) == "" {
		return types.Transcript{}, fmt.Errorf("engine returned an empty transcript")
	}
	return types.Transcript{
		Text:     payload.Text,
		Language: normalizeLanguage(payload.Language),
	}, nil
}

func mimeFromExt(ext string) string {
	switch strings.ToLower(ext) {
	case ".mp3":
		return "audio/mp3"
	case ".m4a":
		return "audio/m4a"
	case ".wav":
		return "audio/wav"
	case ".flac":
		return "audio/flac"
	case ".ogg":
		return "audio/ogg"
	case ".aac":
		return "audio/aac"
	case ".opus":
		return "audio/opus"
	default:
		return "application/octet-stream"
	}
}

// Whisper's verbose_json reports language as a word ("english"), not a
// code. Fold the common ones onto ISO codes so the language check compares
// like with like.
var languageCodes = map[string]string{
	"english":    "en",
	"spanish":    "es",
	"french":     "fr",
	"german":     "de",
	"italian":    "it",
	"portuguese": "pt",
	"dutch":      "nl",
	"polish":     "pl",
	"swedish":    "sv",
	"japanese":   "ja",
	"chinese":    "zh",
	"korean":     "ko",
	"russian":    "ru",
	"ukrainian":  "uk",
	"hindi":      "hi",
	"arabic":     "ar",
	"turkish":    "tr",
}

func normalizeLanguage(lang string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if code, ok := languageCodes[lang]; ok {
		return code
	}
	return lang
}

func snippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	return s
}
