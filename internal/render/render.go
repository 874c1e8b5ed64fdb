// Package render writes the final episode document: YAML front matter
// followed by a Markdown body with summary, show notes and the redacted
// transcript.
package render

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gosimple/slug"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"podscrub/internal/adspan"
	"podscrub/internal/logger"
	"podscrub/internal/types"
)

// FrontMatter is the document header. The report command parses it back,
// so fields removed here break that reader.
type FrontMatter struct {
	Title       string          `yaml:"title"`
	Podcast     string          `yaml:"podcast,omitempty"`
	Published   time.Time       `yaml:"published,omitempty"`
	AudioURL    string          `yaml:"audio_url,omitempty"`
	PageURL     string          `yaml:"page_url,omitempty"`
	Duration    string          `yaml:"duration,omitempty"`
	Language    string          `yaml:"language,omitempty"`
	Topics      []string        `yaml:"topics,omitempty"`
	Keywords    []string        `yaml:"keywords,omitempty"`
	AdSpans     []adspan.Span   `yaml:"ad_spans,omitempty"`
	Warnings    []types.Warning `yaml:"warnings,omitempty"`
	GeneratedAt time.Time       `yaml:"generated_at"`
}

type Markdown struct {
	dir string
	log *logrus.Entry
}

func New(dir string, log *logger.Logger) *Markdown {
	return &Markdown{
		dir: dir,
		log: log.WithField("component", "render"),
	}
}

// Render writes the document under a date-plus-slug name and returns the
// path.
func (r *Markdown) Render(ctx context.Context, doc types.Document) (string, error) {
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	ep := doc.Episode
	name := slug.Make(ep.Title)
	if name == "" {
		name = "episode"
	}
	if !ep.Published.IsZero() {
		name = ep.Published.Format("2006-01-02") + "-" + name
	}
	outPath := filepath.Join(r.dir, name+".md")

	head, err := yaml.Marshal(FrontMatter{
		Title:       ep.Title,
		Podcast:     ep.Podcast,
		Published:   ep.Published,
		AudioURL:    ep.AudioURL,
		PageURL:     ep.PageURL,
		Duration:    ep.Duration,
		Language:    doc.Language,
		Topics:      doc.Analysis.Topics,
		Keywords:    doc.Analysis.Keywords,
		AdSpans:     doc.Analysis.AdSpans,
		Warnings:    doc.Warnings,
		GeneratedAt: time.Now().UTC(),
	})
	if err != nil {
		return "", fmt.Errorf("marshal front matter: %w", err)
	}

	var b strings.Builder
	b.WriteString("---\n")
	b.Write(head)
	b.WriteString("---\n\n")
	fmt.Fprintf(&b, "# %s\n\n", ep.Title)
	if doc.Analysis.Summary != "" {
		b.WriteString("## Summary\n\n")
		b.WriteString(doc.Analysis.Summary)
		b.WriteString("\n\n")
	}
	if notes := stripHTML(ep.Description); notes != "" {
		b.WriteString("## Show Notes\n\n")
		b.WriteString(notes)
		b.WriteString("\n\n")
	}
	b.WriteString("## Transcript\n\n")
	b.WriteString(doc.Redacted)
	b.WriteString("\n")

	if err := os.WriteFile(outPath, []byte(b.String()), 0o644); err != nil {
		return "", fmt.Errorf("write document: %w", err)
	}
	r.log.WithFields(logrus.Fields{"path": outPath, "bytes": b.Len()}).Info("document written")
	return outPath, nil
}

// stripHTML turns feed show notes into plain text. Feeds mix plain text
// and HTML fragments, so plain input passes through untouched.
func stripHTML(s string) string {
	if s == "" {
		return ""
	}
	if !strings.ContainsAny(s, "<&") {
		return strings.TrimSpace(s)
	}
	gq, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return strings.TrimSpace(s)
	}
	return strings.Join(strings.Fields(gq.Text()), " ")
}
