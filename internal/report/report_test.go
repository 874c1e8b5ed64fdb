package report

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"podscrub/internal/adspan"
	"podscrub/internal/logger"
	"podscrub/internal/render"
	"podscrub/internal/types"
)

// Renders real documents and reads them back, so the report stays in sync
// with whatever the renderer writes.
func renderFixtures(t *testing.T, dir string) {
	t.Helper()
	r := render.New(dir, logger.New())
	docs := []types.Document{
		{
			Episode: types.Episode{
				Title:     "Episode One",
				Podcast:   "Test Show",
				Published: time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC),
			},
			Language: "en",
			Redacted: "first transcript",
			Analysis: types.Analysis{
				Topics:  []string{"go", "testing"},
				AdSpans: []adspan.Span{{Start: 0, End: 5}},
			},
		},
		{
			Episode: types.Episode{
				Title:     "Episode Two",
				Podcast:   "Test Show",
				Published: time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC),
			},
			Language: "es",
			Redacted: "second transcript",
			Warnings: []types.Warning{
				{Stage: "transcribe", Message: `transcription language "es", expected "en"`},
			},
		},
	}
	for _, doc := range docs {
		if _, err := r.Render(context.Background(), doc); err != nil {
			t.Fatalf("rendering fixture: %v", err)
		}
	}
}

func TestBuild(t *testing.T) {
	dir := t.TempDir()
	renderFixtures(t, dir)
	// A stray file that must be skipped, not fail the build
	if err := os.WriteFile(filepath.Join(dir, "notes.md"), []byte("no front matter here"), 0o644); err != nil {
		t.Fatal(err)
	}

	outPath := filepath.Join(t.TempDir(), "report.xlsx")
	count, err := Build(dir, outPath, logger.New())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if count != 2 {
		t.Errorf("Build() = %d rows, want 2", count)
	}

	f, err := excelize.OpenFile(outPath)
	if err != nil {
		t.Fatalf("opening report: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(sheet)
	if err != nil {
		t.Fatalf("reading sheet: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want header + 2", len(rows))
	}
	if rows[0][0] != "Title" || rows[0][8] != "File" {
		t.Errorf("header row = %v", rows[0])
	}

	// ReadDir order is lexical, so the older episode comes first
	one := rows[1]
	if one[0] != "Episode One" || one[2] != "2025-06-03" || one[3] != "en" {
		t.Errorf("row 1 = %v", one)
	}
	if one[4] != "go, testing" {
		t.Errorf("topics cell = %q", one[4])
	}
	if one[6] != "1" {
		t.Errorf("ad segments cell = %q, want 1", one[6])
	}

	two := rows[2]
	if two[0] != "Episode Two" || two[7] != "1" {
		t.Errorf("row 2 = %v, want one warning counted", two)
	}
}

func TestBuildEmptyDirFails(t *testing.T) {
	outPath := filepath.Join(t.TempDir(), "report.xlsx")
	if _, err := Build(t.TempDir(), outPath, logger.New()); err == nil {
		t.Fatal("Build() on empty dir = nil error, want failure")
	}
}

func TestBuildMissingDirFails(t *testing.T) {
	if _, err := Build("/nonexistent/dir", "out.xlsx", logger.New()); err == nil {
		t.Fatal("Build() on missing dir = nil error, want failure")
	}
}
