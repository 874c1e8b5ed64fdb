// Package report compiles rendered episode documents into a spreadsheet
// for a quick overview of a processing batch.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"

	"podscrub/internal/logger"
	"podscrub/internal/render"
)

const sheet = "Episodes"

// Build scans dir for rendered documents and writes one spreadsheet row
// per episode to outPath. Documents whose front matter does not parse are
// skipped with a warning. Returns the number of rows written.
func Build(dir, outPath string, log *logger.Logger) (int, error) {
	blog := log.WithField("component", "report")

	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("read output dir: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return 0, fmt.Errorf("name sheet: %w", err)
	}

	headers := []string{"Title", "Podcast", "Published", "Language", "Topics", "Keywords", "Ad Segments", "Warnings", "File"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".md") {
			continue
		}
		fm, err := readFrontMatter(filepath.Join(dir, e.Name()))
		if err != nil {
			blog.WithField("file", e.Name()).WithError(err).Warn("skipping document")
			continue
		}

		published := ""
		if !fm.Published.IsZero() {
			published = fm.Published.Format("2006-01-02")
		}
		values := []interface{}{
			fm.Title,
			fm.Podcast,
			published,
			fm.Language,
			strings.Join(fm.Topics, ", "),
			strings.Join(fm.Keywords, ", "),
			len(fm.AdSpans),
			len(fm.Warnings),
			e.Name(),
		}
		for i, v := range values {
			cell, _ := excelize.CoordinatesToCellName(i+1, row)
			f.SetCellValue(sheet, cell, v)
		}
		row++
	}
	if row == 2 {
		return 0, fmt.Errorf("no rendered documents in %s", dir)
	}

	f.SetColWidth(sheet, "A", "B", 36)
	f.SetColWidth(sheet, "C", "I", 18)
	if err := f.SaveAs(outPath); err != nil {
		return 0, fmt.Errorf("save report: %w", err)
	}
	count := row - 2
	blog.WithFields(logrus.Fields{"episodes": count, "path": outPath}).Info("report written")
	return count, nil
}

func readFrontMatter(path string) (render.FrontMatter, error) {
	var fm render.FrontMatter
	data, err := os.ReadFile(path)
	if err != nil {
		return fm, err
	}
	content := string(data)
	if !strings.HasPrefix(content, "---\n") {
		return fm, fmt.Errorf("no front matter")
	}
	rest := content[4:]
	idx := strings.Index(rest, "\n---\n")
	if idx < 0 {
		return fm, fmt.Errorf("front matter not closed")
	}
	if err := yaml.Unmarshal([]byte(rest[:idx+1]), &fm); err != nil {
		return fm, fmt.Errorf("parse front matter: %w", err)
	}
	return fm, nil
}
