// Package pipeline drives one episode through download, transcription,
// analysis, redaction and rendering, cleaning up media afterwards.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"podscrub/internal/adspan"
	"podscrub/internal/logger"
	"podscrub/internal/types"
)

type Stage string

const (
	StageDownload   Stage = "download"
	StageTranscribe Stage = "transcribe"
	StageAnalysis   Stage = "analysis"
	StageRedact     Stage = "redact"
	StageRender     Stage = "render"
	StageCleanup    Stage = "cleanup"
)

// StageError is a run-ending failure tagged with the stage that raised it.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

type Downloader interface {
	Download(ctx context.Context, url string) (string, error)
}

type Transcriber interface {
	Transcribe(ctx context.Context, path string) (types.Transcript, error)
}

type Analyzer interface {
	Run(ctx context.Context, transcript string) (types.Analysis, []types.Warning, error)
}

type Renderer interface {
	Render(ctx context.Context, doc types.Document) (string, error)
}

type Config struct {
	// KeepMedia retains the downloaded audio instead of treating it as
	// temporary storage.
	KeepMedia bool
	// ExpectLanguage warns when the transcription language differs.
	// Empty disables the check.
	ExpectLanguage string
}

type Pipeline struct {
	download   Downloader
	transcribe Transcriber
	analyze    Analyzer
	render     Renderer
	cfg        Config
	log        *logger.Logger
}

func New(d Downloader, t Transcriber, a Analyzer, r Renderer, cfg Config, log *logger.Logger) *Pipeline {
	return &Pipeline{
		download:   d,
		transcribe: t,
		analyze:    a,
		render:     r,
		cfg:        cfg,
		log:        log,
	}
}

// Run processes one episode end to end. Download, transcription, rendering
// and a rate-limited analysis end the run with a StageError; everything
// else degrades into warnings, which keep their arrival order and are
// never deduplicated. Once the download lands on disk, cleanup runs
// exactly once no matter where the run stops.
func (p *Pipeline) Run(ctx context.Context, ep types.Episode) (*types.Result, error) {
	log := p.log.WithRun().WithEpisode(ep.Title)
	log.Info("pipeline start")

	mediaPath, err := p.download.Download(ctx, ep.AudioURL)
	if err != nil {
		return nil, &StageError{Stage: StageDownload, Err: err}
	}
	defer p.cleanup(mediaPath, log)

	transcript, err := p.transcribe.Transcribe(ctx, mediaPath)
	if err != nil {
		return nil, &StageError{Stage: StageTranscribe, Err: err}
	}
	log.WithFields(logrus.Fields{
		"language":       transcript.Language,
		"transcript_len": len(transcript.Text),
	}).Info("transcription done")

	var warnings []types.Warning
	if p.cfg.ExpectLanguage != "" && transcript.Language != "" &&
		!strings.EqualFold(transcript.Language, p.cfg.ExpectLanguage) {
		warnings = append(warnings, types.Warning{
			Stage:   string(StageTranscribe),
			Message: fmt.Sprintf("transcription language %q, expected %q", transcript.Language, p.cfg.ExpectLanguage),
		})
	}

	analysis, analysisWarnings, err := p.analyze.Run(ctx, transcript.Text)
	if err != nil {
		return nil, &StageError{Stage: StageAnalysis, Err: err}
	}
	warnings = append(warnings, analysisWarnings...)

	// Redaction cannot fail: span sets from the model are cleaned here,
	// never raised on. The normalized set is what the result reports.
	analysis.AdSpans = adspan.Normalize(analysis.AdSpans, len(transcript.Text))
	redacted := adspan.Redact(transcript.Text, analysis.AdSpans, adspan.Marker)
	log.WithField("ad_spans", len(analysis.AdSpans)).Info("redaction done")

	outputPath, err := p.render.Render(ctx, types.Document{
		Episode:  ep,
		Language: transcript.Language,
		Redacted: redacted,
		Analysis: analysis,
		Warnings: warnings,
	})
	if err != nil {
		return nil, &StageError{Stage: StageRender, Err: err}
	}

	log.WithField("output", outputPath).Info("pipeline done")
	return &types.Result{
		OutputPath: outputPath,
		Language:   transcript.Language,
		Analysis:   analysis,
		Warnings:   warnings,
	}, nil
}

// cleanup honors the storage config: temporary media is removed, kept
// media is left alone. Failures are logged, never raised.
func (p *Pipeline) cleanup(mediaPath string, log *logrus.Entry) {
	if p.cfg.KeepMedia {
		log.WithField("media", mediaPath).Debug("keeping media file")
		return
	}
	if err := os.Remove(mediaPath); err != nil && !os.IsNotExist(err) {
		log.WithField("media", mediaPath).WithError(err).Warn("media cleanup failed")
		return
	}
	log.WithField("media", mediaPath).Debug("media file removed")
}
