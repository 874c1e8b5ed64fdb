// Package analysis runs the LLM extraction pass over one transcript.
package analysis

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"podscrub/internal/adspan"
	"podscrub/internal/logger"
	"podscrub/internal/retry"
	"podscrub/internal/types"
)

// Extractor is one LLM sub-call per field. The four calls are independent:
// each can fail without taking the others down.
type Extractor interface {
	Summarize(ctx context.Context, transcript string) (string, error)
	Topics(ctx context.Context, transcript string) ([]string, error)
	Keywords(ctx context.Context, transcript string) ([]string, error)
	AdSpans(ctx context.Context, transcript string) ([]adspan.Span, error)
}

type Stage struct {
	ext      Extractor
	classify retry.Classifier
	policy   retry.Policy
	log      *logrus.Entry
}

// New builds the stage. A nil extractor is valid and means no credentials
// were configured; Run then degrades instead of calling anything.
func New(ext Extractor, classify retry.Classifier, policy retry.Policy, log *logger.Logger) *Stage {
	return &Stage{
		ext:      ext,
		classify: classify,
		policy:   policy,
		log:      log.WithField("component", "analysis"),
	}
}

// Run performs the four sub-extractions in order, each under the retry
// policy. A sub-extraction that still fails leaves its field empty and adds
// one warning naming it. A rate limit aborts the whole pass: everything
// already extracted is discarded and the error is returned. Results from a
// degraded run are complete documents, just with gaps.
func (s *Stage) Run(ctx context.Context, transcript string) (types.Analysis, []types.Warning, error) {
	if s.ext == nil {
		s.log.Warn("no llm credentials configured, skipping analysis")
		return types.Analysis{}, []types.Warning{{
			Stage:   "analysis",
			Message: "analysis skipped: no API key configured",
		}}, nil
	}

	var result types.Analysis
	var warnings []types.Warning

	steps := []struct {
		name string
		call func() error
	}{
		{"summary", func() error {
			v, err := s.ext.Summarize(ctx, transcript)
			if err != nil {
				return err
			}
			result.Summary = v
			return nil
		}},
		{"topics", func() error {
			v, err := s.ext.Topics(ctx, transcript)
			if err != nil {
				return err
			}
			result.Topics = v
			return nil
		}},
		{"keywords", func() error {
			v, err := s.ext.Keywords(ctx, transcript)
			if err != nil {
				return err
			}
			result.Keywords = v
			return nil
		}},
		{"ad detection", func() error {
			v, err := s.ext.AdSpans(ctx, transcript)
			if err != nil {
				return err
			}
			result.AdSpans = v
			return nil
		}},
	}

	for _, step := range steps {
		s.log.WithField("step", step.name).Debug("extraction start")
		err := s.policy.Do(ctx, s.classify, step.call)
		if err == nil {
			continue
		}
		if ctx.Err() != nil {
			return types.Analysis{}, nil, ctx.Err()
		}
		class := s.classify(err)
		if class == retry.RateLimit {
			s.log.WithField("step", step.name).WithError(err).Error("rate limited, aborting analysis")
			return types.Analysis{}, nil, fmt.Errorf("%s: %w", step.name, err)
		}
		s.log.WithFields(logrus.Fields{
			"step":  step.name,
			"class": class.String(),
		}).WithError(err).Warn("extraction degraded")
		warnings = append(warnings, types.Warning{
			Stage:   "analysis",
			Message: fmt.Sprintf("%s failed: %v", step.name, err),
		})
	}
	return result, warnings, nil
}
