package analysis

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"podscrub/internal/adspan"
	"podscrub/internal/logger"
	"podscrub/internal/retry"
	"podscrub/internal/types"
)

var (
	errRate = errors.New("429 too many requests")
	errBad  = errors.New("400 bad request")
	errNet  = errors.New("connection reset")
)

func classifyTestErr(err error) retry.Class {
	switch {
	case errors.Is(err, errRate):
		return retry.RateLimit
	case errors.Is(err, errBad):
		return retry.Client
	default:
		return retry.Transient
	}
}

type mockExtractor struct {
	calls    []string
	summary  func() (string, error)
	topics   func() ([]string, error)
	keywords func() ([]string, error)
	adSpans  func() ([]adspan.Span, error)
}

func (m *mockExtractor) Summarize(ctx context.Context, t string) (string, error) {
	m.calls = append(m.calls, "summary")
	if m.summary != nil {
		return m.summary()
	}
	return "a summary", nil
}

func (m *mockExtractor) Topics(ctx context.Context, t string) ([]string, error) {
	m.calls = append(m.calls, "topics")
	if m.topics != nil {
		return m.topics()
	}
	return []string{"go", "testing"}, nil
}

func (m *mockExtractor) Keywords(ctx context.Context, t string) ([]string, error) {
	m.calls = append(m.calls, "keywords")
	if m.keywords != nil {
		return m.keywords()
	}
	return []string{"compiler"}, nil
}

func (m *mockExtractor) AdSpans(ctx context.Context, t string) ([]adspan.Span, error) {
	m.calls = append(m.calls, "ads")
	if m.adSpans != nil {
		return m.adSpans()
	}
	return []adspan.Span{{Start: 0, End: 5}}, nil
}

func quickPolicy() retry.Policy {
	return retry.Policy{MaxAttempts: 1, Delay: time.Millisecond}
}

func TestRunAllExtractionsSucceed(t *testing.T) {
	ext := &mockExtractor{}
	stage := New(ext, classifyTestErr, quickPolicy(), logger.New())

	got, warnings, err := stage.Run(context.Background(), "transcript")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("got %d warnings, want 0", len(warnings))
	}
	want := types.Analysis{
		Summary:  "a summary",
		Topics:   []string{"go", "testing"},
		Keywords: []string{"compiler"},
		AdSpans:  []adspan.Span{{Start: 0, End: 5}},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Run() = %+v, want %+v", got, want)
	}
	wantCalls := []string{"summary", "topics", "keywords", "ads"}
	if !reflect.DeepEqual(ext.calls, wantCalls) {
		t.Errorf("call order %v, want %v", ext.calls, wantCalls)
	}
}

func TestRunOneFailureLeavesOthersIntact(t *testing.T) {
	ext := &mockExtractor{
		topics: func() ([]string, error) { return nil, errBad },
	}
	stage := New(ext, classifyTestErr, quickPolicy(), logger.New())

	got, warnings, err := stage.Run(context.Background(), "transcript")
	if err != nil {
		t.Fatalf("Run() error = %v, want degraded success", err)
	}
	if got.Topics != nil {
		t.Errorf("Topics = %v, want empty", got.Topics)
	}
	if got.Summary == "" || got.Keywords == nil || got.AdSpans == nil {
		t.Errorf("other fields should survive a topics failure, got %+v", got)
	}
	if len(warnings) != 1 {
		t.Fatalf("got %d warnings, want 1", len(warnings))
	}
	if warnings[0].Stage != "analysis" || !strings.Contains(warnings[0].Message, "topics") {
		t.Errorf("warning %+v should name the topics step", warnings[0])
	}
}

func TestRunRateLimitAbortsWholeStage(t *testing.T) {
	ext := &mockExtractor{
		keywords: func() ([]string, error) { return nil, errRate },
	}
	stage := New(ext, classifyTestErr, quickPolicy(), logger.New())

	got, warnings, err := stage.Run(context.Background(), "transcript")
	if err == nil {
		t.Fatal("Run() = nil error, want rate limit failure")
	}
	if !errors.Is(err, errRate) {
		t.Errorf("Run() error = %v, want wrapped %v", err, errRate)
	}
	if !reflect.DeepEqual(got, types.Analysis{}) {
		t.Errorf("prior extractions should be discarded, got %+v", got)
	}
	if warnings != nil {
		t.Errorf("warnings = %v, want none on abort", warnings)
	}
	wantCalls := []string{"summary", "topics", "keywords"}
	if !reflect.DeepEqual(ext.calls, wantCalls) {
		t.Errorf("calls after abort %v, want %v (no ad detection)", ext.calls, wantCalls)
	}
}

func TestRunNoExtractorShortCircuits(t *testing.T) {
	stage := New(nil, classifyTestErr, quickPolicy(), logger.New())

	got, warnings, err := stage.Run(context.Background(), "transcript")
	if err != nil {
		t.Fatalf("Run() error = %v, want nil", err)
	}
	if !reflect.DeepEqual(got, types.Analysis{}) {
		t.Errorf("Run() = %+v, want zero analysis", got)
	}
	if len(warnings) != 1 || !strings.Contains(warnings[0].Message, "no API key") {
		t.Errorf("warnings = %+v, want one explaining the missing key", warnings)
	}
}

func TestRunTransientFailureIsRetried(t *testing.T) {
	attempts := 0
	ext := &mockExtractor{
		summary: func() (string, error) {
			attempts++
			if attempts == 1 {
				return "", errNet
			}
			return "recovered", nil
		},
	}
	stage := New(ext, classifyTestErr, retry.Policy{MaxAttempts: 2, Delay: time.Millisecond}, logger.New())

	got, warnings, err := stage.Run(context.Background(), "transcript")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got.Summary != "recovered" {
		t.Errorf("Summary = %q, want %q", got.Summary, "recovered")
	}
	if attempts != 2 {
		t.Errorf("summary attempts = %d, want 2", attempts)
	}
	if len(warnings) != 0 {
		t.Errorf("warnings = %v, want none after recovery", warnings)
	}
}

func TestRunAllFailuresWarnInOrder(t *testing.T) {
	ext := &mockExtractor{
		summary:  func() (string, error) { return "", errBad },
		topics:   func() ([]string, error) { return nil, errBad },
		keywords: func() ([]string, error) { return nil, errBad },
		adSpans:  func() ([]adspan.Span, error) { return nil, errBad },
	}
	stage := New(ext, classifyTestErr, quickPolicy(), logger.New())

	got, warnings, err := stage.Run(context.Background(), "transcript")
	if err != nil {
		t.Fatalf("Run() error = %v, want degraded success", err)
	}
	if !reflect.DeepEqual(got, types.Analysis{}) {
		t.Errorf("Run() = %+v, want zero analysis", got)
	}
	wantSteps := []string{"summary", "topics", "keywords", "ad detection"}
	if len(warnings) != len(wantSteps) {
		t.Fatalf("got %d warnings, want %d", len(warnings), len(wantSteps))
	}
	for i, step := range wantSteps {
		if !strings.Contains(warnings[i].Message, step) {
			t.Errorf("warning[%d] = %q, want mention of %q", i, warnings[i].Message, step)
		}
	}
}

func TestRunCanceledContextIsFatal(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ext := &mockExtractor{
		summary: func() (string, error) { return "", ctx.Err() },
	}
	stage := New(ext, classifyTestErr, quickPolicy(), logger.New())

	_, warnings, err := stage.Run(ctx, "transcript")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}
	if warnings != nil {
		t.Errorf("warnings = %v, want none on cancellation", warnings)
	}
}
