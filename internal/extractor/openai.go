// Package extractor talks to the LLM that analyzes transcripts: summary,
// topics, keywords and advertising segments, one call per concern.
package extractor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
	"github.com/sirupsen/logrus"

	"podscrub/internal/adspan"
	"podscrub/internal/logger"
)

// ErrBadPayload means the model answered but nothing usable could be parsed
// out of the reply. Retryable: a second completion often comes back clean.
var ErrBadPayload = errors.New("no usable JSON in model output")

// Transcripts can outgrow the model context; only the head is sent. Byte
// offsets reported against the head remain valid against the full text.
const maxPromptBytes = 60000

type OpenAI struct {
	client openai.Client
	model  string
	log    *logrus.Entry
}

func NewOpenAI(apiKey, baseURL, model string, log *logger.Logger) *OpenAI {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		// The SDK retries on its own by default; attempts here are budgeted
		// by the caller's retry policy instead.
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &OpenAI{
		client: openai.NewClient(opts...),
		model:  model,
		log:    log.WithField("component", "extractor"),
	}
}

const summarySystem = `You are the post-production editor of a podcast studio. You write tight episode summaries for show pages.`

const summaryPrompt = `Summarize the podcast episode transcript below in one paragraph of at most 120 words.

Rules:
- Ground everything in the transcript, no outside knowledge
- Name speakers only if their names occur in the transcript
- Plain text only: no markdown, no preamble, no commentary

TRANSCRIPT:
%s`

func (o *OpenAI) Summarize(ctx context.Context, transcript string) (string, error) {
	content, err := o.complete(ctx, summarySystem, fmt.Sprintf(summaryPrompt, clamp(transcript)), false)
	if err != nil {
		return "", fmt.Errorf("summarize: %w", err)
	}
	return content, nil
}

const topicsPrompt = `Identify the main topics discussed in the podcast transcript below.

Rules:
- 3 to 8 topics, each 1 to 4 words, most prominent first
- Only topics actually discussed, no outside knowledge
- Return ONLY valid JSON matching this schema:
{"topics": ["", ""]}

TRANSCRIPT:
%s`

func (o *OpenAI) Topics(ctx context.Context, transcript string) ([]string, error) {
	content, err := o.complete(ctx, summarySystem, fmt.Sprintf(topicsPrompt, clamp(transcript)), true)
	if err != nil {
		return nil, fmt.Errorf("topics: %w", err)
	}
	var payload struct {
		Topics []string `json:"topics"`
	}
	if err := json.Unmarshal([]byte(extractJSON(content)), &payload); err != nil {
		return nil, fmt.Errorf("topics: %w: %v", ErrBadPayload, err)
	}
	return cleanList(payload.Topics), nil
}

const keywordsPrompt = `Extract search keywords from the podcast transcript below.

Rules:
- 8 to 15 entries, single words or short phrases, lowercase
- Suitable for search indexing: products, people, places, themes
- Return ONLY valid JSON matching this schema:
{"keywords": ["", ""]}

TRANSCRIPT:
%s`

func (o *OpenAI) Keywords(ctx context.Context, transcript string) ([]string, error) {
	content, err := o.complete(ctx, summarySystem, fmt.Sprintf(keywordsPrompt, clamp(transcript)), true)
	if err != nil {
		return nil, fmt.Errorf("keywords: %w", err)
	}
	var payload struct {
		Keywords []string `json:"keywords"`
	}
	if err := json.Unmarshal([]byte(extractJSON(content)), &payload); err != nil {
		return nil, fmt.Errorf("keywords: %w: %v", ErrBadPayload, err)
	}
	return cleanList(payload.Keywords), nil
}

const adSpanPrompt = `Find every advertising segment in the podcast transcript below: host-read ads, sponsor messages, promo codes, calls to visit a sponsor's site.

Rules:
- start and end are BYTE OFFSETS into the transcript exactly as provided
- a segment is half-open: start is the first byte of the ad, end is one past its last byte
- cover the whole ad read, including lead-ins like "this episode is brought to you by"
- if the transcript contains no advertising, return {"segments": []}
- Return ONLY valid JSON matching this schema:
{"segments": [{"start": 0, "end": 0}]}

TRANSCRIPT:
%s`

func (o *OpenAI) AdSpans(ctx context.Context, transcript string) ([]adspan.Span, error) {
	content, err := o.complete(ctx, summarySystem, fmt.Sprintf(adSpanPrompt, clamp(transcript)), true)
	if err != nil {
		return nil, fmt.Errorf("ad spans: %w", err)
	}
	var payload struct {
		Segments []adspan.Span `json:"segments"`
	}
	if err := json.Unmarshal([]byte(extractJSON(content)), &payload); err != nil {
		return nil, fmt.Errorf("ad spans: %w: %v", ErrBadPayload, err)
	}
	return payload.Segments, nil
}

func (o *OpenAI) complete(ctx context.Context, system, user string, jsonMode bool) (string, error) {
	params := openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
		Model:       o.model,
		Temperature: openai.Float(0),
	}
	if jsonMode {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{Type: "json_object"},
		}
	}

	resp, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: empty choices", ErrBadPayload)
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", fmt.Errorf("%w: empty content", ErrBadPayload)
	}
	o.log.WithField("content_len", len(content)).Debug("model reply received")
	return content, nil
}

func clamp(transcript string) string {
	if len(transcript) <= maxPromptBytes {
		return transcript
	}
	return transcript[:maxPromptBytes]
}

func cleanList(in []string) []string {
	out := in[:0]
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
