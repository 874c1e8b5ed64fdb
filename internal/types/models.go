package types

import (
	"time"

	"podscrub/internal/adspan"
)

type Podcast struct {
	Name     string `json:"name"`
	Author   string `json:"author,omitempty"`
	FeedURL  string `json:"feed_url"`
	Episodes int    `json:"episodes,omitempty"`
}

type Episode struct {
	Title       string    `json:"title"`
	GUID        string    `json:"guid,omitempty"`
	Podcast     string    `json:"podcast,omitempty"`
	AudioURL    string    `json:"audio_url"`
	PageURL     string    `json:"page_url,omitempty"`
	Description string    `json:"description,omitempty"`
	Published   time.Time `json:"published,omitempty"`
	Duration    string    `json:"duration,omitempty"`
}

type Transcript struct {
	Text     string `json:"text"`
	Language string `json:"language,omitempty"`
}

// Analysis fields degrade independently: a failed extraction leaves its
// field empty and the rest untouched.
type Analysis struct {
	Summary  string        `json:"summary,omitempty"`
	Topics   []string      `json:"topics,omitempty"`
	Keywords []string      `json:"keywords,omitempty"`
	AdSpans  []adspan.Span `json:"ad_spans,omitempty"`
}

type Warning struct {
	Stage   string `json:"stage"`
	Message string `json:"message"`
}

// Document is what the renderer consumes: one episode plus everything the
// pipeline produced for it.
type Document struct {
	Episode  Episode
	Language string
	Redacted string
	Analysis Analysis
	Warnings []Warning
}

type Result struct {
	OutputPath string    `json:"output_path"`
	Language   string    `json:"language,omitempty"`
	Analysis   Analysis  `json:"analysis"`
	Warnings   []Warning `json:"warnings,omitempty"`
}
