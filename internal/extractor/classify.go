package extractor

import (
	"context"
	"errors"
	"strings"

	"github.com/openai/openai-go"

	"podscrub/internal/retry"
)

// Classify maps API and transport failures onto retry classes. 429 and
// exhausted quotas are rate limits; expired tokens (401), timeouts, server
// errors, network faults and garbled payloads are worth another attempt;
// the remaining 4xx family means the request itself is wrong.
func Classify(err error) retry.Class {
	if err == nil {
		return retry.Transient
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return retry.Client
	}

	var apierr *openai.Error
	if errors.As(err, &apierr) {
		switch {
		case apierr.StatusCode == 429 || apierr.Code == "insufficient_quota":
			return retry.RateLimit
		case apierr.StatusCode == 401 || apierr.StatusCode == 408:
			return retry.Transient
		case apierr.StatusCode >= 400 && apierr.StatusCode < 500:
			return retry.Client
		default:
			return retry.Transient
		}
	}

	// Gateways in front of the API tend to report limits in prose only
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "rate limit") ||
		strings.Contains(msg, "too many requests") ||
		strings.Contains(msg, "quota") {
		return retry.RateLimit
	}
	return retry.Transient
}
