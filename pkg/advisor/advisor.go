// Package advisor requests coaching advice from a text-completion service.
// Two backends exist: an OpenAI-compatible REST client and Gemini. Failures
// never cross the package boundary as errors a pipeline must handle; the
// RequestAdvice wrapper degrades everything to fixed fallback text.
package advisor

import (
	"context"
	"errors"
	"log/slog"

	shared "github.com/peakform/coachrelay/pkg"
)

// ErrNotConfigured means no API key is set; no network call was attempted.
var ErrNotConfigured = errors.New("completion service API key not configured")

// ErrEmptyOutput means the service responded but the extracted text was empty.
var ErrEmptyOutput = errors.New("completion service returned empty output")

// Fixed user-visible fallback strings.
const (
	FallbackNoAPIKey  = "Coaching advice unavailable: the completion service API key is not configured."
	FallbackEmpty     = "The model returned an empty response."
	FallbackCallError = "Coaching advice unavailable: the completion service could not be reached."
)

// RequestAdvice asks the advisor for advice and substitutes fallback text on
// any failure. It never returns an error past its own boundary.
func RequestAdvice(ctx context.Context, a shared.Advisor, prompt string, logger *slog.Logger) string {
	text, err := a.Advise(ctx, prompt)
	switch {
	case errors.Is(err, ErrNotConfigured):
		logger.Warn("Completion service key not configured, using fallback advice")
		return FallbackNoAPIKey
	case errors.Is(err, ErrEmptyOutput):
		logger.Warn("Completion service returned empty output, using fallback advice")
		return FallbackEmpty
	case err != nil:
		logger.Error("Completion request failed, using fallback advice", "error", err)
		return FallbackCallError
	}
	return text
}
