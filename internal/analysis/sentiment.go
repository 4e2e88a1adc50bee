package analysis

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"reviewpulse/internal/adapters/observability"
	"reviewpulse/internal/domain"
)

// Scorer assigns each review text a sentiment score in [-1, 1]. When a
// completion client is configured it is tried first; any transport or
// parse failure degrades to the deterministic lexicon score, so Score
// always returns a valid value.
type Scorer struct {
	llm domain.CompletionClient // nil when unconfigured
}

func NewScorer(llm domain.CompletionClient) *Scorer { return &Scorer{llm: llm} }

const sentimentSystem = "You are a sentiment analysis expert. You analyze customer reviews " +
	"and provide a sentiment score between -1.0 (extremely negative) and 1.0 (extremely positive). " +
	"Return only the numerical score."

func (s *Scorer) Score(ctx context.Context, text string) float64 {
	if s.llm == nil {
		return LexiconScore(text)
	}
	out, err := s.llm.Complete(ctx, domain.CompletionRequest{
		System:      sentimentSystem,
		Prompt:      fmt.Sprintf("Analyze the sentiment of this review: %q", text),
		MaxTokens:   10,
		Temperature: 0.3,
	})
	if err != nil {
		log.Warn().Err(err).Msg("sentiment completion failed, using lexicon score")
		observability.ObserveFallback("sentiment", "request")
		return LexiconScore(text)
	}
	// ParseFloat accepts "NaN", which both range comparisons let through.
	score, err := strconv.ParseFloat(strings.TrimSpace(out), 64)
	if err != nil || math.IsNaN(score) || score < -1 || score > 1 {
		log.Warn().Str("raw", strings.TrimSpace(out)).Msg("sentiment score unparsable or out of range, using lexicon score")
		observability.ObserveFallback("sentiment", "parse")
		return LexiconScore(text)
	}
	return score
}

var positiveWords = []string{
	"good", "great", "excellent", "amazing", "wonderful", "best", "love",
	"fantastic", "perfect", "awesome", "happy", "recommend", "positive",
	"helpful", "friendly",
}

var negativeWords = []string{
	"bad", "terrible", "horrible", "worst", "hate", "poor", "awful",
	"disappointed", "negative", "unhappy", "problem", "issues", "slow",
	"expensive", "broken",
}

// LexiconScore is the deterministic fallback: +0.2 per positive word and
// -0.2 per negative word found as a case-insensitive substring, clamped
// to [-1, 1]. Identical input always yields identical output.
func LexiconScore(text string) float64 {
	lower := strings.ToLower(text)
	var score float64
	for _, w := range positiveWords {
		if strings.Contains(lower, w) {
			score += 0.2
		}
	}
	for _, w := range negativeWords {
		if strings.Contains(lower, w) {
			score -= 0.2
		}
	}
	return clamp(score, -1, 1)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
