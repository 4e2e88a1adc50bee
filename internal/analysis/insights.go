package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"reviewpulse/internal/adapters/observability"
	"reviewpulse/internal/domain"
)

// Insights is the synthesized narrative over a review collection.
type Insights struct {
	Summary   string
	KeyPoints []string // len in [domain.MinKeyInsights, domain.MaxKeyInsights]
}

// Synthesizer turns scored, keyworded reviews into a summary and key
// points. The completion path is only attempted when a client is
// configured and there are at least two reviews; every failure degrades
// to the deterministic template, so Synthesize never errors.
type Synthesizer struct {
	llm domain.CompletionClient // nil when unconfigured
}

func NewSynthesizer(llm domain.CompletionClient) *Synthesizer { return &Synthesizer{llm: llm} }

const insightSystem = "You are an expert in customer review analysis. Extract valuable insights " +
	"from reviews and provide them in JSON format."

const insightPrompt = `Analyze these customer reviews and provide insights:

%s

Provide your analysis in JSON format with these fields:
1. "summary": A paragraph summarizing the overall sentiment and common themes in the reviews
2. "keyPoints": An array of 5-7 specific insights from the reviews, focusing on actionable feedback`

func defaultInsights() Insights {
	return Insights{
		Summary: "Based on the reviews analyzed, customers have shared various feedback about their experiences.",
		KeyPoints: []string{
			"Customer service was mentioned in several reviews",
			"Product quality appears to be important to customers",
			"Delivery and shipping speed affects customer satisfaction",
			"Price and value for money influences customer perception",
			"Overall experience varies across customers",
		},
	}
}

func (s *Synthesizer) Synthesize(ctx context.Context, reviews []domain.Review) Insights {
	if len(reviews) == 0 {
		return defaultInsights()
	}
	// Fewer than two reviews is too sparse to be worth a completion call.
	if s.llm == nil || len(reviews) < 2 {
		return deterministicInsights(reviews)
	}
	ins, err := s.fromCompletion(ctx, reviews)
	if err != nil {
		log.Warn().Err(err).Msg("insight completion failed, using deterministic insights")
		observability.ObserveFallback("insights", "completion")
		return deterministicInsights(reviews)
	}
	return ins
}

func (s *Synthesizer) fromCompletion(ctx context.Context, reviews []domain.Review) (Insights, error) {
	var b strings.Builder
	for i, r := range reviews {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "Review: %q", r.Text)
		if r.Rating != nil {
			fmt.Fprintf(&b, " (Rating: %g/5)", *r.Rating)
		}
	}
	out, err := s.llm.Complete(ctx, domain.CompletionRequest{
		System:      insightSystem,
		Prompt:      fmt.Sprintf(insightPrompt, b.String()),
		MaxTokens:   1000,
		Temperature: 0.5,
		JSONObject:  true,
	})
	if err != nil {
		return Insights{}, fmt.Errorf("request insights: %w", err)
	}
	var parsed struct {
		Summary   string   `json:"summary"`
		KeyPoints []string `json:"keyPoints"`
	}
	if err := json.Unmarshal([]byte(strings.TrimSpace(out)), &parsed); err != nil {
		return Insights{}, fmt.Errorf("parse insights response: %w", err)
	}
	if strings.TrimSpace(parsed.Summary) == "" || len(parsed.KeyPoints) < domain.MinKeyInsights {
		return Insights{}, fmt.Errorf("insights response missing summary or keyPoints")
	}
	if len(parsed.KeyPoints) > domain.MaxKeyInsights {
		parsed.KeyPoints = parsed.KeyPoints[:domain.MaxKeyInsights]
	}
	return Insights{Summary: parsed.Summary, KeyPoints: parsed.KeyPoints}, nil
}

// deterministicInsights buckets reviews by sentiment, ranks common themes
// from the per-review keyword lists, and fills a fixed template. Identical
// input always yields identical output.
func deterministicInsights(reviews []domain.Review) Insights {
	var positive, neutral, negative int
	for _, r := range reviews {
		switch {
		case r.SentimentScore > 0.3:
			positive++
		case r.SentimentScore < -0.3:
			negative++
		default:
			neutral++
		}
	}

	lists := make([][]string, 0, len(reviews))
	for _, r := range reviews {
		lists = append(lists, r.Keywords)
	}
	themes := AggregateKeywords(lists, 5)

	keyPoints := []string{
		fmt.Sprintf("%d reviews were positive, %d were neutral, and %d were negative", positive, neutral, negative),
		fmt.Sprintf("Common themes in reviews include: %s", strings.Join(themes, ", ")),
		"Customers value quick response times and good communication",
		"Product quality and delivery times are important to customers",
	}

	var rated int
	var sum float64
	for _, r := range reviews {
		if r.Rating != nil {
			rated++
			sum += *r.Rating
		}
	}
	if rated > 0 {
		keyPoints = append(keyPoints, fmt.Sprintf("Average rating was %.1f out of 5", sum/float64(rated)))
	}

	tone := "mixed"
	switch {
	case positive > negative:
		tone = "predominantly positive"
	case negative > positive:
		tone = "predominantly negative"
	}
	top := themes
	if len(top) > 3 {
		top = top[:3]
	}
	summary := fmt.Sprintf("Analysis of %d reviews shows %s sentiment. Key themes include %s.",
		len(reviews), tone, strings.Join(top, ", "))

	return Insights{Summary: summary, KeyPoints: keyPoints}
}
