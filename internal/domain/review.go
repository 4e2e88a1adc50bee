package domain

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// MaxReviewKeywords bounds the frequency-ranked keyword list stored per review.
const MaxReviewKeywords = 5

// Review is a single customer comment, scored and keyworded once at
// ingestion time and immutable afterwards.
type Review struct {
	ID             int64
	AccountID      int64
	Platform       string
	SourceID       *string
	Reviewer       *string
	Text           string
	Rating         *float64 // 0..5 when the platform reports one
	SentimentScore float64  // -1..1
	Keywords       []string // unique, frequency-ranked, len <= MaxReviewKeywords
	ReviewDate     *time.Time
	CreatedAt      time.Time
}

// NewReview validates the invariants a stored review must satisfy.
func NewReview(r Review) (Review, error) {
	if strings.TrimSpace(r.Text) == "" {
		return Review{}, fmt.Errorf("%w: empty text", ErrInvalidReview)
	}
	if r.Rating != nil && !(*r.Rating >= 0 && *r.Rating <= 5) {
		return Review{}, fmt.Errorf("%w: rating %v out of 0..5", ErrInvalidReview, *r.Rating)
	}
	if math.IsNaN(r.SentimentScore) || r.SentimentScore < -1 || r.SentimentScore > 1 {
		return Review{}, fmt.Errorf("%w: sentiment %v out of -1..1", ErrInvalidReview, r.SentimentScore)
	}
	if len(r.Keywords) > MaxReviewKeywords {
		return Review{}, fmt.Errorf("%w: %d keywords, max %d", ErrInvalidReview, len(r.Keywords), MaxReviewKeywords)
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	return r, nil
}
