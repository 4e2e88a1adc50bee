package domain

import (
	"fmt"
	"math"
	"strings"
	"time"
)

const (
	MaxTopKeywords = 10
	MinKeyInsights = 3
	MaxKeyInsights = 7
)

// AnalysisResult is one aggregate snapshot over an account's review set.
// It is always produced whole; recomputation supersedes the prior snapshot
// rather than merging with it.
type AnalysisResult struct {
	ID               int64
	AccountID        int64
	OverallSentiment float64  // mean of constituent sentiment scores, -1..1
	ReviewCount      int
	TopKeywords      []string // unique, len <= MaxTopKeywords
	KeyInsights      []string // len in [MinKeyInsights, MaxKeyInsights]
	Summary          string
	AnalysisDate     time.Time
}

// NewAnalysisResult validates the snapshot invariants at construction time.
func NewAnalysisResult(a AnalysisResult) (AnalysisResult, error) {
	if math.IsNaN(a.OverallSentiment) || a.OverallSentiment < -1 || a.OverallSentiment > 1 {
		return AnalysisResult{}, fmt.Errorf("invalid analysis: overall sentiment %v out of -1..1", a.OverallSentiment)
	}
	if a.ReviewCount < 0 {
		return AnalysisResult{}, fmt.Errorf("invalid analysis: negative review count %d", a.ReviewCount)
	}
	if len(a.TopKeywords) > MaxTopKeywords {
		return AnalysisResult{}, fmt.Errorf("invalid analysis: %d top keywords, max %d", len(a.TopKeywords), MaxTopKeywords)
	}
	if n := len(a.KeyInsights); n < MinKeyInsights || n > MaxKeyInsights {
		return AnalysisResult{}, fmt.Errorf("invalid analysis: %d key insights, want %d..%d", n, MinKeyInsights, MaxKeyInsights)
	}
	if strings.TrimSpace(a.Summary) == "" {
		return AnalysisResult{}, fmt.Errorf("invalid analysis: empty summary")
	}
	if a.AnalysisDate.IsZero() {
		a.AnalysisDate = time.Now().UTC()
	}
	return a, nil
}
