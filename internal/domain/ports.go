package domain

import (
	"context"
	"time"
)

type ReviewRepository interface {
	// Write paths
	CreateAccount(ctx context.Context, a Account) (Account, error)
	DeleteAccount(ctx context.Context, id int64) error
	UpsertReviews(ctx context.Context, rs []Review) error
	SaveAnalysis(ctx context.Context, a AnalysisResult) (AnalysisResult, error)
	LogScan(ctx context.Context, accountID int64, status string, count int) error

	// Read paths
	GetAccount(ctx context.Context, id int64) (Account, error)
	ListAccounts(ctx context.Context) ([]Account, error)
	AllReviews(ctx context.Context, accountID int64) ([]Review, error)
	ListReviews(ctx context.Context, accountID int64, pg PageQuery) (ReviewsPage, error)
	LatestAnalysis(ctx context.Context, accountID int64) (*AnalysisResult, error)
}

// RawReview is the tuple a platform source reports before scoring.
type RawReview struct {
	SourceID string
	Reviewer string
	Text     string
	Rating   *float64
	Date     *time.Time
}

// ReviewSource supplies raw reviews for an account from an external
// platform (or a simulated one).
type ReviewSource interface {
	FetchReviews(ctx context.Context, a Account) ([]RawReview, error)
}

type CompletionRequest struct {
	System      string
	Prompt      string
	MaxTokens   int
	Temperature float64
	JSONObject  bool // request a JSON object response
}

// CompletionClient is the language-model capability. A nil client means
// the capability is unconfigured; the engine must check before calling.
type CompletionClient interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}

// Read models & queries

type PageQuery struct {
	Limit int
	Sort  string
}

type ReviewsPage struct {
	Items []Review
}
