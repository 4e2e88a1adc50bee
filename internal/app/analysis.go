package app

import (
	"context"
	"fmt"
	"time"

	"reviewpulse/internal/analysis"
	"reviewpulse/internal/domain"
)

// AnalysisService serves the per-account aggregate analysis, recomputing
// it when newer reviews exist than the cached snapshot.
type AnalysisService struct {
	repo     domain.ReviewRepository
	cache    domain.Cache
	synth    *analysis.Synthesizer
	cacheTTL time.Duration
	now      func() time.Time
}

func NewAnalysisService(r domain.ReviewRepository, c domain.Cache, syn *analysis.Synthesizer, ttl time.Duration) *AnalysisService {
	return &AnalysisService{repo: r, cache: c, synth: syn, cacheTTL: ttl, now: time.Now}
}

// ReviewPageLimits are the only page sizes served (and cached); scans
// invalidate exactly these keys, so an arbitrary limit could never be
// flushed and would stay stale for the full TTL.
var ReviewPageLimits = []int{50, 100, 200}

func analysisCacheKey(id int64) string { return fmt.Sprintf("analysis:%d", id) }

func reviewsCacheKey(id int64, limit int, sort string) string {
	return fmt.Sprintf("reviews:%d:%d:%s", id, limit, sort)
}

// AccountAnalysis returns the authoritative analysis for an account.
// Zero reviews yields domain.ErrNoReviews rather than a meaningless
// average. A scan invalidates the redis key, so within the TTL a cache
// hit can only be as stale as the last scan.
func (s *AnalysisService) AccountAnalysis(ctx context.Context, accountID int64) (domain.AnalysisResult, error) {
	if _, err := s.repo.GetAccount(ctx, accountID); err != nil {
		return domain.AnalysisResult{}, err
	}

	key := analysisCacheKey(accountID)
	var cachedView domain.AnalysisResult
	if ok, _ := s.cache.Get(ctx, key, &cachedView); ok {
		return cachedView, nil
	}

	reviews, err := s.repo.AllReviews(ctx, accountID)
	if err != nil {
		return domain.AnalysisResult{}, err
	}
	if len(reviews) == 0 {
		return domain.AnalysisResult{}, domain.ErrNoReviews
	}

	latest, err := s.repo.LatestAnalysis(ctx, accountID)
	if err != nil {
		return domain.AnalysisResult{}, err
	}

	res, err := s.GetOrCompute(ctx, accountID, reviews, latest)
	if err != nil {
		return domain.AnalysisResult{}, err
	}
	_ = s.cache.Set(ctx, key, res, int(s.cacheTTL.Seconds()))
	return res, nil
}

// GetOrCompute decides reuse vs recomputation: no snapshot, or any review
// created after the snapshot's analysis date, means recompute; otherwise
// the cached snapshot is returned unchanged.
//
// The staleness check and the write are not held under a lock; two
// concurrent requests can both recompute and both insert. LatestAnalysis
// orders newest-first, so the later write wins and older rows are inert.
func (s *AnalysisService) GetOrCompute(ctx context.Context, accountID int64, reviews []domain.Review, cached *domain.AnalysisResult) (domain.AnalysisResult, error) {
	if cached != nil && !newestCreatedAt(reviews).After(cached.AnalysisDate) {
		return *cached, nil
	}
	return s.compute(ctx, accountID, reviews)
}

// compute is the only write path for AnalysisResult. The snapshot is
// assembled whole and persisted atomically; on any error nothing is
// written.
func (s *AnalysisService) compute(ctx context.Context, accountID int64, reviews []domain.Review) (domain.AnalysisResult, error) {
	if len(reviews) == 0 {
		return domain.AnalysisResult{}, domain.ErrNoReviews
	}

	var sum float64
	lists := make([][]string, 0, len(reviews))
	for _, r := range reviews {
		sum += r.SentimentScore
		lists = append(lists, r.Keywords)
	}

	ins := s.synth.Synthesize(ctx, reviews)

	res, err := domain.NewAnalysisResult(domain.AnalysisResult{
		AccountID:        accountID,
		OverallSentiment: sum / float64(len(reviews)),
		ReviewCount:      len(reviews),
		TopKeywords:      analysis.AggregateKeywords(lists, analysis.AccountKeywordLimit),
		KeyInsights:      ins.KeyPoints,
		Summary:          ins.Summary,
		AnalysisDate:     s.now().UTC(),
	})
	if err != nil {
		return domain.AnalysisResult{}, fmt.Errorf("assemble analysis for account %d: %w", accountID, err)
	}

	saved, err := s.repo.SaveAnalysis(ctx, res)
	if err != nil {
		return domain.AnalysisResult{}, fmt.Errorf("save analysis for account %d: %w", accountID, err)
	}
	return saved, nil
}

// ListReviews serves a review page through the cache, newest first.
func (s *AnalysisService) ListReviews(ctx context.Context, accountID int64, pg domain.PageQuery) (domain.ReviewsPage, error) {
	key := reviewsCacheKey(accountID, pg.Limit, pg.Sort)
	var out domain.ReviewsPage
	if ok, _ := s.cache.Get(ctx, key, &out); ok {
		return out, nil
	}

	page, err := s.repo.ListReviews(ctx, accountID, pg)
	if err != nil {
		return domain.ReviewsPage{}, err
	}

	// copy to avoid aliasing the repo's backing array into the cache
	cp := domain.ReviewsPage{}
	if n := len(page.Items); n > 0 {
		cp.Items = make([]domain.Review, n)
		copy(cp.Items, page.Items)
	}
	_ = s.cache.Set(ctx, key, cp, int(s.cacheTTL.Seconds()))
	return cp, nil
}

func newestCreatedAt(reviews []domain.Review) time.Time {
	var newest time.Time
	for _, r := range reviews {
		if r.CreatedAt.After(newest) {
			newest = r.CreatedAt
		}
	}
	return newest
}
