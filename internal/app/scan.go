package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"reviewpulse/internal/analysis"
	"reviewpulse/internal/domain"
)

// ScanService ingests an account's reviews from its platform source.
// Each incoming review is scored and keyworded one at a time, in arrival
// order; a malformed record is dropped without aborting the batch.
type ScanService struct {
	source domain.ReviewSource
	repo   domain.ReviewRepository
	cache  domain.Cache
	scorer *analysis.Scorer
}

func NewScanService(src domain.ReviewSource, r domain.ReviewRepository, c domain.Cache, sc *analysis.Scorer) *ScanService {
	return &ScanService{source: src, repo: r, cache: c, scorer: sc}
}

type ScanSummary struct {
	Account  domain.Account
	Fetched  int
	Ingested int
	Reviews  []domain.Review
}

func (s *ScanService) ScanAccount(ctx context.Context, accountID int64) (ScanSummary, error) {
	acct, err := s.repo.GetAccount(ctx, accountID)
	if err != nil {
		return ScanSummary{}, err
	}

	raws, err := s.source.FetchReviews(ctx, acct)
	if err != nil {
		_ = s.repo.LogScan(ctx, acct.ID, "fetch_failed", 0)
		return ScanSummary{}, fmt.Errorf("fetch reviews for account %d: %w", acct.ID, err)
	}

	now := time.Now().UTC()
	out := make([]domain.Review, 0, len(raws))
	for _, raw := range raws {
		rv, err := s.buildReview(ctx, acct, raw, now)
		if err != nil {
			// Fatal for this record only; the rest of the batch proceeds.
			if errors.Is(err, domain.ErrInvalidReview) {
				log.Warn().Int64("account", acct.ID).Str("source_id", raw.SourceID).Err(err).Msg("skipping malformed review")
				continue
			}
			return ScanSummary{}, err
		}
		out = append(out, rv)
	}

	if len(out) > 0 {
		if err := s.repo.UpsertReviews(ctx, out); err != nil {
			_ = s.repo.LogScan(ctx, acct.ID, "store_failed", 0)
			return ScanSummary{}, fmt.Errorf("upsert reviews for account %d: %w", acct.ID, err)
		}
	}

	// New reviews supersede any cached aggregate views.
	if s.cache != nil {
		s.invalidateAccount(ctx, acct.ID)
	}
	_ = s.repo.LogScan(ctx, acct.ID, "ok", len(out))

	return ScanSummary{Account: acct, Fetched: len(raws), Ingested: len(out), Reviews: out}, nil
}

// buildReview scores and keywords one raw review. Scoring failures are
// absorbed inside the scorer (lexicon fallback), so the only errors here
// are validation ones.
func (s *ScanService) buildReview(ctx context.Context, acct domain.Account, raw domain.RawReview, now time.Time) (domain.Review, error) {
	score := s.scorer.Score(ctx, raw.Text)
	rv := domain.Review{
		AccountID:      acct.ID,
		Platform:       acct.Platform,
		SentimentScore: score,
		Text:           raw.Text,
		Rating:         raw.Rating,
		ReviewDate:     raw.Date,
		Keywords:       analysis.ExtractKeywords(raw.Text, analysis.ReviewKeywordLimit),
		CreatedAt:      now,
	}
	if raw.SourceID != "" {
		id := raw.SourceID
		rv.SourceID = &id
	}
	if raw.Reviewer != "" {
		name := raw.Reviewer
		rv.Reviewer = &name
	}
	return domain.NewReview(rv)
}

func (s *ScanService) invalidateAccount(ctx context.Context, id int64) {
	_ = s.cache.Del(ctx, analysisCacheKey(id))
	for _, lim := range ReviewPageLimits {
		_ = s.cache.Del(ctx, reviewsCacheKey(id, lim, "-created_at"))
	}
}
