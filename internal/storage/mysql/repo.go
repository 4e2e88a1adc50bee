package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"reviewpulse/internal/domain"
)

func valStr(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}
func valF64(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}
func valTime(p *time.Time) any {
	if p == nil {
		return nil
	}
	return *p
}
func valJSON(v any) any {
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return string(b)
}

type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

func (r *Repo) CreateAccount(ctx context.Context, a domain.Account) (domain.Account, error) {
	res, err := r.db.ExecContext(ctx, insertAccountSQL, a.Platform, valStr(a.PlatformID), a.Name)
	if err != nil {
		return domain.Account{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return domain.Account{}, err
	}
	return r.GetAccount(ctx, id)
}

func (r *Repo) DeleteAccount(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, deleteAccountSQL, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *Repo) GetAccount(ctx context.Context, id int64) (domain.Account, error) {
	row := r.db.QueryRowContext(ctx, getAccountSQL, id)
	var a domain.Account
	var platformID sql.NullString
	if err := row.Scan(&a.ID, &a.Platform, &platformID, &a.Name, &a.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return domain.Account{}, domain.ErrNotFound
		}
		return domain.Account{}, err
	}
	if platformID.Valid {
		s := platformID.String
		a.PlatformID = &s
	}
	return a, nil
}

func (r *Repo) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	rows, err := r.db.QueryContext(ctx, listAccountsSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Account
	for rows.Next() {
		var a domain.Account
		var platformID sql.NullString
		if err := rows.Scan(&a.ID, &a.Platform, &platformID, &a.Name, &a.CreatedAt); err != nil {
			return nil, err
		}
		if platformID.Valid {
			s := platformID.String
			a.PlatformID = &s
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *Repo) UpsertReviews(ctx context.Context, rs []domain.Review) error {
	if len(rs) == 0 {
		return nil
	}
	values := make([]string, 0, len(rs))
	args := make([]any, 0, len(rs)*10) // 10 params per row
	for _, rv := range rs {
		// Columns (from insertReviewsPrefix):
		// (account_id, platform, source_id, reviewer, `text`, rating, review_date, sentiment_score, keywords, created_at)
		// created_at is COALESCE(?, CURRENT_TIMESTAMP) to allow "unknown" ingestion timestamps.
		values = append(values, "(?,?,?,?,?,?,?,?,?,COALESCE(?, CURRENT_TIMESTAMP))")
		var createdAt any
		if !rv.CreatedAt.IsZero() {
			createdAt = rv.CreatedAt
		}
		args = append(args,
			rv.AccountID,
			rv.Platform,
			valStr(rv.SourceID),
			valStr(rv.Reviewer),
			rv.Text,
			valF64(rv.Rating),
			valTime(rv.ReviewDate),
			rv.SentimentScore,
			valJSON(rv.Keywords),
			createdAt,
		)
	}
	sqlStr := insertReviewsPrefix + strings.Join(values, ",") + insertReviewsOnDup
	_, err := r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *Repo) AllReviews(ctx context.Context, accountID int64) ([]domain.Review, error) {
	rows, err := r.db.QueryContext(ctx, allReviewsSQL, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanReviews(rows)
}

func (r *Repo) ListReviews(ctx context.Context, accountID int64, pg domain.PageQuery) (domain.ReviewsPage, error) {
	limit := pg.Limit
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, listReviewsSQL, accountID, limit)
	if err != nil {
		return domain.ReviewsPage{}, err
	}
	defer rows.Close()

	items, err := scanReviews(rows)
	if err != nil {
		return domain.ReviewsPage{}, err
	}
	return domain.ReviewsPage{Items: items}, nil
}

func scanReviews(rows *sql.Rows) ([]domain.Review, error) {
	var out []domain.Review
	for rows.Next() {
		var rv domain.Review
		var (
			sourceID    sql.NullString
			reviewer    sql.NullString
			rating      sql.NullFloat64
			reviewDate  sql.NullTime
			keywordsRaw []byte
		)
		if err := rows.Scan(
			&rv.ID,
			&rv.AccountID,
			&rv.Platform,
			&sourceID,
			&reviewer,
			&rv.Text,
			&rating,
			&reviewDate,
			&rv.SentimentScore,
			&keywordsRaw,
			&rv.CreatedAt,
		); err != nil {
			return nil, err
		}
		if sourceID.Valid {
			s := sourceID.String
			rv.SourceID = &s
		}
		if reviewer.Valid {
			s := reviewer.String
			rv.Reviewer = &s
		}
		if rating.Valid {
			f := rating.Float64
			rv.Rating = &f
		}
		if reviewDate.Valid {
			t := reviewDate.Time
			rv.ReviewDate = &t
		}
		if len(keywordsRaw) > 0 {
			_ = json.Unmarshal(keywordsRaw, &rv.Keywords)
		}
		out = append(out, rv)
	}
	return out, rows.Err()
}

// SaveAnalysis inserts a whole snapshot; analysis_results rows are never
// updated in place.
func (r *Repo) SaveAnalysis(ctx context.Context, a domain.AnalysisResult) (domain.AnalysisResult, error) {
	res, err := r.db.ExecContext(ctx, insertAnalysisSQL,
		a.AccountID,
		a.AnalysisDate,
		a.OverallSentiment,
		a.ReviewCount,
		valJSON(a.TopKeywords),
		valJSON(a.KeyInsights),
		a.Summary,
	)
	if err != nil {
		return domain.AnalysisResult{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return domain.AnalysisResult{}, err
	}
	a.ID = id
	return a, nil
}

func (r *Repo) LatestAnalysis(ctx context.Context, accountID int64) (*domain.AnalysisResult, error) {
	row := r.db.QueryRowContext(ctx, latestAnalysisSQL, accountID)
	var a domain.AnalysisResult
	var topRaw, insightsRaw []byte
	if err := row.Scan(
		&a.ID,
		&a.AccountID,
		&a.AnalysisDate,
		&a.OverallSentiment,
		&a.ReviewCount,
		&topRaw,
		&insightsRaw,
		&a.Summary,
	); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	if len(topRaw) > 0 {
		_ = json.Unmarshal(topRaw, &a.TopKeywords)
	}
	if len(insightsRaw) > 0 {
		_ = json.Unmarshal(insightsRaw, &a.KeyInsights)
	}
	return &a, nil
}

func (r *Repo) LogScan(ctx context.Context, accountID int64, status string, count int) error {
	_, err := r.db.ExecContext(ctx, insertScanLogSQL, accountID, status, count)
	return err
}
