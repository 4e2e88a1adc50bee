package mysql

const insertAccountSQL = `
INSERT INTO accounts (platform, platform_id, name)
VALUES (?, ?, ?)
`

const deleteAccountSQL = `DELETE FROM accounts WHERE id = ?`

const getAccountSQL = `
SELECT id, platform, platform_id, name, created_at
FROM accounts
WHERE id = ?
`

const listAccountsSQL = `
SELECT id, platform, platform_id, name, created_at
FROM accounts
ORDER BY id
`

// Note: `text` is reserved; keep it quoted everywhere.
const insertReviewsPrefix = "INSERT INTO reviews\n" +
	"  (account_id, platform, source_id, reviewer, `text`, rating, review_date, sentiment_score, keywords, created_at)\n" +
	"VALUES "

// Re-scans re-fetch the same platform reviews; the (account_id, source_id)
// unique key turns those into updates. COALESCE keeps the old value when
// the new one is NULL.
const insertReviewsOnDup = " ON DUPLICATE KEY UPDATE\n" +
	"  reviewer        = COALESCE(VALUES(reviewer), reviews.reviewer),\n" +
	"  `text`          = VALUES(`text`),\n" +
	"  rating          = COALESCE(VALUES(rating), reviews.rating),\n" +
	"  review_date     = COALESCE(VALUES(review_date), reviews.review_date),\n" +
	"  sentiment_score = VALUES(sentiment_score),\n" +
	"  keywords        = VALUES(keywords)\n"

const allReviewsSQL = `
SELECT id, account_id, platform, source_id, reviewer, ` + "`text`" + `, rating, review_date, sentiment_score, keywords, created_at
FROM reviews
WHERE account_id = ?
ORDER BY created_at DESC, id DESC
`

const listReviewsSQL = allReviewsSQL + `LIMIT ?`

const insertAnalysisSQL = `
INSERT INTO analysis_results
  (account_id, analysis_date, overall_sentiment, review_count, top_keywords, key_insights, summary)
VALUES (?, ?, ?, ?, ?, ?, ?)
`

// Newest snapshot is authoritative; older rows are inert history.
const latestAnalysisSQL = `
SELECT id, account_id, analysis_date, overall_sentiment, review_count, top_keywords, key_insights, summary
FROM analysis_results
WHERE account_id = ?
ORDER BY analysis_date DESC, id DESC
LIMIT 1
`

const insertScanLogSQL = `
INSERT INTO scan_log (account_id, status, review_count)
VALUES (?, ?, ?)
`
