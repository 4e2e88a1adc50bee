package domain

import "errors"

var (
	ErrNotFound = errors.New("not found")

	// ErrNoReviews signals that an aggregate was requested for an account
	// with no review data; callers should prompt a scan rather than
	// receive a meaningless average.
	ErrNoReviews = errors.New("no reviews to analyze")

	// ErrInvalidReview marks a malformed individual review; it is fatal
	// for that record only and never aborts a batch.
	ErrInvalidReview = errors.New("invalid review")
)
