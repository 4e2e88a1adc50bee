package platform

import (
	"context"
	"strings"
	"time"

	"reviewpulse/internal/domain"
)

// Simulated stands in for real platform review APIs. It returns a fixed
// review set per platform so scans are reproducible end to end.
type Simulated struct{}

func NewSimulated() *Simulated { return &Simulated{} }

func (s *Simulated) FetchReviews(ctx context.Context, a domain.Account) ([]domain.RawReview, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return canned[strings.ToLower(a.Platform)], nil
}

func rating(f float64) *float64 { return &f }

func date(s string) *time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil
	}
	return &t
}

var canned = map[string][]domain.RawReview{
	"facebook": {
		{SourceID: "fb1", Reviewer: "John Smith", Text: "Great service! The staff was very friendly and helpful.", Rating: rating(5), Date: date("2023-06-15T12:00:00Z")},
		{SourceID: "fb2", Reviewer: "Sarah Johnson", Text: "Good products but shipping took too long.", Rating: rating(3), Date: date("2023-07-02T15:30:00Z")},
		{SourceID: "fb3", Reviewer: "Mike Davis", Text: "Terrible experience. Will not recommend to anyone.", Rating: rating(1), Date: date("2023-07-10T09:45:00Z")},
	},
	"twitter": {
		{SourceID: "tw1", Reviewer: "@customerA", Text: "Just tried @company new product and I love it! #greatproduct", Date: date("2023-08-05T14:20:00Z")},
		{SourceID: "tw2", Reviewer: "@customerB", Text: "@company your customer service needs work. Been waiting 2 hours for a response.", Date: date("2023-08-10T11:15:00Z")},
	},
	"instagram": {
		{SourceID: "ig1", Reviewer: "user123", Text: "Absolutely love this brand! \U0001F60D #bestpurchase", Rating: rating(5), Date: date("2023-09-01T18:30:00Z")},
		{SourceID: "ig2", Reviewer: "fashionlover", Text: "The quality is not what I expected. Disappointing.", Rating: rating(2), Date: date("2023-09-05T20:15:00Z")},
	},
	"google": {
		{SourceID: "g1", Reviewer: "Robert Wilson", Text: "Clean store, helpful staff, good prices.", Rating: rating(4), Date: date("2023-10-03T10:00:00Z")},
		{SourceID: "g2", Reviewer: "Emma Brown", Text: "Average experience, nothing special.", Rating: rating(3), Date: date("2023-10-10T16:45:00Z")},
		{SourceID: "g3", Reviewer: "David Lee", Text: "Best service I have ever had! Highly recommend.", Rating: rating(5), Date: date("2023-10-15T13:20:00Z")},
	},
}
