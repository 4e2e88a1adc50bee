package redisad_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"

	redisad "reviewpulse/internal/adapters/redis"
	"reviewpulse/internal/domain"
)

func newCache(t *testing.T) *redisad.Cache {
	t.Helper()
	mr := miniredis.RunT(t)
	return redisad.New(mr.Addr(), "", 0)
}

func TestCache_SetGetRoundtrip(t *testing.T) {
	c := newCache(t)
	ctx := context.Background()

	in := domain.AnalysisResult{
		AccountID:        7,
		OverallSentiment: 0.25,
		ReviewCount:      4,
		TopKeywords:      []string{"service", "delivery"},
		KeyInsights:      []string{"a", "b", "c"},
		Summary:          "summary",
	}
	if err := c.Set(ctx, "analysis:7", in, 60); err != nil {
		t.Fatalf("set: %v", err)
	}

	var out domain.AnalysisResult
	ok, err := c.Get(ctx, "analysis:7", &out)
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if out.AccountID != 7 || out.Summary != "summary" || len(out.TopKeywords) != 2 {
		t.Fatalf("unexpected value: %+v", out)
	}
}

func TestCache_MissAndDelete(t *testing.T) {
	c := newCache(t)
	ctx := context.Background()

	var out domain.AnalysisResult
	if ok, err := c.Get(ctx, "analysis:404", &out); err != nil || ok {
		t.Fatalf("expected miss, ok=%v err=%v", ok, err)
	}

	if err := c.Set(ctx, "analysis:1", domain.AnalysisResult{AccountID: 1, KeyInsights: []string{"a", "b", "c"}, Summary: "s"}, 60); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := c.Del(ctx, "analysis:1"); err != nil {
		t.Fatalf("del: %v", err)
	}
	if ok, _ := c.Get(ctx, "analysis:1", &out); ok {
		t.Fatalf("expected deleted key to miss")
	}
}
