package app

import (
	"context"
	"fmt"
	"strings"

	"reviewpulse/internal/domain"
)

var knownPlatforms = map[string]struct{}{
	"facebook": {}, "twitter": {}, "instagram": {}, "google": {},
}

// AccountService covers account CRUD around the analysis engine.
type AccountService struct {
	repo  domain.ReviewRepository
	cache domain.Cache
}

func NewAccountService(r domain.ReviewRepository, c domain.Cache) *AccountService {
	return &AccountService{repo: r, cache: c}
}

func (s *AccountService) Create(ctx context.Context, platform, name string) (domain.Account, error) {
	platform = strings.ToLower(strings.TrimSpace(platform))
	if _, ok := knownPlatforms[platform]; !ok {
		return domain.Account{}, fmt.Errorf("unknown platform %q", platform)
	}
	if strings.TrimSpace(name) == "" {
		return domain.Account{}, fmt.Errorf("account name is required")
	}
	return s.repo.CreateAccount(ctx, domain.Account{Platform: platform, Name: strings.TrimSpace(name)})
}

func (s *AccountService) List(ctx context.Context) ([]domain.Account, error) {
	return s.repo.ListAccounts(ctx)
}

func (s *AccountService) Get(ctx context.Context, id int64) (domain.Account, error) {
	return s.repo.GetAccount(ctx, id)
}

func (s *AccountService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.DeleteAccount(ctx, id); err != nil {
		return err
	}
	if s.cache != nil {
		_ = s.cache.Del(ctx, analysisCacheKey(id))
		for _, lim := range ReviewPageLimits {
			_ = s.cache.Del(ctx, reviewsCacheKey(id, lim, "-created_at"))
		}
	}
	return nil
}
