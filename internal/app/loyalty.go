package app

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"hotel_storefront/internal/domain"
)

// LoyaltyService reads the user's loyalty level on every search and keeps the
// last good answer in the cache. The cached level is only served while the
// loyalty service is failing.
type LoyaltyService struct {
	client   domain.LoyaltyClient
	cache    domain.Cache
	cacheTTL time.Duration
}

func NewLoyaltyService(c domain.LoyaltyClient, cache domain.Cache, ttl time.Duration) *LoyaltyService {
	return &LoyaltyService{client: c, cache: cache, cacheTTL: ttl}
}

func (s *LoyaltyService) GetLoyalty(ctx context.Context, userID string) (domain.LoyaltyInfo, error) {
	key := fmt.Sprintf("loyalty:%s", userID)
	li, err := s.client.GetLoyaltyLevel(ctx, userID)
	if err != nil {
		if s.cache != nil && ctx.Err() == nil {
			var cached domain.LoyaltyInfo
			if ok, _ := s.cache.Get(ctx, key, &cached); ok {
				log.Warn().Err(err).Str("user", userID).Msg("loyalty service failed; using last known level")
				return cached, nil
			}
		}
		return domain.LoyaltyInfo{}, err
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, li, int(s.cacheTTL.Seconds())); err != nil {
			log.Warn().Err(err).Str("user", userID).Msg("loyalty cache write failed")
		}
	}
	return li, nil
}
