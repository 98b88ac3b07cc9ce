package oracle

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"updown/internal/cache"
	"updown/internal/models"
)

// Service is the PriceOracle used in production: live REST fetches with a
// write-through redis cache of the last-known price per symbol.
type Service struct {
	Live   *Client
	Cache  *cache.RedisStore
	TTL    time.Duration
	Logger *zap.Logger
}

func cacheKey(symbol string) string {
	return "price:" + symbol
}

func (s *Service) LivePrice(ctx context.Context, asset models.Asset) (decimal.Decimal, error) {
	if s == nil || s.Live == nil {
		return decimal.Zero, ErrUnavailable
	}
	price, err := s.Live.Fetch(ctx, asset)
	if err != nil {
		return decimal.Zero, err
	}
	if s.Cache != nil {
		ttl := s.TTL
		if ttl <= 0 {
			ttl = 10 * time.Minute
		}
		if cerr := s.Cache.Set(ctx, cacheKey(asset.Symbol), []byte(price.String()), ttl); cerr != nil && s.Logger != nil {
			s.Logger.Warn("price cache write failed", zap.String("symbol", asset.Symbol), zap.Error(cerr))
		}
	}
	return price, nil
}

func (s *Service) CachedPrice(ctx context.Context, asset models.Asset) (decimal.Decimal, error) {
	if s == nil || s.Cache == nil {
		return decimal.Zero, ErrUnavailable
	}
	raw, ok, err := s.Cache.Get(ctx, cacheKey(asset.Symbol))
	if err != nil || !ok {
		return decimal.Zero, ErrUnavailable
	}
	price, perr := decimal.NewFromString(string(raw))
	if perr != nil || price.Sign() <= 0 {
		return decimal.Zero, ErrUnavailable
	}
	return price, nil
}

// Refresh warms the cache for every active asset; run on a short cron so
// evaluation still has a recent fallback when the live source is down.
func (s *Service) Refresh(ctx context.Context, assets []models.Asset) {
	for _, asset := range assets {
		if _, err := s.LivePrice(ctx, asset); err != nil && s.Logger != nil {
			s.Logger.Warn("price refresh failed", zap.String("symbol", asset.Symbol), zap.Error(err))
		}
	}
}
