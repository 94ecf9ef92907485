package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

const (
	fxKeyPrefix = "fx:rate:" // fx:rate:{FROM}:{TO}
	fxCacheTTL  = time.Hour
)

// RateSource provides the authoritative exchange rate for a currency pair.
// Implementations may call an external provider; the FxService caches their
// answers so a provider outage degrades to stale rates instead of failures.
type RateSource interface {
	Fetch(ctx context.Context, from, to string) (decimal.Decimal, error)
}

// RateSourceFunc adapts a function to the RateSource interface.
type RateSourceFunc func(ctx context.Context, from, to string) (decimal.Decimal, error)

func (f RateSourceFunc) Fetch(ctx context.Context, from, to string) (decimal.Decimal, error) {
	return f(ctx, from, to)
}

type FxService interface {
	// Rate returns how many units of `to` one unit of `from` buys.
	Rate(ctx context.Context, from, to string) (decimal.Decimal, error)
	// Convert converts an amount between currencies, rounded to 2 decimal places.
	Convert(ctx context.Context, amount decimal.Decimal, from, to string) (decimal.Decimal, error)
}

type fxService struct {
	redis  *redis.Client
	source RateSource
}

func NewFxService(redisClient *redis.Client, source RateSource) FxService {
	return &fxService{redis: redisClient, source: source}
}

func (s *fxService) Rate(ctx context.Context, from, to string) (decimal.Decimal, error) {
	from = strings.ToUpper(strings.TrimSpace(from))
	to = strings.ToUpper(strings.TrimSpace(to))
	if len(from) != 3 || len(to) != 3 {
		return decimal.Zero, fmt.Errorf("currency codes must be 3 letters, got %q and %q: %w", from, to, ErrValidation)
	}
	if from == to {
		return decimal.NewFromInt(1), nil
	}

	key := fxKeyPrefix + from + ":" + to
	cached, err := s.redis.Get(ctx, key).Result()
	if err == nil {
		rate, parseErr := decimal.NewFromString(cached)
		if parseErr == nil {
			return rate, nil
		}
		log.Warn().Str("key", key).Str("value", cached).Msg("malformed cached fx rate, refetching")
	} else if err != redis.Nil {
		// Cache unavailable is not fatal, fall through to the source.
		log.Warn().Err(err).Str("key", key).Msg("fx cache read failed")
	}

	rate, err := s.source.Fetch(ctx, from, to)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to fetch fx rate %s/%s: %w", from, to, err)
	}
	if rate.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, fmt.Errorf("fx source returned non-positive rate %s for %s/%s: %w", rate, from, to, ErrValidation)
	}

	if setErr := s.redis.Set(ctx, key, rate.String(), fxCacheTTL).Err(); setErr != nil {
		log.Warn().Err(setErr).Str("key", key).Msg("fx cache write failed")
	}
	return rate, nil
}

func (s *fxService) Convert(ctx context.Context, amount decimal.Decimal, from, to string) (decimal.Decimal, error) {
	rate, err := s.Rate(ctx, from, to)
	if err != nil {
		return decimal.Zero, err
	}
	return amount.Mul(rate).Round(2), nil
}
