package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingSource records how often the upstream provider is hit.
type countingSource struct {
	calls int
	rate  decimal.Decimal
	err   error
}

func (c *countingSource) Fetch(_ context.Context, _, _ string) (decimal.Decimal, error) {
	c.calls++
	return c.rate, c.err
}

func newFxTestService(t *testing.T, source RateSource) (FxService, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewFxService(client, source), mr
}

func TestFxRateValidation(t *testing.T) {
	svc, _ := newFxTestService(t, &countingSource{rate: dec("1.08")})

	_, err := svc.Rate(context.Background(), "EURO", "USD")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Rate(context.Background(), "EUR", "")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestFxRateSameCurrency(t *testing.T) {
	source := &countingSource{rate: dec("1.08")}
	svc, _ := newFxTestService(t, source)

	rate, err := svc.Rate(context.Background(), "eur", "EUR")
	require.NoError(t, err)
	assert.True(t, rate.Equal(decimal.NewFromInt(1)))
	assert.Zero(t, source.calls, "identity conversion must not hit the source")
}

func TestFxRateCachesSourceAnswer(t *testing.T) {
	source := &countingSource{rate: dec("1.08")}
	svc, mr := newFxTestService(t, source)

	rate, err := svc.Rate(context.Background(), "EUR", "USD")
	require.NoError(t, err)
	assert.True(t, rate.Equal(dec("1.08")))
	assert.Equal(t, 1, source.calls)

	// Second lookup is answered from the cache.
	rate, err = svc.Rate(context.Background(), "eur", "usd")
	require.NoError(t, err)
	assert.True(t, rate.Equal(dec("1.08")))
	assert.Equal(t, 1, source.calls)

	// Cached with an expiry, not forever.
	cached, getErr := mr.Get("fx:rate:EUR:USD")
	require.NoError(t, getErr)
	assert.Equal(t, "1.08", cached)
	ttl := mr.TTL("fx:rate:EUR:USD")
	assert.Greater(t, ttl, time.Duration(0))
	assert.LessOrEqual(t, ttl, time.Hour)
}

func TestFxRateExpiredCacheRefetches(t *testing.T) {
	source := &countingSource{rate: dec("1.08")}
	svc, mr := newFxTestService(t, source)

	_, err := svc.Rate(context.Background(), "EUR", "USD")
	require.NoError(t, err)

	mr.FastForward(2 * time.Hour)

	source.rate = dec("1.12")
	rate, err := svc.Rate(context.Background(), "EUR", "USD")
	require.NoError(t, err)
	assert.True(t, rate.Equal(dec("1.12")))
	assert.Equal(t, 2, source.calls)
}

func TestFxRateMalformedCacheRefetches(t *testing.T) {
	source := &countingSource{rate: dec("1.08")}
	svc, mr := newFxTestService(t, source)
	require.NoError(t, mr.Set("fx:rate:EUR:USD", "not-a-number"))

	rate, err := svc.Rate(context.Background(), "EUR", "USD")
	require.NoError(t, err)
	assert.True(t, rate.Equal(dec("1.08")))
	assert.Equal(t, 1, source.calls)
}

func TestFxRateRejectsNonPositiveSourceRate(t *testing.T) {
	source := &countingSource{rate: decimal.Zero}
	svc, mr := newFxTestService(t, source)

	_, err := svc.Rate(context.Background(), "EUR", "USD")
	assert.ErrorIs(t, err, ErrValidation)
	assert.False(t, mr.Exists("fx:rate:EUR:USD"), "bad rates must not be cached")
}

func TestFxConvertRounds(t *testing.T) {
	svc, _ := newFxTestService(t, &countingSource{rate: dec("1.0837")})

	got, err := svc.Convert(context.Background(), dec("19.99"), "EUR", "USD")
	require.NoError(t, err)
	// 19.99 * 1.0837 = 21.663163
	assert.True(t, got.Equal(dec("21.66")), "got %s", got)
}
