package currency

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	appexpense "github.com/Jay1425/ExpensoX/internal/application/expense"
	"github.com/Jay1425/ExpensoX/internal/domain/shared/valueobject"
	"github.com/Jay1425/ExpensoX/internal/infrastructure/cache"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ExchangeRateProvider fetches conversion rates from an external
// exchange-rate API and keeps them in a cache so an approval burst
// doesn't hammer the upstream.
type ExchangeRateProvider struct {
	baseURL    string
	httpClient *http.Client
	cache      cache.RateCache
	ttl        time.Duration
	logger     *zap.Logger
}

func NewExchangeRateProvider(baseURL string, timeout time.Duration, rateCache cache.RateCache, ttl time.Duration, logger *zap.Logger) *ExchangeRateProvider {
	return &ExchangeRateProvider{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		cache:      rateCache,
		ttl:        ttl,
		logger:     logger,
	}
}

type ratesResponse struct {
	Base  string                     `json:"base"`
	Rates map[string]decimal.Decimal `json:"rates"`
}

// Rate returns the conversion rate from one currency to another.
// Identical currencies convert at exactly 1 without touching the cache
// or the upstream API.
func (p *ExchangeRateProvider) Rate(ctx context.Context, from, to valueobject.Currency) (decimal.Decimal, error) {
	if from == to {
		return decimal.NewFromInt(1), nil
	}

	rates, err := p.ratesFor(ctx, string(from))
	if err != nil {
		return decimal.Zero, err
	}

	rate, ok := rates[string(to)]
	if !ok {
		return decimal.Zero, fmt.Errorf("no rate published from %s to %s", from, to)
	}
	if !rate.IsPositive() {
		return decimal.Zero, fmt.Errorf("invalid rate %s from %s to %s", rate, from, to)
	}
	return rate, nil
}

// Refresh pre-warms the cache for the given base currencies. Used by
// the scheduler so the first submission after a cache expiry doesn't
// pay the upstream latency.
func (p *ExchangeRateProvider) Refresh(ctx context.Context, bases []string) error {
	var firstErr error
	for _, base := range bases {
		rates, err := p.fetchRates(ctx, base)
		if err != nil {
			p.logger.Warn("Failed to refresh exchange rates",
				zap.String("base", base),
				zap.Error(err),
			)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if err := p.cache.SetRates(ctx, base, rates, p.ttl); err != nil {
			p.logger.Warn("Failed to cache refreshed rates",
				zap.String("base", base),
				zap.Error(err),
			)
		}
	}
	return firstErr
}

func (p *ExchangeRateProvider) ratesFor(ctx context.Context, base string) (map[string]decimal.Decimal, error) {
	if rates, ok, err := p.cache.GetRates(ctx, base); err != nil {
		p.logger.Warn("Rate cache lookup failed", zap.String("base", base), zap.Error(err))
	} else if ok {
		return rates, nil
	}

	rates, err := p.fetchRates(ctx, base)
	if err != nil {
		return nil, err
	}
	if err := p.cache.SetRates(ctx, base, rates, p.ttl); err != nil {
		p.logger.Warn("Failed to cache exchange rates", zap.String("base", base), zap.Error(err))
	}
	return rates, nil
}

func (p *ExchangeRateProvider) fetchRates(ctx context.Context, base string) (map[string]decimal.Decimal, error) {
	endpoint := fmt.Sprintf("%s/v4/latest/%s", p.baseURL, base)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build rate request: %w", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rate lookup failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rate lookup returned status %d for base %s", resp.StatusCode, base)
	}

	var payload ratesResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode rate response: %w", err)
	}
	if len(payload.Rates) == 0 {
		return nil, fmt.Errorf("rate response for base %s contains no rates", base)
	}

	p.logger.Debug("Fetched exchange rates",
		zap.String("base", base),
		zap.Int("count", len(payload.Rates)),
	)
	return payload.Rates, nil
}

var _ appexpense.RateProvider = (*ExchangeRateProvider)(nil)
