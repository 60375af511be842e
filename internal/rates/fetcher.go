// Package rates refreshes the exchange-rate table from an external source.
// The estimate engine never fetches anything itself; it only consumes the
// table this fetcher keeps current.
package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/liorbh/folio/internal/catalog"
)

type payload struct {
	Base  string             `json:"base"`
	Rates map[string]float64 `json:"rates"`
}

// Fetcher periodically pulls exchange rates from an HTTP source and upserts
// them into the catalog.
type Fetcher struct {
	url      string
	interval time.Duration
	store    *catalog.Store
	client   *http.Client
	log      *zap.Logger
}

// New returns a Fetcher for the given source URL.
func New(url string, interval time.Duration, store *catalog.Store, log *zap.Logger) *Fetcher {
	return &Fetcher{
		url:      url,
		interval: interval,
		store:    store,
		client:   &http.Client{Timeout: 30 * time.Second},
		log:      log,
	}
}

// Run refreshes once immediately, then on every tick until ctx is canceled.
// A failed refresh is logged and retried on the next tick; stale rates are
// preferable to no rates.
func (f *Fetcher) Run(ctx context.Context) {
	if err := f.Refresh(ctx); err != nil {
		f.log.Warn("initial exchange rate refresh failed", zap.Error(err))
	}

	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := f.Refresh(ctx); err != nil {
				f.log.Warn("exchange rate refresh failed", zap.Error(err))
				continue
			}
			f.log.Info("exchange rates refreshed")
		}
	}
}

// Refresh fetches the rate table once, retrying transient failures with
// exponential backoff, and stores every entry.
func (f *Fetcher) Refresh(ctx context.Context) error {
	var body payload
	operation := func() error {
		fetched, err := f.fetch(ctx)
		if err != nil {
			return err
		}
		body = fetched
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 4), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return fmt.Errorf("fetch exchange rates: %w", err)
	}

	if len(body.Rates) == 0 {
		return fmt.Errorf("exchange rate source returned no rates")
	}

	for code, rate := range body.Rates {
		if rate <= 0 {
			f.log.Warn("skipping non-positive exchange rate", zap.String("code", code), zap.Float64("rate", rate))
			continue
		}
		if err := f.store.UpsertRate(code, rate); err != nil {
			return err
		}
	}

	// The anchor is always worth 1 of itself.
	if body.Base != "" {
		if err := f.store.UpsertRate(body.Base, 1); err != nil {
			return err
		}
	}

	return nil
}

func (f *Fetcher) fetch(ctx context.Context) (payload, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return payload{}, backoff.Permanent(fmt.Errorf("build rates request: %w", err))
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return payload{}, fmt.Errorf("request rates: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return payload{}, fmt.Errorf("rates source returned status %d", resp.StatusCode)
	}

	var body payload
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return payload{}, fmt.Errorf("decode rates response: %w", err)
	}
	return body, nil
}
