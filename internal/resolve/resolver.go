// Package resolve maps GTINs to the marketplace ASINs they sell under. The
// portal is the source of truth; a local SQLite cache fronts it so repeat
// runs over the same product list stay cheap.
package resolve

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"packshot/internal/idcache"
	"packshot/internal/logging"
	"packshot/internal/services"
)

// Resolver answers GTIN-to-ASIN lookups.
type Resolver interface {
	ASINs(ctx context.Context, gtin string) ([]string, error)
}

// Options configures the portal-backed resolver.
type Options struct {
	BaseURL       string
	Timeout       time.Duration
	RetryAttempts int
	RetryBackoff  time.Duration
	Cache         *idcache.Cache
}

// PortalResolver resolves against the portal mapping endpoint, consulting the
// cache first when one is attached.
type PortalResolver struct {
	baseURL  string
	client   *http.Client
	attempts int
	backoff  time.Duration
	cache    *idcache.Cache
	logger   *slog.Logger
}

// New builds a portal resolver. Cache is optional.
func New(opts Options, logger *slog.Logger) (*PortalResolver, error) {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		return nil, services.Wrap(services.ErrConfiguration, "resolve", "new", "portal base URL is required", nil)
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	attempts := opts.RetryAttempts
	if attempts <= 0 {
		attempts = 3
	}
	backoff := opts.RetryBackoff
	if backoff <= 0 {
		backoff = 2 * time.Second
	}
	return &PortalResolver{
		baseURL:  base,
		client:   &http.Client{Timeout: timeout},
		attempts: attempts,
		backoff:  backoff,
		cache:    opts.Cache,
		logger:   logging.NewComponentLogger(logger, "resolve"),
	}, nil
}

type mappingEnvelope struct {
	Products []struct {
		ASIN string `json:"asin"`
	} `json:"products"`
}

// ASINs returns every ASIN mapped to a GTIN, sorted, deduplicated. A GTIN
// unknown to the portal resolves to an empty list, not an error; callers
// decide whether that is fatal for their retailer.
func (r *PortalResolver) ASINs(ctx context.Context, gtin string) ([]string, error) {
	gtin = strings.TrimSpace(gtin)
	if gtin == "" {
		return nil, services.Wrap(services.ErrInvalidIdentifier, "resolve", "asins", "empty GTIN", nil)
	}

	if r.cache != nil {
		if asins, found, err := r.cache.Get(ctx, gtin); err != nil {
			r.logger.Warn("asin cache read failed", logging.String("gtin", gtin), logging.Error(err))
		} else if found {
			return asins, nil
		}
	}

	var asins []string
	err := r.withRetry(ctx, gtin, func() error {
		var fetchErr error
		asins, fetchErr = r.fetch(ctx, gtin)
		return fetchErr
	})
	if err != nil {
		return nil, err
	}

	if r.cache != nil {
		if err := r.cache.Put(ctx, gtin, asins); err != nil {
			r.logger.Warn("asin cache write failed", logging.String("gtin", gtin), logging.Error(err))
		}
	}
	return asins, nil
}

// withRetry runs fn up to the attempt budget, backing off between transient
// failures. Terminal errors stop immediately.
func (r *PortalResolver) withRetry(ctx context.Context, gtin string, fn func() error) error {
	var lastErr error
	delay := r.backoff
	for attempt := 1; attempt <= r.attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if !services.IsRetryable(lastErr) || attempt == r.attempts {
			return lastErr
		}
		r.logger.Warn("asin lookup failed; retrying",
			logging.String("gtin", gtin),
			logging.Int("attempt", attempt),
			logging.Duration("backoff", delay),
			logging.Error(lastErr),
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
	return lastErr
}

func (r *PortalResolver) fetch(ctx context.Context, gtin string) ([]string, error) {
	endpoint := fmt.Sprintf("%s/api/v1/products/%s/asins/json", r.baseURL, url.PathEscape(gtin))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "resolve", "fetch", "build request", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrPortalUnavailable, "resolve", "fetch", endpoint, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusNotFound:
		return nil, nil
	case resp.StatusCode >= 500, resp.StatusCode == http.StatusTooManyRequests:
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, services.Wrap(services.ErrPortalUnavailable, "resolve", "fetch", fmt.Sprintf("portal returned status %d", resp.StatusCode), nil)
	default:
		return nil, services.Wrap(services.ErrTransient, "resolve", "fetch", fmt.Sprintf("portal returned status %d", resp.StatusCode), nil)
	}

	var envelope mappingEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, services.Wrap(services.ErrPortalUnavailable, "resolve", "fetch", "decode response", err)
	}

	seen := make(map[string]bool)
	var asins []string
	for _, product := range envelope.Products {
		asin := strings.ToUpper(strings.TrimSpace(product.ASIN))
		if asin == "" || seen[asin] {
			continue
		}
		seen[asin] = true
		asins = append(asins, asin)
	}
	sort.Strings(asins)
	return asins, nil
}

var _ Resolver = (*PortalResolver)(nil)

// Static is a fixed in-memory resolver used by tests and offline runs.
type Static map[string][]string

// ASINs implements Resolver over the fixed table.
func (s Static) ASINs(_ context.Context, gtin string) ([]string, error) {
	asins, ok := s[gtin]
	if !ok {
		return nil, nil
	}
	return append([]string(nil), asins...), nil
}

// IsUnavailable reports whether a resolution failure means the portal could
// not be reached rather than the GTIN being unmapped.
func IsUnavailable(err error) bool {
	return errors.Is(err, services.ErrPortalUnavailable)
}
