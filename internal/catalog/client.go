package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"packshot/internal/logging"
	"packshot/internal/services"
)

const userAgent = "Packshot/0.1.0"

// ClientOptions configures the portal REST client.
type ClientOptions struct {
	BaseURL       string
	Timeout       time.Duration
	RetryAttempts int
	RetryBackoff  time.Duration
}

// Client fetches asset metadata and renditions from the portal API.
type Client struct {
	baseURL  string
	client   *http.Client
	attempts int
	backoff  time.Duration
	logger   *slog.Logger
}

// NewClient builds a portal client. BaseURL is required.
func NewClient(opts ClientOptions, logger *slog.Logger) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		return nil, services.Wrap(services.ErrConfiguration, "catalog", "new client", "portal base URL is required", nil)
	}
	if _, err := url.Parse(base); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "catalog", "new client", "invalid portal base URL", err)
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
	return &Client{
		baseURL:  base,
		client:   &http.Client{Timeout: timeout},
		attempts: attempts,
		backoff:  backoff,
		logger:   logging.NewComponentLogger(logger, "catalog"),
	}, nil
}

type assetEnvelope struct {
	Assets []assetPayload `json:"assets"`
}

type assetPayload struct {
	ID                     string      `json:"id"`
	Title                  string      `json:"title"`
	PackageFacingIndicator string      `json:"packageFacingIndicator"`
	Sequence               int         `json:"sequence"`
	AssetState             string      `json:"assetState"`
	Retailers              []string    `json:"retailers"`
	Languages              []string    `json:"languages"`
	PimRenditions          []rendition `json:"pimRenditions"`
}

type rendition struct {
	Format string `json:"format"`
	URL    string `json:"url"`
}

type errorBody struct {
	Title string `json:"title"`
}

// Fetch returns all candidate assets for a BMN.
func (c *Client) Fetch(ctx context.Context, bmn string) ([]Asset, error) {
	bmn = strings.TrimSpace(bmn)
	if bmn == "" {
		return nil, services.Wrap(services.ErrInvalidIdentifier, "catalog", "fetch", "empty identifier", nil)
	}
	endpoint := fmt.Sprintf("%s/api/v1/assets/version/%s/json", c.baseURL, url.PathEscape(bmn))

	var envelope assetEnvelope
	err := c.withRetry(ctx, "fetch assets", func() error {
		return c.getJSON(ctx, endpoint, &envelope)
	})
	if err != nil {
		return nil, err
	}

	assets := make([]Asset, 0, len(envelope.Assets))
	for _, payload := range envelope.Assets {
		assets = append(assets, Asset{
			ID:           payload.ID,
			Title:        payload.Title,
			Type:         strings.TrimSpace(payload.PackageFacingIndicator),
			Sequence:     payload.Sequence,
			RetailerTags: payload.Retailers,
			State:        strings.TrimSpace(payload.AssetState),
			Languages:    payload.Languages,
			DownloadURL:  jpgURL(payload.PimRenditions),
		})
	}
	return assets, nil
}

// Download retrieves the asset's JPG rendition bytes.
func (c *Client) Download(ctx context.Context, asset Asset) ([]byte, error) {
	if strings.TrimSpace(asset.DownloadURL) == "" {
		return nil, services.Wrap(services.ErrNotFound, "catalog", "download", "asset has no JPG rendition: "+asset.ID, nil)
	}

	var content []byte
	err := c.withRetry(ctx, "download rendition", func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, asset.DownloadURL, nil)
		if err != nil {
			return services.Wrap(services.ErrConfiguration, "catalog", "download", "build request", err)
		}
		req.Header.Set("User-Agent", userAgent)

		resp, err := c.client.Do(req)
		if err != nil {
			return services.Wrap(services.ErrPortalUnavailable, "catalog", "download", asset.DownloadURL, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return classifyStatus(resp, "download rendition")
		}
		content, err = io.ReadAll(resp.Body)
		if err != nil {
			return services.Wrap(services.ErrPortalUnavailable, "catalog", "download", "read body", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return content, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, target any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "catalog", "fetch", "build request", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return services.Wrap(services.ErrPortalUnavailable, "catalog", "fetch", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return classifyStatus(resp, "fetch assets")
	}
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return services.Wrap(services.ErrPortalUnavailable, "catalog", "fetch", "decode response", err)
	}
	return nil
}

// classifyStatus maps portal HTTP failures onto the error taxonomy. The
// portal reports unknown identifiers as a 500 whose JSON body carries a
// "NotFound" title, so that shape is treated the same as a plain 404.
func classifyStatus(resp *http.Response, operation string) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return services.Wrap(services.ErrNotFound, "catalog", operation, "identifier not in portal", nil)
	case resp.StatusCode == http.StatusInternalServerError:
		var parsed errorBody
		if json.Unmarshal(body, &parsed) == nil && strings.Contains(parsed.Title, "NotFound") {
			return services.Wrap(services.ErrNotFound, "catalog", operation, "identifier not in portal", nil)
		}
		return services.Wrap(services.ErrPortalUnavailable, "catalog", operation, fmt.Sprintf("portal returned status %d", resp.StatusCode), nil)
	case resp.StatusCode >= 500, resp.StatusCode == http.StatusTooManyRequests:
		return services.Wrap(services.ErrPortalUnavailable, "catalog", operation, fmt.Sprintf("portal returned status %d", resp.StatusCode), nil)
	default:
		return services.Wrap(services.ErrTransient, "catalog", operation, fmt.Sprintf("portal returned status %d", resp.StatusCode), nil)
	}
}

// withRetry runs fn up to the configured attempt budget, backing off between
// transient failures. Terminal errors (NotFound and friends) stop immediately.
func (c *Client) withRetry(ctx context.Context, operation string, fn func() error) error {
	var lastErr error
	delay := c.backoff
	for attempt := 1; attempt <= c.attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if !services.IsRetryable(lastErr) || attempt == c.attempts {
			return lastErr
		}
		c.logger.Warn("portal request failed; retrying",
			logging.String("operation", operation),
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

func jpgURL(renditions []rendition) string {
	for _, r := range renditions {
		if strings.EqualFold(strings.TrimSpace(r.Format), "jpg") {
			return r.URL
		}
	}
	return ""
}

var _ Source = (*Client)(nil)

// IsNotFound reports whether an error from the client means the identifier is
// absent from the portal rather than temporarily unreachable.
func IsNotFound(err error) bool {
	return errors.Is(err, services.ErrNotFound)
}
