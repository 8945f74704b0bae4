package anilist

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/amaumene/aniwrap/internal/config"
	"github.com/amaumene/aniwrap/internal/metrics"
	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/time/rate"
)

const userAgent = "aniwrap/1.0"

// ErrUserNotFound is returned when AniList has no user with the given name
var ErrUserNotFound = errors.New("anilist user not found")

// StatusError is a non-2xx response from AniList
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("API request failed with status %d: %s", e.StatusCode, e.Body)
}

// retryable reports whether another attempt might succeed
func (e *StatusError) retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// Client handles communication with the AniList GraphQL API
type Client struct {
	baseURL    string
	maxRetries int
	limiter    *rate.Limiter
	newBackOff func() backoff.BackOff
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewClient creates a new AniList API client
func NewClient(cfg *config.Config, logger *logrus.Logger) (*Client, error) {
	if cfg.AnilistURL == "" {
		return nil, fmt.Errorf("anilist URL is required")
	}
	if cfg.AnilistRatePerMinute <= 0 {
		return nil, fmt.Errorf("anilist rate limit must be positive")
	}

	return &Client{
		baseURL:    cfg.AnilistURL,
		maxRetries: cfg.AnilistMaxRetries,
		limiter:    rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.AnilistRatePerMinute)), 1),
		newBackOff: func() backoff.BackOff { return backoff.NewExponentialBackOff() },
		httpClient: &http.Client{Timeout: time.Duration(cfg.AnilistTimeoutSeconds) * time.Second},
		logger:     logger,
	}, nil
}

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

type graphQLError struct {
	Message string `json:"message"`
	Status  int    `json:"status"`
}

type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphQLError  `json:"errors"`
}

// doQuery posts a GraphQL query and decodes its data member into result,
// retrying transient failures with exponential backoff
func (c *Client) doQuery(ctx context.Context, query string, variables map[string]any, result any) error {
	ctx, span := otel.Tracer("github.com/amaumene/aniwrap/internal/services/anilist").Start(ctx, "anilist.query")
	defer span.End()

	body, err := json.Marshal(graphQLRequest{Query: query, Variables: variables})
	if err != nil {
		return fmt.Errorf("failed to marshal request body: %w", err)
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(c.newBackOff(), uint64(c.maxRetries)),
		ctx,
	)

	attempt := 0
	operation := func() error {
		attempt++
		data, err := c.post(ctx, body)
		if err != nil {
			var statusErr *StatusError
			if errors.As(err, &statusErr) && !statusErr.retryable() {
				metrics.AnilistRequestsTotal.WithLabelValues("error").Inc()
				return backoff.Permanent(err)
			}
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			metrics.AnilistRequestsTotal.WithLabelValues("retry").Inc()
			c.logger.WithError(err).WithField("attempt", attempt).Warn("AniList request failed")
			return err
		}
		metrics.AnilistRequestsTotal.WithLabelValues("success").Inc()
		return decodeData(data, result)
	}

	err = backoff.Retry(operation, policy)
	span.SetAttributes(attribute.Int("anilist.attempts", attempt))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		var statusErr *StatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound {
			return fmt.Errorf("%w: %v", ErrUserNotFound, err)
		}
		return err
	}
	return nil
}

// post performs a single rate-limited HTTP round trip and returns the body
func (c *Client) post(ctx context.Context, body []byte) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	c.logger.WithField("url", c.baseURL).Debug("Making AniList API request")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	metrics.AnilistRequestDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(data)}
	}
	return data, nil
}

// decodeData unwraps the GraphQL envelope
func decodeData(raw []byte, result any) error {
	var envelope graphQLResponse
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return backoff.Permanent(fmt.Errorf("failed to decode response: %w", err))
	}

	if len(envelope.Errors) > 0 {
		first := envelope.Errors[0]
		if first.Status == http.StatusNotFound {
			return backoff.Permanent(fmt.Errorf("%w: %s", ErrUserNotFound, first.Message))
		}
		if len(envelope.Data) == 0 || string(envelope.Data) == "null" {
			return backoff.Permanent(fmt.Errorf("graphql error: %s", first.Message))
		}
	}

	if err := json.Unmarshal(envelope.Data, result); err != nil {
		return backoff.Permanent(fmt.Errorf("failed to decode data: %w", err))
	}
	return nil
}
