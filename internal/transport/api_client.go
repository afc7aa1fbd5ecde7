package transport

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"mixtrack/internal/providers"
)

const (
	defaultTimeout        = 10 * time.Second
	defaultRetryBaseDelay = 1 * time.Second
	defaultRetryMaxDelay  = 10 * time.Second
)

type Config struct {
	Host     string `yaml:"host" validate:"required"`
	Protocol string `yaml:"protocol" validate:"in:http,https"`
	Path     string `yaml:"path"`
	Secret   string `yaml:"secret"`

	Geolocate bool `yaml:"geolocate"`
	Verbose   bool `yaml:"verbose"`
	Test      bool `yaml:"test"`
	Debug     bool `yaml:"debug"`

	MaxRetries     int           `yaml:"maxRetries" validate:"min:0"`
	RetryBaseDelay time.Duration `yaml:"retryBaseDelay"`
	RetryMaxDelay  time.Duration `yaml:"retryMaxDelay"`
	Timeout        time.Duration `yaml:"timeout"`

	// GzipThreshold is the POST body size in bytes above which the body is
	// gzip-compressed. Zero disables compression.
	GzipThreshold int `yaml:"gzipThreshold"`
}

type SenderInterface interface {
	Send(ctx context.Context, method, endpoint string, payload any) error
}

// APIClient serializes payloads into the collector's base64 "data" parameter
// and retries retryable failures with capped exponential backoff, honoring
// Retry-After on rate limits.
type APIClient struct {
	conf       Config
	httpClient *http.Client
	compressor CompressorInterface
	logger     providers.Logger
	metrics    providers.MetricsProviderInterface
}

func NewAPIClient(conf Config, logger providers.Logger, metrics providers.MetricsProviderInterface) *APIClient {
	timeout := conf.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &APIClient{
		conf:       conf,
		httpClient: &http.Client{Timeout: timeout},
		compressor: NewGzipCompressor(),
		logger:     logger,
		metrics:    metrics,
	}
}

func (a *APIClient) Send(ctx context.Context, method, endpoint string, payload any) error {
	scope := providers.GetLogTypeByEndpoint(endpoint)

	for attempt := 0; ; attempt++ {
		start := time.Now()
		err := a.do(ctx, method, endpoint, payload)
		a.metrics.ObserveRequestDuration(endpoint, time.Since(start))

		if err == nil {
			a.metrics.IncRequestsTotal(endpoint, "ok")
			return nil
		}

		var apiErr *APIError
		if !errors.As(err, &apiErr) {
			a.metrics.IncRequestsTotal(endpoint, "unexpected_response")
			return err
		}
		a.metrics.IncRequestsTotal(endpoint, apiErr.Kind.String())

		if !apiErr.Retryable() {
			return err
		}
		if attempt >= a.conf.MaxRetries {
			return fmt.Errorf("request to %s failed after %d retries: %w", endpoint, attempt, err)
		}

		wait := a.backoff(apiErr, attempt)
		a.metrics.IncRetriesTotal(endpoint)
		if a.conf.Debug {
			a.logger.Debugf(scope, "retrying %s after %s (attempt %d of %d): %s",
				endpoint, wait, attempt+1, a.conf.MaxRetries, err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

func (a *APIClient) backoff(apiErr *APIError, attempt int) time.Duration {
	if apiErr.Kind == KindRateLimit && apiErr.RetryAfter > 0 {
		return apiErr.RetryAfter
	}

	base := a.conf.RetryBaseDelay
	if base <= 0 {
		base = defaultRetryBaseDelay
	}
	maxDelay := a.conf.RetryMaxDelay
	if maxDelay <= 0 {
		maxDelay = defaultRetryMaxDelay
	}

	delay := base << attempt
	if delay > maxDelay || delay <= 0 {
		delay = maxDelay
	}
	return delay
}

func (a *APIClient) do(ctx context.Context, method, endpoint string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding payload: %w", err)
	}
	encoded := base64.StdEncoding.EncodeToString(data)

	protocol := a.conf.Protocol
	if protocol == "" {
		protocol = "https"
	}
	u := url.URL{
		Scheme: protocol,
		Host:   a.conf.Host,
		Path:   joinPath(a.conf.Path, endpoint),
	}

	query := url.Values{}
	query.Set("ip", boolFlag(a.conf.Geolocate))
	query.Set("verbose", boolFlag(a.conf.Verbose))
	if a.conf.Test {
		query.Set("test", "1")
	}

	var req *http.Request
	switch strings.ToUpper(method) {
	case http.MethodGet:
		query.Set("data", encoded)
		u.RawQuery = query.Encode()
		req, err = http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
		if err != nil {
			return err
		}

	case http.MethodPost:
		u.RawQuery = query.Encode()
		body := []byte(url.Values{"data": {encoded}}.Encode())
		compressed := false
		if a.conf.GzipThreshold > 0 && len(body) > a.conf.GzipThreshold {
			if gz, gzErr := a.compressor.Compress(body); gzErr == nil {
				body = gz
				compressed = true
			}
		}
		req, err = http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		if compressed {
			req.Header.Set("Content-Encoding", "gzip")
		}

	default:
		return &APIError{Kind: KindClient, Message: fmt.Sprintf("unsupported HTTP method: %s", method)}
	}

	if a.conf.Secret != "" {
		req.SetBasicAuth(a.conf.Secret, "")
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return &APIError{Kind: KindNetwork, Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return a.checkBody(resp)
	}

	switch {
	case resp.StatusCode == http.StatusRequestEntityTooLarge:
		return &APIError{Kind: KindPayloadTooLarge, StatusCode: resp.StatusCode, Message: "payload too large"}

	case resp.StatusCode == http.StatusTooManyRequests:
		apiErr := &APIError{Kind: KindRateLimit, StatusCode: resp.StatusCode, Message: "rate limited"}
		if secs, parseErr := strconv.Atoi(resp.Header.Get("Retry-After")); parseErr == nil && secs > 0 {
			apiErr.RetryAfter = time.Duration(secs) * time.Second
		}
		return apiErr

	case resp.StatusCode >= 500:
		return &APIError{Kind: KindServer, StatusCode: resp.StatusCode, Message: "server error"}

	default:
		body, _ := io.ReadAll(resp.Body)
		return &APIError{Kind: KindClient, StatusCode: resp.StatusCode, Message: string(body)}
	}
}

func (a *APIClient) checkBody(resp *http.Response) error {
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &APIError{Kind: KindNetwork, Message: err.Error()}
	}

	if a.conf.Verbose {
		var vr struct {
			Status int    `json:"status"`
			Error  string `json:"error"`
		}
		if err := json.Unmarshal(raw, &vr); err != nil {
			return &APIError{Kind: KindUnexpectedResponse, StatusCode: resp.StatusCode, Message: string(raw)}
		}
		if vr.Status != 1 {
			if vr.Error != "" {
				return &APIError{Kind: KindClient, StatusCode: resp.StatusCode, Message: vr.Error}
			}
			return &APIError{Kind: KindUnexpectedResponse, StatusCode: resp.StatusCode, Message: string(raw)}
		}
		return nil
	}

	if body := strings.TrimSpace(string(raw)); body != "1" {
		return &APIError{Kind: KindUnexpectedResponse, StatusCode: resp.StatusCode, Message: body}
	}
	return nil
}

func joinPath(prefix, endpoint string) string {
	prefix = strings.TrimSuffix(prefix, "/")
	if !strings.HasPrefix(endpoint, "/") {
		endpoint = "/" + endpoint
	}
	return prefix + endpoint
}

func boolFlag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
