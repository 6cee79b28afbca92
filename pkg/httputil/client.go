package httputil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

// RequestConfig holds configuration for a single outbound HTTP request.
type RequestConfig struct {
	Logger         *zap.Logger
	Headers        map[string][]string
	Method         string
	URL            string
	Timeout        time.Duration
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	RetryEnabled   bool
}

// DefaultRequestConfig returns a RequestConfig with sensible defaults.
// Retries are enabled only for idempotent methods; writes against the
// gateway are not safe to replay blindly.
func DefaultRequestConfig(method, url string) RequestConfig {
	return RequestConfig{
		Method:         method,
		URL:            url,
		Timeout:        15 * time.Second,
		RetryEnabled:   method == http.MethodGet || method == http.MethodHead,
		MaxRetries:     3,
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     5 * time.Second,
		Logger:         zap.NewNop(),
	}
}

// Response is an HTTP response with the body already drained.
type Response struct {
	Headers    http.Header
	Body       []byte
	StatusCode int
}

// OK reports whether the status code is in the 2xx range.
func (r *Response) OK() bool {
	return r != nil && r.StatusCode >= 200 && r.StatusCode < 300
}

// StatusError describes a non-2xx response. The gateway returns its error
// detail in the body, so the body text is carried verbatim.
type StatusError struct {
	Body       string
	StatusCode int
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("unexpected status code: %d", e.StatusCode)
	}
	return fmt.Sprintf("unexpected status code: %d, body: %s", e.StatusCode, e.Body)
}

// Request performs an HTTP request with optional retry. payload may be nil,
// []byte, string, or any JSON-marshalable value. The response is returned
// even on error so callers can inspect status and body.
func Request(ctx context.Context, config RequestConfig, payload any) (*Response, error) {
	var body []byte
	if payload != nil {
		switch v := payload.(type) {
		case []byte:
			body = v
		case string:
			body = []byte(v)
		default:
			var err error
			body, err = json.Marshal(payload)
			if err != nil {
				return nil, fmt.Errorf("failed to marshal payload: %w", err)
			}
		}
	}

	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	client := &http.Client{Timeout: config.Timeout}

	var response *Response
	attempt := 0

	operation := func() error {
		attempt++
		if attempt > 1 {
			logger.Debug("retrying request", zap.String("url", config.URL), zap.Int("attempt", attempt))
		}

		var reqBody io.Reader
		if body != nil {
			reqBody = bytes.NewReader(body)
		}

		req, err := http.NewRequestWithContext(ctx, config.Method, config.URL, reqBody)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
		}
		for key, values := range config.Headers {
			for _, value := range values {
				req.Header.Add(key, value)
			}
		}
		if reqBody != nil && req.Header.Get("Content-Type") == "" {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := client.Do(req)
		if err != nil {
			return fmt.Errorf("request failed: %w", err)
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("failed to read response body: %w", err)
		}

		response = &Response{
			StatusCode: resp.StatusCode,
			Body:       respBody,
			Headers:    resp.Header,
		}

		if !response.OK() {
			statusErr := &StatusError{StatusCode: resp.StatusCode, Body: string(respBody)}
			// 4xx won't change on retry
			if resp.StatusCode >= 400 && resp.StatusCode < 500 {
				return backoff.Permanent(statusErr)
			}
			return statusErr
		}
		return nil
	}

	var err error
	if config.RetryEnabled && config.MaxRetries > 0 {
		b := backoff.NewExponentialBackOff()
		b.InitialInterval = config.InitialBackoff
		b.MaxInterval = config.MaxBackoff
		err = backoff.Retry(operation,
			backoff.WithContext(backoff.WithMaxRetries(b, uint64(config.MaxRetries)), ctx))
	} else {
		err = operation()
	}

	if err != nil {
		logger.Debug("request failed", zap.String("method", config.Method), zap.String("url", config.URL), zap.Error(err))
		return response, err
	}
	return response, nil
}
