package biomedgpt

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
)

const (
	defaultHTTPTimeout    = 30 * time.Second
	defaultRetryAttempts  = 3
	defaultRetryBaseDelay = 1 * time.Second
	defaultRetryMaxDelay  = 10 * time.Second
)

// Config captures the runtime settings required to talk to the BioMedGPT
// inference endpoint.
type Config struct {
	APIURL         string
	APIKey         string
	TimeoutSeconds int
	RetryAttempts  int
}

// Client wraps the BioMedGPT /infer HTTP API used for clinical question
// answering over generated report text.
type Client struct {
	cfg        Config
	httpClient *http.Client

	retryMaxAttempts int
	retryBaseDelay   time.Duration
	retryMaxDelay    time.Duration
	sleeper          func(time.Duration)
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithRetryBackoff overrides the retry backoff delays.
func WithRetryBackoff(baseDelay, maxDelay time.Duration) Option {
	return func(c *Client) {
		c.retryBaseDelay = baseDelay
		c.retryMaxDelay = maxDelay
	}
}

// WithSleeper overrides how retry sleeps are performed (useful for tests).
func WithSleeper(sleeper func(time.Duration)) Option {
	return func(c *Client) {
		c.sleeper = sleeper
	}
}

// NewClient constructs a BioMedGPT client using the supplied configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	attempts := cfg.RetryAttempts
	if attempts <= 0 {
		attempts = defaultRetryAttempts
	}
	client := &Client{
		cfg: Config{
			APIURL:         strings.TrimSpace(cfg.APIURL),
			APIKey:         strings.TrimSpace(cfg.APIKey),
			TimeoutSeconds: cfg.TimeoutSeconds,
			RetryAttempts:  attempts,
		},
		httpClient:       &http.Client{Timeout: timeout},
		retryMaxAttempts: attempts,
		retryBaseDelay:   defaultRetryBaseDelay,
		retryMaxDelay:    defaultRetryMaxDelay,
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: timeout}
	}
	return client
}

type inferRequest struct {
	ReportText string `json:"report_text"`
	UserQuery  string `json:"user_query"`
}

type inferResponse struct {
	Answer string `json:"answer"`
	Error  string `json:"error"`
}

type httpStatusError struct {
	StatusCode int
	Body       string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("biomedgpt request: http %d: %s", e.StatusCode, strings.TrimSpace(e.Body))
}

// AnswerQuestion asks the model a clinical question grounded in the supplied
// report text. Input is text only; no image data crosses this boundary.
func (c *Client) AnswerQuestion(ctx context.Context, question, reportText string) (string, error) {
	question = strings.TrimSpace(question)
	reportText = strings.TrimSpace(reportText)
	if question == "" {
		return "", errors.New("biomedgpt infer: question required")
	}
	if reportText == "" {
		return "", errors.New("biomedgpt infer: report text required")
	}
	if c.cfg.APIURL == "" {
		return "", errors.New("biomedgpt infer: api url not configured")
	}

	payload := inferRequest{ReportText: reportText, UserQuery: question}

	for attempt := 1; ; attempt++ {
		answer, err := c.sendOnce(ctx, payload)
		if err == nil {
			return answer, nil
		}

		// retryDelay refuses further retries on the final attempt, so the
		// loop always exits through one of these returns.
		delay, retry := c.retryDelay(err, attempt)
		if !retry {
			return "", err
		}
		if sleepErr := c.sleep(ctx, delay); sleepErr != nil {
			return "", sleepErr
		}
	}
}

func (c *Client) sendOnce(ctx context.Context, payload inferRequest) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("biomedgpt infer: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.APIURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("biomedgpt infer: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("biomedgpt infer: send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("biomedgpt infer: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", &httpStatusError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	var parsed inferResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("biomedgpt infer: parse response: %w", err)
	}
	if parsed.Error != "" {
		return "", fmt.Errorf("biomedgpt infer: service error: %s", parsed.Error)
	}
	answer := strings.TrimSpace(parsed.Answer)
	if answer == "" {
		return "", errors.New("biomedgpt infer: empty answer in response")
	}
	return answer, nil
}

// retryDelay decides whether the error is transient and how long to wait
// before the next attempt.
func (c *Client) retryDelay(err error, attempt int) (time.Duration, bool) {
	if attempt >= c.retryMaxAttempts {
		return 0, false
	}

	retryable := false
	var statusErr *httpStatusError
	if errors.As(err, &statusErr) {
		retryable = statusErr.StatusCode == http.StatusTooManyRequests || statusErr.StatusCode >= 500
	} else {
		var netErr net.Error
		if errors.As(err, &netErr) {
			retryable = true
		}
	}
	if !retryable {
		return 0, false
	}

	delay := c.retryBaseDelay << (attempt - 1)
	if delay > c.retryMaxDelay {
		delay = c.retryMaxDelay
	}
	return delay, true
}

func (c *Client) sleep(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	if c.sleeper != nil {
		c.sleeper(delay)
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
