package xqueue

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/phrazzld/certify-api/internal/config"
	"github.com/phrazzld/certify-api/internal/platform/logger"
)

// Header is the envelope header sent with every task. The correlation
// key never appears anywhere else in the submission.
type Header struct {
	LMSKey         string `json:"lms_key"`
	LMSCallbackURL string `json:"lms_callback_url"`
	QueueName      string `json:"queue_name"`
}

// ackResponse is the queue's acknowledgment body.
type ackResponse struct {
	ReturnCode int    `json:"return_code"`
	Content    string `json:"content"`
}

// Client defines the interface for submitting tasks to the worker queue.
// Submit performs exactly one submission attempt; it never retries
// internally. Retry policy belongs to the caller (see RetryingClient).
type Client interface {
	// Submit sends one task to the queue. key is the opaque correlation
	// token the worker echoes back in its callback, callbackURL is where
	// that callback must be posted, and body is the task-specific payload.
	// Returns nil when the queue accepted the task, or a *SubmitError
	// describing the rejection or transport failure. No local state is
	// touched either way.
	Submit(ctx context.Context, key, callbackURL string, body any) error
}

// HTTPClient submits tasks to the queue over HTTP. The single outbound
// call carries a bounded timeout; the queue endpoint is untrusted and
// may hang.
type HTTPClient struct {
	endpoint   string
	queueName  string
	httpClient *http.Client
	logger     *slog.Logger
}

// Ensure HTTPClient implements the Client interface
var _ Client = (*HTTPClient)(nil)

// NewHTTPClient creates a queue client from configuration.
func NewHTTPClient(cfg config.QueueConfig, log *slog.Logger) (*HTTPClient, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("%w: queue URL cannot be empty", ErrInvalidConfig)
	}

	if cfg.Name == "" {
		return nil, fmt.Errorf("%w: queue name cannot be empty", ErrInvalidConfig)
	}

	if cfg.TimeoutSeconds <= 0 {
		return nil, fmt.Errorf("%w: queue timeout must be positive", ErrInvalidConfig)
	}

	if log == nil {
		log = slog.Default()
	}

	return &HTTPClient{
		endpoint:  cfg.URL,
		queueName: cfg.Name,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		},
		logger: log.With(slog.String("component", "xqueue_client")),
	}, nil
}

// Submit implements Client.Submit.
func (c *HTTPClient) Submit(ctx context.Context, key, callbackURL string, body any) error {
	log := logger.FromContextOrDefault(ctx, c.logger)

	header := Header{
		LMSKey:         key,
		LMSCallbackURL: callbackURL,
		QueueName:      c.queueName,
	}

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return &SubmitError{Code: CodeTransport, Message: fmt.Sprintf("failed to encode header: %v", err)}
	}

	bodyJSON, err := json.Marshal(body)
	if err != nil {
		return &SubmitError{Code: CodeTransport, Message: fmt.Sprintf("failed to encode body: %v", err)}
	}

	form := url.Values{
		"xqueue_header": {string(headerJSON)},
		"xqueue_body":   {string(bodyJSON)},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return &SubmitError{Code: CodeTransport, Message: fmt.Sprintf("failed to build request: %v", err)}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Warn("queue submission transport failure",
			slog.String("error", err.Error()),
			slog.String("queue_name", c.queueName))
		return &SubmitError{Code: CodeTransport, Message: fmt.Sprintf("queue unreachable: %v", err)}
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			log.Error("failed to close response body", slog.String("error", err.Error()))
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Warn("queue submission rejected at HTTP level",
			slog.Int("status_code", resp.StatusCode),
			slog.String("queue_name", c.queueName))
		return &SubmitError{
			Code:    CodeTransport,
			Message: fmt.Sprintf("queue returned HTTP %d", resp.StatusCode),
		}
	}

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return &SubmitError{Code: CodeTransport, Message: fmt.Sprintf("failed to read acknowledgment: %v", err)}
	}

	var ack ackResponse
	if err := json.Unmarshal(respBody, &ack); err != nil {
		return &SubmitError{Code: CodeTransport, Message: fmt.Sprintf("malformed acknowledgment: %v", err)}
	}

	if ack.ReturnCode != 0 {
		log.Warn("queue rejected task",
			slog.Int("return_code", ack.ReturnCode),
			slog.String("content", ack.Content),
			slog.String("queue_name", c.queueName))
		return &SubmitError{Code: ack.ReturnCode, Message: ack.Content}
	}

	log.Debug("task submitted to queue",
		slog.String("queue_name", c.queueName))
	return nil
}
