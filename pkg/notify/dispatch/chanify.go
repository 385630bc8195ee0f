package dispatch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/nimburion/notify/pkg/notify"
	"github.com/nimburion/notify/pkg/observability/logger"
)

const chanifySenderPath = "/v1/sender/{token}"

// ChanifyOptions configures the chanify adapter.
type ChanifyOptions struct {
	Config  notify.ChanifyConfig
	Timeout time.Duration
	// RetryCount is the number of retries after a failed attempt. Negative
	// disables retries; zero selects the default of 2.
	RetryCount int
}

// ChanifyNotifier sends events to a chanify relay.
type ChanifyNotifier struct {
	client  *resty.Client
	token   string
	timeout time.Duration
	log     logger.Logger
}

// NewChanifyNotifier creates a chanify adapter.
func NewChanifyNotifier(opts ChanifyOptions, log logger.Logger) (*ChanifyNotifier, error) {
	token := strings.TrimSpace(opts.Config.Token)
	if token == "" {
		return nil, errors.New("chanify token is required")
	}
	baseURL := strings.TrimRight(strings.TrimSpace(opts.Config.URL), "/")
	if baseURL == "" {
		return nil, errors.New("chanify url is required")
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	retries := opts.RetryCount
	switch {
	case retries == 0:
		retries = 2
	case retries < 0:
		retries = 0
	}
	if log == nil {
		log = logger.NewNop()
	}

	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(opts.Timeout).
		SetHeader("Accept", "application/json").
		SetRetryCount(retries).
		SetRetryWaitTime(100 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second)
	client.AddRetryCondition(retryCondition)

	return &ChanifyNotifier{
		client:  client,
		token:   opts.Config.Token,
		timeout: opts.Timeout,
		log:     log.With("service", "chanify"),
	}, nil
}

// retryCondition retries network errors and transient server responses.
func retryCondition(r *resty.Response, err error) bool {
	if err != nil {
		return true
	}
	if r == nil {
		return false
	}
	code := r.StatusCode()
	return code >= 500 || code == http.StatusTooManyRequests || code == http.StatusRequestTimeout
}

// Send posts the rendered event as the text form field.
func (n *ChanifyNotifier) Send(ctx context.Context, event Event) error {
	cctx, cancel := withTimeout(ctx, n.timeout)
	defer cancel()

	resp, err := n.client.R().
		SetContext(cctx).
		SetPathParam("token", n.token).
		SetFormData(map[string]string{"text": event.Message()}).
		Post(chanifySenderPath)
	if err != nil {
		return fmt.Errorf("chanify request failed: %w", err)
	}
	if !resp.IsSuccess() {
		return fmt.Errorf("chanify send failed with status %d: %s", resp.StatusCode(), strings.TrimSpace(resp.String()))
	}

	n.log.WithContext(ctx).Debug("chanify notification sent", "event_type", event.Type, "status", resp.StatusCode())
	return nil
}

// Close is a no-op; the underlying HTTP client holds no per-notifier state.
func (n *ChanifyNotifier) Close() error {
	return nil
}
