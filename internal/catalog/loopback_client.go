package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

const (
	defaultLoopbackTimeout = 3 * time.Second
	defaultLoopbackBackoff = 100 * time.Millisecond
	maxErrorBodyBytes      = 4 << 10
)

type LoopbackOptions struct {
	// Timeout bounds each attempt. Expiry is reported as a *RemoteError.
	Timeout time.Duration
	// Retries is the number of extra attempts after the first for transport
	// failures and 5xx responses. 4xx responses are never retried.
	Retries int
	Backoff time.Duration

	Log     *zap.Logger
	Metrics *SyncMetrics
	Client  *http.Client
}

// BaseURL includes the API prefix, e.g. http://localhost:8080/plugin_store.
type LoopbackClient struct {
	BaseURL string
	Client  *http.Client

	timeout time.Duration
	retries int
	backoff time.Duration
	log     *zap.Logger
	metrics *SyncMetrics
}

func NewLoopbackClient(baseURL string, opts LoopbackOptions) *LoopbackClient {
	c := &LoopbackClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  opts.Client,
		timeout: opts.Timeout,
		retries: max(opts.Retries, 0),
		backoff: opts.Backoff,
		log:     opts.Log,
		metrics: opts.Metrics,
	}
	if c.Client == nil {
		c.Client = &http.Client{}
	}
	if c.timeout <= 0 {
		c.timeout = defaultLoopbackTimeout
	}
	if c.backoff <= 0 {
		c.backoff = defaultLoopbackBackoff
	}
	if c.log == nil {
		c.log = zap.NewNop()
	}
	return c
}

func (c *LoopbackClient) FetchCategory(ctx context.Context, id int) (Category, error) {
	var cat Category
	err := c.do(ctx, "fetch category", http.MethodGet, fmt.Sprintf("/categories/%d", id), nil, &cat)
	return cat, err
}

func (c *LoopbackClient) FetchProduct(ctx context.Context, id int) (Product, error) {
	var p Product
	err := c.do(ctx, "fetch product", http.MethodGet, fmt.Sprintf("/products/%d", id), nil, &p)
	return p, err
}

func (c *LoopbackClient) FetchProducts(ctx context.Context, ids []int) ([]Product, error) {
	return fetchProducts(ctx, ids, c.FetchProduct)
}

// The response body, the full category list, is discarded.
func (c *LoopbackClient) PushCategoryUpdate(ctx context.Context, id int, payload CategoryInput) error {
	return c.do(ctx, "push category update", http.MethodPatch, fmt.Sprintf("/categories/%d", id), payload, nil)
}

func (c *LoopbackClient) do(ctx context.Context, op, method, path string, in, out any) error {
	var body []byte
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrSerialization, op, err)
		}
		body = b
	}

	url := c.BaseURL + path
	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(c.backoff), uint64(c.retries)),
		ctx,
	)

	attempt := func() error {
		err := c.once(ctx, op, method, url, body, out)
		if err == nil {
			c.metrics.attempt(method, resultOK)
			return nil
		}
		c.metrics.attempt(method, resultError)
		if !retryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, wait time.Duration) {
		c.log.Warn("loopback call failed, retrying",
			zap.String("op", op),
			zap.String("url", url),
			zap.Duration("wait", wait),
			zap.Error(err),
		)
	}

	err := backoff.RetryNotify(attempt, policy, notify)
	if err == nil {
		return nil
	}
	// Cancellation of ctx surfaces as the bare context error.
	var re *RemoteError
	if !errors.As(err, &re) {
		return &RemoteError{Op: op, URL: url, Err: err}
	}
	return err
}

func (c *LoopbackClient) once(ctx context.Context, op, method, url string, body []byte, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, rd)
	if err != nil {
		return &RemoteError{Op: op, URL: url, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		return &RemoteError{Op: op, URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		var cause error
		if s := strings.TrimSpace(string(msg)); s != "" {
			cause = errors.New(s)
		}
		return &RemoteError{Op: op, URL: url, Status: resp.StatusCode, Err: cause}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &RemoteError{Op: op, URL: url, Status: resp.StatusCode, Err: fmt.Errorf("decode: %w", err)}
	}
	return nil
}

func retryable(err error) bool {
	var re *RemoteError
	if !errors.As(err, &re) {
		return false
	}
	return re.Status == 0 || re.Status >= http.StatusInternalServerError
}
