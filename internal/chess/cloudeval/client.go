// Package cloudeval asks a cloud evaluation service (lichess-compatible
// /api/cloud-eval) for the principal variation of a position.
package cloudeval

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/park285/cheese-chess/internal/chess/source"
)

const evalPath = "/api/cloud-eval"

// PV is one principal variation; Moves is space separated UCI.
type PV struct {
	Moves string `json:"moves"`
	CP    *int   `json:"cp,omitempty"`
	Mate  *int   `json:"mate,omitempty"`
}

type Evaluation struct {
	FEN    string `json:"fen"`
	Knodes int    `json:"knodes"`
	Depth  int    `json:"depth"`
	PVs    []PV   `json:"pvs"`
}

// BestMove is the first move of the first PV, or "" when there is none.
func (e *Evaluation) BestMove() string {
	if e == nil || len(e.PVs) == 0 {
		return ""
	}
	fields := strings.Fields(e.PVs[0].Moves)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

type Client struct {
	baseURL string
	http    *fasthttp.Client
	logger  *zap.Logger

	defaultTimeout time.Duration
	retryMax       int
	multiPV        int
}

type Option func(*Client)

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.defaultTimeout = d
		}
	}
}

func WithMaxConnsPerHost(n int) Option {
	return func(c *Client) { c.http.MaxConnsPerHost = n }
}

func WithRetry(max int) Option {
	return func(c *Client) { c.retryMax = max }
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithDialer replaces the TCP dialer, mostly for in-memory listeners.
func WithDialer(dial fasthttp.DialFunc) Option {
	return func(c *Client) { c.http.Dial = dial }
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		http:           &fasthttp.Client{ReadTimeout: 5 * time.Second, WriteTimeout: 5 * time.Second, MaxConnsPerHost: 16},
		logger:         zap.NewNop(),
		defaultTimeout: 3 * time.Second,
		retryMax:       2,
		multiPV:        1,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Name() string { return "cloud-eval" }

// ProposeMove implements source.MoveSource.
func (c *Client) ProposeMove(ctx context.Context, fen string) (string, error) {
	ev, err := c.Evaluate(ctx, fen)
	if err != nil {
		return "", err
	}
	move := ev.BestMove()
	if move == "" {
		return "", source.ErrNotApplicable
	}
	return move, nil
}

// Evaluate fetches the cached evaluation for fen. A position the service has
// never analysed yields source.ErrNotApplicable.
func (c *Client) Evaluate(ctx context.Context, fen string) (*Evaluation, error) {
	fen = strings.TrimSpace(fen)
	if fen == "" {
		return nil, errors.New("cloudeval: empty fen")
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer func() {
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)
	}()

	req.Header.SetMethod(fasthttp.MethodGet)
	req.SetRequestURI(c.baseURL + evalPath)
	req.URI().QueryArgs().Add("fen", fen)
	req.URI().QueryArgs().Add("multiPv", fmt.Sprint(c.multiPV))
	req.Header.Set("Accept", "application/json")

	attempts := c.retryMax
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		err := c.http.DoDeadline(req, resp, c.computeDeadline(ctx))
		if err != nil {
			lastErr = fmt.Errorf("cloud eval request: %w", err)
			if attempt == attempts {
				return nil, lastErr
			}
			if sleepErr := sleepWithContext(ctx, backoffDuration(attempt)); sleepErr != nil {
				return nil, lastErr
			}
			continue
		}

		status := resp.StatusCode()
		if status == fasthttp.StatusNotFound {
			return nil, source.ErrNotApplicable
		}
		if status < 200 || status >= 300 {
			lastErr = fmt.Errorf("cloud eval error: status=%d body=%s", status, truncate(string(resp.Body()), 256))
			if attempt == attempts || !shouldRetryStatus(status) {
				return nil, lastErr
			}
			c.logger.Debug("cloud_eval_retry", zap.Int("status", status), zap.Int("attempt", attempt))
			if sleepErr := sleepWithContext(ctx, backoffDuration(attempt)); sleepErr != nil {
				return nil, lastErr
			}
			continue
		}

		var ev Evaluation
		if err := json.Unmarshal(resp.Body(), &ev); err != nil {
			return nil, fmt.Errorf("decode cloud eval: %w", err)
		}
		if len(ev.PVs) == 0 {
			return nil, source.ErrNotApplicable
		}
		return &ev, nil
	}

	if lastErr == nil {
		lastErr = errors.New("cloud eval: unknown error")
	}
	return nil, lastErr
}

func (c *Client) computeDeadline(ctx context.Context) time.Time {
	clientDL := time.Now().Add(c.defaultTimeout)
	if dl, ok := ctx.Deadline(); ok && dl.Before(clientDL) {
		return dl
	}
	return clientDL
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func backoffDuration(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if attempt > 5 {
		attempt = 5
	}
	return time.Duration(1<<uint(attempt-1)) * 50 * time.Millisecond
}

func shouldRetryStatus(code int) bool {
	switch code {
	case 429, 500, 502, 503, 504:
		return true
	default:
		return false
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
