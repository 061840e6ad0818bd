// Package wsengine talks to a remote engine relay over a websocket. Each
// request carries an id; replies are matched back to the waiting caller, so
// several games can share one connection.
package wsengine

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/park285/cheese-chess/internal/chess/source"
)

var (
	ErrClosed       = errors.New("wsengine: client closed")
	ErrDisconnected = errors.New("wsengine: connection lost")
)

type request struct {
	ID   uint64 `json:"id"`
	Type string `json:"type"`
	FEN  string `json:"fen"`
}

type reply struct {
	ID    uint64 `json:"id"`
	Move  string `json:"move"`
	Error string `json:"error,omitempty"`
}

// HeaderProvider injects handshake headers (auth tokens and the like).
type HeaderProvider func() map[string]string

type Client struct {
	url     string
	headers HeaderProvider
	logger  *zap.Logger

	dialTimeout    time.Duration
	requestTimeout time.Duration
	pingInterval   time.Duration

	mu      sync.Mutex
	conn    *websocket.Conn
	pending map[uint64]chan reply
	nextID  uint64
	closed  bool

	writeMu sync.Mutex

	rootCtx    context.Context
	rootCancel context.CancelFunc
	wg         sync.WaitGroup
}

type Option func(*Client)

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

func WithHeaderProvider(h HeaderProvider) Option {
	return func(c *Client) { c.headers = h }
}

func WithRequestTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.requestTimeout = d
		}
	}
}

func WithPingInterval(d time.Duration) Option {
	return func(c *Client) { c.pingInterval = d }
}

// New does not dial; the connection is opened on first use and reopened
// after a failure.
func New(url string, opts ...Option) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Client{
		url:            url,
		logger:         zap.NewNop(),
		dialTimeout:    10 * time.Second,
		requestTimeout: 5 * time.Second,
		pingInterval:   30 * time.Second,
		pending:        make(map[uint64]chan reply),
		rootCtx:        ctx,
		rootCancel:     cancel,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Name() string { return "ws-engine" }

// ProposeMove implements source.MoveSource. An empty move in the reply means
// the relay had nothing for this position.
func (c *Client) ProposeMove(ctx context.Context, fen string) (string, error) {
	conn, err := c.ensureConn(ctx)
	if err != nil {
		return "", err
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.requestTimeout)
		defer cancel()
	}

	id, ch := c.register()
	defer c.unregister(id)

	c.writeMu.Lock()
	err = wsjson.Write(ctx, conn, request{ID: id, Type: "propose", FEN: fen})
	c.writeMu.Unlock()
	if err != nil {
		c.drop(conn, err)
		return "", fmt.Errorf("wsengine write: %w", err)
	}

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r, ok := <-ch:
		if !ok {
			return "", ErrDisconnected
		}
		if r.Error != "" {
			return "", fmt.Errorf("wsengine: remote error: %s", r.Error)
		}
		move := strings.TrimSpace(r.Move)
		if move == "" || move == "(none)" {
			return "", source.ErrNotApplicable
		}
		return move, nil
	}
}

func (c *Client) ensureConn(ctx context.Context) (*websocket.Conn, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, ErrClosed
	}
	if c.conn != nil {
		return c.conn, nil
	}

	dialCtx, cancel := context.WithTimeout(ctx, c.dialTimeout)
	defer cancel()
	conn, _, err := websocket.Dial(dialCtx, c.url, &websocket.DialOptions{
		CompressionMode: websocket.CompressionNoContextTakeover,
		HTTPHeader:      c.buildHeaders(),
	})
	if err != nil {
		return nil, fmt.Errorf("wsengine dial %s: %w", c.url, err)
	}
	c.conn = conn
	c.logger.Info("wsengine_connected", zap.String("url", c.url))

	c.wg.Add(1)
	go c.listen(conn)
	if c.pingInterval > 0 {
		c.wg.Add(1)
		go c.pingLoop(conn)
	}
	return conn, nil
}

func (c *Client) listen(conn *websocket.Conn) {
	defer c.wg.Done()
	for {
		var r reply
		if err := wsjson.Read(c.rootCtx, conn, &r); err != nil {
			c.drop(conn, err)
			return
		}
		if !c.deliver(r) {
			c.logger.Debug("wsengine_orphan_reply", zap.Uint64("id", r.ID))
		}
	}
}

// deliver hands r to its waiter. It holds c.mu for the send so drop cannot
// close the channel underneath it.
func (c *Client) deliver(r reply) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	ch, ok := c.pending[r.ID]
	if !ok {
		return false
	}
	select {
	case ch <- r:
	default:
	}
	return true
}

func (c *Client) pingLoop(conn *websocket.Conn) {
	defer c.wg.Done()
	t := time.NewTicker(c.pingInterval)
	defer t.Stop()
	failures := 0
	for {
		select {
		case <-c.rootCtx.Done():
			return
		case <-t.C:
			if !c.isCurrent(conn) {
				return
			}
			ctx, cancel := context.WithTimeout(c.rootCtx, 3*time.Second)
			err := conn.Ping(ctx)
			cancel()
			if err == nil {
				failures = 0
				continue
			}
			failures++
			if failures >= 2 {
				c.drop(conn, err)
				return
			}
		}
	}
}

func (c *Client) register() (uint64, chan reply) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextID++
	ch := make(chan reply, 1)
	c.pending[c.nextID] = ch
	return c.nextID, ch
}

func (c *Client) unregister(id uint64) {
	c.mu.Lock()
	delete(c.pending, id)
	c.mu.Unlock()
}

func (c *Client) isCurrent(conn *websocket.Conn) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn == conn
}

// drop forgets conn and fails every in-flight request. Safe to call more
// than once for the same connection.
func (c *Client) drop(conn *websocket.Conn, cause error) {
	c.mu.Lock()
	if c.conn != conn {
		c.mu.Unlock()
		return
	}
	c.conn = nil
	for _, ch := range c.pending {
		close(ch)
	}
	c.pending = make(map[uint64]chan reply)
	closed := c.closed
	c.mu.Unlock()

	_ = conn.Close(websocket.StatusGoingAway, "reconnect")
	if !closed {
		c.logger.Warn("wsengine_disconnected", zap.String("url", c.url), zap.Error(cause))
	}
}

func (c *Client) Close(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	conn := c.conn
	c.mu.Unlock()

	if conn != nil {
		_ = conn.Close(websocket.StatusNormalClosure, "close")
	}
	c.rootCancel()

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

func (c *Client) buildHeaders() http.Header {
	hdr := http.Header{}
	if c.headers == nil {
		return hdr
	}
	for k, v := range c.headers() {
		if strings.TrimSpace(k) == "" || strings.TrimSpace(v) == "" {
			continue
		}
		hdr.Set(k, v)
	}
	return hdr
}
