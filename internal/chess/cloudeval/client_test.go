package cloudeval

import (
	"context"
	"errors"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"

	"github.com/park285/cheese-chess/internal/chess/source"
)

const startFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

func newTestClient(t *testing.T, handler fasthttp.RequestHandler, opts ...Option) *Client {
	t.Helper()
	ln := fasthttputil.NewInmemoryListener()
	go func() { _ = fasthttp.Serve(ln, handler) }()
	t.Cleanup(func() { _ = ln.Close() })

	opts = append([]Option{WithDialer(func(string) (net.Conn, error) { return ln.Dial() })}, opts...)
	return NewClient("http://cloud.test/", opts...)
}

func TestProposeMoveTakesFirstPVMove(t *testing.T) {
	var gotFEN, gotPath string
	c := newTestClient(t, func(ctx *fasthttp.RequestCtx) {
		gotPath = string(ctx.Path())
		gotFEN = string(ctx.QueryArgs().Peek("fen"))
		ctx.SetContentType("application/json")
		ctx.SetBodyString(`{"fen":"x","knodes":100,"depth":30,"pvs":[{"moves":"e2e4 e7e5 g1f3","cp":25}]}`)
	})

	move, err := c.ProposeMove(context.Background(), startFEN)
	if err != nil {
		t.Fatalf("ProposeMove: %v", err)
	}
	if move != "e2e4" {
		t.Fatalf("move = %q, want e2e4", move)
	}
	if gotPath != evalPath {
		t.Fatalf("path = %q", gotPath)
	}
	if gotFEN != startFEN {
		t.Fatalf("fen query = %q", gotFEN)
	}
}

func TestNotFoundIsNotApplicable(t *testing.T) {
	c := newTestClient(t, func(ctx *fasthttp.RequestCtx) {
		ctx.SetStatusCode(fasthttp.StatusNotFound)
	})
	if _, err := c.ProposeMove(context.Background(), startFEN); !errors.Is(err, source.ErrNotApplicable) {
		t.Fatalf("err = %v, want ErrNotApplicable", err)
	}
}

func TestEmptyPVsIsNotApplicable(t *testing.T) {
	c := newTestClient(t, func(ctx *fasthttp.RequestCtx) {
		ctx.SetBodyString(`{"fen":"x","pvs":[]}`)
	})
	if _, err := c.ProposeMove(context.Background(), startFEN); !errors.Is(err, source.ErrNotApplicable) {
		t.Fatalf("err = %v, want ErrNotApplicable", err)
	}
}

func TestRetriesServerErrors(t *testing.T) {
	var hits int32
	c := newTestClient(t, func(ctx *fasthttp.RequestCtx) {
		if atomic.AddInt32(&hits, 1) == 1 {
			ctx.SetStatusCode(fasthttp.StatusServiceUnavailable)
			return
		}
		ctx.SetBodyString(`{"pvs":[{"moves":"d2d4"}]}`)
	}, WithRetry(3))

	move, err := c.ProposeMove(context.Background(), startFEN)
	if err != nil {
		t.Fatalf("ProposeMove: %v", err)
	}
	if move != "d2d4" || atomic.LoadInt32(&hits) != 2 {
		t.Fatalf("move %q after %d hits", move, hits)
	}
}

func TestClientErrorIsNotRetried(t *testing.T) {
	var hits int32
	c := newTestClient(t, func(ctx *fasthttp.RequestCtx) {
		atomic.AddInt32(&hits, 1)
		ctx.SetStatusCode(fasthttp.StatusBadRequest)
		ctx.SetBodyString("bad fen")
	}, WithRetry(3))

	_, err := c.ProposeMove(context.Background(), startFEN)
	if err == nil || errors.Is(err, source.ErrNotApplicable) {
		t.Fatalf("err = %v, want a hard error", err)
	}
	if atomic.LoadInt32(&hits) != 1 {
		t.Fatalf("hits = %d, want 1", hits)
	}
}

func TestComputeDeadlinePrefersEarlierContext(t *testing.T) {
	c := NewClient("http://x", WithTimeout(time.Hour))
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	dl := c.computeDeadline(ctx)
	if time.Until(dl) > 2*time.Second {
		t.Fatalf("deadline %v ignores context", dl)
	}
}

func TestEmptyFEN(t *testing.T) {
	c := NewClient("http://x")
	if _, err := c.Evaluate(context.Background(), "  "); err == nil {
		t.Fatal("empty fen should fail")
	}
}
