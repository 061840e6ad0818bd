package chessbuilder

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	corechess "github.com/park285/cheese-chess/internal/chess"
	"github.com/park285/cheese-chess/internal/chess/cloudeval"
	"github.com/park285/cheese-chess/internal/chess/openingbook"
	"github.com/park285/cheese-chess/internal/chess/source"
	"github.com/park285/cheese-chess/internal/chess/uci"
	"github.com/park285/cheese-chess/internal/chess/wsengine"
	"github.com/park285/cheese-chess/internal/config"
	"github.com/park285/cheese-chess/internal/store"
)

// Deps is everything a front end needs. Without REDIS_URL saves are kept in
// memory; Archive is nil without DATABASE_URL.
type Deps struct {
	Engine  *corechess.Engine
	Store   store.Saves
	Archive *store.Archive

	redis *redis.Client
	pool  *uci.Pool
	ws    *wsengine.Client
}

func New(ctx context.Context, cfg *config.AppConfig, logger *zap.Logger) (*Deps, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &Deps{}

	for name, o := range cfg.Presets {
		if err := corechess.ApplyPresetOverride(name, o); err != nil {
			return nil, fmt.Errorf("preset override: %w", err)
		}
	}

	book, err := buildBook(cfg)
	if err != nil {
		return nil, err
	}
	opts := []corechess.Option{
		corechess.WithBook(book),
		corechess.WithLogger(logger.Named("engine")),
	}

	poly, err := loadPolyglot(cfg)
	if err != nil {
		return nil, err
	}
	if poly != nil {
		opts = append(opts, corechess.WithPolyglot(poly))
	}

	sources, err := d.buildSources(cfg, logger)
	if err != nil {
		d.Close(ctx)
		return nil, err
	}
	opts = append(opts, corechess.WithSources(sources...))
	d.Engine = corechess.NewEngine(opts...)
	logger.Info("engine_ready",
		zap.Int("book_lines", book.Len()),
		zap.Bool("polyglot", poly != nil),
		zap.Int("sources", len(sources)))

	if strings.TrimSpace(cfg.RedisURL) != "" {
		ropts, perr := parseRedisURL(cfg.RedisURL)
		if perr != nil {
			d.Close(ctx)
			return nil, fmt.Errorf("parse redis url: %w", perr)
		}
		d.redis = redis.NewClient(ropts)
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		err := d.redis.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			d.Close(ctx)
			return nil, fmt.Errorf("ping redis: %w", err)
		}
		d.Store = store.NewStore(d.redis, time.Duration(cfg.SaveTTLSec)*time.Second)
	} else {
		logger.Info("save_store_memory")
		d.Store = store.NewMemoryStore()
	}

	if strings.TrimSpace(cfg.DatabaseURL) != "" {
		d.Archive, err = store.NewArchive(cfg.DatabaseURL)
		if err != nil {
			d.Close(ctx)
			return nil, fmt.Errorf("open archive: %w", err)
		}
	}
	return d, nil
}

// Close releases engine processes and connections. Safe on a partial Deps.
func (d *Deps) Close(ctx context.Context) {
	if d == nil {
		return
	}
	if d.ws != nil {
		_ = d.ws.Close(ctx)
	}
	if d.pool != nil {
		_ = d.pool.Close()
	}
	if d.redis != nil {
		_ = d.redis.Close()
	}
	if d.Archive != nil {
		_ = d.Archive.Close()
	}
}

func buildBook(cfg *config.AppConfig) (*openingbook.Book, error) {
	book, err := openingbook.Default()
	if err != nil {
		return nil, fmt.Errorf("default opening book: %w", err)
	}
	var extra []openingbook.Line
	if cfg.BookFile != "" {
		lines, err := openingbook.LoadFile(cfg.BookFile)
		if err != nil {
			return nil, err
		}
		extra = append(extra, lines...)
	}
	extra = append(extra, cfg.BookLines...)
	if len(extra) == 0 {
		return book, nil
	}
	return book.Merge(extra)
}

func loadPolyglot(cfg *config.AppConfig) (*openingbook.Polyglot, error) {
	path := cfg.PolyglotBookPath
	if path == "" {
		p, err := openingbook.ResolveBookPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	if path == "" {
		return nil, nil
	}
	return openingbook.LoadPolyglot(path)
}

// buildSources orders remote sources from the most to the least controllable:
// a local UCI engine, then the websocket engine, then the cloud cache.
func (d *Deps) buildSources(cfg *config.AppConfig, logger *zap.Logger) ([]source.MoveSource, error) {
	var out []source.MoveSource

	if path := strings.TrimSpace(cfg.StockfishPath); path != "" {
		pool, err := uci.NewPool(uci.PoolConfig{BinaryPath: path, Logger: logger.Named("uci")})
		if err != nil {
			return nil, fmt.Errorf("init uci pool: %w", err)
		}
		d.pool = pool
		out = append(out, uci.NewSource(pool,
			uci.Options{Threads: cfg.UCIThreads, HashMB: cfg.UCIHashMB, MultiPV: 1},
			uci.Limits{MoveTimeMillis: cfg.UCIMoveTimeMillis},
			logger.Named("uci")))
	}

	if u := strings.TrimSpace(cfg.WSEngineURL); u != "" {
		token := cfg.WSEngineToken
		d.ws = wsengine.New(u,
			wsengine.WithLogger(logger.Named("ws-engine")),
			wsengine.WithRequestTimeout(time.Duration(cfg.SourceTimeoutMs)*time.Millisecond),
			wsengine.WithHeaderProvider(func() map[string]string {
				if token == "" {
					return nil
				}
				return map[string]string{"Authorization": "Bearer " + token}
			}))
		out = append(out, d.ws)
	}

	if u := strings.TrimSpace(cfg.CloudEvalURL); u != "" {
		out = append(out, cloudeval.NewClient(u,
			cloudeval.WithTimeout(time.Duration(cfg.CloudEvalTimeoutMs)*time.Millisecond),
			cloudeval.WithLogger(logger.Named("cloud-eval"))))
	}
	return out, nil
}

func parseRedisURL(raw string) (*redis.Options, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "redis" && u.Scheme != "rediss" {
		return nil, fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}
	host := u.Hostname()
	if host == "" {
		return nil, errors.New("redis url has no host")
	}
	portStr := u.Port()
	if portStr == "" {
		portStr = "6379"
	}
	if _, err := strconv.Atoi(portStr); err != nil {
		return nil, err
	}
	db := 0
	if p := strings.TrimPrefix(u.Path, "/"); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("redis db %q: %w", p, err)
		}
		db = n
	}
	pass, _ := u.User.Password()
	opts := &redis.Options{
		Addr:     net.JoinHostPort(host, portStr),
		Username: u.User.Username(),
		Password: pass,
		DB:       db,
	}
	if u.Scheme == "rediss" {
		opts.TLSConfig = &tls.Config{ServerName: host, MinVersion: tls.VersionTLS12}
	}
	return opts, nil
}
