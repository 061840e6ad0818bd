package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/park285/cheese-chess/internal/chess"
	"github.com/park285/cheese-chess/internal/chess/openingbook"
)

type AppConfig struct {
	ConfigFile string

	DefaultLevel int
	PlayerColor  string

	RedisURL       string
	DatabaseURL    string
	SaveTTLSec     int
	SaveListLimit  int
	RenderSquarePx int

	StockfishPath     string
	UCIThreads        int
	UCIHashMB         int
	UCIMoveTimeMillis int

	CloudEvalURL       string
	CloudEvalTimeoutMs int
	WSEngineURL        string
	WSEngineToken      string
	SourceTimeoutMs    int

	PolyglotBookPath string
	BookFile         string

	// File only.
	BookLines []openingbook.Line
	Presets   map[string]chess.PresetOverride
}

// fileConfig mirrors the YAML layout. Zero values mean "not set".
type fileConfig struct {
	DefaultLevel *int   `yaml:"default_level"`
	PlayerColor  string `yaml:"player_color"`

	Redis struct {
		URL    string `yaml:"url"`
		TTLSec int    `yaml:"ttl_sec"`
	} `yaml:"redis"`
	DatabaseURL string `yaml:"database_url"`

	UCI struct {
		Path       string `yaml:"path"`
		Threads    int    `yaml:"threads"`
		HashMB     int    `yaml:"hash_mb"`
		MoveTimeMs int    `yaml:"move_time_ms"`
	} `yaml:"uci"`

	CloudEval struct {
		URL       string `yaml:"url"`
		TimeoutMs int    `yaml:"timeout_ms"`
	} `yaml:"cloud_eval"`

	WSEngine struct {
		URL   string `yaml:"url"`
		Token string `yaml:"token"`
	} `yaml:"ws_engine"`

	SourceTimeoutMs int `yaml:"source_timeout_ms"`

	Book struct {
		Polyglot string             `yaml:"polyglot"`
		File     string             `yaml:"file"`
		Lines    []openingbook.Line `yaml:"lines"`
	} `yaml:"book"`

	Presets map[string]chess.PresetOverride `yaml:"presets"`
}

// Load builds the config from defaults, then the YAML file named by
// CHESS_CONFIG_FILE, then the environment. Env wins.
func Load() (*AppConfig, error) {
	cfg := &AppConfig{
		DefaultLevel:       10,
		PlayerColor:        "white",
		SaveListLimit:      20,
		RenderSquarePx:     64,
		UCIThreads:         1,
		UCIHashMB:          16,
		UCIMoveTimeMillis:  200,
		CloudEvalTimeoutMs: 3000,
		SourceTimeoutMs:    5000,
	}

	cfg.ConfigFile = strings.TrimSpace(os.Getenv("CHESS_CONFIG_FILE"))
	if cfg.ConfigFile != "" {
		if err := cfg.applyFile(cfg.ConfigFile); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *AppConfig) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	var f fileConfig
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("decode config file %s: %w", path, err)
	}

	if f.DefaultLevel != nil {
		c.DefaultLevel = *f.DefaultLevel
	}
	setString(&c.PlayerColor, f.PlayerColor)
	setString(&c.RedisURL, f.Redis.URL)
	setInt(&c.SaveTTLSec, f.Redis.TTLSec)
	setString(&c.DatabaseURL, f.DatabaseURL)
	setString(&c.StockfishPath, f.UCI.Path)
	setInt(&c.UCIThreads, f.UCI.Threads)
	setInt(&c.UCIHashMB, f.UCI.HashMB)
	setInt(&c.UCIMoveTimeMillis, f.UCI.MoveTimeMs)
	setString(&c.CloudEvalURL, f.CloudEval.URL)
	setInt(&c.CloudEvalTimeoutMs, f.CloudEval.TimeoutMs)
	setString(&c.WSEngineURL, f.WSEngine.URL)
	setString(&c.WSEngineToken, f.WSEngine.Token)
	setInt(&c.SourceTimeoutMs, f.SourceTimeoutMs)
	setString(&c.PolyglotBookPath, f.Book.Polyglot)
	setString(&c.BookFile, f.Book.File)
	c.BookLines = append(c.BookLines, f.Book.Lines...)
	if len(f.Presets) > 0 {
		c.Presets = f.Presets
	}
	return nil
}

func (c *AppConfig) applyEnv() {
	if v := strings.TrimSpace(os.Getenv("CHESS_DEFAULT_LEVEL")); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.DefaultLevel = n
		}
	}
	setString(&c.PlayerColor, os.Getenv("CHESS_PLAYER_COLOR"))

	setString(&c.RedisURL, os.Getenv("REDIS_URL"))
	setString(&c.DatabaseURL, os.Getenv("DATABASE_URL"))
	setPositiveInt(&c.SaveTTLSec, "CHESS_SAVE_TTL")
	setPositiveInt(&c.SaveListLimit, "CHESS_SAVE_LIST_LIMIT")
	setPositiveInt(&c.RenderSquarePx, "CHESS_RENDER_SQUARE")

	setString(&c.StockfishPath, os.Getenv("STOCKFISH_PATH"))
	setPositiveInt(&c.UCIThreads, "CHESS_UCI_THREADS")
	setPositiveInt(&c.UCIHashMB, "CHESS_UCI_HASH_MB")
	setPositiveInt(&c.UCIMoveTimeMillis, "CHESS_UCI_MOVE_TIME_MS")

	setString(&c.CloudEvalURL, os.Getenv("CHESS_CLOUD_EVAL_URL"))
	setPositiveInt(&c.CloudEvalTimeoutMs, "CHESS_CLOUD_EVAL_TIMEOUT_MS")
	setString(&c.WSEngineURL, os.Getenv("CHESS_WS_ENGINE_URL"))
	setString(&c.WSEngineToken, os.Getenv("CHESS_WS_ENGINE_TOKEN"))
	setPositiveInt(&c.SourceTimeoutMs, "CHESS_SOURCE_TIMEOUT_MS")

	setString(&c.PolyglotBookPath, os.Getenv("CHESS_POLYGLOT_BOOK_PATH"))
	setString(&c.BookFile, os.Getenv("CHESS_BOOK_FILE"))
}

func (c *AppConfig) Validate() error {
	if c.DefaultLevel < 0 || c.DefaultLevel > 20 {
		return fmt.Errorf("default level %d out of range 0-20", c.DefaultLevel)
	}
	switch strings.ToLower(c.PlayerColor) {
	case "white", "black":
		c.PlayerColor = strings.ToLower(c.PlayerColor)
	default:
		return fmt.Errorf("player color must be white or black: %q", c.PlayerColor)
	}
	if c.WSEngineToken != "" && c.WSEngineURL == "" {
		return errors.New("CHESS_WS_ENGINE_TOKEN set without CHESS_WS_ENGINE_URL")
	}
	for name := range c.Presets {
		if _, err := chess.GetPreset(name); err != nil {
			return fmt.Errorf("config presets: %w", err)
		}
	}
	return nil
}

func setString(dst *string, v string) {
	if s := strings.TrimSpace(v); s != "" {
		*dst = s
	}
}

func setInt(dst *int, v int) {
	if v > 0 {
		*dst = v
	}
}

func setPositiveInt(dst *int, env string) {
	if v := strings.TrimSpace(os.Getenv(env)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			*dst = n
		}
	}
}
