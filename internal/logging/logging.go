// Package logging configures the process-wide zerolog logger used for
// diagnostic output. User-facing progress lines are still printed by the
// commands themselves; this logger only carries debug/trace detail and
// warnings, written to stderr.
package logging

import (
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/yourlabs/bigsudo/internal/branding"
)

// Environment variable suffixes read by Configure (prefixed with BIGSUDO_).
const (
	EnvLogLevel     = "LOG_LEVEL"
	EnvLogTimestamp = "LOG_TIMESTAMP"
	EnvLogNoColor   = "LOG_NOCOLOR"
)

// Config controls the console logger.
type Config struct {
	Level     zerolog.Level
	Timestamp bool
	NoColor   bool
}

var configureOnce sync.Once

// DefaultConfig logs warnings and above without timestamps.
func DefaultConfig() Config {
	return Config{Level: zerolog.WarnLevel}
}

// Configure installs the global logger once per process, applying
// BIGSUDO_LOG_* overrides on top of DefaultConfig. A verbose flag lowers
// the level to debug unless the environment says otherwise.
func Configure(w io.Writer, verbose bool) {
	configureOnce.Do(func() {
		cfg := DefaultConfig()
		if verbose {
			cfg.Level = zerolog.DebugLevel
		}
		applyEnvOverrides(&cfg)
		log.Logger = New(w, cfg)
		zerolog.SetGlobalLevel(cfg.Level)
	})
}

// New builds a console logger writing to w.
func New(w io.Writer, cfg Config) zerolog.Logger {
	if w == nil {
		w = os.Stderr
	}
	cw := zerolog.ConsoleWriter{
		Out:     w,
		NoColor: cfg.NoColor,
	}
	if cfg.Timestamp {
		cw.TimeFormat = time.TimeOnly
	} else {
		cw.PartsExclude = []string{zerolog.TimestampFieldName}
	}
	ctx := zerolog.New(cw).Level(cfg.Level).With()
	if cfg.Timestamp {
		ctx = ctx.Timestamp()
	}
	return ctx.Logger()
}

func applyEnvOverrides(cfg *Config) {
	if lvl, ok := parseLevel(os.Getenv(branding.EnvVar(EnvLogLevel))); ok {
		cfg.Level = lvl
	}
	if v, ok := parseBool(os.Getenv(branding.EnvVar(EnvLogTimestamp))); ok {
		cfg.Timestamp = v
	}
	if v, ok := parseBool(os.Getenv(branding.EnvVar(EnvLogNoColor))); ok {
		cfg.NoColor = v
	}
}

func parseLevel(raw string) (zerolog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return zerolog.WarnLevel, false
	case "trace":
		return zerolog.TraceLevel, true
	case "debug":
		return zerolog.DebugLevel, true
	case "info":
		return zerolog.InfoLevel, true
	case "warn", "warning":
		return zerolog.WarnLevel, true
	case "error":
		return zerolog.ErrorLevel, true
	case "disabled", "off", "none":
		return zerolog.Disabled, true
	default:
		return zerolog.WarnLevel, false
	}
}

func parseBool(raw string) (bool, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}
