package logging

import (
	"io"
	"os"
	"path/filepath"

	"github.com/natefinch/lumberjack"
	"github.com/rs/zerolog"

	"github.com/edvin/wppanel/internal/config"
)

// ServiceName is attached to every log line.
const ServiceName = "panel-api"

// NewLogger creates a structured zerolog.Logger. Output always goes to
// stdout; when cfg.LogDir is set it is also written to a rotated panel.log.
// The returned io.Closer releases the file sink and may be a no-op.
func NewLogger(cfg *config.Config) (zerolog.Logger, io.Closer) {
	var out io.Writer = os.Stdout
	var closer io.Closer = nopCloser{}

	if cfg.LogDir != "" {
		if err := os.MkdirAll(cfg.LogDir, 0o755); err == nil {
			fileSink := &lumberjack.Logger{
				Filename:   filepath.Join(cfg.LogDir, "panel.log"),
				MaxSize:    50, // MB
				MaxBackups: 7,
				MaxAge:     14, // days
				Compress:   true,
			}
			out = zerolog.MultiLevelWriter(os.Stdout, fileSink)
			closer = fileSink
		}
	}

	logger := zerolog.New(out).With().
		Timestamp().
		Str("service", ServiceName).
		Logger()

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || cfg.LogLevel == "" {
		level = zerolog.InfoLevel
	}

	return logger.Level(level), closer
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
