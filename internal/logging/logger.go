package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"lendshare/internal/config"

	"github.com/rs/zerolog"
)

// New builds the logger for one component. Level, format and output come
// from config; blank or unknown levels fall back to info.
func New(cfg config.LoggingConfig, app config.AppConfig, component string) (*zerolog.Logger, io.Closer, error) {
	output, closer, err := openOutput(cfg)
	if err != nil {
		return nil, nil, err
	}
	if strings.EqualFold(strings.TrimSpace(cfg.Format), "console") {
		output = zerolog.ConsoleWriter{Out: output, TimeFormat: time.RFC3339}
	}

	level := zerolog.InfoLevel
	if raw := strings.ToLower(strings.TrimSpace(cfg.Level)); raw != "" {
		if parsed, err := zerolog.ParseLevel(raw); err == nil && parsed != zerolog.NoLevel {
			level = parsed
		}
	}

	zerolog.TimeFieldFormat = time.RFC3339Nano
	logger := zerolog.New(output).
		Level(level).
		With().
		Timestamp().
		Str("app", app.Name).
		Str("env", app.Environment).
		Str("version", app.Version).
		Str("component", component).
		Logger()

	return &logger, closer, nil
}

func openOutput(cfg config.LoggingConfig) (io.Writer, io.Closer, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Output)) {
	case "stderr":
		return os.Stderr, nil, nil
	case "file":
		if cfg.FilePath == "" {
			return nil, nil, fmt.Errorf("logging.output=file requires logging.file_path")
		}
		file, err := os.OpenFile(cfg.FilePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		return file, file, nil
	default:
		return os.Stdout, nil, nil
	}
}
