package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/ogurasousui/codex-staffing/internal/platform/config"
)

// ServiceName はログの service フィールドに付与される名前です。
const ServiceName = "codex-staffing"

// New は設定に従って logrus.Logger を生成します。
// cfg.File が指定されている場合は lumberjack でローテーションされるファイルへ出力し、
// 返却される io.Closer でファイルを閉じます。
func New(cfg config.LogConfig) (*logrus.Logger, io.Closer, error) {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return nil, nil, fmt.Errorf("logging: parse level %q: %w", cfg.Level, err)
	}

	logger := logrus.New()
	logger.SetLevel(level)
	logger.SetFormatter(formatter(cfg.Format))

	if cfg.File == "" {
		logger.SetOutput(os.Stderr)
		return logger, nopCloser{}, nil
	}

	if err := os.MkdirAll(filepath.Dir(cfg.File), 0o750); err != nil {
		return nil, nil, fmt.Errorf("logging: create log directory: %w", err)
	}

	file := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   cfg.Compress,
	}
	logger.SetOutput(file)

	return logger, file, nil
}

// WithService はサービス名を付与したエントリを返します。
func WithService(logger logrus.FieldLogger) *logrus.Entry {
	return logger.WithField("service", ServiceName)
}

func formatter(format string) logrus.Formatter {
	if format == "json" {
		return &logrus.JSONFormatter{TimestampFormat: "2006-01-02T15:04:05.000Z07:00"}
	}
	return &logrus.TextFormatter{FullTimestamp: true}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
