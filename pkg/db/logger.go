package db

import (
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm/logger"
)

// LogLevelVar selects gorm's SQL logging; "debug" logs every statement.
const LogLevelVar = "PGCONF_LOG_LEVEL"

// LogLevelFromEnv defaults to silent logging unless PGCONF_LOG_LEVEL=debug.
func LogLevelFromEnv() logger.LogLevel {
	if strings.EqualFold(os.Getenv(LogLevelVar), "debug") {
		return logger.Info
	}
	return logger.Silent
}

type zapWriter struct {
	sugar *zap.SugaredLogger
}

func (w zapWriter) Printf(format string, args ...interface{}) {
	w.sugar.Infof(format, args...)
}

// NewGormLogger routes gorm's log output through log.
func NewGormLogger(log *zap.Logger, level logger.LogLevel) logger.Interface {
	return logger.New(
		zapWriter{sugar: log.WithOptions(zap.AddCallerSkip(1)).Sugar()},
		logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
}
