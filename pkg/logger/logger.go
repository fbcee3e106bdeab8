package logger

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu     sync.RWMutex
	global = zap.NewNop()
)

// Init собирает глобальный логгер: development-конфиг для локальной разработки,
// production (JSON) для всего остального.
func Init(isDev bool) error {
	var cfg zap.Config
	if isDev {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.TimeKey = "ts"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	l, err := cfg.Build()
	if err != nil {
		return err
	}

	mu.Lock()
	global = l
	mu.Unlock()
	return nil
}

func L() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return global
}

func Sync() {
	_ = L().Sync()
}
