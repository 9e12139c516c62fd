package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config 日誌設定
type Config struct {
	// Level: "debug", "info", "warn", "error", "silent"
	Level string `yaml:"level"`
	// Development: 開發模式輸出較易讀的格式
	Development bool `yaml:"development"`
}

// New 根據設定建立 zap Logger
//
// 參數:
//
//	cfg: 日誌設定
//
// 回傳:
//
//	*zap.Logger: Logger 實例 (silent 時為 Nop)
//	error: 建立失敗
func New(cfg Config) (*zap.Logger, error) {
	if cfg.Level == "silent" {
		return zap.NewNop(), nil
	}

	var zcfg zap.Config
	if cfg.Development {
		zcfg = zap.NewDevelopmentConfig()
	} else {
		zcfg = zap.NewProductionConfig()
		zcfg.EncoderConfig.TimeKey = "time"
		zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}
	zcfg.Level = zap.NewAtomicLevelAt(ParseLevel(cfg.Level))
	zcfg.DisableStacktrace = true

	l, err := zcfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return l, nil
}

// ParseLevel 字串轉為 zap 等級，無法辨識時預設 info
func ParseLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
