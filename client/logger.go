package client

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger 日志接口
//
// args 为交替出现的 key/value，与 zap SugaredLogger 的 *w 方法一致。
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
}

// NopLogger 丢弃所有日志
var NopLogger Logger = nopLogger{}

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

// zapLogger zap 适配器
type zapLogger struct {
	sugar *zap.SugaredLogger
}

// NewZapLogger 以 zap.Logger 实现 Logger
func NewZapLogger(l *zap.Logger) Logger {
	if l == nil {
		l = zap.NewNop()
	}
	return &zapLogger{sugar: l.Sugar()}
}

func (z *zapLogger) Debug(msg string, args ...interface{}) { z.sugar.Debugw(msg, args...) }
func (z *zapLogger) Info(msg string, args ...interface{})  { z.sugar.Infow(msg, args...) }
func (z *zapLogger) Warn(msg string, args ...interface{})  { z.sugar.Warnw(msg, args...) }
func (z *zapLogger) Error(msg string, args ...interface{}) { z.sugar.Errorw(msg, args...) }

// LoggerConfig 日志配置
type LoggerConfig struct {
	Level      string
	EnableJSON bool
}

// NewLogger 按配置构建 zap 日志器
//
// EnableJSON 时使用生产配置（JSON 结构化输出），否则为控制台格式。
func NewLogger(cfg LoggerConfig) (Logger, error) {
	level := zapcore.InfoLevel
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = zapcore.DebugLevel
	case "warn", "warning":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	}

	var zapConfig zap.Config
	if cfg.EnableJSON {
		zapConfig = zap.NewProductionConfig()
		zapConfig.EncoderConfig.TimeKey = "timestamp"
		zapConfig.EncoderConfig.MessageKey = "message"
	} else {
		zapConfig = zap.NewDevelopmentConfig()
		zapConfig.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		zapConfig.EncoderConfig.EncodeCaller = zapcore.ShortCallerEncoder
	}
	zapConfig.Level = zap.NewAtomicLevelAt(level)
	zapConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zapConfig.InitialFields = map[string]interface{}{"sdk": "x84-client-sdk-go"}

	l, err := zapConfig.Build()
	if err != nil {
		return nil, err
	}
	return NewZapLogger(l), nil
}
