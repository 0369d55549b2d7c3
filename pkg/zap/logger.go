package zap

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-kratos/kratos/v2/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

const consoleTimeLayout = "01-02 15:04:05.000"

// Mode 运行模式，Prod 下始终写文件
type Mode int32

const (
	Dev Mode = iota
	Prod
)

// ParseMode 未知值按 Dev 处理
func ParseMode(s string) Mode {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "prod", "production", "1":
		return Prod
	default:
		return Dev
	}
}

// Config 日志配置，零值字段取默认
type Config struct {
	Mode  Mode
	Level string
	App   string
	Dir   string
	File  bool
	// JSON 文件日志使用 JSON 编码，便于采集
	JSON bool

	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

func (c *Config) normalize() {
	if c.App == "" {
		c.App = "wheel"
	}
	if c.Level == "" {
		c.Level = "info"
	}
	if c.MaxSizeMB <= 0 {
		c.MaxSizeMB = 100
	}
	if c.MaxBackups <= 0 {
		c.MaxBackups = 7
	}
	if c.MaxAgeDays <= 0 {
		c.MaxAgeDays = 10
	}
}

func (c *Config) writeFiles() bool {
	return c.File || c.Mode == Prod
}

// Logger 把 kratos 的 keyvals 转成 zap 字段
type Logger struct {
	zl *zap.Logger
}

var _ log.Logger = (*Logger)(nil)

// NewLogger 包装已有的 zap.Logger
func NewLogger(zl *zap.Logger) *Logger {
	return &Logger{zl: zl}
}

// NewLoggerWithConfig 按配置创建
func NewLoggerWithConfig(cfg *Config) *Logger {
	return NewLogger(NewZapLogger(cfg))
}

func (l *Logger) Log(level log.Level, keyvals ...interface{}) error {
	if len(keyvals) == 0 {
		return nil
	}
	ce := l.zl.Check(zapLevel(level), "")
	if ce == nil {
		return nil
	}
	msg, fields := splitKeyvals(keyvals)
	ce.Message = msg
	ce.Write(fields...)
	return nil
}

func (l *Logger) Sync() error {
	return l.zl.Sync()
}

func zapLevel(level log.Level) zapcore.Level {
	switch level {
	case log.LevelDebug:
		return zapcore.DebugLevel
	case log.LevelWarn:
		return zapcore.WarnLevel
	case log.LevelError:
		return zapcore.ErrorLevel
	case log.LevelFatal:
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

// splitKeyvals 取出 msg，其余成对转为字段；奇数个时补占位值
func splitKeyvals(keyvals []interface{}) (string, []zap.Field) {
	if len(keyvals)%2 != 0 {
		keyvals = append(keyvals, "!MISSING-VALUE")
	}
	msg := ""
	fields := make([]zap.Field, 0, len(keyvals)/2)
	for i := 0; i < len(keyvals); i += 2 {
		key, ok := keyvals[i].(string)
		if !ok {
			key = fmt.Sprint(keyvals[i])
		}
		if key == log.DefaultMessageKey {
			msg = fmt.Sprint(keyvals[i+1])
			continue
		}
		fields = append(fields, zap.Any(key, keyvals[i+1]))
	}
	if msg == "" {
		msg = "-"
	}
	return msg, fields
}

// NewZapLogger 控制台彩色输出；写文件时另有 <app>.log 与 <app>_error.log，由 lumberjack 切割
func NewZapLogger(cfg *Config) *zap.Logger {
	c := Config{Mode: Dev, Level: "debug"}
	if cfg != nil {
		c = *cfg
	}
	c.normalize()

	lv := zap.NewAtomicLevel()
	if err := lv.UnmarshalText([]byte(c.Level)); err != nil {
		lv.SetLevel(zapcore.DebugLevel)
		fmt.Fprintf(os.Stderr, "logger: bad level %q, using debug\n", c.Level)
	}

	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(consoleEncoderConfig()), zapcore.Lock(os.Stdout), lv),
	}
	if c.writeFiles() {
		base := filepath.Join(c.Dir, c.App)
		cores = append(cores,
			c.rollingCore(base+".log", lv),
			c.rollingCore(base+"_error.log", zapcore.ErrorLevel),
		)
	}
	// Helper -> Logger.Log -> zap
	return zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddCallerSkip(2))
}

func (c *Config) rollingCore(file string, enab zapcore.LevelEnabler) zapcore.Core {
	w := zapcore.AddSync(&lumberjack.Logger{
		Filename:   file,
		MaxSize:    c.MaxSizeMB,
		MaxBackups: c.MaxBackups,
		MaxAge:     c.MaxAgeDays,
		LocalTime:  true,
		Compress:   true,
	})
	ec := zap.NewProductionEncoderConfig()
	ec.EncodeTime = zapcore.ISO8601TimeEncoder
	ec.EncodeCaller = zapcore.ShortCallerEncoder
	if c.JSON {
		return zapcore.NewCore(zapcore.NewJSONEncoder(ec), w, enab)
	}
	ec.EncodeLevel = zapcore.CapitalLevelEncoder
	ec.ConsoleSeparator = " "
	return zapcore.NewCore(zapcore.NewConsoleEncoder(ec), w, enab)
}

func consoleEncoderConfig() zapcore.EncoderConfig {
	ec := zap.NewDevelopmentEncoderConfig()
	ec.EncodeTime = zapcore.TimeEncoderOfLayout(consoleTimeLayout)
	ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
	ec.EncodeCaller = zapcore.ShortCallerEncoder
	ec.ConsoleSeparator = " "
	return ec
}
