// Package logging 提供统一的结构化日志（slog）封装，支持 OpenTelemetry 追踪上下文注入和文件切割。
// 定价引擎不持有全局 Logger，调用方通过 NewFromConfig 构造后注入。
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"go.opentelemetry.io/otel/trace"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config 定义日志配置
type Config struct {
	Service    string
	Module     string
	Level      string
	File       string // 日志文件路径，为空则只输出到 stdout
	MaxSize    int    // 每个日志文件最大尺寸 (MB)
	MaxBackups int    // 保留旧日志文件的最大个数
	MaxAge     int    // 保留旧日志文件的最大天数
	Compress   bool   // 是否压缩旧日志
	Stdout     bool   // 配置了 File 时是否同时输出到 stdout

	// Writer 非空时替代 stdout，主要用于测试捕获输出。
	Writer io.Writer
}

// Logger 封装原生 *slog.Logger，并携带服务名和模块名。
type Logger struct {
	*slog.Logger
	Service string
	Module  string

	closer io.Closer
}

// TraceHandler 是一个 slog.Handler 装饰器，从 context.Context 中提取 trace_id 和 span_id 注入日志记录。
type TraceHandler struct {
	slog.Handler
}

// Handle 实现 slog.Handler 接口。
func (h *TraceHandler) Handle(ctx context.Context, r slog.Record) error {
	spanCtx := trace.SpanContextFromContext(ctx)
	if spanCtx.IsValid() {
		r.AddAttrs(
			slog.String("trace_id", spanCtx.TraceID().String()),
			slog.String("span_id", spanCtx.SpanID().String()),
		)
	}
	return h.Handler.Handle(ctx, r)
}

// WithAttrs 保证派生 Handler 仍然带有追踪注入能力。
func (h *TraceHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &TraceHandler{Handler: h.Handler.WithAttrs(attrs)}
}

// WithGroup 同上。
func (h *TraceHandler) WithGroup(name string) slog.Handler {
	return &TraceHandler{Handler: h.Handler.WithGroup(name)}
}

// ParseLevel 将配置中的级别字符串转换为 slog.Level，未知值按 info 处理。
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewFromConfig 创建一个新的 Logger 实例。
// 配置了 File 时使用 lumberjack 进行日志切割，Stdout 为 true 时同时写入标准输出。
func NewFromConfig(cfg Config) *Logger {
	opts := &slog.HandlerOptions{
		Level: ParseLevel(cfg.Level),
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				a.Key = "timestamp"
			}
			return a
		},
	}

	var console io.Writer = os.Stdout
	if cfg.Writer != nil {
		console = cfg.Writer
	}

	var (
		handler slog.Handler
		closer  io.Closer
	)
	if cfg.File != "" {
		fileWriter := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSize, // MB
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge, // days
			Compress:   cfg.Compress,
		}
		closer = fileWriter
		handler = slog.NewJSONHandler(fileWriter, opts)
		if cfg.Stdout {
			handler = newMultiHandler(handler, slog.NewJSONHandler(console, opts))
		}
	} else {
		handler = slog.NewJSONHandler(console, opts)
	}

	logger := slog.New(&TraceHandler{Handler: handler}).With(
		slog.String("service", cfg.Service),
		slog.String("module", cfg.Module),
	)

	return &Logger{
		Logger:  logger,
		Service: cfg.Service,
		Module:  cfg.Module,
		closer:  closer,
	}
}

// Discard 返回一个丢弃所有输出的 *slog.Logger，作为引擎的默认日志器。
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// Close 关闭底层的切割文件（如果有）。
func (l *Logger) Close() error {
	if l.closer == nil {
		return nil
	}
	return l.closer.Close()
}

// LogDuration 在 debug 级别记录操作耗时，返回的函数应在操作结束时调用。
func LogDuration(ctx context.Context, logger *slog.Logger, operation string, args ...any) func() {
	start := time.Now()
	return func() {
		logArgs := append(args[:len(args):len(args)], "duration", time.Since(start))
		logger.DebugContext(ctx, fmt.Sprintf("%s finished", operation), logArgs...)
	}
}
