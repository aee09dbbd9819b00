package finance

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"runtime"
	"time"

	"github.com/wyfcoding/optionpricing/algorithm/types"
	"github.com/wyfcoding/optionpricing/config"
	"github.com/wyfcoding/optionpricing/logging"
	"github.com/wyfcoding/optionpricing/metrics"
	"github.com/wyfcoding/optionpricing/tracing"
	"go.opentelemetry.io/otel/trace"
)

const (
	// DefaultPrecision 隐含波动率求解的默认价格精度。
	DefaultPrecision = 1e-5
	// DefaultMaxSteps 隐含波动率求解的默认最大迭代次数。
	DefaultMaxSteps = 100
)

// Engine 定价引擎。构造后只读，可被任意多个 goroutine 并发使用。
type Engine struct {
	logger    *slog.Logger
	metrics   *metrics.Metrics
	tracer    trace.Tracer
	limits    Limits
	precision float64
	maxSteps  int
	workers   int

	closer io.Closer
}

// Option 定义配置选项。
type Option func(*Engine)

// WithLogger 设置调试日志输出，默认丢弃。
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithMetrics 设置指标采集器，nil 表示不采集。
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithTracerProvider 设置链路追踪 Provider，默认使用 otel 全局 Provider。
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(e *Engine) {
		e.tracer = tracing.Tracer(tp)
	}
}

// WithPrecision 设置隐含波动率求解精度，非正值被忽略。
func WithPrecision(p float64) Option {
	return func(e *Engine) {
		if p > 0 && !math.IsInf(p, 0) {
			e.precision = p
		}
	}
}

// WithMaxSteps 设置隐含波动率最大迭代次数，非正值被忽略。
func WithMaxSteps(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxSteps = n
		}
	}
}

// WithLimits 替换输入限值表。
func WithLimits(l Limits) Option {
	return func(e *Engine) {
		e.limits = l
	}
}

// WithWorkers 设置期权链并发定价的 worker 数，非正值表示 GOMAXPROCS。
func WithWorkers(n int) Option {
	return func(e *Engine) {
		e.workers = n
	}
}

// WithConfig 应用配置文件：log 段构造日志器，metrics 段开启指标采集，pricing / chain 段设置求解与并发参数。
// 日志写入文件时，引擎不再使用后应调用 Close。
func WithConfig(c config.Config) Option {
	return func(e *Engine) {
		logger := logging.NewFromConfig(c.Log.LoggingConfig("pricing-engine"))
		e.logger = logger.Logger
		e.closer = logger

		if c.Metrics.Enabled {
			m := metrics.NewMetrics(c.Metrics.Namespace)
			m.RegisterBuildInfo(c.Version)
			e.metrics = m
		}

		WithPrecision(c.Pricing.Precision)(e)
		WithMaxSteps(c.Pricing.MaxSteps)(e)
		WithWorkers(c.Chain.Workers)(e)
	}
}

// NewEngine 创建定价引擎。
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		logger:    logging.Discard(),
		tracer:    tracing.Tracer(nil),
		limits:    DefaultLimits(),
		precision: DefaultPrecision,
		maxSteps:  DefaultMaxSteps,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.workers <= 0 {
		e.workers = runtime.GOMAXPROCS(0)
	}
	return e
}

// defaultEngine 支撑包级函数，构造后不再修改。
var defaultEngine = NewEngine()

// Default 返回包级函数使用的默认引擎。
func Default() *Engine {
	return defaultEngine
}

// Limits 返回引擎使用的限值表。
func (e *Engine) Limits() Limits {
	return e.limits
}

// Metrics 返回指标采集器，未启用时为 nil。调用方可挂载其 Handler 暴露指标。
func (e *Engine) Metrics() *metrics.Metrics {
	return e.metrics
}

// Close 关闭 WithConfig 打开的日志文件。
func (e *Engine) Close() error {
	if e.closer == nil {
		return nil
	}
	return e.closer.Close()
}

func (e *Engine) calc(ctx context.Context) calc {
	return calc{ctx: ctx, log: e.logger}
}

func (e *Engine) solver(ctx context.Context) ivSolver {
	return ivSolver{calc: e.calc(ctx), limits: e.limits, precision: e.precision, maxSteps: e.maxSteps}
}

// Price 按行权方式定价。输入先通过限值校验。
func (e *Engine) Price(ctx context.Context, style types.ExerciseStyle, in Inputs) (Result, error) {
	return e.price(ctx, modelFor(style), style, in)
}

func (e *Engine) price(ctx context.Context, model string, style types.ExerciseStyle, in Inputs) (Result, error) {
	start := time.Now()

	if err := e.limits.Validate(in); err != nil {
		return e.reject(model, start, err)
	}

	c := e.calc(ctx)
	var res Result
	if style == types.American {
		res = c.american(in)
	} else {
		res = c.gbs(in)
	}

	e.metrics.ObservePricing(model, metrics.StatusOK, time.Since(start))
	return res, nil
}

// reject 记录一次校验失败的定价请求。
func (e *Engine) reject(model string, start time.Time, err error) (Result, error) {
	e.metrics.ObservePricing(model, metrics.StatusInvalid, time.Since(start))
	return Result{}, err
}

// ImpliedVol 由目标价格反解波动率：欧式使用 Newton-Raphson（失败退回 bisection），美式使用 bisection。
func (e *Engine) ImpliedVol(ctx context.Context, style types.ExerciseStyle, in Inputs, price float64) (float64, error) {
	return e.impliedVol(ctx, modelFor(style), style, in, price)
}

func (e *Engine) impliedVol(ctx context.Context, model string, style types.ExerciseStyle, in Inputs, price float64) (float64, error) {
	start := time.Now()

	if err := e.limits.validateCarry(in); err != nil {
		e.metrics.ObservePricing(model+"_iv", metrics.StatusInvalid, time.Since(start))
		return 0, err
	}
	if err := validatePrice(price); err != nil {
		e.metrics.ObservePricing(model+"_iv", metrics.StatusInvalid, time.Since(start))
		return 0, err
	}

	ctx, span := e.tracer.Start(ctx, "finance.ImpliedVol")
	defer span.End()
	tracing.AddTag(ctx, "model", model)
	tracing.AddTag(ctx, "option_type", in.Type)
	defer logging.LogDuration(ctx, e.logger, "implied volatility", "model", model)()

	s := e.solver(ctx)
	var (
		vol    float64
		steps  int
		err    error
		method string
	)
	if style == types.American {
		method = methodBisection
		vol, steps, err = s.bisection(in, price, func(in Inputs) float64 { return s.american(in).Value })
	} else {
		method = methodNewton
		vol, steps, err = s.newton(in, price)
	}

	e.metrics.ObserveImpliedVol(method, steps, err == nil)
	tracing.AddTag(ctx, "iterations", steps)

	if err != nil {
		tracing.SetError(ctx, err)
		e.metrics.ObservePricing(model+"_iv", metrics.StatusNoConverge, time.Since(start))
		e.logger.WarnContext(ctx, "implied volatility did not converge",
			"model", model, "method", method, "error", err)
		return 0, err
	}

	tracing.AddTag(ctx, "implied_vol", vol)
	e.metrics.ObservePricing(model+"_iv", metrics.StatusOK, time.Since(start))
	return vol, nil
}

// PriceEuropean GBS 欧式定价，b 由调用方给出。
func (e *Engine) PriceEuropean(kind types.OptionType, fs, x, t, r, b, v float64) (Result, error) {
	return e.price(context.Background(), modelEuropean, types.European, Inputs{Type: kind, FS: fs, X: x, T: t, R: r, B: b, V: v})
}

// PriceAmerican Bjerksund-Stensland 2002 美式定价，b 由调用方给出。
func (e *Engine) PriceAmerican(kind types.OptionType, fs, x, t, r, b, v float64) (Result, error) {
	return e.price(context.Background(), modelAmerican, types.American, Inputs{Type: kind, FS: fs, X: x, T: t, R: r, B: b, V: v})
}

// ImpliedVolEuropean 欧式隐含波动率。
func (e *Engine) ImpliedVolEuropean(kind types.OptionType, fs, x, t, r, b, price float64) (float64, error) {
	return e.impliedVol(context.Background(), modelEuropean, types.European, Inputs{Type: kind, FS: fs, X: x, T: t, R: r, B: b}, price)
}

// ImpliedVolAmerican 美式隐含波动率。
func (e *Engine) ImpliedVolAmerican(kind types.OptionType, fs, x, t, r, b, price float64) (float64, error) {
	return e.impliedVol(context.Background(), modelAmerican, types.American, Inputs{Type: kind, FS: fs, X: x, T: t, R: r, B: b}, price)
}

// CrossCheck 美式期权在 2002 与 1993 两个模型下的价值，用于诊断近似误差，不作为报价。
type CrossCheck struct {
	BS2002 float64
	BS1993 float64
}

// Spread 两个模型的价差。
func (c CrossCheck) Spread() float64 {
	return c.BS2002 - c.BS1993
}

// AmericanCrossCheck 同时计算两个美式模型的价值。
func (e *Engine) AmericanCrossCheck(kind types.OptionType, fs, x, t, r, b, v float64) (CrossCheck, error) {
	in := Inputs{Type: kind, FS: fs, X: x, T: t, R: r, B: b, V: v}
	if err := e.limits.Validate(in); err != nil {
		return CrossCheck{}, err
	}
	c := e.calc(context.Background())
	return CrossCheck{BS2002: c.american(in).Value, BS1993: c.american1993(in)}, nil
}

// IsConvergenceError 报告 err 是否为隐含波动率未收敛。
func IsConvergenceError(err error) bool {
	var ce *ConvergenceError
	return errors.As(err, &ce)
}

// IsValidationError 报告 err 是否为输入校验失败。
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
