// Package metrics 封装基于 Prometheus 的定价指标采集。
// 所有 Observe* 方法对 nil 接收者安全，未启用指标时引擎直接传 nil。
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// 状态标签取值。
const (
	StatusOK          = "ok"
	StatusInvalid     = "invalid"
	StatusNoConverge  = "no_convergence"
	StatusCanceled    = "canceled"
	StatusUnknownFail = "error"
)

// Metrics 持有独立的 Prometheus 注册中心及预定义的定价指标。
type Metrics struct {
	registry *prometheus.Registry

	PricingRequests    *prometheus.CounterVec   // 定价调用次数 (维度: model, status)
	PricingDuration    *prometheus.HistogramVec // 定价耗时分布 (维度: model)
	ImpliedVolSteps    *prometheus.HistogramVec // 隐含波动率迭代步数 (维度: method)
	ImpliedVolFailures *prometheus.CounterVec   // 隐含波动率未收敛次数 (维度: method)
	ChainLegs          *prometheus.CounterVec   // 期权链定价的腿数 (维度: status)
	BuildInfo          *prometheus.GaugeVec
}

// NewMetrics 初始化并返回一个新的指标采集器，namespace 为空时使用 "optionpricing"。
// 它会自动注册 Go 运行时指标和进程指标。
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "optionpricing"
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{registry: reg}

	m.PricingRequests = m.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "pricing_requests_total",
		Help:      "Total number of pricing calls",
	}, []string{"model", "status"})

	m.PricingDuration = m.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "pricing_duration_seconds",
		Help:      "Pricing latency in seconds",
		Buckets:   prometheus.ExponentialBuckets(1e-6, 4, 10),
	}, []string{"model"})

	m.ImpliedVolSteps = m.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "implied_vol_iterations",
		Help:      "Iterations spent by the implied volatility solver",
		Buckets:   []float64{1, 2, 3, 5, 8, 13, 21, 34, 55, 100},
	}, []string{"method"})

	m.ImpliedVolFailures = m.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "implied_vol_failures_total",
		Help:      "Implied volatility solves that did not converge",
	}, []string{"method"})

	m.ChainLegs = m.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "chain_legs_total",
		Help:      "Option chain legs priced",
	}, []string{"status"})

	return m
}

// NewCounterVec 创建并注册一个新的计数器指标。
func (m *Metrics) NewCounterVec(opts prometheus.CounterOpts, labelNames []string) *prometheus.CounterVec {
	cv := prometheus.NewCounterVec(opts, labelNames)
	m.registry.MustRegister(cv)
	return cv
}

// NewGaugeVec 创建并注册一个新的仪表盘指标。
func (m *Metrics) NewGaugeVec(opts prometheus.GaugeOpts, labelNames []string) *prometheus.GaugeVec {
	gv := prometheus.NewGaugeVec(opts, labelNames)
	m.registry.MustRegister(gv)
	return gv
}

// NewHistogramVec 创建并注册一个新的直方图指标。
func (m *Metrics) NewHistogramVec(opts prometheus.HistogramOpts, labelNames []string) *prometheus.HistogramVec {
	hv := prometheus.NewHistogramVec(opts, labelNames)
	m.registry.MustRegister(hv)
	return hv
}

// Handler 返回用于暴露指标的 HTTP 处理器，由调用方挂载到自己的服务上。
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObservePricing 记录一次定价调用。
func (m *Metrics) ObservePricing(model, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.PricingRequests.WithLabelValues(model, status).Inc()
	m.PricingDuration.WithLabelValues(model).Observe(elapsed.Seconds())
}

// ObserveImpliedVol 记录一次隐含波动率求解。
func (m *Metrics) ObserveImpliedVol(method string, iterations int, converged bool) {
	if m == nil {
		return
	}
	m.ImpliedVolSteps.WithLabelValues(method).Observe(float64(iterations))
	if !converged {
		m.ImpliedVolFailures.WithLabelValues(method).Inc()
	}
}

// ObserveChainLeg 记录期权链中单个腿的结果。
func (m *Metrics) ObserveChainLeg(status string) {
	if m == nil {
		return
	}
	m.ChainLegs.WithLabelValues(status).Inc()
}
