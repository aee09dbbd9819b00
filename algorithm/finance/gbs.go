// Package finance 实现期权定价引擎：广义 Black-Scholes (GBS) 欧式定价与希腊字母、
// Bjerksund-Stensland 美式近似、隐含波动率求解，以及按资产类别封装的定价入口。
package finance

import (
	"context"
	"log/slog"
	"math"

	algomath "github.com/wyfcoding/optionpricing/algorithm/math"
)

// Result 定价结果。Theta 为年化值，日 Theta 见 DailyTheta。
type Result struct {
	Value float64
	Delta float64
	Gamma float64
	Theta float64
	Vega  float64
	Rho   float64
}

// DailyTheta 按 365 天折算的日 Theta。
func (r Result) DailyTheta() float64 {
	return r.Theta / 365
}

// calc 携带单次调用的上下文与日志器，供各定价内核输出调试信息。
type calc struct {
	ctx context.Context
	log *slog.Logger
}

func (c calc) debug(msg string, args ...any) {
	if c.log.Enabled(c.ctx, slog.LevelDebug) {
		c.log.DebugContext(c.ctx, msg, args...)
	}
}

// gbs 广义 Black-Scholes 欧式期权定价。
// b = r 为股票，b = r - q 为连续股息，b = 0 为期货，b = r - rf 为外汇。
// 调用前输入必须已通过校验。
func (c calc) gbs(in Inputs) Result {
	fs, x, t, r, b, v := in.FS, in.X, in.T, in.R, in.B, in.V

	sqrtT := math.Sqrt(t)
	d1 := (math.Log(fs/x) + (b+v*v/2)*t) / (v * sqrtT)
	d2 := d1 - v*sqrtT

	carry := math.Exp((b - r) * t)
	disc := math.Exp(-r * t)
	pdf := algomath.NormPDF(d1)

	c.debug("gbs", "type", in.Type, "fs", fs, "x", x, "t", t, "r", r, "b", b, "v", v, "d1", d1, "d2", d2)

	var res Result
	if in.Type.IsCall() {
		nd1, nd2 := algomath.NormCDF(d1), algomath.NormCDF(d2)
		res.Value = fs*carry*nd1 - x*disc*nd2
		res.Delta = carry * nd1
		res.Theta = -(fs*v*carry*pdf)/(2*sqrtT) - (b-r)*fs*carry*nd1 - r*x*disc*nd2
		res.Rho = x * t * disc * nd2
	} else {
		nd1, nd2 := algomath.NormCDF(-d1), algomath.NormCDF(-d2)
		res.Value = x*disc*nd2 - fs*carry*nd1
		res.Delta = -carry * nd1
		res.Theta = -(fs*v*carry*pdf)/(2*sqrtT) + (b-r)*fs*carry*nd1 + r*x*disc*nd2
		res.Rho = -x * t * disc * nd2
	}
	res.Gamma = carry * pdf / (fs * v * sqrtT)
	res.Vega = carry * fs * sqrtT * pdf

	return res
}
