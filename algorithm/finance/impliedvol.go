package finance

import (
	"math"
)

const (
	methodNewton    = "newton"
	methodBisection = "bisection"
)

// ivSolver 隐含波动率求解器，参数来自 Engine。
type ivSolver struct {
	calc
	limits    Limits
	precision float64
	maxSteps  int
}

// approxImpliedVol Brenner-Subrahmanyam / Feinstein 近似，作为两种迭代方法的初始值。
func approxImpliedVol(in Inputs, price float64) float64 {
	carry := math.Exp((in.B - in.R) * in.T)
	disc := math.Exp(-in.R * in.T)

	a := math.Sqrt(2*math.Pi) / (in.FS*carry + in.X*disc)

	var payoff float64
	if in.Type.IsCall() {
		payoff = in.FS*carry - in.X*disc
	} else {
		payoff = in.X*disc - in.FS*carry
	}

	b := price - payoff/2
	c := payoff * payoff / math.Pi

	return a * (b + math.Sqrt(b*b+c)) / math.Sqrt(in.T)
}

// newton 欧式隐含波动率：Newton-Raphson，失败时退回 bisection。
// 迭代值越界、出现 NaN 或误差不再下降时放弃 Newton。
func (s ivSolver) newton(in Inputs, price float64) (float64, int, error) {
	v := s.limits.clampVol(approxImpliedVol(in, price))
	if math.IsNaN(v) {
		v = (s.limits.MinV + s.limits.MaxV) / 2
	}

	res := s.gbs(in.WithVol(v))
	diff := math.Abs(price - res.Value)
	minDiff := diff
	steps := 0

	for diff >= s.precision && steps < s.maxSteps {
		next := v - (res.Value-price)/res.Vega
		if math.IsNaN(next) || !inRange(next, s.limits.MinV, s.limits.MaxV) {
			s.debug("newton estimate left bounds", "estimate", next, "steps", steps)
			break
		}

		v = next
		res = s.gbs(in.WithVol(v))
		diff = math.Abs(price - res.Value)
		steps++

		s.debug("newton step", "step", steps, "v", v, "value", res.Value, "diff", diff)

		if diff >= minDiff {
			break
		}
		minDiff = diff
	}

	if diff < s.precision {
		return v, steps, nil
	}

	s.debug("newton did not converge, falling back to bisection", "v", v, "diff", diff, "steps", steps)
	vol, more, err := s.bisection(in, price, func(in Inputs) float64 { return s.gbs(in).Value })
	return vol, steps + more, err
}

// bisection 区间搜索，区间端点价格之间做线性插值（割线）取中点。
func (s ivSolver) bisection(in Inputs, price float64, value func(Inputs) float64) (float64, int, error) {
	minV, maxV := s.limits.MinV, s.limits.MaxV

	vMid := approxImpliedVol(in, price)
	var vLow, vHigh float64
	if !(vMid > minV && vMid < maxV) {
		vLow, vHigh = minV, maxV
		vMid = (vLow + vHigh) / 2
	} else {
		vLow = math.Max(minV, vMid*0.5)
		vHigh = math.Min(maxV, vMid*1.5)
	}

	cpMid := value(in.WithVol(vMid))
	diff := math.Abs(price - cpMid)
	steps := 0

	for diff > s.precision && steps < s.maxSteps {
		steps++

		if cpMid < price {
			vLow = vMid
		} else {
			vHigh = vMid
		}

		cpLow := value(in.WithVol(vLow))
		cpHigh := value(in.WithVol(vHigh))
		if cpHigh == cpLow {
			vMid = (vLow + vHigh) / 2
		} else {
			vMid = vLow + (price-cpLow)*(vHigh-vLow)/(cpHigh-cpLow)
		}
		vMid = s.limits.clampVol(vMid)

		cpMid = value(in.WithVol(vMid))
		diff = math.Abs(price - cpMid)

		s.debug("bisection step", "step", steps, "v_low", vLow, "v_high", vHigh, "v_mid", vMid, "diff", diff)
	}

	if diff < s.precision {
		return vMid, steps, nil
	}
	return vMid, steps, &ConvergenceError{
		Method:       methodBisection,
		LastEstimate: vMid,
		Iterations:   steps,
		Diff:         diff,
		Precision:    s.precision,
	}
}
