package finance

import (
	"math"

	algomath "github.com/wyfcoding/optionpricing/algorithm/math"
	"github.com/wyfcoding/optionpricing/algorithm/types"
)

// american 美式期权定价（Bjerksund-Stensland 2002）。
//
// 看跌期权通过看涨-看跌变换求值：P(fs, x, t, r, b, v) = C(x, fs, t, r-b, -b, v)。
// 结果再以原期权的欧式价值为下限，因此 American >= European 严格成立。
// 希腊字母沿用原期权的 GBS 欧式希腊字母。
func (c calc) american(in Inputs) Result {
	euro := c.gbs(in)

	var value float64
	if in.Type.IsCall() {
		value = c.bs2002(in.FS, in.X, in.T, in.R, in.B, in.V)
	} else {
		c.debug("american put via put-call transform", "fs", in.X, "x", in.FS, "r", in.R-in.B, "b", -in.B)
		value = c.bs2002(in.X, in.FS, in.T, in.R-in.B, -in.B, in.V)
	}

	res := euro
	if finite(value) {
		res.Value = math.Max(value, euro.Value)
	}
	return res
}

// bs2002 Bjerksund-Stensland (2002) 美式看涨期权近似，使用两段行权边界。
func (c calc) bs2002(fs, x, t, r, b, v float64) float64 {
	euro := c.gbs(Inputs{Type: types.OptionTypeCall, FS: fs, X: x, T: t, R: r, B: b, V: v}).Value

	// b >= r 时提前行权永远不是最优。
	if b >= r {
		c.debug("bs2002 returning european value", "b", b, "r", r)
		return euro
	}

	v2 := v * v
	t1 := 0.5 * (math.Sqrt(5) - 1) * t
	t2 := t

	// 根号内为浮点噪声导致的微小负数时取绝对值。
	beta := (0.5 - b/v2) + math.Sqrt(math.Abs((b/v2-0.5)*(b/v2-0.5)+2*r/v2))
	bInf := beta / (beta - 1) * x
	b0 := math.Max(x, r/(r-b)*x)

	scale := x * x / ((bInf - b0) * b0)
	h1 := -(b*t1 + 2*v*math.Sqrt(t1)) * scale
	h2 := -(b*t2 + 2*v*math.Sqrt(t2)) * scale

	i1 := b0 + (bInf-b0)*(1-math.Exp(h1))
	i2 := b0 + (bInf-b0)*(1-math.Exp(h2))

	alpha1 := (i1 - x) * math.Pow(i1, -beta)
	alpha2 := (i2 - x) * math.Pow(i2, -beta)

	c.debug("bs2002 boundary", "beta", beta, "b_inf", bInf, "b0", b0, "h1", h1, "h2", h2,
		"i1", i1, "i2", i2, "alpha1", alpha1, "alpha2", alpha2)

	// 立即行权。
	if fs >= i2 {
		return math.Max(fs-x, euro)
	}

	value := alpha2*math.Pow(fs, beta) -
		alpha2*phi(fs, t1, beta, i2, i2, r, b, v) +
		phi(fs, t1, 1, i2, i2, r, b, v) -
		phi(fs, t1, 1, i1, i2, r, b, v) -
		x*phi(fs, t1, 0, i2, i2, r, b, v) +
		x*phi(fs, t1, 0, i1, i2, r, b, v) +
		alpha1*phi(fs, t1, beta, i1, i2, r, b, v) -
		alpha1*psi(fs, t2, beta, i1, i2, i1, t1, r, b, v) +
		psi(fs, t2, 1, i1, i2, i1, t1, r, b, v) -
		psi(fs, t2, 1, x, i2, i1, t1, r, b, v) -
		x*psi(fs, t2, 0, i1, i2, i1, t1, r, b, v) +
		x*psi(fs, t2, 0, x, i2, i1, t1, r, b, v)

	c.debug("bs2002 value", "approximation", value, "european", euro)

	// 低波动率下 φ/ψ 中的指数项会溢出；看涨期权价值也不可能超过标的价格。
	if !finite(value) || value > fs {
		c.debug("bs2002 approximation out of bounds, using european value", "approximation", value, "fs", fs)
		return math.Max(fs-x, euro)
	}
	return math.Max(value, euro)
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// phi Bjerksund-Stensland 中的 φ 辅助函数。
func phi(fs, t, gamma, h, i, r, b, v float64) float64 {
	v2 := v * v
	sqrtT := math.Sqrt(t)

	d1 := -(math.Log(fs/h) + (b+(gamma-0.5)*v2)*t) / (v * sqrtT)
	d2 := d1 - 2*math.Log(i/fs)/(v*sqrtT)

	lambda := -r + gamma*b + 0.5*gamma*(gamma-1)*v2
	kappa := 2*b/v2 + (2*gamma - 1)

	return math.Exp(lambda*t) * math.Pow(fs, gamma) *
		(algomath.NormCDF(d1) - math.Pow(i/fs, kappa)*algomath.NormCDF(d2))
}

// psi Bjerksund-Stensland 2002 中的 ψ 辅助函数，依赖二元正态分布。
func psi(fs, t2, gamma, h, i2, i1, t1, r, b, v float64) float64 {
	v2 := v * v
	vt1 := v * math.Sqrt(t1)
	vt2 := v * math.Sqrt(t2)

	bg1 := (b + (gamma-0.5)*v2) * t1
	bg2 := (b + (gamma-0.5)*v2) * t2

	d1 := (math.Log(fs/i1) + bg1) / vt1
	d3 := (math.Log(fs/i1) - bg1) / vt1
	d2 := (math.Log(i2*i2/(fs*i1)) + bg1) / vt1
	d4 := (math.Log(i2*i2/(fs*i1)) - bg1) / vt1

	e1 := (math.Log(fs/h) + bg2) / vt2
	e2 := (math.Log(i2*i2/(fs*h)) + bg2) / vt2
	e3 := (math.Log(i1*i1/(fs*h)) + bg2) / vt2
	e4 := (math.Log(fs*i1*i1/(h*i2*i2)) + bg2) / vt2

	tau := math.Sqrt(t1 / t2)
	lambda := -r + gamma*b + 0.5*gamma*(gamma-1)*v2
	kappa := 2*b/v2 + (2*gamma - 1)

	return math.Exp(lambda*t2) * math.Pow(fs, gamma) *
		(algomath.CBND(-d1, -e1, tau) -
			math.Pow(i2/fs, kappa)*algomath.CBND(-d2, -e2, tau) -
			math.Pow(i1/fs, kappa)*algomath.CBND(-d3, -e3, -tau) +
			math.Pow(i1/i2, kappa)*algomath.CBND(-d4, -e4, -tau))
}
