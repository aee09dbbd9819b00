package finance

import (
	"math"

	"github.com/wyfcoding/optionpricing/algorithm/types"
)

// bs1993 Bjerksund-Stensland (1993) 单边界美式看涨近似。
// 已被 2002 模型取代，只用于交叉校验，不在主定价路径上。
func (c calc) bs1993(fs, x, t, r, b, v float64) float64 {
	euro := c.gbs(Inputs{Type: types.OptionTypeCall, FS: fs, X: x, T: t, R: r, B: b, V: v}).Value
	if b >= r {
		return euro
	}

	v2 := v * v
	beta := (0.5 - b/v2) + math.Sqrt(math.Abs((b/v2-0.5)*(b/v2-0.5)+2*r/v2))
	bInf := beta / (beta - 1) * x
	b0 := math.Max(x, r/(r-b)*x)

	h1 := -(b*t + 2*v*math.Sqrt(t)) * (b0 / (bInf - b0))
	i := b0 + (bInf-b0)*(1-math.Exp(h1))
	alpha := (i - x) * math.Pow(i, -beta)

	c.debug("bs1993 boundary", "beta", beta, "b_inf", bInf, "b0", b0, "i", i, "alpha", alpha)

	if fs >= i {
		return math.Max(fs-x, euro)
	}

	value := alpha*math.Pow(fs, beta) -
		alpha*phi(fs, t, beta, i, i, r, b, v) +
		phi(fs, t, 1, i, i, r, b, v) -
		phi(fs, t, 1, x, i, r, b, v) -
		x*phi(fs, t, 0, i, i, r, b, v) +
		x*phi(fs, t, 0, x, i, r, b, v)

	if !finite(value) || value > fs {
		c.debug("bs1993 approximation out of bounds, using european value", "approximation", value, "fs", fs)
		return math.Max(fs-x, euro)
	}
	return math.Max(value, euro)
}

// american1993 与 american 相同的看跌变换，但使用 1993 模型。
func (c calc) american1993(in Inputs) float64 {
	euro := c.gbs(in).Value
	var value float64
	if in.Type.IsCall() {
		value = c.bs1993(in.FS, in.X, in.T, in.R, in.B, in.V)
	} else {
		value = c.bs1993(in.X, in.FS, in.T, in.R-in.B, -in.B, in.V)
	}
	if !finite(value) {
		return euro
	}
	return math.Max(value, euro)
}
