package finance

import (
	"context"
	"math"
	"time"

	"github.com/wyfcoding/optionpricing/algorithm/types"
)

// 指标中的 model 标签。
const (
	modelEuropean        = "european"
	modelAmerican        = "american"
	modelBlackScholes    = "black_scholes"
	modelMerton          = "merton"
	modelBlack76         = "black76"
	modelGarmanKohlhagen = "garman_kohlhagen"
	modelAsian76         = "asian76"
	modelKirks76         = "kirks76"
	modelAmerican76      = "american76"
)

func modelFor(style types.ExerciseStyle) string {
	if style == types.American {
		return modelAmerican
	}
	return modelEuropean
}

// BlackScholes 无股息股票期权，b = r。
func (e *Engine) BlackScholes(kind types.OptionType, fs, x, t, r, v float64) (Result, error) {
	return e.price(context.Background(), modelBlackScholes, types.European,
		Inputs{Type: kind, FS: fs, X: x, T: t, R: r, B: r, V: v})
}

// Merton 连续股息率 q 的股票期权，b = r - q。
func (e *Engine) Merton(kind types.OptionType, fs, x, t, r, q, v float64) (Result, error) {
	return e.price(context.Background(), modelMerton, types.European,
		Inputs{Type: kind, FS: fs, X: x, T: t, R: r, B: r - q, V: v})
}

// Black76 期货 / 远期期权，b = 0。
func (e *Engine) Black76(kind types.OptionType, fs, x, t, r, v float64) (Result, error) {
	return e.price(context.Background(), modelBlack76, types.European,
		Inputs{Type: kind, FS: fs, X: x, T: t, R: r, B: 0, V: v})
}

// GarmanKohlhagen 外汇期权，rf 为外币利率，b = r - rf。
func (e *Engine) GarmanKohlhagen(kind types.OptionType, fs, x, t, r, rf, v float64) (Result, error) {
	return e.price(context.Background(), modelGarmanKohlhagen, types.European,
		Inputs{Type: kind, FS: fs, X: x, T: t, R: r, B: r - rf, V: v})
}

// Asian76 商品平均价格期权（Black-76 近似），ta 为平均期开始前的时间，需满足 MinTA <= ta <= t。
func (e *Engine) Asian76(kind types.OptionType, fs, x, t, ta, r, v float64) (Result, error) {
	start := time.Now()
	in := Inputs{Type: kind, FS: fs, X: x, T: t, R: r, B: 0, V: v}
	if err := e.limits.Validate(in); err != nil {
		return e.reject(modelAsian76, start, err)
	}
	if !inRange(ta, e.limits.MinTA, t) {
		return e.reject(modelAsian76, start, &ValidationError{Field: FieldTA, Value: ta, Min: e.limits.MinTA, Max: t})
	}

	va := asianVol(v, t, ta)
	e.calc(context.Background()).debug("asian76 adjusted volatility", "v", v, "v_a", va)

	if !inRange(va, e.limits.MinV, e.limits.MaxV) {
		return e.reject(modelAsian76, start,
			&ValidationError{Field: FieldAsianVol, Value: va, Min: e.limits.MinV, Max: e.limits.MaxV})
	}
	return e.price(context.Background(), modelAsian76, types.European, in.WithVol(va))
}

// asianVol 平均价格的调整波动率 v_a = sqrt((v²·ta + ln(2g)) / t)，
// 其中 d = v²(t - ta)，g = (e^d - 1 - d) / d²。
// d < 1 时 2g - 1 按级数 Σ 2dⁿ/(n+2)! 求和，避免 e^d - 1 - d 的相消误差。
func asianVol(v, t, ta float64) float64 {
	// 没有平均期，退化为 Black-76。
	if ta == t {
		return v
	}

	v2 := v * v
	d := v2 * (t - ta)

	var q float64 // 2g - 1
	if d < 1 {
		term := d / 3
		for n := 1; n <= 20; n++ {
			q += term
			term *= d / float64(n+3)
			if term < q*1e-17 {
				break
			}
		}
	} else {
		q = 2*(math.Expm1(d)-d)/(d*d) - 1
	}
	return math.Sqrt((v2*ta + math.Log1p(q)) / t)
}

// Kirks76 价差期权（Kirk 近似），标的为 f1 - f2，行权价 x。
// 比值变换下没有精确的希腊字母，返回结果中希腊字母均为 0。
func (e *Engine) Kirks76(kind types.OptionType, f1, f2, x, t, r, v1, v2, corr float64) (Result, error) {
	start := time.Now()
	l := e.limits
	if !kind.Valid() {
		return e.reject(modelKirks76, start, &ValidationError{Field: FieldOptionType, Value: string(kind)})
	}
	for _, f := range []struct {
		name   string
		v      float64
		lo, hi float64
	}{
		{"f1", f1, l.MinFS, l.MaxFS},
		{"f2", f2, l.MinFS, l.MaxFS},
		{FieldX, x, l.MinX, l.MaxX},
		{FieldT, t, l.MinT, l.MaxT},
		{FieldR, r, l.MinR, l.MaxR},
		{"v1", v1, l.MinV, l.MaxV},
		{"v2", v2, l.MinV, l.MaxV},
		{FieldCorr, corr, -1, 1},
	} {
		if err := check(f.name, f.v, f.lo, f.hi); err != nil {
			return e.reject(modelKirks76, start, err)
		}
	}

	fs := f1 / (f2 + x)
	k := f2 / (f2 + x)
	v := math.Sqrt(v1*v1 + (v2*k)*(v2*k) - 2*corr*v1*v2*k)
	if !inRange(v, l.MinV, l.MaxV) {
		return e.reject(modelKirks76, start, &ValidationError{Field: FieldSpreadVol, Value: v, Min: l.MinV, Max: l.MaxV})
	}

	res, err := e.price(context.Background(), modelKirks76, types.European,
		Inputs{Type: kind, FS: fs, X: 1.0, T: t, R: r, B: 0, V: v})
	if err != nil {
		return Result{}, err
	}
	return Result{Value: res.Value * (f2 + x)}, nil
}

// American 美式股票期权，q 为连续股息率，b = r - q。
func (e *Engine) American(kind types.OptionType, fs, x, t, r, q, v float64) (Result, error) {
	return e.price(context.Background(), modelAmerican, types.American,
		Inputs{Type: kind, FS: fs, X: x, T: t, R: r, B: r - q, V: v})
}

// American76 美式期货期权，b = 0。
func (e *Engine) American76(kind types.OptionType, fs, x, t, r, v float64) (Result, error) {
	return e.price(context.Background(), modelAmerican76, types.American,
		Inputs{Type: kind, FS: fs, X: x, T: t, R: r, B: 0, V: v})
}

// EuroImpliedVol 欧式股票期权隐含波动率，b = r - q。
func (e *Engine) EuroImpliedVol(kind types.OptionType, fs, x, t, r, q, price float64) (float64, error) {
	return e.impliedVol(context.Background(), modelMerton, types.European,
		Inputs{Type: kind, FS: fs, X: x, T: t, R: r, B: r - q}, price)
}

// EuroImpliedVol76 欧式期货期权隐含波动率，b = 0。
func (e *Engine) EuroImpliedVol76(kind types.OptionType, fs, x, t, r, price float64) (float64, error) {
	return e.impliedVol(context.Background(), modelBlack76, types.European,
		Inputs{Type: kind, FS: fs, X: x, T: t, R: r, B: 0}, price)
}

// AmerImpliedVol 美式股票期权隐含波动率，b = r - q。
func (e *Engine) AmerImpliedVol(kind types.OptionType, fs, x, t, r, q, price float64) (float64, error) {
	return e.impliedVol(context.Background(), modelAmerican, types.American,
		Inputs{Type: kind, FS: fs, X: x, T: t, R: r, B: r - q}, price)
}

// AmerImpliedVol76 美式期货期权隐含波动率，b = 0。
func (e *Engine) AmerImpliedVol76(kind types.OptionType, fs, x, t, r, price float64) (float64, error) {
	return e.impliedVol(context.Background(), modelAmerican76, types.American,
		Inputs{Type: kind, FS: fs, X: x, T: t, R: r, B: 0}, price)
}

// 以下包级函数使用默认引擎。

// PriceEuropean 使用默认引擎做 GBS 欧式定价。
func PriceEuropean(kind types.OptionType, fs, x, t, r, b, v float64) (Result, error) {
	return defaultEngine.PriceEuropean(kind, fs, x, t, r, b, v)
}

// PriceAmerican 使用默认引擎做 Bjerksund-Stensland 2002 美式定价。
func PriceAmerican(kind types.OptionType, fs, x, t, r, b, v float64) (Result, error) {
	return defaultEngine.PriceAmerican(kind, fs, x, t, r, b, v)
}

// ImpliedVolEuropean 使用默认引擎求欧式隐含波动率。
func ImpliedVolEuropean(kind types.OptionType, fs, x, t, r, b, price float64) (float64, error) {
	return defaultEngine.ImpliedVolEuropean(kind, fs, x, t, r, b, price)
}

// ImpliedVolAmerican 使用默认引擎求美式隐含波动率。
func ImpliedVolAmerican(kind types.OptionType, fs, x, t, r, b, price float64) (float64, error) {
	return defaultEngine.ImpliedVolAmerican(kind, fs, x, t, r, b, price)
}

// BlackScholes 无股息股票期权，b = r。
func BlackScholes(kind types.OptionType, fs, x, t, r, v float64) (Result, error) {
	return defaultEngine.BlackScholes(kind, fs, x, t, r, v)
}

// Merton 连续股息率 q 的股票期权，b = r - q。
func Merton(kind types.OptionType, fs, x, t, r, q, v float64) (Result, error) {
	return defaultEngine.Merton(kind, fs, x, t, r, q, v)
}

// Black76 期货 / 远期期权，b = 0。
func Black76(kind types.OptionType, fs, x, t, r, v float64) (Result, error) {
	return defaultEngine.Black76(kind, fs, x, t, r, v)
}

// GarmanKohlhagen 外汇期权，b = r - rf。
func GarmanKohlhagen(kind types.OptionType, fs, x, t, r, rf, v float64) (Result, error) {
	return defaultEngine.GarmanKohlhagen(kind, fs, x, t, r, rf, v)
}

// Asian76 商品平均价格期权，见 Engine.Asian76。
func Asian76(kind types.OptionType, fs, x, t, ta, r, v float64) (Result, error) {
	return defaultEngine.Asian76(kind, fs, x, t, ta, r, v)
}

// Kirks76 价差期权，只返回价值。
func Kirks76(kind types.OptionType, f1, f2, x, t, r, v1, v2, corr float64) (Result, error) {
	return defaultEngine.Kirks76(kind, f1, f2, x, t, r, v1, v2, corr)
}

// American 美式股票期权，b = r - q。
func American(kind types.OptionType, fs, x, t, r, q, v float64) (Result, error) {
	return defaultEngine.American(kind, fs, x, t, r, q, v)
}

// American76 美式期货期权，b = 0。
func American76(kind types.OptionType, fs, x, t, r, v float64) (Result, error) {
	return defaultEngine.American76(kind, fs, x, t, r, v)
}

// EuroImpliedVol 欧式股票期权隐含波动率。
func EuroImpliedVol(kind types.OptionType, fs, x, t, r, q, price float64) (float64, error) {
	return defaultEngine.EuroImpliedVol(kind, fs, x, t, r, q, price)
}

// EuroImpliedVol76 欧式期货期权隐含波动率。
func EuroImpliedVol76(kind types.OptionType, fs, x, t, r, price float64) (float64, error) {
	return defaultEngine.EuroImpliedVol76(kind, fs, x, t, r, price)
}

// AmerImpliedVol 美式股票期权隐含波动率。
func AmerImpliedVol(kind types.OptionType, fs, x, t, r, q, price float64) (float64, error) {
	return defaultEngine.AmerImpliedVol(kind, fs, x, t, r, q, price)
}

// AmerImpliedVol76 美式期货期权隐含波动率。
func AmerImpliedVol76(kind types.OptionType, fs, x, t, r, price float64) (float64, error) {
	return defaultEngine.AmerImpliedVol76(kind, fs, x, t, r, price)
}

// PriceChain 使用默认引擎并发定价期权链。
func PriceChain(ctx context.Context, legs []ChainLeg) ([]ChainQuote, error) {
	return defaultEngine.PriceChain(ctx, legs)
}
