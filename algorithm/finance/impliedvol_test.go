package finance

import (
	"errors"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wyfcoding/optionpricing/algorithm/types"
	"github.com/wyfcoding/optionpricing/xerrors"
)

func TestApproxImpliedVol(t *testing.T) {
	assertClose(t, 0.131757, approxImpliedVol(mk(call, 100, 100, 1, 0.05, 0, 0), 5), 1e-6)
	assertClose(t, 0.239753, approxImpliedVol(mk(call, 59, 60, 0.25, 0.067, 0.067, 0), 2.82), 1e-6)
}

func TestImpliedVolEuropeanVectors(t *testing.T) {
	tests := []struct {
		kind              types.OptionType
		fs, x, t, r, b, p float64
		want              float64
	}{
		{call, 92.45, 107.5, 0.0876712328767123, 0.00192960198828152, 0, 0.162619795863781, 0.3},
		{call, 93.0766666666667, 107.75, 0.164383561643836, 0.00266390125346286, 0, 0.584588840095316, 0.2878},
		{call, 93.5333333333333, 107.75, 0.249315068493151, 0.00319934651984034, 0, 1.27026849732877, 0.2907},
		{call, 93.8733333333333, 107.75, 0.331506849315069, 0.00350934592318849, 0, 1.97015685523537, 0.2929},
		{call, 94.1166666666667, 107.75, 0.416438356164384, 0.00367360967852615, 0, 2.61731599547608, 0.2919},
		{put, 94.2666666666667, 107.75, 0.498630136986301, 0.00372609838856132, 0, 16.6074587545269, 0.2888},
		{put, 94.3666666666667, 107.75, 0.583561643835616, 0.00370681407974257, 0, 17.1686196701434, 0.2923},
		{put, 94.44, 107.75, 0.668493150684932, 0.00364163303865433, 0, 17.6038273793172, 0.2908},
		{put, 94.4933333333333, 107.75, 0.750684931506849, 0.00355604221290591, 0, 18.0870982577296, 0.2919},
		{put, 94.39, 107.75, 0.917808219178082, 0.00337464630758452, 0, 18.9397688539483, 0.2876},
		{call, 100, 95, 1, 1, 0, 14.6711476484, 1},
		{put, 100, 95, 1, 1, 0, 12.8317504425, 1},
	}

	for _, tt := range tests {
		v, err := ImpliedVolEuropean(tt.kind, tt.fs, tt.x, tt.t, tt.r, tt.b, tt.p)
		require.NoError(t, err, tt)
		assertClose(t, tt.want, v, 1e-6, tt)
	}
}

func TestImpliedVolAmericanVectors(t *testing.T) {
	tests := []struct {
		kind              types.OptionType
		fs, x, t, r, b, p float64
		want, prec        float64
	}{
		{put, 90, 100, 0.5, 0.1, 0, 10.54, 0.15, 0.01},
		{put, 100, 100, 0.5, 0.1, 0, 6.7661, 0.25, 1e-4},
		{put, 110, 100, 0.5, 0.1, 0, 5.8374, 0.35, 1e-4},
		{call, 42, 40, 0.75, 0.04, -0.04, 5.28, 0.35, 0.01},
		{call, 90, 100, 0.1, 0.1, 0, 0.02, 0.15, 0.01},
		{call, 100, 100, 1, 0, 0, 13.892, 0.35, 0.01},
		{put, 100, 100, 1, 0, 0, 13.892, 0.35, 0.01},
	}

	for _, tt := range tests {
		v, err := ImpliedVolAmerican(tt.kind, tt.fs, tt.x, tt.t, tt.r, tt.b, tt.p)
		require.NoError(t, err, tt)
		assertClose(t, tt.want, v, tt.prec, tt)
	}
}

func TestImpliedVolEuropeanRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	c := testCalc()
	e := NewEngine()

	var checked int
	for range 1000 {
		kind := call
		if rng.IntN(2) == 1 {
			kind = put
		}
		x := mk(kind, 50+100*rng.Float64(), 50+100*rng.Float64(), 0.05+2.95*rng.Float64(),
			-0.05+0.15*rng.Float64(), -0.05+0.15*rng.Float64(), 0.05+0.85*rng.Float64())

		res := c.gbs(x)
		// 对波动率不敏感的区域无法精确反解。
		if res.Vega < 2 {
			continue
		}

		v, err := e.ImpliedVolEuropean(x.Type, x.FS, x.X, x.T, x.R, x.B, res.Value)
		if IsConvergenceError(err) {
			continue
		}
		require.NoError(t, err, x)
		assert.InDelta(t, x.V, v, 1e-5, x)
		checked++
	}
	assert.Greater(t, checked, 500)
}

func TestImpliedVolAmericanRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 5))
	c := testCalc()
	e := NewEngine()

	var checked int
	for range 200 {
		kind := call
		if rng.IntN(2) == 1 {
			kind = put
		}
		x := mk(kind, 80+40*rng.Float64(), 80+40*rng.Float64(), 0.1+1.9*rng.Float64(),
			0.1*rng.Float64(), -0.05+0.15*rng.Float64(), 0.1+0.7*rng.Float64())

		price := c.american(x).Value
		// 深度实值时提前行权边界使价格几乎不随波动率变化，用差分 vega 过滤。
		vega := (c.american(x.WithVol(x.V+0.005)).Value - c.american(x.WithVol(x.V-0.005)).Value) / 0.01
		if vega < 5 {
			continue
		}

		v, err := e.ImpliedVolAmerican(x.Type, x.FS, x.X, x.T, x.R, x.B, price)
		if IsConvergenceError(err) {
			continue
		}
		require.NoError(t, err, x)
		assert.InDelta(t, x.V, v, 1e-5, x)
		checked++
	}
	assert.Greater(t, checked, 50)
}

func TestImpliedVolConvergenceError(t *testing.T) {
	// 看涨期权价格超过标的价格，任何波动率都无法达到。
	_, err := ImpliedVolEuropean(call, 100, 100, 1, 0.05, 0.05, 150)
	require.Error(t, err)

	var ce *ConvergenceError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, methodBisection, ce.Method)
	assert.Equal(t, DefaultMaxSteps, ce.Iterations)
	assert.Greater(t, ce.Diff, ce.Precision)
	assert.InDelta(t, DefaultLimits().MaxV, ce.LastEstimate, 1e-12)
	assert.ErrorIs(t, err, xerrors.ErrMathConvergence)

	xe, ok := xerrors.As(err)
	require.True(t, ok)
	assert.Equal(t, 500002, xe.Code)
}

func TestImpliedVolMaxSteps(t *testing.T) {
	e := NewEngine(WithMaxSteps(1), WithPrecision(1e-12))

	_, err := e.ImpliedVolAmerican(put, 100, 100, 0.5, 0.1, 0, 6.7661)
	var ce *ConvergenceError
	require.True(t, errors.As(err, &ce), "%v", err)
	assert.Equal(t, 1, ce.Iterations)
	assert.InDelta(t, 1e-12, ce.Precision, 0)
	assert.Contains(t, ce.Error(), "did not converge after 1 iterations")
}

func TestImpliedVolInvalidInputs(t *testing.T) {
	for _, price := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		_, err := ImpliedVolEuropean(call, 100, 100, 1, 0.05, 0.05, price)
		var ve *ValidationError
		require.True(t, errors.As(err, &ve), "price %v", price)
		assert.Equal(t, FieldPrice, ve.Field)
		assert.ErrorIs(t, err, xerrors.ErrInvalidPrice)
	}

	_, err := ImpliedVolAmerican(types.OptionType("x"), 100, 100, 1, 0.05, 0.05, 5)
	assert.ErrorIs(t, err, xerrors.ErrInvalidOptionType)

	_, err = ImpliedVolAmerican(call, 100, 100, 0, 0.05, 0.05, 5)
	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, FieldT, ve.Field)
}

func TestImpliedVolWrappers(t *testing.T) {
	c := testCalc()

	p := c.gbs(mk(call, 102, 100, 2, 0.05, 0.04, 0.25)).Value
	v, err := EuroImpliedVol(call, 102, 100, 2, 0.05, 0.01, p)
	require.NoError(t, err)
	assert.InDelta(t, 0.25, v, 1e-5)

	p = c.gbs(mk(put, 102, 100, 2, 0.05, 0, 0.25)).Value
	v, err = EuroImpliedVol76(put, 102, 100, 2, 0.05, p)
	require.NoError(t, err)
	assert.InDelta(t, 0.25, v, 1e-5)

	p = c.american(mk(put, 102, 100, 2, 0.05, 0.04, 0.25)).Value
	v, err = AmerImpliedVol(put, 102, 100, 2, 0.05, 0.01, p)
	require.NoError(t, err)
	assert.InDelta(t, 0.25, v, 1e-5)

	p = c.american(mk(put, 102, 100, 2, 0.05, 0, 0.25)).Value
	v, err = AmerImpliedVol76(put, 102, 100, 2, 0.05, p)
	require.NoError(t, err)
	assert.InDelta(t, 0.25, v, 1e-5)
}
