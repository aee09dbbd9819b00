package finance

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wyfcoding/optionpricing/xerrors"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestCalculator(t *testing.T) {
	cl := NewCalculator(nil, 4)

	q, err := cl.Calculate("call", dec("102"), dec("100"), dec("2"), dec("0.05"), dec("0.25"), dec("0.01"))
	require.NoError(t, err)
	assert.Equal(t, "18.6337", q.Price.String())
	assert.Equal(t, "0.6635", q.Delta.String())
	assert.Equal(t, "0.0098", q.Gamma.String())
	assert.Equal(t, "0.5077", q.Vega.String())
	assert.Equal(t, "-0.0136", q.Theta.String())
	assert.Equal(t, "0.9809", q.Rho.String())

	q, err = cl.Calculate("P", dec("102"), dec("100"), dec("2"), dec("0.05"), dec("0.25"), dec("0.01"))
	require.NoError(t, err)
	assert.Equal(t, "9.1372", q.Price.String())
	assert.Equal(t, "-0.3167", q.Delta.String())
	assert.Equal(t, "-0.0039", q.Theta.String())
	assert.Equal(t, "-0.8288", q.Rho.String())

	q, err = cl.CalculateAmerican("put", dec("102"), dec("100"), dec("2"), dec("0.05"), dec("0.25"), dec("0.01"))
	require.NoError(t, err)
	assert.Equal(t, "9.9282", q.Price.String())
	assert.Equal(t, "-0.3167", q.Delta.String())

	iv, err := cl.CalculateImpliedVolatility("c", dec("102"), dec("100"), dec("2"), dec("0.05"), dec("0.01"), dec("18.633714838738406"))
	require.NoError(t, err)
	assert.True(t, iv.Equal(dec("0.25")), iv.String())
}

func TestCalculatorErrors(t *testing.T) {
	cl := NewCalculator(NewEngine(), 2)

	_, err := cl.Calculate("straddle", dec("100"), dec("100"), dec("1"), dec("0.05"), dec("0.2"), decimal.Zero)
	assert.ErrorIs(t, err, xerrors.ErrInvalidOptionType)

	_, err = cl.CalculateAmerican("call", dec("100"), dec("100"), decimal.Zero, dec("0.05"), dec("0.2"), decimal.Zero)
	assert.ErrorIs(t, err, xerrors.ErrInputOutOfRange)

	iv, err := cl.CalculateImpliedVolatility("call", dec("100"), dec("100"), dec("1"), dec("0.05"), decimal.Zero, decimal.Zero)
	assert.ErrorIs(t, err, xerrors.ErrInvalidPrice)
	assert.True(t, iv.IsZero())
}

func TestResultQuote(t *testing.T) {
	res := Result{Value: 1.23456, Delta: 0.5, Gamma: 0.01, Theta: -36.5, Vega: 25, Rho: -40}
	q := res.Quote(3)
	assert.Equal(t, "1.235", q.Price.String())
	assert.Equal(t, "0.5", q.Delta.String())
	assert.Equal(t, "-0.1", q.Theta.String())
	assert.Equal(t, "0.25", q.Vega.String())
	assert.Equal(t, "-0.4", q.Rho.String())
}
