package finance

import (
	"fmt"

	"github.com/wyfcoding/optionpricing/xerrors"
)

// 校验失败时使用的字段名。
const (
	FieldOptionType = "option_type"
	FieldFS         = "fs"
	FieldX          = "x"
	FieldT          = "t"
	FieldR          = "r"
	FieldB          = "b"
	FieldV          = "v"
	FieldTA         = "ta"
	FieldCorr       = "corr"
	FieldPrice      = "price"
	FieldSpreadVol  = "spread_v"
	FieldAsianVol   = "asian_v"
)

// ValidationError 输入超出限值表，在任何计算之前返回。
type ValidationError struct {
	Field string
	Value any
	Min   float64
	Max   float64
}

func (e *ValidationError) Error() string {
	switch e.Field {
	case FieldOptionType:
		return fmt.Sprintf("invalid input %s=%v: acceptable values are c, p", e.Field, e.Value)
	case FieldPrice:
		return fmt.Sprintf("invalid input %s=%v: must be finite and greater than 0", e.Field, e.Value)
	default:
		return fmt.Sprintf("invalid input %s=%v: acceptable range is [%g, %g]", e.Field, e.Value, e.Min, e.Max)
	}
}

// Unwrap 暴露对应的 xerrors 哨兵错误，便于调用方映射 HTTP / gRPC 状态码。
func (e *ValidationError) Unwrap() error {
	switch e.Field {
	case FieldOptionType:
		return xerrors.ErrInvalidOptionType
	case FieldPrice:
		return xerrors.ErrInvalidPrice
	default:
		return xerrors.ErrInputOutOfRange
	}
}

// ConvergenceError 隐含波动率求解在 maxSteps 内未达到精度要求。
type ConvergenceError struct {
	Method       string
	LastEstimate float64
	Iterations   int
	Diff         float64 // 最后一次估计的价格残差 |target - value|
	Precision    float64
}

func (e *ConvergenceError) Error() string {
	return fmt.Sprintf("%s implied volatility did not converge after %d iterations: last estimate %g, diff %g (precision %g)",
		e.Method, e.Iterations, e.LastEstimate, e.Diff, e.Precision)
}

func (e *ConvergenceError) Unwrap() error {
	return xerrors.ErrMathConvergence
}
