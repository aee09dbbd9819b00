package finance

import (
	"math"

	"github.com/wyfcoding/optionpricing/algorithm/types"
)

// Limits 定价输入的取值区间。超出区间的输入直接拒绝，不做截断。
//
// MinT > 0 保证所有 1/√t 有限，MinV > 0 保证所有 1/v² 有限。
type Limits struct {
	MinT, MaxT   float64
	MinX, MaxX   float64
	MinFS, MaxFS float64
	MinV, MaxV   float64
	MinB, MaxB   float64
	MinR, MaxR   float64
	MinTA        float64
}

// DefaultLimits 返回默认限值表。
func DefaultLimits() Limits {
	return Limits{
		MinT:  1.0 / 1000,
		MaxT:  100,
		MinX:  0.01,
		MaxX:  2147483248,
		MinFS: 0.01,
		MaxFS: 2147483248,
		MinV:  0.005,
		MaxV:  1,
		MinB:  -1,
		MaxB:  1,
		MinR:  -1,
		MaxR:  1,
		MinTA: 0,
	}
}

// Inputs 单个期权的定价参数。
type Inputs struct {
	Type types.OptionType
	FS   float64 // 标的价格（现货或远期）
	X    float64 // 行权价
	T    float64 // 到期时间（年）
	R    float64 // 无风险利率
	B    float64 // 持有成本
	V    float64 // 波动率
}

// WithVol 返回替换波动率后的副本。
func (in Inputs) WithVol(v float64) Inputs {
	in.V = v
	return in
}

// inRange 对 NaN 返回 false。
func inRange(v, lo, hi float64) bool {
	return v >= lo && v <= hi
}

func check(field string, v, lo, hi float64) error {
	if !inRange(v, lo, hi) {
		return &ValidationError{Field: field, Value: v, Min: lo, Max: hi}
	}
	return nil
}

// Validate 按 option_type, x, fs, t, b, r, v 的顺序检查输入，返回第一个不合法的字段。
func (l Limits) Validate(in Inputs) error {
	if err := l.validateCarry(in); err != nil {
		return err
	}
	return check(FieldV, in.V, l.MinV, l.MaxV)
}

// validateCarry 检查除波动率以外的所有字段，供隐含波动率求解使用。
func (l Limits) validateCarry(in Inputs) error {
	if !in.Type.Valid() {
		return &ValidationError{Field: FieldOptionType, Value: string(in.Type)}
	}
	if err := check(FieldX, in.X, l.MinX, l.MaxX); err != nil {
		return err
	}
	if err := check(FieldFS, in.FS, l.MinFS, l.MaxFS); err != nil {
		return err
	}
	if err := check(FieldT, in.T, l.MinT, l.MaxT); err != nil {
		return err
	}
	if err := check(FieldB, in.B, l.MinB, l.MaxB); err != nil {
		return err
	}
	return check(FieldR, in.R, l.MinR, l.MaxR)
}

func validatePrice(price float64) error {
	if math.IsNaN(price) || math.IsInf(price, 0) || price <= 0 {
		return &ValidationError{Field: FieldPrice, Value: price, Min: 0, Max: math.Inf(1)}
	}
	return nil
}

// clampVol 将波动率截断到 [MinV, MaxV]，仅用于求解器内部的迭代值。
func (l Limits) clampVol(v float64) float64 {
	return math.Min(l.MaxV, math.Max(l.MinV, v))
}
