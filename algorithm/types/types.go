// Package types 定义定价引擎共享的期权词汇。
package types

import "strings"

// OptionType 期权类型。
type OptionType string

const (
	// OptionTypeCall 看涨期权。
	OptionTypeCall OptionType = "c"
	// OptionTypePut 看跌期权。
	OptionTypePut OptionType = "p"
)

// Valid 报告是否为受支持的期权类型。
func (o OptionType) Valid() bool {
	return o == OptionTypeCall || o == OptionTypePut
}

// IsCall 是否为看涨期权。
func (o OptionType) IsCall() bool { return o == OptionTypeCall }

// String 实现 fmt.Stringer。
func (o OptionType) String() string {
	switch o {
	case OptionTypeCall:
		return "call"
	case OptionTypePut:
		return "put"
	default:
		return string(o)
	}
}

// ParseOptionType 接受 "c"/"p" 以及 "call"/"put"（不区分大小写），其他输入原样返回并由校验器拒绝。
func ParseOptionType(s string) OptionType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "c", "call":
		return OptionTypeCall
	case "p", "put":
		return OptionTypePut
	default:
		return OptionType(s)
	}
}

// ExerciseStyle 行权方式。
type ExerciseStyle string

const (
	European ExerciseStyle = "european"
	American ExerciseStyle = "american"
)
