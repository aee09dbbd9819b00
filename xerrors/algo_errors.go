package xerrors

var (
	// ErrInvalidOptionType 无效的期权类型。
	ErrInvalidOptionType = New(ErrInvalidArg, 400004, "invalid option type", "supported types: c, p", nil)
	// ErrInvalidConfig 配置错误。
	ErrInvalidConfig = New(ErrInvalidArg, 400005, "invalid config", "check log, pricing, chain and metrics sections", nil)
	// ErrInputOutOfRange 定价参数超出允许区间。
	ErrInputOutOfRange = New(ErrOutOfRange, 400020, "input out of range", "pricing input violates the limits table", nil)
	// ErrInvalidPrice 目标期权价格非正或非有限值。
	ErrInvalidPrice = New(ErrInvalidArg, 400021, "invalid option price", "target price must be finite and positive", nil)
	// ErrMathConvergence 数学计算未收敛。
	ErrMathConvergence = New(ErrInternal, 500002, "math convergence failed", "algorithm failed to converge", nil)
)
