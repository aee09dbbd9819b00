package finance

import (
	"github.com/shopspring/decimal"
	"github.com/wyfcoding/optionpricing/algorithm/types"
)

// Quote 以 decimal 表示的报价，沿用交易台展示习惯：
// Theta 为每日值，Vega 为波动率变动 1 个百分点的价值变化，Rho 为利率变动 1 个百分点的价值变化。
type Quote struct {
	Price decimal.Decimal
	Delta decimal.Decimal
	Gamma decimal.Decimal
	Vega  decimal.Decimal
	Theta decimal.Decimal
	Rho   decimal.Decimal
}

// Quote 将浮点结果转换为保留 places 位小数的报价。
func (r Result) Quote(places int32) Quote {
	d := func(f float64) decimal.Decimal { return decimal.NewFromFloat(f).Round(places) }
	return Quote{
		Price: d(r.Value),
		Delta: d(r.Delta),
		Gamma: d(r.Gamma),
		Vega:  d(r.Vega / 100),
		Theta: d(r.DailyTheta()),
		Rho:   d(r.Rho / 100),
	}
}

// Calculator 面向 decimal 账簿的期权计算器，内部委托给 Engine。
type Calculator struct {
	engine *Engine
	places int32
}

// NewCalculator 创建计算器，engine 为 nil 时使用默认引擎。
func NewCalculator(engine *Engine, places int32) *Calculator {
	if engine == nil {
		engine = defaultEngine
	}
	return &Calculator{engine: engine, places: places}
}

// Calculate 欧式股票期权（连续股息率 div）一次性计算价格及所有希腊字母。
func (c *Calculator) Calculate(optionType string, spot, strike, expiry, rate, vol, div decimal.Decimal) (*Quote, error) {
	res, err := c.engine.Merton(types.ParseOptionType(optionType),
		spot.InexactFloat64(), strike.InexactFloat64(), expiry.InexactFloat64(),
		rate.InexactFloat64(), div.InexactFloat64(), vol.InexactFloat64())
	if err != nil {
		return nil, err
	}
	q := res.Quote(c.places)
	return &q, nil
}

// CalculateAmerican 美式股票期权。
func (c *Calculator) CalculateAmerican(optionType string, spot, strike, expiry, rate, vol, div decimal.Decimal) (*Quote, error) {
	res, err := c.engine.American(types.ParseOptionType(optionType),
		spot.InexactFloat64(), strike.InexactFloat64(), expiry.InexactFloat64(),
		rate.InexactFloat64(), div.InexactFloat64(), vol.InexactFloat64())
	if err != nil {
		return nil, err
	}
	q := res.Quote(c.places)
	return &q, nil
}

// CalculateImpliedVolatility 由市场价反解欧式隐含波动率。
func (c *Calculator) CalculateImpliedVolatility(optionType string, spot, strike, expiry, rate, div, marketPrice decimal.Decimal) (decimal.Decimal, error) {
	v, err := c.engine.EuroImpliedVol(types.ParseOptionType(optionType),
		spot.InexactFloat64(), strike.InexactFloat64(), expiry.InexactFloat64(),
		rate.InexactFloat64(), div.InexactFloat64(), marketPrice.InexactFloat64())
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromFloat(v).Round(c.places), nil
}
