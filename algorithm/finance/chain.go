package finance

import (
	"context"
	"time"

	"github.com/sourcegraph/conc/pool"
	"github.com/wyfcoding/optionpricing/algorithm/types"
	"github.com/wyfcoding/optionpricing/metrics"
	"github.com/wyfcoding/optionpricing/tracing"
	"github.com/wyfcoding/optionpricing/xerrors"
)

// ChainLeg 期权链中的一个合约。
// MarketPrice > 0 时先由市场价反解隐含波动率，再用该波动率计算价值和希腊字母，此时 Inputs.V 被忽略。
type ChainLeg struct {
	ID          string
	Style       types.ExerciseStyle
	Inputs      Inputs
	MarketPrice float64
}

// ChainQuote 单个合约的定价结果，Err 非空时其余字段无意义。
type ChainQuote struct {
	ID         string
	Result     Result
	ImpliedVol float64
	Err        error
}

// PriceChain 并发为整条期权链定价，结果顺序与输入一致。
// 单个合约失败只记录在对应的 ChainQuote.Err 中；只有 ctx 被取消时整体返回错误。
func (e *Engine) PriceChain(ctx context.Context, legs []ChainLeg) ([]ChainQuote, error) {
	ctx, span := e.tracer.Start(ctx, "finance.PriceChain")
	defer span.End()
	tracing.AddTag(ctx, "legs", len(legs))
	tracing.AddTag(ctx, "workers", e.workers)

	start := time.Now()
	quotes := make([]ChainQuote, len(legs))

	p := pool.New().WithMaxGoroutines(e.workers).WithContext(ctx)
	for i := range legs {
		p.Go(func(ctx context.Context) error {
			if err := ctx.Err(); err != nil {
				quotes[i] = ChainQuote{ID: legs[i].ID, Err: err}
				e.metrics.ObserveChainLeg(metrics.StatusCanceled)
				return err
			}
			quotes[i] = e.priceLeg(ctx, legs[i])
			e.metrics.ObserveChainLeg(legStatus(quotes[i].Err))
			return nil
		})
	}

	if err := p.Wait(); err != nil {
		cerr := xerrors.FromContext(err)
		tracing.SetError(ctx, cerr)
		e.logger.WarnContext(ctx, "option chain pricing interrupted", "legs", len(legs), "error", err)
		return quotes, cerr
	}

	e.logger.DebugContext(ctx, "option chain priced", "legs", len(legs), "duration", time.Since(start))
	return quotes, nil
}

func (e *Engine) priceLeg(ctx context.Context, leg ChainLeg) ChainQuote {
	q := ChainQuote{ID: leg.ID}
	in := leg.Inputs

	if leg.MarketPrice > 0 {
		vol, err := e.ImpliedVol(ctx, leg.Style, in, leg.MarketPrice)
		if err != nil {
			q.Err = err
			return q
		}
		q.ImpliedVol = vol
		in = in.WithVol(vol)
	}

	res, err := e.Price(ctx, leg.Style, in)
	if err != nil {
		q.Err = err
		return q
	}
	q.Result = res
	if q.ImpliedVol == 0 {
		q.ImpliedVol = in.V
	}
	return q
}

func legStatus(err error) string {
	switch {
	case err == nil:
		return metrics.StatusOK
	case IsValidationError(err):
		return metrics.StatusInvalid
	case IsConvergenceError(err):
		return metrics.StatusNoConverge
	default:
		return metrics.StatusUnknownFail
	}
}
