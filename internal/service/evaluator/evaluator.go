package evaluator

import (
	"context"
	"log/slog"

	"github.com/KNICEX/token-watch/internal/entity"
	"github.com/KNICEX/token-watch/internal/service/history"
	"github.com/KNICEX/token-watch/internal/service/pricecache"
	"github.com/shopspring/decimal"
)

// PriceGetter is the read side of the price cache.
type PriceGetter interface {
	Get(symbol string) (pricecache.Entry, bool)
}

type Evaluator struct {
	history history.Lookup
}

func New(historyLookup history.Lookup) *Evaluator {
	return &Evaluator{
		history: historyLookup,
	}
}

// Evaluate reports whether the condition is met against the current cache.
// Tokens without a cached price are skipped, never treated as a trigger.
func (e *Evaluator) Evaluate(ctx context.Context, cond entity.Condition, prices PriceGetter) (bool, error) {
	switch cond.Kind {
	case entity.KindPriceAbove:
		return e.checkBound(cond, prices, true), nil
	case entity.KindPriceBelow:
		return e.checkBound(cond, prices, false), nil
	case entity.KindPriceChange:
		return e.checkPriceChange(ctx, cond, prices)
	case entity.KindRelativeChange:
		return e.checkRelativeChange(ctx, cond, prices)
	default:
		slog.Warn("unknown condition kind", "kind", cond.Kind)
		return false, nil
	}
}

func (e *Evaluator) checkBound(cond entity.Condition, prices PriceGetter, above bool) bool {
	for _, token := range cond.Tokens {
		entry, ok := prices.Get(token)
		if !ok {
			slog.Warn("no price data", "token", token)
			continue
		}
		if above && entry.Price.GreaterThanOrEqual(cond.Threshold) {
			return true
		}
		if !above && entry.Price.LessThanOrEqual(cond.Threshold) {
			return true
		}
	}
	return false
}

func (e *Evaluator) checkPriceChange(ctx context.Context, cond entity.Condition, prices PriceGetter) (bool, error) {
	for _, token := range cond.Tokens {
		change, ok, err := e.change(ctx, token, cond.Timeframe, prices)
		if err != nil {
			return false, err
		}
		if !ok {
			continue
		}
		// 负阈值表示跌幅, 正阈值表示涨幅
		if cond.Threshold.IsNegative() && change.LessThanOrEqual(cond.Threshold) {
			return true, nil
		}
		if cond.Threshold.IsPositive() && change.GreaterThanOrEqual(cond.Threshold) {
			return true, nil
		}
	}
	return false, nil
}

// checkRelativeChange triggers only when the primary change condition is met
// AND the secondary token stayed inside its stability band. A secondary token
// without usable history fails closed.
func (e *Evaluator) checkRelativeChange(ctx context.Context, cond entity.Condition, prices PriceGetter) (bool, error) {
	primary, err := e.checkPriceChange(ctx, cond, prices)
	if err != nil || !primary {
		return false, err
	}
	if cond.Secondary == nil {
		return true, nil
	}

	token := cond.Secondary.Token
	if token == "" {
		token = "BTC"
	}
	band := cond.Secondary.Threshold
	if band.IsZero() {
		band = entity.DefaultStabilityBand
	}

	change, ok, err := e.change(ctx, token, cond.Timeframe, prices)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	return change.Abs().LessThanOrEqual(band), nil
}

// change computes (current - historical) / historical for one token.
// ok is false when either side of the comparison is unavailable.
func (e *Evaluator) change(ctx context.Context, token, timeframe string, prices PriceGetter) (decimal.Decimal, bool, error) {
	entry, ok := prices.Get(token)
	if !ok {
		return decimal.Zero, false, nil
	}
	historical, ok, err := e.history.HistoricalPrice(ctx, token, timeframe)
	if err != nil {
		return decimal.Zero, false, err
	}
	if !ok || historical.IsZero() {
		return decimal.Zero, false, nil
	}
	return entry.Price.Sub(historical).Div(historical), true, nil
}
