package oracle

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrTimeout       = errors.New("price fetch timeout")
	ErrFetchFailed   = errors.New("price fetch failed")
	ErrEmptyResponse = errors.New("empty price response")
)

// Result 单个币种的抓取结果, Err 非空时价格不可用
type Result struct {
	Symbol    string
	Price     decimal.Decimal
	Timestamp time.Time // oracle-reported time, zero if the source gave none
	Err       error
}

func (r Result) Ok() bool {
	return r.Err == nil
}

type Service interface {
	GetPrice(ctx context.Context, symbol string) Result
	GetPrices(ctx context.Context, symbols []string) map[string]Result
}

// FetchAll fetches every symbol concurrently. One symbol failing only marks
// its own Result; the rest of the batch is unaffected.
func FetchAll(ctx context.Context, svc Service, symbols []string) map[string]Result {
	results := make([]Result, len(symbols))
	var wg sync.WaitGroup
	for i, symbol := range symbols {
		wg.Add(1)
		go func(i int, symbol string) {
			defer wg.Done()
			results[i] = svc.GetPrice(ctx, symbol)
		}(i, symbol)
	}
	wg.Wait()

	out := make(map[string]Result, len(symbols))
	for i, res := range results {
		if res.Symbol == "" {
			res.Symbol = strings.ToUpper(symbols[i])
		}
		out[res.Symbol] = res
	}
	return out
}
