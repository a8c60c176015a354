package binance

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/KNICEX/token-watch/internal/service/oracle"
	"github.com/adshao/go-binance/v2"
	"github.com/shopspring/decimal"
)

// Service 币安现货行情适配器, 作为 RedStone 之外的备选价格源
type Service struct {
	cli   *binance.Client
	quote string
}

type Option func(svc *Service)

func WithQuote(quote string) Option {
	return func(svc *Service) {
		svc.quote = quote
	}
}

func NewService(cli *binance.Client, opts ...Option) oracle.Service {
	svc := &Service{
		cli:   cli,
		quote: "USDT",
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

func (svc *Service) GetPrice(ctx context.Context, symbol string) oracle.Result {
	symbol = strings.ToUpper(symbol)
	res := oracle.Result{Symbol: symbol}

	prices, err := svc.cli.NewListPricesService().Symbol(symbol + svc.quote).Do(ctx)
	if err != nil {
		res.Err = fmt.Errorf("%w: %v", oracle.ErrFetchFailed, err)
		return res
	}
	if len(prices) == 0 {
		res.Err = fmt.Errorf("%w: %s", oracle.ErrEmptyResponse, symbol)
		return res
	}

	price, err := decimal.NewFromString(prices[0].Price)
	if err != nil || !price.IsPositive() {
		res.Err = fmt.Errorf("%w: %s price %q", oracle.ErrEmptyResponse, symbol, prices[0].Price)
		return res
	}

	res.Price = price
	res.Timestamp = time.Now()
	return res
}

func (svc *Service) GetPrices(ctx context.Context, symbols []string) map[string]oracle.Result {
	return oracle.FetchAll(ctx, svc, symbols)
}
