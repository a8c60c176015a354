package redstone

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/KNICEX/token-watch/internal/service/oracle"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"
)

const defaultBaseURL = "https://api.redstone.finance/prices"

// Service RedStone 预言机适配器
// https://api.redstone.finance/prices?symbol=USDC&provider=redstone
type Service struct {
	cli     *http.Client
	baseURL string
	limiter *rate.Limiter
}

type Option func(svc *Service)

func WithBaseURL(baseURL string) Option {
	return func(svc *Service) {
		svc.baseURL = baseURL
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(svc *Service) {
		svc.cli.Timeout = timeout
	}
}

func WithLimiter(limiter *rate.Limiter) Option {
	return func(svc *Service) {
		svc.limiter = limiter
	}
}

func NewService(opts ...Option) oracle.Service {
	svc := &Service{
		cli:     &http.Client{Timeout: 10 * time.Second},
		baseURL: defaultBaseURL,
		limiter: rate.NewLimiter(rate.Limit(10), 20),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

type priceEntry struct {
	Symbol    string      `json:"symbol"`
	Value     json.Number `json:"value"`
	Timestamp int64       `json:"timestamp"`
}

func (svc *Service) GetPrice(ctx context.Context, symbol string) oracle.Result {
	symbol = strings.ToUpper(symbol)
	res := oracle.Result{Symbol: symbol}

	if err := svc.limiter.Wait(ctx); err != nil {
		res.Err = err
		return res
	}

	reqURL := fmt.Sprintf("%s?symbol=%s&provider=redstone", svc.baseURL, url.QueryEscape(symbol))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		res.Err = err
		return res
	}

	resp, err := svc.cli.Do(req)
	if err != nil {
		if os.IsTimeout(err) || ctx.Err() != nil {
			res.Err = fmt.Errorf("%w: %s", oracle.ErrTimeout, symbol)
		} else {
			res.Err = fmt.Errorf("%w: %v", oracle.ErrFetchFailed, err)
		}
		return res
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		res.Err = fmt.Errorf("%w: status %d", oracle.ErrFetchFailed, resp.StatusCode)
		return res
	}

	var entries []priceEntry
	if err = json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		res.Err = fmt.Errorf("%w: %v", oracle.ErrFetchFailed, err)
		return res
	}
	if len(entries) == 0 {
		res.Err = fmt.Errorf("%w: %s", oracle.ErrEmptyResponse, symbol)
		return res
	}

	entry := entries[0]
	price, err := decimal.NewFromString(entry.Value.String())
	if err != nil || !price.IsPositive() {
		res.Err = fmt.Errorf("%w: %s value %q", oracle.ErrEmptyResponse, symbol, entry.Value)
		return res
	}

	res.Price = price
	if entry.Timestamp > 0 {
		res.Timestamp = time.UnixMilli(entry.Timestamp)
	}
	return res
}

func (svc *Service) GetPrices(ctx context.Context, symbols []string) map[string]oracle.Result {
	return oracle.FetchAll(ctx, svc, symbols)
}
