package oracle

import (
	"context"
	"testing"

	"github.com/KNICEX/token-watch/pkg/decimalx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedService struct {
	results map[string]Result
}

func (s *scriptedService) GetPrice(ctx context.Context, symbol string) Result {
	if res, ok := s.results[symbol]; ok {
		return res
	}
	return Result{Symbol: symbol, Err: ErrEmptyResponse}
}

func (s *scriptedService) GetPrices(ctx context.Context, symbols []string) map[string]Result {
	return FetchAll(ctx, s, symbols)
}

func TestFetchAllIsolatesFailures(t *testing.T) {
	svc := &scriptedService{results: map[string]Result{
		"ETH": {Symbol: "ETH", Price: decimalx.MustFromString("4000")},
		"BTC": {Symbol: "BTC", Err: ErrFetchFailed},
	}}

	out := FetchAll(context.Background(), svc, []string{"ETH", "BTC", "SOL"})

	require.Len(t, out, 3)
	assert.True(t, out["ETH"].Ok())
	assert.True(t, out["ETH"].Price.Equal(decimalx.MustFromString("4000")))
	assert.ErrorIs(t, out["BTC"].Err, ErrFetchFailed)
	assert.ErrorIs(t, out["SOL"].Err, ErrEmptyResponse)
}

func TestFetchAllUppercasesMissingSymbol(t *testing.T) {
	// 适配器没填 Symbol 时按入参归一化
	svc := &scriptedService{results: map[string]Result{
		"eth": {Price: decimalx.MustFromString("4000")},
	}}

	out := FetchAll(context.Background(), svc, []string{"eth"})
	res, ok := out["ETH"]
	require.True(t, ok)
	assert.True(t, res.Ok())
}

func TestFetchAllEmpty(t *testing.T) {
	out := FetchAll(context.Background(), &scriptedService{}, nil)
	assert.Empty(t, out)
}
