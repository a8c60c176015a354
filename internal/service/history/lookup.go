package history

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/KNICEX/token-watch/internal/repo"
	"github.com/shopspring/decimal"
)

const DefaultTimeframe = 24 * time.Hour

// Lookup answers "what did this token cost one timeframe ago".
// The monitoring loop keeps the backing table filled, so answers only
// become available once the process has been watching that long.
type Lookup interface {
	HistoricalPrice(ctx context.Context, symbol string, timeframe string) (decimal.Decimal, bool, error)
}

type repoLookup struct {
	priceRepo repo.PriceHistoryRepo
	now       func() time.Time
}

func NewRepoLookup(priceRepo repo.PriceHistoryRepo) Lookup {
	return &repoLookup{
		priceRepo: priceRepo,
		now:       time.Now,
	}
}

func (l *repoLookup) HistoricalPrice(ctx context.Context, symbol string, timeframe string) (decimal.Decimal, bool, error) {
	cutoff := l.now().Add(-ParseTimeframe(timeframe))
	sample, ok, err := l.priceRepo.LatestBefore(ctx, strings.ToUpper(symbol), cutoff)
	if err != nil || !ok {
		return decimal.Zero, false, err
	}
	return sample.Price, true, nil
}

// ParseTimeframe maps labels like "30m", "1h", "24h", "7d" to durations.
// Unparseable labels fall back to 24h rather than erroring.
func ParseTimeframe(timeframe string) time.Duration {
	timeframe = strings.ToLower(strings.TrimSpace(timeframe))
	if timeframe == "" {
		return DefaultTimeframe
	}
	if strings.HasSuffix(timeframe, "d") {
		days, err := strconv.Atoi(strings.TrimSuffix(timeframe, "d"))
		if err != nil || days <= 0 {
			return DefaultTimeframe
		}
		return time.Duration(days) * 24 * time.Hour
	}
	d, err := time.ParseDuration(timeframe)
	if err != nil || d <= 0 {
		return DefaultTimeframe
	}
	return d
}
