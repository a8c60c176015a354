package monitor

import (
	"context"
	"errors"
	"time"

	"github.com/KNICEX/token-watch/internal/service/notification"
	"github.com/shopspring/decimal"
)

var ErrAlertNotActive = errors.New("alert not found or not active")

// Stats 监控循环运行统计快照
type Stats struct {
	Running             bool          `json:"running"`
	Interval            time.Duration `json:"interval"`
	AlertsChecked       int64         `json:"alerts_checked"`
	AlertsTriggered     int64         `json:"alerts_triggered"`
	Errors              int64         `json:"errors"`
	ConsecutiveFailures int64         `json:"consecutive_failures"`
	Degraded            bool          `json:"degraded"`
	LastRun             time.Time     `json:"last_run"`
	LastPriceFetch      time.Time     `json:"last_price_fetch"`
	CacheSize           int           `json:"cache_size"`
	CachedTokens        []string      `json:"cached_tokens"`
}

type ForceCheckResult struct {
	AlertId       string                     `json:"alert_id"`
	Evaluated     bool                       `json:"evaluated"`
	Triggered     bool                       `json:"triggered"`
	CurrentPrices map[string]decimal.Decimal `json:"current_prices"`
}

type Service interface {
	Start() error
	Stop(ctx context.Context) error
	Stats() Stats
	ForceCheck(ctx context.Context, alertId string) (ForceCheckResult, error)
}

type Dispatcher interface {
	Dispatch(ctx context.Context, payload notification.Payload) []notification.Outcome
}
