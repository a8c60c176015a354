package monitor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/KNICEX/token-watch/internal/entity"
	"github.com/KNICEX/token-watch/internal/repo"
	"github.com/KNICEX/token-watch/internal/schedule"
	"github.com/KNICEX/token-watch/internal/service/evaluator"
	"github.com/KNICEX/token-watch/internal/service/notification"
	"github.com/KNICEX/token-watch/internal/service/oracle"
	"github.com/KNICEX/token-watch/internal/service/pricecache"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

const (
	defaultInterval      = 30 * time.Second
	defaultRecoveryDelay = 5 * time.Second

	// degradedThreshold 连续失败达到该值后在统计中标记降级
	degradedThreshold = 3

	// defaultRetention 价格历史保留窗口, 要盖过最长的 timeframe
	defaultRetention = 30 * 24 * time.Hour
)

// Engine 告警监控引擎. 一个后台循环独占价格缓存的写入
// 和 active -> triggered 状态迁移, 触发因此天然只发生一次.
type Engine struct {
	alertRepo   repo.AlertRepo
	triggerRepo repo.TriggerLogRepo
	priceRepo   repo.PriceHistoryRepo

	oracleSvc  oracle.Service
	cache      *pricecache.Cache
	eval       *evaluator.Evaluator
	dispatcher Dispatcher

	interval      time.Duration
	recoveryDelay time.Duration
	retention     time.Duration
	source        string

	mu      sync.Mutex
	running bool
	runner  *schedule.IntervalRunner

	statsMu             sync.Mutex
	alertsChecked       int64
	alertsTriggered     int64
	errorCount          int64
	consecutiveFailures int64
	lastRun             time.Time
	lastPriceFetch      time.Time
}

type Option func(e *Engine)

func WithInterval(interval time.Duration) Option {
	return func(e *Engine) {
		if interval > 0 {
			e.interval = interval
		}
	}
}

func WithRecoveryDelay(delay time.Duration) Option {
	return func(e *Engine) {
		if delay > 0 {
			e.recoveryDelay = delay
		}
	}
}

// WithRetention 设置价格历史保留窗口
func WithRetention(retention time.Duration) Option {
	return func(e *Engine) {
		if retention > 0 {
			e.retention = retention
		}
	}
}

// WithSource 设置写入价格历史的数据源标记
func WithSource(source string) Option {
	return func(e *Engine) {
		e.source = source
	}
}

func NewEngine(
	alertRepo repo.AlertRepo,
	triggerRepo repo.TriggerLogRepo,
	priceRepo repo.PriceHistoryRepo,
	oracleSvc oracle.Service,
	cache *pricecache.Cache,
	eval *evaluator.Evaluator,
	dispatcher Dispatcher,
	opts ...Option,
) *Engine {
	e := &Engine{
		alertRepo:     alertRepo,
		triggerRepo:   triggerRepo,
		priceRepo:     priceRepo,
		oracleSvc:     oracleSvc,
		cache:         cache,
		eval:          eval,
		dispatcher:    dispatcher,
		interval:      defaultInterval,
		recoveryDelay: defaultRecoveryDelay,
		retention:     defaultRetention,
		source:        "redstone",
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Start 启动监控循环, 重复调用是空操作
func (e *Engine) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running {
		return nil
	}
	e.runner = schedule.NewIntervalRunner(e, e.interval, e.recoveryDelay)
	e.runner.Start()
	e.running = true
	slog.Info("alert engine started", "interval", e.interval)
	return nil
}

// Stop 通知循环退出并等待进行中的周期结束. 等待超时说明还有周期在跑,
// 此时引擎保持 running, 免得下一次 Start 再起第二个循环.
func (e *Engine) Stop(ctx context.Context) error {
	e.mu.Lock()
	runner := e.runner
	wasRunning := e.running
	e.mu.Unlock()

	if !wasRunning || runner == nil {
		return nil
	}
	if err := runner.Stop(ctx); err != nil {
		return err
	}

	e.mu.Lock()
	e.running = false
	e.runner = nil
	e.mu.Unlock()
	slog.Info("alert engine stopped")
	return nil
}

func (e *Engine) Name() string {
	return "alert monitoring cycle"
}

// Run executes one monitoring cycle. Also the schedule.Task entrypoint, so
// the scheduled path and ForceCheck share the exact same logic underneath.
func (e *Engine) Run(ctx context.Context) error {
	start := time.Now()

	alerts, err := e.alertRepo.FindActive(ctx)
	if err != nil {
		e.cycleFailed()
		return fmt.Errorf("list active alerts: %w", err)
	}

	triggered := 0
	if len(alerts) > 0 {
		e.refreshPrices(ctx, tokenUnion(alerts))

		for _, alert := range alerts {
			met, err := e.eval.Evaluate(ctx, alert.Condition, e.cache)
			e.bumpChecked()
			if err != nil {
				// 单个告警出错不能中断本轮其余告警
				slog.Error("failed to evaluate alert", "alert_id", alert.Id, "error", err)
				e.bumpErrors()
				continue
			}
			if !met {
				continue
			}
			e.trigger(ctx, alert)
			triggered++
		}
	}

	e.prunePriceHistory(ctx, start)

	e.cycleDone(start)
	slog.Info("monitoring cycle done",
		"alerts", len(alerts), "triggered", triggered, "elapsed", time.Since(start))
	return nil
}

// prunePriceHistory 每轮顺手清掉保留窗口之外的历史样本
func (e *Engine) prunePriceHistory(ctx context.Context, now time.Time) {
	pruned, err := e.priceRepo.PruneBefore(ctx, now.Add(-e.retention))
	if err != nil {
		slog.Error("failed to prune price history", "error", err)
		return
	}
	if pruned > 0 {
		slog.Debug("pruned price history", "samples", pruned)
	}
}

// ForceCheck 对单个告警立即执行一次检查, 语义与周期路径完全一致.
// 非 active 状态的告警返回明确的 not-active 结果而不是参与评估.
func (e *Engine) ForceCheck(ctx context.Context, alertId string) (ForceCheckResult, error) {
	alert, err := e.alertRepo.FindById(ctx, alertId)
	if err != nil {
		if errors.Is(err, repo.ErrAlertNotFound) {
			return ForceCheckResult{AlertId: alertId}, ErrAlertNotActive
		}
		return ForceCheckResult{AlertId: alertId}, err
	}
	if alert.Status != entity.AlertStatusActive {
		return ForceCheckResult{AlertId: alertId}, ErrAlertNotActive
	}

	e.refreshPrices(ctx, tokenUnion([]entity.Alert{alert}))

	met, err := e.eval.Evaluate(ctx, alert.Condition, e.cache)
	e.bumpChecked()
	if err != nil {
		e.bumpErrors()
		return ForceCheckResult{AlertId: alertId}, err
	}

	res := ForceCheckResult{
		AlertId:       alertId,
		Evaluated:     true,
		Triggered:     met,
		CurrentPrices: e.currentPrices(alert.Condition.Tokens),
	}
	if met {
		e.trigger(ctx, alert)
	}
	return res, nil
}

func (e *Engine) Stats() Stats {
	e.mu.Lock()
	running := e.running
	e.mu.Unlock()

	e.statsMu.Lock()
	defer e.statsMu.Unlock()
	return Stats{
		Running:             running,
		Interval:            e.interval,
		AlertsChecked:       e.alertsChecked,
		AlertsTriggered:     e.alertsTriggered,
		Errors:              e.errorCount,
		ConsecutiveFailures: e.consecutiveFailures,
		Degraded:            e.consecutiveFailures >= degradedThreshold,
		LastRun:             e.lastRun,
		LastPriceFetch:      e.lastPriceFetch,
		CacheSize:           e.cache.Len(),
		CachedTokens:        e.cache.Symbols(),
	}
}

// refreshPrices 批量抓取并把成功结果写入缓存和价格历史,
// 失败的币种保留旧缓存条目.
func (e *Engine) refreshPrices(ctx context.Context, tokens []string) {
	if len(tokens) == 0 {
		return
	}
	results := e.oracleSvc.GetPrices(ctx, tokens)
	now := time.Now()

	for symbol, res := range results {
		if !res.Ok() {
			slog.Warn("price fetch failed", "symbol", symbol, "error", res.Err)
			continue
		}
		e.cache.Update(symbol, res.Price, res.Timestamp, now)
		if err := e.priceRepo.Append(ctx, entity.PriceSample{
			Symbol:    symbol,
			Price:     res.Price,
			Timestamp: now,
			Source:    e.source,
		}); err != nil {
			slog.Error("failed to log price sample", "symbol", symbol, "error", err)
		}
	}

	e.statsMu.Lock()
	e.lastPriceFetch = now
	e.statsMu.Unlock()
}

// trigger performs the one-way active -> triggered transition. The status
// flip is claimed first with a conditional UPDATE so a force-check racing a
// cycle on the same alert notifies exactly once. Notification and audit log
// stay best-effort: a failing status write must not swallow the notification.
func (e *Engine) trigger(ctx context.Context, alert entity.Alert) {
	claimed, err := e.alertRepo.UpdateStatusFrom(ctx,
		alert.Id, entity.AlertStatusActive, entity.AlertStatusTriggered)
	if err != nil {
		slog.Error("failed to mark alert triggered", "alert_id", alert.Id, "error", err)
		e.bumpErrors()
	} else if !claimed {
		// 另一条路径已经完成迁移
		slog.Info("alert already triggered elsewhere", "alert_id", alert.Id)
		return
	}

	now := time.Now()
	payload := notification.Payload{
		AlertId:     alert.Id,
		UserId:      alert.UserId,
		UserEmail:   alert.UserEmail,
		Message:     alert.Message,
		Kind:        alert.Condition.Kind,
		Tokens:      alert.Condition.Tokens,
		Threshold:   alert.Condition.Threshold,
		TriggeredAt: now,
		Prices:      e.currentPrices(alert.Condition.Tokens),
	}

	e.dispatcher.Dispatch(ctx, payload)

	priceData, _ := json.Marshal(payload.Prices)
	if err := e.triggerRepo.Append(ctx, alert.Id, string(priceData)); err != nil {
		slog.Error("failed to append trigger log", "alert_id", alert.Id, "error", err)
	}

	slog.Info("alert triggered", "alert_id", alert.Id, "user_id", alert.UserId)
	e.bumpTriggered()
}

func (e *Engine) currentPrices(tokens []string) map[string]decimal.Decimal {
	prices := make(map[string]decimal.Decimal, len(tokens))
	for _, token := range tokens {
		if entry, ok := e.cache.Get(token); ok {
			prices[entry.Symbol] = entry.Price
		}
	}
	return prices
}

// tokenUnion 汇总所有告警涉及的币种, 含次要条件的币种
func tokenUnion(alerts []entity.Alert) []string {
	tokens := make([]string, 0, len(alerts))
	for _, alert := range alerts {
		for _, token := range alert.Condition.Tokens {
			tokens = append(tokens, strings.ToUpper(token))
		}
		if sec := alert.Condition.Secondary; sec != nil {
			token := sec.Token
			if token == "" {
				token = "BTC"
			}
			tokens = append(tokens, strings.ToUpper(token))
		}
	}
	return lo.Uniq(tokens)
}

func (e *Engine) bumpChecked() {
	e.statsMu.Lock()
	e.alertsChecked++
	e.statsMu.Unlock()
}

func (e *Engine) bumpTriggered() {
	e.statsMu.Lock()
	e.alertsTriggered++
	e.statsMu.Unlock()
}

func (e *Engine) bumpErrors() {
	e.statsMu.Lock()
	e.errorCount++
	e.statsMu.Unlock()
}

func (e *Engine) cycleDone(start time.Time) {
	e.statsMu.Lock()
	e.lastRun = start
	e.consecutiveFailures = 0
	e.statsMu.Unlock()
}

func (e *Engine) cycleFailed() {
	e.statsMu.Lock()
	e.errorCount++
	e.consecutiveFailures++
	degraded := e.consecutiveFailures >= degradedThreshold
	failures := e.consecutiveFailures
	e.statsMu.Unlock()

	if degraded {
		slog.Warn("alert engine degraded", "consecutive_failures", failures)
	}
}
