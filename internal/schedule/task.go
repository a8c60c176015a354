package schedule

import (
	"context"
	"log/slog"
	"time"
)

type Task interface {
	Run(ctx context.Context) error
	Name() string
}

// IntervalRunner 周期执行一个任务. 任务出错时用较短的恢复间隔重试,
// 循环本身永远不会因为任务失败而退出.
type IntervalRunner struct {
	task     Task
	interval time.Duration
	recovery time.Duration

	stop chan struct{}
	done chan struct{}
}

func NewIntervalRunner(task Task, interval, recovery time.Duration) *IntervalRunner {
	if recovery <= 0 || recovery > interval {
		recovery = interval
	}
	return &IntervalRunner{
		task:     task,
		interval: interval,
		recovery: recovery,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

func (r *IntervalRunner) Start() {
	go r.loop()
}

func (r *IntervalRunner) loop() {
	defer close(r.done)
	for {
		select {
		case <-r.stop:
			return
		default:
		}

		delay := r.interval
		if err := r.task.Run(context.Background()); err != nil {
			slog.Error("scheduled task failed", "task", r.task.Name(), "error", err)
			delay = r.recovery
		}

		select {
		case <-r.stop:
			return
		case <-time.After(delay):
		}
	}
}

// Stop signals the loop and waits for an in-flight run to finish.
func (r *IntervalRunner) Stop(ctx context.Context) error {
	select {
	case <-r.stop:
	default:
		close(r.stop)
	}
	select {
	case <-r.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
