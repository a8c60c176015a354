package notification

import (
	"context"
	"log/slog"
	"sync"
)

type Outcome struct {
	Channel string
	Err     error
}

type ChannelStats struct {
	Sent   int64
	Failed int64
}

// Dispatcher 通知分发器. 每个渠道独立尝试, 单渠道失败只计数不拦截其他渠道.
type Dispatcher struct {
	channels []Channel

	mu    sync.Mutex
	stats map[string]*ChannelStats
}

func NewDispatcher(channels ...Channel) *Dispatcher {
	d := &Dispatcher{
		channels: channels,
		stats:    make(map[string]*ChannelStats),
	}
	for _, ch := range channels {
		d.stats[ch.Name()] = &ChannelStats{}
	}
	return d
}

func (d *Dispatcher) Dispatch(ctx context.Context, payload Payload) []Outcome {
	outcomes := make([]Outcome, 0, len(d.channels))
	for _, ch := range d.channels {
		err := ch.Send(ctx, payload)
		if err != nil {
			slog.Error("notification channel failed",
				"channel", ch.Name(), "alert_id", payload.AlertId, "error", err)
		}
		d.record(ch.Name(), err)
		outcomes = append(outcomes, Outcome{Channel: ch.Name(), Err: err})
	}
	return outcomes
}

func (d *Dispatcher) record(channel string, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	stats, ok := d.stats[channel]
	if !ok {
		stats = &ChannelStats{}
		d.stats[channel] = stats
	}
	if err != nil {
		stats.Failed++
	} else {
		stats.Sent++
	}
}

// Stats returns a snapshot of per-channel send/fail counters.
func (d *Dispatcher) Stats() map[string]ChannelStats {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make(map[string]ChannelStats, len(d.stats))
	for name, stats := range d.stats {
		out[name] = *stats
	}
	return out
}
