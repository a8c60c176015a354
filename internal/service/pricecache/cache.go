package pricecache

import (
	"strings"
	"sync"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

type Entry struct {
	Symbol     string
	Price      decimal.Decimal
	SourceTime time.Time // oracle-reported time, zero if absent
	ObservedAt time.Time // local fetch time
}

// Cache 进程内最新价格表, 只有监控循环写入, 不做淘汰.
// 抓取失败的币种不会覆盖已有条目, 旧价好过没价.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

func New() *Cache {
	return &Cache{
		entries: make(map[string]Entry),
	}
}

func (c *Cache) Update(symbol string, price decimal.Decimal, sourceTime, observedAt time.Time) {
	symbol = strings.ToUpper(symbol)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[symbol] = Entry{
		Symbol:     symbol,
		Price:      price,
		SourceTime: sourceTime,
		ObservedAt: observedAt,
	}
}

func (c *Cache) Get(symbol string) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[strings.ToUpper(symbol)]
	return entry, ok
}

// Snapshot returns an immutable copy for external readers.
func (c *Cache) Snapshot() map[string]Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]Entry, len(c.entries))
	for symbol, entry := range c.entries {
		out[symbol] = entry
	}
	return out
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *Cache) Symbols() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return lo.Keys(c.entries)
}
