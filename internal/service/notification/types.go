package notification

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/KNICEX/token-watch/internal/entity"
	"github.com/shopspring/decimal"
)

// Payload 告警触发事件, 分发给所有通知渠道
type Payload struct {
	AlertId     string                     `json:"alert_id"`
	UserId      string                     `json:"user_id"`
	UserEmail   string                     `json:"user_email"`
	Message     string                     `json:"message"`
	Kind        entity.ConditionKind       `json:"condition_type"`
	Tokens      []string                   `json:"tokens"`
	Threshold   decimal.Decimal            `json:"threshold"`
	TriggeredAt time.Time                  `json:"triggered_at"`
	Prices      map[string]decimal.Decimal `json:"prices"`
}

type Channel interface {
	Name() string
	Send(ctx context.Context, payload Payload) error
}

func (p Payload) Title() string {
	tokens := strings.Join(p.Tokens, ", ")
	switch p.Kind {
	case entity.KindPriceAbove:
		return fmt.Sprintf("Price Alert: %s Above Target", tokens)
	case entity.KindPriceBelow:
		return fmt.Sprintf("Price Alert: %s Below Target", tokens)
	case entity.KindPriceChange:
		if p.Threshold.IsNegative() {
			return fmt.Sprintf("Price Change Alert: %s Dropped", tokens)
		}
		return fmt.Sprintf("Price Change Alert: %s Increased", tokens)
	case entity.KindRelativeChange:
		return "Complex Alert Triggered"
	default:
		return "Alert Triggered"
	}
}

func (p Payload) Body() string {
	var b strings.Builder
	switch p.Kind {
	case entity.KindPriceAbove:
		fmt.Fprintf(&b, "%s has reached $%s.", strings.Join(p.Tokens, ", "), p.Threshold.StringFixed(2))
	case entity.KindPriceBelow:
		fmt.Fprintf(&b, "%s has dropped to $%s.", strings.Join(p.Tokens, ", "), p.Threshold.StringFixed(2))
	case entity.KindPriceChange:
		direction := "increased"
		if p.Threshold.IsNegative() {
			direction = "dropped"
		}
		pct := p.Threshold.Abs().Mul(decimal.NewFromInt(100))
		fmt.Fprintf(&b, "%s has %s by %s%%.", strings.Join(p.Tokens, ", "), direction, pct.StringFixed(1))
	case entity.KindRelativeChange:
		b.WriteString("Your complex alert condition has been met.")
	default:
		fmt.Fprintf(&b, "Alert condition met for %s.", strings.Join(p.Tokens, ", "))
	}
	if text := p.priceText(); text != "" {
		b.WriteString("\n\nCurrent prices: ")
		b.WriteString(text)
	}
	return b.String()
}

func (p Payload) priceText() string {
	if len(p.Prices) == 0 {
		return ""
	}
	tokens := make([]string, 0, len(p.Prices))
	for token := range p.Prices {
		tokens = append(tokens, token)
	}
	sort.Strings(tokens)

	parts := make([]string, 0, len(tokens))
	for _, token := range tokens {
		parts = append(parts, fmt.Sprintf("%s: $%s", token, p.Prices[token].StringFixed(2)))
	}
	return strings.Join(parts, ", ")
}
