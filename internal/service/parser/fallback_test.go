package parser

import (
	"context"
	"testing"

	"github.com/KNICEX/token-watch/internal/entity"
	"github.com/KNICEX/token-watch/pkg/decimalx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRuleBasedParse(t *testing.T) {
	tests := []struct {
		name      string
		message   string
		tokens    []string
		kind      entity.ConditionKind
		threshold string
	}{
		{
			name:      "hits 表示上穿",
			message:   "alert me when ETH hits $4000",
			tokens:    []string{"ETH"},
			kind:      entity.KindPriceAbove,
			threshold: "4000",
		},
		{
			name:      "别名归一化",
			message:   "tell me if bitcoin goes above 100000",
			tokens:    []string{"BTC"},
			kind:      entity.KindPriceAbove,
			threshold: "100000",
		},
		{
			name:      "below 表示下穿",
			message:   "notify when SOL goes below $150",
			tokens:    []string{"SOL"},
			kind:      entity.KindPriceBelow,
			threshold: "150",
		},
		{
			name:      "百分比跌幅转负小数",
			message:   "uniswap drops 15%",
			tokens:    []string{"UNI"},
			kind:      entity.KindPriceChange,
			threshold: "-0.15",
		},
		{
			name:      "drops to 价格是下穿而不是跌幅",
			message:   "AAVE drops to $80",
			tokens:    []string{"AAVE"},
			kind:      entity.KindPriceBelow,
			threshold: "80",
		},
		{
			name:      "DEFI 展开成篮子",
			message:   "DEFI drops 10%",
			tokens:    []string{"AAVE", "UNI", "SUSHI", "COMP", "MKR", "SNX", "CRV", "1INCH"},
			kind:      entity.KindPriceChange,
			threshold: "-0.1",
		},
	}

	p := NewRuleBasedParser()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed, err := p.Parse(context.Background(), tt.message)
			require.NoError(t, err)
			assert.Equal(t, tt.tokens, parsed.Condition.Tokens)
			assert.Equal(t, tt.kind, parsed.Condition.Kind)
			assert.True(t, parsed.Condition.Threshold.Equal(decimalx.MustFromString(tt.threshold)),
				"threshold %s != %s", parsed.Condition.Threshold, tt.threshold)
			assert.Equal(t, entity.DefaultTimeframe, parsed.Condition.Timeframe)
			assert.Greater(t, parsed.Confidence, 0.0)
		})
	}
}

func TestRuleBasedParseUnparsable(t *testing.T) {
	p := NewRuleBasedParser()
	_, err := p.Parse(context.Background(), "good morning")
	assert.ErrorIs(t, err, ErrUnparsable)
}

func TestNormalizeToken(t *testing.T) {
	assert.Equal(t, "BTC", normalizeToken("Bitcoin"))
	assert.Equal(t, "ETH", normalizeToken("ether"))
	assert.Equal(t, "SOL", normalizeToken("sol"))
	assert.Equal(t, "1INCH", normalizeToken("oneinch"))
}
