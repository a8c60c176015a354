package parser

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/KNICEX/token-watch/internal/entity"
	"github.com/shopspring/decimal"
)

// ruleBasedParser 正则规则解析, 没有模型可用时的兜底
type ruleBasedParser struct {
}

func NewRuleBasedParser() Service {
	return &ruleBasedParser{}
}

type pattern struct {
	kind entity.ConditionKind
	re   *regexp.Regexp
}

var patterns = []pattern{
	{entity.KindPriceAbove, regexp.MustCompile(`(?i)(\w+)\s+(?:hits|reaches|goes above|above|over)\s+\$?(\d+\.?\d*)`)},
	{entity.KindPriceBelow, regexp.MustCompile(`(?i)(\w+)\s+(?:goes below|below|under)\s+\$?(\d+\.?\d*)`)},
	{entity.KindPriceChange, regexp.MustCompile(`(?i)(\w+)\s+(?:drops|falls)\s+(?:by\s+)?(\d+\.?\d*)\s*%`)},
	{entity.KindPriceBelow, regexp.MustCompile(`(?i)(\w+)\s+(?:drops|falls)\s+(?:to\s+)?\$?(\d+\.?\d*)`)},
	{entity.KindPriceAbove, regexp.MustCompile(`(?i)when\s+(\w+)\s+\$?(\d+\.?\d*)`)},
}

func (p *ruleBasedParser) Parse(ctx context.Context, message string) (Parsed, error) {
	for _, pat := range patterns {
		match := pat.re.FindStringSubmatch(message)
		if match == nil {
			continue
		}

		token := normalizeToken(match[1])
		threshold, err := decimal.NewFromString(match[2])
		if err != nil {
			continue
		}
		// 百分比跌幅转为负的小数阈值
		if pat.kind == entity.KindPriceChange {
			threshold = threshold.Div(decimal.NewFromInt(100)).Neg()
		}

		tokens := []string{token}
		if strings.EqualFold(token, "DEFI") {
			tokens = append([]string(nil), defiTokens...)
		}

		return Parsed{
			Condition: entity.Condition{
				Tokens:    tokens,
				Kind:      pat.kind,
				Threshold: threshold,
				Timeframe: entity.DefaultTimeframe,
			},
			Confidence:  0.7,
			Explanation: fmt.Sprintf("pattern match: %s for %s", pat.kind, token),
		}, nil
	}
	return Parsed{}, ErrUnparsable
}
