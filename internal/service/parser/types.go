package parser

import (
	"context"
	"errors"
	"strings"

	"github.com/KNICEX/token-watch/internal/entity"
)

var ErrUnparsable = errors.New("could not extract an alert condition")

// Parsed 自然语言解析出的结构化条件, 引擎只消费这个形状
type Parsed struct {
	Condition   entity.Condition
	Confidence  float64
	Explanation string
}

type Service interface {
	Parse(ctx context.Context, message string) (Parsed, error)
}

// tokenAliases 常见叫法到符号的映射
var tokenAliases = map[string]string{
	"bitcoin":   "BTC",
	"btc":       "BTC",
	"ethereum":  "ETH",
	"eth":       "ETH",
	"ether":     "ETH",
	"aave":      "AAVE",
	"uniswap":   "UNI",
	"uni":       "UNI",
	"sushi":     "SUSHI",
	"sushiswap": "SUSHI",
	"compound":  "COMP",
	"comp":      "COMP",
	"maker":     "MKR",
	"mkr":       "MKR",
	"synthetix": "SNX",
	"snx":       "SNX",
	"curve":     "CRV",
	"crv":       "CRV",
	"1inch":     "1INCH",
	"oneinch":   "1INCH",
}

var defiTokens = []string{"AAVE", "UNI", "SUSHI", "COMP", "MKR", "SNX", "CRV", "1INCH"}

func normalizeToken(raw string) string {
	if symbol, ok := tokenAliases[strings.ToLower(raw)]; ok {
		return symbol
	}
	return strings.ToUpper(raw)
}
