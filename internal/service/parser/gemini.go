package parser

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/KNICEX/token-watch/internal/entity"
	"github.com/google/generative-ai-go/genai"
	"github.com/shopspring/decimal"
)

const systemPrompt = `You are a crypto price alert parser. Convert natural language into structured JSON.

SUPPORTED CONDITIONS:
- price_above: token goes above a price threshold
- price_below: token goes below a price threshold
- price_change: token changes by a percentage (negative for drops, e.g. -0.15)
- relative_change: multi-token change while a secondary token stays stable

GROUPS: "DeFi tokens" = AAVE, UNI, SUSHI, COMP, MKR, SNX, CRV, 1INCH

Reply with ONLY this JSON:
{"intent": "create_alert", "valid": true, "condition": {"condition_type": "...", "tokens": ["ETH"], "threshold": 4000.0, "timeframe": "24h", "secondary_condition": null}, "confidence": 0.9, "explanation": "..."}

Message: %s`

type geminiParser struct {
	model    *genai.GenerativeModel
	fallback Service
}

type GeminiOption func(p *geminiParser)

func WithModel(cli *genai.Client, name string) GeminiOption {
	return func(p *geminiParser) {
		p.model = cli.GenerativeModel(name)
	}
}

// NewGeminiParser 基于 Gemini 的解析器, 模型出错时回退到规则解析
func NewGeminiParser(cli *genai.Client, opts ...GeminiOption) Service {
	p := &geminiParser{
		model:    cli.GenerativeModel("gemini-2.0-flash"),
		fallback: NewRuleBasedParser(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.model.SetTemperature(0.1)
	return p
}

func (p *geminiParser) Parse(ctx context.Context, message string) (Parsed, error) {
	resp, err := p.model.GenerateContent(ctx, genai.Text(fmt.Sprintf(systemPrompt, message)))
	if err != nil {
		slog.Warn("gemini parse failed, falling back", "error", err)
		return p.fallback.Parse(ctx, message)
	}

	parsed, err := p.extract(collectText(resp))
	if err != nil {
		slog.Warn("gemini answer unusable, falling back", "error", err)
		return p.fallback.Parse(ctx, message)
	}
	return parsed, nil
}

type geminiAnswer struct {
	Intent    string `json:"intent"`
	Valid     bool   `json:"valid"`
	Condition struct {
		ConditionType string      `json:"condition_type"`
		Tokens        []string    `json:"tokens"`
		Threshold     json.Number `json:"threshold"`
		Timeframe     string      `json:"timeframe"`
		Secondary     *struct {
			Token     string      `json:"token"`
			Threshold json.Number `json:"threshold"`
		} `json:"secondary_condition"`
	} `json:"condition"`
	Confidence  float64 `json:"confidence"`
	Explanation string  `json:"explanation"`
}

func (p *geminiParser) extract(answer string) (Parsed, error) {
	// 剥掉 markdown 代码块, 只取最外层 JSON
	answer = strings.TrimSpace(answer)
	if start := strings.Index(answer, "{"); start >= 0 {
		if end := strings.LastIndex(answer, "}"); end > start {
			answer = answer[start : end+1]
		}
	}

	var res geminiAnswer
	if err := json.Unmarshal([]byte(answer), &res); err != nil {
		return Parsed{}, fmt.Errorf("decode model answer: %w", err)
	}
	if !res.Valid || res.Intent != "create_alert" {
		return Parsed{}, ErrUnparsable
	}

	kind := entity.ConditionKind(res.Condition.ConditionType)
	if !kind.Known() || len(res.Condition.Tokens) == 0 {
		return Parsed{}, ErrUnparsable
	}

	threshold, err := decimal.NewFromString(res.Condition.Threshold.String())
	if err != nil {
		return Parsed{}, fmt.Errorf("bad threshold %q: %w", res.Condition.Threshold, err)
	}

	tokens := make([]string, 0, len(res.Condition.Tokens))
	for _, raw := range res.Condition.Tokens {
		if strings.Contains(strings.ToLower(raw), "defi") {
			tokens = append([]string(nil), defiTokens...)
			break
		}
		tokens = append(tokens, normalizeToken(raw))
	}

	timeframe := res.Condition.Timeframe
	if timeframe == "" {
		timeframe = entity.DefaultTimeframe
	}

	cond := entity.Condition{
		Tokens:    tokens,
		Kind:      kind,
		Threshold: threshold,
		Timeframe: timeframe,
	}
	if sec := res.Condition.Secondary; sec != nil {
		band, err := decimal.NewFromString(sec.Threshold.String())
		if err != nil {
			band = entity.DefaultStabilityBand
		}
		cond.Secondary = &entity.SecondaryCondition{
			Token:     normalizeToken(sec.Token),
			Threshold: band,
		}
	}

	return Parsed{
		Condition:   cond,
		Confidence:  res.Confidence,
		Explanation: res.Explanation,
	}, nil
}

func collectText(resp *genai.GenerateContentResponse) string {
	var b strings.Builder
	if len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil {
		for i, part := range resp.Candidates[0].Content.Parts {
			if text, ok := part.(genai.Text); ok {
				if i > 0 {
					b.WriteString("\n")
				}
				b.WriteString(string(text))
			}
		}
	}
	return b.String()
}
