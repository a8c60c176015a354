package entity

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type ConditionKind string

const (
	KindPriceAbove     ConditionKind = "price_above"
	KindPriceBelow     ConditionKind = "price_below"
	KindPriceChange    ConditionKind = "price_change"
	KindRelativeChange ConditionKind = "relative_change"
)

func (k ConditionKind) Known() bool {
	switch k {
	case KindPriceAbove, KindPriceBelow, KindPriceChange, KindRelativeChange:
		return true
	}
	return false
}

const DefaultTimeframe = "24h"

// DefaultStabilityBand 次要条件默认稳定区间 ±3%
var DefaultStabilityBand = decimal.NewFromFloat(0.03)

// SecondaryCondition 稳定性约束, 例如 "BTC 波动不超过3%"
type SecondaryCondition struct {
	Token     string          `json:"token"`
	Threshold decimal.Decimal `json:"threshold"`
}

// Condition 告警条件, 创建后不可变
type Condition struct {
	Tokens    []string            `json:"tokens"`
	Kind      ConditionKind       `json:"condition_type"`
	Threshold decimal.Decimal     `json:"threshold"`
	Timeframe string              `json:"timeframe"`
	Secondary *SecondaryCondition `json:"secondary_condition,omitempty"`
}

func (c Condition) Value() (driver.Value, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshal condition: %w", err)
	}
	return string(data), nil
}

func (c *Condition) Scan(src any) error {
	switch v := src.(type) {
	case string:
		return json.Unmarshal([]byte(v), c)
	case []byte:
		return json.Unmarshal(v, c)
	default:
		return fmt.Errorf("unsupported condition column type %T", src)
	}
}

const (
	AlertStatusActive    = "active"
	AlertStatusPaused    = "paused"
	AlertStatusTriggered = "triggered"
	AlertStatusExpired   = "expired"
)

type Alert struct {
	Id          string `gorm:"primaryKey"`
	UserId      string `gorm:"index"`
	UserEmail   string
	Condition   Condition `gorm:"type:text"`
	Status      string    `gorm:"index"`
	Message     string
	CreatedAt   time.Time `gorm:"index"`
	TriggeredAt *time.Time
}
