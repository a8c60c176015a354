package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceSample 历史价格采样, 由监控循环在每轮抓取后写入
type PriceSample struct {
	Id        int64           `gorm:"primaryKey;autoIncrement"`
	Symbol    string          `gorm:"index:idx_price_symbol_ts"`
	Price     decimal.Decimal `gorm:"type:text"`
	Timestamp time.Time       `gorm:"index:idx_price_symbol_ts"`
	Source    string
}
