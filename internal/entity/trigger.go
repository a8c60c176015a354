package entity

import (
	"time"
)

// TriggerLog 告警触发审计记录, 只追加不修改
type TriggerLog struct {
	Id          int64  `gorm:"primaryKey;autoIncrement"`
	AlertId     string `gorm:"index"`
	TriggeredAt time.Time
	PriceData   string // JSON snapshot of token prices at trigger time
}
