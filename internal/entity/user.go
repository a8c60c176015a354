package entity

import (
	"time"
)

type User struct {
	UserId             string `gorm:"primaryKey"`
	Email              string
	EmailNotifications bool `gorm:"default:true"`
	CreatedAt          time.Time
}
