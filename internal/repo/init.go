package repo

import (
	"github.com/KNICEX/token-watch/internal/entity"
	"gorm.io/gorm"
)

func InitTables(db *gorm.DB) error {
	return db.AutoMigrate(&entity.User{}, &entity.Alert{}, &entity.TriggerLog{}, &entity.PriceSample{})
}
