package repo

import (
	"context"
	"time"

	"github.com/KNICEX/token-watch/internal/entity"
	"gorm.io/gorm"
)

type TriggerLogRepo interface {
	Append(ctx context.Context, alertId string, priceData string) error
	FindByAlert(ctx context.Context, alertId string) ([]entity.TriggerLog, error)
}

type triggerLogRepo struct {
	db *gorm.DB
}

func NewTriggerLogRepo(db *gorm.DB) TriggerLogRepo {
	return &triggerLogRepo{
		db: db,
	}
}

func (r *triggerLogRepo) Append(ctx context.Context, alertId string, priceData string) error {
	return r.db.WithContext(ctx).Create(&entity.TriggerLog{
		AlertId:     alertId,
		TriggeredAt: time.Now(),
		PriceData:   priceData,
	}).Error
}

func (r *triggerLogRepo) FindByAlert(ctx context.Context, alertId string) ([]entity.TriggerLog, error) {
	var logs []entity.TriggerLog
	err := r.db.WithContext(ctx).
		Where("alert_id = ?", alertId).
		Order("triggered_at DESC").
		Find(&logs).Error
	if err != nil {
		return nil, err
	}
	return logs, nil
}
