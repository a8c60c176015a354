package repo

import (
	"context"
	"errors"
	"time"

	"github.com/KNICEX/token-watch/internal/entity"
	"gorm.io/gorm"
)

var ErrAlertNotFound = errors.New("alert not found")

type AlertRepo interface {
	Create(ctx context.Context, alert entity.Alert) error
	FindById(ctx context.Context, id string) (entity.Alert, error)
	FindActive(ctx context.Context) ([]entity.Alert, error)
	FindByUser(ctx context.Context, userId string) ([]entity.Alert, error)
	// UpdateStatusFrom 条件状态迁移, 只有当前状态等于 from 才更新
	UpdateStatusFrom(ctx context.Context, id string, from, to string) (bool, error)
	DeleteOwned(ctx context.Context, id string, userId string) (bool, error)
}

type alertRepo struct {
	db *gorm.DB
}

func NewAlertRepo(db *gorm.DB) AlertRepo {
	return &alertRepo{
		db: db,
	}
}

func (r *alertRepo) Create(ctx context.Context, alert entity.Alert) error {
	return r.db.WithContext(ctx).Create(&alert).Error
}

func (r *alertRepo) FindById(ctx context.Context, id string) (entity.Alert, error) {
	var alert entity.Alert
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&alert).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entity.Alert{}, ErrAlertNotFound
		}
		return entity.Alert{}, err
	}
	return alert, nil
}

func (r *alertRepo) FindActive(ctx context.Context) ([]entity.Alert, error) {
	var alerts []entity.Alert
	err := r.db.WithContext(ctx).
		Where("status = ?", entity.AlertStatusActive).
		Order("created_at DESC").
		Find(&alerts).Error
	if err != nil {
		return nil, err
	}
	return alerts, nil
}

func (r *alertRepo) FindByUser(ctx context.Context, userId string) ([]entity.Alert, error) {
	var alerts []entity.Alert
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userId).
		Order("created_at DESC").
		Find(&alerts).Error
	if err != nil {
		return nil, err
	}
	return alerts, nil
}

// UpdateStatusFrom 单条带状态前置条件的 UPDATE, 并发迁移只有一方能成功,
// triggered 时同时写入 triggered_at
func (r *alertRepo) UpdateStatusFrom(ctx context.Context, id string, from, to string) (bool, error) {
	values := map[string]any{
		"status": to,
	}
	if to == entity.AlertStatusTriggered {
		values["triggered_at"] = time.Now()
	}
	res := r.db.WithContext(ctx).Model(&entity.Alert{}).
		Where("id = ? AND status = ?", id, from).
		Updates(values)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *alertRepo) DeleteOwned(ctx context.Context, id string, userId string) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userId).
		Delete(&entity.Alert{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
