package repo

import (
	"context"
	"errors"
	"time"

	"github.com/KNICEX/token-watch/internal/entity"
	"gorm.io/gorm"
)

type PriceHistoryRepo interface {
	Append(ctx context.Context, sample entity.PriceSample) error
	// LatestBefore returns the most recent sample for symbol taken at or before t.
	LatestBefore(ctx context.Context, symbol string, t time.Time) (entity.PriceSample, bool, error)
	PruneBefore(ctx context.Context, t time.Time) (int64, error)
}

type priceHistoryRepo struct {
	db *gorm.DB
}

func NewPriceHistoryRepo(db *gorm.DB) PriceHistoryRepo {
	return &priceHistoryRepo{
		db: db,
	}
}

func (r *priceHistoryRepo) Append(ctx context.Context, sample entity.PriceSample) error {
	return r.db.WithContext(ctx).Create(&sample).Error
}

func (r *priceHistoryRepo) LatestBefore(ctx context.Context, symbol string, t time.Time) (entity.PriceSample, bool, error) {
	var sample entity.PriceSample
	err := r.db.WithContext(ctx).
		Where("symbol = ? AND timestamp <= ?", symbol, t).
		Order("timestamp DESC").
		First(&sample).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entity.PriceSample{}, false, nil
		}
		return entity.PriceSample{}, false, err
	}
	return sample, true, nil
}

func (r *priceHistoryRepo) PruneBefore(ctx context.Context, t time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("timestamp < ?", t).
		Delete(&entity.PriceSample{})
	return res.RowsAffected, res.Error
}
