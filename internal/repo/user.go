package repo

import (
	"context"
	"errors"
	"time"

	"github.com/KNICEX/token-watch/internal/entity"
	"gorm.io/gorm"
)

type UserRepo interface {
	GetOrCreate(ctx context.Context, userId string, email string) (entity.User, error)
	FindById(ctx context.Context, userId string) (entity.User, error)
	UpdateEmail(ctx context.Context, userId string, email string) error
}

type userRepo struct {
	db *gorm.DB
}

func NewUserRepo(db *gorm.DB) UserRepo {
	return &userRepo{
		db: db,
	}
}

func (r *userRepo) GetOrCreate(ctx context.Context, userId string, email string) (entity.User, error) {
	var user entity.User
	err := r.db.WithContext(ctx).Where("user_id = ?", userId).First(&user).Error
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return entity.User{}, err
	}

	user = entity.User{
		UserId:             userId,
		Email:              email,
		EmailNotifications: true,
		CreatedAt:          time.Now(),
	}
	if err = r.db.WithContext(ctx).Create(&user).Error; err != nil {
		return entity.User{}, err
	}
	return user, nil
}

func (r *userRepo) FindById(ctx context.Context, userId string) (entity.User, error) {
	var user entity.User
	err := r.db.WithContext(ctx).Where("user_id = ?", userId).First(&user).Error
	if err != nil {
		return entity.User{}, err
	}
	return user, nil
}

func (r *userRepo) UpdateEmail(ctx context.Context, userId string, email string) error {
	if _, err := r.GetOrCreate(ctx, userId, email); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Model(&entity.User{}).
		Where("user_id = ?", userId).
		Update("email", email).Error
}
