package alerts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/KNICEX/token-watch/internal/entity"
	"github.com/KNICEX/token-watch/internal/repo"
	"github.com/google/uuid"
)

type service struct {
	alertRepo   repo.AlertRepo
	userRepo    repo.UserRepo
	triggerRepo repo.TriggerLogRepo
}

func NewService(alertRepo repo.AlertRepo, userRepo repo.UserRepo, triggerRepo repo.TriggerLogRepo) Service {
	return &service{
		alertRepo:   alertRepo,
		userRepo:    userRepo,
		triggerRepo: triggerRepo,
	}
}

func (s *service) Create(ctx context.Context, userId, email string, cond entity.Condition, message string) (entity.Alert, error) {
	if len(cond.Tokens) == 0 {
		return entity.Alert{}, fmt.Errorf("%w: no tokens", ErrInvalidCondition)
	}
	if !cond.Kind.Known() {
		return entity.Alert{}, fmt.Errorf("%w: unknown kind %q", ErrInvalidCondition, cond.Kind)
	}
	if cond.Timeframe == "" {
		cond.Timeframe = entity.DefaultTimeframe
	}

	user, err := s.userRepo.GetOrCreate(ctx, userId, email)
	if err != nil {
		return entity.Alert{}, fmt.Errorf("ensure user: %w", err)
	}
	if email != "" && user.Email != email {
		if err = s.userRepo.UpdateEmail(ctx, userId, email); err != nil {
			return entity.Alert{}, fmt.Errorf("update user email: %w", err)
		}
		user.Email = email
	}

	alert := entity.Alert{
		Id:        uuid.NewString(),
		UserId:    userId,
		UserEmail: user.Email, // denormalized for delivery, may go stale
		Condition: cond,
		Status:    entity.AlertStatusActive,
		Message:   message,
		CreatedAt: time.Now(),
	}
	if err = s.alertRepo.Create(ctx, alert); err != nil {
		return entity.Alert{}, fmt.Errorf("create alert: %w", err)
	}
	slog.Info("alert created", "alert_id", alert.Id, "user_id", userId, "kind", cond.Kind)
	return alert, nil
}

func (s *service) List(ctx context.Context, userId string) ([]entity.Alert, error) {
	return s.alertRepo.FindByUser(ctx, userId)
}

func (s *service) Pause(ctx context.Context, id, userId string) error {
	return s.setStatus(ctx, id, userId, entity.AlertStatusActive, entity.AlertStatusPaused)
}

func (s *service) Resume(ctx context.Context, id, userId string) error {
	return s.setStatus(ctx, id, userId, entity.AlertStatusPaused, entity.AlertStatusActive)
}

func (s *service) setStatus(ctx context.Context, id, userId, from, to string) error {
	alert, err := s.owned(ctx, id, userId)
	if err != nil {
		return err
	}
	if alert.Status != from {
		return fmt.Errorf("%w: %s -> %s", ErrBadTransition, alert.Status, to)
	}
	moved, err := s.alertRepo.UpdateStatusFrom(ctx, id, from, to)
	if err != nil {
		return err
	}
	if !moved {
		// 读到状态之后有别的路径抢先迁移了
		return fmt.Errorf("%w: alert is no longer %s", ErrBadTransition, from)
	}
	return nil
}

func (s *service) Delete(ctx context.Context, id, userId string) error {
	deleted, err := s.alertRepo.DeleteOwned(ctx, id, userId)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrNotOwned
	}
	slog.Info("alert deleted", "alert_id", id, "user_id", userId)
	return nil
}

func (s *service) TriggerHistory(ctx context.Context, id, userId string) ([]entity.TriggerLog, error) {
	if _, err := s.owned(ctx, id, userId); err != nil {
		return nil, err
	}
	return s.triggerRepo.FindByAlert(ctx, id)
}

func (s *service) owned(ctx context.Context, id, userId string) (entity.Alert, error) {
	alert, err := s.alertRepo.FindById(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrAlertNotFound) {
			return entity.Alert{}, ErrNotOwned
		}
		return entity.Alert{}, err
	}
	if alert.UserId != userId {
		return entity.Alert{}, ErrNotOwned
	}
	return alert, nil
}
