package alerts

import (
	"context"
	"errors"

	"github.com/KNICEX/token-watch/internal/entity"
)

var (
	ErrInvalidCondition = errors.New("invalid alert condition")
	ErrNotOwned         = errors.New("alert not found or not owned by user")
	ErrBadTransition    = errors.New("invalid alert status transition")
)

// Service 面向用户的告警管理, 由外部 CRUD 层调用.
// 状态只在 active <-> paused 间由用户切换, triggered 由监控引擎独占.
type Service interface {
	Create(ctx context.Context, userId, email string, cond entity.Condition, message string) (entity.Alert, error)
	List(ctx context.Context, userId string) ([]entity.Alert, error)
	Pause(ctx context.Context, id, userId string) error
	Resume(ctx context.Context, id, userId string) error
	Delete(ctx context.Context, id, userId string) error
	TriggerHistory(ctx context.Context, id, userId string) ([]entity.TriggerLog, error)
}
