package alerts

import (
	"context"
	"testing"
	"time"

	"github.com/KNICEX/token-watch/internal/entity"
	"github.com/KNICEX/token-watch/internal/repo"
	"github.com/KNICEX/token-watch/pkg/decimalx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memAlertRepo struct {
	alerts map[string]entity.Alert
}

func newMemAlertRepo() *memAlertRepo {
	return &memAlertRepo{alerts: make(map[string]entity.Alert)}
}

func (r *memAlertRepo) Create(ctx context.Context, alert entity.Alert) error {
	r.alerts[alert.Id] = alert
	return nil
}

func (r *memAlertRepo) FindById(ctx context.Context, id string) (entity.Alert, error) {
	alert, ok := r.alerts[id]
	if !ok {
		return entity.Alert{}, repo.ErrAlertNotFound
	}
	return alert, nil
}

func (r *memAlertRepo) FindActive(ctx context.Context) ([]entity.Alert, error) {
	return nil, nil
}

func (r *memAlertRepo) FindByUser(ctx context.Context, userId string) ([]entity.Alert, error) {
	var out []entity.Alert
	for _, alert := range r.alerts {
		if alert.UserId == userId {
			out = append(out, alert)
		}
	}
	return out, nil
}

func (r *memAlertRepo) UpdateStatusFrom(ctx context.Context, id string, from, to string) (bool, error) {
	alert, ok := r.alerts[id]
	if !ok || alert.Status != from {
		return false, nil
	}
	alert.Status = to
	r.alerts[id] = alert
	return true, nil
}

func (r *memAlertRepo) DeleteOwned(ctx context.Context, id string, userId string) (bool, error) {
	alert, ok := r.alerts[id]
	if !ok || alert.UserId != userId {
		return false, nil
	}
	delete(r.alerts, id)
	return true, nil
}

type memUserRepo struct {
	users map[string]entity.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[string]entity.User)}
}

func (r *memUserRepo) GetOrCreate(ctx context.Context, userId string, email string) (entity.User, error) {
	if user, ok := r.users[userId]; ok {
		return user, nil
	}
	user := entity.User{
		UserId:             userId,
		Email:              email,
		EmailNotifications: true,
		CreatedAt:          time.Now(),
	}
	r.users[userId] = user
	return user, nil
}

func (r *memUserRepo) FindById(ctx context.Context, userId string) (entity.User, error) {
	return r.users[userId], nil
}

func (r *memUserRepo) UpdateEmail(ctx context.Context, userId string, email string) error {
	user := r.users[userId]
	user.Email = email
	r.users[userId] = user
	return nil
}

type memTriggerRepo struct {
	logs map[string][]entity.TriggerLog
}

func (r *memTriggerRepo) Append(ctx context.Context, alertId string, priceData string) error {
	if r.logs == nil {
		r.logs = make(map[string][]entity.TriggerLog)
	}
	r.logs[alertId] = append(r.logs[alertId], entity.TriggerLog{AlertId: alertId, PriceData: priceData})
	return nil
}

func (r *memTriggerRepo) FindByAlert(ctx context.Context, alertId string) ([]entity.TriggerLog, error) {
	return r.logs[alertId], nil
}

func newTestService() (Service, *memAlertRepo, *memUserRepo) {
	alertRepo := newMemAlertRepo()
	userRepo := newMemUserRepo()
	return NewService(alertRepo, userRepo, &memTriggerRepo{}), alertRepo, userRepo
}

func validCondition() entity.Condition {
	return entity.Condition{
		Tokens:    []string{"ETH"},
		Kind:      entity.KindPriceAbove,
		Threshold: decimalx.MustFromString("4000"),
	}
}

func TestCreateAlert(t *testing.T) {
	svc, alertRepo, userRepo := newTestService()
	ctx := context.Background()

	alert, err := svc.Create(ctx, "u1", "u1@example.com", validCondition(), "eth to 4k")
	require.NoError(t, err)

	assert.NotEmpty(t, alert.Id)
	assert.Equal(t, entity.AlertStatusActive, alert.Status)
	assert.Equal(t, "u1@example.com", alert.UserEmail)
	assert.Equal(t, entity.DefaultTimeframe, alert.Condition.Timeframe)

	stored, err := alertRepo.FindById(ctx, alert.Id)
	require.NoError(t, err)
	assert.Equal(t, alert.Id, stored.Id)

	user, _ := userRepo.FindById(ctx, "u1")
	assert.Equal(t, "u1@example.com", user.Email)
}

func TestCreateAlertUpdatesChangedEmail(t *testing.T) {
	svc, _, userRepo := newTestService()
	ctx := context.Background()

	_, err := svc.Create(ctx, "u1", "old@example.com", validCondition(), "")
	require.NoError(t, err)

	alert, err := svc.Create(ctx, "u1", "new@example.com", validCondition(), "")
	require.NoError(t, err)

	assert.Equal(t, "new@example.com", alert.UserEmail)
	user, _ := userRepo.FindById(ctx, "u1")
	assert.Equal(t, "new@example.com", user.Email)
}

func TestCreateAlertValidation(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	cond := validCondition()
	cond.Tokens = nil
	_, err := svc.Create(ctx, "u1", "", cond, "")
	assert.ErrorIs(t, err, ErrInvalidCondition)

	cond = validCondition()
	cond.Kind = "moon_phase"
	_, err = svc.Create(ctx, "u1", "", cond, "")
	assert.ErrorIs(t, err, ErrInvalidCondition)
}

func TestPauseResume(t *testing.T) {
	svc, alertRepo, _ := newTestService()
	ctx := context.Background()

	alert, err := svc.Create(ctx, "u1", "", validCondition(), "")
	require.NoError(t, err)

	require.NoError(t, svc.Pause(ctx, alert.Id, "u1"))
	stored, _ := alertRepo.FindById(ctx, alert.Id)
	assert.Equal(t, entity.AlertStatusPaused, stored.Status)

	// 已暂停的不能再暂停
	assert.ErrorIs(t, svc.Pause(ctx, alert.Id, "u1"), ErrBadTransition)

	require.NoError(t, svc.Resume(ctx, alert.Id, "u1"))
	stored, _ = alertRepo.FindById(ctx, alert.Id)
	assert.Equal(t, entity.AlertStatusActive, stored.Status)

	assert.ErrorIs(t, svc.Resume(ctx, alert.Id, "u1"), ErrBadTransition)
}

func TestPauseRejectsOtherUser(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	alert, err := svc.Create(ctx, "u1", "", validCondition(), "")
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Pause(ctx, alert.Id, "u2"), ErrNotOwned)
	assert.ErrorIs(t, svc.Pause(ctx, "nope", "u1"), ErrNotOwned)
}

func TestDeleteOwnership(t *testing.T) {
	svc, alertRepo, _ := newTestService()
	ctx := context.Background()

	alert, err := svc.Create(ctx, "u1", "", validCondition(), "")
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Delete(ctx, alert.Id, "u2"), ErrNotOwned)
	_, err = alertRepo.FindById(ctx, alert.Id)
	require.NoError(t, err, "alert must survive a foreign delete attempt")

	require.NoError(t, svc.Delete(ctx, alert.Id, "u1"))
	_, err = alertRepo.FindById(ctx, alert.Id)
	assert.ErrorIs(t, err, repo.ErrAlertNotFound)
}

func TestTriggerHistoryOwnership(t *testing.T) {
	alertRepo := newMemAlertRepo()
	triggerRepo := &memTriggerRepo{}
	svc := NewService(alertRepo, newMemUserRepo(), triggerRepo)
	ctx := context.Background()

	alert, err := svc.Create(ctx, "u1", "", validCondition(), "")
	require.NoError(t, err)
	require.NoError(t, triggerRepo.Append(ctx, alert.Id, `{"ETH":"4100"}`))

	logs, err := svc.TriggerHistory(ctx, alert.Id, "u1")
	require.NoError(t, err)
	assert.Len(t, logs, 1)

	_, err = svc.TriggerHistory(ctx, alert.Id, "u2")
	assert.ErrorIs(t, err, ErrNotOwned)
}
