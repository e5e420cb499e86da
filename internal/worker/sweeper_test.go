package worker

import (
	"admissions-portal/internal/dbtest"
	"admissions-portal/internal/model"
	"admissions-portal/internal/repository"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingDispatcher struct {
	mu  sync.Mutex
	ids []string
}

func (d *recordingDispatcher) Dispatch(ctx context.Context, id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ids = append(d.ids, id)
	return nil
}

func TestSweep(t *testing.T) {
	db := dbtest.Open(t)
	apps := repository.NewApplicationRepository(db)
	uni := dbtest.University(t, db, "1000")
	ctx := context.Background()
	now := time.Now()
	old := now.Add(-time.Hour)

	stuck := dbtest.Application(t, db, "s1", uni.ID, model.StatusSubmitted)
	claimed, err := apps.BeginVerification(ctx, stuck.ID, old)
	require.NoError(t, err)
	require.True(t, claimed)

	running := dbtest.Application(t, db, "s2", uni.ID, model.StatusSubmitted)
	_, err = apps.BeginVerification(ctx, running.ID, now)
	require.NoError(t, err)

	lost := dbtest.Application(t, db, "s3", uni.ID, model.StatusSubmitted)
	require.NoError(t, db.Model(lost).Update("submitted_at", old).Error)

	fresh := dbtest.Application(t, db, "s4", uni.ID, model.StatusSubmitted)
	require.NoError(t, db.Model(fresh).Update("submitted_at", now).Error)

	dbtest.Application(t, db, "s5", uni.ID, model.StatusDraft)

	d := &recordingDispatcher{}
	s := NewSweeper(apps, d, 10*time.Minute, 10, nil)
	res, err := s.Sweep(ctx)
	require.NoError(t, err)

	assert.Equal(t, int64(1), res.Interrupted)
	assert.Equal(t, 1, res.Redispatched)
	assert.Equal(t, []string{lost.ID}, d.ids)

	got, err := apps.FindByID(ctx, nil, stuck.ID)
	require.NoError(t, err)
	assert.Equal(t, model.VerificationFailed, got.AIVerificationStatus)
	assert.Equal(t, interruptedReason, got.AIVerificationError)

	got, err = apps.FindByID(ctx, nil, running.ID)
	require.NoError(t, err)
	assert.Equal(t, model.VerificationProcessing, got.AIVerificationStatus)
}

func TestSweeperRejectsBadSchedule(t *testing.T) {
	s := NewSweeper(nil, &recordingDispatcher{}, time.Minute, 10, nil)
	assert.Error(t, s.Start("every now and then"))
	s.Stop()
}
