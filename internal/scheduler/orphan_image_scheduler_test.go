package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePending struct {
	keys      map[string]time.Time
	staleErr  error
	forgotten []string
}

func (f *fakePending) Stale(_ context.Context, before time.Time) ([]string, error) {
	if f.staleErr != nil {
		return nil, f.staleErr
	}
	var out []string
	for key, at := range f.keys {
		if !at.After(before) {
			out = append(out, key)
		}
	}
	return out, nil
}

func (f *fakePending) Forget(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.keys, key)
	}
	f.forgotten = append(f.forgotten, keys...)
	return nil
}

type fakeObjects struct {
	deleted []string
	failing map[string]bool
}

func (f *fakeObjects) Delete(_ context.Context, key string) error {
	if f.failing[key] {
		return errors.New("access denied")
	}
	f.deleted = append(f.deleted, key)
	return nil
}

func TestOrphanImageScheduler_SweepsOnlyStaleKeys(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	pending := &fakePending{keys: map[string]time.Time{
		"products/old.png":   now.Add(-2 * time.Hour),
		"products/fresh.png": now.Add(-10 * time.Minute),
	}}
	objects := &fakeObjects{}

	s := NewOrphanImageScheduler("*/30 * * * *", time.Hour, pending, objects)
	s.now = func() time.Time { return now }

	removed, err := s.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.Equal(t, []string{"products/old.png"}, objects.deleted)
	assert.Contains(t, pending.keys, "products/fresh.png")
	assert.NotContains(t, pending.keys, "products/old.png")
}

func TestOrphanImageScheduler_FailedDeleteStaysPending(t *testing.T) {
	now := time.Now()
	pending := &fakePending{keys: map[string]time.Time{
		"products/a.png": now.Add(-3 * time.Hour),
		"products/b.png": now.Add(-3 * time.Hour),
	}}
	objects := &fakeObjects{failing: map[string]bool{"products/b.png": true}}

	s := NewOrphanImageScheduler("@hourly", time.Hour, pending, objects)

	removed, err := s.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.Equal(t, []string{"products/a.png"}, pending.forgotten)
	assert.Contains(t, pending.keys, "products/b.png")
}

func TestOrphanImageScheduler_PropagatesListError(t *testing.T) {
	pending := &fakePending{staleErr: errors.New("redis down")}
	s := NewOrphanImageScheduler("@hourly", time.Hour, pending, &fakeObjects{})

	_, err := s.Sweep(context.Background())
	assert.Error(t, err)
}

func TestOrphanImageScheduler_RejectsBadSchedule(t *testing.T) {
	s := NewOrphanImageScheduler("not a schedule", time.Hour, &fakePending{}, &fakeObjects{})
	assert.Error(t, s.Start())
}
