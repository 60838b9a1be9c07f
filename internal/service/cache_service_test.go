package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable/pkg/cache"
	appErrors "github.com/noah-isme/sma-timetable/pkg/errors"
)

type cacheRepoStub struct {
	getErr     error
	setTTL     time.Duration
	deleted    []string
	deleteErr  error
	setInvoked bool
}

func (s *cacheRepoStub) Get(ctx context.Context, key string, dest interface{}) error {
	return s.getErr
}

func (s *cacheRepoStub) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	s.setInvoked = true
	s.setTTL = ttl
	return nil
}

func (s *cacheRepoStub) DeleteByPattern(ctx context.Context, pattern string) error {
	s.deleted = append(s.deleted, pattern)
	return s.deleteErr
}

func TestCacheServiceRecordsHitsAndMisses(t *testing.T) {
	repo := &cacheRepoStub{}
	metrics := NewMetricsService()
	svc := NewCacheService(repo, metrics, 0, nil, true)

	var dest map[string]string
	assert.True(t, svc.Get(context.Background(), "k", &dest))

	repo.getErr = appErrors.ErrCacheMiss
	assert.False(t, svc.Get(context.Background(), "k", &dest))

	repo.getErr = errors.New("connection refused")
	assert.False(t, svc.Get(context.Background(), "k", &dest))

	snapshot := metrics.Snapshot()
	assert.Equal(t, uint64(1), snapshot.CacheHits)
	assert.Equal(t, uint64(2), snapshot.CacheMisses)
}

func TestCacheServiceSetUsesDefaultTTL(t *testing.T) {
	repo := &cacheRepoStub{}
	svc := NewCacheService(repo, nil, 0, nil, true)

	svc.Set(context.Background(), "k", "v", 0)
	assert.Equal(t, 15*time.Minute, repo.setTTL)

	svc.Set(context.Background(), "k", "v", time.Second)
	assert.Equal(t, time.Second, repo.setTTL)
}

func TestCacheServiceInvalidateProgram(t *testing.T) {
	repo := &cacheRepoStub{}
	svc := NewCacheService(repo, nil, time.Minute, nil, true)

	require.NoError(t, svc.InvalidateProgram(context.Background(), "p1"))
	assert.Equal(t, []string{cache.TimetablePattern("p1")}, repo.deleted)

	repo.deleteErr = errors.New("redis down")
	assert.Error(t, svc.InvalidateProgram(context.Background(), "p1"))
}

func TestCacheServiceDisabled(t *testing.T) {
	repo := &cacheRepoStub{}
	svc := NewCacheService(repo, nil, time.Minute, nil, false)

	var dest string
	assert.False(t, svc.Get(context.Background(), "k", &dest))
	svc.Set(context.Background(), "k", "v", 0)
	assert.False(t, repo.setInvoked)
	assert.NoError(t, svc.InvalidateProgram(context.Background(), "p1"))
	assert.Empty(t, repo.deleted)

	var nilSvc *CacheService
	assert.False(t, nilSvc.Enabled())
}
