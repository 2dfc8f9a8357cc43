//go:build integration

package lock

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"

	"github.com/Shivanand-hulikatti/event-enrollment/internal/config"
)

type RedisLockerSuite struct {
	suite.Suite
	client *redis.Client
}

func TestRedisLockerSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisLockerSuite))
}

func (s *RedisLockerSuite) SetupSuite() {
	ctx := context.Background()
	container, err := tcredis.Run(ctx, "redis:7-alpine")
	s.Require().NoError(err)
	s.T().Cleanup(func() { _ = container.Terminate(context.Background()) })

	uri, err := container.ConnectionString(ctx)
	s.Require().NoError(err)
	opts, err := redis.ParseURL(uri)
	s.Require().NoError(err)
	s.client = redis.NewClient(opts)
	s.Require().NoError(s.client.Ping(ctx).Err())
}

func (s *RedisLockerSuite) SetupTest() {
	s.Require().NoError(s.client.FlushAll(context.Background()).Err())
}

func (s *RedisLockerSuite) locker(wait time.Duration) *RedisLocker {
	return NewRedisLocker(s.client, config.RedisConfig{
		LockTTL:      5 * time.Second,
		LockWait:     wait,
		LockInterval: 5 * time.Millisecond,
	})
}

func (s *RedisLockerSuite) TestMutualExclusion() {
	l := s.locker(5 * time.Second)
	var inside, maxInside atomic.Int32
	var wg sync.WaitGroup

	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := l.Lock(context.Background(), EventKey(1))
			if !s.NoError(err) {
				return
			}
			n := inside.Add(1)
			for {
				m := maxInside.Load()
				if n <= m || maxInside.CompareAndSwap(m, n) {
					break
				}
			}
			time.Sleep(10 * time.Millisecond)
			inside.Add(-1)
			s.NoError(unlock(context.Background()))
		}()
	}
	wg.Wait()

	s.Equal(int32(1), maxInside.Load())
}

func (s *RedisLockerSuite) TestWaitElapses() {
	l := s.locker(50 * time.Millisecond)
	unlock, err := l.Lock(context.Background(), EventKey(2))
	s.Require().NoError(err)
	defer func() { _ = unlock(context.Background()) }()

	_, err = l.Lock(context.Background(), EventKey(2))
	s.Require().ErrorIs(err, ErrNotAcquired)
}

func (s *RedisLockerSuite) TestReleaseIgnoresForeignToken() {
	l := s.locker(time.Second)
	unlock, err := l.Lock(context.Background(), EventKey(3))
	s.Require().NoError(err)

	s.Require().NoError(s.client.Set(context.Background(), EventKey(3), "someone-else", time.Minute).Err())
	s.Require().NoError(unlock(context.Background()))

	val, err := s.client.Get(context.Background(), EventKey(3)).Result()
	s.Require().NoError(err)
	s.Equal("someone-else", val)
}
