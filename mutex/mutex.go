package mutex

import (
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis"
	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis"
)

const (
	videoLockExpiration = time.Minute * 5
	videoKeyPattern     = "video:%v"
)

// Locker guards the seen-check plus notify critical section for one video.
// *redsync.Mutex satisfies it.
type Locker interface {
	Lock() error
	Unlock() (bool, error)
}

// Builder hands out locks keyed by video id.
type Builder interface {
	Video(videoId string) Locker
}

type RedisBuilder struct {
	rs *redsync.Redsync
}

func NewRedisBuilder(address string) *RedisBuilder {
	client := redis.NewClient(&redis.Options{Addr: address})
	pool := goredis.NewPool(client)
	rs := redsync.New(pool)
	return &RedisBuilder{rs: rs}
}

func (b *RedisBuilder) Video(videoId string) Locker {
	key := fmt.Sprintf(videoKeyPattern, videoId)
	return b.rs.NewMutex(key, redsync.WithExpiry(videoLockExpiration))
}

// LocalBuilder serializes per-video work inside a single process, for
// deployments without redis.
type LocalBuilder struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewLocalBuilder() *LocalBuilder {
	return &LocalBuilder{locks: make(map[string]*sync.Mutex)}
}

func (b *LocalBuilder) Video(videoId string) Locker {
	b.mu.Lock()
	defer b.mu.Unlock()
	lock, ok := b.locks[videoId]
	if !ok {
		lock = &sync.Mutex{}
		b.locks[videoId] = lock
	}
	return localLocker{lock}
}

type localLocker struct {
	mu *sync.Mutex
}

func (l localLocker) Lock() error {
	l.mu.Lock()
	return nil
}

func (l localLocker) Unlock() (bool, error) {
	l.mu.Unlock()
	return true, nil
}
