package infrastructure

import (
	"context"
	"net/url"
	"sync"
	"time"

	"github.com/pkg/errors"

	"pricewise/internal/pkg/logger"
	"pricewise/internal/pkg/zookeeper"
)

// KeyedMutex 是按商品 ID 加锁的进程内互斥锁，等待可被 ctx 取消。
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	ch   chan struct{}
	refs int
}

func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: make(map[string]*keyLock)}
}

func (m *KeyedMutex) Lock(ctx context.Context, key string) (func(), error) {
	m.mu.Lock()
	kl, ok := m.locks[key]
	if !ok {
		kl = &keyLock{ch: make(chan struct{}, 1)}
		m.locks[key] = kl
	}
	kl.refs++
	m.mu.Unlock()

	select {
	case kl.ch <- struct{}{}:
		var once sync.Once
		return func() {
			once.Do(func() {
				<-kl.ch
				m.release(key, kl)
			})
		}, nil
	case <-ctx.Done():
		m.release(key, kl)
		return nil, ctx.Err()
	}
}

func (m *KeyedMutex) release(key string, kl *keyLock) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kl.refs--
	if kl.refs == 0 {
		delete(m.locks, key)
	}
}

// ZookeeperLocker 跨实例串行化同一商品的决策。
// 进程内先排队，同一实例的并发请求不会在 ZooKeeper 上竞争。
type ZookeeperLocker struct {
	conn    *zookeeper.Conn
	timeout time.Duration
	local   *KeyedMutex
}

func NewZookeeperLocker(conn *zookeeper.Conn, timeout time.Duration) *ZookeeperLocker {
	return &ZookeeperLocker{conn: conn, timeout: timeout, local: NewKeyedMutex()}
}

func (l *ZookeeperLocker) Lock(ctx context.Context, productID string) (func(), error) {
	unlockLocal, err := l.local.Lock(ctx, productID)
	if err != nil {
		return nil, err
	}
	dl, err := zookeeper.NewDistributedLock(l.conn, url.PathEscape(productID), l.timeout)
	if err != nil {
		unlockLocal()
		return nil, errors.Wrap(err, "prepare distributed lock")
	}
	if err := dl.Lock(ctx); err != nil {
		unlockLocal()
		return nil, errors.Wrapf(err, "acquire distributed lock for %s", productID)
	}
	return func() {
		if err := dl.Unlock(); err != nil {
			logger.Ctx(ctx).Warn().Err(err).Str("product", productID).Msg("failed to release distributed lock")
		}
		unlockLocal()
	}, nil
}
