// Package lock provides per-key advisory locking. The registry serializes
// assignment creation per hardware id through a Guard so the "check then
// point device at assignment" sequence cannot interleave for one device.
package lock

import (
	"context"
	"sync"
)

// Guard 按 key 串行化临界区
type Guard interface {
	WithLock(ctx context.Context, key string, fn func() error) error
}

// MemoryGuard 进程内锁实现（单实例部署/测试用）
type MemoryGuard struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewMemoryGuard() *MemoryGuard {
	return &MemoryGuard{locks: make(map[string]*sync.Mutex)}
}

func (g *MemoryGuard) WithLock(_ context.Context, key string, fn func() error) error {
	g.mu.Lock()
	l, ok := g.locks[key]
	if !ok {
		l = &sync.Mutex{}
		g.locks[key] = l
	}
	g.mu.Unlock()

	l.Lock()
	defer l.Unlock()
	return fn()
}
