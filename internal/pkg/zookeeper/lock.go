// internal/pkg/zookeeper/lock.go
package zookeeper

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/go-zookeeper/zk"
	"github.com/pkg/errors"
)

const lockRoot = "/pricewise/locks"

var ErrLockTimeout = errors.New("zookeeper: timeout waiting for lock")

// DistributedLock 基于临时顺序节点实现的公平锁。
type DistributedLock struct {
	conn     *Conn
	path     string // 例如 /pricewise/locks/prod-001
	lockNode string // 获取锁后自己创建的节点
	timeout  time.Duration
}

// NewDistributedLock 为某个资源创建锁对象，必要时创建父节点。
func NewDistributedLock(conn *Conn, resourceID string, timeout time.Duration) (*DistributedLock, error) {
	lockPath := lockRoot + "/" + resourceID
	if err := ensurePath(conn, lockPath); err != nil {
		return nil, err
	}
	return &DistributedLock{conn: conn, path: lockPath, timeout: timeout}, nil
}

func ensurePath(conn *Conn, path string) error {
	current := ""
	for _, part := range strings.Split(strings.TrimPrefix(path, "/"), "/") {
		current += "/" + part
		exists, _, err := conn.Exists(current)
		if err != nil {
			return errors.Wrapf(err, "zookeeper: check %s", current)
		}
		if exists {
			continue
		}
		_, err = conn.Create(current, nil, 0, zk.WorldACL(zk.PermAll))
		if err != nil && !errors.Is(err, zk.ErrNodeExists) {
			return errors.Wrapf(err, "zookeeper: create %s", current)
		}
	}
	return nil
}

// Lock 阻塞直到获得锁、ctx 取消或超时。
func (l *DistributedLock) Lock(ctx context.Context) error {
	// 1. 创建临时顺序节点 /pricewise/locks/<id>/lock-
	nodePath, err := l.conn.CreateProtectedEphemeralSequential(l.path+"/lock-", nil, zk.WorldACL(zk.PermAll))
	if err != nil {
		return errors.Wrap(err, "zookeeper: create sequential node")
	}
	l.lockNode = nodePath
	myNode := strings.TrimPrefix(nodePath, l.path+"/")

	timer := time.NewTimer(l.timeout)
	defer timer.Stop()

	for {
		children, _, err := l.conn.Children(l.path)
		if err != nil {
			l.release()
			return errors.Wrap(err, "zookeeper: list children")
		}
		// 受保护节点带有 GUID 前缀，按序号排序
		sort.Slice(children, func(i, j int) bool { return sequence(children[i]) < sequence(children[j]) })

		idx := -1
		for i, child := range children {
			if child == myNode {
				idx = i
				break
			}
		}
		switch {
		case idx == 0:
			return nil
		case idx < 0:
			l.release()
			return errors.New("zookeeper: own lock node disappeared")
		}

		// 2. 监听前一个节点
		exists, _, events, err := l.conn.ExistsW(l.path + "/" + children[idx-1])
		if err != nil {
			l.release()
			return errors.Wrap(err, "zookeeper: watch previous node")
		}
		if !exists {
			continue
		}

		select {
		case <-events:
		case <-ctx.Done():
			l.release()
			return ctx.Err()
		case <-timer.C:
			l.release()
			return ErrLockTimeout
		}
	}
}

// Unlock 删除自己的节点。
func (l *DistributedLock) Unlock() error {
	if l.lockNode == "" {
		return errors.New("zookeeper: no lock to unlock")
	}
	err := l.conn.Delete(l.lockNode, -1)
	l.lockNode = ""
	if err != nil && !errors.Is(err, zk.ErrNoNode) {
		return errors.Wrap(err, "zookeeper: delete lock node")
	}
	return nil
}

func (l *DistributedLock) release() {
	_ = l.Unlock()
}

// sequence 取出节点名末尾的 10 位序号。
func sequence(node string) string {
	if len(node) < 10 {
		return node
	}
	return node[len(node)-10:]
}
