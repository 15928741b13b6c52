// internal/pkg/zookeeper/conn.go
package zookeeper

import (
	"time"

	"github.com/go-zookeeper/zk"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Conn 包装 *zk.Conn，供分布式锁使用。
type Conn struct {
	*zk.Conn
}

// Connect 连接 ZooKeeper 集群并等待会话建立。
func Connect(servers []string, sessionTimeout time.Duration) (*Conn, error) {
	conn, events, err := zk.Connect(servers, sessionTimeout, zk.WithLogInfo(false))
	if err != nil {
		return nil, errors.Wrapf(err, "zookeeper: connect %v", servers)
	}

	deadline := time.After(sessionTimeout)
	for {
		select {
		case ev := <-events:
			if ev.State == zk.StateHasSession {
				log.Info().Strs("servers", servers).Msg("connected to zookeeper")
				go drainEvents(events)
				return &Conn{Conn: conn}, nil
			}
		case <-deadline:
			conn.Close()
			return nil, errors.Errorf("zookeeper: no session within %s", sessionTimeout)
		}
	}
}

func drainEvents(events <-chan zk.Event) {
	for ev := range events {
		if ev.State == zk.StateExpired || ev.State == zk.StateDisconnected {
			log.Warn().Str("state", ev.State.String()).Msg("zookeeper session event")
		}
	}
}
