// internal/pkg/redis/client.go
package redis

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Nil 表示 key 不存在。
const Nil = goredis.Nil

// Client 包装 UniversalClient：单地址为单机模式，多地址为集群模式。
// Lua 脚本按名字注册，执行时优先 EVALSHA。
type Client struct {
	client  goredis.UniversalClient
	mu      sync.RWMutex
	scripts map[string]*goredis.Script
}

type Options struct {
	Addrs    []string
	Password string
	DB       int
}

// NewClient 创建客户端并 PING 一次确认连通。
func NewClient(ctx context.Context, opts Options) (*Client, error) {
	if len(opts.Addrs) == 0 {
		return nil, errors.New("redis: no addresses configured")
	}
	uc := goredis.NewUniversalClient(&goredis.UniversalOptions{
		Addrs:        opts.Addrs,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  3 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := uc.Ping(pingCtx).Err(); err != nil {
		_ = uc.Close()
		return nil, errors.Wrapf(err, "redis: ping %v", opts.Addrs)
	}
	log.Info().Strs("addrs", opts.Addrs).Msg("connected to redis")
	return Wrap(uc), nil
}

// Wrap 用已有的连接构造 Client。
func Wrap(uc goredis.UniversalClient) *Client {
	return &Client{client: uc, scripts: make(map[string]*goredis.Script)}
}

func (c *Client) GetClient() goredis.UniversalClient {
	return c.client
}

// LoadScriptFromContent 注册一个 Lua 脚本并预加载到服务端。
func (c *Client) LoadScriptFromContent(ctx context.Context, name, src string) error {
	script := goredis.NewScript(src)
	if err := script.Load(ctx, c.client).Err(); err != nil {
		return errors.Wrapf(err, "redis: load script %s", name)
	}
	c.mu.Lock()
	c.scripts[name] = script
	c.mu.Unlock()
	return nil
}

// RunScript 执行已注册的脚本，NOSCRIPT 时自动回退到 EVAL。
func (c *Client) RunScript(ctx context.Context, name string, keys []string, args ...any) (any, error) {
	c.mu.RLock()
	script, ok := c.scripts[name]
	c.mu.RUnlock()
	if !ok {
		return nil, errors.Errorf("redis: script %s not loaded", name)
	}
	return script.Run(ctx, c.client, keys, args...).Result()
}

func (c *Client) Close() error {
	return c.client.Close()
}
