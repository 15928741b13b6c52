package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/pkg/errors"

	"pricewise/internal/pkg/redis"
	"pricewise/internal/service/pricing/domain"
)

const appendDecisionScriptName = "append_decision"

// 记录和索引用同一个 hash tag，集群模式下落在同一个 slot。
// KEYS[1]: 记录 hash，field 为微秒时间戳
// KEYS[2]: 时间索引 zset
// ARGV[1]: field, ARGV[2]: 决策 JSON, ARGV[3]: score
const appendDecisionScript = `
if redis.call('hsetnx', KEYS[1], ARGV[1], ARGV[2]) == 0 then
    return 0
end
redis.call('zadd', KEYS[2], ARGV[3], ARGV[1])
return 1
`

// RedisLedger 是 HistoryStore 的 Redis 实现。
// 追加由 Lua 脚本原子完成，读者要么看到整条记录，要么看不到。
type RedisLedger struct {
	rdb *redis.Client
}

func NewRedisLedger(ctx context.Context, rdb *redis.Client) (*RedisLedger, error) {
	if err := rdb.LoadScriptFromContent(ctx, appendDecisionScriptName, appendDecisionScript); err != nil {
		return nil, errors.Wrap(err, "failed to load ledger script")
	}
	return &RedisLedger{rdb: rdb}, nil
}

func ledgerKeys(productID string) (records, index string) {
	return fmt.Sprintf("pricewise:ledger:{%s}:records", productID),
		fmt.Sprintf("pricewise:ledger:{%s}:index", productID)
}

func (l *RedisLedger) Append(ctx context.Context, decision *domain.PricingDecision) error {
	payload, err := json.Marshal(decision)
	if err != nil {
		return errors.Wrap(err, "marshal decision")
	}
	micros := decision.Timestamp.UnixMicro()
	records, index := ledgerKeys(decision.ProductID)

	result, err := l.rdb.RunScript(ctx, appendDecisionScriptName,
		[]string{records, index},
		strconv.FormatInt(micros, 10), payload, micros)
	if err != nil {
		return errors.Wrapf(err, "append decision for %s", decision.ProductID)
	}
	code, ok := result.(int64)
	if !ok {
		return errors.Errorf("unexpected result type from ledger script: %T", result)
	}
	if code == 0 {
		return errors.Wrapf(domain.ErrDuplicateDecision, "product %s at %s", decision.ProductID, decision.Timestamp)
	}
	return nil
}

func (l *RedisLedger) Query(ctx context.Context, productID string, limit int) ([]*domain.PricingDecision, error) {
	records, index := ledgerKeys(productID)
	stop := int64(limit - 1)
	if limit <= 0 {
		stop = -1
	}
	fields, err := l.rdb.GetClient().ZRevRange(ctx, index, 0, stop).Result()
	if err != nil {
		return nil, errors.Wrapf(err, "read ledger index for %s", productID)
	}
	if len(fields) == 0 {
		return []*domain.PricingDecision{}, nil
	}

	values, err := l.rdb.GetClient().HMGet(ctx, records, fields...).Result()
	if err != nil {
		return nil, errors.Wrapf(err, "read ledger records for %s", productID)
	}
	out := make([]*domain.PricingDecision, 0, len(values))
	for i, v := range values {
		s, ok := v.(string)
		if !ok {
			return nil, errors.Errorf("ledger record %s/%s missing", productID, fields[i])
		}
		var d domain.PricingDecision
		if err := json.Unmarshal([]byte(s), &d); err != nil {
			return nil, errors.Wrapf(err, "decode ledger record %s/%s", productID, fields[i])
		}
		out = append(out, &d)
	}
	return out, nil
}
