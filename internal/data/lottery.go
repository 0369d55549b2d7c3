package data

import (
	"context"
	"fmt"
	"time"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

const redisOpTimeout = 5 * time.Second

// keys 同一 hash tag，集群下落在同一 slot，脚本可同时操作
type keys struct {
	drawn   string // set：已领取奖品
	order   string // list：领取顺序
	records string // list：最近抽奖记录（无数据库时）
	count   string // hash 前缀：每日抽奖编号
}

func newKeys(prefix string) keys {
	tag := "{" + prefix + ":lottery}"
	return keys{
		drawn:   tag + ":drawn",
		order:   tag + ":order",
		records: tag + ":records",
		count:   prefix + ":count:",
	}
}

// claimScript SADD 成功才追加到顺序列表
var claimScript = redis.NewScript(`
if redis.call('SADD', KEYS[1], ARGV[1]) == 1 then
	redis.call('RPUSH', KEYS[2], ARGV[1])
	return 1
end
return 0
`)

// ClaimPrize 实现 lottery.Repo
func (r *dataRepo) ClaimPrize(ctx context.Context, prizeID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, redisOpTimeout)
	defer cancel()

	k := r.data.keys
	n, err := claimScript.Run(ctx, r.data.rdb, []string{k.drawn, k.order}, prizeID).Int()
	if err != nil {
		return false, errors.Newf(500, "REDIS_CLAIM_FAILED", "claim prize %s: %v", prizeID, err)
	}
	return n == 1, nil
}

// DrawnPrizes 按领取顺序
func (r *dataRepo) DrawnPrizes(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, redisOpTimeout)
	defer cancel()

	ids, err := r.data.rdb.LRange(ctx, r.data.keys.order, 0, -1).Result()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("lrange %s: %w", r.data.keys.order, err)
	}
	return ids, nil
}

// ResetPrizes 并发删除集合与顺序列表
func (r *dataRepo) ResetPrizes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, redisOpTimeout)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	for _, key := range []string{r.data.keys.drawn, r.data.keys.order} {
		key := key
		g.Go(func() error {
			if err := r.data.rdb.Del(gctx, key).Err(); err != nil {
				return fmt.Errorf("del %s: %w", key, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	r.log.WithContext(ctx).Info("lottery state cleared")
	return nil
}

// NextDrawID Redis Hash <prefix>:count:YYYYMMDD，field=draw，过期为次日 0 点
func (r *dataRepo) NextDrawID(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, redisOpTimeout)
	defer cancel()

	now := time.Now()
	date := now.Format("20060102")
	key := r.data.keys.count + date

	count, err := r.data.rdb.HIncrBy(ctx, key, "draw", 1).Result()
	if err != nil {
		return "", errors.Newf(500, "REDIS_COUNTER_FAILED", "redis counter: %v", err)
	}

	if count == 1 {
		tomorrow := now.AddDate(0, 0, 1)
		midnight := time.Date(tomorrow.Year(), tomorrow.Month(), tomorrow.Day(), 0, 0, 0, 0, now.Location())
		_ = r.data.rdb.ExpireAt(ctx, key, midnight).Err()
	}

	return fmt.Sprintf("%s-%d", date, count), nil
}
