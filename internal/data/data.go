package data

import (
	"context"
	"time"

	"wheel/internal/biz"
	"wheel/internal/conf"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	_ "github.com/go-sql-driver/mysql"
	"github.com/google/wire"
	"github.com/redis/go-redis/v9"
	"xorm.io/xorm"
)

const defaultKeyPrefix = "wheel"

// ProviderSet is data providers.
var ProviderSet = wire.NewSet(NewData, NewRedis, NewMysql, NewDataRepo, NewS3Bucket)

type dataRepo struct {
	data *Data
	log  *log.Helper
}

func NewDataRepo(data *Data, logger log.Logger) biz.DataRepo {
	return &dataRepo{
		data: data,
		log:  log.NewHelper(log.With(logger, "module", "data")),
	}
}

// Data .
type Data struct {
	db       *xorm.Engine // 可为空，此时抽奖记录存 Redis
	rdb      redis.UniversalClient
	s3Bucket *S3Bucket // 可为空，此时不上传录像
	keys     keys
}

// NewData .
func NewData(c *conf.Data, logger log.Logger, db *xorm.Engine, rdb redis.UniversalClient, s3 *S3Bucket) (*Data, func(), error) {
	l := log.NewHelper(logger)
	prefix := defaultKeyPrefix
	if c != nil && c.Redis != nil && c.Redis.Prefix != "" {
		prefix = c.Redis.Prefix
	}
	if db != nil {
		if err := db.Sync(new(drawRecord)); err != nil {
			return nil, nil, errors.Newf(500, "DB_SYNC_FAILED", "sync draw_record: %v", err)
		}
	}
	cleanup := func() {
		l.Info("closing the data resources")
	}
	return &Data{db: db, rdb: rdb, s3Bucket: s3, keys: newKeys(prefix)}, cleanup, nil
}

// NewRedis 创建并配置 Redis 客户端
func NewRedis(c *conf.Data, logger log.Logger) (redis.UniversalClient, func(), error) {
	l := log.NewHelper(logger)

	// 验证配置
	if c == nil || c.Redis == nil || len(c.Redis.Addr) == 0 {
		return nil, nil, errors.Newf(500, "REDIS_ADDR_REQUIRED", "redis address is required")
	}

	rdb := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:        c.Redis.Addr,
		Password:     c.Redis.Password,
		DB:           int(c.Redis.Db),
		ReadTimeout:  c.Redis.ReadTimeout.AsDuration(),
		WriteTimeout: c.Redis.WriteTimeout.AsDuration(),
		// 抽奖请求量小，连接池保持较小
		PoolSize:        10,
		MinIdleConns:    2,
		PoolTimeout:     5 * time.Second,
		ConnMaxLifetime: 10 * time.Minute,
		ConnMaxIdleTime: 5 * time.Minute,
		MaxRetries:      3,
		MinRetryBackoff: 100 * time.Millisecond,
		MaxRetryBackoff: 500 * time.Millisecond,
	})

	// 测试 Redis 连接
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		l.Errorf("failed pinging redis: %v", err)
		_ = rdb.Close()
		return nil, nil, errors.Newf(500, "REDIS_PING_FAILED", "failed pinging redis: %v", err)
	}

	cleanup := func() {
		l.Infof("closing redis connection")
		if err := rdb.Close(); err != nil {
			l.Error(err)
		}
	}

	l.Info("Redis connection established successfully")
	return rdb, cleanup, nil
}

// NewMysql 未配置 database 时返回 nil，抽奖记录退回 Redis 列表
func NewMysql(c *conf.Data, logger log.Logger) (*xorm.Engine, func(), error) {
	l := log.NewHelper(logger)
	if c == nil || c.Database == nil || c.Database.Source == "" {
		l.Info("database not configured, draw records kept in redis")
		return nil, func() {}, nil
	}
	d := c.Database
	driver := d.Driver
	if driver == "" {
		driver = "mysql"
	}
	db, err := xorm.NewEngine(driver, d.Source)
	if err != nil {
		l.Errorf("failed opening db: %v", err)
		return nil, nil, errors.Newf(500, "DB_OPEN_FAILED", "failed opening db: %v", err)
	}

	// 设置连接池参数
	db.SetMaxIdleConns(defaultInt(d.MaxIdleConns, 2))
	db.SetMaxOpenConns(defaultInt(d.MaxOpenConns, 10))
	if db.DB() != nil {
		db.DB().SetConnMaxLifetime(3 * time.Minute)
		db.DB().SetConnMaxIdleTime(1 * time.Minute)
	}

	if err := db.Ping(); err != nil {
		l.Errorf("failed pinging db: %v", err)
		_ = db.Close()
		return nil, nil, errors.Newf(500, "DB_PING_FAILED", "failed pinging db: %v", err)
	}
	cleanup := func() {
		l.Info("closing mysql connection")
		if err := db.Close(); err != nil {
			l.Error(err)
		}
	}
	l.Info("MySQL connection established successfully")
	return db, cleanup, nil
}

// defaultInt 返回配置值或默认值
func defaultInt(value int32, defaultValue int) int {
	if v := int(value); v > 0 {
		return v
	}
	return defaultValue
}
