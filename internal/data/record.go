package data

import (
	"context"
	"fmt"
	"time"

	"wheel/internal/biz/lottery"

	jsoniter "github.com/json-iterator/go"
	"github.com/redis/go-redis/v9"
)

// Redis 中保留的记录条数
const redisRecordKeep = 100

// drawRecord 抽奖记录表
type drawRecord struct {
	Id        int64     `xorm:"pk autoincr 'id'"`
	DrawId    string    `xorm:"varchar(32) notnull index 'draw_id'"`
	Type      string    `xorm:"varchar(16) notnull 'type'"`
	Result    string    `xorm:"varchar(255) notnull 'result'"`
	Message   string    `xorm:"varchar(255) 'message'"`
	CreatedAt time.Time `xorm:"notnull index 'created_at'"`
}

func (drawRecord) TableName() string { return "draw_record" }

func toRow(rec *lottery.Record) *drawRecord {
	return &drawRecord{
		DrawId:    rec.DrawID,
		Type:      rec.Type,
		Result:    rec.Result,
		Message:   rec.Message,
		CreatedAt: rec.CreatedAt,
	}
}

func (row *drawRecord) toRecord() *lottery.Record {
	return &lottery.Record{
		DrawID:    row.DrawId,
		Type:      row.Type,
		Result:    row.Result,
		Message:   row.Message,
		CreatedAt: row.CreatedAt,
	}
}

// SaveRecord 有数据库写表，否则 LPUSH + LTRIM
func (r *dataRepo) SaveRecord(ctx context.Context, rec *lottery.Record) error {
	if rec == nil {
		return nil
	}
	if db := r.data.db; db != nil {
		if _, err := db.Context(ctx).Insert(toRow(rec)); err != nil {
			return fmt.Errorf("insert draw_record %s: %w", rec.DrawID, err)
		}
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, redisOpTimeout)
	defer cancel()
	b, err := jsoniter.Marshal(rec)
	if err != nil {
		return err
	}
	key := r.data.keys.records
	_, err = r.data.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.LPush(ctx, key, b)
		p.LTrim(ctx, key, 0, redisRecordKeep-1)
		return nil
	})
	if err != nil {
		return fmt.Errorf("push record %s: %w", rec.DrawID, err)
	}
	return nil
}

// RecentRecords 最新在前
func (r *dataRepo) RecentRecords(ctx context.Context, limit int) ([]*lottery.Record, error) {
	if limit <= 0 {
		return nil, nil
	}
	if db := r.data.db; db != nil {
		var rows []*drawRecord
		if err := db.Context(ctx).Desc("id").Limit(limit).Find(&rows); err != nil {
			return nil, fmt.Errorf("query draw_record: %w", err)
		}
		out := make([]*lottery.Record, len(rows))
		for i, row := range rows {
			out[i] = row.toRecord()
		}
		return out, nil
	}

	ctx, cancel := context.WithTimeout(ctx, redisOpTimeout)
	defer cancel()
	items, err := r.data.rdb.LRange(ctx, r.data.keys.records, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("lrange records: %w", err)
	}
	out := make([]*lottery.Record, 0, len(items))
	for _, it := range items {
		var rec lottery.Record
		if err := jsoniter.UnmarshalFromString(it, &rec); err != nil {
			r.log.Warnf("skip bad record: %v", err)
			continue
		}
		out = append(out, &rec)
	}
	return out, nil
}
