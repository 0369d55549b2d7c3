package biz

import (
	"context"

	"wheel/internal/biz/lottery"
	"wheel/internal/biz/outcome"
	"wheel/internal/biz/wheel"
	"wheel/internal/conf"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/wire"
)

// ProviderSet is biz providers.
var ProviderSet = wire.NewSet(NewLotteryRepo, NewLotteryUseCase, NewOutcomeSource, NewUseCase)

// DataRepo 数据层接口：奖池状态 + 抽奖记录 + 录像上传
type DataRepo interface {
	lottery.Repo
	// S3Enabled 未配置对象存储时不上传
	S3Enabled() bool
	UploadBytes(ctx context.Context, bucket, key, contentType string, data []byte) (string, error)
}

// NewLotteryRepo 奖池只依赖 DataRepo 的状态部分
func NewLotteryRepo(repo DataRepo) lottery.Repo {
	return repo
}

// NewLotteryUseCase 奖池
func NewLotteryUseCase(c *conf.Lottery, repo lottery.Repo, logger log.Logger) *lottery.UseCase {
	return lottery.NewUseCase(c, repo, logger)
}

// NewOutcomeSource 配置了远端地址时走 HTTP，否则直接使用进程内奖池
func NewOutcomeSource(c *conf.Wheel, lot *lottery.UseCase, logger log.Logger) outcome.Source {
	l := log.NewHelper(logger)
	if c != nil && c.Outcome != nil && c.Outcome.Url != "" {
		l.Infof("outcome source: remote %s", c.Outcome.Url)
		return outcome.NewAPIClient(c.Outcome.Url, c.Outcome.Timeout.AsDuration())
	}
	l.Info("outcome source: in-process lottery")
	return lot
}

// NewWheel 配置为空时使用默认 8 扇区
func NewWheel(c *conf.Wheel) (*wheel.Wheel, error) {
	if c == nil || len(c.Segments) == 0 {
		return wheel.New(wheel.DefaultSegments())
	}
	segments := make([]wheel.Segment, 0, len(c.Segments))
	for _, s := range c.Segments {
		if s == nil {
			continue
		}
		segments = append(segments, wheel.Segment{Label: s.Label, Color: s.Color, Prize: s.Prize})
	}
	return wheel.New(segments)
}
