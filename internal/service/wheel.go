package service

import (
	"bytes"
	"context"

	"wheel/internal/biz"
	"wheel/internal/biz/draw"
	"wheel/internal/biz/lottery"
	"wheel/internal/biz/outcome"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/wire"
)

// ProviderSet is service providers.
var ProviderSet = wire.NewSet(NewWheelService)

// Empty 无参数请求
type Empty struct{}

// RenderRequest rotation 为空时使用当前角度
type RenderRequest struct {
	Rotation *float64
}

// WheelService 抽奖转盘服务
type WheelService struct {
	uc  *biz.UseCase
	log *log.Helper
}

// NewWheelService new a wheel service.
func NewWheelService(uc *biz.UseCase, logger log.Logger) *WheelService {
	return &WheelService{
		uc:  uc,
		log: log.NewHelper(log.With(logger, "module", "service")),
	}
}

// Draw 结果来源接口：先发奖品，奖品抽完返回情话
func (s *WheelService) Draw(ctx context.Context, _ *Empty) (*outcome.Outcome, error) {
	return s.uc.DrawOutcome(ctx)
}

// Status 奖池状态
func (s *WheelService) Status(ctx context.Context, _ *Empty) (*lottery.Status, error) {
	return s.uc.Status(ctx)
}

// Reset 重置奖池
func (s *WheelService) Reset(ctx context.Context, _ *Empty) (*lottery.ResetReply, error) {
	return s.uc.Reset(ctx)
}

// AdminInfo 管理后台
func (s *WheelService) AdminInfo(ctx context.Context, _ *Empty) (*lottery.AdminInfo, error) {
	return s.uc.AdminInfo(ctx)
}

// Spin 服务端执行一次完整抽奖，转盘停止后返回
func (s *WheelService) Spin(ctx context.Context, _ *Empty) (*biz.PlayResult, error) {
	return s.uc.Play(ctx)
}

// Wheel 扇区与当前角度
func (s *WheelService) Wheel(_ context.Context, _ *Empty) (*biz.WheelInfo, error) {
	return s.uc.WheelInfo(), nil
}

// Result 结果弹层
func (s *WheelService) Result(_ context.Context, _ *Empty) (*draw.BoardState, error) {
	st := s.uc.Board()
	return &st, nil
}

// DismissResult 关闭结果弹层
func (s *WheelService) DismissResult(_ context.Context, _ *Empty) (*draw.BoardState, error) {
	st := s.uc.DismissResult()
	return &st, nil
}

// RenderPNG 转盘截图
func (s *WheelService) RenderPNG(_ context.Context, in *RenderRequest) ([]byte, error) {
	var buf bytes.Buffer
	if err := s.uc.RenderPNG(&buf, in.Rotation); err != nil {
		s.log.Errorf("render png: %v", err)
		return nil, err
	}
	return buf.Bytes(), nil
}

// Recording 最近一次转动的 GIF
func (s *WheelService) Recording(_ context.Context, _ *Empty) ([]byte, error) {
	return s.uc.LastRecording()
}
