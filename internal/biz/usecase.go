package biz

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"wheel/internal/biz/draw"
	"wheel/internal/biz/lottery"
	"wheel/internal/biz/outcome"
	"wheel/internal/biz/render"
	"wheel/internal/biz/spin"
	"wheel/internal/biz/wheel"
	"wheel/internal/conf"
	"wheel/internal/notify"
	"wheel/pkg/xgo"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	"golang.org/x/sync/errgroup"
)

// 业务常量
const (
	notifyTimeout   = 10 * time.Second
	uploadTimeout   = 60 * time.Second
	recordKeyLayout = "20060102/150405.000"
)

// ErrNoRecording 还没有录制过转动
var ErrNoRecording = errors.New(404, "NO_RECORDING", "no spin recorded yet")

// PlayResult 服务端完整执行一次抽奖的结果
type PlayResult struct {
	Outcome       *outcome.Outcome  `json:"outcome"`
	TargetIndex   int               `json:"targetIndex"`
	LandedIndex   int               `json:"landedIndex"`
	Landed        string            `json:"landed"`
	TargetAngle   float64           `json:"targetAngle"`
	AngleDiff     float64           `json:"angleDiff"`
	TotalRotation float64           `json:"totalRotation"`
	Rotation      float64           `json:"rotation"`
	Frames        int               `json:"frames"`
	ElapsedMs     int64             `json:"elapsedMs"`
	Display       draw.Presentation `json:"display"`
	RecordURL     string            `json:"recordUrl,omitempty"`
	SnapshotURL   string            `json:"snapshotUrl,omitempty"`
}

// WheelInfo 转盘配置与当前状态
type WheelInfo struct {
	Segments []wheel.Segment `json:"segments"`
	Rotation float64         `json:"rotation"`
	Pointer  int             `json:"pointer"`
	Busy     bool            `json:"busy"`
}

// UseCase 编排层：奖池、转盘动画、结果展示、录像上传与通知
type UseCase struct {
	ctx    context.Context
	cancel context.CancelFunc

	repo    DataRepo
	log     *log.Helper
	c       *conf.Wheel
	notify  notify.Notifier
	lottery *lottery.UseCase

	wheel    *wheel.Wheel
	live     *render.WheelRenderer
	recorder *render.Recorder
	drawer   *draw.Drawer
	board    *draw.Board

	snapMu   sync.Mutex
	snapshot *render.WheelRenderer

	recMu    sync.RWMutex
	lastGIF  []byte
	lastPNG  []byte
	lastSpin time.Time
}

// NewUseCase 创建 UseCase
func NewUseCase(c *conf.Wheel, repo DataRepo, lot *lottery.UseCase, src outcome.Source, n notify.Notifier, logger log.Logger) (*UseCase, func(), error) {
	if c == nil {
		c = &conf.Wheel{}
	}
	w, err := NewWheel(c)
	if err != nil {
		return nil, nil, fmt.Errorf("build wheel: %w", err)
	}
	opts := render.Options{Width: int(c.Width), Height: int(c.Height), FontPath: c.FontPath, FontSize: c.FontSize}
	live, err := render.NewWheelRenderer(w, opts)
	if err != nil {
		return nil, nil, err
	}
	snapshot, err := render.NewWheelRenderer(w, opts)
	if err != nil {
		return nil, nil, err
	}

	spinOpts := []spin.Option{}
	frameInterval := spin.DefaultFrameInterval
	if s := c.Spin; s != nil {
		frameInterval = s.FrameInterval.Or(spin.DefaultFrameInterval)
		spinOpts = append(spinOpts,
			spin.WithDuration(s.Duration.Or(spin.DefaultDuration)),
			spin.WithFrameInterval(frameInterval),
		)
		if s.ExtraSpins > 0 {
			spinOpts = append(spinOpts, spin.WithExtraSpins(int(s.ExtraSpins)))
		}
	}

	var (
		frameSink spin.Renderer = live
		recorder  *render.Recorder
	)
	if r := c.Record; r != nil && r.Enabled {
		recorder = render.NewRecorder(live, w, int(r.Every), frameInterval, int(r.Workers))
		frameSink = recorder
	}

	ctx, cancel := context.WithCancel(context.Background())
	uc := &UseCase{
		ctx:      ctx,
		cancel:   cancel,
		repo:     repo,
		log:      log.NewHelper(log.With(logger, "module", "biz")),
		c:        c,
		notify:   n,
		lottery:  lot,
		wheel:    w,
		live:     live,
		recorder: recorder,
		board:    draw.NewBoard(),
		snapshot: snapshot,
	}
	ctl := spin.NewController(frameSink, spinOpts...)
	uc.drawer = draw.NewDrawer(src, w, ctl, uc.board, logger,
		draw.WithBeforeSpin(uc.beforeSpin),
		draw.WithAfterSpin(uc.afterSpin),
	)

	// 首帧：未旋转
	live.Render(0)

	go func() {
		defer xgo.RecoverFromError(nil)
		ReportLotteryMetrics(uc.ctx, lot)
	}()

	if missing := live.MissingGlyphs(); len(missing) > 0 {
		uc.log.Warnf("font lacks glyphs for labels %q, set wheel.font_path to a CJK ttf", missing)
	}
	uc.log.Infof("wheel ready: segments=%d record=%v", w.Len(), recorder != nil)
	cleanup := func() { uc.cancel() }
	return uc, cleanup, nil
}

// beforeSpin 已持有转动守卫
func (uc *UseCase) beforeSpin(o *outcome.Outcome, index int) {
	setSpinning(true)
	if uc.recorder != nil {
		uc.recorder.Reset()
	}
	uc.log.Debugf("spin to %d (%s) for %s", index, uc.wheel.Segment(index).Label, o.Result)
}

// afterSpin 仍持有守卫，画布停在最终帧，在下一次转动前固化录像
func (uc *UseCase) afterSpin(res *draw.Result) {
	setSpinning(false)
	if uc.recorder == nil {
		return
	}
	var gifBuf bytes.Buffer
	if err := uc.recorder.EncodeGIF(&gifBuf); err != nil {
		uc.log.Warnf("encode spin gif: %v", err)
		return
	}
	var pngBuf bytes.Buffer
	if err := uc.live.EncodePNG(&pngBuf); err != nil {
		uc.log.Warnf("encode final png: %v", err)
	}
	capture := &draw.Capture{GIF: gifBuf.Bytes(), PNG: pngBuf.Bytes(), At: time.Now()}
	res.Capture = capture

	uc.recMu.Lock()
	uc.lastGIF = capture.GIF
	uc.lastPNG = capture.PNG
	uc.lastSpin = capture.At
	uc.recMu.Unlock()
}

// DrawOutcome 对外的结果来源接口，直接使用进程内奖池
func (uc *UseCase) DrawOutcome(ctx context.Context) (*outcome.Outcome, error) {
	o, err := uc.lottery.Draw(ctx)
	observeOutcome(o, err)
	return o, err
}

// Status 奖池状态
func (uc *UseCase) Status(ctx context.Context) (*lottery.Status, error) {
	return uc.lottery.Status(ctx)
}

// Reset 重置奖池
func (uc *UseCase) Reset(ctx context.Context) (*lottery.ResetReply, error) {
	return uc.lottery.Reset(ctx)
}

// AdminInfo 管理后台信息
func (uc *UseCase) AdminInfo(ctx context.Context) (*lottery.AdminInfo, error) {
	return uc.lottery.AdminInfo(ctx)
}

// Play 服务端执行完整抽奖流程，阻塞到转盘停止
func (uc *UseCase) Play(ctx context.Context) (*PlayResult, error) {
	res, err := uc.drawer.Draw(ctx)
	if err != nil {
		switch {
		case errors.Is(err, draw.ErrSpinInProgress):
			observeBusy()
		case errors.Is(err, draw.ErrOutcomeUnavailable):
			observeOutcome(nil, err)
		}
		return nil, err
	}
	observeOutcome(res.Outcome, nil)

	landed := uc.wheel.Segment(res.LandedIndex).Label
	observeSpin(landed, res.Spin.Elapsed, res.Spin.Frames, res.Spin.FinalRotation)

	out := &PlayResult{
		Outcome:       res.Outcome,
		TargetIndex:   res.TargetIndex,
		LandedIndex:   res.LandedIndex,
		Landed:        landed,
		TargetAngle:   res.TargetAngle,
		AngleDiff:     res.Spin.AngleDiff,
		TotalRotation: res.Spin.TotalRotation,
		Rotation:      res.Spin.FinalRotation,
		Frames:        res.Spin.Frames,
		ElapsedMs:     res.Spin.Elapsed.Milliseconds(),
		Display:       res.Presentation,
	}

	if res.Capture != nil {
		uc.publishRecording(ctx, out, res.Capture)
	}
	uc.log.Debugf("play: %s", xgo.ToJSON(out))
	if res.Outcome.IsPrize() {
		uc.notifyPrize(out)
	}
	return out, nil
}

// publishRecording 配置了对象存储时并发上传本次的 GIF 与停止帧 PNG
func (uc *UseCase) publishRecording(ctx context.Context, out *PlayResult, c *draw.Capture) {
	if !uc.repo.S3Enabled() || len(c.GIF) == 0 {
		return
	}
	gifData, pngData, at := c.GIF, c.PNG, c.At

	bucket := ""
	if uc.c.Record != nil {
		bucket = uc.c.Record.Bucket
	}
	key := "spins/" + at.Format(recordKeyLayout)

	uploadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), uploadTimeout)
	defer cancel()
	g, gctx := errgroup.WithContext(uploadCtx)
	g.Go(func() error {
		url, err := uc.repo.UploadBytes(gctx, bucket, key+".gif", "image/gif", gifData)
		out.RecordURL = url
		return err
	})
	if len(pngData) > 0 {
		g.Go(func() error {
			url, err := uc.repo.UploadBytes(gctx, bucket, key+".png", "image/png", pngData)
			out.SnapshotURL = url
			return err
		})
	}
	if err := g.Wait(); err != nil {
		uc.log.WithContext(ctx).Warnf("upload spin recording %s: %v", key, err)
	}
}

// notifyPrize 异步发送中奖通知
func (uc *UseCase) notifyPrize(out *PlayResult) {
	if uc.notify == nil {
		return
	}
	msg := notify.BuildPrizeMessage(&notify.PrizeReport{
		DrawID:    out.Outcome.DrawID,
		Result:    out.Outcome.Result,
		Message:   out.Outcome.Message,
		Landed:    out.Landed,
		Rotation:  out.Rotation,
		RecordURL: out.RecordURL,
		At:        time.Now(),
	})
	go func() {
		defer xgo.RecoverFromError(nil)
		ctx, cancel := context.WithTimeout(uc.ctx, notifyTimeout)
		defer cancel()
		if err := uc.notify.Send(ctx, msg); err != nil {
			uc.log.Warnf("notify prize: %v", err)
		}
	}()
}

// Busy 是否转动中
func (uc *UseCase) Busy() bool {
	return uc.drawer.Busy()
}

// Rotation 当前累计旋转角
func (uc *UseCase) Rotation() float64 {
	return uc.drawer.Controller().Rotation()
}

// WheelInfo 扇区与指针位置
func (uc *UseCase) WheelInfo() *WheelInfo {
	rot := uc.Rotation()
	return &WheelInfo{
		Segments: uc.wheel.Segments(),
		Rotation: rot,
		Pointer:  wheel.SegmentAt(rot, uc.wheel.Len()),
		Busy:     uc.Busy(),
	}
}

// RenderPNG 在独立画布上按给定角度绘制；rotation 为空时取当前角度
func (uc *UseCase) RenderPNG(w io.Writer, rotation *float64) error {
	rot := uc.Rotation()
	if rotation != nil {
		rot = *rotation
	}
	uc.snapMu.Lock()
	defer uc.snapMu.Unlock()
	uc.snapshot.Render(rot)
	return uc.snapshot.EncodePNG(w)
}

// LastRecording 最近一次转动的 GIF
func (uc *UseCase) LastRecording() ([]byte, error) {
	uc.recMu.RLock()
	defer uc.recMu.RUnlock()
	if len(uc.lastGIF) == 0 {
		return nil, ErrNoRecording
	}
	return uc.lastGIF, nil
}

// Board 结果展示看板
func (uc *UseCase) Board() draw.BoardState {
	return uc.board.State()
}

// DismissResult 关闭结果弹层
func (uc *UseCase) DismissResult() draw.BoardState {
	uc.board.Dismiss()
	return uc.board.State()
}
