package draw

import (
	"context"
	"sync/atomic"
	"time"

	"wheel/internal/biz/outcome"
	"wheel/internal/biz/spin"
	"wheel/internal/biz/wheel"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
)

// RetryNotice 结果获取失败时给用户的提示
const RetryNotice = "抽奖失败，请稍后重试"

var (
	// ErrSpinInProgress 转盘转动中，本次点击被忽略
	ErrSpinInProgress = errors.New(409, "SPIN_IN_PROGRESS", "spin in progress")
	// ErrOutcomeUnavailable 结果来源失败或返回 success=false，不转动
	ErrOutcomeUnavailable = errors.New(503, "OUTCOME_UNAVAILABLE", RetryNotice)
)

// Result 一次完整抽奖的结果
type Result struct {
	Outcome      *outcome.Outcome
	TargetIndex  int
	LandedIndex  int
	TargetAngle  float64
	Spin         spin.Result
	Presentation Presentation
	// Capture 由 afterSpin 钩子在守卫内填充
	Capture *Capture
}

// Capture 本次转动的录像与停止帧
type Capture struct {
	GIF []byte
	PNG []byte
	At  time.Time
}

// Option Drawer 选项
type Option func(*Drawer)

// WithPicker 非奖品扇区的随机源
func WithPicker(p wheel.Picker) Option {
	return func(d *Drawer) { d.picker = p }
}

// WithBeforeSpin 拿到有效结果、开始转动前回调（已持有守卫）
func WithBeforeSpin(fn func(o *outcome.Outcome, index int)) Option {
	return func(d *Drawer) { d.beforeSpin = fn }
}

// WithAfterSpin 转盘停止、展示之后回调，此时仍持有守卫
func WithAfterSpin(fn func(res *Result)) Option {
	return func(d *Drawer) { d.afterSpin = fn }
}

// Drawer 抽奖流程：守卫 -> 取结果 -> 定位扇区 -> 转动 -> 展示
type Drawer struct {
	source  outcome.Source
	wheel   *wheel.Wheel
	ctl     *spin.Controller
	display Display
	picker  wheel.Picker

	beforeSpin func(o *outcome.Outcome, index int)
	afterSpin  func(res *Result)

	spinning atomic.Bool
	log      *log.Helper
}

// NewDrawer 创建 Drawer，display 可为空
func NewDrawer(src outcome.Source, w *wheel.Wheel, ctl *spin.Controller, display Display, logger log.Logger, opts ...Option) *Drawer {
	d := &Drawer{
		source:  src,
		wheel:   w,
		ctl:     ctl,
		display: display,
		picker:  wheel.DefaultPicker,
		log:     log.NewHelper(log.With(logger, "module", "draw")),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Busy 转动期间为 true，对应按钮禁用
func (d *Drawer) Busy() bool {
	return d.spinning.Load()
}

// Controller 转盘控制器
func (d *Drawer) Controller() *spin.Controller {
	return d.ctl
}

// Draw 执行一次抽奖，阻塞到转盘停止
func (d *Drawer) Draw(ctx context.Context) (*Result, error) {
	if !d.spinning.CompareAndSwap(false, true) {
		return nil, ErrSpinInProgress
	}
	defer d.spinning.Store(false)

	o, err := d.source.Draw(ctx)
	if err != nil {
		d.log.WithContext(ctx).Errorf("draw outcome failed: %v", err)
		return nil, ErrOutcomeUnavailable.WithCause(err)
	}
	if o == nil || !o.Success {
		d.log.WithContext(ctx).Warnf("outcome not successful: %+v", o)
		return nil, ErrOutcomeUnavailable
	}

	n := d.wheel.Len()
	index := wheel.ResolveTargetIndex(o, d.wheel.Segments(), d.picker)
	target := wheel.ComputeTargetAngle(index, n)
	if d.beforeSpin != nil {
		d.beforeSpin(o, index)
	}

	res := d.ctl.Spin(target)
	p := Present(o)
	if d.display != nil {
		d.display.Show(p)
	}

	landed := wheel.SegmentAt(res.FinalRotation, n)
	d.log.WithContext(ctx).Infof("draw done: type=%s result=%s target=%d landed=%d frames=%d elapsed=%s",
		o.Type, o.Result, index, landed, res.Frames, res.Elapsed)

	out := &Result{
		Outcome:      o,
		TargetIndex:  index,
		LandedIndex:  landed,
		TargetAngle:  target,
		Spin:         res,
		Presentation: p,
	}
	if d.afterSpin != nil {
		d.afterSpin(out)
	}
	return out, nil
}
