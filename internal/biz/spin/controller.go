package spin

import (
	"math"
	"sync"
	"time"

	"wheel/internal/biz/wheel"
)

const (
	DefaultDuration      = 3000 * time.Millisecond
	DefaultExtraSpins    = 5
	DefaultFrameInterval = 16 * time.Millisecond
)

// Renderer 每帧调用一次，参数为当前累计旋转角
type Renderer interface {
	Render(rotation float64)
}

// RendererFunc 适配普通函数
type RendererFunc func(rotation float64)

func (f RendererFunc) Render(rotation float64) { f(rotation) }

// Result 一次旋转的结果
type Result struct {
	StartRotation float64
	TargetAngle   float64
	AngleDiff     float64
	TotalRotation float64
	FinalRotation float64
	Frames        int
	Elapsed       time.Duration
}

// Option 控制器选项
type Option func(*Controller)

// WithDuration 动画时长
func WithDuration(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.duration = d
		}
	}
}

// WithExtraSpins 额外整圈数
func WithExtraSpins(n int) Option {
	return func(c *Controller) {
		if n >= 0 {
			c.extraSpins = n
		}
	}
}

// WithFrameInterval 帧间隔
func WithFrameInterval(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.frameInterval = d
		}
	}
}

// WithClock 注入时钟与帧等待，测试用
func WithClock(now func() time.Time, sleep func(time.Duration)) Option {
	return func(c *Controller) {
		if now != nil {
			c.now = now
		}
		if sleep != nil {
			c.sleep = sleep
		}
	}
}

// Controller 持有转盘累计旋转角并驱动动画。
// rotation 初始为 0，只增不减，进程内不重置。
type Controller struct {
	mu       sync.RWMutex
	rotation float64

	renderer      Renderer
	duration      time.Duration
	extraSpins    int
	frameInterval time.Duration
	now           func() time.Time
	sleep         func(time.Duration)
}

// NewController 创建控制器
func NewController(r Renderer, opts ...Option) *Controller {
	c := &Controller{
		renderer:      r,
		duration:      DefaultDuration,
		extraSpins:    DefaultExtraSpins,
		frameInterval: DefaultFrameInterval,
		now:           time.Now,
		sleep:         time.Sleep,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Rotation 当前累计旋转角
func (c *Controller) Rotation() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.rotation
}

// Duration 动画时长
func (c *Controller) Duration() time.Duration {
	return c.duration
}

// Plan 计算一次旋转的起点、角差与总旋转量，不修改状态
func (c *Controller) Plan(targetAngle float64) (start, angleDiff, total float64) {
	start = c.Rotation()
	normalizedTarget := wheel.Normalize(targetAngle)
	angleDiff = wheel.Normalize(normalizedTarget - math.Mod(start, wheel.TwoPi))
	total = float64(c.extraSpins)*wheel.TwoPi + angleDiff
	return start, angleDiff, total
}

// Start 启动动画任务，完成后通过 channel 返回结果。
// 同一控制器不应并发调用，互斥由调用方（抽奖守卫）保证。
func (c *Controller) Start(targetAngle float64) <-chan Result {
	done := make(chan Result, 1)
	go func() {
		done <- c.run(targetAngle)
		close(done)
	}()
	return done
}

// Spin 启动并等待动画结束
func (c *Controller) Spin(targetAngle float64) Result {
	return <-c.Start(targetAngle)
}

func (c *Controller) run(targetAngle float64) Result {
	start, angleDiff, total := c.Plan(targetAngle)
	begin := c.now()

	frames := 0
	for {
		progress := float64(c.now().Sub(begin)) / float64(c.duration)
		if progress > 1 {
			progress = 1
		}
		if progress < 0 {
			progress = 0
		}

		// 先同步渲染本帧，再等待下一帧
		if c.renderer != nil {
			if progress >= 1 {
				c.renderer.Render(start + total)
			} else {
				c.renderer.Render(start + total*EaseOutCubic(progress))
			}
		}
		frames++

		if progress >= 1 {
			break
		}
		c.sleep(c.frameInterval)
	}

	final := start + total
	c.mu.Lock()
	c.rotation = final
	c.mu.Unlock()

	return Result{
		StartRotation: start,
		TargetAngle:   targetAngle,
		AngleDiff:     angleDiff,
		TotalRotation: total,
		FinalRotation: final,
		Frames:        frames,
		Elapsed:       c.now().Sub(begin),
	}
}

// EaseOutCubic 1-(1-p)^3
func EaseOutCubic(p float64) float64 {
	q := 1 - p
	return 1 - q*q*q
}
