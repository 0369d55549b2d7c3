package render

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/color/palette"
	"image/draw"
	"image/gif"
	"io"
	"runtime"
	"sync"
	"time"

	"wheel/internal/biz/wheel"

	"github.com/panjf2000/ants/v2"
)

// ErrNoFrames 尚未录制任何帧
var ErrNoFrames = errors.New("no frames recorded")

const finalFrameHold = 200 // 末帧停留 2s，单位 1/100s

// Recorder 包装 WheelRenderer，每 every 帧截取一帧，用于导出 GIF 回放
type Recorder struct {
	inner   *WheelRenderer
	every   int
	delay   int
	workers int
	palette color.Palette

	mu           sync.Mutex
	count        int
	frames       []*image.RGBA
	lastRotation float64
	lastCaptured bool
}

// NewRecorder every<=0 视为 1，frameInterval 用于计算 GIF 帧间延迟
func NewRecorder(inner *WheelRenderer, w *wheel.Wheel, every int, frameInterval time.Duration, workers int) *Recorder {
	if every <= 0 {
		every = 1
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	delay := int(time.Duration(every) * frameInterval / (10 * time.Millisecond))
	if delay < 2 {
		delay = 2
	}
	return &Recorder{
		inner:   inner,
		every:   every,
		delay:   delay,
		workers: workers,
		palette: buildPalette(w),
	}
}

// Render 转发给内部渲染器，按间隔采样
func (r *Recorder) Render(rotation float64) {
	r.inner.Render(rotation)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastRotation = rotation
	r.lastCaptured = r.count%r.every == 0
	if r.lastCaptured {
		r.frames = append(r.frames, r.inner.Snapshot())
	}
	r.count++
}

// Reset 清空已录制的帧
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.count = 0
	r.frames = nil
	r.lastCaptured = false
}

// Frames 已录制帧数
func (r *Recorder) Frames() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.frames)
}

// EncodeGIF 并发量化调色板后编码为 GIF，末帧一定是停止位置
func (r *Recorder) EncodeGIF(w io.Writer) error {
	r.mu.Lock()
	if len(r.frames) == 0 {
		r.mu.Unlock()
		return ErrNoFrames
	}
	if !r.lastCaptured {
		r.inner.Render(r.lastRotation)
		r.frames = append(r.frames, r.inner.Snapshot())
		r.lastCaptured = true
	}
	frames := make([]*image.RGBA, len(r.frames))
	copy(frames, r.frames)
	r.mu.Unlock()

	pool, err := ants.NewPool(r.workers)
	if err != nil {
		return fmt.Errorf("new ants pool: %w", err)
	}
	defer pool.Release()

	out := make([]*image.Paletted, len(frames))
	var wg sync.WaitGroup
	var submitErr error
	for i, frame := range frames {
		i, frame := i, frame
		wg.Add(1)
		if err := pool.Submit(func() {
			defer wg.Done()
			out[i] = quantize(frame, r.palette)
		}); err != nil {
			wg.Done()
			submitErr = err
			break
		}
	}
	wg.Wait()
	if submitErr != nil {
		return fmt.Errorf("submit quantize task: %w", submitErr)
	}

	delays := make([]int, len(out))
	for i := range delays {
		delays[i] = r.delay
	}
	delays[len(delays)-1] = finalFrameHold

	return gif.EncodeAll(w, &gif.GIF{
		Image:     out,
		Delay:     delays,
		LoopCount: -1, // 只播放一次
	})
}

func quantize(src *image.RGBA, p color.Palette) *image.Paletted {
	dst := image.NewPaletted(src.Bounds(), p)
	draw.Draw(dst, dst.Bounds(), src, src.Bounds().Min, draw.Src)
	return dst
}

// buildPalette 扇区颜色与固定装饰色精确保留，剩余位置用 web 安全色补齐
func buildPalette(w *wheel.Wheel) color.Palette {
	p := color.Palette{color.Transparent}
	seen := map[color.RGBA]bool{}
	add := func(c color.RGBA) {
		if !seen[c] && len(p) < 256 {
			seen[c] = true
			p = append(p, c)
		}
	}
	addHex := func(hex string) {
		if r, g, b, err := wheel.ParseHexColor(hex); err == nil {
			add(color.RGBA{R: r, G: g, B: b, A: 0xFF})
		}
	}
	addHex(borderColor)
	addHex(hubBorderColor)
	if w != nil {
		for _, seg := range w.Segments() {
			addHex(seg.Color)
		}
	}
	for _, c := range palette.WebSafe {
		add(color.RGBAModel.Convert(c).(color.RGBA))
	}
	return p
}
