package render

import (
	"fmt"
	"image"
	"image/draw"
	"io"
	"math"
	"sync"

	"wheel/internal/biz/wheel"

	"github.com/fogleman/gg"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
)

const (
	DefaultSize     = 500
	DefaultFontSize = 18.0

	rimMargin      = 10.0 // 扇区半径 = 宽/2 - rimMargin
	labelRadius    = 0.65
	borderWidth    = 3.0
	hubRadius      = 60.0
	hubBorderWidth = 4.0
)

var (
	borderColor    = "#FFFFFF"
	labelColor     = "#FFFFFF"
	hubFillColor   = "#FFFFFF"
	hubBorderColor = "#FF6B6B"
)

// Options 画布与字体
type Options struct {
	Width    int
	Height   int
	FontPath string // 为空时使用内置点阵字体（不含中文字形）
	FontSize float64
}

// WheelRenderer 把扇区列表在任意旋转角下绘制到内存画布
type WheelRenderer struct {
	mu       sync.Mutex
	dc       *gg.Context
	face     font.Face
	segments []wheel.Segment
}

// NewWheelRenderer 创建渲染器
func NewWheelRenderer(w *wheel.Wheel, opts Options) (*WheelRenderer, error) {
	if w == nil {
		return nil, fmt.Errorf("wheel is nil")
	}
	if opts.Width <= 0 {
		opts.Width = DefaultSize
	}
	if opts.Height <= 0 {
		opts.Height = opts.Width
	}
	if opts.FontSize <= 0 {
		opts.FontSize = DefaultFontSize
	}
	var face font.Face = basicfont.Face7x13
	if opts.FontPath != "" {
		f, err := gg.LoadFontFace(opts.FontPath, opts.FontSize)
		if err != nil {
			return nil, fmt.Errorf("load font %s: %w", opts.FontPath, err)
		}
		face = f
	}
	dc := gg.NewContext(opts.Width, opts.Height)
	dc.SetFontFace(face)
	return &WheelRenderer{dc: dc, face: face, segments: w.Segments()}, nil
}

// MissingGlyphs 字体中缺字形的扇区标签，这些标签会显示为方块
func (r *WheelRenderer) MissingGlyphs() []string {
	var out []string
	for _, seg := range r.segments {
		for _, c := range seg.Label {
			if _, ok := r.face.GlyphAdvance(c); !ok {
				out = append(out, seg.Label)
				break
			}
		}
	}
	return out
}

// Radius 扇区半径
func (r *WheelRenderer) Radius() float64 {
	return float64(r.dc.Width())/2 - rimMargin
}

// Render 整体重绘：清空、平移到中心并旋转、逐个画扇区与文字、最后画中心圆
func (r *WheelRenderer) Render(rotation float64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	dc := r.dc
	cx, cy := float64(dc.Width())/2, float64(dc.Height())/2
	radius := r.Radius()
	slice := wheel.SliceAngle(len(r.segments))

	dc.SetRGBA(0, 0, 0, 0)
	dc.Clear()

	dc.Push()
	dc.Translate(cx, cy)
	dc.Rotate(rotation)

	for i, seg := range r.segments {
		start := float64(i)*slice - math.Pi/2
		end := start + slice

		dc.NewSubPath()
		dc.MoveTo(0, 0)
		dc.DrawArc(0, 0, radius, start, end)
		dc.ClosePath()
		dc.SetHexColor(seg.Color)
		dc.FillPreserve()

		dc.SetHexColor(borderColor)
		dc.SetLineWidth(borderWidth)
		dc.Stroke()

		dc.Push()
		dc.Rotate(start + slice/2)
		r.drawLabel(seg.Label, radius*labelRadius)
		dc.Pop()
	}

	// 装饰用中心圆，不参与结果判定
	dc.DrawCircle(0, 0, hubRadius)
	dc.SetHexColor(hubFillColor)
	dc.FillPreserve()
	dc.SetHexColor(hubBorderColor)
	dc.SetLineWidth(hubBorderWidth)
	dc.Stroke()

	dc.Pop()
}

// drawLabel 先画几层偏移的半透明黑字模拟柔和阴影，再画白字
func (r *WheelRenderer) drawLabel(label string, x float64) {
	dc := r.dc
	for _, off := range [][2]float64{{1, 1}, {2, 2}, {0, 2}, {2, 0}} {
		dc.SetRGBA(0, 0, 0, 0.1)
		dc.DrawStringAnchored(label, x+off[0], off[1], 0.5, 0.5)
	}
	dc.SetHexColor(labelColor)
	dc.DrawStringAnchored(label, x, 0, 0.5, 0.5)
}

// Snapshot 复制当前画布
func (r *WheelRenderer) Snapshot() *image.RGBA {
	r.mu.Lock()
	defer r.mu.Unlock()
	src := r.dc.Image()
	dst := image.NewRGBA(src.Bounds())
	draw.Draw(dst, dst.Bounds(), src, src.Bounds().Min, draw.Src)
	return dst
}

// EncodePNG 输出当前画布
func (r *WheelRenderer) EncodePNG(w io.Writer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dc.EncodePNG(w)
}
