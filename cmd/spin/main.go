package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"wheel/internal/biz/draw"
	"wheel/internal/biz/outcome"
	"wheel/internal/biz/render"
	"wheel/internal/biz/spin"
	"wheel/internal/biz/wheel"
	"wheel/pkg/xgo"
	"wheel/pkg/zap"

	"github.com/go-kratos/kratos/v2/log"
)

type options struct {
	baseURL  string
	times    int
	outDir   string
	fontPath string
	size     int
	every    int
	timeout  time.Duration
}

func main() {
	var opts options
	flag.StringVar(&opts.baseURL, "base-url", "http://127.0.0.1:1314", "outcome source base url")
	flag.IntVar(&opts.times, "times", 1, "number of draws")
	flag.StringVar(&opts.outDir, "out", ".", "output directory for png/gif")
	flag.StringVar(&opts.fontPath, "font", "", "ttf font with CJK glyphs")
	flag.IntVar(&opts.size, "size", render.DefaultSize, "canvas size in px")
	flag.IntVar(&opts.every, "every", 4, "record every n-th frame")
	flag.DurationVar(&opts.timeout, "timeout", 10*time.Second, "outcome request timeout")
	flag.Parse()

	logger := zap.NewLoggerWithConfig(&zap.Config{Mode: zap.Dev, Level: "info", App: "spin"})
	defer logger.Sync()
	l := log.NewHelper(logger)

	if err := run(opts, logger); err != nil {
		l.Errorf("spin: %v", err)
		os.Exit(1)
	}
}

func run(opts options, logger log.Logger) error {
	l := log.NewHelper(logger)

	w, err := wheel.New(wheel.DefaultSegments())
	if err != nil {
		return err
	}
	r, err := render.NewWheelRenderer(w, render.Options{Width: opts.size, FontPath: opts.fontPath})
	if err != nil {
		return err
	}
	if missing := r.MissingGlyphs(); len(missing) > 0 {
		l.Warnf("font lacks glyphs for labels %q, pass -font with a CJK ttf", missing)
	}
	rec := render.NewRecorder(r, w, opts.every, spin.DefaultFrameInterval, 0)
	ctl := spin.NewController(rec)
	display := draw.DisplayFunc(func(p draw.Presentation) {
		l.Infof("%s %s %s", p.Icon, p.Title, p.Message)
	})
	src := outcome.NewAPIClient(opts.baseURL, opts.timeout)
	d := draw.NewDrawer(src, w, ctl, display, logger, draw.WithBeforeSpin(func(*outcome.Outcome, int) {
		rec.Reset()
	}))

	if err := os.MkdirAll(opts.outDir, 0o755); err != nil {
		return err
	}
	r.Render(0)

	failed := 0
	for i := 1; i <= opts.times; i++ {
		start := time.Now()
		res, err := d.Draw(context.Background())
		if err != nil {
			// 单次失败不中断，提示与页面一致
			l.Warnf("draw %d: %s (%v)", i, draw.RetryNotice, err)
			failed++
			continue
		}
		name := fmt.Sprintf("spin-%03d", i)
		if err := writeOutputs(opts.outDir, name, r, rec); err != nil {
			return err
		}
		l.Infof("draw %d: %s -> segment %d (%s), rotation=%.4f, frames=%d, took %s",
			i, res.Outcome.Result, res.LandedIndex, w.Segment(res.LandedIndex).Label,
			res.Spin.FinalRotation, res.Spin.Frames, xgo.ShortDuration(time.Since(start)))
	}
	if failed == opts.times && opts.times > 0 {
		return fmt.Errorf("all %d draws failed", failed)
	}
	return nil
}

func writeOutputs(dir, name string, r *render.WheelRenderer, rec *render.Recorder) error {
	pngFile, err := os.Create(filepath.Join(dir, name+".png"))
	if err != nil {
		return err
	}
	if err := r.EncodePNG(pngFile); err != nil {
		pngFile.Close()
		return err
	}
	if err := pngFile.Close(); err != nil {
		return err
	}

	gifFile, err := os.Create(filepath.Join(dir, name+".gif"))
	if err != nil {
		return err
	}
	if err := rec.EncodeGIF(gifFile); err != nil {
		gifFile.Close()
		return err
	}
	return gifFile.Close()
}
