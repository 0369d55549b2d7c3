package biz

import (
	"context"
	"time"

	"wheel/internal/biz/lottery"
	"wheel/internal/biz/outcome"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// 通用标签
const labelType, labelReason, labelSegment = "type", "reason", "segment"

// 奖池状态上报间隔
const metricsReportInterval = 10 * time.Second

// 抽奖结果
var (
	cDraws    = promauto.NewCounterVec(prometheus.CounterOpts{Name: "wheel_draws_total", Help: "抽奖结果数"}, []string{labelType})
	cFailures = promauto.NewCounterVec(prometheus.CounterOpts{Name: "wheel_draw_failures_total", Help: "抽奖失败数"}, []string{labelReason})
	cLanded   = promauto.NewCounterVec(prometheus.CounterOpts{Name: "wheel_landed_total", Help: "停止扇区计数"}, []string{labelSegment})
)

// 转盘动画
var (
	hSpinSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "wheel_spin_duration_seconds",
		Help:    "转动耗时(秒)",
		Buckets: prometheus.LinearBuckets(2.5, 0.25, 8),
	})
	hSpinFrames = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "wheel_spin_frames",
		Help:    "每次转动渲染帧数",
		Buckets: prometheus.LinearBuckets(150, 10, 10),
	})
	gRotation = promauto.NewGauge(prometheus.GaugeOpts{Name: "wheel_rotation_radians", Help: "累计旋转角(弧度)"})
	gSpinning = promauto.NewGauge(prometheus.GaugeOpts{Name: "wheel_spinning", Help: "是否转动中(0/1)"})
)

// 奖池
var (
	gPrizesDrawn = promauto.NewGauge(prometheus.GaugeOpts{Name: "wheel_prizes_drawn", Help: "已抽出奖品数"})
	gPrizesTotal = promauto.NewGauge(prometheus.GaugeOpts{Name: "wheel_prizes_total", Help: "奖品总数"})
)

func observeOutcome(o *outcome.Outcome, err error) {
	switch {
	case err != nil:
		cFailures.With(prometheus.Labels{labelReason: "error"}).Inc()
	case o == nil || !o.Success:
		cFailures.With(prometheus.Labels{labelReason: "unsuccessful"}).Inc()
	default:
		cDraws.With(prometheus.Labels{labelType: o.Type}).Inc()
	}
}

func observeBusy() {
	cFailures.With(prometheus.Labels{labelReason: "busy"}).Inc()
}

func observeSpin(landed string, elapsed time.Duration, frames int, rotation float64) {
	cLanded.With(prometheus.Labels{labelSegment: landed}).Inc()
	hSpinSeconds.Observe(elapsed.Seconds())
	hSpinFrames.Observe(float64(frames))
	gRotation.Set(rotation)
}

func setSpinning(b bool) {
	if b {
		gSpinning.Set(1)
		return
	}
	gSpinning.Set(0)
}

// ReportLotteryMetrics 定时上报奖池状态，ctx 取消后退出
func ReportLotteryMetrics(ctx context.Context, lot *lottery.UseCase) {
	ticker := time.NewTicker(metricsReportInterval)
	defer ticker.Stop()

	report := func() {
		st, err := lot.Status(ctx)
		if err != nil {
			log.Warnf("report lottery metrics: %v", err)
			return
		}
		gPrizesDrawn.Set(float64(st.DrawnCount))
		gPrizesTotal.Set(float64(st.TotalPrizes))
	}

	report()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			report()
		}
	}
}
