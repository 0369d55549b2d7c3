package draw

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"
	"time"

	"wheel/internal/biz/outcome"
	"wheel/internal/biz/spin"
	"wheel/internal/biz/wheel"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
)

// stepClock sleep 直接推进时间
type stepClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *stepClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *stepClock) sleep(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newTestDrawer(t *testing.T, src outcome.Source, display Display, opts ...Option) *Drawer {
	t.Helper()
	w, err := wheel.New(wheel.DefaultSegments())
	if err != nil {
		t.Fatalf("wheel.New: %v", err)
	}
	clk := &stepClock{t: time.Unix(0, 0)}
	ctl := spin.NewController(nil, spin.WithClock(clk.now, clk.sleep))
	return NewDrawer(src, w, ctl, display, log.DefaultLogger, opts...)
}

func TestDrawPrize(t *testing.T) {
	board := NewBoard()
	src := outcome.SourceFunc(func(context.Context) (*outcome.Outcome, error) {
		return &outcome.Outcome{Success: true, Type: outcome.TypePrize, Result: "大奖", Message: "恭喜你抽中了大奖！"}, nil
	})
	d := newTestDrawer(t, src, board)

	res, err := d.Draw(context.Background())
	if err != nil {
		t.Fatalf("Draw: %v", err)
	}
	if res.TargetIndex != 0 || res.LandedIndex != 0 {
		t.Fatalf("target=%d landed=%d, want 0", res.TargetIndex, res.LandedIndex)
	}
	want := Presentation{Icon: IconPrize, Title: "大奖", Message: "恭喜你抽中了大奖！"}
	if res.Presentation != want {
		t.Fatalf("presentation = %+v", res.Presentation)
	}
	st := board.State()
	if !st.Visible || st.Presentation != want {
		t.Fatalf("board = %+v", st)
	}
	if d.Busy() {
		t.Fatalf("drawer still busy after draw")
	}

	board.Dismiss()
	if board.State().Visible {
		t.Fatalf("Dismiss did not hide board")
	}
	if d.Controller().Rotation() != res.Spin.FinalRotation {
		t.Fatalf("dismiss must not touch rotation")
	}
}

func TestDrawPoem(t *testing.T) {
	src := outcome.SourceFunc(func(context.Context) (*outcome.Outcome, error) {
		return &outcome.Outcome{Success: true, Type: outcome.TypePoem, Result: "山有木兮木有枝", Message: "送你一句情话~"}, nil
	})
	var got []Presentation
	d := newTestDrawer(t, src, DisplayFunc(func(p Presentation) { got = append(got, p) }))

	for i := 0; i < 20; i++ {
		res, err := d.Draw(context.Background())
		if err != nil {
			t.Fatalf("Draw: %v", err)
		}
		if wheel.DefaultSegments()[res.LandedIndex].Prize {
			t.Fatalf("poem landed on prize segment %d", res.LandedIndex)
		}
	}
	if len(got) != 20 {
		t.Fatalf("display called %d times", len(got))
	}
	if got[0].Icon != IconOther || got[0].Message != "" || got[0].Title != "山有木兮木有枝" {
		t.Fatalf("presentation = %+v", got[0])
	}
}

func TestDrawOutcomeFailure(t *testing.T) {
	cases := []struct {
		name string
		src  outcome.Source
	}{
		{"transport", outcome.SourceFunc(func(context.Context) (*outcome.Outcome, error) {
			return nil, stderrors.New("connection refused")
		})},
		{"unsuccessful", outcome.SourceFunc(func(context.Context) (*outcome.Outcome, error) {
			return &outcome.Outcome{Success: false}, nil
		})},
		{"nil", outcome.SourceFunc(func(context.Context) (*outcome.Outcome, error) {
			return nil, nil
		})},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			shown := false
			d := newTestDrawer(t, c.src, DisplayFunc(func(Presentation) { shown = true }))
			_, err := d.Draw(context.Background())
			if !errors.Is(err, ErrOutcomeUnavailable) {
				t.Fatalf("err = %v, want ErrOutcomeUnavailable", err)
			}
			if e := errors.FromError(err); e.Code != 503 || e.Message != RetryNotice {
				t.Fatalf("kratos error = %d %q", e.Code, e.Message)
			}
			if d.Controller().Rotation() != 0 {
				t.Fatalf("rotation changed on failure")
			}
			if d.Busy() {
				t.Fatalf("guard not released on failure")
			}
			if shown {
				t.Fatalf("display called on failure")
			}
		})
	}
}

func TestDrawRejectsConcurrent(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	src := outcome.SourceFunc(func(context.Context) (*outcome.Outcome, error) {
		close(entered)
		<-release
		return &outcome.Outcome{Success: true, Type: outcome.TypePrize, Result: "二等奖"}, nil
	})
	d := newTestDrawer(t, src, nil)

	done := make(chan error, 1)
	go func() {
		_, err := d.Draw(context.Background())
		done <- err
	}()
	<-entered

	if !d.Busy() {
		t.Fatalf("drawer should be busy")
	}
	if _, err := d.Draw(context.Background()); !errors.Is(err, ErrSpinInProgress) {
		t.Fatalf("second draw err = %v, want ErrSpinInProgress", err)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first draw: %v", err)
	}
	if got := wheel.SegmentAt(d.Controller().Rotation(), 8); got != 2 {
		t.Fatalf("landed on %d, want 2", got)
	}
}

func TestBeforeSpinHook(t *testing.T) {
	src := outcome.SourceFunc(func(context.Context) (*outcome.Outcome, error) {
		return &outcome.Outcome{Success: true, Type: outcome.TypePrize, Result: "特别奖"}, nil
	})
	called := -1
	d := newTestDrawer(t, src, nil, WithBeforeSpin(func(o *outcome.Outcome, index int) {
		called = index
	}))
	if _, err := d.Draw(context.Background()); err != nil {
		t.Fatalf("Draw: %v", err)
	}
	if called != 4 {
		t.Fatalf("before spin index = %d, want 4", called)
	}
}

func TestAfterSpinCapture(t *testing.T) {
	src := outcome.SourceFunc(func(context.Context) (*outcome.Outcome, error) {
		return &outcome.Outcome{Success: true, Type: outcome.TypePrize, Result: "二等奖"}, nil
	})
	var busy bool
	var d *Drawer
	d = newTestDrawer(t, src, nil, WithAfterSpin(func(res *Result) {
		busy = d.Busy()
		res.Capture = &Capture{GIF: []byte("GIF89a"), At: time.Unix(1, 0)}
	}))

	res, err := d.Draw(context.Background())
	if err != nil {
		t.Fatalf("Draw: %v", err)
	}
	if !busy {
		t.Fatalf("afterSpin must run while the guard is held")
	}
	if res.Capture == nil || string(res.Capture.GIF) != "GIF89a" {
		t.Fatalf("capture = %+v", res.Capture)
	}
}
