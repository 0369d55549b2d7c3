package service

import (
	"context"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"wheel/internal/biz"
	"wheel/internal/biz/lottery"
	"wheel/internal/conf"
	"wheel/internal/notify"
	"wheel/pkg/xgo"

	"github.com/go-kratos/kratos/v2/log"
	khttp "github.com/go-kratos/kratos/v2/transport/http"
	jsoniter "github.com/json-iterator/go"
)

type fakeRepo struct {
	mu       sync.Mutex
	claimed  []string
	resetErr error
}

func (f *fakeRepo) ClaimPrize(_ context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.claimed {
		if c == id {
			return false, nil
		}
	}
	f.claimed = append(f.claimed, id)
	return true, nil
}

func (f *fakeRepo) DrawnPrizes(context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.claimed...), nil
}

func (f *fakeRepo) ResetPrizes(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.resetErr != nil {
		return f.resetErr
	}
	f.claimed = nil
	return nil
}

func (f *fakeRepo) NextDrawID(context.Context) (string, error) {
	return "20240214-1", nil
}

func (f *fakeRepo) SaveRecord(context.Context, *lottery.Record) error {
	return nil
}

func (f *fakeRepo) S3Enabled() bool {
	return false
}

func (f *fakeRepo) RecentRecords(context.Context, int) ([]*lottery.Record, error) {
	return nil, nil
}

func (f *fakeRepo) UploadBytes(context.Context, string, string, string, []byte) (string, error) {
	return "", stderrors.New("not configured")
}

func newTestServer(t *testing.T, repo *fakeRepo) *khttp.Server {
	t.Helper()
	lot := lottery.NewUseCase(nil, repo, log.DefaultLogger)
	wc := &conf.Wheel{
		Width:  160,
		Spin:   &conf.Wheel_Spin{Duration: xgo.Duration(30 * time.Millisecond), FrameInterval: xgo.Duration(5 * time.Millisecond)},
		Record: &conf.Wheel_Record{Enabled: true, Every: 3},
	}
	uc, cleanup, err := biz.NewUseCase(wc, repo, lot, lot, notify.Noop{}, log.DefaultLogger)
	if err != nil {
		t.Fatalf("NewUseCase: %v", err)
	}
	t.Cleanup(cleanup)

	srv := khttp.NewServer()
	RegisterWheelServiceHTTPServer(srv, NewWheelService(uc, log.DefaultLogger))
	return srv
}

func do(srv http.Handler, method, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	req.Header.Set("Accept", "application/json")
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := jsoniter.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
}

func TestLotteryEndpoints(t *testing.T) {
	srv := newTestServer(t, &fakeRepo{})

	w := do(srv, http.MethodGet, "/api/status")
	if w.Code != http.StatusOK {
		t.Fatalf("status code = %d", w.Code)
	}
	var st map[string]any
	decode(t, w, &st)
	if st["drawnCount"] != float64(0) || st["totalPrizes"] != float64(3) || st["allPrizesDrawn"] != false {
		t.Fatalf("status = %v", st)
	}

	w = do(srv, http.MethodPost, "/api/draw")
	var o map[string]any
	decode(t, w, &o)
	if o["success"] != true || o["type"] != "prize" || o["result"] != "大奖" || o["message"] != "恭喜你抽中了大奖！" {
		t.Fatalf("draw = %v", o)
	}

	w = do(srv, http.MethodGet, "/api/admin/info")
	var info map[string]any
	decode(t, w, &info)
	drawn, _ := info["drawnPrizes"].([]any)
	if len(drawn) != 1 || drawn[0] != "grand" {
		t.Fatalf("admin info = %v", info)
	}

	w = do(srv, http.MethodPost, "/api/reset")
	var reset map[string]any
	decode(t, w, &reset)
	if w.Code != http.StatusOK || reset["success"] != true || reset["message"] != "抽奖状态已重置" {
		t.Fatalf("reset = %d %v", w.Code, reset)
	}
}

func TestResetFailure(t *testing.T) {
	srv := newTestServer(t, &fakeRepo{resetErr: stderrors.New("redis down")})
	w := do(srv, http.MethodPost, "/api/reset")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("code = %d", w.Code)
	}
	var reset map[string]any
	decode(t, w, &reset)
	if reset["success"] != false || reset["message"] != "重置失败" {
		t.Fatalf("reset = %v", reset)
	}
}

func TestSpinEndpoints(t *testing.T) {
	srv := newTestServer(t, &fakeRepo{})

	if w := do(srv, http.MethodGet, "/api/spin/record.gif"); w.Code != http.StatusNotFound {
		t.Fatalf("record before spin = %d", w.Code)
	}

	w := do(srv, http.MethodPost, "/api/spin")
	if w.Code != http.StatusOK {
		t.Fatalf("spin code = %d body=%s", w.Code, w.Body.String())
	}
	var res map[string]any
	decode(t, w, &res)
	if res["landedIndex"] != float64(0) || res["landed"] != "大奖" {
		t.Fatalf("spin = %v", res)
	}

	w = do(srv, http.MethodGet, "/api/result")
	var board map[string]any
	decode(t, w, &board)
	if board["visible"] != true {
		t.Fatalf("board = %v", board)
	}
	w = do(srv, http.MethodPost, "/api/result/dismiss")
	decode(t, w, &board)
	if board["visible"] != false {
		t.Fatalf("board after dismiss = %v", board)
	}

	w = do(srv, http.MethodGet, "/api/spin/record.gif")
	if w.Code != http.StatusOK || w.Header().Get("Content-Type") != "image/gif" {
		t.Fatalf("record = %d %s", w.Code, w.Header().Get("Content-Type"))
	}
	if !strings.HasPrefix(w.Body.String(), "GIF89a") {
		t.Fatalf("record is not a gif")
	}
}

func TestWheelPNG(t *testing.T) {
	srv := newTestServer(t, &fakeRepo{})

	w := do(srv, http.MethodGet, "/api/wheel.png?rotation=0.5")
	if w.Code != http.StatusOK || w.Header().Get("Content-Type") != "image/png" {
		t.Fatalf("png = %d %s", w.Code, w.Header().Get("Content-Type"))
	}
	if !strings.HasPrefix(w.Body.String(), "\x89PNG") {
		t.Fatalf("body is not a png")
	}

	if w := do(srv, http.MethodGet, "/api/wheel.png?rotation=abc"); w.Code != http.StatusBadRequest {
		t.Fatalf("bad rotation = %d", w.Code)
	}

	w = do(srv, http.MethodGet, "/api/wheel")
	var info map[string]any
	decode(t, w, &info)
	segs, _ := info["segments"].([]any)
	if len(segs) != 8 {
		t.Fatalf("wheel info = %v", info)
	}
	first, _ := segs[0].(map[string]any)
	if first["label"] != "大奖" || first["color"] != "#FF6B6B" || first["prize"] != true {
		t.Fatalf("first segment = %v", segs[0])
	}
}
