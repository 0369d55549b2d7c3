package lottery

import (
	"context"
	stderrors "errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"testing"

	"wheel/internal/biz/outcome"
	"wheel/internal/conf"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
)

type memRepo struct {
	mu       sync.Mutex
	claimed  []string
	records  []*Record
	seq      int
	resetErr error
}

func (m *memRepo) ClaimPrize(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.claimed {
		if c == id {
			return false, nil
		}
	}
	m.claimed = append(m.claimed, id)
	return true, nil
}

func (m *memRepo) DrawnPrizes(context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.claimed...), nil
}

func (m *memRepo) ResetPrizes(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.resetErr != nil {
		return m.resetErr
	}
	m.claimed = nil
	return nil
}

func (m *memRepo) NextDrawID(context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	return fmt.Sprintf("20240214-%d", m.seq), nil
}

func (m *memRepo) SaveRecord(_ context.Context, r *Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, r)
	return nil
}

func (m *memRepo) RecentRecords(_ context.Context, limit int) ([]*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Record, 0, limit)
	for i := len(m.records) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.records[i])
	}
	return out, nil
}

func TestDrawOrder(t *testing.T) {
	repo := &memRepo{}
	uc := NewUseCase(nil, repo, log.DefaultLogger)
	ctx := context.Background()

	for i, name := range []string{"大奖", "二等奖", "特别奖"} {
		o, err := uc.Draw(ctx)
		if err != nil {
			t.Fatalf("Draw: %v", err)
		}
		if !o.Success || o.Type != outcome.TypePrize || o.Result != name || o.Message != "恭喜你抽中了"+name+"！" {
			t.Fatalf("outcome = %+v, want prize %s", o, name)
		}
		if want := fmt.Sprintf("20240214-%d", i+1); o.DrawID != want {
			t.Fatalf("draw id = %q, want %q", o.DrawID, want)
		}
	}

	poems := map[string]bool{}
	for _, p := range DefaultPoems() {
		poems[p] = true
	}
	for i := 0; i < 10; i++ {
		o, err := uc.Draw(ctx)
		if err != nil {
			t.Fatalf("Draw: %v", err)
		}
		if o.Type != outcome.TypePoem || o.Message != PoemMessage || !poems[o.Result] {
			t.Fatalf("outcome = %+v, want poem", o)
		}
	}

	if len(repo.records) != 13 {
		t.Fatalf("records = %d, want 13", len(repo.records))
	}
	if repo.records[0].DrawID != "20240214-1" || repo.records[0].Result != "大奖" {
		t.Fatalf("first record = %+v", repo.records[0])
	}
}

func TestStatusAndReset(t *testing.T) {
	repo := &memRepo{}
	uc := NewUseCase(nil, repo, log.DefaultLogger)
	ctx := context.Background()

	st, err := uc.Status(ctx)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if *st != (Status{DrawnCount: 0, TotalPrizes: 3, AllPrizesDrawn: false}) {
		t.Fatalf("status = %+v", st)
	}

	for i := 0; i < 3; i++ {
		if _, err := uc.Draw(ctx); err != nil {
			t.Fatalf("Draw: %v", err)
		}
	}
	st, _ = uc.Status(ctx)
	if !st.AllPrizesDrawn || st.DrawnCount != 3 {
		t.Fatalf("status after 3 draws = %+v", st)
	}

	info, err := uc.AdminInfo(ctx)
	if err != nil {
		t.Fatalf("AdminInfo: %v", err)
	}
	if len(info.DrawnPrizes) != 3 || info.DrawnPrizes[0] != "grand" || info.DrawnPrizes[2] != "special" {
		t.Fatalf("drawn prizes = %v", info.DrawnPrizes)
	}
	if len(info.RecentRecords) != 3 || info.RecentRecords[0].Result != "特别奖" {
		t.Fatalf("recent records = %+v", info.RecentRecords)
	}

	reply, err := uc.Reset(ctx)
	if err != nil || !reply.Success || reply.Message != ResetMessage {
		t.Fatalf("Reset = %+v, %v", reply, err)
	}
	o, _ := uc.Draw(ctx)
	if o.Result != "大奖" {
		t.Fatalf("after reset first draw = %s, want 大奖", o.Result)
	}
}

func TestResetFailure(t *testing.T) {
	repo := &memRepo{resetErr: stderrors.New("redis down")}
	uc := NewUseCase(nil, repo, log.DefaultLogger)
	_, err := uc.Reset(context.Background())
	if !errors.Is(err, ErrResetFailed) {
		t.Fatalf("err = %v, want ErrResetFailed", err)
	}
	if e := errors.FromError(err); e.Code != 500 || e.Message != "重置失败" {
		t.Fatalf("kratos error = %d %q", e.Code, e.Message)
	}
}

func TestConfiguredPrizes(t *testing.T) {
	c := &conf.Lottery{
		Prizes: []*conf.Lottery_Prize{{Id: "a", Name: "一等奖"}, nil, {Id: "", Name: "无效"}},
		Poems:  []string{"只此一句"},
	}
	uc := NewUseCase(c, &memRepo{}, log.DefaultLogger)
	uc.SetPicker(rand.New(rand.NewPCG(1, 2)))
	if got := uc.Prizes(); len(got) != 1 || got[0].Name != "一等奖" {
		t.Fatalf("prizes = %+v", got)
	}
	ctx := context.Background()
	if o, _ := uc.Draw(ctx); o.Result != "一等奖" {
		t.Fatalf("first draw = %+v", o)
	}
	if o, _ := uc.Draw(ctx); o.Result != "只此一句" {
		t.Fatalf("second draw = %+v", o)
	}
}

func TestConcurrentDrawsClaimOnce(t *testing.T) {
	repo := &memRepo{}
	uc := NewUseCase(nil, repo, log.DefaultLogger)

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		prizes = map[string]int{}
	)
	for i := 0; i < 30; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			o, err := uc.Draw(context.Background())
			if err != nil {
				t.Errorf("Draw: %v", err)
				return
			}
			if o.IsPrize() {
				mu.Lock()
				prizes[o.Result]++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if len(prizes) != 3 {
		t.Fatalf("prizes = %v", prizes)
	}
	for name, n := range prizes {
		if n != 1 {
			t.Fatalf("prize %s drawn %d times", name, n)
		}
	}
}
