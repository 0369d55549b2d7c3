package lottery

import (
	"context"
	"fmt"
	"time"

	"wheel/internal/biz/outcome"
	"wheel/internal/biz/wheel"
	"wheel/internal/conf"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
)

const (
	PoemMessage  = "送你一句情话~"
	ResetMessage = "抽奖状态已重置"
	recentLimit  = 20
)

// ErrResetFailed 重置失败
var ErrResetFailed = errors.New(500, "RESET_FAILED", "重置失败")

// Prize 奖品，按配置顺序依次抽出
type Prize struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// Record 一次抽奖记录
type Record struct {
	DrawID    string    `json:"drawId"`
	Type      string    `json:"type"`
	Result    string    `json:"result"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

// Status GET /api/status
type Status struct {
	DrawnCount     int  `json:"drawnCount"`
	TotalPrizes    int  `json:"totalPrizes"`
	AllPrizesDrawn bool `json:"allPrizesDrawn"`
}

// AdminInfo GET /api/admin/info
type AdminInfo struct {
	DrawnPrizes    []string  `json:"drawnPrizes"`
	Prizes         []Prize   `json:"prizes"`
	AllPrizesDrawn bool      `json:"allPrizesDrawn"`
	RecentRecords  []*Record `json:"recentRecords"`
}

// ResetReply POST /api/reset
type ResetReply struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Repo 奖池状态存储
type Repo interface {
	// ClaimPrize 原子领取，已被领取返回 false
	ClaimPrize(ctx context.Context, prizeID string) (bool, error)
	// DrawnPrizes 按领取顺序返回
	DrawnPrizes(ctx context.Context) ([]string, error)
	ResetPrizes(ctx context.Context) error
	NextDrawID(ctx context.Context) (string, error)
	SaveRecord(ctx context.Context, r *Record) error
	RecentRecords(ctx context.Context, limit int) ([]*Record, error)
}

// DefaultPrizes 大奖 -> 二等奖 -> 特别奖
func DefaultPrizes() []Prize {
	return []Prize{
		{ID: "grand", Name: "大奖", Type: outcome.TypePrize},
		{ID: "second", Name: "二等奖", Type: outcome.TypePrize},
		{ID: "special", Name: "特别奖", Type: outcome.TypePrize},
	}
}

// DefaultPoems 奖品抽完后随机返回
func DefaultPoems() []string {
	return []string{
		"愿得一心人，白首不相离",
		"山有木兮木有枝，心悦君兮君不知",
		"玲珑骰子安红豆，入骨相思知不知",
		"一日不见兮，思之如狂",
		"执子之手，与子偕老",
		"愿我如星君如月，夜夜流光相皎洁",
		"身无彩凤双飞翼，心有灵犀一点通",
		"在天愿作比翼鸟，在地愿为连理枝",
		"此情可待成追忆，只是当时已惘然",
		"两情若是久长时，又岂在朝朝暮暮",
		"金风玉露一相逢，便胜却人间无数",
		"柔情似水，佳期如梦",
		"君问归期未有期，巴山夜雨涨秋池",
		"曾经沧海难为水，除却巫山不是云",
		"只愿君心似我心，定不负相思意",
		"一生一世一双人，半醉半醒半浮生",
		"情不知所起，一往而深",
		"你是我的独家记忆，我的甜蜜回忆",
		"余生很长，想和你在一起",
		"世间所有的相遇，都是久别重逢",
	}
}

// PrizeMessage 恭喜你抽中了X！
func PrizeMessage(name string) string {
	return fmt.Sprintf("恭喜你抽中了%s！", name)
}

// UseCase 奖池逻辑，同时是进程内的 outcome.Source
type UseCase struct {
	repo   Repo
	prizes []Prize
	poems  []string
	picker wheel.Picker
	log    *log.Helper
}

// NewUseCase 配置为空时使用默认奖品与情话
func NewUseCase(c *conf.Lottery, repo Repo, logger log.Logger) *UseCase {
	uc := &UseCase{
		repo:   repo,
		prizes: DefaultPrizes(),
		poems:  DefaultPoems(),
		picker: wheel.DefaultPicker,
		log:    log.NewHelper(log.With(logger, "module", "lottery")),
	}
	if c != nil {
		if len(c.Prizes) > 0 {
			uc.prizes = uc.prizes[:0:0]
			for _, p := range c.Prizes {
				if p == nil || p.Id == "" || p.Name == "" {
					continue
				}
				uc.prizes = append(uc.prizes, Prize{ID: p.Id, Name: p.Name, Type: outcome.TypePrize})
			}
		}
		if len(c.Poems) > 0 {
			uc.poems = append([]string(nil), c.Poems...)
		}
	}
	return uc
}

// SetPicker 替换情话随机源
func (uc *UseCase) SetPicker(p wheel.Picker) {
	if p != nil {
		uc.picker = p
	}
}

func (uc *UseCase) Prizes() []Prize {
	return append([]Prize(nil), uc.prizes...)
}

// Draw 依次领取第一个未抽出的奖品；全部抽完后随机返回一句情话
func (uc *UseCase) Draw(ctx context.Context) (*outcome.Outcome, error) {
	o, err := uc.drawOutcome(ctx)
	if err != nil {
		return nil, err
	}

	drawID, err := uc.repo.NextDrawID(ctx)
	if err != nil {
		// 编号失败不影响结果
		uc.log.WithContext(ctx).Warnf("next draw id: %v", err)
	}
	o.DrawID = drawID
	rec := &Record{DrawID: drawID, Type: o.Type, Result: o.Result, Message: o.Message, CreatedAt: time.Now()}
	if err := uc.repo.SaveRecord(ctx, rec); err != nil {
		uc.log.WithContext(ctx).Warnf("save draw record %s: %v", drawID, err)
	}
	uc.log.WithContext(ctx).Infof("draw %s: type=%s result=%s", drawID, o.Type, o.Result)
	return o, nil
}

func (uc *UseCase) drawOutcome(ctx context.Context) (*outcome.Outcome, error) {
	for _, p := range uc.prizes {
		ok, err := uc.repo.ClaimPrize(ctx, p.ID)
		if err != nil {
			return nil, fmt.Errorf("claim prize %s: %w", p.ID, err)
		}
		if ok {
			return &outcome.Outcome{
				Success: true,
				Type:    outcome.TypePrize,
				Result:  p.Name,
				Message: PrizeMessage(p.Name),
			}, nil
		}
	}
	if len(uc.poems) == 0 {
		return nil, fmt.Errorf("no poems configured")
	}
	return &outcome.Outcome{
		Success: true,
		Type:    outcome.TypePoem,
		Result:  uc.poems[uc.picker.IntN(len(uc.poems))],
		Message: PoemMessage,
	}, nil
}

// Status 已抽出数量统计
func (uc *UseCase) Status(ctx context.Context) (*Status, error) {
	drawn, err := uc.drawnKnown(ctx)
	if err != nil {
		return nil, err
	}
	return &Status{
		DrawnCount:     len(drawn),
		TotalPrizes:    len(uc.prizes),
		AllPrizesDrawn: len(drawn) >= len(uc.prizes),
	}, nil
}

// Reset 清空已抽出的奖品，抽奖记录保留
func (uc *UseCase) Reset(ctx context.Context) (*ResetReply, error) {
	if err := uc.repo.ResetPrizes(ctx); err != nil {
		uc.log.WithContext(ctx).Errorf("reset prizes: %v", err)
		return nil, ErrResetFailed.WithCause(err)
	}
	uc.log.WithContext(ctx).Info("lottery reset")
	return &ResetReply{Success: true, Message: ResetMessage}, nil
}

// AdminInfo 管理后台信息
func (uc *UseCase) AdminInfo(ctx context.Context) (*AdminInfo, error) {
	drawn, err := uc.drawnKnown(ctx)
	if err != nil {
		return nil, err
	}
	records, err := uc.repo.RecentRecords(ctx, recentLimit)
	if err != nil {
		uc.log.WithContext(ctx).Warnf("recent records: %v", err)
		records = nil
	}
	if drawn == nil {
		drawn = []string{}
	}
	if records == nil {
		records = []*Record{}
	}
	return &AdminInfo{
		DrawnPrizes:    drawn,
		Prizes:         uc.Prizes(),
		AllPrizesDrawn: len(drawn) >= len(uc.prizes),
		RecentRecords:  records,
	}, nil
}

// drawnKnown 只统计当前配置中的奖品，按领取顺序
func (uc *UseCase) drawnKnown(ctx context.Context) ([]string, error) {
	ids, err := uc.repo.DrawnPrizes(ctx)
	if err != nil {
		return nil, fmt.Errorf("drawn prizes: %w", err)
	}
	known := make(map[string]bool, len(uc.prizes))
	for _, p := range uc.prizes {
		known[p.ID] = true
	}
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if known[id] {
			out = append(out, id)
		}
	}
	return out, nil
}
