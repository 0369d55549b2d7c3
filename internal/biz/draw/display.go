package draw

import (
	"sync"
	"time"

	"wheel/internal/biz/outcome"
)

const (
	IconPrize = "🎁"
	IconOther = "✨"
)

// Presentation 结果弹层内容
type Presentation struct {
	Icon    string `json:"icon"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

// Display 结果展示协作者，转盘停止后调用一次
type Display interface {
	Show(p Presentation)
}

// DisplayFunc 适配普通函数
type DisplayFunc func(p Presentation)

func (f DisplayFunc) Show(p Presentation) { f(p) }

// Present 奖品：🎁 + 结果 + 服务端消息；其他：✨ + 结果，消息为空
func Present(o *outcome.Outcome) Presentation {
	if o == nil {
		return Presentation{Icon: IconOther}
	}
	if o.IsPrize() {
		return Presentation{Icon: IconPrize, Title: o.Result, Message: o.Message}
	}
	return Presentation{Icon: IconOther, Title: o.Result}
}

// BoardState 看板快照
type BoardState struct {
	Visible      bool         `json:"visible"`
	Presentation Presentation `json:"presentation"`
	ShownAt      time.Time    `json:"shownAt"`
}

// Board 保存最近一次展示，关闭与转盘无关
type Board struct {
	mu    sync.RWMutex
	state BoardState
	now   func() time.Time
}

func NewBoard() *Board {
	return &Board{now: time.Now}
}

func (b *Board) Show(p Presentation) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = BoardState{Visible: true, Presentation: p, ShownAt: b.now()}
}

// Dismiss 关闭弹层，保留内容
func (b *Board) Dismiss() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state.Visible = false
}

func (b *Board) State() BoardState {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.state
}
