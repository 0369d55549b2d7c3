package outcome

import "context"

const (
	TypePrize = "prize"
	TypePoem  = "poem"
)

// Outcome 结果来源返回的一次抽奖结果
type Outcome struct {
	Success bool   `json:"success"`
	Type    string `json:"type"`
	Result  string `json:"result"`
	Message string `json:"message,omitempty"`
	// DrawID 抽奖编号，远端来源可不返回
	DrawID string `json:"drawId,omitempty"`
}

// IsPrize 是否为奖品结果（Result 需与某个扇区标签一致）
func (o *Outcome) IsPrize() bool {
	return o != nil && o.Type == TypePrize
}

// Source 结果来源：一次请求、一次响应，不重试
type Source interface {
	Draw(ctx context.Context) (*Outcome, error)
}

// SourceFunc 便于测试与进程内适配
type SourceFunc func(ctx context.Context) (*Outcome, error)

func (f SourceFunc) Draw(ctx context.Context) (*Outcome, error) {
	return f(ctx)
}
