package wheel

import (
	"math/rand/v2"

	"wheel/internal/biz/outcome"
)

// FallbackIndex 结果无法对应到扇区时使用的默认扇区
const FallbackIndex = 1

// Picker 均匀随机源，*rand.Rand 即满足
type Picker interface {
	IntN(n int) int
}

type globalPicker struct{}

func (globalPicker) IntN(n int) int { return rand.IntN(n) }

// DefaultPicker 使用 math/rand/v2 全局源
var DefaultPicker Picker = globalPicker{}

// ResolveTargetIndex 把结果映射到扇区下标：
// 奖品按标签精确匹配第一个扇区；其他结果在非奖品扇区中均匀随机；都找不到时返回 FallbackIndex。
func ResolveTargetIndex(o *outcome.Outcome, segments []Segment, picker Picker) int {
	if picker == nil {
		picker = DefaultPicker
	}
	if o.IsPrize() {
		for i, s := range segments {
			if s.Label == o.Result {
				return i
			}
		}
		return fallback(len(segments))
	}

	candidates := make([]int, 0, len(segments))
	for i, s := range segments {
		if !s.Prize {
			candidates = append(candidates, i)
		}
	}
	if len(candidates) == 0 {
		return fallback(len(segments))
	}
	return candidates[picker.IntN(len(candidates))]
}

// fallback 保证不会把越界下标交给角度计算
func fallback(n int) int {
	if FallbackIndex < n {
		return FallbackIndex
	}
	return 0
}
